package lookup_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/thedatahub/arthub-core/internal/lookup"
)

const vocabularyCSV = `name,aat_uri
painting,http://vocab.getty.edu/aat/300033618
sculpture,http://vocab.getty.edu/aat/300047090
tapestry,http://vocab.getty.edu/aat/300205002
`

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func openStore(t *testing.T) *lookup.Store {
	t.Helper()
	store, err := lookup.OpenStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStore error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected error")
	}
	var lookupErr *lookup.Error
	if !errors.As(err, &lookupErr) {
		t.Fatalf("Expected *lookup.Error, got %T: %v", err, err)
	}
	if lookupErr.Code != code {
		t.Errorf("Expected code %s, got %s (%v)", code, lookupErr.Code, err)
	}
}

func TestStore_LoadAndLookup(t *testing.T) {
	store := openStore(t)
	path := writeCSV(t, t.TempDir(), "vocabulary_mapping.csv", vocabularyCSV)

	table, err := store.Load(context.Background(), path, lookup.TableVocabulary, "name")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if table.Name() != "vocabulary_mapping" {
		t.Errorf("Expected table name 'vocabulary_mapping', got '%s'", table.Name())
	}
	if table.Len() != 3 {
		t.Errorf("Expected 3 rows, got %d", table.Len())
	}

	row, found, err := table.Lookup("painting")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if !found {
		t.Fatal("Expected a row for 'painting'")
	}
	if row["aat_uri"] != "http://vocab.getty.edu/aat/300033618" {
		t.Errorf("Unexpected aat_uri '%s'", row["aat_uri"])
	}
	if row["name"] != "painting" {
		t.Errorf("Unexpected name '%s'", row["name"])
	}

	_, found, err = table.Lookup("engraving")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if found {
		t.Error("Expected no row for 'engraving'")
	}
}

func TestStore_LookupRequiresKeyColumn(t *testing.T) {
	store := openStore(t)
	path := writeCSV(t, t.TempDir(), "pid_mapping.csv", "local_id,work_pid\n1102,https://id.example.org/work/1102\n")

	table, err := store.Load(context.Background(), path, lookup.TablePID, "")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	_, _, err = table.Lookup("1102")
	expectCode(t, err, lookup.CodeConfigInvalid)
}

func TestStore_RaggedRowFailsLoad(t *testing.T) {
	store := openStore(t)
	ragged := "name,aat_uri\npainting,http://vocab.getty.edu/aat/300033618\nsculpture\n"
	path := writeCSV(t, t.TempDir(), "vocabulary_mapping.csv", ragged)

	_, err := store.Load(context.Background(), path, lookup.TableVocabulary, "name")
	expectCode(t, err, lookup.CodeLoadFailed)
}

func TestStore_DuplicateKeyFailsLoad(t *testing.T) {
	store := openStore(t)
	duplicated := "name,aat_uri\npainting,http://vocab.getty.edu/aat/300033618\npainting,http://vocab.getty.edu/aat/300177435\n"
	path := writeCSV(t, t.TempDir(), "vocabulary_mapping.csv", duplicated)

	_, err := store.Load(context.Background(), path, lookup.TableVocabulary, "name")
	expectCode(t, err, lookup.CodeLoadFailed)
}

func TestStore_MissingKeyColumnFailsLoad(t *testing.T) {
	store := openStore(t)
	path := writeCSV(t, t.TempDir(), "vocabulary_mapping.csv", "term,aat_uri\npainting,x\n")

	_, err := store.Load(context.Background(), path, lookup.TableVocabulary, "name")
	expectCode(t, err, lookup.CodeLoadFailed)
}

func TestStore_MissingFileFailsLoad(t *testing.T) {
	store := openStore(t)
	_, err := store.Load(context.Background(), filepath.Join(t.TempDir(), "absent.csv"), lookup.TablePID, "")
	expectCode(t, err, lookup.CodeLoadFailed)
}

func TestStore_RowsStreamInLoadOrder(t *testing.T) {
	store := openStore(t)
	path := writeCSV(t, t.TempDir(), "creator_mapping.csv",
		"creator,full_name\nensor,James Ensor\npermeke,Constant Permeke\nwouters,Rik Wouters\n")

	table, err := store.Load(context.Background(), path, lookup.TableCreator, "")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	it, err := table.Rows()
	if err != nil {
		t.Fatalf("Rows error: %v", err)
	}
	defer it.Close()

	var names []string
	for it.Next() {
		names = append(names, it.Value()["full_name"])
	}
	if err := it.Err(); err != nil {
		t.Fatalf("Iterator error: %v", err)
	}

	expected := []string{"James Ensor", "Constant Permeke", "Rik Wouters"}
	if len(names) != len(expected) {
		t.Fatalf("Expected %d rows, got %d", len(expected), len(names))
	}
	for i, name := range expected {
		if names[i] != name {
			t.Errorf("Expected row %d to be '%s', got '%s'", i, name, names[i])
		}
	}
}

func TestStore_ReloadReplacesTable(t *testing.T) {
	store := openStore(t)
	dir := t.TempDir()

	first := writeCSV(t, dir, "first.csv", "name,aat_uri\npainting,x\nsculpture,y\n")
	if _, err := store.Load(context.Background(), first, lookup.TableVocabulary, "name"); err != nil {
		t.Fatalf("Load error: %v", err)
	}

	second := writeCSV(t, dir, "second.csv", "name,aat_uri\ntapestry,z\n")
	table, err := store.Load(context.Background(), second, lookup.TableVocabulary, "name")
	if err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	if table.Len() != 1 {
		t.Errorf("Expected 1 row after reload, got %d", table.Len())
	}
	if _, found, _ := table.Lookup("painting"); found {
		t.Error("Expected old rows to be gone after reload")
	}
}

func TestStore_QuotedFieldsSurviveRoundTrip(t *testing.T) {
	store := openStore(t)
	quoted := "creator,full_name\nvaneyck,\"Eyck, Jan van\"\n"
	path := writeCSV(t, t.TempDir(), "creator_mapping.csv", quoted)

	table, err := store.Load(context.Background(), path, lookup.TableCreator, "creator")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	row, found, err := table.Lookup("vaneyck")
	if err != nil || !found {
		t.Fatalf("Lookup failed: found=%v err=%v", found, err)
	}
	if row["full_name"] != "Eyck, Jan van" {
		t.Errorf("Expected quoted field to survive, got '%s'", row["full_name"])
	}
}

func TestStore_CloseRemovesDatabaseFile(t *testing.T) {
	dir := t.TempDir()
	store, err := lookup.OpenStore(dir)
	if err != nil {
		t.Fatalf("OpenStore error: %v", err)
	}

	path := writeCSV(t, t.TempDir(), "pid_mapping.csv", "local_id,work_pid\n1102,https://id.example.org/work/1102\n")
	if _, err := store.Load(context.Background(), path, lookup.TablePID, ""); err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "lookup.db")); !os.IsNotExist(err) {
		t.Error("Expected database file to be removed on Close")
	}
}
