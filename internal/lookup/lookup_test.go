package lookup_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/thedatahub/arthub-core/internal/lookup"
)

const (
	pidCSV     = "local_id,work_pid,data_pid\n1102,https://id.example.org/work/1102,https://id.example.org/data/1102\n"
	creatorCSV = "creator,full_name\nensor,James Ensor\n"
)

// seedLocalStore stages the three mapping files under a local object root
// and returns a config pointing at it through a file:// endpoint.
func seedLocalStore(t *testing.T, objects map[string]string) *lookup.Config {
	t.Helper()
	root := t.TempDir()
	store := lookup.NewLocalStore(root)
	for key, content := range objects {
		if err := store.PutObject(context.Background(), "production", key, []byte(content)); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}
	return &lookup.Config{
		Module:       lookup.ModuleCloudFiles,
		RcfContainer: "production",
		RcfEndpoint:  "file://" + root,
		WorkDir:      t.TempDir(),
	}
}

// --- Config tests ---

func TestConfig_ParseAliases(t *testing.T) {
	cfg := lookup.ParseConfig(map[string]any{
		"pid_module":             "rcf",
		"pid_username":           "datahub",
		"pid_password":           "s3cret",
		"pid_rcf_container_name": "production",
		"pid_rcf_endpoint_url":   "https://storage.example.org",
		"vocabulary_object_name": "aat_subset.csv",
	})

	if cfg.Module != lookup.ModuleCloudFiles {
		t.Errorf("Expected module 'rcf', got '%s'", cfg.Module)
	}
	if cfg.Username != "datahub" || cfg.Password != "s3cret" {
		t.Errorf("Unexpected credentials %s/%s", cfg.Username, cfg.Password)
	}
	if cfg.RcfContainer != "production" {
		t.Errorf("Unexpected container '%s'", cfg.RcfContainer)
	}
	if cfg.VocabularyObject != "aat_subset.csv" {
		t.Errorf("Expected overridden vocabulary object, got '%s'", cfg.VocabularyObject)
	}
	if cfg.PIDObject != "pid_mapping.csv" {
		t.Errorf("Expected default pid object, got '%s'", cfg.PIDObject)
	}
	if cfg.CreatorObject != "creator_mapping.csv" {
		t.Errorf("Expected default creator object, got '%s'", cfg.CreatorObject)
	}
}

func TestConfig_ValidateUnknownModule(t *testing.T) {
	cfg := &lookup.Config{Module: "ftp"}
	vr := cfg.Validate()
	if vr.Valid {
		t.Fatal("Expected validation failure")
	}
	if !strings.Contains(vr.Message, "unknown pid_module") {
		t.Errorf("Unexpected message '%s'", vr.Message)
	}
	if vr.Code != lookup.CodeConfigInvalid {
		t.Errorf("Expected code %s, got %s", lookup.CodeConfigInvalid, vr.Code)
	}
}

func TestConfig_ValidateMissingModule(t *testing.T) {
	cfg := &lookup.Config{}
	if vr := cfg.Validate(); vr.Valid {
		t.Fatal("Expected validation failure for missing module")
	}
}

func TestConfig_ValidateCloudFiles(t *testing.T) {
	cfg := &lookup.Config{Module: lookup.ModuleCloudFiles}
	if vr := cfg.Validate(); vr.Valid || !strings.Contains(vr.Message, "pid_rcf_container_name") {
		t.Errorf("Expected container requirement, got %+v", vr)
	}

	cfg.RcfContainer = "production"
	if vr := cfg.Validate(); vr.Valid || !strings.Contains(vr.Message, "pid_rcf_endpoint_url") {
		t.Errorf("Expected endpoint requirement, got %+v", vr)
	}

	cfg.RcfEndpoint = "https://storage.example.org"
	if vr := cfg.Validate(); vr.Valid || !strings.Contains(vr.Message, "pid_username") {
		t.Errorf("Expected credential requirement, got %+v", vr)
	}

	cfg.Username, cfg.Password = "datahub", "s3cret"
	if vr := cfg.Validate(); !vr.Valid {
		t.Errorf("Expected valid config, got %+v", vr)
	}
}

func TestConfig_FileEndpointNeedsNoCredentials(t *testing.T) {
	cfg := &lookup.Config{
		Module:       lookup.ModuleCloudFiles,
		RcfContainer: "production",
		RcfEndpoint:  "file:///var/lib/arthub/objects",
	}
	if vr := cfg.Validate(); !vr.Valid {
		t.Errorf("Expected file:// endpoint to validate without credentials, got %+v", vr)
	}
}

func TestConfig_ValidateHTTP(t *testing.T) {
	cfg := &lookup.Config{Module: lookup.ModuleHTTP}
	if vr := cfg.Validate(); vr.Valid || !strings.Contains(vr.Message, "pid_lwp_base_url") {
		t.Errorf("Expected base URL requirement, got %+v", vr)
	}

	cfg.LwpBaseURL = "https://resolver.example.org/mappings"
	if vr := cfg.Validate(); !vr.Valid {
		t.Errorf("Expected valid config, got %+v", vr)
	}
}

// --- Fetcher tests ---

func TestFetcher_LocalRoundTrip(t *testing.T) {
	cfg := seedLocalStore(t, map[string]string{"pid_mapping.csv": pidCSV})

	fetcher, err := lookup.NewFetcher(cfg)
	if err != nil {
		t.Fatalf("NewFetcher error: %v", err)
	}

	path, err := fetcher.Fetch(context.Background(), "pid_mapping.csv")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if !strings.HasPrefix(path, cfg.WorkDir) {
		t.Errorf("Expected CSV under workdir %s, got %s", cfg.WorkDir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fetched file: %v", err)
	}
	if string(data) != pidCSV {
		t.Errorf("Fetched payload differs from staged object")
	}
}

func TestFetcher_MissingObject(t *testing.T) {
	cfg := seedLocalStore(t, nil)

	fetcher, err := lookup.NewFetcher(cfg)
	if err != nil {
		t.Fatalf("NewFetcher error: %v", err)
	}

	_, err = fetcher.Fetch(context.Background(), "pid_mapping.csv")
	expectCode(t, err, lookup.CodeFetchFailed)
}

func TestFetcher_RejectsInvalidConfig(t *testing.T) {
	_, err := lookup.NewFetcher(&lookup.Config{Module: "ftp"})
	expectCode(t, err, lookup.CodeConfigInvalid)
}

// --- HTTP store tests ---

func newHTTPStore(t *testing.T, cfg *lookup.Config) *lookup.HTTPStore {
	t.Helper()
	store, err := lookup.NewHTTPStore(cfg)
	if err != nil {
		t.Fatalf("NewHTTPStore error: %v", err)
	}
	store.SetDoer(&http.Client{})
	return store
}

func TestHTTPStore_FetchWithBasicAuth(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/mappings/creator_mapping.csv" {
			t.Errorf("Unexpected path '%s'", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "datahub" || pass != "s3cret" {
			w.Header().Set("WWW-Authenticate", `Basic realm="Datahub"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, creatorCSV)
	}))
	defer ts.Close()

	store := newHTTPStore(t, &lookup.Config{
		Module:     lookup.ModuleHTTP,
		LwpBaseURL: ts.URL + "/mappings",
		LwpRealm:   "Datahub",
		Username:   "datahub",
		Password:   "s3cret",
	})

	data, err := store.GetObject(context.Background(), "", "creator_mapping.csv")
	if err != nil {
		t.Fatalf("GetObject error: %v", err)
	}
	if string(data) != creatorCSV {
		t.Errorf("Unexpected payload %q", data)
	}
}

func TestHTTPStore_RejectedCredentials(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer ts.Close()

	store := newHTTPStore(t, &lookup.Config{
		Module:     lookup.ModuleHTTP,
		LwpBaseURL: ts.URL,
		Username:   "datahub",
		Password:   "wrong",
	})

	_, err := store.GetObject(context.Background(), "", "creator_mapping.csv")
	expectCode(t, err, lookup.CodeFetchFailed)

	var lookupErr *lookup.Error
	if errors.As(err, &lookupErr) && lookupErr.Retryable {
		t.Error("Expected auth rejection to be non-retryable")
	}
}

func TestHTTPStore_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	store := newHTTPStore(t, &lookup.Config{Module: lookup.ModuleHTTP, LwpBaseURL: ts.URL})
	_, err := store.GetObject(context.Background(), "", "vocabulary_mapping.csv")
	expectCode(t, err, lookup.CodeFetchFailed)
}

func TestHTTPStore_ServerErrorRetryable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	store := newHTTPStore(t, &lookup.Config{Module: lookup.ModuleHTTP, LwpBaseURL: ts.URL})
	_, err := store.GetObject(context.Background(), "", "pid_mapping.csv")

	var lookupErr *lookup.Error
	if !errors.As(err, &lookupErr) {
		t.Fatalf("Expected *lookup.Error, got %T", err)
	}
	if !lookupErr.Retryable {
		t.Error("Expected HTTP 5xx to be retryable")
	}
}

// --- Prepare tests ---

func TestPrepare_BuildsThreeTables(t *testing.T) {
	cfg := seedLocalStore(t, map[string]string{
		"pid_mapping.csv":        pidCSV,
		"creator_mapping.csv":    creatorCSV,
		"vocabulary_mapping.csv": vocabularyCSV,
	})

	tables, err := lookup.Prepare(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Prepare error: %v", err)
	}
	defer tables.Close()

	if tables.PID.Len() != 1 {
		t.Errorf("Expected 1 pid row, got %d", tables.PID.Len())
	}
	if tables.Creator.Len() != 1 {
		t.Errorf("Expected 1 creator row, got %d", tables.Creator.Len())
	}
	if tables.Vocabulary.Len() != 3 {
		t.Errorf("Expected 3 vocabulary rows, got %d", tables.Vocabulary.Len())
	}

	row, found, err := tables.Vocabulary.Lookup("sculpture")
	if err != nil || !found {
		t.Fatalf("Vocabulary lookup failed: found=%v err=%v", found, err)
	}
	if row["aat_uri"] != "http://vocab.getty.edu/aat/300047090" {
		t.Errorf("Unexpected aat_uri '%s'", row["aat_uri"])
	}

	// Only the vocabulary table is keyed.
	if _, _, err := tables.PID.Lookup("1102"); err == nil {
		t.Error("Expected pid lookup without key column to fail")
	}
}

func TestPrepare_MissingObjectAborts(t *testing.T) {
	cfg := seedLocalStore(t, map[string]string{
		"pid_mapping.csv": pidCSV,
		// creator_mapping.csv deliberately absent
		"vocabulary_mapping.csv": vocabularyCSV,
	})

	tables, err := lookup.Prepare(context.Background(), cfg)
	if tables != nil {
		t.Error("Expected no tables on fetch failure")
	}
	expectCode(t, err, lookup.CodeFetchFailed)
}

func TestPrepare_DuplicateVocabularyKeyAborts(t *testing.T) {
	cfg := seedLocalStore(t, map[string]string{
		"pid_mapping.csv":        pidCSV,
		"creator_mapping.csv":    creatorCSV,
		"vocabulary_mapping.csv": "name,aat_uri\npainting,x\npainting,y\n",
	})

	tables, err := lookup.Prepare(context.Background(), cfg)
	if tables != nil {
		t.Error("Expected no tables on load failure")
	}
	expectCode(t, err, lookup.CodeLoadFailed)
}

func TestPrepare_ObjectNameOverrides(t *testing.T) {
	cfg := seedLocalStore(t, map[string]string{
		"pids/2024-03.csv":       pidCSV,
		"creator_mapping.csv":    creatorCSV,
		"vocabulary_mapping.csv": vocabularyCSV,
	})
	cfg.PIDObject = "pids/2024-03.csv"

	tables, err := lookup.Prepare(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Prepare error: %v", err)
	}
	defer tables.Close()

	if tables.PID.Len() != 1 {
		t.Errorf("Expected 1 pid row, got %d", tables.PID.Len())
	}
}
