package lookup

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/thedatahub/arthub-core/pkg/format"
)

// Store materializes lookup tables in a process-local SQLite database.
// The backing file lives under dir and is removed again on Close.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore creates the table store under dir.
func OpenStore(dir string) (*Store, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "arthub-lookup")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, wrapError(CodeLoadFailed, false, err)
	}
	path := filepath.Join(dir, "lookup.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapError(CodeLoadFailed, false, err)
	}

	// SQLite allows one writer; a single connection keeps loads and
	// lookups from tripping over each other.
	db.SetMaxOpenConns(1)

	return &Store{db: db, path: path}, nil
}

// Close releases the database and deletes the backing file. Lookup
// tables never outlive the run.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	if removeErr := os.Remove(s.path); removeErr != nil && !os.IsNotExist(removeErr) && err == nil {
		err = removeErr
	}
	return err
}

// Load reads a CSV file into a fresh table. The header row names the
// columns; every value is stored as TEXT. When keyColumn is non-empty a
// unique index is created over it, so duplicate keys fail the load.
func (s *Store) Load(ctx context.Context, csvPath, table, keyColumn string) (*Table, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, wrapError(CodeLoadFailed, false, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, wrapError(CodeLoadFailed, false, fmt.Errorf("read header of %s: %w", csvPath, err))
	}

	cols := make([]string, len(header))
	for i, col := range header {
		col = strings.TrimSpace(col)
		if col == "" {
			return nil, wrapError(CodeLoadFailed, false, fmt.Errorf("%s: empty column name in header", csvPath))
		}
		cols[i] = col
	}
	if keyColumn != "" {
		found := false
		for _, col := range cols {
			if col == keyColumn {
				found = true
				break
			}
		}
		if !found {
			return nil, wrapError(CodeLoadFailed, false, fmt.Errorf("%s: key column %q not in header", csvPath, keyColumn))
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapError(CodeLoadFailed, true, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(table))); err != nil {
		return nil, wrapError(CodeLoadFailed, false, err)
	}

	defs := make([]string, len(cols))
	for i, col := range cols {
		defs[i] = quoteIdent(col) + " TEXT"
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return nil, wrapError(CodeLoadFailed, false, fmt.Errorf("create table %s: %w", table, err))
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(table), placeholders)
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return nil, wrapError(CodeLoadFailed, false, err)
	}
	defer stmt.Close()

	count := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// encoding/csv reports ragged rows here.
			return nil, wrapError(CodeLoadFailed, false, fmt.Errorf("%s line %d: %w", csvPath, count+2, err))
		}
		args := make([]any, len(row))
		for i, v := range row {
			args[i] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return nil, wrapError(CodeLoadFailed, false, fmt.Errorf("%s line %d: %w", csvPath, count+2, err))
		}
		count++
	}

	if keyColumn != "" {
		index := fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (%s)",
			quoteIdent("idx_"+table+"_"+keyColumn), quoteIdent(table), quoteIdent(keyColumn))
		if _, err := tx.ExecContext(ctx, index); err != nil {
			return nil, wrapError(CodeLoadFailed, false, fmt.Errorf("unique index on %s.%s: %w", table, keyColumn, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapError(CodeLoadFailed, true, err)
	}

	return &Table{store: s, name: table, keyColumn: keyColumn, count: count}, nil
}

// Table is one loaded lookup table.
type Table struct {
	store     *Store
	name      string
	keyColumn string
	count     int
}

func (t *Table) Name() string { return t.name }
func (t *Table) Len() int     { return t.count }

// Lookup returns the row whose key column equals value. It requires the
// table to have been loaded with a key column.
func (t *Table) Lookup(value string) (map[string]string, bool, error) {
	if t.keyColumn == "" {
		return nil, false, wrapError(CodeConfigInvalid, false, fmt.Errorf("table %s has no key column", t.name))
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = ? LIMIT 1", quoteIdent(t.name), quoteIdent(t.keyColumn))
	rows, err := t.store.db.Query(query, value)
	if err != nil {
		return nil, false, wrapError(CodeLoadFailed, false, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, false, wrapError(CodeLoadFailed, false, err)
	}
	if !rows.Next() {
		return nil, false, rows.Err()
	}
	record, err := scanRow(rows, cols)
	if err != nil {
		return nil, false, wrapError(CodeLoadFailed, false, err)
	}
	return record, true, nil
}

// Rows streams every row of the table in load order.
func (t *Table) Rows() (*RowIterator, error) {
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY rowid", quoteIdent(t.name))
	rows, err := t.store.db.Query(query)
	if err != nil {
		return nil, wrapError(CodeLoadFailed, false, err)
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, wrapError(CodeLoadFailed, false, err)
	}
	return &RowIterator{rows: rows, cols: cols}, nil
}

// RowIterator wraps sql.Rows as an iterator over string maps.
type RowIterator struct {
	rows    *sql.Rows
	cols    []string
	current map[string]string
	err     error
}

var _ format.Iterator[map[string]string] = (*RowIterator)(nil)

func (it *RowIterator) Next() bool {
	if !it.rows.Next() {
		it.err = it.rows.Err()
		return false
	}
	record, err := scanRow(it.rows, it.cols)
	if err != nil {
		it.err = err
		return false
	}
	it.current = record
	return true
}

func (it *RowIterator) Value() map[string]string { return it.current }
func (it *RowIterator) Err() error               { return it.err }
func (it *RowIterator) Close() error             { return it.rows.Close() }

func scanRow(rows *sql.Rows, cols []string) (map[string]string, error) {
	values := make([]any, len(cols))
	valuePtrs := make([]any, len(cols))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := rows.Scan(valuePtrs...); err != nil {
		return nil, err
	}

	record := make(map[string]string, len(cols))
	for i, col := range cols {
		record[col] = toString(values[i])
	}
	return record, nil
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

// quoteIdent quotes a SQL identifier; CSV headers are not trusted input.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
