// Package lookup fetches the CSV mapping files a harvest depends on and
// materializes them as process-local tables.
//
// Three tables are always prepared, synchronously and in order, before
// any records flow: pid_mapping, creator_mapping and vocabulary_mapping
// (the last indexed by its name column). The files come either from an
// S3-compatible object store ("rcf") or over plain HTTP ("lwp"); both
// land as CSV in the run's working directory and are loaded into SQLite
// from there. The tables are torn down again on Close, the fetched CSVs
// stay behind for inspection.
package lookup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	TablePID        = "pid_mapping"
	TableCreator    = "creator_mapping"
	TableVocabulary = "vocabulary_mapping"

	vocabularyKeyColumn = "name"
)

// Fetcher downloads mapping files through the configured variant.
type Fetcher struct {
	store     ObjectStore
	container string
	workdir   string
}

// NewFetcher resolves the configured variant into a concrete fetcher.
func NewFetcher(cfg *Config) (*Fetcher, error) {
	if cfg == nil {
		return nil, wrapError(CodeConfigInvalid, false, fmt.Errorf("config is required"))
	}
	cfg.normalizeDefaults()
	if vr := cfg.Validate(); !vr.Valid {
		return nil, wrapError(vr.Code, vr.Retryable, fmt.Errorf("%s", vr.Message))
	}

	f := &Fetcher{workdir: cfg.WorkDir}
	switch cfg.Module {
	case ModuleCloudFiles:
		f.container = cfg.RcfContainer
		if strings.HasPrefix(cfg.RcfEndpoint, "file://") {
			f.store = NewLocalStore(cfg.objectRoot())
		} else {
			store, err := NewCloudFilesStore(cfg)
			if err != nil {
				return nil, err
			}
			f.store = store
		}
	case ModuleHTTP:
		store, err := NewHTTPStore(cfg)
		if err != nil {
			return nil, err
		}
		f.store = store
	}
	return f, nil
}

// Store exposes the resolved object store, for tests.
func (f *Fetcher) Store() ObjectStore {
	return f.store
}

// Fetch downloads one object and writes it under the working directory,
// returning the local path.
func (f *Fetcher) Fetch(ctx context.Context, objectKey string) (string, error) {
	data, err := f.store.GetObject(ctx, f.container, objectKey)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(f.workdir, 0o755); err != nil {
		return "", wrapError(CodeFetchFailed, false, err)
	}
	path := filepath.Join(f.workdir, filepath.Base(objectKey))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", wrapError(CodeFetchFailed, true, err)
	}
	return path, nil
}

// Tables holds the three prepared lookup tables. Close tears down the
// backing store.
type Tables struct {
	PID        *Table
	Creator    *Table
	Vocabulary *Table

	store *Store
}

func (t *Tables) Close() error {
	if t == nil || t.store == nil {
		return nil
	}
	return t.store.Close()
}

// Prepare fetches and loads the three lookup tables, in order. Any
// failure aborts the whole preparation; there are no partial tables.
func Prepare(ctx context.Context, cfg *Config) (*Tables, error) {
	fetcher, err := NewFetcher(cfg)
	if err != nil {
		return nil, err
	}
	store, err := OpenStore(cfg.WorkDir)
	if err != nil {
		return nil, err
	}

	tables := &Tables{store: store}
	load := func(objectKey, table, keyColumn string) (*Table, error) {
		path, err := fetcher.Fetch(ctx, objectKey)
		if err != nil {
			return nil, err
		}
		loaded, err := store.Load(ctx, path, table, keyColumn)
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{"table": table, "rows": loaded.Len()}).Info("lookup table loaded")
		return loaded, nil
	}

	if tables.PID, err = load(cfg.PIDObject, TablePID, ""); err != nil {
		store.Close()
		return nil, err
	}
	if tables.Creator, err = load(cfg.CreatorObject, TableCreator, ""); err != nil {
		store.Close()
		return nil, err
	}
	if tables.Vocabulary, err = load(cfg.VocabularyObject, TableVocabulary, vocabularyKeyColumn); err != nil {
		store.Close()
		return nil, err
	}
	return tables, nil
}
