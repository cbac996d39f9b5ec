// Package arthub harvests structured records from a Datahub OAI-PMH
// endpoint.
//
// An Importer is opened against an endpoint, with an optional handler
// choice and an optional lookup-table stage. Opening resolves the
// handler and prepares the lookup tables before a single protocol
// request is made; a fetch failure means the pagination engine is never
// constructed. Records then stream lazily, one page of ListRecords at a
// time, each raw record parsed by the handler into a format.Record.
package arthub

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/thedatahub/arthub-core/internal/lookup"
	"github.com/thedatahub/arthub-core/internal/oai"
	"github.com/thedatahub/arthub-core/pkg/format"
)

// Tables holds the prepared lookup tables of a run.
type Tables = lookup.Tables

// Table is one loaded lookup table, readable by column.
type Table = lookup.Table

// Identity describes the remote repository, from the Identify verb.
type Identity struct {
	RepositoryName    string `json:"repositoryName"`
	BaseURL           string `json:"baseURL"`
	ProtocolVersion   string `json:"protocolVersion"`
	AdminEmail        string `json:"adminEmail,omitempty"`
	EarliestDatestamp string `json:"earliestDatestamp"`
	DeletedRecord     string `json:"deletedRecord,omitempty"`
	Granularity       string `json:"granularity"`
}

// Importer ties the pieces of a harvest together: protocol client,
// record handler and lookup tables.
type Importer struct {
	cfg     *Config
	client  *oai.Client
	handler format.Handler
	tables  *Tables

	mu    sync.Mutex
	iters []*Iterator
}

// Open validates params and builds an importer.
func Open(ctx context.Context, params map[string]any) (*Importer, error) {
	return OpenConfig(ctx, ParseConfig(params))
}

// OpenConfig builds an importer from an explicit Config. The handler is
// resolved and the lookup tables are prepared here, so configuration
// mistakes and unreachable table sources fail before any protocol
// traffic.
func OpenConfig(ctx context.Context, cfg *Config) (*Importer, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.normalize()
	if vr := cfg.Validate(); !vr.Valid {
		return nil, wrapError(vr.Code, vr.Retryable, fmt.Errorf("%s", vr.Message))
	}

	handler := cfg.Handler
	if handler == nil {
		h, err := format.Resolve(cfg.HandlerName, cfg.Prefix)
		if err != nil {
			return nil, wrapError(CodeConfigInvalid, false, err)
		}
		handler = h
	}

	var tables *Tables
	if cfg.Lookup != nil {
		t, err := lookup.Prepare(ctx, cfg.Lookup)
		if err != nil {
			return nil, err
		}
		tables = t
	}

	client, err := oai.NewClient(&oai.Config{
		Endpoint:    cfg.Endpoint,
		Prefix:      cfg.Prefix,
		Set:         cfg.Set,
		From:        cfg.From,
		Until:       cfg.Until,
		Username:    cfg.Username,
		Password:    cfg.Password,
		UserAgent:   cfg.UserAgent,
		Timeout:     cfg.Timeout,
		RateLimit:   cfg.RateLimit,
		RateBurst:   cfg.RateBurst,
		MaxRequests: cfg.MaxRequests,
	})
	if err != nil {
		if tables != nil {
			tables.Close()
		}
		return nil, err
	}

	log.WithFields(log.Fields{
		"endpoint": cfg.Endpoint,
		"prefix":   cfg.Prefix,
	}).Info("importer ready")

	return &Importer{
		cfg:     cfg,
		client:  client,
		handler: handler,
		tables:  tables,
	}, nil
}

// Records starts a harvest and returns the structured-record sequence.
// The sequence is lazy and forward-only; nothing is fetched until the
// first call to Next.
func (imp *Importer) Records(ctx context.Context) *Iterator {
	it := &Iterator{
		raw:     imp.client.Records(ctx),
		handler: imp.handler,
	}
	imp.mu.Lock()
	imp.iters = append(imp.iters, it)
	imp.mu.Unlock()
	return it
}

// Tables exposes the prepared lookup tables, nil when no pid_module was
// configured.
func (imp *Importer) Tables() *Tables {
	return imp.tables
}

// Identify asks the endpoint to describe itself.
func (imp *Importer) Identify(ctx context.Context) (*Identity, error) {
	ident, err := imp.client.Identify(ctx)
	if err != nil {
		return nil, err
	}
	return &Identity{
		RepositoryName:    ident.RepositoryName,
		BaseURL:           ident.BaseURL,
		ProtocolVersion:   ident.ProtocolVersion,
		AdminEmail:        ident.AdminEmail,
		EarliestDatestamp: ident.EarliestDatestamp,
		DeletedRecord:     ident.DeletedRecord,
		Granularity:       ident.Granularity,
	}, nil
}

// Close tears down open record streams and the lookup-table store.
func (imp *Importer) Close() error {
	imp.mu.Lock()
	iters := imp.iters
	imp.iters = nil
	imp.mu.Unlock()

	for _, it := range iters {
		it.Close()
	}
	if imp.tables != nil {
		return imp.tables.Close()
	}
	return nil
}

// Iterator streams structured records: each raw record pulled from the
// protocol engine is pushed through the handler.
type Iterator struct {
	raw     *oai.RecordIterator
	handler format.Handler
	current format.Record
	err     error
}

var _ format.Iterator[format.Record] = (*Iterator)(nil)

// Next advances to the next structured record.
func (it *Iterator) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.raw.Next() {
		it.err = it.raw.Err()
		return false
	}
	record, err := it.handler.Parse(it.raw.Value())
	if err != nil {
		it.err = fmt.Errorf("parse %s: %w", it.raw.Value().Identifier, err)
		return false
	}
	it.current = record
	return true
}

// Value returns the current record. Valid after Next returned true.
func (it *Iterator) Value() format.Record {
	return it.current
}

// Err returns any error encountered.
func (it *Iterator) Err() error {
	return it.err
}

// Close stops the iteration.
func (it *Iterator) Close() error {
	return it.raw.Close()
}

// CompleteListSize reports the endpoint's declared total, 0 when unknown.
func (it *Iterator) CompleteListSize() int {
	return it.raw.CompleteListSize()
}

// Requests reports how many protocol requests have been issued.
func (it *Iterator) Requests() int {
	return it.raw.Requests()
}
