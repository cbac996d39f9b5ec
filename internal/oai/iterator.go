package oai

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/thedatahub/arthub-core/pkg/format"
)

// RecordIterator streams raw records across ListRecords pages, following
// resumption tokens until the endpoint stops issuing one. It is lazy and
// forward-only: each page is fetched when the previous one is exhausted,
// and nothing is buffered beyond the current page.
type RecordIterator struct {
	ctx    context.Context
	client *Client

	current    []*format.RawRecord
	currentIdx int
	next       *Request
	lastToken  string
	requests   int
	size       int
	done       bool
	err        error
}

var _ format.Iterator[*format.RawRecord] = (*RecordIterator)(nil)

// Records starts a harvest with the client's configured parameters.
// Iteration does not touch the network until the first call to Next.
func (c *Client) Records(ctx context.Context) *RecordIterator {
	if ctx == nil {
		ctx = context.Background()
	}
	return &RecordIterator{
		ctx:    ctx,
		client: c,
		next: &Request{
			Verb:   VerbListRecords,
			Prefix: c.cfg.Prefix,
			Set:    c.cfg.Set,
			From:   c.cfg.From,
			Until:  c.cfg.Until,
		},
		currentIdx: -1,
	}
}

// Next advances to the next record, fetching pages as needed. It returns
// false when the stream is exhausted or an error occurred; check Err to
// tell the two apart.
func (it *RecordIterator) Next() bool {
	if it.err != nil {
		return false
	}
	if it.currentIdx+1 < len(it.current) {
		it.currentIdx++
		return true
	}

	for !it.done && it.next != nil {
		if max := it.client.cfg.MaxRequests; max > 0 && it.requests >= max {
			log.WithFields(log.Fields{"requests": it.requests}).Warn("request budget reached, stopping harvest early")
			it.done = true
			return false
		}

		page, err := it.client.ListRecords(it.ctx, *it.next)
		it.requests++
		if err != nil {
			it.err = err
			return false
		}
		if page.CompleteListSize > 0 {
			it.size = page.CompleteListSize
		}

		// An endpoint that hands back the token it was just given would
		// loop us forever; treat that as a broken response.
		token := page.Token
		if token != "" && token == it.lastToken {
			it.err = wrapError(CodeResponseMalformed, false,
				fmt.Errorf("resumption token did not advance: %q", token))
			return false
		}
		it.lastToken = token

		if token == "" {
			it.next = nil
		} else {
			it.next = &Request{Verb: VerbListRecords, Token: token}
		}

		if len(page.Records) > 0 {
			it.current = page.Records
			it.currentIdx = 0
			return true
		}
		// Empty page with a token: keep following.
	}
	return false
}

// Value returns the current record. It is valid after Next returned true
// and stays stable until the next call to Next.
func (it *RecordIterator) Value() *format.RawRecord {
	if it.currentIdx >= 0 && it.currentIdx < len(it.current) {
		return it.current[it.currentIdx]
	}
	return nil
}

// Err returns any error encountered.
func (it *RecordIterator) Err() error {
	return it.err
}

// Close stops the iteration. No further pages are fetched.
func (it *RecordIterator) Close() error {
	it.done = true
	it.next = nil
	return nil
}

// CompleteListSize reports the total the endpoint declared on its
// resumption token, or 0 when it never did.
func (it *RecordIterator) CompleteListSize() int {
	return it.size
}

// Requests reports how many protocol requests have been issued so far.
func (it *RecordIterator) Requests() int {
	return it.requests
}
