// Package oai implements the OAI-PMH harvesting side of Arthub: a
// ListRecords client and a resumption-token iterator over raw records.
//
// The client issues one request at a time and never retries; resilience
// belongs to the injected Doer, which defaults to a retrying pester
// client with exponential backoff.
package oai

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethgrid/pester"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/thedatahub/arthub-core/pkg/format"
)

const (
	// DefaultPrefix is the metadata prefix Arthub serves its records in.
	DefaultPrefix = "oai_lido"

	defaultUserAgent = "arthub-harvest/0.2 (+https://github.com/thedatahub/arthub-core)"
)

// Doer executes a single HTTP request. Satisfied by *http.Client and
// *pester.Client alike.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a harvesting client.
type Config struct {
	// Endpoint is the base URL of the OAI-PMH endpoint.
	Endpoint string

	// Prefix is the metadataPrefix requested (default: oai_lido).
	Prefix string

	// Set restricts the harvest to one set, when non-empty.
	Set string

	// From and Until bound the harvest by datestamp, when non-empty.
	// They are passed through verbatim; the endpoint's granularity rules.
	From  string
	Until string

	// Username and Password enable HTTP basic auth on every request,
	// resumption-token follow-ups included.
	Username string
	Password string

	// UserAgent string sent with every request.
	UserAgent string

	// Timeout for the default transport (default: 30s).
	Timeout time.Duration

	// RateLimit requests per second (default: 10).
	RateLimit float64

	// RateBurst maximum burst size (default: 5).
	RateBurst int

	// MaxRequests caps protocol requests per record stream, 0 = unlimited.
	MaxRequests int

	// Doer executes HTTP requests; defaults to a retrying pester client.
	Doer Doer
}

func (c *Config) normalize() {
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RateLimit == 0 {
		c.RateLimit = 10.0
	}
	if c.RateBurst == 0 {
		c.RateBurst = 5
	}
}

// Validate enforces required fields.
func (c *Config) Validate() *format.ValidationResult {
	if c.Endpoint == "" {
		return &format.ValidationResult{
			Valid:   false,
			Message: "endpoint is required",
			Code:    CodeConfigInvalid,
		}
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &format.ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("invalid endpoint URL: %s", c.Endpoint),
			Code:    CodeConfigInvalid,
		}
	}
	if c.Prefix == "" {
		return &format.ValidationResult{
			Valid:   false,
			Message: "metadataPrefix is required",
			Code:    CodeConfigInvalid,
		}
	}
	return &format.ValidationResult{Valid: true, Message: "connection parameters look valid"}
}

// Client is a rate-limited OAI-PMH client.
type Client struct {
	cfg     *Config
	doer    Doer
	limiter *rate.Limiter
	auth    AuthConfig
}

// NewClient creates a client from the given configuration.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.normalize()
	if vr := cfg.Validate(); !vr.Valid {
		return nil, wrapError(vr.Code, vr.Retryable, fmt.Errorf("%s", vr.Message))
	}

	doer := cfg.Doer
	if doer == nil {
		doer = defaultDoer(cfg.Timeout)
	}

	var auth AuthConfig = NoAuth{}
	if cfg.Username != "" || cfg.Password != "" {
		auth = BasicAuth{Username: cfg.Username, Password: cfg.Password}
	}

	return &Client{
		cfg:     cfg,
		doer:    doer,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		auth:    auth,
	}, nil
}

// defaultDoer builds the retrying HTTP client used when none is injected.
func defaultDoer(timeout time.Duration) Doer {
	p := pester.New()
	p.Concurrency = 1
	p.MaxRetries = 4
	p.Backoff = pester.ExponentialBackoff
	p.RetryOnHTTP429 = true
	p.Timeout = timeout
	return p
}

// ListRecords performs a single ListRecords request and returns its page.
func (c *Client) ListRecords(ctx context.Context, req Request) (*Page, error) {
	req.Verb = VerbListRecords
	envelope, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	return envelope.page(), nil
}

// Identify asks the endpoint to describe itself: repository name,
// earliest datestamp, datestamp granularity.
func (c *Client) Identify(ctx context.Context) (*Identify, error) {
	envelope, err := c.do(ctx, Request{Verb: VerbIdentify})
	if err != nil {
		return nil, err
	}
	ident := envelope.Identify
	return &ident, nil
}

// do executes one protocol request and decodes the envelope.
func (c *Client) do(ctx context.Context, req Request) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	link, err := req.URL(c.cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, wrapError(CodeConfigInvalid, false, err)
	}
	httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	httpReq.Header.Set("Accept", "text/xml")
	c.auth.Apply(httpReq)

	log.WithFields(log.Fields{"verb": req.Verb, "url": link}).Debug("oai request")

	resp, err := c.doer.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(err)
	}

	if resp.StatusCode >= 400 {
		return nil, wrapError(CodeBadStatus, resp.StatusCode >= 500,
			fmt.Errorf("%s returned HTTP %d", link, resp.StatusCode))
	}

	var envelope response
	if err := xml.Unmarshal(body, &envelope); err != nil {
		return nil, wrapError(CodeResponseMalformed, false, fmt.Errorf("decode %s: %w", link, err))
	}
	if envelope.Fault.Code != "" {
		return nil, wrapError(CodeOAIError, false, &OAIError{
			Code:    envelope.Fault.Code,
			Message: strings.TrimSpace(envelope.Fault.Message),
		})
	}
	return &envelope, nil
}
