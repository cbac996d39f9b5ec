package lookup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sethgrid/pester"
)

// Doer executes a single HTTP request.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPStore implements ObjectStore over plain HTTP: object keys are
// resolved against a base URL and fetched with GET. The container
// argument is ignored; the base URL plays that role.
type HTTPStore struct {
	base     string
	username string
	password string
	realm    string
	doer     Doer
}

// NewHTTPStore creates an HTTP fetcher from config.
func NewHTTPStore(cfg *Config) (*HTTPStore, error) {
	if cfg == nil {
		return nil, wrapError(CodeConfigInvalid, false, fmt.Errorf("config is required"))
	}
	if cfg.LwpBaseURL == "" {
		return nil, wrapError(CodeConfigInvalid, false, fmt.Errorf("pid_lwp_base_url is required"))
	}
	if _, err := url.Parse(cfg.LwpBaseURL); err != nil {
		return nil, wrapError(CodeConfigInvalid, false, fmt.Errorf("invalid base URL: %w", err))
	}

	p := pester.New()
	p.Concurrency = 1
	p.MaxRetries = 4
	p.Backoff = pester.ExponentialBackoff
	p.RetryOnHTTP429 = true
	p.Timeout = 30 * time.Second

	return &HTTPStore{
		base:     cfg.LwpBaseURL,
		username: cfg.Username,
		password: cfg.Password,
		realm:    cfg.LwpRealm,
		doer:     p,
	}, nil
}

// SetDoer swaps the HTTP client, for tests.
func (s *HTTPStore) SetDoer(doer Doer) {
	s.doer = doer
}

func (s *HTTPStore) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base, nil)
	if err != nil {
		return wrapError(CodeConfigInvalid, false, err)
	}
	resp, err := s.doer.Do(req)
	if err != nil {
		return classifyFetchError(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return wrapError(CodeFetchFailed, true, fmt.Errorf("%s returned HTTP %d", s.base, resp.StatusCode))
	}
	return nil
}

func (s *HTTPStore) GetObject(ctx context.Context, container, key string) ([]byte, error) {
	if key == "" {
		return nil, wrapError(CodeConfigInvalid, false, fmt.Errorf("object key is required"))
	}

	link, err := url.JoinPath(s.base, key)
	if err != nil {
		return nil, wrapError(CodeConfigInvalid, false, fmt.Errorf("invalid object URL: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, wrapError(CodeConfigInvalid, false, err)
	}
	if s.username != "" || s.password != "" {
		req.SetBasicAuth(s.username, s.password)
	}

	resp, err := s.doer.Do(req)
	if err != nil {
		return nil, classifyFetchError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, wrapError(CodeFetchFailed, false, fmt.Errorf("%s rejected credentials (HTTP %d, realm %q)", link, resp.StatusCode, s.realm))
	case resp.StatusCode == http.StatusNotFound:
		return nil, wrapError(CodeFetchFailed, false, fmt.Errorf("%s not found", link))
	case resp.StatusCode >= 500:
		return nil, wrapError(CodeFetchFailed, true, fmt.Errorf("%s returned HTTP %d", link, resp.StatusCode))
	case resp.StatusCode >= 400:
		return nil, wrapError(CodeFetchFailed, false, fmt.Errorf("%s returned HTTP %d", link, resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyFetchError(err)
	}
	return data, nil
}
