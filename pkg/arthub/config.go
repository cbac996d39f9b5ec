package arthub

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/thedatahub/arthub-core/internal/lookup"
	"github.com/thedatahub/arthub-core/pkg/format"
)

// Config is the full importer configuration surface.
type Config struct {
	// Endpoint is the base URL of the OAI-PMH endpoint. Required.
	Endpoint string

	// Prefix is the metadataPrefix requested (default: oai_lido).
	Prefix string

	// Set, From and Until scope the harvest; all optional.
	Set   string
	From  string
	Until string

	// Username and Password enable HTTP basic auth on the endpoint.
	Username string
	Password string

	// Handler parses raw records; it wins over HandlerName. When both
	// are empty the handler is inferred from the metadata prefix.
	Handler     format.Handler
	HandlerName string

	// UserAgent, Timeout, RateLimit, RateBurst and MaxRequests tune the
	// protocol client; zero values take its defaults.
	UserAgent   string
	Timeout     time.Duration
	RateLimit   float64
	RateBurst   int
	MaxRequests int

	// Lookup configures the lookup-table stage; nil skips it entirely.
	Lookup *lookup.Config

	// WorkDir is the run's working directory: fetched CSVs and the
	// table store live there. Lookup tables always follow it.
	WorkDir string
}

// ParseConfig builds a Config from loose parameters. The lookup stage is
// configured only when pid_module is present.
func ParseConfig(params map[string]any) *Config {
	cfg := &Config{
		Endpoint:    firstString(params, "endpoint", "url"),
		Prefix:      firstString(params, "metadata_prefix", "metadataPrefix", "prefix"),
		Set:         firstString(params, "set"),
		From:        firstString(params, "from"),
		Until:       firstString(params, "until"),
		Username:    firstString(params, "username", "user"),
		Password:    firstString(params, "password"),
		HandlerName: firstString(params, "handler"),
		UserAgent:   firstString(params, "user_agent", "userAgent"),
		Timeout:     firstDuration(params, 0, "timeout"),
		RateLimit:   firstFloat(params, 0, "requests_per_second", "rate_limit", "rate"),
		RateBurst:   firstInt(params, 0, "rate_burst"),
		MaxRequests: firstInt(params, 0, "max_requests", "maxRequests"),
		WorkDir:     firstString(params, "work_dir", "workDir", "workdir"),
	}
	if firstString(params, "pid_module", "pidModule") != "" {
		cfg.Lookup = lookup.ParseConfig(params)
	}
	cfg.normalize()
	return cfg
}

func (c *Config) normalize() {
	if c.Prefix == "" {
		c.Prefix = "oai_lido"
	}
	if c.WorkDir == "" {
		c.WorkDir = filepath.Join(os.TempDir(), "arthub")
	}
	if c.Lookup != nil {
		c.Lookup.WorkDir = c.WorkDir
	}
}

// Validate enforces required fields, including the lookup stage's when
// one is configured.
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
	if c.Lookup != nil {
		if vr := c.Lookup.Validate(); !vr.Valid {
			return vr
		}
	}
	return &format.ValidationResult{Valid: true, Message: "connection parameters look valid"}
}

func firstString(params map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := params[key]; ok {
			switch t := v.(type) {
			case string:
				return strings.TrimSpace(t)
			case fmt.Stringer:
				return strings.TrimSpace(t.String())
			}
		}
	}
	return ""
}

func firstInt(params map[string]any, defaultVal int, keys ...string) int {
	for _, key := range keys {
		if v, ok := params[key]; ok {
			switch t := v.(type) {
			case int:
				return t
			case int64:
				return int(t)
			case float64:
				return int(t)
			case string:
				if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
					return i
				}
			}
		}
	}
	return defaultVal
}

func firstFloat(params map[string]any, defaultVal float64, keys ...string) float64 {
	for _, key := range keys {
		if v, ok := params[key]; ok {
			switch t := v.(type) {
			case float64:
				return t
			case int:
				return float64(t)
			case int64:
				return float64(t)
			case string:
				if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
					return f
				}
			}
		}
	}
	return defaultVal
}

// firstDuration accepts Go duration strings ("30s") or plain seconds.
func firstDuration(params map[string]any, defaultVal time.Duration, keys ...string) time.Duration {
	for _, key := range keys {
		if v, ok := params[key]; ok {
			switch t := v.(type) {
			case int:
				return time.Duration(t) * time.Second
			case int64:
				return time.Duration(t) * time.Second
			case float64:
				return time.Duration(t * float64(time.Second))
			case string:
				trimmed := strings.TrimSpace(t)
				if d, err := time.ParseDuration(trimmed); err == nil {
					return d
				}
				if i, err := strconv.Atoi(trimmed); err == nil {
					return time.Duration(i) * time.Second
				}
			}
		}
	}
	return defaultVal
}
