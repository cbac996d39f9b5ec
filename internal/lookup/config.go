package lookup

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/thedatahub/arthub-core/pkg/format"
)

const (
	// ModuleCloudFiles fetches mapping files from an object store.
	ModuleCloudFiles = "rcf"
	// ModuleHTTP fetches mapping files over plain HTTP.
	ModuleHTTP = "lwp"
)

const (
	defaultPIDObject        = "pid_mapping.csv"
	defaultCreatorObject    = "creator_mapping.csv"
	defaultVocabularyObject = "vocabulary_mapping.csv"
)

// Config captures the lookup-table fetcher configuration.
type Config struct {
	Module   string
	Username string
	Password string

	// HTTP variant.
	LwpRealm   string
	LwpBaseURL string

	// Object-store variant.
	RcfContainer string
	RcfEndpoint  string
	RcfRegion    string
	RcfSecure    bool

	// Object keys of the three mapping files.
	PIDObject        string
	CreatorObject    string
	VocabularyObject string

	// WorkDir is where fetched CSVs and the table store live.
	WorkDir string
}

// ParseConfig builds a Config from loose parameters.
func ParseConfig(params map[string]any) *Config {
	cfg := &Config{
		Module:           firstString(params, "pid_module", "pidModule"),
		Username:         firstString(params, "pid_username", "pidUsername"),
		Password:         firstString(params, "pid_password", "pidPassword"),
		LwpRealm:         firstString(params, "pid_lwp_realm", "pidLwpRealm"),
		LwpBaseURL:       firstString(params, "pid_lwp_base_url", "pidLwpBaseUrl"),
		RcfContainer:     firstString(params, "pid_rcf_container_name", "pidRcfContainerName", "pid_rcf_container"),
		RcfEndpoint:      firstString(params, "pid_rcf_endpoint_url", "pidRcfEndpointUrl"),
		RcfRegion:        firstString(params, "pid_rcf_region", "pidRcfRegion"),
		RcfSecure:        firstBool(params, false, "pid_rcf_secure", "pidRcfSecure"),
		PIDObject:        firstString(params, "pid_object_name", "pidObjectName"),
		CreatorObject:    firstString(params, "creator_object_name", "creatorObjectName"),
		VocabularyObject: firstString(params, "vocabulary_object_name", "vocabularyObjectName"),
		WorkDir:          firstString(params, "work_dir", "workDir", "workdir"),
	}
	cfg.normalizeDefaults()
	return cfg
}

func (c *Config) normalizeDefaults() {
	if c.PIDObject == "" {
		c.PIDObject = defaultPIDObject
	}
	if c.CreatorObject == "" {
		c.CreatorObject = defaultCreatorObject
	}
	if c.VocabularyObject == "" {
		c.VocabularyObject = defaultVocabularyObject
	}
	if c.WorkDir == "" {
		c.WorkDir = filepath.Join(os.TempDir(), "arthub-lookup")
	}
}

// Validate enforces required fields per variant.
func (c *Config) Validate() *format.ValidationResult {
	switch c.Module {
	case ModuleCloudFiles:
		return c.validateCloudFiles()
	case ModuleHTTP:
		return c.validateHTTP()
	case "":
		return invalid("pid_module is required")
	default:
		return invalid(fmt.Sprintf("unknown pid_module: %s", c.Module))
	}
}

func (c *Config) validateCloudFiles() *format.ValidationResult {
	if c.RcfContainer == "" {
		return invalid("pid_rcf_container_name is required")
	}
	if c.RcfEndpoint == "" {
		return invalid("pid_rcf_endpoint_url is required")
	}
	u, err := url.Parse(c.RcfEndpoint)
	if err != nil || u.Scheme == "" {
		return invalid(fmt.Sprintf("invalid pid_rcf_endpoint_url: %s", c.RcfEndpoint))
	}
	// file:// endpoints are a local development hook and need no credentials.
	if u.Scheme != "file" && (c.Username == "" || c.Password == "") {
		return invalid("pid_username and pid_password are required")
	}
	return &format.ValidationResult{Valid: true, Message: "connection parameters look valid"}
}

func (c *Config) validateHTTP() *format.ValidationResult {
	if c.LwpBaseURL == "" {
		return invalid("pid_lwp_base_url is required")
	}
	u, err := url.Parse(c.LwpBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid(fmt.Sprintf("invalid pid_lwp_base_url: %s", c.LwpBaseURL))
	}
	return &format.ValidationResult{Valid: true, Message: "connection parameters look valid"}
}

func invalid(message string) *format.ValidationResult {
	return &format.ValidationResult{
		Valid:   false,
		Message: message,
		Code:    CodeConfigInvalid,
	}
}

// objectRoot resolves the local directory backing a file:// endpoint.
func (c *Config) objectRoot() string {
	if u, err := url.Parse(c.RcfEndpoint); err == nil && u.Scheme == "file" && u.Path != "" {
		return u.Path
	}
	host := c.RcfEndpoint
	if u, err := url.Parse(c.RcfEndpoint); err == nil && u.Host != "" {
		host = u.Host
	}
	return filepath.Join(os.TempDir(), "arthub-store-"+sanitizePath(host))
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

func firstBool(params map[string]any, defaultVal bool, keys ...string) bool {
	for _, key := range keys {
		if v, ok := params[key]; ok {
			switch t := v.(type) {
			case bool:
				return t
			case string:
				lowered := strings.ToLower(strings.TrimSpace(t))
				if lowered == "true" {
					return true
				}
				if lowered == "false" {
					return false
				}
			}
		}
	}
	return defaultVal
}

func sanitizePath(raw string) string {
	replacer := strings.NewReplacer(":", "_", "/", "_", "\\", "_")
	return replacer.Replace(raw)
}
