package lookup

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// CloudFilesStore implements ObjectStore against an S3-compatible object
// store using the minio-go SDK.
type CloudFilesStore struct {
	client *minio.Client
	cfg    *Config
}

// NewCloudFilesStore creates a real object-store client from config.
func NewCloudFilesStore(cfg *Config) (*CloudFilesStore, error) {
	if cfg == nil {
		return nil, wrapError(CodeConfigInvalid, false, fmt.Errorf("config is required"))
	}
	if cfg.RcfEndpoint == "" {
		return nil, wrapError(CodeConfigInvalid, false, fmt.Errorf("pid_rcf_endpoint_url is required"))
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, wrapError(CodeConfigInvalid, false, fmt.Errorf("pid_username and pid_password are required"))
	}

	// Parse endpoint URL to extract host
	u, err := url.Parse(cfg.RcfEndpoint)
	if err != nil {
		return nil, wrapError(CodeConfigInvalid, false, fmt.Errorf("invalid endpoint URL: %w", err))
	}
	endpoint := u.Host
	if endpoint == "" {
		endpoint = cfg.RcfEndpoint
	}

	// Determine SSL from URL scheme or config
	useSSL := cfg.RcfSecure
	if u.Scheme == "https" {
		useSSL = true
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Username, cfg.Password, ""),
		Secure: useSSL,
		Region: cfg.RcfRegion,
	})
	if err != nil {
		return nil, wrapError(CodeFetchFailed, true, fmt.Errorf("failed to create object store client: %w", err))
	}

	return &CloudFilesStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *CloudFilesStore) Ping(ctx context.Context) error {
	// List buckets as a health check
	_, err := s.client.ListBuckets(ctx)
	if err != nil {
		return classifyFetchError(err)
	}
	return nil
}

func (s *CloudFilesStore) GetObject(ctx context.Context, container, key string) ([]byte, error) {
	if container == "" {
		return nil, wrapError(CodeConfigInvalid, false, fmt.Errorf("container name is required"))
	}
	if key == "" {
		return nil, wrapError(CodeConfigInvalid, false, fmt.Errorf("object key is required"))
	}

	obj, err := s.client.GetObject(ctx, container, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyFetchError(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classifyFetchError(err)
	}
	return data, nil
}
