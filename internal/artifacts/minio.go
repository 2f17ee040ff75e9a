package artifacts

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultContentType = "video/mp4"

// Store persists generated artifacts and hands back public URLs.
type Store interface {
	Store(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

type MinioOpts func(c *minioConfig)

type minioConfig struct {
	endpoint        string
	bucket          string
	accessKey       string
	secretAccessKey string
	publicBaseURL   string
	useSSL          bool
}

func newConfig(opts ...MinioOpts) *minioConfig {
	cfg := &minioConfig{
		useSSL: false,
	}

	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

type minioStore struct {
	cfg    *minioConfig
	client *minio.Client
}

var _ Store = (*minioStore)(nil)

func NewMinioStore(opts ...MinioOpts) (*minioStore, error) {
	cfg := newConfig(opts...)

	// Initialize minio client object.
	minioClient, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
	})
	if err != nil {
		return nil, err
	}

	return &minioStore{cfg: cfg, client: minioClient}, nil
}

// Store uploads the artifact under the given key and returns its public URL.
// The record store must only be told about URLs returned from here, so a job
// is never marked complete for an artifact that was not durably written.
func (s *minioStore) Store(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = defaultContentType
	}

	info, err := s.client.PutObject(ctx, s.cfg.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("storing artifact %q: %w", key, err)
	}

	if info.Size >= 0 && size > 0 && info.Size != size {
		return "", fmt.Errorf("failed to store the entire artifact. expected bytes %d written %d", size, info.Size)
	}

	return fmt.Sprintf("%s/%s", strings.TrimSuffix(s.cfg.publicBaseURL, "/"), key), nil
}

func (s *minioStore) Type() string {
	return "minio"
}

// ObjectKey builds a collision-free key for one orchestration attempt:
// concurrent or retried runs of the same job never write to the same object.
func ObjectKey(jobID uuid.UUID, now time.Time) string {
	return fmt.Sprintf("videos/%s/%d.mp4", jobID, now.UnixNano())
}

func WithEndpoint(endpoint string) MinioOpts {
	return func(c *minioConfig) {
		c.endpoint = endpoint
	}
}

func WithBucket(bucket string) MinioOpts {
	return func(c *minioConfig) {
		c.bucket = bucket
	}
}

func WithAccessKey(accessKey string) MinioOpts {
	return func(c *minioConfig) {
		c.accessKey = accessKey
	}
}

func WithSecretKey(secretKey string) MinioOpts {
	return func(c *minioConfig) {
		c.secretAccessKey = secretKey
	}
}

func WithPublicBaseURL(url string) MinioOpts {
	return func(c *minioConfig) {
		c.publicBaseURL = url
	}
}

func WithSSL(useSSL bool) MinioOpts {
	return func(c *minioConfig) {
		c.useSSL = useSSL
	}
}
