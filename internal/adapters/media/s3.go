package media

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"eventhub/internal/domain"
)

// S3Config holds configuration for the S3-backed media store. Endpoint is
// optional; when set, path-style addressing is enabled (for MinIO and
// similar S3-compatible services).
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// StoreConfig holds configuration for creating a media store. Provider "s3"
// uses an S3-compatible bucket; "noop" or unknown uses a no-op store that
// never persists anything.
type StoreConfig struct {
	Provider string
	S3       S3Config
}

// NewStore creates a media store from config.
func NewStore(config StoreConfig, logger *slog.Logger) (domain.MediaStore, error) {
	switch config.Provider {
	case "s3":
		s3cfg := config.S3
		if s3cfg.Bucket == "" {
			return nil, fmt.Errorf("media store: bucket is required")
		}
		awsCfg := aws.Config{
			Region: s3cfg.Region,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(
					s3cfg.AccessKeyID,
					s3cfg.SecretAccessKey,
					"",
				),
			),
		}
		var opts []func(*s3.Options)
		if s3cfg.Endpoint != "" {
			opts = append(opts, func(o *s3.Options) {
				o.BaseEndpoint = aws.String(s3cfg.Endpoint)
				o.UsePathStyle = true
			})
		}
		return &s3Store{
			client: s3.NewFromConfig(awsCfg, opts...),
			bucket: s3cfg.Bucket,
		}, nil
	case "", "noop":
		return &noopStore{}, nil
	default:
		logger.Warn("unknown media provider, using noop", "provider", config.Provider)
		return &noopStore{}, nil
	}
}

type s3Store struct {
	client *s3.Client
	bucket string
}

// Upload stores the image under a unique object key and returns the key as
// the media reference persisted on the event record.
func (s *s3Store) Upload(ctx context.Context, upload *domain.MediaUpload) (string, error) {
	key := objectKey(upload.Filename)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   upload.Body,
	}
	if upload.ContentType != "" {
		input.ContentType = aws.String(upload.ContentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	return key, nil
}

func (s *s3Store) Delete(ctx context.Context, ref string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return fmt.Errorf("s3 delete object: %w", err)
	}
	return nil
}

// objectKey builds a unique key from the upload timestamp and a sanitized
// form of the original filename.
func objectKey(filename string) string {
	base := path.Base(filename)
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		base = "upload"
	}
	return fmt.Sprintf("events/%d_%s", time.Now().UnixMilli(), base)
}

type noopStore struct{}

func (n *noopStore) Upload(_ context.Context, upload *domain.MediaUpload) (string, error) {
	return objectKey(upload.Filename), nil
}

func (n *noopStore) Delete(_ context.Context, _ string) error {
	return nil
}
