package transport

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Options configures S3-compatible sessions.
type S3Options struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// Prefix is prepended to every object key.
	Prefix string
	// BaseURL prefixes returned object URLs. Empty yields s3:// URLs.
	BaseURL string
}

type s3Session struct {
	client *minio.Client
	opts   S3Options
}

// DialS3 returns a Dialer that connects to an S3-compatible endpoint and
// verifies the bucket exists.
func DialS3(opts S3Options) Dialer {
	return func(ctx context.Context) (Session, error) {
		client, err := minio.New(opts.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
			Secure: opts.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 client %s: %w", opts.Endpoint, err)
		}
		exists, err := client.BucketExists(ctx, opts.Bucket)
		if err != nil {
			return nil, fmt.Errorf("s3 bucket check %s: %w", opts.Bucket, err)
		}
		if !exists {
			return nil, fmt.Errorf("s3 bucket %s does not exist", opts.Bucket)
		}
		return &s3Session{client: client, opts: opts}, nil
	}
}

// Store implements Session.
func (s *s3Session) Store(ctx context.Context, obj Object) (string, error) {
	key := strings.TrimLeft(path.Join(s.opts.Prefix, obj.Name), "/")
	info, err := s.client.PutObject(ctx, s.opts.Bucket, key, obj.Body, obj.Size, minio.PutObjectOptions{
		ContentType: obj.ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return objectURL(s.opts.BaseURL, "s3://"+s.opts.Bucket, info.Key), nil
}

func (s *s3Session) Close() error {
	return nil
}
