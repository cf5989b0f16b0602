package media

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config configures an S3-compatible bucket (MinIO, AWS S3, etc.).
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Backend stores assets as objects in a bucket. It is safe for
// concurrent use.
type S3Backend struct {
	client *minio.Client
	bucket string
}

// NewS3 connects to the bucket described by cfg, creating the bucket if it
// does not exist.
func NewS3(ctx context.Context, cfg S3Config) (*S3Backend, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("s3 credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &S3Backend{client: cli, bucket: cfg.Bucket}, nil
}

func (b *S3Backend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (int64, error) {
	if size <= 0 {
		size = -1
	}
	info, err := b.client.PutObject(ctx, b.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return 0, fmt.Errorf("s3 put %s: %w", key, err)
	}
	return info.Size, nil
}

func (b *S3Backend) List(ctx context.Context, prefix string) ([]Object, error) {
	var out []Object
	opts := minio.ListObjectsOptions{Prefix: strings.TrimSuffix(prefix, "/") + "/"}
	for obj := range b.client.ListObjects(ctx, b.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("s3 list %s: %w", prefix, obj.Err)
		}
		// Common prefixes ("subdir/") are not assets.
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		out = append(out, Object{
			Key:         obj.Key,
			Size:        obj.Size,
			Modified:    obj.LastModified,
			ContentType: obj.ContentType,
		})
	}
	return out, nil
}

func (b *S3Backend) Stat(ctx context.Context, key string) (Object, error) {
	st, err := b.client.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return Object{}, fmt.Errorf("s3 stat %s: %w", key, fs.ErrNotExist)
		}
		return Object{}, fmt.Errorf("s3 stat %s: %w", key, err)
	}
	return Object{
		Key:         key,
		Size:        st.Size,
		Modified:    st.LastModified,
		ContentType: st.ContentType,
	}, nil
}

func (b *S3Backend) Delete(ctx context.Context, key string) error {
	if err := b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}
