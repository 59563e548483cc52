package publish

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/tutorial"
)

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// objectStore is the subset of *minio.Client used for publishing.
type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// S3 uploads documents to {prefix}/{project}/ in an S3-compatible bucket.
type S3 struct {
	client  objectStore
	bucket  string
	region  string
	prefix  string
	project string
}

func NewS3(cfg S3Config, project string) (*S3, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("publish: s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("publish: s3 access key and secret key are required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("publish: s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("publish: init s3 client: %w", err)
	}
	return newS3(client, cfg.Bucket, region, cfg.Prefix, project), nil
}

func newS3(client objectStore, bucket, region, prefix, project string) *S3 {
	return &S3{
		client:  client,
		bucket:  strings.TrimSpace(bucket),
		region:  region,
		prefix:  strings.Trim(prefix, "/"),
		project: project,
	}
}

func (s *S3) key(name string) string {
	if s.prefix == "" {
		return path.Join(s.project, name)
	}
	return path.Join(s.prefix, s.project, name)
}

func (s *S3) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
}

func (s *S3) Write(ctx context.Context, b tutorial.Bundle) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("publish: ensure bucket %s: %w", s.bucket, err)
	}
	for _, doc := range documents(b) {
		if err := checkName(doc.Filename); err != nil {
			return "", err
		}
		content := doc.Content
		_, err := s.client.PutObject(ctx, s.bucket, s.key(doc.Filename), strings.NewReader(content), int64(len(content)),
			minio.PutObjectOptions{ContentType: "text/markdown; charset=utf-8"})
		if err != nil {
			return "", fmt.Errorf("publish: uploading %s: %w", doc.Filename, err)
		}
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key("")), nil
}
