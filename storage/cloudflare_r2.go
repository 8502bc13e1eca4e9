package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// CloudflareR2Config configures the dataset snapshot bucket. KeyPrefix is
// optional and is prepended to every snapshot key, so one bucket can hold
// snapshots of several deployments.
type CloudflareR2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
	KeyPrefix       string
}

func (c CloudflareR2Config) validate() error {
	var missing []string
	for _, field := range []struct {
		name  string
		value string
	}{
		{"account id", c.AccountID},
		{"access key id", c.AccessKeyID},
		{"secret access key", c.SecretAccessKey},
		{"bucket name", c.BucketName},
		{"public base URL", c.PublicBaseURL},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("invalid Cloudflare R2 configuration: missing %s", strings.Join(missing, ", "))
	}
	if _, err := url.Parse(c.PublicBaseURL); err != nil {
		return fmt.Errorf("invalid Cloudflare R2 public base URL: %w", err)
	}
	return nil
}

type r2SnapshotStore struct {
	client *s3.Client
	cfg    CloudflareR2Config
}

// NewCloudflareR2Uploader builds a SnapshotUploader on a Cloudflare R2
// bucket, reached through its S3-compatible endpoint.
func NewCloudflareR2Uploader(cfg CloudflareR2Config) (SnapshotUploader, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	sdkCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &r2SnapshotStore{client: client, cfg: cfg}, nil
}

// objectKey places a snapshot key under the configured prefix.
func (s *r2SnapshotStore) objectKey(key string) string {
	key = strings.TrimPrefix(key, "/")
	if s.cfg.KeyPrefix == "" {
		return key
	}
	return strings.TrimSuffix(s.cfg.KeyPrefix, "/") + "/" + key
}

func (s *r2SnapshotStore) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*SnapshotResult, error) {
	objectKey := s.objectKey(key)
	out, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.BucketName),
		Key:         aws.String(objectKey),
		Body:        reader,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload snapshot %q: %w", objectKey, err)
	}

	result := &SnapshotResult{
		Key:      objectKey,
		Location: s.PublicURL(key),
	}
	if out.ETag != nil {
		result.ETag = strings.Trim(*out.ETag, `"`)
	}
	return result, nil
}

func (s *r2SnapshotStore) Delete(ctx context.Context, key string) error {
	objectKey := s.objectKey(key)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.BucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %q: %w", objectKey, err)
	}
	return nil
}

func (s *r2SnapshotStore) PublicURL(key string) string {
	base, err := url.Parse(s.cfg.PublicBaseURL)
	if err != nil || key == "" {
		return ""
	}
	return base.JoinPath(strings.Split(s.objectKey(key), "/")...).String()
}
