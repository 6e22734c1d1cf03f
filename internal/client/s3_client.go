package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	appConfig "student-inout-api/internal/config"
	"student-inout-api/internal/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PhotoResolver turns a stored photo reference into a URL a display can load
type PhotoResolver interface {
	PhotoURL(ctx context.Context, key string) (string, error)
}

// S3Client resolves student photo keys against an S3 (or MinIO) bucket
type S3Client struct {
	presignClient *s3.PresignClient
	bucket        string
	region        string
	endpoint      string // MinIO endpoint for local development
	presignTTL    time.Duration
	public        bool
	metrics       *metrics.Metrics
}

// NewS3Client creates a new S3 client
func NewS3Client(cfg *appConfig.S3Config, m *metrics.Metrics) (*S3Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("S3 region is required")
	}
	if cfg.Endpoint != "" && (cfg.AccessKey == "" || cfg.SecretKey == "") {
		return nil, fmt.Errorf("access key and secret key are required for a custom endpoint")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	// otherwise the default chain applies (IAM role, ~/.aws/credentials)

	awsCfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &S3Client{
		presignClient: s3.NewPresignClient(s3Client),
		bucket:        cfg.Bucket,
		region:        cfg.Region,
		endpoint:      cfg.Endpoint,
		presignTTL:    ttl,
		public:        cfg.Public,
		metrics:       m,
	}, nil
}

// PhotoURL returns a presigned GET URL for key, or the plain object URL for a
// public bucket. Empty keys resolve to "" and absolute URLs are returned
// unchanged.
func (c *S3Client) PhotoURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key, nil
	}
	if c.public {
		return c.GetFileURL(key), nil
	}

	start := time.Now()
	req, err := c.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(c.presignTTL))
	c.metrics.RecordExternalCall("s3", "presign_get", time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("failed to presign photo URL: %w", err)
	}

	finalURL := req.URL
	if c.endpoint != "" {
		// inside docker-compose MinIO is reachable as minio:9000; browsers need the published host
		const internalMinIOHost = "minio:9000"
		externalHost := strings.TrimPrefix(strings.TrimPrefix(c.endpoint, "http://"), "https://")
		finalURL = strings.Replace(finalURL, internalMinIOHost, externalHost, 1)
	}
	return finalURL, nil
}

// GetFileURL returns the unsigned object URL for key
func (c *S3Client) GetFileURL(key string) string {
	if c.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(c.endpoint, "/"), c.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, c.region, key)
}
