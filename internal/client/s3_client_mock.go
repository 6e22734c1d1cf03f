package client

import (
	"context"
	"strings"
)

// MockS3Client implements PhotoResolver for tests without AWS credentials
type MockS3Client struct {
	Bucket string

	PhotoURLFunc func(ctx context.Context, key string) (string, error)
}

// NewMockS3Client creates a new mock S3 client for testing
func NewMockS3Client() *MockS3Client {
	return &MockS3Client{Bucket: "test-bucket"}
}

func (m *MockS3Client) PhotoURL(ctx context.Context, key string) (string, error) {
	if m.PhotoURLFunc != nil {
		return m.PhotoURLFunc(ctx, key)
	}
	if key == "" || strings.HasPrefix(key, "http") {
		return key, nil
	}
	return "https://" + m.Bucket + ".s3.amazonaws.com/" + key + "?X-Amz-Signature=mock", nil
}
