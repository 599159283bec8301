package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/panelflow/panelflow/internal/pkg/env"
)

// Config holds object storage configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	PublicBaseURL   string // Base URL readers fetch page images from (CDN or bucket URL)
}

// LoadConfig loads object storage configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-west-001"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		PublicBaseURL:   strings.TrimRight(env.GetEnv("S3_PUBLIC_BASE_URL", ""), "/"),
	}

	if config.AccessKeyID == "" {
		return nil, errors.New("S3_ACCESS_KEY_ID is required")
	}
	if config.SecretAccessKey == "" {
		return nil, errors.New("S3_SECRET_ACCESS_KEY is required")
	}
	if config.BucketName == "" {
		return nil, errors.New("S3_BUCKET_NAME is required")
	}

	return config, nil
}

// PageObjectKey builds the object key for one chapter page image.
// Format: <userID>/<seriesUUID>/<chapterUUID>/<fileUUID>.<ext>
func PageObjectKey(userID uint, seriesUUID, chapterUUID, fileUUID, fileExtension string) string {
	ext := strings.TrimPrefix(fileExtension, ".")
	return fmt.Sprintf("%d/%s/%s/%s.%s", userID, seriesUUID, chapterUUID, fileUUID, ext)
}

// CoverObjectKey builds the object key for a series cover image.
func CoverObjectKey(userID uint, seriesUUID, fileUUID, fileExtension string) string {
	ext := strings.TrimPrefix(fileExtension, ".")
	return fmt.Sprintf("%d/%s/cover/%s.%s", userID, seriesUUID, fileUUID, ext)
}

// PublicURL returns the URL readers use to fetch an object.
func (c *Config) PublicURL(objectKey string) string {
	if c.PublicBaseURL != "" {
		return c.PublicBaseURL + "/" + objectKey
	}
	if c.EndpointURL != "" {
		// Path-style URL for S3-compatible services (B2, MinIO)
		return strings.TrimRight(c.EndpointURL, "/") + "/" + c.BucketName + "/" + objectKey
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.BucketName, c.Region, objectKey)
}

// GetAppEnv returns the current application environment
func GetAppEnv() string {
	return env.GetEnv("APP_ENV", "dev")
}
