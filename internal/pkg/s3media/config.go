package s3media

import (
	"errors"
	"fmt"

	"github.com/MarcoWillems/Galleria/internal/pkg/env"
)

// Config holds the media bucket configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	PublicBaseURL   string // Optional CDN base for public artwork URLs
	Enabled         bool
}

// LoadConfig loads the media storage configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-west-001"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		PublicBaseURL:   env.GetEnv("S3_PUBLIC_BASE_URL", ""),
		Enabled:         env.GetEnv("S3_MEDIA_ENABLED", "false") == "true",
	}

	// Validate required fields if media storage is enabled
	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when S3 media storage is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when S3 media storage is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when S3 media storage is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if S3 media storage is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// GetObjectKey generates a standardized object key for an artwork image
func (c *Config) GetObjectKey(artworkUUID, fileExtension string, year, month int) string {
	// Format: artworks/YYYY/MM/UUID.ext
	return fmt.Sprintf("artworks/%04d/%02d/%s%s", year, month, artworkUUID, fileExtension)
}

// PublicURL builds the public URL for a stored object key
func (c *Config) PublicURL(objectKey string) string {
	if c.PublicBaseURL != "" {
		return fmt.Sprintf("%s/%s", c.PublicBaseURL, objectKey)
	}
	if c.EndpointURL != "" {
		return fmt.Sprintf("%s/%s/%s", c.EndpointURL, c.BucketName, objectKey)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.BucketName, c.Region, objectKey)
}

// GetAppEnv returns the current application environment
func GetAppEnv() string {
	return env.GetEnv("APP_ENV", "dev")
}

// GetBucketName returns the bucket name as configured
func (c *Config) GetBucketName() string {
	return c.BucketName
}
