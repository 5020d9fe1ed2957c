package s3media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gofiber/fiber/v2/log"
)

// Client wraps the S3 client for artwork media storage
type Client struct {
	s3Client *s3.Client
	config   *Config
}

var (
	globalClient *Client
	clientOnce   sync.Once
	clientErr    error
)

// GetClient returns the global media client, initializing it on first use.
// Returns an error when media storage is disabled or misconfigured.
func GetClient() (*Client, error) {
	clientOnce.Do(func() {
		cfg, err := LoadConfig()
		if err != nil {
			clientErr = err
			return
		}
		globalClient, clientErr = NewClient(cfg)
	})
	return globalClient, clientErr
}

// NewClient creates a new S3 media client
func NewClient(cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("S3 media storage is disabled")
	}

	// Create AWS config
	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Create S3 client
	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3-compatible providers need path-style URLs
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	client := &Client{
		s3Client: s3Client,
		config:   cfg,
	}

	// Test connection
	if err := client.testConnection(); err != nil {
		return nil, fmt.Errorf("failed to connect to S3: %w", err)
	}

	log.Infof("[S3Media] Successfully initialized S3 client for bucket: %s", cfg.GetBucketName())
	return client, nil
}

// testConnection checks that the media bucket is reachable
func (c *Client) testConnection() error {
	ctx := context.Background()
	bucketName := c.config.GetBucketName()

	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucketName),
	})

	if err != nil {
		// If bucket doesn't exist, try to create it (for development)
		if GetAppEnv() != "prod" {
			log.Warnf("[S3Media] Bucket %s not found, attempting to create it", bucketName)
			return c.createBucket(bucketName)
		}
		return fmt.Errorf("bucket %s not accessible: %w", bucketName, err)
	}

	return nil
}

// createBucket creates a new S3 bucket (dev/staging only)
func (c *Client) createBucket(bucketName string) error {
	ctx := context.Background()

	input := &s3.CreateBucketInput{
		Bucket: aws.String(bucketName),
	}

	// For AWS regions other than us-east-1 we need the location constraint;
	// S3-compatible providers reject it
	if c.config.EndpointURL == "" && c.config.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.config.Region),
		}
	}

	_, err := c.s3Client.CreateBucket(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucketName, err)
	}

	log.Infof("[S3Media] Successfully created bucket: %s", bucketName)
	return nil
}

// Upload streams an artwork image to the media bucket
func (c *Client) Upload(ctx context.Context, objectKey string, body io.Reader, size int64, contentType string) (*UploadResult, error) {
	bucketName := c.config.GetBucketName()

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	log.Infof("[S3Media] Starting upload: s3://%s/%s (Size: %d bytes)", bucketName, objectKey, size)

	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucketName),
		Key:           aws.String(objectKey),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		Metadata: map[string]string{
			"upload-source": "galleria-admin",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	result := &UploadResult{
		BucketName:  bucketName,
		ObjectKey:   objectKey,
		Size:        size,
		ContentType: contentType,
		PublicURL:   c.config.PublicURL(objectKey),
	}

	log.Infof("[S3Media] Successfully uploaded: s3://%s/%s", bucketName, objectKey)
	return result, nil
}

// Delete removes an artwork image from the media bucket
func (c *Client) Delete(ctx context.Context, objectKey string) error {
	bucketName := c.config.GetBucketName()

	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}

	log.Infof("[S3Media] Successfully deleted: s3://%s/%s", bucketName, objectKey)
	return nil
}

// ObjectExists checks if an object exists in the media bucket
func (c *Client) ObjectExists(ctx context.Context, objectKey string) (bool, error) {
	bucketName := c.config.GetBucketName()

	_, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}

	return true, nil
}

// PublicURL builds the public URL for a stored object key
func (c *Client) PublicURL(objectKey string) string {
	return c.config.PublicURL(objectKey)
}

// ObjectKey builds the bucket key for an artwork image uploaded at t
func (c *Client) ObjectKey(artworkUUID, fileExtension string, t time.Time) string {
	return c.config.GetObjectKey(artworkUUID, fileExtension, t.Year(), int(t.Month()))
}

// UploadResult contains the result of a successful upload
type UploadResult struct {
	BucketName  string
	ObjectKey   string
	Size        int64
	ContentType string
	PublicURL   string
}

// ContentTypeForExt returns the MIME type for an image file extension
func ContentTypeForExt(ext string) string {
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".avif":
		return "image/avif"
	default:
		return "application/octet-stream"
	}
}
