package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config holds configuration for the S3 object store.
type S3Config struct {
	// Bucket holds the stored objects. Required.
	Bucket string
	// Region for the AWS config (default: us-east-1)
	Region string
	// Endpoint overrides the S3 endpoint, for MinIO and other
	// S3-compatible services. Optional.
	Endpoint string
	// AccessKeyID and SecretAccessKey select static credentials. When both
	// are empty the default AWS credential chain applies.
	AccessKeyID     string
	SecretAccessKey string
	// PresignExpiry bounds the lifetime of returned GET URLs (default: 15m)
	PresignExpiry time.Duration
}

// S3Store keeps objects in an S3 bucket and resolves them to presigned GET
// URLs.
type S3Store struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	presignExpiry time.Duration
}

// NewS3Store creates an S3Store from configuration.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage: S3 bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// MinIO and friends want path-style addressing
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		presignExpiry: expiry,
	}, nil
}

// Store uploads the object.
func (s *S3Store) Store(ctx context.Context, objectID string, data []byte, contentType string) error {
	if objectID == "" {
		return fmt.Errorf("storage: object id is required")
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectID),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("storage: failed to upload object %s: %w", objectID, err)
	}
	return nil
}

// URL returns a presigned GET URL for the object.
func (s *S3Store) URL(ctx context.Context, objectID string) (string, error) {
	if objectID == "" {
		return "", fmt.Errorf("storage: object id is required")
	}

	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectID),
	}, s3.WithPresignExpires(s.presignExpiry))
	if err != nil {
		return "", fmt.Errorf("storage: failed to presign object %s: %w", objectID, err)
	}

	return req.URL, nil
}

// Delete removes the object. S3 treats deleting a missing key as success,
// matching the interface contract.
func (s *S3Store) Delete(ctx context.Context, objectID string) error {
	if objectID == "" {
		return fmt.Errorf("storage: object id is required")
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectID),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil
		}
		return fmt.Errorf("storage: failed to delete object %s: %w", objectID, err)
	}
	return nil
}
