package repository

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appConfig "github.com/mansoorceksport/mobipent/internal/config"
	"github.com/mansoorceksport/mobipent/internal/domain"
)

// S3Getter is the subset of the S3 API the source needs
type S3Getter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3FileSource opens s3://bucket/key URIs using AWS SDK v2
type S3FileSource struct {
	client S3Getter
}

// NewS3FileSource creates an S3 source. A custom endpoint (MinIO, SeaweedFS) switches
// to path-style addressing; static keys are used when both are set, otherwise the
// default AWS credential chain applies.
func NewS3FileSource(ctx context.Context, cfg appConfig.S3Config) (*S3FileSource, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config, %v", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3FileSource{client: client}, nil
}

// NewS3FileSourceWithClient wraps an existing S3 client
func NewS3FileSourceWithClient(client S3Getter) *S3FileSource {
	return &S3FileSource{client: client}
}

// Open starts a GetObject and returns its streaming body
func (s *S3FileSource) Open(ctx context.Context, file domain.FileDescriptor) (io.ReadCloser, error) {
	bucket, key, err := ParseS3URI(file.URI)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3 object %s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

// ParseS3URI splits s3://bucket/key into its parts
func ParseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 uri %q: %w", uri, err)
	}
	if !strings.EqualFold(u.Scheme, "s3") {
		return "", "", fmt.Errorf("%w: %s", domain.ErrUnsupportedSource, uri)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("s3 uri %q must be s3://bucket/key", uri)
	}
	return u.Host, key, nil
}
