package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/ethpandaops/perfsummary/pkg/config"
)

// Compile-time interface check.
var _ Source = (*s3Source)(nil)

// objectGetter is the subset of the S3 client used by s3Source.
type objectGetter interface {
	GetObject(
		ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options),
	) (*s3.GetObjectOutput, error)
}

type s3Source struct {
	client   objectGetter
	bucket   string
	prefix   string
	maxBytes int64
}

// NewS3Source creates a Source backed by S3-compatible storage.
func NewS3Source(cfg *config.S3SourceConfig, maxBytes int64) Source {
	return &s3Source{
		client:   NewS3Client(cfg),
		bucket:   cfg.Bucket,
		prefix:   strings.Trim(cfg.Prefix, "/"),
		maxBytes: maxBytes,
	}
}

func (s *s3Source) Describe() string {
	if s.prefix == "" {
		return "s3://" + s.bucket
	}

	return "s3://" + s.bucket + "/" + s.prefix
}

// objectKey maps a relative file path to its key under the prefix.
func (s *s3Source) objectKey(filePath string) string {
	if s.prefix == "" {
		return filePath
	}

	return s.prefix + "/" + filePath
}

// Get reads {prefix}/{filePath} from the bucket.
func (s *s3Source) Get(ctx context.Context, filePath string) ([]byte, error) {
	if !IsAllowedPath(filePath) {
		return nil, fmt.Errorf("path %q is not allowed", filePath)
	}

	key := s.objectKey(filePath)

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, key, ErrNotFound)
		}

		return nil, fmt.Errorf("getting object %q: %w", key, err)
	}

	defer func() { _ = out.Body.Close() }()

	return readLimited(out.Body, s.maxBytes)
}

func isS3NotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	return strings.Contains(err.Error(), "NoSuchKey")
}

// NewS3Client creates an S3 client for the configured endpoint and credentials.
func NewS3Client(cfg *config.S3SourceConfig) *s3.Client {
	opts := []func(*s3.Options){
		func(o *s3.Options) {
			if cfg.Region != "" {
				o.Region = cfg.Region
			} else {
				o.Region = config.DefaultS3Region
			}

			if cfg.EndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.EndpointURL)
			}

			if cfg.ForcePathStyle {
				o.UsePathStyle = true
			}

			if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
				o.Credentials = credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID, cfg.SecretAccessKey, "",
				)
			}
		},
	}

	return s3.New(s3.Options{}, opts...)
}
