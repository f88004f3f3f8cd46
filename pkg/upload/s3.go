package upload

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/ethpandaops/perfsummary/pkg/config"
	"github.com/ethpandaops/perfsummary/pkg/source"
	"github.com/sirupsen/logrus"
)

const preflightKey = ".perfsummary-write-test"

// objectWriter is the subset of the S3 client used by s3Uploader.
type objectWriter interface {
	PutObject(
		ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options),
	) (*s3.PutObjectOutput, error)
	DeleteObject(
		ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options),
	) (*s3.DeleteObjectOutput, error)
}

// s3Uploader implements Uploader for S3-compatible storage.
type s3Uploader struct {
	log    logrus.FieldLogger
	cfg    *config.S3SourceConfig
	client objectWriter
}

// Ensure interface compliance.
var _ Uploader = (*s3Uploader)(nil)

// NewS3Uploader creates a new S3 uploader from the given configuration.
func NewS3Uploader(
	log logrus.FieldLogger,
	cfg *config.S3SourceConfig,
) Uploader {
	return &s3Uploader{
		log:    log.WithField("component", "s3-uploader"),
		cfg:    cfg,
		client: source.NewS3Client(cfg),
	}
}

func (u *s3Uploader) Describe() string {
	return "s3://" + u.cfg.Bucket + "/" + strings.Trim(u.cfg.Prefix, "/")
}

// Preflight verifies S3 write access by writing a small test object and
// deleting it again.
func (u *s3Uploader) Preflight(ctx context.Context) error {
	content := fmt.Sprintf("perfsummary write test: %s", time.Now().UTC().Format(time.RFC3339))
	key := u.objectKey(preflightKey)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(content),
		ContentType: aws.String("text/plain"),
	})
	if err != nil {
		return fmt.Errorf("writing test object to s3://%s: %w", u.cfg.Bucket, err)
	}

	if _, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("deleting test object s3://%s/%s: %w", u.cfg.Bucket, key, err)
	}

	return nil
}

// Upload writes data to {prefix}/{filePath} in the bucket.
func (u *s3Uploader) Upload(ctx context.Context, filePath string, data []byte) error {
	if !source.IsAllowedPath(filePath) {
		return fmt.Errorf("path %q is not allowed", filePath)
	}

	key := u.objectKey(filePath)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(detectContentType(filePath)),
	}

	if u.cfg.StorageClass != "" {
		input.StorageClass = s3types.StorageClass(u.cfg.StorageClass)
	}

	if u.cfg.ACL != "" {
		input.ACL = s3types.ObjectCannedACL(u.cfg.ACL)
	}

	u.log.WithFields(logrus.Fields{
		"key":    key,
		"bucket": u.cfg.Bucket,
	}).Debug("Uploading file")

	if _, err := u.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("PutObject: %w", err)
	}

	u.log.WithFields(logrus.Fields{
		"key":    key,
		"bucket": u.cfg.Bucket,
		"bytes":  len(data),
	}).Info("Upload completed")

	return nil
}

// objectKey maps a relative file path to its key under the prefix.
func (u *s3Uploader) objectKey(filePath string) string {
	prefix := strings.Trim(u.cfg.Prefix, "/")
	if prefix == "" {
		return filePath
	}

	return prefix + "/" + filePath
}
