package upload

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/ethpandaops/perfsummary/pkg/config"
	"github.com/ethpandaops/perfsummary/pkg/source"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type putCall struct {
	key          string
	body         string
	contentType  string
	storageClass s3types.StorageClass
	acl          s3types.ObjectCannedACL
}

type fakeObjectWriter struct {
	calls     []putCall
	deletes   []string
	err       error
	deleteErr error
}

func (f *fakeObjectWriter) DeleteObject(
	_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options),
) (*s3.DeleteObjectOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}

	f.deletes = append(f.deletes, aws.ToString(params.Key))

	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeObjectWriter) PutObject(
	_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}

	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}

	f.calls = append(f.calls, putCall{
		key:          aws.ToString(params.Key),
		body:         string(body),
		contentType:  aws.ToString(params.ContentType),
		storageClass: params.StorageClass,
		acl:          params.ACL,
	})

	return &s3.PutObjectOutput{}, nil
}

func TestS3Uploader_Upload(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.S3SourceConfig
		path    string
		wantKey string
	}{
		{
			name:    "no prefix",
			cfg:     config.S3SourceConfig{Bucket: "reports"},
			path:    "widgets/performance-widget.html",
			wantKey: "widgets/performance-widget.html",
		},
		{
			name:    "prefix with slashes",
			cfg:     config.S3SourceConfig{Bucket: "reports", Prefix: "/runs/42/"},
			path:    "widgets/performance-widget.html",
			wantKey: "runs/42/widgets/performance-widget.html",
		},
		{
			name: "storage class and acl",
			cfg: config.S3SourceConfig{
				Bucket: "reports", StorageClass: "STANDARD_IA", ACL: "public-read",
			},
			path:    "widgets/performance-widget.html",
			wantKey: "widgets/performance-widget.html",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeObjectWriter{}
			u := &s3Uploader{log: logrus.New(), cfg: &tt.cfg, client: fake}

			require.NoError(t, u.Upload(context.Background(), tt.path, []byte("<div></div>")))
			require.Len(t, fake.calls, 1)

			call := fake.calls[0]
			assert.Equal(t, tt.wantKey, call.key)
			assert.Equal(t, "<div></div>", call.body)
			assert.Contains(t, call.contentType, "text/html")
			assert.Equal(t, s3types.StorageClass(tt.cfg.StorageClass), call.storageClass)
			assert.Equal(t, s3types.ObjectCannedACL(tt.cfg.ACL), call.acl)
		})
	}
}

func TestS3Uploader_Errors(t *testing.T) {
	fake := &fakeObjectWriter{err: errors.New("access denied")}
	u := &s3Uploader{log: logrus.New(), cfg: &config.S3SourceConfig{Bucket: "reports"}, client: fake}

	err := u.Upload(context.Background(), "widgets/performance-widget.html", []byte("x"))
	assert.ErrorContains(t, err, "access denied")

	err = u.Preflight(context.Background())
	assert.ErrorContains(t, err, "s3://reports")

	err = u.Upload(context.Background(), "../escape.html", []byte("x"))
	assert.ErrorContains(t, err, "not allowed")
}

func TestS3Uploader_Preflight(t *testing.T) {
	fake := &fakeObjectWriter{}
	u := &s3Uploader{log: logrus.New(), cfg: &config.S3SourceConfig{Bucket: "reports", Prefix: "runs"}, client: fake}

	require.NoError(t, u.Preflight(context.Background()))
	require.Len(t, fake.calls, 1)
	assert.Equal(t, "runs/.perfsummary-write-test", fake.calls[0].key)
	assert.Equal(t, []string{"runs/.perfsummary-write-test"}, fake.deletes)
	assert.Equal(t, "s3://reports/runs", u.Describe())
}

func TestS3Uploader_PreflightDeleteFails(t *testing.T) {
	fake := &fakeObjectWriter{deleteErr: errors.New("delete denied")}
	u := &s3Uploader{log: logrus.New(), cfg: &config.S3SourceConfig{Bucket: "reports"}, client: fake}

	err := u.Preflight(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "deleting test object s3://reports/.perfsummary-write-test")
	assert.ErrorContains(t, err, "delete denied")
	assert.Len(t, fake.calls, 1)
}

func TestS3Uploader_PreflightWriteFailsSkipsDelete(t *testing.T) {
	fake := &fakeObjectWriter{err: errors.New("access denied")}
	u := &s3Uploader{log: logrus.New(), cfg: &config.S3SourceConfig{Bucket: "reports"}, client: fake}

	require.Error(t, u.Preflight(context.Background()))
	assert.Empty(t, fake.deletes)
}

func TestLocalUploader(t *testing.T) {
	root := t.TempDir()

	u, err := NewLocalUploader(logrus.New(), &config.LocalSourceConfig{Enabled: true, ResultsDir: root})
	require.NoError(t, err)

	require.NoError(t, u.Preflight(context.Background()))
	require.NoError(t, u.Upload(context.Background(), "widgets/performance-widget.html", []byte("<p>x</p>")))

	data, err := os.ReadFile(filepath.Join(root, "widgets", "performance-widget.html"))
	require.NoError(t, err)
	assert.Equal(t, "<p>x</p>", string(data))

	assert.ErrorContains(t,
		u.Upload(context.Background(), "/etc/passwd", []byte("x")), "not allowed")
}

func TestLocalUploader_Errors(t *testing.T) {
	_, err := NewLocalUploader(logrus.New(), &config.LocalSourceConfig{ResultsDir: t.TempDir(), Owner: "bad"})
	assert.ErrorContains(t, err, "parsing owner")

	u, err := NewLocalUploader(logrus.New(), &config.LocalSourceConfig{
		ResultsDir: filepath.Join(t.TempDir(), "missing"),
	})
	require.NoError(t, err)
	assert.Error(t, u.Preflight(context.Background()))
}

func TestNew(t *testing.T) {
	log := logrus.New()

	_, err := New(log, &config.SourceConfig{
		HTTP: &config.HTTPSourceConfig{Enabled: true, BaseURL: "https://example.com"},
	})
	assert.ErrorIs(t, err, ErrReadOnly)

	_, err = New(log, &config.SourceConfig{})
	assert.Error(t, err)

	u, err := New(log, &config.SourceConfig{
		S3: &config.S3SourceConfig{Enabled: true, Bucket: "reports"},
	})
	require.NoError(t, err)
	assert.Equal(t, "s3://reports/", u.Describe())

	u, err = New(log, &config.SourceConfig{
		Local: &config.LocalSourceConfig{Enabled: true, ResultsDir: "/data/report"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/data/report", u.Describe())
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantPrefix string
	}{
		{name: "json file", path: "widgets/performance-widget.json", wantPrefix: "application/json"},
		{name: "no extension", path: "widgets/Makefile", wantPrefix: "application/octet-stream"},
		{name: "html file", path: "widgets/performance-widget.html", wantPrefix: "text/html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, detectContentType(tt.path), tt.wantPrefix)
		})
	}
}

func TestLocalUploader_RelativeResultsDirRoundTrip(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg := &config.LocalSourceConfig{Enabled: true, ResultsDir: "."}

	u, err := NewLocalUploader(logrus.New(), cfg)
	require.NoError(t, err)
	require.NoError(t, u.Upload(context.Background(), "widgets/performance-widget.html", []byte("<p>x</p>")))

	// The document source resolves the same root as the uploader.
	src := source.NewLocalSource(cfg, 1<<20)

	data, err := src.Get(context.Background(), "widgets/performance-widget.html")
	require.NoError(t, err)
	assert.Equal(t, "<p>x</p>", string(data))
}
