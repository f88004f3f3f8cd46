package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ethpandaops/perfsummary/pkg/config"
	"github.com/sirupsen/logrus"
)

// Compile-time interface check.
var _ Source = (*httpSource)(nil)

var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxConnsPerHost:       32,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

type httpSource struct {
	log      logrus.FieldLogger
	client   *http.Client
	baseURL  *url.URL
	headers  map[string]string
	maxBytes int64
}

// NewHTTPSource creates a Source that issues GET requests relative to the
// configured report base URL. Request lifetime is bounded by the caller's
// context only.
func NewHTTPSource(
	log logrus.FieldLogger,
	cfg *config.HTTPSourceConfig,
	maxBytes int64,
) (Source, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}

	return &httpSource{
		log:      log.WithField("component", "http-source"),
		client:   &http.Client{Transport: defaultTransport},
		baseURL:  base,
		headers:  cfg.Headers,
		maxBytes: maxBytes,
	}, nil
}

func (s *httpSource) Describe() string {
	return s.baseURL.Redacted()
}

// Get fetches {base_url}/{filePath}. Any non-2xx status is an error.
func (s *httpSource) Get(ctx context.Context, filePath string) ([]byte, error) {
	if !IsAllowedPath(filePath) {
		return nil, fmt.Errorf("path %q is not allowed", filePath)
	}

	target := s.baseURL.JoinPath(filePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", target.Redacted(), err)
	}

	defer func() { _ = resp.Body.Close() }()

	s.log.WithField("url", target.Redacted()).
		WithField("status", resp.StatusCode).
		WithField("duration", time.Since(start)).
		Debug("Document request completed")

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", target.Redacted(), ErrNotFound)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf(
			"unexpected status %d from %s", resp.StatusCode, target.Redacted(),
		)
	}

	return readLimited(resp.Body, s.maxBytes)
}
