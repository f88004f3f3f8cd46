package config

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix for environment variable overrides, e.g.
	// PERFSUMMARY_GLOBAL_LOG_LEVEL overrides global.log_level.
	EnvPrefix = "PERFSUMMARY"

	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultWidgetID is the identifier the summary widget registers under.
	DefaultWidgetID = "performance-summary"

	// DefaultWidgetTitle is the human-readable widget title.
	DefaultWidgetTitle = "Performance Summary"

	// DefaultDocumentPath is the document location relative to the source root.
	DefaultDocumentPath = "widgets/performance-widget.json"

	// DefaultPublishPath is where a published fragment is written, relative
	// to the source root.
	DefaultPublishPath = "widgets/performance-widget.html"

	// DefaultFetchTimeout bounds a single document retrieval.
	DefaultFetchTimeout = "30s"

	// DefaultMaxDocumentSize caps the size of a retrieved document.
	DefaultMaxDocumentSize = "1MiB"

	// DefaultS3Region is used when no S3 region is configured.
	DefaultS3Region = "us-east-1"
)

// Config is the root configuration for perfsummary.
type Config struct {
	Global GlobalConfig `yaml:"global" mapstructure:"global"`
	Source SourceConfig `yaml:"source" mapstructure:"source"`
	Widget WidgetConfig `yaml:"widget" mapstructure:"widget"`
	API    *APIConfig   `yaml:"api,omitempty" mapstructure:"api"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// SourceConfig selects where the performance document is read from.
// Exactly one backend must be enabled.
type SourceConfig struct {
	HTTP  *HTTPSourceConfig  `yaml:"http,omitempty" mapstructure:"http"`
	Local *LocalSourceConfig `yaml:"local,omitempty" mapstructure:"local"`
	S3    *S3SourceConfig    `yaml:"s3,omitempty" mapstructure:"s3"`
}

// HTTPSourceConfig reads the document relative to a report base URL.
type HTTPSourceConfig struct {
	Enabled bool              `yaml:"enabled" mapstructure:"enabled"`
	BaseURL string            `yaml:"base_url" mapstructure:"base_url"`
	Headers map[string]string `yaml:"headers,omitempty" mapstructure:"headers"`
}

// LocalSourceConfig reads the document from a local report directory.
type LocalSourceConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	ResultsDir string `yaml:"results_dir" mapstructure:"results_dir"`
	// Owner is an optional "UID:GID" applied to published files.
	Owner      string `yaml:"owner,omitempty" mapstructure:"owner"`
}

// S3SourceConfig reads the document from an S3-compatible bucket.
type S3SourceConfig struct {
	Enabled         bool   `yaml:"enabled" mapstructure:"enabled"`
	EndpointURL     string `yaml:"endpoint_url,omitempty" mapstructure:"endpoint_url"`
	Region          string `yaml:"region,omitempty" mapstructure:"region"`
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	Prefix          string `yaml:"prefix,omitempty" mapstructure:"prefix"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
	StorageClass    string `yaml:"storage_class,omitempty" mapstructure:"storage_class"`
	ACL             string `yaml:"acl,omitempty" mapstructure:"acl"`
}

// WidgetConfig contains the summary widget settings.
type WidgetConfig struct {
	ID              string `yaml:"id" mapstructure:"id"`
	Title           string `yaml:"title" mapstructure:"title"`
	DocumentPath    string `yaml:"document_path" mapstructure:"document_path"`
	PublishPath     string `yaml:"publish_path" mapstructure:"publish_path"`
	FetchTimeout    string `yaml:"fetch_timeout" mapstructure:"fetch_timeout"`
	MaxDocumentSize string `yaml:"max_document_size" mapstructure:"max_document_size"`
}

// Load reads a configuration file and applies PERFSUMMARY_* environment
// overrides on top of it.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// AutomaticEnv only resolves keys viper already knows about, so bind
	// every field explicitly to allow overriding keys absent from the file.
	bindEnvs(v, "", reflect.TypeOf(Config{}))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// bindEnvs walks the mapstructure tags of t and binds each leaf key.
func bindEnvs(v *viper.Viper, prefix string, t reflect.Type) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	for i := range t.NumField() {
		field := t.Field(i)

		tag := strings.Split(field.Tag.Get("mapstructure"), ",")[0]
		if tag == "" || tag == "-" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		ft := field.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}

		switch ft.Kind() {
		case reflect.Struct:
			bindEnvs(v, key, ft)
		case reflect.Map:
			// Maps have no fixed keys to bind.
		default:
			_ = v.BindEnv(key)
		}
	}
}

// applyDefaults sets default values for unspecified configuration options.
func (c *Config) applyDefaults() {
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = DefaultLogLevel
	}

	if c.Widget.ID == "" {
		c.Widget.ID = DefaultWidgetID
	}

	if c.Widget.Title == "" {
		c.Widget.Title = DefaultWidgetTitle
	}

	if c.Widget.DocumentPath == "" {
		c.Widget.DocumentPath = DefaultDocumentPath
	}

	if c.Widget.PublishPath == "" {
		c.Widget.PublishPath = DefaultPublishPath
	}

	if c.Widget.FetchTimeout == "" {
		c.Widget.FetchTimeout = DefaultFetchTimeout
	}

	if c.Widget.MaxDocumentSize == "" {
		c.Widget.MaxDocumentSize = DefaultMaxDocumentSize
	}

	if c.Source.S3 != nil && c.Source.S3.Region == "" {
		c.Source.S3.Region = DefaultS3Region
	}

	if c.API != nil {
		c.API.applyDefaults()
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}

	if err := c.Widget.Validate(); err != nil {
		return fmt.Errorf("widget: %w", err)
	}

	return nil
}

// Validate ensures exactly one source backend is enabled and configured.
func (s *SourceConfig) Validate() error {
	enabled := 0

	if s.HTTP != nil && s.HTTP.Enabled {
		enabled++

		if s.HTTP.BaseURL == "" {
			return fmt.Errorf("http.base_url is required")
		}

		u, err := url.Parse(s.HTTP.BaseURL)
		if err != nil {
			return fmt.Errorf("parsing http.base_url: %w", err)
		}

		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("http.base_url must use http or https, got %q", u.Scheme)
		}
	}

	if s.Local != nil && s.Local.Enabled {
		enabled++

		if s.Local.ResultsDir == "" {
			return fmt.Errorf("local.results_dir is required")
		}
	}

	if s.S3 != nil && s.S3.Enabled {
		enabled++

		if s.S3.Bucket == "" {
			return fmt.Errorf("s3.bucket is required")
		}
	}

	switch enabled {
	case 0:
		return fmt.Errorf("no source backend enabled (http, local or s3)")
	case 1:
		return nil
	default:
		return fmt.Errorf("only one source backend may be enabled, got %d", enabled)
	}
}

// Validate checks the widget identity and limits.
func (w *WidgetConfig) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("id is required")
	}

	if w.Title == "" {
		return fmt.Errorf("title is required")
	}

	if _, err := w.Timeout(); err != nil {
		return err
	}

	if _, err := w.MaxDocumentBytes(); err != nil {
		return err
	}

	return nil
}

// Timeout returns the parsed fetch timeout. Zero disables the timeout.
func (w *WidgetConfig) Timeout() (time.Duration, error) {
	if w.FetchTimeout == "" || w.FetchTimeout == "0" {
		return 0, nil
	}

	d, err := time.ParseDuration(w.FetchTimeout)
	if err != nil {
		return 0, fmt.Errorf("parsing fetch_timeout: %w", err)
	}

	if d < 0 {
		return 0, fmt.Errorf("fetch_timeout must not be negative, got %s", d)
	}

	return d, nil
}

// MaxDocumentBytes returns the parsed document size limit in bytes.
func (w *WidgetConfig) MaxDocumentBytes() (int64, error) {
	n, err := units.RAMInBytes(w.MaxDocumentSize)
	if err != nil {
		return 0, fmt.Errorf("parsing max_document_size: %w", err)
	}

	if n <= 0 {
		return 0, fmt.Errorf("max_document_size must be positive, got %q", w.MaxDocumentSize)
	}

	return n, nil
}
