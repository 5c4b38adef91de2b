package cli

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/openebl/pkiconsole/pkg/config"
	"github.com/openebl/pkiconsole/pkg/console/client"
	"github.com/openebl/pkiconsole/pkg/console/hierarchy"
	"github.com/openebl/pkiconsole/pkg/console/listing"
	"github.com/openebl/pkiconsole/pkg/console/model"
)

type Config struct {
	Server            string  `yaml:"server"`
	Requester         string  `yaml:"requester"`
	PageSize          int     `yaml:"page_size"`
	SearchDebounceMs  int     `yaml:"search_debounce_ms"`
	MaxPathDepth      int     `yaml:"max_path_depth"`
	RequestTimeout    int     `yaml:"request_timeout"` // In seconds.
	MaxRetry          int     `yaml:"max_retry"` // Attempts per page when loading the CA collection.
	LoadPageSize      int     `yaml:"load_page_size"`
	MaxLoadPages      int     `yaml:"max_load_pages"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	OTLPEndpoint      string  `yaml:"otlp_endpoint"`
}

func DefaultConfig() Config {
	return Config{
		PageSize:         listing.DefaultPageSize,
		SearchDebounceMs: int(listing.DefaultSearchDebounce / time.Millisecond),
		MaxPathDepth:     hierarchy.MaxPathDepth,
		RequestTimeout:   30,
		MaxRetry:         client.DefaultMaxRetry,
		LoadPageSize:     client.DefaultLoaderPageSize,
		MaxLoadPages:     client.DefaultMaxPages,
	}
}

// LoadConfig reads the config file at path, when given, on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if err := config.FromFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Server, validation.Required),
		validation.Field(&c.PageSize, validation.Required, validation.Min(1), validation.Max(listing.MaxPageSize)),
		validation.Field(&c.SearchDebounceMs, validation.Min(0)),
		validation.Field(&c.MaxPathDepth, validation.Required, validation.Min(1)),
		validation.Field(&c.RequestTimeout, validation.Min(0)),
		validation.Field(&c.MaxRetry, validation.Required, validation.Min(1)),
		validation.Field(&c.LoadPageSize, validation.Required, validation.Min(1), validation.Max(listing.MaxPageSize)),
		validation.Field(&c.MaxLoadPages, validation.Required, validation.Min(1)),
		validation.Field(&c.RequestsPerSecond, validation.Min(0.0)),
	); err != nil {
		return fmt.Errorf("%s%w", err.Error(), model.ErrInvalidParameter)
	}
	return nil
}

func (c Config) SearchDebounce() time.Duration {
	return time.Duration(c.SearchDebounceMs) * time.Millisecond
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}
