package vidctl

import (
	"log/slog"

	"github.com/hazyhaar/vidctl/internal/config"
	"github.com/hazyhaar/vidctl/internal/sink"
	"github.com/hazyhaar/vidctl/reconcile"
)

// Config is the top-level vidctl configuration. Re-exported from internal.
type Config = config.Config

// PageConfig defines a page to reconcile.
type PageConfig = config.PageConfig

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// NewCallbackSink creates an in-process report sink.
func NewCallbackSink(fn sink.ReportFunc) reconcile.Sink {
	return sink.NewCallback(fn)
}

// SinksFromConfig builds the configured report sinks.
func SinksFromConfig(cfg *Config, logger *slog.Logger) (reconcile.Sink, error) {
	return sink.FromConfig(cfg.Sinks, logger)
}
