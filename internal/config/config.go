package config

import (
	"time"

	"github.com/crashcheck/crashcheck/internal/core"
)

// Config is the root configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Debugger  DebuggerConfig  `mapstructure:"debugger" yaml:"debugger"`
	Handler   HandlerConfig   `mapstructure:"handler" yaml:"handler"`
	Symbols   SymbolsConfig   `mapstructure:"symbols" yaml:"symbols"`
	Report    ReportConfig    `mapstructure:"report" yaml:"report"`
	History   HistoryConfig   `mapstructure:"history" yaml:"history"`
	Scenarios ScenariosConfig `mapstructure:"scenarios" yaml:"scenarios"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DebuggerConfig configures the external debugger.
type DebuggerConfig struct {
	// Path overrides debugger discovery when set.
	Path    string        `mapstructure:"path" yaml:"path"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// HandlerConfig configures capture-server startup.
type HandlerConfig struct {
	ReadinessTimeout time.Duration `mapstructure:"readiness_timeout" yaml:"readiness_timeout"`
	PollInterval     time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// SymbolsConfig configures debugger symbol resolution.
type SymbolsConfig struct {
	// CacheDir is the local symbol cache. A run-scoped temp directory is
	// used when empty.
	CacheDir  string `mapstructure:"cache_dir" yaml:"cache_dir"`
	ServerURL string `mapstructure:"server_url" yaml:"server_url"`
}

// ReportConfig configures run-report output.
type ReportConfig struct {
	// File receives the machine-readable run report. JSON unless the
	// extension is .yaml/.yml.
	File string `mapstructure:"file" yaml:"file"`
}

// HistoryConfig configures the run-history store.
type HistoryConfig struct {
	DB string `mapstructure:"db" yaml:"db"`
}

// ScenariosConfig selects scenarios.
type ScenariosConfig struct {
	Skip []string `mapstructure:"skip" yaml:"skip"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
		Debugger: DebuggerConfig{
			Timeout: 5 * time.Minute,
		},
		Handler: HandlerConfig{
			ReadinessTimeout: 30 * time.Second,
			PollInterval:     100 * time.Millisecond,
		},
		Symbols: SymbolsConfig{
			ServerURL: "https://msdl.microsoft.com/download/symbols",
		},
	}
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return core.ErrValidation(core.CodeInvalidConfig, "log.level must be one of debug, info, warn, error")
	}
	switch c.Log.Format {
	case "auto", "text", "json":
	default:
		return core.ErrValidation(core.CodeInvalidConfig, "log.format must be one of auto, text, json")
	}
	if c.Debugger.Timeout <= 0 {
		return core.ErrValidation(core.CodeInvalidConfig, "debugger.timeout must be positive")
	}
	if c.Handler.ReadinessTimeout <= 0 {
		return core.ErrValidation(core.CodeInvalidConfig, "handler.readiness_timeout must be positive")
	}
	if c.Handler.PollInterval <= 0 {
		return core.ErrValidation(core.CodeInvalidConfig, "handler.poll_interval must be positive")
	}
	if c.Symbols.ServerURL == "" {
		return core.ErrValidation(core.CodeInvalidConfig, "symbols.server_url must not be empty")
	}
	return nil
}
