// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and PERFIL_ environment variables on top.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "text" or "json" log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the document store: memory, sqlite or pgx.
	StoreDriver string `koanf:"store_driver"`

	// StoreDSN is the data source name for SQL drivers.
	StoreDSN string `koanf:"store_dsn"`

	// CacheSize bounds the profile cache. Zero disables caching.
	CacheSize int `koanf:"cache_size"`

	// WorkerCount sets the number of report delivery workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory report delivery queue.
	QueueSize int `koanf:"queue_size"`

	// AggregateConcurrency caps parallel profile computation per class.
	AggregateConcurrency int `koanf:"aggregate_concurrency"`

	// AIProvider selects the text service: offline or genai.
	AIProvider string `koanf:"ai_provider"`
	AIAPIKey   string `koanf:"ai_api_key"`
	AIModel    string `koanf:"ai_model"`

	// MailProvider selects the report sink: console or sendgrid.
	MailProvider string `koanf:"mail_provider"`
	MailAPIKey   string `koanf:"mail_api_key"`
	MailFrom     string `koanf:"mail_from"`

	// AppName prefixes outgoing mail subjects.
	AppName string `koanf:"app_name"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		StoreDriver:          "memory",
		CacheSize:            10_000,
		WorkerCount:          runtime.NumCPU(),
		QueueSize:            1_000,
		AggregateConcurrency: runtime.NumCPU() * 2,
		AIProvider:           "offline",
		MailProvider:         "console",
		MailFrom:             "reports@perfil.local",
		AppName:              "Perfil",
	}
}
