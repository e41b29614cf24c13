package repository

import "time"

// Option applies a configuration option to a store.
type Option func(*options)

type options struct {
	metricsUpdateInterval time.Duration
	maxOpenConns          int
}

func defaultOptions() options {
	return options{metricsUpdateInterval: 5 * time.Second, maxOpenConns: 10}
}

// WithMetricsUpdateInterval sets the interval for background record count
// metrics.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.metricsUpdateInterval = interval
		}
	}
}

// WithMaxOpenConns bounds the SQL connection pool. In-memory SQLite always
// uses a single connection.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}
