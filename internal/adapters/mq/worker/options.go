package worker

import (
	"time"

	"github.com/okian/talentscore/pkg/logger"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithMaxAttempts sets how often a record is tried before it is given up.
func WithMaxAttempts(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithRetryDelay sets the pause before the first retry. It doubles on each
// further attempt.
func WithRetryDelay(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.retryDelay = d
		}
	}
}

// WithFailureHandler sets a callback for records that could not be persisted.
func WithFailureHandler(fn FailureHandler) Option {
	return func(p *Pool) {
		p.onFailure = fn
	}
}

// WithLogger sets a custom logger for the pool and its workers.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}
