package service

import (
	"time"

	"github.com/okian/talentscore/internal/adapters/repository"
	"github.com/okian/talentscore/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the ingestion queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCategoryWeights replaces the default category weight table.
func WithCategoryWeights(weights map[string]float64) Option {
	return func(s *Service) {
		if len(weights) > 0 {
			s.categoryWeights = weights
		}
	}
}

// WithReadTimeout bounds every performance computation and dashboard read.
// Zero disables the bound.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.readTimeout = d
		}
	}
}

// WithStoreBackend selects the storage backend opened on Start.
func WithStoreBackend(backend string, opts ...repository.Option) Option {
	return func(s *Service) {
		s.backend = backend
		s.storeOpts = opts
	}
}

// WithStore uses an already opened store instead of opening one on Start.
// The service still closes it on Stop.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		s.store = st
	}
}

// WithWriteAttempts sets how many times a worker tries to persist a record.
func WithWriteAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.writeAttempts = n
		}
	}
}
