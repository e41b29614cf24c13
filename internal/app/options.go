package service

import (
	"github.com/okian/perfil/internal/adapters/ai"
	"github.com/okian/perfil/internal/adapters/mail"
	"github.com/okian/perfil/internal/adapters/mq/worker"
	"github.com/okian/perfil/internal/adapters/repository"
	"github.com/okian/perfil/internal/domain/classroom"
	"github.com/okian/perfil/internal/domain/profile"
	"github.com/okian/perfil/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of delivery workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the delivery queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithCacheSize bounds the profile cache. Zero or less disables caching.
func WithCacheSize(size int) Option {
	return func(s *Service) {
		s.cacheSize = size
	}
}

// WithAggregateConcurrency bounds how many profiles of a class are
// computed at once.
func WithAggregateConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.aggregateConcurrency = n
		}
	}
}

// WithStoreDriver selects the store opened by Start.
func WithStoreDriver(driver, dsn string) Option {
	return func(s *Service) {
		s.storeDriver = driver
		s.storeDSN = dsn
	}
}

// WithStore injects an already opened store. The service does not close it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithMailSink sets the sink reports are delivered to.
func WithMailSink(sink mail.Sink) Option {
	return func(s *Service) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithTextService sets the lesson plan text generator.
func WithTextService(text ai.TextService) Option {
	return func(s *Service) {
		if text != nil {
			s.text = text
		}
	}
}

// WithAggregatorOptions configures the profile aggregator.
func WithAggregatorOptions(opts ...profile.Option) Option {
	return func(s *Service) {
		s.aggregatorOpts = append(s.aggregatorOpts, opts...)
	}
}

// WithPairings replaces the team pairing table.
func WithPairings(pairings []classroom.Pairing) Option {
	return func(s *Service) {
		s.classOpts = append(s.classOpts, classroom.WithPairings(pairings))
	}
}

// WithWorkerOptions configures every delivery worker.
func WithWorkerOptions(opts ...worker.Option) Option {
	return func(s *Service) {
		s.workerOpts = append(s.workerOpts, opts...)
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
