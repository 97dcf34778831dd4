package repository

import (
	"context"
	"fmt"

	"github.com/okian/talentscore/pkg/logger"
)

// Default connection settings.
const (
	defaultMongoDatabase = "talentscore"
)

// Option applies a configuration option to Open.
type Option func(*settings)

type settings struct {
	postgresDSN   string
	mongoURI      string
	mongoDatabase string
	debugSQL      bool
	logger        logger.Logger
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(s *settings) {
		s.postgresDSN = dsn
	}
}

// WithMongoURI sets the MongoDB connection URI.
func WithMongoURI(uri string) Option {
	return func(s *settings) {
		s.mongoURI = uri
	}
}

// WithMongoDatabase sets the MongoDB database name.
func WithMongoDatabase(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.mongoDatabase = name
		}
	}
}

// WithDebugSQL makes the postgres backend log every statement.
func WithDebugSQL(enabled bool) Option {
	return func(s *settings) {
		s.debugSQL = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open creates the store for backend.
func Open(ctx context.Context, backend string, opts ...Option) (Store, error) {
	s := &settings{mongoDatabase: defaultMongoDatabase}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("repository")
	}

	switch backend {
	case "", BackendMemory:
		s.logger.Info(ctx, "using in-memory store")
		return NewMemoryStore(), nil
	case BackendPostgres:
		s.logger.Info(ctx, "using postgres store")
		st, err := OpenPostgres(ctx, s.postgresDSN, s.debugSQL)
		if err != nil {
			return nil, err
		}
		return st, nil
	case BackendMongo:
		s.logger.Info(ctx, "using mongo store", logger.String("database", s.mongoDatabase))
		st, err := OpenMongo(ctx, s.mongoURI, s.mongoDatabase)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
