package repository

import (
	"github.com/campuslink/beacon/internal/domain/model"
	"github.com/campuslink/beacon/pkg/logger"
)

// Option applies a configuration option to the in-memory store.
type Option func(*MemoryStore)

// WithSeed preloads posts, typically for demos and tests.
func WithSeed(posts ...model.TeamPost) Option {
	return func(s *MemoryStore) {
		for _, p := range posts {
			s.insert(p.Clone())
		}
	}
}

// PostgresOption applies a configuration option to the Postgres store.
type PostgresOption func(*PostgresStore)

// WithPostgresLogger sets the logger used by the Postgres store.
func WithPostgresLogger(l logger.Logger) PostgresOption {
	return func(s *PostgresStore) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMigrate controls whether the schema is created on startup.
func WithMigrate(enabled bool) PostgresOption {
	return func(s *PostgresStore) {
		s.migrate = enabled
	}
}
