package repository

import "github.com/okian/bullpen/pkg/logger"

// CSVOption configures a CSVStore.
type CSVOption func(*CSVStore)

// WithCSVLogger sets the logger.
func WithCSVLogger(l logger.Logger) CSVOption {
	return func(s *CSVStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithPostgresLogger sets the logger.
func WithPostgresLogger(l logger.Logger) PostgresOption {
	return func(s *PostgresStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBatchSize bounds the rows sent per statement.
func WithBatchSize(n int) PostgresOption {
	return func(s *PostgresStore) {
		if n > 0 {
			s.batchSize = n
		}
	}
}
