package domain

import "context"

// Database defines lifecycle operations for the underlying store.
// Implementations own their schema and migration strategy.
type Database interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
