// Package storage provides abstractions for persistent settlement storage.
package storage

import (
	"context"

	"github.com/exsettle/settlementd/internal/models"
)

// Store defines the interface for settlement storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateSettlement persists a new settlement. The store assigns
	// ID and CreatedAt and populates them on the given record.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// ListRecent returns up to limit settlements ordered newest-first
	// by creation time, ties broken by descending ID.
	ListRecent(ctx context.Context, limit int) ([]*models.Settlement, error)

	// Ping checks connectivity to the backing store.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
