// Package export persists collected price records to files or a
// database.
package export

import (
	"pricehound/internal/types"
)

// Storage is the interface for all export backends.
type Storage interface {
	// Store persists a batch of records.
	Store(records []types.PriceRecord) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the backend identifier.
	Name() string
}
