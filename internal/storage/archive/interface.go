// internal/storage/archive/interface.go
package archive

import "context"

// Storage persists the price cache and generated reports.
type Storage interface {
	// Write stores data at the given path, replacing any existing object
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths under the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)

	// Location describes where path lives, for display
	Location(path string) string
}
