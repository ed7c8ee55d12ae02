// Package storage archives the raw source files of imports (CSV, Excel,
// PDF) on the local filesystem so a batch can be re-inspected later.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrFileNotFound is returned when no archived file exists for an ID.
var ErrFileNotFound = errors.New("archived file not found")

// FileInfo contains metadata about a stored source file
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // Internal storage path
	CreatedAt   time.Time `json:"created_at"`
}

// Archive defines the interface for source file storage operations
type Archive interface {
	// Upload stores a file and returns its metadata
	Upload(ctx context.Context, filename string, contentType string, r io.Reader) (*FileInfo, error)

	// Download retrieves a file by its ID
	Download(ctx context.Context, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// Delete removes a file by its ID
	Delete(ctx context.Context, fileID uuid.UUID) error

	// List returns all archived files, newest first
	List(ctx context.Context) ([]*FileInfo, error)

	// GetInfo returns metadata for a file without downloading
	GetInfo(ctx context.Context, fileID uuid.UUID) (*FileInfo, error)
}

// Config holds storage configuration
type Config struct {
	LocalPath string `yaml:"local_path" env:"STORAGE_LOCAL_PATH" envDefault:"./uploads"`
}

// New creates the Archive implementation for the configuration.
func New(cfg *Config) (Archive, error) {
	return NewLocalArchive(cfg.LocalPath)
}
