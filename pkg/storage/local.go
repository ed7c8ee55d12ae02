package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalArchive implements Archive using the local filesystem
type LocalArchive struct {
	basePath string
}

// NewLocalArchive creates a new local filesystem archive
func NewLocalArchive(basePath string) (*LocalArchive, error) {
	// Ensure base path exists
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalArchive{basePath: basePath}, nil
}

// Upload stores a file and returns its metadata
func (s *LocalArchive) Upload(ctx context.Context, filename string, contentType string, r io.Reader) (*FileInfo, error) {
	fileID := uuid.New()

	// Sanitize filename and add UUID prefix for uniqueness
	safeFilename := sanitizeFilename(filename)
	storedFilename := fmt.Sprintf("%s_%s", fileID.String()[:8], safeFilename)
	filePath := filepath.Join(s.basePath, storedFilename)

	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(filePath) // Cleanup on error
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	info := &FileInfo{
		ID:          fileID,
		Name:        filename,
		Size:        size,
		ContentType: contentType,
		Path:        storedFilename,
		CreatedAt:   time.Now(),
	}

	if err := s.saveMetadata(fileID, info); err != nil {
		os.Remove(filePath) // Cleanup on error
		return nil, err
	}

	return info, nil
}

// Download retrieves a file by its ID
func (s *LocalArchive) Download(ctx context.Context, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	info, err := s.GetInfo(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.basePath, info.Path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	return f, info, nil
}

// Delete removes a file by its ID
func (s *LocalArchive) Delete(ctx context.Context, fileID uuid.UUID) error {
	info, err := s.GetInfo(ctx, fileID)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.basePath, info.Path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	os.Remove(s.metaPath(fileID))
	return nil
}

// List returns all archived files, newest first
func (s *LocalArchive) List(ctx context.Context) ([]*FileInfo, error) {
	metaDir := filepath.Join(s.basePath, ".meta")
	if _, err := os.Stat(metaDir); os.IsNotExist(err) {
		return []*FileInfo{}, nil
	}

	entries, err := os.ReadDir(metaDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}

	files := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}

		info, err := s.GetInfo(ctx, id)
		if err != nil {
			continue
		}
		files = append(files, info)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}

// GetInfo returns metadata for a file without downloading
func (s *LocalArchive) GetInfo(ctx context.Context, fileID uuid.UUID) (*FileInfo, error) {
	data, err := os.ReadFile(s.metaPath(fileID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var info FileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	return &info, nil
}

func (s *LocalArchive) metaPath(fileID uuid.UUID) string {
	return filepath.Join(s.basePath, ".meta", fileID.String()+".json")
}

// saveMetadata saves file metadata to a JSON file
func (s *LocalArchive) saveMetadata(fileID uuid.UUID, info *FileInfo) error {
	metaDir := filepath.Join(s.basePath, ".meta")
	if err := os.MkdirAll(metaDir, 0755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(s.metaPath(fileID), data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

// sanitizeFilename removes unsafe characters from filenames
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(name)
}
