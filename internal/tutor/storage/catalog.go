package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
)

var ErrFileNotRegistered = errors.New("file not registered in catalog")

// ManifestCatalog is a read-only file catalog loaded from a JSON manifest:
// an array of file records. It stands in for the remote registry service.
type ManifestCatalog struct {
	byID map[string]*models.FileInfo
}

// LoadManifestCatalog reads the manifest at path.
func LoadManifestCatalog(path string) (*ManifestCatalog, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var files []*models.FileInfo
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	return NewManifestCatalog(files), nil
}

// NewManifestCatalog builds a catalog from in-memory records.
func NewManifestCatalog(files []*models.FileInfo) *ManifestCatalog {
	byID := make(map[string]*models.FileInfo, len(files))
	for _, file := range files {
		byID[file.ID] = file
	}
	return &ManifestCatalog{byID: byID}
}

// Lookup returns the registered file record.
func (c *ManifestCatalog) Lookup(_ context.Context, fileID string) (*models.FileInfo, error) {
	file, ok := c.byID[fileID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotRegistered, fileID)
	}
	return file, nil
}

// ListByCourse returns every registered file for one course.
func (c *ManifestCatalog) ListByCourse(_ context.Context, tenantID, courseID string) ([]*models.FileInfo, error) {
	var out []*models.FileInfo
	for _, file := range c.byID {
		if file.TenantID == tenantID && file.CourseID != nil && *file.CourseID == courseID {
			out = append(out, file)
		}
	}
	return out, nil
}
