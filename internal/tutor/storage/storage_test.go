package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
)

func TestLocalStorageDownload(t *testing.T) {
	sourceDir := t.TempDir()
	cacheDir := filepath.Join(t.TempDir(), "cache")
	if err := os.WriteFile(filepath.Join(sourceDir, "notes.pdf"), []byte("pdf bytes"), 0o600); err != nil {
		t.Fatalf("failed to seed source dir: %v", err)
	}

	store, err := NewLocalStorage(sourceDir, cacheDir)
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}

	path, err := store.Download(context.Background(), "file-1", "notes.pdf")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read staged file: %v", err)
	}
	if string(data) != "pdf bytes" {
		t.Errorf("staged content = %q", data)
	}
	if filepath.Dir(path) != cacheDir {
		t.Errorf("staged path %s not under cache dir", path)
	}
}

func TestLocalStorageMissingFile(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}

	_, err = store.Download(context.Background(), "file-1", "missing.pdf")
	if !errors.Is(err, ErrFileNotInStore) {
		t.Errorf("expected ErrFileNotInStore, got %v", err)
	}
}

func TestManifestCatalog(t *testing.T) {
	courseID := "cs-101"
	manifest := filepath.Join(t.TempDir(), "files.json")
	content := `[
		{"id": "file-1", "tenant_id": "tenant-a", "name": "lecture1.pdf", "mime_type": "application/pdf", "course_id": "cs-101"},
		{"id": "file-2", "tenant_id": "tenant-a", "name": "lab1.pdf", "mime_type": "application/pdf", "course_id": "cs-101"},
		{"id": "file-3", "tenant_id": "tenant-b", "name": "other.pdf", "mime_type": "application/pdf", "course_id": "cs-101"}
	]`
	if err := os.WriteFile(manifest, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	catalog, err := LoadManifestCatalog(manifest)
	if err != nil {
		t.Fatalf("LoadManifestCatalog() error = %v", err)
	}

	file, err := catalog.Lookup(context.Background(), "file-1")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if file.Name != "lecture1.pdf" || file.TenantID != "tenant-a" {
		t.Errorf("unexpected record: %+v", file)
	}

	if _, err := catalog.Lookup(context.Background(), "ghost"); !errors.Is(err, ErrFileNotRegistered) {
		t.Errorf("expected ErrFileNotRegistered, got %v", err)
	}

	files, err := catalog.ListByCourse(context.Background(), "tenant-a", courseID)
	if err != nil {
		t.Fatalf("ListByCourse() error = %v", err)
	}
	if len(files) != 2 {
		t.Errorf("course files = %d, want 2 (tenant isolation)", len(files))
	}

	other, err := catalog.ListByCourse(context.Background(), "tenant-a", "math-9")
	if err != nil {
		t.Fatalf("ListByCourse() error = %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no files for unknown course, got %d", len(other))
	}
}

func TestNewManifestCatalogInMemory(t *testing.T) {
	catalog := NewManifestCatalog([]*models.FileInfo{
		{ID: "a", TenantID: "t", Name: "a.pdf"},
	})
	if _, err := catalog.Lookup(context.Background(), "a"); err != nil {
		t.Errorf("Lookup() error = %v", err)
	}
}
