// Package storage provides the local implementations of the external file
// collaborators: a directory-backed store and a JSON manifest catalog.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/code-sleuth/eduverse-go/pkg/util"

	"github.com/rs/zerolog"
)

var ErrFileNotInStore = errors.New("file not found in storage directory")

// LocalStorage serves files from a directory on disk, staging each download
// into a cache directory. It stands in for the remote object store in CLI
// and test use.
type LocalStorage struct {
	sourceDir string
	cacheDir  string
	logger    zerolog.Logger
}

// NewLocalStorage creates a local storage rooted at sourceDir, staging
// downloads under cacheDir.
func NewLocalStorage(sourceDir, cacheDir string) (*LocalStorage, error) {
	if err := os.MkdirAll(cacheDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &LocalStorage{
		sourceDir: sourceDir,
		cacheDir:  cacheDir,
		logger:    util.NewLogger(util.LogLevelFromEnv("STORAGE_LOG_LEVEL")),
	}, nil
}

// Download stages the file into the cache directory and returns the staged
// path. The source is looked up by name, then by id.
func (s *LocalStorage) Download(ctx context.Context, fileID, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src := filepath.Join(s.sourceDir, fileName)
	if _, err := os.Stat(src); err != nil {
		src = filepath.Join(s.sourceDir, fileID)
		if _, err := os.Stat(src); err != nil {
			return "", fmt.Errorf("%w: %s", ErrFileNotInStore, fileName)
		}
	}

	dest := filepath.Join(s.cacheDir, fileID+"_"+filepath.Base(fileName))
	if err := copyFile(src, dest); err != nil {
		s.logger.Error().Err(err).Str("file_id", fileID).Msg("Failed to stage file")
		return "", err
	}

	s.logger.Debug().Str("file_id", fileID).Str("path", dest).Msg("Staged file")
	return dest, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src) // #nosec G304 -- paths derive from the configured storage root
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest) // #nosec G304
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
