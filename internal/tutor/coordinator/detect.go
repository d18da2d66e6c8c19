package coordinator

import (
	"errors"
	"path/filepath"
	"strings"
)

var ErrUnsupportedFileType = errors.New("unsupported file type")

// detectSourceType maps a file's MIME type and name to one of the source
// types extractors register under. The MIME type wins when present; the
// extension is the fallback for catalogs that never recorded one.
func detectSourceType(mimeType, fileName string) (string, error) {
	mime := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case mime == "application/pdf":
		return "pdf", nil
	case strings.HasPrefix(mime, "video/"):
		return "video", nil
	case strings.HasPrefix(mime, "audio/"):
		return "audio", nil
	case strings.HasPrefix(mime, "image/"):
		return "image", nil
	case mime == "text/html":
		return "html", nil
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return "pdf", nil
	case ".mp4", ".mov", ".avi", ".mkv", ".webm":
		return "video", nil
	case ".mp3", ".wav", ".m4a", ".flac", ".ogg":
		return "audio", nil
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp":
		return "image", nil
	case ".html", ".htm":
		return "html", nil
	}

	return "", ErrUnsupportedFileType
}
