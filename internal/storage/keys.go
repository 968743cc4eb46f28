package storage

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const maxFilenameLen = 255

// ObjectKey builds the key for a new object. The uuid prefix keeps keys
// unique even when the same file is uploaded twice.
func ObjectKey(folder string, id uuid.UUID, fileName string) string {
	return path.Join(folder, id.String()+"-"+SanitizeFilename(fileName))
}

// SanitizeFilename keeps ASCII letters, digits, dots, dashes and
// underscores so the name is safe inside an object key and a URL.
func SanitizeFilename(filename string) string {
	// Drop any directory part a client may have sent.
	filename = strings.ReplaceAll(filename, "\\", "/")
	if i := strings.LastIndex(filename, "/"); i >= 0 {
		filename = filename[i+1:]
	}

	filename = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, filename)

	// Trim dots from start/end
	filename = strings.Trim(filename, ".")

	// Limit length
	if len(filename) > maxFilenameLen {
		ext := filepath.Ext(filename)
		if len(ext) > 16 {
			ext = ""
		}
		nameWithoutExt := strings.TrimSuffix(filename, ext)
		filename = nameWithoutExt[:maxFilenameLen-len(ext)] + ext
	}

	if filename == "" {
		filename = "unnamed"
	}

	return filename
}
