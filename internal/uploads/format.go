package uploads

import (
	"mime"
	"path/filepath"
	"strings"
)

// allowedImageTypes lists the accepted image MIME types. image/jpg is not
// registered but browsers and clients still send it.
var allowedImageTypes = map[string]bool{
	"image/jpg":  true,
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// mediaType strips parameters and normalises case.
func mediaType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// checkImageFormat rejects anything that is not an allowed image. The
// declared content type must be allowed, and an extension with a known
// type must agree with it.
func checkImageFormat(fileName, contentType string) *UploadError {
	ext := strings.ToLower(filepath.Ext(fileName))
	mt := mediaType(contentType)

	if !allowedImageTypes[mt] {
		switch {
		case ext != "":
			return invalidFileFormat(ext)
		case mt != "":
			return invalidFileFormat(mt)
		default:
			return invalidFileFormat("unknown")
		}
	}

	if ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" && !allowedImageTypes[mediaType(byExt)] {
			return invalidFileFormat(ext)
		}
	}
	return nil
}
