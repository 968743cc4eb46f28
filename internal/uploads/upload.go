package uploads

import (
	"io"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxFileNameLength fits the name in a single path segment on every
// common filesystem and object store.
const MaxFileNameLength = 255

// Upload is the persisted record of a stored file.
type Upload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	RemoteKey   string    `json:"remote_key"`
	RemoteURL   string    `json:"remote_url"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// UploadImageInput is one file taken from a request. ContentStream is read
// exactly once.
type UploadImageInput struct {
	FileName      string
	ContentType   string
	ContentStream io.Reader
}

// Validate checks the fields every upload needs. The content type is
// checked separately as a file format rule.
func (in UploadImageInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.FileName, validation.Required, validation.Length(1, MaxFileNameLength)),
		validation.Field(&in.ContentStream, validation.NotNil),
	)
}

// UploadResult is the success side of an upload.
type UploadResult struct {
	ID        string
	RemoteKey string
	URL       string
	SizeBytes int64
}
