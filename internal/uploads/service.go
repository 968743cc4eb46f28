// Package uploads validates uploaded images, stores them in object storage
// and records them in a repository.
//
// Failures a client can act on are returned as values: UploadImage yields
// an either.Either whose Left side is an *UploadError carrying a closed
// ErrorKind.
package uploads

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"upload-server/internal/either"
	"upload-server/internal/logging"
	"upload-server/internal/storage"
)

// imagesFolder is the key prefix for every stored image.
const imagesFolder = "images"

const discardTimeout = 10 * time.Second

// ObjectStore persists file content.
type ObjectStore interface {
	Put(ctx context.Context, folder, fileName, contentType string, r io.Reader) (storage.Object, error)
	Delete(ctx context.Context, key string) error
}

// Result is what UploadImage returns.
type Result = either.Either[*UploadError, UploadResult]

// Service runs the upload flow.
type Service struct {
	store ObjectStore
	repo  Repository
	log   *logging.Logger
	now   func() time.Time
}

// NewService wires a Service. A nil logger discards output.
func NewService(store ObjectStore, repo Repository, log *logging.Logger) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{
		store: store,
		repo:  repo,
		log:   log,
		now:   time.Now,
	}
}

// UploadImage validates the input, streams the content to object storage
// and records the upload.
func (s *Service) UploadImage(ctx context.Context, in UploadImageInput) Result {
	if err := in.Validate(); err != nil {
		return either.Left[*UploadError, UploadResult](invalidInput(err))
	}
	if uerr := checkImageFormat(in.FileName, in.ContentType); uerr != nil {
		s.log.Info("upload rejected", map[string]any{
			"file_name":    in.FileName,
			"content_type": in.ContentType,
			"kind":         uerr.Kind.String(),
		})
		return either.Left[*UploadError, UploadResult](uerr)
	}

	contentType := mediaType(in.ContentType)
	cr := &countingReader{r: in.ContentStream}
	start := s.now()

	obj, err := s.store.Put(ctx, imagesFolder, in.FileName, contentType, cr)
	if err != nil {
		if cr.tooLarge || errors.Is(err, ErrFileTooLarge) {
			s.log.Info("upload rejected", map[string]any{
				"file_name": in.FileName,
				"bytes":     cr.n,
				"kind":      KindFileTooLarge.String(),
			})
			return either.Left[*UploadError, UploadResult](fileTooLarge(ErrFileTooLarge))
		}
		s.log.Error("store object failed", map[string]any{"file_name": in.FileName}, err)
		return either.Left[*UploadError, UploadResult](storageFailure(err))
	}

	rec := Upload{
		ID:          uuid.NewString(),
		Name:        in.FileName,
		RemoteKey:   obj.Key,
		RemoteURL:   obj.URL,
		ContentType: contentType,
		SizeBytes:   cr.n,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		s.log.Error("record upload failed", map[string]any{"key": obj.Key}, err)
		s.discard(ctx, obj.Key)
		return either.Left[*UploadError, UploadResult](storageFailure(err))
	}

	s.log.Info("upload stored", map[string]any{
		"id":    rec.ID,
		"key":   rec.RemoteKey,
		"bytes": rec.SizeBytes,
		"ms":    s.now().Sub(start).Milliseconds(),
	})

	return either.Right[*UploadError](UploadResult{
		ID:        rec.ID,
		RemoteKey: rec.RemoteKey,
		URL:       rec.RemoteURL,
		SizeBytes: rec.SizeBytes,
	})
}

// discard removes an object that has no record. It runs even when the
// request context is already cancelled.
func (s *Service) discard(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), discardTimeout)
	defer cancel()

	if err := s.store.Delete(ctx, key); err != nil {
		s.log.Error("discard orphaned object failed", map[string]any{"key": key}, err)
	}
}

// GetUpload returns the record stored under id. Any form uuid.Parse
// accepts is looked up by its canonical spelling.
func (s *Service) GetUpload(ctx context.Context, id string) (Upload, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Upload{}, ErrInvalidUploadID
	}
	return s.repo.Get(ctx, parsed.String())
}

// countingReader counts bytes read and remembers whether the underlying
// stream hit the size limit, so the outcome is known even when the object
// store wraps or replaces the read error.
type countingReader struct {
	r        io.Reader
	n        int64
	tooLarge bool
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if err != nil && errors.Is(err, ErrFileTooLarge) {
		c.tooLarge = true
	}
	return n, err
}
