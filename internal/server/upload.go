package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"upload-server/internal/uploads"
)

const (
	// DefaultMaxFileBytes caps a single uploaded file at 4 MiB.
	DefaultMaxFileBytes int64 = 4 * 1024 * 1024

	// multipartOverhead is the room left for boundaries, part headers and
	// other form fields on top of the file itself.
	multipartOverhead int64 = 1 << 20

	msgFileRequired   = "File is required."
	msgInternal       = "Internal server error."
	msgUploadNotFound = "Upload not found."
	msgInvalidID      = "Invalid upload id."
)

var errNoFilePart = errors.New("no file part")

// handleUpload handles POST /uploads. The first multipart part that carries
// a file name is streamed to the upload service; the service result decides
// the response, which is written exactly once.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxFileBytes+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		s.metrics.RecordUploadRejected("FileRequired")
		writeMessage(w, http.StatusBadRequest, msgFileRequired)
		return
	}

	part, err := nextFilePart(mr)
	if err != nil {
		if isBodyTooLarge(err) {
			s.metrics.RecordUploadRejected(uploads.KindFileTooLarge.String())
			writeMessage(w, http.StatusRequestEntityTooLarge, uploads.MessageFileTooLarge)
			return
		}
		s.metrics.RecordUploadRejected("FileRequired")
		writeMessage(w, http.StatusBadRequest, msgFileRequired)
		return
	}
	defer func() { _ = part.Close() }()

	res := s.uploads.UploadImage(r.Context(), uploads.UploadImageInput{
		FileName:      part.FileName(),
		ContentType:   part.Header.Get("Content-Type"),
		ContentStream: &limitedReader{r: part, remaining: s.maxFileBytes},
	})

	if got, ok := res.RightValue(); ok {
		s.metrics.RecordUpload(got.SizeBytes)
		w.Header().Set("Location", "/uploads/"+got.ID)
		w.WriteHeader(http.StatusCreated)
		return
	}

	uerr, _ := res.LeftValue()
	s.metrics.RecordUploadRejected(uerr.Kind.String())

	switch uerr.Kind {
	case uploads.KindInvalidFileFormat, uploads.KindInvalidInput:
		writeMessage(w, http.StatusBadRequest, uerr.Message)
	case uploads.KindFileTooLarge:
		writeMessage(w, http.StatusRequestEntityTooLarge, uerr.Message)
	case uploads.KindStorage:
		s.log.Error("upload failed", map[string]any{"rid": RequestIDFromContext(r.Context())}, uerr)
		writeMessage(w, http.StatusInternalServerError, msgInternal)
	default:
		s.log.Error("unhandled upload error", map[string]any{
			"rid":  RequestIDFromContext(r.Context()),
			"kind": uerr.Kind.String(),
		}, uerr)
		writeMessage(w, http.StatusInternalServerError, msgInternal)
	}
}

// handleGetUpload handles GET /uploads/{id}.
func (s *Server) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	u, err := s.uploads.GetUpload(r.Context(), r.PathValue("id"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, u)
	case errors.Is(err, uploads.ErrInvalidUploadID):
		writeMessage(w, http.StatusBadRequest, msgInvalidID)
	case errors.Is(err, uploads.ErrUploadNotFound):
		writeMessage(w, http.StatusNotFound, msgUploadNotFound)
	default:
		s.log.Error("get upload failed", map[string]any{"rid": RequestIDFromContext(r.Context())}, err)
		writeMessage(w, http.StatusInternalServerError, msgInternal)
	}
}

// nextFilePart returns the first part with a file name, skipping plain
// form fields.
func nextFilePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, errNoFilePart
		}
		if err != nil {
			return nil, err
		}
		if part.FileName() != "" {
			return part, nil
		}
		_ = part.Close()
	}
}

func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// limitedReader passes through at most remaining bytes and fails with
// uploads.ErrFileTooLarge once the source has more. A file of exactly the
// limit is accepted.
type limitedReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.exceeded {
		return 0, uploads.ErrFileTooLarge
	}
	// Ask for one byte past the limit to detect overflow.
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}

	n, err := l.r.Read(p)
	if int64(n) > l.remaining {
		n = int(l.remaining)
		l.remaining = 0
		l.exceeded = true
		return n, uploads.ErrFileTooLarge
	}
	l.remaining -= int64(n)

	if err != nil && isBodyTooLarge(err) {
		l.exceeded = true
		return n, uploads.ErrFileTooLarge
	}
	return n, err
}
