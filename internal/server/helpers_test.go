package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"upload-server/internal/storage"
	"upload-server/internal/uploads"
)

// memStore is an object store that keeps the last object in memory.
type memStore struct {
	n    int
	data []byte
	err  error
}

func (m *memStore) Put(_ context.Context, folder, fileName, _ string, r io.Reader) (storage.Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return storage.Object{}, fmt.Errorf("read part: %w", err)
	}
	if m.err != nil {
		return storage.Object{}, m.err
	}
	m.n++
	m.data = data
	key := fmt.Sprintf("%s/%d-%s", folder, m.n, storage.SanitizeFilename(fileName))
	return storage.Object{Key: key, URL: "https://cdn.example.com/" + key}, nil
}

func (m *memStore) Delete(context.Context, string) error {
	m.data = nil
	return nil
}

// newTestServer wires the real upload service to in-memory dependencies.
func newTestServer(t *testing.T, store *memStore) (*Server, *uploads.MemoryRepository) {
	t.Helper()
	repo, err := uploads.NewMemoryRepository()
	if err != nil {
		t.Fatalf("NewMemoryRepository: %v", err)
	}
	srv := New(Config{
		Addr:         "127.0.0.1:0",
		MaxFileBytes: DefaultMaxFileBytes,
		Uploads:      uploads.NewService(store, repo, nil),
		Checks:       map[string]Pinger{"repository": repo},
	})
	return srv, repo
}

// multipartBody builds a form with one file part.
func multipartBody(t *testing.T, field, fileName, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, fileName))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(h)
	if err != nil {
		t.Fatalf("Failed to create part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Failed to write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}
