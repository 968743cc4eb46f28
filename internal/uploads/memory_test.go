package uploads

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepository_InsertGet(t *testing.T) {
	repo, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("NewMemoryRepository: %v", err)
	}
	ctx := context.Background()

	u := Upload{
		ID:          "0b9f6a8e-9a53-4a55-8d3c-2f4f7c1f0e11",
		Name:        "photo.png",
		RemoteKey:   "images/0b9f-photo.png",
		RemoteURL:   "https://cdn.example.com/images/0b9f-photo.png",
		ContentType: "image/png",
		SizeBytes:   10240,
		CreatedAt:   time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
	}
	if err := repo.Insert(ctx, u); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := repo.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != u {
		t.Errorf("Get = %+v, want %+v", got, u)
	}
	if repo.Len() != 1 {
		t.Errorf("Len = %d, want 1", repo.Len())
	}
}

func TestMemoryRepository_Duplicates(t *testing.T) {
	repo, err := NewMemoryRepository()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	first := Upload{ID: "a", RemoteKey: "images/a.png"}
	if err := repo.Insert(ctx, first); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	tests := []struct {
		name string
		u    Upload
	}{
		{"same id", Upload{ID: "a", RemoteKey: "images/b.png"}},
		{"same key", Upload{ID: "b", RemoteKey: "images/a.png"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Insert(ctx, tt.u); !errors.Is(err, ErrDuplicateUpload) {
				t.Errorf("err = %v, want ErrDuplicateUpload", err)
			}
		})
	}
	if repo.Len() != 1 {
		t.Errorf("Len = %d, want 1", repo.Len())
	}
}

func TestMemoryRepository_NotFound(t *testing.T) {
	repo, err := NewMemoryRepository()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, ErrUploadNotFound) {
		t.Errorf("err = %v, want ErrUploadNotFound", err)
	}
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
