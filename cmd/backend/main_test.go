package main

import (
	"strings"
	"testing"

	"upload-server/internal/config"
	"upload-server/internal/logging"
	"upload-server/internal/uploads"
)

func TestGetenvDefault(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		def      string
		envValue string
		want     string
	}{
		{
			name:     "env var set",
			key:      "TEST_VAR_SET",
			def:      "default",
			envValue: "custom",
			want:     "custom",
		},
		{
			name:     "env var empty",
			key:      "TEST_VAR_EMPTY",
			def:      "default",
			envValue: "",
			want:     "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.envValue)

			got := getenvDefault(tt.key, tt.def)
			if got != tt.want {
				t.Errorf("getenvDefault(%q, %q) = %q, want %q", tt.key, tt.def, got, tt.want)
			}
		})
	}
}

func TestRedactDSN(t *testing.T) {
	got := redactDSN("postgres://app:s3cret@db:5432/uploads?sslmode=disable")
	if strings.Contains(got, "s3cret") {
		t.Errorf("password leaked: %q", got)
	}
	if !strings.Contains(got, "app:xxxxx@db:5432/uploads") {
		t.Errorf("redactDSN = %q", got)
	}

	if got := redactDSN("postgres://db/uploads"); got != "postgres://db/uploads" {
		t.Errorf("redactDSN without password = %q", got)
	}
	if got := redactDSN("://bad"); got != "<unparseable>" {
		t.Errorf("redactDSN(bad) = %q", got)
	}
}

func TestOpenRepository_Memory(t *testing.T) {
	cfg := &config.Config{Repository: config.RepositoryMemory}

	repo, closeRepo, err := openRepository(cfg, logging.Nop())
	if err != nil {
		t.Fatalf("openRepository: %v", err)
	}
	defer closeRepo()

	if _, ok := repo.(*uploads.MemoryRepository); !ok {
		t.Errorf("got %T, want *uploads.MemoryRepository", repo)
	}
	if err := repo.Ping(t.Context()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestOpenRepository_PostgresBadURL(t *testing.T) {
	cfg := &config.Config{Repository: config.RepositoryPostgres, DatabaseURL: ""}

	_, closeRepo, err := openRepository(cfg, logging.Nop())
	closeRepo()
	if err == nil {
		t.Fatal("expected error for empty DATABASE_URL")
	}
}
