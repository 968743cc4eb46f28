package uploads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository stores upload records.
type Repository interface {
	Insert(ctx context.Context, u Upload) error
	Get(ctx context.Context, id string) (Upload, error)
	Ping(ctx context.Context) error
}

// PostgresRepository keeps uploads in the "uploads" table.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, u Upload) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO uploads (id, name, remote_key, remote_url, content_type, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.Name, u.RemoteKey, u.RemoteURL, u.ContentType, u.SizeBytes, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Upload, error) {
	var u Upload
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, remote_key, remote_url, content_type, size_bytes, created_at
		FROM uploads
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Name, &u.RemoteKey, &u.RemoteURL, &u.ContentType, &u.SizeBytes, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Upload{}, ErrUploadNotFound
		}
		return Upload{}, fmt.Errorf("get upload: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
