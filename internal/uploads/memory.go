package uploads

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-memdb"
)

const uploadsTable = "uploads"

// MemoryRepository keeps uploads in an in-process go-memdb database. It is
// meant for local runs without PostgreSQL and for tests; nothing survives a
// restart.
type MemoryRepository struct {
	db *memdb.MemDB
}

func NewMemoryRepository() (*MemoryRepository, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			uploadsTable: {
				Name: uploadsTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					"remote_key": {
						Name:    "remote_key",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "RemoteKey"},
					},
				},
			},
		},
	}

	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("create memdb: %w", err)
	}
	return &MemoryRepository{db: db}, nil
}

func (r *MemoryRepository) Insert(_ context.Context, u Upload) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	for _, idx := range []struct{ name, val string }{{"id", u.ID}, {"remote_key", u.RemoteKey}} {
		existing, err := txn.First(uploadsTable, idx.name, idx.val)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateUpload
		}
	}

	rec := u
	if err := txn.Insert(uploadsTable, &rec); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (Upload, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(uploadsTable, "id", id)
	if err != nil {
		return Upload{}, err
	}
	if raw == nil {
		return Upload{}, ErrUploadNotFound
	}
	return *raw.(*Upload), nil
}

// Len returns the number of stored uploads.
func (r *MemoryRepository) Len() int {
	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(uploadsTable, "id")
	if err != nil {
		return 0
	}
	n := 0
	for obj := it.Next(); obj != nil; obj = it.Next() {
		n++
	}
	return n
}

func (r *MemoryRepository) Ping(context.Context) error { return nil }
