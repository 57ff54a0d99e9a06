package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// Storage keeps json snapshots of entities, addressed by kind and id
type Storage interface {
	Save(ctx context.Context, kind, id string, body []byte) error
	Load(ctx context.Context, kind, id string) ([]byte, error)
	Delete(ctx context.Context, kind, id string) error
	// List returns every snapshot of a kind, ordered by id
	List(ctx context.Context, kind string) ([][]byte, error)
	Close()
}
