package handlers

import (
	"context"

	"github.com/aurora-planner/aurora/internal/store"
)

// DocumentStore is the document persistence used by the plan handlers.
type DocumentStore interface {
	Add(ctx context.Context, collection string, data any) (string, error)
	Get(ctx context.Context, collection, id string) (store.Snapshot, error)
	List(ctx context.Context, collection string, q store.Query) ([]store.Snapshot, error)
	Delete(ctx context.Context, collection, id string) error
}
