package session

import (
	"context"

	"github.com/mohammad-safakhou/newsrag/models"
)

// Store holds per-session conversation history. An unknown id behaves as an
// empty session; it is never an error.
type Store interface {
	Get(ctx context.Context, id string) ([]models.Turn, error)
	Append(ctx context.Context, id string, turns ...models.Turn) error
	Evict(ctx context.Context, id string) error
}
