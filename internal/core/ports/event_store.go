package ports

import (
	"context"

	"github.com/atvirokodosprendimai/actionlog/internal/core/domain"
)

// EventStore is the append-only persistence of audit entries. Persist
// assigns the id (and uuid) if absent and returns the stored form; a storage
// failure is fatal to the record call and propagates unretried.
type EventStore interface {
	Persist(ctx context.Context, event domain.ActionEvent) (domain.ActionEvent, error)
	FindByID(ctx context.Context, id int64) (domain.ActionEvent, error)
	List(ctx context.Context, filter domain.EventFilter) ([]domain.ActionEvent, error)
}
