package usecase

import (
	"context"

	"github.com/atvirokodosprendimai/actionlog/internal/core/domain"
	"github.com/atvirokodosprendimai/actionlog/internal/core/ports"
)

// EventQueryService is the read surface over the audit trail.
type EventQueryService struct {
	store ports.EventStore
}

func NewEventQueryService(store ports.EventStore) *EventQueryService {
	return &EventQueryService{store: store}
}

func (s *EventQueryService) Get(ctx context.Context, id int64) (domain.ActionEvent, error) {
	return s.store.FindByID(ctx, id)
}

func (s *EventQueryService) List(ctx context.Context, filter domain.EventFilter) ([]domain.ActionEvent, error) {
	if filter.State != "" && !filter.State.Valid() {
		return nil, domain.ErrInvalidEventState
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}
	return s.store.List(ctx, filter)
}

// Timeline reconstructs the full lifecycle of the operation the given entry
// belongs to: the entry that began the chain followed by every phase that
// references it, in ascending id order. A standalone entry yields a
// single-element timeline.
func (s *EventQueryService) Timeline(ctx context.Context, id int64) ([]domain.ActionEvent, error) {
	event, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rootID := event.ID
	if event.StartID != 0 {
		rootID = event.StartID
	}

	root, err := s.store.FindByID(ctx, rootID)
	if err != nil {
		// Chain root was recorded outside this store (external start id);
		// fall back to the entry itself as the anchor.
		root = event
		rootID = event.ID
	}

	phases, err := s.store.List(ctx, domain.EventFilter{StartID: rootID, Limit: 1000})
	if err != nil {
		return nil, err
	}

	timeline := make([]domain.ActionEvent, 0, len(phases)+1)
	timeline = append(timeline, root)
	// Store listings come back newest-first; the timeline reads oldest-first.
	for i := len(phases) - 1; i >= 0; i-- {
		if phases[i].ID == rootID {
			continue
		}
		timeline = append(timeline, phases[i])
	}
	return timeline, nil
}
