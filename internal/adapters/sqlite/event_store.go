package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atvirokodosprendimai/actionlog/internal/adapters/sqlite/gormsqlite"
	"github.com/atvirokodosprendimai/actionlog/internal/core/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type actionEventModel struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UUID        string    `gorm:"column:uuid;not null"`
	UserID      int64     `gorm:"column:user_id;not null"`
	AccountID   int64     `gorm:"column:account_id;not null"`
	DomainID    int64     `gorm:"column:domain_id;not null"`
	Type        string    `gorm:"column:type;not null"`
	State       string    `gorm:"column:state;not null"`
	Level       string    `gorm:"column:level;not null"`
	Description string    `gorm:"column:description;not null"`
	StartID     int64     `gorm:"column:start_id;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
}

func (actionEventModel) TableName() string {
	return "events"
}

// EventStore is the append-only sqlite persistence for action events. Rows
// are never updated or deleted.
type EventStore struct {
	db *gormsqlite.DB
}

func NewEventStore(db *gormsqlite.DB) *EventStore {
	return &EventStore{db: db}
}

func (s *EventStore) Persist(ctx context.Context, event domain.ActionEvent) (domain.ActionEvent, error) {
	if err := event.Validate(); err != nil {
		return domain.ActionEvent{}, err
	}

	model := actionEventModel{
		UUID:        uuid.NewString(),
		UserID:      event.UserID,
		AccountID:   event.AccountID,
		DomainID:    event.DomainID,
		Type:        event.Type,
		State:       string(event.State),
		Level:       event.Level,
		Description: event.Description,
		StartID:     event.StartID,
		CreatedAt:   time.Now().UTC(),
	}

	err := s.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return domain.ActionEvent{}, fmt.Errorf("insert action event: %w", err)
	}

	return model.toDomain(), nil
}

func (s *EventStore) FindByID(ctx context.Context, id int64) (domain.ActionEvent, error) {
	var model actionEventModel
	err := s.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("id = ?", id).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ActionEvent{}, domain.ErrNotFound
		}
		return domain.ActionEvent{}, fmt.Errorf("find action event: %w", err)
	}
	return model.toDomain(), nil
}

// List returns matching entries newest-first. AfterID pages downward through
// ids.
func (s *EventStore) List(ctx context.Context, filter domain.EventFilter) ([]domain.ActionEvent, error) {
	var models []actionEventModel
	err := s.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		q := tx.Model(&actionEventModel{})
		if filter.Type != "" {
			q = q.Where("type = ?", filter.Type)
		}
		if filter.State != "" {
			q = q.Where("state = ?", string(filter.State))
		}
		if filter.AccountID != 0 {
			q = q.Where("account_id = ?", filter.AccountID)
		}
		if filter.DomainID != 0 {
			q = q.Where("domain_id = ?", filter.DomainID)
		}
		if filter.StartID != 0 {
			q = q.Where("start_id = ?", filter.StartID)
		}
		if filter.AfterID != 0 {
			q = q.Where("id < ?", filter.AfterID)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		return q.Order("id DESC").Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list action events: %w", err)
	}

	out := make([]domain.ActionEvent, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (m actionEventModel) toDomain() domain.ActionEvent {
	return domain.ActionEvent{
		ID:          m.ID,
		UUID:        m.UUID,
		UserID:      m.UserID,
		AccountID:   m.AccountID,
		DomainID:    m.DomainID,
		Type:        m.Type,
		State:       domain.EventState(m.State),
		Level:       m.Level,
		Description: m.Description,
		StartID:     m.StartID,
		CreatedAt:   m.CreatedAt,
	}
}
