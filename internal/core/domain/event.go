package domain

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidEventType  = errors.New("invalid event type")
	ErrInvalidEventState = errors.New("invalid event state")
	ErrDomainUnresolved  = errors.New("event domain unresolved")
)

// EventState labels the lifecycle phase of a persisted action event.
// Created is terminal and standalone; Scheduled, Started and Completed form
// a chain of independent entries correlated via StartID.
type EventState string

const (
	StateCreated   EventState = "Created"
	StateScheduled EventState = "Scheduled"
	StateStarted   EventState = "Started"
	StateCompleted EventState = "Completed"
)

func (s EventState) Valid() bool {
	switch s {
	case StateCreated, StateScheduled, StateStarted, StateCompleted:
		return true
	}
	return false
}

// ActionEvent is one immutable audit entry. ID and UUID are store-assigned;
// entries are never updated or deleted once persisted. Each lifecycle phase
// of an operation is a distinct entry, later phases pointing back at the
// entry that began the chain through StartID.
type ActionEvent struct {
	ID          int64
	UUID        string
	UserID      int64
	AccountID   int64
	DomainID    int64
	Type        string
	State       EventState
	Level       string
	Description string
	StartID     int64
	CreatedAt   time.Time
}

func (e ActionEvent) Validate() error {
	if e.Type == "" {
		return ErrInvalidEventType
	}
	if !e.State.Valid() {
		return ErrInvalidEventState
	}
	return nil
}

// EventFilter narrows event listings. AfterID is a descending-id cursor:
// only entries with id < AfterID are returned.
type EventFilter struct {
	Type      string
	State     EventState
	AccountID int64
	DomainID  int64
	StartID   int64
	AfterID   int64
	Limit     int
}
