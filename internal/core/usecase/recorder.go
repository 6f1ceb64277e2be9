package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atvirokodosprendimai/actionlog/internal/core/callctx"
	"github.com/atvirokodosprendimai/actionlog/internal/core/domain"
	"github.com/atvirokodosprendimai/actionlog/internal/core/ports"
)

// Recorder turns action outcomes into durable audit entries and best-effort
// bus events. Persistence happens first; publication is attempted only after
// the entry is stored and can never affect the returned id or error. A nil
// bus disables publication entirely.
type Recorder struct {
	store     ports.EventStore
	accounts  ports.AccountDirectory
	users     ports.UserDirectory
	describer *Describer
	bus       ports.EventBus
	source    string
	logger    *slog.Logger
}

func NewRecorder(store ports.EventStore, accounts ports.AccountDirectory, users ports.UserDirectory, describer *Describer, bus ports.EventBus, source string, logger *slog.Logger) *Recorder {
	if source == "" {
		source = "actionlog"
	}
	return &Recorder{
		store:     store,
		accounts:  accounts,
		users:     users,
		describer: describer,
		bus:       bus,
		source:    source,
		logger:    logger,
	}
}

// RecordCompleted persists a standalone Completed entry. A zero domainID is
// derived from the acting account's domain.
func (r *Recorder) RecordCompleted(ctx context.Context, userID, accountID, domainID int64, eventType, description string) (int64, error) {
	event, err := r.persist(ctx, userID, accountID, domainID, "", eventType, domain.StateCompleted, description, 0)
	if err != nil {
		return 0, err
	}
	r.publish(ctx, userID, accountID, eventType, domain.StateCompleted, description)
	return event.ID, nil
}

// RecordScheduled persists the entry that begins an asynchronous operation.
func (r *Recorder) RecordScheduled(ctx context.Context, userID, accountID int64, eventType, description string, startEventID int64) (int64, error) {
	event, err := r.persist(ctx, userID, accountID, 0, "", eventType, domain.StateScheduled, description, startEventID)
	if err != nil {
		return 0, err
	}
	r.publish(ctx, userID, accountID, eventType, domain.StateScheduled, description)
	return event.ID, nil
}

// RecordStarted persists the entry marking the start of execution of an
// asynchronous operation.
func (r *Recorder) RecordStarted(ctx context.Context, userID, accountID int64, eventType, description string, startEventID int64) (int64, error) {
	event, err := r.persist(ctx, userID, accountID, 0, "", eventType, domain.StateStarted, description, startEventID)
	if err != nil {
		return 0, err
	}
	r.publish(ctx, userID, accountID, eventType, domain.StateStarted, description)
	return event.ID, nil
}

// RecordCompletedAsync closes an asynchronous operation's chain. The
// description is enriched with resolved entity names before persisting and
// publishing; the synchronous RecordCompleted does not enrich.
func (r *Recorder) RecordCompletedAsync(ctx context.Context, userID, accountID int64, level, eventType, description string, startEventID int64) (int64, error) {
	description = r.describer.Enrich(ctx, eventType, description)

	event, err := r.persist(ctx, userID, accountID, 0, level, eventType, domain.StateCompleted, description, startEventID)
	if err != nil {
		return 0, err
	}
	r.publish(ctx, userID, accountID, eventType, domain.StateCompleted, description)
	return event.ID, nil
}

// RecordCreated persists a standalone Created entry.
func (r *Recorder) RecordCreated(ctx context.Context, userID, accountID int64, level, eventType, description string) (int64, error) {
	event, err := r.persist(ctx, userID, accountID, 0, level, eventType, domain.StateCreated, description, 0)
	if err != nil {
		return 0, err
	}
	r.publish(ctx, userID, accountID, eventType, domain.StateCreated, description)
	return event.ID, nil
}

// StartNested stamps the call context with the pending action and records it
// as Started using identity and correlation id drawn from the context. An
// empty event type stamps the context but records nothing.
func (r *Recorder) StartNested(ctx context.Context, eventType, description string) (int64, error) {
	cc, err := callctx.Current(ctx)
	if err != nil {
		return 0, err
	}
	cc.SetActionEventInfo(eventType, description)
	if eventType == "" {
		return 0, nil
	}
	return r.RecordStarted(ctx, cc.UserID(), cc.AccountID(), eventType, description, cc.StartEventID())
}

func (r *Recorder) persist(ctx context.Context, userID, accountID, domainID int64, level, eventType string, state domain.EventState, description string, startID int64) (domain.ActionEvent, error) {
	if domainID == 0 {
		acct, err := r.accounts.FindAccountByIDIncludingRemoved(ctx, accountID)
		if err != nil {
			return domain.ActionEvent{}, fmt.Errorf("resolve domain of account %d: %w", accountID, domain.ErrDomainUnresolved)
		}
		domainID = acct.DomainID
	}

	event := domain.ActionEvent{
		UserID:      userID,
		AccountID:   accountID,
		DomainID:    domainID,
		Type:        eventType,
		State:       state,
		Level:       level,
		Description: description,
		StartID:     startID,
	}
	if err := event.Validate(); err != nil {
		return domain.ActionEvent{}, err
	}

	stored, err := r.store.Persist(ctx, event)
	if err != nil {
		return domain.ActionEvent{}, fmt.Errorf("persist action event: %w", err)
	}
	return stored, nil
}

// publish broadcasts a bus-event view of the action. Every failure mode here
// is recovered locally: no bus configured or acting identity already deleted
// means the event is dropped, and a transport error is logged at warn level.
// Publication can never fail the audit write that preceded it.
func (r *Recorder) publish(ctx context.Context, userID, accountID int64, eventType string, state domain.EventState, description string) {
	if r.bus == nil {
		return
	}

	var entityType, entityUUID, oldEntityName string
	if cc, err := callctx.Current(ctx); err == nil {
		class := domain.Classify(eventType)
		if class.Kind != domain.KindOther {
			if uuid, ok := cc.Parameter(callctx.Key(class.Kind)); ok {
				entityType = string(class.Kind)
				entityUUID = uuid
				oldEntityName, _ = cc.Parameter(uuid)
			}
		} else {
			entityType, _ = cc.Parameter(callctx.ParamEntityType)
			entityUUID, _ = cc.Parameter(callctx.ParamEntityUUID)
		}
	}

	account, err := r.accounts.FindAccountByID(ctx, accountID)
	if err != nil {
		return
	}
	user, err := r.users.FindUserByID(ctx, userID)
	if err != nil {
		return
	}

	event := domain.NewBusEvent(r.source, eventType, state, user.UUID, account.UUID,
		entityType, entityUUID, description, oldEntityName, time.Now())

	if err := r.bus.Publish(ctx, event); err != nil {
		r.logger.Warn("failed to publish action event on the event bus",
			"event_type", eventType,
			"state", string(state),
			"error", err,
		)
	}
}
