package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/atvirokodosprendimai/actionlog/internal/core/callctx"
	"github.com/atvirokodosprendimai/actionlog/internal/core/domain"
)

func newTestRecorder(store *memEventStore, dir *memDirectory, bus *captureBus) *Recorder {
	logger := testLogger()
	describer := NewDescriber(dir, dir, dir, logger)
	if bus == nil {
		return NewRecorder(store, dir, dir, describer, nil, "actionlog", logger)
	}
	return NewRecorder(store, dir, dir, describer, bus, "actionlog", logger)
}

func TestRecordCompletedPersistsEntry(t *testing.T) {
	store := &memEventStore{}
	dir := seededDirectory()
	bus := &captureBus{}
	rec := newTestRecorder(store, dir, bus)

	id, err := rec.RecordCompleted(context.Background(), 1, 1, 0, "VM.START", "starting vm")
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}

	event, err := store.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if event.State != domain.StateCompleted {
		t.Fatalf("expected Completed, got %s", event.State)
	}
	if event.StartID != 0 {
		t.Fatalf("expected zero start id, got %d", event.StartID)
	}
	if event.DomainID != 1 {
		t.Fatalf("expected domain id derived from account, got %d", event.DomainID)
	}
	if event.UUID == "" {
		t.Fatal("expected store-assigned uuid")
	}
}

func TestRecordCompletedRejectsInvalidInput(t *testing.T) {
	store := &memEventStore{}
	rec := newTestRecorder(store, seededDirectory(), nil)

	if _, err := rec.RecordCompleted(context.Background(), 1, 1, 1, "", "no type"); !errors.Is(err, domain.ErrInvalidEventType) {
		t.Fatalf("expected invalid event type, got %v", err)
	}
	if len(store.events) != 0 {
		t.Fatal("invalid event must not be persisted")
	}
}

func TestRecordCompletedUnresolvableAccountFails(t *testing.T) {
	rec := newTestRecorder(&memEventStore{}, seededDirectory(), nil)

	_, err := rec.RecordCompleted(context.Background(), 1, 99, 0, "VM.START", "starting vm")
	if !errors.Is(err, domain.ErrDomainUnresolved) {
		t.Fatalf("expected domain unresolved, got %v", err)
	}
}

func TestAsyncLifecycleChain(t *testing.T) {
	store := &memEventStore{}
	dir := seededDirectory()
	rec := newTestRecorder(store, dir, &captureBus{})
	ctx := callctx.With(context.Background(), callctx.New(1, 1))

	scheduledID, err := rec.RecordScheduled(ctx, 1, 1, "VM.START", "starting vm", 0)
	if err != nil {
		t.Fatalf("scheduled failed: %v", err)
	}
	startedID, err := rec.RecordStarted(ctx, 1, 1, "VM.START", "starting vm", scheduledID)
	if err != nil {
		t.Fatalf("started failed: %v", err)
	}
	completedID, err := rec.RecordCompletedAsync(ctx, 1, 1, "INFO", "VM.START", "starting vm", scheduledID)
	if err != nil {
		t.Fatalf("completed failed: %v", err)
	}

	if scheduledID >= startedID || startedID >= completedID {
		t.Fatalf("expected ascending ids, got %d %d %d", scheduledID, startedID, completedID)
	}

	started, _ := store.FindByID(ctx, startedID)
	completed, _ := store.FindByID(ctx, completedID)
	if started.StartID != scheduledID || completed.StartID != scheduledID {
		t.Fatalf("phases must reference the scheduled entry: %d %d", started.StartID, completed.StartID)
	}
	if started.State != domain.StateStarted || completed.State != domain.StateCompleted {
		t.Fatalf("unexpected states: %s %s", started.State, completed.State)
	}
	if completed.Level != "INFO" {
		t.Fatalf("unexpected level: %q", completed.Level)
	}
}

func TestRecordCompletedAsyncEnrichesQualifyingTypes(t *testing.T) {
	store := &memEventStore{}
	dir := seededDirectory()
	rec := newTestRecorder(store, dir, &captureBus{})

	cc := callctx.New(1, 1)
	cc.PutParameter(callctx.Key(domain.KindAccount), "acct-admin")
	ctx := callctx.With(context.Background(), cc)

	id, err := rec.RecordCompletedAsync(ctx, 1, 1, "INFO", domain.EventAccountCreate, "creating account admin", 0)
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}

	event, _ := store.FindByID(ctx, id)
	want := "creating account admin, Domain Path:/"
	if event.Description != want {
		t.Fatalf("expected %q, got %q", want, event.Description)
	}
}

func TestRecordCompletedAsyncNeverEnrichesForeignTypes(t *testing.T) {
	store := &memEventStore{}
	rec := newTestRecorder(store, seededDirectory(), &captureBus{})

	cc := callctx.New(1, 1)
	cc.PutParameter(callctx.Key(domain.KindAccount), "acct-admin")
	ctx := callctx.With(context.Background(), cc)

	id, err := rec.RecordCompletedAsync(ctx, 1, 1, "INFO", "VM.START", "starting vm", 0)
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}

	event, _ := store.FindByID(ctx, id)
	if event.Description != "starting vm" {
		t.Fatalf("description must stay unchanged, got %q", event.Description)
	}
}

func TestRecordCompletedAsyncSkipsEnrichmentWithoutMarker(t *testing.T) {
	store := &memEventStore{}
	rec := newTestRecorder(store, seededDirectory(), &captureBus{})
	ctx := callctx.With(context.Background(), callctx.New(1, 1))

	id, err := rec.RecordCompletedAsync(ctx, 1, 1, "INFO", domain.EventAccountCreate, "creating account admin", 0)
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}

	event, _ := store.FindByID(ctx, id)
	if event.Description != "creating account admin" {
		t.Fatalf("description must stay unchanged, got %q", event.Description)
	}
}

func TestPublishedBusEventCarriesWireContract(t *testing.T) {
	store := &memEventStore{}
	dir := seededDirectory()
	bus := &captureBus{}
	rec := newTestRecorder(store, dir, bus)

	cc := callctx.New(1, 1)
	cc.PutParameter(callctx.Key(domain.KindAccount), "acct-admin")
	ctx := callctx.With(context.Background(), cc)

	if _, err := rec.RecordCompletedAsync(ctx, 1, 1, "INFO", domain.EventAccountCreate, "creating account admin", 0); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	events := bus.published()
	if len(events) != 1 {
		t.Fatalf("expected one bus event, got %d", len(events))
	}
	got := events[0]
	if got.Source != "actionlog" || got.Category != domain.CategoryActionEvent || got.Type != domain.EventAccountCreate {
		t.Fatalf("unexpected envelope: %+v", got)
	}
	if got.EntityType != string(domain.KindAccount) || got.EntityUUID != "acct-admin" {
		t.Fatalf("unexpected entity linkage: %q %q", got.EntityType, got.EntityUUID)
	}

	for _, key := range []string{"user", "account", "event", "status", "entity", "entityuuid", "description", "oldentityname", "eventDateTime"} {
		if _, ok := got.Description[key]; !ok {
			t.Fatalf("missing description key %q", key)
		}
	}
	if got.Description["user"] != "user-admin" || got.Description["account"] != "acct-admin" {
		t.Fatalf("identity must be uuids: %q %q", got.Description["user"], got.Description["account"])
	}
	if got.Description["status"] != string(domain.StateCompleted) {
		t.Fatalf("unexpected status: %q", got.Description["status"])
	}
	if got.Description["description"] != "creating account admin, Domain Path:/" {
		t.Fatalf("bus event must carry the enriched description, got %q", got.Description["description"])
	}
}

func TestNilBusStillPersists(t *testing.T) {
	store := &memEventStore{}
	rec := newTestRecorder(store, seededDirectory(), nil)

	id, err := rec.RecordCompleted(context.Background(), 1, 1, 1, "VM.START", "starting vm")
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected persisted id")
	}
}

func TestFailingBusStillReturnsID(t *testing.T) {
	store := &memEventStore{}
	bus := &captureBus{err: errors.New("broker down")}
	rec := newTestRecorder(store, seededDirectory(), bus)
	ctx := callctx.With(context.Background(), callctx.New(1, 1))

	id, err := rec.RecordCompleted(ctx, 1, 1, 1, "VM.START", "starting vm")
	if err != nil {
		t.Fatalf("publish failure must not fail the record: %v", err)
	}
	if _, err := store.FindByID(ctx, id); err != nil {
		t.Fatalf("entry must be persisted: %v", err)
	}
}

func TestPublishSkippedForDeletedIdentity(t *testing.T) {
	store := &memEventStore{}
	dir := seededDirectory()
	bus := &captureBus{}
	rec := newTestRecorder(store, dir, bus)
	ctx := callctx.With(context.Background(), callctx.New(1, 1))

	if _, err := dir.RemoveUser(ctx, 1); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	id, err := rec.RecordCompleted(ctx, 1, 1, 1, "VM.START", "starting vm")
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected persisted id")
	}
	if len(bus.published()) != 0 {
		t.Fatal("publication must be abandoned when the user is removed")
	}
}

func TestGenericEntityFallback(t *testing.T) {
	store := &memEventStore{}
	bus := &captureBus{}
	rec := newTestRecorder(store, seededDirectory(), bus)

	cc := callctx.New(1, 1)
	cc.PutParameter(callctx.ParamEntityType, "VirtualMachine")
	cc.PutParameter(callctx.ParamEntityUUID, "vm-42")
	ctx := callctx.With(context.Background(), cc)

	if _, err := rec.RecordCompleted(ctx, 1, 1, 1, "VM.START", "starting vm"); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	events := bus.published()
	if len(events) != 1 {
		t.Fatalf("expected one bus event, got %d", len(events))
	}
	if events[0].EntityType != "VirtualMachine" || events[0].EntityUUID != "vm-42" {
		t.Fatalf("expected generic entity pair, got %q %q", events[0].EntityType, events[0].EntityUUID)
	}
}

func TestStartNestedUsesContextIdentity(t *testing.T) {
	store := &memEventStore{}
	rec := newTestRecorder(store, seededDirectory(), nil)

	cc := callctx.New(1, 1)
	cc.SetStartEventID(7)
	ctx := callctx.With(context.Background(), cc)

	id, err := rec.StartNested(ctx, "VM.START", "starting vm")
	if err != nil {
		t.Fatalf("start nested failed: %v", err)
	}

	event, _ := store.FindByID(ctx, id)
	if event.State != domain.StateStarted || event.StartID != 7 {
		t.Fatalf("unexpected entry: %+v", event)
	}
	gotType, gotDesc := cc.ActionEventInfo()
	if gotType != "VM.START" || gotDesc != "starting vm" {
		t.Fatalf("context not stamped: %q %q", gotType, gotDesc)
	}
}

func TestStartNestedEmptyTypeOnlyStamps(t *testing.T) {
	store := &memEventStore{}
	rec := newTestRecorder(store, seededDirectory(), nil)
	ctx := callctx.With(context.Background(), callctx.New(1, 1))

	id, err := rec.StartNested(ctx, "", "just stamping")
	if err != nil {
		t.Fatalf("start nested failed: %v", err)
	}
	if id != 0 || len(store.events) != 0 {
		t.Fatal("empty type must not record")
	}
}

func TestStartNestedWithoutContextFails(t *testing.T) {
	rec := newTestRecorder(&memEventStore{}, seededDirectory(), nil)

	if _, err := rec.StartNested(context.Background(), "VM.START", "starting vm"); !errors.Is(err, callctx.ErrNoActiveContext) {
		t.Fatalf("expected missing context error, got %v", err)
	}
}

func TestConcurrentRecordersStayIsolated(t *testing.T) {
	store := &memEventStore{}
	dir := seededDirectory()
	for i := int64(2); i <= 9; i++ {
		dir.accounts[i] = domain.Account{ID: i, UUID: fmt.Sprintf("acct-%d", i), Name: fmt.Sprintf("acct%d", i), DomainID: 1}
		dir.users[i] = domain.User{ID: i, UUID: fmt.Sprintf("user-%d", i), Name: fmt.Sprintf("user%d", i), AccountID: i}
	}
	bus := &captureBus{}
	rec := newTestRecorder(store, dir, bus)

	var wg sync.WaitGroup
	for i := int64(1); i <= 9; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			cc := callctx.New(n, n)
			cc.PutParameter(callctx.ParamEntityType, "VirtualMachine")
			cc.PutParameter(callctx.ParamEntityUUID, fmt.Sprintf("vm-%d", n))
			ctx := callctx.With(context.Background(), cc)
			if _, err := rec.RecordCompleted(ctx, n, n, 0, "VM.START", "starting vm"); err != nil {
				t.Errorf("record %d failed: %v", n, err)
			}
		}(i)
	}
	wg.Wait()

	events := bus.published()
	if len(events) != 9 {
		t.Fatalf("expected 9 bus events, got %d", len(events))
	}
	for _, e := range events {
		wantUser := "user-" + e.EntityUUID[len("vm-"):]
		if e.Description["user"] != wantUser {
			t.Fatalf("cross-contaminated event: user %q entity %q", e.Description["user"], e.EntityUUID)
		}
	}
}
