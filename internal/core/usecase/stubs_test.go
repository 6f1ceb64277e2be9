package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/atvirokodosprendimai/actionlog/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memEventStore is an append-only in-memory event store. Listings come back
// newest-first, matching the persistence adapter's ordering.
type memEventStore struct {
	mu         sync.Mutex
	nextID     int64
	events     []domain.ActionEvent
	persistErr error
}

func (s *memEventStore) Persist(_ context.Context, event domain.ActionEvent) (domain.ActionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.persistErr != nil {
		return domain.ActionEvent{}, s.persistErr
	}
	s.nextID++
	event.ID = s.nextID
	event.UUID = fmt.Sprintf("event-%d", event.ID)
	event.CreatedAt = time.Now().UTC()
	s.events = append(s.events, event)
	return event, nil
}

func (s *memEventStore) FindByID(_ context.Context, id int64) (domain.ActionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.ActionEvent{}, domain.ErrNotFound
}

func (s *memEventStore) List(_ context.Context, filter domain.EventFilter) ([]domain.ActionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ActionEvent
	for i := len(s.events) - 1; i >= 0; i-- {
		e := s.events[i]
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		if filter.State != "" && e.State != filter.State {
			continue
		}
		if filter.AccountID != 0 && e.AccountID != filter.AccountID {
			continue
		}
		if filter.DomainID != 0 && e.DomainID != filter.DomainID {
			continue
		}
		if filter.StartID != 0 && e.StartID != filter.StartID {
			continue
		}
		if filter.AfterID != 0 && e.ID >= filter.AfterID {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// memDirectory keeps domains, accounts and users in maps with soft deletes,
// standing in for the sqlite-backed store.
type memDirectory struct {
	mu       sync.Mutex
	nextID   int64
	domains  map[int64]domain.Domain
	accounts map[int64]domain.Account
	users    map[int64]domain.User
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		domains:  make(map[int64]domain.Domain),
		accounts: make(map[int64]domain.Account),
		users:    make(map[int64]domain.User),
	}
}

// seededDirectory returns a directory holding the root domain (id 1, path
// "/"), the admin account (id 1) under it and the admin user (id 1) under
// that account.
func seededDirectory() *memDirectory {
	dir := newMemDirectory()
	dir.domains[1] = domain.Domain{ID: 1, UUID: "dom-root", Name: "ROOT", Path: "/"}
	dir.accounts[1] = domain.Account{ID: 1, UUID: "acct-admin", Name: "admin", DomainID: 1}
	dir.users[1] = domain.User{ID: 1, UUID: "user-admin", Name: "admin", AccountID: 1}
	dir.nextID = 1
	return dir
}

func (d *memDirectory) id() int64 {
	d.nextID++
	return d.nextID
}

func (d *memDirectory) FindDomainByID(_ context.Context, id int64) (domain.Domain, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dom, ok := d.domains[id]
	if !ok || dom.Removed != nil {
		return domain.Domain{}, domain.ErrNotFound
	}
	return dom, nil
}

func (d *memDirectory) FindDomainByIDIncludingRemoved(_ context.Context, id int64) (domain.Domain, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dom, ok := d.domains[id]
	if !ok {
		return domain.Domain{}, domain.ErrNotFound
	}
	return dom, nil
}

func (d *memDirectory) FindDomainByUUIDIncludingRemoved(_ context.Context, uuid string) (domain.Domain, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, dom := range d.domains {
		if dom.UUID == uuid {
			return dom, nil
		}
	}
	return domain.Domain{}, domain.ErrNotFound
}

func (d *memDirectory) FindAccountByID(_ context.Context, id int64) (domain.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	acct, ok := d.accounts[id]
	if !ok || acct.Removed != nil {
		return domain.Account{}, domain.ErrNotFound
	}
	return acct, nil
}

func (d *memDirectory) FindAccountByIDIncludingRemoved(_ context.Context, id int64) (domain.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	acct, ok := d.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return acct, nil
}

func (d *memDirectory) FindAccountByUUIDIncludingRemoved(_ context.Context, uuid string) (domain.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, acct := range d.accounts {
		if acct.UUID == uuid {
			return acct, nil
		}
	}
	return domain.Account{}, domain.ErrNotFound
}

func (d *memDirectory) FindUserByID(_ context.Context, id int64) (domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	user, ok := d.users[id]
	if !ok || user.Removed != nil {
		return domain.User{}, domain.ErrNotFound
	}
	return user, nil
}

func (d *memDirectory) FindUserByIDIncludingRemoved(_ context.Context, id int64) (domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	user, ok := d.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return user, nil
}

func (d *memDirectory) FindUserByUUIDIncludingRemoved(_ context.Context, uuid string) (domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, user := range d.users {
		if user.UUID == uuid {
			return user, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (d *memDirectory) CreateDomain(_ context.Context, dom domain.Domain) (domain.Domain, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dom.ID = d.id()
	dom.UUID = fmt.Sprintf("dom-%d", dom.ID)
	dom.CreatedAt = time.Now().UTC()
	d.domains[dom.ID] = dom
	return dom, nil
}

func (d *memDirectory) RenameDomain(_ context.Context, id int64, name string) (domain.Domain, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dom, ok := d.domains[id]
	if !ok || dom.Removed != nil {
		return domain.Domain{}, domain.ErrNotFound
	}
	dom.Name = name
	d.domains[id] = dom
	return dom, nil
}

func (d *memDirectory) RemoveDomain(_ context.Context, id int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dom, ok := d.domains[id]
	if !ok || dom.Removed != nil {
		return false, nil
	}
	now := time.Now().UTC()
	dom.Removed = &now
	d.domains[id] = dom
	return true, nil
}

func (d *memDirectory) CreateAccount(_ context.Context, acct domain.Account) (domain.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	acct.ID = d.id()
	acct.UUID = fmt.Sprintf("acct-%d", acct.ID)
	acct.CreatedAt = time.Now().UTC()
	d.accounts[acct.ID] = acct
	return acct, nil
}

func (d *memDirectory) RenameAccount(_ context.Context, id int64, name string) (domain.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	acct, ok := d.accounts[id]
	if !ok || acct.Removed != nil {
		return domain.Account{}, domain.ErrNotFound
	}
	acct.Name = name
	d.accounts[id] = acct
	return acct, nil
}

func (d *memDirectory) RemoveAccount(_ context.Context, id int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	acct, ok := d.accounts[id]
	if !ok || acct.Removed != nil {
		return false, nil
	}
	now := time.Now().UTC()
	acct.Removed = &now
	d.accounts[id] = acct
	return true, nil
}

func (d *memDirectory) CreateUser(_ context.Context, user domain.User) (domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	user.ID = d.id()
	user.UUID = fmt.Sprintf("user-%d", user.ID)
	user.CreatedAt = time.Now().UTC()
	d.users[user.ID] = user
	return user, nil
}

func (d *memDirectory) RenameUser(_ context.Context, id int64, name string) (domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	user, ok := d.users[id]
	if !ok || user.Removed != nil {
		return domain.User{}, domain.ErrNotFound
	}
	user.Name = name
	d.users[id] = user
	return user, nil
}

func (d *memDirectory) RemoveUser(_ context.Context, id int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	user, ok := d.users[id]
	if !ok || user.Removed != nil {
		return false, nil
	}
	now := time.Now().UTC()
	user.Removed = &now
	d.users[id] = user
	return true, nil
}

// captureBus records published events; a non-nil err makes every publish
// fail.
type captureBus struct {
	mu     sync.Mutex
	events []domain.BusEvent
	err    error
}

func (b *captureBus) Publish(_ context.Context, event domain.BusEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.events = append(b.events, event)
	return nil
}

func (b *captureBus) published() []domain.BusEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.BusEvent, len(b.events))
	copy(out, b.events)
	return out
}
