package usecase

import (
	"context"
	"errors"

	"github.com/atvirokodosprendimai/actionlog/internal/core/callctx"
	"github.com/atvirokodosprendimai/actionlog/internal/core/domain"
	"github.com/atvirokodosprendimai/actionlog/internal/core/ports"
)

// DirectoryService manages domains, accounts and users and records an audit
// entry for every mutation. It is the in-process command layer: each method
// stashes the affected entity's uuid (and, on rename, the prior name) in the
// call context before asking the recorder to record the action, which is how
// enrichment and bus events learn what was acted upon.
//
// Every method requires an established call context; background callers must
// create their own before invoking the service.
type DirectoryService struct {
	store    ports.DirectoryStore
	recorder *Recorder
}

func NewDirectoryService(store ports.DirectoryStore, recorder *Recorder) *DirectoryService {
	return &DirectoryService{store: store, recorder: recorder}
}

func (s *DirectoryService) CreateDomain(ctx context.Context, name string, parentID int64) (domain.Domain, error) {
	if err := domain.ValidateName(name); err != nil {
		return domain.Domain{}, err
	}

	path := "/" + name + "/"
	if parentID != 0 {
		parent, err := s.store.FindDomainByID(ctx, parentID)
		if err != nil {
			return domain.Domain{}, err
		}
		path = parent.Path + name + "/"
	}

	created, err := s.store.CreateDomain(ctx, domain.Domain{Name: name, Path: path})
	if err != nil {
		return domain.Domain{}, err
	}

	if err := s.record(ctx, domain.KindDomain, created.UUID, "", domain.EventDomainCreate, "creating domain "+name); err != nil {
		return domain.Domain{}, err
	}
	return created, nil
}

func (s *DirectoryService) RenameDomain(ctx context.Context, id int64, name string) (domain.Domain, error) {
	if err := domain.ValidateName(name); err != nil {
		return domain.Domain{}, err
	}
	existing, err := s.store.FindDomainByID(ctx, id)
	if err != nil {
		return domain.Domain{}, err
	}

	updated, err := s.store.RenameDomain(ctx, id, name)
	if err != nil {
		return domain.Domain{}, err
	}

	if err := s.record(ctx, domain.KindDomain, existing.UUID, existing.Name, domain.EventDomainUpdate, "updating domain "+existing.Name); err != nil {
		return domain.Domain{}, err
	}
	return updated, nil
}

func (s *DirectoryService) RemoveDomain(ctx context.Context, id int64) (bool, error) {
	existing, err := s.store.FindDomainByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	removed, err := s.store.RemoveDomain(ctx, id)
	if err != nil || !removed {
		return removed, err
	}

	if err := s.record(ctx, domain.KindDomain, existing.UUID, "", domain.EventDomainDelete, "deleting domain "+existing.Name); err != nil {
		return true, err
	}
	return true, nil
}

func (s *DirectoryService) CreateAccount(ctx context.Context, name string, domainID int64) (domain.Account, error) {
	if err := domain.ValidateName(name); err != nil {
		return domain.Account{}, err
	}
	if _, err := s.store.FindDomainByID(ctx, domainID); err != nil {
		return domain.Account{}, err
	}

	created, err := s.store.CreateAccount(ctx, domain.Account{Name: name, DomainID: domainID})
	if err != nil {
		return domain.Account{}, err
	}

	if err := s.record(ctx, domain.KindAccount, created.UUID, "", domain.EventAccountCreate, "creating account "+name); err != nil {
		return domain.Account{}, err
	}
	return created, nil
}

func (s *DirectoryService) RenameAccount(ctx context.Context, id int64, name string) (domain.Account, error) {
	if err := domain.ValidateName(name); err != nil {
		return domain.Account{}, err
	}
	existing, err := s.store.FindAccountByID(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}

	updated, err := s.store.RenameAccount(ctx, id, name)
	if err != nil {
		return domain.Account{}, err
	}

	if err := s.record(ctx, domain.KindAccount, existing.UUID, existing.Name, domain.EventAccountUpdate, "updating account "+existing.Name); err != nil {
		return domain.Account{}, err
	}
	return updated, nil
}

func (s *DirectoryService) RemoveAccount(ctx context.Context, id int64) (bool, error) {
	existing, err := s.store.FindAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	removed, err := s.store.RemoveAccount(ctx, id)
	if err != nil || !removed {
		return removed, err
	}

	if err := s.record(ctx, domain.KindAccount, existing.UUID, "", domain.EventAccountDelete, "deleting account "+existing.Name); err != nil {
		return true, err
	}
	return true, nil
}

func (s *DirectoryService) CreateUser(ctx context.Context, name string, accountID int64) (domain.User, error) {
	if err := domain.ValidateName(name); err != nil {
		return domain.User{}, err
	}
	if _, err := s.store.FindAccountByID(ctx, accountID); err != nil {
		return domain.User{}, err
	}

	created, err := s.store.CreateUser(ctx, domain.User{Name: name, AccountID: accountID})
	if err != nil {
		return domain.User{}, err
	}

	if err := s.record(ctx, domain.KindUser, created.UUID, "", domain.EventUserCreate, "creating user "+name); err != nil {
		return domain.User{}, err
	}
	return created, nil
}

func (s *DirectoryService) RenameUser(ctx context.Context, id int64, name string) (domain.User, error) {
	if err := domain.ValidateName(name); err != nil {
		return domain.User{}, err
	}
	existing, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	updated, err := s.store.RenameUser(ctx, id, name)
	if err != nil {
		return domain.User{}, err
	}

	if err := s.record(ctx, domain.KindUser, existing.UUID, existing.Name, domain.EventUserUpdate, "updating user "+existing.Name); err != nil {
		return domain.User{}, err
	}
	return updated, nil
}

func (s *DirectoryService) RemoveUser(ctx context.Context, id int64) (bool, error) {
	existing, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	removed, err := s.store.RemoveUser(ctx, id)
	if err != nil || !removed {
		return removed, err
	}

	if err := s.record(ctx, domain.KindUser, existing.UUID, "", domain.EventUserDelete, "deleting user "+existing.Name); err != nil {
		return true, err
	}
	return true, nil
}

func (s *DirectoryService) GetDomain(ctx context.Context, id int64) (domain.Domain, error) {
	return s.store.FindDomainByID(ctx, id)
}

func (s *DirectoryService) GetAccount(ctx context.Context, id int64) (domain.Account, error) {
	return s.store.FindAccountByID(ctx, id)
}

func (s *DirectoryService) GetUser(ctx context.Context, id int64) (domain.User, error) {
	return s.store.FindUserByID(ctx, id)
}

// record stashes the entity linkage in the call context, then records the
// mutation as a completed (enriched) action event attributed to the calling
// identity. oldName is non-empty only for renames.
func (s *DirectoryService) record(ctx context.Context, kind domain.EntityKind, entityUUID, oldName, eventType, description string) error {
	cc, err := callctx.Current(ctx)
	if err != nil {
		return err
	}

	cc.PutParameter(callctx.Key(kind), entityUUID)
	if oldName != "" {
		cc.PutParameter(entityUUID, oldName)
	}

	_, err = s.recorder.RecordCompletedAsync(ctx, cc.UserID(), cc.AccountID(), "INFO", eventType, description, cc.StartEventID())
	return err
}
