package ports

import (
	"context"

	"github.com/atvirokodosprendimai/actionlog/internal/core/domain"
)

// Directory lookups consumed by enrichment and bus-event construction.
// FindByID excludes soft-removed rows; the IncludingRemoved variants still
// return them, because audit entries must stay meaningful after the
// referenced entity is deleted. Missing rows surface as domain.ErrNotFound,
// never as a nil entity.

type DomainDirectory interface {
	FindDomainByID(ctx context.Context, id int64) (domain.Domain, error)
	FindDomainByIDIncludingRemoved(ctx context.Context, id int64) (domain.Domain, error)
	FindDomainByUUIDIncludingRemoved(ctx context.Context, uuid string) (domain.Domain, error)
}

type AccountDirectory interface {
	FindAccountByID(ctx context.Context, id int64) (domain.Account, error)
	FindAccountByIDIncludingRemoved(ctx context.Context, id int64) (domain.Account, error)
	FindAccountByUUIDIncludingRemoved(ctx context.Context, uuid string) (domain.Account, error)
}

type UserDirectory interface {
	FindUserByID(ctx context.Context, id int64) (domain.User, error)
	FindUserByIDIncludingRemoved(ctx context.Context, id int64) (domain.User, error)
	FindUserByUUIDIncludingRemoved(ctx context.Context, uuid string) (domain.User, error)
}

// DirectoryStore adds the management mutations on top of the lookups.
// Deletes are soft so removed entities remain resolvable for audit.
type DirectoryStore interface {
	DomainDirectory
	AccountDirectory
	UserDirectory

	CreateDomain(ctx context.Context, d domain.Domain) (domain.Domain, error)
	RenameDomain(ctx context.Context, id int64, name string) (domain.Domain, error)
	RemoveDomain(ctx context.Context, id int64) (bool, error)

	CreateAccount(ctx context.Context, a domain.Account) (domain.Account, error)
	RenameAccount(ctx context.Context, id int64, name string) (domain.Account, error)
	RemoveAccount(ctx context.Context, id int64) (bool, error)

	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	RenameUser(ctx context.Context, id int64, name string) (domain.User, error)
	RemoveUser(ctx context.Context, id int64) (bool, error)
}
