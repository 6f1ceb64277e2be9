package usecase

import (
	"context"
	"log/slog"

	"github.com/atvirokodosprendimai/actionlog/internal/core/callctx"
	"github.com/atvirokodosprendimai/actionlog/internal/core/domain"
	"github.com/atvirokodosprendimai/actionlog/internal/core/ports"
)

// Describer appends resolved entity names and paths to an action
// description. Enrichment is opt-in by type convention: only
// create/update/delete actions on directory entities qualify, and only when
// the call context carries the acting entity's uuid. Enrichment is best
// effort: any missing piece leaves the description unchanged.
type Describer struct {
	domains  ports.DomainDirectory
	accounts ports.AccountDirectory
	users    ports.UserDirectory
	logger   *slog.Logger
}

func NewDescriber(domains ports.DomainDirectory, accounts ports.AccountDirectory, users ports.UserDirectory, logger *slog.Logger) *Describer {
	return &Describer{domains: domains, accounts: accounts, users: users, logger: logger}
}

// Enrich returns description with kind-specific entity suffixes appended,
// or unchanged when the action does not qualify or a referenced entity
// cannot be resolved. An unresolved reference (entity deleted concurrently)
// is logged at warn level and skips enrichment rather than failing the
// surrounding action.
func (d *Describer) Enrich(ctx context.Context, eventType, description string) string {
	class := domain.Classify(eventType)
	if !class.Mutation() || class.Kind == domain.KindOther {
		return description
	}

	cc, err := callctx.Current(ctx)
	if err != nil {
		return description
	}
	entityUUID, ok := cc.Parameter(callctx.Key(class.Kind))
	if !ok {
		return description
	}

	enriched, newName, err := d.describe(ctx, class, entityUUID, description)
	if err != nil {
		d.logger.Warn("skipping description enrichment, referenced entity unresolved",
			"event_type", eventType,
			"entity_uuid", entityUUID,
			"error", err,
		)
		return description
	}

	if class.Phase == domain.PhaseUpdate {
		if oldName, ok := cc.Parameter(entityUUID); ok {
			enriched += ", Old Entity Name:" + oldName + ", New Entity Name:" + newName
		}
	}

	return enriched
}

func (d *Describer) describe(ctx context.Context, class domain.ActionClass, entityUUID, description string) (enriched, newName string, err error) {
	switch class.Kind {
	case domain.KindDomain:
		dom, err := d.domains.FindDomainByUUIDIncludingRemoved(ctx, entityUUID)
		if err != nil {
			return "", "", err
		}
		return description + ", Domain Path:" + dom.Path, dom.Name, nil

	case domain.KindAccount:
		acct, err := d.accounts.FindAccountByUUIDIncludingRemoved(ctx, entityUUID)
		if err != nil {
			return "", "", err
		}
		dom, err := d.domains.FindDomainByID(ctx, acct.DomainID)
		if err != nil {
			return "", "", err
		}
		if class.Phase == domain.PhaseCreate {
			description += ", Domain Path:" + dom.Path
		} else {
			description += ", Account Name:" + acct.Name + ", Domain Path:" + dom.Path
		}
		return description, acct.Name, nil

	case domain.KindUser:
		user, err := d.users.FindUserByUUIDIncludingRemoved(ctx, entityUUID)
		if err != nil {
			return "", "", err
		}
		acct, err := d.accounts.FindAccountByID(ctx, user.AccountID)
		if err != nil {
			return "", "", err
		}
		dom, err := d.domains.FindDomainByID(ctx, acct.DomainID)
		if err != nil {
			return "", "", err
		}
		if class.Phase == domain.PhaseCreate {
			description += ", Account Name:" + acct.Name + ", Domain Path:" + dom.Path
		} else {
			description += ", User Name:" + user.Name + ", Account Name:" + acct.Name + ", Domain Path:" + dom.Path
		}
		return description, user.Name, nil
	}

	return description, "", nil
}
