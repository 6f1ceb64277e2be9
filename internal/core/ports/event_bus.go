package ports

import (
	"context"

	"github.com/atvirokodosprendimai/actionlog/internal/core/domain"
)

// EventBus broadcasts action events to an external subscriber system. The
// bus is optional: a nil EventBus means the feature is disabled and every
// publish attempt is a silent no-op. Publish errors are logged by the caller
// and never propagate into the primary action.
type EventBus interface {
	Publish(ctx context.Context, event domain.BusEvent) error
}
