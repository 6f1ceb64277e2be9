// Package callctx carries the identity and keyed parameters of one logical
// operation through its call chain. The context value is created when an
// operation begins (request accepted, job picked up) and travels in the
// operation's context.Context rather than a shared global, so concurrent
// operations cannot contaminate each other's correlation ids or parameters.
package callctx

import (
	"context"
	"errors"
	"sync"

	"github.com/atvirokodosprendimai/actionlog/internal/core/domain"
)

var ErrNoActiveContext = errors.New("no active call context")

// Well-known parameter keys. Kind-specific markers (see Key) take precedence
// over the generic pair when building bus events.
const (
	ParamEntityType = "entity_type"
	ParamEntityUUID = "entity_uuid"
)

// Key returns the context parameter key under which callers stash the uuid
// of the entity an operation concerns, per entity kind.
func Key(kind domain.EntityKind) string {
	return "entity_uuid." + string(kind)
}

type ctxKey struct{}

// CallContext is the per-operation carrier. It is mutated by nested calls
// during the operation (parameters pushed, pending action stamped), so all
// accessors lock. It must not be shared across logical operations.
type CallContext struct {
	mu sync.Mutex

	userID       int64
	accountID    int64
	startEventID int64

	eventType        string
	eventDescription string

	params map[string]string
}

func New(userID, accountID int64) *CallContext {
	return &CallContext{
		userID:    userID,
		accountID: accountID,
		params:    make(map[string]string),
	}
}

// With attaches cc to ctx. Exactly one live CallContext per operation.
func With(ctx context.Context, cc *CallContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, cc)
}

// Current returns the call context of the running operation. Callers that
// may run outside a request (background jobs) must establish their own
// context first or they get ErrNoActiveContext.
func Current(ctx context.Context) (*CallContext, error) {
	cc, ok := ctx.Value(ctxKey{}).(*CallContext)
	if !ok || cc == nil {
		return nil, ErrNoActiveContext
	}
	return cc, nil
}

func (c *CallContext) UserID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *CallContext) AccountID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accountID
}

func (c *CallContext) StartEventID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startEventID
}

// SetStartEventID links the operation to the audit entry that began it, so
// later phases recorded from this context reference the same chain.
func (c *CallContext) SetStartEventID(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startEventID = id
}

// SetActionEventInfo stamps the pending action's type and description for
// the duration of the operation, for nested recorder calls that do not
// receive them as arguments.
func (c *CallContext) SetActionEventInfo(eventType, description string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eventType = eventType
	c.eventDescription = description
}

func (c *CallContext) ActionEventInfo() (eventType, description string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eventType, c.eventDescription
}

// PutParameter associates a string value with an opaque key for the rest of
// the operation. Pushing an entity uuid under Key(kind) marks that entity as
// the one this operation acts upon; pushing a value under the uuid itself
// records the entity's pre-mutation display name for update enrichment.
func (c *CallContext) PutParameter(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params[key] = value
}

// Parameters returns a snapshot of all pushed parameters, for handing an
// operation's entity linkage over to a derived context.
func (c *CallContext) Parameters() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.params))
	for k, v := range c.params {
		out[k] = v
	}
	return out
}

func (c *CallContext) Parameter(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.params[key]
	return v, ok
}
