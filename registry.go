package transact

import (
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
)

// HandlerRegistry is a lookup from action name to Handler, shared across
// every transaction a manager drives.
//
// The registry is built before the TransactionManager is constructed and is
// not meant to change afterward; callers wanting different handlers
// construct a new manager. Actions without a registered handler are legal:
// the engine treats them as successful no-ops, which is what makes dry-run
// managers (no handlers at all) work. The flip side is that a typoed action
// name is indistinguishable from an intentionally silent one, so register
// NoOpHandler explicitly where silence is deliberate.
type HandlerRegistry struct {
	handlers *xsync.MapOf[ActionName, Handler]
}

// NewHandlerRegistry creates a new, empty HandlerRegistry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		handlers: xsync.NewMapOf[ActionName, Handler](),
	}
}

// Register adds a handler to the registry under the given action name.
func (r *HandlerRegistry) Register(action ActionName, handler Handler) error {
	if _, ok := r.handlers.Load(action); ok {
		return fmt.Errorf("handler for action '%s' already registered", action)
	}
	r.handlers.Store(action, handler)
	return nil
}

// RegisterFunc is a convenience wrapper around Register for plain functions.
func (r *HandlerRegistry) RegisterFunc(action ActionName, fn HandlerFunc) error {
	return r.Register(action, fn)
}

// Get retrieves the handler for an action name. The second return value is
// false when no handler is registered, which callers must treat as a no-op
// rather than an error.
func (r *HandlerRegistry) Get(action ActionName) (Handler, bool) {
	return r.handlers.Load(action)
}

// Len returns the number of registered handlers.
func (r *HandlerRegistry) Len() int {
	return r.handlers.Size()
}
