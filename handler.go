package transact

import "context"

// ActionName identifies an action resolvable against a HandlerRegistry.
type ActionName string

// String returns the string representation of the ActionName.
func (n ActionName) String() string {
	return string(n)
}

// Payload is the opaque key-value payload attached to a step. It is passed
// verbatim to both the forward and compensating handlers and must survive a
// JSON round trip for persistence.
type Payload map[string]any

// Handler executes a forward or compensating action. The engine never
// inspects anything but the returned error: a nil return means success, a
// non-nil return during Commit triggers rollback of completed steps.
type Handler interface {
	Handle(ctx context.Context, action ActionName, data Payload) error
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, action ActionName, data Payload) error

// Handle implements the Handler interface for HandlerFunc.
func (f HandlerFunc) Handle(ctx context.Context, action ActionName, data Payload) error {
	return f(ctx, action, data)
}

// NoOpHandler returns a handler that succeeds without doing anything.
// Registering it is equivalent to leaving the action unregistered, but makes
// the intent explicit at the call site.
func NoOpHandler() Handler {
	return HandlerFunc(func(context.Context, ActionName, Payload) error {
		return nil
	})
}
