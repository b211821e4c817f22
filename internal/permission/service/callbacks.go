package service

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/allisson/walletguard/internal/errors"
	"github.com/allisson/walletguard/permissions"
)

// ErrUnknownEvent indicates a bind or unbind referenced an event name that
// does not exist.
var ErrUnknownEvent = errors.New("unknown event name")

// Callbacks is the registry of handlers a consent UI binds to permission
// request events. Handlers run sequentially in bind order; a handler error
// or panic is logged at debug level and never affects the pending request or
// the remaining handlers. Safe for concurrent use.
type Callbacks struct {
	mu      sync.Mutex
	nextID  int
	logger  *slog.Logger
	request map[string]map[int]permissions.RequestHandler
	grouped map[int]permissions.GroupedRequestHandler
}

// NewCallbacks returns an empty registry logging handler failures to logger.
func NewCallbacks(logger *slog.Logger) *Callbacks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Callbacks{
		logger:  logger,
		request: make(map[string]map[int]permissions.RequestHandler),
		grouped: make(map[int]permissions.GroupedRequestHandler),
	}
}

// Bind registers a handler for one of the single-permission request events
// and returns a handle for Unbind.
func (c *Callbacks) Bind(event string, handler permissions.RequestHandler) (int, error) {
	switch event {
	case permissions.EventProtocolPermissionRequested,
		permissions.EventBasketAccessRequested,
		permissions.EventCertificateAccessRequested,
		permissions.EventSpendingAuthorizationRequested:
	default:
		return 0, errors.Wrapf(ErrUnknownEvent, "%q", event)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	if c.request[event] == nil {
		c.request[event] = make(map[int]permissions.RequestHandler)
	}
	c.request[event][c.nextID] = handler
	return c.nextID, nil
}

// BindGrouped registers a handler for grouped permission request events.
func (c *Callbacks) BindGrouped(handler permissions.GroupedRequestHandler) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.grouped[c.nextID] = handler
	return c.nextID
}

// Unbind removes a previously bound single-permission handler. It reports
// whether the handle was found.
func (c *Callbacks) Unbind(event string, id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	handlers, ok := c.request[event]
	if !ok {
		return false
	}
	if _, ok := handlers[id]; !ok {
		return false
	}
	delete(handlers, id)
	return true
}

// UnbindGrouped removes a previously bound grouped handler.
func (c *Callbacks) UnbindGrouped(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.grouped[id]; !ok {
		return false
	}
	delete(c.grouped, id)
	return true
}

// Emit delivers a single-permission request event to all handlers bound to
// its event name, in bind order.
func (c *Callbacks) Emit(event string, ev permissions.RequestEvent) {
	c.mu.Lock()
	ids := make([]int, 0, len(c.request[event]))
	for id := range c.request[event] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]permissions.RequestHandler, len(ids))
	for i, id := range ids {
		handlers[i] = c.request[event][id]
	}
	c.mu.Unlock()

	for _, h := range handlers {
		c.call(event, func() error { return h(ev) })
	}
}

// EmitGrouped delivers a grouped permission request event to all grouped
// handlers, in bind order.
func (c *Callbacks) EmitGrouped(ev permissions.GroupedRequestEvent) {
	c.mu.Lock()
	ids := make([]int, 0, len(c.grouped))
	for id := range c.grouped {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]permissions.GroupedRequestHandler, len(ids))
	for i, id := range ids {
		handlers[i] = c.grouped[id]
	}
	c.mu.Unlock()

	for _, h := range handlers {
		c.call(permissions.EventGroupedPermissionRequested, func() error { return h(ev) })
	}
}

func (c *Callbacks) call(event string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Debug("permission event handler panicked", "event", event, "panic", r)
		}
	}()
	if err := fn(); err != nil {
		c.logger.Debug("permission event handler failed", "event", event, "error", err)
	}
}
