package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/allisson/walletguard/internal/errors"
	"github.com/allisson/walletguard/permissions"
)

type pendingRequest struct {
	request permissions.Request
	waiters []chan error
}

type pendingGroup struct {
	originator string
	requested  permissions.GroupedPermissions
	waiters    []chan error
}

// Coordinator merges concurrent permission requests into single user
// prompts and applies grant and deny decisions. At most one pending entry
// exists per fingerprint: the first caller emits the request event, later
// identical callers attach to the same entry and share its outcome. A grant
// unblocks all waiters before any token work, so callers never wait on
// transaction building.
type Coordinator struct {
	mu     sync.Mutex
	active map[string]*pendingRequest
	groups map[string]*pendingGroup

	callbacks *Callbacks
	lifecycle *Lifecycle
	cache     *Cache
	logger    *slog.Logger
	now       func() time.Time
}

// NewCoordinator wires the coordinator to its callback registry, token
// lifecycle and cache.
func NewCoordinator(callbacks *Callbacks, lifecycle *Lifecycle, cache *Cache, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		active:    make(map[string]*pendingRequest),
		groups:    make(map[string]*pendingGroup),
		callbacks: callbacks,
		lifecycle: lifecycle,
		cache:     cache,
		logger:    logger,
		now:       time.Now,
	}
}

// Await blocks until the request is granted (nil), denied
// (permissions.ErrPermissionDenied) or the context ends. If an identical
// request is already pending the caller piggybacks on it and no new event is
// emitted.
func (c *Coordinator) Await(ctx context.Context, req permissions.Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	fp := permissions.Fingerprint(req)
	ch := make(chan error, 1)

	c.mu.Lock()
	if p, ok := c.active[fp]; ok {
		p.waiters = append(p.waiters, ch)
		c.mu.Unlock()
		return c.wait(ctx, ch)
	}
	c.active[fp] = &pendingRequest{request: req, waiters: []chan error{ch}}
	c.mu.Unlock()

	c.logger.Debug("permission request pending", "fingerprint", fp, "type", string(req.Type))
	c.callbacks.Emit(eventForType(req.Type), permissions.RequestEvent{Request: req, RequestID: fp})
	return c.wait(ctx, ch)
}

// GrantOptions tunes how a grant is materialized.
type GrantOptions struct {
	// Ephemeral grants the pending request without creating a token or
	// caching anything; the next identical request prompts again.
	Ephemeral bool

	// Expiry is the token expiry epoch. Zero selects the default grant
	// duration (spending tokens always get no expiry).
	Expiry int64

	// AuthorizedAmount overrides the monthly cap on spending grants. Zero
	// falls back to the requested amount.
	AuthorizedAmount int64
}

// Grant resolves the pending request identified by requestID. Waiters are
// released immediately; unless the grant is ephemeral a token is then
// created (or renewed, for renewal requests) and the decision cached.
func (c *Coordinator) Grant(ctx context.Context, requestID string, opts GrantOptions) error {
	c.mu.Lock()
	p, ok := c.active[requestID]
	if !ok {
		c.mu.Unlock()
		return permissions.ErrRequestNotFound
	}
	delete(c.active, requestID)
	c.mu.Unlock()

	for _, ch := range p.waiters {
		ch <- nil
	}
	if opts.Ephemeral {
		return nil
	}

	expiry := opts.Expiry
	if expiry == 0 {
		expiry = c.now().Add(permissions.DefaultGrantDuration).Unix()
	}
	amount := opts.AuthorizedAmount
	if amount == 0 && p.request.Spending != nil {
		amount = p.request.Spending.Satoshis
	}

	var err error
	if p.request.Renewal && p.request.PreviousToken != nil {
		_, err = c.lifecycle.Renew(ctx, p.request.PreviousToken, p.request, expiry, amount)
	} else {
		_, err = c.lifecycle.Create(ctx, p.request, expiry, amount)
	}
	if err != nil {
		return errors.Wrap(err, "materialize grant")
	}

	if p.request.Type == permissions.TypeSpending {
		expiry = 0
	}
	c.cache.Put(requestID, expiry)
	return nil
}

// Deny rejects the pending request identified by requestID. All waiters
// receive permissions.ErrPermissionDenied. The entry is removed, so a later
// identical request prompts again.
func (c *Coordinator) Deny(requestID string) error {
	c.mu.Lock()
	p, ok := c.active[requestID]
	if !ok {
		c.mu.Unlock()
		return permissions.ErrRequestNotFound
	}
	delete(c.active, requestID)
	c.mu.Unlock()

	for _, ch := range p.waiters {
		ch <- permissions.ErrPermissionDenied
	}
	return nil
}

// AwaitGroup blocks until the originator's grouped permission request is
// granted, denied or the context ends. One grouped prompt is pending per
// originator; later callers piggyback.
func (c *Coordinator) AwaitGroup(ctx context.Context, originator string, requested permissions.GroupedPermissions) error {
	fp := permissions.GroupFingerprint(originator)
	ch := make(chan error, 1)

	c.mu.Lock()
	if g, ok := c.groups[fp]; ok {
		g.waiters = append(g.waiters, ch)
		c.mu.Unlock()
		return c.wait(ctx, ch)
	}
	c.groups[fp] = &pendingGroup{originator: originator, requested: requested, waiters: []chan error{ch}}
	c.mu.Unlock()

	c.logger.Debug("grouped permission request pending", "fingerprint", fp)
	c.callbacks.EmitGrouped(permissions.GroupedRequestEvent{
		Originator: originator,
		Requested:  requested,
		RequestID:  fp,
	})
	return c.wait(ctx, ch)
}

// GrantGroup resolves a pending grouped request with the granted subset.
// A granted bundle that exceeds the original request fails with
// permissions.ErrGroupedSubsetViolation and leaves the request pending.
// Grouped grants are never privileged and grouped spending tokens never
// expire.
func (c *Coordinator) GrantGroup(ctx context.Context, requestID string, granted permissions.GroupedPermissions) error {
	c.mu.Lock()
	g, ok := c.groups[requestID]
	if !ok {
		c.mu.Unlock()
		return permissions.ErrRequestNotFound
	}
	if err := permissions.ValidateGrantedSubset(g.requested, granted); err != nil {
		c.mu.Unlock()
		return err
	}
	delete(c.groups, requestID)
	c.mu.Unlock()

	for _, ch := range g.waiters {
		ch <- nil
	}

	expiry := c.now().Add(permissions.DefaultGrantDuration).Unix()
	for _, p := range granted.Protocols {
		req := permissions.Request{
			Type:         permissions.TypeProtocol,
			Originator:   g.originator,
			ProtocolID:   p.ProtocolID,
			Counterparty: p.Counterparty,
		}
		if _, err := c.lifecycle.Create(ctx, req, expiry, 0); err != nil {
			return errors.Wrap(err, "materialize grouped protocol grant")
		}
		c.cache.Put(permissions.Fingerprint(req), expiry)
	}
	for _, b := range granted.Baskets {
		req := permissions.Request{
			Type:       permissions.TypeBasket,
			Originator: g.originator,
			Basket:     b.Basket,
		}
		if _, err := c.lifecycle.Create(ctx, req, expiry, 0); err != nil {
			return errors.Wrap(err, "materialize grouped basket grant")
		}
		c.cache.Put(permissions.Fingerprint(req), expiry)
	}
	for _, cert := range granted.Certificates {
		req := permissions.Request{
			Type:       permissions.TypeCertificate,
			Originator: g.originator,
			Certificate: &permissions.CertificateDetails{
				Verifier: cert.Verifier,
				CertType: cert.Type,
				Fields:   cert.Fields,
			},
		}
		if _, err := c.lifecycle.Create(ctx, req, expiry, 0); err != nil {
			return errors.Wrap(err, "materialize grouped certificate grant")
		}
		c.cache.Put(permissions.Fingerprint(req), expiry)
	}
	if granted.Spending != nil {
		req := permissions.Request{
			Type:       permissions.TypeSpending,
			Originator: g.originator,
			Spending:   &permissions.SpendingDetails{Satoshis: granted.Spending.AuthorizedAmount},
		}
		if _, err := c.lifecycle.Create(ctx, req, 0, granted.Spending.AuthorizedAmount); err != nil {
			return errors.Wrap(err, "materialize grouped spending grant")
		}
	}
	return nil
}

// DenyGroup rejects a pending grouped request.
func (c *Coordinator) DenyGroup(requestID string) error {
	c.mu.Lock()
	g, ok := c.groups[requestID]
	if !ok {
		c.mu.Unlock()
		return permissions.ErrRequestNotFound
	}
	delete(c.groups, requestID)
	c.mu.Unlock()

	for _, ch := range g.waiters {
		ch <- permissions.ErrPermissionDenied
	}
	return nil
}

func (c *Coordinator) wait(ctx context.Context, ch chan error) error {
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func eventForType(t permissions.Type) string {
	switch t {
	case permissions.TypeProtocol:
		return permissions.EventProtocolPermissionRequested
	case permissions.TypeBasket:
		return permissions.EventBasketAccessRequested
	case permissions.TypeCertificate:
		return permissions.EventCertificateAccessRequested
	case permissions.TypeSpending:
		return permissions.EventSpendingAuthorizationRequested
	default:
		return ""
	}
}
