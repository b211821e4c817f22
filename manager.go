// Package walletguard mediates every call into a wallet with permission
// checks. A Manager wraps an underlying wallet implementation and exposes
// the same capability surface; calls made by external applications are
// checked against on-chain permission tokens, prompting the user through
// bound callbacks when no valid token exists. Calls made by the
// administrative originator bypass all checks.
package walletguard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/allisson/walletguard/internal/errors"
	"github.com/allisson/walletguard/internal/metrics"
	"github.com/allisson/walletguard/internal/permission/service"
	"github.com/allisson/walletguard/internal/permission/usecase"
	"github.com/allisson/walletguard/permissions"
	"github.com/allisson/walletguard/wallet"
)

// Manager is a permission-checking wallet proxy. It implements
// wallet.Interface; construct it with NewManager and hand it to applications
// in place of the underlying wallet. Safe for concurrent use.
type Manager struct {
	underlying wallet.Interface
	admin      string

	mu     sync.RWMutex
	config permissions.Config

	callbacks   *service.Callbacks
	coordinator *service.Coordinator
	cache       *service.Cache
	metadata    *service.Cipher
	useCase     usecase.PermissionUseCase
	manifests   ManifestFetcher
	logger      *slog.Logger
}

// ManagerOption customizes a Manager.
type ManagerOption func(*managerSettings)

type managerSettings struct {
	config    permissions.Config
	logger    *slog.Logger
	metrics   metrics.BusinessMetrics
	manifests ManifestFetcher
	cacheTTL  time.Duration
}

// WithConfig sets the enforcement configuration. The default is
// permissions.DefaultConfig.
func WithConfig(cfg permissions.Config) ManagerOption {
	return func(s *managerSettings) { s.config = cfg }
}

// WithLogger sets the structured logger. The default is slog.Default.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(s *managerSettings) { s.logger = logger }
}

// WithMetrics enables business metrics recording on every permission
// decision.
func WithMetrics(m metrics.BusinessMetrics) ManagerOption {
	return func(s *managerSettings) { s.metrics = m }
}

// WithManifestFetcher sets the fetcher used by the grouped permission flow.
// The default fetches https://<originator>/manifest.json.
func WithManifestFetcher(f ManifestFetcher) ManagerOption {
	return func(s *managerSettings) { s.manifests = f }
}

// WithCacheTTL overrides the permission cache TTL.
func WithCacheTTL(ttl time.Duration) ManagerOption {
	return func(s *managerSettings) { s.cacheTTL = ttl }
}

// NewManager wraps underlying with permission mediation. adminOriginator is
// the identity whose calls bypass all checks and under which the manager
// performs its own token bookkeeping.
func NewManager(underlying wallet.Interface, adminOriginator string, opts ...ManagerOption) *Manager {
	settings := &managerSettings{
		config:    permissions.DefaultConfig(),
		logger:    slog.Default(),
		metrics:   metrics.NewNoOpBusinessMetrics(),
		manifests: NewHTTPManifestFetcher(0),
	}
	for _, opt := range opts {
		opt(settings)
	}

	tokenCipher := service.NewTokenCipher(underlying, adminOriginator)
	cache := service.NewCache(settings.cacheTTL)
	store := service.NewStore(underlying, tokenCipher, adminOriginator)
	lifecycle := service.NewLifecycle(underlying, tokenCipher, adminOriginator)
	callbacks := service.NewCallbacks(settings.logger)
	coordinator := service.NewCoordinator(callbacks, lifecycle, cache, settings.logger)

	m := &Manager{
		underlying:  underlying,
		admin:       adminOriginator,
		config:      settings.config,
		callbacks:   callbacks,
		coordinator: coordinator,
		cache:       cache,
		metadata:    service.NewMetadataCipher(underlying, adminOriginator),
		manifests:   settings.manifests,
		logger:      settings.logger,
	}
	m.useCase = usecase.NewPermissionUseCaseWithMetrics(
		usecase.NewPermissionUseCase(
			adminOriginator,
			m.Config,
			store,
			lifecycle,
			coordinator,
			cache,
			settings.logger,
		),
		settings.metrics,
	)
	return m
}

// Config returns the current enforcement configuration.
func (m *Manager) Config() permissions.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig replaces the enforcement configuration. The change applies to
// checks started after the call.
func (m *Manager) SetConfig(cfg permissions.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config = cfg
}

// BindCallback subscribes a handler to one of the single-permission request
// events and returns a handle for UnbindCallback.
func (m *Manager) BindCallback(event string, handler permissions.RequestHandler) (int, error) {
	return m.callbacks.Bind(event, handler)
}

// UnbindCallback removes a handler bound with BindCallback.
func (m *Manager) UnbindCallback(event string, id int) bool {
	return m.callbacks.Unbind(event, id)
}

// BindGroupedCallback subscribes a handler to grouped permission request
// events.
func (m *Manager) BindGroupedCallback(handler permissions.GroupedRequestHandler) int {
	return m.callbacks.BindGrouped(handler)
}

// UnbindGroupedCallback removes a handler bound with BindGroupedCallback.
func (m *Manager) UnbindGroupedCallback(id int) bool {
	return m.callbacks.UnbindGrouped(id)
}

// GrantOptions tunes how GrantPermission materializes a grant.
type GrantOptions struct {
	// Ephemeral grants without creating a token; the next identical request
	// prompts again.
	Ephemeral bool

	// Expiry is the token expiry epoch; zero selects the default grant
	// duration. Spending tokens never expire.
	Expiry int64

	// AuthorizedAmount sets the monthly cap on spending grants; zero falls
	// back to the requested amount.
	AuthorizedAmount int64
}

// GrantPermission resolves the pending request identified by requestID (the
// RequestID delivered with the request event). All blocked callers proceed
// immediately; token creation happens afterwards.
func (m *Manager) GrantPermission(ctx context.Context, requestID string, opts GrantOptions) error {
	return m.coordinator.Grant(ctx, requestID, service.GrantOptions{
		Ephemeral:        opts.Ephemeral,
		Expiry:           opts.Expiry,
		AuthorizedAmount: opts.AuthorizedAmount,
	})
}

// DenyPermission rejects the pending request identified by requestID; all
// blocked callers fail with permissions.ErrPermissionDenied.
func (m *Manager) DenyPermission(requestID string) error {
	return m.coordinator.Deny(requestID)
}

// GrantGroupedPermission resolves a pending grouped request with the granted
// subset of the original bundle.
func (m *Manager) GrantGroupedPermission(ctx context.Context, requestID string, granted permissions.GroupedPermissions) error {
	return m.coordinator.GrantGroup(ctx, requestID, granted)
}

// DenyGroupedPermission rejects a pending grouped request.
func (m *Manager) DenyGroupedPermission(requestID string) error {
	return m.coordinator.DenyGroup(requestID)
}

// ListProtocolPermissions returns protocol tokens, optionally filtered by
// originator.
func (m *Manager) ListProtocolPermissions(ctx context.Context, originator string) ([]*permissions.Token, error) {
	return m.useCase.List(ctx, permissions.TypeProtocol, originator)
}

// ListBasketAccess returns basket tokens, optionally filtered by originator.
func (m *Manager) ListBasketAccess(ctx context.Context, originator string) ([]*permissions.Token, error) {
	return m.useCase.List(ctx, permissions.TypeBasket, originator)
}

// ListCertificateAccess returns certificate tokens, optionally filtered by
// originator.
func (m *Manager) ListCertificateAccess(ctx context.Context, originator string) ([]*permissions.Token, error) {
	return m.useCase.List(ctx, permissions.TypeCertificate, originator)
}

// GetSpendingAuthorization returns the originator's spending token, or
// permissions.ErrPermissionNotFound.
func (m *Manager) GetSpendingAuthorization(ctx context.Context, originator string) (*permissions.Token, error) {
	tokens, err := m.useCase.List(ctx, permissions.TypeSpending, originator)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, permissions.ErrPermissionNotFound
	}
	return tokens[0], nil
}

// QuerySpentSince tallies what the originator has spent in the current UTC
// calendar month.
func (m *Manager) QuerySpentSince(ctx context.Context, originator string) (int64, error) {
	return m.useCase.SpentThisMonth(ctx, originator)
}

// RevokePermission consumes a token on chain; the next matching check
// prompts again.
func (m *Manager) RevokePermission(ctx context.Context, tok *permissions.Token) error {
	return m.useCase.Revoke(ctx, tok)
}

// HasProtocolPermission reports whether a valid protocol token exists,
// without prompting.
func (m *Manager) HasProtocolPermission(ctx context.Context, originator string, protocolID wallet.ProtocolID, counterparty string, privileged bool) (bool, error) {
	err := m.useCase.EnsureProtocol(ctx, usecase.ProtocolParams{
		Originator:   originator,
		Privileged:   privileged,
		ProtocolID:   protocolID,
		Counterparty: counterparty,
		Usage:        permissions.ProtocolUsageGeneric,
	})
	return hasOutcome(err)
}

// HasBasketAccess reports whether a valid basket token exists, without
// prompting.
func (m *Manager) HasBasketAccess(ctx context.Context, originator, basket string) (bool, error) {
	err := m.useCase.EnsureBasket(ctx, usecase.BasketParams{
		Originator: originator,
		Basket:     basket,
		Usage:      permissions.BasketUsageInsertion,
	})
	return hasOutcome(err)
}

// HasCertificateAccess reports whether a valid certificate token covering
// the fields exists, without prompting.
func (m *Manager) HasCertificateAccess(ctx context.Context, originator, verifier, certType string, fields []string, privileged bool) (bool, error) {
	err := m.useCase.EnsureCertificate(ctx, usecase.CertificateParams{
		Originator: originator,
		Privileged: privileged,
		Verifier:   verifier,
		CertType:   certType,
		Fields:     fields,
		Usage:      permissions.CertificateUsageDisclosure,
	})
	return hasOutcome(err)
}

// HasSpendingAuthorization reports whether the originator holds a spending
// authorization with enough monthly headroom left for satoshis, without
// prompting.
func (m *Manager) HasSpendingAuthorization(ctx context.Context, originator string, satoshis int64) (bool, error) {
	err := m.useCase.EnsureSpending(ctx, usecase.SpendingParams{
		Originator: originator,
		Satoshis:   satoshis,
	})
	return hasOutcome(err)
}

func hasOutcome(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, permissions.ErrPermissionNotFound),
		errors.Is(err, permissions.ErrPermissionExpired),
		errors.Is(err, permissions.ErrSpendingLimitExceeded),
		errors.Is(err, permissions.ErrAdminOnly):
		return false, nil
	default:
		return false, err
	}
}
