package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/allisson/walletguard/internal/errors"
	"github.com/allisson/walletguard/internal/permission/service"
	"github.com/allisson/walletguard/permissions"
)

// permissionUseCase implements PermissionUseCase.
type permissionUseCase struct {
	adminOriginator string
	config          func() permissions.Config
	store           TokenStore
	lifecycle       TokenLifecycle
	coordinator     Coordinator
	cache           Cache
	logger          *slog.Logger
	now             func() time.Time
}

// NewPermissionUseCase wires the decision logic to its collaborators. The
// config function is called on every check so runtime configuration changes
// apply to in-flight traffic.
func NewPermissionUseCase(
	adminOriginator string,
	config func() permissions.Config,
	store TokenStore,
	lifecycle TokenLifecycle,
	coordinator Coordinator,
	cache Cache,
	logger *slog.Logger,
) PermissionUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &permissionUseCase{
		adminOriginator: adminOriginator,
		config:          config,
		store:           store,
		lifecycle:       lifecycle,
		coordinator:     coordinator,
		cache:           cache,
		logger:          logger,
		now:             time.Now,
	}
}

func (u *permissionUseCase) EnsureProtocol(ctx context.Context, params ProtocolParams) error {
	if params.Originator == u.adminOriginator {
		return nil
	}
	// open protocols are checked before the reserved namespace guard, so a
	// hypothetical level-0 "admin ..." protocol stays usable
	if params.ProtocolID.SecurityLevel == 0 {
		return nil
	}
	if permissions.IsAdminProtocol(params.ProtocolID) {
		return errors.Wrapf(permissions.ErrAdminOnly, "protocol %q", params.ProtocolID.Name)
	}
	if !protocolUsageEnforced(u.config(), params.Usage) {
		return nil
	}

	if !u.config().DifferentiatePrivilegedOperations {
		params.Privileged = false
	}
	counterparty := params.Counterparty
	if counterparty == "" {
		counterparty = "self"
	}

	req := permissions.Request{
		Type:         permissions.TypeProtocol,
		Originator:   params.Originator,
		Privileged:   params.Privileged,
		ProtocolID:   params.ProtocolID,
		Counterparty: counterparty,
		Reason:       params.Reason,
	}
	return u.ensure(ctx, req, params.Seek)
}

func (u *permissionUseCase) EnsureBasket(ctx context.Context, params BasketParams) error {
	if params.Originator == u.adminOriginator {
		return nil
	}
	if permissions.IsAdminBasket(params.Basket) {
		return errors.Wrapf(permissions.ErrAdminOnly, "basket %q", params.Basket)
	}
	if !basketUsageEnforced(u.config(), params.Usage) {
		return nil
	}

	req := permissions.Request{
		Type:       permissions.TypeBasket,
		Originator: params.Originator,
		Basket:     params.Basket,
		Reason:     params.Reason,
	}
	return u.ensure(ctx, req, params.Seek)
}

func (u *permissionUseCase) EnsureCertificate(ctx context.Context, params CertificateParams) error {
	if params.Originator == u.adminOriginator {
		return nil
	}
	if !u.config().SeekCertificateDisclosurePermissions {
		return nil
	}
	if !u.config().DifferentiatePrivilegedOperations {
		params.Privileged = false
	}

	req := permissions.Request{
		Type:       permissions.TypeCertificate,
		Originator: params.Originator,
		Privileged: params.Privileged,
		Certificate: &permissions.CertificateDetails{
			Verifier: params.Verifier,
			CertType: params.CertType,
			Fields:   params.Fields,
		},
		Reason: params.Reason,
	}
	return u.ensure(ctx, req, params.Seek)
}

func (u *permissionUseCase) EnsureSpending(ctx context.Context, params SpendingParams) error {
	if params.Originator == u.adminOriginator {
		return nil
	}
	if !u.config().SeekSpendingPermissions {
		return nil
	}

	req := permissions.Request{
		Type:       permissions.TypeSpending,
		Originator: params.Originator,
		Spending: &permissions.SpendingDetails{
			Satoshis:  params.Satoshis,
			LineItems: params.LineItems,
		},
		Reason: params.Reason,
	}
	fp := permissions.Fingerprint(req)
	if u.cache.Valid(fp) {
		return nil
	}

	tok, err := u.store.FindToken(ctx, req)
	if errors.Is(err, permissions.ErrPermissionNotFound) {
		if !params.Seek {
			return permissions.ErrPermissionNotFound
		}
		return u.coordinator.Await(ctx, req)
	}
	if err != nil {
		return err
	}

	spent, err := u.store.SpentInMonth(ctx, params.Originator, service.MonthTag(u.now()))
	if err != nil {
		return err
	}
	if spent+params.Satoshis <= tok.AuthorizedAmount {
		u.cache.Put(fp, tok.Expiry)
		return nil
	}

	u.logger.Debug("spending authorization exhausted",
		"originator", params.Originator,
		"spent", spent,
		"requested", params.Satoshis,
		"authorized", tok.AuthorizedAmount)
	if !params.Seek {
		return permissions.ErrSpendingLimitExceeded
	}
	req.Renewal = true
	req.PreviousToken = tok
	return u.coordinator.Await(ctx, req)
}

// EnsureLabel checks a label as a synthetic protocol permission named for the
// label, at security level 1, counterparty self.
func (u *permissionUseCase) EnsureLabel(ctx context.Context, params LabelParams) error {
	if params.Originator == u.adminOriginator {
		return nil
	}
	if permissions.IsAdminLabel(params.Label) {
		return errors.Wrapf(permissions.ErrAdminOnly, "label %q", params.Label)
	}
	if !labelUsageEnforced(u.config(), params.Usage) {
		return nil
	}

	req := permissions.Request{
		Type:         permissions.TypeProtocol,
		Originator:   params.Originator,
		ProtocolID:   permissions.LabelProtocol(params.Label),
		Counterparty: "self",
	}
	return u.ensure(ctx, req, params.Seek)
}

// ensure runs the shared cache-then-token-then-prompt path for protocol,
// basket and certificate checks.
func (u *permissionUseCase) ensure(ctx context.Context, req permissions.Request, seek bool) error {
	fp := permissions.Fingerprint(req)
	if u.cache.Valid(fp) {
		return nil
	}

	tok, err := u.store.FindToken(ctx, req)
	if errors.Is(err, permissions.ErrPermissionNotFound) {
		if !seek {
			return permissions.ErrPermissionNotFound
		}
		return u.coordinator.Await(ctx, req)
	}
	if err != nil {
		return err
	}

	if !tok.ExpiredAt(u.now()) {
		u.cache.Put(fp, tok.Expiry)
		return nil
	}
	if !seek {
		return permissions.ErrPermissionExpired
	}
	req.Renewal = true
	req.PreviousToken = tok
	return u.coordinator.Await(ctx, req)
}

func protocolUsageEnforced(cfg permissions.Config, usage permissions.ProtocolUsage) bool {
	switch usage {
	case permissions.ProtocolUsageSigning:
		return cfg.SeekProtocolPermissionsForSigning
	case permissions.ProtocolUsageEncrypting:
		return cfg.SeekProtocolPermissionsForEncrypting
	case permissions.ProtocolUsageHMAC:
		return cfg.SeekProtocolPermissionsForHMAC
	case permissions.ProtocolUsagePublicKey:
		return cfg.SeekProtocolPermissionsForPublicKey
	case permissions.ProtocolUsageIdentityKey:
		return cfg.SeekPermissionsForIdentityKeyRevelation
	case permissions.ProtocolUsageLinkageRevelation:
		return cfg.SeekPermissionsForKeyLinkageRevelation
	default:
		return true
	}
}

func basketUsageEnforced(cfg permissions.Config, usage permissions.BasketUsage) bool {
	switch usage {
	case permissions.BasketUsageInsertion:
		return cfg.SeekBasketInsertionPermissions
	case permissions.BasketUsageRemoval:
		return cfg.SeekBasketRemovalPermissions
	case permissions.BasketUsageListing:
		return cfg.SeekBasketListingPermissions
	default:
		return true
	}
}

func labelUsageEnforced(cfg permissions.Config, usage permissions.LabelUsage) bool {
	switch usage {
	case permissions.LabelUsageApply:
		return cfg.SeekPermissionWhenApplyingActionLabels
	case permissions.LabelUsageList:
		return cfg.SeekPermissionWhenListingActionsByLabel
	default:
		return true
	}
}
