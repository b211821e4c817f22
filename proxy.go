package walletguard

import (
	"context"

	"github.com/allisson/walletguard/internal/errors"
	"github.com/allisson/walletguard/internal/permission/usecase"
	"github.com/allisson/walletguard/permissions"
	"github.com/allisson/walletguard/wallet"
)

// Synthetic protocols for wallet capabilities that are not themselves
// protocol-scoped. Checking them as protocol permissions gives every gated
// capability the same token, prompt and renewal machinery.
var (
	identityKeyProtocol        = wallet.ProtocolID{SecurityLevel: 1, Name: "identity key retrieval"}
	certificateListing         = wallet.ProtocolID{SecurityLevel: 1, Name: "certificate list"}
	identityResolutionProtocol = wallet.ProtocolID{SecurityLevel: 1, Name: "identity resolution"}
)

func counterpartyLinkageProtocol(counterparty string) wallet.ProtocolID {
	return wallet.ProtocolID{SecurityLevel: 2, Name: "counterparty key linkage revelation " + counterparty}
}

func specificLinkageProtocol(id wallet.ProtocolID, keyID string) wallet.ProtocolID {
	scope := "all"
	if id.SecurityLevel == 2 {
		scope = keyID
	}
	return wallet.ProtocolID{SecurityLevel: 2, Name: "specific key linkage revelation " + id.Name + " " + scope}
}

func certificateAcquisitionProtocol(certType string) wallet.ProtocolID {
	return wallet.ProtocolID{SecurityLevel: 1, Name: "certificate acquisition " + certType}
}

func certificateRelinquishmentProtocol(certType string) wallet.ProtocolID {
	return wallet.ProtocolID{SecurityLevel: 1, Name: "certificate relinquishment " + certType}
}

func (m *Manager) ensureProtocol(ctx context.Context, originator string, privileged bool, id wallet.ProtocolID, counterparty, reason string, usage permissions.ProtocolUsage) error {
	return m.useCase.EnsureProtocol(ctx, usecase.ProtocolParams{
		Originator:   originator,
		Privileged:   privileged,
		ProtocolID:   id,
		Counterparty: counterparty,
		Reason:       reason,
		Usage:        usage,
		Seek:         true,
	})
}

func (m *Manager) SignAction(ctx context.Context, args wallet.SignActionArgs, originator string) (*wallet.SignActionResult, error) {
	return m.underlying.SignAction(ctx, args, originator)
}

func (m *Manager) AbortAction(ctx context.Context, args wallet.AbortActionArgs, originator string) (*wallet.AbortActionResult, error) {
	return m.underlying.AbortAction(ctx, args, originator)
}

func (m *Manager) ListActions(ctx context.Context, args wallet.ListActionsArgs, originator string) (*wallet.ListActionsResult, error) {
	for _, label := range args.Labels {
		if err := m.useCase.EnsureLabel(ctx, usecase.LabelParams{
			Originator: originator,
			Label:      label,
			Usage:      permissions.LabelUsageList,
			Seek:       true,
		}); err != nil {
			return nil, err
		}
	}

	res, err := m.underlying.ListActions(ctx, args, originator)
	if err != nil {
		return nil, err
	}
	for i := range res.Actions {
		m.decryptAction(ctx, &res.Actions[i])
		if originator != m.admin {
			res.Actions[i].Labels = stripAdminLabels(res.Actions[i].Labels)
		}
	}
	return res, nil
}

func (m *Manager) InternalizeAction(ctx context.Context, args wallet.InternalizeActionArgs, originator string) (*wallet.InternalizeActionResult, error) {
	for _, label := range args.Labels {
		if err := m.useCase.EnsureLabel(ctx, usecase.LabelParams{
			Originator: originator,
			Label:      label,
			Usage:      permissions.LabelUsageApply,
			Seek:       true,
		}); err != nil {
			return nil, err
		}
	}
	for _, out := range args.Outputs {
		if out.Protocol != wallet.InternalizeBasketInsertion || out.InsertionRemittance == nil {
			continue
		}
		if err := m.useCase.EnsureBasket(ctx, usecase.BasketParams{
			Originator: originator,
			Basket:     out.InsertionRemittance.Basket,
			Usage:      permissions.BasketUsageInsertion,
			Seek:       true,
		}); err != nil {
			return nil, err
		}
	}

	if m.Config().EncryptWalletMetadata && originator != m.admin {
		for _, out := range args.Outputs {
			if out.InsertionRemittance == nil || out.InsertionRemittance.CustomInstructions == "" {
				continue
			}
			enc, err := m.metadata.EncryptString(ctx, out.InsertionRemittance.CustomInstructions)
			if err != nil {
				return nil, errors.Wrap(err, "encrypt custom instructions")
			}
			out.InsertionRemittance.CustomInstructions = enc
		}
	}
	return m.underlying.InternalizeAction(ctx, args, originator)
}

func (m *Manager) ListOutputs(ctx context.Context, args wallet.ListOutputsArgs, originator string) (*wallet.ListOutputsResult, error) {
	if err := m.useCase.EnsureBasket(ctx, usecase.BasketParams{
		Originator: originator,
		Basket:     args.Basket,
		Usage:      permissions.BasketUsageListing,
		Seek:       true,
	}); err != nil {
		return nil, err
	}

	res, err := m.underlying.ListOutputs(ctx, args, originator)
	if err != nil {
		return nil, err
	}
	for i := range res.Outputs {
		if res.Outputs[i].CustomInstructions != "" {
			res.Outputs[i].CustomInstructions = m.metadata.DecryptString(ctx, res.Outputs[i].CustomInstructions)
		}
	}
	return res, nil
}

func (m *Manager) RelinquishOutput(ctx context.Context, args wallet.RelinquishOutputArgs, originator string) (*wallet.RelinquishOutputResult, error) {
	if err := m.useCase.EnsureBasket(ctx, usecase.BasketParams{
		Originator: originator,
		Basket:     args.Basket,
		Usage:      permissions.BasketUsageRemoval,
		Seek:       true,
	}); err != nil {
		return nil, err
	}
	return m.underlying.RelinquishOutput(ctx, args, originator)
}

func (m *Manager) GetPublicKey(ctx context.Context, args wallet.GetPublicKeyArgs, originator string) (*wallet.GetPublicKeyResult, error) {
	if args.IdentityKey {
		if err := m.ensureProtocol(ctx, originator, args.Privileged, identityKeyProtocol, "self", args.PrivilegedReason, permissions.ProtocolUsageIdentityKey); err != nil {
			return nil, err
		}
		return m.underlying.GetPublicKey(ctx, args, originator)
	}

	if args.ProtocolID == nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "protocol ID is required for derived keys")
	}
	if err := m.ensureProtocol(ctx, originator, args.Privileged, *args.ProtocolID, args.Counterparty, args.PrivilegedReason, permissions.ProtocolUsagePublicKey); err != nil {
		return nil, err
	}
	return m.underlying.GetPublicKey(ctx, args, originator)
}

func (m *Manager) RevealCounterpartyKeyLinkage(ctx context.Context, args wallet.RevealCounterpartyKeyLinkageArgs, originator string) (*wallet.RevealCounterpartyKeyLinkageResult, error) {
	if err := m.ensureProtocol(ctx, originator, args.Privileged, counterpartyLinkageProtocol(args.Counterparty), args.Verifier, args.PrivilegedReason, permissions.ProtocolUsageLinkageRevelation); err != nil {
		return nil, err
	}
	return m.underlying.RevealCounterpartyKeyLinkage(ctx, args, originator)
}

func (m *Manager) RevealSpecificKeyLinkage(ctx context.Context, args wallet.RevealSpecificKeyLinkageArgs, originator string) (*wallet.RevealSpecificKeyLinkageResult, error) {
	if err := m.ensureProtocol(ctx, originator, args.Privileged, specificLinkageProtocol(args.ProtocolID, args.KeyID), args.Verifier, args.PrivilegedReason, permissions.ProtocolUsageLinkageRevelation); err != nil {
		return nil, err
	}
	return m.underlying.RevealSpecificKeyLinkage(ctx, args, originator)
}

func (m *Manager) Encrypt(ctx context.Context, args wallet.EncryptArgs, originator string) (*wallet.EncryptResult, error) {
	if err := m.ensureProtocol(ctx, originator, args.Privileged, args.ProtocolID, args.Counterparty, args.PrivilegedReason, permissions.ProtocolUsageEncrypting); err != nil {
		return nil, err
	}
	return m.underlying.Encrypt(ctx, args, originator)
}

func (m *Manager) Decrypt(ctx context.Context, args wallet.DecryptArgs, originator string) (*wallet.DecryptResult, error) {
	if err := m.ensureProtocol(ctx, originator, args.Privileged, args.ProtocolID, args.Counterparty, args.PrivilegedReason, permissions.ProtocolUsageEncrypting); err != nil {
		return nil, err
	}
	return m.underlying.Decrypt(ctx, args, originator)
}

func (m *Manager) CreateHMAC(ctx context.Context, args wallet.CreateHMACArgs, originator string) (*wallet.CreateHMACResult, error) {
	if err := m.ensureProtocol(ctx, originator, args.Privileged, args.ProtocolID, args.Counterparty, args.PrivilegedReason, permissions.ProtocolUsageHMAC); err != nil {
		return nil, err
	}
	return m.underlying.CreateHMAC(ctx, args, originator)
}

func (m *Manager) VerifyHMAC(ctx context.Context, args wallet.VerifyHMACArgs, originator string) (*wallet.VerifyHMACResult, error) {
	if err := m.ensureProtocol(ctx, originator, args.Privileged, args.ProtocolID, args.Counterparty, args.PrivilegedReason, permissions.ProtocolUsageHMAC); err != nil {
		return nil, err
	}
	return m.underlying.VerifyHMAC(ctx, args, originator)
}

func (m *Manager) CreateSignature(ctx context.Context, args wallet.CreateSignatureArgs, originator string) (*wallet.CreateSignatureResult, error) {
	if err := m.ensureProtocol(ctx, originator, args.Privileged, args.ProtocolID, args.Counterparty, args.PrivilegedReason, permissions.ProtocolUsageSigning); err != nil {
		return nil, err
	}
	return m.underlying.CreateSignature(ctx, args, originator)
}

func (m *Manager) VerifySignature(ctx context.Context, args wallet.VerifySignatureArgs, originator string) (*wallet.VerifySignatureResult, error) {
	if err := m.ensureProtocol(ctx, originator, args.Privileged, args.ProtocolID, args.Counterparty, args.PrivilegedReason, permissions.ProtocolUsageSigning); err != nil {
		return nil, err
	}
	return m.underlying.VerifySignature(ctx, args, originator)
}

func (m *Manager) AcquireCertificate(ctx context.Context, args wallet.AcquireCertificateArgs, originator string) (*wallet.Certificate, error) {
	if m.Config().SeekCertificateAcquisitionPermissions {
		if err := m.ensureProtocol(ctx, originator, args.Privileged, certificateAcquisitionProtocol(args.Type), "self", args.PrivilegedReason, permissions.ProtocolUsageGeneric); err != nil {
			return nil, err
		}
	}
	return m.underlying.AcquireCertificate(ctx, args, originator)
}

func (m *Manager) ListCertificates(ctx context.Context, args wallet.ListCertificatesArgs, originator string) (*wallet.ListCertificatesResult, error) {
	if m.Config().SeekCertificateListingPermissions {
		if err := m.ensureProtocol(ctx, originator, args.Privileged, certificateListing, "self", args.PrivilegedReason, permissions.ProtocolUsageGeneric); err != nil {
			return nil, err
		}
	}
	return m.underlying.ListCertificates(ctx, args, originator)
}

func (m *Manager) ProveCertificate(ctx context.Context, args wallet.ProveCertificateArgs, originator string) (*wallet.ProveCertificateResult, error) {
	if err := m.useCase.EnsureCertificate(ctx, usecase.CertificateParams{
		Originator: originator,
		Privileged: args.Privileged,
		Verifier:   args.Verifier,
		CertType:   args.Certificate.Type,
		Fields:     args.FieldsToReveal,
		Reason:     args.PrivilegedReason,
		Usage:      permissions.CertificateUsageDisclosure,
		Seek:       true,
	}); err != nil {
		return nil, err
	}
	return m.underlying.ProveCertificate(ctx, args, originator)
}

func (m *Manager) RelinquishCertificate(ctx context.Context, args wallet.RelinquishCertificateArgs, originator string) (*wallet.RelinquishCertificateResult, error) {
	if m.Config().SeekCertificateRelinquishmentPermissions {
		if err := m.ensureProtocol(ctx, originator, false, certificateRelinquishmentProtocol(args.Type), "self", "", permissions.ProtocolUsageGeneric); err != nil {
			return nil, err
		}
	}
	return m.underlying.RelinquishCertificate(ctx, args, originator)
}

func (m *Manager) DiscoverByIdentityKey(ctx context.Context, args wallet.DiscoverByIdentityKeyArgs, originator string) (*wallet.DiscoverCertificatesResult, error) {
	if m.Config().SeekPermissionsForIdentityResolution {
		if err := m.ensureProtocol(ctx, originator, false, identityResolutionProtocol, "self", "", permissions.ProtocolUsageGeneric); err != nil {
			return nil, err
		}
	}
	return m.underlying.DiscoverByIdentityKey(ctx, args, originator)
}

func (m *Manager) DiscoverByAttributes(ctx context.Context, args wallet.DiscoverByAttributesArgs, originator string) (*wallet.DiscoverCertificatesResult, error) {
	if m.Config().SeekPermissionsForIdentityResolution {
		if err := m.ensureProtocol(ctx, originator, false, identityResolutionProtocol, "self", "", permissions.ProtocolUsageGeneric); err != nil {
			return nil, err
		}
	}
	return m.underlying.DiscoverByAttributes(ctx, args, originator)
}

func (m *Manager) IsAuthenticated(ctx context.Context, originator string) (*wallet.AuthenticatedResult, error) {
	return m.underlying.IsAuthenticated(ctx, originator)
}

// WaitForAuthentication runs the grouped permission flow before letting the
// caller through: if the originator publishes a manifest with grouped
// permissions and no decision is recorded yet, the user is prompted once for
// the whole bundle.
func (m *Manager) WaitForAuthentication(ctx context.Context, originator string) (*wallet.AuthenticatedResult, error) {
	if m.Config().SeekGroupedPermission && originator != m.admin {
		requested, err := m.manifests.Fetch(ctx, originator)
		if err != nil {
			m.logger.Debug("manifest fetch failed", "originator", originator, "error", err)
		} else if requested != nil {
			remaining := m.filterHeldGrants(ctx, originator, *requested)
			if !remaining.Empty() {
				if err := m.coordinator.AwaitGroup(ctx, originator, remaining); err != nil {
					return nil, err
				}
			}
		}
	}
	return m.underlying.WaitForAuthentication(ctx, originator)
}

// filterHeldGrants drops bundle entries the originator already holds valid
// tokens for, so the authentication prompt only covers what is new.
func (m *Manager) filterHeldGrants(ctx context.Context, originator string, requested permissions.GroupedPermissions) permissions.GroupedPermissions {
	remaining := permissions.GroupedPermissions{Description: requested.Description}
	for _, p := range requested.Protocols {
		held, err := m.HasProtocolPermission(ctx, originator, p.ProtocolID, p.Counterparty, false)
		if err != nil || !held {
			remaining.Protocols = append(remaining.Protocols, p)
		}
	}
	for _, b := range requested.Baskets {
		held, err := m.HasBasketAccess(ctx, originator, b.Basket)
		if err != nil || !held {
			remaining.Baskets = append(remaining.Baskets, b)
		}
	}
	for _, c := range requested.Certificates {
		held, err := m.HasCertificateAccess(ctx, originator, c.Verifier, c.Type, c.Fields, false)
		if err != nil || !held {
			remaining.Certificates = append(remaining.Certificates, c)
		}
	}
	if requested.Spending != nil {
		held, err := m.HasSpendingAuthorization(ctx, originator, requested.Spending.AuthorizedAmount)
		if err != nil || !held {
			remaining.Spending = requested.Spending
		}
	}
	return remaining
}

func (m *Manager) GetHeight(ctx context.Context, originator string) (*wallet.GetHeightResult, error) {
	return m.underlying.GetHeight(ctx, originator)
}

func (m *Manager) GetHeaderForHeight(ctx context.Context, args wallet.GetHeaderArgs, originator string) (*wallet.GetHeaderResult, error) {
	return m.underlying.GetHeaderForHeight(ctx, args, originator)
}

func (m *Manager) GetNetwork(ctx context.Context, originator string) (*wallet.GetNetworkResult, error) {
	return m.underlying.GetNetwork(ctx, originator)
}

func (m *Manager) GetVersion(ctx context.Context, originator string) (*wallet.GetVersionResult, error) {
	return m.underlying.GetVersion(ctx, originator)
}

func (m *Manager) decryptAction(ctx context.Context, a *wallet.Action) {
	if a.Description != "" {
		a.Description = m.metadata.DecryptString(ctx, a.Description)
	}
	for i := range a.Inputs {
		if a.Inputs[i].InputDescription != "" {
			a.Inputs[i].InputDescription = m.metadata.DecryptString(ctx, a.Inputs[i].InputDescription)
		}
	}
	for i := range a.Outputs {
		if a.Outputs[i].OutputDescription != "" {
			a.Outputs[i].OutputDescription = m.metadata.DecryptString(ctx, a.Outputs[i].OutputDescription)
		}
		if a.Outputs[i].CustomInstructions != "" {
			a.Outputs[i].CustomInstructions = m.metadata.DecryptString(ctx, a.Outputs[i].CustomInstructions)
		}
	}
}

func stripAdminLabels(labels []string) []string {
	out := labels[:0:0]
	for _, l := range labels {
		if !permissions.IsAdminLabel(l) {
			out = append(out, l)
		}
	}
	return out
}
