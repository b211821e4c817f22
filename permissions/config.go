package permissions

// Config selects which permission categories are actively enforced. A
// disabled switch makes the corresponding check pass without consulting
// tokens or prompting the user. Enforcement switches are read at check time,
// so toggling them affects in-flight traffic immediately.
type Config struct {
	// SeekProtocolPermissionsForSigning gates signature creation and
	// verification under non-open protocols.
	SeekProtocolPermissionsForSigning bool

	// SeekProtocolPermissionsForEncrypting gates encryption and decryption.
	SeekProtocolPermissionsForEncrypting bool

	// SeekProtocolPermissionsForHMAC gates HMAC creation and verification.
	SeekProtocolPermissionsForHMAC bool

	// SeekProtocolPermissionsForPublicKey gates derived public key
	// revelation under a specific protocol.
	SeekProtocolPermissionsForPublicKey bool

	// SeekPermissionsForIdentityKeyRevelation gates revealing the wallet's
	// identity key to an originator.
	SeekPermissionsForIdentityKeyRevelation bool

	// SeekPermissionsForKeyLinkageRevelation gates key linkage revelation.
	SeekPermissionsForKeyLinkageRevelation bool

	// SeekPermissionsForIdentityResolution gates identity discovery queries.
	SeekPermissionsForIdentityResolution bool

	// SeekBasketInsertionPermissions gates inserting outputs into a basket.
	SeekBasketInsertionPermissions bool

	// SeekBasketRemovalPermissions gates relinquishing outputs from a basket.
	SeekBasketRemovalPermissions bool

	// SeekBasketListingPermissions gates listing the outputs of a basket.
	SeekBasketListingPermissions bool

	// SeekPermissionWhenApplyingActionLabels gates labeling new actions.
	SeekPermissionWhenApplyingActionLabels bool

	// SeekPermissionWhenListingActionsByLabel gates querying actions by
	// label.
	SeekPermissionWhenListingActionsByLabel bool

	// SeekCertificateDisclosurePermissions gates proving certificate fields
	// to a verifier.
	SeekCertificateDisclosurePermissions bool

	// SeekCertificateAcquisitionPermissions gates acquiring certificates.
	SeekCertificateAcquisitionPermissions bool

	// SeekCertificateRelinquishmentPermissions gates relinquishing
	// certificates.
	SeekCertificateRelinquishmentPermissions bool

	// SeekCertificateListingPermissions gates listing held certificates.
	SeekCertificateListingPermissions bool

	// SeekSpendingPermissions gates net spending on created actions.
	SeekSpendingPermissions bool

	// SeekGroupedPermission enables the grouped permission flow during
	// authentication, driven by the originator's published manifest.
	SeekGroupedPermission bool

	// EncryptWalletMetadata encrypts human-readable metadata (descriptions,
	// custom instructions) written through the wallet.
	EncryptWalletMetadata bool

	// DifferentiatePrivilegedOperations keeps privileged and non-privileged
	// permissions distinct. When false, every check is normalized to
	// non-privileged.
	DifferentiatePrivilegedOperations bool
}

// DefaultConfig returns the most restrictive configuration: every check
// enforced, metadata encrypted, privileged operations differentiated.
func DefaultConfig() Config {
	return Config{
		SeekProtocolPermissionsForSigning:        true,
		SeekProtocolPermissionsForEncrypting:     true,
		SeekProtocolPermissionsForHMAC:           true,
		SeekProtocolPermissionsForPublicKey:      true,
		SeekPermissionsForIdentityKeyRevelation:  true,
		SeekPermissionsForKeyLinkageRevelation:   true,
		SeekPermissionsForIdentityResolution:     true,
		SeekBasketInsertionPermissions:           true,
		SeekBasketRemovalPermissions:             true,
		SeekBasketListingPermissions:             true,
		SeekPermissionWhenApplyingActionLabels:   true,
		SeekPermissionWhenListingActionsByLabel:  true,
		SeekCertificateDisclosurePermissions:     true,
		SeekCertificateAcquisitionPermissions:    true,
		SeekCertificateRelinquishmentPermissions: true,
		SeekCertificateListingPermissions:        true,
		SeekSpendingPermissions:                  true,
		SeekGroupedPermission:                    true,
		EncryptWalletMetadata:                    true,
		DifferentiatePrivilegedOperations:        true,
	}
}
