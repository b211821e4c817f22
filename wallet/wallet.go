// Package wallet defines the capability interface of the underlying wallet
// and the argument/result types exchanged across that boundary. The permission
// layer both consumes this interface (to store and query authorization
// records) and implements it (as a checked proxy handed to applications).
package wallet

import "context"

// Interface is the full wallet capability surface. Implementations must be
// safe for concurrent use. Every method receives the originator: the domain
// or FQDN of the external application on whose behalf the call is made.
type Interface interface {
	// CreateAction builds a new transaction from the provided inputs and
	// outputs. Depending on options it either fully processes the
	// transaction or returns a signable transaction plus an opaque
	// reference for later completion via SignAction.
	CreateAction(ctx context.Context, args CreateActionArgs, originator string) (*CreateActionResult, error)

	// SignAction completes signing of a previously created signable
	// transaction identified by its reference.
	SignAction(ctx context.Context, args SignActionArgs, originator string) (*SignActionResult, error)

	// AbortAction abandons a previously created signable transaction.
	AbortAction(ctx context.Context, args AbortActionArgs, originator string) (*AbortActionResult, error)

	// ListActions returns transactions filtered by label predicates.
	ListActions(ctx context.Context, args ListActionsArgs, originator string) (*ListActionsResult, error)

	// InternalizeAction accepts an externally created transaction into the
	// wallet, optionally inserting outputs into baskets.
	InternalizeAction(ctx context.Context, args InternalizeActionArgs, originator string) (*InternalizeActionResult, error)

	// ListOutputs returns spendable outputs filtered by basket and tags.
	ListOutputs(ctx context.Context, args ListOutputsArgs, originator string) (*ListOutputsResult, error)

	// RelinquishOutput removes an output from a basket.
	RelinquishOutput(ctx context.Context, args RelinquishOutputArgs, originator string) (*RelinquishOutputResult, error)

	// GetPublicKey derives and reveals a public key.
	GetPublicKey(ctx context.Context, args GetPublicKeyArgs, originator string) (*GetPublicKeyResult, error)

	// RevealCounterpartyKeyLinkage reveals the linkage between the user and
	// a counterparty to a designated verifier.
	RevealCounterpartyKeyLinkage(ctx context.Context, args RevealCounterpartyKeyLinkageArgs, originator string) (*RevealCounterpartyKeyLinkageResult, error)

	// RevealSpecificKeyLinkage reveals the linkage of one specific derived
	// key to a designated verifier.
	RevealSpecificKeyLinkage(ctx context.Context, args RevealSpecificKeyLinkageArgs, originator string) (*RevealSpecificKeyLinkageResult, error)

	// Encrypt encrypts data under a key derived from (protocol, key ID,
	// counterparty).
	Encrypt(ctx context.Context, args EncryptArgs, originator string) (*EncryptResult, error)

	// Decrypt reverses Encrypt for the same key parameters.
	Decrypt(ctx context.Context, args DecryptArgs, originator string) (*DecryptResult, error)

	// CreateHMAC computes an HMAC over data.
	CreateHMAC(ctx context.Context, args CreateHMACArgs, originator string) (*CreateHMACResult, error)

	// VerifyHMAC verifies an HMAC over data.
	VerifyHMAC(ctx context.Context, args VerifyHMACArgs, originator string) (*VerifyHMACResult, error)

	// CreateSignature signs data or a digest.
	CreateSignature(ctx context.Context, args CreateSignatureArgs, originator string) (*CreateSignatureResult, error)

	// VerifySignature verifies a signature over data or a digest.
	VerifySignature(ctx context.Context, args VerifySignatureArgs, originator string) (*VerifySignatureResult, error)

	// AcquireCertificate obtains an identity certificate.
	AcquireCertificate(ctx context.Context, args AcquireCertificateArgs, originator string) (*Certificate, error)

	// ListCertificates lists held identity certificates.
	ListCertificates(ctx context.Context, args ListCertificatesArgs, originator string) (*ListCertificatesResult, error)

	// ProveCertificate creates a verifier-scoped keyring revealing selected
	// certificate fields.
	ProveCertificate(ctx context.Context, args ProveCertificateArgs, originator string) (*ProveCertificateResult, error)

	// RelinquishCertificate discards an identity certificate.
	RelinquishCertificate(ctx context.Context, args RelinquishCertificateArgs, originator string) (*RelinquishCertificateResult, error)

	// DiscoverByIdentityKey resolves certificates by subject identity key.
	DiscoverByIdentityKey(ctx context.Context, args DiscoverByIdentityKeyArgs, originator string) (*DiscoverCertificatesResult, error)

	// DiscoverByAttributes resolves certificates by attribute values.
	DiscoverByAttributes(ctx context.Context, args DiscoverByAttributesArgs, originator string) (*DiscoverCertificatesResult, error)

	// IsAuthenticated reports the current authentication state.
	IsAuthenticated(ctx context.Context, originator string) (*AuthenticatedResult, error)

	// WaitForAuthentication blocks until the user is authenticated.
	WaitForAuthentication(ctx context.Context, originator string) (*AuthenticatedResult, error)

	// GetHeight returns the current chain height.
	GetHeight(ctx context.Context, originator string) (*GetHeightResult, error)

	// GetHeaderForHeight returns the serialized block header at a height.
	GetHeaderForHeight(ctx context.Context, args GetHeaderArgs, originator string) (*GetHeaderResult, error)

	// GetNetwork returns the network the wallet operates on.
	GetNetwork(ctx context.Context, originator string) (*GetNetworkResult, error)

	// GetVersion returns the wallet implementation version.
	GetVersion(ctx context.Context, originator string) (*GetVersionResult, error)
}
