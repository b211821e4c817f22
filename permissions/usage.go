package permissions

import "github.com/allisson/walletguard/wallet"

// ProtocolUsage tells the policy engine which wallet capability triggered a
// protocol permission check. It is carried into emitted request events so a
// UI can explain what the originator is trying to do.
type ProtocolUsage string

const (
	ProtocolUsageSigning           ProtocolUsage = "signing"
	ProtocolUsageEncrypting        ProtocolUsage = "encrypting"
	ProtocolUsageHMAC              ProtocolUsage = "hmac"
	ProtocolUsagePublicKey         ProtocolUsage = "publicKey"
	ProtocolUsageIdentityKey       ProtocolUsage = "identityKey"
	ProtocolUsageLinkageRevelation ProtocolUsage = "linkageRevelation"
	ProtocolUsageGeneric           ProtocolUsage = "generic"
)

// LabelProtocol is the synthetic protocol a label usage check runs under.
// Labels are not a fifth permission category: using label L is treated as
// using the level-1 protocol "action label L" with counterparty self.
func LabelProtocol(label string) wallet.ProtocolID {
	return wallet.ProtocolID{SecurityLevel: 1, Name: "action label " + label}
}

// BasketUsage tells the policy engine how a basket is being touched.
type BasketUsage string

const (
	BasketUsageInsertion BasketUsage = "insertion"
	BasketUsageRemoval   BasketUsage = "removal"
	BasketUsageListing   BasketUsage = "listing"
)

// LabelUsage tells the policy engine how an action label is being used.
type LabelUsage string

const (
	LabelUsageApply LabelUsage = "apply"
	LabelUsageList  LabelUsage = "list"
)

// CertificateUsage tells the policy engine why certificate fields are being
// accessed. Disclosure is the only usage that exists today; the constant
// keeps call sites symmetric with the other usage kinds.
type CertificateUsage string

const (
	CertificateUsageDisclosure CertificateUsage = "disclosure"
)
