package permissions

import (
	"time"

	"github.com/allisson/walletguard/wallet"
)

// Token is an on-chain authorization record: a single unspent output in one
// of the admin baskets whose locking script commits to an ordered list of
// individually encrypted fields. A token is valid only while unspent, while
// its decoded discriminators match the request exactly and, except for
// spending tokens, while Expiry is zero or in the future.
type Token struct {
	// Type is the permission category this token grants.
	Type Type

	// TxID is the transaction the token output lives in.
	TxID string

	// Tx is the full supporting transaction in boundary wire form.
	Tx []byte

	// OutputIndex is the token output's index within the transaction.
	OutputIndex uint32

	// OutputScript is the exact locking script of the token output.
	OutputScript []byte

	// Satoshis assigned to the token output (normally 1).
	Satoshis int64

	// Originator allowed to use this permission.
	Originator string

	// Expiry in Unix seconds. Zero means no time limit; spending tokens are
	// always indefinite.
	Expiry int64

	// Privileged marks privileged usage, for protocol and certificate
	// tokens.
	Privileged bool

	// Protocol name, security level and counterparty, for protocol tokens.
	Protocol      string
	SecurityLevel wallet.SecurityLevel
	Counterparty  string

	// BasketName, for basket tokens.
	BasketName string

	// CertType, CertFields and Verifier, for certificate tokens.
	CertType   string
	CertFields []string
	Verifier   string

	// AuthorizedAmount is the maximum satoshis per calendar month, for
	// spending tokens.
	AuthorizedAmount int64
}

// Request reconstructs the permission request this token satisfies. Used to
// derive fingerprints for cache invalidation and to seed renewal prompts.
func (t *Token) Request() Request {
	req := Request{
		Type:       t.Type,
		Originator: t.Originator,
		Privileged: t.Privileged,
	}
	switch t.Type {
	case TypeProtocol:
		req.ProtocolID = wallet.ProtocolID{SecurityLevel: t.SecurityLevel, Name: t.Protocol}
		req.Counterparty = t.Counterparty
	case TypeBasket:
		req.Basket = t.BasketName
	case TypeCertificate:
		req.Certificate = &CertificateDetails{
			Verifier: t.Verifier,
			CertType: t.CertType,
			Fields:   t.CertFields,
		}
	case TypeSpending:
		req.Spending = &SpendingDetails{Satoshis: t.AuthorizedAmount}
	}
	return req
}

// Outpoint returns the outpoint holding the token.
func (t *Token) Outpoint() wallet.Outpoint {
	return wallet.Outpoint{TxID: t.TxID, Index: t.OutputIndex}
}

// ExpiredAt reports whether the token's expiry has passed at the given time.
// Tokens with zero expiry never expire.
func (t *Token) ExpiredAt(now time.Time) bool {
	return Expired(t.Expiry, now)
}

// Expired reports whether an expiry epoch is in the past at the given time.
// Zero means no time limit.
func Expired(expiry int64, now time.Time) bool {
	return expiry > 0 && expiry < now.Unix()
}

// DefaultGrantDuration is applied when a grant carries no explicit expiry.
const DefaultGrantDuration = 30 * 24 * time.Hour
