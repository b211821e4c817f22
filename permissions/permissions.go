// Package permissions defines the domain model of the permission layer:
// requests, on-chain tokens, grouped permission bundles, configuration and
// the events a consent UI subscribes to.
//
// Four categories of permission are supported, each stored in its own admin
// basket as a single unspent token output:
//
//  1. protocol    — protocol usage (DPACP)
//  2. basket      — basket access (DBAP)
//  3. certificate — certificate field disclosure (DCAP)
//  4. spending    — monthly spending authorization (DSAP)
//
// Label usage is not a fifth category: it is checked as a synthetic protocol
// permission named "action label <label>" at security level 1.
package permissions

import (
	validation "github.com/jellydator/validation"

	appvalidation "github.com/allisson/walletguard/internal/validation"
	"github.com/allisson/walletguard/wallet"
)

// Type discriminates the permission request union.
type Type string

const (
	// TypeProtocol requests protocol usage permission.
	TypeProtocol Type = "protocol"
	// TypeBasket requests basket access permission.
	TypeBasket Type = "basket"
	// TypeCertificate requests certificate disclosure permission.
	TypeCertificate Type = "certificate"
	// TypeSpending requests spending authorization.
	TypeSpending Type = "spending"
)

// CertificateDetails carries the certificate variant of a request.
type CertificateDetails struct {
	Verifier string
	CertType string
	Fields   []string
}

// LineItemType classifies one line of a spending breakdown.
type LineItemType string

const (
	// LineItemInput is a caller-supplied input.
	LineItemInput LineItemType = "input"
	// LineItemOutput is a caller-requested output.
	LineItemOutput LineItemType = "output"
	// LineItemFee is the network fee.
	LineItemFee LineItemType = "fee"
)

// LineItem is one human-readable line of a spending breakdown shown to the
// user alongside a spending authorization request.
type LineItem struct {
	Type        LineItemType
	Description string
	Satoshis    int64
}

// SpendingDetails carries the spending variant of a request.
type SpendingDetails struct {
	Satoshis  int64
	LineItems []LineItem
}

// Request is a single permission the user must grant or deny. Exactly the
// variant payload matching Type is populated. Denial causes the gated wallet
// operation to fail; a grant optionally creates or renews an on-chain token.
type Request struct {
	Type       Type
	Originator string

	// Privileged marks privileged key usage for protocol and certificate
	// requests.
	Privileged bool

	// ProtocolID and Counterparty apply to TypeProtocol.
	ProtocolID   wallet.ProtocolID
	Counterparty string

	// Basket applies to TypeBasket.
	Basket string

	// Certificate applies to TypeCertificate.
	Certificate *CertificateDetails

	// Spending applies to TypeSpending.
	Spending *SpendingDetails

	// Reason is a human-readable explanation shown to the user.
	Reason string

	// Renewal marks a request that replaces an expired or exhausted token.
	Renewal bool

	// PreviousToken references the token being renewed when Renewal is set.
	PreviousToken *Token
}

// Validate checks structural consistency of the request: a known type, an
// originator, and the variant payload matching the type.
func (r Request) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required, validation.In(
			TypeProtocol, TypeBasket, TypeCertificate, TypeSpending,
		)),
		validation.Field(&r.Originator, validation.Required),
		validation.Field(&r.ProtocolID, validation.By(func(any) error {
			if r.Type == TypeProtocol && r.ProtocolID.Name == "" {
				return validation.NewError("validation_protocol_name", "protocol name is required")
			}
			return nil
		})),
		validation.Field(&r.Basket, validation.By(func(any) error {
			if r.Type == TypeBasket && r.Basket == "" {
				return validation.NewError("validation_basket_name", "basket name is required")
			}
			return nil
		})),
		validation.Field(&r.Certificate, validation.By(func(any) error {
			if r.Type != TypeCertificate {
				return nil
			}
			if r.Certificate == nil || r.Certificate.CertType == "" || r.Certificate.Verifier == "" {
				return validation.NewError("validation_certificate", "certificate details are required")
			}
			return appvalidation.NonEmptyFields{}.Validate(r.Certificate.Fields)
		})),
		validation.Field(&r.Spending, validation.By(func(any) error {
			if r.Type != TypeSpending {
				return nil
			}
			if r.Spending == nil {
				return validation.NewError("validation_spending", "spending details are required")
			}
			if r.Spending.Satoshis < 0 {
				return validation.NewError("validation_spending_amount", "spending amount must not be negative")
			}
			return nil
		})),
	)
	return appvalidation.WrapValidationError(err)
}
