package permissions

import (
	"github.com/allisson/walletguard/internal/errors"
	"github.com/allisson/walletguard/wallet"
)

// GroupedProtocol is one protocol entry of a grouped permission bundle.
type GroupedProtocol struct {
	ProtocolID   wallet.ProtocolID
	Counterparty string
	Description  string
}

// GroupedBasket is one basket entry of a grouped permission bundle.
type GroupedBasket struct {
	Basket      string
	Description string
}

// GroupedCertificate is one certificate entry of a grouped permission
// bundle.
type GroupedCertificate struct {
	Type        string
	Fields      []string
	Verifier    string
	Description string
}

// GroupedSpending is the spending entry of a grouped permission bundle.
type GroupedSpending struct {
	AuthorizedAmount int64
	Description      string
}

// GroupedPermissions is the bundle of permissions an originator requests up
// front, typically published in its manifest and presented during
// authentication as a single prompt.
type GroupedPermissions struct {
	Description  string
	Protocols    []GroupedProtocol
	Baskets      []GroupedBasket
	Certificates []GroupedCertificate
	Spending     *GroupedSpending
}

// Empty reports whether the bundle requests nothing.
func (g GroupedPermissions) Empty() bool {
	return len(g.Protocols) == 0 && len(g.Baskets) == 0 &&
		len(g.Certificates) == 0 && g.Spending == nil
}

// ValidateGrantedSubset checks that every item in granted appears in
// requested. The user may narrow a grouped request but never widen it:
// unknown protocols, baskets or certificate types are rejected, certificate
// field lists must be subsets of what was requested, and a granted spending
// amount must not exceed the requested one.
func ValidateGrantedSubset(requested, granted GroupedPermissions) error {
	for _, gp := range granted.Protocols {
		if !containsProtocol(requested.Protocols, gp) {
			return errors.Wrapf(ErrGroupedSubsetViolation,
				"protocol %d,%q with counterparty %q was not requested",
				gp.ProtocolID.SecurityLevel, gp.ProtocolID.Name, gp.Counterparty)
		}
	}
	for _, gb := range granted.Baskets {
		if !containsBasket(requested.Baskets, gb.Basket) {
			return errors.Wrapf(ErrGroupedSubsetViolation, "basket %q was not requested", gb.Basket)
		}
	}
	for _, gc := range granted.Certificates {
		req, ok := findCertificate(requested.Certificates, gc)
		if !ok {
			return errors.Wrapf(ErrGroupedSubsetViolation,
				"certificate type %q with verifier %q was not requested", gc.Type, gc.Verifier)
		}
		for _, f := range gc.Fields {
			if !containsString(req.Fields, f) {
				return errors.Wrapf(ErrGroupedSubsetViolation,
					"certificate field %q was not requested for type %q", f, gc.Type)
			}
		}
	}
	if granted.Spending != nil {
		if requested.Spending == nil {
			return errors.Wrap(ErrGroupedSubsetViolation, "spending authorization was not requested")
		}
		if granted.Spending.AuthorizedAmount > requested.Spending.AuthorizedAmount {
			return errors.Wrapf(ErrGroupedSubsetViolation,
				"granted spending amount %d exceeds requested %d",
				granted.Spending.AuthorizedAmount, requested.Spending.AuthorizedAmount)
		}
	}
	return nil
}

func containsProtocol(items []GroupedProtocol, want GroupedProtocol) bool {
	for _, it := range items {
		if it.ProtocolID == want.ProtocolID && it.Counterparty == want.Counterparty {
			return true
		}
	}
	return false
}

func containsBasket(items []GroupedBasket, basket string) bool {
	for _, it := range items {
		if it.Basket == basket {
			return true
		}
	}
	return false
}

func findCertificate(items []GroupedCertificate, want GroupedCertificate) (GroupedCertificate, bool) {
	for _, it := range items {
		if it.Type == want.Type && it.Verifier == want.Verifier {
			return it, true
		}
	}
	return GroupedCertificate{}, false
}

func containsString(items []string, want string) bool {
	for _, it := range items {
		if it == want {
			return true
		}
	}
	return false
}
