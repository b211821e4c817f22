package permissions

import (
	"strings"

	"github.com/allisson/walletguard/wallet"
)

// Baskets holding on-chain permission tokens. Only the wallet administrator
// may read or write them; every non-admin touch is rejected before any
// permission flow starts.
const (
	BasketProtocolPermission    = "admin protocol-permission"
	BasketBasketAccess          = "admin basket-access"
	BasketCertificateAccess     = "admin certificate-access"
	BasketSpendingAuthorization = "admin spending-authorization"
)

// AdminBasketFor returns the token basket backing the given permission type.
func AdminBasketFor(t Type) string {
	switch t {
	case TypeProtocol:
		return BasketProtocolPermission
	case TypeBasket:
		return BasketBasketAccess
	case TypeCertificate:
		return BasketCertificateAccess
	case TypeSpending:
		return BasketSpendingAuthorization
	default:
		return ""
	}
}

// IsAdminProtocol reports whether a protocol name sits in the reserved
// administrative namespace. Names starting with "admin" or "p " are only
// usable by the wallet administrator.
func IsAdminProtocol(p wallet.ProtocolID) bool {
	return strings.HasPrefix(p.Name, "admin") || strings.HasPrefix(p.Name, "p ")
}

// IsAdminBasket reports whether a basket name is reserved. The "default"
// basket and any name starting with "admin" or "p " belong to the wallet
// itself.
func IsAdminBasket(basket string) bool {
	return basket == "default" ||
		strings.HasPrefix(basket, "admin") ||
		strings.HasPrefix(basket, "p ")
}

// IsAdminLabel reports whether an action label is reserved for internal
// bookkeeping.
func IsAdminLabel(label string) bool {
	return strings.HasPrefix(label, "admin") || strings.HasPrefix(label, "p ")
}
