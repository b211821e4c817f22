package permissions

import (
	"fmt"
	"strings"
)

// Fingerprint derives the canonical key identifying a request by its type and
// discriminators. Identical requests share a fingerprint, which is what
// merges concurrent callers into a single user prompt and what keys the
// permission cache. The fingerprint doubles as the request's correlation ID
// in emitted events.
func Fingerprint(r Request) string {
	switch r.Type {
	case TypeProtocol:
		return fmt.Sprintf("proto:%s:%t:%d,%s:%s",
			r.Originator, r.Privileged, r.ProtocolID.SecurityLevel, r.ProtocolID.Name, r.Counterparty)
	case TypeBasket:
		return fmt.Sprintf("basket:%s:%s", r.Originator, r.Basket)
	case TypeCertificate:
		var verifier, certType string
		var fields []string
		if r.Certificate != nil {
			verifier = r.Certificate.Verifier
			certType = r.Certificate.CertType
			fields = r.Certificate.Fields
		}
		return fmt.Sprintf("cert:%s:%t:%s:%s:%s",
			r.Originator, r.Privileged, verifier, certType, strings.Join(fields, "|"))
	case TypeSpending:
		return fmt.Sprintf("spend:%s", r.Originator)
	default:
		return fmt.Sprintf("unknown:%s:%s", r.Type, r.Originator)
	}
}

// GroupFingerprint derives the correlation ID for a grouped permission
// request; one grouped prompt is pending per originator at a time.
func GroupFingerprint(originator string) string {
	return "group:" + originator
}
