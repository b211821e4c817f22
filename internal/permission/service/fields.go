package service

import (
	"encoding/json"
	"strconv"

	"github.com/allisson/walletguard/internal/errors"
	"github.com/allisson/walletguard/permissions"
	"github.com/allisson/walletguard/wallet"
)

// Plaintext field layouts, by permission type. Order is part of the token
// format and must not change:
//
//	protocol:    originator, expiry, privileged, securityLevel, protocolName, counterparty
//	basket:      originator, expiry, basketName
//	certificate: originator, expiry, privileged, certType, fieldsJSON, verifier
//	spending:    originator, authorizedAmount

// ErrUnknownTokenFormat indicates a decoded token output does not follow the
// field layout of its basket.
var ErrUnknownTokenFormat = errors.New("unknown permission token format")

func encodeTokenFields(req permissions.Request, expiry int64, authorizedAmount int64) ([][]byte, error) {
	switch req.Type {
	case permissions.TypeProtocol:
		return [][]byte{
			[]byte(req.Originator),
			[]byte(strconv.FormatInt(expiry, 10)),
			[]byte(strconv.FormatBool(req.Privileged)),
			[]byte(strconv.Itoa(int(req.ProtocolID.SecurityLevel))),
			[]byte(req.ProtocolID.Name),
			[]byte(req.Counterparty),
		}, nil
	case permissions.TypeBasket:
		return [][]byte{
			[]byte(req.Originator),
			[]byte(strconv.FormatInt(expiry, 10)),
			[]byte(req.Basket),
		}, nil
	case permissions.TypeCertificate:
		if req.Certificate == nil {
			return nil, errors.Wrap(ErrUnknownTokenFormat, "certificate details missing")
		}
		fieldsJSON, err := json.Marshal(req.Certificate.Fields)
		if err != nil {
			return nil, err
		}
		return [][]byte{
			[]byte(req.Originator),
			[]byte(strconv.FormatInt(expiry, 10)),
			[]byte(strconv.FormatBool(req.Privileged)),
			[]byte(req.Certificate.CertType),
			fieldsJSON,
			[]byte(req.Certificate.Verifier),
		}, nil
	case permissions.TypeSpending:
		return [][]byte{
			[]byte(req.Originator),
			[]byte(strconv.FormatInt(authorizedAmount, 10)),
		}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownTokenFormat, "type %q", req.Type)
	}
}

func parseTokenFields(typ permissions.Type, fields [][]byte) (*permissions.Token, error) {
	tok := &permissions.Token{Type: typ}
	switch typ {
	case permissions.TypeProtocol:
		if len(fields) != 6 {
			return nil, errors.Wrapf(ErrUnknownTokenFormat, "protocol token has %d fields", len(fields))
		}
		expiry, err := strconv.ParseInt(string(fields[1]), 10, 64)
		if err != nil {
			return nil, errors.Wrap(ErrUnknownTokenFormat, "expiry")
		}
		level, err := strconv.Atoi(string(fields[3]))
		if err != nil {
			return nil, errors.Wrap(ErrUnknownTokenFormat, "security level")
		}
		tok.Originator = string(fields[0])
		tok.Expiry = expiry
		tok.Privileged = string(fields[2]) == "true"
		tok.SecurityLevel = wallet.SecurityLevel(level)
		tok.Protocol = string(fields[4])
		tok.Counterparty = string(fields[5])
	case permissions.TypeBasket:
		if len(fields) != 3 {
			return nil, errors.Wrapf(ErrUnknownTokenFormat, "basket token has %d fields", len(fields))
		}
		expiry, err := strconv.ParseInt(string(fields[1]), 10, 64)
		if err != nil {
			return nil, errors.Wrap(ErrUnknownTokenFormat, "expiry")
		}
		tok.Originator = string(fields[0])
		tok.Expiry = expiry
		tok.BasketName = string(fields[2])
	case permissions.TypeCertificate:
		if len(fields) != 6 {
			return nil, errors.Wrapf(ErrUnknownTokenFormat, "certificate token has %d fields", len(fields))
		}
		expiry, err := strconv.ParseInt(string(fields[1]), 10, 64)
		if err != nil {
			return nil, errors.Wrap(ErrUnknownTokenFormat, "expiry")
		}
		var certFields []string
		if err := json.Unmarshal(fields[4], &certFields); err != nil {
			return nil, errors.Wrap(ErrUnknownTokenFormat, "certificate fields")
		}
		tok.Originator = string(fields[0])
		tok.Expiry = expiry
		tok.Privileged = string(fields[2]) == "true"
		tok.CertType = string(fields[3])
		tok.CertFields = certFields
		tok.Verifier = string(fields[5])
	case permissions.TypeSpending:
		if len(fields) != 2 {
			return nil, errors.Wrapf(ErrUnknownTokenFormat, "spending token has %d fields", len(fields))
		}
		amount, err := strconv.ParseInt(string(fields[1]), 10, 64)
		if err != nil {
			return nil, errors.Wrap(ErrUnknownTokenFormat, "authorized amount")
		}
		tok.Originator = string(fields[0])
		tok.AuthorizedAmount = amount
	default:
		return nil, errors.Wrapf(ErrUnknownTokenFormat, "type %q", typ)
	}
	return tok, nil
}

// matches reports whether a decoded token authorizes exactly the given
// request. All discriminators must match; expiry is deliberately ignored so
// expired tokens can be surfaced for renewal.
func matches(tok *permissions.Token, req permissions.Request) bool {
	if tok.Originator != req.Originator {
		return false
	}
	switch req.Type {
	case permissions.TypeProtocol:
		return tok.Privileged == req.Privileged &&
			tok.SecurityLevel == req.ProtocolID.SecurityLevel &&
			tok.Protocol == req.ProtocolID.Name &&
			tok.Counterparty == req.Counterparty
	case permissions.TypeBasket:
		return tok.BasketName == req.Basket
	case permissions.TypeCertificate:
		if req.Certificate == nil {
			return false
		}
		if tok.Privileged != req.Privileged ||
			tok.CertType != req.Certificate.CertType ||
			tok.Verifier != req.Certificate.Verifier {
			return false
		}
		// every requested field must be covered by the token
		for _, f := range req.Certificate.Fields {
			if !containsField(tok.CertFields, f) {
				return false
			}
		}
		return true
	case permissions.TypeSpending:
		return true
	default:
		return false
	}
}

func containsField(fields []string, want string) bool {
	for _, f := range fields {
		if f == want {
			return true
		}
	}
	return false
}
