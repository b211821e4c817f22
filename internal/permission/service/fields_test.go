package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/walletguard/permissions"
	"github.com/allisson/walletguard/wallet"
)

func TestTokenFieldRoundTrip(t *testing.T) {
	t.Run("Protocol", func(t *testing.T) {
		req := permissions.Request{
			Type:         permissions.TypeProtocol,
			Originator:   "app.example.com",
			Privileged:   true,
			ProtocolID:   wallet.ProtocolID{SecurityLevel: 2, Name: "document signing"},
			Counterparty: "02deadbeef",
		}
		fields, err := encodeTokenFields(req, 1750000000, 0)
		require.NoError(t, err)
		require.Len(t, fields, 6)

		tok, err := parseTokenFields(permissions.TypeProtocol, fields)
		require.NoError(t, err)
		assert.Equal(t, "app.example.com", tok.Originator)
		assert.Equal(t, int64(1750000000), tok.Expiry)
		assert.True(t, tok.Privileged)
		assert.Equal(t, wallet.SecurityLevel(2), tok.SecurityLevel)
		assert.Equal(t, "document signing", tok.Protocol)
		assert.Equal(t, "02deadbeef", tok.Counterparty)
		assert.True(t, matches(tok, req))
	})

	t.Run("Basket", func(t *testing.T) {
		req := permissions.Request{
			Type:       permissions.TypeBasket,
			Originator: "app.example.com",
			Basket:     "todo tokens",
		}
		fields, err := encodeTokenFields(req, 1750000000, 0)
		require.NoError(t, err)

		tok, err := parseTokenFields(permissions.TypeBasket, fields)
		require.NoError(t, err)
		assert.Equal(t, "todo tokens", tok.BasketName)
		assert.True(t, matches(tok, req))
	})

	t.Run("Certificate", func(t *testing.T) {
		req := permissions.Request{
			Type:       permissions.TypeCertificate,
			Originator: "app.example.com",
			Certificate: &permissions.CertificateDetails{
				Verifier: "02abc",
				CertType: "age-verification",
				Fields:   []string{"dateOfBirth", "country"},
			},
		}
		fields, err := encodeTokenFields(req, 1750000000, 0)
		require.NoError(t, err)

		tok, err := parseTokenFields(permissions.TypeCertificate, fields)
		require.NoError(t, err)
		assert.Equal(t, "age-verification", tok.CertType)
		assert.Equal(t, []string{"dateOfBirth", "country"}, tok.CertFields)
		assert.Equal(t, "02abc", tok.Verifier)
		assert.True(t, matches(tok, req))
	})

	t.Run("Spending", func(t *testing.T) {
		req := permissions.Request{
			Type:       permissions.TypeSpending,
			Originator: "app.example.com",
			Spending:   &permissions.SpendingDetails{Satoshis: 500},
		}
		fields, err := encodeTokenFields(req, 0, 10000)
		require.NoError(t, err)

		tok, err := parseTokenFields(permissions.TypeSpending, fields)
		require.NoError(t, err)
		assert.Equal(t, int64(10000), tok.AuthorizedAmount)
		assert.Zero(t, tok.Expiry)
		assert.True(t, matches(tok, req))
	})

	t.Run("Error_WrongFieldCount", func(t *testing.T) {
		_, err := parseTokenFields(permissions.TypeProtocol, [][]byte{[]byte("only")})
		assert.ErrorIs(t, err, ErrUnknownTokenFormat)
	})

	t.Run("Error_BadExpiry", func(t *testing.T) {
		_, err := parseTokenFields(permissions.TypeBasket, [][]byte{
			[]byte("app"), []byte("not-a-number"), []byte("basket"),
		})
		assert.ErrorIs(t, err, ErrUnknownTokenFormat)
	})
}

func TestMatches(t *testing.T) {
	t.Run("ProtocolCounterpartyMismatch", func(t *testing.T) {
		tok := &permissions.Token{
			Originator:    "app.example.com",
			SecurityLevel: 2,
			Protocol:      "document signing",
			Counterparty:  "self",
		}
		req := permissions.Request{
			Type:         permissions.TypeProtocol,
			Originator:   "app.example.com",
			ProtocolID:   wallet.ProtocolID{SecurityLevel: 2, Name: "document signing"},
			Counterparty: "02deadbeef",
		}
		assert.False(t, matches(tok, req))
	})

	t.Run("CertificateFieldSubsetCovered", func(t *testing.T) {
		tok := &permissions.Token{
			Originator: "app.example.com",
			CertType:   "age-verification",
			Verifier:   "02abc",
			CertFields: []string{"dateOfBirth", "country", "fullName"},
		}
		req := permissions.Request{
			Type:       permissions.TypeCertificate,
			Originator: "app.example.com",
			Certificate: &permissions.CertificateDetails{
				Verifier: "02abc",
				CertType: "age-verification",
				Fields:   []string{"country"},
			},
		}
		assert.True(t, matches(tok, req))

		req.Certificate.Fields = []string{"country", "passportNumber"}
		assert.False(t, matches(tok, req))
	})

	t.Run("OriginatorMismatch", func(t *testing.T) {
		tok := &permissions.Token{Originator: "other.example.com"}
		req := permissions.Request{Type: permissions.TypeSpending, Originator: "app.example.com"}
		assert.False(t, matches(tok, req))
	})
}
