package permissions_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/walletguard/internal/errors"
	"github.com/allisson/walletguard/permissions"
	"github.com/allisson/walletguard/wallet"
)

func protocolRequest() permissions.Request {
	return permissions.Request{
		Type:         permissions.TypeProtocol,
		Originator:   "app.example.com",
		ProtocolID:   wallet.ProtocolID{SecurityLevel: 2, Name: "document signing"},
		Counterparty: "self",
	}
}

func TestRequestValidate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		req := protocolRequest()
		require.NoError(t, req.Validate())
	})

	t.Run("Error_MissingOriginator", func(t *testing.T) {
		req := protocolRequest()
		req.Originator = ""
		err := req.Validate()
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})

	t.Run("Error_UnknownType", func(t *testing.T) {
		req := protocolRequest()
		req.Type = "bogus"
		assert.Error(t, req.Validate())
	})

	t.Run("Error_ProtocolWithoutName", func(t *testing.T) {
		req := protocolRequest()
		req.ProtocolID.Name = ""
		assert.Error(t, req.Validate())
	})

	t.Run("Error_BasketWithoutName", func(t *testing.T) {
		req := permissions.Request{Type: permissions.TypeBasket, Originator: "app.example.com"}
		assert.Error(t, req.Validate())
	})

	t.Run("Error_CertificateWithoutDetails", func(t *testing.T) {
		req := permissions.Request{Type: permissions.TypeCertificate, Originator: "app.example.com"}
		assert.Error(t, req.Validate())
	})

	t.Run("Error_CertificateWithEmptyField", func(t *testing.T) {
		req := permissions.Request{
			Type:       permissions.TypeCertificate,
			Originator: "app.example.com",
			Certificate: &permissions.CertificateDetails{
				Verifier: "02abc",
				CertType: "employment",
				Fields:   []string{"employer", ""},
			},
		}
		assert.Error(t, req.Validate())
	})

	t.Run("Error_NegativeSpending", func(t *testing.T) {
		req := permissions.Request{
			Type:       permissions.TypeSpending,
			Originator: "app.example.com",
			Spending:   &permissions.SpendingDetails{Satoshis: -1},
		}
		assert.Error(t, req.Validate())
	})
}

func TestFingerprint(t *testing.T) {
	t.Run("Protocol", func(t *testing.T) {
		got := permissions.Fingerprint(protocolRequest())
		assert.Equal(t, "proto:app.example.com:false:2,document signing:self", got)
	})

	t.Run("ProtocolPrivilegedDiffers", func(t *testing.T) {
		req := protocolRequest()
		plain := permissions.Fingerprint(req)
		req.Privileged = true
		assert.NotEqual(t, plain, permissions.Fingerprint(req))
	})

	t.Run("Basket", func(t *testing.T) {
		req := permissions.Request{
			Type:       permissions.TypeBasket,
			Originator: "app.example.com",
			Basket:     "todo tokens",
		}
		assert.Equal(t, "basket:app.example.com:todo tokens", permissions.Fingerprint(req))
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
		assert.Equal(t,
			"cert:app.example.com:false:02abc:age-verification:dateOfBirth|country",
			permissions.Fingerprint(req))
	})

	t.Run("Spending", func(t *testing.T) {
		req := permissions.Request{
			Type:       permissions.TypeSpending,
			Originator: "app.example.com",
			Spending:   &permissions.SpendingDetails{Satoshis: 500},
		}
		assert.Equal(t, "spend:app.example.com", permissions.Fingerprint(req))
	})

	t.Run("Group", func(t *testing.T) {
		assert.Equal(t, "group:app.example.com", permissions.GroupFingerprint("app.example.com"))
	})
}

func TestReservedNamespaces(t *testing.T) {
	t.Run("AdminProtocols", func(t *testing.T) {
		assert.True(t, permissions.IsAdminProtocol(wallet.ProtocolID{SecurityLevel: 2, Name: "admin permission token encryption"}))
		assert.True(t, permissions.IsAdminProtocol(wallet.ProtocolID{SecurityLevel: 1, Name: "p internal"}))
		assert.False(t, permissions.IsAdminProtocol(wallet.ProtocolID{SecurityLevel: 1, Name: "document signing"}))
	})

	t.Run("AdminBaskets", func(t *testing.T) {
		assert.True(t, permissions.IsAdminBasket("default"))
		assert.True(t, permissions.IsAdminBasket("admin protocol-permission"))
		assert.True(t, permissions.IsAdminBasket("p reserved"))
		assert.False(t, permissions.IsAdminBasket("todo tokens"))
	})

	t.Run("AdminLabels", func(t *testing.T) {
		assert.True(t, permissions.IsAdminLabel("admin originator app.example.com"))
		assert.True(t, permissions.IsAdminLabel("p tracking"))
		assert.False(t, permissions.IsAdminLabel("invoice"))
	})

	t.Run("BasketForType", func(t *testing.T) {
		assert.Equal(t, permissions.BasketProtocolPermission, permissions.AdminBasketFor(permissions.TypeProtocol))
		assert.Equal(t, permissions.BasketBasketAccess, permissions.AdminBasketFor(permissions.TypeBasket))
		assert.Equal(t, permissions.BasketCertificateAccess, permissions.AdminBasketFor(permissions.TypeCertificate))
		assert.Equal(t, permissions.BasketSpendingAuthorization, permissions.AdminBasketFor(permissions.TypeSpending))
	})
}

func TestTokenExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("ZeroNeverExpires", func(t *testing.T) {
		tok := permissions.Token{Expiry: 0}
		assert.False(t, tok.ExpiredAt(now))
	})

	t.Run("PastExpiry", func(t *testing.T) {
		tok := permissions.Token{Expiry: now.Add(-time.Hour).Unix()}
		assert.True(t, tok.ExpiredAt(now))
	})

	t.Run("FutureExpiry", func(t *testing.T) {
		tok := permissions.Token{Expiry: now.Add(time.Hour).Unix()}
		assert.False(t, tok.ExpiredAt(now))
	})
}

func TestValidateGrantedSubset(t *testing.T) {
	requested := permissions.GroupedPermissions{
		Protocols: []permissions.GroupedProtocol{
			{ProtocolID: wallet.ProtocolID{SecurityLevel: 1, Name: "document signing"}, Counterparty: "self"},
		},
		Baskets: []permissions.GroupedBasket{{Basket: "todo tokens"}},
		Certificates: []permissions.GroupedCertificate{
			{Type: "age-verification", Verifier: "02abc", Fields: []string{"dateOfBirth", "country"}},
		},
		Spending: &permissions.GroupedSpending{AuthorizedAmount: 10000},
	}

	t.Run("Success_Identical", func(t *testing.T) {
		require.NoError(t, permissions.ValidateGrantedSubset(requested, requested))
	})

	t.Run("Success_Narrowed", func(t *testing.T) {
		granted := permissions.GroupedPermissions{
			Certificates: []permissions.GroupedCertificate{
				{Type: "age-verification", Verifier: "02abc", Fields: []string{"dateOfBirth"}},
			},
			Spending: &permissions.GroupedSpending{AuthorizedAmount: 5000},
		}
		require.NoError(t, permissions.ValidateGrantedSubset(requested, granted))
	})

	t.Run("Error_UnrequestedProtocol", func(t *testing.T) {
		granted := permissions.GroupedPermissions{
			Protocols: []permissions.GroupedProtocol{
				{ProtocolID: wallet.ProtocolID{SecurityLevel: 2, Name: "key linkage"}, Counterparty: "self"},
			},
		}
		err := permissions.ValidateGrantedSubset(requested, granted)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, permissions.ErrGroupedSubsetViolation))
	})

	t.Run("Error_UnrequestedBasket", func(t *testing.T) {
		granted := permissions.GroupedPermissions{
			Baskets: []permissions.GroupedBasket{{Basket: "secrets"}},
		}
		assert.Error(t, permissions.ValidateGrantedSubset(requested, granted))
	})

	t.Run("Error_WidenedCertificateFields", func(t *testing.T) {
		granted := permissions.GroupedPermissions{
			Certificates: []permissions.GroupedCertificate{
				{Type: "age-verification", Verifier: "02abc", Fields: []string{"dateOfBirth", "fullName"}},
			},
		}
		assert.Error(t, permissions.ValidateGrantedSubset(requested, granted))
	})

	t.Run("Error_SpendingAboveRequested", func(t *testing.T) {
		granted := permissions.GroupedPermissions{
			Spending: &permissions.GroupedSpending{AuthorizedAmount: 20000},
		}
		assert.Error(t, permissions.ValidateGrantedSubset(requested, granted))
	})

	t.Run("Error_UnrequestedSpending", func(t *testing.T) {
		noSpend := requested
		noSpend.Spending = nil
		granted := permissions.GroupedPermissions{
			Spending: &permissions.GroupedSpending{AuthorizedAmount: 1},
		}
		assert.Error(t, permissions.ValidateGrantedSubset(noSpend, granted))
	})
}
