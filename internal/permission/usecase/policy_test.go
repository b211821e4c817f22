package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/walletguard/internal/permission/service"
	"github.com/allisson/walletguard/internal/permission/usecase"
	"github.com/allisson/walletguard/internal/testutil"
	"github.com/allisson/walletguard/permissions"
	"github.com/allisson/walletguard/wallet"
)

const adminOriginator = "admin.wallet"

// stubCoordinator records Await calls and resolves them with a canned
// outcome.
type stubCoordinator struct {
	mu       sync.Mutex
	requests []permissions.Request
	outcome  error
}

func (s *stubCoordinator) Await(_ context.Context, req permissions.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.outcome
}

func (s *stubCoordinator) calls() []permissions.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]permissions.Request(nil), s.requests...)
}

type fixture struct {
	wallet      *testutil.FakeWallet
	store       *service.Store
	lifecycle   *service.Lifecycle
	cache       *service.Cache
	coordinator *stubCoordinator
	config      permissions.Config
	useCase     usecase.PermissionUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fw := testutil.NewFakeWallet()
	cipher := service.NewTokenCipher(fw, adminOriginator)

	f := &fixture{
		wallet:      fw,
		store:       service.NewStore(fw, cipher, adminOriginator),
		lifecycle:   service.NewLifecycle(fw, cipher, adminOriginator),
		cache:       service.NewCache(0),
		coordinator: &stubCoordinator{},
		config:      permissions.DefaultConfig(),
	}
	f.useCase = usecase.NewPermissionUseCase(
		adminOriginator,
		func() permissions.Config { return f.config },
		f.store,
		f.lifecycle,
		f.coordinator,
		f.cache,
		nil,
	)
	return f
}

func signingParams(originator string) usecase.ProtocolParams {
	return usecase.ProtocolParams{
		Originator:   originator,
		ProtocolID:   wallet.ProtocolID{SecurityLevel: 2, Name: "document signing"},
		Counterparty: "self",
		Usage:        permissions.ProtocolUsageSigning,
		Seek:         true,
	}
}

func TestEnsureProtocol(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_AdminBypass", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.useCase.EnsureProtocol(ctx, signingParams(adminOriginator)))
		assert.Empty(t, f.coordinator.calls())
	})

	t.Run("Success_OpenSecurityLevel", func(t *testing.T) {
		f := newFixture(t)
		params := signingParams("app.example.com")
		params.ProtocolID.SecurityLevel = 0
		require.NoError(t, f.useCase.EnsureProtocol(ctx, params))
		assert.Empty(t, f.coordinator.calls())
	})

	t.Run("Success_OpenLevelBeatsReservedName", func(t *testing.T) {
		f := newFixture(t)
		params := signingParams("app.example.com")
		params.ProtocolID = wallet.ProtocolID{SecurityLevel: 0, Name: "admin open thing"}
		require.NoError(t, f.useCase.EnsureProtocol(ctx, params))
	})

	t.Run("Error_AdminProtocolNamespace", func(t *testing.T) {
		f := newFixture(t)
		params := signingParams("app.example.com")
		params.ProtocolID.Name = "admin permission token encryption"
		err := f.useCase.EnsureProtocol(ctx, params)
		assert.ErrorIs(t, err, permissions.ErrAdminOnly)
	})

	t.Run("Success_ConfigBypass", func(t *testing.T) {
		f := newFixture(t)
		f.config.SeekProtocolPermissionsForSigning = false
		require.NoError(t, f.useCase.EnsureProtocol(ctx, signingParams("app.example.com")))
		assert.Empty(t, f.coordinator.calls())
	})

	t.Run("Success_ValidTokenAllowsAndCaches", func(t *testing.T) {
		f := newFixture(t)
		params := signingParams("app.example.com")
		req := permissions.Request{
			Type:         permissions.TypeProtocol,
			Originator:   params.Originator,
			ProtocolID:   params.ProtocolID,
			Counterparty: "self",
		}
		_, err := f.lifecycle.Create(ctx, req, time.Now().Add(time.Hour).Unix(), 0)
		require.NoError(t, err)

		require.NoError(t, f.useCase.EnsureProtocol(ctx, params))
		assert.Empty(t, f.coordinator.calls())
		assert.True(t, f.cache.Valid(permissions.Fingerprint(req)))
	})

	t.Run("Error_ExpiredTokenWithoutSeek", func(t *testing.T) {
		f := newFixture(t)
		params := signingParams("app.example.com")
		params.Seek = false
		req := permissions.Request{
			Type:         permissions.TypeProtocol,
			Originator:   params.Originator,
			ProtocolID:   params.ProtocolID,
			Counterparty: "self",
		}
		_, err := f.lifecycle.Create(ctx, req, time.Now().Add(-time.Hour).Unix(), 0)
		require.NoError(t, err)

		err = f.useCase.EnsureProtocol(ctx, params)
		assert.ErrorIs(t, err, permissions.ErrPermissionExpired)
	})

	t.Run("Success_ExpiredTokenSeeksRenewal", func(t *testing.T) {
		f := newFixture(t)
		params := signingParams("app.example.com")
		req := permissions.Request{
			Type:         permissions.TypeProtocol,
			Originator:   params.Originator,
			ProtocolID:   params.ProtocolID,
			Counterparty: "self",
		}
		_, err := f.lifecycle.Create(ctx, req, time.Now().Add(-time.Hour).Unix(), 0)
		require.NoError(t, err)

		require.NoError(t, f.useCase.EnsureProtocol(ctx, params))
		calls := f.coordinator.calls()
		require.Len(t, calls, 1)
		assert.True(t, calls[0].Renewal)
		require.NotNil(t, calls[0].PreviousToken)
		assert.Equal(t, "document signing", calls[0].PreviousToken.Protocol)
	})

	t.Run("Error_MissingTokenWithoutSeek", func(t *testing.T) {
		f := newFixture(t)
		params := signingParams("app.example.com")
		params.Seek = false
		err := f.useCase.EnsureProtocol(ctx, params)
		assert.ErrorIs(t, err, permissions.ErrPermissionNotFound)
	})

	t.Run("Error_PromptDenied", func(t *testing.T) {
		f := newFixture(t)
		f.coordinator.outcome = permissions.ErrPermissionDenied
		err := f.useCase.EnsureProtocol(ctx, signingParams("app.example.com"))
		assert.ErrorIs(t, err, permissions.ErrPermissionDenied)
	})

	t.Run("Success_PrivilegedNormalizedWhenNotDifferentiated", func(t *testing.T) {
		f := newFixture(t)
		f.config.DifferentiatePrivilegedOperations = false
		params := signingParams("app.example.com")
		params.Privileged = true

		require.NoError(t, f.useCase.EnsureProtocol(ctx, params))
		calls := f.coordinator.calls()
		require.Len(t, calls, 1)
		assert.False(t, calls[0].Privileged)
	})
}

func TestEnsureBasket(t *testing.T) {
	ctx := context.Background()

	t.Run("Error_ReservedBaskets", func(t *testing.T) {
		f := newFixture(t)
		for _, basket := range []string{"default", "admin protocol-permission", "p internal"} {
			err := f.useCase.EnsureBasket(ctx, usecase.BasketParams{
				Originator: "app.example.com",
				Basket:     basket,
				Usage:      permissions.BasketUsageInsertion,
				Seek:       true,
			})
			assert.ErrorIs(t, err, permissions.ErrAdminOnly, basket)
		}
	})

	t.Run("Success_UsageBypass", func(t *testing.T) {
		f := newFixture(t)
		f.config.SeekBasketListingPermissions = false
		require.NoError(t, f.useCase.EnsureBasket(ctx, usecase.BasketParams{
			Originator: "app.example.com",
			Basket:     "todo tokens",
			Usage:      permissions.BasketUsageListing,
			Seek:       true,
		}))
		assert.Empty(t, f.coordinator.calls())
	})

	t.Run("Success_PromptOnMissingToken", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.useCase.EnsureBasket(ctx, usecase.BasketParams{
			Originator: "app.example.com",
			Basket:     "todo tokens",
			Usage:      permissions.BasketUsageInsertion,
			Seek:       true,
		}))
		calls := f.coordinator.calls()
		require.Len(t, calls, 1)
		assert.Equal(t, permissions.TypeBasket, calls[0].Type)
		assert.Equal(t, "todo tokens", calls[0].Basket)
	})
}

func TestEnsureCertificate(t *testing.T) {
	ctx := context.Background()

	certParams := func() usecase.CertificateParams {
		return usecase.CertificateParams{
			Originator: "app.example.com",
			Verifier:   "02abc",
			CertType:   "age-verification",
			Fields:     []string{"dateOfBirth"},
			Usage:      permissions.CertificateUsageDisclosure,
			Seek:       true,
		}
	}

	t.Run("Success_TokenCoversRequestedFields", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.lifecycle.Create(ctx, permissions.Request{
			Type:       permissions.TypeCertificate,
			Originator: "app.example.com",
			Certificate: &permissions.CertificateDetails{
				Verifier: "02abc",
				CertType: "age-verification",
				Fields:   []string{"dateOfBirth", "country"},
			},
		}, time.Now().Add(time.Hour).Unix(), 0)
		require.NoError(t, err)

		require.NoError(t, f.useCase.EnsureCertificate(ctx, certParams()))
		assert.Empty(t, f.coordinator.calls())
	})

	t.Run("Success_UncoveredFieldPrompts", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.lifecycle.Create(ctx, permissions.Request{
			Type:       permissions.TypeCertificate,
			Originator: "app.example.com",
			Certificate: &permissions.CertificateDetails{
				Verifier: "02abc",
				CertType: "age-verification",
				Fields:   []string{"dateOfBirth"},
			},
		}, time.Now().Add(time.Hour).Unix(), 0)
		require.NoError(t, err)

		params := certParams()
		params.Fields = []string{"dateOfBirth", "passportNumber"}
		require.NoError(t, f.useCase.EnsureCertificate(ctx, params))
		assert.Len(t, f.coordinator.calls(), 1)
	})
}

func TestEnsureSpending(t *testing.T) {
	ctx := context.Background()

	authorize := func(t *testing.T, f *fixture, amount int64) {
		t.Helper()
		_, err := f.lifecycle.Create(ctx, permissions.Request{
			Type:       permissions.TypeSpending,
			Originator: "app.example.com",
			Spending:   &permissions.SpendingDetails{Satoshis: amount},
		}, 0, amount)
		require.NoError(t, err)
	}

	spend := func(satoshis int64, seek bool) usecase.SpendingParams {
		return usecase.SpendingParams{
			Originator: "app.example.com",
			Satoshis:   satoshis,
			Seek:       seek,
		}
	}

	seedSpent := func(f *fixture, amount int64) {
		month := service.MonthTag(time.Now())
		f.wallet.AddAction([]string{
			service.OriginatorLabel("app.example.com"),
			service.MonthLabel(month),
		}, amount)
	}

	t.Run("Success_WithinMonthlyCap", func(t *testing.T) {
		f := newFixture(t)
		authorize(t, f, 10000)
		seedSpent(f, 9500)
		require.NoError(t, f.useCase.EnsureSpending(ctx, spend(400, false)))
		assert.Empty(t, f.coordinator.calls())
	})

	t.Run("Error_ExceedsMonthlyCap", func(t *testing.T) {
		f := newFixture(t)
		authorize(t, f, 10000)
		seedSpent(f, 9500)
		err := f.useCase.EnsureSpending(ctx, spend(600, false))
		assert.ErrorIs(t, err, permissions.ErrSpendingLimitExceeded)
	})

	t.Run("Success_ExceededCapSeeksRenewal", func(t *testing.T) {
		f := newFixture(t)
		authorize(t, f, 10000)
		seedSpent(f, 9500)
		require.NoError(t, f.useCase.EnsureSpending(ctx, spend(600, true)))
		calls := f.coordinator.calls()
		require.Len(t, calls, 1)
		assert.True(t, calls[0].Renewal)
		require.NotNil(t, calls[0].PreviousToken)
		assert.Equal(t, int64(10000), calls[0].PreviousToken.AuthorizedAmount)
	})

	t.Run("Success_PassingCheckIsCached", func(t *testing.T) {
		f := newFixture(t)
		authorize(t, f, 10000)
		require.NoError(t, f.useCase.EnsureSpending(ctx, spend(400, false)))

		fp := permissions.Fingerprint(permissions.Request{
			Type:       permissions.TypeSpending,
			Originator: "app.example.com",
		})
		assert.True(t, f.cache.Valid(fp))
	})

	t.Run("Success_CachedCheckSkipsTokenLookup", func(t *testing.T) {
		f := newFixture(t)
		fp := permissions.Fingerprint(permissions.Request{
			Type:       permissions.TypeSpending,
			Originator: "app.example.com",
		})
		f.cache.Put(fp, 0)

		// no token and no spending history exist; the cache entry alone
		// authorizes within its TTL
		require.NoError(t, f.useCase.EnsureSpending(ctx, spend(400, false)))
		assert.Empty(t, f.coordinator.calls())
	})

	t.Run("Error_NoAuthorizationWithoutSeek", func(t *testing.T) {
		f := newFixture(t)
		err := f.useCase.EnsureSpending(ctx, spend(100, false))
		assert.ErrorIs(t, err, permissions.ErrPermissionNotFound)
	})

	t.Run("Success_ConfigBypass", func(t *testing.T) {
		f := newFixture(t)
		f.config.SeekSpendingPermissions = false
		require.NoError(t, f.useCase.EnsureSpending(ctx, spend(100, false)))
	})
}

func TestEnsureLabel(t *testing.T) {
	ctx := context.Background()

	t.Run("Error_AdminLabel", func(t *testing.T) {
		f := newFixture(t)
		err := f.useCase.EnsureLabel(ctx, usecase.LabelParams{
			Originator: "app.example.com",
			Label:      "admin originator x",
			Usage:      permissions.LabelUsageApply,
			Seek:       true,
		})
		assert.ErrorIs(t, err, permissions.ErrAdminOnly)
	})

	t.Run("Success_SyntheticProtocolRequest", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.useCase.EnsureLabel(ctx, usecase.LabelParams{
			Originator: "app.example.com",
			Label:      "invoice",
			Usage:      permissions.LabelUsageApply,
			Seek:       true,
		}))
		calls := f.coordinator.calls()
		require.Len(t, calls, 1)
		assert.Equal(t, permissions.TypeProtocol, calls[0].Type)
		assert.Equal(t, wallet.ProtocolID{SecurityLevel: 1, Name: "action label invoice"}, calls[0].ProtocolID)
		assert.Equal(t, "self", calls[0].Counterparty)
		assert.False(t, calls[0].Privileged)
	})

	t.Run("Success_ListingBypass", func(t *testing.T) {
		f := newFixture(t)
		f.config.SeekPermissionWhenListingActionsByLabel = false
		require.NoError(t, f.useCase.EnsureLabel(ctx, usecase.LabelParams{
			Originator: "app.example.com",
			Label:      "invoice",
			Usage:      permissions.LabelUsageList,
			Seek:       true,
		}))
		assert.Empty(t, f.coordinator.calls())
	})
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req := permissions.Request{
		Type:       permissions.TypeBasket,
		Originator: "app.example.com",
		Basket:     "todo tokens",
	}
	tok, err := f.lifecycle.Create(ctx, req, time.Now().Add(time.Hour).Unix(), 0)
	require.NoError(t, err)

	// warm the cache through a successful check
	require.NoError(t, f.useCase.EnsureBasket(ctx, usecase.BasketParams{
		Originator: "app.example.com",
		Basket:     "todo tokens",
		Usage:      permissions.BasketUsageInsertion,
		Seek:       false,
	}))
	require.True(t, f.cache.Valid(permissions.Fingerprint(req)))

	require.NoError(t, f.useCase.Revoke(ctx, tok))
	assert.False(t, f.cache.Valid(permissions.Fingerprint(req)))
	assert.Empty(t, f.wallet.OutputsInBasket(permissions.BasketBasketAccess))

	err = f.useCase.EnsureBasket(ctx, usecase.BasketParams{
		Originator: "app.example.com",
		Basket:     "todo tokens",
		Usage:      permissions.BasketUsageInsertion,
		Seek:       false,
	})
	assert.ErrorIs(t, err, permissions.ErrPermissionNotFound)
}

func TestListAndSpentQueries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, origin := range []string{"a.example.com", "b.example.com"} {
		_, err := f.lifecycle.Create(ctx, permissions.Request{
			Type:       permissions.TypeBasket,
			Originator: origin,
			Basket:     "todo tokens",
		}, time.Now().Add(time.Hour).Unix(), 0)
		require.NoError(t, err)
	}

	tokens, err := f.useCase.List(ctx, permissions.TypeBasket, "")
	require.NoError(t, err)
	assert.Len(t, tokens, 2)

	tokens, err = f.useCase.List(ctx, permissions.TypeBasket, "a.example.com")
	require.NoError(t, err)
	assert.Len(t, tokens, 1)

	month := service.MonthTag(time.Now())
	f.wallet.AddAction([]string{service.OriginatorLabel("a.example.com"), service.MonthLabel(month)}, 1234)
	total, err := f.useCase.SpentThisMonth(ctx, "a.example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1234), total)
}
