package walletguard_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	walletguard "github.com/allisson/walletguard"
	"github.com/allisson/walletguard/wallet"
)

const manifestBody = `{
	"babbage": {
		"groupPermissions": {
			"description": "everything the app needs",
			"protocolPermissions": [
				{"protocolID": [1, "note encryption"], "description": "encrypt notes"},
				{"protocolID": [2, "document signing"], "counterparty": "02aabb", "description": "sign documents"},
				{"protocolID": ["bad"], "description": "malformed, skipped"}
			],
			"basketAccess": [
				{"basket": "todo", "description": "track tasks"}
			],
			"certificateAccess": [
				{"type": "identity", "fields": ["name", "email"], "verifierPublicKey": "02ccdd", "description": "prove identity"}
			],
			"spendingAuthorization": {"amount": 5000, "description": "monthly budget"}
		}
	}
}`

func manifestServer(t *testing.T, handler http.HandlerFunc) (originator string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestHTTPManifestFetcher(t *testing.T) {
	ctx := context.Background()
	fetcher := walletguard.NewHTTPManifestFetcher(0)

	t.Run("Success_ParsesGroupedPermissions", func(t *testing.T) {
		originator := manifestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/manifest.json", r.URL.Path)
			w.Write([]byte(manifestBody))
		})

		grouped, err := fetcher.Fetch(ctx, originator)
		require.NoError(t, err)
		require.NotNil(t, grouped)
		assert.Equal(t, "everything the app needs", grouped.Description)

		require.Len(t, grouped.Protocols, 2)
		assert.Equal(t, wallet.ProtocolID{SecurityLevel: 1, Name: "note encryption"}, grouped.Protocols[0].ProtocolID)
		assert.Equal(t, "self", grouped.Protocols[0].Counterparty)
		assert.Equal(t, "02aabb", grouped.Protocols[1].Counterparty)

		require.Len(t, grouped.Baskets, 1)
		assert.Equal(t, "todo", grouped.Baskets[0].Basket)

		require.Len(t, grouped.Certificates, 1)
		assert.Equal(t, "identity", grouped.Certificates[0].Type)
		assert.Equal(t, "02ccdd", grouped.Certificates[0].Verifier)
		assert.ElementsMatch(t, []string{"name", "email"}, grouped.Certificates[0].Fields)

		require.NotNil(t, grouped.Spending)
		assert.Equal(t, int64(5000), grouped.Spending.AuthorizedAmount)
	})

	t.Run("Success_MissingManifestIsNotAnError", func(t *testing.T) {
		originator := manifestServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		grouped, err := fetcher.Fetch(ctx, originator)
		require.NoError(t, err)
		assert.Nil(t, grouped)
	})

	t.Run("Success_ManifestWithoutGroupPermissionsIsSkipped", func(t *testing.T) {
		originator := manifestServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"name": "some app", "babbage": {}}`))
		})

		grouped, err := fetcher.Fetch(ctx, originator)
		require.NoError(t, err)
		assert.Nil(t, grouped)
	})

	t.Run("Success_EmptyGroupPermissionsIsSkipped", func(t *testing.T) {
		originator := manifestServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"babbage": {"groupPermissions": {"description": "nothing requested"}}}`))
		})

		grouped, err := fetcher.Fetch(ctx, originator)
		require.NoError(t, err)
		assert.Nil(t, grouped)
	})

	t.Run("Error_ServerFailure", func(t *testing.T) {
		originator := manifestServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := fetcher.Fetch(ctx, originator)
		assert.Error(t, err)
	})

	t.Run("Error_MalformedDocument", func(t *testing.T) {
		originator := manifestServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"babbage": [`))
		})

		_, err := fetcher.Fetch(ctx, originator)
		assert.Error(t, err)
	})
}
