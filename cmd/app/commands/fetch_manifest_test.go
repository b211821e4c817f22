package commands

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	walletguard "github.com/allisson/walletguard"
)

func TestRunFetchManifest(t *testing.T) {
	ctx := context.Background()

	newServer := func(t *testing.T, body string, status int) string {
		t.Helper()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(body))
		}))
		t.Cleanup(srv.Close)
		return strings.TrimPrefix(srv.URL, "http://")
	}

	t.Run("prints grouped permissions", func(t *testing.T) {
		originator := newServer(t, `{
			"babbage": {"groupPermissions": {
				"description": "note taking",
				"basketAccess": [{"basket": "notes"}],
				"spendingAuthorization": {"amount": 1000}
			}}
		}`, http.StatusOK)

		var buf bytes.Buffer
		err := RunFetchManifest(ctx, walletguard.NewHTTPManifestFetcher(0), originator, "text", IOTuple{Writer: &buf})
		require.NoError(t, err)

		out := buf.String()
		assert.Contains(t, out, "note taking")
		assert.Contains(t, out, "basket:      notes")
		assert.Contains(t, out, "1000 satoshis per month")
	})

	t.Run("reports absent manifest", func(t *testing.T) {
		originator := newServer(t, "", http.StatusNotFound)

		var buf bytes.Buffer
		err := RunFetchManifest(ctx, walletguard.NewHTTPManifestFetcher(0), originator, "text", IOTuple{Writer: &buf})
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "publishes no grouped permissions")
	})

	t.Run("rejects empty originator", func(t *testing.T) {
		err := RunFetchManifest(ctx, walletguard.NewHTTPManifestFetcher(0), "", "text", DefaultIO())
		assert.Error(t, err)
	})
}
