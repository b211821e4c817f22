package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/walletguard/internal/config"
)

func TestRunShowConfig(t *testing.T) {
	t.Run("text output", func(t *testing.T) {
		os.Clearenv()
		var buf bytes.Buffer

		err := RunShowConfig(config.Load(), "text", IOTuple{Writer: &buf})
		require.NoError(t, err)

		out := buf.String()
		assert.Contains(t, out, "Admin originator:")
		assert.Contains(t, out, "admin.wallet")
		assert.Contains(t, out, "Spending checks:        true")
	})

	t.Run("json output", func(t *testing.T) {
		os.Clearenv()
		require.NoError(t, os.Setenv("ADMIN_ORIGINATOR", "wallet.internal"))
		var buf bytes.Buffer

		err := RunShowConfig(config.Load(), "json", IOTuple{Writer: &buf})
		require.NoError(t, err)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
		assert.Equal(t, "wallet.internal", doc["adminOriginator"])
		assert.NotNil(t, doc["enforcement"])
	})
}
