package walletguard_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	walletguard "github.com/allisson/walletguard"
	"github.com/allisson/walletguard/permissions"
	"github.com/allisson/walletguard/wallet"
)

func TestCreateActionSpendingCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_NetSpendExcludesWalletFundingAndChange", func(t *testing.T) {
		fw, m := newManager(t)
		fw.Fee = 10
		rec := &eventRecorder{}
		bindDecision(t, m, rec, func(ev permissions.RequestEvent) error {
			return m.GrantPermission(ctx, ev.RequestID, walletguard.GrantOptions{AuthorizedAmount: 10000})
		})

		// the caller supplies a 1000 sat input of its own; the wallet adds
		// funding for the rest
		callerInput := fw.AddOutput("", 1000, []byte("caller script"))

		res, err := m.CreateAction(ctx, wallet.CreateActionArgs{
			Description: "send payment",
			Inputs: []wallet.CreateActionInput{
				{Outpoint: callerInput, UnlockingScript: []byte("unlock")},
			},
			Outputs: []wallet.CreateActionOutput{
				{Satoshis: 1500, LockingScript: []byte("recipient script")},
			},
		}, appOriginator)
		require.NoError(t, err)
		assert.NotEmpty(t, res.TxID)
		assert.NotEmpty(t, res.Tx)
		assert.Nil(t, res.SignableTransaction)

		require.Equal(t, 1, rec.count())
		req := rec.last().Request
		require.Equal(t, permissions.TypeSpending, req.Type)
		require.NotNil(t, req.Spending)
		assert.Equal(t, int64(510), req.Spending.Satoshis) // 1500 out + 10 fee - 1000 in
		require.Len(t, req.Spending.LineItems, 3)
		for _, item := range req.Spending.LineItems {
			assert.Positive(t, item.Satoshis)
			if item.Type == permissions.LineItemInput {
				assert.Equal(t, int64(1000), item.Satoshis)
			}
		}

		spent, err := m.QuerySpentSince(ctx, appOriginator)
		require.NoError(t, err)
		assert.Equal(t, int64(510), spent)
	})

	t.Run("Success_WithinAuthorizedAmountDoesNotPrompt", func(t *testing.T) {
		fw, m := newManager(t)
		fw.Fee = 10
		rec := &eventRecorder{}
		bindDecision(t, m, rec, func(ev permissions.RequestEvent) error {
			return m.GrantPermission(ctx, ev.RequestID, walletguard.GrantOptions{AuthorizedAmount: 10000})
		})

		_, err := m.CreateAction(ctx, wallet.CreateActionArgs{
			Outputs: []wallet.CreateActionOutput{{Satoshis: 100}},
		}, appOriginator)
		require.NoError(t, err)
		require.Equal(t, 1, rec.count())

		_, err = m.CreateAction(ctx, wallet.CreateActionArgs{
			Outputs: []wallet.CreateActionOutput{{Satoshis: 200}},
		}, appOriginator)
		require.NoError(t, err)
		assert.Equal(t, 1, rec.count())

		spent, err := m.QuerySpentSince(ctx, appOriginator)
		require.NoError(t, err)
		assert.Equal(t, int64(320), spent)
	})

	t.Run("Error_DenyAbortsTheTransaction", func(t *testing.T) {
		fw, m := newManager(t)
		rec := &eventRecorder{}
		bindDecision(t, m, rec, func(ev permissions.RequestEvent) error {
			return m.DenyPermission(ev.RequestID)
		})

		_, err := m.CreateAction(ctx, wallet.CreateActionArgs{
			Outputs: []wallet.CreateActionOutput{{Satoshis: 100}},
		}, appOriginator)
		assert.ErrorIs(t, err, permissions.ErrPermissionDenied)
		assert.Len(t, fw.AbortedReferences, 1)

		spent, err := m.QuerySpentSince(ctx, appOriginator)
		require.NoError(t, err)
		assert.Zero(t, spent)
	})

	t.Run("Error_ExplicitSignAndProcessIsReserved", func(t *testing.T) {
		fw, m := newManager(t)
		yes := true
		_, err := m.CreateAction(ctx, wallet.CreateActionArgs{
			Outputs: []wallet.CreateActionOutput{{Satoshis: 100}},
			Options: &wallet.CreateActionOptions{SignAndProcess: &yes},
		}, appOriginator)
		assert.ErrorIs(t, err, permissions.ErrSignAndProcessReserved)
		assert.Empty(t, fw.CreateActionCalls)
	})

	t.Run("Success_AdminPassesThroughUntouched", func(t *testing.T) {
		fw, m := newManager(t)
		res, err := m.CreateAction(ctx, wallet.CreateActionArgs{
			Description: "internal bookkeeping",
			Outputs:     []wallet.CreateActionOutput{{Satoshis: 100}},
		}, adminOriginator)
		require.NoError(t, err)
		assert.NotEmpty(t, res.TxID)

		require.Len(t, fw.CreateActionCalls, 1)
		args := fw.CreateActionCalls[0]
		assert.Equal(t, "internal bookkeeping", args.Description)
		assert.Empty(t, args.Labels)
	})

	t.Run("Success_CallerRequestedSignableIsReturnedUnsigned", func(t *testing.T) {
		fw, m := newManager(t)
		rec := &eventRecorder{}
		bindDecision(t, m, rec, func(ev permissions.RequestEvent) error {
			return m.GrantPermission(ctx, ev.RequestID, walletguard.GrantOptions{AuthorizedAmount: 10000})
		})

		no := false
		res, err := m.CreateAction(ctx, wallet.CreateActionArgs{
			Outputs: []wallet.CreateActionOutput{{Satoshis: 100}},
			Options: &wallet.CreateActionOptions{SignAndProcess: &no},
		}, appOriginator)
		require.NoError(t, err)
		require.NotNil(t, res.SignableTransaction)
		assert.Empty(t, res.TxID)
		assert.Empty(t, fw.AbortedReferences)
	})

	t.Run("Success_UnsignedCallerInputStaysSignable", func(t *testing.T) {
		fw, m := newManager(t)
		fw.Fee = 10
		rec := &eventRecorder{}
		bindDecision(t, m, rec, func(ev permissions.RequestEvent) error {
			return m.GrantPermission(ctx, ev.RequestID, walletguard.GrantOptions{AuthorizedAmount: 10000})
		})

		// the caller declares an input it will sign itself; even with
		// default options the transaction must come back signable
		callerInput := fw.AddOutput("", 1000, []byte("caller script"))

		res, err := m.CreateAction(ctx, wallet.CreateActionArgs{
			Description: "send payment",
			Inputs: []wallet.CreateActionInput{
				{Outpoint: callerInput, UnlockingScriptLength: 73},
			},
			Outputs: []wallet.CreateActionOutput{
				{Satoshis: 1500, LockingScript: []byte("recipient script")},
			},
		}, appOriginator)
		require.NoError(t, err)
		require.NotNil(t, res.SignableTransaction)
		assert.Empty(t, res.TxID)
		assert.Empty(t, res.Tx)

		// the spending check still ran before handing the transaction back
		require.Equal(t, 1, rec.count())
		assert.Equal(t, permissions.TypeSpending, rec.last().Request.Type)

		spent, err := m.QuerySpentSince(ctx, appOriginator)
		require.NoError(t, err)
		assert.Zero(t, spent)
	})
}

func TestCreateActionLabelsAndBaskets(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_LabelsAndBasketsAreChecked", func(t *testing.T) {
		fw, m := newManager(t)
		rec := &eventRecorder{}
		grantAll(t, m, rec)

		_, err := m.CreateAction(ctx, wallet.CreateActionArgs{
			Labels: []string{"invoices"},
			Outputs: []wallet.CreateActionOutput{
				{Satoshis: 100, Basket: "receipts"},
			},
		}, appOriginator)
		require.NoError(t, err)

		// a label check (as a synthetic protocol), a basket check and a
		// spending check
		require.Equal(t, 3, rec.count())
		assert.NotEmpty(t, fw.OutputsInBasket("receipts"))
	})

	t.Run("Success_BookkeepingLabelsAreAppended", func(t *testing.T) {
		fw, m := newManager(t)
		rec := &eventRecorder{}
		bindDecision(t, m, rec, func(ev permissions.RequestEvent) error {
			return m.GrantPermission(ctx, ev.RequestID, walletguard.GrantOptions{AuthorizedAmount: 10000})
		})

		_, err := m.CreateAction(ctx, wallet.CreateActionArgs{
			Outputs: []wallet.CreateActionOutput{{Satoshis: 100}},
		}, appOriginator)
		require.NoError(t, err)

		require.NotEmpty(t, fw.CreateActionCalls)
		labels := fw.CreateActionCalls[0].Labels
		assert.Contains(t, labels, "admin originator "+appOriginator)
		hasMonth := false
		for _, l := range labels {
			if strings.HasPrefix(l, "admin month ") {
				hasMonth = true
			}
		}
		assert.True(t, hasMonth)
	})

	t.Run("Error_AdminLabelIsRejected", func(t *testing.T) {
		fw, m := newManager(t)
		rec := &eventRecorder{}
		grantAll(t, m, rec)

		_, err := m.CreateAction(ctx, wallet.CreateActionArgs{
			Labels:  []string{"admin originator evil.example.com"},
			Outputs: []wallet.CreateActionOutput{{Satoshis: 100}},
		}, appOriginator)
		assert.ErrorIs(t, err, permissions.ErrAdminOnly)
		assert.Empty(t, fw.CreateActionCalls)
	})
}

func TestCreateActionMetadataEncryption(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_MetadataIsEncryptedAtRestAndDecryptedOnListing", func(t *testing.T) {
		fw, m := newManager(t)
		rec := &eventRecorder{}
		bindDecision(t, m, rec, func(ev permissions.RequestEvent) error {
			return m.GrantPermission(ctx, ev.RequestID, walletguard.GrantOptions{AuthorizedAmount: 10000})
		})

		res, err := m.CreateAction(ctx, wallet.CreateActionArgs{
			Description: "buy coffee",
			Outputs:     []wallet.CreateActionOutput{{Satoshis: 100, OutputDescription: "espresso"}},
		}, appOriginator)
		require.NoError(t, err)

		require.NotEmpty(t, fw.CreateActionCalls)
		stored := fw.CreateActionCalls[0]
		assert.NotEqual(t, "buy coffee", stored.Description)
		assert.NotEqual(t, "espresso", stored.Outputs[0].OutputDescription)

		listed, err := m.ListActions(ctx, wallet.ListActionsArgs{IncludeOutputs: true}, appOriginator)
		require.NoError(t, err)
		var found *wallet.Action
		for i := range listed.Actions {
			if listed.Actions[i].TxID == res.TxID {
				found = &listed.Actions[i]
			}
		}
		require.NotNil(t, found)
		assert.Equal(t, "buy coffee", found.Description)
		for _, l := range found.Labels {
			assert.False(t, strings.HasPrefix(l, "admin "), "admin label %q leaked", l)
		}
	})

	t.Run("Success_EncryptionDisabledKeepsPlaintext", func(t *testing.T) {
		fw, m := newManager(t)
		cfg := m.Config()
		cfg.EncryptWalletMetadata = false
		m.SetConfig(cfg)
		rec := &eventRecorder{}
		bindDecision(t, m, rec, func(ev permissions.RequestEvent) error {
			return m.GrantPermission(ctx, ev.RequestID, walletguard.GrantOptions{AuthorizedAmount: 10000})
		})

		_, err := m.CreateAction(ctx, wallet.CreateActionArgs{
			Description: "buy coffee",
			Outputs:     []wallet.CreateActionOutput{{Satoshis: 100}},
		}, appOriginator)
		require.NoError(t, err)
		require.NotEmpty(t, fw.CreateActionCalls)
		assert.Equal(t, "buy coffee", fw.CreateActionCalls[0].Description)
	})
}
