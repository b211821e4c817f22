package walletguard

import (
	"context"
	"fmt"
	"time"

	"github.com/allisson/walletguard/internal/errors"
	"github.com/allisson/walletguard/internal/permission/service"
	"github.com/allisson/walletguard/internal/permission/usecase"
	"github.com/allisson/walletguard/permissions"
	"github.com/allisson/walletguard/wallet"
)

// CreateAction mediates transaction creation. Labels and output baskets are
// checked before the wallet builds the transaction; the net spend is computed
// afterwards from the built transaction, because only then are fees and
// wallet-selected funding inputs known. The underlying wallet is always asked
// for a signable transaction so an unauthorized spend can still be aborted.
func (m *Manager) CreateAction(ctx context.Context, args wallet.CreateActionArgs, originator string) (*wallet.CreateActionResult, error) {
	if originator == m.admin {
		return m.underlying.CreateAction(ctx, args, originator)
	}
	if args.Options != nil && args.Options.SignAndProcess != nil && *args.Options.SignAndProcess {
		return nil, permissions.ErrSignAndProcessReserved
	}

	for _, label := range args.Labels {
		if err := m.useCase.EnsureLabel(ctx, usecase.LabelParams{
			Originator: originator,
			Label:      label,
			Usage:      permissions.LabelUsageApply,
			Seek:       true,
		}); err != nil {
			return nil, err
		}
	}
	for _, out := range args.Outputs {
		if out.Basket == "" {
			continue
		}
		if err := m.useCase.EnsureBasket(ctx, usecase.BasketParams{
			Originator: originator,
			Basket:     out.Basket,
			Usage:      permissions.BasketUsageInsertion,
			Seek:       true,
		}); err != nil {
			return nil, err
		}
	}

	if m.Config().EncryptWalletMetadata {
		if err := m.encryptActionMetadata(ctx, &args); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	args.Labels = append(args.Labels,
		service.OriginatorLabel(originator),
		service.MonthLabel(service.MonthTag(now)),
	)

	// The caller's processing intent is remembered, then overridden: the
	// wallet must hand the transaction back unsigned so the spending check
	// runs before anything is broadcast.
	wantsProcessed := args.Options == nil || args.Options.SignAndProcess == nil
	signable := false
	if args.Options == nil {
		args.Options = &wallet.CreateActionOptions{}
	}
	opts := *args.Options
	opts.SignAndProcess = &signable
	args.Options = &opts

	res, err := m.underlying.CreateAction(ctx, args, originator)
	if err != nil {
		return nil, err
	}
	if res.SignableTransaction == nil {
		return nil, errors.New("wallet did not return a signable transaction")
	}

	tx, err := wallet.ParseTransaction(res.SignableTransaction.Tx)
	if err != nil {
		m.abort(ctx, res.SignableTransaction.Reference, originator)
		return nil, err
	}

	netSpent, lineItems := spendingBreakdown(args, tx)
	if netSpent > 0 {
		if err := m.useCase.EnsureSpending(ctx, usecase.SpendingParams{
			Originator: originator,
			Satoshis:   netSpent,
			LineItems:  lineItems,
			Seek:       true,
		}); err != nil {
			m.abort(ctx, res.SignableTransaction.Reference, originator)
			return nil, err
		}
	}

	if !wantsProcessed || needsExternalSignatures(args.Inputs) {
		return res, nil
	}

	spends := make(map[uint32]wallet.SignActionSpend, len(args.Inputs))
	for i, in := range args.Inputs {
		spends[uint32(i)] = wallet.SignActionSpend{UnlockingScript: in.UnlockingScript}
	}
	signed, err := m.underlying.SignAction(ctx, wallet.SignActionArgs{
		Reference: res.SignableTransaction.Reference,
		Spends:    spends,
	}, originator)
	if err != nil {
		return nil, err
	}
	res.TxID = signed.TxID
	res.Tx = signed.Tx
	res.SignableTransaction = nil
	return res, nil
}

// needsExternalSignatures reports whether any caller-supplied input still
// lacks its unlocking script. Such transactions cannot be finalized here:
// the caller must complete them through SignAction.
func needsExternalSignatures(inputs []wallet.CreateActionInput) bool {
	for _, in := range inputs {
		if len(in.UnlockingScript) == 0 {
			return true
		}
	}
	return false
}

func (m *Manager) encryptActionMetadata(ctx context.Context, args *wallet.CreateActionArgs) error {
	var err error
	if args.Description != "" {
		if args.Description, err = m.metadata.EncryptString(ctx, args.Description); err != nil {
			return errors.Wrap(err, "encrypt action description")
		}
	}
	outputs := make([]wallet.CreateActionOutput, len(args.Outputs))
	copy(outputs, args.Outputs)
	for i := range outputs {
		if outputs[i].OutputDescription != "" {
			if outputs[i].OutputDescription, err = m.metadata.EncryptString(ctx, outputs[i].OutputDescription); err != nil {
				return errors.Wrap(err, "encrypt output description")
			}
		}
		if outputs[i].CustomInstructions != "" {
			if outputs[i].CustomInstructions, err = m.metadata.EncryptString(ctx, outputs[i].CustomInstructions); err != nil {
				return errors.Wrap(err, "encrypt custom instructions")
			}
		}
	}
	args.Outputs = outputs
	inputs := make([]wallet.CreateActionInput, len(args.Inputs))
	copy(inputs, args.Inputs)
	for i := range inputs {
		if inputs[i].InputDescription != "" {
			if inputs[i].InputDescription, err = m.metadata.EncryptString(ctx, inputs[i].InputDescription); err != nil {
				return errors.Wrap(err, "encrypt input description")
			}
		}
	}
	args.Inputs = inputs
	return nil
}

// spendingBreakdown computes what the transaction costs the originator: every
// requested output plus the fee, minus the value of the inputs the originator
// supplied itself. Wallet-selected funding inputs and change outputs cancel
// out and are deliberately excluded. Line item amounts are absolute; netting
// happens only in the total.
func spendingBreakdown(args wallet.CreateActionArgs, tx *wallet.Transaction) (int64, []permissions.LineItem) {
	var items []permissions.LineItem
	var net int64

	for _, out := range args.Outputs {
		net += out.Satoshis
		items = append(items, permissions.LineItem{
			Type:        permissions.LineItemOutput,
			Description: out.OutputDescription,
			Satoshis:    out.Satoshis,
		})
	}

	if fee := tx.Fee(); fee > 0 {
		net += fee
		items = append(items, permissions.LineItem{
			Type:        permissions.LineItemFee,
			Description: "network fee",
			Satoshis:    fee,
		})
	}

	supplied := make(map[string]struct{}, len(args.Inputs))
	for _, in := range args.Inputs {
		supplied[in.Outpoint.String()] = struct{}{}
	}
	for _, in := range tx.Inputs {
		outpoint := in.SourceOutpoint()
		if _, ok := supplied[outpoint.String()]; !ok {
			continue
		}
		net -= in.SourceSatoshis
		items = append(items, permissions.LineItem{
			Type:        permissions.LineItemInput,
			Description: fmt.Sprintf("input %s", outpoint),
			Satoshis:    in.SourceSatoshis,
		})
	}

	return net, items
}

func (m *Manager) abort(ctx context.Context, reference, originator string) {
	if _, err := m.underlying.AbortAction(ctx, wallet.AbortActionArgs{Reference: reference}, originator); err != nil {
		m.logger.Debug("failed to abort action", "reference", reference, "error", err)
	}
}
