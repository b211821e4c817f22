// Package testutil provides an in-memory wallet implementation for tests.
//
// FakeWallet keeps outputs, actions and certificates in maps and answers the
// whole wallet capability surface with deterministic results: encryption is
// a reversible tagged encoding, key derivation and signing are hash-based.
// Tests seed state with AddOutput and AddAction and assert on the recorded
// call arguments.
package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/allisson/walletguard/wallet"
)

type utxo struct {
	output wallet.Output
	basket string
}

type pendingAction struct {
	tx   *wallet.Transaction
	args wallet.CreateActionArgs
}

// FakeWallet is an in-memory wallet.Interface for tests. Safe for concurrent
// use. The zero value is not usable; construct with NewFakeWallet.
type FakeWallet struct {
	mu sync.Mutex

	// Fee is charged on every created transaction.
	Fee int64

	// Authenticated is returned by the authentication calls.
	Authenticated bool

	// Height is returned by GetHeight.
	Height uint32

	// IdentityKey is returned for identity key revelation.
	IdentityKey string

	utxos        map[string]utxo
	transactions wallet.Bundle
	actions      []actionRecord
	pending      map[string]pendingAction
	certificates []wallet.Certificate

	// CreateActionCalls records every CreateAction argument set in order.
	CreateActionCalls []wallet.CreateActionArgs

	// AbortedReferences records every aborted signable reference.
	AbortedReferences []string

	// EncryptCalls counts Encrypt invocations.
	EncryptCalls int
}

type actionRecord struct {
	action wallet.Action
	labels []string
}

// NewFakeWallet returns an authenticated fake with no outputs.
func NewFakeWallet() *FakeWallet {
	return &FakeWallet{
		Authenticated: true,
		Height:        850000,
		IdentityKey:   "02" + strings.Repeat("ab", 32),
		utxos:         make(map[string]utxo),
		transactions:  make(wallet.Bundle),
		pending:       make(map[string]pendingAction),
	}
}

// AddOutput seeds a spendable output into a basket and returns its outpoint.
func (f *FakeWallet) AddOutput(basket string, satoshis int64, lockingScript []byte, tags ...string) wallet.Outpoint {
	f.mu.Lock()
	defer f.mu.Unlock()

	txID := newTxID()
	tx := &wallet.Transaction{
		TxID:    txID,
		Outputs: []wallet.TransactionOutput{{Satoshis: satoshis, LockingScript: lockingScript}},
	}
	f.transactions[txID] = tx

	op := wallet.Outpoint{TxID: txID, Index: 0}
	f.utxos[op.String()] = utxo{
		output: wallet.Output{
			Outpoint:      op,
			Satoshis:      satoshis,
			LockingScript: lockingScript,
			Spendable:     true,
			Tags:          tags,
		},
		basket: basket,
	}
	return op
}

// AddAction seeds a historical action with the given labels and net spend.
func (f *FakeWallet) AddAction(labels []string, satoshis int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, actionRecord{
		action: wallet.Action{TxID: newTxID(), Satoshis: satoshis, Labels: labels},
		labels: labels,
	})
}

// OutputsInBasket returns the outpoints currently in one basket.
func (f *FakeWallet) OutputsInBasket(basket string) []wallet.Outpoint {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []wallet.Outpoint
	for _, u := range f.utxos {
		if u.basket == basket {
			out = append(out, u.output.Outpoint)
		}
	}
	return out
}

func (f *FakeWallet) CreateAction(_ context.Context, args wallet.CreateActionArgs, _ string) (*wallet.CreateActionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateActionCalls = append(f.CreateActionCalls, args)

	tx := &wallet.Transaction{TxID: newTxID()}
	var callerIn, callerOut int64
	for _, in := range args.Inputs {
		u, ok := f.utxos[in.Outpoint.String()]
		if !ok {
			return nil, fmt.Errorf("input %s not found", in.Outpoint.String())
		}
		callerIn += u.output.Satoshis
		tx.Inputs = append(tx.Inputs, wallet.TransactionInput{
			SourceTxID:        in.Outpoint.TxID,
			SourceOutputIndex: in.Outpoint.Index,
			SourceSatoshis:    u.output.Satoshis,
			UnlockingScript:   in.UnlockingScript,
		})
	}
	for _, out := range args.Outputs {
		callerOut += out.Satoshis
		tx.Outputs = append(tx.Outputs, wallet.TransactionOutput{
			Satoshis:      out.Satoshis,
			LockingScript: out.LockingScript,
		})
	}

	// balance with a funding input or a change output so Fee() is exact
	need := callerOut + f.Fee - callerIn
	if need > 0 {
		tx.Inputs = append(tx.Inputs, wallet.TransactionInput{
			SourceTxID:        newTxID(),
			SourceOutputIndex: 0,
			SourceSatoshis:    need,
		})
	} else if need < 0 {
		tx.Outputs = append(tx.Outputs, wallet.TransactionOutput{Satoshis: -need})
	}

	if args.Options != nil && args.Options.SignAndProcess != nil && !*args.Options.SignAndProcess {
		ref := uuid.NewString()
		f.pending[ref] = pendingAction{tx: tx, args: args}
		raw, err := tx.Marshal()
		if err != nil {
			return nil, err
		}
		return &wallet.CreateActionResult{
			SignableTransaction: &wallet.SignableTransaction{Tx: raw, Reference: ref},
		}, nil
	}

	f.commit(tx, args)
	raw, err := tx.Marshal()
	if err != nil {
		return nil, err
	}
	return &wallet.CreateActionResult{TxID: tx.TxID, Tx: raw}, nil
}

func (f *FakeWallet) SignAction(_ context.Context, args wallet.SignActionArgs, _ string) (*wallet.SignActionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.pending[args.Reference]
	if !ok {
		return nil, fmt.Errorf("unknown reference %q", args.Reference)
	}
	delete(f.pending, args.Reference)

	for vin, spend := range args.Spends {
		if int(vin) < len(p.tx.Inputs) {
			p.tx.Inputs[vin].UnlockingScript = spend.UnlockingScript
		}
	}
	f.commit(p.tx, p.args)
	raw, err := p.tx.Marshal()
	if err != nil {
		return nil, err
	}
	return &wallet.SignActionResult{TxID: p.tx.TxID, Tx: raw}, nil
}

func (f *FakeWallet) AbortAction(_ context.Context, args wallet.AbortActionArgs, _ string) (*wallet.AbortActionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.pending[args.Reference]; !ok {
		return &wallet.AbortActionResult{Aborted: false}, nil
	}
	delete(f.pending, args.Reference)
	f.AbortedReferences = append(f.AbortedReferences, args.Reference)
	return &wallet.AbortActionResult{Aborted: true}, nil
}

// commit consumes caller inputs, inserts basket outputs and records the
// action. Caller must hold the mutex.
func (f *FakeWallet) commit(tx *wallet.Transaction, args wallet.CreateActionArgs) {
	for _, in := range args.Inputs {
		delete(f.utxos, in.Outpoint.String())
	}
	for i, out := range args.Outputs {
		if out.Basket == "" {
			continue
		}
		op := wallet.Outpoint{TxID: tx.TxID, Index: uint32(i)}
		f.utxos[op.String()] = utxo{
			output: wallet.Output{
				Outpoint:           op,
				Satoshis:           out.Satoshis,
				LockingScript:      out.LockingScript,
				Spendable:          true,
				CustomInstructions: out.CustomInstructions,
				Tags:               out.Tags,
			},
			basket: out.Basket,
		}
	}
	f.transactions[tx.TxID] = tx

	var callerIn, callerOut int64
	for _, in := range tx.Inputs {
		if _, ok := f.transactions[in.SourceTxID]; ok {
			callerIn += in.SourceSatoshis
		}
	}
	for _, out := range args.Outputs {
		callerOut += out.Satoshis
	}
	net := callerOut + tx.Fee() - callerIn
	f.actions = append(f.actions, actionRecord{
		action: wallet.Action{
			TxID:        tx.TxID,
			Satoshis:    net,
			Description: args.Description,
			Labels:      args.Labels,
		},
		labels: args.Labels,
	})
}

func (f *FakeWallet) ListActions(_ context.Context, args wallet.ListActionsArgs, _ string) (*wallet.ListActionsResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []wallet.Action
	for _, rec := range f.actions {
		if matchesLabels(rec.labels, args.Labels, args.LabelQueryMode) {
			matched = append(matched, rec.action)
		}
	}
	total := len(matched)
	matched = page(matched, args.Offset, args.Limit)
	return &wallet.ListActionsResult{TotalActions: total, Actions: matched}, nil
}

func (f *FakeWallet) InternalizeAction(_ context.Context, args wallet.InternalizeActionArgs, _ string) (*wallet.InternalizeActionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tx, err := wallet.ParseTransaction(args.Tx)
	if err != nil {
		return nil, err
	}
	f.transactions[tx.TxID] = tx
	for _, out := range args.Outputs {
		if out.Protocol != wallet.InternalizeBasketInsertion || out.InsertionRemittance == nil {
			continue
		}
		if int(out.OutputIndex) >= len(tx.Outputs) {
			continue
		}
		op := wallet.Outpoint{TxID: tx.TxID, Index: out.OutputIndex}
		f.utxos[op.String()] = utxo{
			output: wallet.Output{
				Outpoint:           op,
				Satoshis:           tx.Outputs[out.OutputIndex].Satoshis,
				LockingScript:      tx.Outputs[out.OutputIndex].LockingScript,
				Spendable:          true,
				CustomInstructions: out.InsertionRemittance.CustomInstructions,
				Tags:               out.InsertionRemittance.Tags,
			},
			basket: out.InsertionRemittance.Basket,
		}
	}
	return &wallet.InternalizeActionResult{Accepted: true}, nil
}

func (f *FakeWallet) ListOutputs(_ context.Context, args wallet.ListOutputsArgs, _ string) (*wallet.ListOutputsResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []wallet.Output
	for _, u := range f.utxos {
		if u.basket != args.Basket {
			continue
		}
		if len(args.Tags) > 0 && !matchesLabels(u.output.Tags, args.Tags, args.TagQueryMode) {
			continue
		}
		matched = append(matched, u.output)
	}
	sortOutputs(matched)
	total := len(matched)
	matched = page(matched, args.Offset, args.Limit)

	res := &wallet.ListOutputsResult{TotalOutputs: total, Outputs: matched}
	if args.Include == wallet.IncludeEntireTransactions {
		raw, err := f.transactions.Marshal()
		if err != nil {
			return nil, err
		}
		res.BEEF = raw
	}
	return res, nil
}

func (f *FakeWallet) RelinquishOutput(_ context.Context, args wallet.RelinquishOutputArgs, _ string) (*wallet.RelinquishOutputResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.utxos[args.Outpoint.String()]
	if !ok || u.basket != args.Basket {
		return &wallet.RelinquishOutputResult{Relinquished: false}, nil
	}
	delete(f.utxos, args.Outpoint.String())
	return &wallet.RelinquishOutputResult{Relinquished: true}, nil
}

func (f *FakeWallet) GetPublicKey(_ context.Context, args wallet.GetPublicKeyArgs, _ string) (*wallet.GetPublicKeyResult, error) {
	if args.IdentityKey {
		return &wallet.GetPublicKeyResult{PublicKey: f.IdentityKey}, nil
	}
	var proto wallet.ProtocolID
	if args.ProtocolID != nil {
		proto = *args.ProtocolID
	}
	seed := fmt.Sprintf("pub|%d,%s|%s|%s", proto.SecurityLevel, proto.Name, args.KeyID, args.Counterparty)
	sum := sha256.Sum256([]byte(seed))
	return &wallet.GetPublicKeyResult{PublicKey: "02" + hex.EncodeToString(sum[:])}, nil
}

func (f *FakeWallet) RevealCounterpartyKeyLinkage(_ context.Context, args wallet.RevealCounterpartyKeyLinkageArgs, _ string) (*wallet.RevealCounterpartyKeyLinkageResult, error) {
	return &wallet.RevealCounterpartyKeyLinkageResult{
		EncryptedLinkage: []byte("linkage"),
		Prover:           f.IdentityKey,
		Verifier:         args.Verifier,
		Counterparty:     args.Counterparty,
	}, nil
}

func (f *FakeWallet) RevealSpecificKeyLinkage(_ context.Context, args wallet.RevealSpecificKeyLinkageArgs, _ string) (*wallet.RevealSpecificKeyLinkageResult, error) {
	return &wallet.RevealSpecificKeyLinkageResult{
		EncryptedLinkage: []byte("linkage"),
		Prover:           f.IdentityKey,
		Verifier:         args.Verifier,
		Counterparty:     args.Counterparty,
	}, nil
}

func (f *FakeWallet) Encrypt(_ context.Context, args wallet.EncryptArgs, _ string) (*wallet.EncryptResult, error) {
	f.mu.Lock()
	f.EncryptCalls++
	f.mu.Unlock()
	prefix := cipherPrefix(args.ProtocolID, args.KeyID, args.Counterparty)
	return &wallet.EncryptResult{Ciphertext: append([]byte(prefix), args.Plaintext...)}, nil
}

func (f *FakeWallet) Decrypt(_ context.Context, args wallet.DecryptArgs, _ string) (*wallet.DecryptResult, error) {
	prefix := cipherPrefix(args.ProtocolID, args.KeyID, args.Counterparty)
	if !strings.HasPrefix(string(args.Ciphertext), prefix) {
		return nil, fmt.Errorf("ciphertext not encrypted under %q", prefix)
	}
	return &wallet.DecryptResult{Plaintext: args.Ciphertext[len(prefix):]}, nil
}

func (f *FakeWallet) CreateHMAC(_ context.Context, args wallet.CreateHMACArgs, _ string) (*wallet.CreateHMACResult, error) {
	sum := sha256.Sum256(append([]byte(cipherPrefix(args.ProtocolID, args.KeyID, args.Counterparty)), args.Data...))
	return &wallet.CreateHMACResult{HMAC: sum[:]}, nil
}

func (f *FakeWallet) VerifyHMAC(ctx context.Context, args wallet.VerifyHMACArgs, originator string) (*wallet.VerifyHMACResult, error) {
	res, err := f.CreateHMAC(ctx, wallet.CreateHMACArgs{
		ProtocolID:   args.ProtocolID,
		KeyID:        args.KeyID,
		Counterparty: args.Counterparty,
		Data:         args.Data,
	}, originator)
	if err != nil {
		return nil, err
	}
	return &wallet.VerifyHMACResult{Valid: string(res.HMAC) == string(args.HMAC)}, nil
}

func (f *FakeWallet) CreateSignature(_ context.Context, args wallet.CreateSignatureArgs, _ string) (*wallet.CreateSignatureResult, error) {
	payload := args.HashToSign
	if len(payload) == 0 {
		payload = args.Data
	}
	sum := sha256.Sum256(append([]byte(cipherPrefix(args.ProtocolID, args.KeyID, args.Counterparty)), payload...))
	return &wallet.CreateSignatureResult{Signature: sum[:]}, nil
}

func (f *FakeWallet) VerifySignature(ctx context.Context, args wallet.VerifySignatureArgs, originator string) (*wallet.VerifySignatureResult, error) {
	res, err := f.CreateSignature(ctx, wallet.CreateSignatureArgs{
		ProtocolID:   args.ProtocolID,
		KeyID:        args.KeyID,
		Counterparty: args.Counterparty,
		Data:         args.Data,
		HashToSign:   args.HashToVerify,
	}, originator)
	if err != nil {
		return nil, err
	}
	return &wallet.VerifySignatureResult{Valid: string(res.Signature) == string(args.Signature)}, nil
}

func (f *FakeWallet) AcquireCertificate(_ context.Context, args wallet.AcquireCertificateArgs, _ string) (*wallet.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cert := wallet.Certificate{
		Type:         args.Type,
		Subject:      f.IdentityKey,
		SerialNumber: uuid.NewString(),
		Certifier:    args.Certifier,
		Fields:       args.Fields,
	}
	f.certificates = append(f.certificates, cert)
	return &cert, nil
}

func (f *FakeWallet) ListCertificates(_ context.Context, args wallet.ListCertificatesArgs, _ string) (*wallet.ListCertificatesResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []wallet.Certificate
	for _, cert := range f.certificates {
		if len(args.Types) > 0 && !contains(args.Types, cert.Type) {
			continue
		}
		if len(args.Certifiers) > 0 && !contains(args.Certifiers, cert.Certifier) {
			continue
		}
		matched = append(matched, cert)
	}
	total := len(matched)
	matched = page(matched, args.Offset, args.Limit)
	return &wallet.ListCertificatesResult{TotalCertificates: total, Certificates: matched}, nil
}

func (f *FakeWallet) ProveCertificate(_ context.Context, args wallet.ProveCertificateArgs, _ string) (*wallet.ProveCertificateResult, error) {
	keyring := make(map[string]string, len(args.FieldsToReveal))
	for _, field := range args.FieldsToReveal {
		keyring[field] = "key-" + field
	}
	return &wallet.ProveCertificateResult{KeyringForVerifier: keyring}, nil
}

func (f *FakeWallet) RelinquishCertificate(_ context.Context, args wallet.RelinquishCertificateArgs, _ string) (*wallet.RelinquishCertificateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, cert := range f.certificates {
		if cert.Type == args.Type && cert.SerialNumber == args.SerialNumber && cert.Certifier == args.Certifier {
			f.certificates = append(f.certificates[:i], f.certificates[i+1:]...)
			return &wallet.RelinquishCertificateResult{Relinquished: true}, nil
		}
	}
	return &wallet.RelinquishCertificateResult{Relinquished: false}, nil
}

func (f *FakeWallet) DiscoverByIdentityKey(_ context.Context, args wallet.DiscoverByIdentityKeyArgs, _ string) (*wallet.DiscoverCertificatesResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []wallet.Certificate
	for _, cert := range f.certificates {
		if cert.Subject == args.IdentityKey {
			matched = append(matched, cert)
		}
	}
	return &wallet.DiscoverCertificatesResult{TotalCertificates: len(matched), Certificates: matched}, nil
}

func (f *FakeWallet) DiscoverByAttributes(_ context.Context, args wallet.DiscoverByAttributesArgs, _ string) (*wallet.DiscoverCertificatesResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []wallet.Certificate
	for _, cert := range f.certificates {
		ok := true
		for k, v := range args.Attributes {
			if cert.Fields[k] != v {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, cert)
		}
	}
	return &wallet.DiscoverCertificatesResult{TotalCertificates: len(matched), Certificates: matched}, nil
}

func (f *FakeWallet) IsAuthenticated(_ context.Context, _ string) (*wallet.AuthenticatedResult, error) {
	return &wallet.AuthenticatedResult{Authenticated: f.Authenticated}, nil
}

func (f *FakeWallet) WaitForAuthentication(_ context.Context, _ string) (*wallet.AuthenticatedResult, error) {
	return &wallet.AuthenticatedResult{Authenticated: true}, nil
}

func (f *FakeWallet) GetHeight(_ context.Context, _ string) (*wallet.GetHeightResult, error) {
	return &wallet.GetHeightResult{Height: f.Height}, nil
}

func (f *FakeWallet) GetHeaderForHeight(_ context.Context, args wallet.GetHeaderArgs, _ string) (*wallet.GetHeaderResult, error) {
	return &wallet.GetHeaderResult{Header: []byte(fmt.Sprintf("header-%d", args.Height))}, nil
}

func (f *FakeWallet) GetNetwork(_ context.Context, _ string) (*wallet.GetNetworkResult, error) {
	return &wallet.GetNetworkResult{Network: "testnet"}, nil
}

func (f *FakeWallet) GetVersion(_ context.Context, _ string) (*wallet.GetVersionResult, error) {
	return &wallet.GetVersionResult{Version: "fake-1.0"}, nil
}

func cipherPrefix(proto wallet.ProtocolID, keyID, counterparty string) string {
	return fmt.Sprintf("enc|%d,%s|%s|%s|", proto.SecurityLevel, proto.Name, keyID, counterparty)
}

func matchesLabels(have, want []string, mode wallet.QueryMode) bool {
	if len(want) == 0 {
		return true
	}
	found := 0
	for _, w := range want {
		if contains(have, w) {
			found++
		}
	}
	if mode == wallet.QueryModeAny {
		return found > 0
	}
	return found == len(want)
}

func contains(items []string, want string) bool {
	for _, it := range items {
		if it == want {
			return true
		}
	}
	return false
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func sortOutputs(outputs []wallet.Output) {
	sort.Slice(outputs, func(i, j int) bool {
		return outputs[i].Outpoint.String() < outputs[j].Outpoint.String()
	})
}

func newTxID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
