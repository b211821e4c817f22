package wallet

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/allisson/walletguard/internal/errors"
)

// Outpoint references one output of one transaction.
type Outpoint struct {
	TxID  string `json:"txid"`
	Index uint32 `json:"index"`
}

// String renders the canonical "txid.index" form.
func (o Outpoint) String() string {
	return fmt.Sprintf("%s.%d", o.TxID, o.Index)
}

// ParseOutpoint parses the canonical "txid.index" form.
func ParseOutpoint(s string) (Outpoint, error) {
	txid, idx, ok := strings.Cut(s, ".")
	if !ok || txid == "" {
		return Outpoint{}, apperrors.Wrap(apperrors.ErrInvalidInput, "malformed outpoint "+s)
	}
	index, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return Outpoint{}, apperrors.Wrap(apperrors.ErrInvalidInput, "malformed outpoint index "+idx)
	}
	return Outpoint{TxID: txid, Index: uint32(index)}, nil
}

// TransactionInput is one input of a parsed transaction, carrying the source
// output it consumes.
type TransactionInput struct {
	SourceTxID        string `json:"sourceTxid"`
	SourceOutputIndex uint32 `json:"sourceOutputIndex"`
	SourceSatoshis    int64  `json:"sourceSatoshis"`
	UnlockingScript   []byte `json:"unlockingScript,omitempty"`
}

// SourceOutpoint returns the outpoint this input consumes.
func (i TransactionInput) SourceOutpoint() Outpoint {
	return Outpoint{TxID: i.SourceTxID, Index: i.SourceOutputIndex}
}

// TransactionOutput is one output of a parsed transaction.
type TransactionOutput struct {
	Satoshis      int64  `json:"satoshis"`
	LockingScript []byte `json:"lockingScript"`
}

// Transaction is the structural form of a transaction as exchanged across the
// wallet boundary: enough to inspect inputs, outputs and fees without any
// consensus-level serialization knowledge.
type Transaction struct {
	TxID    string              `json:"txid"`
	Inputs  []TransactionInput  `json:"inputs"`
	Outputs []TransactionOutput `json:"outputs"`
}

// Fee returns the difference between consumed and produced satoshis.
func (t *Transaction) Fee() int64 {
	var in, out int64
	for _, i := range t.Inputs {
		in += i.SourceSatoshis
	}
	for _, o := range t.Outputs {
		out += o.Satoshis
	}
	return in - out
}

// Outpoint returns the outpoint of output vout in this transaction.
func (t *Transaction) Outpoint(vout uint32) Outpoint {
	return Outpoint{TxID: t.TxID, Index: vout}
}

// Marshal renders the transaction in its boundary wire form.
func (t *Transaction) Marshal() ([]byte, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal transaction")
	}
	return b, nil
}

// ParseTransaction parses a transaction from its boundary wire form.
func ParseTransaction(b []byte) (*Transaction, error) {
	var t Transaction
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "malformed transaction: "+err.Error())
	}
	return &t, nil
}

// Bundle groups full supporting transactions by txid, as returned by
// ListOutputs with IncludeEntireTransactions.
type Bundle map[string]*Transaction

// Transaction returns the bundled transaction with the given txid.
func (b Bundle) Transaction(txid string) (*Transaction, error) {
	tx, ok := b[txid]
	if !ok {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "transaction "+txid+" not in bundle")
	}
	return tx, nil
}

// Marshal renders the bundle in its boundary wire form.
func (b Bundle) Marshal() ([]byte, error) {
	out, err := json.Marshal(b)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal bundle")
	}
	return out, nil
}

// ParseBundle parses a bundle from its boundary wire form.
func ParseBundle(data []byte) (Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "malformed transaction bundle: "+err.Error())
	}
	return b, nil
}
