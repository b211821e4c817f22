package service

import (
	"context"
	"fmt"

	"github.com/allisson/walletguard/internal/errors"
	"github.com/allisson/walletguard/internal/pushdrop"
	"github.com/allisson/walletguard/permissions"
	"github.com/allisson/walletguard/wallet"
)

// Derivation parameters for token locking keys. Like the cipher protocols,
// this sits in the admin namespace.
var tokenLockProtocol = wallet.ProtocolID{
	SecurityLevel: 2,
	Name:          "admin permission token",
}

const (
	tokenKeyID    = "1"
	tokenSatoshis = 1
)

// Lifecycle creates, renews and revokes on-chain permission tokens. Every
// token is a one-satoshi output in the admin basket of its type, carrying
// encrypted fields in the token script format. Renewal spends the old token
// output into a replacement; revocation spends it into nothing.
type Lifecycle struct {
	wallet     wallet.Interface
	cipher     *Cipher
	template   *pushdrop.Template
	originator string
}

// NewLifecycle returns a lifecycle acting as the administrative originator.
func NewLifecycle(w wallet.Interface, cipher *Cipher, adminOriginator string) *Lifecycle {
	return &Lifecycle{
		wallet:     w,
		cipher:     cipher,
		template:   pushdrop.NewTemplate(w, adminOriginator),
		originator: adminOriginator,
	}
}

// Create issues a new token for the request. Expiry is the Unix expiry epoch
// (ignored for spending tokens, which never expire); authorizedAmount is the
// monthly cap for spending tokens.
func (l *Lifecycle) Create(ctx context.Context, req permissions.Request, expiry, authorizedAmount int64) (*permissions.Token, error) {
	if req.Type == permissions.TypeSpending {
		expiry = 0
	}
	script, err := l.lockingScript(ctx, req, expiry, authorizedAmount)
	if err != nil {
		return nil, err
	}

	res, err := l.wallet.CreateAction(ctx, wallet.CreateActionArgs{
		Description: "grant permission",
		Outputs: []wallet.CreateActionOutput{{
			LockingScript:     script,
			Satoshis:          tokenSatoshis,
			OutputDescription: "permission token",
			Basket:            permissions.AdminBasketFor(req.Type),
			Tags:              tokenTags(req),
		}},
	}, l.originator)
	if err != nil {
		return nil, errors.Wrap(err, "create permission token")
	}

	return l.buildToken(req, expiry, authorizedAmount, res.TxID, res.Tx, script), nil
}

// Renew replaces old with a token reflecting the request. The old output is
// consumed in the same transaction that creates its replacement, so at most
// one token per fingerprint exists at any time.
func (l *Lifecycle) Renew(ctx context.Context, old *permissions.Token, req permissions.Request, expiry, authorizedAmount int64) (*permissions.Token, error) {
	if req.Type == permissions.TypeSpending {
		expiry = 0
	}
	script, err := l.lockingScript(ctx, req, expiry, authorizedAmount)
	if err != nil {
		return nil, err
	}

	txID, tx, err := l.spendToken(ctx, old, "renew permission", []wallet.CreateActionOutput{{
		LockingScript:     script,
		Satoshis:          tokenSatoshis,
		OutputDescription: "permission token",
		Basket:            permissions.AdminBasketFor(req.Type),
		Tags:              tokenTags(req),
	}})
	if err != nil {
		return nil, err
	}
	return l.buildToken(req, expiry, authorizedAmount, txID, tx, script), nil
}

// Revoke consumes the token without a replacement.
func (l *Lifecycle) Revoke(ctx context.Context, tok *permissions.Token) error {
	_, _, err := l.spendToken(ctx, tok, "revoke permission", nil)
	return err
}

// spendToken creates and signs a transaction consuming tok's output, with
// the given replacement outputs (nil for revocation).
func (l *Lifecycle) spendToken(ctx context.Context, tok *permissions.Token, description string, outputs []wallet.CreateActionOutput) (string, []byte, error) {
	signAndProcess := false
	res, err := l.wallet.CreateAction(ctx, wallet.CreateActionArgs{
		Description: description,
		InputBEEF:   tok.Tx,
		Inputs: []wallet.CreateActionInput{{
			Outpoint:              tok.Outpoint(),
			InputDescription:      "permission token",
			UnlockingScriptLength: pushdrop.SignatureLength,
		}},
		Outputs: outputs,
		Options: &wallet.CreateActionOptions{SignAndProcess: &signAndProcess},
	}, l.originator)
	if err != nil {
		return "", nil, errors.Wrapf(err, "%s", description)
	}
	if res.SignableTransaction == nil {
		// wallet finalized without our signature; nothing left to do
		return res.TxID, res.Tx, nil
	}

	unlocking, err := l.template.Unlock(ctx, tok.Outpoint(), tok.OutputScript, tokenLockProtocol, tokenKeyID, "self")
	if err != nil {
		return "", nil, err
	}

	signed, err := l.wallet.SignAction(ctx, wallet.SignActionArgs{
		Reference: res.SignableTransaction.Reference,
		Spends: map[uint32]wallet.SignActionSpend{
			0: {UnlockingScript: unlocking},
		},
	}, l.originator)
	if err != nil {
		return "", nil, errors.Wrapf(err, "sign %s", description)
	}
	return signed.TxID, signed.Tx, nil
}

// tokenTags builds the discriminator tags attached to a token output so
// that store queries can filter baskets on the wallet side instead of
// decoding every output.
func tokenTags(req permissions.Request) []string {
	tags := []string{"originator " + req.Originator}
	switch req.Type {
	case permissions.TypeProtocol:
		tags = append(tags,
			fmt.Sprintf("privileged %t", req.Privileged),
			"protocolName "+req.ProtocolID.Name,
			fmt.Sprintf("protocolSecurityLevel %d", req.ProtocolID.SecurityLevel),
			"counterparty "+req.Counterparty,
		)
	case permissions.TypeBasket:
		tags = append(tags, "basket "+req.Basket)
	case permissions.TypeCertificate:
		tags = append(tags, fmt.Sprintf("privileged %t", req.Privileged))
		if req.Certificate != nil {
			tags = append(tags,
				"type "+req.Certificate.CertType,
				"verifier "+req.Certificate.Verifier,
			)
		}
	case permissions.TypeSpending:
		// the originator tag is the only discriminator
	}
	return tags
}

func (l *Lifecycle) lockingScript(ctx context.Context, req permissions.Request, expiry, authorizedAmount int64) ([]byte, error) {
	fields, err := encodeTokenFields(req, expiry, authorizedAmount)
	if err != nil {
		return nil, err
	}
	encrypted := make([][]byte, len(fields))
	for i, f := range fields {
		encrypted[i], err = l.cipher.Encrypt(ctx, f)
		if err != nil {
			return nil, errors.Wrap(err, "encrypt token field")
		}
	}
	return l.template.Lock(ctx, encrypted, tokenLockProtocol, tokenKeyID, "self")
}

func (l *Lifecycle) buildToken(req permissions.Request, expiry, authorizedAmount int64, txID string, tx, script []byte) *permissions.Token {
	tok := &permissions.Token{
		Type:         req.Type,
		TxID:         txID,
		Tx:           tx,
		OutputIndex:  0,
		OutputScript: script,
		Satoshis:     tokenSatoshis,
		Originator:   req.Originator,
		Expiry:       expiry,
	}
	switch req.Type {
	case permissions.TypeProtocol:
		tok.Privileged = req.Privileged
		tok.Protocol = req.ProtocolID.Name
		tok.SecurityLevel = req.ProtocolID.SecurityLevel
		tok.Counterparty = req.Counterparty
	case permissions.TypeBasket:
		tok.BasketName = req.Basket
	case permissions.TypeCertificate:
		tok.Privileged = req.Privileged
		if req.Certificate != nil {
			tok.CertType = req.Certificate.CertType
			tok.CertFields = req.Certificate.Fields
			tok.Verifier = req.Certificate.Verifier
		}
	case permissions.TypeSpending:
		tok.Expiry = 0
		tok.AuthorizedAmount = authorizedAmount
	}
	return tok
}
