// Package pushdrop implements the locking script format used for on-chain
// authorization tokens. A token script is a data-carrier: it commits to an
// ordered list of opaque fields and to a wallet-derived public key, and is
// spendable only with a signature from that key. Fields are stored exactly
// as given; encryption is the caller's concern.
package pushdrop

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/allisson/walletguard/internal/errors"
	"github.com/allisson/walletguard/wallet"
)

// script layout, all integers big-endian:
//
//	magic (8 bytes) | tag (32 bytes) | keyLen u16 | key | fieldCount u16 |
//	(fieldLen u32 | field)*
var magic = []byte("tokpdv1\x00")

// SignatureLength is the worst-case unlocking script size, used when
// declaring inputs that spend a token before the signature exists.
const SignatureLength = 73

var (
	// ErrMalformedScript indicates the script is not a token script or is
	// truncated.
	ErrMalformedScript = errors.New("malformed token script")
)

// Data is the decoded content of a token locking script.
type Data struct {
	// PublicKey is the compressed secp256k1 key (hex) allowed to spend the
	// token.
	PublicKey string

	// Fields are the committed payload fields in their original order.
	Fields [][]byte
}

// Template builds and spends token scripts against a wallet. All key
// derivation and signing stays inside the wallet; the template never sees
// private key material.
type Template struct {
	wallet wallet.Interface

	// originator is the identity under which wallet calls are made,
	// normally the administrative originator.
	originator string
}

// NewTemplate returns a template performing wallet calls as originator.
func NewTemplate(w wallet.Interface, originator string) *Template {
	return &Template{wallet: w, originator: originator}
}

// Lock builds a token locking script committing to fields, spendable by the
// key the wallet derives for (protocol, keyID, counterparty).
func (t *Template) Lock(ctx context.Context, fields [][]byte, protocol wallet.ProtocolID, keyID, counterparty string) ([]byte, error) {
	res, err := t.wallet.GetPublicKey(ctx, wallet.GetPublicKeyArgs{
		ProtocolID:   &protocol,
		KeyID:        keyID,
		Counterparty: counterparty,
		ForSelf:      true,
	}, t.originator)
	if err != nil {
		return nil, errors.Wrap(err, "derive locking key")
	}
	key, err := hex.DecodeString(res.PublicKey)
	if err != nil {
		return nil, errors.Wrap(err, "decode locking key")
	}
	return assemble(key, fields)
}

// Decode parses a token locking script. It returns ErrMalformedScript for
// scripts that are not token scripts, so callers can skip foreign outputs
// when scanning a basket.
func Decode(script []byte) (*Data, error) {
	r := bytes.NewReader(script)

	head := make([]byte, len(magic))
	if _, err := io.ReadFull(r, head); err != nil || !bytes.Equal(head, magic) {
		return nil, ErrMalformedScript
	}
	tag := make([]byte, tagSize)
	if _, err := io.ReadFull(r, tag); err != nil {
		return nil, ErrMalformedScript
	}

	var keyLen uint16
	if err := binary.Read(r, binary.BigEndian, &keyLen); err != nil {
		return nil, ErrMalformedScript
	}
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, ErrMalformedScript
	}

	var count uint16
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, ErrMalformedScript
	}
	fields := make([][]byte, 0, count)
	for i := uint16(0); i < count; i++ {
		var fieldLen uint32
		if err := binary.Read(r, binary.BigEndian, &fieldLen); err != nil {
			return nil, ErrMalformedScript
		}
		field := make([]byte, fieldLen)
		if _, err := io.ReadFull(r, field); err != nil {
			return nil, ErrMalformedScript
		}
		fields = append(fields, field)
	}
	if r.Len() != 0 {
		return nil, ErrMalformedScript
	}

	if !bytes.Equal(tag, scriptTag(key, fields)) {
		return nil, ErrMalformedScript
	}
	return &Data{PublicKey: hex.EncodeToString(key), Fields: fields}, nil
}

// Unlock returns an unlocking script spending the token at outpoint, signed
// by the wallet with the key derived for (protocol, keyID, counterparty).
// The signed digest covers the outpoint and the locking script, so a
// signature cannot be replayed against a different token.
func (t *Template) Unlock(ctx context.Context, outpoint wallet.Outpoint, lockingScript []byte, protocol wallet.ProtocolID, keyID, counterparty string) ([]byte, error) {
	digest := spendDigest(outpoint, lockingScript)
	res, err := t.wallet.CreateSignature(ctx, wallet.CreateSignatureArgs{
		ProtocolID:   protocol,
		KeyID:        keyID,
		Counterparty: counterparty,
		HashToSign:   digest,
	}, t.originator)
	if err != nil {
		return nil, errors.Wrap(err, "sign token spend")
	}
	return res.Signature, nil
}

const tagSize = 32

// scriptTag derives a recognizer value binding the key to the payload.
// Basket scans use the tag to reject scripts that merely share the magic
// prefix.
func scriptTag(key []byte, fields [][]byte) []byte {
	h := sha256.New()
	for _, f := range fields {
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(f)))
		h.Write(n[:])
		h.Write(f)
	}
	payload := h.Sum(nil)

	tag := make([]byte, tagSize)
	kdf := hkdf.New(sha256.New, key, payload, []byte("token script tag"))
	if _, err := io.ReadFull(kdf, tag); err != nil {
		// sha256-based hkdf cannot fail to produce 32 bytes
		panic(err)
	}
	return tag
}

func assemble(key []byte, fields [][]byte) ([]byte, error) {
	if len(key) == 0 || len(key) > 0xffff {
		return nil, errors.Wrap(ErrMalformedScript, "invalid key length")
	}
	if len(fields) > 0xffff {
		return nil, errors.Wrap(ErrMalformedScript, "too many fields")
	}

	var buf bytes.Buffer
	buf.Write(magic)
	buf.Write(scriptTag(key, fields))
	binary.Write(&buf, binary.BigEndian, uint16(len(key)))
	buf.Write(key)
	binary.Write(&buf, binary.BigEndian, uint16(len(fields)))
	for _, f := range fields {
		binary.Write(&buf, binary.BigEndian, uint32(len(f)))
		buf.Write(f)
	}
	return buf.Bytes(), nil
}

func spendDigest(outpoint wallet.Outpoint, lockingScript []byte) []byte {
	h := sha256.New()
	h.Write([]byte(outpoint.String()))
	h.Write([]byte{0})
	h.Write(lockingScript)
	sum := h.Sum(nil)
	return sum
}
