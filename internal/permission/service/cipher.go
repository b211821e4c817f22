package service

import (
	"context"

	"github.com/allisson/walletguard/wallet"
)

// Derivation parameters for the two encryption domains the permission layer
// owns. Both live in the admin protocol namespace, so no external originator
// can request keys for them.
var (
	tokenEncryptionProtocol = wallet.ProtocolID{
		SecurityLevel: 2,
		Name:          "admin permission token encryption",
	}
	metadataEncryptionProtocol = wallet.ProtocolID{
		SecurityLevel: 2,
		Name:          "admin metadata encryption",
	}
)

const cipherKeyID = "1"

// Cipher encrypts and decrypts byte fields under a fixed wallet-derived key,
// calling the wallet as the administrative originator. Decrypt returns the
// input unchanged when decryption fails, which keeps tokens and metadata
// written before encryption was enabled readable.
type Cipher struct {
	wallet     wallet.Interface
	originator string
	protocol   wallet.ProtocolID
}

// NewTokenCipher returns the cipher for permission token fields.
func NewTokenCipher(w wallet.Interface, adminOriginator string) *Cipher {
	return &Cipher{wallet: w, originator: adminOriginator, protocol: tokenEncryptionProtocol}
}

// NewMetadataCipher returns the cipher for wallet metadata such as
// descriptions and custom instructions.
func NewMetadataCipher(w wallet.Interface, adminOriginator string) *Cipher {
	return &Cipher{wallet: w, originator: adminOriginator, protocol: metadataEncryptionProtocol}
}

// Encrypt encrypts plaintext under the cipher's derivation parameters.
func (c *Cipher) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	res, err := c.wallet.Encrypt(ctx, wallet.EncryptArgs{
		ProtocolID:   c.protocol,
		KeyID:        cipherKeyID,
		Counterparty: "self",
		Plaintext:    plaintext,
	}, c.originator)
	if err != nil {
		return nil, err
	}
	return res.Ciphertext, nil
}

// Decrypt decrypts ciphertext, falling back to the raw input when the value
// is not decryptable (legacy plaintext).
func (c *Cipher) Decrypt(ctx context.Context, ciphertext []byte) []byte {
	res, err := c.wallet.Decrypt(ctx, wallet.DecryptArgs{
		ProtocolID:   c.protocol,
		KeyID:        cipherKeyID,
		Counterparty: "self",
		Ciphertext:   ciphertext,
	}, c.originator)
	if err != nil {
		return ciphertext
	}
	return res.Plaintext
}

// EncryptString is Encrypt over string values.
func (c *Cipher) EncryptString(ctx context.Context, s string) (string, error) {
	out, err := c.Encrypt(ctx, []byte(s))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// DecryptString is Decrypt over string values.
func (c *Cipher) DecryptString(ctx context.Context, s string) string {
	return string(c.Decrypt(ctx, []byte(s)))
}
