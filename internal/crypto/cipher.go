// Package crypto provides the reversible field cipher for settlement memos.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/scrypt"

	"github.com/exsettle/settlementd/internal/errs"
)

const (
	// PlaceholderMemo is encrypted in place of an absent memo so every
	// stored row carries a ciphertext.
	PlaceholderMemo = "No memo"

	// FailureMarker is returned by Decrypt for any token it cannot
	// recover. It is distinct from a successfully decrypted empty string.
	FailureMarker = "[Decryption Failed]"

	// scrypt parameters: slow enough to make offline guessing of the
	// configured secret expensive, fast enough to run once at startup.
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32

	// keySalt is fixed: the derived key must be stable across restarts
	// so previously stored tokens remain readable.
	keySalt = "salt"
)

// MemoCipher encrypts and decrypts a single text field with AES-256-GCM
// under a key derived once at construction. The key is immutable after
// construction, so a MemoCipher is safe for concurrent use.
//
// GCM authenticates ciphertexts, so a tampered token fails decryption
// instead of yielding garbage plaintext.
type MemoCipher struct {
	aead cipher.AEAD
}

// NewMemoCipher derives the symmetric key from secret and builds the cipher.
func NewMemoCipher(secret string) (*MemoCipher, error) {
	if secret == "" {
		return nil, errs.New(errs.Encryption, "encryption secret must not be empty")
	}

	key, err := scrypt.Key([]byte(secret), []byte(keySalt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, errs.Wrap(errs.Encryption, "failed to derive key", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.Wrap(errs.Encryption, "failed to create cipher", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errs.Wrap(errs.Encryption, "failed to create GCM", err)
	}

	return &MemoCipher{aead: aead}, nil
}

// Encrypt encrypts plaintext and returns a token of the form
// hex(nonce) + ":" + hex(ciphertext). An empty plaintext is replaced by
// PlaceholderMemo before encryption. The nonce is freshly random per call;
// encrypting the same plaintext twice yields different tokens.
func (c *MemoCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		plaintext = PlaceholderMemo
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errs.Wrap(errs.Encryption, "failed to generate nonce", err)
	}

	ciphertext := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt recovers the plaintext from a token produced by Encrypt.
// Any malformed or unauthentic token yields FailureMarker, never an error:
// one bad row must not take down a listing of many.
func (c *MemoCipher) Decrypt(token string) string {
	nonceHex, ctHex, ok := strings.Cut(token, ":")
	if !ok {
		return FailureMarker
	}

	nonce, err := hex.DecodeString(nonceHex)
	if err != nil || len(nonce) != c.aead.NonceSize() {
		return FailureMarker
	}

	ciphertext, err := hex.DecodeString(ctHex)
	if err != nil {
		return FailureMarker
	}

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return FailureMarker
	}

	return string(plaintext)
}

// String implements fmt.Stringer without exposing key material.
func (c *MemoCipher) String() string {
	return fmt.Sprintf("MemoCipher(aes-256-gcm, nonce=%d)", c.aead.NonceSize())
}
