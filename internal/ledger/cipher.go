package ledger

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
)

// EntryKeyEnv holds the AES-256 key used to seal entry text at rest.
const EntryKeyEnv = "MOODLOG_ENTRY_KEY"

// sealedPrefix marks sealed column values; anything else is legacy plaintext.
const sealedPrefix = "enc:v1:"

const keySize = 32

var errInvalidCiphertext = errors.New("invalid entry ciphertext")

// EntryCipher seals journal text with AES-256-GCM. Each value is bound to the
// column it is stored in, so a sealed message cannot be passed off as a reply.
// A nil *EntryCipher stores text as is.
type EntryCipher struct {
	aead cipher.AEAD
}

// CipherFromEnv returns the cipher configured by EntryKeyEnv, or nil when the
// variable is unset.
func CipherFromEnv() (*EntryCipher, error) {
	raw := strings.TrimSpace(os.Getenv(EntryKeyEnv))
	if raw == "" {
		return nil, nil
	}
	c, err := NewEntryCipher(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EntryKeyEnv, err)
	}
	return c, nil
}

// NewEntryCipher accepts a 32-byte key given raw, hex encoded or standard
// base64 encoded.
func NewEntryCipher(raw string) (*EntryCipher, error) {
	key, err := parseKey(raw)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return &EntryCipher{aead: aead}, nil
}

func parseKey(raw string) ([]byte, error) {
	switch {
	case len(raw) == keySize:
		return []byte(raw), nil
	case len(raw) == hex.EncodedLen(keySize):
		if key, err := hex.DecodeString(raw); err == nil {
			return key, nil
		}
	}
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, errors.New("key must be 32 bytes, raw, hex or base64")
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("key is %d bytes, want %d", len(key), keySize)
	}
	return key, nil
}

// Seal returns the stored form of plain for column.
func (c *EntryCipher) Seal(column, plain string) (string, error) {
	if c == nil {
		return plain, nil
	}
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plain)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	out := c.aead.Seal(nonce, nonce, []byte(plain), []byte(column))
	return sealedPrefix + base64.StdEncoding.EncodeToString(out), nil
}

// Open reverses Seal for column. Unprefixed values were written before a key
// was configured and come back unchanged.
func (c *EntryCipher) Open(column, stored string) (string, error) {
	payload, sealed := strings.CutPrefix(stored, sealedPrefix)
	if !sealed {
		return stored, nil
	}
	if c == nil {
		return "", errInvalidCiphertext
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	ns := c.aead.NonceSize()
	if err != nil || len(data) < ns {
		return "", errInvalidCiphertext
	}
	plain, err := c.aead.Open(nil, data[:ns], data[ns:], []byte(column))
	if err != nil {
		return "", errInvalidCiphertext
	}
	return string(plain), nil
}
