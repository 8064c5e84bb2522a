// Package crypto seals short text values at rest with AES-256-GCM and an
// HMAC-SHA512/256 signature.
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gtank/cryptopasta"
)

// Prefix marks a sealed value so plaintext written before keys were
// configured can still be told apart.
const Prefix = "sealed:"

var (
	ErrKeyTooShort = errors.New("key too short, want at least 32 chars")
	ErrMalformed   = errors.New("sealed value malformed")
	ErrSignature   = errors.New("signature validation failed")
)

// NewRandomKey generates a random key suitable for NewSealer.
func NewRandomKey() (string, error) {
	key := make([]byte, 33)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(key), nil
}

type Sealer struct {
	key *[32]byte
	sig *[32]byte
}

// NewSealer builds a sealer from an encryption key and a signing key,
// each at least 32 characters. Only the first 32 bytes are used.
func NewSealer(key, sig string) (*Sealer, error) {
	rawKey, err := toKey(key)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	rawSig, err := toKey(sig)
	if err != nil {
		return nil, fmt.Errorf("signing key: %w", err)
	}
	return &Sealer{key: rawKey, sig: rawSig}, nil
}

// Seal encrypts and signs plaintext. The empty string stays empty.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	ciphertext, err := cryptopasta.Encrypt([]byte(plaintext), s.key)
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}
	signature := cryptopasta.GenerateHMAC(ciphertext, s.sig)
	return Prefix +
		base64.RawURLEncoding.EncodeToString(ciphertext) + "." +
		base64.RawURLEncoding.EncodeToString(signature), nil
}

// Open verifies and decrypts a sealed value. Values without the prefix
// are returned unchanged.
func (s *Sealer) Open(value string) (string, error) {
	body, ok := strings.CutPrefix(value, Prefix)
	if !ok {
		return value, nil
	}
	enc, encSig, ok := strings.Cut(body, ".")
	if !ok {
		return "", ErrMalformed
	}
	ciphertext, err := base64.RawURLEncoding.DecodeString(enc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	signature, err := base64.RawURLEncoding.DecodeString(encSig)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !cryptopasta.CheckHMAC(ciphertext, signature, s.sig) {
		return "", ErrSignature
	}
	plain, err := cryptopasta.Decrypt(ciphertext, s.key)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plain), nil
}

func toKey(s string) (*[32]byte, error) {
	if len(s) < 32 {
		return nil, ErrKeyTooShort
	}
	data := &[32]byte{}
	copy(data[:], s)
	return data, nil
}
