package session

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// MinSealSecretSize is the minimum accepted length of a sealing secret.
const MinSealSecretSize = 32

const sealInfo = "goSession record seal v1"

// ErrSealOpen is returned when a sealed record fails authentication.
var ErrSealOpen = errors.New("sealed record authentication failed")

// Sealer encrypts encoded records with XChaCha20-Poly1305 under a key derived
// from a shared secret. The session handle is bound as associated data, so a
// blob copied under another handle fails to open.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the record key from secret with HKDF-SHA256.
func NewSealer(secret []byte) (*Sealer, error) {
	if len(secret) < MinSealSecretSize {
		return nil, fmt.Errorf("seal secret must be at least %d bytes", MinSealSecretSize)
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(sealInfo)), key); err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// Seal returns nonce || ciphertext for plaintext bound to sessionID.
func (s *Sealer) Seal(sessionID string, plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plaintext, []byte(sessionID)), nil
}

// Open authenticates and decrypts a blob produced by Seal.
func (s *Sealer) Open(sessionID string, sealed []byte) ([]byte, error) {
	if len(sealed) < s.aead.NonceSize()+s.aead.Overhead() {
		return nil, ErrSealOpen
	}
	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, []byte(sessionID))
	if err != nil {
		return nil, ErrSealOpen
	}
	return plaintext, nil
}
