// Package seal encrypts backend tokens before they are written to the
// session store.
package seal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
	info      = "c2d-console session tokens v1"
)

var ErrOpen = errors.New("seal: cannot open sealed value")

type Sealer struct {
	key [keySize]byte
}

// New derives the box key from secret with HKDF-SHA256.
func New(secret string) (*Sealer, error) {
	if len(secret) < keySize {
		return nil, fmt.Errorf("seal: secret must be at least %d bytes", keySize)
	}

	s := &Sealer{}
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	if _, err := io.ReadFull(kdf, s.key[:]); err != nil {
		return nil, fmt.Errorf("seal: derive key: %w", err)
	}
	return s, nil
}

// Seal returns base64(nonce || box). Empty input stays empty.
func (s *Sealer) Seal(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("seal: nonce: %w", err)
	}

	out := secretbox.Seal(nonce[:], []byte(plain), &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

func (s *Sealer) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrOpen
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])

	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrOpen
	}
	return string(plain), nil
}
