package calendar

import (
	"crypto/rand"
	"remind-lab/errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

// Argon2id parameters used to stretch the configured secret into a box key.
const (
	keyMemory      = 64 * 1024
	keyIterations  = 3
	keyParallelism = 2
	keyLength      = 32
	nonceLength    = 24
)

var keySalt = []byte("remind-lab/calendar-tokens")

// Sealer encrypts provider tokens before they reach storage.
// A sealed token is the 24 byte nonce followed by the secretbox output.
type Sealer struct {
	key [keyLength]byte
}

func NewSealer(secret string) (*Sealer, error) {
	if secret == "" {
		return nil, errors.ErrInvalidSealKey
	}
	s := &Sealer{}
	copy(s.key[:], argon2.IDKey([]byte(secret), keySalt, keyIterations, keyMemory, keyParallelism, keyLength))
	return s, nil
}

// Seal returns nil for an empty token so that unset credentials stay unset.
func (s *Sealer) Seal(token string) ([]byte, error) {
	if token == "" {
		return nil, nil
	}
	var nonce [nonceLength]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], []byte(token), &nonce, &s.key), nil
}

func (s *Sealer) Open(sealed []byte) (string, error) {
	if len(sealed) == 0 {
		return "", nil
	}
	if len(sealed) < nonceLength+secretbox.Overhead {
		return "", errors.ErrUnsealFailed
	}
	var nonce [nonceLength]byte
	copy(nonce[:], sealed[:nonceLength])
	plain, ok := secretbox.Open(nil, sealed[nonceLength:], &nonce, &s.key)
	if !ok {
		return "", errors.ErrUnsealFailed
	}
	return string(plain), nil
}
