package crypto

import (
	"errors"

	"github.com/awnumar/memguard"
)

// ErrKeyDestroyed is returned when a destroyed SecureKey is opened
var ErrKeyDestroyed = errors.New("key destroyed")

// SecureKey stores a master key in an encrypted Enclave.
// Only decrypted briefly when needed for crypto ops.
type SecureKey struct {
	enclave *memguard.Enclave
}

// NewSecureKey seals a copy of key into an Enclave. The caller keeps
// ownership of key and should clear it.
func NewSecureKey(key []byte) *SecureKey {
	if len(key) == 0 {
		return &SecureKey{}
	}
	// NewBufferFromBytes wipes its argument
	tmp := make([]byte, len(key))
	copy(tmp, key)
	buf := memguard.NewBufferFromBytes(tmp)
	return &SecureKey{enclave: buf.Seal()}
}

// Open returns the plaintext key. Caller must call cleanup().
//
//	key, cleanup, err := sk.Open()
//	defer cleanup()
func (s *SecureKey) Open() ([]byte, func(), error) {
	if s.IsDestroyed() {
		return nil, func() {}, ErrKeyDestroyed
	}

	buf, err := s.enclave.Open()
	if err != nil {
		return nil, func() {}, err
	}

	return buf.Bytes(), buf.Destroy, nil
}

// Destroy drops the Enclave
func (s *SecureKey) Destroy() {
	if s != nil {
		s.enclave = nil
	}
}

// IsDestroyed returns true if destroyed, empty or nil
func (s *SecureKey) IsDestroyed() bool {
	return s == nil || s.enclave == nil
}
