package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/illarion/ringbearer/internal/vaulterr"
	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize     = 16                // Salt size in bytes
	IVSize       = aes.BlockSize     // CBC initialization vector size
	KeySize      = 32                // AES-256 key size
	HeaderSize   = SaltSize + IVSize // salt || iv prefix of every blob
	DefaultIters = 100000            // PBKDF2 iterations
)

var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrAuthFailed        = errors.New("decryption failed")
)

// KDF handles key derivation from passwords
type KDF struct {
	Salt       []byte
	Iterations int
}

// NewKDF creates a new KDF with a random salt
func NewKDF(iterations int) (*KDF, error) {
	salt, err := GenerateRandom(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	return &KDF{
		Salt:       salt,
		Iterations: iterations,
	}, nil
}

// DeriveKey derives an encryption key from a password
func (k *KDF) DeriveKey(password []byte) []byte {
	return pbkdf2.Key(password, k.Salt, k.Iterations, KeySize, sha256.New)
}

// Engine encrypts and decrypts vault payloads under a password
type Engine struct {
	iterations int
}

// Option configures an Engine
type Option func(*Engine)

// WithIterations overrides the PBKDF2 iteration count.
// Blobs written with one count can only be read back with the same count.
func WithIterations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.iterations = n
		}
	}
}

// NewEngine creates an engine using DefaultIters unless overridden
func NewEngine(opts ...Option) *Engine {
	e := &Engine{iterations: DefaultIters}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Iterations returns the PBKDF2 iteration count in use
func (e *Engine) Iterations() int {
	return e.iterations
}

// Encrypt encrypts plaintext with a key derived from password and returns
// salt || iv || ciphertext. A fresh salt and IV are drawn on every call.
func (e *Engine) Encrypt(plaintext, password []byte) ([]byte, error) {
	if isBlank(plaintext) {
		return nil, vaulterr.E(vaulterr.Validation, "crypto.encrypt", "plaintext is empty")
	}
	if isBlank(password) {
		return nil, vaulterr.E(vaulterr.Validation, "crypto.encrypt", "password is empty")
	}

	kdf, err := NewKDF(e.iterations)
	if err != nil {
		return nil, err
	}
	key := kdf.DeriveKey(password)
	defer ClearBytes(key)

	iv, err := GenerateRandom(IVSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate iv: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	defer ClearBytes(padded)

	result := make([]byte, HeaderSize+len(padded))
	copy(result, kdf.Salt)
	copy(result[SaltSize:], iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(result[HeaderSize:], padded)

	return result, nil
}

// Decrypt reverses Encrypt. A wrong password is reported as ErrAuthFailed.
func (e *Engine) Decrypt(password, blob []byte) ([]byte, error) {
	if isBlank(password) {
		return nil, vaulterr.E(vaulterr.Validation, "crypto.decrypt", "password is empty")
	}
	if len(blob) == 0 {
		return nil, vaulterr.E(vaulterr.NotFound, "crypto.decrypt", "ciphertext is empty")
	}

	body := len(blob) - HeaderSize
	if body < aes.BlockSize || body%aes.BlockSize != 0 {
		return nil, ErrInvalidCiphertext
	}

	kdf := &KDF{Salt: blob[:SaltSize], Iterations: e.iterations}
	key := kdf.DeriveKey(password)
	defer ClearBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	out := make([]byte, body)
	cipher.NewCBCDecrypter(block, blob[SaltSize:HeaderSize]).CryptBlocks(out, blob[HeaderSize:])

	plaintext, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		ClearBytes(out)
		return nil, err
	}
	// Padding can survive a wrong key by chance; garbage is rarely UTF-8.
	if !utf8.Valid(plaintext) {
		ClearBytes(out)
		return nil, ErrAuthFailed
	}

	return plaintext, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrInvalidCiphertext
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, ErrAuthFailed
	}
	pad := bytes.Repeat([]byte{byte(n)}, n)
	if subtle.ConstantTimeCompare(data[len(data)-n:], pad) != 1 {
		return nil, ErrAuthFailed
	}
	return data[:len(data)-n], nil
}

func isBlank(b []byte) bool {
	return len(bytes.TrimSpace(b)) == 0
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
