package crypto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/illarion/ringbearer/internal/vaulterr"
)

// testIters keeps the suite fast; TestDefaultIterations covers the real count.
const testIters = 1000

func TestEncryptDecryptRoundTrip(t *testing.T) {
	engine := NewEngine(WithIterations(testIters))

	tests := []struct {
		name      string
		plaintext string
	}{
		{"short", "[]"},
		{"exact block", "0123456789abcdef"},
		{"json", `[{"Key":"gmail","UserName":"alice","Password":"p1","Notes":"n1"}]`},
		{"unicode", "ghâsh-bûrz-krimp 世界"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := engine.Encrypt([]byte(tt.plaintext), []byte("master"))
			if err != nil {
				t.Fatalf("Encrypt failed: %v", err)
			}
			if (len(blob)-HeaderSize)%IVSize != 0 {
				t.Errorf("ciphertext length %d is not block aligned", len(blob)-HeaderSize)
			}

			got, err := engine.Decrypt([]byte("master"), blob)
			if err != nil {
				t.Fatalf("Decrypt failed: %v", err)
			}
			if string(got) != tt.plaintext {
				t.Errorf("round trip mismatch: got %q, want %q", got, tt.plaintext)
			}
		})
	}
}

func TestDefaultIterations(t *testing.T) {
	engine := NewEngine()
	if engine.Iterations() != DefaultIters {
		t.Fatalf("Iterations() = %d, want %d", engine.Iterations(), DefaultIters)
	}

	blob, err := engine.Encrypt([]byte("secret"), []byte("master"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	got, err := engine.Decrypt([]byte("master"), blob)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if string(got) != "secret" {
		t.Errorf("got %q, want secret", got)
	}
}

func TestEncryptFreshSaltAndIV(t *testing.T) {
	engine := NewEngine(WithIterations(testIters))

	a, err := engine.Encrypt([]byte("same"), []byte("pw"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	b, err := engine.Encrypt([]byte("same"), []byte("pw"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if bytes.Equal(a, b) {
		t.Error("two encryptions of identical input should differ")
	}
	if bytes.Equal(a[:SaltSize], b[:SaltSize]) {
		t.Error("salt should be fresh per encryption")
	}
	if bytes.Equal(a[SaltSize:HeaderSize], b[SaltSize:HeaderSize]) {
		t.Error("iv should be fresh per encryption")
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	engine := NewEngine(WithIterations(testIters))

	blob, err := engine.Encrypt([]byte(`[{"Key":"gmail"}]`), []byte("right"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if _, err := engine.Decrypt([]byte("wrong"), blob); !errors.Is(err, ErrAuthFailed) {
		t.Errorf("expected ErrAuthFailed, got %v", err)
	}
}

func TestEncryptValidation(t *testing.T) {
	engine := NewEngine(WithIterations(testIters))

	tests := []struct {
		name      string
		plaintext string
		password  string
	}{
		{"empty plaintext", "", "pw"},
		{"blank plaintext", "   ", "pw"},
		{"empty password", "data", ""},
		{"blank password", "data", " \t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Encrypt([]byte(tt.plaintext), []byte(tt.password))
			if !errors.Is(err, vaulterr.Validation) {
				t.Errorf("expected Validation, got %v", err)
			}
		})
	}
}

func TestDecryptInputErrors(t *testing.T) {
	engine := NewEngine(WithIterations(testIters))

	if _, err := engine.Decrypt([]byte(""), []byte("data")); !errors.Is(err, vaulterr.Validation) {
		t.Errorf("blank password: expected Validation, got %v", err)
	}
	if _, err := engine.Decrypt([]byte("pw"), nil); !errors.Is(err, vaulterr.NotFound) {
		t.Errorf("empty blob: expected NotFound, got %v", err)
	}
	if _, err := engine.Decrypt([]byte("pw"), make([]byte, HeaderSize+5)); !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("misaligned blob: expected ErrInvalidCiphertext, got %v", err)
	}
	if _, err := engine.Decrypt([]byte("pw"), make([]byte, HeaderSize)); !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("header only: expected ErrInvalidCiphertext, got %v", err)
	}
}

func TestPKCS7(t *testing.T) {
	for n := 0; n <= 33; n++ {
		data := bytes.Repeat([]byte{'x'}, n)
		padded := pkcs7Pad(data, 16)
		if len(padded)%16 != 0 || len(padded) <= n {
			t.Fatalf("pad(%d): bad length %d", n, len(padded))
		}
		got, err := pkcs7Unpad(padded, 16)
		if err != nil {
			t.Fatalf("unpad(%d): %v", n, err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("unpad(%d): got %q", n, got)
		}
	}

	bad := bytes.Repeat([]byte{3}, 16)
	bad[14] = 9
	if _, err := pkcs7Unpad(bad, 16); !errors.Is(err, ErrAuthFailed) {
		t.Errorf("corrupt padding: expected ErrAuthFailed, got %v", err)
	}
}

func TestClearBytes(t *testing.T) {
	b := []byte("secret")
	ClearBytes(b)
	for i, c := range b {
		if c != 0 {
			t.Fatalf("byte %d not cleared", i)
		}
	}
}
