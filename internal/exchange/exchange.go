// Package exchange moves entry collections in and out of a vault as
// either a plain JSON file or a password-protected binary file.
//
// The binary format is the vault file format: salt || iv || ciphertext,
// encrypted under a password independent of the master key.
package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"os"

	"github.com/illarion/ringbearer/internal/crypto"
	"github.com/illarion/ringbearer/internal/storage"
	"github.com/illarion/ringbearer/internal/vaulterr"
)

// Format selects the exchange file encoding
type Format string

const (
	PlainJSON       Format = "json"
	EncryptedBinary Format = "binary"
)

// Valid reports whether f is a known format
func (f Format) Valid() bool {
	return f == PlainJSON || f == EncryptedBinary
}

// Options describe one export or import
type Options struct {
	Path     string `validate:"required,nonblank"`
	Password string `validate:"required_if=Format binary"`
	Format   Format
}

// Service exports and imports entry collections
type Service struct {
	engine *crypto.Engine
}

// NewService creates a Service that encrypts with engine
func NewService(engine *crypto.Engine) *Service {
	if engine == nil {
		engine = crypto.NewEngine()
	}
	return &Service{engine: engine}
}

func validateOptions(op string, opts Options) error {
	if !opts.Format.Valid() {
		return vaulterr.E(vaulterr.UnsupportedFormat, op, string(opts.Format))
	}
	return storage.ValidateStruct(op, opts)
}

// Export writes entries to opts.Path in opts.Format
func (s *Service) Export(ctx context.Context, entries []storage.Entry, opts Options) error {
	const op = "exchange.export"

	if err := validateOptions(op, opts); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return vaulterr.Wrap(vaulterr.SaveFailed, op, err)
	}
	if entries == nil {
		entries = []storage.Entry{}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return vaulterr.Wrap(vaulterr.SaveFailed, op, err)
	}
	defer crypto.ClearBytes(data)

	out := data
	if opts.Format == EncryptedBinary {
		out, err = s.engine.Encrypt(data, []byte(opts.Password))
		if err != nil {
			return err
		}
	}

	if err := os.WriteFile(opts.Path, out, storage.FilePermSecure); err != nil {
		return vaulterr.Wrap(vaulterr.SaveFailed, op, err)
	}
	return nil
}

// Import reads the entries stored at opts.Path. A wrong password for a
// binary file is reported as vaulterr.InvalidMasterKey.
func (s *Service) Import(ctx context.Context, opts Options) ([]storage.Entry, error) {
	const op = "exchange.import"

	if err := validateOptions(op, opts); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, vaulterr.Wrap(vaulterr.LoadFailed, op, err)
	}

	data, err := os.ReadFile(opts.Path)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.LoadFailed, op, err)
	}

	if opts.Format == EncryptedBinary {
		plaintext, err := s.engine.Decrypt([]byte(opts.Password), data)
		if err != nil {
			switch vaulterr.KindOf(err) {
			case vaulterr.Validation:
				return nil, err
			case vaulterr.NotFound:
				return nil, vaulterr.Wrap(vaulterr.LoadFailed, op, err)
			}
			return nil, vaulterr.Wrap(vaulterr.InvalidMasterKey, op, err)
		}
		defer crypto.ClearBytes(plaintext)
		data = plaintext
	}

	var entries []storage.Entry
	if err := json.Unmarshal(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), &entries); err != nil {
		return nil, vaulterr.Wrap(vaulterr.LoadFailed, op, err)
	}
	if entries == nil {
		entries = []storage.Entry{}
	}
	return entries, nil
}
