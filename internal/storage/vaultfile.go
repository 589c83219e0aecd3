package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/illarion/ringbearer/internal/crypto"
	"github.com/illarion/ringbearer/internal/vaulterr"
	"github.com/pkg/errors"
)

// FilePermSecure is the mode of every vault file: owner rw only
const FilePermSecure = 0600

// VaultFile loads and saves the whole entry collection as one encrypted file
type VaultFile struct {
	engine *crypto.Engine
	atomic bool
}

// VaultOption configures a VaultFile
type VaultOption func(*VaultFile)

// WithEngine sets the cipher engine
func WithEngine(engine *crypto.Engine) VaultOption {
	return func(v *VaultFile) {
		v.engine = engine
	}
}

// WithAtomicWrites selects temp-file-and-rename saves (true) or in-place
// truncating rewrites (false).
func WithAtomicWrites(atomic bool) VaultOption {
	return func(v *VaultFile) {
		v.atomic = atomic
	}
}

// NewVaultFile creates a VaultFile with the default engine and atomic writes
func NewVaultFile(opts ...VaultOption) *VaultFile {
	v := &VaultFile{
		engine: crypto.NewEngine(),
		atomic: true,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// FileExist reports whether a file exists at path
func FileExist(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Load decrypts the vault at path and returns its entries sorted by Key.
// A missing file is created empty under masterKey, so the first login
// and vault creation are the same operation.
func (v *VaultFile) Load(ctx context.Context, masterKey []byte, path string) ([]Entry, error) {
	const op = "store.load"

	if len(bytes.TrimSpace(masterKey)) == 0 {
		return nil, vaulterr.E(vaulterr.Validation, op, "master key is empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, vaulterr.Wrap(vaulterr.LoadFailed, op, err)
	}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, vaulterr.Wrap(vaulterr.LoadFailed, op, errors.Wrap(err, "cannot stat vault file"))
		}
		if err := v.Save(ctx, []Entry{}, masterKey, path); err != nil {
			return nil, vaulterr.Wrap(vaulterr.LoadFailed, op, err)
		}
		return []Entry{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.LoadFailed, op, errors.Wrap(err, "cannot read vault file"))
	}

	plaintext, err := v.engine.Decrypt(masterKey, data)
	if err != nil {
		switch vaulterr.KindOf(err) {
		case vaulterr.NotFound:
			return nil, vaulterr.Wrap(vaulterr.LoadFailed, op, err)
		case vaulterr.Validation:
			return nil, err
		}
		return nil, vaulterr.Wrap(vaulterr.InvalidMasterKey, op, err)
	}
	defer crypto.ClearBytes(plaintext)

	var entries []Entry
	if err := json.Unmarshal(plaintext, &entries); err != nil {
		return nil, vaulterr.Wrap(vaulterr.LoadFailed, op, errors.Wrap(err, "cannot parse vault contents"))
	}
	if entries == nil {
		entries = []Entry{}
	}

	SortEntries(entries)
	return entries, nil
}

// Save encrypts entries under masterKey and replaces the file at path
func (v *VaultFile) Save(ctx context.Context, entries []Entry, masterKey []byte, path string) error {
	const op = "store.save"

	if entries == nil {
		return vaulterr.E(vaulterr.Validation, op, "entries is nil")
	}
	if len(bytes.TrimSpace(masterKey)) == 0 {
		return vaulterr.E(vaulterr.Validation, op, "master key is empty")
	}
	if err := ctx.Err(); err != nil {
		return vaulterr.Wrap(vaulterr.SaveFailed, op, err)
	}

	plaintext, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return vaulterr.Wrap(vaulterr.SaveFailed, op, errors.Wrap(err, "cannot serialize entries"))
	}
	defer crypto.ClearBytes(plaintext)

	blob, err := v.engine.Encrypt(plaintext, masterKey)
	if err != nil {
		return vaulterr.Wrap(vaulterr.SaveFailed, op, err)
	}

	if v.atomic {
		err = writeFileAtomic(path, blob, FilePermSecure)
	} else {
		err = os.WriteFile(path, blob, FilePermSecure)
		err = errors.Wrap(err, "cannot write vault file")
	}
	if err != nil {
		return vaulterr.Wrap(vaulterr.SaveFailed, op, err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it over path, so readers see either the old or the new vault.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "cannot create temp file")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "cannot write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "cannot sync temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "cannot close temp file")
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "cannot set vault permissions")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "cannot replace vault file")
	}
	return nil
}
