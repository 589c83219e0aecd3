package core

import (
	"bytes"
	"context"

	"github.com/illarion/ringbearer/internal/crypto"
	"github.com/illarion/ringbearer/internal/storage"
	"github.com/illarion/ringbearer/internal/vaulterr"
	"github.com/rs/zerolog"
)

// DefaultVaultFile is used when Login is given no path and no default was configured
const DefaultVaultFile = "vault.ring"

// Store persists the whole entry collection
type Store interface {
	Load(ctx context.Context, masterKey []byte, path string) ([]storage.Entry, error)
	Save(ctx context.Context, entries []storage.Entry, masterKey []byte, path string) error
}

// Index records unencrypted facts about a vault after logins and writes.
// Failures are logged and never fail the vault operation.
type Index interface {
	RecordLogin(path string, entries int) error
	RecordModified(path string, entries int) error
}

// Manager opens vault sessions
type Manager struct {
	store       Store
	index       Index
	logger      zerolog.Logger
	defaultPath string
}

// Option configures a Manager
type Option func(*Manager)

// WithStore replaces the default encrypted file store
func WithStore(store Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithIndex enables vault index updates
func WithIndex(index Index) Option {
	return func(m *Manager) {
		m.index = index
	}
}

// WithLogger sets the logger handed to every session
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithDefaultPath sets the vault used when Login gets an empty path
func WithDefaultPath(path string) Option {
	return func(m *Manager) {
		if path != "" {
			m.defaultPath = path
		}
	}
}

// NewManager creates a Manager backed by storage.VaultFile unless overridden
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		store:       storage.NewVaultFile(),
		logger:      zerolog.Nop(),
		defaultPath: DefaultVaultFile,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DefaultPath returns the vault path used for an empty Login path
func (m *Manager) DefaultPath() string {
	return m.defaultPath
}

// FileExist reports whether a vault file exists at path
func (m *Manager) FileExist(path string) bool {
	return storage.FileExist(path)
}

// Login loads the vault at path (the default path when empty) with
// masterKey and returns a session over its entries. A missing vault file
// is created empty. Store failures are returned unchanged.
func (m *Manager) Login(ctx context.Context, masterKey []byte, path string) (*Session, error) {
	const op = "session.login"

	if len(bytes.TrimSpace(masterKey)) == 0 {
		return nil, vaulterr.E(vaulterr.Validation, op, "master key is empty")
	}
	if path == "" {
		path = m.defaultPath
	}

	logger := m.logger.With().Str("path", path).Logger()
	existed := storage.FileExist(path)

	entries, err := m.store.Load(ctx, masterKey, path)
	if err != nil {
		logger.Debug().Str("kind", vaulterr.KindOf(err).String()).Msg("login failed")
		return nil, err
	}

	s := &Session{
		store:   m.store,
		index:   m.index,
		logger:  logger,
		path:    path,
		key:     crypto.NewSecureKey(masterKey),
		entries: entries,
	}

	if existed {
		logger.Info().Int("entries", len(entries)).Msg("vault loaded")
	} else {
		logger.Info().Msg("vault created")
	}
	s.record(func(idx Index) error { return idx.RecordLogin(path, len(entries)) })

	return s, nil
}
