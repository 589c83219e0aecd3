package core

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"github.com/illarion/ringbearer/internal/crypto"
	"github.com/illarion/ringbearer/internal/storage"
	"github.com/illarion/ringbearer/internal/vaulterr"
	"github.com/rs/zerolog"
)

// Session is one logged-in vault. It owns the decrypted entries and the
// sealed master key until Close.
type Session struct {
	mu      sync.Mutex
	store   Store
	index   Index
	logger  zerolog.Logger
	path    string
	key     *crypto.SecureKey
	entries []storage.Entry
}

// Path returns the vault file path of the session
func (s *Session) Path() string {
	return s.path
}

// Close destroys the master key and drops the entries.
// Later operations fail with vaulterr.Validation.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key.IsDestroyed() {
		return
	}
	s.key.Destroy()
	s.entries = nil
	s.logger.Debug().Msg("session closed")
}

// Closed reports whether Close was called
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key.IsDestroyed()
}

// GetEntries returns a copy of the collection
func (s *Session) GetEntries() []storage.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return storage.CloneEntries(s.entries)
}

// GetEntry returns the first entry whose Key contains key, ignoring case
func (s *Session) GetEntry(key string) (storage.Entry, error) {
	const op = "session.get"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(op); err != nil {
		return storage.Entry{}, err
	}
	if len(s.entries) == 0 {
		return storage.Entry{}, vaulterr.E(vaulterr.EmptyList, op, "vault has no entries")
	}
	if strings.TrimSpace(key) == "" {
		return storage.Entry{}, vaulterr.E(vaulterr.Validation, op, "key is empty")
	}

	for _, e := range s.entries {
		if e.KeyContains(key) {
			return e, nil
		}
	}
	return storage.Entry{}, vaulterr.E(vaulterr.NotFound, op, key)
}

// FilterEntries returns the entries with keyword in any field, ignoring
// case. A blank keyword returns every entry.
func (s *Session) FilterEntries(keyword string) []storage.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(keyword) == "" {
		return storage.CloneEntries(s.entries)
	}

	result := make([]storage.Entry, 0)
	for _, e := range s.entries {
		if e.Matches(keyword) {
			result = append(result, e)
		}
	}
	return result
}

// AddEntry appends a new entry. Clear sentinels are stored as "".
func (s *Session) AddEntry(ctx context.Context, entry storage.Entry) error {
	const op = "session.add"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(op); err != nil {
		return err
	}
	if err := storage.ValidateEntry(entry); err != nil {
		return err
	}
	if storage.FindEntry(s.entries, entry.Key) >= 0 {
		return vaulterr.E(vaulterr.DuplicateEntry, op, entry.Key)
	}

	candidate := append(storage.CloneEntries(s.entries), entry.Normalized())
	if err := s.commit(ctx, op, candidate); err != nil {
		return err
	}

	s.logger.Info().Str("key", entry.Key).Msg("entry added")
	return nil
}

// UpdateEntry merges entry into the stored entry with the same Key.
// See storage.Entry.Merge for the field rules.
func (s *Session) UpdateEntry(ctx context.Context, entry storage.Entry) error {
	const op = "session.update"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(op); err != nil {
		return err
	}
	if strings.TrimSpace(entry.Key) == "" {
		return vaulterr.E(vaulterr.Validation, op, "key is empty")
	}

	idx := storage.FindEntry(s.entries, entry.Key)
	if idx < 0 {
		return vaulterr.E(vaulterr.NotFound, op, entry.Key)
	}

	candidate := storage.CloneEntries(s.entries)
	changed := candidate[idx].Merge(entry)
	if err := s.commit(ctx, op, candidate); err != nil {
		return err
	}

	s.logger.Info().Str("key", candidate[idx].Key).Bool("changed", changed).Msg("entry updated")
	return nil
}

// DeleteEntry removes the entry whose Key equals key, ignoring case
func (s *Session) DeleteEntry(ctx context.Context, key string) error {
	const op = "session.delete"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(op); err != nil {
		return err
	}
	if strings.TrimSpace(key) == "" {
		return vaulterr.E(vaulterr.Validation, op, "key is empty")
	}

	idx := storage.FindEntry(s.entries, key)
	if idx < 0 {
		return vaulterr.E(vaulterr.NotFound, op, key)
	}

	candidate := removeAt(storage.CloneEntries(s.entries), idx)
	if err := s.commit(ctx, op, candidate); err != nil {
		return err
	}

	s.logger.Info().Str("key", key).Msg("entry deleted")
	return nil
}

// DeleteSelectedEntries removes every given entry by Key. Nothing is
// removed unless all of them exist.
func (s *Session) DeleteSelectedEntries(ctx context.Context, selected []storage.Entry) error {
	const op = "session.delete_selected"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(op); err != nil {
		return err
	}
	if len(selected) == 0 {
		return vaulterr.E(vaulterr.Validation, op, "no entries selected")
	}

	candidate := storage.CloneEntries(s.entries)
	for _, e := range selected {
		idx := storage.FindEntry(candidate, e.Key)
		if idx < 0 {
			return vaulterr.E(vaulterr.NotFound, op, e.Key)
		}
		candidate = removeAt(candidate, idx)
	}

	if err := s.commit(ctx, op, candidate); err != nil {
		return err
	}

	s.logger.Info().Int("deleted", len(selected)).Msg("entries deleted")
	return nil
}

// ChangeMasterKey re-encrypts the vault under newKey and makes it the
// session key. The caller is assumed to be authenticated already.
func (s *Session) ChangeMasterKey(ctx context.Context, newKey []byte) error {
	const op = "session.change_master_key"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(op); err != nil {
		return err
	}
	if len(bytes.TrimSpace(newKey)) == 0 {
		return vaulterr.E(vaulterr.Validation, op, "new master key is empty")
	}

	entries := storage.CloneEntries(s.entries)
	if err := s.store.Save(ctx, entries, newKey, s.path); err != nil {
		return err
	}

	old := s.key
	s.key = crypto.NewSecureKey(newKey)
	old.Destroy()

	s.logger.Info().Msg("master key changed")
	s.record(func(idx Index) error { return idx.RecordModified(s.path, len(entries)) })
	return nil
}

// ImportEntries merges imported into the collection: entries whose Key
// already exists are updated with the Merge rules, the rest are appended.
// The combined collection is saved once.
func (s *Session) ImportEntries(ctx context.Context, imported []storage.Entry) error {
	const op = "session.import"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(op); err != nil {
		return err
	}
	if err := validateImport(op, imported); err != nil {
		return err
	}

	candidate, changes := mergeImport(s.entries, imported)
	if err := s.commit(ctx, op, candidate); err != nil {
		return err
	}

	added, updated := changes.counts()
	s.logger.Info().Int("added", added).Int("updated", updated).Msg("entries imported")
	return nil
}

// PreviewImport reports what ImportEntries would do without saving
func (s *Session) PreviewImport(imported []storage.Entry) (Changes, error) {
	const op = "session.preview_import"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(op); err != nil {
		return nil, err
	}
	if err := validateImport(op, imported); err != nil {
		return nil, err
	}

	_, changes := mergeImport(s.entries, imported)
	return changes, nil
}

func validateImport(op string, imported []storage.Entry) error {
	if len(imported) == 0 {
		return vaulterr.E(vaulterr.Validation, op, "nothing to import")
	}
	for _, e := range imported {
		if err := storage.ValidateEntry(e); err != nil {
			return err
		}
	}
	return nil
}

// commit saves candidate under the session key and, on success, makes it
// the session collection. Must be called with s.mu held.
func (s *Session) commit(ctx context.Context, op string, candidate []storage.Entry) error {
	key, cleanup, err := s.key.Open()
	if err != nil {
		return vaulterr.Wrap(vaulterr.Validation, op, err)
	}
	defer cleanup()

	if err := s.store.Save(ctx, candidate, key, s.path); err != nil {
		s.logger.Debug().Str("op", op).Str("kind", vaulterr.KindOf(err).String()).Msg("save failed")
		return err
	}

	s.entries = candidate
	s.record(func(idx Index) error { return idx.RecordModified(s.path, len(candidate)) })
	return nil
}

func (s *Session) checkOpen(op string) error {
	if s.key.IsDestroyed() {
		return vaulterr.E(vaulterr.Validation, op, "session is closed")
	}
	return nil
}

func (s *Session) record(fn func(Index) error) {
	if s.index == nil {
		return
	}
	if err := fn(s.index); err != nil {
		s.logger.Warn().Err(err).Msg("failed to update vault index")
	}
}

func removeAt(entries []storage.Entry, i int) []storage.Entry {
	return append(entries[:i], entries[i+1:]...)
}
