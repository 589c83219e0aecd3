package core

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/illarion/ringbearer/internal/crypto"
	"github.com/illarion/ringbearer/internal/storage"
	"github.com/illarion/ringbearer/internal/vaulterr"
)

// memStore keeps vaults in memory and can be told to fail saves
type memStore struct {
	files    map[string][]storage.Entry
	keys     map[string]string
	failSave error
	saves    int
}

func newMemStore() *memStore {
	return &memStore{
		files: make(map[string][]storage.Entry),
		keys:  make(map[string]string),
	}
}

func (m *memStore) Load(ctx context.Context, masterKey []byte, path string) ([]storage.Entry, error) {
	entries, ok := m.files[path]
	if !ok {
		if err := m.Save(ctx, []storage.Entry{}, masterKey, path); err != nil {
			return nil, vaulterr.Wrap(vaulterr.LoadFailed, "mem.load", err)
		}
		return []storage.Entry{}, nil
	}
	if m.keys[path] != string(masterKey) {
		return nil, vaulterr.E(vaulterr.InvalidMasterKey, "mem.load", "")
	}
	return storage.CloneEntries(entries), nil
}

func (m *memStore) Save(_ context.Context, entries []storage.Entry, masterKey []byte, path string) error {
	if m.failSave != nil {
		return m.failSave
	}
	m.saves++
	m.files[path] = storage.CloneEntries(entries)
	m.keys[path] = string(masterKey)
	return nil
}

type recordingIndex struct {
	logins   int
	modified []int
}

func (r *recordingIndex) RecordLogin(string, int) error {
	r.logins++
	return nil
}

func (r *recordingIndex) RecordModified(_ string, entries int) error {
	r.modified = append(r.modified, entries)
	return nil
}

func newFileManager() *Manager {
	engine := crypto.NewEngine(crypto.WithIterations(1000))
	return NewManager(WithStore(storage.NewVaultFile(storage.WithEngine(engine))))
}

func loginWith(t *testing.T, m *Manager, path string, entries ...storage.Entry) *Session {
	t.Helper()
	s, err := m.Login(context.Background(), []byte("master"), path)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	t.Cleanup(s.Close)
	for _, e := range entries {
		if err := s.AddEntry(context.Background(), e); err != nil {
			t.Fatalf("AddEntry(%s) failed: %v", e.Key, err)
		}
	}
	return s
}

func seeded() storage.Entry {
	return storage.Entry{Key: "gmail", UserName: "alice", Password: "p1", Notes: "n1"}
}

func TestLoginCreatesVault(t *testing.T) {
	ctx := context.Background()
	m := newFileManager()
	path := filepath.Join(t.TempDir(), "vault.ring")

	if m.FileExist(path) {
		t.Fatal("vault should not exist yet")
	}

	s, err := m.Login(ctx, []byte("master"), path)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if got := s.GetEntries(); len(got) != 0 {
		t.Errorf("expected empty collection, got %v", got)
	}
	if !m.FileExist(path) {
		t.Fatal("Login should create the vault file")
	}
	s.Close()

	s, err = m.Login(ctx, []byte("master"), path)
	if err != nil {
		t.Fatalf("second Login failed: %v", err)
	}
	defer s.Close()
	if got := s.GetEntries(); len(got) != 0 {
		t.Errorf("expected empty collection, got %v", got)
	}
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	m := newFileManager()
	path := filepath.Join(t.TempDir(), "vault.ring")
	loginWith(t, m, path, seeded())

	if _, err := m.Login(ctx, []byte(" "), path); !errors.Is(err, vaulterr.Validation) {
		t.Errorf("blank key: expected Validation, got %v", err)
	}
	if _, err := m.Login(ctx, []byte("wrong"), path); !errors.Is(err, vaulterr.InvalidMasterKey) {
		t.Errorf("wrong key: expected InvalidMasterKey, got %v", err)
	}
}

func TestLoginDefaultPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.ring")
	m := NewManager(WithStore(newMemStore()), WithDefaultPath(path))

	s, err := m.Login(context.Background(), []byte("master"), "")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	defer s.Close()

	if s.Path() != path {
		t.Errorf("Path() = %s, want %s", s.Path(), path)
	}
}

func TestAddEntry(t *testing.T) {
	ctx := context.Background()
	s := loginWith(t, NewManager(WithStore(newMemStore())), "v")

	if err := s.AddEntry(ctx, storage.Entry{Key: "gmail", UserName: "alice"}); err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}
	if err := s.AddEntry(ctx, storage.Entry{Key: "GMAIL", UserName: "bob"}); !errors.Is(err, vaulterr.DuplicateEntry) {
		t.Errorf("expected DuplicateEntry, got %v", err)
	}
	if err := s.AddEntry(ctx, storage.Entry{Key: "  "}); !errors.Is(err, vaulterr.Validation) {
		t.Errorf("expected Validation for blank key, got %v", err)
	}
	if err := s.AddEntry(ctx, storage.Entry{Key: "bank", Password: storage.ClearSentinel}); err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}

	entries := s.GetEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].Password != "" {
		t.Errorf("clear sentinel should be stored as empty, got %q", entries[1].Password)
	}
}

func TestUpdateEntry(t *testing.T) {
	ctx := context.Background()
	m := newFileManager()
	path := filepath.Join(t.TempDir(), "vault.ring")
	s := loginWith(t, m, path, seeded())

	tests := []struct {
		name   string
		update storage.Entry
		want   storage.Entry
	}{
		{
			name:   "clear password",
			update: storage.Entry{Key: "gmail", Password: storage.ClearSentinel},
			want:   storage.Entry{Key: "gmail", UserName: "alice", Password: "", Notes: "n1"},
		},
		{
			name:   "empty password leaves value",
			update: storage.Entry{Key: "GMail", Password: ""},
			want:   storage.Entry{Key: "gmail", UserName: "alice", Password: "", Notes: "n1"},
		},
		{
			name:   "overwrite notes",
			update: storage.Entry{Key: "gmail", Password: "p2", Notes: "n2"},
			want:   storage.Entry{Key: "gmail", UserName: "alice", Password: "p2", Notes: "n2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.UpdateEntry(ctx, tt.update); err != nil {
				t.Fatalf("UpdateEntry failed: %v", err)
			}
			if got := s.GetEntries()[0]; got != tt.want {
				t.Errorf("entry = %+v, want %+v", got, tt.want)
			}
		})
	}

	// Persisted state matches memory
	reloaded, err := m.Login(ctx, []byte("master"), path)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	defer reloaded.Close()
	want := storage.Entry{Key: "gmail", UserName: "alice", Password: "p2", Notes: "n2"}
	if got := reloaded.GetEntries()[0]; got != want {
		t.Errorf("persisted entry = %+v, want %+v", got, want)
	}
}

func TestUpdateEntryFailures(t *testing.T) {
	ctx := context.Background()
	s := loginWith(t, NewManager(WithStore(newMemStore())), "v", seeded())

	if err := s.UpdateEntry(ctx, storage.Entry{Key: "gmai", Notes: "x"}); !errors.Is(err, vaulterr.NotFound) {
		t.Errorf("substring key: expected NotFound, got %v", err)
	}
	if err := s.UpdateEntry(ctx, storage.Entry{}); !errors.Is(err, vaulterr.Validation) {
		t.Errorf("empty entry: expected Validation, got %v", err)
	}
}

func TestDeleteEntryNotFoundLeavesVault(t *testing.T) {
	ctx := context.Background()
	m := newFileManager()
	path := filepath.Join(t.TempDir(), "vault.ring")
	s := loginWith(t, m, path, seeded())

	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteEntry(ctx, "nope"); !errors.Is(err, vaulterr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if err := s.DeleteEntry(ctx, ""); !errors.Is(err, vaulterr.Validation) {
		t.Fatalf("expected Validation, got %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("vault file changed after failed delete")
	}
	if len(s.GetEntries()) != 1 {
		t.Error("collection changed after failed delete")
	}

	if err := s.DeleteEntry(ctx, "GMAIL"); err != nil {
		t.Fatalf("DeleteEntry failed: %v", err)
	}
	if len(s.GetEntries()) != 0 {
		t.Error("entry should be deleted")
	}
}

func TestDeleteSelectedEntriesIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	s := loginWith(t, NewManager(WithStore(store)), "v",
		storage.Entry{Key: "a"}, storage.Entry{Key: "b"}, storage.Entry{Key: "c"})
	saves := store.saves

	err := s.DeleteSelectedEntries(ctx, []storage.Entry{{Key: "a"}, {Key: "missing"}})
	if !errors.Is(err, vaulterr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if len(s.GetEntries()) != 3 {
		t.Errorf("expected no entries removed, got %v", s.GetEntries())
	}
	if store.saves != saves {
		t.Error("failed batch delete must not save")
	}

	if err := s.DeleteSelectedEntries(ctx, nil); !errors.Is(err, vaulterr.Validation) {
		t.Errorf("expected Validation, got %v", err)
	}

	if err := s.DeleteSelectedEntries(ctx, []storage.Entry{{Key: "A"}, {Key: "c"}}); err != nil {
		t.Fatalf("DeleteSelectedEntries failed: %v", err)
	}
	entries := s.GetEntries()
	if len(entries) != 1 || entries[0].Key != "b" {
		t.Errorf("expected only b left, got %v", entries)
	}
	if store.saves != saves+1 {
		t.Errorf("expected exactly one save, got %d", store.saves-saves)
	}
}

func TestChangeMasterKey(t *testing.T) {
	ctx := context.Background()
	m := newFileManager()
	path := filepath.Join(t.TempDir(), "vault.ring")
	s := loginWith(t, m, path, seeded())

	if err := s.ChangeMasterKey(ctx, []byte("  ")); !errors.Is(err, vaulterr.Validation) {
		t.Fatalf("expected Validation, got %v", err)
	}
	if err := s.ChangeMasterKey(ctx, []byte("new-master")); err != nil {
		t.Fatalf("ChangeMasterKey failed: %v", err)
	}

	// Later writes use the new key
	if err := s.AddEntry(ctx, storage.Entry{Key: "bank"}); err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}

	if _, err := m.Login(ctx, []byte("master"), path); !errors.Is(err, vaulterr.InvalidMasterKey) {
		t.Errorf("old key: expected InvalidMasterKey, got %v", err)
	}
	reloaded, err := m.Login(ctx, []byte("new-master"), path)
	if err != nil {
		t.Fatalf("Login with new key failed: %v", err)
	}
	defer reloaded.Close()
	if len(reloaded.GetEntries()) != 2 {
		t.Errorf("expected 2 entries, got %d", len(reloaded.GetEntries()))
	}
}

func TestImportEntries(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	s := loginWith(t, NewManager(WithStore(store)), "v", seeded())
	saves := store.saves

	err := s.ImportEntries(ctx, []storage.Entry{
		{Key: "gmail", Notes: "updated"},
		{Key: "bank", UserName: "bob", Notes: storage.ClearSentinel},
		{Key: "BANK", Password: "pin"},
	})
	if err != nil {
		t.Fatalf("ImportEntries failed: %v", err)
	}
	if store.saves != saves+1 {
		t.Errorf("expected one save, got %d", store.saves-saves)
	}

	entries := s.GetEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %v", entries)
	}
	wantGmail := storage.Entry{Key: "gmail", UserName: "alice", Password: "p1", Notes: "updated"}
	if entries[0] != wantGmail {
		t.Errorf("gmail = %+v, want %+v", entries[0], wantGmail)
	}
	wantBank := storage.Entry{Key: "bank", UserName: "bob", Password: "pin", Notes: ""}
	if entries[1] != wantBank {
		t.Errorf("bank = %+v, want %+v", entries[1], wantBank)
	}
}

func TestImportEntriesValidation(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	s := loginWith(t, NewManager(WithStore(store)), "v", seeded())
	saves := store.saves

	if err := s.ImportEntries(ctx, nil); !errors.Is(err, vaulterr.Validation) {
		t.Errorf("nil import: expected Validation, got %v", err)
	}
	err := s.ImportEntries(ctx, []storage.Entry{{Key: "new"}, {Key: ""}})
	if !errors.Is(err, vaulterr.Validation) {
		t.Errorf("blank key: expected Validation, got %v", err)
	}
	if len(s.GetEntries()) != 1 || store.saves != saves {
		t.Error("rejected import must not change the vault")
	}
}

func TestGetEntry(t *testing.T) {
	s := loginWith(t, NewManager(WithStore(newMemStore())), "v")

	if _, err := s.GetEntry("gmail"); !errors.Is(err, vaulterr.EmptyList) {
		t.Errorf("empty vault: expected EmptyList, got %v", err)
	}

	for _, e := range []storage.Entry{{Key: "work-gmail", UserName: "w"}, {Key: "gmail", UserName: "g"}} {
		if err := s.AddEntry(context.Background(), e); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := s.GetEntry(" "); !errors.Is(err, vaulterr.Validation) {
		t.Errorf("blank key: expected Validation, got %v", err)
	}
	if _, err := s.GetEntry("yahoo"); !errors.Is(err, vaulterr.NotFound) {
		t.Errorf("missing key: expected NotFound, got %v", err)
	}

	// First substring match wins, even over an exact match later on
	got, err := s.GetEntry("GMAIL")
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if got.Key != "work-gmail" {
		t.Errorf("GetEntry() = %s, want work-gmail", got.Key)
	}
}

func TestFilterEntries(t *testing.T) {
	s := loginWith(t, NewManager(WithStore(newMemStore())), "v",
		storage.Entry{Key: "gmail", UserName: "alice"},
		storage.Entry{Key: "bank", Notes: "Alice's checking"},
		storage.Entry{Key: "zoom", Password: "xyz"},
	)

	tests := []struct {
		keyword string
		want    int
	}{
		{"", 3},
		{"   ", 3},
		{"ALICE", 2},
		{"xyz", 1},
		{"nothing", 0},
	}

	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			if got := s.FilterEntries(tt.keyword); len(got) != tt.want {
				t.Errorf("FilterEntries(%q) returned %d entries, want %d", tt.keyword, len(got), tt.want)
			}
		})
	}
}

func TestGetEntriesReturnsCopy(t *testing.T) {
	s := loginWith(t, NewManager(WithStore(newMemStore())), "v", seeded())

	snapshot := s.GetEntries()
	snapshot[0].Password = "tampered"

	if s.GetEntries()[0].Password != "p1" {
		t.Error("modifying a snapshot changed the session")
	}
}

func TestFailedSaveLeavesSession(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	s := loginWith(t, NewManager(WithStore(store)), "v", seeded())

	store.failSave = vaulterr.E(vaulterr.SaveFailed, "mem.save", "disk full")

	ops := map[string]func() error{
		"add":    func() error { return s.AddEntry(ctx, storage.Entry{Key: "bank"}) },
		"update": func() error { return s.UpdateEntry(ctx, storage.Entry{Key: "gmail", Notes: "x"}) },
		"delete": func() error { return s.DeleteEntry(ctx, "gmail") },
		"delete selected": func() error {
			return s.DeleteSelectedEntries(ctx, []storage.Entry{{Key: "gmail"}})
		},
		"import":     func() error { return s.ImportEntries(ctx, []storage.Entry{{Key: "gmail", Notes: "y"}}) },
		"change key": func() error { return s.ChangeMasterKey(ctx, []byte("other")) },
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			if err := op(); !errors.Is(err, vaulterr.SaveFailed) {
				t.Fatalf("expected SaveFailed, got %v", err)
			}
			entries := s.GetEntries()
			if len(entries) != 1 || entries[0] != seeded() {
				t.Errorf("session changed after failed save: %v", entries)
			}
		})
	}

	// The session key must still be the original one
	store.failSave = nil
	if err := s.AddEntry(ctx, storage.Entry{Key: "bank"}); err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}
	if store.keys["v"] != "master" {
		t.Errorf("vault saved under %q, want master", store.keys["v"])
	}
}

func TestClosedSession(t *testing.T) {
	ctx := context.Background()
	s := loginWith(t, NewManager(WithStore(newMemStore())), "v", seeded())

	s.Close()
	s.Close()

	if !s.Closed() {
		t.Fatal("Closed() = false after Close")
	}
	if len(s.GetEntries()) != 0 {
		t.Error("closed session should expose no entries")
	}
	if _, err := s.GetEntry("gmail"); !errors.Is(err, vaulterr.Validation) {
		t.Errorf("GetEntry: expected Validation, got %v", err)
	}
	if err := s.AddEntry(ctx, storage.Entry{Key: "bank"}); !errors.Is(err, vaulterr.Validation) {
		t.Errorf("AddEntry: expected Validation, got %v", err)
	}
}

func TestIndexRecording(t *testing.T) {
	ctx := context.Background()
	index := &recordingIndex{}
	m := NewManager(WithStore(newMemStore()), WithIndex(index))

	s := loginWith(t, m, "v", seeded(), storage.Entry{Key: "bank"})
	if err := s.DeleteEntry(ctx, "bank"); err != nil {
		t.Fatal(err)
	}

	if index.logins != 1 {
		t.Errorf("logins = %d, want 1", index.logins)
	}
	want := []int{1, 2, 1}
	if len(index.modified) != len(want) {
		t.Fatalf("modified = %v, want %v", index.modified, want)
	}
	for i := range want {
		if index.modified[i] != want[i] {
			t.Errorf("modified[%d] = %d, want %d", i, index.modified[i], want[i])
		}
	}
}
