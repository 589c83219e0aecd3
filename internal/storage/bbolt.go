package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	ConfigBucket = []byte("config") // Settings key/values - unencrypted
	VaultsBucket = []byte("vaults") // Per-vault index for status - unencrypted
)

// ConfigVersion is the key holding the settings schema version
var ConfigVersion = []byte("_version")

// VaultRecord is the unencrypted index entry for one vault file
type VaultRecord struct {
	ID           string    `json:"id"`
	Path         string    `json:"path"`
	Created      time.Time `json:"created"`
	LastLogin    time.Time `json:"lastLogin"`
	LastModified time.Time `json:"lastModified"`
	Entries      int       `json:"entries"`
}

// Settings provides BBolt-based storage for configuration and the vault index
type Settings struct {
	db *bolt.DB
}

// OpenSettings opens or creates the settings database
func OpenSettings(path string) (*Settings, error) {
	db, err := bolt.Open(path, FilePermSecure, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}

	s := &Settings{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database
func (s *Settings) Close() error {
	return s.db.Close()
}

// initialize creates the bucket structure on first open
func (s *Settings) initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, VaultsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(ConfigBucket)
		if config.Get(ConfigVersion) == nil {
			return config.Put(ConfigVersion, []byte("1"))
		}
		return nil
	})
}

// GetConfig returns a setting and whether it was present
func (s *Settings) GetConfig(key string) (string, bool, error) {
	var value string
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(ConfigBucket).Get([]byte(key))
		if data != nil {
			value = string(data)
			found = true
		}
		return nil
	})
	return value, found, err
}

// SetConfig stores a setting
func (s *Settings) SetConfig(key, value string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(ConfigBucket).Put([]byte(key), []byte(value))
	})
}

// DeleteConfig removes a setting
func (s *Settings) DeleteConfig(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(ConfigBucket).Delete([]byte(key))
	})
}

// ConfigValues returns all stored settings, internal keys excluded
func (s *Settings) ConfigValues() (map[string]string, error) {
	values := make(map[string]string)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(ConfigBucket).ForEach(func(k, v []byte) error {
			if len(k) > 0 && k[0] == '_' {
				return nil
			}
			values[string(k)] = string(v)
			return nil
		})
	})
	return values, err
}

// GetVault returns the index record for the vault at path, or nil if
// the vault has never been opened.
func (s *Settings) GetVault(path string) (*VaultRecord, error) {
	key, err := vaultKey(path)
	if err != nil {
		return nil, err
	}

	var record *VaultRecord
	err = s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(VaultsBucket).Get(key)
		if data == nil {
			return nil
		}
		record = &VaultRecord{}
		return json.Unmarshal(data, record)
	})
	return record, err
}

// GetOrCreateVault returns the record for path, creating one with a new ID
func (s *Settings) GetOrCreateVault(path string) (*VaultRecord, error) {
	var record *VaultRecord
	err := s.updateVault(path, func(r *VaultRecord) bool {
		record = r
		return false
	})
	return record, err
}

// RecordLogin notes a successful login and the loaded entry count
func (s *Settings) RecordLogin(path string, entries int) error {
	return s.updateVault(path, func(r *VaultRecord) bool {
		r.LastLogin = time.Now()
		r.Entries = entries
		return true
	})
}

// RecordModified notes a successful save and the persisted entry count
func (s *Settings) RecordModified(path string, entries int) error {
	return s.updateVault(path, func(r *VaultRecord) bool {
		r.LastModified = time.Now()
		r.Entries = entries
		return true
	})
}

// RemoveVault drops the index record for path
func (s *Settings) RemoveVault(path string) error {
	key, err := vaultKey(path)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(VaultsBucket).Delete(key)
	})
}

// ListVaults returns every indexed vault ordered by path
func (s *Settings) ListVaults() ([]VaultRecord, error) {
	var records []VaultRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(VaultsBucket).ForEach(func(k, v []byte) error {
			var record VaultRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return err
			}
			records = append(records, record)
			return nil
		})
	})
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records, err
}

// updateVault loads (or starts) the record for path, lets fn mutate it and
// writes it back when fn returns true. New records get an ID.
func (s *Settings) updateVault(path string, fn func(*VaultRecord) bool) error {
	key, err := vaultKey(path)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		vaults := tx.Bucket(VaultsBucket)

		record := &VaultRecord{}
		if data := vaults.Get(key); data != nil {
			if err := json.Unmarshal(data, record); err != nil {
				return fmt.Errorf("failed to read vault record: %w", err)
			}
		}
		if record.ID == "" {
			record.ID = uuid.NewString()
			record.Path = string(key)
			record.Created = time.Now()
			fn(record)
		} else if !fn(record) {
			return nil
		}

		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		return vaults.Put(key, data)
	})
}

func vaultKey(path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vault path: %w", err)
	}
	return []byte(abs), nil
}
