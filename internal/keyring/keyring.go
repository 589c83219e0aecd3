// Package keyring caches vault master keys in the OS keyring, one item per
// vault ID under the "ringbearer" service.
package keyring

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const serviceName = "ringbearer"

// ErrNotStored is returned when no master key is cached for a vault
var ErrNotStored = errors.New("master key not stored in keyring")

// SaveMasterKey stores the master key of a vault in the OS keyring
func SaveMasterKey(vaultID string, key []byte) error {
	return keyring.Set(serviceName, vaultID, string(key))
}

// GetMasterKey retrieves the cached master key of a vault.
// The caller should clear the returned slice.
func GetMasterKey(vaultID string) ([]byte, error) {
	secret, err := keyring.Get(serviceName, vaultID)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrNotStored
	}
	if err != nil {
		return nil, err
	}
	return []byte(secret), nil
}

// DeleteMasterKey removes the cached master key of a vault
func DeleteMasterKey(vaultID string) error {
	err := keyring.Delete(serviceName, vaultID)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotStored
	}
	return err
}

// HasMasterKey checks if a master key is cached for a vault
func HasMasterKey(vaultID string) bool {
	_, err := keyring.Get(serviceName, vaultID)
	return err == nil
}
