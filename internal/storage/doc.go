// Package storage provides persistence for ringbearer.
//
// Two stores live here:
//   - VaultFile: the encrypted vault, one file laid out as
//     salt(16) || iv(16) || AES-256-CBC(JSON array of Entry)
//   - Settings: a BBolt database next to the default vault holding
//     configuration values and an unencrypted per-vault index
//
// Settings database structure uses two buckets:
//   - config: key/value settings (vault path, log level, timeouts)
//   - vaults: per-vault records (ID, timestamps, entry count) keyed by
//     absolute vault path
//
// The vaults bucket lets ringbearer status work without a password. It
// never holds entry keys or any other vault content.
package storage
