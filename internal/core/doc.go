// Package core provides the vault session operations.
//
// A Manager opens vaults: Login loads and decrypts the file and returns a
// Session that holds the decrypted entries and the sealed master key.
// Every Session operation works on that in-memory collection:
//   - GetEntries/GetEntry/FilterEntries: read snapshots
//   - AddEntry/UpdateEntry/DeleteEntry: keyed mutations
//   - DeleteSelectedEntries: batch delete, all or nothing
//   - ChangeMasterKey: re-encrypt under a new master key
//   - ImportEntries: merge an external collection by Key
//
// Mutations are copy-on-write. The candidate collection is saved first and
// only becomes the session state when the save succeeds, so a failed call
// leaves memory and disk as they were.
//
// Lookups by GetEntry and FilterEntries match Key as a case-insensitive
// substring, while mutations require a case-insensitive exact match.
package core
