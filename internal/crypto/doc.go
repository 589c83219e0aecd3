// Package crypto provides the cipher engine for ringbearer vaults.
//
// Encryption uses AES-256-CBC with:
//   - 32-byte key derived from the master key via PBKDF2
//   - 16-byte random IV per encryption operation
//   - PKCS#7 padding
//
// Key derivation uses PBKDF2-HMAC-SHA256 with:
//   - 16-byte random salt per encryption operation
//   - 100,000 iterations
//
// The output layout is salt || iv || ciphertext. CBC gives confidentiality
// only; a wrong master key is detected through padding or UTF-8 validation
// of the recovered plaintext, not through an authentication tag.
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
//   - SecureKey keeps a session master key sealed in a memguard Enclave
package crypto
