// Package adaptive provides authenticated encryption for WorldSave data at
// rest.
//
// Snapshot files and archive entries are sealed with an AEAD cipher chosen
// for the hardware the process runs on:
//
//   - AES-256-GCM where AES instructions are available
//   - ChaCha20-Poly1305 everywhere else
//
// Both ciphers share the same wire shape (nonce prepended to the sealed
// bytes), so a file written on one machine reads on any other as long as the
// algorithm is recorded alongside it.
//
// Usage:
//
//	c, err := adaptive.New(key)
//	sealed, err := c.Encrypt(plaintext, aad)
//	plain, err := c.Decrypt(sealed, aad)
package adaptive
