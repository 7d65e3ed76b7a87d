package snapshot

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"

	"github.com/arkvale/worldsave-go/pkg/crypto/adaptive"
)

// Encryption errors.
var (
	ErrKeyTooShort       = errors.New("snapshot: encryption key too short (minimum 16 bytes)")
	ErrPassphraseTooWeak = errors.New("snapshot: passphrase too weak (minimum 8 characters)")
	ErrKeyRequired       = errors.New("snapshot: file is encrypted and no key was provided")
	ErrNotEncrypted      = errors.New("snapshot: expected an encrypted file")
	ErrDecryptFailed     = errors.New("snapshot: decrypt failed: wrong key or corrupted data")
)

const (
	// MinKeyLength is the minimum raw key length.
	MinKeyLength = 16

	// MinPassphraseLength is the minimum passphrase length.
	MinPassphraseLength = 8

	// SaltLength is the salt length used in passphrase key derivation.
	SaltLength = 16

	// Argon2id parameters for key derivation from a passphrase.
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
)

// EncryptionConfig configures snapshot encryption at rest.
//
// Either Key or Passphrase enables encryption; Passphrase wins when both are
// set. The derivation salt is generated per write and persisted in the file
// meta, so the same passphrase reconstructs the key for reading.
type EncryptionConfig struct {
	// Key is a raw encryption key: 16, 24, or 32 bytes for AES-GCM,
	// 32 bytes for ChaCha20-Poly1305.
	Key []byte

	// Passphrase derives a 32-byte key via Argon2id.
	Passphrase []byte

	// Algorithm selects "aes-gcm" or "chacha20-poly1305". Empty picks the
	// hardware-preferred cipher at write time; reads take it from the meta.
	Algorithm string
}

// Enabled reports whether the configuration enables encryption. Safe on nil.
func (c *EncryptionConfig) Enabled() bool {
	return c != nil && (len(c.Key) > 0 || len(c.Passphrase) > 0)
}

// Validate checks key and passphrase strength.
func (c *EncryptionConfig) Validate() error {
	if c == nil {
		return nil
	}
	if len(c.Passphrase) > 0 {
		if len(c.Passphrase) < MinPassphraseLength {
			return ErrPassphraseTooWeak
		}
		return nil
	}
	if len(c.Key) > 0 && len(c.Key) < MinKeyLength {
		return ErrKeyTooShort
	}
	return nil
}

// cipherForWrite resolves the cipher for a new file. The returned salt is
// non-nil only for passphrase derivation and must be persisted in the meta.
func cipherForWrite(cfg *EncryptionConfig) (adaptive.Cipher, []byte, string, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, "", err
	}

	key := cfg.Key
	var salt []byte
	if len(cfg.Passphrase) > 0 {
		salt = make([]byte, SaltLength)
		if _, err := rand.Read(salt); err != nil {
			return nil, nil, "", fmt.Errorf("snapshot: generate salt: %w", err)
		}
		key = deriveKey(cfg.Passphrase, salt)
	}

	if cfg.Algorithm == "" {
		c, err := adaptive.New(key)
		if err != nil {
			return nil, nil, "", fmt.Errorf("snapshot: cipher: %w", err)
		}
		return c, salt, string(c.Type()), nil
	}

	c, err := adaptive.NewWithType(key, adaptive.CipherType(cfg.Algorithm))
	if err != nil {
		return nil, nil, "", fmt.Errorf("snapshot: cipher: %w", err)
	}
	return c, salt, cfg.Algorithm, nil
}

// cipherForRead resolves the cipher for an existing file from its meta.
func cipherForRead(cfg *EncryptionConfig, salt []byte, algorithm string) (adaptive.Cipher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	key := cfg.Key
	if len(cfg.Passphrase) > 0 {
		if len(salt) == 0 {
			return nil, &DecodeError{Reason: "encrypted document without derivation salt"}
		}
		key = deriveKey(cfg.Passphrase, salt)
	}

	c, err := adaptive.NewWithType(key, adaptive.CipherType(algorithm))
	if err != nil {
		return nil, fmt.Errorf("snapshot: cipher: %w", err)
	}
	return c, nil
}

// deriveKey derives a 32-byte key from a passphrase using Argon2id.
func deriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
}

// DeriveSubkey derives a purpose-bound subkey from a master key using HKDF.
// Hosts running several stores off one master key (snapshots, archives) can
// keep their keys separate this way.
func DeriveSubkey(masterKey []byte, info string, length int) ([]byte, error) {
	if len(masterKey) < MinKeyLength {
		return nil, ErrKeyTooShort
	}

	reader := hkdf.New(sha256.New, masterKey, nil, []byte(info))
	key := make([]byte, length)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("snapshot: derive subkey: %w", err)
	}
	return key, nil
}

// GenerateKey generates a random encryption key of the given length.
func GenerateKey(length int) ([]byte, error) {
	if length < MinKeyLength {
		return nil, ErrKeyTooShort
	}

	key := make([]byte, length)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("snapshot: generate key: %w", err)
	}
	return key, nil
}

// ZeroKey zeros a key in memory.
func ZeroKey(key []byte) {
	for i := range key {
		key[i] = 0
	}
}
