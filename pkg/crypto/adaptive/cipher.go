package adaptive

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"runtime"
)

// CipherType identifies the cipher algorithm.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

// ErrCiphertextShort reports a ciphertext too small to carry its nonce.
var ErrCiphertextShort = errors.New("adaptive: ciphertext too short")

// Cipher provides authenticated encryption with associated data.
type Cipher interface {
	// Type returns the cipher type.
	Type() CipherType

	// Encrypt seals plaintext, binding additionalData into the tag.
	Encrypt(plaintext, additionalData []byte) ([]byte, error)

	// Decrypt opens ciphertext produced by Encrypt with the same
	// additional data.
	Decrypt(ciphertext, additionalData []byte) ([]byte, error)

	// NonceSize returns the nonce size in bytes.
	NonceSize() int

	// Overhead returns the authentication tag size in bytes.
	Overhead() int
}

// New creates a cipher for the given key, picking the algorithm the current
// hardware runs fastest.
func New(key []byte) (Cipher, error) {
	if hasAESHardware() {
		return NewAESGCM(key)
	}
	return NewChaCha20(key)
}

// NewWithType creates a cipher of the specified type. Used on the read path,
// where the algorithm comes from the file rather than the hardware.
func NewWithType(key []byte, cipherType CipherType) (Cipher, error) {
	switch cipherType {
	case CipherAESGCM:
		return NewAESGCM(key)
	case CipherChaCha20:
		return NewChaCha20(key)
	default:
		return nil, fmt.Errorf("adaptive: unknown cipher type %q", cipherType)
	}
}

// hasAESHardware reports whether the stdlib AES path is hardware backed. Go
// uses AES-NI on amd64 and the crypto extensions on arm64; elsewhere
// ChaCha20 wins.
func hasAESHardware() bool {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return true
	default:
		return false
	}
}

// baseCipher carries the AEAD plumbing shared by both algorithms.
type baseCipher struct {
	aead cipher.AEAD
}

func (c *baseCipher) NonceSize() int {
	return c.aead.NonceSize()
}

func (c *baseCipher) Overhead() int {
	return c.aead.Overhead()
}

// encrypt seals plaintext under a fresh random nonce. The nonce is
// prepended to the returned bytes.
func (c *baseCipher) encrypt(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

// decrypt splits the leading nonce off ciphertext and opens the rest.
func (c *baseCipher) decrypt(ciphertext, additionalData []byte) ([]byte, error) {
	if len(ciphertext) < c.aead.NonceSize() {
		return nil, ErrCiphertextShort
	}

	nonce := ciphertext[:c.aead.NonceSize()]
	sealed := ciphertext[c.aead.NonceSize():]

	return c.aead.Open(nil, nonce, sealed, additionalData)
}
