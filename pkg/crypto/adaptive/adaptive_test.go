package adaptive

import (
	"bytes"
	"errors"
	"testing"
)

var (
	key16 = make([]byte, 16)
	key24 = make([]byte, 24)
	key32 = make([]byte, 32)
)

func init() {
	for i := range key32 {
		key32[i] = byte(i)
	}
	copy(key16, key32)
	copy(key24, key32)
}

func TestNew(t *testing.T) {
	c, err := New(key32)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c == nil {
		t.Fatal("New() returned nil cipher")
	}
	if ct := c.Type(); ct != CipherAESGCM && ct != CipherChaCha20 {
		t.Errorf("New() returned unknown cipher type: %s", ct)
	}
}

func TestNewWithType(t *testing.T) {
	for _, ct := range []CipherType{CipherAESGCM, CipherChaCha20} {
		c, err := NewWithType(key32, ct)
		if err != nil {
			t.Fatalf("NewWithType(%s) error = %v", ct, err)
		}
		if c.Type() != ct {
			t.Errorf("NewWithType(%s) type = %s", ct, c.Type())
		}
	}
}

func TestNewWithType_Unknown(t *testing.T) {
	_, err := NewWithType(key32, "rot13")
	if err == nil {
		t.Error("NewWithType(unknown) should return error")
	}
}

func TestNewAESGCM_KeySizes(t *testing.T) {
	tests := []struct {
		name    string
		key     []byte
		wantErr bool
	}{
		{"AES-128", key16, false},
		{"AES-192", key24, false},
		{"AES-256", key32, false},
		{"15 bytes", make([]byte, 15), true},
		{"17 bytes", make([]byte, 17), true},
		{"33 bytes", make([]byte, 33), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAESGCM(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewAESGCM() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewChaCha20_KeySizes(t *testing.T) {
	tests := []struct {
		name    string
		key     []byte
		wantErr bool
	}{
		{"32 bytes", key32, false},
		{"16 bytes", key16, true},
		{"24 bytes", key24, true},
		{"33 bytes", make([]byte, 33), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChaCha20(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewChaCha20() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncryptDecrypt(t *testing.T) {
	ciphers := map[string]Cipher{}
	if c, err := NewAESGCM(key32); err != nil {
		t.Fatalf("NewAESGCM() error = %v", err)
	} else {
		ciphers["aes-gcm"] = c
	}
	if c, err := NewChaCha20(key32); err != nil {
		t.Fatalf("NewChaCha20() error = %v", err)
	} else {
		ciphers["chacha20"] = c
	}

	cases := []struct {
		name           string
		plaintext      []byte
		additionalData []byte
	}{
		{"empty", []byte{}, nil},
		{"simple", []byte("hello world"), nil},
		{"with aad", []byte("secret data"), []byte("authenticated")},
		{"large", bytes.Repeat([]byte("A"), 4096), nil},
		{"binary", []byte{0x00, 0xFF, 0x7F, 0x80}, []byte{0x01, 0x02}},
	}

	for name, c := range ciphers {
		for _, tt := range cases {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				sealed, err := c.Encrypt(tt.plaintext, tt.additionalData)
				if err != nil {
					t.Fatalf("Encrypt() error = %v", err)
				}
				if want := len(tt.plaintext) + c.NonceSize() + c.Overhead(); len(sealed) < want {
					t.Errorf("Encrypt() length = %d, want >= %d", len(sealed), want)
				}

				plain, err := c.Decrypt(sealed, tt.additionalData)
				if err != nil {
					t.Fatalf("Decrypt() error = %v", err)
				}
				if !bytes.Equal(plain, tt.plaintext) {
					t.Errorf("Decrypt() = %v, want %v", plain, tt.plaintext)
				}
			})
		}
	}
}

func TestDecrypt_Tampered(t *testing.T) {
	for _, ct := range []CipherType{CipherAESGCM, CipherChaCha20} {
		c, err := NewWithType(key32, ct)
		if err != nil {
			t.Fatalf("NewWithType(%s) error = %v", ct, err)
		}

		sealed, err := c.Encrypt([]byte("secret message"), []byte("aad"))
		if err != nil {
			t.Fatalf("Encrypt() error = %v", err)
		}

		tampered := append([]byte(nil), sealed...)
		tampered[len(tampered)-1] ^= 0xFF
		if _, err := c.Decrypt(tampered, []byte("aad")); err == nil {
			t.Errorf("%s: Decrypt() should fail for tampered ciphertext", ct)
		}

		if _, err := c.Decrypt(sealed, []byte("wrong aad")); err == nil {
			t.Errorf("%s: Decrypt() should fail for wrong AAD", ct)
		}
	}
}

func TestDecrypt_TooShort(t *testing.T) {
	c, err := New(key32)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	short := make([]byte, c.NonceSize()-1)
	if _, err := c.Decrypt(short, nil); !errors.Is(err, ErrCiphertextShort) {
		t.Errorf("Decrypt() error = %v, want %v", err, ErrCiphertextShort)
	}
}

func TestSizes(t *testing.T) {
	for _, ct := range []CipherType{CipherAESGCM, CipherChaCha20} {
		c, err := NewWithType(key32, ct)
		if err != nil {
			t.Fatalf("NewWithType(%s) error = %v", ct, err)
		}
		// Both algorithms use 12-byte nonces and 16-byte tags.
		if c.NonceSize() != 12 {
			t.Errorf("%s: NonceSize() = %d, want 12", ct, c.NonceSize())
		}
		if c.Overhead() != 16 {
			t.Errorf("%s: Overhead() = %d, want 16", ct, c.Overhead())
		}
	}
}

func TestEncrypt_Uniqueness(t *testing.T) {
	c, err := NewAESGCM(key32)
	if err != nil {
		t.Fatalf("NewAESGCM() error = %v", err)
	}

	plaintext := []byte("same plaintext")
	seen := make(map[string]bool)

	// Random nonces: the same plaintext never seals to the same bytes.
	for i := 0; i < 10; i++ {
		sealed, err := c.Encrypt(plaintext, nil)
		if err != nil {
			t.Fatalf("Encrypt() error = %v", err)
		}
		if seen[string(sealed)] {
			t.Error("Encrypt() produced duplicate ciphertext (nonce collision)")
		}
		seen[string(sealed)] = true
	}
}

// Full encrypt and decrypt benchmarks across payload sizes live in
// internal/tests/benchmark.
