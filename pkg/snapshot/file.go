package snapshot

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/arkvale/worldsave-go/pkg/registry"
)

const idPrefix = "snap-"

// Info contains metadata about a written snapshot file.
type Info struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	Mode      string `json:"mode"`
	Entities  int    `json:"entities"`
	CreatedAt int64  `json:"created_at"`
	Size      int64  `json:"size"`
	Encrypted bool   `json:"encrypted,omitempty"`
}

// NewDocument builds a plain document around the given records: fresh ULID
// id, creation time, entity count, and the type manifest.
func NewDocument(records []Record, mode string) (*Document, error) {
	now := time.Now()
	id, err := generateID(now)
	if err != nil {
		return nil, err
	}
	return &Document{
		Meta: Meta{
			ID:        id,
			CreatedAt: now.UnixMilli(),
			Entities:  len(records),
			Mode:      mode,
			Types:     typeRefs(records),
		},
		Entities: records,
	}, nil
}

func generateID(t time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", fmt.Errorf("snapshot: generate id: %w", err)
	}
	return idPrefix + strings.ToLower(id.String()), nil
}

func typeRefs(records []Record) []TypeRef {
	names := make(map[string]struct{})
	for _, rec := range records {
		for _, c := range rec.Components {
			names[c.Type] = struct{}{}
		}
	}
	if len(names) == 0 {
		return nil
	}

	refs := make([]TypeRef, 0, len(names))
	for name := range names {
		refs = append(refs, TypeRef{Name: name, ID: registry.TypeID(name)})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs
}

// WriteFile encodes doc and writes it to path atomically: the bytes go to a
// temp file in the target directory, are synced, and only then renamed over
// the target. A concurrently crashing process observes either the old file
// or the complete new one, never a partial write. With enc enabled the plain
// document is sealed into an AEAD envelope first; the snapshot id is the
// additional authenticated data.
func WriteFile(path string, doc *Document, enc *EncryptionConfig) (*Info, error) {
	data, err := Encode(doc)
	if err != nil {
		return nil, err
	}

	encrypted := false
	if enc.Enabled() {
		cipher, salt, algorithm, err := cipherForWrite(enc)
		if err != nil {
			return nil, err
		}
		sealed, err := cipher.Encrypt(data, []byte(doc.Meta.ID))
		if err != nil {
			return nil, fmt.Errorf("snapshot: encrypt: %w", err)
		}

		env := &Document{Meta: doc.Meta, Payload: sealed}
		env.Meta.Encrypted = true
		env.Meta.Algorithm = algorithm
		env.Meta.Salt = salt
		if data, err = Encode(env); err != nil {
			return nil, err
		}
		encrypted = true
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("snapshot: create dir: %w", err)
	}

	tempPath := path + "." + doc.Meta.ID + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("snapshot: create temp file: %w", err)
	}
	defer os.Remove(tempPath)

	if _, err := file.Write(data); err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: write: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: sync: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("snapshot: close: %w", err)
	}

	stat, err := os.Stat(tempPath)
	if err != nil {
		return nil, err
	}
	if err := os.Rename(tempPath, path); err != nil {
		return nil, fmt.Errorf("snapshot: rename: %w", err)
	}

	return &Info{
		ID:        doc.Meta.ID,
		Path:      path,
		Mode:      doc.Meta.Mode,
		Entities:  doc.Meta.Entities,
		CreatedAt: doc.Meta.CreatedAt,
		Size:      stat.Size(),
		Encrypted: encrypted,
	}, nil
}

// ReadFile reads and validates the document at path, decrypting the
// envelope when the file is encrypted. Reading an encrypted file without a
// key fails with ErrKeyRequired; a key against a plain file fails with
// ErrNotEncrypted so a misconfigured caller notices.
func ReadFile(path string, enc *EncryptionConfig) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read: %w", err)
	}

	doc, err := ParseDocument(raw)
	if err != nil {
		return nil, err
	}

	if !doc.Meta.Encrypted {
		if enc.Enabled() {
			return nil, ErrNotEncrypted
		}
		return doc, nil
	}
	if !enc.Enabled() {
		return nil, ErrKeyRequired
	}

	cipher, err := cipherForRead(enc, doc.Meta.Salt, doc.Meta.Algorithm)
	if err != nil {
		return nil, err
	}
	plain, err := cipher.Decrypt(doc.Payload, []byte(doc.Meta.ID))
	if err != nil {
		return nil, ErrDecryptFailed
	}

	inner, err := ParseDocument(plain)
	if err != nil {
		return nil, err
	}
	if inner.Meta.ID != doc.Meta.ID {
		return nil, &DecodeError{Reason: "payload id does not match envelope"}
	}
	return inner, nil
}

// Inspect parses the document at path without decrypting. Works keyless on
// encrypted files: the meta is readable, the payload stays opaque.
func Inspect(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read: %w", err)
	}
	return ParseDocument(raw)
}
