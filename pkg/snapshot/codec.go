package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/arkvale/worldsave-go/pkg/registry"
)

// Snapshot modes: which entities were selected at save time.
const (
	ModeSave = "save"
	ModeDump = "dump"
)

// Meta describes a snapshot document. The format is versionless; meta
// carries provenance, not schema.
type Meta struct {
	ID        string    `json:"id"`
	CreatedAt int64     `json:"created_at"`
	Entities  int       `json:"entities"`
	Mode      string    `json:"mode"`
	Types     []TypeRef `json:"types,omitempty"`

	// Encryption envelope fields, set only on encrypted files.
	Encrypted bool   `json:"encrypted,omitempty"`
	Algorithm string `json:"algorithm,omitempty"`
	Salt      []byte `json:"salt,omitempty"`
}

// TypeRef names a component type present in the snapshot together with its
// stable identity hash, so tooling can detect renamed or tampered type names
// without a registry.
type TypeRef struct {
	Name string `json:"name"`
	ID   uint64 `json:"id"`
}

// Component is one typed component payload inside a record.
type Component struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Record pairs a synthetic index with the components one entity carried.
// A record with no components still reserves an entity identity.
type Record struct {
	Index      uint64      `json:"index"`
	Components []Component `json:"components,omitempty"`
}

// Document is the on-disk shape. Exactly one of Entities (plain) or Payload
// (encrypted) is populated.
type Document struct {
	Meta     Meta     `json:"meta"`
	Entities []Record `json:"entities,omitempty"`
	Payload  []byte   `json:"payload,omitempty"`
}

// DecodeError reports a snapshot that cannot be decoded: malformed
// structure, an unknown component type, or a payload its registered decoder
// rejects. Absence of a registration is reported rather than skipped, since
// silently dropping a recorded component would lose data.
type DecodeError struct {
	Reason string
	Cause  error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("snapshot: decode: %s: %v", e.Reason, e.Cause)
	}
	return "snapshot: decode: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// Encode renders a document as indented JSON. Output is deterministic for
// the same document: field order is fixed and record order is the caller's.
func Encode(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}
	return append(data, '\n'), nil
}

// ParseDocument decodes and structurally validates a document without
// consulting any registry. Component payloads stay raw.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &DecodeError{Reason: "invalid document", Cause: err}
	}
	if err := validateDocument(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func validateDocument(doc *Document) error {
	if len(doc.Payload) > 0 {
		if !doc.Meta.Encrypted {
			return &DecodeError{Reason: "payload present on unencrypted document"}
		}
		if len(doc.Entities) > 0 {
			return &DecodeError{Reason: "document carries both entities and an encrypted payload"}
		}
		if doc.Meta.Algorithm == "" {
			return &DecodeError{Reason: "encrypted document without algorithm"}
		}
		return nil
	}
	if doc.Meta.Encrypted {
		return &DecodeError{Reason: "encrypted document without payload"}
	}

	for _, tr := range doc.Meta.Types {
		if registry.TypeID(tr.Name) != tr.ID {
			return &DecodeError{Reason: fmt.Sprintf("type identity mismatch for %q", tr.Name)}
		}
	}

	if doc.Meta.Entities != 0 && doc.Meta.Entities != len(doc.Entities) {
		return &DecodeError{Reason: fmt.Sprintf("meta declares %d entities, document has %d",
			doc.Meta.Entities, len(doc.Entities))}
	}

	var prev uint64
	for i, rec := range doc.Entities {
		if rec.Index == 0 {
			return &DecodeError{Reason: fmt.Sprintf("record %d: index must be positive", i)}
		}
		if rec.Index <= prev {
			return &DecodeError{Reason: fmt.Sprintf("record %d: indices must be strictly ascending", i)}
		}
		prev = rec.Index

		seen := make(map[string]struct{}, len(rec.Components))
		for _, c := range rec.Components {
			if c.Type == "" {
				return &DecodeError{Reason: fmt.Sprintf("record %d: component with empty type", i)}
			}
			if _, dup := seen[c.Type]; dup {
				return &DecodeError{Reason: fmt.Sprintf("record %d: duplicate component %q", i, c.Type)}
			}
			seen[c.Type] = struct{}{}
			if len(c.Data) == 0 {
				return &DecodeError{Reason: fmt.Sprintf("record %d: component %q has no data", i, c.Type)}
			}
		}
	}
	return nil
}

// Decoded is a snapshot with every component payload materialized into its
// registered Go value.
type Decoded struct {
	Meta    Meta
	Records []DecodedRecord
}

// DecodedRecord is one record with typed component values.
type DecodedRecord struct {
	Index      uint64
	Components []DecodedComponent
}

// DecodedComponent pairs a registry entry with a decoded *T value.
type DecodedComponent struct {
	Entry *registry.Entry
	Value any
}

// Decode parses, validates, and fully materializes a plain document. Every
// component payload is decoded through the registry up front, so a snapshot
// that passes Decode cannot fail structurally later.
func Decode(data []byte, reg *registry.Registry) (*Decoded, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	return DecodeRecords(doc, reg)
}

// DecodeRecords materializes the records of an already parsed plain
// document. Encrypted documents must be read through ReadFile first.
func DecodeRecords(doc *Document, reg *registry.Registry) (*Decoded, error) {
	if doc.Meta.Encrypted || len(doc.Payload) > 0 {
		return nil, &DecodeError{Reason: "document is encrypted; read it with a key first"}
	}

	dec := &Decoded{
		Meta:    doc.Meta,
		Records: make([]DecodedRecord, 0, len(doc.Entities)),
	}
	for _, rec := range doc.Entities {
		dr := DecodedRecord{
			Index:      rec.Index,
			Components: make([]DecodedComponent, 0, len(rec.Components)),
		}
		for _, c := range rec.Components {
			entry, ok := reg.Lookup(c.Type)
			if !ok {
				return nil, &DecodeError{Reason: fmt.Sprintf("unknown component type %q", c.Type)}
			}
			v, err := entry.Decode(c.Data)
			if err != nil {
				return nil, &DecodeError{Reason: fmt.Sprintf("component %q payload", c.Type), Cause: err}
			}
			dr.Components = append(dr.Components, DecodedComponent{Entry: entry, Value: v})
		}
		dec.Records = append(dec.Records, dr)
	}
	return dec, nil
}
