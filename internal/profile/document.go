package profile

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/jsonc"
)

// Document is the parsed profile. The loader enforces no schema; page binders
// interpret it through Lookup or Decode.
//
// Raw and Lookup hand out data shared with the loader's cache. Callers must
// treat it as read-only; Decode always produces fresh values.
type Document struct {
	raw  []byte
	tree any
}

// ParseDocument parses data as JSON. Comments and trailing commas are
// accepted so the profile can be annotated by hand.
func ParseDocument(data []byte) (*Document, error) {
	normalized := jsonc.ToJSON(data)

	var tree any
	if err := json.Unmarshal(normalized, &tree); err != nil {
		return nil, &ParseError{Err: err}
	}
	if tree == nil {
		return nil, &ParseError{Err: errNullDocument}
	}

	return &Document{raw: bytes.TrimSpace(normalized), tree: tree}, nil
}

// Raw returns the normalized JSON bytes of the document.
func (d *Document) Raw() []byte {
	return d.raw
}

// Lookup walks nested objects by key. It reports false when any segment is
// missing or is not an object.
func (d *Document) Lookup(path ...string) (any, bool) {
	current := d.tree
	for _, key := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// String returns the string at path, or "" when it is missing or not a string.
func (d *Document) String(path ...string) string {
	v, ok := d.Lookup(path...)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Decode unmarshals the document into v.
func (d *Document) Decode(v any) error {
	return json.Unmarshal(d.raw, v)
}
