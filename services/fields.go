package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Fields is an insertion-ordered key/value container. Keys keep the position
// of their first Set; later Sets only replace the value. The zero value is
// ready to use.
type Fields struct {
	keys   []string
	values map[string]any
}

// NewFields returns an empty container.
func NewFields() *Fields {
	return &Fields{values: map[string]any{}}
}

// Set stores v under key.
func (f *Fields) Set(key string, v any) {
	if f.values == nil {
		f.values = map[string]any{}
	}
	if _, exists := f.values[key]; !exists {
		f.keys = append(f.keys, key)
	}
	f.values[key] = v
}

// Get returns the value stored under key.
func (f *Fields) Get(key string) (any, bool) {
	if f == nil || f.values == nil {
		return nil, false
	}
	v, ok := f.values[key]
	return v, ok
}

// Has reports whether key is present.
func (f *Fields) Has(key string) bool {
	_, ok := f.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (f *Fields) Keys() []string {
	if f == nil {
		return nil
	}
	return slices.Clone(f.keys)
}

// Len returns the number of keys.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Merge copies every entry of other into f, in other's order. Values from
// other win.
func (f *Fields) Merge(other *Fields) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		f.Set(k, other.values[k])
	}
}

// Clone returns an independent copy of the container. Values are shared.
func (f *Fields) Clone() *Fields {
	out := NewFields()
	out.Merge(f)
	return out
}

// Map returns the entries as a plain map.
func (f *Fields) Map() map[string]any {
	out := make(map[string]any, f.Len())
	if f == nil {
		return out
	}
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// String returns the value under key rendered as text, or "" when absent.
func (f *Fields) String(key string) string {
	v, ok := f.Get(key)
	if !ok {
		return ""
	}
	return FieldString(v)
}

// Int reads a non-fractional number stored under key. Numeric strings are
// accepted; empty strings and absent keys report false.
func (f *Fields) Int(key string) (int, bool) {
	v, ok := f.Get(key)
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := strconv.Atoi(n.String())
		if err != nil {
			fl, ferr := n.Float64()
			if ferr != nil || fl != math.Trunc(fl) {
				return 0, false
			}
			return int(fl), true
		}
		return i, true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// Decimal reads a monetary value stored under key.
func (f *Fields) Decimal(key string) (decimal.Decimal, bool) {
	v, ok := f.Get(key)
	if !ok || v == nil {
		return decimal.Zero, false
	}
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case json.Number:
		dec, err := decimal.NewFromString(n.String())
		return dec, err == nil
	case string:
		dec, err := decimal.NewFromString(strings.TrimSpace(n))
		return dec, err == nil
	}
	return decimal.Zero, false
}

// MarshalJSON writes the entries as a JSON object in insertion order.
func (f *Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if f != nil {
		for i, k := range f.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			vb, err := json.Marshal(f.values[k])
			if err != nil {
				return nil, fmt.Errorf("fields: marshal %q: %w", k, err)
			}
			buf.Write(kb)
			buf.WriteByte(':')
			buf.Write(vb)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping the document's key order.
// Numbers are kept as json.Number so they pass through unchanged.
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("fields: %w", err)
	}
	out := Fields{values: map[string]any{}}
	if tok == nil {
		*f = out
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("fields: expected JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("fields: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("fields: unexpected key token %v", keyTok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("fields: value of %q: %w", key, err)
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("fields: %w", err)
	}

	*f = out
	return nil
}

// FieldString renders a merge value as template text.
func FieldString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case decimal.Decimal:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case fmt.Stringer:
		return s.String()
	}
	return fmt.Sprint(v)
}
