// Package patch turns a client's JSON patch into a validated update plan
// and composes the parameterized SQL that applies it.
package patch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Patch is a JSON object whose keys keep the order they were sent in.
type Patch struct {
	keys   []string
	values map[string]any
}

// New returns an empty patch.
func New() *Patch {
	return &Patch{values: make(map[string]any)}
}

// FromMap builds a patch from m, ordering keys as given by order.
// Keys of m missing from order are ignored.
func FromMap(m map[string]any, order ...string) *Patch {
	p := New()
	for _, k := range order {
		if v, ok := m[k]; ok {
			p.Set(k, v)
		}
	}
	return p
}

// Decode reads one JSON object from r. Numbers are kept as json.Number so
// coercion can parse them without float rounding.
func Decode(r io.Reader) (*Patch, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("request body is empty")
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("request body must be a JSON object")
	}

	p := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("invalid JSON: expected object key")
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("invalid JSON value for %q: %w", key, err)
		}
		p.Set(key, v)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		return nil, fmt.Errorf("request body must contain a single JSON object")
	}
	return p, nil
}

// DecodeBytes is Decode over an in-memory body.
func DecodeBytes(b []byte) (*Patch, error) {
	return Decode(bytes.NewReader(b))
}

// Set stores v under key. A repeated key keeps its first position.
func (p *Patch) Set(key string, v any) {
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = v
}

// Get returns the value stored under key.
func (p *Patch) Get(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Has reports whether key is present.
func (p *Patch) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Delete removes key.
func (p *Patch) Delete(key string) {
	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in input order.
func (p *Patch) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len returns the number of keys.
func (p *Patch) Len() int {
	return len(p.keys)
}
