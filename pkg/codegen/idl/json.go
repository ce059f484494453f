package idl

import (
	"bytes"
	"encoding/json"
)

// object is a JSON object that keeps its keys in insertion order
type object struct {
	keys   []string
	values map[string]any
}

func newObject() *object {
	return &object{values: make(map[string]any)}
}

func (o *object) set(key string, value any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

func (o *object) get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// MarshalJSON implements json.Marshaler
func (o *object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')

		v, err := json.Marshal(o.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// property is an annotation: @name(value)
type property struct {
	name  string
	value json.RawMessage
}

func stringProperty(props []property, name string) (string, bool) {
	for _, p := range props {
		if p.name == name {
			var s string
			if err := json.Unmarshal(p.value, &s); err == nil {
				return s, true
			}
		}
	}
	return "", false
}

// optional is the T? shorthand for a union of null and T
type optional struct {
	inner any
}

// resolveType turns a parsed type into its schema JSON. A nullable shorthand
// puts null last when the default is not null.
func resolveType(t any, def json.RawMessage) any {
	opt, ok := t.(optional)
	if !ok {
		return t
	}
	if len(def) > 0 && string(bytes.TrimSpace(def)) != "null" {
		return []any{opt.inner, "null"}
	}
	return []any{"null", opt.inner}
}
