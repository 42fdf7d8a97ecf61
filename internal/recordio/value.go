// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package recordio

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Kind is the JSON shape a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// Value is a decoded JSON value. Only the field matching Kind is set.
// Numbers keep their source text so "2019" is not turned into "2019.0".
type Value struct {
	kind Kind
	text string
	b    bool
	arr  []Value
	obj  map[string]Value
}

// Null is the zero Value.
var Null = Value{}

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Number returns a number Value with the given source text.
func Number(text string) Value { return Value{kind: KindNumber, text: text} }

// Bool returns a bool Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Array returns an array Value.
func Array(items ...Value) Value { return Value{kind: KindArray, arr: items} }

// Object returns an object Value.
func Object(fields map[string]Value) Value { return Value{kind: KindObject, obj: fields} }

// Kind reports the shape of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is JSON null or missing.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Items returns the elements of an array, nil otherwise.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// Field returns the named member of an object, Null otherwise.
func (v Value) Field(name string) Value {
	if v.kind != KindObject {
		return Null
	}
	return v.obj[name]
}

// Text returns strings and numbers as text, bools as "true"/"false" and
// anything else as "".
func (v Value) Text() string {
	switch v.kind {
	case KindString, KindNumber:
		return v.text
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Decode reads one JSON document.
func Decode(r io.Reader) (Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Null, eris.Wrap(err, "decoding json")
	}
	return fromAny(raw), nil
}

func fromAny(raw any) Value {
	switch t := raw.(type) {
	case nil:
		return Null
	case string:
		return String(t)
	case json.Number:
		return Number(t.String())
	case bool:
		return Bool(t)
	case []any:
		items := make([]Value, len(t))
		for i, x := range t {
			items[i] = fromAny(x)
		}
		return Array(items...)
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, x := range t {
			fields[k] = fromAny(x)
		}
		return Object(fields)
	default:
		return Null
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.text)
	case KindNumber:
		return []byte(v.text), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindArray:
		if v.arr == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.arr)
	case KindObject:
		var buf bytes.Buffer
		buf.WriteByte('{')
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := v.obj[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return []byte("null"), nil
	}
}

// splitPath splits a dotted path. "" and "." are the root.
func splitPath(path string) []string {
	if path == "" || path == "." {
		return nil
	}
	return strings.Split(path, ".")
}

// arrayIndex parses a path segment used on an array. "*" addresses the
// first element.
func arrayIndex(seg string) (int, bool) {
	if seg == "*" {
		return 0, true
	}
	i, err := strconv.Atoi(seg)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// Get follows a dotted path through objects and arrays. Numeric segments
// index arrays. A missing step yields Null.
func (v Value) Get(path string) Value {
	cur := v
	for _, seg := range splitPath(path) {
		switch cur.kind {
		case KindObject:
			cur = cur.obj[seg]
		case KindArray:
			i, ok := arrayIndex(seg)
			if !ok || i >= len(cur.arr) {
				return Null
			}
			cur = cur.arr[i]
		default:
			return Null
		}
		if cur.IsNull() {
			return Null
		}
	}
	return cur
}

// With returns a copy of v with the value at path replaced by x.
// Intermediate objects are created as needed; v is not modified.
func (v Value) With(path string, x Value) Value {
	return v.with(splitPath(path), x)
}

func (v Value) with(segs []string, x Value) Value {
	if len(segs) == 0 {
		return x
	}
	seg, rest := segs[0], segs[1:]
	if v.kind == KindArray {
		if i, ok := arrayIndex(seg); ok && i < len(v.arr) {
			items := append([]Value(nil), v.arr...)
			items[i] = items[i].with(rest, x)
			return Array(items...)
		}
		return v
	}
	fields := make(map[string]Value, len(v.obj)+1)
	for k, f := range v.obj {
		fields[k] = f
	}
	fields[seg] = fields[seg].with(rest, x)
	return Object(fields)
}
