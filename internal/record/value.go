// Package record decodes raw key-value store records into plain scalars.
package record

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindString
	KindNumber
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "absent"
	}
}

// Value is one typed attribute of a raw record. Numbers keep their decimal
// encoding so integers and floats decode without loss.
type Value struct {
	kind  Kind
	text  string
	items []Value
	attrs map[string]Value
}

// String wraps a string attribute.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Number wraps a decimal-encoded numeric attribute.
func Number(raw string) Value { return Value{kind: KindNumber, text: strings.TrimSpace(raw)} }

// List wraps an ordered list attribute.
func List(items ...Value) Value { return Value{kind: KindList, items: items} }

// Map wraps a nested attribute map.
func Map(attrs map[string]Value) Value { return Value{kind: KindMap, attrs: attrs} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether v is the zero Value.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Text returns the raw text of a string or number attribute.
func (v Value) Text() (string, bool) {
	if v.kind != KindString && v.kind != KindNumber {
		return "", false
	}
	return v.text, true
}

// Float parses a finite number, or a string holding one. NaN and infinities
// are not decodable.
func (v Value) Float() (float64, bool) {
	raw, ok := v.Text()
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Int parses an integer, truncating a fractional number toward zero. Values
// outside the int64 range are not decodable.
func (v Value) Int() (int64, bool) {
	raw, ok := v.Text()
	if !ok {
		return 0, false
	}
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, true
	}
	f, ok := v.Float()
	if !ok {
		return 0, false
	}
	f = math.Trunc(f)
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// Items returns the elements of a list attribute, or nil.
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.items
}

// Field returns a member of a map attribute.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	child, ok := v.attrs[name]
	if !ok || child.IsAbsent() {
		return Value{}, false
	}
	return child, true
}
