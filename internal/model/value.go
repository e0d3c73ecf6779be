package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ValueKind tags the shape of a submitted value
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindList
	KindNumber
	KindBool
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "null"
	}
}

// Value is a submitted answer: absent, a string, a list of strings
// (checkbox), a number or a boolean. The zero Value is absent.
type Value struct {
	Kind ValueKind
	Str  string
	List []string
	Num  float64
	Bool bool
}

// Null returns the absent value
func Null() Value { return Value{} }

// String returns a string value
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// List returns a list value
func List(items ...string) Value {
	if items == nil {
		items = []string{}
	}
	return Value{Kind: KindList, List: items}
}

// Number returns a numeric value
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// Bool returns a boolean value
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// IsNull reports whether the value is absent
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Truthy reports whether the value counts as present for length and
// pattern checks: a non-empty string, a non-zero number, true, or any list.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindString:
		return v.Str != ""
	case KindList:
		return true
	case KindNumber:
		return v.Num != 0 && !math.IsNaN(v.Num)
	case KindBool:
		return v.Bool
	default:
		return false
	}
}

// Len returns the length used by minLength/maxLength. Only strings (in
// characters) and lists have one.
func (v Value) Len() (int, bool) {
	switch v.Kind {
	case KindString:
		return utf8.RuneCountInString(v.Str), true
	case KindList:
		return len(v.List), true
	default:
		return 0, false
	}
}

// Text renders the value the way pattern matching sees it. Lists are
// joined with commas.
func (v Value) Text() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindList:
		return strings.Join(v.List, ",")
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

// MarshalJSON encodes the value as a plain JSON value
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a plain JSON value. Objects and lists holding
// anything but strings are rejected.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Null()
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case '[':
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("list values must hold strings: %w", err)
		}
		*v = List(items...)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '{':
		return fmt.Errorf("unsupported value: object")
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = Number(n)
	}
	return nil
}

// Interface returns the value as a plain Go value for JSON Schema checks
func (v Value) Interface() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindList:
		out := make([]any, len(v.List))
		for i, s := range v.List {
			out[i] = s
		}
		return out
	case KindNumber:
		return v.Num
	case KindBool:
		return v.Bool
	default:
		return nil
	}
}
