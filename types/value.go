// Package types provides core types used across the accord negotiation engine.
// This package has ZERO dependencies on other accord packages to avoid circular imports.
// All other packages should import types from here.
package types

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// ValueKind discriminates the variants of a Value.
type ValueKind string

const (
	KindNumber ValueKind = "number"
	KindBool   ValueKind = "bool"
	KindString ValueKind = "string"
)

// Value is a tagged union over the types a proposal entry may carry.
// Resolver logic matches on Kind instead of doing runtime type inspection.
type Value struct {
	Kind ValueKind `json:"kind"`
	Num  float64   `json:"num,omitempty"`
	Str  string    `json:"str,omitempty"`
	Bool bool      `json:"bool,omitempty"`
}

// Num creates a numeric Value.
func Num(v float64) Value { return Value{Kind: KindNumber, Num: v} }

// Str creates a string Value.
func Str(v string) Value { return Value{Kind: KindString, Str: v} }

// Boolean creates a bool Value.
func Boolean(v bool) Value { return Value{Kind: KindBool, Bool: v} }

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Num == o.Num
	case KindBool:
		return v.Bool == o.Bool
	default:
		return v.Str == o.Str
	}
}

// String renders the value for serialization keys and logs.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

// Magnitude returns the absolute numeric weight of the value.
// Non-numeric values weigh 1 for true booleans and 0 otherwise.
func (v Value) Magnitude() float64 {
	switch v.Kind {
	case KindNumber:
		return math.Abs(v.Num)
	case KindBool:
		if v.Bool {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// MarshalJSON encodes the value as its bare payload.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	default:
		return json.Marshal(v.Str)
	}
}

// UnmarshalJSON decodes a bare JSON scalar into a tagged Value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case float64:
		*v = Num(t)
	case bool:
		*v = Boolean(t)
	case string:
		*v = Str(t)
	case nil:
		*v = Str("")
	default:
		return fmt.Errorf("unsupported proposal value type %T", raw)
	}
	return nil
}

// Proposal is a candidate resource or task allocation: a key to value map.
// A nil proposal is treated as empty everywhere.
type Proposal map[string]Value

// Clone returns an independent copy of the proposal.
func (p Proposal) Clone() Proposal {
	if p == nil {
		return nil
	}
	out := make(Proposal, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// SortedKeys returns the proposal's keys in lexical order. Go maps do not
// preserve insertion order, so sorted order is the deterministic ordering
// used for tie-breaking and diffing.
func (p Proposal) SortedKeys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Canonical serializes the proposal order-independently, so that two
// proposals with equal content serialize identically.
func (p Proposal) Canonical() string {
	keys := p.SortedKeys()
	out := make([]byte, 0, 16*len(keys))
	for _, k := range keys {
		out = append(out, k...)
		out = append(out, '=')
		v := p[k]
		out = append(out, string(v.Kind)...)
		out = append(out, ':')
		out = append(out, v.String()...)
		out = append(out, ';')
	}
	return string(out)
}

// Equal reports whether two proposals hold the same entries.
func (p Proposal) Equal(o Proposal) bool {
	if len(p) != len(o) {
		return false
	}
	for k, v := range p {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Constraint is a hard requirement on one proposal key: either an exact
// value or a numeric range (either bound optional).
type Constraint struct {
	Equals *Value   `json:"equals,omitempty"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
}

// Exactly builds an exact-match constraint.
func Exactly(v Value) Constraint { return Constraint{Equals: &v} }

// Between builds a numeric range constraint.
func Between(min, max float64) Constraint { return Constraint{Min: &min, Max: &max} }

// AtLeast builds a lower-bounded numeric constraint.
func AtLeast(min float64) Constraint { return Constraint{Min: &min} }

// AtMost builds an upper-bounded numeric constraint.
func AtMost(max float64) Constraint { return Constraint{Max: &max} }

// Satisfied reports whether the given value meets the constraint.
func (c Constraint) Satisfied(v Value) bool {
	if c.Equals != nil {
		return v.Equal(*c.Equals)
	}
	if c.Min == nil && c.Max == nil {
		return true
	}
	if v.Kind != KindNumber {
		return false
	}
	if c.Min != nil && v.Num < *c.Min {
		return false
	}
	if c.Max != nil && v.Num > *c.Max {
		return false
	}
	return true
}
