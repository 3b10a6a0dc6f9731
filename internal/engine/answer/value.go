// Package answer holds the typed answer union shared by the draft store,
// the commit scheduler and the persistence layer.
package answer

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind is the question type; it is authoritative for decoding answers.
type Kind string

const (
	KindText         Kind = "TEXT"
	KindBoolean      Kind = "BOOLEAN"
	KindSingleChoice Kind = "SINGLE_CHOICE"
	KindMultiChoice  Kind = "MULTI_CHOICE"
	KindScale        Kind = "SCALE"
)

func (k Kind) Valid() bool {
	switch k {
	case KindText, KindBoolean, KindSingleChoice, KindMultiChoice, KindScale:
		return true
	}
	return false
}

// Value is one question's answer. The zero Value has no kind and is never
// produced by the constructors below.
type Value struct {
	kind    Kind
	text    string
	flag    bool
	choice  string
	choices map[string]struct{}
	scale   int
}

func Text(s string) Value { return Value{kind: KindText, text: s} }

func Boolean(b bool) Value { return Value{kind: KindBoolean, flag: b} }

// SingleChoice takes the option's canonical key, not its display label.
func SingleChoice(key string) Value { return Value{kind: KindSingleChoice, choice: key} }

// MultiChoice keeps the keys as a set; duplicates and order are dropped.
func MultiChoice(keys ...string) Value {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return Value{kind: KindMultiChoice, choices: set}
}

func Scale(n int) Value { return Value{kind: KindScale, scale: n} }

func (v Value) Kind() Kind     { return v.kind }
func (v Value) Text() string   { return v.text }
func (v Value) Bool() bool     { return v.flag }
func (v Value) Choice() string { return v.choice }
func (v Value) ScaleValue() int { return v.scale }

// Choices returns the multi-choice keys in ascending order.
func (v Value) Choices() []string {
	out := make([]string, 0, len(v.choices))
	for k := range v.choices {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Has reports whether key is selected in a multi-choice answer.
func (v Value) Has(key string) bool {
	_, ok := v.choices[key]
	return ok
}

// Equal applies the answer equality law. A nil pointer is an absent answer:
// two absent answers are equal, an absent answer never equals a present one.
func Equal(a, b *Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindText:
		return a.text == b.text
	case KindBoolean:
		return a.flag == b.flag
	case KindSingleChoice:
		return a.choice == b.choice
	case KindScale:
		return a.scale == b.scale
	case KindMultiChoice:
		if len(a.choices) != len(b.choices) {
			return false
		}
		for k := range a.choices {
			if _, ok := b.choices[k]; !ok {
				return false
			}
		}
		return true
	}
	return false
}

type wireValue struct {
	Type  Kind `json:"type"`
	Value any  `json:"value"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	w := wireValue{Type: v.kind}
	switch v.kind {
	case KindText:
		w.Value = v.text
	case KindBoolean:
		w.Value = v.flag
	case KindSingleChoice:
		w.Value = v.choice
	case KindMultiChoice:
		w.Value = v.Choices()
	case KindScale:
		w.Value = v.scale
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, v.kind)
	}
	return json.Marshal(w)
}

// Decode parses a raw JSON answer using the kind declared by the question.
func Decode(kind Kind, raw json.RawMessage) (Value, error) {
	switch kind {
	case KindText:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, fmt.Errorf("%w: text: %v", ErrMalformed, err)
		}
		return Text(s), nil
	case KindBoolean:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Value{}, fmt.Errorf("%w: boolean: %v", ErrMalformed, err)
		}
		return Boolean(b), nil
	case KindSingleChoice:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, fmt.Errorf("%w: single choice: %v", ErrMalformed, err)
		}
		return SingleChoice(s), nil
	case KindMultiChoice:
		var keys []string
		if err := json.Unmarshal(raw, &keys); err != nil {
			return Value{}, fmt.Errorf("%w: multi choice: %v", ErrMalformed, err)
		}
		return MultiChoice(keys...), nil
	case KindScale:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return Value{}, fmt.Errorf("%w: scale: %v", ErrMalformed, err)
		}
		if f != float64(int(f)) {
			return Value{}, fmt.Errorf("%w: scale value %v is not an integer", ErrMalformed, f)
		}
		return Scale(int(f)), nil
	}
	return Value{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// Map is keyed by question link id. A missing key means "no answer".
type Map map[int]Value

func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Get returns nil when linkID has no answer.
func (m Map) Get(linkID int) *Value {
	v, ok := m[linkID]
	if !ok {
		return nil
	}
	return &v
}
