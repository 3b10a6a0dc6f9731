package answer

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrUnknownKind    = errors.New("unknown answer kind")
	ErrMalformed      = errors.New("malformed answer")
	ErrRecordMismatch = errors.New("response record does not match question kind")
)

// Record is a persisted response row as returned by the question loader.
// Exactly one value field is expected to be set; which one is decided by the
// question kind, not by the record.
type Record struct {
	LinkID       int      `json:"linkId"`
	TextValue    *string  `json:"textValue,omitempty"`
	ScaleValue   *int     `json:"scaleValue,omitempty"`
	OptionValue  *string  `json:"optionValue,omitempty"`
	OptionValues []string `json:"optionValues,omitempty"`
}

// FromRecord maps a raw record to a Value of the given kind. BOOLEAN answers
// are stored as "true"/"false" in OptionValue.
func FromRecord(kind Kind, r Record) (Value, error) {
	switch kind {
	case KindText:
		if r.TextValue == nil {
			return Value{}, fmt.Errorf("%w: link %d has no text value", ErrRecordMismatch, r.LinkID)
		}
		return Text(*r.TextValue), nil
	case KindScale:
		if r.ScaleValue == nil {
			return Value{}, fmt.Errorf("%w: link %d has no scale value", ErrRecordMismatch, r.LinkID)
		}
		return Scale(*r.ScaleValue), nil
	case KindSingleChoice:
		if r.OptionValue == nil {
			return Value{}, fmt.Errorf("%w: link %d has no option value", ErrRecordMismatch, r.LinkID)
		}
		return SingleChoice(*r.OptionValue), nil
	case KindBoolean:
		if r.OptionValue == nil {
			return Value{}, fmt.Errorf("%w: link %d has no option value", ErrRecordMismatch, r.LinkID)
		}
		b, err := strconv.ParseBool(*r.OptionValue)
		if err != nil {
			return Value{}, fmt.Errorf("%w: link %d boolean %q", ErrRecordMismatch, r.LinkID, *r.OptionValue)
		}
		return Boolean(b), nil
	case KindMultiChoice:
		if r.OptionValues == nil {
			return Value{}, fmt.Errorf("%w: link %d has no option values", ErrRecordMismatch, r.LinkID)
		}
		return MultiChoice(r.OptionValues...), nil
	}
	return Value{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// Payload is one row of a bulk save request.
type Payload struct {
	LinkID       int      `json:"linkId"`
	TextValue    *string  `json:"textValue,omitempty"`
	ScaleValue   *int     `json:"scaleValue,omitempty"`
	OptionValue  *string  `json:"optionValue,omitempty"`
	OptionValues []string `json:"optionValues,omitempty"`
}

func ToPayload(linkID int, v Value) Payload {
	p := Payload{LinkID: linkID}
	switch v.kind {
	case KindText:
		s := v.text
		p.TextValue = &s
	case KindScale:
		n := v.scale
		p.ScaleValue = &n
	case KindSingleChoice:
		s := v.choice
		p.OptionValue = &s
	case KindBoolean:
		s := strconv.FormatBool(v.flag)
		p.OptionValue = &s
	case KindMultiChoice:
		p.OptionValues = v.Choices()
	}
	return p
}

// Record converts a payload back to its record form, used after a save to
// keep the loader and saver shapes aligned.
func (p Payload) Record() Record {
	return Record{
		LinkID:       p.LinkID,
		TextValue:    p.TextValue,
		ScaleValue:   p.ScaleValue,
		OptionValue:  p.OptionValue,
		OptionValues: p.OptionValues,
	}
}
