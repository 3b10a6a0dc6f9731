// Package question describes the question links of a session and the
// caller-side validation applied before an answer reaches the draft store.
package question

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"assessment_backend/internal/engine/answer"
	"assessment_backend/internal/engine/ticks"
)

var (
	ErrKindMismatch  = errors.New("answer kind does not match question type")
	ErrOutOfRange    = errors.New("scale value out of range")
	ErrUnknownOption = errors.New("unknown option key")
	ErrEmptyChoice   = errors.New("required question needs at least one choice")
	ErrNotScale      = errors.New("question is not a scale")
)

type Option struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Link is one question placed in a session. LinkID is the answer key; the
// same bank question can appear under different link ids across sessions.
type Link struct {
	LinkID     int         `json:"linkId"`
	QuestionID int         `json:"questionId"`
	SectionID  int         `json:"sectionId"`
	Order      int         `json:"order"`
	Required   bool        `json:"required"`
	Kind       answer.Kind `json:"type"`
	Text       string      `json:"text"`
	Options    []Option    `json:"options,omitempty"`
	MinScale   *int        `json:"minScale,omitempty"`
	MaxScale   *int        `json:"maxScale,omitempty"`
}

type Section struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Order     int    `json:"order"`
	Questions []Link `json:"questions"`
}

// Flatten orders links section-major (by section order) and then by their
// in-section order. Ties keep the input order.
func Flatten(sections []Section) []Link {
	secs := make([]Section, len(sections))
	copy(secs, sections)
	sort.SliceStable(secs, func(i, j int) bool { return secs[i].Order < secs[j].Order })

	var out []Link
	for _, s := range secs {
		qs := make([]Link, len(s.Questions))
		copy(qs, s.Questions)
		sort.SliceStable(qs, func(i, j int) bool { return qs[i].Order < qs[j].Order })
		out = append(out, qs...)
	}
	return out
}

// LinkIDs returns the ids of links in the given order.
func LinkIDs(links []Link) []int {
	ids := make([]int, len(links))
	for i, l := range links {
		ids[i] = l.LinkID
	}
	return ids
}

// bounds returns the declared scale range. A side left unset falls back to
// the nearest numeric option, then to 0.
func (l Link) bounds() (int, int) {
	lo, hi := 0, 0
	if c := l.ScaleCandidates(); len(c) > 0 {
		lo, hi = c[0], c[len(c)-1]
	}
	if l.MinScale != nil {
		lo = *l.MinScale
	}
	if l.MaxScale != nil {
		hi = *l.MaxScale
	}
	return lo, hi
}

func (l Link) hasOption(key string) bool {
	for _, o := range l.Options {
		if o.Key == key {
			return true
		}
	}
	return false
}

// Validate checks v against the link definition.
func Validate(l Link, v answer.Value) error {
	if v.Kind() != l.Kind {
		return fmt.Errorf("%w: link %d is %s, got %s", ErrKindMismatch, l.LinkID, l.Kind, v.Kind())
	}
	switch l.Kind {
	case answer.KindScale:
		lo, hi := l.bounds()
		n := v.ScaleValue()
		if n < lo || n > hi {
			return fmt.Errorf("%w: %d not in [%d, %d]", ErrOutOfRange, n, lo, hi)
		}
		if c := l.ScaleCandidates(); len(c) > 0 && !containsInt(c, n) {
			return fmt.Errorf("%w: %d is not one of %v", ErrOutOfRange, n, c)
		}
	case answer.KindSingleChoice:
		if !l.hasOption(v.Choice()) {
			return fmt.Errorf("%w: %q", ErrUnknownOption, v.Choice())
		}
	case answer.KindMultiChoice:
		keys := v.Choices()
		if l.Required && len(keys) == 0 {
			return ErrEmptyChoice
		}
		for _, k := range keys {
			if !l.hasOption(k) {
				return fmt.Errorf("%w: %q", ErrUnknownOption, k)
			}
		}
	}
	return nil
}

// ScaleCandidates returns the numeric option keys of a scale link, sorted.
// Scales without explicit numeric options return nil.
func (l Link) ScaleCandidates() []int {
	var out []int
	for _, o := range l.Options {
		n, err := strconv.Atoi(o.Key)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func containsInt(sorted []int, n int) bool {
	i := sort.SearchInts(sorted, n)
	return i < len(sorted) && sorted[i] == n
}

// Ticks plans the slider labels for a scale link.
func (l Link) Ticks(desired int) []int {
	lo, hi := l.bounds()
	return ticks.PlanTicks(lo, hi, l.ScaleCandidates(), desired)
}

// SnapScale turns a continuous slider position into a valid scale answer:
// the nearest explicit option when the scale has any, otherwise the nearest
// integer clamped to the declared bounds.
func (l Link) SnapScale(position float64) (answer.Value, error) {
	if l.Kind != answer.KindScale {
		return answer.Value{}, fmt.Errorf("%w: link %d", ErrNotScale, l.LinkID)
	}
	lo, hi := l.bounds()
	if c := l.ScaleCandidates(); len(c) > 0 {
		return answer.Scale(ticks.SnapToNearest(position, c)), nil
	}
	n := int(math.Round(position))
	if n < lo {
		n = lo
	}
	if n > hi {
		n = hi
	}
	return answer.Scale(n), nil
}

type SessionInfo struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// Loaded is what the question loader returns for one assignment context.
type Loaded struct {
	Session        SessionInfo
	Sections       []Section
	PriorResponses []answer.Record
}
