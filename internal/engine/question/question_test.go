package question

import (
	"testing"

	"assessment_backend/internal/engine/answer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(n int) *int { return &n }

func TestFlatten_SectionMajor(t *testing.T) {
	sections := []Section{
		{ID: 2, Order: 2, Questions: []Link{{LinkID: 21, Order: 2}, {LinkID: 20, Order: 1}}},
		{ID: 1, Order: 1, Questions: []Link{{LinkID: 11, Order: 5}, {LinkID: 10, Order: 0}}},
	}
	assert.Equal(t, []int{10, 11, 20, 21}, LinkIDs(Flatten(sections)))
	// input is left untouched
	assert.Equal(t, 21, sections[0].Questions[0].LinkID)
}

func TestValidate(t *testing.T) {
	scale := Link{LinkID: 1, Kind: answer.KindScale, MinScale: intp(1), MaxScale: intp(5)}
	choice := Link{LinkID: 2, Kind: answer.KindSingleChoice, Options: []Option{{Key: "a"}, {Key: "b"}}}
	multi := Link{LinkID: 3, Kind: answer.KindMultiChoice, Required: true, Options: []Option{{Key: "a"}, {Key: "b"}}}

	assert.NoError(t, Validate(scale, answer.Scale(5)))
	assert.ErrorIs(t, Validate(scale, answer.Scale(6)), ErrOutOfRange)
	assert.ErrorIs(t, Validate(scale, answer.Text("5")), ErrKindMismatch)
	assert.NoError(t, Validate(choice, answer.SingleChoice("b")))
	assert.ErrorIs(t, Validate(choice, answer.SingleChoice("B")), ErrUnknownOption)
	assert.NoError(t, Validate(multi, answer.MultiChoice("a", "b")))
	assert.ErrorIs(t, Validate(multi, answer.MultiChoice()), ErrEmptyChoice)
	assert.ErrorIs(t, Validate(multi, answer.MultiChoice("c")), ErrUnknownOption)
}

func TestSnapScale(t *testing.T) {
	plain := Link{LinkID: 1, Kind: answer.KindScale, MinScale: intp(1), MaxScale: intp(1000)}
	v, err := plain.SnapScale(417.6)
	require.NoError(t, err)
	assert.Equal(t, 418, v.ScaleValue())

	v, err = plain.SnapScale(-3)
	require.NoError(t, err)
	assert.Equal(t, 1, v.ScaleValue())

	explicit := Link{LinkID: 2, Kind: answer.KindScale, MinScale: intp(0), MaxScale: intp(10),
		Options: []Option{{Key: "10"}, {Key: "0"}, {Key: "5"}}}
	v, err = explicit.SnapScale(2.5)
	require.NoError(t, err)
	assert.Equal(t, 0, v.ScaleValue())
	assert.Equal(t, []int{0, 5, 10}, explicit.Ticks(7))

	_, err = Link{Kind: answer.KindText}.SnapScale(1)
	assert.ErrorIs(t, err, ErrNotScale)
}

func TestOptionOnlyScale(t *testing.T) {
	l := Link{LinkID: 4, Kind: answer.KindScale,
		Options: []Option{{Key: "3"}, {Key: "1"}, {Key: "5"}, {Key: "2"}, {Key: "4"}}}

	assert.Equal(t, []int{1, 2, 3, 4, 5}, l.Ticks(7))

	v, err := l.SnapScale(2.6)
	require.NoError(t, err)
	assert.Equal(t, 3, v.ScaleValue())
	assert.NoError(t, Validate(l, v))

	v, err = l.SnapScale(40)
	require.NoError(t, err)
	assert.Equal(t, 5, v.ScaleValue())

	assert.NoError(t, Validate(l, answer.Scale(1)))
	assert.ErrorIs(t, Validate(l, answer.Scale(6)), ErrOutOfRange)
	assert.ErrorIs(t, Validate(l, answer.Scale(0)), ErrOutOfRange)
}

func TestScaleOptionsRestrictValues(t *testing.T) {
	l := Link{LinkID: 5, Kind: answer.KindScale, MinScale: intp(0), MaxScale: intp(10),
		Options: []Option{{Key: "0"}, {Key: "5"}, {Key: "10"}}}
	assert.NoError(t, Validate(l, answer.Scale(5)))
	assert.ErrorIs(t, Validate(l, answer.Scale(4)), ErrOutOfRange)

	half := Link{LinkID: 6, Kind: answer.KindScale, MaxScale: intp(9),
		Options: []Option{{Key: "3"}, {Key: "6"}}}
	lo, hi := half.bounds()
	assert.Equal(t, 3, lo)
	assert.Equal(t, 9, hi)
}
