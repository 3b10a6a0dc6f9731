package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursor_NextOf(t *testing.T) {
	c := New([]int{10, 11, 20}, nil)

	next, ok := c.NextOf(10)
	assert.True(t, ok)
	assert.Equal(t, 11, next)

	next, ok = c.NextOf(11)
	assert.True(t, ok)
	assert.Equal(t, 20, next)

	_, ok = c.NextOf(20)
	assert.False(t, ok, "last question")

	_, ok = c.NextOf(99)
	assert.False(t, ok, "unknown question")
}

func TestCursor_FocusRequests(t *testing.T) {
	var got []FocusRequest
	c := New([]int{1, 2, 3}, func(r FocusRequest) { got = append(got, r) })

	c.Advance(1)
	c.Hold(1)
	c.Advance(3)
	c.Hold(42)

	assert.Equal(t, []FocusRequest{{LinkID: 2}, {LinkID: 1}}, got)
}
