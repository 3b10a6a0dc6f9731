// Package navigation walks the flattened question order and raises focus
// requests. How a focus request is honoured (smooth scroll, jump, nothing)
// is up to the rendering layer.
package navigation

// FocusRequest asks the UI to bring LinkID into the centre of the viewport.
type FocusRequest struct {
	LinkID int `json:"linkId"`
}

type Cursor struct {
	order []int
	index map[int]int
	focus func(FocusRequest)
}

// New builds a cursor over linkIDs in display order. focus may be nil.
func New(order []int, focus func(FocusRequest)) *Cursor {
	c := &Cursor{
		order: append([]int(nil), order...),
		index: make(map[int]int, len(order)),
		focus: focus,
	}
	for i, id := range c.order {
		if _, dup := c.index[id]; !dup {
			c.index[id] = i
		}
	}
	return c
}

// NextOf returns the question after linkID. It reports false when linkID is
// last or unknown.
func (c *Cursor) NextOf(linkID int) (int, bool) {
	i, ok := c.index[linkID]
	if !ok || i+1 >= len(c.order) {
		return 0, false
	}
	return c.order[i+1], true
}

func (c *Cursor) Contains(linkID int) bool {
	_, ok := c.index[linkID]
	return ok
}

func (c *Cursor) RequestFocus(linkID int) {
	if c.focus != nil && c.Contains(linkID) {
		c.focus(FocusRequest{LinkID: linkID})
	}
}

// Advance moves focus to the question after from, if there is one.
func (c *Cursor) Advance(from int) {
	if next, ok := c.NextOf(from); ok {
		c.RequestFocus(next)
	}
}

// Hold keeps linkID centred while it is being edited.
func (c *Cursor) Hold(linkID int) {
	c.RequestFocus(linkID)
}
