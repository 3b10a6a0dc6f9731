package draft

import (
	"testing"

	"assessment_backend/internal/engine/answer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ProgrammerErrors(t *testing.T) {
	s := NewStore()
	assert.ErrorIs(t, s.SetAnswer(1, answer.Text("x")), ErrNotLoaded)
	assert.ErrorIs(t, s.CommitSaved(answer.Map{1: answer.Text("x")}), ErrNotLoaded)

	s.Load([]int{1}, nil)
	assert.ErrorIs(t, s.SetAnswer(2, answer.Text("x")), ErrUnknownLink)
	assert.ErrorIs(t, s.CommitSaved(answer.Map{1: answer.Text("x"), 2: answer.Text("y")}), ErrUnknownLink)
	// rejected commit leaves the known entry untouched
	assert.Nil(t, s.Server(1))
}

func TestStore_StatusTruthTable(t *testing.T) {
	a, b := answer.Scale(1), answer.Scale(2)
	tests := []struct {
		name          string
		server, draft *answer.Value
		want          Status
	}{
		{"both absent", nil, nil, StatusUnanswered},
		{"draft only", nil, &a, StatusPending},
		{"server only", &a, nil, StatusAnswered},
		{"equal", &a, &a, StatusAnswered},
		{"differs", &a, &b, StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			snap := answer.Map{}
			if tt.server != nil {
				snap[1] = *tt.server
			}
			s.Load([]int{1}, snap)
			// draft absent with a server value is only reachable through the
			// internal map; Load always copies server into draft
			delete(s.draft, 1)
			if tt.draft != nil {
				require.NoError(t, s.SetAnswer(1, *tt.draft))
			}
			assert.Equal(t, tt.want, s.Status(1))
		})
	}
}

func TestStore_LoadDiscardsPreviousContext(t *testing.T) {
	s := NewStore()
	s.Load([]int{1, 2}, answer.Map{1: answer.Text("old")})
	require.NoError(t, s.SetAnswer(2, answer.Text("draft")))

	s.Load([]int{1, 2}, answer.Map{})
	assert.Nil(t, s.Draft(2))
	assert.Nil(t, s.Server(1))
	assert.Equal(t, 0, s.AnsweredCount())
}

func TestStore_LoadDropsForeignLinks(t *testing.T) {
	s := NewStore()
	s.Load([]int{1}, answer.Map{1: answer.Boolean(true), 9: answer.Boolean(true)})
	assert.Nil(t, s.Server(9))
	assert.Equal(t, 1, s.AnsweredCount())
}

func TestStore_CommitSavedPartialAndIdempotent(t *testing.T) {
	s := NewStore()
	s.Load([]int{1, 2, 3}, nil)
	require.NoError(t, s.SetAnswer(1, answer.Text("a")))
	require.NoError(t, s.SetAnswer(2, answer.MultiChoice("x", "y")))
	assert.Equal(t, 2, s.PendingCount())

	saved := answer.Map{2: answer.MultiChoice("y", "x")}
	require.NoError(t, s.CommitSaved(saved))
	first := s.server.Clone()
	require.NoError(t, s.CommitSaved(saved))
	assert.Equal(t, first, s.server)

	assert.Equal(t, StatusAnswered, s.Status(2))
	assert.Equal(t, StatusPending, s.Status(1))
	assert.Equal(t, StatusUnanswered, s.Status(3))
	assert.Equal(t, 1, s.PendingCount())
	assert.Equal(t, []int{1}, keys(s.Pending()))
}

func TestStore_Revert(t *testing.T) {
	s := NewStore()
	s.Load([]int{1, 2}, answer.Map{1: answer.Scale(3)})
	require.NoError(t, s.SetAnswer(1, answer.Scale(4)))
	require.NoError(t, s.SetAnswer(2, answer.Scale(4)))

	require.NoError(t, s.Revert(1))
	require.NoError(t, s.Revert(2))
	assert.Equal(t, StatusAnswered, s.Status(1))
	assert.Equal(t, StatusUnanswered, s.Status(2))
	assert.Equal(t, 0, s.PendingCount())
}

func TestStore_EndToEndScenario(t *testing.T) {
	const scaleLink, textLink = 10, 11
	s := NewStore()
	s.Load([]int{scaleLink, textLink}, answer.Map{})
	assert.Equal(t, 0, s.AnsweredCount())

	require.NoError(t, s.SetAnswer(scaleLink, answer.Scale(4)))
	assert.Equal(t, StatusPending, s.Status(scaleLink))
	assert.Equal(t, 1, s.AnsweredCount())

	require.NoError(t, s.CommitSaved(answer.Map{scaleLink: answer.Scale(4)}))
	assert.Equal(t, StatusAnswered, s.Status(scaleLink))
	assert.Equal(t, StatusUnanswered, s.Status(textLink))
}

func keys(m answer.Map) []int {
	var out []int
	for k := range m {
		out = append(out, k)
	}
	return out
}
