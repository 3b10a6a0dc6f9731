package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_AutoSelectsFirstPerspective(t *testing.T) {
	r := New()
	r.Reset(1, 2)
	r.Apply(Assignment{Perspectives: []Perspective{PerspectivePeer, PerspectiveSelf}})

	st := r.State()
	require.NotNil(t, st.ActivePerspective)
	assert.Equal(t, PerspectivePeer, *st.ActivePerspective)
	assert.False(t, r.CanLoad(), "peer without subjects cannot load")
}

func TestResolver_AutoSelectsSmallestSubject(t *testing.T) {
	r := New()
	r.Reset(1, 2)
	r.Apply(Assignment{
		Perspectives: []Perspective{PerspectivePeer},
		Subjects:     map[Perspective][]int{PerspectivePeer: {9, 3, 7}},
	})

	ctx, ok := r.Context()
	require.True(t, ok)
	assert.Equal(t, Context{SessionID: 1, RespondentID: 2, Perspective: PerspectivePeer, SubjectID: 3}, ctx)
	assert.Equal(t, []int{3, 7, 9}, r.State().AllowedSubjectIDs)
}

func TestResolver_StickySubject(t *testing.T) {
	r := New()
	r.Reset(1, 2)
	r.Apply(Assignment{
		Perspectives: []Perspective{PerspectivePeer, PerspectiveManager},
		Subjects: map[Perspective][]int{
			PerspectivePeer:    {9, 3, 7},
			PerspectiveManager: {7, 20},
		},
	})
	require.NoError(t, r.SelectSubject(7))

	// 7 is still valid for MANAGER, so it is kept
	require.NoError(t, r.SelectPerspective(PerspectiveManager))
	assert.Equal(t, 7, *r.State().ActiveSubjectID)

	// directory drops 7: corrected to the smallest remaining id
	r.Apply(Assignment{
		Perspectives: []Perspective{PerspectivePeer, PerspectiveManager},
		Subjects:     map[Perspective][]int{PerspectiveManager: {40, 20}},
	})
	assert.Equal(t, 20, *r.State().ActiveSubjectID)
}

func TestResolver_SelfClearsSubject(t *testing.T) {
	r := New()
	r.Reset(1, 2)
	r.Apply(Assignment{
		Perspectives: []Perspective{PerspectivePeer, PerspectiveSelf},
		Subjects:     map[Perspective][]int{PerspectivePeer: {4}},
	})
	require.NotNil(t, r.State().ActiveSubjectID)

	require.NoError(t, r.SelectPerspective(PerspectiveSelf))
	assert.Nil(t, r.State().ActiveSubjectID)
	ctx, ok := r.Context()
	require.True(t, ok)
	assert.Equal(t, 0, ctx.SubjectID)

	assert.ErrorIs(t, r.SelectSubject(4), ErrSubjectNotAllowed)
}

func TestResolver_RejectsInvalidSelections(t *testing.T) {
	r := New()
	assert.ErrorIs(t, r.SelectPerspective(PerspectiveSelf), ErrNoRespondent)

	r.Reset(1, 2)
	r.Apply(Assignment{
		Perspectives: []Perspective{PerspectivePeer},
		Subjects:     map[Perspective][]int{PerspectivePeer: {4, 5}},
	})
	assert.ErrorIs(t, r.SelectPerspective(PerspectiveManager), ErrPerspectiveUnavailable)
	assert.ErrorIs(t, r.SelectSubject(99), ErrSubjectNotAllowed)
	assert.Equal(t, PerspectivePeer, *r.State().ActivePerspective)
	assert.Equal(t, 4, *r.State().ActiveSubjectID)
}

func TestResolver_ResetClearsSelection(t *testing.T) {
	r := New()
	r.Reset(1, 2)
	r.Apply(Assignment{Perspectives: []Perspective{PerspectiveSelf}})
	require.True(t, r.CanLoad())

	r.Reset(3, 2)
	st := r.State()
	assert.Nil(t, st.ActivePerspective)
	assert.Nil(t, st.ActiveSubjectID)
	assert.False(t, r.CanLoad())
}

func TestResolver_UnavailablePerspectiveIsReplaced(t *testing.T) {
	r := New()
	r.Reset(1, 2)
	r.Apply(Assignment{Perspectives: []Perspective{PerspectiveSelf, PerspectivePeer}})
	require.NoError(t, r.SelectPerspective(PerspectivePeer))

	r.Apply(Assignment{Perspectives: []Perspective{PerspectiveSelf}})
	assert.Equal(t, PerspectiveSelf, *r.State().ActivePerspective)
}

func TestResolver_CanLoadGating(t *testing.T) {
	r := New()
	assert.False(t, r.CanLoad(), "no session")

	r.Reset(1, 2)
	assert.False(t, r.CanLoad(), "no perspective")

	r.Apply(Assignment{Perspectives: []Perspective{PerspectivePeer}})
	assert.False(t, r.CanLoad(), "peer without subject")

	r.Apply(Assignment{
		Perspectives: []Perspective{PerspectivePeer},
		Subjects:     map[Perspective][]int{PerspectivePeer: {1}},
	})
	assert.True(t, r.CanLoad())
}
