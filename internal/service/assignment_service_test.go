package service

import (
	"context"
	"path/filepath"
	"testing"

	"assessment_backend/internal/config"
	"assessment_backend/internal/engine/resolver"
	"assessment_backend/internal/model"
	"assessment_backend/internal/repository"
	"assessment_backend/internal/util"
	"assessment_backend/pkg/database"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type assignmentHarness struct {
	svc        *AssignmentService
	workspaces *WorkspaceService
	loader     *fakeLoader
}

func newAssignmentHarness(t *testing.T) *assignmentHarness {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "assignments.db"),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	require.NoError(t, db.Create(&model.AssessmentSession{
		BaseModel: model.BaseModel{ID: 1}, Name: "Q3 review", State: model.SessionOpen,
	}).Error)
	require.NoError(t, db.Create(&model.User{
		BaseModel: model.BaseModel{ID: 9}, Name: "Kim", Email: "kim@example.com",
	}).Error)

	assignments := repository.NewAssignmentRepository(db)
	loader := &fakeLoader{}
	ws := NewWorkspaceService(loader, &fakeSaver{fail: map[int]bool{}}, assignments, &recordingSink{},
		DefaultSettings(), WithClock(clock.NewMock()))
	t.Cleanup(ws.Shutdown)

	return &assignmentHarness{
		svc:        NewAssignmentService(assignments, repository.NewSessionRepository(db), ws),
		workspaces: ws,
		loader:     loader,
	}
}

func TestAssignmentService_Validation(t *testing.T) {
	h := newAssignmentHarness(t)
	ctx := context.Background()

	_, err := h.svc.Assign(ctx, 1, AssignRequest{RespondentID: 42, Perspective: resolver.PerspectiveSelf, SubjectID: 9})
	assert.ErrorIs(t, err, ErrSelfWithSubject)

	_, err = h.svc.Assign(ctx, 1, AssignRequest{RespondentID: 42, Perspective: resolver.PerspectivePeer})
	assert.ErrorIs(t, err, resolver.ErrSubjectNotAllowed)

	_, err = h.svc.Assign(ctx, 404, AssignRequest{RespondentID: 42, Perspective: resolver.PerspectiveSelf})
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestAssignmentService_GrantReachesOpenWorkspace(t *testing.T) {
	h := newAssignmentHarness(t)
	ctx := context.Background()

	w, err := h.workspaces.Open(ctx, 42, OpenWorkspaceRequest{SessionID: 1})
	require.NoError(t, err)
	v := w.Snapshot()
	assert.False(t, v.Loaded, "no perspective granted yet")
	assert.Empty(t, v.Resolver.Perspectives)

	a, err := h.svc.Assign(ctx, 1, AssignRequest{RespondentID: 42, Perspective: resolver.PerspectivePeer, SubjectID: 9})
	require.NoError(t, err)
	assert.NotZero(t, a.ID)

	v = w.Snapshot()
	require.True(t, v.Loaded)
	require.NotNil(t, v.Resolver.ActiveSubjectID)
	assert.Equal(t, 9, *v.Resolver.ActiveSubjectID)
	assert.Equal(t, resolver.Context{
		SessionID: 1, RespondentID: 42, Perspective: resolver.PerspectivePeer, SubjectID: 9,
	}, h.loader.lastCall())

	view, err := h.svc.View(ctx, 1, 42)
	require.NoError(t, err)
	assert.Equal(t, []resolver.Perspective{resolver.PerspectivePeer}, view.Perspectives)
	assert.Equal(t, map[int]string{9: "Kim"}, view.SubjectNames)

	empty, err := h.svc.View(ctx, 1, 7)
	require.NoError(t, err)
	assert.Empty(t, empty.Perspectives)
	assert.NotNil(t, empty.Perspectives)
}
