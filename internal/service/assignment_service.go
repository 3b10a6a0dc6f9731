package service

import (
	"context"
	"errors"
	"fmt"

	"assessment_backend/internal/engine/resolver"
	"assessment_backend/internal/model"
	"assessment_backend/internal/repository"
	"assessment_backend/pkg/logger"

	"go.uber.org/zap"
)

var ErrSelfWithSubject = errors.New("SELF assignments cannot name a subject")

type AssignmentService struct {
	Repo        *repository.AssignmentRepository
	SessionRepo *repository.SessionRepository
	Workspaces  *WorkspaceService
}

func NewAssignmentService(repo *repository.AssignmentRepository, sessionRepo *repository.SessionRepository, ws *WorkspaceService) *AssignmentService {
	return &AssignmentService{Repo: repo, SessionRepo: sessionRepo, Workspaces: ws}
}

type AssignRequest struct {
	RespondentID uint                 `json:"respondentId" binding:"required"`
	Perspective  resolver.Perspective `json:"perspective" binding:"required,perspective"`
	SubjectID    uint                 `json:"subjectId"`
}

// Assign grants a perspective and refreshes the respondent's open
// workspaces so the new option shows up without reopening.
func (s *AssignmentService) Assign(ctx context.Context, sessionID uint, req AssignRequest) (*model.SessionAssignment, error) {
	if req.Perspective == resolver.PerspectiveSelf && req.SubjectID != 0 {
		return nil, ErrSelfWithSubject
	}
	if req.Perspective != resolver.PerspectiveSelf && req.SubjectID == 0 {
		return nil, fmt.Errorf("%w: %s needs a subject", resolver.ErrSubjectNotAllowed, req.Perspective)
	}
	if _, err := s.SessionRepo.FindSessionByID(ctx, sessionID); err != nil {
		return nil, err
	}

	a := &model.SessionAssignment{
		SessionID:    sessionID,
		RespondentID: req.RespondentID,
		Perspective:  string(req.Perspective),
		SubjectID:    req.SubjectID,
	}
	if err := s.Repo.Create(ctx, a); err != nil {
		return nil, err
	}

	if s.Workspaces != nil {
		if err := s.Workspaces.RefreshAssignments(ctx, int(sessionID), int(req.RespondentID)); err != nil {
			logger.Log.Warn("Refreshing workspaces after assignment failed",
				zap.Uint("session", sessionID),
				zap.Uint("respondent", req.RespondentID),
				zap.Error(err))
		}
	}
	return a, nil
}

// AssignmentView is the directory snapshot with subject display names.
type AssignmentView struct {
	Perspectives []resolver.Perspective          `json:"perspectives"`
	Subjects     map[resolver.Perspective][]int `json:"subjects"`
	SubjectNames map[int]string                 `json:"subjectNames"`
}

func (s *AssignmentService) View(ctx context.Context, sessionID, respondentID int) (*AssignmentView, error) {
	a, err := s.Repo.Assignment(ctx, sessionID, respondentID)
	if err != nil {
		return nil, err
	}
	var ids []int
	for _, subs := range a.Subjects {
		ids = append(ids, subs...)
	}
	names, err := s.Repo.SubjectNames(ctx, ids)
	if err != nil {
		return nil, err
	}
	if a.Perspectives == nil {
		a.Perspectives = []resolver.Perspective{}
	}
	return &AssignmentView{Perspectives: a.Perspectives, Subjects: a.Subjects, SubjectNames: names}, nil
}
