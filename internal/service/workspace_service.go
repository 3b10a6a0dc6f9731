package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"assessment_backend/internal/engine/resolver"
	"assessment_backend/internal/model"
	"assessment_backend/internal/util"
	"assessment_backend/pkg/logger"
	"assessment_backend/pkg/monitoring"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Disconnector drops the live connections of a closed workspace.
type Disconnector interface {
	Disconnect(workspaceID string)
}

type WorkspaceService struct {
	deps         workspaceDeps
	disconnector Disconnector

	mu         sync.RWMutex
	workspaces map[string]*Workspace
	settings   Settings
}

type WorkspaceOption func(*WorkspaceService)

func WithClock(c clock.Clock) WorkspaceOption {
	return func(s *WorkspaceService) { s.deps.clock = c }
}

func WithDisconnector(d Disconnector) WorkspaceOption {
	return func(s *WorkspaceService) { s.disconnector = d }
}

func NewWorkspaceService(loader QuestionLoader, saver ResponseSaver, directory AssignmentDirectory,
	sink EventSink, settings Settings, opts ...WorkspaceOption) *WorkspaceService {
	s := &WorkspaceService{
		deps: workspaceDeps{
			loader:    loader,
			saver:     saver,
			directory: directory,
			sink:      sink,
			clock:     clock.New(),
		},
		workspaces: make(map[string]*Workspace),
		settings:   settings,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type OpenWorkspaceRequest struct {
	SessionID   int                  `json:"sessionId" binding:"required,min=1"`
	Perspective resolver.Perspective `json:"perspective" binding:"omitempty,perspective"`
	SubjectID   int                  `json:"subjectId" binding:"omitempty,min=1"`
}

// Open creates a workspace for the caller. The optional perspective and
// subject are applied on top of the auto-selection.
func (s *WorkspaceService) Open(ctx context.Context, ownerID uint, req OpenWorkspaceRequest) (*Workspace, error) {
	s.mu.RLock()
	settings := s.settings
	s.mu.RUnlock()

	w := newWorkspace(model.GenerateUUID(), ownerID, req.SessionID, int(ownerID), s.deps, settings)
	if err := s.prepare(ctx, w, req); err != nil {
		w.Close()
		return nil, err
	}

	s.mu.Lock()
	s.workspaces[w.ID] = w
	s.mu.Unlock()
	monitoring.WorkspacesOpen.Inc()

	logger.Log.Info("Workspace opened",
		zap.String("workspace", w.ID),
		zap.Uint("owner", ownerID),
		zap.Int("session", req.SessionID))
	return w, nil
}

func (s *WorkspaceService) prepare(ctx context.Context, w *Workspace, req OpenWorkspaceRequest) error {
	if err := w.Open(ctx); err != nil {
		return err
	}
	if req.Perspective != "" {
		if err := w.SelectPerspective(ctx, req.Perspective); err != nil {
			return err
		}
	}
	if req.SubjectID != 0 {
		if err := w.SelectSubject(ctx, req.SubjectID); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the caller's workspace.
func (s *WorkspaceService) Get(id string, ownerID uint) (*Workspace, error) {
	s.mu.RLock()
	w, ok := s.workspaces[id]
	s.mu.RUnlock()
	if !ok {
		return nil, util.ErrWorkspaceNotFound
	}
	if w.OwnerID != ownerID {
		return nil, util.ErrPermissionDenied
	}
	return w, nil
}

func (s *WorkspaceService) Close(id string, ownerID uint) error {
	w, err := s.Get(id, ownerID)
	if err != nil {
		return err
	}
	s.remove(w)
	return nil
}

func (s *WorkspaceService) remove(w *Workspace) {
	s.mu.Lock()
	if _, ok := s.workspaces[w.ID]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.workspaces, w.ID)
	s.mu.Unlock()

	w.Close()
	monitoring.WorkspacesOpen.Dec()
	if s.disconnector != nil {
		s.disconnector.Disconnect(w.ID)
	}
}

// CloseIdle closes workspaces untouched for longer than maxIdle and
// returns how many were closed.
func (s *WorkspaceService) CloseIdle(maxIdle time.Duration) int {
	now := s.deps.clock.Now()
	var idle []*Workspace
	s.mu.RLock()
	for _, w := range s.workspaces {
		if now.Sub(w.LastActive()) > maxIdle {
			idle = append(idle, w)
		}
	}
	s.mu.RUnlock()

	for _, w := range idle {
		s.remove(w)
	}
	if len(idle) > 0 {
		logger.Log.Info("Closed idle workspaces", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// ApplySettings pushes new engine settings to every open workspace.
func (s *WorkspaceService) ApplySettings(settings Settings) {
	s.mu.Lock()
	s.settings = settings
	open := make([]*Workspace, 0, len(s.workspaces))
	for _, w := range s.workspaces {
		open = append(open, w)
	}
	s.mu.Unlock()

	for _, w := range open {
		w.ApplySettings(settings)
	}
	logger.Log.Info("Engine settings applied",
		zap.Duration("debounce", settings.Debounce),
		zap.Int("desiredTicks", settings.DesiredTicks),
		zap.Int("workspaces", len(open)))
}

func (s *WorkspaceService) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// RefreshAssignments re-reads the directory for every open workspace of
// respondentID in sessionID.
func (s *WorkspaceService) RefreshAssignments(ctx context.Context, sessionID, respondentID int) error {
	s.mu.RLock()
	var targets []*Workspace
	for _, w := range s.workspaces {
		if w.SessionID == sessionID && w.RespondentID == respondentID {
			targets = append(targets, w)
		}
	}
	s.mu.RUnlock()

	var errs []error
	for _, w := range targets {
		if err := w.ReloadAssignment(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *WorkspaceService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.workspaces)
}

// Shutdown closes every workspace.
func (s *WorkspaceService) Shutdown() {
	s.mu.RLock()
	all := make([]*Workspace, 0, len(s.workspaces))
	for _, w := range s.workspaces {
		all = append(all, w)
	}
	s.mu.RUnlock()
	for _, w := range all {
		s.remove(w)
	}
}

type DragMessage struct {
	LinkID   int     `json:"linkId"`
	Position float64 `json:"position"`
}

// HandleInbound serves websocket messages. Slider drags come through here
// so they do not pay an HTTP round trip per pointer event.
func (s *WorkspaceService) HandleInbound(workspaceID string, ownerID uint, msg InboundMessage) *WSMessage {
	if msg.Type != util.MessageDrag {
		return &WSMessage{Type: util.MessageRejected, Data: map[string]string{"reason": "unsupported message type"}}
	}
	w, err := s.Get(workspaceID, ownerID)
	if err != nil {
		return errorMessage(err)
	}
	var drag DragMessage
	if err := json.Unmarshal(msg.Data, &drag); err != nil {
		return errorMessage(err)
	}
	if _, err := w.Drag(drag.LinkID, drag.Position); err != nil {
		return errorMessage(err)
	}
	return nil
}

func errorMessage(err error) *WSMessage {
	return &WSMessage{Type: util.MessageError, Data: map[string]string{"error": err.Error()}}
}
