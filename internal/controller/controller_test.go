package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"assessment_backend/internal/config"
	"assessment_backend/internal/engine/answer"
	"assessment_backend/internal/engine/question"
	"assessment_backend/internal/engine/resolver"
	"assessment_backend/internal/middleware"
	"assessment_backend/internal/service"
	"assessment_backend/internal/util"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "controller-test-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func intp(n int) *int { return &n }

type stubLoader struct{}

func (stubLoader) LoadQuestions(_ context.Context, c resolver.Context) (*question.Loaded, error) {
	return &question.Loaded{
		Session: question.SessionInfo{ID: c.SessionID, Name: "Pulse", State: "open"},
		Sections: []question.Section{{
			ID: 1, Title: "Team", Order: 1,
			Questions: []question.Link{
				{LinkID: 1, SectionID: 1, Order: 1, Kind: answer.KindScale, Text: "Energy", MinScale: intp(1), MaxScale: intp(5)},
				{LinkID: 2, SectionID: 1, Order: 2, Kind: answer.KindSingleChoice, Text: "Mood",
					Options: []question.Option{{Key: "a", Label: "Up"}, {Key: "b", Label: "Down"}}},
			},
		}},
	}, nil
}

type stubSaver struct {
	mu    sync.Mutex
	saved []answer.Payload
}

func (s *stubSaver) SaveResponses(_ context.Context, _ resolver.Context, rows []answer.Payload) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(rows))
	for _, r := range rows {
		s.saved = append(s.saved, r)
		ids = append(ids, r.LinkID)
	}
	return ids, nil
}

type stubDirectory struct{}

func (stubDirectory) Assignment(context.Context, int, int) (resolver.Assignment, error) {
	return resolver.Assignment{
		Perspectives: []resolver.Perspective{resolver.PerspectiveSelf},
		Subjects:     map[resolver.Perspective][]int{},
	}, nil
}

type nopSink struct{}

func (nopSink) Push(string, service.WSMessage) {}

type harness struct {
	router *gin.Engine
	saver  *stubSaver
	svc    *service.WorkspaceService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	saver := &stubSaver{}
	svc := service.NewWorkspaceService(stubLoader{}, saver, stubDirectory{}, nopSink{},
		service.DefaultSettings(), service.WithClock(clock.NewMock()))
	t.Cleanup(svc.Shutdown)

	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}
	scale := NewScaleController(func() int { return 7 })
	ws := NewWorkspaceController(svc, service.NewEventHub(nil))

	r := gin.New()
	r.GET("/api/scales/ticks", scale.Ticks)
	api := r.Group("/api", middleware.AuthMiddleware(cfg))
	api.POST("/workspaces", ws.Open)
	api.GET("/workspaces/:id", ws.Get)
	api.DELETE("/workspaces/:id", ws.Close)
	api.PUT("/workspaces/:id/perspective", ws.SelectPerspective)
	api.PUT("/workspaces/:id/answers/:linkId", ws.SetAnswer)
	api.DELETE("/workspaces/:id/answers/:linkId", ws.Revert)
	api.POST("/workspaces/:id/save", ws.Save)
	api.GET("/facilitator/ping", middleware.RoleMiddleware("facilitator"), func(c *gin.Context) {
		util.Success(c, "pong")
	})
	return &harness{router: r, saver: saver, svc: svc}
}

func token(t *testing.T, userID uint, role string) string {
	t.Helper()
	tok, err := util.GenerateJWT(userID, 1, role, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func (h *harness) do(t *testing.T, method, path, tok string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestScaleController_Ticks(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name   string
		query  string
		status int
		ticks  []int
	}{
		{"configured default", "min=0&max=10", http.StatusOK, []int{0, 2, 4, 6, 8, 10}},
		{"explicit values", "min=1&max=5&values=1,2,3,4,5", http.StatusOK, []int{1, 2, 3, 4, 5}},
		{"missing max", "min=0", http.StatusBadRequest, nil},
		{"count too small", "min=0&max=10&count=1", http.StatusBadRequest, nil},
		{"bad values", "min=0&max=10&values=1,x", http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := h.do(t, http.MethodGet, "/api/scales/ticks?"+tt.query, "", nil)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.ticks == nil {
				return
			}
			var resp TicksResponse
			require.NoError(t, json.Unmarshal(env.Data, &resp))
			assert.Equal(t, tt.ticks, resp.Ticks)
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	h := newHarness(t)

	w, _ := h.do(t, http.MethodPost, "/api/workspaces", "", map[string]int{"sessionId": 1})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = h.do(t, http.MethodPost, "/api/workspaces", "not-a-jwt", map[string]int{"sessionId": 1})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	forged, err := util.GenerateJWT(42, 1, "respondent", "another-secret", time.Hour)
	require.NoError(t, err)
	w, _ = h.do(t, http.MethodPost, "/api/workspaces", forged, map[string]int{"sessionId": 1})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = h.do(t, http.MethodGet, "/api/facilitator/ping", token(t, 42, "respondent"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = h.do(t, http.MethodGet, "/api/facilitator/ping", token(t, 7, "facilitator"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = h.do(t, http.MethodGet, "/api/facilitator/ping", token(t, 1, "admin"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWorkspaceController_AnswerAndSave(t *testing.T) {
	h := newHarness(t)
	tok := token(t, 42, "respondent")

	w, env := h.do(t, http.MethodPost, "/api/workspaces", tok, map[string]int{"sessionId": 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var view service.WorkspaceView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.True(t, view.Loaded)
	assert.Equal(t, 2, view.Total)
	require.NotNil(t, view.Resolver.ActivePerspective)
	assert.Equal(t, resolver.PerspectiveSelf, *view.Resolver.ActivePerspective)
	base := "/api/workspaces/" + view.ID

	w, env = h.do(t, http.MethodPut, base+"/answers/2", tok, map[string]any{"value": "a", "trigger": "advance"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var item service.ItemView
	require.NoError(t, json.Unmarshal(env.Data, &item))
	assert.Equal(t, "PENDING", string(item.Status))

	w, _ = h.do(t, http.MethodPut, base+"/answers/1", tok, map[string]any{"value": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code, "out of range")
	w, _ = h.do(t, http.MethodPut, base+"/answers/2", tok, map[string]any{"value": "z"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "unknown option")
	w, _ = h.do(t, http.MethodPut, base+"/answers/2", tok, map[string]any{"value": "a", "trigger": "hover"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "unknown trigger")
	w, _ = h.do(t, http.MethodPut, base+"/answers/2", tok, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code, "no value")
	w, _ = h.do(t, http.MethodPut, base+"/answers/99", tok, map[string]any{"value": "a"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = h.do(t, http.MethodPut, base+"/answers/abc", tok, map[string]any{"value": "a"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = h.do(t, http.MethodPost, base+"/save", tok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res service.SaveResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, []int{2}, res.Saved)
	assert.Zero(t, res.Pending)
	require.Len(t, h.saver.saved, 1)
	assert.Equal(t, "a", *h.saver.saved[0].OptionValue)

	w, env = h.do(t, http.MethodGet, base, tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, 1, view.AnsweredCount)
	assert.Zero(t, view.PendingCount)
}

func TestWorkspaceController_DragSnapsPosition(t *testing.T) {
	h := newHarness(t)
	tok := token(t, 42, "respondent")

	_, env := h.do(t, http.MethodPost, "/api/workspaces", tok, map[string]int{"sessionId": 1})
	var view service.WorkspaceView
	require.NoError(t, json.Unmarshal(env.Data, &view))

	w, env := h.do(t, http.MethodPut, fmt.Sprintf("/api/workspaces/%s/answers/1", view.ID), tok,
		map[string]any{"position": 3.6})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var item struct {
		Status string          `json:"status"`
		Draft  json.RawMessage `json:"draft"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &item))
	assert.Equal(t, "PENDING", item.Status)
	assert.JSONEq(t, `{"type":"SCALE","value":4}`, string(item.Draft))
}

func TestWorkspaceController_RevertAndValidation(t *testing.T) {
	h := newHarness(t)
	tok := token(t, 42, "respondent")

	_, env := h.do(t, http.MethodPost, "/api/workspaces", tok, map[string]int{"sessionId": 1})
	var view service.WorkspaceView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	base := "/api/workspaces/" + view.ID

	w, _ := h.do(t, http.MethodPut, base+"/perspective", tok, map[string]string{"perspective": "BOSS"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "unknown perspective tag")
	w, _ = h.do(t, http.MethodPut, base+"/perspective", tok, map[string]string{"perspective": "PEER"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "not assigned")

	h.do(t, http.MethodPut, base+"/answers/2", tok, map[string]any{"value": "b"})
	w, env = h.do(t, http.MethodDelete, base+"/answers/2", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var item service.ItemView
	require.NoError(t, json.Unmarshal(env.Data, &item))
	assert.Equal(t, "UNANSWERED", string(item.Status))
	assert.Nil(t, item.Draft)
}

func TestWorkspaceController_Ownership(t *testing.T) {
	h := newHarness(t)
	owner := token(t, 42, "respondent")
	other := token(t, 43, "respondent")

	_, env := h.do(t, http.MethodPost, "/api/workspaces", owner, map[string]int{"sessionId": 1})
	var view service.WorkspaceView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	base := "/api/workspaces/" + view.ID

	w, _ := h.do(t, http.MethodGet, base, other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = h.do(t, http.MethodDelete, base, other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = h.do(t, http.MethodDelete, base, owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = h.do(t, http.MethodGet, base, owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, h.svc.Count())

	w, _ = h.do(t, http.MethodPost, "/api/workspaces", owner, map[string]int{"sessionId": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
