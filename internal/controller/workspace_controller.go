package controller

import (
	"encoding/json"
	"errors"

	"assessment_backend/internal/engine/answer"
	"assessment_backend/internal/engine/draft"
	"assessment_backend/internal/engine/resolver"
	"assessment_backend/internal/service"
	"assessment_backend/internal/util"
	"assessment_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WorkspaceController struct {
	Service *service.WorkspaceService
	Hub     *service.EventHub
}

func NewWorkspaceController(svc *service.WorkspaceService, hub *service.EventHub) *WorkspaceController {
	return &WorkspaceController{Service: svc, Hub: hub}
}

type SelectPerspectiveRequest struct {
	Perspective resolver.Perspective `json:"perspective" binding:"required,perspective"`
}

type SelectSubjectRequest struct {
	SubjectID int `json:"subjectId" binding:"required,min=1"`
}

// SetAnswerRequest carries either a typed value or, for scales, a raw
// slider position that is snapped onto the scale.
type SetAnswerRequest struct {
	Value    json.RawMessage `json:"value" swaggertype:"object"`
	Position *float64        `json:"position"`
	Trigger  service.Trigger `json:"trigger" binding:"omitempty,oneof=edit advance drag"`
}

// respondError maps engine and service errors onto the response envelope.
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrWorkspaceNotFound),
		errors.Is(err, util.ErrSessionNotFound),
		errors.Is(err, util.ErrQuestionNotFound):
		util.NotFoundMessage(ctx, err.Error())
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrContextNotReady),
		errors.Is(err, util.ErrContextChanged),
		errors.Is(err, util.ErrSessionClosed),
		errors.Is(err, util.ErrWorkspaceClosed):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, resolver.ErrPerspectiveUnavailable),
		errors.Is(err, resolver.ErrSubjectNotAllowed),
		errors.Is(err, resolver.ErrNoRespondent),
		errors.Is(err, draft.ErrUnknownLink),
		errors.Is(err, service.ErrSelfWithSubject),
		service.IsValidationError(err):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

func (c *WorkspaceController) workspace(ctx *gin.Context) (*service.Workspace, bool) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return nil, false
	}
	w, err := c.Service.Get(ctx.Param("id"), user.UserID)
	if err != nil {
		respondError(ctx, err)
		return nil, false
	}
	return w, true
}

func linkParam(ctx *gin.Context) (int, bool) {
	id, ok := util.ParsePositiveInt(ctx.Param("linkId"))
	if !ok {
		util.BadRequest(ctx, "invalid linkId")
	}
	return id, ok
}

// @Summary 打开答题工作区
// @Description Resolves perspective and subject for the caller and loads the question set
// @Tags 答题工作区
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.OpenWorkspaceRequest true "会话与可选视角"
// @Success 201 {object} util.Response{data=service.WorkspaceView}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/workspaces [post]
func (c *WorkspaceController) Open(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	var req service.OpenWorkspaceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	w, err := c.Service.Open(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, w.Snapshot())
}

// @Summary 获取工作区
// @Tags 答题工作区
// @Produce json
// @Security BearerAuth
// @Param id path string true "工作区ID"
// @Success 200 {object} util.Response{data=service.WorkspaceView}
// @Failure 404 {object} util.Response
// @Router /api/workspaces/{id} [get]
func (c *WorkspaceController) Get(ctx *gin.Context) {
	w, ok := c.workspace(ctx)
	if !ok {
		return
	}
	util.Success(ctx, w.Snapshot())
}

// @Summary 切换视角
// @Description Unsaved drafts of the previous perspective are discarded
// @Tags 答题工作区
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "工作区ID"
// @Param body body SelectPerspectiveRequest true "视角"
// @Success 200 {object} util.Response{data=service.WorkspaceView}
// @Failure 400 {object} util.Response
// @Router /api/workspaces/{id}/perspective [put]
func (c *WorkspaceController) SelectPerspective(ctx *gin.Context) {
	w, ok := c.workspace(ctx)
	if !ok {
		return
	}
	var req SelectPerspectiveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := w.SelectPerspective(ctx.Request.Context(), req.Perspective); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, w.Snapshot())
}

// @Summary 切换被评估对象
// @Tags 答题工作区
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "工作区ID"
// @Param body body SelectSubjectRequest true "被评估对象"
// @Success 200 {object} util.Response{data=service.WorkspaceView}
// @Failure 400 {object} util.Response
// @Router /api/workspaces/{id}/subject [put]
func (c *WorkspaceController) SelectSubject(ctx *gin.Context) {
	w, ok := c.workspace(ctx)
	if !ok {
		return
	}
	var req SelectSubjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := w.SelectSubject(ctx.Request.Context(), req.SubjectID); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, w.Snapshot())
}

// @Summary 作答
// @Description Writes the draft answer. trigger=advance moves focus to the next question, trigger=drag debounces the settle event
// @Tags 答题工作区
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "工作区ID"
// @Param linkId path int true "题目链接ID"
// @Param body body SetAnswerRequest true "答案"
// @Success 200 {object} util.Response{data=service.ItemView}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/workspaces/{id}/answers/{linkId} [put]
func (c *WorkspaceController) SetAnswer(ctx *gin.Context) {
	w, ok := c.workspace(ctx)
	if !ok {
		return
	}
	linkID, ok := linkParam(ctx)
	if !ok {
		return
	}
	var req SetAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if req.Position != nil {
		item, err := w.Drag(linkID, *req.Position)
		if err != nil {
			respondError(ctx, err)
			return
		}
		util.Success(ctx, item)
		return
	}

	if len(req.Value) == 0 {
		util.BadRequest(ctx, "value or position is required")
		return
	}
	current, err := w.Item(linkID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	v, err := answer.Decode(current.Question.Kind, req.Value)
	if err != nil {
		respondError(ctx, err)
		return
	}
	trigger := req.Trigger
	if trigger == "" {
		trigger = service.TriggerEdit
	}
	item, err := w.SetAnswer(linkID, v, trigger)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, item)
}

// @Summary 撤销本地修改
// @Tags 答题工作区
// @Produce json
// @Security BearerAuth
// @Param id path string true "工作区ID"
// @Param linkId path int true "题目链接ID"
// @Success 200 {object} util.Response{data=service.ItemView}
// @Router /api/workspaces/{id}/answers/{linkId} [delete]
func (c *WorkspaceController) Revert(ctx *gin.Context) {
	w, ok := c.workspace(ctx)
	if !ok {
		return
	}
	linkID, ok := linkParam(ctx)
	if !ok {
		return
	}
	item, err := w.Revert(linkID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, item)
}

// @Summary 保存答案
// @Description Sends every pending answer; on partial failure the saved subset is committed and the rest stays pending
// @Tags 答题工作区
// @Produce json
// @Security BearerAuth
// @Param id path string true "工作区ID"
// @Success 200 {object} util.Response{data=service.SaveResult}
// @Failure 409 {object} util.Response
// @Router /api/workspaces/{id}/save [post]
func (c *WorkspaceController) Save(ctx *gin.Context) {
	w, ok := c.workspace(ctx)
	if !ok {
		return
	}
	res, err := w.Save(ctx.Request.Context())
	if err != nil && len(res.Saved) == 0 && len(res.Failed) == 0 {
		respondError(ctx, err)
		return
	}
	if err != nil {
		logger.Log.Warn("Save completed partially", zap.String("workspace", w.ID), zap.Error(err))
	}
	util.Success(ctx, res)
}

// @Summary 关闭工作区
// @Tags 答题工作区
// @Produce json
// @Security BearerAuth
// @Param id path string true "工作区ID"
// @Success 200 {object} util.Response
// @Router /api/workspaces/{id} [delete]
func (c *WorkspaceController) Close(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	if err := c.Service.Close(ctx.Param("id"), user.UserID); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"closed": true})
}

// @Summary 工作区事件流
// @Description Websocket carrying FOCUS, SETTLED, STATUS, CONTEXT and SAVED events; accepts DRAG messages
// @Tags 答题工作区
// @Security BearerAuth
// @Param id path string true "工作区ID"
// @Param token query string false "JWT（浏览器无法设置请求头时使用）"
// @Router /api/workspaces/{id}/ws [get]
func (c *WorkspaceController) Events(ctx *gin.Context) {
	w, ok := c.workspace(ctx)
	if !ok {
		return
	}
	service.ServeWs(c.Hub, ctx.Writer, ctx.Request, w.ID, w.OwnerID)
}
