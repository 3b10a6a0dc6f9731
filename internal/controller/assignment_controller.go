package controller

import (
	"assessment_backend/internal/service"
	"assessment_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AssignmentController struct {
	Service *service.AssignmentService
}

func NewAssignmentController(svc *service.AssignmentService) *AssignmentController {
	return &AssignmentController{Service: svc}
}

// @Summary 分配评估视角
// @Description Grants a respondent a perspective in a session; open workspaces of that respondent pick it up immediately
// @Tags 评估分配
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "会话ID"
// @Param body body service.AssignRequest true "分配信息"
// @Success 201 {object} util.Response{data=model.SessionAssignment}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/facilitator/sessions/{id}/assignments [post]
func (c *AssignmentController) Assign(ctx *gin.Context) {
	sessionID, ok := util.ParsePositiveInt(ctx.Param("id"))
	if !ok {
		util.BadRequest(ctx, "invalid session id")
		return
	}
	var req service.AssignRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	a, err := c.Service.Assign(ctx.Request.Context(), uint(sessionID), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, a)
}

// @Summary 我的评估分配
// @Tags 评估分配
// @Produce json
// @Security BearerAuth
// @Param id path int true "会话ID"
// @Success 200 {object} util.Response{data=service.AssignmentView}
// @Router /api/sessions/{id}/assignment [get]
func (c *AssignmentController) Mine(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	sessionID, ok := util.ParsePositiveInt(ctx.Param("id"))
	if !ok {
		util.BadRequest(ctx, "invalid session id")
		return
	}
	view, err := c.Service.View(ctx.Request.Context(), sessionID, int(user.UserID))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}
