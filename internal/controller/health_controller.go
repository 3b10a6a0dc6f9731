package controller

import (
	"context"
	"net/http"
	"time"

	"assessment_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// WorkspaceCounter reports open workspaces for the health payload.
type WorkspaceCounter interface {
	Count() int
}

type HealthController struct {
	DB         *gorm.DB
	Redis      *redis.Client
	Workspaces WorkspaceCounter
}

func NewHealthController(db *gorm.DB, rdb *redis.Client, ws WorkspaceCounter) *HealthController {
	return &HealthController{DB: db, Redis: rdb, Workspaces: ws}
}

// @Summary 健康检查
// @Description 检查服务状态
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	// 检查数据库连接
	sqlDB, err := c.DB.DB()
	if err != nil {
		util.InternalServerError(ctx)
		return
	}

	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	components := gin.H{"database": "up", "redis": "disabled"}
	if c.Redis != nil {
		if err := c.Redis.Ping(pingCtx).Err(); err != nil {
			util.Error(ctx, http.StatusServiceUnavailable, "Redis unavailable")
			return
		}
		components["redis"] = "up"
	}

	payload := gin.H{
		"status":     "ok",
		"components": components,
	}
	if c.Workspaces != nil {
		payload["openWorkspaces"] = c.Workspaces.Count()
	}
	util.Success(ctx, payload)
}
