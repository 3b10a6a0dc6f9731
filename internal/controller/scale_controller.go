package controller

import (
	"strconv"
	"strings"

	"assessment_backend/internal/engine/ticks"
	"assessment_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// DesiredTicks supplies the configured default tick count.
type DesiredTicks func() int

type ScaleController struct {
	Desired DesiredTicks
}

func NewScaleController(desired DesiredTicks) *ScaleController {
	return &ScaleController{Desired: desired}
}

type TicksQuery struct {
	Min    *int   `form:"min" binding:"required"`
	Max    *int   `form:"max" binding:"required"`
	Count  int    `form:"count" binding:"omitempty,min=2,max=50"`
	Values string `form:"values"`
}

type TicksResponse struct {
	Min   int   `json:"min"`
	Max   int   `json:"max"`
	Ticks []int `json:"ticks"`
}

// @Summary 计算刻度标签
// @Description Plans the labelled ticks of a scale slider
// @Tags 量表
// @Produce json
// @Param min query int true "最小值"
// @Param max query int true "最大值"
// @Param count query int false "期望刻度数"
// @Param values query string false "逗号分隔的显式取值"
// @Success 200 {object} util.Response{data=TicksResponse}
// @Failure 400 {object} util.Response
// @Router /api/scales/ticks [get]
func (c *ScaleController) Ticks(ctx *gin.Context) {
	var q TicksQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	var values []int
	if q.Values != "" {
		for _, part := range strings.Split(q.Values, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				util.BadRequest(ctx, "values must be a comma separated list of integers")
				return
			}
			values = append(values, n)
		}
	}

	desired := q.Count
	if desired == 0 && c.Desired != nil {
		desired = c.Desired()
	}
	if desired == 0 {
		desired = ticks.DefaultDesiredCount
	}

	util.Success(ctx, TicksResponse{
		Min:   *q.Min,
		Max:   *q.Max,
		Ticks: ticks.PlanTicks(*q.Min, *q.Max, values, desired),
	})
}
