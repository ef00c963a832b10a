package controller

import (
	"strconv"

	"campus_engage_backend/internal/repository"
	"campus_engage_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ClaimController 管理端收集台账审计视图
type ClaimController struct {
	ClaimRepo *repository.ClaimRepository
}

func NewClaimController(claimRepo *repository.ClaimRepository) *ClaimController {
	return &ClaimController{ClaimRepo: claimRepo}
}

// List godoc
// @Summary 收集记录列表
// @Description 管理端审计视图，支持按地标、赞助商、用户过滤
// @Tags 收集记录
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(20)
// @Param   landmarkId query int false "按地标过滤"
// @Param   sponsorId query int false "按赞助商过滤"
// @Param   userId query int false "按用户过滤"
// @Success 200 {object} util.Response{data=util.PageResponse} "Success"
// @Router /api/admin/claims [get]
func (c *ClaimController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	landmarkID, _ := strconv.ParseUint(ctx.DefaultQuery("landmarkId", "0"), 10, 32)
	sponsorID, _ := strconv.ParseUint(ctx.DefaultQuery("sponsorId", "0"), 10, 32)
	userID, _ := strconv.ParseUint(ctx.DefaultQuery("userId", "0"), 10, 32)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	claims, total, err := c.ClaimRepo.FindWithPagination((page-1)*limit, limit, uint(landmarkID), uint(sponsorID), uint(userID))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{List: claims, Total: total, Page: page, Limit: limit})
}
