package controller

import (
	"errors"
	"strconv"

	"campus_engage_backend/internal/repository"
	"campus_engage_backend/internal/service"
	"campus_engage_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LeaderboardController struct {
	LeaderboardService *service.LeaderboardService
}

func NewLeaderboardController(leaderboardService *service.LeaderboardService) *LeaderboardController {
	return &LeaderboardController{LeaderboardService: leaderboardService}
}

// GetLeaderboard godoc
// @Summary 排行榜
// @Description 按金币数排名，同分先到者在前，支持按地标或赞助商过滤
// @Tags 排行榜
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(20)
// @Param   sort query string false "排序字段" Enums(rank, coinCount, latestCollectedAt)
// @Param   search query string false "按用户名或姓名搜索"
// @Param   landmarkId query int false "只统计该地标"
// @Param   sponsorId query int false "只统计该赞助商的地标"
// @Success 200 {object} util.Response{data=service.LeaderboardPage} "Success"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/leaderboard [get]
func (c *LeaderboardController) GetLeaderboard(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "0"))
	landmarkID, _ := strconv.ParseUint(ctx.DefaultQuery("landmarkId", "0"), 10, 32)
	sponsorID, _ := strconv.ParseUint(ctx.DefaultQuery("sponsorId", "0"), 10, 32)

	result, err := c.LeaderboardService.GetLeaderboard(ctx.Request.Context(), service.LeaderboardQuery{
		Scope: repository.LeaderboardScope{
			LandmarkID: uint(landmarkID),
			SponsorID:  uint(sponsorID),
		},
		Page:   page,
		Limit:  limit,
		Sort:   ctx.Query("sort"),
		Search: ctx.Query("search"),
	})
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// GetMyRank godoc
// @Summary 我的名次
// @Description 当前用户的总金币数与全局排名
// @Tags 排行榜
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.UserRank} "Success"
// @Failure 401 {object} util.Response "未授权"
// @Failure 404 {object} util.Response "还没有收集记录"
// @Router /api/leaderboard/me [get]
func (c *LeaderboardController) GetMyRank(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	rank, err := c.LeaderboardService.GetUserRank(claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, rank)
}
