package controller

import (
	"errors"
	"net/http"

	"campus_engage_backend/internal/service"
	"campus_engage_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CheckinController struct {
	CheckinService  *service.CheckinService
	LandmarkService *service.LandmarkService
}

func NewCheckinController(checkinService *service.CheckinService, landmarkService *service.LandmarkService) *CheckinController {
	return &CheckinController{
		CheckinService:  checkinService,
		LandmarkService: landmarkService,
	}
}

// Collect godoc
// @Summary 地标打卡
// @Description 在地标范围内打卡并领取奖励，重复打卡受冷却与一次性规则约束
// @Tags 寻币
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CollectRequest true "打卡位置"
// @Success 200 {object} util.Response{data=service.CollectResult} "打卡成功"
// @Failure 400 {object} util.Response{data=service.CollectResult} "不在范围内 / 已收集 / 坐标非法"
// @Failure 401 {object} util.Response "未授权"
// @Failure 404 {object} util.Response "地标不存在"
// @Failure 429 {object} util.Response{data=service.CollectResult} "冷却中"
// @Failure 503 {object} util.Response "存储暂不可用"
// @Router /api/coin-hunting/collect [post]
func (c *CheckinController) Collect(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CollectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.CheckinService.Collect(ctx.Request.Context(), claims.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrLandmarkNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrCollectionLimit):
			util.Error(ctx, http.StatusBadRequest, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	switch result.Status {
	case service.StatusSuccessReward, service.StatusSuccessVisit:
		util.Success(ctx, result)
	case service.StatusCooldown:
		util.ErrorWithData(ctx, http.StatusTooManyRequests, "landmark is on cooldown", result)
	case service.StatusServiceUnavailable:
		util.ErrorWithData(ctx, http.StatusServiceUnavailable, "collection temporarily unavailable, please retry", result)
	default:
		// too_far / already_collected / invalid_coordinates
		util.ErrorWithData(ctx, http.StatusBadRequest, string(result.Status), result)
	}
}

// ListLandmarks godoc
// @Summary 地标列表
// @Description 学生端地图展示的所有启用地标
// @Tags 寻币
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Landmark} "Success"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/coin-hunting/landmarks [get]
func (c *CheckinController) ListLandmarks(ctx *gin.Context) {
	landmarks, err := c.LandmarkService.ListActive()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, landmarks)
}
