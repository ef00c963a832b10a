package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"campus_engage_backend/internal/model"
	"campus_engage_backend/internal/service"
	"campus_engage_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type EvoucherController struct {
	EvoucherService *service.EvoucherService
}

func NewEvoucherController(evoucherService *service.EvoucherService) *EvoucherController {
	return &EvoucherController{EvoucherService: evoucherService}
}

// swagger:model EvoucherRequest
type EvoucherRequest struct {
	SponsorID  uint      `json:"sponsorId" binding:"required"`
	Acronym    string    `json:"acronym" binding:"required,min=2,max=10,alphanum"`
	NameEN     string    `json:"nameEn" binding:"required"`
	NameTH     string    `json:"nameTh"`
	Detail     string    `json:"detail"`
	Expiration time.Time `json:"expiration" binding:"required"`
}

// Create godoc
// @Summary 创建电子券
// @Tags 电子券
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body EvoucherRequest true "电子券信息"
// @Success 201 {object} util.Response{data=model.Evoucher} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "赞助商不存在"
// @Router /api/admin/evouchers [post]
func (c *EvoucherController) Create(ctx *gin.Context) {
	var req EvoucherRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	evoucher := &model.Evoucher{
		SponsorID:  req.SponsorID,
		Acronym:    req.Acronym,
		NameEN:     req.NameEN,
		NameTH:     req.NameTH,
		Detail:     req.Detail,
		Expiration: req.Expiration,
	}

	if err := c.EvoucherService.Create(evoucher); err != nil {
		if errors.Is(err, util.ErrSponsorNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, evoucher)
}

// List godoc
// @Summary 电子券列表
// @Tags 电子券
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(20)
// @Param   sponsorId query int false "按赞助商过滤"
// @Success 200 {object} util.Response{data=util.PageResponse} "Success"
// @Router /api/admin/evouchers [get]
func (c *EvoucherController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	sponsorID, _ := strconv.ParseUint(ctx.DefaultQuery("sponsorId", "0"), 10, 32)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	evouchers, total, err := c.EvoucherService.List(page, limit, uint(sponsorID))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{List: evouchers, Total: total, Page: page, Limit: limit})
}

// Get godoc
// @Summary 电子券详情
// @Tags 电子券
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "电子券ID"
// @Success 200 {object} util.Response{data=model.Evoucher} "Success"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/admin/evouchers/{id} [get]
func (c *EvoucherController) Get(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	evoucher, err := c.EvoucherService.GetByID(id)
	if err != nil {
		if errors.Is(err, util.ErrEvoucherNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, evoucher)
}

// Update godoc
// @Summary 更新电子券
// @Tags 电子券
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "电子券ID"
// @Param   body body EvoucherRequest true "电子券信息"
// @Success 200 {object} util.Response{data=model.Evoucher} "Success"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/admin/evouchers/{id} [put]
func (c *EvoucherController) Update(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	var req EvoucherRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	evoucher, err := c.EvoucherService.Update(id, &model.Evoucher{
		NameEN:     req.NameEN,
		NameTH:     req.NameTH,
		Detail:     req.Detail,
		Expiration: req.Expiration,
	})
	if err != nil {
		if errors.Is(err, util.ErrEvoucherNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, evoucher)
}

// Delete godoc
// @Summary 删除电子券
// @Tags 电子券
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "电子券ID"
// @Success 200 {object} util.Response "Success"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/admin/evouchers/{id} [delete]
func (c *EvoucherController) Delete(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if err := c.EvoucherService.Delete(id); err != nil {
		if errors.Is(err, util.ErrEvoucherNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// swagger:model GenerateCodesRequest
type GenerateCodesRequest struct {
	Count int `json:"count" binding:"required,min=1,max=10000"`
}

// GenerateCodes godoc
// @Summary 批量生成兑换码
// @Description 按前缀加六位流水号生成，过期的券不可再补码
// @Tags 电子券
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "电子券ID"
// @Param   body body GenerateCodesRequest true "生成数量"
// @Success 201 {object} util.Response{data=object} "生成成功"
// @Failure 400 {object} util.Response "电子券已过期"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/admin/evouchers/{id}/codes [post]
func (c *EvoucherController) GenerateCodes(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	var req GenerateCodesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	codes, err := c.EvoucherService.GenerateCodes(id, req.Count)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrEvoucherNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrEvoucherExpired):
			util.Error(ctx, http.StatusBadRequest, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{"count": len(codes), "codes": codes})
}

// ListCodes godoc
// @Summary 兑换码列表
// @Tags 电子券
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "电子券ID"
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse} "Success"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/admin/evouchers/{id}/codes [get]
func (c *EvoucherController) ListCodes(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	codes, total, err := c.EvoucherService.ListCodes(id, page, limit)
	if err != nil {
		if errors.Is(err, util.ErrEvoucherNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, util.PageResponse{List: codes, Total: total, Page: page, Limit: limit})
}

// Remaining godoc
// @Summary 码池余量
// @Tags 电子券
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "电子券ID"
// @Success 200 {object} util.Response{data=object} "Success"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/admin/evouchers/{id}/remaining [get]
func (c *EvoucherController) Remaining(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	remaining, err := c.EvoucherService.Remaining(id)
	if err != nil {
		if errors.Is(err, util.ErrEvoucherNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"remaining": remaining})
}

// MyCodes godoc
// @Summary 我的兑换码
// @Description 当前用户通过打卡领到的所有兑换码
// @Tags 电子券
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.EvoucherCode} "Success"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/evouchers/mine [get]
func (c *EvoucherController) MyCodes(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	codes, err := c.EvoucherService.MyCodes(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, codes)
}

// UseCode godoc
// @Summary 核销兑换码
// @Description 持有人在商家出示并核销，一个码只能核销一次
// @Tags 电子券
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "兑换码ID"
// @Success 200 {object} util.Response{data=model.EvoucherCode} "核销成功"
// @Failure 400 {object} util.Response "已核销 / 已过期"
// @Failure 403 {object} util.Response "不是持有人"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/evouchers/codes/{id}/use [post]
func (c *EvoucherController) UseCode(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id := util.MustParseUint(ctx.Param("id"))
	code, err := c.EvoucherService.UseCode(id, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCodeNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrCodeNotOwned):
			util.Forbidden(ctx)
		case errors.Is(err, util.ErrCodeNotReusable), errors.Is(err, util.ErrCodeAlreadyUsed), errors.Is(err, util.ErrCodeExpired):
			util.Error(ctx, http.StatusBadRequest, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, code)
}
