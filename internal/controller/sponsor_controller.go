package controller

import (
	"errors"
	"strconv"

	"campus_engage_backend/internal/model"
	"campus_engage_backend/internal/service"
	"campus_engage_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SponsorController struct {
	SponsorService *service.SponsorService
	StorageService *service.StorageService
}

func NewSponsorController(sponsorService *service.SponsorService, storageService *service.StorageService) *SponsorController {
	return &SponsorController{
		SponsorService: sponsorService,
		StorageService: storageService,
	}
}

// swagger:model SponsorRequest
type SponsorRequest struct {
	NameEN string `json:"nameEn" binding:"required"`
	NameTH string `json:"nameTh"`
	Detail string `json:"detail"`
	Active *bool  `json:"active"`
}

// Create godoc
// @Summary 创建赞助商
// @Tags 赞助商
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body SponsorRequest true "赞助商信息"
// @Success 201 {object} util.Response{data=model.Sponsor} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/admin/sponsors [post]
func (c *SponsorController) Create(ctx *gin.Context) {
	var req SponsorRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sponsor := &model.Sponsor{
		NameEN: req.NameEN,
		NameTH: req.NameTH,
		Detail: req.Detail,
		Active: true,
	}
	if req.Active != nil {
		sponsor.Active = *req.Active
	}

	if err := c.SponsorService.Create(sponsor); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, sponsor)
}

// List godoc
// @Summary 赞助商列表
// @Tags 赞助商
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(20)
// @Param   search query string false "按名称搜索"
// @Success 200 {object} util.Response{data=util.PageResponse} "Success"
// @Router /api/admin/sponsors [get]
func (c *SponsorController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	sponsors, total, err := c.SponsorService.List(page, limit, ctx.Query("search"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{List: sponsors, Total: total, Page: page, Limit: limit})
}

// Get godoc
// @Summary 赞助商详情
// @Tags 赞助商
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "赞助商ID"
// @Success 200 {object} util.Response{data=model.Sponsor} "Success"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/admin/sponsors/{id} [get]
func (c *SponsorController) Get(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	sponsor, err := c.SponsorService.GetByID(id)
	if err != nil {
		if errors.Is(err, util.ErrSponsorNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, sponsor)
}

// Update godoc
// @Summary 更新赞助商
// @Tags 赞助商
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "赞助商ID"
// @Param   body body SponsorRequest true "赞助商信息"
// @Success 200 {object} util.Response{data=model.Sponsor} "Success"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/admin/sponsors/{id} [put]
func (c *SponsorController) Update(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	var req SponsorRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	updates := &model.Sponsor{
		NameEN: req.NameEN,
		NameTH: req.NameTH,
		Detail: req.Detail,
		Active: true,
	}
	if req.Active != nil {
		updates.Active = *req.Active
	}

	sponsor, err := c.SponsorService.Update(id, updates)
	if err != nil {
		if errors.Is(err, util.ErrSponsorNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, sponsor)
}

// Delete godoc
// @Summary 删除赞助商
// @Tags 赞助商
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "赞助商ID"
// @Success 200 {object} util.Response "Success"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/admin/sponsors/{id} [delete]
func (c *SponsorController) Delete(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if err := c.SponsorService.Delete(id); err != nil {
		if errors.Is(err, util.ErrSponsorNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// UploadLogo godoc
// @Summary 上传赞助商 Logo
// @Tags 赞助商
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "赞助商ID"
// @Param   image formData file true "Logo 图片"
// @Success 200 {object} util.Response{data=object} "上传成功"
// @Failure 400 {object} util.Response "文件类型不支持"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/admin/sponsors/{id}/logo [post]
func (c *SponsorController) UploadLogo(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	sponsor, err := c.SponsorService.GetByID(id)
	if err != nil {
		if errors.Is(err, util.ErrSponsorNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	url, err := saveUploadedImage(ctx, c.StorageService, "sponsors")
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sponsor.LogoURL = url
	if _, err := c.SponsorService.Update(id, sponsor); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"logoUrl": url})
}
