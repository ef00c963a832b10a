package controller

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"

	"campus_engage_backend/internal/model"
	"campus_engage_backend/internal/service"
	"campus_engage_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LandmarkController struct {
	LandmarkService *service.LandmarkService
	StorageService  *service.StorageService
}

func NewLandmarkController(landmarkService *service.LandmarkService, storageService *service.StorageService) *LandmarkController {
	return &LandmarkController{
		LandmarkService: landmarkService,
		StorageService:  storageService,
	}
}

// swagger:model LandmarkRequest
type LandmarkRequest struct {
	NameEN     string  `json:"nameEn" binding:"required"`
	NameTH     string  `json:"nameTh"`
	Hint       string  `json:"hint"`
	Latitude   float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude  float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
	Radius     float64 `json:"radius"`
	CooldownMs int64   `json:"cooldownMs"`
	OneTime    *bool   `json:"oneTime"`
	CoinValue  int     `json:"coinValue"`
	MapX       float64 `json:"mapX"`
	MapY       float64 `json:"mapY"`
	Active     *bool   `json:"active"`
	SponsorID  *uint   `json:"sponsorId"`
	EvoucherID *uint   `json:"evoucherId"`
}

func (r *LandmarkRequest) toModel() *model.Landmark {
	landmark := &model.Landmark{
		NameEN:     r.NameEN,
		NameTH:     r.NameTH,
		Hint:       r.Hint,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		Radius:     r.Radius,
		CooldownMs: r.CooldownMs,
		OneTime:    true,
		CoinValue:  r.CoinValue,
		MapX:       r.MapX,
		MapY:       r.MapY,
		Active:     true,
		SponsorID:  r.SponsorID,
		EvoucherID: r.EvoucherID,
	}
	if r.OneTime != nil {
		landmark.OneTime = *r.OneTime
	}
	if r.Active != nil {
		landmark.Active = *r.Active
	}
	return landmark
}

// Create godoc
// @Summary 创建地标
// @Tags 地标管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body LandmarkRequest true "地标信息"
// @Success 201 {object} util.Response{data=model.Landmark} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "关联的赞助商或电子券不存在"
// @Router /api/admin/landmarks [post]
func (c *LandmarkController) Create(ctx *gin.Context) {
	var req LandmarkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	landmark := req.toModel()
	if err := c.LandmarkService.Create(landmark); err != nil {
		if errors.Is(err, util.ErrSponsorNotFound) || errors.Is(err, util.ErrEvoucherNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, landmark)
}

// List godoc
// @Summary 地标列表（管理端）
// @Tags 地标管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(20)
// @Param   sponsorId query int false "按赞助商过滤"
// @Param   search query string false "按名称搜索"
// @Success 200 {object} util.Response{data=util.PageResponse} "Success"
// @Router /api/admin/landmarks [get]
func (c *LandmarkController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	sponsorID, _ := strconv.ParseUint(ctx.DefaultQuery("sponsorId", "0"), 10, 32)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	landmarks, total, err := c.LandmarkService.List(page, limit, uint(sponsorID), ctx.Query("search"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{List: landmarks, Total: total, Page: page, Limit: limit})
}

// Get godoc
// @Summary 地标详情
// @Tags 地标管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "地标ID"
// @Success 200 {object} util.Response{data=model.Landmark} "Success"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/admin/landmarks/{id} [get]
func (c *LandmarkController) Get(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	landmark, err := c.LandmarkService.GetByID(id)
	if err != nil {
		if errors.Is(err, util.ErrLandmarkNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, landmark)
}

// Update godoc
// @Summary 更新地标
// @Tags 地标管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "地标ID"
// @Param   body body LandmarkRequest true "地标信息"
// @Success 200 {object} util.Response{data=model.Landmark} "Success"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/admin/landmarks/{id} [put]
func (c *LandmarkController) Update(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	var req LandmarkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	landmark, err := c.LandmarkService.Update(id, req.toModel())
	if err != nil {
		switch {
		case errors.Is(err, util.ErrLandmarkNotFound),
			errors.Is(err, util.ErrSponsorNotFound),
			errors.Is(err, util.ErrEvoucherNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, landmark)
}

// Delete godoc
// @Summary 删除地标
// @Tags 地标管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "地标ID"
// @Success 200 {object} util.Response "Success"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/admin/landmarks/{id} [delete]
func (c *LandmarkController) Delete(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if err := c.LandmarkService.Delete(id); err != nil {
		if errors.Is(err, util.ErrLandmarkNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// UploadImage godoc
// @Summary 上传地标图片
// @Tags 地标管理
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "地标ID"
// @Param   image formData file true "图片文件"
// @Success 200 {object} util.Response{data=object} "上传成功"
// @Failure 400 {object} util.Response "文件类型不支持"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/admin/landmarks/{id}/image [post]
func (c *LandmarkController) UploadImage(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	landmark, err := c.LandmarkService.GetByID(id)
	if err != nil {
		if errors.Is(err, util.ErrLandmarkNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	url, err := saveUploadedImage(ctx, c.StorageService, "landmarks")
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	landmark.ImageURL = url
	if _, err := c.LandmarkService.Update(id, landmark); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"imageUrl": url})
}

// saveUploadedImage 校验扩展名与真实 MIME 后写入存储，返回访问 URL
func saveUploadedImage(ctx *gin.Context, storage *service.StorageService, dir string) (string, error) {
	fileHeader, err := ctx.FormFile("image")
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	allowed := false
	for _, e := range util.AllowedImageExtensions {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", errors.New("unsupported image extension: " + ext)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	mimeType, err := util.ValidateMimeType(file, []string{util.MimeImage})
	if err != nil {
		return "", err
	}
	if _, err := file.Seek(0, 0); err != nil {
		return "", err
	}

	filename := dir + "/" + uuid.New().String() + ext
	return storage.Upload(ctx.Request.Context(), filename, file, fileHeader.Size, mimeType)
}
