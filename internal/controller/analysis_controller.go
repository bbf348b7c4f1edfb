package controller

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"milguard_backend/internal/model"
	"milguard_backend/internal/service"
	"milguard_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalysisController struct {
	AnalysisService *service.AnalysisService
	MaxUploadBytes  int64
}

func NewAnalysisController(analysisService *service.AnalysisService, maxUploadBytes int64) *AnalysisController {
	return &AnalysisController{
		AnalysisService: analysisService,
		MaxUploadBytes:  maxUploadBytes,
	}
}

// swagger:model AnalyzeTextRequest
type AnalyzeTextRequest struct {
	Text string `json:"text"`
}

// AnalyzeText godoc
// @Summary Analyze text for AI generation
// @Tags analysis
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body AnalyzeTextRequest true "Text to analyze"
// @Success 200 {object} service.AnalyzeResponse
// @Failure 400 {object} util.ErrorResponse
// @Failure 401 {object} util.ErrorResponse
// @Failure 502 {object} util.ErrorResponse "no provider returned a verdict"
// @Router /api/analyze/text [post]
func (c *AnalysisController) AnalyzeText(ctx *gin.Context) {
	var req AnalyzeTextRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "invalid request body")
		return
	}

	resp, err := c.AnalysisService.AnalyzeText(ctx.Request.Context(), util.UserIDFromContext(ctx), req.Text)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// AnalyzeImage godoc
// @Summary Analyze an image for AI generation
// @Tags analysis
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image file (field name image or file)"
// @Success 200 {object} service.AnalyzeResponse
// @Failure 400 {object} util.ErrorResponse
// @Failure 401 {object} util.ErrorResponse
// @Failure 502 {object} util.ErrorResponse
// @Router /api/analyze/image [post]
func (c *AnalysisController) AnalyzeImage(ctx *gin.Context) {
	c.analyzeFile(ctx, model.ContentImage, "image")
}

// AnalyzeAudio godoc
// @Summary Analyze an audio recording for AI generation
// @Tags analysis
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param audio formData file true "Audio file (field name audio or file)"
// @Success 200 {object} service.AnalyzeResponse
// @Failure 400 {object} util.ErrorResponse
// @Failure 401 {object} util.ErrorResponse
// @Failure 502 {object} util.ErrorResponse
// @Router /api/analyze/audio [post]
func (c *AnalysisController) AnalyzeAudio(ctx *gin.Context) {
	c.analyzeFile(ctx, model.ContentAudio, "audio")
}

func (c *AnalysisController) analyzeFile(ctx *gin.Context, contentType model.ContentType, field string) {
	upload, err := c.readUpload(ctx, field, "file")
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	resp, err := c.AnalysisService.AnalyzeFile(ctx.Request.Context(), util.UserIDFromContext(ctx), contentType, upload)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// readUpload buffers the first present form file. A missing file yields a
// nil upload, which the service rejects.
func (c *AnalysisController) readUpload(ctx *gin.Context, fields ...string) (*service.Upload, error) {
	var header *multipart.FileHeader
	for _, f := range fields {
		h, err := ctx.FormFile(f)
		if err == nil {
			header = h
			break
		}
		if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
			return nil, util.NewValidationError("file", "unreadable multipart body")
		}
	}
	if header == nil {
		return nil, nil
	}
	if header.Size > c.MaxUploadBytes {
		return nil, util.NewValidationError("file", "exceeds the %d MB limit", c.MaxUploadBytes>>20)
	}

	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, c.MaxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	return &service.Upload{FileName: header.Filename, Size: header.Size, Data: data}, nil
}

// ListAnalyses godoc
// @Summary List the caller's analyses, newest first
// @Tags analysis
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum rows (default 10, max 100)"
// @Success 200 {array} service.AnalysisView
// @Failure 401 {object} util.ErrorResponse
// @Router /api/analyses [get]
func (c *AnalysisController) ListAnalyses(ctx *gin.Context) {
	limit := util.ParseLimit(ctx.Query("limit"), util.DefaultHistoryLimit, util.MaxHistoryLimit)
	views, err := c.AnalysisService.ListHistory(ctx.Request.Context(), util.UserIDFromContext(ctx), limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, views)
}

// GetAnalysis godoc
// @Summary Get one of the caller's analyses
// @Tags analysis
// @Produce json
// @Security BearerAuth
// @Param id path string true "Analysis ID"
// @Success 200 {object} service.AnalysisView
// @Failure 404 {object} util.ErrorResponse
// @Router /api/analyses/{id} [get]
func (c *AnalysisController) GetAnalysis(ctx *gin.Context) {
	view, err := c.AnalysisService.GetAnalysis(ctx.Request.Context(), util.UserIDFromContext(ctx), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}
