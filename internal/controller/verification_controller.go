package controller

import (
	"milguard_backend/internal/service"
	"milguard_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type VerificationController struct {
	VerificationService *service.VerificationService
}

func NewVerificationController(verificationService *service.VerificationService) *VerificationController {
	return &VerificationController{VerificationService: verificationService}
}

type ReverseImageRequest struct {
	ImageURL string `json:"imageUrl" binding:"required"`
}

type FactCheckRequest struct {
	Query string `json:"query" binding:"required"`
}

type SourceRequest struct {
	URL string `json:"url" binding:"required"`
}

// ReverseImage godoc
// @Summary Reverse image search links
// @Tags verification
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ReverseImageRequest true "Image URL"
// @Success 200 {object} service.ReverseImageResult
// @Router /api/verify/reverse-image [post]
func (c *VerificationController) ReverseImage(ctx *gin.Context) {
	var req ReverseImageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result, err := c.VerificationService.ReverseImageLinks(req.ImageURL)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// FactCheck godoc
// @Summary Search published fact checks for a claim
// @Tags verification
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body FactCheckRequest true "Claim text"
// @Success 200 {object} service.FactCheckResult
// @Failure 503 {object} util.ErrorResponse "fact check service not configured"
// @Router /api/verify/fact-check [post]
func (c *VerificationController) FactCheck(ctx *gin.Context) {
	var req FactCheckRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result, err := c.VerificationService.FactCheck(ctx.Request.Context(), req.Query)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// ScoreSource godoc
// @Summary Credibility heuristic for a source URL
// @Tags verification
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SourceRequest true "Source URL"
// @Success 200 {object} service.SourceScore
// @Router /api/verify/source [post]
func (c *VerificationController) ScoreSource(ctx *gin.Context) {
	var req SourceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result, err := c.VerificationService.ScoreSource(req.URL)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
