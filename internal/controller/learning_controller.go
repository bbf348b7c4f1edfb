package controller

import (
	"milguard_backend/internal/service"
	"milguard_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LearningController struct {
	LearningService *service.LearningService
}

func NewLearningController(learningService *service.LearningService) *LearningController {
	return &LearningController{LearningService: learningService}
}

// swagger:model ProgressRequest
type ProgressRequest struct {
	ModuleID  string   `json:"moduleId" binding:"required"`
	Progress  *float64 `json:"progress"`
	Completed *bool    `json:"completed"`
}

// swagger:model AdvanceRequest
type AdvanceRequest struct {
	SectionIndex *int `json:"sectionIndex" binding:"required"`
}

// GetModules godoc
// @Summary List active learning modules ordered by order
// @Description Anonymous callers get the plain modules; with a bearer token each module carries the caller's status.
// @Tags learning
// @Produce json
// @Success 200 {array} service.ModuleView
// @Router /api/learning/modules [get]
func (c *LearningController) GetModules(ctx *gin.Context) {
	userID := util.UserIDFromContext(ctx)
	if userID == "" {
		modules, err := c.LearningService.ListModules(ctx.Request.Context())
		if err != nil {
			util.RespondError(ctx, err)
			return
		}
		util.Success(ctx, modules)
		return
	}

	views, err := c.LearningService.ListModulesWithStatus(ctx.Request.Context(), userID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, views)
}

// GetProgress godoc
// @Summary List the caller's module progress rows
// @Tags learning
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.UserProgress
// @Failure 401 {object} util.ErrorResponse
// @Router /api/learning/progress [get]
func (c *LearningController) GetProgress(ctx *gin.Context) {
	rows, err := c.LearningService.GetProgress(ctx.Request.Context(), util.UserIDFromContext(ctx))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, rows)
}

// UpdateProgress godoc
// @Summary Record progress on a module
// @Description progress is a fraction in [0,1]; values up to 100 are read as percentages. progress >= 1 or completed=true completes the module.
// @Tags learning
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ProgressRequest true "Progress update"
// @Success 200 {object} service.ProgressUpdateResult
// @Failure 400 {object} util.ErrorResponse
// @Failure 403 {object} util.ErrorResponse "module is locked"
// @Failure 404 {object} util.ErrorResponse
// @Router /api/learning/progress [post]
func (c *LearningController) UpdateProgress(ctx *gin.Context) {
	var req ProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.LearningService.UpdateProgress(ctx.Request.Context(), util.UserIDFromContext(ctx), service.ProgressUpdate{
		ModuleID:  req.ModuleID,
		Progress:  req.Progress,
		Completed: req.Completed,
	})
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// AdvanceSection godoc
// @Summary Mark a section of a module as finished
// @Tags learning
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Module ID"
// @Param body body AdvanceRequest true "Finished section index (0-based)"
// @Success 200 {object} service.ProgressUpdateResult
// @Failure 403 {object} util.ErrorResponse
// @Failure 404 {object} util.ErrorResponse
// @Router /api/learning/modules/{id}/advance [post]
func (c *LearningController) AdvanceSection(ctx *gin.Context) {
	var req AdvanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.LearningService.AdvanceSection(ctx.Request.Context(), util.UserIDFromContext(ctx), ctx.Param("id"), *req.SectionIndex)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// GetOverview godoc
// @Summary Overall curriculum completion for the caller
// @Tags learning
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Overview
// @Router /api/learning/overview [get]
func (c *LearningController) GetOverview(ctx *gin.Context) {
	overview, err := c.LearningService.Overview(ctx.Request.Context(), util.UserIDFromContext(ctx))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, overview)
}
