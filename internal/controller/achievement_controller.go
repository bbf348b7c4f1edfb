package controller

import (
	"milguard_backend/internal/service"
	"milguard_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AchievementController struct {
	AchievementService *service.AchievementService
}

func NewAchievementController(achievementService *service.AchievementService) *AchievementController {
	return &AchievementController{AchievementService: achievementService}
}

// GetAchievements godoc
// @Summary List the caller's achievements
// @Tags achievements
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Achievement
// @Failure 401 {object} util.ErrorResponse
// @Router /api/achievements [get]
func (c *AchievementController) GetAchievements(ctx *gin.Context) {
	userID := util.UserIDFromContext(ctx)
	if userID == "" {
		util.Unauthorized(ctx)
		return
	}
	achievements, err := c.AchievementService.ListForUser(ctx.Request.Context(), userID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, achievements)
}
