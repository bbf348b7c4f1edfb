package controller

import (
	"net/http"

	"milguard_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthController struct {
	DB        *gorm.DB
	Providers []string
}

// NewHealthController takes a nil db when running on the in-memory store.
func NewHealthController(db *gorm.DB, providers []string) *HealthController {
	return &HealthController{DB: db, Providers: providers}
}

// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} util.ErrorResponse
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	database := "memory"
	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			util.InternalServerError(ctx)
			return
		}
		if err := sqlDB.PingContext(ctx.Request.Context()); err != nil {
			util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		database = "up"
	}

	providers := c.Providers
	if providers == nil {
		providers = []string{}
	}
	util.Success(ctx, gin.H{
		"status": "ok",
		"components": gin.H{
			"database":  database,
			"providers": providers,
		},
	})
}
