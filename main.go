// @title MIL Guard API
// @version 1.0
// @description AI-content detection and media-literacy learning backend.

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"

	"milguard_backend/internal/app"
	"milguard_backend/internal/config"
	"milguard_backend/pkg/database"
	"milguard_backend/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	configDir := flag.String("config", "configs", "directory holding config.yaml")
	migrateOnly := flag.Bool("migrate-only", false, "run database migrations and exit")
	flag.Parse()

	// a missing .env is normal outside local development
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.MigrateOnly = *migrateOnly

	if cfg.MigrateOnly {
		logger.InitLogger(cfg)
		defer logger.Sync()
		if cfg.Database.Driver == database.DriverMemory {
			logger.Log.Info("In-memory store has no schema to migrate")
			return
		}
		if _, err := database.InitDB(&cfg.Database, false); err != nil {
			logger.Log.Fatal("Migration failed", zap.Error(err))
		}
		logger.Log.Info("Database migration finished")
		return
	}

	application, err := app.NewApp(cfg, *configDir)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	application.Run()
}
