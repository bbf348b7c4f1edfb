// Seeds the default media-literacy curriculum into a relational database.
//
// The server seeds an empty store on startup as well; this script exists for
// databases that are migrated ahead of the first deploy.
//
// Usage: go run scripts/seed_modules.go [-config configs]

package main

import (
	"context"
	"flag"
	"log"
	"time"

	"milguard_backend/internal/config"
	"milguard_backend/internal/repository"
	"milguard_backend/internal/service"
	"milguard_backend/pkg/database"
	"milguard_backend/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	configDir := flag.String("config", "configs", "directory holding config.yaml")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.Driver == database.DriverMemory {
		log.Fatal("Nothing to seed: database.driver is memory")
	}

	logger.InitLogger(cfg)
	defer logger.Sync()

	db, err := database.InitDB(&cfg.Database, false)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store := repository.NewGormStore(db)
	n, err := service.SeedCurriculum(ctx, store.Modules, service.DefaultCurriculum())
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	if n == 0 {
		log.Println("Modules already present, nothing seeded")
		return
	}
	log.Printf("Seeded %d learning modules", n)
}
