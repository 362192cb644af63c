package main

import (
	"fmt"
	"log"

	"docrisk/internal/config"
	"docrisk/internal/handler"
	"docrisk/internal/repository/postgres"
	"docrisk/internal/router"
	"docrisk/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	assessmentRepo := postgres.NewAssessmentRepo(db)
	questionRepo := postgres.NewQuestionRepo(db)

	// Initialize services
	assessmentSvc := service.NewAssessmentService(assessmentRepo, questionRepo)

	// Initialize handlers
	assessmentH := handler.NewAssessmentHandler(assessmentSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(assessmentH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
