package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/beanhaus/shift-scheduling/internal/config"
	"github.com/beanhaus/shift-scheduling/internal/database"
	"github.com/beanhaus/shift-scheduling/internal/handler"
	"github.com/beanhaus/shift-scheduling/internal/queue"
	"github.com/beanhaus/shift-scheduling/internal/repository"
	"github.com/beanhaus/shift-scheduling/internal/router"
	"github.com/beanhaus/shift-scheduling/internal/schedule"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	templateRepo := repository.NewShiftTemplateRepo(db)
	windowRepo := repository.NewPlanningWindowRepo(db)
	assignmentRepo := repository.NewAssignmentRepo(db)

	computer := schedule.NewComputer(templateRepo, windowRepo, assignmentRepo)
	coordinator := schedule.NewCoordinator(templateRepo, windowRepo, assignmentRepo)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; availability cache and claim rate limit disabled")
	}
	claimRate, claimWin := config.ClaimRateLimit()

	// The activity consumer reconnects forever on its own; a broker
	// outage only pauses the audit log.
	go func() {
		if err := queue.StartActivityConsumer(); err != nil {
			log.Printf("activity consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterScheduling(e, router.Deps{
		Templates: handler.NewTemplateHandler(templateRepo),
		Window:    handler.NewWindowHandler(windowRepo),
		Schedule:  handler.NewScheduleHandler(templateRepo, computer, coordinator),
		JWTSecret: cfg.JWTSecret,
		Redis:     rdb,
		CacheTTL:  config.AvailabilityCacheTTL(),
		ClaimRate: claimRate,
		ClaimWin:  claimWin,
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
