// Package router defines how HTTP routes are registered for the API.
package router

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/beanhaus/shift-scheduling/internal/handler"
	"github.com/beanhaus/shift-scheduling/internal/middleware"
	"github.com/beanhaus/shift-scheduling/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// Deps bundles everything the authenticated route tree needs.  Redis
// may be nil; the caching and rate limiting middleware then pass
// requests straight through.
type Deps struct {
	Templates *handler.TemplateHandler
	Window    *handler.WindowHandler
	Schedule  *handler.ScheduleHandler

	JWTSecret string
	Redis     *redis.Client
	CacheTTL  time.Duration
	ClaimRate int
	ClaimWin  time.Duration
}

// RegisterScheduling wires the scheduling API under /v1.  Every route
// requires a valid token with a known role; the manager group adds a
// stricter role check on top.
func RegisterScheduling(e *echo.Echo, d Deps) {
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(d.JWTSecret))
	v1.Use(middleware.RequireRole(model.RoleStaff, model.RoleManager))

	// Staff-facing surface.
	v1.GET("/templates", d.Templates.List)
	v1.GET("/planning-window", d.Window.Get)
	v1.GET("/shifts/available", d.Schedule.Available,
		middleware.CacheAvailability(d.Redis, d.CacheTTL))
	v1.GET("/my-schedule", d.Schedule.MySchedule)
	v1.POST("/shifts/claim", d.Schedule.Claim,
		middleware.ClaimRateLimit(d.Redis, d.ClaimRate, d.ClaimWin))
	v1.DELETE("/schedules/:id", d.Schedule.Release)

	// Manager-only configuration and outcome recording.
	mgr := v1.Group("", middleware.RequireRole(model.RoleManager))
	mgr.POST("/templates", d.Templates.Create)
	mgr.PATCH("/templates/:id", d.Templates.Update)
	mgr.PATCH("/templates/:id/active", d.Templates.SetActive)
	mgr.PUT("/planning-window", d.Window.Set)
	mgr.PATCH("/schedules/:id/outcome", d.Schedule.MarkOutcome)
}
