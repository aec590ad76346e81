package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/beanhaus/shift-scheduling/internal/repository"
	"github.com/beanhaus/shift-scheduling/internal/schedule"
)

// WindowHandler exposes the planning window configuration.  Reading
// is open to all staff so clients can render the claimable horizon;
// writing is manager-only.
type WindowHandler struct {
	Window *repository.PlanningWindowRepo
}

// NewWindowHandler constructs a WindowHandler.  The repository must be non-nil.
func NewWindowHandler(window *repository.PlanningWindowRepo) *WindowHandler {
	if window == nil {
		panic("nil repository passed to NewWindowHandler")
	}
	return &WindowHandler{Window: window}
}

// Get handles GET /v1/planning-window.
func (h *WindowHandler) Get(c echo.Context) error {
	w, err := h.Window.Get(c.Request().Context())
	if err != nil {
		return respondError(c, err, "failed to load planning window")
	}
	return c.JSON(http.StatusOK, w)
}

// Set handles PUT /v1/planning-window.  Start date and excluded
// dates are replaced together; a malformed date anywhere in the
// request rejects the whole write.  Assignments already scheduled on
// a newly excluded date are untouched, the date simply stops being
// offered.
func (h *WindowHandler) Set(c echo.Context) error {
	var body struct {
		StartDate     string   `json:"start_date"`
		ExcludedDates []string `json:"excluded_dates"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, err := schedule.ParseDate(strings.TrimSpace(body.StartDate))
	if err != nil {
		return respondError(c, err, "failed to parse start_date")
	}
	excluded := make([]time.Time, 0, len(body.ExcludedDates))
	for _, s := range body.ExcludedDates {
		d, err := schedule.ParseDate(strings.TrimSpace(s))
		if err != nil {
			return respondError(c, err, "failed to parse excluded_dates")
		}
		excluded = append(excluded, d)
	}
	if err := h.Window.Set(c.Request().Context(), start, excluded); err != nil {
		return respondError(c, err, "failed to store planning window")
	}
	w, err := h.Window.Get(c.Request().Context())
	if err != nil {
		return respondError(c, err, "failed to load planning window")
	}
	return c.JSON(http.StatusOK, w)
}
