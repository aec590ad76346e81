package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/beanhaus/shift-scheduling/internal/model"
	"github.com/beanhaus/shift-scheduling/internal/repository"
	"github.com/beanhaus/shift-scheduling/internal/schedule"
)

// TemplateHandler exposes shift template management.  Listing is open
// to all authenticated staff; create, update and activation changes
// are registered behind the manager-only route group.
type TemplateHandler struct {
	Templates *repository.ShiftTemplateRepo
}

// NewTemplateHandler constructs a TemplateHandler.  The repository must be non-nil.
func NewTemplateHandler(templates *repository.ShiftTemplateRepo) *TemplateHandler {
	if templates == nil {
		panic("nil repository passed to NewTemplateHandler")
	}
	return &TemplateHandler{Templates: templates}
}

// List handles GET /v1/templates.  Staff see active templates;
// managers may pass ?all=true to include deactivated ones.
func (h *TemplateHandler) List(c echo.Context) error {
	var (
		items []model.ShiftTemplate
		err   error
	)
	if c.QueryParam("all") == "true" && model.Privileged(getRole(c)) {
		items, err = h.Templates.List(c.Request().Context())
	} else {
		items, err = h.Templates.ListActive(c.Request().Context())
	}
	if err != nil {
		return respondError(c, err, "failed to load templates")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// templateBody is the JSON shape shared by create and update.  All
// fields are pointers on update so absent keys keep current values.
type templateBody struct {
	Name           *string  `json:"name"`
	StartTime      *string  `json:"start_time"`
	EndTime        *string  `json:"end_time"`
	MinStaff       *int     `json:"min_staff"`
	MaxStaff       *int     `json:"max_staff"`
	BreakMinutes   *int     `json:"break_minutes"`
	AvailableDays  []string `json:"available_days"`
	EffectiveStart *string  `json:"effective_start"`
	EffectiveEnd   *string  `json:"effective_end"`
}

// Create handles POST /v1/templates.  Validation failures come back
// as 400 with the violated rule; the created template is returned
// with its generated ID.
func (h *TemplateHandler) Create(c echo.Context) error {
	var body templateBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	t := model.ShiftTemplate{Active: true}
	if body.Name != nil {
		t.Name = strings.TrimSpace(*body.Name)
	}
	if body.StartTime != nil {
		t.StartTime = strings.TrimSpace(*body.StartTime)
	}
	if body.EndTime != nil {
		t.EndTime = strings.TrimSpace(*body.EndTime)
	}
	if body.MinStaff != nil {
		t.MinStaff = *body.MinStaff
	}
	if body.MaxStaff != nil {
		t.MaxStaff = *body.MaxStaff
	}
	if body.BreakMinutes != nil {
		t.BreakMinutes = *body.BreakMinutes
	}
	days, err := schedule.ParseWeekdays(body.AvailableDays)
	if err != nil {
		return respondError(c, err, "failed to parse available_days")
	}
	t.AvailableDays = days
	if err := applyEffectiveDates(&t, body.EffectiveStart, body.EffectiveEnd); err != nil {
		return respondError(c, err, "failed to parse effective dates")
	}
	if err := h.Templates.Create(c.Request().Context(), &t); err != nil {
		return respondError(c, err, "could not create template")
	}
	return c.JSON(http.StatusCreated, t)
}

// Update handles PATCH /v1/templates/:id.  The current row is loaded
// first, the patch applied on top, and the merged template run
// through the same validation as Create.
func (h *TemplateHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid template id"})
	}
	cur, err := h.Templates.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "failed to load template")
	}
	var body templateBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Name != nil {
		cur.Name = strings.TrimSpace(*body.Name)
	}
	if body.StartTime != nil {
		cur.StartTime = strings.TrimSpace(*body.StartTime)
	}
	if body.EndTime != nil {
		cur.EndTime = strings.TrimSpace(*body.EndTime)
	}
	if body.MinStaff != nil {
		cur.MinStaff = *body.MinStaff
	}
	if body.MaxStaff != nil {
		cur.MaxStaff = *body.MaxStaff
	}
	if body.BreakMinutes != nil {
		cur.BreakMinutes = *body.BreakMinutes
	}
	if body.AvailableDays != nil {
		days, err := schedule.ParseWeekdays(body.AvailableDays)
		if err != nil {
			return respondError(c, err, "failed to parse available_days")
		}
		cur.AvailableDays = days
	}
	if err := applyEffectiveDates(cur, body.EffectiveStart, body.EffectiveEnd); err != nil {
		return respondError(c, err, "failed to parse effective dates")
	}
	if err := h.Templates.Update(c.Request().Context(), cur); err != nil {
		return respondError(c, err, "update failed")
	}
	return c.JSON(http.StatusOK, cur)
}

// SetActive handles PATCH /v1/templates/:id/active.  Deactivating is
// the closest thing to deletion the scheduler offers: the template
// stops instantiating but its assignment history stays intact.
func (h *TemplateHandler) SetActive(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid template id"})
	}
	var body struct {
		Active *bool   `json:"active"`
		Reason *string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Active == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "active is required"})
	}
	t, err := h.Templates.SetActive(c.Request().Context(), id, *body.Active, body.Reason)
	if err != nil {
		return respondError(c, err, "failed to update template")
	}
	return c.JSON(http.StatusOK, t)
}

// applyEffectiveDates parses the optional effective range strings
// onto the template.  An explicit empty string clears the bound.
func applyEffectiveDates(t *model.ShiftTemplate, start, end *string) error {
	if start != nil {
		if strings.TrimSpace(*start) == "" {
			t.EffectiveStart = nil
		} else {
			d, err := schedule.ParseDate(strings.TrimSpace(*start))
			if err != nil {
				return err
			}
			t.EffectiveStart = &d
		}
	}
	if end != nil {
		if strings.TrimSpace(*end) == "" {
			t.EffectiveEnd = nil
		} else {
			d, err := schedule.ParseDate(strings.TrimSpace(*end))
			if err != nil {
				return err
			}
			t.EffectiveEnd = &d
		}
	}
	return nil
}
