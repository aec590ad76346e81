package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/beanhaus/shift-scheduling/internal/model"
	"github.com/beanhaus/shift-scheduling/internal/queue"
	"github.com/beanhaus/shift-scheduling/internal/schedule"
	queue_publisher "github.com/beanhaus/shift-scheduling/internal/service"
)

// ScheduleHandler drives the staff-facing scheduling flow: browsing
// open shifts, claiming one, reviewing one's own schedule, releasing
// a claim and recording outcomes.  All ledger mutations go through
// the coordinator so the handler never touches staffing invariants
// itself.
type ScheduleHandler struct {
	Templates   schedule.TemplateSource
	Computer    *schedule.Computer
	Coordinator *schedule.Coordinator
}

// NewScheduleHandler constructs a ScheduleHandler.  All dependencies must be non-nil.
func NewScheduleHandler(templates schedule.TemplateSource, computer *schedule.Computer, coordinator *schedule.Coordinator) *ScheduleHandler {
	if templates == nil || computer == nil || coordinator == nil {
		panic("nil dependency passed to NewScheduleHandler")
	}
	return &ScheduleHandler{Templates: templates, Computer: computer, Coordinator: coordinator}
}

// Available handles GET /v1/shifts/available.  Instances come back
// ordered by date then shift name, so clients can render directly.
func (h *ScheduleHandler) Available(c echo.Context) error {
	items, err := h.Computer.Available(c.Request().Context())
	if err != nil {
		return respondError(c, err, "failed to compute availability")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// MySchedule handles GET /v1/my-schedule.  It returns all of the
// caller's assignments grouped by date, past and future alike.
func (h *ScheduleHandler) MySchedule(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	days, err := h.Computer.UserSchedule(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err, "failed to load schedule")
	}
	return c.JSON(http.StatusOK, echo.Map{"days": days})
}

// Claim handles POST /v1/shifts/claim.  The coordinator re-validates
// the instance against live state, so a stale availability view costs
// the caller a 404/409, never a corrupted ledger.  Returns 201 with
// the new assignment, the refreshed instance and any soft warnings.
func (h *ScheduleHandler) Claim(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		ShiftTemplateID uint64 `json:"shift_template_id"`
		Date            string `json:"date"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ShiftTemplateID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "shift_template_id is required"})
	}
	date, err := schedule.ParseDate(strings.TrimSpace(body.Date))
	if err != nil {
		return respondError(c, err, "failed to parse date")
	}
	res, err := h.Coordinator.Claim(c.Request().Context(), userID, body.ShiftTemplateID, date)
	if err != nil {
		return respondError(c, err, "claim failed")
	}
	h.publishActivity(c, "claimed", res.Assignment, res.Instance.TemplateName,
		res.Instance.StartTime, res.Instance.EndTime, res.Instance.CurrentStaff)
	return c.JSON(http.StatusCreated, res)
}

// Release handles DELETE /v1/schedules/:id.  Staff release their own
// shifts; managers may release anyone's.  The row flips to cancelled
// and the freed slot shows up in availability immediately.
func (h *ScheduleHandler) Release(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	a, err := h.Coordinator.Release(c.Request().Context(), id, userID, getRole(c))
	if err != nil {
		return respondError(c, err, "release failed")
	}
	h.publishAssignmentActivity(c, "released", a)
	return c.JSON(http.StatusOK, a)
}

// MarkOutcome handles PATCH /v1/schedules/:id/outcome.  Manager-only
// via routing; the coordinator re-checks the role anyway.
func (h *ScheduleHandler) MarkOutcome(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	var body struct {
		Outcome string `json:"outcome"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	outcome := model.AssignmentStatus(strings.ToLower(strings.TrimSpace(body.Outcome)))
	a, err := h.Coordinator.MarkOutcome(c.Request().Context(), id, outcome, getRole(c))
	if err != nil {
		return respondError(c, err, "failed to record outcome")
	}
	h.publishAssignmentActivity(c, string(outcome), a)
	return c.JSON(http.StatusOK, a)
}

// publishAssignmentActivity resolves the assignment's template before
// publishing, since release and outcome paths do not carry instance
// detail the way a claim result does.
func (h *ScheduleHandler) publishAssignmentActivity(c echo.Context, action string, a *model.ScheduleAssignment) {
	tpl, err := h.Templates.GetByID(c.Request().Context(), a.ShiftTemplateID)
	if err != nil {
		return // event is best effort; the ledger write already landed
	}
	h.publishActivity(c, action, a, tpl.Name, tpl.StartTime, tpl.EndTime, 0)
}

func (h *ScheduleHandler) publishActivity(c echo.Context, action string, a *model.ScheduleAssignment, name, start, end string, staffed int) {
	_ = queue_publisher.PublishScheduleActivity(c.Request().Context(), queue.ScheduleActivityEvent{
		Action:       action,
		AssignmentID: a.ID,
		UserID:       a.UserID,
		TemplateID:   a.ShiftTemplateID,
		TemplateName: name,
		ScheduleDate: schedule.FormatDate(a.ScheduleDate),
		StartTime:    start,
		EndTime:      end,
		StaffedAfter: staffed,
		OccurredAt:   time.Now().UTC().Format(time.RFC3339),
	})
}
