package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"schoolattend/internal/account"
	"schoolattend/internal/attendance"
)

type dashboardSummary struct {
	TotalStudents int `json:"total_students"`
	PresentToday  int `json:"present_today"`
	AbsentToday   int `json:"absent_today"`
}

func dashboardKey(date string) string { return "dashboard:" + date }

// Dashboard returns today's headline numbers, served from the redis cache
// when warm.
func (h *Handler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	today := time.Now().Format(attendance.DateLayout)

	var summary dashboardSummary
	if h.opts.Cache.GetJSON(ctx, dashboardKey(today), &summary) {
		c.JSON(http.StatusOK, summary)
		return
	}

	total, err := h.accounts.CountStudents(ctx)
	if err != nil {
		serverError(c, "dashboard count", err)
		return
	}
	totals, err := h.att.DailyTotals(ctx, today)
	if err != nil {
		serverError(c, "dashboard totals", err)
		return
	}
	summary = dashboardSummary{TotalStudents: total, PresentToday: totals.Present, AbsentToday: totals.Absent}
	h.opts.Cache.SetJSON(ctx, dashboardKey(today), summary, h.opts.CacheTTL)
	c.JSON(http.StatusOK, summary)
}

// CreateStudent provisions a user + student pair. Duplicate email or a taken
// (class, roll) slot roll the whole transaction back and return 400.
func (h *Handler) CreateStudent(c *gin.Context) {
	var req account.CreateStudentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	code, err := h.accounts.CreateStudent(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, account.ErrEmailTaken) || errors.Is(err, account.ErrRollTaken) {
			badRequest(c, err)
			return
		}
		serverError(c, "create student", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "student created", "studentIdCode": code})
}

// ListStudents returns the roster, optionally one class.
func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.accounts.ListStudents(c.Request.Context(), c.Query("class_name"))
	if err != nil {
		serverError(c, "list students", err)
		return
	}
	if students == nil {
		students = []account.Student{}
	}
	c.JSON(http.StatusOK, students)
}

// Sheet returns the editable per-student status list for a date.
func (h *Handler) Sheet(c *gin.Context) {
	rows, err := h.att.Sheet(c.Request.Context(), c.Query("date"), c.Query("class_name"))
	if err != nil {
		if isValidation(err) {
			badRequest(c, err)
			return
		}
		serverError(c, "attendance sheet", err)
		return
	}
	if rows == nil {
		rows = []attendance.SheetRow{}
	}
	c.JSON(http.StatusOK, rows)
}

type bulkRequest struct {
	Date    string             `json:"date" binding:"required"`
	Records []attendance.Entry `json:"records" binding:"required"`
}

// BulkSave applies a batch of statuses for one date. The batch is atomic:
// one bad record rolls back every other entry in the same call.
func (h *Handler) BulkSave(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.att.BulkUpsert(c.Request.Context(), req.Date, req.Records); err != nil {
		if isValidation(err) {
			badRequest(c, err)
			return
		}
		serverError(c, "bulk attendance save", err)
		return
	}
	entriesRecorded.Add(float64(len(req.Records)))
	h.opts.Cache.Delete(c.Request.Context(), dashboardKey(req.Date))
	c.JSON(http.StatusOK, gin.H{"message": "attendance saved"})
}

// LowAttendance lists students below the configured threshold.
func (h *Handler) LowAttendance(c *gin.Context) {
	rows, err := h.att.LowAttendance(c.Request.Context(), h.opts.LowAttendancePct)
	if err != nil {
		serverError(c, "low attendance", err)
		return
	}
	if rows == nil {
		rows = []attendance.Tally{}
	}
	c.JSON(http.StatusOK, rows)
}

// MonthlyReport returns per-student tallies for one calendar month.
func (h *Handler) MonthlyReport(c *gin.Context) {
	month, merr := strconv.Atoi(c.Query("month"))
	year, yerr := strconv.Atoi(c.Query("year"))
	if merr != nil || yerr != nil {
		badRequest(c, attendance.ErrBadMonth)
		return
	}
	rows, err := h.att.MonthlyReport(c.Request.Context(), month, year, c.Query("class_name"))
	if err != nil {
		if isValidation(err) {
			badRequest(c, err)
			return
		}
		serverError(c, "monthly report", err)
		return
	}
	if rows == nil {
		rows = []attendance.Tally{}
	}
	c.JSON(http.StatusOK, rows)
}
