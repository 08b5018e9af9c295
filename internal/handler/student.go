package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolattend/internal/account"
	"schoolattend/internal/attendance"
	"schoolattend/internal/auth"
)

// studentProfile resolves the authenticated caller to their student profile.
func (h *Handler) studentProfile(c *gin.Context) *account.Student {
	claims, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return nil
	}
	student, err := h.accounts.StudentByUserID(c.Request.Context(), claims.Subject)
	if err != nil {
		serverError(c, "resolve student", err)
		return nil
	}
	if student == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "student profile not found"})
		return nil
	}
	return student
}

// StudentDashboard returns the caller's profile and lifetime summary.
func (h *Handler) StudentDashboard(c *gin.Context) {
	student := h.studentProfile(c)
	if student == nil {
		return
	}
	summary, err := h.att.StudentSummary(c.Request.Context(), student.ID)
	if err != nil {
		serverError(c, "student summary", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profile":            student,
		"attendance_summary": summary,
	})
}

// StudentCalendar returns the caller's full dated history.
func (h *Handler) StudentCalendar(c *gin.Context) {
	student := h.studentProfile(c)
	if student == nil {
		return
	}
	entries, err := h.att.Calendar(c.Request.Context(), student.ID)
	if err != nil {
		serverError(c, "student calendar", err)
		return
	}
	if entries == nil {
		entries = []attendance.CalendarEntry{}
	}
	c.JSON(http.StatusOK, entries)
}
