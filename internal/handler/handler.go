package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"schoolattend/internal/account"
	"schoolattend/internal/attendance"
	"schoolattend/internal/store"
)

var entriesRecorded = promauto.NewCounter(prometheus.CounterOpts{
	Name: "attendance_entries_recorded_total",
	Help: "Attendance entries written by bulk saves.",
})

// Options carries the non-service wiring a Handler needs.
type Options struct {
	JWTIssuer        string
	JWTSigningKey    string
	TokenTTL         time.Duration
	LowAttendancePct float64
	Cache            *store.Redis // nil disables the dashboard cache
	CacheTTL         time.Duration
}

// Handler owns the HTTP surface over the account and attendance services.
type Handler struct {
	accounts *account.Service
	att      *attendance.Service
	opts     Options
}

// New creates a handler.
func New(accounts *account.Service, att *attendance.Service, opts Options) *Handler {
	if opts.LowAttendancePct <= 0 {
		opts.LowAttendancePct = 75
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	return &Handler{accounts: accounts, att: att, opts: opts}
}

// badRequest reports a field-level validation or conflict error.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// serverError logs the cause and returns an opaque 500; internals never leak
// to the caller.
func serverError(c *gin.Context, op string, err error) {
	log.Printf("%s failed: %v", op, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// isValidation reports whether an aggregator error should surface as a 400.
func isValidation(err error) bool {
	return errors.Is(err, attendance.ErrDateRequired) ||
		errors.Is(err, attendance.ErrBadMonth) ||
		errors.Is(err, attendance.ErrEmptyBatch) ||
		errors.Is(err, attendance.ErrBadEntry)
}
