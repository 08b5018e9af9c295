package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Validation errors surfaced as 400s by the handlers.
var (
	ErrDateRequired = errors.New("date is required (YYYY-MM-DD)")
	ErrBadMonth     = errors.New("month and year are required (month 1-12)")
	ErrEmptyBatch   = errors.New("records are required")
	ErrBadEntry     = errors.New("invalid attendance record")
)

// Service validates aggregator inputs and formats results. All storage access
// goes through the repository; no business rule lives in a handler.
type Service struct {
	repo *Repository
}

// NewService creates a service backed by a repository.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// DailyTotals returns present/absent counts for one date.
func (s *Service) DailyTotals(ctx context.Context, date string) (DailyTotals, error) {
	d, err := parseRequiredDate(date)
	if err != nil {
		return DailyTotals{}, err
	}
	return s.repo.DailyTotals(ctx, d)
}

// Sheet returns the editable per-student status list for a date, optionally
// restricted to one class.
func (s *Service) Sheet(ctx context.Context, date, class string) ([]SheetRow, error) {
	d, err := parseRequiredDate(date)
	if err != nil {
		return nil, err
	}
	return s.repo.Sheet(ctx, d, class)
}

// BulkUpsert saves a batch of statuses for one date atomically. Every entry
// must carry a known status; the batch is rejected before any write otherwise.
func (s *Service) BulkUpsert(ctx context.Context, date string, entries []Entry) error {
	d, err := parseRequiredDate(date)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return ErrEmptyBatch
	}
	for _, e := range entries {
		if e.StudentID == "" {
			return fmt.Errorf("%w: student_id is required", ErrBadEntry)
		}
		if !e.Status.Valid() {
			return fmt.Errorf("%w: unknown status %q for student %s", ErrBadEntry, e.Status, e.StudentID)
		}
	}
	return s.repo.BulkUpsert(ctx, d, entries)
}

// LowAttendance lists students whose lifetime present ratio is strictly below
// threshold percent. Zero-history students are never flagged.
func (s *Service) LowAttendance(ctx context.Context, threshold float64) ([]Tally, error) {
	if threshold <= 0 {
		threshold = 75
	}
	return s.repo.LowAttendance(ctx, threshold)
}

// MonthlyReport returns per-student tallies for one calendar month.
func (s *Service) MonthlyReport(ctx context.Context, month, year int, class string) ([]Tally, error) {
	if month < 1 || month > 12 || year == 0 {
		return nil, ErrBadMonth
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	return s.repo.MonthlyTallies(ctx, from, to, class)
}

// StudentSummary returns a student's lifetime rollup for the student dashboard.
func (s *Service) StudentSummary(ctx context.Context, studentID string) (Summary, error) {
	total, present, absent, err := s.repo.StudentTotals(ctx, studentID)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		TotalDays:   total,
		PresentDays: present,
		AbsentDays:  absent,
		Percentage:  formatPercent(present, total),
	}, nil
}

// Calendar returns a student's dated history.
func (s *Service) Calendar(ctx context.Context, studentID string) ([]CalendarEntry, error) {
	return s.repo.Calendar(ctx, studentID)
}

func parseRequiredDate(date string) (time.Time, error) {
	if date == "" {
		return time.Time{}, ErrDateRequired
	}
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, ErrDateRequired
	}
	return d, nil
}

// formatPercent renders present/total as a percentage with one decimal place.
// A zero total is defined as "0.0", never NaN or an error.
func formatPercent(present, total int) string {
	if total == 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", float64(present)/float64(total)*100)
}
