package attendance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository persists attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// DailyTotals counts present and absent records for one date. Zero rows yield
// zero counts, not an error.
func (r *Repository) DailyTotals(ctx context.Context, date time.Time) (DailyTotals, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FILTER (WHERE status = 'PRESENT'),
		       COUNT(*) FILTER (WHERE status = 'ABSENT')
		FROM attendance_records
		WHERE date = $1
	`, date)
	var t DailyTotals
	if err := row.Scan(&t.Present, &t.Absent); err != nil {
		return DailyTotals{}, err
	}
	return t, nil
}

// Sheet lists every student (optionally one class), left-joined against the
// date's records so students without an entry show a NULL status.
func (r *Repository) Sheet(ctx context.Context, date time.Time, class string) ([]SheetRow, error) {
	query := `
		SELECT s.id, s.name, s.code, s.class_name, s.roll_no, a.status
		FROM students s
		LEFT JOIN attendance_records a ON a.student_id = s.id AND a.date = $1`
	args := []any{date}
	if class != "" {
		query += ` WHERE s.class_name = $2`
		args = append(args, class)
	}
	query += ` ORDER BY s.class_name, s.roll_no`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []SheetRow
	for rows.Next() {
		var sr SheetRow
		var status sql.NullString
		if err := rows.Scan(&sr.StudentID, &sr.Name, &sr.Code, &sr.Class, &sr.RollNo, &status); err != nil {
			return nil, err
		}
		if status.Valid {
			st := Status(status.String)
			sr.Status = &st
		}
		res = append(res, sr)
	}
	return res, rows.Err()
}

// BulkUpsert applies every entry as an insert-or-overwrite keyed on
// (student_id, date) inside one transaction. Any failure rolls back the whole
// batch; entries omitted by the caller are left untouched.
func (r *Repository) BulkUpsert(ctx context.Context, date time.Time, entries []Entry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO attendance_records (id, student_id, date, status)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (student_id, date) DO UPDATE SET status = EXCLUDED.status
		`, uuid.NewString(), e.StudentID, date, e.Status); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert student %s: %w", e.StudentID, err)
		}
	}
	return tx.Commit()
}

// LowAttendance returns students whose historical present ratio is strictly
// below threshold percent. Students with no records are never included. Total
// days is COUNT(*) over all joined rows, holidays included; present is the
// PRESENT subset.
func (r *Repository) LowAttendance(ctx context.Context, threshold float64) ([]Tally, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.name, s.code, s.class_name, s.roll_no,
		       COUNT(*) AS total_days,
		       COUNT(*) FILTER (WHERE a.status = 'PRESENT') AS present_days
		FROM students s
		JOIN attendance_records a ON a.student_id = s.id
		GROUP BY s.id, s.name, s.code, s.class_name, s.roll_no
		HAVING COUNT(*) FILTER (WHERE a.status = 'PRESENT') * 100.0 / COUNT(*) < $1
		ORDER BY s.class_name, s.roll_no
	`, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTallies(rows)
}

// MonthlyTallies returns per-student rollups restricted to [from, to). The
// range lives in the join condition so students with no matching records still
// appear with zero days.
func (r *Repository) MonthlyTallies(ctx context.Context, from, to time.Time, class string) ([]Tally, error) {
	query := `
		SELECT s.id, s.name, s.code, s.class_name, s.roll_no,
		       COUNT(a.id) AS total_days,
		       COUNT(a.id) FILTER (WHERE a.status = 'PRESENT') AS present_days
		FROM students s
		LEFT JOIN attendance_records a
		  ON a.student_id = s.id AND a.date >= $1 AND a.date < $2`
	args := []any{from, to}
	if class != "" {
		query += ` WHERE s.class_name = $3`
		args = append(args, class)
	}
	query += `
		GROUP BY s.id, s.name, s.code, s.class_name, s.roll_no
		ORDER BY s.class_name, s.roll_no`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTallies(rows)
}

// StudentTotals returns a student's lifetime record counts.
func (r *Repository) StudentTotals(ctx context.Context, studentID string) (total, present, absent int, err error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'PRESENT'),
		       COUNT(*) FILTER (WHERE status = 'ABSENT')
		FROM attendance_records
		WHERE student_id = $1
	`, studentID)
	err = row.Scan(&total, &present, &absent)
	return total, present, absent, err
}

// Calendar returns a student's full dated history, oldest first.
func (r *Repository) Calendar(ctx context.Context, studentID string) ([]CalendarEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, status FROM attendance_records
		WHERE student_id = $1
		ORDER BY date
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []CalendarEntry
	for rows.Next() {
		var d time.Time
		var status string
		if err := rows.Scan(&d, &status); err != nil {
			return nil, err
		}
		res = append(res, CalendarEntry{Date: d.Format(DateLayout), Status: Status(status)})
	}
	return res, rows.Err()
}

func scanTallies(rows *sql.Rows) ([]Tally, error) {
	var res []Tally
	for rows.Next() {
		var t Tally
		if err := rows.Scan(&t.StudentID, &t.Name, &t.Code, &t.Class, &t.RollNo, &t.TotalDays, &t.PresentDays); err != nil {
			return nil, err
		}
		t.Percentage = formatPercent(t.PresentDays, t.TotalDays)
		res = append(res, t)
	}
	return res, rows.Err()
}
