package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository persists users and profiles in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// UserByEmail returns the user for an email, or nil when none exists.
func (r *Repository) UserByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, role, created_at
		FROM users WHERE email = $1
	`, email)
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// StudentByUserID resolves an authenticated user to their student profile.
func (r *Repository) StudentByUserID(ctx context.Context, userID string) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, class_name, roll_no, code
		FROM students WHERE user_id = $1
	`, userID)
	return scanStudent(row)
}

// TeacherByUserID resolves an authenticated user to their teacher profile.
func (r *Repository) TeacherByUserID(ctx context.Context, userID string) (*Teacher, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, subject
		FROM teachers WHERE user_id = $1
	`, userID)
	var t Teacher
	if err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.Subject); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// ListStudents returns the roster, optionally restricted to one class,
// ordered by class then roll number.
func (r *Repository) ListStudents(ctx context.Context, class string) ([]Student, error) {
	query := `SELECT id, user_id, name, class_name, roll_no, code FROM students`
	args := []any{}
	if class != "" {
		query += ` WHERE class_name = $1`
		args = append(args, class)
	}
	query += ` ORDER BY class_name, roll_no`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.Class, &s.RollNo, &s.Code); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// CountStudents returns the total number of student profiles.
func (r *Repository) CountStudents(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`).Scan(&n)
	return n, err
}

// CreateStudent provisions a user and student profile in one transaction.
// Email and (class, roll_no) uniqueness are pre-checked inside the same
// transaction; any conflict rolls back both inserts. The human-readable code
// comes from a database sequence so concurrent creations cannot collide.
func (r *Repository) CreateStudent(ctx context.Context, u User, s Student) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, u.Email).Scan(&exists); err != nil {
		return "", err
	}
	if exists {
		return "", ErrEmailTaken
	}
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM students WHERE class_name = $1 AND roll_no = $2)`,
		s.Class, s.RollNo).Scan(&exists); err != nil {
		return "", err
	}
	if exists {
		return "", ErrRollTaken
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
	`, u.ID, u.Email, u.PasswordHash, u.Role); err != nil {
		return "", err
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT nextval('student_code_seq')`).Scan(&seq); err != nil {
		return "", err
	}
	code := fmt.Sprintf("STU%04d", seq)

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO students (id, user_id, name, class_name, roll_no, code)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, u.ID, s.Name, s.Class, s.RollNo, code); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return code, nil
}

func scanStudent(row *sql.Row) (*Student, error) {
	var s Student
	if err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Class, &s.RollNo, &s.Code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}
