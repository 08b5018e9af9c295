package account

import (
	"errors"
	"time"
)

// User roles.
const (
	RoleStudent = "STUDENT"
	RoleTeacher = "TEACHER"
)

// Conflict errors detected inside the provisioning transaction.
var (
	ErrEmailTaken = errors.New("email already registered")
	ErrRollTaken  = errors.New("roll number already taken in this class")
)

// ErrInvalidCredentials covers both unknown email and wrong password so the
// response never reveals which one it was.
var ErrInvalidCredentials = errors.New("invalid email or password")

// User is a login account owning at most one student or teacher profile.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Student profile. UserID is nil when the owning account has been deleted;
// the profile survives independently.
type Student struct {
	ID     string  `json:"id"`
	UserID *string `json:"user_id,omitempty"`
	Name   string  `json:"name"`
	Class  string  `json:"class_name"`
	RollNo int     `json:"roll_no"`
	Code   string  `json:"code"`
}

// Teacher profile.
type Teacher struct {
	ID      string  `json:"id"`
	UserID  *string `json:"user_id,omitempty"`
	Name    string  `json:"name"`
	Subject string  `json:"subject"`
}
