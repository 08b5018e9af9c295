package account

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// CreateStudentInput carries the teacher-submitted fields for provisioning.
type CreateStudentInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Class    string `json:"class_name" binding:"required"`
	RollNo   int    `json:"roll_no" binding:"required"`
}

// Identity is a resolved login: the account plus whichever profile it owns.
type Identity struct {
	User    User
	Student *Student
	Teacher *Teacher
}

// Name returns the profile display name, falling back to the email.
func (id Identity) Name() string {
	switch {
	case id.Student != nil:
		return id.Student.Name
	case id.Teacher != nil:
		return id.Teacher.Name
	default:
		return id.User.Email
	}
}

// Service owns account provisioning and credential checks.
type Service struct {
	repo *Repository
}

// NewService creates a service backed by a repository.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// CreateStudent hashes the password and provisions a user + student pair
// transactionally. Returns the assigned human-readable student code.
// The plaintext password is never stored or logged.
func (s *Service) CreateStudent(ctx context.Context, in CreateStudentInput) (string, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Email == "" || in.Password == "" || in.Class == "" || in.RollNo <= 0 {
		return "", errors.New("name, email, password, class_name and roll_no are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	u := User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         RoleStudent,
	}
	st := Student{
		ID:     uuid.NewString(),
		Name:   in.Name,
		Class:  in.Class,
		RollNo: in.RollNo,
	}
	return s.repo.CreateStudent(ctx, u, st)
}

// Authenticate checks credentials and resolves the caller's profile.
// Unknown email and wrong password both map to ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.repo.UserByEmail(ctx, email)
	if err != nil {
		return Identity{}, err
	}
	if u == nil {
		return Identity{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return s.resolve(ctx, *u)
}

// IdentityByUserID resolves a token subject back to an account and profile.
func (s *Service) IdentityByUserID(ctx context.Context, userID, email, role string) (Identity, error) {
	return s.resolve(ctx, User{ID: userID, Email: email, Role: role})
}

// StudentByUserID returns the student profile owned by a user, or nil.
func (s *Service) StudentByUserID(ctx context.Context, userID string) (*Student, error) {
	return s.repo.StudentByUserID(ctx, userID)
}

// ListStudents returns the roster ordered by class then roll number.
func (s *Service) ListStudents(ctx context.Context, class string) ([]Student, error) {
	return s.repo.ListStudents(ctx, class)
}

// CountStudents returns the total student count for the teacher dashboard.
func (s *Service) CountStudents(ctx context.Context) (int, error) {
	return s.repo.CountStudents(ctx)
}

func (s *Service) resolve(ctx context.Context, u User) (Identity, error) {
	id := Identity{User: u}
	switch u.Role {
	case RoleStudent:
		st, err := s.repo.StudentByUserID(ctx, u.ID)
		if err != nil {
			return Identity{}, err
		}
		id.Student = st
	case RoleTeacher:
		t, err := s.repo.TeacherByUserID(ctx, u.ID)
		if err != nil {
			return Identity{}, err
		}
		id.Teacher = t
	}
	return id, nil
}
