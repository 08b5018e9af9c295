package handler

import (
	"bytes"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolattend/internal/account"
	"schoolattend/internal/attendance"
	"schoolattend/internal/auth"
)

const (
	testKey    = "test-signing-key"
	testIssuer = "schoolattend-test"
)

// setup builds the full router over a sqlmock database, mirroring the wiring
// in cmd/api. The dashboard cache is nil so every request hits the mock.
func setup(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}

	accounts := account.NewService(account.NewRepository(db))
	att := attendance.NewService(attendance.NewRepository(db))
	h := New(accounts, att, Options{
		JWTIssuer:        testIssuer,
		JWTSigningKey:    testKey,
		TokenTTL:         time.Hour,
		LowAttendancePct: 75,
	})

	r := gin.New()
	r.POST("/auth/login", h.Login)

	bearer := auth.Bearer(testKey, testIssuer)
	teacher := r.Group("/teacher", bearer, auth.RequireRole(auth.RoleTeacher))
	teacher.GET("/dashboard", h.Dashboard)
	teacher.POST("/students/create", h.CreateStudent)
	teacher.GET("/students", h.ListStudents)
	teacher.GET("/attendance-sheet", h.Sheet)
	teacher.POST("/attendance/bulk", h.BulkSave)
	teacher.GET("/low-attendance", h.LowAttendance)
	teacher.GET("/monthly-report", h.MonthlyReport)

	student := r.Group("/student", bearer, auth.RequireRole(auth.RoleStudent))
	student.GET("/dashboard", h.StudentDashboard)
	student.GET("/calendar", h.StudentCalendar)

	return r, mock, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func teacherToken(t *testing.T) string {
	t.Helper()
	token, _, err := auth.Issue("teacher-1", auth.RoleTeacher, testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	return token
}

func studentToken(t *testing.T) string {
	t.Helper()
	token, _, err := auth.Issue("user-1", auth.RoleStudent, testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	return token
}

func TestLogin_MissingFields(t *testing.T) {
	r, _, db := setup(t)
	defer db.Close()

	rec := doJSON(t, r, http.MethodPost, "/auth/login", "", `{"email":"a@b.c"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_UnknownUser(t *testing.T) {
	r, mock, db := setup(t)
	defer db.Close()

	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "created_at"}))

	rec := doJSON(t, r, http.MethodPost, "/auth/login", "", `{"email":"ghost@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid email or password")
}

func TestDashboard_CountsToday(t *testing.T) {
	r, mock, db := setup(t)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
	mock.ExpectQuery("FROM attendance_records").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"present", "absent"}).AddRow(30, 12))

	rec := doJSON(t, r, http.MethodGet, "/teacher/dashboard", teacherToken(t), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total_students":42,"present_today":30,"absent_today":12}`, rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboard_RequiresTeacherRole(t *testing.T) {
	r, _, db := setup(t)
	defer db.Close()

	rec := doJSON(t, r, http.MethodGet, "/teacher/dashboard", studentToken(t), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSheet_MissingDate(t *testing.T) {
	r, _, db := setup(t)
	defer db.Close()

	rec := doJSON(t, r, http.MethodGet, "/teacher/attendance-sheet", teacherToken(t), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "date is required")
}

func TestBulkSave_InvalidStatus(t *testing.T) {
	r, _, db := setup(t)
	defer db.Close()

	body := `{"date":"2026-02-13","records":[{"student_id":"s1","status":"LATE"}]}`
	rec := doJSON(t, r, http.MethodPost, "/teacher/attendance/bulk", teacherToken(t), body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulkSave_StorageFailureIsOpaque(t *testing.T) {
	r, mock, db := setup(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendance_records").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	body := `{"date":"2026-02-13","records":[{"student_id":"s1","status":"PRESENT"}]}`
	rec := doJSON(t, r, http.MethodPost, "/teacher/attendance/bulk", teacherToken(t), body)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkSave_AppliesBatch(t *testing.T) {
	r, mock, db := setup(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendance_records").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO attendance_records").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	body := `{"date":"2026-02-13","records":[{"student_id":"s1","status":"PRESENT"},{"student_id":"s2","status":"HOLIDAY"}]}`
	rec := doJSON(t, r, http.MethodPost, "/teacher/attendance/bulk", teacherToken(t), body)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMonthlyReport_MissingMonth(t *testing.T) {
	r, _, db := setup(t)
	defer db.Close()

	rec := doJSON(t, r, http.MethodGet, "/teacher/monthly-report?year=2026", teacherToken(t), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLowAttendance_ReturnsDefaulters(t *testing.T) {
	r, mock, db := setup(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name", "code", "class_name", "roll_no", "total_days", "present_days"}).
		AddRow("s1", "Asha", "STU0001", "10-A", 1, 4, 2)
	mock.ExpectQuery("JOIN attendance_records").
		WithArgs(75.0).
		WillReturnRows(rows)

	rec := doJSON(t, r, http.MethodGet, "/teacher/low-attendance", teacherToken(t), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"percentage":"50.0"`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentDashboard_ReturnsProfileAndSummary(t *testing.T) {
	r, mock, db := setup(t)
	defer db.Close()

	mock.ExpectQuery("FROM students WHERE user_id").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "class_name", "roll_no", "code"}).
			AddRow("s1", "user-1", "Asha", "10-A", 1, "STU0001"))
	mock.ExpectQuery("WHERE student_id").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "present", "absent"}).AddRow(4, 3, 1))

	rec := doJSON(t, r, http.MethodGet, "/student/dashboard", studentToken(t), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"percentage":"75.0"`)
	assert.Contains(t, rec.Body.String(), `"code":"STU0001"`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentDashboard_NoProfile(t *testing.T) {
	r, mock, db := setup(t)
	defer db.Close()

	mock.ExpectQuery("FROM students WHERE user_id").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "class_name", "roll_no", "code"}))

	rec := doJSON(t, r, http.MethodGet, "/student/dashboard", studentToken(t), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStudentCalendar_ReturnsHistory(t *testing.T) {
	r, mock, db := setup(t)
	defer db.Close()

	mock.ExpectQuery("FROM students WHERE user_id").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "class_name", "roll_no", "code"}).
			AddRow("s1", "user-1", "Asha", "10-A", 1, "STU0001"))
	mock.ExpectQuery("ORDER BY date").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"date", "status"}).
			AddRow(time.Date(2026, time.February, 13, 0, 0, 0, 0, time.UTC), "PRESENT"))

	rec := doJSON(t, r, http.MethodGet, "/student/calendar", studentToken(t), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"date":"2026-02-13","status":"PRESENT"}]`, rec.Body.String())
}
