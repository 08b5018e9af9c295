package attendance

import "time"

// Status of a single attendance record.
type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusAbsent  Status = "ABSENT"
	StatusHoliday Status = "HOLIDAY"
)

// Valid returns true when the status is a supported value.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusHoliday:
		return true
	default:
		return false
	}
}

// DailyTotals summarises one day's records. HOLIDAY rows are tracked in storage
// but not surfaced here.
type DailyTotals struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
}

// SheetRow is one line of the editable attendance sheet: every student of the
// class, with Status nil when no record exists for the date yet.
type SheetRow struct {
	StudentID string  `json:"student_id"`
	Name      string  `json:"name"`
	Code      string  `json:"code"`
	Class     string  `json:"class_name"`
	RollNo    int     `json:"roll_no"`
	Status    *Status `json:"status"`
}

// Entry is one (student, status) pair of a bulk save.
type Entry struct {
	StudentID string `json:"student_id"`
	Status    Status `json:"status"`
}

// Tally is a per-student present/total rollup with a formatted percentage.
type Tally struct {
	StudentID   string `json:"student_id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Class       string `json:"class_name"`
	RollNo      int    `json:"roll_no"`
	TotalDays   int    `json:"total_days"`
	PresentDays int    `json:"present_days"`
	Percentage  string `json:"percentage"`
}

// Summary is a student's lifetime attendance rollup.
type Summary struct {
	TotalDays   int    `json:"total_days"`
	PresentDays int    `json:"present_days"`
	AbsentDays  int    `json:"absent_days"`
	Percentage  string `json:"percentage"`
}

// CalendarEntry is one dated record of a student's history.
type CalendarEntry struct {
	Date   string `json:"date"`
	Status Status `json:"status"`
}

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
