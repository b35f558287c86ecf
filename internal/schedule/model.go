package schedule

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tutorhive/scheduling-backend/internal/pkg/apperror"
)

var (
	ErrOverlapConflict    = apperror.New(http.StatusConflict, "time slot overlaps existing availability")
	ErrSlotNotFound       = apperror.New(http.StatusNotFound, "slot not found")
	ErrSlotFull           = apperror.New(http.StatusConflict, "slot is fully booked")
	ErrAlreadyBooked      = apperror.New(http.StatusConflict, "student already holds a booking for this slot")
	ErrAllocationConflict = apperror.New(http.StatusConflict, "booking could not be allocated due to concurrent updates, please retry")
	ErrInvalidInterval    = apperror.New(http.StatusBadRequest, "end hour must be after start hour and capacity must be at least 1")
	ErrBookingNotFound    = apperror.New(http.StatusNotFound, "booking not found")
	ErrInvalidTransition  = apperror.New(http.StatusConflict, "invalid booking status transition")
	ErrBookingCancelled   = apperror.New(http.StatusConflict, "booking is cancelled")
	ErrInvalidRating      = apperror.New(http.StatusBadRequest, "rating must be between 1 and 5")
	ErrPermissionDenied   = apperror.New(http.StatusForbidden, "permission denied")
	ErrRepeatGroupEmpty   = apperror.New(http.StatusNotFound, "no slots found for repeat group")
)

// CalendarDate is a plain calendar date without a time-of-day component.
// Equality is structural: two dates are equal iff year, month and day match.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a CalendarDate from its components.
func NewDate(year int, month time.Month, day int) CalendarDate {
	return CalendarDate{Year: year, Month: month, Day: day}
}

// DateOf truncates a time.Time to its calendar date in UTC.
func DateOf(t time.Time) CalendarDate {
	t = t.UTC()
	return CalendarDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Time returns the date at midnight UTC.
func (d CalendarDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date shifted by n calendar days. Month and year
// rollover follow standard calendar arithmetic.
func (d CalendarDate) AddDays(n int) CalendarDate {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Before reports whether d is strictly earlier than other.
func (d CalendarDate) Before(other CalendarDate) bool {
	return d.Time().Before(other.Time())
}

// After reports whether d is strictly later than other.
func (d CalendarDate) After(other CalendarDate) bool {
	return d.Time().After(other.Time())
}

func (d CalendarDate) IsZero() bool {
	return d == CalendarDate{}
}

func (d CalendarDate) String() string {
	return d.Time().Format("2006-01-02")
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d CalendarDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *CalendarDate) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid calendar date %s", s)
	}
	t, err := time.Parse("2006-01-02", s[1:len(s)-1])
	if err != nil {
		return fmt.Errorf("invalid calendar date: %w", err)
	}
	*d = DateOf(t)
	return nil
}

// ParseDate parses a "YYYY-MM-DD" string into a CalendarDate.
func ParseDate(s string) (CalendarDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return CalendarDate{}, fmt.Errorf("invalid calendar date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Interval is one whole-hour time range on a single date. Intervals are
// half-open: [StartHour, EndHour).
type Interval struct {
	Date      CalendarDate `json:"date"`
	StartHour int          `json:"start_hour"`
	EndHour   int          `json:"end_hour"`
}

// Valid reports whether the interval lies on the 24-hour scale with a
// positive length.
func (i Interval) Valid() bool {
	return i.StartHour >= 0 && i.EndHour <= 24 && i.EndHour > i.StartHour
}

// Hours returns the interval length in whole hours.
func (i Interval) Hours() int {
	return i.EndHour - i.StartHour
}

func (i Interval) String() string {
	return fmt.Sprintf("%s %02d:00-%02d:00", i.Date, i.StartHour, i.EndHour)
}

// TimeSlot is one bookable interval of a teacher's availability.
// The JSON tags define the shape stored in the per-teacher availability
// document.
type TimeSlot struct {
	Date          CalendarDate `json:"date"`
	StartHour     int          `json:"start_hour"`
	EndHour       int          `json:"end_hour"`
	Capacity      int          `json:"capacity"`
	EnrolledIDs   []string     `json:"enrolled_ids,omitempty"`
	RepeatGroupID string       `json:"repeat_group_id,omitempty"`
	RepeatIndex   int          `json:"repeat_index,omitempty"`
	TotalInGroup  int          `json:"total_in_group,omitempty"`
	MeetingLink   string       `json:"meeting_link,omitempty"`
}

// NewTimeSlot validates the interval and capacity and returns a slot with no
// enrollments.
func NewTimeSlot(date CalendarDate, startHour, endHour, capacity int) (TimeSlot, error) {
	s := TimeSlot{Date: date, StartHour: startHour, EndHour: endHour, Capacity: capacity}
	if !s.Interval().Valid() || capacity < 1 {
		return TimeSlot{}, ErrInvalidInterval
	}
	return s, nil
}

// Interval returns the slot's time range.
func (s TimeSlot) Interval() Interval {
	return Interval{Date: s.Date, StartHour: s.StartHour, EndHour: s.EndHour}
}

// IsFull reports whether the slot has reached its capacity.
func (s TimeSlot) IsFull() bool {
	return len(s.EnrolledIDs) >= s.Capacity
}

// IsEnrolled reports whether the student already holds a place in the slot.
func (s TimeSlot) IsEnrolled(studentID string) bool {
	for _, id := range s.EnrolledIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// Homework is an assignment link attached to a booking after the lesson.
type Homework struct {
	Link    string    `json:"link"`
	AddedAt time.Time `json:"added_at"`
}

// Feedback is a student's rating of a completed or confirmed lesson.
type Feedback struct {
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Booking is the durable record of one student's enrollment in one slot
// occurrence. Once confirmed it is append-only except for its status,
// homework and feedback sub-fields.
type Booking struct {
	ID           string
	StudentID    string
	TeacherID    string
	Date         CalendarDate
	StartHour    int
	EndHour      int
	Price        float64
	Status       Status
	BulkID       string
	LessonNumber int
	TotalLessons int
	Homework     *Homework
	Feedback     *Feedback
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BookingFilter narrows and paginates booking list queries.
type BookingFilter struct {
	TeacherID string
	StudentID string
	Status    Status
	From      *CalendarDate
	To        *CalendarDate

	Page     int
	PageSize int
}
