package schedule

import (
	"context"
	"errors"
)

// ErrVersionConflict signals that a conditional availability write lost a
// race with a concurrent writer. It is internal to the allocation retry loop
// and never surfaces to callers; exhausted retries surface as
// ErrAllocationConflict instead.
var ErrVersionConflict = errors.New("availability version conflict")

// Store is the persistence port for availability documents and bookings.
//
// Availability is read and written as one versioned document per teacher.
// Conditional writes carry the version obtained at read time; a store must
// reject the write with ErrVersionConflict when the document changed in
// between. That version check is the only locking discipline in the system:
// callers may live in separate processes, so no in-process lock suffices.
type Store interface {
	// ReadTeacherAvailability returns the teacher's current slots and the
	// document version. A teacher with no document yet yields no slots and
	// version 0.
	ReadTeacherAvailability(ctx context.Context, teacherID string) ([]TimeSlot, int64, error)

	// WriteTeacherAvailability replaces the teacher's slots iff the stored
	// version still equals version. Returns ErrVersionConflict otherwise.
	WriteTeacherAvailability(ctx context.Context, teacherID string, slots []TimeSlot, version int64) error

	// CommitAllocation atomically replaces the teacher's slots (with the same
	// version check as WriteTeacherAvailability) and persists the booking.
	// Either both writes land or neither does.
	CommitAllocation(ctx context.Context, teacherID string, slots []TimeSlot, version int64, b *Booking) error

	// FindConfirmedBooking returns the student's confirmed booking for the
	// exact (teacher, date, startHour) slot, or nil when none exists.
	FindConfirmedBooking(ctx context.Context, studentID, teacherID string, date CalendarDate, startHour int) (*Booking, error)

	GetBooking(ctx context.Context, id string) (*Booking, error)
	UpdateBooking(ctx context.Context, b *Booking) error

	// ListBookings returns one page of matching bookings plus the total
	// match count.
	ListBookings(ctx context.Context, filter BookingFilter) ([]*Booking, int, error)
}
