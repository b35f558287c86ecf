package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tutorhive/scheduling-backend/internal/notify"
)

// maxAllocationAttempts bounds the optimistic retry loop. Exceeding it
// surfaces ErrAllocationConflict to the caller instead of retrying forever.
const maxAllocationAttempts = 3

// AllocationRequest describes one booking attempt against a chosen slot.
// HourlyRate is the teacher's rate; the booking price is rate times the
// slot's length in hours.
type AllocationRequest struct {
	StudentID  string
	TeacherID  string
	Date       CalendarDate
	StartHour  int
	HourlyRate float64

	// bulk metadata, set by AllocateBulk
	bulkID       string
	lessonNumber int
	totalLessons int
}

// Occurrence is one (date, startHour) target within a bulk booking request.
type Occurrence struct {
	Date      CalendarDate
	StartHour int
}

// BulkOutcome reports the result of one occurrence of a bulk allocation.
type BulkOutcome struct {
	Occurrence Occurrence
	Booking    *Booking
	Err        error
}

// BulkResult reports per-occurrence outcomes of a bulk allocation. The bulk
// id is shared by all bookings that succeeded.
type BulkResult struct {
	BulkID   string
	Outcomes []BulkOutcome
}

// Succeeded returns the bookings that were allocated.
func (r *BulkResult) Succeeded() []*Booking {
	var out []*Booking
	for _, o := range r.Outcomes {
		if o.Booking != nil {
			out = append(out, o.Booking)
		}
	}
	return out
}

// Allocator converts booking requests into confirmed bookings while keeping
// the teacher's availability document consistent. Each attempt re-reads the
// document, validates the slot, mutates a copy and commits slot update plus
// booking insert as one unit through the store; version conflicts restart
// the attempt from a fresh read.
type Allocator struct {
	store      Store
	dispatcher notify.Dispatcher
	logger     *zap.Logger
}

func NewAllocator(store Store, dispatcher notify.Dispatcher, logger *zap.Logger) *Allocator {
	return &Allocator{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Allocate enrolls the student into the target slot and persists a confirmed
// booking. A slot that reaches capacity is removed from the availability
// document; otherwise the updated slot is kept.
func (a *Allocator) Allocate(ctx context.Context, req AllocationRequest) (*Booking, error) {
	for attempt := 1; attempt <= maxAllocationAttempts; attempt++ {
		b, err := a.tryAllocate(ctx, req)
		if errors.Is(err, ErrVersionConflict) {
			a.logger.Debug("allocation write conflict, retrying",
				zap.String("teacher_id", req.TeacherID),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return nil, err
		}

		a.logger.Info("booking allocated",
			zap.String("booking_id", b.ID),
			zap.String("student_id", b.StudentID),
			zap.String("teacher_id", b.TeacherID),
			zap.String("date", b.Date.String()),
			zap.Int("start_hour", b.StartHour),
		)
		a.dispatchConfirmation(b)
		return b, nil
	}
	return nil, ErrAllocationConflict
}

// AllocateBulk runs the allocation protocol once per occurrence, sequentially,
// under one shared bulk id. Occurrences are independent: a failure does not
// roll back earlier successes, and every outcome is reported to the caller.
func (a *Allocator) AllocateBulk(ctx context.Context, studentID, teacherID string, hourlyRate float64, occurrences []Occurrence) (*BulkResult, error) {
	if len(occurrences) == 0 {
		return nil, ErrSlotNotFound
	}

	result := &BulkResult{BulkID: uuid.NewString()}
	for i, occ := range occurrences {
		req := AllocationRequest{
			StudentID:    studentID,
			TeacherID:    teacherID,
			Date:         occ.Date,
			StartHour:    occ.StartHour,
			HourlyRate:   hourlyRate,
			bulkID:       result.BulkID,
			lessonNumber: i + 1,
			totalLessons: len(occurrences),
		}
		b, err := a.Allocate(ctx, req)
		result.Outcomes = append(result.Outcomes, BulkOutcome{
			Occurrence: occ,
			Booking:    b,
			Err:        err,
		})
	}
	return result, nil
}

// tryAllocate is one read-check-mutate-commit pass of the protocol.
func (a *Allocator) tryAllocate(ctx context.Context, req AllocationRequest) (*Booking, error) {
	slots, version, err := a.store.ReadTeacherAvailability(ctx, req.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("read availability: %w", err)
	}

	reg := Registry{TeacherID: req.TeacherID, Slots: slots}
	idx, ok := reg.Find(req.Date, req.StartHour)
	if !ok {
		return nil, ErrSlotNotFound
	}

	slot := reg.Slots[idx]
	if slot.IsEnrolled(req.StudentID) {
		return nil, ErrAlreadyBooked
	}
	if slot.IsFull() {
		return nil, ErrSlotFull
	}

	existing, err := a.store.FindConfirmedBooking(ctx, req.StudentID, req.TeacherID, req.Date, req.StartHour)
	if err != nil {
		return nil, fmt.Errorf("check existing booking: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyBooked
	}

	slot.EnrolledIDs = append(append([]string(nil), slot.EnrolledIDs...), req.StudentID)
	if slot.IsFull() {
		// At capacity the slot is no longer offerable.
		reg.RemoveAt(idx)
	} else {
		reg.Slots[idx] = slot
	}

	nowUTC := time.Now().UTC()
	b := &Booking{
		ID:           uuid.NewString(),
		StudentID:    req.StudentID,
		TeacherID:    req.TeacherID,
		Date:         req.Date,
		StartHour:    slot.StartHour,
		EndHour:      slot.EndHour,
		Price:        req.HourlyRate * float64(slot.Interval().Hours()),
		Status:       StatusConfirmed,
		BulkID:       req.bulkID,
		LessonNumber: req.lessonNumber,
		TotalLessons: req.totalLessons,
		CreatedAt:    nowUTC,
		UpdatedAt:    nowUTC,
	}

	if err := a.store.CommitAllocation(ctx, req.TeacherID, reg.Slots, version, b); err != nil {
		return nil, err
	}
	return b, nil
}

// dispatchConfirmation hands the booking to the notification dispatcher.
// Fire-and-forget: dispatch failures are logged and never affect the
// committed allocation.
func (a *Allocator) dispatchConfirmation(b *Booking) {
	event := notify.Event{
		Kind:      notify.KindBookingConfirmation,
		Recipient: b.StudentID,
		Payload: map[string]any{
			"booking_id": b.ID,
			"teacher_id": b.TeacherID,
			"date":       b.Date.String(),
			"start_hour": b.StartHour,
			"end_hour":   b.EndHour,
		},
	}
	go func() {
		if err := a.dispatcher.Notify(context.Background(), event); err != nil {
			a.logger.Warn("booking confirmation dispatch failed",
				zap.String("booking_id", b.ID),
				zap.Error(err),
			)
		}
	}()
}
