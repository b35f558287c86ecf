package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tutorhive/scheduling-backend/internal/notify"
)

// RateSource resolves a teacher's hourly rate. Implemented by the user
// service; kept as a local interface so the schedule package does not depend
// on the user package.
type RateSource interface {
	HourlyRate(ctx context.Context, teacherID string) (float64, error)
}

// AddAvailabilityRequest describes a teacher's slot creation, single or
// weekly-repeating.
type AddAvailabilityRequest struct {
	TeacherID string
	Date      CalendarDate
	StartHour int
	EndHour   int
	Capacity  int
	// RepeatWeeks is the number of weekly occurrences; 0 and 1 both mean a
	// single non-repeating slot.
	RepeatWeeks int
	MeetingLink string
}

// BookRequest describes a student's booking request, single or
// weekly-repeating.
type BookRequest struct {
	StudentID string
	TeacherID string
	Date      CalendarDate
	StartHour int
	// RepeatWeeks is the number of weekly occurrences; 0 and 1 both mean a
	// single booking.
	RepeatWeeks int
}

// Service is the scheduling API surface: teacher availability management,
// booking allocation and booked-session lifecycle.
type Service interface {
	AddAvailability(ctx context.Context, req AddAvailabilityRequest) ([]TimeSlot, error)
	RemoveSlot(ctx context.Context, teacherID string, date CalendarDate, startHour int) error
	RemoveRepeatGroup(ctx context.Context, teacherID, groupID string) (int, error)
	ListWeek(ctx context.Context, teacherID string, weekStart CalendarDate) ([]TimeSlot, error)

	Book(ctx context.Context, req BookRequest) (*Booking, error)
	BookBulk(ctx context.Context, req BookRequest) (*BulkResult, error)

	GetBooking(ctx context.Context, id string) (*Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]*Booking, int, error)
	CompleteBooking(ctx context.Context, id, teacherID string) (*Booking, error)
	CancelBooking(ctx context.Context, id, actorID string) (*Booking, error)
	SetHomework(ctx context.Context, id, teacherID, link string) (*Booking, error)
	SetFeedback(ctx context.Context, id, studentID string, rating int, comment string) (*Booking, error)
	RemoveFeedback(ctx context.Context, id, studentID string) (*Booking, error)
}

type service struct {
	store      Store
	allocator  *Allocator
	rates      RateSource
	dispatcher notify.Dispatcher
	logger     *zap.Logger
}

func NewService(store Store, allocator *Allocator, rates RateSource, dispatcher notify.Dispatcher, logger *zap.Logger) Service {
	return &service{
		store:      store,
		allocator:  allocator,
		rates:      rates,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (s *service) AddAvailability(ctx context.Context, req AddAvailabilityRequest) ([]TimeSlot, error) {
	count := req.RepeatWeeks
	if count < 1 {
		count = 1
	}

	drafts, err := GenerateRepeats(req.Date, req.StartHour, req.EndHour, req.Capacity, RepeatOptions{Count: count})
	if err != nil {
		return nil, err
	}
	// Single slots carry no repeat metadata at rest.
	if count == 1 {
		drafts[0].RepeatGroupID = ""
		drafts[0].RepeatIndex = 0
		drafts[0].TotalInGroup = 0
	}
	for i := range drafts {
		drafts[i].MeetingLink = req.MeetingLink
	}

	err = s.mutateAvailability(ctx, req.TeacherID, func(reg *Registry) error {
		conflict, err := reg.Add(drafts)
		if err != nil {
			if conflict != nil {
				s.logger.Info("availability batch rejected",
					zap.String("teacher_id", req.TeacherID),
					zap.String("conflict", conflict.String()),
				)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("availability added",
		zap.String("teacher_id", req.TeacherID),
		zap.Int("slots", len(drafts)),
	)
	return drafts, nil
}

func (s *service) RemoveSlot(ctx context.Context, teacherID string, date CalendarDate, startHour int) error {
	return s.mutateAvailability(ctx, teacherID, func(reg *Registry) error {
		if !reg.Remove(date, startHour) {
			return ErrSlotNotFound
		}
		return nil
	})
}

func (s *service) RemoveRepeatGroup(ctx context.Context, teacherID, groupID string) (int, error) {
	removed := 0
	err := s.mutateAvailability(ctx, teacherID, func(reg *Registry) error {
		removed = reg.RemoveGroup(groupID)
		if removed == 0 {
			return ErrRepeatGroupEmpty
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *service) ListWeek(ctx context.Context, teacherID string, weekStart CalendarDate) ([]TimeSlot, error) {
	slots, _, err := s.store.ReadTeacherAvailability(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("read availability: %w", err)
	}
	reg := Registry{TeacherID: teacherID, Slots: slots}
	return reg.ListRange(weekStart, weekStart.AddDays(6)), nil
}

func (s *service) Book(ctx context.Context, req BookRequest) (*Booking, error) {
	rate, err := s.rates.HourlyRate(ctx, req.TeacherID)
	if err != nil {
		return nil, err
	}
	return s.allocator.Allocate(ctx, AllocationRequest{
		StudentID:  req.StudentID,
		TeacherID:  req.TeacherID,
		Date:       req.Date,
		StartHour:  req.StartHour,
		HourlyRate: rate,
	})
}

func (s *service) BookBulk(ctx context.Context, req BookRequest) (*BulkResult, error) {
	if req.RepeatWeeks < 2 {
		return nil, ErrInvalidInterval
	}
	rate, err := s.rates.HourlyRate(ctx, req.TeacherID)
	if err != nil {
		return nil, err
	}

	occurrences := make([]Occurrence, req.RepeatWeeks)
	for i := range occurrences {
		occurrences[i] = Occurrence{
			Date:      req.Date.AddDays(i * DefaultCadenceDays),
			StartHour: req.StartHour,
		}
	}
	return s.allocator.AllocateBulk(ctx, req.StudentID, req.TeacherID, rate, occurrences)
}

func (s *service) GetBooking(ctx context.Context, id string) (*Booking, error) {
	return s.store.GetBooking(ctx, id)
}

func (s *service) ListBookings(ctx context.Context, filter BookingFilter) ([]*Booking, int, error) {
	return s.store.ListBookings(ctx, filter)
}

func (s *service) CompleteBooking(ctx context.Context, id, teacherID string) (*Booking, error) {
	return s.updateBooking(ctx, id, func(b *Booking) error {
		if b.TeacherID != teacherID {
			return ErrPermissionDenied
		}
		return b.TransitionTo(StatusCompleted, time.Now().UTC())
	})
}

func (s *service) CancelBooking(ctx context.Context, id, actorID string) (*Booking, error) {
	return s.updateBooking(ctx, id, func(b *Booking) error {
		if b.TeacherID != actorID && b.StudentID != actorID {
			return ErrPermissionDenied
		}
		return b.TransitionTo(StatusCancelled, time.Now().UTC())
	})
}

func (s *service) SetHomework(ctx context.Context, id, teacherID, link string) (*Booking, error) {
	return s.updateBooking(ctx, id, func(b *Booking) error {
		if b.TeacherID != teacherID {
			return ErrPermissionDenied
		}
		return b.SetHomework(link, time.Now().UTC())
	})
}

func (s *service) SetFeedback(ctx context.Context, id, studentID string, rating int, comment string) (*Booking, error) {
	b, err := s.updateBooking(ctx, id, func(b *Booking) error {
		if b.StudentID != studentID {
			return ErrPermissionDenied
		}
		return b.SetFeedback(rating, comment, time.Now().UTC())
	})
	if err != nil {
		return nil, err
	}
	s.dispatchFeedbackConfirmation(b)
	return b, nil
}

func (s *service) RemoveFeedback(ctx context.Context, id, studentID string) (*Booking, error) {
	return s.updateBooking(ctx, id, func(b *Booking) error {
		if b.StudentID != studentID {
			return ErrPermissionDenied
		}
		return b.ClearFeedback(time.Now().UTC())
	})
}

// mutateAvailability runs a versioned read-modify-write of the teacher's
// availability document, retrying on write conflicts with the same bound as
// booking allocation.
func (s *service) mutateAvailability(ctx context.Context, teacherID string, mutate func(*Registry) error) error {
	for attempt := 1; attempt <= maxAllocationAttempts; attempt++ {
		slots, version, err := s.store.ReadTeacherAvailability(ctx, teacherID)
		if err != nil {
			return fmt.Errorf("read availability: %w", err)
		}

		reg := Registry{TeacherID: teacherID, Slots: slots}
		if err := mutate(&reg); err != nil {
			return err
		}

		err = s.store.WriteTeacherAvailability(ctx, teacherID, reg.Slots, version)
		if errors.Is(err, ErrVersionConflict) {
			s.logger.Debug("availability write conflict, retrying",
				zap.String("teacher_id", teacherID),
				zap.Int("attempt", attempt),
			)
			continue
		}
		return err
	}
	return ErrAllocationConflict
}

func (s *service) updateBooking(ctx context.Context, id string, mutate func(*Booking) error) (*Booking, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(b); err != nil {
		return nil, err
	}
	if err := s.store.UpdateBooking(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) dispatchFeedbackConfirmation(b *Booking) {
	event := notify.Event{
		Kind:      notify.KindFeedbackConfirmation,
		Recipient: b.TeacherID,
		Payload: map[string]any{
			"booking_id": b.ID,
			"student_id": b.StudentID,
			"rating":     b.Feedback.Rating,
		},
	}
	go func() {
		if err := s.dispatcher.Notify(context.Background(), event); err != nil {
			s.logger.Warn("feedback confirmation dispatch failed",
				zap.String("booking_id", b.ID),
				zap.Error(err),
			)
		}
	}()
}
