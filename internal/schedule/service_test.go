package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tutorhive/scheduling-backend/internal/notify"
)

type fixedRate float64

func (r fixedRate) HourlyRate(context.Context, string) (float64, error) {
	return float64(r), nil
}

func newTestService(store Store, rate float64) (Service, *recordingDispatcher) {
	dispatcher := &recordingDispatcher{}
	logger := zap.NewNop()
	allocator := NewAllocator(store, dispatcher, logger)
	return NewService(store, allocator, fixedRate(rate), dispatcher, logger), dispatcher
}

func TestServiceAddAvailabilitySingle(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	svc, _ := newTestService(store, 20)
	day := NewDate(2024, time.March, 4)

	slots, err := svc.AddAvailability(ctx, AddAvailabilityRequest{
		TeacherID: "teacher-1",
		Date:      day,
		StartHour: 10,
		EndHour:   11,
		Capacity:  1,
	})
	require.NoError(t, err)
	require.Len(t, slots, 1)

	// Single slots carry no repeat metadata.
	assert.Empty(t, slots[0].RepeatGroupID)
	assert.Zero(t, slots[0].TotalInGroup)

	stored, version, err := store.ReadTeacherAvailability(ctx, "teacher-1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, int64(1), version)
}

func TestServiceAddAvailabilityWeekly(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	svc, _ := newTestService(store, 20)
	day := NewDate(2024, time.March, 4)

	slots, err := svc.AddAvailability(ctx, AddAvailabilityRequest{
		TeacherID:   "teacher-1",
		Date:        day,
		StartHour:   10,
		EndHour:     11,
		Capacity:    1,
		RepeatWeeks: 3,
		MeetingLink: "https://meet.example.com/abc",
	})
	require.NoError(t, err)
	require.Len(t, slots, 3)

	groupID := slots[0].RepeatGroupID
	require.NotEmpty(t, groupID)
	for i, s := range slots {
		assert.Equal(t, day.AddDays(i*7), s.Date)
		assert.Equal(t, groupID, s.RepeatGroupID)
		assert.Equal(t, 3, s.TotalInGroup)
		assert.Equal(t, "https://meet.example.com/abc", s.MeetingLink)
	}
}

func TestServiceAddAvailabilityRejectsOverlap(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	svc, _ := newTestService(store, 20)
	day := NewDate(2024, time.March, 4)

	_, err := svc.AddAvailability(ctx, AddAvailabilityRequest{
		TeacherID: "teacher-1", Date: day, StartHour: 10, EndHour: 12, Capacity: 1,
	})
	require.NoError(t, err)

	_, err = svc.AddAvailability(ctx, AddAvailabilityRequest{
		TeacherID: "teacher-1", Date: day, StartHour: 11, EndHour: 13, Capacity: 1,
	})
	require.ErrorIs(t, err, ErrOverlapConflict)

	// The rejected slot must not have been persisted.
	stored, _, err := store.ReadTeacherAvailability(ctx, "teacher-1")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestServiceRemoveSlot(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	svc, _ := newTestService(store, 20)
	day := NewDate(2024, time.March, 4)

	_, err := svc.AddAvailability(ctx, AddAvailabilityRequest{
		TeacherID: "teacher-1", Date: day, StartHour: 10, EndHour: 11, Capacity: 1,
	})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveSlot(ctx, "teacher-1", day, 10))
	err = svc.RemoveSlot(ctx, "teacher-1", day, 10)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestServiceRemoveRepeatGroup(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	svc, _ := newTestService(store, 20)
	day := NewDate(2024, time.March, 4)

	slots, err := svc.AddAvailability(ctx, AddAvailabilityRequest{
		TeacherID: "teacher-1", Date: day, StartHour: 10, EndHour: 11, Capacity: 1, RepeatWeeks: 4,
	})
	require.NoError(t, err)

	removed, err := svc.RemoveRepeatGroup(ctx, "teacher-1", slots[0].RepeatGroupID)
	require.NoError(t, err)
	assert.Equal(t, 4, removed)

	_, err = svc.RemoveRepeatGroup(ctx, "teacher-1", slots[0].RepeatGroupID)
	assert.ErrorIs(t, err, ErrRepeatGroupEmpty)
}

func TestServiceListWeek(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	svc, _ := newTestService(store, 20)
	monday := NewDate(2024, time.March, 4)

	_, err := svc.AddAvailability(ctx, AddAvailabilityRequest{
		TeacherID: "teacher-1", Date: monday, StartHour: 10, EndHour: 11, Capacity: 1, RepeatWeeks: 2,
	})
	require.NoError(t, err)

	week, err := svc.ListWeek(ctx, "teacher-1", monday)
	require.NoError(t, err)
	require.Len(t, week, 1, "second occurrence falls in the next week")
	assert.Equal(t, monday, week[0].Date)

	empty, err := svc.ListWeek(ctx, "nobody", monday)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestServiceBook(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	svc, _ := newTestService(store, 45)
	day := NewDate(2024, time.March, 4)

	_, err := svc.AddAvailability(ctx, AddAvailabilityRequest{
		TeacherID: "teacher-1", Date: day, StartHour: 10, EndHour: 12, Capacity: 1,
	})
	require.NoError(t, err)

	b, err := svc.Book(ctx, BookRequest{
		StudentID: "student-1", TeacherID: "teacher-1", Date: day, StartHour: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 90.0, b.Price, "two hours at the teacher's rate")
	assert.Equal(t, StatusConfirmed, b.Status)
}

func TestServiceBookBulk(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	svc, _ := newTestService(store, 20)
	day := NewDate(2024, time.March, 4)

	t.Run("requires at least two weeks", func(t *testing.T) {
		_, err := svc.BookBulk(ctx, BookRequest{
			StudentID: "student-1", TeacherID: "teacher-1", Date: day, StartHour: 10, RepeatWeeks: 1,
		})
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})

	t.Run("books weekly occurrences", func(t *testing.T) {
		_, err := svc.AddAvailability(ctx, AddAvailabilityRequest{
			TeacherID: "teacher-1", Date: day, StartHour: 10, EndHour: 11, Capacity: 1, RepeatWeeks: 3,
		})
		require.NoError(t, err)

		result, err := svc.BookBulk(ctx, BookRequest{
			StudentID: "student-1", TeacherID: "teacher-1", Date: day, StartHour: 10, RepeatWeeks: 3,
		})
		require.NoError(t, err)
		assert.Len(t, result.Succeeded(), 3)
	})
}

func TestServiceBookingLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	svc, dispatcher := newTestService(store, 20)
	day := NewDate(2024, time.March, 4)

	_, err := svc.AddAvailability(ctx, AddAvailabilityRequest{
		TeacherID: "teacher-1", Date: day, StartHour: 10, EndHour: 11, Capacity: 1,
	})
	require.NoError(t, err)

	b, err := svc.Book(ctx, BookRequest{
		StudentID: "student-1", TeacherID: "teacher-1", Date: day, StartHour: 10,
	})
	require.NoError(t, err)

	t.Run("only the teacher completes", func(t *testing.T) {
		_, err := svc.CompleteBooking(ctx, b.ID, "student-1")
		assert.ErrorIs(t, err, ErrPermissionDenied)

		updated, err := svc.CompleteBooking(ctx, b.ID, "teacher-1")
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, updated.Status)
	})

	t.Run("homework by teacher only", func(t *testing.T) {
		_, err := svc.SetHomework(ctx, b.ID, "student-1", "https://example.com/hw")
		assert.ErrorIs(t, err, ErrPermissionDenied)

		updated, err := svc.SetHomework(ctx, b.ID, "teacher-1", "https://example.com/hw")
		require.NoError(t, err)
		require.NotNil(t, updated.Homework)
	})

	t.Run("feedback by student only", func(t *testing.T) {
		_, err := svc.SetFeedback(ctx, b.ID, "teacher-1", 5, "nope")
		assert.ErrorIs(t, err, ErrPermissionDenied)

		updated, err := svc.SetFeedback(ctx, b.ID, "student-1", 5, "great")
		require.NoError(t, err)
		require.NotNil(t, updated.Feedback)
		assert.Equal(t, 5, updated.Feedback.Rating)

		// Feedback dispatches a confirmation to the teacher.
		require.Eventually(t, func() bool {
			for _, e := range dispatcher.Events() {
				if e.Kind == notify.KindFeedbackConfirmation {
					return true
				}
			}
			return false
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("remove feedback", func(t *testing.T) {
		updated, err := svc.RemoveFeedback(ctx, b.ID, "student-1")
		require.NoError(t, err)
		assert.Nil(t, updated.Feedback)
	})

	t.Run("completed booking cannot be cancelled", func(t *testing.T) {
		_, err := svc.CancelBooking(ctx, b.ID, "student-1")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestServiceCancelBooking(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	svc, _ := newTestService(store, 20)
	day := NewDate(2024, time.March, 4)

	_, err := svc.AddAvailability(ctx, AddAvailabilityRequest{
		TeacherID: "teacher-1", Date: day, StartHour: 10, EndHour: 11, Capacity: 1,
	})
	require.NoError(t, err)

	b, err := svc.Book(ctx, BookRequest{
		StudentID: "student-1", TeacherID: "teacher-1", Date: day, StartHour: 10,
	})
	require.NoError(t, err)

	_, err = svc.CancelBooking(ctx, b.ID, "outsider")
	assert.ErrorIs(t, err, ErrPermissionDenied)

	updated, err := svc.CancelBooking(ctx, b.ID, "student-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)
}

func TestServiceListBookings(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	svc, _ := newTestService(store, 20)
	day := NewDate(2024, time.March, 4)

	_, err := svc.AddAvailability(ctx, AddAvailabilityRequest{
		TeacherID: "teacher-1", Date: day, StartHour: 9, EndHour: 10, Capacity: 1, RepeatWeeks: 3,
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.Book(ctx, BookRequest{
			StudentID: "student-1", TeacherID: "teacher-1", Date: day.AddDays(i * 7), StartHour: 9,
		})
		require.NoError(t, err)
	}

	t.Run("filter by range", func(t *testing.T) {
		from := day
		to := day.AddDays(7)
		bookings, total, err := svc.ListBookings(ctx, BookingFilter{
			TeacherID: "teacher-1", From: &from, To: &to,
		})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, bookings, 2)
	})

	t.Run("pagination", func(t *testing.T) {
		bookings, total, err := svc.ListBookings(ctx, BookingFilter{
			TeacherID: "teacher-1", Page: 2, PageSize: 2,
		})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Len(t, bookings, 1)
	})
}
