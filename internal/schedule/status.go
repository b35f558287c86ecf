package schedule

import "time"

// Status is the lifecycle state of a booked session. A bare slot with no
// booking is "available"; a Booking is always created directly in
// "confirmed". "completed" and "cancelled" are terminal.
type Status string

const (
	StatusAvailable Status = "available"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var allowedTransitions = map[Status][]Status{
	StatusAvailable: {StatusConfirmed},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	// terminal states allow no further transitions
	StatusCompleted: nil,
	StatusCancelled: nil,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range allowedTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// TransitionTo moves the booking into next, rejecting transitions out of
// terminal states.
func (b *Booking) TransitionTo(next Status, now time.Time) error {
	if !next.Valid() {
		return ErrInvalidTransition
	}
	if !b.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	b.Status = next
	b.UpdatedAt = now
	return nil
}

// canAttach reports whether homework/feedback mutation is allowed in the
// booking's current state.
func (b *Booking) canAttach() bool {
	return b.Status == StatusConfirmed || b.Status == StatusCompleted
}

// SetHomework attaches or replaces the homework link. Rejected once the
// booking is cancelled.
func (b *Booking) SetHomework(link string, now time.Time) error {
	if !b.canAttach() {
		return ErrBookingCancelled
	}
	b.Homework = &Homework{Link: link, AddedAt: now}
	b.UpdatedAt = now
	return nil
}

// SetFeedback attaches or updates feedback. Rating must be 1..5. Rejected
// once the booking is cancelled.
func (b *Booking) SetFeedback(rating int, comment string, now time.Time) error {
	if !b.canAttach() {
		return ErrBookingCancelled
	}
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	createdAt := now
	if b.Feedback != nil {
		createdAt = b.Feedback.CreatedAt
	}
	b.Feedback = &Feedback{
		Rating:    rating,
		Comment:   comment,
		CreatedAt: createdAt,
		UpdatedAt: now,
	}
	b.UpdatedAt = now
	return nil
}

// ClearFeedback removes feedback without changing the booking status.
func (b *Booking) ClearFeedback(now time.Time) error {
	if !b.canAttach() {
		return ErrBookingCancelled
	}
	b.Feedback = nil
	b.UpdatedAt = now
	return nil
}
