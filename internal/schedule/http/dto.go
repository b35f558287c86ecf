package http

import (
	"time"

	"github.com/tutorhive/scheduling-backend/internal/schedule"
)

// AddSlotsBody is the payload for creating availability, single or
// weekly-repeating.
type AddSlotsBody struct {
	Date        string `json:"date" binding:"required"`
	StartHour   int    `json:"start_hour" binding:"min=0,max=23"`
	EndHour     int    `json:"end_hour" binding:"required,min=1,max=24"`
	Capacity    int    `json:"capacity" binding:"required,min=1"`
	RepeatWeeks int    `json:"repeat_weeks" binding:"omitempty,min=1,max=52"`
	MeetingLink string `json:"meeting_link" binding:"omitempty,url"`
}

// RemoveSlotsBody targets either one slot (date + start_hour) or a whole
// repeat cohort (repeat_group_id).
type RemoveSlotsBody struct {
	Date          string `json:"date" binding:"omitempty"`
	StartHour     *int   `json:"start_hour" binding:"omitempty,min=0,max=23"`
	RepeatGroupID string `json:"repeat_group_id" binding:"omitempty,uuid"`
}

type SlotResponse struct {
	Date          string   `json:"date"`
	StartHour     int      `json:"start_hour"`
	EndHour       int      `json:"end_hour"`
	Capacity      int      `json:"capacity"`
	EnrolledCount int      `json:"enrolled_count"`
	EnrolledIDs   []string `json:"enrolled_ids,omitempty"`
	RepeatGroupID string   `json:"repeat_group_id,omitempty"`
	RepeatIndex   *int     `json:"repeat_index,omitempty"`
	TotalInGroup  *int     `json:"total_in_group,omitempty"`
	MeetingLink   string   `json:"meeting_link,omitempty"`
}

func NewSlotResponse(s schedule.TimeSlot) SlotResponse {
	resp := SlotResponse{
		Date:          s.Date.String(),
		StartHour:     s.StartHour,
		EndHour:       s.EndHour,
		Capacity:      s.Capacity,
		EnrolledCount: len(s.EnrolledIDs),
		EnrolledIDs:   s.EnrolledIDs,
		RepeatGroupID: s.RepeatGroupID,
		MeetingLink:   s.MeetingLink,
	}
	if s.RepeatGroupID != "" {
		idx, total := s.RepeatIndex, s.TotalInGroup
		resp.RepeatIndex = &idx
		resp.TotalInGroup = &total
	}
	return resp
}

// CreateBookingBody is the payload for booking a slot, optionally repeating
// weekly.
type CreateBookingBody struct {
	TeacherID   string `json:"teacher_id" binding:"required,uuid"`
	Date        string `json:"date" binding:"required"`
	StartHour   int    `json:"start_hour" binding:"min=0,max=23"`
	RepeatWeeks int    `json:"repeat_weeks" binding:"omitempty,min=1,max=52"`
}

type HomeworkBody struct {
	Link string `json:"link" binding:"required,url"`
}

type FeedbackBody struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"omitempty,max=2000"`
}

type HomeworkResponse struct {
	Link    string    `json:"link"`
	AddedAt time.Time `json:"added_at"`
}

type FeedbackResponse struct {
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type BookingResponse struct {
	ID           string            `json:"id"`
	StudentID    string            `json:"student_id"`
	TeacherID    string            `json:"teacher_id"`
	Date         string            `json:"date"`
	StartHour    int               `json:"start_hour"`
	EndHour      int               `json:"end_hour"`
	Price        float64           `json:"price"`
	Status       string            `json:"status"`
	BulkID       string            `json:"bulk_id,omitempty"`
	LessonNumber int               `json:"lesson_number,omitempty"`
	TotalLessons int               `json:"total_lessons,omitempty"`
	Homework     *HomeworkResponse `json:"homework,omitempty"`
	Feedback     *FeedbackResponse `json:"feedback,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

func NewBookingResponse(b *schedule.Booking) BookingResponse {
	resp := BookingResponse{
		ID:           b.ID,
		StudentID:    b.StudentID,
		TeacherID:    b.TeacherID,
		Date:         b.Date.String(),
		StartHour:    b.StartHour,
		EndHour:      b.EndHour,
		Price:        b.Price,
		Status:       string(b.Status),
		BulkID:       b.BulkID,
		LessonNumber: b.LessonNumber,
		TotalLessons: b.TotalLessons,
		CreatedAt:    b.CreatedAt,
	}
	if b.Homework != nil {
		resp.Homework = &HomeworkResponse{Link: b.Homework.Link, AddedAt: b.Homework.AddedAt}
	}
	if b.Feedback != nil {
		resp.Feedback = &FeedbackResponse{
			Rating:    b.Feedback.Rating,
			Comment:   b.Feedback.Comment,
			CreatedAt: b.Feedback.CreatedAt,
			UpdatedAt: b.Feedback.UpdatedAt,
		}
	}
	return resp
}

// BulkOutcomeResponse reports the result of one occurrence within a bulk
// booking: either a booking or an error message, never both.
type BulkOutcomeResponse struct {
	Date      string           `json:"date"`
	StartHour int              `json:"start_hour"`
	Booking   *BookingResponse `json:"booking,omitempty"`
	Error     string           `json:"error,omitempty"`
}

type BulkBookingResponse struct {
	BulkID    string                `json:"bulk_id"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
	Outcomes  []BulkOutcomeResponse `json:"outcomes"`
}

func NewBulkBookingResponse(r *schedule.BulkResult) BulkBookingResponse {
	resp := BulkBookingResponse{
		BulkID:   r.BulkID,
		Outcomes: make([]BulkOutcomeResponse, len(r.Outcomes)),
	}
	for i, o := range r.Outcomes {
		out := BulkOutcomeResponse{
			Date:      o.Occurrence.Date.String(),
			StartHour: o.Occurrence.StartHour,
		}
		if o.Booking != nil {
			b := NewBookingResponse(o.Booking)
			out.Booking = &b
			resp.Succeeded++
		} else if o.Err != nil {
			out.Error = o.Err.Error()
			resp.Failed++
		}
		resp.Outcomes[i] = out
	}
	return resp
}
