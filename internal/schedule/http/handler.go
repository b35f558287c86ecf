package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tutorhive/scheduling-backend/internal/auth"
	"github.com/tutorhive/scheduling-backend/internal/pkg/request"
	"github.com/tutorhive/scheduling-backend/internal/pkg/response"
	"github.com/tutorhive/scheduling-backend/internal/schedule"
)

type Handler struct {
	service schedule.Service
}

func NewHandler(service schedule.Service) *Handler {
	return &Handler{service: service}
}

// AddSlots creates availability for the authenticated teacher. With
// repeat_weeks > 1 the whole weekly sequence is admitted or rejected as one
// batch.
func (h *Handler) AddSlots(c *gin.Context) {
	teacherID, ok := h.requireSelf(c)
	if !ok {
		return
	}

	var body AddSlotsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	date, err := schedule.ParseDate(body.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slots, err := h.service.AddAvailability(c.Request.Context(), schedule.AddAvailabilityRequest{
		TeacherID:   teacherID,
		Date:        date,
		StartHour:   body.StartHour,
		EndHour:     body.EndHour,
		Capacity:    body.Capacity,
		RepeatWeeks: body.RepeatWeeks,
		MeetingLink: body.MeetingLink,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]SlotResponse, len(slots))
	for i, s := range slots {
		items[i] = NewSlotResponse(s)
	}
	c.JSON(http.StatusCreated, gin.H{"slots": items})
}

// RemoveSlots removes one slot or a whole repeat cohort, depending on the
// payload.
func (h *Handler) RemoveSlots(c *gin.Context) {
	teacherID, ok := h.requireSelf(c)
	if !ok {
		return
	}

	var body RemoveSlotsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()

	if body.RepeatGroupID != "" {
		removed, err := h.service.RemoveRepeatGroup(ctx, teacherID, body.RepeatGroupID)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"removed": removed})
		return
	}

	if body.Date == "" || body.StartHour == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "either repeat_group_id or date and start_hour are required"})
		return
	}

	date, err := schedule.ParseDate(body.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.RemoveSlot(ctx, teacherID, date, *body.StartHour); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": 1})
}

// ListSlots returns a teacher's offerable slots for the week starting at
// week_start (defaults to today).
func (h *Handler) ListSlots(c *gin.Context) {
	teacherID := c.Param("id")
	if _, err := uuid.Parse(teacherID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	weekStart := schedule.DateOf(time.Now())
	if v := c.Query("week_start"); v != "" {
		d, err := schedule.ParseDate(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		weekStart = d
	}

	slots, err := h.service.ListWeek(c.Request.Context(), teacherID, weekStart)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]SlotResponse, len(slots))
	for i, s := range slots {
		items[i] = NewSlotResponse(s)
	}
	c.JSON(http.StatusOK, gin.H{"week_start": weekStart.String(), "slots": items})
}

// CreateBooking books a slot for the authenticated student. With
// repeat_weeks > 1 each weekly occurrence is allocated independently and the
// per-occurrence outcomes are reported.
func (h *Handler) CreateBooking(c *gin.Context) {
	studentID := auth.GetUserID(c)
	if studentID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body CreateBookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	date, err := schedule.ParseDate(body.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := schedule.BookRequest{
		StudentID:   studentID,
		TeacherID:   body.TeacherID,
		Date:        date,
		StartHour:   body.StartHour,
		RepeatWeeks: body.RepeatWeeks,
	}

	ctx := c.Request.Context()

	if body.RepeatWeeks > 1 {
		result, err := h.service.BookBulk(ctx, req)
		if err != nil {
			response.Error(c, err)
			return
		}
		resp := NewBulkBookingResponse(result)
		status := http.StatusCreated
		if resp.Succeeded == 0 {
			status = http.StatusConflict
		}
		c.JSON(status, resp)
		return
	}

	b, err := h.service.Book(ctx, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewBookingResponse(b))
}

// ListBookings returns the authenticated user's bookings, as student or
// teacher depending on which side they are on.
func (h *Handler) ListBookings(c *gin.Context) {
	userID := auth.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := schedule.BookingFilter{Page: page, PageSize: pageSize}
	if c.Query("as") == "teacher" {
		filter.TeacherID = userID
	} else {
		filter.StudentID = userID
	}
	if v := c.Query("status"); v != "" {
		filter.Status = schedule.Status(v)
		if !filter.Status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
	}
	if v := c.Query("from"); v != "" {
		d, err := schedule.ParseDate(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.From = &d
	}
	if v := c.Query("to"); v != "" {
		d, err := schedule.ParseDate(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.To = &d
	}

	bookings, total, err := h.service.ListBookings(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, page, pageSize, total))
}

// GetBooking returns one booking. Only the student or teacher on the booking
// may read it.
func (h *Handler) GetBooking(c *gin.Context) {
	b, ok := h.loadBookingForParty(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// Complete marks a confirmed booking as completed. Teacher action.
func (h *Handler) Complete(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	b, err := h.service.CompleteBooking(c.Request.Context(), id, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// Cancel cancels a confirmed booking. Either party may cancel.
func (h *Handler) Cancel(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	b, err := h.service.CancelBooking(c.Request.Context(), id, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// SetHomework attaches or replaces the homework link. Teacher action.
func (h *Handler) SetHomework(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	var body HomeworkBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	b, err := h.service.SetHomework(c.Request.Context(), id, auth.GetUserID(c), body.Link)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// SetFeedback attaches or updates the student's feedback.
func (h *Handler) SetFeedback(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	var body FeedbackBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	b, err := h.service.SetFeedback(c.Request.Context(), id, auth.GetUserID(c), body.Rating, body.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// RemoveFeedback clears the student's feedback without changing the booking
// status.
func (h *Handler) RemoveFeedback(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	b, err := h.service.RemoveFeedback(c.Request.Context(), id, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// requireSelf ensures the authenticated user is the teacher in the path.
func (h *Handler) requireSelf(c *gin.Context) (string, bool) {
	teacherID := c.Param("id")
	if _, err := uuid.Parse(teacherID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return "", false
	}
	if auth.GetUserID(c) != teacherID {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return "", false
	}
	return teacherID, true
}

func (h *Handler) bookingID(c *gin.Context) (string, bool) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return "", false
	}
	return req.ID, true
}

func (h *Handler) loadBookingForParty(c *gin.Context) (*schedule.Booking, bool) {
	id, ok := h.bookingID(c)
	if !ok {
		return nil, false
	}

	b, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}

	userID := auth.GetUserID(c)
	if b.StudentID != userID && b.TeacherID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return nil, false
	}
	return b, true
}
