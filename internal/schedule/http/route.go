package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers availability and booking routes. Slot listing is
// public so students can browse a teacher's week; everything else requires
// authentication.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	teachers := g.Group("/teachers")
	{
		teachers.GET("/:id/slots", h.ListSlots)
		teachers.POST("/:id/slots", authMiddleware, h.AddSlots)
		teachers.DELETE("/:id/slots", authMiddleware, h.RemoveSlots)
	}

	bookings := g.Group("/bookings")
	bookings.Use(authMiddleware)
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/complete", h.Complete)
		bookings.POST("/:id/cancel", h.Cancel)
		bookings.PUT("/:id/homework", h.SetHomework)
		bookings.PUT("/:id/feedback", h.SetFeedback)
		bookings.DELETE("/:id/feedback", h.RemoveFeedback)
	}
}
