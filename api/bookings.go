package api

import (
	"net/http"
	"time"

	"github.com/dkochetov/ticketbooking/internal/domain"
	"github.com/dkochetov/ticketbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	EventID string `json:"eventId" binding:"required"`
}

type bookingResponse struct {
	ID        string `json:"id"`
	EventID   string `json:"eventId"`
	UserID    string `json:"userId"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

type eventSummaryResponse struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	RemainingTickets int    `json:"remainingTickets"`
}

type createBookingResponse struct {
	Booking bookingResponse      `json:"booking"`
	Event   eventSummaryResponse `json:"event"`
}

type bookingListItem struct {
	bookingResponse
	Event struct {
		ID    string  `json:"id"`
		Title string  `json:"title"`
		Date  string  `json:"date"`
		Venue string  `json:"venue"`
		Price float64 `json:"price"`
	} `json:"event"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.DELETE("/:id", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	created, event, err := h.service.CreateBooking(c.Request.Context(), currentUserID(c), req.EventID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, createBookingResponse{
		Booking: toBookingResponse(created),
		Event: eventSummaryResponse{
			ID:               event.ID,
			Title:            event.Title,
			RemainingTickets: event.RemainingTickets,
		},
	})
}

func (h *BookingHandler) list(c *gin.Context) {
	bookings, err := h.service.ListBookings(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]bookingListItem, 0, len(bookings))
	for _, b := range bookings {
		var item bookingListItem
		item.bookingResponse = toBookingResponse(&b.Booking)
		item.Event.ID = b.EventID
		item.Event.Title = b.EventTitle
		item.Event.Date = b.EventDate.Format(time.RFC3339)
		item.Event.Venue = b.EventVenue
		item.Event.Price = float64(b.PriceCents) / 100
		items = append(items, item)
	}
	c.JSON(http.StatusOK, items)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	cancelled, err := h.service.CancelBooking(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(cancelled))
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:        b.ID,
		EventID:   b.EventID,
		UserID:    b.UserID,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
	}
}
