package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/dkochetov/ticketbooking/internal/domain"
	"github.com/gin-gonic/gin"
)

// writeError maps domain errors to stable HTTP responses. Anything outside
// the taxonomy is logged with full detail and surfaced as a generic 500 so
// storage internals never reach the client.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEventNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Event not found"})
	case errors.Is(err, domain.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Booking not found"})
	case errors.Is(err, domain.ErrNoTicketsAvailable):
		c.JSON(http.StatusConflict, gin.H{"message": "No tickets available"})
	case errors.Is(err, domain.ErrAlreadyBooked):
		c.JSON(http.StatusConflict, gin.H{"message": "Already booked"})
	case errors.Is(err, domain.ErrAlreadyCancelled):
		c.JSON(http.StatusConflict, gin.H{"message": "Booking is already cancelled"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "You can only cancel your own bookings"})
	case errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"message": "User with this email already exists"})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}
