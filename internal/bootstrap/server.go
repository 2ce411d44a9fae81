package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dkochetov/ticketbooking/api"
	"github.com/dkochetov/ticketbooking/config"
	"github.com/dkochetov/ticketbooking/internal/service/auth"
	"github.com/dkochetov/ticketbooking/internal/service/booking"
	"github.com/dkochetov/ticketbooking/internal/service/events"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails.
func Run(ctx context.Context, cfg *config.Config, authSvc auth.AuthUseCase, eventSvc events.EventUseCase, bookingSvc booking.BookingUseCase) error {
	router := NewRouter(authSvc, eventSvc, bookingSvc)

	httpServer := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

// NewRouter wires all handlers onto a gin engine. Split from Run so handler
// tests can drive the full routing table.
func NewRouter(authSvc auth.AuthUseCase, eventSvc events.EventUseCase, bookingSvc booking.BookingUseCase) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api.NewAuthHandler(authSvc).Register(router.Group("/auth"))
	api.NewEventHandler(eventSvc).Register(router.Group("/events"))

	bookings := router.Group("/bookings")
	bookings.Use(api.AuthRequired(authSvc))
	api.NewBookingHandler(bookingSvc).Register(bookings)

	return router
}
