package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dkochetov/ticketbooking/internal/domain"
	"github.com/dkochetov/ticketbooking/internal/repository"
	"github.com/dkochetov/ticketbooking/internal/service/events"
	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	service events.EventUseCase
}

type eventResponse struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	Date             string  `json:"date"`
	Venue            string  `json:"venue"`
	Price            float64 `json:"price"`
	TotalTickets     int     `json:"totalTickets"`
	RemainingTickets int     `json:"remainingTickets"`
	CreatedAt        string  `json:"createdAt"`
	UpdatedAt        string  `json:"updatedAt"`
}

type eventsListResponse struct {
	Data []eventResponse `json:"data"`
	Meta listMeta        `json:"meta"`
}

type listMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

func NewEventHandler(service events.EventUseCase) *EventHandler {
	return &EventHandler{service: service}
}

func (h *EventHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
}

func (h *EventHandler) list(c *gin.Context) {
	filter := repository.EventFilter{
		Page:      queryInt(c, "page", 1),
		Limit:     queryInt(c, "limit", 10),
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}

	list, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	data := make([]eventResponse, 0, len(list))
	for _, e := range list {
		data = append(data, toEventResponse(e))
	}

	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	c.JSON(http.StatusOK, eventsListResponse{
		Data: data,
		Meta: listMeta{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: (total + limit - 1) / limit,
		},
	})
}

func (h *EventHandler) get(c *gin.Context) {
	event, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEventResponse(*event))
}

func toEventResponse(e domain.Event) eventResponse {
	return eventResponse{
		ID:               e.ID,
		Title:            e.Title,
		Description:      e.Description,
		Date:             e.Date.Format(time.RFC3339),
		Venue:            e.Venue,
		Price:            float64(e.PriceCents) / 100,
		TotalTickets:     e.TotalTickets,
		RemainingTickets: e.RemainingTickets,
		CreatedAt:        e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        e.UpdatedAt.Format(time.RFC3339),
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
