package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/campuspulse/server/internal/app/models/dto"
	"github.com/campuspulse/server/internal/app/services"
	"github.com/campuspulse/server/internal/middleware"
)

// EventController handles event operations
type EventController struct {
	eventService *services.EventService
	logger       zerolog.Logger
}

// NewEventController creates a new EventController
func NewEventController(eventService *services.EventService, logger zerolog.Logger) *EventController {
	return &EventController{
		eventService: eventService,
		logger:       logger,
	}
}

// CreateEvent publishes a new event
// @Summary Create an event
// @Description Publishes an event with a custom registration form and optional manual payment. Requires an approved club.
// @Tags events
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body dto.CreateEventRequest true "Event definition"
// @Success 201 {object} dto.APIResponse{data=dto.EventResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid form schema or schedule"
// @Failure 403 {object} dto.ErrorResponse "Club not approved"
// @Router /events [post]
func (c *EventController) CreateEvent(ctx *gin.Context) {
	var req dto.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	resp, err := c.eventService.CreateEvent(ctx.Request.Context(), ctx.GetInt64("userID"), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{Data: resp})
}

// GetEvents lists events
// @Summary List events
// @Tags events
// @Produce json
// @Param search query string false "Filter by title or club name"
// @Param clubId query int false "Filter by club"
// @Param upcoming query bool false "Only events that have not ended"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.EventListResponse}
// @Router /events [get]
func (c *EventController) GetEvents(ctx *gin.Context) {
	var filter dto.EventFilterRequest
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid filter parameters"),
		})
		return
	}

	resp, err := c.eventService.GetEvents(ctx.Request.Context(), &filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: resp})
}

// GetEventByID returns an event with its registration form
// @Summary Event detail
// @Tags events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=dto.EventResponse}
// @Router /events/{id} [get]
func (c *EventController) GetEventByID(ctx *gin.Context) {
	eventID, err := pathID(ctx, "id")
	if err != nil {
		return
	}

	resp, err := c.eventService.GetEventByID(ctx.Request.Context(), eventID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: resp})
}

// UpdateEvent edits an event, owner only
// @Summary Update an event
// @Tags events
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Event ID"
// @Param request body dto.UpdateEventRequest true "New event definition"
// @Success 200 {object} dto.APIResponse{data=dto.EventResponse}
// @Router /events/{id} [put]
func (c *EventController) UpdateEvent(ctx *gin.Context) {
	eventID, err := pathID(ctx, "id")
	if err != nil {
		return
	}

	var req dto.UpdateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	resp, err := c.eventService.UpdateEvent(ctx.Request.Context(), ctx.GetInt64("userID"), eventID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: resp})
}

// DeleteEvent removes an event, owner only
// @Summary Delete an event
// @Tags events
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Router /events/{id} [delete]
func (c *EventController) DeleteEvent(ctx *gin.Context) {
	eventID, err := pathID(ctx, "id")
	if err != nil {
		return
	}

	if err := c.eventService.DeleteEvent(ctx.Request.Context(), ctx.GetInt64("userID"), eventID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: dto.SuccessResponse{Message: "Event deleted"}})
}

// MarkAttendance records a scanned attendance QR
// @Summary Record attendance from a scanned QR code
// @Description Verifies the signed code and marks the registration attended. A repeated scan reports the earlier check-in.
// @Tags events
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Event ID"
// @Param request body dto.AttendanceRequest true "Scanned code"
// @Success 200 {object} dto.APIResponse{data=dto.AttendanceResponse}
// @Failure 400 {object} dto.ErrorResponse "Code invalid or for another event"
// @Router /events/{id}/attendance [post]
func (c *EventController) MarkAttendance(ctx *gin.Context) {
	eventID, err := pathID(ctx, "id")
	if err != nil {
		return
	}

	var req dto.AttendanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	resp, err := c.eventService.MarkAttendance(ctx.Request.Context(), ctx.GetInt64("userID"), eventID, req.Code)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: resp})
}
