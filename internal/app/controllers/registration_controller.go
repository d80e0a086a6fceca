package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/campuspulse/server/internal/app/models/dto"
	"github.com/campuspulse/server/internal/app/services"
	"github.com/campuspulse/server/internal/middleware"
)

// RegistrationController handles event registration operations
type RegistrationController struct {
	registrationService *services.RegistrationService
	logger              zerolog.Logger
}

// NewRegistrationController creates a new RegistrationController
func NewRegistrationController(registrationService *services.RegistrationService, logger zerolog.Logger) *RegistrationController {
	return &RegistrationController{
		registrationService: registrationService,
		logger:              logger,
	}
}

// RegisterForEvent signs the caller up for an event
// @Summary Register for an event
// @Description Validates the answers against the event's form schema. Capacity and duplicates are enforced by the store.
// @Tags registrations
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Event ID"
// @Param request body dto.RegisterForEventRequest true "Form responses keyed by field id"
// @Success 201 {object} dto.APIResponse{data=dto.RegistrationResponse}
// @Failure 400 {object} dto.ErrorResponse "Responses do not satisfy the form schema"
// @Failure 409 {object} dto.ErrorResponse "Already registered or event full"
// @Router /events/{id}/register [post]
func (c *RegistrationController) RegisterForEvent(ctx *gin.Context) {
	eventID, err := pathID(ctx, "id")
	if err != nil {
		return
	}

	var req dto.RegisterForEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	resp, err := c.registrationService.RegisterForEvent(ctx.Request.Context(), ctx.GetInt64("userID"), eventID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{Data: resp})
}

// UploadPaymentProof attaches a payment screenshot
// @Summary Upload a payment screenshot
// @Tags registrations
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Registration ID"
// @Param proof formData file true "Payment screenshot image"
// @Success 200 {object} dto.APIResponse{data=dto.RegistrationResponse}
// @Router /registrations/{id}/payment-proof [post]
func (c *RegistrationController) UploadPaymentProof(ctx *gin.Context) {
	registrationID, err := pathID(ctx, "id")
	if err != nil {
		return
	}

	proof, _ := ctx.FormFile("proof")

	resp, err := c.registrationService.UploadPaymentProof(ctx.Request.Context(), ctx.GetInt64("userID"), registrationID, proof)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: resp})
}

// GetEventRegistrations lists an event's registrations for its organizer
// @Summary List registrations for an event
// @Tags registrations
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Event ID"
// @Param status query string false "Filter by registration status"
// @Param paymentStatus query string false "Filter by payment status"
// @Success 200 {object} dto.APIResponse{data=dto.RegistrationListResponse}
// @Router /events/{id}/registrations [get]
func (c *RegistrationController) GetEventRegistrations(ctx *gin.Context) {
	eventID, err := pathID(ctx, "id")
	if err != nil {
		return
	}

	var filter dto.RegistrationFilterRequest
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid filter parameters"),
		})
		return
	}

	resp, err := c.registrationService.GetEventRegistrations(ctx.Request.Context(), ctx.GetInt64("userID"), eventID, &filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: resp})
}

// UpdateStatus applies the organizer's review decision
// @Summary Approve or reject a registration or its payment
// @Tags registrations
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Registration ID"
// @Param request body dto.UpdateRegistrationStatusRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=dto.RegistrationResponse}
// @Router /registrations/{id}/status [patch]
func (c *RegistrationController) UpdateStatus(ctx *gin.Context) {
	registrationID, err := pathID(ctx, "id")
	if err != nil {
		return
	}

	var req dto.UpdateRegistrationStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	resp, err := c.registrationService.UpdateStatus(ctx.Request.Context(), ctx.GetInt64("userID"), registrationID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: resp})
}

// GetMyRegistrations lists the caller's registrations
// @Summary My registrations
// @Tags registrations
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.RegistrationResponse}
// @Router /registrations/me [get]
func (c *RegistrationController) GetMyRegistrations(ctx *gin.Context) {
	resp, err := c.registrationService.GetMyRegistrations(ctx.Request.Context(), ctx.GetInt64("userID"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: resp})
}

// GetQRCode renders the caller's attendance QR code
// @Summary Attendance QR code for an approved registration
// @Tags registrations
// @Produce png
// @Security ApiKeyAuth
// @Param id path int true "Registration ID"
// @Success 200 {file} png
// @Failure 403 {object} dto.ErrorResponse "Registration not approved"
// @Router /registrations/{id}/qr [get]
func (c *RegistrationController) GetQRCode(ctx *gin.Context) {
	registrationID, err := pathID(ctx, "id")
	if err != nil {
		return
	}

	png, err := c.registrationService.GetQRCode(ctx.Request.Context(), ctx.GetInt64("userID"), registrationID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Data(http.StatusOK, "image/png", png)
}
