package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/campuspulse/server/internal/app/models"
	"github.com/campuspulse/server/internal/app/models/dto"
	"github.com/campuspulse/server/internal/app/services"
	"github.com/campuspulse/server/internal/middleware"
)

// ClubController handles club operations
type ClubController struct {
	clubService *services.ClubService
	logger      zerolog.Logger
}

// NewClubController creates a new ClubController
func NewClubController(clubService *services.ClubService, logger zerolog.Logger) *ClubController {
	return &ClubController{
		clubService: clubService,
		logger:      logger,
	}
}

// CreateClub handles a club application
// @Summary Apply for a new club
// @Description Creates a club in pending status and emails a verification code to the faculty advisor. Multipart request with a required logo image.
// @Tags clubs
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param clubName formData string true "Club name"
// @Param clubDescription formData string true "Description"
// @Param facultyName formData string true "Faculty advisor name"
// @Param facultyEmail formData string true "Faculty advisor email"
// @Param facultyDepartment formData string true "Faculty department"
// @Param logo formData file true "Club logo image"
// @Success 201 {object} dto.APIResponse{data=dto.CreateClubResponse}
// @Failure 400 {object} dto.ErrorResponse "Missing or non-image logo"
// @Failure 409 {object} dto.ErrorResponse "Name taken or organizer already owns a club"
// @Router /clubs [post]
func (c *ClubController) CreateClub(ctx *gin.Context) {
	var req dto.CreateClubRequest
	if err := ctx.ShouldBind(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	// Absent file is reported by the service as a validation failure
	logo, _ := ctx.FormFile("logo")

	resp, err := c.clubService.CreateClub(ctx.Request.Context(), ctx.GetInt64("userID"), &req, logo)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{Data: resp})
}

// VerifyFaculty handles the faculty verification code
// @Summary Verify a club with the faculty code
// @Tags clubs
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body dto.VerifyFacultyRequest true "Club and code"
// @Success 200 {object} dto.APIResponse{data=dto.VerifyFacultyResponse}
// @Failure 400 {object} dto.ErrorResponse "Wrong code"
// @Failure 410 {object} dto.ErrorResponse "Code expired"
// @Router /clubs/verify-faculty [post]
func (c *ClubController) VerifyFaculty(ctx *gin.Context) {
	var req dto.VerifyFacultyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	resp, err := c.clubService.VerifyFaculty(ctx.Request.Context(), ctx.GetInt64("userID"), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: resp})
}

// ResendFacultyOTP sends a fresh faculty verification code
// @Summary Resend the faculty verification code
// @Tags clubs
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body dto.ResendFacultyOTPRequest true "Club"
// @Success 200 {object} dto.APIResponse{data=dto.ResendOTPResponse}
// @Failure 429 {object} dto.ErrorResponse "Resend requested too soon"
// @Router /clubs/resend-faculty-otp [post]
func (c *ClubController) ResendFacultyOTP(ctx *gin.Context) {
	var req dto.ResendFacultyOTPRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	resp, err := c.clubService.ResendFacultyOTP(ctx.Request.Context(), ctx.GetInt64("userID"), req.ClubID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: resp})
}

// GetMyClub returns the caller's own club
// @Summary The organizer's own club
// @Tags clubs
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.APIResponse{data=dto.ClubResponse}
// @Router /clubs/me [get]
func (c *ClubController) GetMyClub(ctx *gin.Context) {
	resp, err := c.clubService.GetMyClub(ctx.Request.Context(), ctx.GetInt64("userID"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: resp})
}

// GetClubs lists clubs
// @Summary List clubs
// @Tags clubs
// @Produce json
// @Param search query string false "Filter by name"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.ClubListResponse}
// @Router /clubs [get]
func (c *ClubController) GetClubs(ctx *gin.Context) {
	var filter dto.ClubFilterRequest
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid filter parameters"),
		})
		return
	}

	resp, err := c.clubService.GetClubs(ctx.Request.Context(), &filter, isAdmin(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: resp})
}

// GetClubByID returns a club
// @Summary Club detail
// @Tags clubs
// @Produce json
// @Param id path int true "Club ID"
// @Success 200 {object} dto.APIResponse{data=dto.ClubResponse}
// @Failure 404 {object} dto.ErrorResponse "Not found or not visible"
// @Router /clubs/{id} [get]
func (c *ClubController) GetClubByID(ctx *gin.Context) {
	clubID, err := pathID(ctx, "id")
	if err != nil {
		return
	}

	resp, err := c.clubService.GetClubByID(ctx.Request.Context(), clubID, ctx.GetInt64("userID"), isAdmin(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: resp})
}

// UpdateStatus applies an admin review decision
// @Summary Approve or reject a club (admin)
// @Tags clubs
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Club ID"
// @Param request body dto.UpdateClubStatusRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=dto.ClubResponse}
// @Router /clubs/{id}/status [patch]
func (c *ClubController) UpdateStatus(ctx *gin.Context) {
	clubID, err := pathID(ctx, "id")
	if err != nil {
		return
	}

	var req dto.UpdateClubStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	resp, err := c.clubService.UpdateStatus(ctx.Request.Context(), clubID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: resp})
}

var errInvalidPathParam = errors.New("invalid path parameter")

func isAdmin(ctx *gin.Context) bool {
	userType, _ := ctx.Get("userType")
	typeStr, ok := userType.(string)
	return ok && typeStr == string(models.UserTypeAdmin)
}

func pathID(ctx *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id < 1 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid "+name+" parameter")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, errInvalidPathParam
	}
	return id, nil
}
