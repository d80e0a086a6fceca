package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/campuspulse/server/internal/app/models/dto"
	"github.com/campuspulse/server/internal/app/services"
	"github.com/campuspulse/server/internal/middleware"
)

// FileController handles standalone uploads
type FileController struct {
	fileService *services.FileService
	logger      zerolog.Logger
}

// NewFileController creates a new FileController
func NewFileController(fileService *services.FileService, logger zerolog.Logger) *FileController {
	return &FileController{
		fileService: fileService,
		logger:      logger,
	}
}

// UploadPaymentQR stores a payment QR image for later use in an event
// @Summary Upload a payment QR image
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param file formData file true "QR image"
// @Success 201 {object} dto.APIResponse{data=dto.FileResponse}
// @Failure 400 {object} dto.ErrorResponse "Missing or non-image file"
// @Router /files/payment-qr [post]
func (c *FileController) UploadPaymentQR(ctx *gin.Context) {
	file, _ := ctx.FormFile("file")

	resp, err := c.fileService.UploadPaymentQR(ctx.Request.Context(), ctx.GetInt64("userID"), file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{Data: resp})
}

// GetFile returns file metadata
// @Summary File metadata
// @Tags files
// @Produce json
// @Param id path int true "File ID"
// @Success 200 {object} dto.APIResponse{data=dto.FileResponse}
// @Router /files/{id} [get]
func (c *FileController) GetFile(ctx *gin.Context) {
	fileID, err := pathID(ctx, "id")
	if err != nil {
		return
	}

	resp, err := c.fileService.GetFile(ctx.Request.Context(), fileID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: resp})
}
