package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/compliance-case-api/internal/dto"
	"github.com/noah-isme/compliance-case-api/internal/models"
	appErrors "github.com/noah-isme/compliance-case-api/pkg/errors"
	"github.com/noah-isme/compliance-case-api/pkg/response"
)

type statusService interface {
	ListStatuses(ctx context.Context, includeInactive bool) ([]models.Status, error)
	GetStatus(ctx context.Context, id string) (*models.Status, error)
	CreateStatus(ctx context.Context, req dto.StatusRequest) (*models.Status, error)
	UpdateStatus(ctx context.Context, id string, req dto.StatusRequest) (*models.Status, error)
}

// StatusHandler exposes the status catalog.
type StatusHandler struct {
	service statusService
}

// NewStatusHandler builds a new handler.
func NewStatusHandler(service statusService) *StatusHandler {
	return &StatusHandler{service: service}
}

// List godoc
// @Summary List case statuses
// @Tags Statuses
// @Produce json
// @Param include_inactive query bool false "Include deactivated statuses"
// @Success 200 {object} response.Envelope
// @Router /statuses [get]
func (h *StatusHandler) List(c *gin.Context) {
	includeInactive, _ := strconv.ParseBool(c.DefaultQuery("include_inactive", "false"))
	statuses, err := h.service.ListStatuses(c.Request.Context(), includeInactive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, statuses, nil)
}

// Get godoc
// @Summary Get a case status
// @Tags Statuses
// @Produce json
// @Param id path string true "Status ID"
// @Success 200 {object} response.Envelope
// @Router /statuses/{id} [get]
func (h *StatusHandler) Get(c *gin.Context) {
	status, err := h.service.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Create godoc
// @Summary Add a case status
// @Tags Statuses
// @Accept json
// @Produce json
// @Param payload body dto.StatusRequest true "Status payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /statuses [post]
func (h *StatusHandler) Create(c *gin.Context) {
	var req dto.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	status, err := h.service.CreateStatus(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, status)
}

// Update godoc
// @Summary Rename, re-time or deactivate a case status
// @Tags Statuses
// @Accept json
// @Produce json
// @Param id path string true "Status ID"
// @Param payload body dto.StatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /statuses/{id} [put]
func (h *StatusHandler) Update(c *gin.Context) {
	var req dto.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	status, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}
