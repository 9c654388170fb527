package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/compliance-case-api/internal/dto"
	"github.com/noah-isme/compliance-case-api/internal/models"
	appErrors "github.com/noah-isme/compliance-case-api/pkg/errors"
	"github.com/noah-isme/compliance-case-api/pkg/response"
)

type caseService interface {
	ListCases(ctx context.Context, actor models.Actor, query dto.CaseListQuery) ([]models.CaseView, *models.Pagination, error)
	GetCase(ctx context.Context, actor models.Actor, caseID string) (*models.CaseView, error)
	ApplyTransition(ctx context.Context, actor models.Actor, caseID string, change models.TransitionChange) (*models.CommittedTransition, error)
	GetHistory(ctx context.Context, actor models.Actor, caseID string) ([]models.HistoryEntry, error)
	ExportHistory(ctx context.Context, actor models.Actor, caseID, format string) (*dto.HistoryExport, error)
}

// CaseHandler exposes the staff-facing case endpoints.
type CaseHandler struct {
	service caseService
}

// NewCaseHandler builds a new handler.
func NewCaseHandler(service caseService) *CaseHandler {
	return &CaseHandler{service: service}
}

// List godoc
// @Summary List cases of the caller's organization
// @Tags Cases
// @Produce json
// @Param case_type query string false "DPR or GRIEVANCE"
// @Param status_id query string false "Status ID"
// @Param assigned_to query string false "Assignee user ID"
// @Param open_only query bool false "Only cases not yet closed"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /cases [get]
func (h *CaseHandler) List(c *gin.Context) {
	var query dto.CaseListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid case query"))
		return
	}
	views, pagination, err := h.service.ListCases(c.Request.Context(), actorFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, pagination)
}

// Get godoc
// @Summary Get a case with its deadline figures
// @Tags Cases
// @Produce json
// @Param id path string true "Case ID"
// @Success 200 {object} response.Envelope
// @Router /cases/{id} [get]
func (h *CaseHandler) Get(c *gin.Context) {
	view, err := h.service.GetCase(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Transition godoc
// @Summary Change a case's status, assignee or add a comment
// @Description Omitted fields are left alone; assigned_to_user_id null unassigns. Only admins may change the assignee.
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param payload body dto.TransitionRequest true "Transition payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /cases/{id} [patch]
func (h *CaseHandler) Transition(c *gin.Context) {
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid transition payload"))
		return
	}
	committed, err := h.service.ApplyTransition(c.Request.Context(), actorFromContext(c), c.Param("id"), req.ToChange())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.TransitionResponse{
		Case:         committed.Case,
		History:      committed.History,
		Notification: committed.Notification,
		Attempts:     committed.Attempts,
	}, nil)
}

// History godoc
// @Summary Get a case's audit trail
// @Tags Cases
// @Produce json
// @Param id path string true "Case ID"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/history [get]
func (h *CaseHandler) History(c *gin.Context) {
	entries, err := h.service.GetHistory(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// ExportHistory godoc
// @Summary Download a case's audit trail
// @Tags Cases
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Case ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /cases/{id}/history/export [get]
func (h *CaseHandler) ExportHistory(c *gin.Context) {
	doc, err := h.service.ExportHistory(c.Request.Context(), actorFromContext(c), c.Param("id"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.Filename, doc.ContentType, doc.Body)
}
