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

type caseCreator interface {
	CreateCase(ctx context.Context, input dto.CreateCaseInput) (*models.CaseRecord, error)
}

type linkResolver interface {
	ResolveOrganization(ctx context.Context, token string) (*models.Organization, error)
}

// PublicHandler accepts submissions from data principals through an organization's request link.
type PublicHandler struct {
	cases caseCreator
	links linkResolver
}

// NewPublicHandler builds a new handler.
func NewPublicHandler(cases caseCreator, links linkResolver) *PublicHandler {
	return &PublicHandler{cases: cases, links: links}
}

// SubmitRequest godoc
// @Summary Submit a data principal request
// @Tags Public
// @Accept json
// @Produce json
// @Param token path string true "Request link token"
// @Param payload body dto.CreateCaseRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /public/requests/{token} [post]
func (h *PublicHandler) SubmitRequest(c *gin.Context) {
	h.submit(c, models.CaseTypeDPR)
}

// SubmitGrievance godoc
// @Summary Submit a grievance
// @Tags Public
// @Accept json
// @Produce json
// @Param token path string true "Request link token"
// @Param payload body dto.CreateCaseRequest true "Grievance payload"
// @Success 201 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /public/grievances/{token} [post]
func (h *PublicHandler) SubmitGrievance(c *gin.Context) {
	h.submit(c, models.CaseTypeGrievance)
}

func (h *PublicHandler) submit(c *gin.Context, caseType models.CaseType) {
	org, err := h.links.ResolveOrganization(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}
	record, err := h.cases.CreateCase(c.Request.Context(), dto.CreateCaseInput{
		OrganizationID: org.ID,
		CaseType:       caseType,
		Request:        req,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.CaseReceipt{
		ID:        record.ID,
		CaseType:  record.CaseType,
		CreatedAt: record.CreatedAt,
		DueDate:   record.DueDate,
	})
}
