package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/compliance-case-api/internal/models"
	"github.com/noah-isme/compliance-case-api/pkg/response"
)

type requestLinkIssuer interface {
	IssueRequestLink(ctx context.Context, actor models.Actor, organizationID string) (*models.RequestLink, error)
}

// OrganizationHandler exposes organization administration endpoints.
type OrganizationHandler struct {
	links requestLinkIssuer
}

// NewOrganizationHandler builds a new handler.
func NewOrganizationHandler(links requestLinkIssuer) *OrganizationHandler {
	return &OrganizationHandler{links: links}
}

// IssueRequestLink godoc
// @Summary Issue the public request-page link for an organization
// @Tags Organizations
// @Produce json
// @Param id path string true "Organization ID"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /organizations/{id}/request-link [post]
func (h *OrganizationHandler) IssueRequestLink(c *gin.Context) {
	link, err := h.links.IssueRequestLink(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}
