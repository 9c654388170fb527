package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/compliance-case-api/internal/models"
	appErrors "github.com/noah-isme/compliance-case-api/pkg/errors"
	"github.com/noah-isme/compliance-case-api/pkg/signing"
)

type linkSigner interface {
	Issue(organizationID string) (string, time.Time, error)
	Verify(token string) (string, error)
}

// RequestLinkService issues the signed public request-page links organizations hand to data
// principals, and resolves them back to an organization on submission.
type RequestLinkService struct {
	signer  linkSigner
	orgs    organizationReader
	baseURL string
	logger  *zap.Logger
}

// NewRequestLinkService constructs the service.
func NewRequestLinkService(signer linkSigner, orgs organizationReader, baseURL string, logger *zap.Logger) *RequestLinkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestLinkService{signer: signer, orgs: orgs, baseURL: baseURL, logger: logger}
}

// IssueRequestLink returns a link for the actor's own organization.
func (s *RequestLinkService) IssueRequestLink(ctx context.Context, actor models.Actor, organizationID string) (*models.RequestLink, error) {
	if !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins may issue request links")
	}
	if actor.OrganizationID == "" || actor.OrganizationID != organizationID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "organization belongs to another tenant")
	}
	org, err := s.loadOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Issue(org.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign request link")
	}
	s.logger.Info("request link issued", zap.String("organization_id", org.ID), zap.String("actor_id", actor.UserID), zap.Time("expires_at", expiresAt))
	return &models.RequestLink{
		OrganizationID: org.ID,
		Token:          token,
		URL:            s.baseURL + "/" + token,
		ExpiresAt:      expiresAt,
	}, nil
}

// ResolveOrganization verifies a link token and returns the organization it was issued for.
func (s *RequestLinkService) ResolveOrganization(ctx context.Context, token string) (*models.Organization, error) {
	organizationID, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, signing.ErrExpired) {
			return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "request link expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid request link")
	}
	return s.loadOrganization(ctx, organizationID)
}

func (s *RequestLinkService) loadOrganization(ctx context.Context, id string) (*models.Organization, error) {
	org, err := s.orgs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "organization not found")
		}
		return nil, appErrors.Internal(err, "failed to load organization")
	}
	return org, nil
}
