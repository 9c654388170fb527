package models

import "github.com/golang-jwt/jwt/v5"

// SystemActorID is recorded as the author of history entries produced without a signed-in user.
const SystemActorID = "system"

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID         string   `json:"user_id"`
	Role           UserRole `json:"role"`
	OrganizationID string   `json:"organization_id"`
	Email          string   `json:"email"`
	FullName       string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Actor is the authenticated principal performing a case operation.
type Actor struct {
	UserID         string
	OrganizationID string
	Role           UserRole
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// ActorFromClaims derives the acting principal from verified token claims.
func ActorFromClaims(claims *JWTClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{UserID: claims.UserID, OrganizationID: claims.OrganizationID, Role: claims.Role}
}
