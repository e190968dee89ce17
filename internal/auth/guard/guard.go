// Package guard makes authorization decisions. Every function is a pure
// check over already-loaded state: no mutation, safe to call repeatedly
// and concurrently.
package guard

import (
	"context"

	authservice "alumnet/internal/auth/service"
	collegeservice "alumnet/internal/college/service"
	identitymodels "alumnet/internal/identity/models"
	identityservice "alumnet/internal/identity/service"
	id "alumnet/pkg/domain"
	dErrors "alumnet/pkg/domain-errors"
)

// Guard resolves bearer tokens to identities and answers permission
// questions about them.
type Guard struct {
	sessions   *authservice.Service
	identities *identityservice.Service
	colleges   *collegeservice.Registry
}

// New constructs the access control guard.
func New(sessions *authservice.Service, identities *identityservice.Service, colleges *collegeservice.Registry) *Guard {
	return &Guard{sessions: sessions, identities: identities, colleges: colleges}
}

// RequireAuthenticated verifies the session token, loads the identity, and
// enforces the verification gate.
//
// Errors: CodeUnauthorized when the token is invalid/expired or the
// identity no longer exists; CodeForbidden when the account is unverified.
func (g *Guard) RequireAuthenticated(ctx context.Context, bearer string) (*identitymodels.User, error) {
	session, err := g.sessions.VerifySessionToken(ctx, bearer)
	if err != nil {
		return nil, err
	}
	user, err := g.identities.FindByID(ctx, session.UserID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, err
	}
	if !user.IsVerified {
		return nil, dErrors.New(dErrors.CodeForbidden, "account pending verification")
	}
	return user, nil
}

// RequireRole enforces role membership.
func (g *Guard) RequireRole(identity *identitymodels.User, allowed ...id.Role) error {
	for _, role := range allowed {
		if identity.Role == role {
			return nil
		}
	}
	return dErrors.Newf(dErrors.CodeForbidden, "role %q is not permitted", identity.Role)
}

// RequireSameTenant enforces that the identity and the resource share a
// college.
func (g *Guard) RequireSameTenant(identity *identitymodels.User, resourceCollege id.CollegeID) error {
	if identity.CollegeID != resourceCollege {
		return dErrors.New(dErrors.CodeTenantMismatch, "resource belongs to another college")
	}
	return nil
}

// RequireTenantAdmin passes for the admin role or for a user on the
// college's admin list.
func (g *Guard) RequireTenantAdmin(ctx context.Context, identity *identitymodels.User) error {
	if identity.Role == id.RoleAdmin {
		return nil
	}
	college, err := g.colleges.Get(ctx, identity.CollegeID)
	if err != nil {
		return err
	}
	if !college.HasAdmin(identity.ID) {
		return dErrors.New(dErrors.CodeForbidden, "college admin privileges required")
	}
	return nil
}
