package main

import (
	"context"

	"github.com/erp/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// gormRoleNameResolver resolves a JWT's role IDs to role names via
// identity.RoleRepository, implementing middleware.RoleNameResolver so
// ProcurementRateLimit can classify a caller's tier without re-decoding
// permissions on every request. It lives in cmd/server rather than the
// middleware package to avoid an import cycle with infrastructure/ratelimit.
type gormRoleNameResolver struct {
	roles identity.RoleRepository
}

func newGormRoleNameResolver(roles identity.RoleRepository) *gormRoleNameResolver {
	return &gormRoleNameResolver{roles: roles}
}

// RoleNames looks up role names for the given role IDs, skipping any ID
// that fails to parse or resolve rather than failing the request.
func (r *gormRoleNameResolver) RoleNames(roleIDs []string) []string {
	ids := make([]uuid.UUID, 0, len(roleIDs))
	for _, raw := range roleIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}

	roles, err := r.roles.FindByIDs(context.Background(), ids)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
	}
	return names
}
