package recommend

import (
	"context"

	"github.com/ameeeetster/iga-risk-engine/internal/domain/identity"
	"github.com/ameeeetster/iga-risk-engine/internal/domain/recommendation"
)

// Service defines the access recommendation engine interface.
type Service interface {
	// GetRecommendations combines all strategies for a user, then
	// deduplicates by (resourceType, resourceId) keeping the highest
	// confidence and ranks by priority then confidence. A strategy
	// with insufficient data contributes nothing, never an error.
	GetRecommendations(ctx context.Context, userID string) ([]recommendation.Recommendation, error)
}

// FactProvider is the slice of the fact-provider boundary the
// recommendation engine consumes. An empty jobTitleCore in GetPeers
// selects the whole department.
type FactProvider interface {
	GetIdentityFacts(ctx context.Context, userID string) (*identity.Facts, error)
	GetPeers(ctx context.Context, department, jobTitleCore, excludeUserID string, limit int) ([]identity.Peer, error)
	GetUserRoles(ctx context.Context, userID string) ([]identity.RoleRef, error)
	GetRolePermissions(ctx context.Context, roleID string) ([]identity.PermissionRef, error)
	GetUserPermissions(ctx context.Context, userID string) ([]identity.PermissionRef, error)
}
