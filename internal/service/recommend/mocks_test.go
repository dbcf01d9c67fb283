package recommend

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ameeeetster/iga-risk-engine/internal/domain/identity"
)

type mockFactProvider struct {
	mock.Mock
}

func (m *mockFactProvider) GetIdentityFacts(ctx context.Context, userID string) (*identity.Facts, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Facts), args.Error(1)
}

func (m *mockFactProvider) GetPeers(ctx context.Context, department, jobTitleCore, excludeUserID string, limit int) ([]identity.Peer, error) {
	args := m.Called(ctx, department, jobTitleCore, excludeUserID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.Peer), args.Error(1)
}

func (m *mockFactProvider) GetUserRoles(ctx context.Context, userID string) ([]identity.RoleRef, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.RoleRef), args.Error(1)
}

func (m *mockFactProvider) GetRolePermissions(ctx context.Context, roleID string) ([]identity.PermissionRef, error) {
	args := m.Called(ctx, roleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.PermissionRef), args.Error(1)
}

func (m *mockFactProvider) GetUserPermissions(ctx context.Context, userID string) ([]identity.PermissionRef, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.PermissionRef), args.Error(1)
}
