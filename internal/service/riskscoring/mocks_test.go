package riskscoring

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ameeeetster/iga-risk-engine/internal/domain/identity"
	"github.com/ameeeetster/iga-risk-engine/internal/domain/risk"
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

func (m *mockFactProvider) GetRequestFacts(ctx context.Context, requestID string) (*identity.RequestFacts, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.RequestFacts), args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetAssessment(ctx context.Context, userID string) (*risk.Assessment, bool) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*risk.Assessment), args.Bool(1)
}

func (m *mockCache) PutAssessment(ctx context.Context, userID string, a *risk.Assessment, ttl time.Duration) {
	m.Called(ctx, userID, a, ttl)
}
