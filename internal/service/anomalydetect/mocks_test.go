package anomalydetect

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ameeeetster/iga-risk-engine/internal/domain/anomaly"
	"github.com/ameeeetster/iga-risk-engine/internal/domain/identity"
)

type mockFactProvider struct {
	mock.Mock
}

func (m *mockFactProvider) GetActivityWindow(ctx context.Context, userID string, action identity.Action, since time.Time) ([]identity.ActivityEvent, error) {
	args := m.Called(ctx, userID, action, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.ActivityEvent), args.Error(1)
}

func (m *mockFactProvider) CountRecentRequests(ctx context.Context, userID string, since time.Time) (int, error) {
	args := m.Called(ctx, userID, since)
	return args.Int(0), args.Error(1)
}

func (m *mockFactProvider) ListOrganizationUsers(ctx context.Context, orgID string) ([]string, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type mockAnomalyStore struct {
	mock.Mock
}

func (m *mockAnomalyStore) InsertAnomalies(ctx context.Context, userID string, findings []anomaly.Anomaly) error {
	args := m.Called(ctx, userID, findings)
	return args.Error(0)
}

func (m *mockAnomalyStore) MarkAnomalyReviewed(ctx context.Context, anomalyID uuid.UUID, isFalsePositive bool) error {
	args := m.Called(ctx, anomalyID, isFalsePositive)
	return args.Error(0)
}

func (m *mockAnomalyStore) ListUserAnomalies(ctx context.Context, userID string) ([]anomaly.Anomaly, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]anomaly.Anomaly), args.Error(1)
}
