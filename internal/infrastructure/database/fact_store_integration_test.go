//go:build integration

package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ameeeetster/iga-risk-engine/internal/domain/anomaly"
	domainerrors "github.com/ameeeetster/iga-risk-engine/internal/domain/errors"
	"github.com/ameeeetster/iga-risk-engine/internal/domain/identity"
	"github.com/ameeeetster/iga-risk-engine/internal/testutil/containers"
)

func setupFactStore(t *testing.T) (*FactStore, *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()

	pg, err := containers.NewPostgresContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	pool, err := pgxpool.New(ctx, pg.ConnectionString)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", "20250301000000_init.sql"))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)

	return NewFactStore(pool), pool
}

func TestFactStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	store, pool := setupFactStore(t)
	ctx := context.Background()

	lastLogin := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	seed := `
		INSERT INTO users (id, organization_id, department, job_title, job_title_core,
			admin_role_count, has_privileged_access, sod_violation_count,
			last_login_at, failed_login_attempts, total_role_count)
		VALUES
			('user-1', 'org-1', 'Finance', 'Senior Financial Analyst', 'financial analyst', 1, TRUE, 0, $1, 2, 4),
			('user-2', 'org-1', 'Finance', 'Financial Analyst', 'financial analyst', 0, FALSE, 0, $1, 0, 2),
			('user-3', 'org-1', 'Finance', 'Accountant', 'accountant', 0, FALSE, 0, $1, 0, 1),
			('user-4', 'org-2', 'Engineering', 'Software Engineer', 'software engineer', 0, FALSE, 0, NULL, 0, 3);

		INSERT INTO roles (id, name) VALUES ('role-ap-read', 'AP-Read'), ('role-rpt', 'Reporting');
		INSERT INTO user_roles (user_id, role_id) VALUES
			('user-2', 'role-ap-read'), ('user-2', 'role-rpt'), ('user-3', 'role-ap-read');

		INSERT INTO permissions (id, name) VALUES ('perm-ap-view', 'AP Invoice View');
		INSERT INTO role_permissions (role_id, permission_id) VALUES ('role-ap-read', 'perm-ap-view');

		INSERT INTO access_requests (id, resource_type, resource_name, requester_id, for_user_id, submitted_at, priority)
		VALUES
			('req-1', 'financial_system', 'ERP', 'user-1', '', $1, 'High'),
			('req-2', 'read_only', 'Dashboard', 'user-1', '', $1 - INTERVAL '30 days', 'Low'),
			('req-3', 'standard_application', 'Wiki', 'user-2', 'user-1', $1 - INTERVAL '1 day', 'Low');

		INSERT INTO activity_events (user_id, action, occurred_at, city, country, latitude, longitude, ip_address)
		VALUES
			('user-1', 'login', $1, 'New York', 'US', 40.7128, -74.0060, '203.0.113.10'),
			('user-1', 'login', $1 - INTERVAL '2 hours', 'London', 'GB', 51.5074, -0.1278, '203.0.113.11'),
			('user-1', 'login_failed', $1 - INTERVAL '10 days', '', '', 0, 0, '203.0.113.12');
	`
	_, err := pool.Exec(ctx, seed, lastLogin)
	require.NoError(t, err)

	t.Run("identity facts round trip", func(t *testing.T) {
		facts, err := store.GetIdentityFacts(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "org-1", facts.OrganizationID)
		assert.Equal(t, "Finance", facts.Department)
		assert.Equal(t, 1, facts.AdminRoleCount)
		assert.True(t, facts.HasPrivilegedAccess)
		require.NotNil(t, facts.LastLoginAt)
		assert.True(t, facts.LastLoginAt.Equal(lastLogin))
	})

	t.Run("never logged in scans as nil", func(t *testing.T) {
		facts, err := store.GetIdentityFacts(ctx, "user-4")
		require.NoError(t, err)
		assert.Nil(t, facts.LastLoginAt)
	})

	t.Run("unknown user maps to not found", func(t *testing.T) {
		_, err := store.GetIdentityFacts(ctx, "nobody")
		assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
	})

	t.Run("request facts round trip", func(t *testing.T) {
		facts, err := store.GetRequestFacts(ctx, "req-1")
		require.NoError(t, err)
		assert.Equal(t, "financial_system", facts.ResourceType)
		assert.Equal(t, identity.PriorityHigh, facts.Priority)

		_, err = store.GetRequestFacts(ctx, "req-x")
		assert.ErrorIs(t, err, domainerrors.ErrRequestNotFound)
	})

	t.Run("peer query filters by title core and excludes subject", func(t *testing.T) {
		peers, err := store.GetPeers(ctx, "Finance", "financial analyst", "user-1", 50)
		require.NoError(t, err)
		require.Len(t, peers, 1)
		assert.Equal(t, "user-2", peers[0].Facts.ID)
		require.Len(t, peers[0].Roles, 2)

		wholeDept, err := store.GetPeers(ctx, "Finance", "", "user-1", 50)
		require.NoError(t, err)
		assert.Len(t, wholeDept, 2)
	})

	t.Run("activity window is bounded and ordered", func(t *testing.T) {
		events, err := store.GetActivityWindow(ctx, "user-1", identity.ActionLogin, lastLogin.Add(-24*time.Hour))
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "GB", events[0].Location.Country)
		assert.Equal(t, "US", events[1].Location.Country)
		assert.InDelta(t, 40.7128, events[1].Location.Latitude, 1e-6)
	})

	t.Run("recent request count respects cutoff and counts delegated requests", func(t *testing.T) {
		// req-1 submitted by user-1, req-3 submitted by user-2 for
		// user-1; req-2 falls outside the window.
		count, err := store.CountRecentRequests(ctx, "user-1", lastLogin.Add(-7*24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		count, err = store.CountRecentRequests(ctx, "user-2", lastLogin.Add(-7*24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("role and permission lookups", func(t *testing.T) {
		roles, err := store.GetUserRoles(ctx, "user-2")
		require.NoError(t, err)
		assert.Len(t, roles, 2)

		perms, err := store.GetRolePermissions(ctx, "role-ap-read")
		require.NoError(t, err)
		require.Len(t, perms, 1)
		assert.Equal(t, "perm-ap-view", perms[0].ID)
	})

	t.Run("organization listing", func(t *testing.T) {
		ids, err := store.ListOrganizationUsers(ctx, "org-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"user-1", "user-2", "user-3"}, ids)
	})

	t.Run("anomaly persistence lifecycle", func(t *testing.T) {
		detected := time.Date(2025, 3, 4, 14, 0, 0, 0, time.UTC)
		finding := anomaly.New(anomaly.TypeImpossibleTravel, anomaly.SeverityHigh, "user-1",
			"Impossible travel between logins", "d", detected).
			WithMeta("distance_miles", "3450")
		require.NoError(t, store.InsertAnomalies(ctx, "user-1", []anomaly.Anomaly{finding}))

		stored, err := store.ListUserAnomalies(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, anomaly.TypeImpossibleTravel, stored[0].Type)
		assert.Equal(t, "3450", stored[0].Metadata["distance_miles"])
		assert.False(t, stored[0].Reviewed)

		require.NoError(t, store.MarkAnomalyReviewed(ctx, finding.ID, true))
		stored, err = store.ListUserAnomalies(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, stored[0].Reviewed)
		assert.True(t, stored[0].FalsePositive)

		assert.ErrorIs(t, store.MarkAnomalyReviewed(ctx, uuid.New(), false), domainerrors.ErrAnomalyNotFound)
	})
}
