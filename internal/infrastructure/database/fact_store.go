package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ameeeetster/iga-risk-engine/internal/domain/anomaly"
	domainerrors "github.com/ameeeetster/iga-risk-engine/internal/domain/errors"
	"github.com/ameeeetster/iga-risk-engine/internal/domain/identity"
)

// FactStore is the PostgreSQL implementation of the fact-provider
// boundary. It is a pure query surface plus the anomaly persistence
// operations; no decision logic lives here.
type FactStore struct {
	db *pgxpool.Pool
}

// NewFactStore creates a fact store over a pgx pool.
func NewFactStore(db *pgxpool.Pool) *FactStore {
	return &FactStore{db: db}
}

// GetIdentityFacts fetches a point-in-time identity snapshot.
func (s *FactStore) GetIdentityFacts(ctx context.Context, userID string) (*identity.Facts, error) {
	query := `
		SELECT id, organization_id, department, job_title,
			admin_role_count, has_privileged_access, sod_violation_count,
			last_login_at, failed_login_attempts, total_role_count,
			last_access_review_at
		FROM users
		WHERE id = $1
	`

	var f identity.Facts
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&f.ID, &f.OrganizationID, &f.Department, &f.JobTitle,
		&f.AdminRoleCount, &f.HasPrivilegedAccess, &f.SoDViolationCount,
		&f.LastLoginAt, &f.FailedLoginAttempts, &f.TotalRoleCount,
		&f.LastAccessReviewAt,
	)
	if err == pgx.ErrNoRows {
		return nil, domainerrors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch identity facts: %w", err)
	}

	return &f, nil
}

// GetRequestFacts fetches a pending access request snapshot.
func (s *FactStore) GetRequestFacts(ctx context.Context, requestID string) (*identity.RequestFacts, error) {
	query := `
		SELECT id, resource_type, resource_name, requester_id, for_user_id,
			submitted_at, priority, sod_conflict_count, business_justification
		FROM access_requests
		WHERE id = $1
	`

	var r identity.RequestFacts
	err := s.db.QueryRow(ctx, query, requestID).Scan(
		&r.ID, &r.ResourceType, &r.ResourceName, &r.RequesterID, &r.ForUserID,
		&r.SubmittedAt, &r.Priority, &r.SoDConflictCount, &r.BusinessJustification,
	)
	if err == pgx.ErrNoRows {
		return nil, domainerrors.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch request facts: %w", err)
	}

	return &r, nil
}

// GetActivityWindow returns a user's activity events for one action kind
// since a cutoff, oldest first.
func (s *FactStore) GetActivityWindow(ctx context.Context, userID string, action identity.Action, since time.Time) ([]identity.ActivityEvent, error) {
	query := `
		SELECT user_id, action, occurred_at, city, country, latitude, longitude, ip_address
		FROM activity_events
		WHERE user_id = $1 AND action = $2 AND occurred_at >= $3
		ORDER BY occurred_at ASC
	`

	rows, err := s.db.Query(ctx, query, userID, string(action), since)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activity window: %w", err)
	}
	defer rows.Close()

	var events []identity.ActivityEvent
	for rows.Next() {
		var e identity.ActivityEvent
		if err := rows.Scan(
			&e.UserID, &e.Action, &e.Timestamp,
			&e.Location.City, &e.Location.Country,
			&e.Location.Latitude, &e.Location.Longitude,
			&e.IPAddress,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountRecentRequests counts access requests submitted by or for a user
// since a cutoff. Delegated requests count against the beneficiary too.
func (s *FactStore) CountRecentRequests(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM access_requests
		WHERE (requester_id = $1 OR for_user_id = $1) AND submitted_at >= $2
	`, userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent requests: %w", err)
	}
	return count, nil
}

// GetPeers returns up to limit identities sharing a department, and
// optionally a job-title core, each with their held roles. The subject
// is excluded.
func (s *FactStore) GetPeers(ctx context.Context, department, jobTitleCore, excludeUserID string, limit int) ([]identity.Peer, error) {
	query := `
		SELECT id, organization_id, department, job_title,
			admin_role_count, has_privileged_access, sod_violation_count,
			last_login_at, failed_login_attempts, total_role_count,
			last_access_review_at
		FROM users
		WHERE department = $1 AND id <> $2
			AND ($3 = '' OR job_title_core = $3)
		ORDER BY id
		LIMIT $4
	`

	rows, err := s.db.Query(ctx, query, department, excludeUserID, jobTitleCore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch peers: %w", err)
	}
	defer rows.Close()

	var peers []identity.Peer
	for rows.Next() {
		var p identity.Peer
		if err := rows.Scan(
			&p.Facts.ID, &p.Facts.OrganizationID, &p.Facts.Department, &p.Facts.JobTitle,
			&p.Facts.AdminRoleCount, &p.Facts.HasPrivilegedAccess, &p.Facts.SoDViolationCount,
			&p.Facts.LastLoginAt, &p.Facts.FailedLoginAttempts, &p.Facts.TotalRoleCount,
			&p.Facts.LastAccessReviewAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan peer: %w", err)
		}
		peers = append(peers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range peers {
		roles, err := s.GetUserRoles(ctx, peers[i].Facts.ID)
		if err != nil {
			return nil, err
		}
		peers[i].Roles = roles
	}
	return peers, nil
}

// GetUserRoles returns the roles a user currently holds.
func (s *FactStore) GetUserRoles(ctx context.Context, userID string) ([]identity.RoleRef, error) {
	rows, err := s.db.Query(ctx, `
		SELECT r.id, r.name
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user roles: %w", err)
	}
	defer rows.Close()

	var roles []identity.RoleRef
	for rows.Next() {
		var r identity.RoleRef
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// GetRolePermissions returns the permissions formally attached to a role.
func (s *FactStore) GetRolePermissions(ctx context.Context, roleID string) ([]identity.PermissionRef, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.name, rp.role_id
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1
		ORDER BY p.id
	`, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch role permissions: %w", err)
	}
	defer rows.Close()

	return scanPermissions(rows)
}

// GetUserPermissions returns the permissions currently active for a user.
func (s *FactStore) GetUserPermissions(ctx context.Context, userID string) ([]identity.PermissionRef, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.name, COALESCE(up.role_id, '')
		FROM permissions p
		JOIN user_permissions up ON up.permission_id = p.id
		WHERE up.user_id = $1
		ORDER BY p.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user permissions: %w", err)
	}
	defer rows.Close()

	return scanPermissions(rows)
}

func scanPermissions(rows pgx.Rows) ([]identity.PermissionRef, error) {
	var perms []identity.PermissionRef
	for rows.Next() {
		var p identity.PermissionRef
		if err := rows.Scan(&p.ID, &p.Name, &p.RoleID); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// ListOrganizationUsers returns the ids of every user in an organization.
func (s *FactStore) ListOrganizationUsers(ctx context.Context, orgID string) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id FROM users WHERE organization_id = $1 ORDER BY id
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organization users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// InsertAnomalies persists detection findings in one batch.
func (s *FactStore) InsertAnomalies(ctx context.Context, userID string, findings []anomaly.Anomaly) error {
	if len(findings) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, f := range findings {
		metadata, err := json.Marshal(f.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal anomaly metadata: %w", err)
		}
		batch.Queue(`
			INSERT INTO anomalies (
				id, user_id, type, severity, title, description,
				detected_at, metadata, reviewed, false_positive
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, f.ID, userID, string(f.Type), string(f.Severity), f.Title, f.Description,
			f.DetectedAt, metadata, f.Reviewed, f.FalsePositive)
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()
	for range findings {
		if _, err := br.Exec(); err != nil {
			return domainerrors.NewPersistenceError("failed to insert anomaly findings").WithCause(err)
		}
	}
	return nil
}

// MarkAnomalyReviewed records a reviewer verdict on a finding.
func (s *FactStore) MarkAnomalyReviewed(ctx context.Context, anomalyID uuid.UUID, isFalsePositive bool) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE anomalies
		SET reviewed = TRUE, false_positive = $2
		WHERE id = $1
	`, anomalyID, isFalsePositive)
	if err != nil {
		return domainerrors.NewPersistenceError("failed to mark anomaly reviewed").WithCause(err)
	}
	if tag.RowsAffected() == 0 {
		return domainerrors.ErrAnomalyNotFound
	}
	return nil
}

// ListUserAnomalies returns persisted findings for a user, newest first.
func (s *FactStore) ListUserAnomalies(ctx context.Context, userID string) ([]anomaly.Anomaly, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, type, severity, title, description,
			detected_at, metadata, reviewed, false_positive
		FROM anomalies
		WHERE user_id = $1
		ORDER BY detected_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list anomalies: %w", err)
	}
	defer rows.Close()

	var findings []anomaly.Anomaly
	for rows.Next() {
		var (
			a        anomaly.Anomaly
			typ, sev string
			metadata []byte
		)
		if err := rows.Scan(
			&a.ID, &a.UserID, &typ, &sev, &a.Title, &a.Description,
			&a.DetectedAt, &metadata, &a.Reviewed, &a.FalsePositive,
		); err != nil {
			return nil, fmt.Errorf("failed to scan anomaly: %w", err)
		}
		a.Type = anomaly.Type(typ)
		a.Severity = anomaly.Severity(sev)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &a.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal anomaly metadata: %w", err)
			}
		}
		findings = append(findings, a)
	}
	return findings, rows.Err()
}
