package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/warm-intros/internal/types"
)

// ListConnections returns every network connection for a user in creation order
func (db *DB) ListConnections(ctx context.Context, userID uuid.UUID) ([]types.NetworkConnection, error) {
	query := `
		SELECT id, user_id, company_name, COALESCE(company_domain, ''), relationship_strength,
		       contact_count, key_contacts, connection_type, tags,
		       icp_match_score, icp_match_type, icp_match_reason, created_at, updated_at
		FROM network_connections
		WHERE user_id = $1
		ORDER BY created_at, id
	`

	rows, err := db.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}
	defer rows.Close()

	var conns []types.NetworkConnection
	for rows.Next() {
		var c types.NetworkConnection
		var connType string
		var contacts []byte
		var matchType *string
		var score *int16
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.CompanyName, &c.CompanyDomain, &c.RelationshipStrength,
			&c.ContactCount, &contacts, &connType, &c.Tags,
			&score, &matchType, &c.ICPMatchReason, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		c.ConnectionType = types.ConnectionType(connType)
		c.KeyContacts = decodeKeyContacts(contacts)
		c.ICPMatchType = textToMatchType(matchType)
		if score != nil {
			v := int(*score)
			c.ICPMatchScore = &v
		}
		conns = append(conns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}

	return conns, nil
}

// ListWorkHistory returns the user's work history entries
func (db *DB) ListWorkHistory(ctx context.Context, userID uuid.UUID) ([]types.WorkHistoryEntry, error) {
	query := `
		SELECT id, user_id, company_name, start_date, end_date, is_current
		FROM work_history
		WHERE user_id = $1
		ORDER BY start_date NULLS LAST, id
	`

	rows, err := db.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query work history: %w", err)
	}
	defer rows.Close()

	var entries []types.WorkHistoryEntry
	for rows.Next() {
		var w types.WorkHistoryEntry
		if err := rows.Scan(&w.ID, &w.UserID, &w.CompanyName, &w.StartDate, &w.EndDate, &w.IsCurrent); err != nil {
			return nil, fmt.Errorf("failed to scan work history: %w", err)
		}
		entries = append(entries, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating work history: %w", err)
	}

	return entries, nil
}

// GetICPProfile retrieves the user's ICP. Returns nil, nil when the user has none.
func (db *DB) GetICPProfile(ctx context.Context, userID uuid.UUID) (*types.ICPProfile, error) {
	query := `
		SELECT target_industries, target_locations, company_size_min, company_size_max,
		       key_roles, target_technologies, pain_points, anti_icp_criteria
		FROM icp_profiles
		WHERE user_id = $1
	`

	var p types.ICPProfile
	err := db.pool.QueryRow(ctx, query, userID).Scan(
		&p.TargetIndustries, &p.TargetLocations, &p.CompanySizeMin, &p.CompanySizeMax,
		&p.KeyRoles, &p.TargetTechnologies, &p.PainPoints, &p.AntiICPCriteria,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ICP profile: %w", err)
	}

	return &p, nil
}

// ListProspects returns the user's outbound prospects
func (db *DB) ListProspects(ctx context.Context, userID uuid.UUID) ([]types.Prospect, error) {
	query := `
		SELECT id, user_id, company_name, contact_name, ai_score, reasoning, status, created_at
		FROM prospects
		WHERE user_id = $1
		ORDER BY created_at, id
	`

	rows, err := db.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query prospects: %w", err)
	}
	defer rows.Close()

	var prospects []types.Prospect
	for rows.Next() {
		var p types.Prospect
		if err := rows.Scan(&p.ID, &p.UserID, &p.CompanyName, &p.ContactName, &p.AIScore, &p.Reasoning, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prospect: %w", err)
		}
		prospects = append(prospects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prospects: %w", err)
	}

	return prospects, nil
}
