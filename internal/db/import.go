package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/warm-intros/internal/types"
)

// ImportStats counts the rows written by ImportNetworkFile
type ImportStats struct {
	ICP         bool
	Connections int
	WorkHistory int
	Prospects   int
}

// ImportNetworkFile writes a network file for userID in a single transaction.
// Records without an id get a fresh one; records with an existing id are updated in place.
func (db *DB) ImportNetworkFile(ctx context.Context, userID uuid.UUID, nf *types.NetworkFile) (*ImportStats, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stats := &ImportStats{}
	batch := &pgx.Batch{}

	if nf.ICP != nil {
		queueICPUpsert(batch, userID, nf.ICP)
		stats.ICP = true
	}
	for i := range nf.Connections {
		if err := queueConnectionUpsert(batch, userID, &nf.Connections[i]); err != nil {
			return nil, err
		}
		stats.Connections++
	}
	for i := range nf.WorkHistory {
		queueWorkHistoryUpsert(batch, userID, &nf.WorkHistory[i])
		stats.WorkHistory++
	}
	for i := range nf.Prospects {
		queueProspectUpsert(batch, userID, &nf.Prospects[i])
		stats.Prospects++
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return nil, fmt.Errorf("failed to import network file: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}
	return stats, nil
}

// UpsertICPProfile creates or replaces the user's ICP
func (db *DB) UpsertICPProfile(ctx context.Context, userID uuid.UUID, icp *types.ICPProfile) error {
	batch := &pgx.Batch{}
	queueICPUpsert(batch, userID, icp)
	if err := db.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert ICP profile: %w", err)
	}
	return nil
}

func queueICPUpsert(batch *pgx.Batch, userID uuid.UUID, icp *types.ICPProfile) {
	batch.Queue(`
		INSERT INTO icp_profiles (user_id, target_industries, target_locations, company_size_min, company_size_max,
		                          key_roles, target_technologies, pain_points, anti_icp_criteria, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			target_industries = EXCLUDED.target_industries,
			target_locations = EXCLUDED.target_locations,
			company_size_min = EXCLUDED.company_size_min,
			company_size_max = EXCLUDED.company_size_max,
			key_roles = EXCLUDED.key_roles,
			target_technologies = EXCLUDED.target_technologies,
			pain_points = EXCLUDED.pain_points,
			anti_icp_criteria = EXCLUDED.anti_icp_criteria,
			updated_at = NOW()
	`, userID, stringsOrEmpty(icp.TargetIndustries), stringsOrEmpty(icp.TargetLocations), icp.CompanySizeMin, icp.CompanySizeMax,
		stringsOrEmpty(icp.KeyRoles), stringsOrEmpty(icp.TargetTechnologies), icp.PainPoints, icp.AntiICPCriteria)
}

func queueConnectionUpsert(batch *pgx.Batch, userID uuid.UUID, c *types.NetworkConnection) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	contacts, err := encodeKeyContacts(c.KeyContacts)
	if err != nil {
		return err
	}
	connType := string(c.ConnectionType)
	if connType == "" {
		connType = string(types.ConnectionOther)
	}
	batch.Queue(`
		INSERT INTO network_connections (id, user_id, company_name, company_domain, relationship_strength,
		                                 contact_count, key_contacts, connection_type, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			company_domain = EXCLUDED.company_domain,
			relationship_strength = EXCLUDED.relationship_strength,
			contact_count = EXCLUDED.contact_count,
			key_contacts = EXCLUDED.key_contacts,
			connection_type = EXCLUDED.connection_type,
			tags = EXCLUDED.tags,
			updated_at = NOW()
		WHERE network_connections.user_id = EXCLUDED.user_id
	`, c.ID, userID, c.CompanyName, nullIfEmpty(c.CompanyDomain), c.RelationshipStrength,
		c.ContactCount, contacts, connType, stringsOrEmpty(c.Tags))
	return nil
}

func queueWorkHistoryUpsert(batch *pgx.Batch, userID uuid.UUID, w *types.WorkHistoryEntry) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	batch.Queue(`
		INSERT INTO work_history (id, user_id, company_name, start_date, end_date, is_current)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			is_current = EXCLUDED.is_current
		WHERE work_history.user_id = EXCLUDED.user_id
	`, w.ID, userID, w.CompanyName, w.StartDate, w.EndDate, w.IsCurrent)
}

func queueProspectUpsert(batch *pgx.Batch, userID uuid.UUID, p *types.Prospect) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	status := p.Status
	if status == "" {
		status = string(types.StatusSuggested)
	}
	batch.Queue(`
		INSERT INTO prospects (id, user_id, company_name, contact_name, ai_score, reasoning, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			contact_name = EXCLUDED.contact_name,
			ai_score = EXCLUDED.ai_score,
			reasoning = EXCLUDED.reasoning,
			status = EXCLUDED.status
		WHERE prospects.user_id = EXCLUDED.user_id
	`, p.ID, userID, p.CompanyName, p.ContactName, p.AIScore, p.Reasoning, status)
}

// DeleteUserData removes every record owned by userID. Used by import --replace and tests.
func (db *DB) DeleteUserData(ctx context.Context, userID uuid.UUID) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, table := range []string{"inferred_relationships", "analysis_generations", "network_connections", "work_history", "prospects", "icp_profiles"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE user_id = $1", userID); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}
