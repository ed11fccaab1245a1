package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/warm-intros/internal/types"
)

var inferenceColumns = []string{
	"id", "user_id", "target_company", "target_key", "bridge_company", "inference_type",
	"confidence_score", "reasoning", "supporting_data", "is_active", "generation", "generated_at",
}

// ReplaceSnapshot swaps the user's active inference set for a new generation in one transaction.
// The new rows are copied in inactive, older generations are retired, the new generation is
// activated and the retired rows are deleted. Write-backs land in the same transaction, so readers
// observe either the previous snapshot or the new one.
func (db *DB) ReplaceSnapshot(ctx context.Context, userID uuid.UUID, inferences []types.InferredRelationship, writeBacks []types.ScoreWriteBack) (int64, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The upsert row-locks the counter, so concurrent replaces for one user serialize here.
	var generation int64
	err = tx.QueryRow(ctx, `
		INSERT INTO analysis_generations (user_id, generation) VALUES ($1, 1)
		ON CONFLICT (user_id) DO UPDATE
		SET generation = analysis_generations.generation + 1, updated_at = NOW()
		RETURNING generation
	`, userID).Scan(&generation)
	if err != nil {
		return 0, fmt.Errorf("failed to advance generation: %w", err)
	}

	rows, err := inferenceRows(userID, generation, inferences)
	if err != nil {
		return 0, err
	}
	if len(rows) > 0 {
		_, err = tx.CopyFrom(ctx, pgx.Identifier{"inferred_relationships"}, inferenceColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return 0, fmt.Errorf("failed to insert inferences: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE inferred_relationships SET is_active = FALSE
		WHERE user_id = $1 AND generation < $2 AND is_active
	`, userID, generation); err != nil {
		return 0, fmt.Errorf("failed to retire previous snapshot: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE inferred_relationships SET is_active = TRUE
		WHERE user_id = $1 AND generation = $2
	`, userID, generation); err != nil {
		return 0, fmt.Errorf("failed to activate snapshot: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		DELETE FROM inferred_relationships WHERE user_id = $1 AND generation < $2
	`, userID, generation); err != nil {
		return 0, fmt.Errorf("failed to delete previous snapshot: %w", err)
	}

	if err := applyWriteBacks(ctx, tx, userID, writeBacks); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return generation, nil
}

func inferenceRows(userID uuid.UUID, generation int64, inferences []types.InferredRelationship) ([][]any, error) {
	rows := make([][]any, 0, len(inferences))
	for _, rel := range inferences {
		id := rel.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		data, err := encodeSupportingData(rel.SupportingData)
		if err != nil {
			return nil, err
		}
		rows = append(rows, []any{
			id, userID, rel.TargetCompany, types.NormalizeCompanyName(rel.TargetCompany), rel.BridgeCompany,
			string(rel.InferenceType), int16(rel.ConfidenceScore), rel.Reasoning, data, false, generation, rel.GeneratedAt,
		})
	}
	return rows, nil
}

func applyWriteBacks(ctx context.Context, tx pgx.Tx, userID uuid.UUID, writeBacks []types.ScoreWriteBack) error {
	if len(writeBacks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, wb := range writeBacks {
		batch.Queue(`
			UPDATE network_connections
			SET icp_match_score = $3, icp_match_type = $4, icp_match_reason = $5, updated_at = NOW()
			WHERE id = $1 AND user_id = $2
		`, wb.ConnectionID, userID, wb.Score, matchTypeToText(wb.MatchType), wb.Reason)
	}

	results := tx.SendBatch(ctx, batch)
	for range writeBacks {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("failed to write back ICP score: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to write back ICP scores: %w", err)
	}
	return nil
}

// ListActiveInferences returns one page of the active snapshot and the total active count.
// A non-positive limit returns every row from offset on.
func (db *DB) ListActiveInferences(ctx context.Context, userID uuid.UUID, limit, offset int) ([]types.InferredRelationship, int, error) {
	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var total int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM inferred_relationships WHERE user_id = $1 AND is_active
	`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count inferences: %w", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT id, user_id, target_company, bridge_company, inference_type, confidence_score,
		       reasoning, supporting_data, is_active, generation, generated_at
		FROM inferred_relationships
		WHERE user_id = $1 AND is_active
		ORDER BY confidence_score DESC, target_company COLLATE "C" ASC, id ASC
		LIMIT $2 OFFSET $3
	`, userID, limitArg(limit), offsetArg(offset))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query inferences: %w", err)
	}
	defer rows.Close()

	result := []types.InferredRelationship{}
	for rows.Next() {
		var rel types.InferredRelationship
		var inferenceType string
		var confidence int16
		var data []byte
		if err := rows.Scan(
			&rel.ID, &rel.UserID, &rel.TargetCompany, &rel.BridgeCompany, &inferenceType, &confidence,
			&rel.Reasoning, &data, &rel.IsActive, &rel.Generation, &rel.GeneratedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan inference: %w", err)
		}
		rel.InferenceType = types.InferenceType(inferenceType)
		rel.ConfidenceScore = int(confidence)
		// Malformed evidence leaves an empty SupportingData; readers fall back on the bridge contact.
		rel.SupportingData, _ = types.DecodeSupportingData(data)
		result = append(result, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating inferences: %w", err)
	}

	return result, total, nil
}
