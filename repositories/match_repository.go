package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/storage"
)

func marshalSlot(slot *models.Slot) (interface{}, error) {
	return jsonColumn(slot, slot == nil)
}

func marshalExtras(extras map[string]json.RawMessage) ([]byte, error) {
	if extras == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(extras)
}

func (r *PostgresStorage) InsertMatch(ctx context.Context, match *models.Match) (int, error) {
	opponent1, err := marshalSlot(match.Opponent1)
	if err != nil {
		return 0, err
	}
	opponent2, err := marshalSlot(match.Opponent2)
	if err != nil {
		return 0, err
	}
	extras, err := marshalExtras(match.Extra)
	if err != nil {
		return 0, err
	}

	if match.ID != 0 {
		query := `
			INSERT INTO matches (id, stage_id, group_id, round_id, number, child_count, status, opponent1, opponent2, extras)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
		_, err := r.db.ExecContext(ctx, query,
			match.ID, match.StageID, match.GroupID, match.RoundID, match.Number,
			match.ChildCount, match.Status, opponent1, opponent2, extras,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert match: %w", err)
		}
		return match.ID, r.syncSequence(ctx, "matches")
	}

	query := `
		INSERT INTO matches (stage_id, group_id, round_id, number, child_count, status, opponent1, opponent2, extras)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	var id int
	err = r.db.QueryRowContext(ctx, query,
		match.StageID, match.GroupID, match.RoundID, match.Number,
		match.ChildCount, match.Status, opponent1, opponent2, extras,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert match: %w", err)
	}
	return id, nil
}

func (r *PostgresStorage) SelectMatch(ctx context.Context, id int) (*models.Match, error) {
	query := `
		SELECT id, stage_id, group_id, round_id, number, child_count, status, opponent1, opponent2, extras
		FROM matches
		WHERE id = $1`

	match, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %d: %w", id, err)
	}
	return match, nil
}

func (r *PostgresStorage) SelectMatches(ctx context.Context, filter storage.MatchFilter) ([]*models.Match, error) {
	clause := &filterClause{}
	clause.add("id", filter.ID)
	clause.add("stage_id", filter.StageID)
	clause.add("group_id", filter.GroupID)
	clause.add("round_id", filter.RoundID)
	clause.add("number", filter.Number)
	if filter.Status != nil {
		status := int(*filter.Status)
		clause.add("status", &status)
	}

	query := `
		SELECT id, stage_id, group_id, round_id, number, child_count, status, opponent1, opponent2, extras
		FROM matches` + clause.where() + ` ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, clause.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

func scanMatch(row rowScanner) (*models.Match, error) {
	match := &models.Match{}
	var opponent1, opponent2, extras []byte
	err := row.Scan(
		&match.ID, &match.StageID, &match.GroupID, &match.RoundID, &match.Number,
		&match.ChildCount, &match.Status, &opponent1, &opponent2, &extras,
	)
	if err != nil {
		return nil, err
	}
	if err := scanJSON(opponent1, &match.Opponent1); err != nil {
		return nil, err
	}
	if err := scanJSON(opponent2, &match.Opponent2); err != nil {
		return nil, err
	}
	if err := scanJSON(extras, &match.Extra); err != nil {
		return nil, err
	}
	if len(match.Extra) == 0 {
		match.Extra = nil
	}
	return match, nil
}

func (r *PostgresStorage) UpdateMatch(ctx context.Context, id int, match *models.Match) error {
	opponent1, err := marshalSlot(match.Opponent1)
	if err != nil {
		return err
	}
	opponent2, err := marshalSlot(match.Opponent2)
	if err != nil {
		return err
	}
	extras, err := marshalExtras(match.Extra)
	if err != nil {
		return err
	}

	query := `
		UPDATE matches
		SET stage_id = $1, group_id = $2, round_id = $3, number = $4,
		    child_count = $5, status = $6, opponent1 = $7, opponent2 = $8, extras = $9
		WHERE id = $10`

	result, err := r.db.ExecContext(ctx, query,
		match.StageID, match.GroupID, match.RoundID, match.Number,
		match.ChildCount, match.Status, opponent1, opponent2, extras, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update match %d: %w", id, err)
	}
	return checkAffectedRows(result, storage.ErrMatchNotFound)
}

func (r *PostgresStorage) DeleteMatches(ctx context.Context, filter storage.MatchFilter) (int, error) {
	clause := &filterClause{}
	clause.add("id", filter.ID)
	clause.add("stage_id", filter.StageID)
	clause.add("group_id", filter.GroupID)
	clause.add("round_id", filter.RoundID)
	clause.add("number", filter.Number)

	result, err := r.db.ExecContext(ctx, `DELETE FROM matches`+clause.where(), clause.args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete matches: %w", err)
	}
	deleted, err := result.RowsAffected()
	return int(deleted), err
}
