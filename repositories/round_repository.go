package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/storage"
)

func (r *PostgresStorage) InsertRound(ctx context.Context, round *models.Round) (int, error) {
	if round.ID != 0 {
		query := `INSERT INTO rounds (id, stage_id, group_id, number) VALUES ($1, $2, $3, $4)`
		if _, err := r.db.ExecContext(ctx, query, round.ID, round.StageID, round.GroupID, round.Number); err != nil {
			return 0, fmt.Errorf("failed to insert round: %w", err)
		}
		return round.ID, r.syncSequence(ctx, "rounds")
	}

	query := `
		INSERT INTO rounds (stage_id, group_id, number)
		VALUES ($1, $2, $3)
		RETURNING id`

	var id int
	if err := r.db.QueryRowContext(ctx, query, round.StageID, round.GroupID, round.Number).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert round: %w", err)
	}
	return id, nil
}

func (r *PostgresStorage) SelectRound(ctx context.Context, id int) (*models.Round, error) {
	query := `SELECT id, stage_id, group_id, number FROM rounds WHERE id = $1`

	round := &models.Round{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&round.ID, &round.StageID, &round.GroupID, &round.Number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to scan round %d: %w", id, err)
	}
	return round, nil
}

func (r *PostgresStorage) SelectRounds(ctx context.Context, filter storage.RoundFilter) ([]*models.Round, error) {
	clause := &filterClause{}
	clause.add("id", filter.ID)
	clause.add("stage_id", filter.StageID)
	clause.add("group_id", filter.GroupID)
	clause.add("number", filter.Number)

	query := `SELECT id, stage_id, group_id, number FROM rounds` + clause.where() + ` ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, clause.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds: %w", err)
	}
	defer rows.Close()

	rounds := make([]*models.Round, 0)
	for rows.Next() {
		round := &models.Round{}
		if err := rows.Scan(&round.ID, &round.StageID, &round.GroupID, &round.Number); err != nil {
			return nil, fmt.Errorf("failed to scan round row: %w", err)
		}
		rounds = append(rounds, round)
	}
	return rounds, rows.Err()
}

func (r *PostgresStorage) UpdateRound(ctx context.Context, id int, round *models.Round) error {
	query := `UPDATE rounds SET stage_id = $1, group_id = $2, number = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, round.StageID, round.GroupID, round.Number, id)
	if err != nil {
		return fmt.Errorf("failed to update round %d: %w", id, err)
	}
	return checkAffectedRows(result, storage.ErrRoundNotFound)
}

func (r *PostgresStorage) DeleteRounds(ctx context.Context, filter storage.RoundFilter) (int, error) {
	clause := &filterClause{}
	clause.add("id", filter.ID)
	clause.add("stage_id", filter.StageID)
	clause.add("group_id", filter.GroupID)
	clause.add("number", filter.Number)

	result, err := r.db.ExecContext(ctx, `DELETE FROM rounds`+clause.where(), clause.args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete rounds: %w", err)
	}
	deleted, err := result.RowsAffected()
	return int(deleted), err
}
