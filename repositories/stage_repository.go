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

func (r *PostgresStorage) InsertStage(ctx context.Context, stage *models.Stage) (int, error) {
	settings, err := json.Marshal(stage.Settings)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal stage settings: %w", err)
	}

	if stage.ID != 0 {
		query := `INSERT INTO stages (id, tournament_id, name, type, number, settings) VALUES ($1, $2, $3, $4, $5, $6)`
		if _, err := r.db.ExecContext(ctx, query, stage.ID, stage.TournamentID, stage.Name, stage.Type, stage.Number, settings); err != nil {
			return 0, fmt.Errorf("failed to insert stage: %w", err)
		}
		return stage.ID, r.syncSequence(ctx, "stages")
	}

	query := `
		INSERT INTO stages (tournament_id, name, type, number, settings)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id int
	err = r.db.QueryRowContext(ctx, query,
		stage.TournamentID, stage.Name, stage.Type, stage.Number, settings,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert stage: %w", err)
	}
	return id, nil
}

func (r *PostgresStorage) SelectStage(ctx context.Context, id int) (*models.Stage, error) {
	query := `SELECT id, tournament_id, name, type, number, settings FROM stages WHERE id = $1`
	stage, err := scanStage(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrStageNotFound
		}
		return nil, fmt.Errorf("failed to scan stage %d: %w", id, err)
	}
	return stage, nil
}

func (r *PostgresStorage) SelectStages(ctx context.Context, filter storage.StageFilter) ([]*models.Stage, error) {
	clause := &filterClause{}
	clause.add("id", filter.ID)
	clause.add("tournament_id", filter.TournamentID)
	clause.add("number", filter.Number)

	query := `SELECT id, tournament_id, name, type, number, settings FROM stages` + clause.where() + ` ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, clause.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stages: %w", err)
	}
	defer rows.Close()

	stages := make([]*models.Stage, 0)
	for rows.Next() {
		stage, err := scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stage row: %w", err)
		}
		stages = append(stages, stage)
	}
	return stages, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStage(row rowScanner) (*models.Stage, error) {
	stage := &models.Stage{}
	var settings []byte
	if err := row.Scan(&stage.ID, &stage.TournamentID, &stage.Name, &stage.Type, &stage.Number, &settings); err != nil {
		return nil, err
	}
	if err := scanJSON(settings, &stage.Settings); err != nil {
		return nil, err
	}
	return stage, nil
}

func (r *PostgresStorage) UpdateStage(ctx context.Context, id int, stage *models.Stage) error {
	settings, err := json.Marshal(stage.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal stage settings: %w", err)
	}

	query := `UPDATE stages SET tournament_id = $1, name = $2, type = $3, number = $4, settings = $5 WHERE id = $6`
	result, err := r.db.ExecContext(ctx, query,
		stage.TournamentID, stage.Name, stage.Type, stage.Number, settings, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update stage %d: %w", id, err)
	}
	return checkAffectedRows(result, storage.ErrStageNotFound)
}

func (r *PostgresStorage) DeleteStages(ctx context.Context, filter storage.StageFilter) (int, error) {
	clause := &filterClause{}
	clause.add("id", filter.ID)
	clause.add("tournament_id", filter.TournamentID)
	clause.add("number", filter.Number)

	result, err := r.db.ExecContext(ctx, `DELETE FROM stages`+clause.where(), clause.args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stages: %w", err)
	}
	deleted, err := result.RowsAffected()
	return int(deleted), err
}
