package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/storage"
)

func (r *PostgresStorage) InsertParticipant(ctx context.Context, participant *models.Participant) (int, error) {
	if participant.ID != 0 {
		query := `INSERT INTO participants (id, tournament_id, name) VALUES ($1, $2, $3)`
		if _, err := r.db.ExecContext(ctx, query, participant.ID, participant.TournamentID, participant.Name); err != nil {
			return 0, fmt.Errorf("failed to insert participant: %w", err)
		}
		return participant.ID, r.syncSequence(ctx, "participants")
	}

	query := `
		INSERT INTO participants (tournament_id, name)
		VALUES ($1, $2)
		RETURNING id`

	var id int
	err := r.db.QueryRowContext(ctx, query, participant.TournamentID, participant.Name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert participant: %w", err)
	}
	return id, nil
}

func (r *PostgresStorage) SelectParticipant(ctx context.Context, id int) (*models.Participant, error) {
	query := `SELECT id, tournament_id, name FROM participants WHERE id = $1`

	participant := &models.Participant{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&participant.ID, &participant.TournamentID, &participant.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to scan participant %d: %w", id, err)
	}
	return participant, nil
}

func (r *PostgresStorage) SelectParticipants(ctx context.Context, filter storage.ParticipantFilter) ([]*models.Participant, error) {
	clause := &filterClause{}
	clause.add("id", filter.ID)
	clause.add("tournament_id", filter.TournamentID)
	clause.addString("name", filter.Name)

	query := `SELECT id, tournament_id, name FROM participants` + clause.where() + ` ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, clause.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		participant := &models.Participant{}
		if err := rows.Scan(&participant.ID, &participant.TournamentID, &participant.Name); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, participant)
	}
	return participants, rows.Err()
}

func (r *PostgresStorage) UpdateParticipant(ctx context.Context, id int, participant *models.Participant) error {
	query := `UPDATE participants SET tournament_id = $1, name = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, participant.TournamentID, participant.Name, id)
	if err != nil {
		return fmt.Errorf("failed to update participant %d: %w", id, err)
	}
	return checkAffectedRows(result, storage.ErrParticipantNotFound)
}

func (r *PostgresStorage) DeleteParticipants(ctx context.Context, filter storage.ParticipantFilter) (int, error) {
	clause := &filterClause{}
	clause.add("id", filter.ID)
	clause.add("tournament_id", filter.TournamentID)
	clause.addString("name", filter.Name)

	result, err := r.db.ExecContext(ctx, `DELETE FROM participants`+clause.where(), clause.args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete participants: %w", err)
	}
	deleted, err := result.RowsAffected()
	return int(deleted), err
}
