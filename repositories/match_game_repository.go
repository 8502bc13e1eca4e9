package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/storage"
)

func (r *PostgresStorage) InsertMatchGame(ctx context.Context, game *models.MatchGame) (int, error) {
	opponent1, err := marshalSlot(game.Opponent1)
	if err != nil {
		return 0, err
	}
	opponent2, err := marshalSlot(game.Opponent2)
	if err != nil {
		return 0, err
	}
	extras, err := marshalExtras(game.Extra)
	if err != nil {
		return 0, err
	}

	if game.ID != 0 {
		query := `
			INSERT INTO match_games (id, stage_id, parent_id, number, status, opponent1, opponent2, extras)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		_, err := r.db.ExecContext(ctx, query,
			game.ID, game.StageID, game.ParentID, game.Number, game.Status, opponent1, opponent2, extras,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert match game: %w", err)
		}
		return game.ID, r.syncSequence(ctx, "match_games")
	}

	query := `
		INSERT INTO match_games (stage_id, parent_id, number, status, opponent1, opponent2, extras)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id int
	err = r.db.QueryRowContext(ctx, query,
		game.StageID, game.ParentID, game.Number, game.Status, opponent1, opponent2, extras,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert match game: %w", err)
	}
	return id, nil
}

func (r *PostgresStorage) SelectMatchGame(ctx context.Context, id int) (*models.MatchGame, error) {
	query := `
		SELECT id, stage_id, parent_id, number, status, opponent1, opponent2, extras
		FROM match_games
		WHERE id = $1`

	game, err := scanMatchGame(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrMatchGameNotFound
		}
		return nil, fmt.Errorf("failed to scan match game %d: %w", id, err)
	}
	return game, nil
}

func (r *PostgresStorage) SelectMatchGames(ctx context.Context, filter storage.MatchGameFilter) ([]*models.MatchGame, error) {
	clause := &filterClause{}
	clause.add("id", filter.ID)
	clause.add("stage_id", filter.StageID)
	clause.add("parent_id", filter.ParentID)
	clause.add("number", filter.Number)

	query := `
		SELECT id, stage_id, parent_id, number, status, opponent1, opponent2, extras
		FROM match_games` + clause.where() + ` ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, clause.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query match games: %w", err)
	}
	defer rows.Close()

	games := make([]*models.MatchGame, 0)
	for rows.Next() {
		game, err := scanMatchGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match game row: %w", err)
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

func scanMatchGame(row rowScanner) (*models.MatchGame, error) {
	game := &models.MatchGame{}
	var opponent1, opponent2, extras []byte
	err := row.Scan(
		&game.ID, &game.StageID, &game.ParentID, &game.Number,
		&game.Status, &opponent1, &opponent2, &extras,
	)
	if err != nil {
		return nil, err
	}
	if err := scanJSON(opponent1, &game.Opponent1); err != nil {
		return nil, err
	}
	if err := scanJSON(opponent2, &game.Opponent2); err != nil {
		return nil, err
	}
	if err := scanJSON(extras, &game.Extra); err != nil {
		return nil, err
	}
	if len(game.Extra) == 0 {
		game.Extra = nil
	}
	return game, nil
}

func (r *PostgresStorage) UpdateMatchGame(ctx context.Context, id int, game *models.MatchGame) error {
	opponent1, err := marshalSlot(game.Opponent1)
	if err != nil {
		return err
	}
	opponent2, err := marshalSlot(game.Opponent2)
	if err != nil {
		return err
	}
	extras, err := marshalExtras(game.Extra)
	if err != nil {
		return err
	}

	query := `
		UPDATE match_games
		SET stage_id = $1, parent_id = $2, number = $3, status = $4,
		    opponent1 = $5, opponent2 = $6, extras = $7
		WHERE id = $8`

	result, err := r.db.ExecContext(ctx, query,
		game.StageID, game.ParentID, game.Number, game.Status, opponent1, opponent2, extras, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update match game %d: %w", id, err)
	}
	return checkAffectedRows(result, storage.ErrMatchGameNotFound)
}

// UpdateMatchGames mirrors a parent's opponent ids and optionally its
// status onto every matching game, preserving what the games themselves
// report.
func (r *PostgresStorage) UpdateMatchGames(ctx context.Context, filter storage.MatchGameFilter, partial storage.MatchGamePartial) error {
	games, err := r.SelectMatchGames(ctx, filter)
	if err != nil {
		return err
	}
	for _, game := range games {
		if partial.Status != nil {
			game.Status = *partial.Status
		}
		if partial.SetOpponents {
			game.Opponent1 = mirrorSlot(game.Opponent1, partial.Opponent1)
			game.Opponent2 = mirrorSlot(game.Opponent2, partial.Opponent2)
		}
		if err := r.UpdateMatchGame(ctx, game.ID, game); err != nil {
			return err
		}
	}
	return nil
}

func mirrorSlot(current, parent *models.Slot) *models.Slot {
	if parent == nil {
		return nil
	}
	if current == nil {
		current = &models.Slot{}
	}
	if parent.ID != nil {
		id := *parent.ID
		current.ID = &id
	} else {
		current.ID = nil
	}
	return current
}

func (r *PostgresStorage) DeleteMatchGames(ctx context.Context, filter storage.MatchGameFilter) (int, error) {
	clause := &filterClause{}
	clause.add("id", filter.ID)
	clause.add("stage_id", filter.StageID)
	clause.add("parent_id", filter.ParentID)
	clause.add("number", filter.Number)

	result, err := r.db.ExecContext(ctx, `DELETE FROM match_games`+clause.where(), clause.args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete match games: %w", err)
	}
	deleted, err := result.RowsAffected()
	return int(deleted), err
}
