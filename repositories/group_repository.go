package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/storage"
)

func (r *PostgresStorage) InsertGroup(ctx context.Context, group *models.Group) (int, error) {
	if group.ID != 0 {
		query := `INSERT INTO stage_groups (id, stage_id, number) VALUES ($1, $2, $3)`
		if _, err := r.db.ExecContext(ctx, query, group.ID, group.StageID, group.Number); err != nil {
			return 0, fmt.Errorf("failed to insert group: %w", err)
		}
		return group.ID, r.syncSequence(ctx, "stage_groups")
	}

	query := `
		INSERT INTO stage_groups (stage_id, number)
		VALUES ($1, $2)
		RETURNING id`

	var id int
	if err := r.db.QueryRowContext(ctx, query, group.StageID, group.Number).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert group: %w", err)
	}
	return id, nil
}

func (r *PostgresStorage) SelectGroup(ctx context.Context, id int) (*models.Group, error) {
	query := `SELECT id, stage_id, number FROM stage_groups WHERE id = $1`

	group := &models.Group{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&group.ID, &group.StageID, &group.Number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to scan group %d: %w", id, err)
	}
	return group, nil
}

func (r *PostgresStorage) SelectGroups(ctx context.Context, filter storage.GroupFilter) ([]*models.Group, error) {
	clause := &filterClause{}
	clause.add("id", filter.ID)
	clause.add("stage_id", filter.StageID)
	clause.add("number", filter.Number)

	query := `SELECT id, stage_id, number FROM stage_groups` + clause.where() + ` ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, clause.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	groups := make([]*models.Group, 0)
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.StageID, &group.Number); err != nil {
			return nil, fmt.Errorf("failed to scan group row: %w", err)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (r *PostgresStorage) UpdateGroup(ctx context.Context, id int, group *models.Group) error {
	query := `UPDATE stage_groups SET stage_id = $1, number = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, group.StageID, group.Number, id)
	if err != nil {
		return fmt.Errorf("failed to update group %d: %w", id, err)
	}
	return checkAffectedRows(result, storage.ErrGroupNotFound)
}

func (r *PostgresStorage) DeleteGroups(ctx context.Context, filter storage.GroupFilter) (int, error) {
	clause := &filterClause{}
	clause.add("id", filter.ID)
	clause.add("stage_id", filter.StageID)
	clause.add("number", filter.Number)

	result, err := r.db.ExecContext(ctx, `DELETE FROM stage_groups`+clause.where(), clause.args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete groups: %w", err)
	}
	deleted, err := result.RowsAffected()
	return int(deleted), err
}
