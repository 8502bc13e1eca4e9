package services

import (
	"context"

	"github.com/Dosada05/bracket-engine/storage"
)

// DeleteService removes stages and tournaments with the cascade order
// stage -> match games -> matches -> rounds -> groups.
type DeleteService interface {
	Stage(ctx context.Context, stageID int) error
	Tournament(ctx context.Context, tournamentID int) error
}

type deleteService struct {
	store storage.Storage
}

func NewDeleteService(store storage.Storage) DeleteService {
	return &deleteService{store: store}
}

func (s *deleteService) Stage(ctx context.Context, stageID int) error {
	if _, err := s.store.SelectStage(ctx, stageID); err != nil {
		return err
	}
	if _, err := s.store.DeleteMatchGames(ctx, storage.MatchGameFilter{StageID: intPtr(stageID)}); err != nil {
		return err
	}
	if _, err := s.store.DeleteMatches(ctx, storage.MatchFilter{StageID: intPtr(stageID)}); err != nil {
		return err
	}
	if _, err := s.store.DeleteRounds(ctx, storage.RoundFilter{StageID: intPtr(stageID)}); err != nil {
		return err
	}
	if _, err := s.store.DeleteGroups(ctx, storage.GroupFilter{StageID: intPtr(stageID)}); err != nil {
		return err
	}
	_, err := s.store.DeleteStages(ctx, storage.StageFilter{ID: intPtr(stageID)})
	return err
}

func (s *deleteService) Tournament(ctx context.Context, tournamentID int) error {
	stages, err := s.store.SelectStages(ctx, storage.StageFilter{TournamentID: intPtr(tournamentID)})
	if err != nil {
		return err
	}
	for _, stage := range stages {
		if err := s.Stage(ctx, stage.ID); err != nil {
			return err
		}
	}
	return nil
}
