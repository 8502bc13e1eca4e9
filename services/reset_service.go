package services

import (
	"context"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/storage"
)

// ResetService takes reported results back out, with the same locking rules
// as the write path.
type ResetService interface {
	MatchResults(ctx context.Context, matchID int) error
	MatchGameResults(ctx context.Context, gameID int) error
	Seeding(ctx context.Context, stageID int) error
}

type resetService struct {
	updater
	stages StageService
}

func NewResetService(store storage.Storage) ResetService {
	return &resetService{
		updater: updater{store: store, nav: navigator{store: store}},
		stages:  NewStageService(store),
	}
}

func (s *resetService) MatchResults(ctx context.Context, matchID int) error {
	stored, err := s.store.SelectMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if stored.ChildCount > 0 && !completedByForfeit(&stored.MatchResults) {
		return ErrParentHasChildGames
	}

	stage, err := s.store.SelectStage(ctx, stored.StageID)
	if err != nil {
		return err
	}
	group, err := s.store.SelectGroup(ctx, stored.GroupID)
	if err != nil {
		return err
	}
	_, roundNumber, roundCount, err := roundInfo(ctx, s.store, stored.RoundID)
	if err != nil {
		return err
	}
	location := brackets.MatchLocation(stage.Type, group.Number)

	next, err := s.nav.nextMatches(ctx, stored, location, stage, roundNumber, roundCount)
	if err != nil {
		return err
	}
	for _, nm := range next {
		if nm != nil && nm.Status >= models.StatusRunning && !brackets.IsMatchByeCompleted(&nm.MatchResults) {
			return ErrMatchLocked
		}
	}

	brackets.ResetMatchResults(&stored.MatchResults)
	if err := s.applyMatchUpdate(ctx, stored); err != nil {
		return err
	}
	if isRoundRobin(stage) {
		return nil
	}
	return s.updateRelatedMatches(ctx, stored, true, true)
}

func completedByForfeit(m *models.MatchResults) bool {
	return (m.Opponent1 != nil && m.Opponent1.Forfeit) || (m.Opponent2 != nil && m.Opponent2.Forfeit)
}

func (s *resetService) MatchGameResults(ctx context.Context, gameID int) error {
	game, err := s.store.SelectMatchGame(ctx, gameID)
	if err != nil {
		return err
	}
	stage, err := s.store.SelectStage(ctx, game.StageID)
	if err != nil {
		return err
	}

	brackets.ResetMatchResults(&game.MatchResults)
	if err := s.store.UpdateMatchGame(ctx, game.ID, game); err != nil {
		return err
	}
	return s.updateParentMatch(ctx, game.ParentID, isRoundRobin(stage))
}

func (s *resetService) Seeding(ctx context.Context, stageID int) error {
	return s.stages.UpdateSeeding(ctx, stageID, nil, true)
}
