package services

import (
	"context"
	"errors"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/storage"
)

var (
	ErrNoUpperBracket = errors.New("the stage does not have an upper bracket")
	ErrNoLoserBracket = errors.New("the stage does not have a loser bracket")
)

// MatchGameLocator identifies a match game by id or by its parent and
// number.
type MatchGameLocator struct {
	ID       int `json:"id,omitempty"`
	ParentID int `json:"parent_id,omitempty"`
	Number   int `json:"number,omitempty"`
}

// FinderService locates brackets, matches and their neighbors.
type FinderService interface {
	UpperBracket(ctx context.Context, stageID int) (*models.Group, error)
	LoserBracket(ctx context.Context, stageID int) (*models.Group, error)
	Match(ctx context.Context, groupID, roundNumber, matchNumber int) (*models.Match, error)
	MatchGame(ctx context.Context, locator MatchGameLocator) (*models.MatchGame, error)
	PreviousMatches(ctx context.Context, matchID int, participantID *int) ([]*models.Match, error)
	NextMatches(ctx context.Context, matchID int, participantID *int) ([]*models.Match, error)
}

type finderService struct {
	store storage.Storage
	nav   navigator
}

func NewFinderService(store storage.Storage) FinderService {
	return &finderService{store: store, nav: navigator{store: store}}
}

func (s *finderService) UpperBracket(ctx context.Context, stageID int) (*models.Group, error) {
	stage, err := s.store.SelectStage(ctx, stageID)
	if err != nil {
		return nil, err
	}
	if isRoundRobin(stage) {
		return nil, ErrNoUpperBracket
	}
	group, err := groupByNumber(ctx, s.store, stageID, models.GroupUpperBracket)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, storage.ErrGroupNotFound
	}
	return group, nil
}

func (s *finderService) LoserBracket(ctx context.Context, stageID int) (*models.Group, error) {
	stage, err := s.store.SelectStage(ctx, stageID)
	if err != nil {
		return nil, err
	}
	if stage.Type != models.StageDoubleElimination {
		return nil, ErrNoLoserBracket
	}
	group, err := groupByNumber(ctx, s.store, stageID, models.GroupLoserBracket)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, storage.ErrGroupNotFound
	}
	return group, nil
}

func (s *finderService) Match(ctx context.Context, groupID, roundNumber, matchNumber int) (*models.Match, error) {
	m, err := findMatchAt(ctx, s.store, groupID, roundNumber, matchNumber)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, storage.ErrMatchNotFound
	}
	return m, nil
}

func (s *finderService) MatchGame(ctx context.Context, locator MatchGameLocator) (*models.MatchGame, error) {
	if locator.ID != 0 {
		return s.store.SelectMatchGame(ctx, locator.ID)
	}
	games, err := s.store.SelectMatchGames(ctx, storage.MatchGameFilter{
		ParentID: intPtr(locator.ParentID),
		Number:   intPtr(locator.Number),
	})
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, storage.ErrMatchGameNotFound
	}
	return games[0], nil
}

func (s *finderService) PreviousMatches(ctx context.Context, matchID int, participantID *int) ([]*models.Match, error) {
	m, location, stage, roundNumber, _, err := s.locate(ctx, matchID)
	if err != nil {
		return nil, err
	}
	previous, err := s.nav.previousMatches(ctx, m, location, stage, roundNumber)
	if err != nil {
		return nil, err
	}
	if participantID == nil {
		return previous, nil
	}
	if !matchHasParticipant(m, *participantID) {
		return nil, ErrParticipantNotInMatch
	}
	filtered := make([]*models.Match, 0, len(previous))
	for _, pm := range previous {
		if matchHasParticipant(pm, *participantID) {
			filtered = append(filtered, pm)
		}
	}
	return filtered, nil
}

func (s *finderService) NextMatches(ctx context.Context, matchID int, participantID *int) ([]*models.Match, error) {
	m, location, stage, roundNumber, roundCount, err := s.locate(ctx, matchID)
	if err != nil {
		return nil, err
	}
	next, err := s.nav.nextMatches(ctx, m, location, stage, roundNumber, roundCount)
	if err != nil {
		return nil, err
	}

	if participantID == nil {
		return withoutNils(next), nil
	}
	if !matchHasParticipant(m, *participantID) {
		return nil, ErrParticipantNotInMatch
	}

	winnerSide, err := brackets.GetMatchResult(&m.MatchResults)
	if err != nil {
		return nil, err
	}
	if winnerSide == "" {
		// Not decided yet: the participant may still end up in any of them.
		return withoutNils(next), nil
	}

	winnerID := slotParticipantID(slotOnSide(&m.MatchResults, winnerSide))
	if winnerID == *participantID {
		if len(next) > 0 && next[0] != nil {
			return []*models.Match{next[0]}, nil
		}
		return nil, nil
	}
	if len(next) > 1 && next[1] != nil {
		return []*models.Match{next[1]}, nil
	}
	return nil, nil
}

func (s *finderService) locate(ctx context.Context, matchID int) (*models.Match, brackets.Location, *models.Stage, int, int, error) {
	m, err := s.store.SelectMatch(ctx, matchID)
	if err != nil {
		return nil, "", nil, 0, 0, err
	}
	stage, err := s.store.SelectStage(ctx, m.StageID)
	if err != nil {
		return nil, "", nil, 0, 0, err
	}
	group, err := s.store.SelectGroup(ctx, m.GroupID)
	if err != nil {
		return nil, "", nil, 0, 0, err
	}
	_, roundNumber, roundCount, err := roundInfo(ctx, s.store, m.RoundID)
	if err != nil {
		return nil, "", nil, 0, 0, err
	}
	return m, brackets.MatchLocation(stage.Type, group.Number), stage, roundNumber, roundCount, nil
}

func matchHasParticipant(m *models.Match, participantID int) bool {
	return slotParticipantID(m.Opponent1) == participantID || slotParticipantID(m.Opponent2) == participantID
}

func withoutNils(matches []*models.Match) []*models.Match {
	out := make([]*models.Match, 0, len(matches))
	for _, m := range matches {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
