package services

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/storage"
)

// StageData is the whole tree of one stage.
type StageData struct {
	Stage        *models.Stage         `json:"stage"`
	Groups       []*models.Group       `json:"groups"`
	Rounds       []*models.Round       `json:"rounds"`
	Matches      []*models.Match       `json:"matches"`
	MatchGames   []*models.MatchGame   `json:"match_games"`
	Participants []*models.Participant `json:"participants"`
}

// TournamentData is the whole tree of a tournament across its stages.
type TournamentData struct {
	Stages       []*models.Stage       `json:"stages"`
	Groups       []*models.Group       `json:"groups"`
	Rounds       []*models.Round       `json:"rounds"`
	Matches      []*models.Match       `json:"matches"`
	MatchGames   []*models.MatchGame   `json:"match_games"`
	Participants []*models.Participant `json:"participants"`
}

// StandingItem is one line of the final standings. Participants eliminated
// at the same depth share a rank.
type StandingItem struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

// QueryService is the read surface of the engine.
type QueryService interface {
	StageData(ctx context.Context, stageID int) (*StageData, error)
	TournamentData(ctx context.Context, tournamentID int) (*TournamentData, error)
	CurrentStage(ctx context.Context, tournamentID int) (*models.Stage, error)
	CurrentRound(ctx context.Context, stageID int) (*models.Round, error)
	CurrentMatches(ctx context.Context, stageID int) ([]*models.Match, error)
	Seeding(ctx context.Context, stageID int) ([]*models.Slot, error)
	FinalStandings(ctx context.Context, stageID int) ([]StandingItem, error)
}

type queryService struct {
	store storage.Storage
}

func NewQueryService(store storage.Storage) QueryService {
	return &queryService{store: store}
}

func (s *queryService) StageData(ctx context.Context, stageID int) (*StageData, error) {
	stage, err := s.store.SelectStage(ctx, stageID)
	if err != nil {
		return nil, err
	}
	data := &StageData{Stage: stage}
	if data.Groups, err = s.store.SelectGroups(ctx, storage.GroupFilter{StageID: intPtr(stageID)}); err != nil {
		return nil, err
	}
	if data.Rounds, err = s.store.SelectRounds(ctx, storage.RoundFilter{StageID: intPtr(stageID)}); err != nil {
		return nil, err
	}
	if data.Matches, err = s.store.SelectMatches(ctx, storage.MatchFilter{StageID: intPtr(stageID)}); err != nil {
		return nil, err
	}
	if data.MatchGames, err = s.store.SelectMatchGames(ctx, storage.MatchGameFilter{StageID: intPtr(stageID)}); err != nil {
		return nil, err
	}
	if data.Participants, err = s.store.SelectParticipants(ctx, storage.ParticipantFilter{TournamentID: intPtr(stage.TournamentID)}); err != nil {
		return nil, err
	}
	return data, nil
}

// TournamentData fans the per-stage reads out in parallel. Reads are the
// only place the engine does this: writes keep the deterministic order the
// storage contract promises.
func (s *queryService) TournamentData(ctx context.Context, tournamentID int) (*TournamentData, error) {
	stages, err := s.store.SelectStages(ctx, storage.StageFilter{TournamentID: intPtr(tournamentID)})
	if err != nil {
		return nil, err
	}

	data := &TournamentData{Stages: stages}
	perStage := make([]*StageData, len(stages))

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		participants, err := s.store.SelectParticipants(gCtx, storage.ParticipantFilter{TournamentID: intPtr(tournamentID)})
		if err != nil {
			return err
		}
		data.Participants = participants
		return nil
	})
	for i, stage := range stages {
		g.Go(func() error {
			stageData, err := s.StageData(gCtx, stage.ID)
			if err != nil {
				return err
			}
			perStage[i] = stageData
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, stageData := range perStage {
		data.Groups = append(data.Groups, stageData.Groups...)
		data.Rounds = append(data.Rounds, stageData.Rounds...)
		data.Matches = append(data.Matches, stageData.Matches...)
		data.MatchGames = append(data.MatchGames, stageData.MatchGames...)
	}
	return data, nil
}

// CurrentStage returns the first stage that still has matches to play, or
// nil when the tournament is over.
func (s *queryService) CurrentStage(ctx context.Context, tournamentID int) (*models.Stage, error) {
	stages, err := s.store.SelectStages(ctx, storage.StageFilter{TournamentID: intPtr(tournamentID)})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(stages, func(i, j int) bool { return stages[i].Number < stages[j].Number })

	for _, stage := range stages {
		matches, err := s.store.SelectMatches(ctx, storage.MatchFilter{StageID: intPtr(stage.ID)})
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if m.Status < models.StatusCompleted {
				return stage, nil
			}
		}
	}
	return nil, nil
}

// CurrentRound returns the first round with matches still to play, or nil
// when the stage is over. Not defined for round-robin stages.
func (s *queryService) CurrentRound(ctx context.Context, stageID int) (*models.Round, error) {
	stage, err := s.store.SelectStage(ctx, stageID)
	if err != nil {
		return nil, err
	}
	if isRoundRobin(stage) {
		return nil, ErrNotImplemented
	}
	rounds, err := s.orderedRounds(ctx, stage)
	if err != nil {
		return nil, err
	}
	for _, round := range rounds {
		matches, err := s.store.SelectMatches(ctx, storage.MatchFilter{RoundID: intPtr(round.ID)})
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if m.Status < models.StatusCompleted && !brackets.IsMatchByeCompleted(&m.MatchResults) {
				return round, nil
			}
		}
	}
	return nil, nil
}

// CurrentMatches returns the playable matches of the current round. Only
// single elimination is supported.
func (s *queryService) CurrentMatches(ctx context.Context, stageID int) ([]*models.Match, error) {
	stage, err := s.store.SelectStage(ctx, stageID)
	if err != nil {
		return nil, err
	}
	if stage.Type != models.StageSingleElimination {
		return nil, ErrNotImplemented
	}
	round, err := s.CurrentRound(ctx, stageID)
	if err != nil {
		return nil, err
	}
	if round == nil {
		return nil, nil
	}
	matches, err := s.store.SelectMatches(ctx, storage.MatchFilter{RoundID: intPtr(round.ID)})
	if err != nil {
		return nil, err
	}
	current := make([]*models.Match, 0, len(matches))
	for _, m := range matches {
		if m.Status < models.StatusCompleted && !brackets.IsMatchByeCompleted(&m.MatchResults) {
			current = append(current, m)
		}
	}
	return current, nil
}

func (s *queryService) orderedRounds(ctx context.Context, stage *models.Stage) ([]*models.Round, error) {
	groups, err := s.store.SelectGroups(ctx, storage.GroupFilter{StageID: intPtr(stage.ID)})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Number < groups[j].Number })

	var out []*models.Round
	for _, group := range groups {
		rounds, err := s.store.SelectRounds(ctx, storage.RoundFilter{GroupID: intPtr(group.ID)})
		if err != nil {
			return nil, err
		}
		sort.SliceStable(rounds, func(i, j int) bool { return rounds[i].Number < rounds[j].Number })
		out = append(out, rounds...)
	}
	return out, nil
}

func (s *queryService) Seeding(ctx context.Context, stageID int) ([]*models.Slot, error) {
	stage, err := s.store.SelectStage(ctx, stageID)
	if err != nil {
		return nil, err
	}
	return currentSeedingSlots(ctx, s.store, stage)
}

func (s *queryService) FinalStandings(ctx context.Context, stageID int) ([]StandingItem, error) {
	stage, err := s.store.SelectStage(ctx, stageID)
	if err != nil {
		return nil, err
	}
	switch stage.Type {
	case models.StageRoundRobin:
		return nil, ErrNoStandingsForRoundRobin
	case models.StageSingleElimination:
		return s.singleEliminationStandings(ctx, stage)
	case models.StageDoubleElimination:
		return s.doubleEliminationStandings(ctx, stage)
	default:
		return nil, ErrUnknownStageType
	}
}

func (s *queryService) singleEliminationStandings(ctx context.Context, stage *models.Stage) ([]StandingItem, error) {
	bracket, err := groupByNumber(ctx, s.store, stage.ID, models.GroupUpperBracket)
	if err != nil {
		return nil, err
	}
	rounds, err := s.store.SelectRounds(ctx, storage.RoundFilter{GroupID: intPtr(bracket.ID)})
	if err != nil {
		return nil, err
	}
	roundCount := len(rounds)
	roundNumberByID := make(map[int]int, roundCount)
	for _, r := range rounds {
		roundNumberByID[r.ID] = r.Number
	}

	matches, err := s.store.SelectMatches(ctx, storage.MatchFilter{GroupID: intPtr(bracket.ID)})
	if err != nil {
		return nil, err
	}

	// grouped[0] is the champion, grouped[r] the participants eliminated
	// r rounds from the title.
	grouped := make([][]int, roundCount+1)
	for _, m := range matches {
		winnerSide, err := brackets.GetMatchResult(&m.MatchResults)
		if err != nil {
			return nil, err
		}
		if winnerSide == "" {
			continue
		}
		winner := slotParticipantID(slotOnSide(&m.MatchResults, winnerSide))
		loser := slotParticipantID(slotOnSide(&m.MatchResults, winnerSide.Other()))
		roundNumber := roundNumberByID[m.RoundID]
		if roundNumber == roundCount && winner != 0 {
			grouped[0] = append(grouped[0], winner)
		}
		if loser != 0 {
			grouped[roundCount-roundNumber+1] = append(grouped[roundCount-roundNumber+1], loser)
		}
	}

	// The consolation final decides third and fourth place.
	if stage.Settings.ConsolationFinal {
		if decided, winner, loser, err := s.decidedMatchAt(ctx, stage.ID, 2, 1, 1); err != nil {
			return nil, err
		} else if decided && len(grouped) > 2 {
			grouped[2] = []int{winner}
			rest := append([][]int{}, grouped[:3]...)
			rest = append(rest, []int{loser})
			grouped = append(rest, grouped[3:]...)
		}
	}

	return s.toStandings(ctx, stage.TournamentID, grouped)
}

func (s *queryService) doubleEliminationStandings(ctx context.Context, stage *models.Stage) ([]StandingItem, error) {
	loser, err := groupByNumber(ctx, s.store, stage.ID, models.GroupLoserBracket)
	if err != nil {
		return nil, err
	}
	if loser == nil {
		return nil, ErrNotImplemented
	}
	lbRounds, err := s.store.SelectRounds(ctx, storage.RoundFilter{GroupID: intPtr(loser.ID)})
	if err != nil {
		return nil, err
	}
	lbRoundCount := len(lbRounds)
	roundNumberByID := make(map[int]int, lbRoundCount)
	for _, r := range lbRounds {
		roundNumberByID[r.ID] = r.Number
	}

	// grouped[0] = champion, grouped[1] = runner-up, grouped[2+k] = losers
	// of the k-th loser bracket round from the end.
	grouped := make([][]int, lbRoundCount+2)

	champion, runnerUp, err := s.doubleEliminationTop(ctx, stage, loser.ID, lbRoundCount)
	if err != nil {
		return nil, err
	}
	if champion != 0 {
		grouped[0] = append(grouped[0], champion)
	}
	if runnerUp != 0 {
		grouped[1] = append(grouped[1], runnerUp)
	}

	lbMatches, err := s.store.SelectMatches(ctx, storage.MatchFilter{GroupID: intPtr(loser.ID)})
	if err != nil {
		return nil, err
	}
	for _, m := range lbMatches {
		winnerSide, err := brackets.GetMatchResult(&m.MatchResults)
		if err != nil {
			return nil, err
		}
		if winnerSide == "" {
			continue
		}
		eliminated := slotParticipantID(slotOnSide(&m.MatchResults, winnerSide.Other()))
		if eliminated == 0 {
			continue
		}
		roundNumber := roundNumberByID[m.RoundID]
		grouped[lbRoundCount-roundNumber+2] = append(grouped[lbRoundCount-roundNumber+2], eliminated)
	}

	// The consolation final reorders third and fourth place.
	if stage.Settings.ConsolationFinal {
		if decided, winner, loserID, err := s.decidedMatchAt(ctx, stage.ID, models.GroupFinal, 1, 2); err != nil {
			return nil, err
		} else if decided && len(grouped) > 3 {
			grouped[2] = []int{winner}
			grouped[3] = []int{loserID}
		}
	}

	return s.toStandings(ctx, stage.TournamentID, grouped)
}

// doubleEliminationTop finds the champion and the runner-up: the last
// decided grand final when there is one, otherwise the winners of both
// bracket finals.
func (s *queryService) doubleEliminationTop(ctx context.Context, stage *models.Stage, loserGroupID, lbRoundCount int) (champion, runnerUp int, err error) {
	if stage.Settings.GrandFinal != models.GrandFinalNone && stage.Settings.GrandFinal != "" {
		final, err := groupByNumber(ctx, s.store, stage.ID, models.GroupFinal)
		if err != nil || final == nil {
			return 0, 0, err
		}
		for roundNumber := 2; roundNumber >= 1; roundNumber-- {
			decided, winner, loser, err := s.decidedMatchAtGroup(ctx, final.ID, roundNumber, 1)
			if err != nil {
				return 0, 0, err
			}
			if decided {
				return winner, loser, nil
			}
		}
		return 0, 0, nil
	}

	upper, err := groupByNumber(ctx, s.store, stage.ID, models.GroupUpperBracket)
	if err != nil || upper == nil {
		return 0, 0, err
	}
	upperRounds, err := s.store.SelectRounds(ctx, storage.RoundFilter{GroupID: intPtr(upper.ID)})
	if err != nil {
		return 0, 0, err
	}
	_, champion, _, err = s.decidedMatchAtGroup(ctx, upper.ID, len(upperRounds), 1)
	if err != nil {
		return 0, 0, err
	}
	_, runnerUp, _, err = s.decidedMatchAtGroup(ctx, loserGroupID, lbRoundCount, 1)
	return champion, runnerUp, err
}

func (s *queryService) decidedMatchAt(ctx context.Context, stageID, groupNumber, roundNumber, matchNumber int) (bool, int, int, error) {
	group, err := groupByNumber(ctx, s.store, stageID, groupNumber)
	if err != nil || group == nil {
		return false, 0, 0, err
	}
	return s.decidedMatchAtGroup(ctx, group.ID, roundNumber, matchNumber)
}

func (s *queryService) decidedMatchAtGroup(ctx context.Context, groupID, roundNumber, matchNumber int) (bool, int, int, error) {
	m, err := findMatchAt(ctx, s.store, groupID, roundNumber, matchNumber)
	if err != nil || m == nil {
		return false, 0, 0, err
	}
	winnerSide, err := brackets.GetMatchResult(&m.MatchResults)
	if err != nil {
		return false, 0, 0, err
	}
	if winnerSide == "" {
		return false, 0, 0, nil
	}
	winner := slotParticipantID(slotOnSide(&m.MatchResults, winnerSide))
	loser := slotParticipantID(slotOnSide(&m.MatchResults, winnerSide.Other()))
	return true, winner, loser, nil
}

func (s *queryService) toStandings(ctx context.Context, tournamentID int, grouped [][]int) ([]StandingItem, error) {
	participants, err := s.store.SelectParticipants(ctx, storage.ParticipantFilter{TournamentID: intPtr(tournamentID)})
	if err != nil {
		return nil, err
	}
	names := make(map[int]string, len(participants))
	for _, p := range participants {
		names[p.ID] = p.Name
	}

	items := make([]StandingItem, 0)
	for index, group := range grouped {
		for _, id := range group {
			items = append(items, StandingItem{ID: id, Name: names[id], Rank: index + 1})
		}
	}
	return items, nil
}
