package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/storage"
)

// MatchService is the write path of the engine: it applies reported results
// and cascades their consequences through the bracket.
type MatchService interface {
	UpdateMatch(ctx context.Context, update *models.MatchUpdate) error
	UpdateMatchGame(ctx context.Context, update *models.MatchGameUpdate) error
	UpdateMatchChildCount(ctx context.Context, level ChildCountLevel, id, childCount int) error
}

// ChildCountLevel selects the scope of a child count update.
type ChildCountLevel string

const (
	LevelStage ChildCountLevel = "stage"
	LevelGroup ChildCountLevel = "group"
	LevelRound ChildCountLevel = "round"
	LevelMatch ChildCountLevel = "match"
)

type matchService struct {
	updater
}

func NewMatchService(store storage.Storage) MatchService {
	return &matchService{updater{store: store, nav: navigator{store: store}}}
}

func (s *matchService) UpdateMatch(ctx context.Context, update *models.MatchUpdate) error {
	stored, err := s.store.SelectMatch(ctx, update.ID)
	if err != nil {
		return err
	}
	return s.updateMatch(ctx, stored, update, false)
}

func (s *matchService) UpdateMatchGame(ctx context.Context, update *models.MatchGameUpdate) error {
	stored, err := s.findMatchGame(ctx, update)
	if err != nil {
		return err
	}
	if brackets.IsMatchUpdateLocked(&stored.MatchResults) {
		return ErrMatchGameLocked
	}

	stage, err := s.store.SelectStage(ctx, stored.StageID)
	if err != nil {
		return err
	}
	inRoundRobin := isRoundRobin(stage)

	if _, _, err := brackets.SetMatchResults(&stored.MatchResults, &update.ResultsUpdate, inRoundRobin); err != nil {
		return err
	}
	mergeExtraFields(&stored.Extra, update.Extra)
	mergeSlotExtras(&stored.MatchResults, &update.ResultsUpdate)

	if err := s.store.UpdateMatchGame(ctx, stored.ID, stored); err != nil {
		return err
	}
	return s.updateParentMatch(ctx, stored.ParentID, inRoundRobin)
}

func (s *matchService) findMatchGame(ctx context.Context, update *models.MatchGameUpdate) (*models.MatchGame, error) {
	if update.ID != 0 {
		return s.store.SelectMatchGame(ctx, update.ID)
	}
	if update.ParentID == 0 || update.Number == 0 {
		return nil, storage.ErrMatchGameNotFound
	}
	games, err := s.store.SelectMatchGames(ctx, storage.MatchGameFilter{
		ParentID: intPtr(update.ParentID),
		Number:   intPtr(update.Number),
	})
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, storage.ErrMatchGameNotFound
	}
	return games[0], nil
}

func (s *matchService) UpdateMatchChildCount(ctx context.Context, level ChildCountLevel, id, childCount int) error {
	var filter storage.MatchFilter
	switch level {
	case LevelStage:
		filter.StageID = intPtr(id)
	case LevelGroup:
		filter.GroupID = intPtr(id)
	case LevelRound:
		filter.RoundID = intPtr(id)
	case LevelMatch:
		// handled below
	default:
		return fmt.Errorf("unknown child count level %q", level)
	}

	var matches []*models.Match
	var err error
	if level == LevelMatch {
		match, err := s.store.SelectMatch(ctx, id)
		if err != nil {
			return err
		}
		matches = []*models.Match{match}
	} else {
		if matches, err = s.store.SelectMatches(ctx, filter); err != nil {
			return err
		}
	}

	for _, match := range matches {
		match.ChildCount = childCount
		if err := s.store.UpdateMatch(ctx, match.ID, match); err != nil {
			return err
		}
		if err := adjustChildGames(ctx, s.store, match, childCount); err != nil {
			return err
		}
	}
	return nil
}

// adjustChildGames grows or shrinks the series of a match to the wanted
// child count.
func adjustChildGames(ctx context.Context, store storage.Storage, match *models.Match, childCount int) error {
	games, err := store.SelectMatchGames(ctx, storage.MatchGameFilter{ParentID: intPtr(match.ID)})
	if err != nil {
		return err
	}
	for number := len(games) + 1; number <= childCount; number++ {
		game := &models.MatchGame{
			StageID:  match.StageID,
			ParentID: match.ID,
			Number:   number,
			MatchResults: models.MatchResults{
				Status:    match.Status,
				Opponent1: idOnlySlot(match.Opponent1),
				Opponent2: idOnlySlot(match.Opponent2),
			},
		}
		if _, err := store.InsertMatchGame(ctx, game); err != nil {
			return err
		}
	}
	for number := len(games); number > childCount; number-- {
		if _, err := store.DeleteMatchGames(ctx, storage.MatchGameFilter{
			ParentID: intPtr(match.ID),
			Number:   intPtr(number),
		}); err != nil {
			return err
		}
	}
	return nil
}

// updater carries the cascade machinery shared by updates and resets.
type updater struct {
	store storage.Storage
	nav   navigator
}

// updateMatch merges the update into the stored match, persists it, and
// runs the neighbor cascades when the status or the result changed.
func (u *updater) updateMatch(ctx context.Context, stored *models.Match, update *models.MatchUpdate, force bool) error {
	if !force && brackets.IsMatchUpdateLocked(&stored.MatchResults) {
		return ErrMatchLocked
	}

	stage, err := u.store.SelectStage(ctx, stored.StageID)
	if err != nil {
		return err
	}
	inRoundRobin := isRoundRobin(stage)

	statusChanged, resultChanged, err := brackets.SetMatchResults(&stored.MatchResults, &update.ResultsUpdate, inRoundRobin)
	if err != nil {
		return err
	}
	mergeExtraFields(&stored.Extra, update.Extra)
	mergeSlotExtras(&stored.MatchResults, &update.ResultsUpdate)

	if err := u.applyMatchUpdate(ctx, stored); err != nil {
		return err
	}

	if !statusChanged && !resultChanged {
		return nil
	}
	if inRoundRobin {
		return nil
	}
	return u.updateRelatedMatches(ctx, stored, statusChanged, resultChanged)
}

// applyMatchUpdate persists a match and mirrors it onto its child games:
// the opponent ids always, the status when the match is at Ready or below
// or was archived.
func (u *updater) applyMatchUpdate(ctx context.Context, match *models.Match) error {
	if err := u.store.UpdateMatch(ctx, match.ID, match); err != nil {
		return err
	}
	if match.ChildCount == 0 {
		return nil
	}
	partial := storage.MatchGamePartial{
		SetOpponents: true,
		Opponent1:    idOnlySlot(match.Opponent1),
		Opponent2:    idOnlySlot(match.Opponent2),
	}
	if match.Status <= models.StatusReady || match.Status == models.StatusArchived {
		status := match.Status
		partial.Status = &status
	}
	return u.store.UpdateMatchGames(ctx, storage.MatchGameFilter{ParentID: intPtr(match.ID)}, partial)
}

// updateRelatedMatches refreshes the neighbors of a match after it changed:
// previous matches are archived or brought back to their natural status,
// next matches receive or lose the decided participants.
func (u *updater) updateRelatedMatches(ctx context.Context, match *models.Match, updatePrevious, updateNext bool) error {
	if match.RoundID == 0 {
		// A user-added match outside the generated tree has no neighbors.
		return nil
	}
	_, roundNumber, roundCount, err := roundInfo(ctx, u.store, match.RoundID)
	if err != nil {
		return err
	}
	stage, err := u.store.SelectStage(ctx, match.StageID)
	if err != nil {
		return err
	}
	group, err := u.store.SelectGroup(ctx, match.GroupID)
	if err != nil {
		return err
	}
	location := brackets.MatchLocation(stage.Type, group.Number)

	if updatePrevious {
		if err := u.updatePreviousMatches(ctx, match, location, stage, roundNumber); err != nil {
			return err
		}
	}
	if updateNext {
		if err := u.updateNextMatches(ctx, match, location, stage, roundNumber, roundCount); err != nil {
			return err
		}
	}
	return nil
}

func (u *updater) updatePreviousMatches(ctx context.Context, match *models.Match, location brackets.Location, stage *models.Stage, roundNumber int) error {
	previous, err := u.nav.previousMatches(ctx, match, location, stage, roundNumber)
	if err != nil {
		return err
	}
	if len(previous) == 0 {
		return nil
	}
	if match.Status >= models.StatusRunning {
		return u.archiveMatches(ctx, previous)
	}
	return u.resetMatchesStatus(ctx, previous)
}

func (u *updater) archiveMatches(ctx context.Context, matches []*models.Match) error {
	for _, m := range matches {
		if m.Status == models.StatusArchived {
			continue
		}
		m.Status = models.StatusArchived
		if err := u.applyMatchUpdate(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (u *updater) resetMatchesStatus(ctx context.Context, matches []*models.Match) error {
	for _, m := range matches {
		m.Status = naturalMatchStatus(&m.MatchResults)
		if err := u.applyMatchUpdate(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (u *updater) updateNextMatches(ctx context.Context, match *models.Match, location brackets.Location, stage *models.Stage, roundNumber, roundCount int) error {
	next, err := u.nav.nextMatches(ctx, match, location, stage, roundNumber, roundCount)
	if err != nil {
		return err
	}
	if len(next) == 0 || (next[0] == nil && (len(next) < 2 || next[1] == nil)) {
		// The last match of the stage archives itself once completed.
		if match.Status == models.StatusCompleted {
			return u.archiveMatches(ctx, []*models.Match{match})
		}
		return nil
	}

	winnerSide, err := brackets.GetMatchResult(&match.MatchResults)
	if err != nil {
		return err
	}
	actualRound := roundNumber
	if stage.Settings.SkipFirstRound && location == brackets.LocationWinnerBracket {
		actualRound++
	}
	return u.applyToNextMatches(ctx, match, location, actualRound, roundCount, next, winnerSide)
}

func (u *updater) applyToNextMatches(ctx context.Context, match *models.Match, location brackets.Location, roundNumber, roundCount int, next []*models.Match, winnerSide brackets.Side) error {
	if location == brackets.LocationFinalGroup {
		// The final group receives both finalists, not one.
		if next[0] == nil {
			return fmt.Errorf("first next match is missing")
		}
		if winnerSide == "" {
			resetNextOpponent(next[0], brackets.SideOpponent1)
			resetNextOpponent(next[0], brackets.SideOpponent2)
		} else {
			setNextOpponent(next[0], brackets.SideOpponent1, match, brackets.SideOpponent1)
			setNextOpponent(next[0], brackets.SideOpponent2, match, brackets.SideOpponent2)
		}
		return u.propagateByeWinners(ctx, next[0])
	}

	nextSide := brackets.NextSide(match.Number, roundNumber, roundCount, location)
	if next[0] != nil {
		if winnerSide == "" {
			resetNextOpponent(next[0], nextSide)
		} else {
			setNextOpponent(next[0], nextSide, match, winnerSide)
		}
		if err := u.propagateByeWinners(ctx, next[0]); err != nil {
			return err
		}
	}

	if len(next) < 2 || next[1] == nil {
		return nil
	}

	// The second next match receives the loser: the consolation final in a
	// single bracket, the loser bracket drop in a winner bracket, or the
	// consolation final of a double elimination stage.
	var loserSide brackets.Side
	switch location {
	case brackets.LocationSingleBracket:
		loserSide = nextSide
	case brackets.LocationWinnerBracket:
		loserSide = brackets.NextSideLoserBracket(match.Number, next[1], roundNumber)
	case brackets.LocationLoserBracket:
		loserSide = brackets.SideOpponent2
		if roundNumber%2 == 1 {
			loserSide = brackets.SideOpponent1
		}
	default:
		return fmt.Errorf("unexpected second next match in location %q", location)
	}

	if winnerSide == "" {
		resetNextOpponent(next[1], loserSide)
	} else {
		setNextOpponent(next[1], loserSide, match, winnerSide.Other())
	}
	return u.propagateByeWinners(ctx, next[1])
}

// propagateByeWinners re-resolves a match that just received an opponent, so
// that an arrival against a BYE immediately turns into a win, then recurses
// while the chain keeps producing BYEs. BYE propagation only exists in
// elimination stages, so the round-robin flag is always false here.
func (u *updater) propagateByeWinners(ctx context.Context, match *models.Match) error {
	input := &models.ResultsUpdate{
		Opponent1: match.Opponent1.Clone(),
		Opponent2: match.Opponent2.Clone(),
	}
	if _, _, err := brackets.SetMatchResults(&match.MatchResults, input, false); err != nil {
		return err
	}
	if err := u.applyMatchUpdate(ctx, match); err != nil {
		return err
	}
	if match.Opponent1 == nil || match.Opponent2 == nil {
		return u.updateRelatedMatches(ctx, match, true, true)
	}
	return nil
}

// updateParentMatch recomputes a best-of-X parent from its child games and
// applies the derived update with the lock bypassed.
func (u *updater) updateParentMatch(ctx context.Context, parentID int, inRoundRobin bool) error {
	parent, err := u.store.SelectMatch(ctx, parentID)
	if err != nil {
		return err
	}
	games, err := u.store.SelectMatchGames(ctx, storage.MatchGameFilter{ParentID: intPtr(parentID)})
	if err != nil {
		return err
	}
	score1, score2, err := brackets.ChildGamesScores(games)
	if err != nil {
		return err
	}
	update, err := brackets.ParentMatchUpdate(parent, score1, score2, inRoundRobin)
	if err != nil {
		return err
	}
	return u.updateMatch(ctx, parent, &models.MatchUpdate{ID: parentID, ResultsUpdate: *update}, true)
}

// setNextOpponent writes the decided participant into a slot of the next
// match: a BYE stays a BYE, otherwise the id moves and the slot keeps its
// recorded position.
func setNextOpponent(next *models.Match, nextSide brackets.Side, match *models.Match, currentSide brackets.Side) {
	source := slotOnSide(&match.MatchResults, currentSide)
	current := slotOnSide(&next.MatchResults, nextSide)

	var updated *models.Slot
	if source != nil {
		updated = &models.Slot{ID: source.ID}
		if current != nil {
			updated.Position = current.Position
			updated.Extra = current.Extra
		}
		if updated.ID != nil {
			id := *updated.ID
			updated.ID = &id
		}
	}
	assignSlot(&next.MatchResults, nextSide, updated)
	next.Status = naturalMatchStatus(&next.MatchResults)
}

// resetNextOpponent takes the participant back out of the slot, keeping the
// position, and locks the match again.
func resetNextOpponent(next *models.Match, nextSide brackets.Side) {
	current := slotOnSide(&next.MatchResults, nextSide)
	if current != nil {
		assignSlot(&next.MatchResults, nextSide, &models.Slot{Position: current.Position, Extra: current.Extra})
	}
	for _, s := range []*models.Slot{next.Opponent1, next.Opponent2} {
		if s != nil {
			s.Score = nil
			s.Forfeit = false
			s.Result = ""
		}
	}
	next.Status = models.StatusLocked
}

func slotOnSide(m *models.MatchResults, side brackets.Side) *models.Slot {
	if side == brackets.SideOpponent1 {
		return m.Opponent1
	}
	return m.Opponent2
}

func assignSlot(m *models.MatchResults, side brackets.Side, slot *models.Slot) {
	if side == brackets.SideOpponent1 {
		m.Opponent1 = slot
		return
	}
	m.Opponent2 = slot
}

// naturalMatchStatus is the status a match deserves from its own state:
// completed outcomes and reported scores win over the slot-derived status.
func naturalMatchStatus(m *models.MatchResults) models.MatchStatus {
	if brackets.IsMatchCompleted(m) {
		return models.StatusCompleted
	}
	if brackets.IsMatchStarted(m) {
		return models.StatusRunning
	}
	return brackets.GetMatchStatus(m.Opponent1, m.Opponent2)
}

func idOnlySlot(s *models.Slot) *models.Slot {
	if s == nil {
		return nil
	}
	out := &models.Slot{}
	if s.ID != nil {
		id := *s.ID
		out.ID = &id
	}
	return out
}

// mergeExtraFields copies caller-supplied non-reserved fields verbatim onto
// the stored record.
func mergeExtraFields(target *map[string]json.RawMessage, source map[string]json.RawMessage) {
	if len(source) == 0 {
		return
	}
	if *target == nil {
		*target = make(map[string]json.RawMessage, len(source))
	}
	for k, v := range source {
		(*target)[k] = v
	}
}

// mergeSlotExtras does the same for the slots. It runs after opponent
// inversion, so the update sides already match the stored ones.
func mergeSlotExtras(stored *models.MatchResults, update *models.ResultsUpdate) {
	if stored.Opponent1 != nil && update.Opponent1 != nil {
		mergeExtraFields(&stored.Opponent1.Extra, update.Opponent1.Extra)
	}
	if stored.Opponent2 != nil && update.Opponent2 != nil {
		mergeExtraFields(&stored.Opponent2.Extra, update.Opponent2.Extra)
	}
}
