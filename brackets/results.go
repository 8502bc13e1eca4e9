package brackets

import "github.com/Dosada05/bracket-engine/models"

// SetMatchResults merges a partial update into a stored match (or match
// game) and resolves its outcome: score promotion, forfeits, BYE
// completion, and the resulting status transition. It reports whether the
// status and whether the result changed, so the caller knows which cascades
// to run.
func SetMatchResults(stored *models.MatchResults, input *models.ResultsUpdate, inRoundRobin bool) (statusChanged, resultChanged bool, err error) {
	prevStatus := stored.Status
	currentlyCompleted := IsMatchCompleted(stored)

	explicitRunning := handleGivenStatus(stored, input)

	if !inRoundRobin && (slotResult(input.Opponent1) == models.ResultDraw || slotResult(input.Opponent2) == models.ResultDraw) {
		return false, false, ErrDrawInElimination
	}

	if err := handleOpponentsInversion(stored, input); err != nil {
		return false, false, err
	}

	scoresTouched := applyScores(stored, input)

	completed := !explicitRunning && inputIndicatesCompleted(stored, input)

	switch {
	case completed:
		if err := setCompleted(stored, input); err != nil {
			return false, false, err
		}
		return !currentlyCompleted, true, nil
	case currentlyCompleted:
		removeCompleted(stored, explicitRunning)
		return true, true, nil
	default:
		if scoresTouched && stored.Status < models.StatusRunning {
			stored.Status = models.StatusRunning
		}
		if input.Status != nil {
			stored.Status = *input.Status
		}
		return stored.Status != prevStatus, false, nil
	}
}

// handleGivenStatus applies an explicitly requested status before anything
// else. Running clears prior results and takes precedence over score
// promotion; Completed with two scores promotes them to results.
func handleGivenStatus(stored *models.MatchResults, input *models.ResultsUpdate) (explicitRunning bool) {
	if input.Status == nil {
		return false
	}
	switch *input.Status {
	case models.StatusRunning:
		if stored.Opponent1 != nil {
			stored.Opponent1.Result = ""
		}
		if stored.Opponent2 != nil {
			stored.Opponent2.Result = ""
		}
		stored.Status = models.StatusRunning
		return true
	case models.StatusCompleted:
		if input.Opponent1 == nil || input.Opponent1.Score == nil ||
			input.Opponent2 == nil || input.Opponent2.Score == nil {
			return false
		}
		score1, score2 := *input.Opponent1.Score, *input.Opponent2.Score
		switch {
		case score1 > score2:
			input.Opponent1.Result = models.ResultWin
		case score2 > score1:
			input.Opponent2.Result = models.ResultWin
		default:
			input.Opponent1.Result = models.ResultDraw
			input.Opponent2.Result = models.ResultDraw
		}
	}
	return false
}

// handleOpponentsInversion swaps the sides of the update when the caller
// identified the opponents in the reverse order of the stored match.
func handleOpponentsInversion(stored *models.MatchResults, input *models.ResultsUpdate) error {
	id1, id2 := slotID(input.Opponent1), slotID(input.Opponent2)
	storedID1, storedID2 := slotID(stored.Opponent1), slotID(stored.Opponent2)

	if id1 != nil && !idMatches(id1, storedID1) && !idMatches(id1, storedID2) {
		return ErrInvalidOpponent
	}
	if id2 != nil && !idMatches(id2, storedID1) && !idMatches(id2, storedID2) {
		return ErrInvalidOpponent
	}
	if (id1 != nil && idMatches(id1, storedID2)) || (id2 != nil && idMatches(id2, storedID1)) {
		input.Opponent1, input.Opponent2 = input.Opponent2, input.Opponent1
	}
	return nil
}

func slotID(s *models.Slot) *int {
	if s == nil {
		return nil
	}
	return s.ID
}

func slotResult(s *models.Slot) models.Result {
	if s == nil {
		return ""
	}
	return s.Result
}

func idMatches(id, other *int) bool {
	return other != nil && *id == *other
}

// applyScores copies the update's scores onto the stored slots. When any
// score is given, both sides get one: a missing counterpart defaults to the
// stored value or zero.
func applyScores(stored *models.MatchResults, input *models.ResultsUpdate) bool {
	score1 := slotScore(input.Opponent1)
	score2 := slotScore(input.Opponent2)
	if score1 == nil && score2 == nil {
		return false
	}
	if stored.Opponent1 != nil {
		stored.Opponent1.Score = pickScore(score1, stored.Opponent1.Score)
	}
	if stored.Opponent2 != nil {
		stored.Opponent2.Score = pickScore(score2, stored.Opponent2.Score)
	}
	return true
}

func slotScore(s *models.Slot) *int {
	if s == nil {
		return nil
	}
	return s.Score
}

func pickScore(input, stored *int) *int {
	if input != nil {
		v := *input
		return &v
	}
	if stored != nil {
		return stored
	}
	zero := 0
	return &zero
}

// inputIndicatesCompleted reports whether the merged state has an outcome:
// the update carries a forfeit or a decisive result, or the stored match is
// decided by its BYEs.
func inputIndicatesCompleted(stored *models.MatchResults, input *models.ResultsUpdate) bool {
	if IsMatchByeCompleted(stored) {
		return true
	}
	if (input.Opponent1 != nil && input.Opponent1.Forfeit) || (input.Opponent2 != nil && input.Opponent2.Forfeit) {
		return true
	}
	if slotResult(input.Opponent1) == models.ResultDraw && slotResult(input.Opponent2) == models.ResultDraw {
		return true
	}
	return isDecisive(slotResult(input.Opponent1)) || isDecisive(slotResult(input.Opponent2))
}

func isDecisive(r models.Result) bool {
	return r == models.ResultWin || r == models.ResultLoss
}

// setCompleted fixes the outcome on the stored match: symmetric win/loss
// results, draws, forfeits and wins against a BYE.
func setCompleted(stored *models.MatchResults, input *models.ResultsUpdate) error {
	stored.Status = models.StatusCompleted

	if err := setResults(stored, input, models.ResultWin, models.ResultLoss, ErrTwoWinners); err != nil {
		return err
	}
	if err := setResults(stored, input, models.ResultLoss, models.ResultWin, ErrTwoLosers); err != nil {
		return err
	}
	if slotResult(input.Opponent1) == models.ResultDraw || slotResult(input.Opponent2) == models.ResultDraw {
		if stored.Opponent1 != nil {
			stored.Opponent1.Result = models.ResultDraw
		}
		if stored.Opponent2 != nil {
			stored.Opponent2.Result = models.ResultDraw
		}
	}
	if err := setForfeits(stored, input); err != nil {
		return err
	}

	// A determined participant against a BYE wins by default.
	if stored.Opponent2 == nil && stored.Opponent1 != nil && stored.Opponent1.ID != nil {
		stored.Opponent1.Result = models.ResultWin
	}
	if stored.Opponent1 == nil && stored.Opponent2 != nil && stored.Opponent2.ID != nil {
		stored.Opponent2.Result = models.ResultWin
	}
	return nil
}

func setResults(stored *models.MatchResults, input *models.ResultsUpdate, check, opposite models.Result, both error) error {
	has1 := slotResult(input.Opponent1) == check
	has2 := slotResult(input.Opponent2) == check
	if has1 && has2 {
		return both
	}
	if has1 {
		if stored.Opponent1 != nil {
			stored.Opponent1.Result = check
		}
		if stored.Opponent2 != nil {
			stored.Opponent2.Result = opposite
		}
	}
	if has2 {
		if stored.Opponent2 != nil {
			stored.Opponent2.Result = check
		}
		if stored.Opponent1 != nil {
			stored.Opponent1.Result = opposite
		}
	}
	return nil
}

func setForfeits(stored *models.MatchResults, input *models.ResultsUpdate) error {
	forfeit1 := input.Opponent1 != nil && input.Opponent1.Forfeit
	forfeit2 := input.Opponent2 != nil && input.Opponent2.Forfeit
	if forfeit1 && forfeit2 {
		return ErrTwoForfeits
	}
	if forfeit1 && stored.Opponent1 != nil {
		stored.Opponent1.Forfeit = true
		stored.Opponent1.Result = ""
		if stored.Opponent2 != nil {
			stored.Opponent2.Result = models.ResultWin
		}
	}
	if forfeit2 && stored.Opponent2 != nil {
		stored.Opponent2.Forfeit = true
		stored.Opponent2.Result = ""
		if stored.Opponent1 != nil {
			stored.Opponent1.Result = models.ResultWin
		}
	}
	return nil
}

// removeCompleted takes a previously completed match back to a playable
// state, keeping scores but dropping results and forfeits.
func removeCompleted(stored *models.MatchResults, explicitRunning bool) {
	if stored.Opponent1 != nil {
		stored.Opponent1.Result = ""
		stored.Opponent1.Forfeit = false
	}
	if stored.Opponent2 != nil {
		stored.Opponent2.Result = ""
		stored.Opponent2.Forfeit = false
	}
	if explicitRunning || IsMatchStarted(stored) {
		stored.Status = models.StatusRunning
		return
	}
	stored.Status = GetMatchStatus(stored.Opponent1, stored.Opponent2)
}

// ResetMatchResults clears every reported outcome and score and recomputes
// the natural status from the slots.
func ResetMatchResults(stored *models.MatchResults) {
	for _, s := range []*models.Slot{stored.Opponent1, stored.Opponent2} {
		if s == nil {
			continue
		}
		s.Score = nil
		s.Forfeit = false
		s.Result = ""
	}
	stored.Status = GetMatchStatus(stored.Opponent1, stored.Opponent2)
}

// ChildGamesScores counts the child games won by each side.
func ChildGamesScores(games []*models.MatchGame) (score1, score2 int, err error) {
	for _, game := range games {
		side, err := GetMatchResult(&game.MatchResults)
		if err != nil {
			return 0, 0, err
		}
		switch side {
		case SideOpponent1:
			score1++
		case SideOpponent2:
			score2++
		}
	}
	return score1, score2, nil
}

// ParentMatchUpdate derives the update to apply to a best-of-X parent from
// its child game scores: the side reaching the majority of games wins; a
// full series with equal counts is a draw, which elimination forbids.
func ParentMatchUpdate(parent *models.Match, score1, score2 int, inRoundRobin bool) (*models.ResultsUpdate, error) {
	update := &models.ResultsUpdate{
		Opponent1: &models.Slot{ID: slotID(parent.Opponent1), Score: &score1},
		Opponent2: &models.Slot{ID: slotID(parent.Opponent2), Score: &score2},
	}

	if score1+score2 == parent.ChildCount && score1 == score2 {
		if !inRoundRobin {
			return nil, ErrGamesTie
		}
		update.Opponent1.Result = models.ResultDraw
		update.Opponent2.Result = models.ResultDraw
		return update, nil
	}
	if 2*score1 > parent.ChildCount {
		update.Opponent1.Result = models.ResultWin
	} else if 2*score2 > parent.ChildCount {
		update.Opponent2.Result = models.ResultWin
	}
	return update, nil
}
