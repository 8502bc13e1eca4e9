package brackets

import "github.com/Dosada05/bracket-engine/models"

// GetMatchStatus derives the natural status of a match from its slots
// alone: a BYE or two TBD slots lock it, one TBD slot makes it waiting,
// two known participants make it ready.
func GetMatchStatus(opponent1, opponent2 *models.Slot) models.MatchStatus {
	if opponent1 == nil || opponent2 == nil {
		return models.StatusLocked
	}
	if opponent1.ID == nil && opponent2.ID == nil {
		return models.StatusLocked
	}
	if opponent1.ID == nil || opponent2.ID == nil {
		return models.StatusWaiting
	}
	return models.StatusReady
}

// IsMatchStarted reports whether any score was reported.
func IsMatchStarted(m *models.MatchResults) bool {
	return (m.Opponent1 != nil && m.Opponent1.Score != nil) ||
		(m.Opponent2 != nil && m.Opponent2.Score != nil)
}

// IsMatchByeCompleted reports whether the match is decided by its BYEs: one
// side absent and the other determined, or both sides absent.
func IsMatchByeCompleted(m *models.MatchResults) bool {
	if m.Opponent1 == nil && m.Opponent2 == nil {
		return true
	}
	if m.Opponent1 == nil {
		return m.Opponent2.ID != nil
	}
	if m.Opponent2 == nil {
		return m.Opponent1.ID != nil
	}
	return false
}

// IsMatchCompleted reports whether the match has an outcome: a BYE
// completion, a forfeit, a draw on both sides, or a win/loss on either side.
func IsMatchCompleted(m *models.MatchResults) bool {
	if IsMatchByeCompleted(m) {
		return true
	}
	if (m.Opponent1 != nil && m.Opponent1.Forfeit) || (m.Opponent2 != nil && m.Opponent2.Forfeit) {
		return true
	}
	if m.Opponent1 != nil && m.Opponent2 != nil &&
		m.Opponent1.Result == models.ResultDraw && m.Opponent2.Result == models.ResultDraw {
		return true
	}
	return hasDecisiveResult(m.Opponent1) || hasDecisiveResult(m.Opponent2)
}

func hasDecisiveResult(s *models.Slot) bool {
	return s != nil && (s.Result == models.ResultWin || s.Result == models.ResultLoss)
}

// IsMatchUpdateLocked reports whether results may no longer be reported for
// the match.
func IsMatchUpdateLocked(m *models.MatchResults) bool {
	switch m.Status {
	case models.StatusLocked, models.StatusWaiting, models.StatusArchived:
		return true
	}
	return IsMatchByeCompleted(m)
}

// IsMatchParticipantLocked reports whether the participants of the match may
// no longer change.
func IsMatchParticipantLocked(m *models.MatchResults) bool {
	return m.Status >= models.StatusRunning
}

// IsMatchStale reports whether the match is over and its outcome fixed.
func IsMatchStale(m *models.MatchResults) bool {
	return m.Status >= models.StatusCompleted || IsMatchByeCompleted(m)
}

// GetMatchResult returns the winning side of a completed match, or "" when
// the match is not completed, drawn, or decided by a double forfeit.
func GetMatchResult(m *models.MatchResults) (Side, error) {
	if !IsMatchCompleted(m) {
		return "", nil
	}
	if m.Opponent1 == nil && m.Opponent2 == nil {
		// A double BYE has no winner to propagate.
		return "", nil
	}
	if m.Opponent1 != nil && m.Opponent2 != nil &&
		m.Opponent1.Result == models.ResultDraw && m.Opponent2.Result == models.ResultDraw {
		return "", nil
	}
	if m.Opponent1 != nil && m.Opponent2 != nil && m.Opponent1.Forfeit && m.Opponent2.Forfeit {
		return "", nil
	}

	winner1 := (m.Opponent1 != nil && m.Opponent1.Result == models.ResultWin) ||
		m.Opponent2 == nil || m.Opponent2.Forfeit
	winner2 := (m.Opponent2 != nil && m.Opponent2.Result == models.ResultWin) ||
		m.Opponent1 == nil || m.Opponent1.Forfeit

	if winner1 && winner2 {
		return "", ErrTwoWinners
	}
	if winner1 {
		return SideOpponent1, nil
	}
	if winner2 {
		return SideOpponent2, nil
	}
	return "", nil
}
