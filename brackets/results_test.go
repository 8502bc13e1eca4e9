package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/bracket-engine/models"
)

func intp(v int) *int { return &v }

func statusp(s models.MatchStatus) *models.MatchStatus { return &s }

func readyMatch() *models.MatchResults {
	return &models.MatchResults{
		Status:    models.StatusReady,
		Opponent1: slot(1),
		Opponent2: slot(2),
	}
}

func TestGetMatchStatus(t *testing.T) {
	assert.Equal(t, models.StatusLocked, GetMatchStatus(nil, nil))
	assert.Equal(t, models.StatusLocked, GetMatchStatus(slot(1), nil))
	assert.Equal(t, models.StatusLocked, GetMatchStatus(&models.Slot{}, &models.Slot{}))
	assert.Equal(t, models.StatusWaiting, GetMatchStatus(slot(1), &models.Slot{}))
	assert.Equal(t, models.StatusReady, GetMatchStatus(slot(1), slot(2)))
}

func TestSetMatchResultsScoreReportMarksRunning(t *testing.T) {
	stored := readyMatch()
	statusChanged, resultChanged, err := SetMatchResults(stored, &models.ResultsUpdate{
		Opponent1: &models.Slot{Score: intp(1)},
	}, false)
	require.NoError(t, err)
	assert.True(t, statusChanged)
	assert.False(t, resultChanged)
	assert.Equal(t, models.StatusRunning, stored.Status)
	assert.Equal(t, 1, *stored.Opponent1.Score)
	assert.Equal(t, 0, *stored.Opponent2.Score)
}

func TestSetMatchResultsWin(t *testing.T) {
	stored := readyMatch()
	statusChanged, resultChanged, err := SetMatchResults(stored, &models.ResultsUpdate{
		Opponent1: &models.Slot{Score: intp(2), Result: models.ResultWin},
		Opponent2: &models.Slot{Score: intp(0)},
	}, false)
	require.NoError(t, err)
	assert.True(t, statusChanged)
	assert.True(t, resultChanged)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.Equal(t, models.ResultWin, stored.Opponent1.Result)
	assert.Equal(t, models.ResultLoss, stored.Opponent2.Result)
}

func TestSetMatchResultsScorePromotion(t *testing.T) {
	stored := readyMatch()
	_, _, err := SetMatchResults(stored, &models.ResultsUpdate{
		Status:    statusp(models.StatusCompleted),
		Opponent1: &models.Slot{Score: intp(3)},
		Opponent2: &models.Slot{Score: intp(1)},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.Equal(t, models.ResultWin, stored.Opponent1.Result)
}

func TestSetMatchResultsTiedScoresDrawForbidden(t *testing.T) {
	stored := readyMatch()
	_, _, err := SetMatchResults(stored, &models.ResultsUpdate{
		Status:    statusp(models.StatusCompleted),
		Opponent1: &models.Slot{Score: intp(2)},
		Opponent2: &models.Slot{Score: intp(2)},
	}, false)
	assert.ErrorIs(t, err, ErrDrawInElimination)
}

func TestSetMatchResultsDrawAllowedInRoundRobin(t *testing.T) {
	stored := readyMatch()
	_, _, err := SetMatchResults(stored, &models.ResultsUpdate{
		Status:    statusp(models.StatusCompleted),
		Opponent1: &models.Slot{Score: intp(2)},
		Opponent2: &models.Slot{Score: intp(2)},
	}, true)
	require.NoError(t, err)
	assert.Equal(t, models.ResultDraw, stored.Opponent1.Result)
	assert.Equal(t, models.ResultDraw, stored.Opponent2.Result)
}

// An explicit Running status wins over score promotion: a prior result is
// cleared even when winning scores are supplied.
func TestExplicitRunningClearsResult(t *testing.T) {
	stored := readyMatch()
	_, _, err := SetMatchResults(stored, &models.ResultsUpdate{
		Opponent1: &models.Slot{Score: intp(2), Result: models.ResultWin},
		Opponent2: &models.Slot{Score: intp(0)},
	}, false)
	require.NoError(t, err)

	statusChanged, resultChanged, err := SetMatchResults(stored, &models.ResultsUpdate{
		Status:    statusp(models.StatusRunning),
		Opponent1: &models.Slot{Score: intp(2), Result: models.ResultWin},
	}, false)
	require.NoError(t, err)
	assert.True(t, statusChanged)
	assert.True(t, resultChanged)
	assert.Equal(t, models.StatusRunning, stored.Status)
	assert.Empty(t, stored.Opponent1.Result)
	assert.Empty(t, stored.Opponent2.Result)
}

func TestSetMatchResultsTwoWins(t *testing.T) {
	stored := readyMatch()
	_, _, err := SetMatchResults(stored, &models.ResultsUpdate{
		Opponent1: &models.Slot{Result: models.ResultWin},
		Opponent2: &models.Slot{Result: models.ResultWin},
	}, false)
	assert.ErrorIs(t, err, ErrTwoWinners)
}

func TestSetMatchResultsForfeit(t *testing.T) {
	stored := readyMatch()
	_, _, err := SetMatchResults(stored, &models.ResultsUpdate{
		Opponent1: &models.Slot{Forfeit: true},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.True(t, stored.Opponent1.Forfeit)
	assert.Equal(t, models.ResultWin, stored.Opponent2.Result)

	side, err := GetMatchResult(stored)
	require.NoError(t, err)
	assert.Equal(t, SideOpponent2, side)
}

func TestSetMatchResultsTwoForfeits(t *testing.T) {
	stored := readyMatch()
	_, _, err := SetMatchResults(stored, &models.ResultsUpdate{
		Opponent1: &models.Slot{Forfeit: true},
		Opponent2: &models.Slot{Forfeit: true},
	}, false)
	assert.ErrorIs(t, err, ErrTwoForfeits)
}

func TestOpponentInversion(t *testing.T) {
	stored := readyMatch()
	_, _, err := SetMatchResults(stored, &models.ResultsUpdate{
		Opponent1: &models.Slot{ID: intp(2), Score: intp(3), Result: models.ResultWin},
		Opponent2: &models.Slot{ID: intp(1), Score: intp(1)},
	}, false)
	require.NoError(t, err)
	// The caller named the opponents in reverse order: participant 2 won.
	assert.Equal(t, models.ResultWin, stored.Opponent2.Result)
	assert.Equal(t, 3, *stored.Opponent2.Score)
	assert.Equal(t, models.ResultLoss, stored.Opponent1.Result)
}

func TestOpponentInversionRejectsForeignID(t *testing.T) {
	stored := readyMatch()
	_, _, err := SetMatchResults(stored, &models.ResultsUpdate{
		Opponent1: &models.Slot{ID: intp(9), Score: intp(3)},
	}, false)
	assert.ErrorIs(t, err, ErrInvalidOpponent)
}

func TestByeCompletion(t *testing.T) {
	stored := &models.MatchResults{Status: models.StatusLocked, Opponent1: slot(1)}
	assert.True(t, IsMatchByeCompleted(stored))
	assert.True(t, IsMatchCompleted(stored))

	side, err := GetMatchResult(stored)
	require.NoError(t, err)
	assert.Equal(t, SideOpponent1, side)
}

func TestMatchPredicates(t *testing.T) {
	m := readyMatch()
	assert.False(t, IsMatchStarted(m))
	assert.False(t, IsMatchUpdateLocked(m))
	assert.False(t, IsMatchStale(m))

	m.Status = models.StatusWaiting
	assert.True(t, IsMatchUpdateLocked(m))

	m.Status = models.StatusRunning
	assert.True(t, IsMatchParticipantLocked(m))

	m.Status = models.StatusCompleted
	assert.True(t, IsMatchStale(m))
}

func TestResetMatchResults(t *testing.T) {
	stored := readyMatch()
	_, _, err := SetMatchResults(stored, &models.ResultsUpdate{
		Opponent1: &models.Slot{Score: intp(2), Result: models.ResultWin},
		Opponent2: &models.Slot{Score: intp(0)},
	}, false)
	require.NoError(t, err)

	ResetMatchResults(stored)
	assert.Equal(t, models.StatusReady, stored.Status)
	assert.Nil(t, stored.Opponent1.Score)
	assert.Empty(t, stored.Opponent1.Result)
}

func TestParentMatchUpdateBestOfThree(t *testing.T) {
	parent := &models.Match{ChildCount: 3, MatchResults: *readyMatch()}

	update, err := ParentMatchUpdate(parent, 2, 0, false)
	require.NoError(t, err)
	assert.Equal(t, models.ResultWin, update.Opponent1.Result)
	assert.Equal(t, 2, *update.Opponent1.Score)
	assert.Equal(t, 0, *update.Opponent2.Score)

	update, err = ParentMatchUpdate(parent, 1, 1, false)
	require.NoError(t, err)
	assert.Empty(t, update.Opponent1.Result)
	assert.Empty(t, update.Opponent2.Result)
}

func TestParentMatchUpdateTie(t *testing.T) {
	parent := &models.Match{ChildCount: 4, MatchResults: *readyMatch()}

	_, err := ParentMatchUpdate(parent, 2, 2, false)
	assert.ErrorIs(t, err, ErrGamesTie)

	update, err := ParentMatchUpdate(parent, 2, 2, true)
	require.NoError(t, err)
	assert.Equal(t, models.ResultDraw, update.Opponent1.Result)
}

func TestChildGamesScores(t *testing.T) {
	games := []*models.MatchGame{
		{MatchResults: models.MatchResults{Opponent1: &models.Slot{ID: intp(1), Result: models.ResultWin}, Opponent2: slot(2)}},
		{MatchResults: models.MatchResults{Opponent1: slot(1), Opponent2: &models.Slot{ID: intp(2), Result: models.ResultWin}}},
		{MatchResults: models.MatchResults{Opponent1: slot(1), Opponent2: slot(2)}},
	}
	score1, score2, err := ChildGamesScores(games)
	require.NoError(t, err)
	assert.Equal(t, 1, score1)
	assert.Equal(t, 1, score2)
}
