package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/ordering"
)

// After resetting a completed final, the archived semi-finals come back to
// their natural status and the final holds no stale winner.
func TestResetMatchResults(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	stage := createFourPlayerBracket(t, e)

	m1 := e.matchAt(t, stage.ID, 1, 1, 1)
	m2 := e.matchAt(t, stage.ID, 1, 1, 2)
	e.report(t, m1.ID, 2, 0)
	e.report(t, m2.ID, 2, 0)
	final := e.matchAt(t, stage.ID, 1, 2, 1)
	e.report(t, final.ID, 2, 1)

	require.NoError(t, e.resets.MatchResults(ctx, final.ID))

	final = e.matchAt(t, stage.ID, 1, 2, 1)
	assert.Equal(t, models.StatusReady, final.Status)
	assert.Empty(t, final.Opponent1.Result)
	assert.Nil(t, final.Opponent1.Score)

	// The semi-finals keep their results but are no longer archived.
	for _, id := range []int{m1.ID, m2.ID} {
		m, err := e.store.SelectMatch(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, m.Status)
	}

	// Resetting a semi-final clears its slot in the final.
	require.NoError(t, e.resets.MatchResults(ctx, m1.ID))
	final = e.matchAt(t, stage.ID, 1, 2, 1)
	require.NotNil(t, final.Opponent1)
	assert.Nil(t, final.Opponent1.ID)
}

// A semi-final cannot be reset while the final is running.
func TestResetRejectedWhenNextMatchStarted(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	stage := createFourPlayerBracket(t, e)

	m1 := e.matchAt(t, stage.ID, 1, 1, 1)
	m2 := e.matchAt(t, stage.ID, 1, 1, 2)
	e.report(t, m1.ID, 2, 0)
	e.report(t, m2.ID, 2, 0)

	final := e.matchAt(t, stage.ID, 1, 2, 1)
	score1, score2 := 1, 0
	require.NoError(t, e.matches.UpdateMatch(ctx, &models.MatchUpdate{
		ID: final.ID,
		ResultsUpdate: models.ResultsUpdate{
			Opponent1: &models.Slot{Score: &score1},
			Opponent2: &models.Slot{Score: &score2},
		},
	}))

	err := e.resets.MatchResults(ctx, m1.ID)
	assert.ErrorIs(t, err, ErrMatchLocked)
}

func TestResetParentWithChildGamesRejected(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	stage := e.createStage(t, &models.InputStage{
		TournamentID: 1,
		Name:         "main",
		Type:         models.StageSingleElimination,
		Seeding:      names("A", "B", "C", "D"),
		Settings: models.StageSettings{
			MatchesChildCount: 3,
		},
	})

	m1 := e.matchAt(t, stage.ID, 1, 1, 1)
	err := e.resets.MatchResults(ctx, m1.ID)
	assert.ErrorIs(t, err, ErrParentHasChildGames)
}

func TestResetMatchGameResults(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	stage := e.createStage(t, &models.InputStage{
		TournamentID: 1,
		Name:         "main",
		Type:         models.StageSingleElimination,
		Seeding:      names("A", "B", "C", "D"),
		Settings: models.StageSettings{
			SeedOrdering:      []ordering.Method{ordering.Natural},
			MatchesChildCount: 3,
		},
	})

	m1 := e.matchAt(t, stage.ID, 1, 1, 1)
	win := models.ResultWin
	require.NoError(t, e.matches.UpdateMatchGame(ctx, &models.MatchGameUpdate{
		ParentID: m1.ID,
		Number:   1,
		ResultsUpdate: models.ResultsUpdate{
			Opponent1: &models.Slot{Result: win},
		},
	}))

	parent := e.matchAt(t, stage.ID, 1, 1, 1)
	assert.Equal(t, 1, *parent.Opponent1.Score)

	game, err := e.finders.MatchGame(ctx, MatchGameLocator{ParentID: m1.ID, Number: 1})
	require.NoError(t, err)
	require.NoError(t, e.resets.MatchGameResults(ctx, game.ID))

	parent = e.matchAt(t, stage.ID, 1, 1, 1)
	assert.Equal(t, 0, *parent.Opponent1.Score)
}
