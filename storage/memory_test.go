package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/bracket-engine/models"
)

func intp(v int) *int { return &v }

func TestMemoryInsertAssignsSequentialIDs(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	first, err := m.InsertParticipant(ctx, &models.Participant{TournamentID: 1, Name: "a"})
	require.NoError(t, err)
	second, err := m.InsertParticipant(ctx, &models.Participant{TournamentID: 1, Name: "b"})
	require.NoError(t, err)
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestMemoryInsertKeepsExplicitID(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.InsertParticipant(ctx, &models.Participant{ID: 7, TournamentID: 1, Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, 7, id)

	next, err := m.InsertParticipant(ctx, &models.Participant{TournamentID: 1, Name: "b"})
	require.NoError(t, err)
	assert.Equal(t, 8, next)
}

func TestMemoryFilteredSelectIsInsertionOrdered(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := m.InsertMatch(ctx, &models.Match{StageID: 1, RoundID: 1, Number: i})
		require.NoError(t, err)
	}
	_, err := m.InsertMatch(ctx, &models.Match{StageID: 2, RoundID: 9, Number: 1})
	require.NoError(t, err)

	matches, err := m.SelectMatches(ctx, MatchFilter{StageID: intp(1)})
	require.NoError(t, err)
	require.Len(t, matches, 3)
	for i, match := range matches {
		assert.Equal(t, i+1, match.Number)
	}
}

func TestMemoryReadsAreIsolated(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.InsertMatch(ctx, &models.Match{
		StageID: 1, RoundID: 1, Number: 1,
		MatchResults: models.MatchResults{Opponent1: &models.Slot{ID: intp(5)}},
	})
	require.NoError(t, err)

	read, err := m.SelectMatch(ctx, id)
	require.NoError(t, err)
	*read.Opponent1.ID = 99

	again, err := m.SelectMatch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 5, *again.Opponent1.ID)
}

// Mirroring the parent's opponents onto the games must not erase what the
// games themselves report.
func TestMemoryUpdateMatchGamesPreservesGameResults(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	score := 11
	id, err := m.InsertMatchGame(ctx, &models.MatchGame{
		StageID: 1, ParentID: 3, Number: 1,
		MatchResults: models.MatchResults{
			Opponent1: &models.Slot{ID: intp(1), Score: &score, Result: models.ResultWin},
			Opponent2: &models.Slot{ID: intp(2)},
		},
	})
	require.NoError(t, err)

	err = m.UpdateMatchGames(ctx, MatchGameFilter{ParentID: intp(3)}, MatchGamePartial{
		SetOpponents: true,
		Opponent1:    &models.Slot{ID: intp(7)},
		Opponent2:    &models.Slot{ID: intp(2)},
	})
	require.NoError(t, err)

	game, err := m.SelectMatchGame(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 7, *game.Opponent1.ID)
	assert.Equal(t, 11, *game.Opponent1.Score)
	assert.Equal(t, models.ResultWin, game.Opponent1.Result)
}

func TestMemoryDeleteByFilter(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.InsertRound(ctx, &models.Round{StageID: 1, GroupID: 1, Number: 1})
	require.NoError(t, err)
	_, err = m.InsertRound(ctx, &models.Round{StageID: 1, GroupID: 1, Number: 2})
	require.NoError(t, err)
	_, err = m.InsertRound(ctx, &models.Round{StageID: 2, GroupID: 2, Number: 1})
	require.NoError(t, err)

	deleted, err := m.DeleteRounds(ctx, RoundFilter{StageID: intp(1)})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	remaining, err := m.SelectRounds(ctx, RoundFilter{})
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestMemoryNotFound(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.SelectStage(ctx, 42)
	assert.ErrorIs(t, err, ErrStageNotFound)

	err = m.UpdateMatch(ctx, 42, &models.Match{})
	assert.ErrorIs(t, err, ErrMatchNotFound)
}
