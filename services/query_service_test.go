package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/ordering"
	"github.com/Dosada05/bracket-engine/storage"
)

// Scenario: a four player round-robin played to the end; every match gets
// its computed result and the win counts produce the ranking.
func TestRoundRobinResults(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	stage := e.createStage(t, &models.InputStage{
		TournamentID: 1,
		Name:         "pools",
		Type:         models.StageRoundRobin,
		Seeding:      names("P", "Q", "R", "S"),
		Settings:     models.StageSettings{GroupCount: 1},
	})

	ids := map[string]int{}
	for _, name := range []string{"P", "Q", "R", "S"} {
		ids[name] = e.participantID(t, 1, name)
	}

	matches, err := e.store.SelectMatches(ctx, storage.MatchFilter{StageID: intPtr(stage.ID)})
	require.NoError(t, err)
	require.Len(t, matches, 6)

	// The intended outcome: P wins all, R beats Q and S, Q beats S.
	beats := map[string]map[string]bool{
		"P": {"Q": true, "R": true, "S": true},
		"R": {"Q": true, "S": true},
		"Q": {"S": true},
	}
	nameByID := map[int]string{}
	for name, id := range ids {
		nameByID[id] = name
	}

	for _, m := range matches {
		first := nameByID[*m.Opponent1.ID]
		second := nameByID[*m.Opponent2.ID]
		if beats[first][second] {
			e.report(t, m.ID, 16, 9)
		} else {
			e.report(t, m.ID, 3, 16)
		}
	}

	wins := map[string]int{}
	matches, err = e.store.SelectMatches(ctx, storage.MatchFilter{StageID: intPtr(stage.ID)})
	require.NoError(t, err)
	for _, m := range matches {
		require.Equal(t, models.StatusCompleted, m.Status)
		if m.Opponent1.Result == models.ResultWin {
			wins[nameByID[*m.Opponent1.ID]]++
		}
		if m.Opponent2.Result == models.ResultWin {
			wins[nameByID[*m.Opponent2.ID]]++
		}
	}
	assert.Equal(t, map[string]int{"P": 3, "R": 2, "Q": 1}, wins)

	_, err = e.queries.FinalStandings(ctx, stage.ID)
	assert.ErrorIs(t, err, ErrNoStandingsForRoundRobin)
}

func TestCurrentStageAndRound(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	stage := e.createStage(t, &models.InputStage{
		TournamentID: 1,
		Name:         "main",
		Type:         models.StageSingleElimination,
		Seeding:      names("A", "B", "C", "D"),
		Settings:     models.StageSettings{SeedOrdering: []ordering.Method{ordering.Natural}},
	})

	current, err := e.queries.CurrentStage(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, stage.ID, current.ID)

	round, err := e.queries.CurrentRound(ctx, stage.ID)
	require.NoError(t, err)
	require.NotNil(t, round)
	assert.Equal(t, 1, round.Number)

	playable, err := e.queries.CurrentMatches(ctx, stage.ID)
	require.NoError(t, err)
	assert.Len(t, playable, 2)

	e.report(t, e.matchAt(t, stage.ID, 1, 1, 1).ID, 2, 0)
	e.report(t, e.matchAt(t, stage.ID, 1, 1, 2).ID, 2, 0)

	round, err = e.queries.CurrentRound(ctx, stage.ID)
	require.NoError(t, err)
	require.NotNil(t, round)
	assert.Equal(t, 2, round.Number)

	e.report(t, e.matchAt(t, stage.ID, 1, 2, 1).ID, 2, 0)

	current, err = e.queries.CurrentStage(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, current)

	round, err = e.queries.CurrentRound(ctx, stage.ID)
	require.NoError(t, err)
	assert.Nil(t, round)
}

func TestCurrentMatchesOnlySingleElimination(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	stage := e.createStage(t, &models.InputStage{
		TournamentID: 1,
		Name:         "main",
		Type:         models.StageDoubleElimination,
		Seeding:      names("A", "B", "C", "D"),
		Settings:     models.StageSettings{SeedOrdering: []ordering.Method{ordering.Natural}},
	})
	_, err := e.queries.CurrentMatches(ctx, stage.ID)
	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestSeedingQuery(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	stage := e.createStage(t, &models.InputStage{
		TournamentID: 1,
		Name:         "main",
		Type:         models.StageSingleElimination,
		Seeding:      names("A", "", "B", "C"),
		Settings:     models.StageSettings{SeedOrdering: []ordering.Method{ordering.Natural}},
	})

	seeding, err := e.queries.Seeding(ctx, stage.ID)
	require.NoError(t, err)
	require.Len(t, seeding, 4)
	assert.Equal(t, "A", slotName(t, e, seeding[0]))
	assert.Nil(t, seeding[1])
	assert.Equal(t, "B", slotName(t, e, seeding[2]))
	assert.Equal(t, "C", slotName(t, e, seeding[3]))
}

func TestStageAndTournamentData(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	stage := e.createStage(t, &models.InputStage{
		TournamentID: 1,
		Name:         "main",
		Type:         models.StageSingleElimination,
		Seeding:      names("A", "B", "C", "D"),
		Settings:     models.StageSettings{SeedOrdering: []ordering.Method{ordering.Natural}},
	})

	data, err := e.queries.StageData(ctx, stage.ID)
	require.NoError(t, err)
	assert.Len(t, data.Groups, 1)
	assert.Len(t, data.Rounds, 2)
	assert.Len(t, data.Matches, 3)
	assert.Len(t, data.Participants, 4)

	tournament, err := e.queries.TournamentData(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, tournament.Stages, 1)
	assert.Len(t, tournament.Matches, 3)
	assert.Len(t, tournament.Participants, 4)
}

func TestFindNeighborMatches(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	stage := e.createStage(t, &models.InputStage{
		TournamentID: 1,
		Name:         "main",
		Type:         models.StageSingleElimination,
		Seeding:      names("A", "B", "C", "D"),
		Settings:     models.StageSettings{SeedOrdering: []ordering.Method{ordering.Natural}},
	})

	m1 := e.matchAt(t, stage.ID, 1, 1, 1)
	final := e.matchAt(t, stage.ID, 1, 2, 1)

	next, err := e.finders.NextMatches(ctx, m1.ID, nil)
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.Equal(t, final.ID, next[0].ID)

	previous, err := e.finders.PreviousMatches(ctx, final.ID, nil)
	require.NoError(t, err)
	assert.Len(t, previous, 2)

	// Once decided, the winner only leads to the final.
	e.report(t, m1.ID, 2, 0)
	winnerID := e.participantID(t, 1, "A")
	next, err = e.finders.NextMatches(ctx, m1.ID, &winnerID)
	require.NoError(t, err)
	require.Len(t, next, 1)

	// The loser of a single elimination semi-final without a consolation
	// final goes nowhere.
	loserID := e.participantID(t, 1, "B")
	next, err = e.finders.NextMatches(ctx, m1.ID, &loserID)
	require.NoError(t, err)
	assert.Empty(t, next)

	strangerID := e.participantID(t, 1, "C")
	_, err = e.finders.NextMatches(ctx, m1.ID, &strangerID)
	assert.ErrorIs(t, err, ErrParticipantNotInMatch)
}

func TestDatasetExportImport(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	e.createStage(t, &models.InputStage{
		TournamentID: 1,
		Name:         "main",
		Type:         models.StageSingleElimination,
		Seeding:      names("A", "B", "C", "D"),
		Settings:     models.StageSettings{SeedOrdering: []ordering.Method{ordering.Natural}},
	})

	dataset, err := e.dataset.Export(ctx)
	require.NoError(t, err)
	assert.Len(t, dataset.Matches, 3)

	fresh := newTestEngine()
	require.NoError(t, fresh.dataset.Import(ctx, dataset, true))

	imported, err := fresh.dataset.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, dataset, imported)
}
