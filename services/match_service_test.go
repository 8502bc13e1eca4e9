package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/ordering"
)

func createFourPlayerBracket(t *testing.T, e *testEngine) *models.Stage {
	return e.createStage(t, &models.InputStage{
		TournamentID: 1,
		Name:         "main",
		Type:         models.StageSingleElimination,
		Seeding:      names("A", "B", "C", "D"),
		Settings:     models.StageSettings{SeedOrdering: []ordering.Method{ordering.Natural}},
	})
}

// A four player single elimination played to the end: winners propagate to
// the final, everything is archived, and the standings come out right.
func TestSingleEliminationFullRun(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	stage := createFourPlayerBracket(t, e)

	m1 := e.matchAt(t, stage.ID, 1, 1, 1)
	m2 := e.matchAt(t, stage.ID, 1, 1, 2)

	e.report(t, m1.ID, 2, 0) // A beats B
	final := e.matchAt(t, stage.ID, 1, 2, 1)
	assert.Equal(t, "A", slotName(t, e, final.Opponent1))
	assert.Equal(t, models.StatusWaiting, final.Status)

	e.report(t, m2.ID, 1, 2) // D beats C
	final = e.matchAt(t, stage.ID, 1, 2, 1)
	assert.Equal(t, "D", slotName(t, e, final.Opponent2))
	assert.Equal(t, models.StatusReady, final.Status)

	e.report(t, final.ID, 2, 1) // A beats D

	// Completing the final archives the whole bracket.
	for _, position := range [][3]int{{1, 1, 1}, {1, 1, 2}, {1, 2, 1}} {
		m := e.matchAt(t, stage.ID, position[0], position[1], position[2])
		assert.Equal(t, models.StatusArchived, m.Status, "match %v", position)
	}

	standings, err := e.queries.FinalStandings(ctx, stage.ID)
	require.NoError(t, err)
	require.Len(t, standings, 4)
	assert.Equal(t, "A", standings[0].Name)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, "D", standings[1].Name)
	assert.Equal(t, 2, standings[1].Rank)
	third := map[string]bool{standings[2].Name: true, standings[3].Name: true}
	assert.True(t, third["B"] && third["C"])
	assert.Equal(t, 3, standings[2].Rank)
	assert.Equal(t, 3, standings[3].Rank)
}

// Updating a decided match again re-propagates the new winner while the
// final has not started.
func TestWinnerCanBeCorrected(t *testing.T) {
	e := newTestEngine()
	stage := createFourPlayerBracket(t, e)

	m1 := e.matchAt(t, stage.ID, 1, 1, 1)
	e.report(t, m1.ID, 2, 0) // A beats B
	e.report(t, m1.ID, 0, 2) // correction: B beats A

	final := e.matchAt(t, stage.ID, 1, 2, 1)
	assert.Equal(t, "B", slotName(t, e, final.Opponent1))
}

func TestUpdateLockedMatchFails(t *testing.T) {
	e := newTestEngine()
	stage := createFourPlayerBracket(t, e)

	final := e.matchAt(t, stage.ID, 1, 2, 1)
	status := models.StatusCompleted
	err := e.matches.UpdateMatch(context.Background(), &models.MatchUpdate{
		ID: final.ID,
		ResultsUpdate: models.ResultsUpdate{
			Status:    &status,
			Opponent1: &models.Slot{Score: intPtr(2)},
			Opponent2: &models.Slot{Score: intPtr(0)},
		},
	})
	assert.ErrorIs(t, err, ErrMatchLocked)
}

// Scenario: once the bracket is played out, reseeding is refused because
// the matches are locked.
func TestSeedingLockedAfterCompletion(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	stage := createFourPlayerBracket(t, e)

	e.report(t, e.matchAt(t, stage.ID, 1, 1, 1).ID, 2, 0)
	e.report(t, e.matchAt(t, stage.ID, 1, 1, 2).ID, 2, 0)
	e.report(t, e.matchAt(t, stage.ID, 1, 2, 1).ID, 2, 1)

	err := e.stages.UpdateSeeding(ctx, stage.ID, &SeedingInput{Names: names("D", "C", "B", "A")}, true)
	assert.ErrorIs(t, err, ErrSeedingLocked)
}

// Double elimination without a grand final: the winner bracket winner takes
// first place, the loser bracket winner second.
func TestDoubleEliminationNoGrandFinal(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	stage := e.createStage(t, &models.InputStage{
		TournamentID: 1,
		Name:         "main",
		Type:         models.StageDoubleElimination,
		Seeding:      names("A", "B", "C", "D"),
		Settings: models.StageSettings{
			GrandFinal:   models.GrandFinalNone,
			SeedOrdering: []ordering.Method{ordering.Natural},
		},
	})

	e.report(t, e.matchAt(t, stage.ID, 1, 1, 1).ID, 2, 0) // A beats B
	e.report(t, e.matchAt(t, stage.ID, 1, 1, 2).ID, 2, 0) // C beats D

	lb1 := e.matchAt(t, stage.ID, 2, 1, 1)
	assert.Equal(t, "B", slotName(t, e, lb1.Opponent1))
	assert.Equal(t, "D", slotName(t, e, lb1.Opponent2))
	assert.Equal(t, models.StatusReady, lb1.Status)

	e.report(t, e.matchAt(t, stage.ID, 1, 2, 1).ID, 2, 0) // WB final: A beats C

	lbFinal := e.matchAt(t, stage.ID, 2, 2, 1)
	assert.Equal(t, "C", slotName(t, e, lbFinal.Opponent1))

	e.report(t, lb1.ID, 2, 0) // B beats D
	lbFinal = e.matchAt(t, stage.ID, 2, 2, 1)
	assert.Equal(t, "B", slotName(t, e, lbFinal.Opponent2))

	e.report(t, lbFinal.ID, 2, 0) // LB final: C beats B

	standings, err := e.queries.FinalStandings(ctx, stage.ID)
	require.NoError(t, err)
	require.Len(t, standings, 4)
	assert.Equal(t, "A", standings[0].Name)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, "C", standings[1].Name)
	assert.Equal(t, 2, standings[1].Rank)
	assert.Equal(t, "B", standings[2].Name)
	assert.Equal(t, "D", standings[3].Name)
}

func TestDoubleEliminationGrandFinalDouble(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	stage := e.createStage(t, &models.InputStage{
		TournamentID: 1,
		Name:         "main",
		Type:         models.StageDoubleElimination,
		Seeding:      names("A", "B", "C", "D"),
		Settings: models.StageSettings{
			GrandFinal:   models.GrandFinalDouble,
			SeedOrdering: []ordering.Method{ordering.Natural},
		},
	})

	e.report(t, e.matchAt(t, stage.ID, 1, 1, 1).ID, 2, 0) // A beats B
	e.report(t, e.matchAt(t, stage.ID, 1, 1, 2).ID, 2, 0) // C beats D
	e.report(t, e.matchAt(t, stage.ID, 1, 2, 1).ID, 2, 0) // WB final: A beats C
	e.report(t, e.matchAt(t, stage.ID, 2, 1, 1).ID, 2, 0) // B beats D
	e.report(t, e.matchAt(t, stage.ID, 2, 2, 1).ID, 0, 2) // LB final: B beats C

	grandFinal := e.matchAt(t, stage.ID, 3, 1, 1)
	assert.Equal(t, "A", slotName(t, e, grandFinal.Opponent1))
	assert.Equal(t, "B", slotName(t, e, grandFinal.Opponent2))
	assert.Equal(t, models.StatusReady, grandFinal.Status)

	// The loser bracket winner takes the first grand final: a second one is
	// played with both finalists again.
	e.report(t, grandFinal.ID, 0, 2)
	secondFinal := e.matchAt(t, stage.ID, 3, 2, 1)
	assert.Equal(t, "A", slotName(t, e, secondFinal.Opponent1))
	assert.Equal(t, "B", slotName(t, e, secondFinal.Opponent2))

	e.report(t, secondFinal.ID, 2, 0)

	standings, err := e.queries.FinalStandings(ctx, stage.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", standings[0].Name)
	assert.Equal(t, "B", standings[1].Name)
}

// Scenario: a best-of-three parent completes as soon as one side takes two
// games.
func TestBestOfThreeParent(t *testing.T) {
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
	require.Equal(t, 3, m1.ChildCount)

	winGame := func(number int) {
		win := models.ResultWin
		err := e.matches.UpdateMatchGame(ctx, &models.MatchGameUpdate{
			ParentID: m1.ID,
			Number:   number,
			ResultsUpdate: models.ResultsUpdate{
				Opponent1: &models.Slot{Result: win},
			},
		})
		require.NoError(t, err)
	}

	winGame(1)
	parent := e.matchAt(t, stage.ID, 1, 1, 1)
	assert.Equal(t, models.StatusRunning, parent.Status)
	assert.Equal(t, 1, *parent.Opponent1.Score)

	winGame(2)
	parent = e.matchAt(t, stage.ID, 1, 1, 1)
	assert.Equal(t, models.StatusCompleted, parent.Status)
	assert.Equal(t, models.ResultWin, parent.Opponent1.Result)
	assert.Equal(t, 2, *parent.Opponent1.Score)
	assert.Equal(t, 0, *parent.Opponent2.Score)

	// The winner reached the final.
	final := e.matchAt(t, stage.ID, 1, 2, 1)
	assert.Equal(t, "A", slotName(t, e, final.Opponent1))
}

func TestConsolationFinalReceivesSemiFinalLosers(t *testing.T) {
	e := newTestEngine()
	stage := e.createStage(t, &models.InputStage{
		TournamentID: 1,
		Name:         "main",
		Type:         models.StageSingleElimination,
		Seeding:      names("A", "B", "C", "D"),
		Settings: models.StageSettings{
			SeedOrdering:     []ordering.Method{ordering.Natural},
			ConsolationFinal: true,
		},
	})

	e.report(t, e.matchAt(t, stage.ID, 1, 1, 1).ID, 2, 0) // A beats B
	e.report(t, e.matchAt(t, stage.ID, 1, 1, 2).ID, 0, 2) // D beats C

	consolation := e.matchAt(t, stage.ID, 2, 1, 1)
	assert.Equal(t, "B", slotName(t, e, consolation.Opponent1))
	assert.Equal(t, "C", slotName(t, e, consolation.Opponent2))
	assert.Equal(t, models.StatusReady, consolation.Status)
}

func TestExtraFieldsSurviveUpdates(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	stage := createFourPlayerBracket(t, e)
	m1 := e.matchAt(t, stage.ID, 1, 1, 1)

	update := &models.MatchUpdate{
		ID: m1.ID,
		ResultsUpdate: models.ResultsUpdate{
			Opponent1: &models.Slot{Score: intPtr(1)},
		},
		Extra: map[string]json.RawMessage{"court": json.RawMessage(`"center"`)},
	}
	require.NoError(t, e.matches.UpdateMatch(ctx, update))

	// A later update without extras must not strip them.
	e.report(t, m1.ID, 2, 0)

	stored, err := e.store.SelectMatch(ctx, m1.ID)
	require.NoError(t, err)
	require.Contains(t, stored.Extra, "court")

	payload, err := json.Marshal(stored)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"court":"center"`)
}
