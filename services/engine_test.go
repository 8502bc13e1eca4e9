package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/storage"
)

type testEngine struct {
	store   *storage.Memory
	stages  StageService
	matches MatchService
	resets  ResetService
	queries QueryService
	finders FinderService
	deletes DeleteService
	dataset DatasetService
}

func newTestEngine() *testEngine {
	store := storage.NewMemory()
	return &testEngine{
		store:   store,
		stages:  NewStageService(store),
		matches: NewMatchService(store),
		resets:  NewResetService(store),
		queries: NewQueryService(store),
		finders: NewFinderService(store),
		deletes: NewDeleteService(store),
		dataset: NewDatasetService(store, nil),
	}
}

func names(values ...string) []*string {
	out := make([]*string, len(values))
	for i := range values {
		if values[i] == "" {
			continue
		}
		out[i] = &values[i]
	}
	return out
}

func (e *testEngine) createStage(t *testing.T, input *models.InputStage) *models.Stage {
	t.Helper()
	stage, err := e.stages.Create(context.Background(), input)
	require.NoError(t, err)
	return stage
}

// matchAt fetches the match at (group number, round number, match number)
// within a stage.
func (e *testEngine) matchAt(t *testing.T, stageID, groupNumber, roundNumber, matchNumber int) *models.Match {
	t.Helper()
	ctx := context.Background()
	group, err := groupByNumber(ctx, e.store, stageID, groupNumber)
	require.NoError(t, err)
	require.NotNil(t, group, "group %d missing", groupNumber)
	m, err := findMatchAt(ctx, e.store, group.ID, roundNumber, matchNumber)
	require.NoError(t, err)
	require.NotNil(t, m, "match (%d,%d,%d) missing", groupNumber, roundNumber, matchNumber)
	return m
}

func (e *testEngine) participantID(t *testing.T, tournamentID int, name string) int {
	t.Helper()
	participants, err := e.store.SelectParticipants(context.Background(), storage.ParticipantFilter{
		TournamentID: intPtr(tournamentID),
		Name:         &name,
	})
	require.NoError(t, err)
	require.Len(t, participants, 1, "participant %q", name)
	return participants[0].ID
}

// report completes a match with the given scores; the higher score wins.
func (e *testEngine) report(t *testing.T, matchID, score1, score2 int) {
	t.Helper()
	status := models.StatusCompleted
	err := e.matches.UpdateMatch(context.Background(), &models.MatchUpdate{
		ID: matchID,
		ResultsUpdate: models.ResultsUpdate{
			Status:    &status,
			Opponent1: &models.Slot{Score: &score1},
			Opponent2: &models.Slot{Score: &score2},
		},
	})
	require.NoError(t, err)
}

func slotName(t *testing.T, e *testEngine, s *models.Slot) string {
	t.Helper()
	if s == nil || s.ID == nil {
		return ""
	}
	p, err := e.store.SelectParticipant(context.Background(), *s.ID)
	require.NoError(t, err)
	return p.Name
}
