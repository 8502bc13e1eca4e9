package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/ordering"
	"github.com/Dosada05/bracket-engine/storage"
)

func intPtr(v int) *int { return &v }

func cloneIntPointer(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func strPtr(v string) *string { return &v }

func isRoundRobin(stage *models.Stage) bool {
	return stage.Type == models.StageRoundRobin
}

// groupByNumber returns the group with the given number within a stage, or
// nil when the stage does not have it.
func groupByNumber(ctx context.Context, store storage.Storage, stageID, number int) (*models.Group, error) {
	groups, err := store.SelectGroups(ctx, storage.GroupFilter{StageID: intPtr(stageID), Number: intPtr(number)})
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, nil
	}
	return groups[0], nil
}

// roundInfo returns a round together with its 1-based number and the number
// of rounds in its group.
func roundInfo(ctx context.Context, store storage.Storage, roundID int) (round *models.Round, roundNumber, roundCount int, err error) {
	round, err = store.SelectRound(ctx, roundID)
	if err != nil {
		return nil, 0, 0, err
	}
	rounds, err := store.SelectRounds(ctx, storage.RoundFilter{GroupID: intPtr(round.GroupID)})
	if err != nil {
		return nil, 0, 0, err
	}
	return round, round.Number, len(rounds), nil
}

// findMatchAt returns the match at (group, round number, match number), or
// nil when it does not exist.
func findMatchAt(ctx context.Context, store storage.Storage, groupID, roundNumber, matchNumber int) (*models.Match, error) {
	rounds, err := store.SelectRounds(ctx, storage.RoundFilter{GroupID: intPtr(groupID), Number: intPtr(roundNumber)})
	if err != nil {
		return nil, err
	}
	if len(rounds) == 0 {
		return nil, nil
	}
	matches, err := store.SelectMatches(ctx, storage.MatchFilter{RoundID: intPtr(rounds[0].ID), Number: intPtr(matchNumber)})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	if len(matches) > 1 {
		return nil, fmt.Errorf("multiple matches at round %d number %d in group %d", roundNumber, matchNumber, groupID)
	}
	return matches[0], nil
}

// firstRoundMatches returns the matches of the first round of a group, in
// match number order as stored.
func firstRoundMatches(ctx context.Context, store storage.Storage, groupID int) ([]*models.Match, error) {
	rounds, err := store.SelectRounds(ctx, storage.RoundFilter{GroupID: intPtr(groupID), Number: intPtr(1)})
	if err != nil {
		return nil, err
	}
	if len(rounds) == 0 {
		return nil, nil
	}
	return store.SelectMatches(ctx, storage.MatchFilter{RoundID: intPtr(rounds[0].ID)})
}

// loserOrderingMethod is the ordering of the loser bracket round receiving
// its batchIndex-th batch of incoming participants (0 = first loser round,
// i >= 1 = i-th minor round). Falls back to the per-size defaults.
func loserOrderingMethod(stage *models.Stage, batchIndex int) ordering.Method {
	seedOrdering := stage.Settings.SeedOrdering
	if len(seedOrdering) > 1+batchIndex && seedOrdering[1+batchIndex] != "" {
		return seedOrdering[1+batchIndex]
	}
	return ordering.DefaultLoserOrdering(stage.Settings.Size, batchIndex)
}

// slotParticipantID returns the participant id of a slot, or 0 when the
// slot is a BYE or TBD.
func slotParticipantID(s *models.Slot) int {
	if s == nil || s.ID == nil {
		return 0
	}
	return *s.ID
}
