package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/ordering"
)

func slot(id int) *models.Slot {
	return &models.Slot{ID: &id}
}

func TestRoundRobinDistributionEven(t *testing.T) {
	slots := []*models.Slot{slot(1), slot(2), slot(3), slot(4)}
	rounds := RoundRobinDistribution(slots)

	require.Len(t, rounds, 3)
	seen := make(map[[2]int]int)
	for _, round := range rounds {
		require.Len(t, round, 2)
		players := make(map[int]bool)
		for _, duel := range round {
			a, b := *duel[0].ID, *duel[1].ID
			assert.False(t, players[a] || players[b], "participant repeated within a round")
			players[a], players[b] = true, true
			if a > b {
				a, b = b, a
			}
			seen[[2]int{a, b}]++
		}
	}
	// Every unordered pair appears exactly once.
	assert.Len(t, seen, 6)
	for pair, count := range seen {
		assert.Equal(t, 1, count, "pair %v", pair)
	}
}

func TestRoundRobinDistributionOdd(t *testing.T) {
	slots := []*models.Slot{slot(1), slot(2), slot(3), slot(4), slot(5)}
	rounds := RoundRobinDistribution(slots)

	require.Len(t, rounds, 5)
	pairCount := 0
	for _, round := range rounds {
		assert.Len(t, round, 2)
		pairCount += len(round)
	}
	assert.Equal(t, 10, pairCount)
}

func TestApplyRoundRobinModeDouble(t *testing.T) {
	slots := []*models.Slot{slot(1), slot(2)}
	rounds := ApplyRoundRobinMode(RoundRobinDistribution(slots), models.RoundRobinDouble)

	require.Len(t, rounds, 2)
	first, second := rounds[0][0], rounds[1][0]
	assert.Equal(t, *first[0].ID, *second[1].ID)
	assert.Equal(t, *first[1].ID, *second[0].ID)
}

func TestBalanceByesInterleaves(t *testing.T) {
	a, b := "a", "b"
	out := BalanceByes([]*string{&a, &b, nil, nil, nil, nil, nil, nil}, 8)
	require.Len(t, out, 8)
	assert.Equal(t, &a, out[0])
	assert.Nil(t, out[1])
	assert.Equal(t, &b, out[2])
	assert.Nil(t, out[3])
}

func TestBalanceByesPairsTail(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f"}
	seeding := make([]*string, 0, 8)
	for i := range names {
		seeding = append(seeding, &names[i])
	}
	seeding = append(seeding, nil, nil)

	out := BalanceByes(seeding, 8)
	require.Len(t, out, 8)
	// Four head entries paired against each other, the last two against BYEs.
	assert.Equal(t, "a", *out[0])
	assert.Equal(t, "d", *out[3])
	assert.Equal(t, "e", *out[4])
	assert.Nil(t, out[5])
	assert.Equal(t, "f", *out[6])
	assert.Nil(t, out[7])
}

func TestByeWinner(t *testing.T) {
	assert.Nil(t, ByeWinner(Duel{nil, nil}))
	assert.Equal(t, 2, *ByeWinner(Duel{nil, slot(2)}).ID)
	assert.Equal(t, 1, *ByeWinner(Duel{slot(1), nil}).ID)
	winner := ByeWinner(Duel{slot(1), slot(2)})
	require.NotNil(t, winner)
	assert.Nil(t, winner.ID)
}

func TestByeLoser(t *testing.T) {
	assert.Nil(t, ByeLoser(Duel{slot(1), nil}, 0))
	loser := ByeLoser(Duel{slot(1), slot(2)}, 2)
	require.NotNil(t, loser)
	assert.Nil(t, loser.ID)
	assert.Equal(t, 3, *loser.Position)
}

func TestFindLoserMatchNumber(t *testing.T) {
	// First loser round pairs two losers per match.
	number, err := FindLoserMatchNumber(ordering.Natural, 4, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, number)

	number, err = FindLoserMatchNumber(ordering.Reverse, 4, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, number)

	// Minor rounds map one loser per match.
	number, err = FindLoserMatchNumber(ordering.Reverse, 2, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, number)
}

func TestMatchLocation(t *testing.T) {
	assert.Equal(t, LocationSingleBracket, MatchLocation(models.StageSingleElimination, 1))
	assert.Equal(t, LocationFinalGroup, MatchLocation(models.StageSingleElimination, 2))
	assert.Equal(t, LocationWinnerBracket, MatchLocation(models.StageDoubleElimination, 1))
	assert.Equal(t, LocationLoserBracket, MatchLocation(models.StageDoubleElimination, 2))
	assert.Equal(t, LocationFinalGroup, MatchLocation(models.StageDoubleElimination, 3))
	assert.Equal(t, LocationSingleBracket, MatchLocation(models.StageRoundRobin, 7))
}

func TestNextSide(t *testing.T) {
	assert.Equal(t, SideOpponent1, NextSide(1, 1, 3, LocationSingleBracket))
	assert.Equal(t, SideOpponent2, NextSide(2, 1, 3, LocationSingleBracket))
	// Major round winners land opposite the incoming loser.
	assert.Equal(t, SideOpponent2, NextSide(1, 3, 4, LocationLoserBracket))
	// The loser bracket final feeds opponent2 of the grand final.
	assert.Equal(t, SideOpponent2, NextSide(1, 4, 4, LocationLoserBracket))
	// Minor round winners alternate by match number.
	assert.Equal(t, SideOpponent2, NextSide(2, 2, 4, LocationLoserBracket))
}

func TestBracketArithmetic(t *testing.T) {
	assert.True(t, IsPowerOfTwo(8))
	assert.False(t, IsPowerOfTwo(6))
	assert.False(t, IsPowerOfTwo(0))
	assert.Equal(t, 3, UpperBracketRoundCount(8))
	assert.Equal(t, 4, LoserBracketRoundCount(8))
	assert.Equal(t, 2, DiagonalMatchNumber(3))
	assert.Equal(t, 2, DiagonalMatchNumber(4))
}
