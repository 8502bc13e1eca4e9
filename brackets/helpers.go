// Package brackets holds the pure bracket math: topology arithmetic, duels,
// BYE pre-propagation, match status and result resolution. Nothing in this
// package touches storage.
package brackets

import (
	"fmt"
	"math/bits"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/ordering"
)

// Duel is an ordered pair of slots used during topology construction.
type Duel [2]*models.Slot

// Side designates one of the two slots of a match.
type Side string

const (
	SideOpponent1 Side = "opponent1"
	SideOpponent2 Side = "opponent2"
)

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == SideOpponent1 {
		return SideOpponent2
	}
	return SideOpponent1
}

// Location classifies a group within its stage. Navigation rules depend on
// it.
type Location string

const (
	LocationSingleBracket Location = "single_bracket"
	LocationWinnerBracket Location = "winner_bracket"
	LocationLoserBracket  Location = "loser_bracket"
	LocationFinalGroup    Location = "final_group"
)

// MatchLocation maps a (stage type, group number) pair to its location.
func MatchLocation(stageType models.StageType, groupNumber int) Location {
	switch stageType {
	case models.StageSingleElimination:
		if groupNumber == 2 {
			return LocationFinalGroup
		}
		return LocationSingleBracket
	case models.StageDoubleElimination:
		switch groupNumber {
		case models.GroupLoserBracket:
			return LocationLoserBracket
		case models.GroupFinal:
			return LocationFinalGroup
		default:
			return LocationWinnerBracket
		}
	default:
		return LocationSingleBracket
	}
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// UpperBracketRoundCount is the number of rounds of an elimination bracket
// of the given size.
func UpperBracketRoundCount(size int) int {
	return bits.Len(uint(size)) - 1
}

// LoserBracketRoundCount is the number of rounds of the loser bracket of a
// double elimination stage of the given size.
func LoserBracketRoundCount(size int) int {
	return 2 * (UpperBracketRoundCount(size) - 1)
}

// DiagonalMatchNumber is the number of the match fed by match n of the
// previous round when duel counts halve.
func DiagonalMatchNumber(n int) int {
	return (n + 1) / 2
}

// GetSide is the side a match feeds in its diagonal successor: odd match
// numbers land on opponent1, even ones on opponent2.
func GetSide(matchNumber int) Side {
	if matchNumber%2 == 1 {
		return SideOpponent1
	}
	return SideOpponent2
}

// NextSide is the side the winner of a match takes in its primary next
// match. Winners of loser bracket major rounds always land on opponent2 of
// the minor round (opponent1 is reserved for the incoming upper bracket
// loser), and the loser bracket final feeds opponent2 of the grand final.
func NextSide(matchNumber, roundNumber, roundCount int, location Location) Side {
	if location == LocationLoserBracket && roundNumber%2 == 1 {
		return SideOpponent2
	}
	if location == LocationLoserBracket && roundNumber == roundCount {
		return SideOpponent2
	}
	return GetSide(matchNumber)
}

// NextSideLoserBracket is the side an upper bracket loser takes when it
// drops into the loser bracket. Past round 1 it is always opponent1; in
// round 1 both sides are incoming losers and the recorded position decides.
func NextSideLoserBracket(wbMatchNumber int, lbMatch *models.Match, wbRoundNumber int) Side {
	if wbRoundNumber > 1 {
		return SideOpponent1
	}
	if lbMatch.Opponent1 != nil && lbMatch.Opponent1.Position != nil && *lbMatch.Opponent1.Position == wbMatchNumber {
		return SideOpponent1
	}
	return SideOpponent2
}

// MakePairs groups the slots into adjacent duels.
func MakePairs(slots []*models.Slot) []Duel {
	duels := make([]Duel, 0, len(slots)/2)
	for i := 0; i+1 < len(slots); i += 2 {
		duels = append(duels, Duel{slots[i], slots[i+1]})
	}
	return duels
}

// ByeWinner pre-propagates the winner of a duel at creation time: a single
// BYE sends the present slot through, a double BYE stays a BYE, a normal
// duel produces a TBD slot.
func ByeWinner(duel Duel) *models.Slot {
	if duel[0] == nil && duel[1] == nil {
		return nil
	}
	if duel[0] == nil {
		return duel[1].Clone()
	}
	if duel[1] == nil {
		return duel[0].Clone()
	}
	return &models.Slot{}
}

// ByeLoser pre-propagates the loser of a duel: any BYE means no loser drops
// down. The returned slot records the source match number as its position.
func ByeLoser(duel Duel, index int) *models.Slot {
	if duel[0] == nil || duel[1] == nil {
		return nil
	}
	position := index + 1
	return &models.Slot{Position: &position}
}

// RoundRobinDistribution spreads the slots over the rounds of a round-robin
// group using the circle method: each pair meets exactly once.
func RoundRobinDistribution(slots []*models.Slot) [][]Duel {
	n := len(slots)
	n1 := n
	if n%2 == 1 {
		n1 = n + 1
	}
	roundCount := n1 - 1
	matchPerRound := n1 / 2

	rounds := make([][]Duel, 0, roundCount)
	for round := 0; round < roundCount; round++ {
		matches := make([]Duel, 0, matchPerRound)
		for match := 0; match < matchPerRound; match++ {
			if match == 0 && n%2 == 1 {
				// The pivot slot sits out this round.
				continue
			}
			first := round % (n1 - 1)
			second := n1 - 1
			if match > 0 {
				first = (round - match + n1 - 1) % (n1 - 1)
				second = (round + match) % (n1 - 1)
			}
			matches = append(matches, Duel{slots[first], slots[second]})
		}
		rounds = append(rounds, matches)
	}
	return rounds
}

// ApplyRoundRobinMode appends the same rounds with swapped sides when the
// mode is double.
func ApplyRoundRobinMode(rounds [][]Duel, mode models.RoundRobinMode) [][]Duel {
	if mode != models.RoundRobinDouble {
		return rounds
	}
	out := make([][]Duel, 0, 2*len(rounds))
	out = append(out, rounds...)
	for _, round := range rounds {
		swapped := make([]Duel, len(round))
		for i, duel := range round {
			swapped[i] = Duel{duel[1], duel[0]}
		}
		out = append(out, swapped)
	}
	return out
}

// BalanceByes rearranges a seeding so that no first-round match of an
// elimination stage is a BYE against a BYE.
func BalanceByes[T any](seeding []*T, capacity int) []*T {
	nonNull := make([]*T, 0, len(seeding))
	for _, v := range seeding {
		if v != nil {
			nonNull = append(nonNull, v)
		}
	}

	if len(nonNull) <= capacity/2 {
		out := make([]*T, 0, capacity)
		for _, v := range nonNull {
			out = append(out, v, nil)
		}
		for len(out) < capacity {
			out = append(out, nil)
		}
		return out[:capacity]
	}

	nullCount := capacity - len(nonNull)
	headCount := len(nonNull) - nullCount
	out := make([]*T, 0, capacity)
	out = append(out, nonNull[:headCount]...)
	for _, v := range nonNull[headCount:] {
		out = append(out, v, nil)
	}
	return out[:capacity]
}

// FindLoserMatchNumber inverts the loser ordering of a loser bracket round:
// given the number of the upper bracket match a loser comes from, it returns
// the number of the loser bracket match that receives it.
func FindLoserMatchNumber(method ordering.Method, loserCount, lbRoundNumber, wbMatchNumber int) (int, error) {
	numbers := make([]int, loserCount)
	for i := range numbers {
		numbers[i] = i + 1
	}
	ordered, err := ordering.Apply(method, numbers, 0)
	if err != nil {
		return 0, err
	}
	for index, number := range ordered {
		if number == wbMatchNumber {
			if lbRoundNumber == 1 {
				return DiagonalMatchNumber(index + 1), nil
			}
			return index + 1, nil
		}
	}
	return 0, fmt.Errorf("match number %d not found in loser ordering %q", wbMatchNumber, method)
}
