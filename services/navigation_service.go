package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/storage"
)

// navigator computes the neighbors of a match in every stage kind: the
// matches that feed it and the matches it feeds. Next matches are returned
// positionally: index 0 is where the winner goes (nil when there is no such
// destination, e.g. no grand final), index 1 is where the loser drops.
type navigator struct {
	store storage.Storage
}

func (n *navigator) previousMatches(ctx context.Context, m *models.Match, location brackets.Location, stage *models.Stage, roundNumber int) ([]*models.Match, error) {
	switch location {
	case brackets.LocationSingleBracket, brackets.LocationWinnerBracket:
		return n.previousBracketMatches(ctx, m, roundNumber)
	case brackets.LocationLoserBracket:
		return n.previousLoserBracketMatches(ctx, m, stage, roundNumber)
	case brackets.LocationFinalGroup:
		return n.previousFinalGroupMatches(ctx, m, stage, roundNumber)
	default:
		return nil, fmt.Errorf("unknown match location %q", location)
	}
}

func (n *navigator) previousBracketMatches(ctx context.Context, m *models.Match, roundNumber int) ([]*models.Match, error) {
	if roundNumber == 1 {
		return nil, nil
	}
	return n.collect(ctx,
		position{m.GroupID, roundNumber - 1, 2*m.Number - 1},
		position{m.GroupID, roundNumber - 1, 2 * m.Number},
	)
}

func (n *navigator) previousLoserBracketMatches(ctx context.Context, m *models.Match, stage *models.Stage, roundNumber int) ([]*models.Match, error) {
	switch {
	case roundNumber == 1:
		// Round 1 receives the losers of the first upper bracket round,
		// identified by the positions recorded on the slots.
		if stage.Settings.SkipFirstRound {
			return nil, nil
		}
		upper, err := groupByNumber(ctx, n.store, stage.ID, models.GroupUpperBracket)
		if err != nil || upper == nil {
			return nil, err
		}
		var positions []position
		for _, slot := range []*models.Slot{m.Opponent1, m.Opponent2} {
			if slot != nil && slot.Position != nil {
				positions = append(positions, position{upper.ID, 1, *slot.Position})
			}
		}
		return n.collect(ctx, positions...)
	case roundNumber%2 == 1:
		// Major rounds pair the winners of the previous minor round.
		return n.collect(ctx,
			position{m.GroupID, roundNumber - 1, 2*m.Number - 1},
			position{m.GroupID, roundNumber - 1, 2 * m.Number},
		)
	default:
		// Minor rounds merge an incoming upper bracket loser with the winner
		// of the previous major round.
		upper, err := groupByNumber(ctx, n.store, stage.ID, models.GroupUpperBracket)
		if err != nil || upper == nil {
			return nil, err
		}
		actualRoundWB := (roundNumber + 2) / 2
		storedRoundWB := actualRoundWB
		if stage.Settings.SkipFirstRound {
			storedRoundWB--
		}
		var positions []position
		if m.Opponent1 != nil && m.Opponent1.Position != nil {
			positions = append(positions, position{upper.ID, storedRoundWB, *m.Opponent1.Position})
		}
		positions = append(positions, position{m.GroupID, roundNumber - 1, m.Number})
		return n.collect(ctx, positions...)
	}
}

func (n *navigator) previousFinalGroupMatches(ctx context.Context, m *models.Match, stage *models.Stage, roundNumber int) ([]*models.Match, error) {
	if stage.Type == models.StageSingleElimination {
		// The consolation final is fed by the two semi-finals.
		bracket, err := groupByNumber(ctx, n.store, stage.ID, models.GroupUpperBracket)
		if err != nil || bracket == nil {
			return nil, err
		}
		rounds, err := n.store.SelectRounds(ctx, storage.RoundFilter{GroupID: intPtr(bracket.ID)})
		if err != nil {
			return nil, err
		}
		semiFinalRound := len(rounds) - 1
		if semiFinalRound < 1 {
			return nil, nil
		}
		return n.collect(ctx,
			position{bracket.ID, semiFinalRound, 1},
			position{bracket.ID, semiFinalRound, 2},
		)
	}

	if roundNumber > 1 {
		return n.collect(ctx, position{m.GroupID, roundNumber - 1, 1})
	}

	upper, err := groupByNumber(ctx, n.store, stage.ID, models.GroupUpperBracket)
	if err != nil || upper == nil {
		return nil, err
	}
	loser, err := groupByNumber(ctx, n.store, stage.ID, models.GroupLoserBracket)
	if err != nil || loser == nil {
		return nil, err
	}
	upperRounds, err := n.store.SelectRounds(ctx, storage.RoundFilter{GroupID: intPtr(upper.ID)})
	if err != nil {
		return nil, err
	}
	loserRounds, err := n.store.SelectRounds(ctx, storage.RoundFilter{GroupID: intPtr(loser.ID)})
	if err != nil {
		return nil, err
	}
	return n.collect(ctx,
		position{upper.ID, len(upperRounds), 1},
		position{loser.ID, len(loserRounds), 1},
	)
}

func (n *navigator) nextMatches(ctx context.Context, m *models.Match, location brackets.Location, stage *models.Stage, roundNumber, roundCount int) ([]*models.Match, error) {
	switch location {
	case brackets.LocationSingleBracket:
		return n.nextSingleBracketMatches(ctx, m, stage, roundNumber, roundCount)
	case brackets.LocationWinnerBracket:
		return n.nextWinnerBracketMatches(ctx, m, stage, roundNumber, roundCount)
	case brackets.LocationLoserBracket:
		return n.nextLoserBracketMatches(ctx, m, stage, roundNumber, roundCount)
	case brackets.LocationFinalGroup:
		return n.nextFinalGroupMatches(ctx, m, roundNumber, roundCount)
	default:
		return nil, fmt.Errorf("unknown match location %q", location)
	}
}

func (n *navigator) nextSingleBracketMatches(ctx context.Context, m *models.Match, stage *models.Stage, roundNumber, roundCount int) ([]*models.Match, error) {
	if roundNumber == roundCount {
		return nil, nil
	}
	diagonal, err := findMatchAt(ctx, n.store, m.GroupID, roundNumber+1, brackets.DiagonalMatchNumber(m.Number))
	if err != nil {
		return nil, err
	}
	next := []*models.Match{diagonal}
	if roundNumber == roundCount-1 && stage.Settings.ConsolationFinal {
		consolation, err := n.consolationFinal(ctx, stage)
		if err != nil {
			return nil, err
		}
		if consolation != nil {
			next = append(next, consolation)
		}
	}
	return next, nil
}

func (n *navigator) nextWinnerBracketMatches(ctx context.Context, m *models.Match, stage *models.Stage, roundNumber, roundCount int) ([]*models.Match, error) {
	actualRound := roundNumber
	if stage.Settings.SkipFirstRound {
		actualRound++
	}

	loserMatch, err := n.loserBracketDestination(ctx, m, stage, actualRound)
	if err != nil {
		return nil, err
	}

	if roundNumber == roundCount {
		grandFinal, err := n.grandFinal(ctx, stage)
		if err != nil {
			return nil, err
		}
		return []*models.Match{grandFinal, loserMatch}, nil
	}

	diagonal, err := findMatchAt(ctx, n.store, m.GroupID, roundNumber+1, brackets.DiagonalMatchNumber(m.Number))
	if err != nil {
		return nil, err
	}
	return []*models.Match{diagonal, loserMatch}, nil
}

// loserBracketDestination is the loser bracket match that receives the
// loser of an upper bracket match, obtained by inverting the loser ordering
// of the target round.
func (n *navigator) loserBracketDestination(ctx context.Context, m *models.Match, stage *models.Stage, actualRoundWB int) (*models.Match, error) {
	loser, err := groupByNumber(ctx, n.store, stage.ID, models.GroupLoserBracket)
	if err != nil || loser == nil {
		return nil, err
	}

	lbRound := 1
	if actualRoundWB > 1 {
		lbRound = 2 * (actualRoundWB - 1)
	}

	loserCount := stage.Settings.Size >> actualRoundWB
	method := loserOrderingMethod(stage, actualRoundWB-1)
	matchNumber, err := brackets.FindLoserMatchNumber(method, loserCount, lbRound, m.Number)
	if err != nil {
		return nil, err
	}
	return findMatchAt(ctx, n.store, loser.ID, lbRound, matchNumber)
}

func (n *navigator) nextLoserBracketMatches(ctx context.Context, m *models.Match, stage *models.Stage, roundNumber, roundCount int) ([]*models.Match, error) {
	if roundNumber == roundCount {
		grandFinal, err := n.grandFinal(ctx, stage)
		if err != nil {
			return nil, err
		}
		var consolation *models.Match
		if stage.Settings.ConsolationFinal {
			if consolation, err = n.consolationFinal(ctx, stage); err != nil {
				return nil, err
			}
		}
		if grandFinal == nil && consolation == nil {
			return nil, nil
		}
		return []*models.Match{grandFinal, consolation}, nil
	}

	var destination *models.Match
	var err error
	if roundNumber%2 == 1 {
		destination, err = findMatchAt(ctx, n.store, m.GroupID, roundNumber+1, m.Number)
	} else {
		destination, err = findMatchAt(ctx, n.store, m.GroupID, roundNumber+1, brackets.DiagonalMatchNumber(m.Number))
	}
	if err != nil {
		return nil, err
	}

	next := []*models.Match{destination}
	if roundNumber == roundCount-1 && stage.Settings.ConsolationFinal {
		consolation, err := n.consolationFinal(ctx, stage)
		if err != nil {
			return nil, err
		}
		if consolation != nil {
			next = append(next, consolation)
		}
	}
	return next, nil
}

func (n *navigator) nextFinalGroupMatches(ctx context.Context, m *models.Match, roundNumber, roundCount int) ([]*models.Match, error) {
	// The consolation final (match 2) is a sibling, not a successor.
	if m.Number != 1 || roundNumber == roundCount {
		return nil, nil
	}
	return n.collect(ctx, position{m.GroupID, roundNumber + 1, 1})
}

// grandFinal returns the first grand final match, or nil when the stage has
// none.
func (n *navigator) grandFinal(ctx context.Context, stage *models.Stage) (*models.Match, error) {
	if stage.Settings.GrandFinal == models.GrandFinalNone || stage.Settings.GrandFinal == "" {
		return nil, nil
	}
	final, err := groupByNumber(ctx, n.store, stage.ID, models.GroupFinal)
	if err != nil || final == nil {
		return nil, err
	}
	return findMatchAt(ctx, n.store, final.ID, 1, 1)
}

// consolationFinal returns the consolation final match of the stage, or nil.
func (n *navigator) consolationFinal(ctx context.Context, stage *models.Stage) (*models.Match, error) {
	if stage.Type == models.StageSingleElimination {
		final, err := groupByNumber(ctx, n.store, stage.ID, 2)
		if err != nil || final == nil {
			return nil, err
		}
		return findMatchAt(ctx, n.store, final.ID, 1, 1)
	}
	final, err := groupByNumber(ctx, n.store, stage.ID, models.GroupFinal)
	if err != nil || final == nil {
		return nil, err
	}
	return findMatchAt(ctx, n.store, final.ID, 1, 2)
}

type position struct {
	groupID     int
	roundNumber int
	matchNumber int
}

// collect resolves positions to matches, skipping the ones that do not
// exist.
func (n *navigator) collect(ctx context.Context, positions ...position) ([]*models.Match, error) {
	out := make([]*models.Match, 0, len(positions))
	for _, p := range positions {
		m, err := findMatchAt(ctx, n.store, p.groupID, p.roundNumber, p.matchNumber)
		if err != nil {
			return nil, err
		}
		if m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}
