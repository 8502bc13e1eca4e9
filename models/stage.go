package models

import "github.com/Dosada05/bracket-engine/ordering"

// StageType identifies the kind of a stage.
type StageType string

const (
	StageRoundRobin        StageType = "round_robin"
	StageSingleElimination StageType = "single_elimination"
	StageDoubleElimination StageType = "double_elimination"
)

// RoundRobinMode controls whether each pair meets once or twice.
type RoundRobinMode string

const (
	RoundRobinSimple RoundRobinMode = "simple"
	RoundRobinDouble RoundRobinMode = "double"
)

// GrandFinalType controls the final group of a double elimination stage.
type GrandFinalType string

const (
	GrandFinalNone   GrandFinalType = "none"
	GrandFinalSimple GrandFinalType = "simple"
	GrandFinalDouble GrandFinalType = "double"
)

// StageSettings holds the per-stage options. All fields are optional unless
// the stage type requires them.
type StageSettings struct {
	Size              int               `json:"size,omitempty"`
	SeedOrdering      []ordering.Method `json:"seedOrdering,omitempty"`
	GroupCount        int               `json:"groupCount,omitempty"`
	RoundRobinMode    RoundRobinMode    `json:"roundRobinMode,omitempty"`
	ConsolationFinal  bool              `json:"consolationFinal,omitempty"`
	GrandFinal        GrandFinalType    `json:"grandFinal,omitempty"`
	SkipFirstRound    bool              `json:"skipFirstRound,omitempty"`
	BalanceByes       bool              `json:"balanceByes,omitempty"`
	MatchesChildCount int               `json:"matchesChildCount,omitempty"`
	ManualOrdering    [][]int           `json:"manualOrdering,omitempty"`
}

// Stage is one phase of a tournament.
type Stage struct {
	ID           int           `json:"id" db:"id"`
	TournamentID int           `json:"tournament_id" db:"tournament_id"`
	Name         string        `json:"name" db:"name"`
	Type         StageType     `json:"type" db:"type"`
	Number       int           `json:"number" db:"number"`
	Settings     StageSettings `json:"settings" db:"settings"`
}

func (s *Stage) Clone() *Stage {
	if s == nil {
		return nil
	}
	out := *s
	out.Settings.SeedOrdering = append([]ordering.Method(nil), s.Settings.SeedOrdering...)
	if s.Settings.ManualOrdering != nil {
		out.Settings.ManualOrdering = make([][]int, len(s.Settings.ManualOrdering))
		for i, g := range s.Settings.ManualOrdering {
			out.Settings.ManualOrdering[i] = append([]int(nil), g...)
		}
	}
	return &out
}

// InputStage is the caller-facing description of a stage to create. A nil
// Seeding with a positive Settings.Size creates a stage with TBD slots only.
// A nil element inside Seeding or SeedingIDs is a BYE.
type InputStage struct {
	TournamentID int           `json:"tournament_id"`
	Name         string        `json:"name"`
	Type         StageType     `json:"type"`
	Number       int           `json:"number,omitempty"`
	Seeding      []*string     `json:"seeding,omitempty"`
	SeedingIDs   []*int        `json:"seeding_ids,omitempty"`
	Settings     StageSettings `json:"settings"`

	// SeedingSlots bypasses participant registration with already resolved
	// slots. Used by the engine when it rebuilds a stage from its own data.
	SeedingSlots []*Slot `json:"-"`
}
