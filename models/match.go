package models

import (
	"encoding/json"
	"fmt"
)

// MatchStatus is the life-cycle state of a match or a match game. The values
// are ordered: a match only moves forward, except when it is reset.
type MatchStatus int

const (
	// StatusLocked means the match depends on undecided matches, or has a BYE.
	StatusLocked MatchStatus = iota
	// StatusWaiting means exactly one opponent is known.
	StatusWaiting
	// StatusReady means both opponents are known.
	StatusReady
	// StatusRunning means at least one score was reported.
	StatusRunning
	// StatusCompleted means the match has a result.
	StatusCompleted
	// StatusArchived means a downstream match has started.
	StatusArchived
)

func (s MatchStatus) String() string {
	switch s {
	case StatusLocked:
		return "locked"
	case StatusWaiting:
		return "waiting"
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusArchived:
		return "archived"
	default:
		return fmt.Sprintf("MatchStatus(%d)", int(s))
	}
}

// Result is the outcome of one side of a match.
type Result string

const (
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
	ResultDraw Result = "draw"
)

// Slot is one side of a match. A nil *Slot is a BYE; a Slot with a nil ID is
// a participant still to be determined. Position is the origin seed, used to
// navigate between rounds. Unknown JSON keys supplied by the caller are kept
// in Extra and survive every read-modify-write cycle.
type Slot struct {
	ID       *int   `json:"id"`
	Position *int   `json:"position,omitempty"`
	Score    *int   `json:"score,omitempty"`
	Forfeit  bool   `json:"forfeit,omitempty"`
	Result   Result `json:"result,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (s *Slot) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, 5+len(s.Extra))
	for k, v := range s.Extra {
		out[k] = v
	}
	put := func(key string, v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		out[key] = raw
		return nil
	}
	if err := put("id", s.ID); err != nil {
		return nil, err
	}
	if s.Position != nil {
		if err := put("position", s.Position); err != nil {
			return nil, err
		}
	}
	if s.Score != nil {
		if err := put("score", s.Score); err != nil {
			return nil, err
		}
	}
	if s.Forfeit {
		if err := put("forfeit", s.Forfeit); err != nil {
			return nil, err
		}
	}
	if s.Result != "" {
		if err := put("result", s.Result); err != nil {
			return nil, err
		}
	}
	return json.Marshal(out)
}

func (s *Slot) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Slot{}
	for key, value := range raw {
		var err error
		switch key {
		case "id":
			err = json.Unmarshal(value, &s.ID)
		case "position":
			err = json.Unmarshal(value, &s.Position)
		case "score":
			err = json.Unmarshal(value, &s.Score)
		case "forfeit":
			err = json.Unmarshal(value, &s.Forfeit)
		case "result":
			err = json.Unmarshal(value, &s.Result)
		default:
			if s.Extra == nil {
				s.Extra = make(map[string]json.RawMessage)
			}
			s.Extra[key] = value
		}
		if err != nil {
			return fmt.Errorf("slot field %q: %w", key, err)
		}
	}
	return nil
}

func (s *Slot) Clone() *Slot {
	if s == nil {
		return nil
	}
	out := *s
	out.ID = cloneIntPtr(s.ID)
	out.Position = cloneIntPtr(s.Position)
	out.Score = cloneIntPtr(s.Score)
	if s.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(s.Extra))
		for k, v := range s.Extra {
			out.Extra[k] = v
		}
	}
	return &out
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// MatchResults is the stateful part shared by matches and match games: the
// status and the two opponent slots. The result engine operates on this view
// regardless of the record kind.
type MatchResults struct {
	Status    MatchStatus `json:"status" db:"status"`
	Opponent1 *Slot       `json:"opponent1" db:"opponent1"`
	Opponent2 *Slot       `json:"opponent2" db:"opponent2"`
}

// Match is a single contest between two slots. It may be played as a series
// of child games when ChildCount > 0. User-defined extra fields round-trip
// through Extra.
type Match struct {
	ID         int `json:"id" db:"id"`
	StageID    int `json:"stage_id" db:"stage_id"`
	GroupID    int `json:"group_id" db:"group_id"`
	RoundID    int `json:"round_id" db:"round_id"`
	Number     int `json:"number" db:"number"`
	ChildCount int `json:"child_count" db:"child_count"`
	MatchResults

	Extra map[string]json.RawMessage `json:"-"`
}

// MatchReservedKeys are the JSON keys managed by the engine on matches and
// match games. Anything else supplied by the caller is a user-defined field.
var MatchReservedKeys = map[string]bool{
	"id": true, "number": true, "stage_id": true, "group_id": true,
	"round_id": true, "status": true, "opponent1": true, "opponent2": true,
	"child_count": true, "parent_id": true,
}

func (m *Match) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(m.Extra, map[string]any{
		"id":          m.ID,
		"stage_id":    m.StageID,
		"group_id":    m.GroupID,
		"round_id":    m.RoundID,
		"number":      m.Number,
		"child_count": m.ChildCount,
		"status":      m.Status,
		"opponent1":   m.Opponent1,
		"opponent2":   m.Opponent2,
	})
}

func (m *Match) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Match{}
	fields := map[string]any{
		"id": &m.ID, "stage_id": &m.StageID, "group_id": &m.GroupID,
		"round_id": &m.RoundID, "number": &m.Number,
		"child_count": &m.ChildCount, "status": &m.Status,
		"opponent1": &m.Opponent1, "opponent2": &m.Opponent2,
	}
	extra, err := unmarshalWithExtra(raw, fields)
	if err != nil {
		return err
	}
	m.Extra = extra
	return nil
}

func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	out := *m
	out.Opponent1 = m.Opponent1.Clone()
	out.Opponent2 = m.Opponent2.Clone()
	if m.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = v
		}
	}
	return &out
}

func marshalWithExtra(extra map[string]json.RawMessage, fields map[string]any) ([]byte, error) {
	out := make(map[string]json.RawMessage, len(fields)+len(extra))
	for k, v := range extra {
		out[k] = v
	}
	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = raw
	}
	return json.Marshal(out)
}

func unmarshalWithExtra(raw map[string]json.RawMessage, fields map[string]any) (map[string]json.RawMessage, error) {
	var extra map[string]json.RawMessage
	for key, value := range raw {
		if target, ok := fields[key]; ok {
			if err := json.Unmarshal(value, target); err != nil {
				return nil, fmt.Errorf("field %q: %w", key, err)
			}
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[key] = value
	}
	return extra, nil
}
