package models

import "encoding/json"

// MatchGame is one game in a best-of-X series. Its slots never carry a
// position.
type MatchGame struct {
	ID       int `json:"id" db:"id"`
	StageID  int `json:"stage_id" db:"stage_id"`
	ParentID int `json:"parent_id" db:"parent_id"`
	Number   int `json:"number" db:"number"`
	MatchResults

	Extra map[string]json.RawMessage `json:"-"`
}

func (g *MatchGame) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(g.Extra, map[string]any{
		"id":        g.ID,
		"stage_id":  g.StageID,
		"parent_id": g.ParentID,
		"number":    g.Number,
		"status":    g.Status,
		"opponent1": g.Opponent1,
		"opponent2": g.Opponent2,
	})
}

func (g *MatchGame) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*g = MatchGame{}
	fields := map[string]any{
		"id": &g.ID, "stage_id": &g.StageID, "parent_id": &g.ParentID,
		"number": &g.Number, "status": &g.Status,
		"opponent1": &g.Opponent1, "opponent2": &g.Opponent2,
	}
	extra, err := unmarshalWithExtra(raw, fields)
	if err != nil {
		return err
	}
	g.Extra = extra
	return nil
}

func (g *MatchGame) Clone() *MatchGame {
	if g == nil {
		return nil
	}
	out := *g
	out.Opponent1 = g.Opponent1.Clone()
	out.Opponent2 = g.Opponent2.Clone()
	if g.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(g.Extra))
		for k, v := range g.Extra {
			out.Extra[k] = v
		}
	}
	return &out
}
