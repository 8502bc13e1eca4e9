package models

import (
	"encoding/json"
	"fmt"
)

// ResultsUpdate is a partial update of the stateful part of a match or match
// game. Nil fields are left untouched.
type ResultsUpdate struct {
	Status    *MatchStatus `json:"status,omitempty"`
	Opponent1 *Slot        `json:"opponent1,omitempty"`
	Opponent2 *Slot        `json:"opponent2,omitempty"`
}

// MatchUpdate is the caller-facing partial match. Unknown JSON keys are
// collected into Extra and copied verbatim onto the stored match.
type MatchUpdate struct {
	ID int `json:"id"`
	ResultsUpdate

	Extra map[string]json.RawMessage `json:"-"`
}

func (u *MatchUpdate) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = MatchUpdate{}
	for key, value := range raw {
		var err error
		switch key {
		case "id":
			err = json.Unmarshal(value, &u.ID)
		case "status":
			err = json.Unmarshal(value, &u.Status)
		case "opponent1":
			err = json.Unmarshal(value, &u.Opponent1)
		case "opponent2":
			err = json.Unmarshal(value, &u.Opponent2)
		case "number", "stage_id", "group_id", "round_id", "child_count", "parent_id":
			// Managed by the engine; ignored on update.
		default:
			if u.Extra == nil {
				u.Extra = make(map[string]json.RawMessage)
			}
			u.Extra[key] = value
		}
		if err != nil {
			return fmt.Errorf("match update field %q: %w", key, err)
		}
	}
	return nil
}

// MatchGameUpdate is the caller-facing partial match game. The game is found
// either by ID or by (ParentID, Number).
type MatchGameUpdate struct {
	ID       int `json:"id"`
	ParentID int `json:"parent_id"`
	Number   int `json:"number"`
	ResultsUpdate

	Extra map[string]json.RawMessage `json:"-"`
}

func (u *MatchGameUpdate) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = MatchGameUpdate{}
	for key, value := range raw {
		var err error
		switch key {
		case "id":
			err = json.Unmarshal(value, &u.ID)
		case "parent_id":
			err = json.Unmarshal(value, &u.ParentID)
		case "number":
			err = json.Unmarshal(value, &u.Number)
		case "status":
			err = json.Unmarshal(value, &u.Status)
		case "opponent1":
			err = json.Unmarshal(value, &u.Opponent1)
		case "opponent2":
			err = json.Unmarshal(value, &u.Opponent2)
		case "stage_id":
			// Managed by the engine; ignored on update.
		default:
			if u.Extra == nil {
				u.Extra = make(map[string]json.RawMessage)
			}
			u.Extra[key] = value
		}
		if err != nil {
			return fmt.Errorf("match game update field %q: %w", key, err)
		}
	}
	return nil
}
