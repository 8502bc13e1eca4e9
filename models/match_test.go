package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func TestSlotJSONRoundTripKeepsUnknownKeys(t *testing.T) {
	payload := []byte(`{"id":3,"position":1,"score":12,"result":"win","rating":1800}`)

	var slot Slot
	require.NoError(t, json.Unmarshal(payload, &slot))
	assert.Equal(t, 3, *slot.ID)
	assert.Equal(t, 1, *slot.Position)
	assert.Equal(t, 12, *slot.Score)
	assert.Equal(t, ResultWin, slot.Result)
	require.Contains(t, slot.Extra, "rating")

	out, err := json.Marshal(&slot)
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(out))
}

func TestSlotMarshalNullID(t *testing.T) {
	out, err := json.Marshal(&Slot{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":null}`, string(out))
}

func TestMatchJSONRoundTripKeepsUnknownKeys(t *testing.T) {
	payload := []byte(`{
		"id": 10, "stage_id": 1, "group_id": 2, "round_id": 3, "number": 4,
		"child_count": 0, "status": 2,
		"opponent1": {"id": 5}, "opponent2": null,
		"scheduled_court": "center"
	}`)

	var match Match
	require.NoError(t, json.Unmarshal(payload, &match))
	assert.Equal(t, 10, match.ID)
	assert.Equal(t, StatusReady, match.Status)
	assert.Equal(t, 5, *match.Opponent1.ID)
	assert.Nil(t, match.Opponent2)
	require.Contains(t, match.Extra, "scheduled_court")

	out, err := json.Marshal(&match)
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(out))
}

func TestMatchUpdateUnmarshalSeparatesReservedKeys(t *testing.T) {
	payload := []byte(`{"id": 7, "status": 4, "opponent1": {"score": 2}, "note": "tiebreak"}`)

	var update MatchUpdate
	require.NoError(t, json.Unmarshal(payload, &update))
	assert.Equal(t, 7, update.ID)
	assert.Equal(t, StatusCompleted, *update.Status)
	assert.Equal(t, 2, *update.Opponent1.Score)
	require.Contains(t, update.Extra, "note")
	assert.NotContains(t, update.Extra, "status")
}

func TestMatchCloneIsDeep(t *testing.T) {
	match := &Match{
		ID: 1,
		MatchResults: MatchResults{
			Opponent1: &Slot{ID: intp(5), Score: intp(1)},
		},
	}
	clone := match.Clone()
	*clone.Opponent1.ID = 9
	*clone.Opponent1.Score = 7

	assert.Equal(t, 5, *match.Opponent1.ID)
	assert.Equal(t, 1, *match.Opponent1.Score)
}

func TestStatusOrdering(t *testing.T) {
	assert.True(t, StatusLocked < StatusWaiting)
	assert.True(t, StatusWaiting < StatusReady)
	assert.True(t, StatusReady < StatusRunning)
	assert.True(t, StatusRunning < StatusCompleted)
	assert.True(t, StatusCompleted < StatusArchived)
}
