package storage

import (
	"context"
	"sync"

	"github.com/Dosada05/bracket-engine/models"
)

// Memory is an in-memory Storage used by tests and by the demo server when
// no database is configured. Rows are kept in insertion order; every read
// and write goes through a deep copy so callers never share state with the
// store.
type Memory struct {
	mu sync.Mutex

	lastID       map[string]int
	participants []*models.Participant
	stages       []*models.Stage
	groups       []*models.Group
	rounds       []*models.Round
	matches      []*models.Match
	matchGames   []*models.MatchGame
}

func NewMemory() *Memory {
	return &Memory{lastID: make(map[string]int)}
}

func (m *Memory) nextID(table string) int {
	m.lastID[table]++
	return m.lastID[table]
}

// Participants

func (m *Memory) InsertParticipant(_ context.Context, participant *models.Participant) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := participant.Clone()
	if row.ID == 0 {
		row.ID = m.nextID("participant")
	} else if row.ID > m.lastID["participant"] {
		m.lastID["participant"] = row.ID
	}
	m.participants = append(m.participants, row)
	return row.ID, nil
}

func (m *Memory) SelectParticipant(_ context.Context, id int) (*models.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.participants {
		if row.ID == id {
			return row.Clone(), nil
		}
	}
	return nil, ErrParticipantNotFound
}

func (m *Memory) SelectParticipants(_ context.Context, filter ParticipantFilter) ([]*models.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Participant, 0)
	for _, row := range m.participants {
		if matchesParticipant(row, filter) {
			out = append(out, row.Clone())
		}
	}
	return out, nil
}

func (m *Memory) UpdateParticipant(_ context.Context, id int, participant *models.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, row := range m.participants {
		if row.ID == id {
			updated := participant.Clone()
			updated.ID = id
			m.participants[i] = updated
			return nil
		}
	}
	return ErrParticipantNotFound
}

func (m *Memory) DeleteParticipants(_ context.Context, filter ParticipantFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.participants[:0]
	deleted := 0
	for _, row := range m.participants {
		if matchesParticipant(row, filter) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	m.participants = kept
	return deleted, nil
}

func matchesParticipant(row *models.Participant, f ParticipantFilter) bool {
	if f.ID != nil && row.ID != *f.ID {
		return false
	}
	if f.TournamentID != nil && row.TournamentID != *f.TournamentID {
		return false
	}
	if f.Name != nil && row.Name != *f.Name {
		return false
	}
	return true
}

// Stages

func (m *Memory) InsertStage(_ context.Context, stage *models.Stage) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := stage.Clone()
	if row.ID == 0 {
		row.ID = m.nextID("stage")
	} else if row.ID > m.lastID["stage"] {
		m.lastID["stage"] = row.ID
	}
	m.stages = append(m.stages, row)
	return row.ID, nil
}

func (m *Memory) SelectStage(_ context.Context, id int) (*models.Stage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.stages {
		if row.ID == id {
			return row.Clone(), nil
		}
	}
	return nil, ErrStageNotFound
}

func (m *Memory) SelectStages(_ context.Context, filter StageFilter) ([]*models.Stage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Stage, 0)
	for _, row := range m.stages {
		if matchesStage(row, filter) {
			out = append(out, row.Clone())
		}
	}
	return out, nil
}

func (m *Memory) UpdateStage(_ context.Context, id int, stage *models.Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, row := range m.stages {
		if row.ID == id {
			updated := stage.Clone()
			updated.ID = id
			m.stages[i] = updated
			return nil
		}
	}
	return ErrStageNotFound
}

func (m *Memory) DeleteStages(_ context.Context, filter StageFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.stages[:0]
	deleted := 0
	for _, row := range m.stages {
		if matchesStage(row, filter) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	m.stages = kept
	return deleted, nil
}

func matchesStage(row *models.Stage, f StageFilter) bool {
	if f.ID != nil && row.ID != *f.ID {
		return false
	}
	if f.TournamentID != nil && row.TournamentID != *f.TournamentID {
		return false
	}
	if f.Number != nil && row.Number != *f.Number {
		return false
	}
	return true
}

// Groups

func (m *Memory) InsertGroup(_ context.Context, group *models.Group) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := group.Clone()
	if row.ID == 0 {
		row.ID = m.nextID("group")
	} else if row.ID > m.lastID["group"] {
		m.lastID["group"] = row.ID
	}
	m.groups = append(m.groups, row)
	return row.ID, nil
}

func (m *Memory) SelectGroup(_ context.Context, id int) (*models.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.groups {
		if row.ID == id {
			return row.Clone(), nil
		}
	}
	return nil, ErrGroupNotFound
}

func (m *Memory) SelectGroups(_ context.Context, filter GroupFilter) ([]*models.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Group, 0)
	for _, row := range m.groups {
		if matchesGroup(row, filter) {
			out = append(out, row.Clone())
		}
	}
	return out, nil
}

func (m *Memory) UpdateGroup(_ context.Context, id int, group *models.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, row := range m.groups {
		if row.ID == id {
			updated := group.Clone()
			updated.ID = id
			m.groups[i] = updated
			return nil
		}
	}
	return ErrGroupNotFound
}

func (m *Memory) DeleteGroups(_ context.Context, filter GroupFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.groups[:0]
	deleted := 0
	for _, row := range m.groups {
		if matchesGroup(row, filter) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	m.groups = kept
	return deleted, nil
}

func matchesGroup(row *models.Group, f GroupFilter) bool {
	if f.ID != nil && row.ID != *f.ID {
		return false
	}
	if f.StageID != nil && row.StageID != *f.StageID {
		return false
	}
	if f.Number != nil && row.Number != *f.Number {
		return false
	}
	return true
}

// Rounds

func (m *Memory) InsertRound(_ context.Context, round *models.Round) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := round.Clone()
	if row.ID == 0 {
		row.ID = m.nextID("round")
	} else if row.ID > m.lastID["round"] {
		m.lastID["round"] = row.ID
	}
	m.rounds = append(m.rounds, row)
	return row.ID, nil
}

func (m *Memory) SelectRound(_ context.Context, id int) (*models.Round, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rounds {
		if row.ID == id {
			return row.Clone(), nil
		}
	}
	return nil, ErrRoundNotFound
}

func (m *Memory) SelectRounds(_ context.Context, filter RoundFilter) ([]*models.Round, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Round, 0)
	for _, row := range m.rounds {
		if matchesRound(row, filter) {
			out = append(out, row.Clone())
		}
	}
	return out, nil
}

func (m *Memory) UpdateRound(_ context.Context, id int, round *models.Round) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, row := range m.rounds {
		if row.ID == id {
			updated := round.Clone()
			updated.ID = id
			m.rounds[i] = updated
			return nil
		}
	}
	return ErrRoundNotFound
}

func (m *Memory) DeleteRounds(_ context.Context, filter RoundFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rounds[:0]
	deleted := 0
	for _, row := range m.rounds {
		if matchesRound(row, filter) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	m.rounds = kept
	return deleted, nil
}

func matchesRound(row *models.Round, f RoundFilter) bool {
	if f.ID != nil && row.ID != *f.ID {
		return false
	}
	if f.StageID != nil && row.StageID != *f.StageID {
		return false
	}
	if f.GroupID != nil && row.GroupID != *f.GroupID {
		return false
	}
	if f.Number != nil && row.Number != *f.Number {
		return false
	}
	return true
}

// Matches

func (m *Memory) InsertMatch(_ context.Context, match *models.Match) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := match.Clone()
	if row.ID == 0 {
		row.ID = m.nextID("match")
	} else if row.ID > m.lastID["match"] {
		m.lastID["match"] = row.ID
	}
	m.matches = append(m.matches, row)
	return row.ID, nil
}

func (m *Memory) SelectMatch(_ context.Context, id int) (*models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.matches {
		if row.ID == id {
			return row.Clone(), nil
		}
	}
	return nil, ErrMatchNotFound
}

func (m *Memory) SelectMatches(_ context.Context, filter MatchFilter) ([]*models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Match, 0)
	for _, row := range m.matches {
		if matchesMatch(row, filter) {
			out = append(out, row.Clone())
		}
	}
	return out, nil
}

func (m *Memory) UpdateMatch(_ context.Context, id int, match *models.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, row := range m.matches {
		if row.ID == id {
			updated := match.Clone()
			updated.ID = id
			m.matches[i] = updated
			return nil
		}
	}
	return ErrMatchNotFound
}

func (m *Memory) DeleteMatches(_ context.Context, filter MatchFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.matches[:0]
	deleted := 0
	for _, row := range m.matches {
		if matchesMatch(row, filter) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	m.matches = kept
	return deleted, nil
}

func matchesMatch(row *models.Match, f MatchFilter) bool {
	if f.ID != nil && row.ID != *f.ID {
		return false
	}
	if f.StageID != nil && row.StageID != *f.StageID {
		return false
	}
	if f.GroupID != nil && row.GroupID != *f.GroupID {
		return false
	}
	if f.RoundID != nil && row.RoundID != *f.RoundID {
		return false
	}
	if f.Number != nil && row.Number != *f.Number {
		return false
	}
	if f.Status != nil && row.Status != *f.Status {
		return false
	}
	return true
}

// Match games

func (m *Memory) InsertMatchGame(_ context.Context, game *models.MatchGame) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := game.Clone()
	if row.ID == 0 {
		row.ID = m.nextID("match_game")
	} else if row.ID > m.lastID["match_game"] {
		m.lastID["match_game"] = row.ID
	}
	m.matchGames = append(m.matchGames, row)
	return row.ID, nil
}

func (m *Memory) SelectMatchGame(_ context.Context, id int) (*models.MatchGame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.matchGames {
		if row.ID == id {
			return row.Clone(), nil
		}
	}
	return nil, ErrMatchGameNotFound
}

func (m *Memory) SelectMatchGames(_ context.Context, filter MatchGameFilter) ([]*models.MatchGame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.MatchGame, 0)
	for _, row := range m.matchGames {
		if matchesMatchGame(row, filter) {
			out = append(out, row.Clone())
		}
	}
	return out, nil
}

func (m *Memory) UpdateMatchGame(_ context.Context, id int, game *models.MatchGame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, row := range m.matchGames {
		if row.ID == id {
			updated := game.Clone()
			updated.ID = id
			m.matchGames[i] = updated
			return nil
		}
	}
	return ErrMatchGameNotFound
}

func (m *Memory) UpdateMatchGames(_ context.Context, filter MatchGameFilter, partial MatchGamePartial) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.matchGames {
		if !matchesMatchGame(row, filter) {
			continue
		}
		if partial.Status != nil {
			row.Status = *partial.Status
		}
		if partial.SetOpponents {
			row.Opponent1 = mirrorOpponent(row.Opponent1, partial.Opponent1)
			row.Opponent2 = mirrorOpponent(row.Opponent2, partial.Opponent2)
		}
	}
	return nil
}

func (m *Memory) DeleteMatchGames(_ context.Context, filter MatchGameFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.matchGames[:0]
	deleted := 0
	for _, row := range m.matchGames {
		if matchesMatchGame(row, filter) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	m.matchGames = kept
	return deleted, nil
}

// mirrorOpponent aligns a game slot with its parent slot: the id follows
// the parent, everything reported on the game itself stays.
func mirrorOpponent(current, parent *models.Slot) *models.Slot {
	if parent == nil {
		return nil
	}
	if current == nil {
		current = &models.Slot{}
	}
	if parent.ID != nil {
		id := *parent.ID
		current.ID = &id
	} else {
		current.ID = nil
	}
	return current
}

func matchesMatchGame(row *models.MatchGame, f MatchGameFilter) bool {
	if f.ID != nil && row.ID != *f.ID {
		return false
	}
	if f.StageID != nil && row.StageID != *f.StageID {
		return false
	}
	if f.ParentID != nil && row.ParentID != *f.ParentID {
		return false
	}
	if f.Number != nil && row.Number != *f.Number {
		return false
	}
	return true
}
