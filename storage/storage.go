// Package storage defines the persistence boundary of the engine: a CRUD
// abstraction over the six relations. The engine never assumes a concrete
// store; filtered selects must be insertion-order stable.
package storage

import (
	"context"
	"errors"

	"github.com/Dosada05/bracket-engine/models"
)

var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrStageNotFound       = errors.New("stage not found")
	ErrGroupNotFound       = errors.New("group not found")
	ErrRoundNotFound       = errors.New("round not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrMatchGameNotFound   = errors.New("match game not found")
)

// Inserts assign a fresh id when the row's ID is zero; a non-zero ID is
// preserved as-is (the dataset import relies on this).
//
// Filters. A nil field matches everything; set fields must all match.

type ParticipantFilter struct {
	ID           *int
	TournamentID *int
	Name         *string
}

type StageFilter struct {
	ID           *int
	TournamentID *int
	Number       *int
}

type GroupFilter struct {
	ID      *int
	StageID *int
	Number  *int
}

type RoundFilter struct {
	ID      *int
	StageID *int
	GroupID *int
	Number  *int
}

type MatchFilter struct {
	ID      *int
	StageID *int
	GroupID *int
	RoundID *int
	Number  *int
	Status  *models.MatchStatus
}

type MatchGameFilter struct {
	ID       *int
	StageID  *int
	ParentID *int
	Number   *int
}

// MatchGamePartial is the merge-update applied to every match game of a
// parent when the parent changes. A nil Status is left untouched. When
// SetOpponents is true, the games' opponent ids are aligned with the given
// slots (a nil slot is a BYE) while the per-game scores and results are
// preserved.
type MatchGamePartial struct {
	Status       *models.MatchStatus
	SetOpponents bool
	Opponent1    *models.Slot
	Opponent2    *models.Slot
}

type ParticipantStore interface {
	InsertParticipant(ctx context.Context, participant *models.Participant) (int, error)
	SelectParticipant(ctx context.Context, id int) (*models.Participant, error)
	SelectParticipants(ctx context.Context, filter ParticipantFilter) ([]*models.Participant, error)
	UpdateParticipant(ctx context.Context, id int, participant *models.Participant) error
	DeleteParticipants(ctx context.Context, filter ParticipantFilter) (int, error)
}

type StageStore interface {
	InsertStage(ctx context.Context, stage *models.Stage) (int, error)
	SelectStage(ctx context.Context, id int) (*models.Stage, error)
	SelectStages(ctx context.Context, filter StageFilter) ([]*models.Stage, error)
	UpdateStage(ctx context.Context, id int, stage *models.Stage) error
	DeleteStages(ctx context.Context, filter StageFilter) (int, error)
}

type GroupStore interface {
	InsertGroup(ctx context.Context, group *models.Group) (int, error)
	SelectGroup(ctx context.Context, id int) (*models.Group, error)
	SelectGroups(ctx context.Context, filter GroupFilter) ([]*models.Group, error)
	UpdateGroup(ctx context.Context, id int, group *models.Group) error
	DeleteGroups(ctx context.Context, filter GroupFilter) (int, error)
}

type RoundStore interface {
	InsertRound(ctx context.Context, round *models.Round) (int, error)
	SelectRound(ctx context.Context, id int) (*models.Round, error)
	SelectRounds(ctx context.Context, filter RoundFilter) ([]*models.Round, error)
	UpdateRound(ctx context.Context, id int, round *models.Round) error
	DeleteRounds(ctx context.Context, filter RoundFilter) (int, error)
}

type MatchStore interface {
	InsertMatch(ctx context.Context, match *models.Match) (int, error)
	SelectMatch(ctx context.Context, id int) (*models.Match, error)
	SelectMatches(ctx context.Context, filter MatchFilter) ([]*models.Match, error)
	UpdateMatch(ctx context.Context, id int, match *models.Match) error
	DeleteMatches(ctx context.Context, filter MatchFilter) (int, error)
}

type MatchGameStore interface {
	InsertMatchGame(ctx context.Context, game *models.MatchGame) (int, error)
	SelectMatchGame(ctx context.Context, id int) (*models.MatchGame, error)
	SelectMatchGames(ctx context.Context, filter MatchGameFilter) ([]*models.MatchGame, error)
	UpdateMatchGame(ctx context.Context, id int, game *models.MatchGame) error
	UpdateMatchGames(ctx context.Context, filter MatchGameFilter, partial MatchGamePartial) error
	DeleteMatchGames(ctx context.Context, filter MatchGameFilter) (int, error)
}

// Storage is the full persistence interface the engine runs against.
type Storage interface {
	ParticipantStore
	StageStore
	GroupStore
	RoundStore
	MatchStore
	MatchGameStore
}
