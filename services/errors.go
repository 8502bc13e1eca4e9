package services

import "errors"

// Общие ошибки движка, используемые сервисами и маппингом HTTP.
var (
	// Блокировки
	ErrMatchLocked      = errors.New("the match is locked")
	ErrMatchGameLocked  = errors.New("the match game is locked")
	ErrSeedingLocked    = errors.New("a match is locked")
	ErrRoundOneArchived = errors.New("a match of round 1 is archived, which means round 2 was started")

	// Ошибки валидации входа
	ErrUnknownStageType   = errors.New("unknown stage type")
	ErrEmptySeeding       = errors.New("the seeding is empty")
	ErrMissingSize        = errors.New("the size of the stage to create is undefined")
	ErrSeedingDuplicate   = errors.New("the seeding has a duplicate participant")
	ErrSeedingTooLong     = errors.New("the seeding has more participants than the size of the stage")
	ErrSizeNotPowerOfTwo  = errors.New("elimination stages require a power of two size")
	ErrSizeTooSmall       = errors.New("a stage requires at least two participants")
	ErrGroupCountRequired = errors.New("a group count is required for round-robin stages")
	ErrBadManualOrdering  = errors.New("the manual ordering does not fit the stage")
	ErrUnevenGroups       = errors.New("the size must be a multiple of the group count")
	ErrBadSeedOrdering    = errors.New("the seed ordering does not fit the stage")

	// Операции, несовместимые с типом этапа
	ErrOrderingUnsupported      = errors.New("the ordering of a round-robin stage cannot be updated")
	ErrParticipantNotInMatch    = errors.New("the participant does not belong to this match")
	ErrParentHasChildGames      = errors.New("the parent match results are controlled by its child games")
	ErrNoStandingsForRoundRobin = errors.New("a round-robin stage does not have final standings")

	ErrNotImplemented = errors.New("not implemented")
)
