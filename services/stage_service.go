package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/ordering"
	"github.com/Dosada05/bracket-engine/storage"
)

// StageService materializes stages from a seeding and keeps their seeding
// and ordering up to date.
type StageService interface {
	Create(ctx context.Context, input *models.InputStage) (*models.Stage, error)
	UpdateSeeding(ctx context.Context, stageID int, seeding *SeedingInput, keepSameSize bool) error
	ConfirmCurrentSeeding(ctx context.Context, stageID int) error
	UpdateOrdering(ctx context.Context, stageID int, methods []ordering.Method) error
	UpdateRoundOrdering(ctx context.Context, roundID int, method ordering.Method) error
}

// SeedingInput carries a new seeding, by names or by participant ids. Both
// nil resets the stage to TBD slots of the recorded size.
type SeedingInput struct {
	Names []*string
	IDs   []*int
}

type stageService struct {
	store storage.Storage
}

func NewStageService(store storage.Storage) StageService {
	return &stageService{store: store}
}

func (s *stageService) Create(ctx context.Context, input *models.InputStage) (*models.Stage, error) {
	creator := &stageCreator{store: s.store, input: input}
	return creator.run(ctx)
}

func (s *stageService) UpdateSeeding(ctx context.Context, stageID int, seeding *SeedingInput, keepSameSize bool) error {
	stage, err := s.store.SelectStage(ctx, stageID)
	if err != nil {
		return err
	}

	input := &models.InputStage{
		TournamentID: stage.TournamentID,
		Name:         stage.Name,
		Type:         stage.Type,
		Number:       stage.Number,
		Settings:     stage.Settings,
	}
	if seeding != nil {
		input.Seeding = seeding.Names
		input.SeedingIDs = seeding.IDs
		if !keepSameSize {
			if n := seedingLength(seeding); n > 0 {
				input.Settings.Size = n
			}
		}
	}

	creator := &stageCreator{store: s.store, input: input, existing: stage}
	_, err = creator.run(ctx)
	return err
}

func seedingLength(seeding *SeedingInput) int {
	if seeding == nil {
		return 0
	}
	if seeding.IDs != nil {
		return len(seeding.IDs)
	}
	return len(seeding.Names)
}

// ConfirmCurrentSeeding freezes the current seeding: every slot still to be
// determined becomes a BYE.
func (s *stageService) ConfirmCurrentSeeding(ctx context.Context, stageID int) error {
	stage, err := s.store.SelectStage(ctx, stageID)
	if err != nil {
		return err
	}
	slots, err := currentSeedingSlots(ctx, s.store, stage)
	if err != nil {
		return err
	}
	confirmed := make([]*models.Slot, len(slots))
	for i, slot := range slots {
		if slot == nil || slot.ID == nil {
			continue
		}
		confirmed[i] = slot
	}

	input := &models.InputStage{
		TournamentID: stage.TournamentID,
		Name:         stage.Name,
		Type:         stage.Type,
		Number:       stage.Number,
		Settings:     stage.Settings,
		SeedingSlots: confirmed,
	}
	creator := &stageCreator{store: s.store, input: input, existing: stage}
	_, err = creator.run(ctx)
	return err
}

func (s *stageService) UpdateOrdering(ctx context.Context, stageID int, methods []ordering.Method) error {
	stage, err := s.store.SelectStage(ctx, stageID)
	if err != nil {
		return err
	}
	if isRoundRobin(stage) {
		return ErrOrderingUnsupported
	}
	if err := s.ensureOrderingCanBeUpdated(ctx, stage); err != nil {
		return err
	}
	for _, m := range methods {
		if !m.Valid() {
			return fmt.Errorf("%w: %q", ErrBadSeedOrdering, m)
		}
	}
	settings := stage.Settings
	settings.SeedOrdering = methods
	return s.recreateWithSettings(ctx, stage, settings)
}

func (s *stageService) UpdateRoundOrdering(ctx context.Context, roundID int, method ordering.Method) error {
	round, roundNumber, _, err := roundInfo(ctx, s.store, roundID)
	if err != nil {
		return err
	}
	stage, err := s.store.SelectStage(ctx, round.StageID)
	if err != nil {
		return err
	}
	if isRoundRobin(stage) {
		return ErrOrderingUnsupported
	}
	group, err := s.store.SelectGroup(ctx, round.GroupID)
	if err != nil {
		return err
	}

	index, err := orderedRoundIndex(brackets.MatchLocation(stage.Type, group.Number), roundNumber)
	if err != nil {
		return err
	}
	if !method.Valid() {
		return fmt.Errorf("%w: %q", ErrBadSeedOrdering, method)
	}
	if err := s.ensureOrderingCanBeUpdated(ctx, stage); err != nil {
		return err
	}

	settings := stage.Settings
	for len(settings.SeedOrdering) <= index {
		settings.SeedOrdering = append(settings.SeedOrdering, "")
	}
	settings.SeedOrdering[index] = method
	return s.recreateWithSettings(ctx, stage, settings)
}

// orderedRoundIndex maps an ordered round to its slot in the seedOrdering
// list: the first upper bracket round, then the loser bracket rounds that
// receive incoming participants.
func orderedRoundIndex(location brackets.Location, roundNumber int) (int, error) {
	switch {
	case (location == brackets.LocationSingleBracket || location == brackets.LocationWinnerBracket) && roundNumber == 1:
		return 0, nil
	case location == brackets.LocationLoserBracket && roundNumber == 1:
		return 1, nil
	case location == brackets.LocationLoserBracket && roundNumber%2 == 0:
		return 1 + roundNumber/2, nil
	default:
		return 0, fmt.Errorf("%w: this round has no seed ordering", ErrBadSeedOrdering)
	}
}

func (s *stageService) ensureOrderingCanBeUpdated(ctx context.Context, stage *models.Stage) error {
	upper, err := groupByNumber(ctx, s.store, stage.ID, models.GroupUpperBracket)
	if err != nil {
		return err
	}
	if upper == nil {
		return nil
	}
	matches, err := firstRoundMatches(ctx, s.store, upper.ID)
	if err != nil {
		return err
	}
	for _, m := range matches {
		if m.Status == models.StatusArchived {
			return ErrRoundOneArchived
		}
	}
	return nil
}

func (s *stageService) recreateWithSettings(ctx context.Context, stage *models.Stage, settings models.StageSettings) error {
	slots, err := currentSeedingSlots(ctx, s.store, stage)
	if err != nil {
		return err
	}
	input := &models.InputStage{
		TournamentID: stage.TournamentID,
		Name:         stage.Name,
		Type:         stage.Type,
		Number:       stage.Number,
		Settings:     settings,
		SeedingSlots: slots,
	}
	creator := &stageCreator{store: s.store, input: input, existing: stage}
	_, err = creator.run(ctx)
	return err
}

// currentSeedingSlots rebuilds the positional seeding of a stage from its
// first ordered rounds: round-robin stages from all their matches,
// elimination stages from the first round of the upper bracket, plus the
// first loser round when the first round is skipped.
func currentSeedingSlots(ctx context.Context, store storage.Storage, stage *models.Stage) ([]*models.Slot, error) {
	slots := make([]*models.Slot, stage.Settings.Size)

	place := func(s *models.Slot) {
		if s == nil || s.Position == nil {
			return
		}
		index := *s.Position - 1
		if index >= 0 && index < len(slots) {
			clean := &models.Slot{Position: cloneIntPointer(s.Position)}
			if s.ID != nil {
				clean.ID = cloneIntPointer(s.ID)
			}
			slots[index] = clean
		}
	}

	if isRoundRobin(stage) {
		matches, err := store.SelectMatches(ctx, storage.MatchFilter{StageID: intPtr(stage.ID)})
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			place(m.Opponent1)
			place(m.Opponent2)
		}
		return slots, nil
	}

	groups := []int{models.GroupUpperBracket}
	if stage.Settings.SkipFirstRound {
		groups = append(groups, models.GroupLoserBracket)
	}
	for _, number := range groups {
		group, err := groupByNumber(ctx, store, stage.ID, number)
		if err != nil {
			return nil, err
		}
		if group == nil {
			continue
		}
		matches, err := firstRoundMatches(ctx, store, group.ID)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			place(m.Opponent1)
			place(m.Opponent2)
		}
	}
	return slots, nil
}

// stageCreator turns an input stage into the persisted tree of groups,
// rounds and matches. With existing set it matches rows by their numbers
// and updates them in place, preserving user fields and advanced statuses.
type stageCreator struct {
	store    storage.Storage
	input    *models.InputStage
	existing *models.Stage

	stage     *models.Stage
	effective []ordering.Method
}

func (c *stageCreator) run(ctx context.Context) (*models.Stage, error) {
	if c.input.Name == "" && c.existing == nil {
		return nil, errors.New("the name of the stage is missing")
	}

	var err error
	switch c.input.Type {
	case models.StageRoundRobin:
		err = c.roundRobin(ctx)
	case models.StageSingleElimination:
		err = c.singleElimination(ctx)
	case models.StageDoubleElimination:
		err = c.doubleElimination(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStageType, c.input.Type)
	}
	if err != nil {
		return nil, err
	}

	if err := c.ensureSeedOrdering(ctx); err != nil {
		return nil, err
	}
	return c.stage, nil
}

// ensureSeedOrdering persists the ordering methods actually used, so that
// later navigation and ordering updates see the effective defaults.
func (c *stageCreator) ensureSeedOrdering(ctx context.Context) error {
	stored := c.stage.Settings.SeedOrdering
	changed := false
	for i, method := range c.effective {
		if i < len(stored) {
			if stored[i] == "" {
				stored[i] = method
				changed = true
			}
			continue
		}
		stored = append(stored, method)
		changed = true
	}
	if !changed {
		return nil
	}
	c.stage.Settings.SeedOrdering = stored
	return c.store.UpdateStage(ctx, c.stage.ID, c.stage)
}

func (c *stageCreator) roundRobin(ctx context.Context) error {
	settings := &c.input.Settings
	if settings.GroupCount < 1 {
		return ErrGroupCountRequired
	}

	slots, err := c.getSlots(ctx)
	if err != nil {
		return err
	}
	if len(slots)%settings.GroupCount != 0 {
		return ErrUnevenGroups
	}

	var groups [][]*models.Slot
	if settings.ManualOrdering != nil {
		if groups, err = c.manualGroups(slots); err != nil {
			return err
		}
	} else {
		method := c.firstOrderingMethod(ordering.GroupsEffortBalanced)
		ordered, err := ordering.Apply(method, slots, settings.GroupCount)
		if err != nil {
			return err
		}
		c.effective = append(c.effective, method)
		groups = splitGroups(ordered, settings.GroupCount)
	}

	if err := c.insertStage(ctx); err != nil {
		return err
	}

	for i, groupSlots := range groups {
		groupID, err := c.insertGroup(ctx, i+1)
		if err != nil {
			return err
		}
		rounds := brackets.ApplyRoundRobinMode(brackets.RoundRobinDistribution(groupSlots), settings.RoundRobinMode)
		for roundNumber, duels := range rounds {
			if err := c.createRound(ctx, groupID, roundNumber+1, duels, true); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *stageCreator) manualGroups(slots []*models.Slot) ([][]*models.Slot, error) {
	manual := c.input.Settings.ManualOrdering
	groupCount := c.input.Settings.GroupCount
	groupSize := len(slots) / groupCount
	if len(manual) != groupCount {
		return nil, ErrBadManualOrdering
	}
	seen := make(map[int]bool, len(slots))
	groups := make([][]*models.Slot, 0, groupCount)
	for _, positions := range manual {
		if len(positions) != groupSize {
			return nil, ErrBadManualOrdering
		}
		group := make([]*models.Slot, 0, groupSize)
		for _, pos := range positions {
			if pos < 1 || pos > len(slots) || seen[pos] {
				return nil, ErrBadManualOrdering
			}
			seen[pos] = true
			group = append(group, slots[pos-1])
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func splitGroups(ordered []*models.Slot, groupCount int) [][]*models.Slot {
	groupSize := len(ordered) / groupCount
	groups := make([][]*models.Slot, 0, groupCount)
	for i := 0; i < groupCount; i++ {
		groups = append(groups, ordered[i*groupSize:(i+1)*groupSize])
	}
	return groups
}

func (c *stageCreator) singleElimination(ctx context.Context) error {
	if ordered := c.input.Settings.SeedOrdering; len(ordered) > 1 {
		return fmt.Errorf("%w: a single elimination stage has one ordered round", ErrBadSeedOrdering)
	}

	slots, err := c.getSlots(ctx)
	if err != nil {
		return err
	}
	ordered, err := c.applyFirstRoundOrdering(slots)
	if err != nil {
		return err
	}

	if err := c.insertStage(ctx); err != nil {
		return err
	}

	losers, _, err := c.createStandardBracket(ctx, models.GroupUpperBracket, ordered)
	if err != nil {
		return err
	}

	if c.input.Settings.ConsolationFinal && len(losers) >= 2 {
		semiFinalLosers := losers[len(losers)-2]
		groupID, err := c.insertGroup(ctx, 2)
		if err != nil {
			return err
		}
		roundID, err := c.insertRound(ctx, groupID, 1)
		if err != nil {
			return err
		}
		duel := brackets.Duel{semiFinalLosers[0], semiFinalLosers[1]}
		if err := c.createMatch(ctx, groupID, roundID, 1, duel); err != nil {
			return err
		}
	}
	return nil
}

func (c *stageCreator) doubleElimination(ctx context.Context) error {
	slots, err := c.getSlots(ctx)
	if err != nil {
		return err
	}
	if c.input.Settings.SkipFirstRound && len(slots) < 4 {
		return fmt.Errorf("%w: skipping the first round requires at least four participants", ErrSizeTooSmall)
	}
	ordered, err := c.applyFirstRoundOrdering(slots)
	if err != nil {
		return err
	}

	if err := c.insertStage(ctx); err != nil {
		return err
	}

	var incoming [][]*models.Slot
	wbSlots := ordered
	if c.input.Settings.SkipFirstRound {
		evens := make([]*models.Slot, 0, len(ordered)/2)
		odds := make([]*models.Slot, 0, len(ordered)/2)
		for i, slot := range ordered {
			if i%2 == 0 {
				evens = append(evens, slot)
			} else {
				odds = append(odds, slot)
			}
		}
		wbSlots = evens
		incoming = append(incoming, odds)
	}

	losers, wbFinalDuel, err := c.createStandardBracket(ctx, models.GroupUpperBracket, wbSlots)
	if err != nil {
		return err
	}
	incoming = append(incoming, losers...)

	if len(incoming) < 2 {
		// A two-participant double elimination has no loser bracket.
		return nil
	}

	winnerLB, lastMajorDuel, lbFinalDuel, err := c.createLowerBracket(ctx, incoming)
	if err != nil {
		return err
	}

	return c.createFinalGroup(ctx, brackets.ByeWinner(wbFinalDuel), winnerLB, lastMajorDuel, lbFinalDuel)
}

func (c *stageCreator) applyFirstRoundOrdering(slots []*models.Slot) ([]*models.Slot, error) {
	method := c.firstOrderingMethod(ordering.InnerOuter)
	ordered, err := ordering.Apply(method, slots, 0)
	if err != nil {
		return nil, err
	}
	c.effective = append(c.effective, method)
	return ordered, nil
}

func (c *stageCreator) firstOrderingMethod(fallback ordering.Method) ordering.Method {
	if seedOrdering := c.input.Settings.SeedOrdering; len(seedOrdering) > 0 && seedOrdering[0] != "" {
		return seedOrdering[0]
	}
	return fallback
}

func (c *stageCreator) loserOrderingFor(batchIndex int) ordering.Method {
	seedOrdering := c.input.Settings.SeedOrdering
	if len(seedOrdering) > 1+batchIndex && seedOrdering[1+batchIndex] != "" {
		return seedOrdering[1+batchIndex]
	}
	return ordering.DefaultLoserOrdering(c.input.Settings.Size, batchIndex)
}

// createStandardBracket creates one bracket of halving rounds, returning
// the pre-propagated losers of every round and the duel of the final round.
func (c *stageCreator) createStandardBracket(ctx context.Context, groupNumber int, slots []*models.Slot) (losers [][]*models.Slot, finalDuel brackets.Duel, err error) {
	groupID, err := c.insertGroup(ctx, groupNumber)
	if err != nil {
		return nil, finalDuel, err
	}

	roundCount := brackets.UpperBracketRoundCount(len(slots))
	duels := brackets.MakePairs(slots)
	for roundNumber := 1; roundNumber <= roundCount; roundNumber++ {
		if roundNumber > 1 {
			duels = majorTransition(duels)
		}
		if err := c.createRound(ctx, groupID, roundNumber, duels, false); err != nil {
			return nil, finalDuel, err
		}
		roundLosers := make([]*models.Slot, len(duels))
		for i, duel := range duels {
			roundLosers[i] = brackets.ByeLoser(duel, i)
		}
		losers = append(losers, roundLosers)
	}
	return losers, duels[0], nil
}

func majorTransition(duels []brackets.Duel) []brackets.Duel {
	next := make([]brackets.Duel, 0, len(duels)/2)
	for i := 0; i+1 < len(duels); i += 2 {
		next = append(next, brackets.Duel{brackets.ByeWinner(duels[i]), brackets.ByeWinner(duels[i+1])})
	}
	return next
}

// createLowerBracket creates the alternating major/minor rounds of a loser
// bracket from the incoming loser batches.
func (c *stageCreator) createLowerBracket(ctx context.Context, incoming [][]*models.Slot) (winner *models.Slot, lastMajorDuel, finalDuel brackets.Duel, err error) {
	groupID, err := c.insertGroup(ctx, models.GroupLoserBracket)
	if err != nil {
		return nil, lastMajorDuel, finalDuel, err
	}

	method := c.loserOrderingFor(0)
	orderedFirst, err := ordering.Apply(method, incoming[0], 0)
	if err != nil {
		return nil, lastMajorDuel, finalDuel, err
	}
	c.effective = append(c.effective, method)

	duels := brackets.MakePairs(orderedFirst)
	pairCount := len(incoming) - 1
	roundNumber := 1

	var minorDuels []brackets.Duel
	for i := 0; i < pairCount; i++ {
		if i > 0 {
			duels = majorTransition(minorDuels)
		}
		if err := c.createRound(ctx, groupID, roundNumber, duels, false); err != nil {
			return nil, lastMajorDuel, finalDuel, err
		}
		roundNumber++

		minorMethod := c.loserOrderingFor(i + 1)
		orderedLosers, err := ordering.Apply(minorMethod, incoming[i+1], 0)
		if err != nil {
			return nil, lastMajorDuel, finalDuel, err
		}
		c.effective = append(c.effective, minorMethod)

		minorDuels = make([]brackets.Duel, len(duels))
		for j, majorDuel := range duels {
			minorDuels[j] = brackets.Duel{orderedLosers[j], brackets.ByeWinner(majorDuel)}
		}
		if err := c.createRound(ctx, groupID, roundNumber, minorDuels, false); err != nil {
			return nil, lastMajorDuel, finalDuel, err
		}
		roundNumber++

		if i == pairCount-1 {
			lastMajorDuel = duels[0]
			finalDuel = minorDuels[0]
		}
	}
	return brackets.ByeWinner(finalDuel), lastMajorDuel, finalDuel, nil
}

// createFinalGroup creates the grand final (simple or double) and the
// consolation final of a double elimination stage. The consolation final is
// match 2 of the first final round.
func (c *stageCreator) createFinalGroup(ctx context.Context, winnerWB, winnerLB *models.Slot, lastMajorDuel, lbFinalDuel brackets.Duel) error {
	grandFinal := c.input.Settings.GrandFinal
	hasGrandFinal := grandFinal == models.GrandFinalSimple || grandFinal == models.GrandFinalDouble
	if !hasGrandFinal && !c.input.Settings.ConsolationFinal {
		return nil
	}

	groupID, err := c.insertGroup(ctx, models.GroupFinal)
	if err != nil {
		return err
	}
	firstRoundID, err := c.insertRound(ctx, groupID, 1)
	if err != nil {
		return err
	}

	if hasGrandFinal {
		if err := c.createMatch(ctx, groupID, firstRoundID, 1, brackets.Duel{winnerWB, winnerLB}); err != nil {
			return err
		}
		if grandFinal == models.GrandFinalDouble {
			secondRoundID, err := c.insertRound(ctx, groupID, 2)
			if err != nil {
				return err
			}
			if err := c.createMatch(ctx, groupID, secondRoundID, 1, brackets.Duel{{}, {}}); err != nil {
				return err
			}
		}
	}

	if c.input.Settings.ConsolationFinal {
		duel := brackets.Duel{brackets.ByeLoser(lastMajorDuel, 0), brackets.ByeLoser(lbFinalDuel, 0)}
		if err := c.createMatch(ctx, groupID, firstRoundID, 2, duel); err != nil {
			return err
		}
	}
	return nil
}

// getSlots resolves the seeding into participant slots: validates the size,
// balances BYEs, and registers unknown participants.
func (c *stageCreator) getSlots(ctx context.Context) ([]*models.Slot, error) {
	settings := &c.input.Settings
	elimination := c.input.Type != models.StageRoundRobin

	if c.input.SeedingSlots != nil {
		return c.resolveSeedingSlots()
	}

	size := settings.Size
	seedingLen := 0
	hasSeeding := c.input.Seeding != nil || c.input.SeedingIDs != nil
	if c.input.SeedingIDs != nil {
		seedingLen = len(c.input.SeedingIDs)
	} else if c.input.Seeding != nil {
		seedingLen = len(c.input.Seeding)
	}
	if hasSeeding && seedingLen == 0 {
		return nil, ErrEmptySeeding
	}
	if size == 0 {
		size = seedingLen
	}
	if size == 0 {
		return nil, ErrMissingSize
	}
	if size < 2 {
		return nil, ErrSizeTooSmall
	}
	if elimination && !brackets.IsPowerOfTwo(size) {
		return nil, ErrSizeNotPowerOfTwo
	}
	if seedingLen > size {
		return nil, ErrSeedingTooLong
	}
	settings.Size = size

	if !hasSeeding {
		slots := make([]*models.Slot, size)
		for i := range slots {
			position := i + 1
			slots[i] = &models.Slot{Position: &position}
		}
		return slots, nil
	}

	if c.input.SeedingIDs != nil {
		return c.slotsFromIDs(ctx, size, elimination)
	}
	return c.slotsFromNames(ctx, size, elimination)
}

func (c *stageCreator) resolveSeedingSlots() ([]*models.Slot, error) {
	size := c.input.Settings.Size
	if size == 0 {
		size = len(c.input.SeedingSlots)
		c.input.Settings.Size = size
	}
	slots := make([]*models.Slot, size)
	for i := 0; i < size; i++ {
		position := i + 1
		if i < len(c.input.SeedingSlots) && c.input.SeedingSlots[i] != nil {
			slot := c.input.SeedingSlots[i].Clone()
			slot.Position = &position
			slots[i] = slot
		}
	}
	return slots, nil
}

func (c *stageCreator) slotsFromIDs(ctx context.Context, size int, elimination bool) ([]*models.Slot, error) {
	seeding := padSeeding(c.input.SeedingIDs, size)
	if hasDuplicates(seeding) {
		return nil, ErrSeedingDuplicate
	}
	if c.input.Settings.BalanceByes && elimination {
		seeding = brackets.BalanceByes(seeding, size)
	}

	slots := make([]*models.Slot, size)
	for i, id := range seeding {
		if id == nil {
			continue
		}
		if _, err := c.store.SelectParticipant(ctx, *id); err != nil {
			return nil, err
		}
		position := i + 1
		value := *id
		slots[i] = &models.Slot{ID: &value, Position: &position}
	}
	return slots, nil
}

func (c *stageCreator) slotsFromNames(ctx context.Context, size int, elimination bool) ([]*models.Slot, error) {
	seeding := padSeeding(c.input.Seeding, size)
	if hasDuplicates(seeding) {
		return nil, ErrSeedingDuplicate
	}
	if c.input.Settings.BalanceByes && elimination {
		seeding = brackets.BalanceByes(seeding, size)
	}

	slots := make([]*models.Slot, size)
	for i, name := range seeding {
		if name == nil {
			continue
		}
		id, err := c.registerParticipant(ctx, *name)
		if err != nil {
			return nil, err
		}
		position := i + 1
		slots[i] = &models.Slot{ID: &id, Position: &position}
	}
	return slots, nil
}

func (c *stageCreator) registerParticipant(ctx context.Context, name string) (int, error) {
	existing, err := c.store.SelectParticipants(ctx, storage.ParticipantFilter{
		TournamentID: intPtr(c.input.TournamentID),
		Name:         strPtr(name),
	})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return existing[0].ID, nil
	}
	return c.store.InsertParticipant(ctx, &models.Participant{
		TournamentID: c.input.TournamentID,
		Name:         name,
	})
}

func padSeeding[T any](seeding []*T, size int) []*T {
	out := make([]*T, size)
	copy(out, seeding)
	return out
}

func hasDuplicates[T comparable](seeding []*T) bool {
	seen := make(map[T]bool, len(seeding))
	for _, v := range seeding {
		if v == nil {
			continue
		}
		if seen[*v] {
			return true
		}
		seen[*v] = true
	}
	return false
}

// insertStage creates the stage row, or refreshes it in existing mode.
func (c *stageCreator) insertStage(ctx context.Context) error {
	if c.existing != nil {
		c.stage = c.existing.Clone()
		c.stage.Settings = c.input.Settings
		return c.store.UpdateStage(ctx, c.stage.ID, c.stage)
	}

	number := c.input.Number
	if number == 0 {
		stages, err := c.store.SelectStages(ctx, storage.StageFilter{TournamentID: intPtr(c.input.TournamentID)})
		if err != nil {
			return err
		}
		for _, s := range stages {
			if s.Number >= number {
				number = s.Number + 1
			}
		}
		if number == 0 {
			number = 1
		}
	}

	c.stage = &models.Stage{
		TournamentID: c.input.TournamentID,
		Name:         c.input.Name,
		Type:         c.input.Type,
		Number:       number,
		Settings:     c.input.Settings,
	}
	id, err := c.store.InsertStage(ctx, c.stage)
	if err != nil {
		return err
	}
	c.stage.ID = id
	return nil
}

func (c *stageCreator) insertGroup(ctx context.Context, number int) (int, error) {
	if c.existing != nil {
		group, err := groupByNumber(ctx, c.store, c.stage.ID, number)
		if err != nil {
			return 0, err
		}
		if group != nil {
			return group.ID, nil
		}
	}
	return c.store.InsertGroup(ctx, &models.Group{StageID: c.stage.ID, Number: number})
}

func (c *stageCreator) insertRound(ctx context.Context, groupID, number int) (int, error) {
	if c.existing != nil {
		rounds, err := c.store.SelectRounds(ctx, storage.RoundFilter{GroupID: intPtr(groupID), Number: intPtr(number)})
		if err != nil {
			return 0, err
		}
		if len(rounds) > 0 {
			return rounds[0].ID, nil
		}
	}
	return c.store.InsertRound(ctx, &models.Round{StageID: c.stage.ID, GroupID: groupID, Number: number})
}

// createRound persists one round and its matches. Round-robin rounds skip
// duels where both slots are BYEs.
func (c *stageCreator) createRound(ctx context.Context, groupID, roundNumber int, duels []brackets.Duel, skipDoubleByes bool) error {
	roundID, err := c.insertRound(ctx, groupID, roundNumber)
	if err != nil {
		return err
	}
	for i, duel := range duels {
		if skipDoubleByes && duel[0] == nil && duel[1] == nil {
			continue
		}
		if err := c.createMatch(ctx, groupID, roundID, i+1, duel); err != nil {
			return err
		}
	}
	return nil
}

// createMatch persists one match. In existing mode the row at the same
// (round, number) is updated in place: participants may only change while
// the match has not started, and everything the user reported or attached
// is preserved when they do not.
func (c *stageCreator) createMatch(ctx context.Context, groupID, roundID, number int, duel brackets.Duel) error {
	childCount := c.input.Settings.MatchesChildCount
	opponent1 := duel[0].Clone()
	opponent2 := duel[1].Clone()

	if c.existing != nil {
		matches, err := c.store.SelectMatches(ctx, storage.MatchFilter{RoundID: intPtr(roundID), Number: intPtr(number)})
		if err != nil {
			return err
		}
		if len(matches) > 0 {
			return c.updateExistingMatch(ctx, matches[0], opponent1, opponent2)
		}
	}

	match := &models.Match{
		StageID:    c.stage.ID,
		GroupID:    groupID,
		RoundID:    roundID,
		Number:     number,
		ChildCount: childCount,
		MatchResults: models.MatchResults{
			Status:    brackets.GetMatchStatus(opponent1, opponent2),
			Opponent1: opponent1,
			Opponent2: opponent2,
		},
	}
	id, err := c.store.InsertMatch(ctx, match)
	if err != nil {
		return err
	}
	match.ID = id
	if childCount > 0 {
		return adjustChildGames(ctx, c.store, match, childCount)
	}
	return nil
}

func (c *stageCreator) updateExistingMatch(ctx context.Context, existing *models.Match, opponent1, opponent2 *models.Slot) error {
	changed1 := slotNeedsUpdate(existing.Opponent1, opponent1)
	changed2 := slotNeedsUpdate(existing.Opponent2, opponent2)
	if !changed1 && !changed2 {
		return nil
	}
	if brackets.IsMatchParticipantLocked(&existing.MatchResults) {
		return ErrSeedingLocked
	}

	if changed1 {
		existing.Opponent1 = opponent1
	}
	if changed2 {
		existing.Opponent2 = opponent2
	}
	existing.Status = brackets.GetMatchStatus(existing.Opponent1, existing.Opponent2)
	if err := c.store.UpdateMatch(ctx, existing.ID, existing); err != nil {
		return err
	}
	if existing.ChildCount > 0 {
		status := existing.Status
		return c.store.UpdateMatchGames(ctx, storage.MatchGameFilter{ParentID: intPtr(existing.ID)}, storage.MatchGamePartial{
			Status:       &status,
			SetOpponents: true,
			Opponent1:    idOnlySlot(existing.Opponent1),
			Opponent2:    idOnlySlot(existing.Opponent2),
		})
	}
	return nil
}

// slotNeedsUpdate decides whether a recomputed slot replaces the stored
// one. Slots that arrived through result propagation carry no seed
// position; a TBD placeholder never evicts those. Everything placed at
// creation time (a seed position, a BYE, a pre-propagated BYE winner) is
// authoritative and replaces what differs.
func slotNeedsUpdate(existing, computed *models.Slot) bool {
	if computed == nil {
		return existing != nil
	}
	if existing == nil {
		return true
	}
	if computed.ID != nil {
		return existing.ID == nil || *existing.ID != *computed.ID ||
			!equalIntPtr(existing.Position, computed.Position)
	}
	if computed.Position != nil {
		// An explicit seed slot: TBD here means the seed was taken out.
		return existing.ID != nil || !equalIntPtr(existing.Position, computed.Position)
	}
	// A placeholder for a winner still to be decided: it only invalidates
	// ids that were pre-propagated at creation time.
	return existing.ID != nil && existing.Position != nil
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
