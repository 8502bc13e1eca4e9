package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/storage"
)

// Dataset is the whole content of the storage, in a shape suitable for
// import and export.
type Dataset struct {
	Participants []*models.Participant `json:"participant"`
	Stages       []*models.Stage       `json:"stage"`
	Groups       []*models.Group       `json:"group"`
	Rounds       []*models.Round       `json:"round"`
	Matches      []*models.Match       `json:"match"`
	MatchGames   []*models.MatchGame   `json:"match_game"`
}

// DatasetService imports and exports the whole dataset. An optional
// snapshot uploader pushes exports to an external object store.
type DatasetService interface {
	Export(ctx context.Context) (*Dataset, error)
	Import(ctx context.Context, dataset *Dataset, normalizeIDs bool) error
	ExportSnapshot(ctx context.Context, key string) (*storage.SnapshotResult, error)
}

type datasetService struct {
	store    storage.Storage
	uploader storage.SnapshotUploader
}

// NewDatasetService builds the import/export surface. The uploader may be
// nil, in which case ExportSnapshot is unavailable.
func NewDatasetService(store storage.Storage, uploader storage.SnapshotUploader) DatasetService {
	return &datasetService{store: store, uploader: uploader}
}

func (s *datasetService) Export(ctx context.Context) (*Dataset, error) {
	dataset := &Dataset{}
	var err error
	if dataset.Participants, err = s.store.SelectParticipants(ctx, storage.ParticipantFilter{}); err != nil {
		return nil, err
	}
	if dataset.Stages, err = s.store.SelectStages(ctx, storage.StageFilter{}); err != nil {
		return nil, err
	}
	if dataset.Groups, err = s.store.SelectGroups(ctx, storage.GroupFilter{}); err != nil {
		return nil, err
	}
	if dataset.Rounds, err = s.store.SelectRounds(ctx, storage.RoundFilter{}); err != nil {
		return nil, err
	}
	if dataset.Matches, err = s.store.SelectMatches(ctx, storage.MatchFilter{}); err != nil {
		return nil, err
	}
	if dataset.MatchGames, err = s.store.SelectMatchGames(ctx, storage.MatchGameFilter{}); err != nil {
		return nil, err
	}
	return dataset, nil
}

// ExportSnapshot serializes the dataset and uploads it under the given key.
func (s *datasetService) ExportSnapshot(ctx context.Context, key string) (*storage.SnapshotResult, error) {
	if s.uploader == nil {
		return nil, fmt.Errorf("%w: no snapshot uploader configured", ErrNotImplemented)
	}
	dataset, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(dataset)
	if err != nil {
		return nil, err
	}
	return s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(payload))
}

// Import replaces the storage content with the dataset. Rows are inserted
// in id order with their ids, which the store keeps as given, so the
// references stay valid; with normalizeIDs the dataset's arbitrary ids are
// first remapped to dense 1-based sequences.
func (s *datasetService) Import(ctx context.Context, dataset *Dataset, normalizeIDs bool) error {
	imported := cloneDataset(dataset)
	if normalizeIDs {
		normalizeDatasetIDs(imported)
	}

	if err := s.wipe(ctx); err != nil {
		return err
	}

	sort.SliceStable(imported.Participants, func(i, j int) bool { return imported.Participants[i].ID < imported.Participants[j].ID })
	for _, row := range imported.Participants {
		if _, err := s.store.InsertParticipant(ctx, row); err != nil {
			return err
		}
	}
	sort.SliceStable(imported.Stages, func(i, j int) bool { return imported.Stages[i].ID < imported.Stages[j].ID })
	for _, row := range imported.Stages {
		if _, err := s.store.InsertStage(ctx, row); err != nil {
			return err
		}
	}
	sort.SliceStable(imported.Groups, func(i, j int) bool { return imported.Groups[i].ID < imported.Groups[j].ID })
	for _, row := range imported.Groups {
		if _, err := s.store.InsertGroup(ctx, row); err != nil {
			return err
		}
	}
	sort.SliceStable(imported.Rounds, func(i, j int) bool { return imported.Rounds[i].ID < imported.Rounds[j].ID })
	for _, row := range imported.Rounds {
		if _, err := s.store.InsertRound(ctx, row); err != nil {
			return err
		}
	}
	sort.SliceStable(imported.Matches, func(i, j int) bool { return imported.Matches[i].ID < imported.Matches[j].ID })
	for _, row := range imported.Matches {
		if _, err := s.store.InsertMatch(ctx, row); err != nil {
			return err
		}
	}
	sort.SliceStable(imported.MatchGames, func(i, j int) bool { return imported.MatchGames[i].ID < imported.MatchGames[j].ID })
	for _, row := range imported.MatchGames {
		if _, err := s.store.InsertMatchGame(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (s *datasetService) wipe(ctx context.Context) error {
	if _, err := s.store.DeleteMatchGames(ctx, storage.MatchGameFilter{}); err != nil {
		return err
	}
	if _, err := s.store.DeleteMatches(ctx, storage.MatchFilter{}); err != nil {
		return err
	}
	if _, err := s.store.DeleteRounds(ctx, storage.RoundFilter{}); err != nil {
		return err
	}
	if _, err := s.store.DeleteGroups(ctx, storage.GroupFilter{}); err != nil {
		return err
	}
	if _, err := s.store.DeleteStages(ctx, storage.StageFilter{}); err != nil {
		return err
	}
	_, err := s.store.DeleteParticipants(ctx, storage.ParticipantFilter{})
	return err
}

func cloneDataset(dataset *Dataset) *Dataset {
	out := &Dataset{}
	for _, row := range dataset.Participants {
		out.Participants = append(out.Participants, row.Clone())
	}
	for _, row := range dataset.Stages {
		out.Stages = append(out.Stages, row.Clone())
	}
	for _, row := range dataset.Groups {
		out.Groups = append(out.Groups, row.Clone())
	}
	for _, row := range dataset.Rounds {
		out.Rounds = append(out.Rounds, row.Clone())
	}
	for _, row := range dataset.Matches {
		out.Matches = append(out.Matches, row.Clone())
	}
	for _, row := range dataset.MatchGames {
		out.MatchGames = append(out.MatchGames, row.Clone())
	}
	return out
}

// normalizeDatasetIDs remaps every id to a dense 1-based sequence per
// table, fixing all cross-references, participant slots included.
func normalizeDatasetIDs(dataset *Dataset) {
	participantIDs := make(map[int]int, len(dataset.Participants))
	for i, row := range dataset.Participants {
		participantIDs[row.ID] = i + 1
		row.ID = i + 1
	}
	stageIDs := make(map[int]int, len(dataset.Stages))
	for i, row := range dataset.Stages {
		stageIDs[row.ID] = i + 1
		row.ID = i + 1
	}
	groupIDs := make(map[int]int, len(dataset.Groups))
	for i, row := range dataset.Groups {
		groupIDs[row.ID] = i + 1
		row.ID = i + 1
		row.StageID = stageIDs[row.StageID]
	}
	roundIDs := make(map[int]int, len(dataset.Rounds))
	for i, row := range dataset.Rounds {
		roundIDs[row.ID] = i + 1
		row.ID = i + 1
		row.StageID = stageIDs[row.StageID]
		row.GroupID = groupIDs[row.GroupID]
	}
	matchIDs := make(map[int]int, len(dataset.Matches))
	for i, row := range dataset.Matches {
		matchIDs[row.ID] = i + 1
		row.ID = i + 1
		row.StageID = stageIDs[row.StageID]
		row.GroupID = groupIDs[row.GroupID]
		row.RoundID = roundIDs[row.RoundID]
		remapSlot(row.Opponent1, participantIDs)
		remapSlot(row.Opponent2, participantIDs)
	}
	for i, row := range dataset.MatchGames {
		row.ID = i + 1
		row.StageID = stageIDs[row.StageID]
		row.ParentID = matchIDs[row.ParentID]
		remapSlot(row.Opponent1, participantIDs)
		remapSlot(row.Opponent2, participantIDs)
	}
}

func remapSlot(slot *models.Slot, participantIDs map[int]int) {
	if slot == nil || slot.ID == nil {
		return
	}
	if mapped, ok := participantIDs[*slot.ID]; ok {
		id := mapped
		slot.ID = &id
	}
}
