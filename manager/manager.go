// Package manager bundles the engine services behind one object, the way a
// caller consumes the library.
package manager

import (
	"github.com/Dosada05/bracket-engine/services"
	"github.com/Dosada05/bracket-engine/storage"
)

// Manager is the caller-facing façade of the bracket engine. Every facet
// runs against the same storage.
type Manager struct {
	Storage storage.Storage

	Create  services.StageService
	Update  services.MatchService
	Reset   services.ResetService
	Get     services.QueryService
	Find    services.FinderService
	Delete  services.DeleteService
	Dataset services.DatasetService
}

// New wires a Manager on the given storage. The snapshot uploader may be
// nil.
func New(store storage.Storage, uploader storage.SnapshotUploader) *Manager {
	return &Manager{
		Storage: store,
		Create:  services.NewStageService(store),
		Update:  services.NewMatchService(store),
		Reset:   services.NewResetService(store),
		Get:     services.NewQueryService(store),
		Find:    services.NewFinderService(store),
		Delete:  services.NewDeleteService(store),
		Dataset: services.NewDatasetService(store, uploader),
	}
}
