// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/apigather/internal/domain/entities"
)

// TargetRepository defines the interface for accessing survey targets
type TargetRepository interface {
	// GetTarget retrieves a survey target by name
	GetTarget(ctx context.Context, name string) (*entities.Target, error)

	// ListTargets returns all configured survey targets
	ListTargets(ctx context.Context) ([]*entities.Target, error)
}

// ResultStore defines the interface for persisting and reading per-version
// gather results
type ResultStore interface {
	// Save writes one version's gather result, overwriting any previous
	// record for that version
	Save(result *entities.GatherResult) (string, error)

	// List reads every valid gather result in the data directory
	List() ([]StoredResult, error)
}

// StoredResult is one per-version gather file as found on disk. Key is the
// version identifier derived from the file name.
type StoredResult struct {
	Key    string
	Path   string
	Result *entities.GatherResult
}
