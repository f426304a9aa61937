package yaml

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/apigather/internal/domain/entities"
)

// TargetRepository implements repositories.TargetRepository using YAML files
type TargetRepository struct {
	targetsDir string
	parser     *TargetParser
}

// NewTargetRepository creates a new YAML-based target repository
func NewTargetRepository(targetsDir string) *TargetRepository {
	return &TargetRepository{
		targetsDir: targetsDir,
		parser:     NewTargetParser(),
	}
}

// GetTarget retrieves a survey target by name
func (r *TargetRepository) GetTarget(_ context.Context, name string) (*entities.Target, error) {
	filePath := filepath.Join(r.targetsDir, name+".yml")

	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("target not found: %s", name)
	}

	return r.parser.ParseFile(filePath)
}

// ListTargets returns all configured survey targets
func (r *TargetRepository) ListTargets(_ context.Context) ([]*entities.Target, error) {
	entries, err := os.ReadDir(r.targetsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read targets directory: %w", err)
	}

	targets := make([]*entities.Target, 0)
	for _, entry := range entries {
		// Skip non-YAML files
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yml") {
			continue
		}

		filePath := filepath.Join(r.targetsDir, entry.Name())
		def, err := r.parser.ParseFile(filePath)
		if err != nil {
			// Log warning but continue processing other files
			fmt.Fprintf(os.Stderr, "Warning: failed to parse %s: %v\n", entry.Name(), err)
			continue
		}

		targets = append(targets, def)
	}

	return targets, nil
}
