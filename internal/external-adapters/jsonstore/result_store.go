// Package jsonstore persists per-version gather results as JSON files.
package jsonstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/apigather/internal/domain/entities"
	"github.com/ochairo/apigather/internal/domain/interfaces"
	"github.com/ochairo/apigather/internal/domain/interfaces/repositories"
)

// ResultStore implements repositories.ResultStore on a flat directory of
// <version>.json files. Re-running one version only ever rewrites that
// version's file.
type ResultStore struct {
	dataDir string
	logger  interfaces.Logger
}

// NewResultStore creates a result store rooted at dataDir
func NewResultStore(dataDir string, logger interfaces.Logger) *ResultStore {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &ResultStore{dataDir: dataDir, logger: logger}
}

// Save writes one version's gather result, overwriting any previous record
// for that version, and returns the file path
func (s *ResultStore) Save(result *entities.GatherResult) (string, error) {
	if result.Version == "" {
		return "", fmt.Errorf("gather result has no version")
	}

	if err := os.MkdirAll(s.dataDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode gather result: %w", err)
	}

	path := filepath.Join(s.dataDir, result.Version+".json")
	if err := os.WriteFile(path, append(data, '\n'), 0640); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}

// List reads every valid gather result in the data directory. Files that
// are not well-formed gather records are reported and excluded; ordering
// follows sorted file names so downstream output is deterministic.
func (s *ResultStore) List() ([]repositories.StoredResult, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	results := make([]repositories.StoredResult, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			s.logger.Debug("skipping file", interfaces.F("file", entry.Name()))
			continue
		}

		path := filepath.Join(s.dataDir, entry.Name())
		//nolint:gosec // G304: path is inside the configured data directory
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable file",
				interfaces.F("file", entry.Name()),
				interfaces.F("error", err))
			continue
		}

		var result entities.GatherResult
		if err := json.Unmarshal(data, &result); err != nil {
			s.logger.Warn("skipping malformed file",
				interfaces.F("file", entry.Name()),
				interfaces.F("error", err))
			continue
		}

		results = append(results, repositories.StoredResult{
			Key:    strings.TrimSuffix(entry.Name(), ".json"),
			Path:   path,
			Result: &result,
		})
	}

	return results, nil
}
