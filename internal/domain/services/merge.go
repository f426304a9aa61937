// Package services contains pure domain logic with no infrastructure dependencies.
package services

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/ochairo/apigather/internal/domain/entities"
	"github.com/ochairo/apigather/internal/domain/interfaces"
	"github.com/ochairo/apigather/internal/domain/interfaces/repositories"
)

// MergeService folds per-version gather results into one combined document
// mapping each symbol to the versions exposing it. The merge is a pure
// function of its inputs: identical inputs yield identical output, in any
// input order.
type MergeService struct {
	logger interfaces.Logger
}

// NewMergeService creates a new merge service
func NewMergeService(logger interfaces.Logger) *MergeService {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &MergeService{logger: logger}
}

// Merge combines all gather results into one MergedResult. With noPatch set,
// version keys are truncated to major.minor before folding; inputs that
// collapse onto the same key are unioned under it with a warning. Zero
// inputs is an error: there is nothing meaningful to emit.
func (s *MergeService) Merge(inputs []repositories.StoredResult, noPatch bool) (entities.MergedResult, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no valid gather files to merge")
	}

	// Sorted key order keeps the fold deterministic regardless of how the
	// caller enumerated the files
	sorted := make([]repositories.StoredResult, len(inputs))
	copy(sorted, inputs)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].Key < sorted[b].Key })

	versionsBySymbol := make(map[string]map[string]struct{})
	seen := make(map[string]struct{})

	for _, input := range sorted {
		key := input.Key
		if noPatch {
			key = normalizeKey(key)
		}

		if _, dup := seen[key]; dup {
			s.logger.Warn("multiple inputs for version", interfaces.F("version", key))
		}
		seen[key] = struct{}{}

		for name := range input.Result.Symbols {
			set, ok := versionsBySymbol[name]
			if !ok {
				set = make(map[string]struct{})
				versionsBySymbol[name] = set
			}
			set[key] = struct{}{}
		}
	}

	merged := make(entities.MergedResult, len(versionsBySymbol))
	for name, set := range versionsBySymbol {
		versions := make([]string, 0, len(set))
		for v := range set {
			versions = append(versions, v)
		}
		sortVersionsAscending(versions)
		merged[name] = versions
	}

	return merged, nil
}

// normalizeKey discards patch release information from a version key
// ("2.4.1" -> "2.4")
func normalizeKey(key string) string {
	if mm := semver.MajorMinor("v" + key); mm != "" {
		return strings.TrimPrefix(mm, "v")
	}

	// Not semver; drop the last dotted component if there is one
	if idx := strings.LastIndex(key, "."); idx > 0 {
		return key[:idx]
	}
	return key
}

// sortVersionsAscending orders version identifiers oldest first,
// semantically when possible
func sortVersionsAscending(versions []string) {
	sort.Slice(versions, func(a, b int) bool {
		va, vb := "v"+versions[a], "v"+versions[b]
		if semver.IsValid(va) && semver.IsValid(vb) {
			return semver.Compare(va, vb) < 0
		}
		return versions[a] < versions[b]
	})
}
