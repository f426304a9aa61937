// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"fmt"
	"time"

	"github.com/ochairo/apigather/internal/domain/entities"
	"github.com/ochairo/apigather/internal/domain/interfaces"
)

// Installer interface for installing one library version into the environment slot
type Installer interface {
	Install(ctx context.Context, def *entities.Target, version string) (*entities.Installation, error)
}

// Inspector interface for enumerating exported symbols of an installation
type Inspector interface {
	Inspect(inst *entities.Installation) (*entities.GatherResult, error)
}

// ResultWriter interface for persisting per-version gather results
type ResultWriter interface {
	Save(result *entities.GatherResult) (string, error)
}

// GatherOrchestrator coordinates the install, inspect and persist steps
// for each version of a target. Versions are processed strictly in order:
// the environment slot holds one installed version at a time and each
// iteration overwrites it, so two gathers must never run concurrently.
type GatherOrchestrator struct {
	installer Installer
	inspector Inspector
	store     ResultWriter
	logger    interfaces.Logger
}

// NewGatherOrchestrator creates a new gather orchestrator
func NewGatherOrchestrator(installer Installer, inspector Inspector, store ResultWriter, logger interfaces.Logger) *GatherOrchestrator {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &GatherOrchestrator{
		installer: installer,
		inspector: inspector,
		store:     store,
		logger:    logger,
	}
}

// GatherRunResult contains the outcome of gathering one version
type GatherRunResult struct {
	Version         string
	OutputPath      string
	SymbolCount     int
	InstallDuration time.Duration
	TotalDuration   time.Duration
	Success         bool
	Error           error
}

// GatherTarget gathers every listed version of the target, one output file
// per version. A failing version is recorded and reported but never stops
// the remaining versions.
func (o *GatherOrchestrator) GatherTarget(ctx context.Context, def *entities.Target, versions []string) ([]GatherRunResult, error) {
	if len(versions) == 0 {
		versions = def.Versions
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("no versions configured for target %s", def.Name)
	}

	results := make([]GatherRunResult, 0, len(versions))
	for _, version := range versions {
		select {
		case <-ctx.Done():
			results = append(results, GatherRunResult{Version: version, Error: ctx.Err()})
			return results, nil
		default:
		}

		results = append(results, o.gatherVersion(ctx, def, version))
	}

	return results, nil
}

// gatherVersion installs exactly one version, inspects it, and persists the record
func (o *GatherOrchestrator) gatherVersion(ctx context.Context, def *entities.Target, version string) GatherRunResult {
	startTime := time.Now()
	result := GatherRunResult{Version: version}

	o.logger.Info("installing",
		interfaces.F("library", def.Library),
		interfaces.F("version", version))

	inst, err := o.installer.Install(ctx, def, version)
	if err != nil {
		result.Error = fmt.Errorf("install of version %s failed: %w", version, err)
		result.TotalDuration = time.Since(startTime)
		return result
	}
	result.InstallDuration = time.Since(startTime)

	gathered, err := o.inspector.Inspect(inst)
	if err != nil {
		result.Error = fmt.Errorf("inspection of version %s failed: %w", version, err)
		result.TotalDuration = time.Since(startTime)
		return result
	}
	result.SymbolCount = len(gathered.Symbols)

	outputPath, err := o.store.Save(gathered)
	if err != nil {
		result.Error = fmt.Errorf("failed to persist version %s: %w", version, err)
		result.TotalDuration = time.Since(startTime)
		return result
	}

	result.OutputPath = outputPath
	result.Success = true
	result.TotalDuration = time.Since(startTime)

	o.logger.Info("gathered",
		interfaces.F("version", version),
		interfaces.F("symbols", result.SymbolCount),
		interfaces.F("output", outputPath))

	return result
}
