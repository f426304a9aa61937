package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/ochairo/apigather/internal/domain-adapters/gateways"
	"github.com/ochairo/apigather/internal/domain-adapters/inspect"
	orchestrators "github.com/ochairo/apigather/internal/domain-orchestrators"
	"github.com/ochairo/apigather/internal/domain/entities"
	"github.com/ochairo/apigather/internal/domain/interfaces"
	"github.com/ochairo/apigather/internal/external-adapters/gpg"
	"github.com/ochairo/apigather/internal/external-adapters/jsonstore"
	"github.com/ochairo/apigather/internal/external-adapters/yaml"
)

const defaultIndexURL = "https://proxy.golang.org"

func runGather(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("gather", flag.ExitOnError)
	var (
		targetName = fs.String("target", "", "Name of a configured survey target")
		library    = fs.String("library", "", "Library module path (ad-hoc target, no YAML needed)")
		versions   = fs.String("versions", "", "Comma-separated versions to gather, in order")
		indexURL   = fs.String("index-url", defaultIndexURL, "Package index base URL")
		targetsDir = fs.String("targets-dir", "targets", "Path to targets directory")
		dataDir    = fs.String("data-dir", "data", "Directory for per-version output files")
		workDir    = fs.String("workdir", ".apigather", "Working directory (archive cache and environment slot)")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: apigather gather [options]

Install each listed version of a library and record its exported symbols
to one JSON file per version. Versions are installed strictly one at a
time; each install replaces the previous one in the environment slot.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  apigather gather --target mylib --versions "2.2.0,2.3.0,2.4.0"
  apigather gather --library example.com/mylib --versions "1.4.0,1.5.0"
  apigather gather --target mylib                # pinned versions from targets/mylib.yml
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	def, err := resolveTarget(ctx, *targetName, *library, *indexURL, *targetsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var versionList []string
	for _, v := range strings.Split(*versions, ",") {
		if v = strings.TrimSpace(v); v != "" {
			versionList = append(versionList, v)
		}
	}

	logger := &interfaces.StderrLogger{}

	// Wire the gather pipeline
	var sigVerifier gateways.SignatureVerifier
	if def.Security.VerifySignature {
		sigVerifier = gpg.NewVerifier()
	}
	installer := gateways.NewInstaller(*workDir, gateways.NewArchiveVerifier(sigVerifier))
	inspector := inspect.NewInspector(logger)
	store := jsonstore.NewResultStore(*dataDir, logger)
	orchestrator := orchestrators.NewGatherOrchestrator(installer, inspector, store, logger)

	results, err := orchestrator.GatherTarget(ctx, def, versionList)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Per-version summary; failures are reported, never silently skipped
	failed := 0
	for _, r := range results {
		if r.Success {
			fmt.Fprintf(os.Stderr, "✅ %-12s %d symbols -> %s (%s)\n",
				r.Version, r.SymbolCount, r.OutputPath, r.TotalDuration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(os.Stderr, "❌ %-12s %v\n", r.Version, r.Error)
			failed++
		}
	}
	fmt.Fprintf(os.Stderr, "Summary: %d versions gathered, %d failed\n", len(results)-failed, failed)

	if failed > 0 {
		os.Exit(1)
	}
}

// resolveTarget loads a configured target or builds an ad-hoc one from flags
func resolveTarget(ctx context.Context, targetName, library, indexURL, targetsDir string) (*entities.Target, error) {
	if targetName != "" {
		defRepo := yaml.NewTargetRepository(targetsDir)
		def, err := defRepo.GetTarget(ctx, targetName)
		if err != nil {
			return nil, err
		}
		if def.IndexURL == "" {
			def.IndexURL = indexURL
		}
		return def, nil
	}

	if library == "" {
		return nil, fmt.Errorf("either --target or --library is required")
	}

	return &entities.Target{
		Name:     path.Base(library),
		Library:  library,
		IndexURL: indexURL,
	}, nil
}
