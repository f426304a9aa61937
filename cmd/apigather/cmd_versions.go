package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ochairo/apigather/internal/domain-adapters/gateways"
	"github.com/ochairo/apigather/internal/domain/interfaces"
	"github.com/ochairo/apigather/internal/external-adapters/jsonstore"
	"github.com/ochairo/apigather/internal/external-adapters/yaml"
)

// VersionReport describes index availability and gather progress for one target
type VersionReport struct {
	Target    string   `json:"target"`
	Library   string   `json:"library"`
	Latest    string   `json:"latest_version,omitempty"`
	Available []string `json:"available_versions,omitempty"`
	Gathered  []string `json:"gathered_versions,omitempty"`
	Error     string   `json:"error,omitempty"`
}

func runVersions(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("versions", flag.ExitOnError)
	var (
		all        = fs.Bool("all", false, "Check all configured targets")
		jsonOutput = fs.Bool("json", true, "Output results as JSON (default)")
		targetsDir = fs.String("targets-dir", "targets", "Path to targets directory")
		dataDir    = fs.String("data-dir", "data", "Directory holding gathered per-version files")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: apigather versions [options] [target...]

Report the versions the package index knows for each target and which of
them have already been gathered.

If no targets are specified and --all is not set, checks all targets.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  apigather versions --all
  apigather versions mylib otherlib
  apigather versions --json=false mylib    # Human-readable output
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	defRepo := yaml.NewTargetRepository(*targetsDir)
	indexClient := gateways.NewIndexClient()
	store := jsonstore.NewResultStore(*dataDir, &interfaces.NoOpLogger{})

	// Determine which targets to check
	var targetsToCheck []string
	if *all || fs.NArg() == 0 {
		allDefs, err := defRepo.ListTargets(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing targets: %v\n", err)
			os.Exit(1)
		}
		for _, def := range allDefs {
			targetsToCheck = append(targetsToCheck, def.Name)
		}
	} else {
		targetsToCheck = fs.Args()
	}

	if len(targetsToCheck) == 0 {
		fmt.Fprintf(os.Stderr, "No targets to check\n")
		os.Exit(1)
	}

	// Which versions already have gather output (shared across targets)
	gathered := map[string][]string{}
	if stored, err := store.List(); err == nil {
		for _, s := range stored {
			gathered[s.Result.Library] = append(gathered[s.Result.Library], s.Result.Version)
		}
	}

	var reports []VersionReport
	for _, name := range targetsToCheck {
		select {
		case <-ctx.Done():
			fmt.Fprintf(os.Stderr, "Stopped checking targets: %v\n", ctx.Err())
			os.Exit(1)
		default:
		}

		reports = append(reports, checkTargetVersions(ctx, defRepo, indexClient, gathered, name))
	}

	if *jsonOutput {
		outputVersionsJSON(reports)
	} else {
		outputVersionsHuman(reports)
	}

	// Individual target errors are documented in the output and don't fail
	// the whole report
}

func checkTargetVersions(ctx context.Context, defRepo *yaml.TargetRepository, indexClient *gateways.IndexClient, gathered map[string][]string, name string) VersionReport {
	report := VersionReport{Target: name}

	def, err := defRepo.GetTarget(ctx, name)
	if err != nil {
		report.Error = fmt.Sprintf("failed to load target: %v", err)
		return report
	}
	report.Library = def.Library
	report.Gathered = gathered[def.Library]

	if def.IndexURL == "" {
		def.IndexURL = defaultIndexURL
	}

	available, err := indexClient.AvailableVersions(ctx, def)
	if err != nil {
		report.Error = fmt.Sprintf("failed to fetch versions: %v", err)
		return report
	}

	report.Available = available
	report.Latest = available[0]
	return report
}

func outputVersionsJSON(reports []VersionReport) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(reports); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

func outputVersionsHuman(reports []VersionReport) {
	fmt.Println("Target Version Report")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println()

	errors := 0
	for _, report := range reports {
		if report.Error != "" {
			fmt.Printf("❌ %-20s ERROR: %s\n", report.Target, report.Error)
			errors++
			continue
		}
		fmt.Printf("📦 %-20s latest %s (%d available, %d gathered)\n",
			report.Target, report.Latest, len(report.Available), len(report.Gathered))
	}

	fmt.Println()
	fmt.Printf("Summary: %d targets checked, %d errors\n", len(reports), errors)
}
