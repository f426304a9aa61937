package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ochairo/apigather/internal/domain/interfaces"
	"github.com/ochairo/apigather/internal/domain/services"
	"github.com/ochairo/apigather/internal/external-adapters/jsonstore"
)

func runMerge(_ context.Context, args []string) {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	var (
		dataDir = fs.String("path", "data", "Path to gathered per-version files")
		noPatch = fs.Bool("no-patch", false, "Discard patch release information")
		output  = fs.String("output", "", "Write merged document to a file instead of stdout")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: apigather merge [options]

Merge all per-version symbol files into one combined JSON document mapping
each symbol to the versions exposing it. The merge is recomputed from
scratch on every run and its output is deterministic for the same inputs.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  apigather merge > merged.json
  apigather merge --no-patch --path data
  apigather merge --output merged.json
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	logger := &interfaces.StderrLogger{}
	store := jsonstore.NewResultStore(*dataDir, logger)

	inputs, err := store.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	merged, err := services.NewMergeService(logger).Merge(inputs, *noPatch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			if err := f.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Error closing output file: %v\n", err)
				os.Exit(1)
			}
		}()
		out = f
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(merged); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
