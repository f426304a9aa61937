package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ochairo/apigather/internal/external-adapters/yaml"
)

func runList(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	var (
		targetsDir = fs.String("targets-dir", "targets", "Path to targets directory")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: apigather list [options]

List all configured survey targets.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  apigather list
  apigather list --targets-dir ./targets
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	defRepo := yaml.NewTargetRepository(*targetsDir)

	defs, err := defRepo.ListTargets(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing targets: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Configured targets (%d total):\n\n", len(defs))

	for _, def := range defs {
		fmt.Printf("  %-20s %s\n", def.Name, def.Description)
		fmt.Printf("  %-20s Library: %s\n", "", def.Library)
		if len(def.Versions) > 0 {
			fmt.Printf("  %-20s Pinned versions: %s\n", "", strings.Join(def.Versions, ", "))
		}

		if def.Security.VerifyChecksum {
			fmt.Printf("  %-20s 🔒 Security: checksum verification enabled\n", "")
		}
		if def.Security.VerifySignature {
			fmt.Printf("  %-20s 🔐 Security: GPG signature verification enabled\n", "")
		}

		fmt.Println()
	}
}
