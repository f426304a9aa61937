package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	command := os.Args[1]

	// Dispatch to subcommand
	switch command {
	case "gather":
		runGather(ctx, os.Args[2:])
	case "merge":
		runMerge(ctx, os.Args[2:])
	case "versions":
		runVersions(ctx, os.Args[2:])
	case "list":
		runList(ctx, os.Args[2:])
	case "verify":
		runVerify(ctx, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`apigather - Survey a library's exported API across versions

Usage:
  apigather <command> [options]

Commands:
  gather    Install pinned library versions and record their exported symbols
  merge     Merge per-version symbol files into one combined document
  versions  List versions available on the package index per target
  list      List configured survey targets
  verify    Verify checksum/signature of a downloaded archive

Use "apigather <command> --help" for more information about a command.`)
}
