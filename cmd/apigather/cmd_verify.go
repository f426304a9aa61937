package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/apigather/internal/domain-adapters/gateways"
	"github.com/ochairo/apigather/internal/external-adapters/gpg"
)

func runVerify(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	var (
		checksumFile = fs.String("checksum", "", "Checksum file to verify against (.sha256)")
		gpgSig       = fs.String("gpg-sig", "", "GPG signature file (.asc)")
		gpgKeyIDs    = fs.String("gpg-key-ids", "", "Comma-separated GPG key IDs to import")
		gpgKeysURL   = fs.String("gpg-keys-url", "", "URL to KEYS file for GPG verification")
		gpgKeyFile   = fs.String("gpg-key-file", "", "Local GPG public key file to import")
		verifyAll    = fs.Bool("all", false, "Verify all signature files found next to the archive")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: apigather verify <file> [options]

Verify checksums and signatures of a downloaded library archive out of
band (the gather command runs the same checks automatically when the
target configures them).

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Verify checksum
  apigather verify .apigather/cache/mylib-2.2.0.zip --checksum mylib-2.2.0.zip.sha256

  # Verify GPG signature
  apigather verify mylib-2.2.0.zip --gpg-sig mylib-2.2.0.zip.asc --gpg-key-ids 7F92E05B31093BEF

  # Verify GPG signature against a local public key
  apigather verify mylib-2.2.0.zip --gpg-sig mylib-2.2.0.zip.asc --gpg-key-file release-key.asc

  # Verify everything found next to the archive
  apigather verify mylib-2.2.0.zip --all
`)
	}

	// The file path comes first; split it off before parsing so flags
	// placed after it are not treated as positional arguments
	var filePath string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		filePath = args[0]
		args = args[1:]
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if filePath == "" {
		if fs.NArg() < 1 {
			fmt.Fprintf(os.Stderr, "Error: file path is required\n\n")
			fs.Usage()
			os.Exit(1)
		}
		filePath = fs.Arg(0)
	}

	if err := executeVerify(ctx, filePath, *checksumFile, *gpgSig, *gpgKeyIDs, *gpgKeysURL, *gpgKeyFile, *verifyAll); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func executeVerify(ctx context.Context, filePath, checksumFile, gpgSig, gpgKeyIDs, gpgKeysURL, gpgKeyFile string, verifyAll bool) error {
	verified := 0
	failed := 0

	// Auto-detect sibling files when --all is given or nothing was specified
	if verifyAll || (checksumFile == "" && gpgSig == "") {
		if checksumFile == "" && fileExists(filePath+".sha256") {
			checksumFile = filePath + ".sha256"
		}
		if gpgSig == "" && fileExists(filePath+".asc") {
			gpgSig = filePath + ".asc"
		}
	}

	fmt.Printf("🔍 Verifying %s\n\n", filepath.Base(filePath))

	if checksumFile != "" {
		fmt.Printf("📋 Verifying checksum...\n")
		if err := verifyChecksum(ctx, filePath, checksumFile); err != nil {
			fmt.Printf("❌ Checksum verification FAILED: %v\n\n", err)
			failed++
		} else {
			fmt.Printf("✅ Checksum verified\n\n")
			verified++
		}
	}

	if gpgSig != "" {
		fmt.Printf("🔐 Verifying GPG signature...\n")
		if err := verifyGPGSignature(ctx, filePath, gpgSig, gpgKeyIDs, gpgKeysURL, gpgKeyFile); err != nil {
			fmt.Printf("❌ GPG signature verification FAILED: %v\n\n", err)
			failed++
		} else {
			fmt.Printf("✅ GPG signature verified\n\n")
			verified++
		}
	}

	fmt.Println(strings.Repeat("━", 48))
	fmt.Printf("✅ Verified: %d checks\n", verified)
	if failed > 0 {
		fmt.Printf("❌ Failed: %d checks\n", failed)
	}
	fmt.Println(strings.Repeat("━", 48))

	if failed > 0 {
		return fmt.Errorf("%d verification checks failed", failed)
	}

	if verified == 0 {
		return fmt.Errorf("no verification checks performed (specify --checksum or --gpg-sig)")
	}

	return nil
}

func verifyChecksum(ctx context.Context, filePath, checksumFile string) error {
	verifier := gateways.NewChecksumVerifier()

	//nolint:gosec // G304: checksumFile is user-provided path for verification
	data, err := os.ReadFile(checksumFile)
	if err != nil {
		return fmt.Errorf("failed to read checksum file: %w", err)
	}

	expected, err := gateways.ParseChecksum(string(data))
	if err != nil {
		return err
	}

	return verifier.VerifyChecksum(ctx, filePath, expected)
}

func verifyGPGSignature(ctx context.Context, filePath, gpgSig, gpgKeyIDs, gpgKeysURL, gpgKeyFile string) error {
	gpgVerifier := gpg.NewVerifier()

	// Import keys if specified
	switch {
	case gpgKeyIDs != "":
		keyIDList := strings.Split(gpgKeyIDs, ",")
		if err := gpgVerifier.ImportKeys(ctx, keyIDList); err != nil {
			return fmt.Errorf("failed to import GPG keys: %w", err)
		}
	case gpgKeysURL != "":
		if err := gpgVerifier.ImportKeysFromURL(ctx, gpgKeysURL); err != nil {
			return fmt.Errorf("failed to import GPG keys from URL: %w", err)
		}
	case gpgKeyFile != "":
		if err := gpgVerifier.ImportKeyFromFile(gpgKeyFile); err != nil {
			return fmt.Errorf("failed to import GPG key file: %w", err)
		}
	}

	if gpgVerifier.KeyringSize() == 0 {
		return fmt.Errorf("no GPG keys imported for verification (use --gpg-key-ids, --gpg-keys-url or --gpg-key-file)")
	}

	return gpgVerifier.VerifySignatureFromFile(filePath, gpgSig)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
