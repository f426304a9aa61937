// Package gateways provides infrastructure adapters for external systems.
package gateways

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"

	"github.com/ochairo/apigather/internal/domain/entities"
)

// IntegrityVerifier checks a downloaded archive before it is installed
type IntegrityVerifier interface {
	VerifyArchive(ctx context.Context, def *entities.Target, version, archivePath string) error
}

// Installer downloads one library version from the package index and
// extracts it into the environment slot, replacing whatever version
// occupied the slot before. The slot holds exactly one version at a time,
// so gathers for different versions must never run concurrently.
type Installer struct {
	httpClient *http.Client
	workDir    string
	verifier   IntegrityVerifier
}

// NewInstaller creates a new installer rooted at workDir
func NewInstaller(workDir string, verifier IntegrityVerifier) *Installer {
	return &Installer{
		httpClient: &http.Client{
			Timeout: 5 * time.Minute, // Long timeout for large downloads
		},
		workDir:  workDir,
		verifier: verifier,
	}
}

// EnvDir returns the environment slot directory
func (i *Installer) EnvDir() string {
	return filepath.Join(i.workDir, "lib")
}

// CacheDir returns the archive cache directory
func (i *Installer) CacheDir() string {
	return filepath.Join(i.workDir, "cache")
}

// Install downloads and installs exactly the given version of the target
// library. Any previously installed version is removed first.
func (i *Installer) Install(ctx context.Context, def *entities.Target, version string) (*entities.Installation, error) {
	url, err := ArchiveURL(def.IndexURL, def.Library, version)
	if err != nil {
		return nil, fmt.Errorf("failed to build archive URL: %w", err)
	}

	if err := os.MkdirAll(i.CacheDir(), 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	archivePath := filepath.Join(i.CacheDir(), fmt.Sprintf("%s-%s.zip", def.Name, strings.TrimPrefix(version, "v")))
	if err := i.downloadFile(ctx, url, archivePath); err != nil {
		return nil, fmt.Errorf("download of %s@%s failed: %w", def.Library, version, err)
	}

	if i.verifier != nil {
		if err := i.verifier.VerifyArchive(ctx, def, version, archivePath); err != nil {
			return nil, fmt.Errorf("integrity check of %s@%s failed: %w", def.Library, version, err)
		}
	}

	// Replace the environment slot. This is the single serialization point:
	// the previous version is gone before the new one is visible.
	envDir := i.EnvDir()
	if err := os.RemoveAll(envDir); err != nil {
		return nil, fmt.Errorf("failed to clear environment slot: %w", err)
	}
	if err := i.extractZip(archivePath, envDir); err != nil {
		return nil, fmt.Errorf("extraction of %s@%s failed: %w", def.Library, version, err)
	}

	// Index archives place files under a <module>@<version>/ prefix; that
	// exact directory is the source root. Archives without the prefix are
	// rooted at the slot itself.
	prefix := def.Library + "@" + CanonicalVersion(version)
	sourceDir := filepath.Join(envDir, filepath.FromSlash(prefix))
	if _, err := os.Stat(sourceDir); err != nil {
		sourceDir = envDir
	}

	return &entities.Installation{
		Library:     def.Library,
		Version:     version,
		ArchivePath: archivePath,
		Dir:         sourceDir,
	}, nil
}

// ArchiveURL builds the index URL of a version's source archive following
// the module proxy layout (exported for testing)
func ArchiveURL(indexURL, library, version string) (string, error) {
	escaped, err := module.EscapePath(library)
	if err != nil {
		return "", fmt.Errorf("invalid library path %s: %w", library, err)
	}

	canonical := CanonicalVersion(version)
	escapedVersion, err := module.EscapeVersion(canonical)
	if err != nil {
		return "", fmt.Errorf("invalid version %s: %w", version, err)
	}

	return fmt.Sprintf("%s/%s/@v/%s.zip", strings.TrimSuffix(indexURL, "/"), escaped, escapedVersion), nil
}

// CanonicalVersion normalizes a user-supplied version identifier to the
// canonical form the index serves ("2.2.0" -> "v2.2.0")
func CanonicalVersion(version string) string {
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if c := semver.Canonical(v); c != "" {
		return c
	}
	return v
}

// downloadFile downloads a file from URL to destination
func (i *Installer) downloadFile(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "apigather/1.0")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	//nolint:gosec // G304: File path dest is function parameter for download destination
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	//nolint:errcheck // Defer close on file being written
	defer out.Close()

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Downloaded %s (%d bytes)\n", filepath.Base(dest), written)

	return nil
}

// extractZip extracts a source archive to the destination directory
func (i *Installer) extractZip(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("failed to open zip: %w", err)
	}
	//nolint:errcheck // Defer close on read-only archive
	defer r.Close()

	if err := os.MkdirAll(destDir, 0750); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	for _, f := range r.File {
		//nolint:gosec // G305: Path traversal validated by HasPrefix check below
		target := filepath.Join(destDir, f.Name)

		// Ensure target is within destDir (security check)
		if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("invalid file path in archive: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0750); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
			return fmt.Errorf("failed to create parent directory: %w", err)
		}

		if err := i.extractZipFile(f, target); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "Extracted to %s\n", destDir)
	return nil
}

func (i *Installer) extractZipFile(f *zip.File, target string) error {
	in, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", f.Name, err)
	}
	//nolint:errcheck // Defer close on archive entry reader
	defer in.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0640)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	// Copy with size limit (1GB max to prevent decompression bombs)
	if _, err := io.Copy(out, io.LimitReader(in, 1<<30)); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	return nil
}
