package gateways

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ochairo/apigather/internal/domain/entities"
)

// SignatureVerifier verifies detached signatures of downloaded archives
type SignatureVerifier interface {
	// ImportKeys imports keys from keyservers by ID
	ImportKeys(ctx context.Context, keyIDs []string) error

	// ImportKeysFromURL imports all keys from a published KEYS file
	ImportKeysFromURL(ctx context.Context, keysURL string) error

	// KeyringSize returns the number of imported keys
	KeyringSize() int

	// VerifyDetached checks filePath against a detached signature fetched
	// from sigURL
	VerifyDetached(ctx context.Context, filePath, sigURL string) error
}

// ArchiveVerifier performs the integrity checks a target configures for its
// downloaded archives: a SHA256 checksum published on the index and/or a
// detached GPG signature.
type ArchiveVerifier struct {
	checksums  *checksumVerifier
	signatures SignatureVerifier
	httpClient *http.Client
}

// NewArchiveVerifier creates a new archive verifier. signatures may be nil
// when no target uses signature verification.
func NewArchiveVerifier(signatures SignatureVerifier) *ArchiveVerifier {
	return &ArchiveVerifier{
		checksums:  NewChecksumVerifier(),
		signatures: signatures,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// VerifyArchive checks a downloaded archive according to the target's
// security configuration. A failed check fails that version's install.
func (v *ArchiveVerifier) VerifyArchive(ctx context.Context, def *entities.Target, version, archivePath string) error {
	if def.Security.VerifyChecksum {
		if def.Security.ChecksumURL == "" {
			return fmt.Errorf("checksum verification enabled but no checksum_url configured")
		}
		expected, err := v.fetchChecksum(ctx, renderURL(def.Security.ChecksumURL, def.Library, version))
		if err != nil {
			return fmt.Errorf("failed to fetch checksum: %w", err)
		}
		if err := v.checksums.VerifyChecksum(ctx, archivePath, expected); err != nil {
			return err
		}
	}

	if def.Security.VerifySignature {
		if def.Security.SignatureURL == "" {
			return fmt.Errorf("signature verification enabled but no signature_url configured")
		}
		if v.signatures == nil {
			return fmt.Errorf("signature verification requested but no verifier configured")
		}
		if err := v.importKeys(ctx, def); err != nil {
			return err
		}
		sigURL := renderURL(def.Security.SignatureURL, def.Library, version)
		if err := v.signatures.VerifyDetached(ctx, archivePath, sigURL); err != nil {
			return err
		}
	}

	return nil
}

func (v *ArchiveVerifier) importKeys(ctx context.Context, def *entities.Target) error {
	if v.signatures.KeyringSize() > 0 {
		return nil
	}

	if len(def.Security.GPGKeyIDs) > 0 {
		if err := v.signatures.ImportKeys(ctx, def.Security.GPGKeyIDs); err != nil {
			return fmt.Errorf("failed to import GPG keys: %w", err)
		}
		return nil
	}
	if def.Security.GPGKeysURL != "" {
		if err := v.signatures.ImportKeysFromURL(ctx, def.Security.GPGKeysURL); err != nil {
			return fmt.Errorf("failed to import GPG keys from URL: %w", err)
		}
		return nil
	}

	return fmt.Errorf("no GPG keys configured (set gpg_key_ids or gpg_keys_url)")
}

// fetchChecksum downloads the published checksum for an archive
func (v *ArchiveVerifier) fetchChecksum(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	//nolint:errcheck // Defer close
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	return ParseChecksum(string(body))
}

// renderURL performs template substitution on integrity URL templates
// (exported fields: {library}, {version} without the leading v)
func renderURL(template, library, version string) string {
	url := strings.ReplaceAll(template, "{library}", library)
	url = strings.ReplaceAll(url, "{version}", strings.TrimPrefix(version, "v"))
	return url
}
