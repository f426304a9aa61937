// Package entities defines core domain models and data structures.
package entities

// Target represents a library whose exported API is surveyed across versions
type Target struct {
	Name        string
	Library     string // module path of the surveyed library
	IndexURL    string // package index (module proxy) base URL
	Description string
	Versions    []string // pinned versions to gather, in order
	Version     VersionConfig
	Security    TargetSecurity
}

// VersionConfig represents version discovery configuration
type VersionConfig struct {
	Source          string // e.g., "index", "github-tag:owner/repo"
	ExcludePatterns string // Regex pattern for versions to exclude (alpha, beta, rc, etc.)
}

// TargetSecurity represents archive integrity configuration
type TargetSecurity struct {
	VerifyChecksum  bool
	ChecksumURL     string // URL template for a .sha256 file, {version} substituted
	VerifySignature bool
	SignatureURL    string // URL template for a detached .asc signature, {version} substituted
	GPGKeyIDs       []string
	GPGKeysURL      string
}
