// Package yaml provides YAML-based target parsing and repository implementations.
package yaml

import (
	"fmt"
	"os"

	"github.com/ochairo/apigather/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// yamlTarget represents the raw YAML structure
type yamlTarget struct {
	Name        string       `yaml:"name"`
	Library     string       `yaml:"library"`
	IndexURL    string       `yaml:"index_url"`
	Description string       `yaml:"description"`
	Versions    []string     `yaml:"versions"`
	Version     yamlVersion  `yaml:"version"`
	Security    yamlSecurity `yaml:"security"`
}

type yamlVersion struct {
	Source          string `yaml:"source"`
	ExcludePatterns string `yaml:"exclude_patterns"`
}

type yamlSecurity struct {
	VerifyChecksum  bool     `yaml:"verify_checksum"`
	ChecksumURL     string   `yaml:"checksum_url"`
	VerifySignature bool     `yaml:"verify_signature"`
	SignatureURL    string   `yaml:"signature_url"`
	GPGKeyIDs       []string `yaml:"gpg_key_ids"`
	GPGKeysURL      string   `yaml:"gpg_keys_url"`
}

// TargetParser parses YAML target files
type TargetParser struct{}

// NewTargetParser creates a new YAML parser
func NewTargetParser() *TargetParser {
	return &TargetParser{}
}

// ParseFile parses a YAML target file into a Target entity
func (p *TargetParser) ParseFile(filePath string) (*entities.Target, error) {
	//nolint:gosec // G304: filePath is a target definition path from the repository
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data)
}

// Parse parses YAML bytes into a Target entity
func (p *TargetParser) Parse(data []byte) (*entities.Target, error) {
	var yamlDef yamlTarget
	if err := yaml.Unmarshal(data, &yamlDef); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Validate required fields
	if yamlDef.Name == "" {
		return nil, fmt.Errorf("target must have a name")
	}
	if yamlDef.Library == "" {
		return nil, fmt.Errorf("target %s must have a library module path", yamlDef.Name)
	}

	def := &entities.Target{
		Name:        yamlDef.Name,
		Library:     yamlDef.Library,
		IndexURL:    yamlDef.IndexURL,
		Description: yamlDef.Description,
		Versions:    yamlDef.Versions,
		Version: entities.VersionConfig{
			Source:          yamlDef.Version.Source,
			ExcludePatterns: yamlDef.Version.ExcludePatterns,
		},
		Security: entities.TargetSecurity{
			VerifyChecksum:  yamlDef.Security.VerifyChecksum,
			ChecksumURL:     yamlDef.Security.ChecksumURL,
			VerifySignature: yamlDef.Security.VerifySignature,
			SignatureURL:    yamlDef.Security.SignatureURL,
			GPGKeyIDs:       yamlDef.Security.GPGKeyIDs,
			GPGKeysURL:      yamlDef.Security.GPGKeysURL,
		},
	}

	return def, nil
}
