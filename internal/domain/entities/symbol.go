package entities

// SymbolInfo describes one exported symbol discovered during a gather
type SymbolInfo struct {
	Kind      string `json:"kind"`                // "func", "type", "const", "var"
	Signature string `json:"signature,omitempty"` // rendered declaration for funcs
}

// GatherResult is the per-version symbol record persisted to the data directory.
// Symbols is keyed by qualified dotted name, giving set semantics: a symbol
// never appears twice within one version's record.
type GatherResult struct {
	Library string                `json:"library"`
	Version string                `json:"version"`
	Symbols map[string]SymbolInfo `json:"symbols"`
}

// MergedResult maps each symbol to the sorted list of versions exposing it.
// Recomputed from scratch on every merge; a pure function of the input files.
type MergedResult map[string][]string

// Installation represents one library version installed into the environment slot
type Installation struct {
	Library     string
	Version     string
	ArchivePath string // downloaded archive in the cache directory
	Dir         string // extracted source root (the environment slot)
}
