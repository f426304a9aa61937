package jsonstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ochairo/apigather/internal/domain/entities"
)

func TestResultStore_SaveAndList(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	store := NewResultStore(dataDir, nil)

	result := &entities.GatherResult{
		Library: "example.com/mylib",
		Version: "2.2.0",
		Symbols: map[string]entities.SymbolInfo{
			"mylib.Decode": {Kind: "func", Signature: "func(data []byte) error"},
			"mylib.Limit":  {Kind: "const"},
		},
	}

	path, err := store.Save(result)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if filepath.Base(path) != "2.2.0.json" {
		t.Errorf("Save() path = %v, want basename 2.2.0.json", path)
	}

	stored, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("List() returned %d results, want 1", len(stored))
	}
	if stored[0].Key != "2.2.0" {
		t.Errorf("List() Key = %v, want 2.2.0", stored[0].Key)
	}
	if stored[0].Result.Library != "example.com/mylib" {
		t.Errorf("List() Library = %v, want example.com/mylib", stored[0].Result.Library)
	}
	if got := stored[0].Result.Symbols["mylib.Decode"].Kind; got != "func" {
		t.Errorf("List() symbol kind = %v, want func", got)
	}
}

func TestResultStore_SaveOverwritesVersion(t *testing.T) {
	store := NewResultStore(t.TempDir(), nil)

	first := &entities.GatherResult{
		Library: "example.com/mylib",
		Version: "2.2.0",
		Symbols: map[string]entities.SymbolInfo{"mylib.Old": {Kind: "func"}},
	}
	if _, err := store.Save(first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	second := &entities.GatherResult{
		Library: "example.com/mylib",
		Version: "2.2.0",
		Symbols: map[string]entities.SymbolInfo{"mylib.New": {Kind: "func"}},
	}
	if _, err := store.Save(second); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	stored, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("List() returned %d results, want 1", len(stored))
	}
	if _, ok := stored[0].Result.Symbols["mylib.Old"]; ok {
		t.Error("overwritten result still contains old symbols")
	}
	if _, ok := stored[0].Result.Symbols["mylib.New"]; !ok {
		t.Error("overwritten result missing new symbols")
	}
}

func TestResultStore_SaveRejectsMissingVersion(t *testing.T) {
	store := NewResultStore(t.TempDir(), nil)

	if _, err := store.Save(&entities.GatherResult{Library: "example.com/mylib"}); err == nil {
		t.Error("Save() without version should return error")
	}
}

func TestResultStore_ListSkipsInvalidFiles(t *testing.T) {
	dataDir := t.TempDir()
	store := NewResultStore(dataDir, nil)

	if _, err := store.Save(&entities.GatherResult{
		Library: "example.com/mylib",
		Version: "2.2.0",
		Symbols: map[string]entities.SymbolInfo{"mylib.A": {Kind: "func"}},
	}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// A malformed record and an unrelated file must not break the merge input
	if err := os.WriteFile(filepath.Join(dataDir, "2.3.0.json"), []byte("{not json"), 0600); err != nil {
		t.Fatalf("Failed to write malformed file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "README.md"), []byte("# data\n"), 0600); err != nil {
		t.Fatalf("Failed to write unrelated file: %v", err)
	}

	stored, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("List() returned %d results, want 1", len(stored))
	}
	if stored[0].Key != "2.2.0" {
		t.Errorf("List() Key = %v, want 2.2.0", stored[0].Key)
	}
}

func TestResultStore_ListEmptyDirectory(t *testing.T) {
	store := NewResultStore(t.TempDir(), nil)

	stored, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("List() returned %d results, want 0", len(stored))
	}
}
