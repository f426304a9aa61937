package services

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/ochairo/apigather/internal/domain/entities"
	"github.com/ochairo/apigather/internal/domain/interfaces"
	"github.com/ochairo/apigather/internal/domain/interfaces/repositories"
)

func storedResult(key string, symbols ...string) repositories.StoredResult {
	m := make(map[string]entities.SymbolInfo, len(symbols))
	for _, s := range symbols {
		m[s] = entities.SymbolInfo{Kind: "func"}
	}
	return repositories.StoredResult{
		Key:  key,
		Path: "data/" + key + ".json",
		Result: &entities.GatherResult{
			Library: "example.com/mylib",
			Version: key,
			Symbols: m,
		},
	}
}

func TestMergeService_Merge(t *testing.T) {
	svc := NewMergeService(&interfaces.NoOpLogger{})

	tests := []struct {
		name    string
		inputs  []repositories.StoredResult
		noPatch bool
		want    entities.MergedResult
		wantErr bool
	}{
		{
			name: "union of versions per symbol",
			inputs: []repositories.StoredResult{
				storedResult("2.2.0", "mylib.A", "mylib.B"),
				storedResult("2.3.0", "mylib.A"),
				storedResult("2.4.0", "mylib.A", "mylib.C"),
			},
			want: entities.MergedResult{
				"mylib.A": {"2.2.0", "2.3.0", "2.4.0"},
				"mylib.B": {"2.2.0"},
				"mylib.C": {"2.4.0"},
			},
			wantErr: false,
		},
		{
			name: "symbol missing from middle version",
			inputs: []repositories.StoredResult{
				storedResult("2.2.0", "foo.bar"),
				storedResult("2.3.0"),
				storedResult("2.4.0", "foo.bar"),
			},
			want: entities.MergedResult{
				"foo.bar": {"2.2.0", "2.4.0"},
			},
			wantErr: false,
		},
		{
			name: "no-patch normalizes keys",
			inputs: []repositories.StoredResult{
				storedResult("2.2.0", "a"),
				storedResult("2.3.0", "a", "c"),
			},
			noPatch: true,
			want: entities.MergedResult{
				"a": {"2.2", "2.3"},
				"c": {"2.3"},
			},
			wantErr: false,
		},
		{
			name: "no-patch unions duplicate keys",
			inputs: []repositories.StoredResult{
				storedResult("2.2.0", "a"),
				storedResult("2.2.1", "a", "b"),
			},
			noPatch: true,
			want: entities.MergedResult{
				"a": {"2.2"},
				"b": {"2.2"},
			},
			wantErr: false,
		},
		{
			name:    "zero inputs is fatal",
			inputs:  nil,
			want:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Merge(tt.inputs, tt.noPatch)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Merge() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Merge() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeService_Merge_OrderIndependent(t *testing.T) {
	svc := NewMergeService(&interfaces.NoOpLogger{})

	inputs := []repositories.StoredResult{
		storedResult("2.2.0", "mylib.A", "mylib.B"),
		storedResult("2.3.0", "mylib.A"),
		storedResult("2.4.0", "mylib.C"),
	}
	permuted := []repositories.StoredResult{inputs[2], inputs[0], inputs[1]}

	got, err := svc.Merge(inputs, false)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	gotPermuted, err := svc.Merge(permuted, false)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if !reflect.DeepEqual(got, gotPermuted) {
		t.Errorf("Merge() is input-order dependent: %v vs %v", got, gotPermuted)
	}
}

func TestMergeService_Merge_Idempotent(t *testing.T) {
	svc := NewMergeService(&interfaces.NoOpLogger{})

	inputs := []repositories.StoredResult{
		storedResult("1.0.0", "mylib.Parse", "mylib.Render"),
		storedResult("1.1.0", "mylib.Parse"),
	}

	first, err := svc.Merge(inputs, false)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	second, err := svc.Merge(inputs, false)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	// Byte-identical serialization, not just equal values
	firstJSON, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	secondJSON, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(firstJSON) != string(secondJSON) {
		t.Errorf("Merge() output not byte-identical across runs:\n%s\n%s", firstJSON, secondJSON)
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"2.2.0", "2.2"},
		{"2.4.1", "2.4"},
		{"2.2", "2.2"},
		{"1.0.0-rc.1", "1.0"},
		{"nightly", "nightly"},
		{"nightly.2020", "nightly"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := normalizeKey(tt.key); got != tt.want {
				t.Errorf("normalizeKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}
