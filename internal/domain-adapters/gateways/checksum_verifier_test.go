package gateways

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// TestVerifyChecksum tests SHA256 checksum verification
func TestVerifyChecksum(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "archive.zip")

	content := []byte("not really a zip, but bytes are bytes for hashing purposes")
	if err := os.WriteFile(testFile, content, 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	verifier := NewChecksumVerifier()

	actualSum, err := verifier.CalculateChecksum(testFile)
	if err != nil {
		t.Fatalf("CalculateChecksum() error = %v", err)
	}

	if len(actualSum) != 64 {
		t.Errorf("CalculateChecksum() returned checksum length = %d, want 64 (SHA256 hex)", len(actualSum))
	}

	t.Run("valid checksum", func(t *testing.T) {
		if err := verifier.VerifyChecksum(context.Background(), testFile, actualSum); err != nil {
			t.Errorf("VerifyChecksum() with valid checksum error = %v", err)
		}
	})

	t.Run("invalid checksum", func(t *testing.T) {
		invalidSum := "0000000000000000000000000000000000000000000000000000000000000000"
		if err := verifier.VerifyChecksum(context.Background(), testFile, invalidSum); err == nil {
			t.Error("VerifyChecksum() with invalid checksum should return error")
		}
	})

	t.Run("non-existent file", func(t *testing.T) {
		if err := verifier.VerifyChecksum(context.Background(), "/nonexistent/file.zip", actualSum); err == nil {
			t.Error("VerifyChecksum() with non-existent file should return error")
		}
	})
}

func TestParseChecksum(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    string
		wantErr bool
	}{
		{
			name:    "bare hash",
			data:    "abc123\n",
			want:    "abc123",
			wantErr: false,
		},
		{
			name:    "sha256sum format",
			data:    "abc123  mylib-2.2.0.zip\n",
			want:    "abc123",
			wantErr: false,
		},
		{
			name:    "empty file",
			data:    "   \n",
			want:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChecksum(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseChecksum() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseChecksum() = %v, want %v", got, tt.want)
			}
		})
	}
}
