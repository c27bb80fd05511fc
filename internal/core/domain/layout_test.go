package domain_test

import (
	"path/filepath"
	"testing"

	"go.trai.ch/kiln/internal/core/domain"
)

func TestLayoutPaths(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{
			name:     "DefaultKilnPath",
			got:      domain.DefaultKilnPath(),
			expected: ".kiln",
		},
		{
			name:     "DefaultCachePath",
			got:      domain.DefaultCachePath(),
			expected: filepath.Join(".kiln", "cache"),
		},
		{
			name:     "DefaultRecordsPath",
			got:      domain.DefaultRecordsPath(),
			expected: filepath.Join(".kiln", "records"),
		},
		{
			name:     "OutputDir",
			got:      domain.OutputDir(domain.MustBuildTarget("//lib/core:core")),
			expected: filepath.Join(".kiln", "out", "lib", "core", "core"),
		},
		{
			name:     "OutputDir with cell and flavors",
			got:      domain.OutputDir(domain.MustBuildTarget("tools//lint:check#fast")),
			expected: filepath.Join(".kiln", "out", "tools", "lint", "check#fast"),
		},
		{
			name:     "ScratchDir",
			got:      domain.ScratchDir(domain.MustBuildTarget("//:top")),
			expected: filepath.Join(".kiln", "tmp", "top"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, want %q", tt.got, tt.expected)
			}
		})
	}
}
