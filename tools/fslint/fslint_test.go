package fslint

import (
	"os"
	"path/filepath"
	"testing"
)

func TestShouldScanPackage(t *testing.T) {
	scanDirs := []string{"internal/"}

	tests := []struct {
		pkgPath  string
		expected bool
	}{
		{"github.com/example/project/internal/foo", true},
		{"github.com/example/project/internal/foo/bar", true},
		{"github.com/example/project/cmd/foo", false},
		{"github.com/example/project/pkg/foo", false},
		{"internal/foo", true},
		{"internals/foo", false},
	}

	for _, tt := range tests {
		t.Run(tt.pkgPath, func(t *testing.T) {
			result := shouldScanPackage(tt.pkgPath, scanDirs)
			if result != tt.expected {
				t.Errorf("shouldScanPackage(%q, %v) = %v, want %v", tt.pkgPath, scanDirs, result, tt.expected)
			}
		})
	}
}

func TestIsAllowedPackage(t *testing.T) {
	allowedPackages := []string{"internal/util", "internal/natstore"}

	tests := []struct {
		pkgPath  string
		expected bool
	}{
		{"github.com/example/project/internal/util", true},
		{"github.com/example/project/internal/util/sub", true},
		{"github.com/example/project/internal/foo", false},
		{"github.com/example/project/internal/utility", false},
		{"github.com/example/project/internal/natstore", true},
		{"github.com/example/project/internal/natstores", false},
		{"internal/util", true},
		{"internal/util/sub", true},
	}

	for _, tt := range tests {
		t.Run(tt.pkgPath, func(t *testing.T) {
			result := isAllowedPackage(tt.pkgPath, allowedPackages)
			if result != tt.expected {
				t.Errorf("isAllowedPackage(%q, %v) = %v, want %v", tt.pkgPath, allowedPackages, result, tt.expected)
			}
		})
	}
}

func TestMatchesPackagePath(t *testing.T) {
	tests := []struct {
		pkgPath  string
		pattern  string
		expected bool
	}{
		{"github.com/example/project/internal/util", "internal/util", true},
		{"github.com/example/project/internal/util/sub", "internal/util", true},
		{"github.com/example/project/internal/foo", "internal/util", false},
		{"github.com/example/project/internal/utility", "internal/util", false},
		{"internal/util", "internal/util", true},
		{"internal/util/sub", "internal/util", true},
	}

	for _, tt := range tests {
		t.Run(tt.pkgPath+"_"+tt.pattern, func(t *testing.T) {
			result := matchesPackagePath(tt.pkgPath, tt.pattern)
			if result != tt.expected {
				t.Errorf("matchesPackagePath(%q, %q) = %v, want %v", tt.pkgPath, tt.pattern, result, tt.expected)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fslint.toml")
	content := `
scan_dirs = ["internal/"]
allowed_packages = ["internal/util", "internal/natstore"]

[forbidden_calls]
"os/exec" = ["Command", "CommandContext"]
"os" = ["ReadFile", "WriteFile", "Remove", "Rename"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if len(cfg.ScanDirs) != 1 || cfg.ScanDirs[0] != "internal/" {
		t.Errorf("unexpected scan_dirs: %v", cfg.ScanDirs)
	}
	if len(cfg.ForbiddenCalls["os/exec"]) != 2 {
		t.Errorf("unexpected forbidden_calls: %v", cfg.ForbiddenCalls)
	}
}

func TestLoadConfig_MissingPath(t *testing.T) {
	if _, err := loadConfig(""); err == nil {
		t.Fatal("expected error for empty config path")
	}
}
