package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/albertocavalcante/ccflags/pkg/flags"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	want := flags.DefaultProfile()
	if !slices.Equal(cfg.Profile.Base, want.Base) {
		t.Errorf("default base flags = %v, want %v", cfg.Profile.Base, want.Base)
	}
	if !slices.Equal(cfg.Profile.Packages, want.Packages) {
		t.Errorf("default packages = %v, want %v", cfg.Profile.Packages, want.Packages)
	}
	if cfg.PkgConfig.Binary != "pkg-config" {
		t.Errorf("default binary should be 'pkg-config', got %q", cfg.PkgConfig.Binary)
	}
	if cfg.Compdb.Output != "compile_commands.json" {
		t.Errorf("default output should be 'compile_commands.json', got %q", cfg.Compdb.Output)
	}
	if cfg.Watch.Debounce != 500 {
		t.Errorf("default debounce should be 500, got %d", cfg.Watch.Debounce)
	}
}

func TestFlagProfileIsCopy(t *testing.T) {
	cfg := NewConfig()
	p := cfg.FlagProfile()
	p.Packages[0] = "mutated"

	if cfg.Profile.Packages[0] == "mutated" {
		t.Error("FlagProfile should return an independent copy")
	}
}

func TestMerge(t *testing.T) {
	base := NewConfig()
	other := &Config{
		Profile: ProfileConfig{
			Packages: []string{"libxml-2.0"},
		},
		PkgConfig: PkgConfigConfig{Binary: "/opt/bin/pkgconf"},
		Compdb:    CompdbConfig{Ignore: []string{"third_party"}},
	}

	base.Merge(other)

	if !slices.Equal(base.Profile.Packages, []string{"libxml-2.0"}) {
		t.Errorf("packages should be replaced, got %v", base.Profile.Packages)
	}
	if !slices.Equal(base.Profile.Base, flags.DefaultProfile().Base) {
		t.Errorf("unset base flags should survive merge, got %v", base.Profile.Base)
	}
	if base.PkgConfig.Binary != "/opt/bin/pkgconf" {
		t.Errorf("binary should be overridden, got %q", base.PkgConfig.Binary)
	}
	if base.Compdb.Compiler != "cc" {
		t.Errorf("unset compiler should survive merge, got %q", base.Compdb.Compiler)
	}
	if !slices.Contains(base.Compdb.Ignore, "third_party") {
		t.Errorf("ignore list should be extended, got %v", base.Compdb.Ignore)
	}
}

func TestMerge_EmptyListClears(t *testing.T) {
	base := NewConfig()
	base.Merge(&Config{Profile: ProfileConfig{Packages: []string{}}})

	if len(base.Profile.Packages) != 0 {
		t.Errorf("explicit empty package list should clear packages, got %v", base.Profile.Packages)
	}
}

func TestLoadConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
[profile]
base = ["-Wall", "-Werror"]
packages = ["gtk+-3.0"]

[pkg_config]
binary = "pkgconf"

[compdb]
compiler = "clang"
patterns = ["src/**/*.c"]

[watch]
debounce = 250
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg := loadConfigFile(configPath)
	if cfg == nil {
		t.Fatal("loadConfigFile returned nil")
	}

	if !slices.Equal(cfg.Profile.Base, []string{"-Wall", "-Werror"}) {
		t.Errorf("base = %v", cfg.Profile.Base)
	}
	if cfg.Profile.Includes != nil {
		t.Errorf("includes should be unset, got %v", cfg.Profile.Includes)
	}
	if cfg.PkgConfig.Binary != "pkgconf" {
		t.Errorf("binary = %q", cfg.PkgConfig.Binary)
	}
	if cfg.Compdb.Compiler != "clang" {
		t.Errorf("compiler = %q", cfg.Compdb.Compiler)
	}
	if cfg.Watch.Debounce != 250 {
		t.Errorf("debounce = %d", cfg.Watch.Debounce)
	}
}

func TestLoadConfigFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[profile\nbase = "), 0o644); err != nil {
		t.Fatal(err)
	}
	if cfg := loadConfigFile(path); cfg != nil {
		t.Error("malformed config should be skipped")
	}
}

func TestApplyEnvironmentVariables(t *testing.T) {
	cfg := NewConfig()

	t.Setenv("CCFLAGS_PKG_CONFIG", "/usr/local/bin/pkg-config")
	t.Setenv("CCFLAGS_PACKAGES", "glib-2.0, libsoup-3.0")
	t.Setenv("CCFLAGS_COMPILER", "clang")

	applyEnvironmentVariables(cfg)

	if cfg.PkgConfig.Binary != "/usr/local/bin/pkg-config" {
		t.Errorf("binary = %q", cfg.PkgConfig.Binary)
	}
	if !slices.Equal(cfg.Profile.Packages, []string{"glib-2.0", "libsoup-3.0"}) {
		t.Errorf("packages = %v", cfg.Profile.Packages)
	}
	if cfg.Compdb.Compiler != "clang" {
		t.Errorf("compiler = %q", cfg.Compdb.Compiler)
	}
}

func TestApplyEnvironmentVariables_EmptyPackages(t *testing.T) {
	cfg := NewConfig()
	t.Setenv("CCFLAGS_PACKAGES", "")

	applyEnvironmentVariables(cfg)

	if len(cfg.Profile.Packages) != 0 {
		t.Errorf("set-but-empty CCFLAGS_PACKAGES should clear packages, got %v", cfg.Profile.Packages)
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"glib-2.0,gio-2.0", []string{"glib-2.0", "gio-2.0"}},
		{" glib-2.0 , gio-2.0 ", []string{"glib-2.0", "gio-2.0"}},
		{"glib-2.0", []string{"glib-2.0"}},
		{"", []string{}},
		{" , , ", []string{}},
	}

	for _, tt := range tests {
		result := splitAndTrim(tt.input)
		if !slices.Equal(result, tt.expected) {
			t.Errorf("splitAndTrim(%q) = %v, want %v", tt.input, result, tt.expected)
		}
	}
}

func TestProjectConfigSearch(t *testing.T) {
	tmpDir := t.TempDir()
	projectDir := filepath.Join(tmpDir, "project", "src", "lib")
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		t.Fatalf("failed to create project dir: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(tmpDir, "project", ".git"), 0o755); err != nil {
		t.Fatalf("failed to create .git dir: %v", err)
	}

	configPath := filepath.Join(tmpDir, "project", "ccflags.toml")
	if err := os.WriteFile(configPath, []byte("[profile]\npackages = [\"zlib\"]\n"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if got := FindProjectConfig(projectDir); got != configPath {
		t.Fatalf("FindProjectConfig() = %q, want %q", got, configPath)
	}

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	loaded := LoadFrom(projectDir)
	if loaded.ProjectFile != configPath {
		t.Errorf("ProjectFile = %q, want %q", loaded.ProjectFile, configPath)
	}
	if !slices.Equal(loaded.Profile.Packages, []string{"zlib"}) {
		t.Errorf("packages = %v, want [zlib]", loaded.Profile.Packages)
	}
}

func TestProjectConfigSearch_PrefersConfigDir(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ConfigDirName), 0o755); err != nil {
		t.Fatal(err)
	}
	dirConfig := filepath.Join(root, ConfigDirName, "config.toml")
	for _, p := range []string{dirConfig, filepath.Join(root, ConfigFileName)} {
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if got := FindProjectConfig(root); got != dirConfig {
		t.Errorf("FindProjectConfig() = %q, want %q", got, dirConfig)
	}
}

func TestProjectConfigSearch_StopsAtWorkspaceRoot(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	project := filepath.Join(tmpDir, "project")
	if err := os.MkdirAll(project, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(project, "Makefile"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if got := FindProjectConfig(project); got != "" {
		t.Errorf("search should stop at the Makefile directory, got %q", got)
	}
}

func TestWorkspaceRootDetection(t *testing.T) {
	for _, marker := range WorkspaceMarkers {
		t.Run(marker, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, marker), nil, 0o644); err != nil {
				t.Fatal(err)
			}
			if !isWorkspaceRoot(dir) {
				t.Errorf("directory with %s should be workspace root", marker)
			}

			nested := filepath.Join(dir, "a", "b")
			if err := os.MkdirAll(nested, 0o755); err != nil {
				t.Fatal(err)
			}
			if got := FindWorkspaceRoot(nested); got != dir {
				t.Errorf("FindWorkspaceRoot() = %q, want %q", got, dir)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := NewConfig()
	data, err := Encode(cfg)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	got := loadConfigFile(path)
	if got == nil {
		t.Fatal("encoded config failed to load")
	}
	if !slices.Equal(got.Profile.Packages, cfg.Profile.Packages) {
		t.Errorf("packages = %v, want %v", got.Profile.Packages, cfg.Profile.Packages)
	}
}
