package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/albertocavalcante/ccflags/internal/log"
)

// ConfigFileName is the name of the project-level config file.
const ConfigFileName = "ccflags.toml"

// ConfigDirName is the name of the project-level config directory.
const ConfigDirName = ".ccflags"

// GlobalConfigDir is the name of the global config directory inside user's config.
const GlobalConfigDir = "ccflags"

// WorkspaceMarkers stop the upward search for a project config.
var WorkspaceMarkers = []string{".git", "Makefile", "meson.build", "configure.ac", "CMakeLists.txt"}

// Loaded is a merged configuration plus where its project layer came from.
type Loaded struct {
	*Config

	// ProjectFile is the project config path that was applied, or "".
	ProjectFile string
}

// Load loads configuration from all layers in order of precedence,
// searching for the project config from the working directory.
// CLI flags are applied separately after Load returns.
func Load() *Loaded {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return LoadFrom(wd)
}

// LoadFrom loads configuration starting from a specific directory.
func LoadFrom(dir string) *Loaded {
	cfg := NewConfig()

	// Layer 2: Global user config
	if globalCfg := loadConfigFile(GetGlobalConfigPath()); globalCfg != nil {
		cfg.Merge(globalCfg)
	}

	// Layer 3: Project config
	projectFile := FindProjectConfig(dir)
	if projectFile != "" {
		if projectCfg := loadConfigFile(projectFile); projectCfg != nil {
			cfg.Merge(projectCfg)
		}
	}

	// Layer 4: Environment variables
	applyEnvironmentVariables(cfg)

	log.V(log.VerbosityInfo).Info("configuration loaded",
		"project_file", projectFile, "packages", cfg.Profile.Packages)
	return &Loaded{Config: cfg, ProjectFile: projectFile}
}

// FindProjectConfig searches dir and its parents for a project config,
// stopping at the first workspace root. Returns "" when none exists.
func FindProjectConfig(dir string) string {
	current := dir
	for {
		for _, candidate := range GetProjectConfigPaths(current) {
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}

		if isWorkspaceRoot(current) {
			return ""
		}

		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}

// FindWorkspaceRoot returns the nearest ancestor of dir (inclusive) holding
// a workspace marker, or dir itself when there is none.
func FindWorkspaceRoot(dir string) string {
	current := dir
	for {
		if isWorkspaceRoot(current) {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return dir
		}
		current = parent
	}
}

func isWorkspaceRoot(dir string) bool {
	for _, marker := range WorkspaceMarkers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// loadConfigFile loads a configuration from a TOML file. Missing files
// are silent; unreadable or malformed ones are reported and skipped.
func loadConfigFile(path string) *Config {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("cannot read config file", "path", path, "error", err)
		}
		return nil
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		log.Warn("ignoring malformed config file", "path", path, "error", err)
		return nil
	}

	return &cfg
}

// applyEnvironmentVariables applies CCFLAGS_* environment variables to the config.
func applyEnvironmentVariables(cfg *Config) {
	if v := os.Getenv("CCFLAGS_PKG_CONFIG"); v != "" {
		cfg.PkgConfig.Binary = v
	}

	// CCFLAGS_PACKAGES: comma-separated package list, replaces the profile's
	if v, ok := os.LookupEnv("CCFLAGS_PACKAGES"); ok {
		cfg.Profile.Packages = splitAndTrim(v)
	}

	if v := os.Getenv("CCFLAGS_COMPILER"); v != "" {
		cfg.Compdb.Compiler = v
	}
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// GetGlobalConfigPath returns the path to the global config file.
func GetGlobalConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, GlobalConfigDir, "config.toml")
}

// GetProjectConfigPaths returns potential project config paths for a given directory.
func GetProjectConfigPaths(dir string) []string {
	return []string{
		filepath.Join(dir, ConfigDirName, "config.toml"),
		filepath.Join(dir, ConfigFileName),
	}
}

// Encode renders cfg as TOML, as written by `ccflags init`.
func Encode(cfg *Config) ([]byte, error) {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}
