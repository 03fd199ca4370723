// Package cli implements the ccflags command-line interface.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/ccflags/internal/log"
	"github.com/albertocavalcante/ccflags/pkg/config"
	"github.com/albertocavalcante/ccflags/pkg/flags"
	"github.com/albertocavalcante/ccflags/pkg/pkgconfig"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// globalFlags holds persistent flags that apply to all commands
var globalFlags struct {
	verbosity int
	logFormat string
	pkgConfig string
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ccflags",
	Short: "Compiler flags for clang-based editor completion",
	Long: `ccflags computes the compiler flags a clang-based completion engine
needs to parse the C sources of a project: fixed warning, threading and
define flags, local include paths, and the flags pkg-config reports for
each configured package.

Every file of the project receives the same flags. Use 'ccflags flags' for a
one-shot query, or 'ccflags compdb' to write compile_commands.json.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if !log.ValidFormat(globalFlags.logFormat) {
			return fmt.Errorf("invalid --log-format %q (want text or json)", globalFlags.logFormat)
		}
		log.Init(globalFlags.verbosity, globalFlags.logFormat)
		return nil
	},
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ccflags %s (%s)\n", Version, GitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().IntVarP(&globalFlags.verbosity, "verbosity", "v", 1,
		"Verbosity level (0=error, 1=warn, 2=info, 3=debug, 4=trace)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.logFormat, "log-format", log.FormatText,
		"Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.pkgConfig, "pkg-config", "",
		"Path or name of the package query tool (overrides config)")
}

// project is a loaded configuration anchored at a project root.
type project struct {
	root string
	cfg  *config.Loaded
}

// loadProject resolves the project root from dir (or the working
// directory) and loads its configuration with CLI overrides applied.
func loadProject(dir string) (*project, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		dir = config.FindWorkspaceRoot(wd)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("invalid path %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path must be a directory: %s", dir)
	}

	cfg := config.LoadFrom(abs)
	if globalFlags.pkgConfig != "" {
		cfg.PkgConfig.Binary = globalFlags.pkgConfig
	}
	return &project{root: abs, cfg: cfg}, nil
}

func (p *project) querier() *pkgconfig.Runner {
	return pkgconfig.New(pkgconfig.WithBinary(p.cfg.PkgConfig.Binary))
}

func (p *project) provider() *flags.Provider {
	return flags.NewProvider(p.cfg.FlagProfile(), p.querier())
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// RootCmd returns the root command for testing.
func RootCmd() *cobra.Command {
	return rootCmd
}
