package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/ccflags/cmd/ccflags/internal/watch"
	"github.com/albertocavalcante/ccflags/pkg/config"
)

var watchFlags struct {
	debounce int
	verbose  bool
	json     bool
	noColor  bool
}

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Keep compile_commands.json current as sources change",
	Long: `Writes compile_commands.json, then watches the project and rewrites it
when C sources are added, removed or renamed, or when a ccflags config file
changes. Configuration is reloaded before every rebuild.

Example output:

  $ ccflags watch

  ccflags: watching 42 C sources in /path/to/project
  ccflags: ready

  [14:32:15] src/net/socket.c changed, regenerating...
  [14:32:15] ✓ /path/to/project/compile_commands.json updated (43 entries)

Press Ctrl+C to stop watching.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchFlags.debounce, "debounce", 0,
		"Debounce window in milliseconds (default from config, then 500)")
	watchCmd.Flags().BoolVar(&watchFlags.verbose, "verbose", false,
		"Show file-level changes")
	watchCmd.Flags().BoolVar(&watchFlags.json, "json", false,
		"Stream JSON events (for tooling integration)")
	watchCmd.Flags().BoolVar(&watchFlags.noColor, "no-color", false,
		"Disable colored output")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	var dir string
	if len(args) > 0 {
		dir = args[0]
	}
	proj, err := loadProject(dir)
	if err != nil {
		return err
	}
	applyCompdbFlags(proj)

	m, err := proj.matcher()
	if err != nil {
		return err
	}

	debounce := proj.cfg.Watch.Debounce
	if watchFlags.debounce > 0 {
		debounce = watchFlags.debounce
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	w, err := watch.New(watch.Config{
		Root:        proj.root,
		Matcher:     m,
		ConfigFiles: configFiles(proj),
		Debounce:    time.Duration(debounce) * time.Millisecond,
		Verbose:     watchFlags.verbose,
		NoColor:     watchFlags.noColor,
		JSON:        watchFlags.json,
		Output:      cmd.OutOrStdout(),
		Regenerate: func() (watch.Outcome, error) {
			fresh, err := loadProject(proj.root)
			if err != nil {
				return watch.Outcome{}, err
			}
			applyCompdbFlags(fresh)
			return fresh.regenerate()
		},
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	return w.Run(ctx)
}

// configFiles lists every config path whose creation or edit should
// trigger a rebuild, whether or not it exists yet.
func configFiles(p *project) []string {
	files := config.GetProjectConfigPaths(p.root)
	if p.cfg.ProjectFile != "" && p.cfg.ProjectFile != files[0] && p.cfg.ProjectFile != files[1] {
		files = append(files, p.cfg.ProjectFile)
	}
	if global := config.GetGlobalConfigPath(); global != "" {
		files = append(files, global)
	}
	return files
}
