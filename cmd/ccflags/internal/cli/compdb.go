package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/ccflags/cmd/ccflags/internal/watch"
	"github.com/albertocavalcante/ccflags/pkg/compdb"
	"github.com/albertocavalcante/ccflags/pkg/sources"
)

var compdbFlags struct {
	output   string
	compiler string
	patterns []string
	dryRun   bool
}

var compdbCmd = &cobra.Command{
	Use:   "compdb [path]",
	Short: "Write compile_commands.json for the project",
	Long: `Writes a clang compilation database listing every C source of the
project with the flags from 'ccflags flags'.

Sources are selected with doublestar patterns (default **/*.c) and build,
vendor and hidden directories are skipped. The file is replaced atomically
and left untouched when its content would not change.

Use --dry-run to print the database instead of writing it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompdb,
}

func init() {
	compdbCmd.Flags().StringVarP(&compdbFlags.output, "output", "o", "",
		"Database path (default compile_commands.json in the project root)")
	compdbCmd.Flags().StringVar(&compdbFlags.compiler, "compiler", "",
		"Compiler recorded as argv[0] (default from config, then cc)")
	compdbCmd.Flags().StringSliceVar(&compdbFlags.patterns, "pattern", nil,
		"Source patterns, relative to the project root (repeatable)")
	compdbCmd.Flags().BoolVar(&compdbFlags.dryRun, "dry-run", false,
		"Print the database to stdout instead of writing it")

	rootCmd.AddCommand(compdbCmd)
}

func runCompdb(cmd *cobra.Command, args []string) error {
	var dir string
	if len(args) > 0 {
		dir = args[0]
	}
	proj, err := loadProject(dir)
	if err != nil {
		return err
	}
	applyCompdbFlags(proj)

	entries, err := proj.entries()
	if err != nil {
		return err
	}

	if compdbFlags.dryRun {
		data, err := compdb.Marshal(entries)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	path := proj.databasePath()
	written, err := compdb.Write(path, entries)
	if err != nil {
		return err
	}
	state := "unchanged"
	if written {
		state = "written"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d entries)\n", path, state, len(entries))
	return nil
}

func applyCompdbFlags(p *project) {
	if compdbFlags.output != "" {
		p.cfg.Compdb.Output = compdbFlags.output
	}
	if compdbFlags.compiler != "" {
		p.cfg.Compdb.Compiler = compdbFlags.compiler
	}
	if len(compdbFlags.patterns) > 0 {
		p.cfg.Compdb.Patterns = compdbFlags.patterns
	}
}

func (p *project) matcher() (*sources.Matcher, error) {
	return sources.NewMatcher(p.cfg.Compdb.Patterns, p.cfg.Compdb.Ignore)
}

func (p *project) databasePath() string {
	if filepath.IsAbs(p.cfg.Compdb.Output) {
		return p.cfg.Compdb.Output
	}
	return filepath.Join(p.root, p.cfg.Compdb.Output)
}

// entries finds the project's sources and builds their database entries.
func (p *project) entries() ([]compdb.Entry, error) {
	m, err := p.matcher()
	if err != nil {
		return nil, err
	}
	files, err := m.Find(p.root)
	if err != nil {
		return nil, err
	}
	return compdb.Generate(p.root, files, p.provider(), p.cfg.Compdb.Compiler)
}

// regenerate rebuilds and writes the database; used by watch mode.
func (p *project) regenerate() (watch.Outcome, error) {
	entries, err := p.entries()
	if err != nil {
		return watch.Outcome{}, err
	}
	path := p.databasePath()
	written, err := compdb.Write(path, entries)
	if err != nil {
		return watch.Outcome{}, err
	}
	return watch.Outcome{Path: path, Entries: len(entries), Written: written}, nil
}
