package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/ccflags/pkg/config"
)

var initFlags struct {
	force  bool
	dryRun bool
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a ccflags.toml with the built-in profile",
	Long: `Writes ccflags.toml to the project root, pre-filled with the built-in
flag profile and defaults, ready to be edited.

An existing file is never replaced unless --force is given.
Use --dry-run to print the file instead of writing it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initFlags.force, "force", false,
		"Overwrite an existing ccflags.toml")
	initCmd.Flags().BoolVar(&initFlags.dryRun, "dry-run", false,
		"Print the file instead of writing it")

	rootCmd.AddCommand(initCmd)
}

const initHeader = `# ccflags configuration.
# Flags are emitted in order: profile.base, profile.includes, then the
# pkg-config --cflags output of each profile.packages entry.

`

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("invalid path %s: %w", dir, err)
	}

	body, err := config.Encode(config.NewConfig())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	content := append([]byte(initHeader), body...)

	if initFlags.dryRun {
		_, err := cmd.OutOrStdout().Write(content)
		return err
	}

	path := filepath.Join(abs, config.ConfigFileName)
	if _, err := os.Stat(path); err == nil && !initFlags.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return nil
}
