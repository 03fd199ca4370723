package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var flagsFlags struct {
	dir   string
	json  bool
	shell bool
}

var flagsCmd = &cobra.Command{
	Use:   "flags [file]",
	Short: "Print the compiler flags for a source file",
	Long: `Prints the compiler flags for a source file, one per line.

The file name is accepted for the editor host's benefit but does not change
the result: every file of the project gets the same flags. pkg-config is
queried on every run.

  --json   prints {"flags": [...], "do_cache": true}
  --shell  prints the flags on one line, separated by spaces

A failing package query fails the command; no partial list is printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFlags,
}

func init() {
	flagsCmd.Flags().StringVar(&flagsFlags.dir, "dir", "",
		"Project directory (defaults to the enclosing workspace root)")
	flagsCmd.Flags().BoolVar(&flagsFlags.json, "json", false,
		"Output as JSON")
	flagsCmd.Flags().BoolVar(&flagsFlags.shell, "shell", false,
		"Output on a single line")
	flagsCmd.MarkFlagsMutuallyExclusive("json", "shell")

	rootCmd.AddCommand(flagsCmd)
}

func runFlags(cmd *cobra.Command, args []string) error {
	proj, err := loadProject(flagsFlags.dir)
	if err != nil {
		return err
	}

	var file string
	if len(args) > 0 {
		file = args[0]
	}

	res, err := proj.provider().FlagsForFile(file)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case flagsFlags.json:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(res)
	case flagsFlags.shell:
		_, err = fmt.Fprintln(out, strings.Join(res.Flags, " "))
		return err
	default:
		for _, f := range res.Flags {
			if _, err := fmt.Fprintln(out, f); err != nil {
				return err
			}
		}
		return nil
	}
}
