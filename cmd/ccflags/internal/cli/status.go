package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusFlags struct {
	dir  string
	json bool
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that every configured package resolves",
	Long: `Queries the installed version of every package in the profile and
reports which ones pkg-config cannot resolve. Exits non-zero when any
package fails, since 'ccflags flags' would fail as well.

The --json flag outputs the result as JSON for scripting.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusFlags.dir, "dir", "",
		"Project directory (defaults to the enclosing workspace root)")
	statusCmd.Flags().BoolVar(&statusFlags.json, "json", false,
		"Output as JSON")

	rootCmd.AddCommand(statusCmd)
}

// PackageStatus is the status of one configured package.
type PackageStatus struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StatusOutput is the JSON output format for ccflags status.
type StatusOutput struct {
	Root        string          `json:"root"`
	ConfigFile  string          `json:"config_file,omitempty"`
	QueryTool   string          `json:"query_tool"`
	Packages    []PackageStatus `json:"packages"`
	AllResolved bool            `json:"all_resolved"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	proj, err := loadProject(statusFlags.dir)
	if err != nil {
		return err
	}

	q := proj.querier()
	output := StatusOutput{
		Root:        proj.root,
		ConfigFile:  proj.cfg.ProjectFile,
		QueryTool:   proj.cfg.PkgConfig.Binary,
		Packages:    []PackageStatus{},
		AllResolved: true,
	}
	if bin, err := q.FindBinary(); err == nil {
		output.QueryTool = bin
	}

	for _, name := range proj.cfg.Profile.Packages {
		st := PackageStatus{Name: name}
		if v, err := q.ModVersion(name); err != nil {
			st.Error = err.Error()
			output.AllResolved = false
		} else {
			st.Version = v
		}
		output.Packages = append(output.Packages, st)
	}

	if statusFlags.json {
		if err := outputJSON(cmd.OutOrStdout(), output); err != nil {
			return err
		}
	} else {
		printStatus(cmd.OutOrStdout(), output)
	}

	if !output.AllResolved {
		return fmt.Errorf("%d of %d packages failed to resolve",
			countFailed(output.Packages), len(output.Packages))
	}
	return nil
}

func printStatus(w io.Writer, s StatusOutput) {
	ok := color.New(color.FgGreen).Sprint("✓")
	bad := color.New(color.FgRed).Sprint("✗")

	fmt.Fprintf(w, "project:    %s\n", s.Root)
	if s.ConfigFile != "" {
		fmt.Fprintf(w, "config:     %s\n", s.ConfigFile)
	}
	fmt.Fprintf(w, "query tool: %s\n", s.QueryTool)

	if len(s.Packages) == 0 {
		fmt.Fprintln(w, "\nNo packages configured")
		return
	}

	fmt.Fprintf(w, "\nPackages (%d):\n", len(s.Packages))
	for _, p := range s.Packages {
		if p.Error != "" {
			fmt.Fprintf(w, "  %s %s: %s\n", bad, p.Name, p.Error)
			continue
		}
		fmt.Fprintf(w, "  %s %s %s\n", ok, p.Name, p.Version)
	}
}

func countFailed(pkgs []PackageStatus) int {
	n := 0
	for _, p := range pkgs {
		if p.Error != "" {
			n++
		}
	}
	return n
}

func outputJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
