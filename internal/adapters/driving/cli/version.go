package cli

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lectern/internal/adapters/driving/mcp"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Long: `Print the lectern version, the MCP server version, the Go toolchain
and, when built from a checkout, the VCS revision. --short prints the
version alone.`,
	RunE: runVersion,
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the version string")
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if versionShort {
		_, err := fmt.Fprintln(out, version)
		return err
	}
	return writeBuildInfo(out)
}

func writeBuildInfo(w io.Writer) error {
	rows := [][2]string{
		{"mcp server", mcp.Version},
		{"go", runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH},
	}
	if rev := vcsRevision(); rev != "" {
		rows = append(rows, [2]string{"revision", rev})
	}

	if _, err := fmt.Fprintf(w, "lectern %s\n", version); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "  %-11s %s\n", r[0]+":", r[1]); err != nil {
			return err
		}
	}
	return nil
}

// vcsRevision is the short commit hash stamped by the go tool, with a
// "-dirty" suffix for modified trees.
func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var rev, dirty string
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			if s.Value == "true" {
				dirty = "-dirty"
			}
		}
	}
	if rev == "" {
		return ""
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	return rev + dirty
}
