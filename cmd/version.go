package cmd

import (
	"fmt"
	"time"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/conneroisu/jopilink/internal/version"
)

var (
	versionFormat   string
	versionShort    bool
	versionDetailed bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for jopilink including:

- Semantic version number
- Git commit hash
- Build timestamp
- Go version used for compilation
- Target platform (OS/architecture)

Examples:
  jopilink version                # Show version and commit
  jopilink version --detailed     # Show detailed version info
  jopilink version --format json  # Output as JSON`,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
	versionCmd.Flags().BoolVar(&versionDetailed, "detailed", false, "Show detailed version information")
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	info := version.Get()
	out := cmd.OutOrStdout()

	switch versionFormat {
	case "json":
		doc := map[string]any{
			"version":    info.Version,
			"git_commit": info.GitCommit,
			"go_version": info.GoVersion,
			"platform":   info.Platform,
			"dirty":      info.Dirty,
			"release":    info.IsRelease(),
		}
		if !info.BuildTime.IsZero() {
			doc["build_time"] = info.BuildTime.UTC().Format(time.RFC3339)
		}
		fmt.Fprintln(out, oj.JSON(doc, &ojg.Options{Indent: 2, Sort: true}))
	case "text":
		switch {
		case versionShort:
			fmt.Fprintln(out, info.Version)
		case versionDetailed:
			fmt.Fprintln(out, info.Detailed())
		default:
			fmt.Fprintf(out, "jopilink %s\n", info.Short())
		}
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", versionFormat)
	}

	return nil
}
