package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/jopilink/internal/linker"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fail when the generated code is out of date",
	Long: `Run a generation in memory and compare it with the files on disk. Nothing
is written to the project.

Reports generated files whose content changed, files that would be created,
stale files that would be removed, and source files a generation would
create or rename (placeholder directories, missing priority sentinels).

Exits with a non-zero status when a generation would change anything,
which makes it suitable for CI.

Examples:
  jopilink check           # Summary of what is out of date
  jopilink check --diff    # Also show the line diff of changed files`,
	RunE: runCheckCommand,
}

var (
	checkFlags *StandardFlags
	checkDiff  bool
)

func init() {
	rootCmd.AddCommand(checkCmd)

	checkFlags = AddStandardFlags(checkCmd, "verbosity")
	checkCmd.Flags().BoolVarP(&checkDiff, "diff", "d", false, "Show the diff of changed files")
}

func runCheckCommand(cmd *cobra.Command, args []string) error {
	if err := checkFlags.ValidateFlags(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	result, err := linker.New(cfg, linker.Options{Logger: logger}).Check(cmd.Context())
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	out := cmd.OutOrStdout()
	printProblems(out, result.Generation, checkFlags.Quiet)

	if !result.Generation.Success {
		return fmt.Errorf("check failed: %s", plural(len(result.Generation.Errors), "declaration error"))
	}

	if result.UpToDate() {
		if !checkFlags.Quiet {
			successColor.Fprintf(out, "✓ Generated code is up to date (%s)\n",
				plural(len(result.Generation.Written), "file"))
		}
		return nil
	}

	if len(result.Changed) > 0 {
		headerColor.Fprintf(out, "Changed (%d)\n", len(result.Changed))
		for _, changed := range result.Changed {
			fmt.Fprintf(out, "  %s\n", changed.Path)
			if checkDiff {
				printDiff(out, changed.Diff)
			}
		}
	}
	printSection(out, "Missing", result.Missing)
	printSection(out, "Stale", result.Stale)
	printSection(out, "Pending source changes", result.Pending)

	outdated := len(result.Changed) + len(result.Missing) + len(result.Stale) + len(result.Pending)
	return fmt.Errorf("generated code is out of date: %s, run `jopilink generate`", plural(outdated, "difference"))
}
