package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/jopilink/internal/linker"
)

// generateCmd represents the generate command.
var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"g"},
	Short:   "Regenerate the linked code",
	Long: `Scan every module, resolve overrides and merges across modules, then
regenerate the output trees from scratch.

The previous output is only removed when no declaration error was found:
a broken declaration leaves the last good generation in place.

Examples:
  jopilink generate                  # Regenerate the current project
  jopilink g -C ./website            # Regenerate another project
  jopilink generate --log-level debug  # Show every rejected declaration`,
	RunE: runGenerateCommand,
}

var generateFlags *StandardFlags

func init() {
	rootCmd.AddCommand(generateCmd)

	generateFlags = AddStandardFlags(generateCmd, "verbosity")
}

func runGenerateCommand(cmd *cobra.Command, args []string) error {
	if err := generateFlags.ValidateFlags(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	result, err := linker.New(cfg, linker.Options{Logger: logger}).Generate(cmd.Context())
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	printProblems(out, result, generateFlags.Quiet)

	if !result.Success {
		return fmt.Errorf("generation failed: %s, output left untouched", plural(len(result.Errors), "declaration error"))
	}

	if generateFlags.Verbose {
		printSection(out, "Written", result.Written)
	}

	if !generateFlags.Quiet {
		successColor.Fprintf(out, "✓ Linked %s from %s into %s in %dms\n",
			plural(len(result.Entries), "item"),
			plural(len(result.Modules), "module"),
			plural(len(result.Written), "file"),
			result.Duration.Milliseconds())
	}

	return nil
}
