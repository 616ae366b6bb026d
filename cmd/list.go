package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/jopilink/internal/linker"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List every declared item",
	Long: `Scan every module and list the items of the registry, after overrides and
merges, with their winning declaration directory and priority. Nothing is
generated.

Examples:
  jopilink list                       # Table of every item
  jopilink list -f json               # Output as JSON (short flag)
  jopilink list -t uiComposites       # Only the uiComposites lists
  jopilink list -t events -f yaml     # Output as YAML`,
	RunE: runList,
}

var listFlags *StandardFlags

var listJSONOptions = &ojg.Options{Indent: 2, Sort: true}

func init() {
	rootCmd.AddCommand(listCmd)

	listFlags = AddStandardFlags(listCmd, "output", "scan")

	AddFlagValidation(listCmd, "format", func(format string) error {
		return ValidateFormatWithSuggestion(format, outputFormats)
	})
}

func runList(cmd *cobra.Command, args []string) error {
	if err := listFlags.ValidateFlags(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	result, err := linker.New(cfg, linker.Options{Logger: logger}).Scan(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	printProblems(cmd.ErrOrStderr(), result, false)

	entries := make([]linker.Entry, 0, len(result.Entries))
	for _, entry := range result.Entries {
		if listFlags.WantsType(entry.Type) {
			entries = append(entries, entry)
		}
	}

	out := cmd.OutOrStdout()

	switch strings.ToLower(listFlags.OutputFormat) {
	case "json":
		_, err = fmt.Fprintln(out, oj.JSON(entriesToMaps(entries), listJSONOptions))
	case "yaml":
		err = outputYAML(out, entries)
	default:
		err = outputTable(out, entries)
	}
	if err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("%s found", plural(len(result.Errors), "declaration error"))
	}

	return nil
}

func entriesToMaps(entries []linker.Entry) []any {
	output := make([]any, len(entries))

	for i, entry := range entries {
		item := map[string]any{
			"key":      entry.Key,
			"type":     entry.Type,
			"name":     entry.Name,
			"path":     entry.Path,
			"priority": entry.Priority,
		}
		if entry.Description != "" {
			item["description"] = entry.Description
		}
		output[i] = item
	}

	return output
}

func outputYAML(w io.Writer, entries []linker.Entry) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	return encoder.Encode(entriesToMaps(entries))
}

func outputTable(w io.Writer, entries []linker.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No items found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "KEY\tPRIORITY\tPATH\tDETAILS")
	fmt.Fprintln(tw, "---\t--------\t----\t-------")

	for _, entry := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", entry.Key, entry.Priority, entry.Path, entry.Description)
	}

	fmt.Fprintf(tw, "\nTotal: %s\n", plural(len(entries), "item"))

	return tw.Flush()
}
