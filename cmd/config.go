package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/jopilink/internal/config"
)

// DefaultConfigFile is looked up in the project root.
const DefaultConfigFile = ".jopilink.yml"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage jopilink configuration",
	Long: `Manage jopilink configuration files and settings.

This command provides subcommands for:
- Writing a configuration file with every default spelled out
- Validating existing configuration files
- Showing current configuration values

Examples:
  jopilink config init                 # Write .jopilink.yml with the defaults
  jopilink config validate             # Validate current configuration
  jopilink config show                 # Show current configuration
  jopilink config validate --file ci.yml  # Validate specific config file`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the defaults",
	Long: `Write a configuration file listing every option with its default value,
including the default declaration types and their handler kinds.

Examples:
  jopilink config init                   # Write .jopilink.yml in the project
  jopilink config init --output ci.yml   # Save to custom file
  jopilink config init --force           # Overwrite an existing file`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a jopilink configuration file for correctness and best practices.

This command checks for:
- Paths relative to the project without traversal
- Known handler kinds and unique type names
- Exclusions naming undeclared types
- Concurrency settings affecting reproducibility
- Valid default language and log level

Examples:
  jopilink config validate                # Validate .jopilink.yml in the project
  jopilink config validate --file ci.yml  # Validate specific file
  jopilink config validate --strict       # Treat warnings as errors`,
	RunE: runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the current jopilink configuration including all resolved values.

This shows the final configuration after:
- Loading from configuration file
- Applying environment variable overrides
- Setting default values
- Processing command-line flags

Examples:
  jopilink config show                  # Show all configuration
  jopilink config show --format json    # Show in JSON format`,
	RunE: runConfigShow,
}

var (
	configOutput string
	configForce  bool
	configFile   string
	configFormat string
	configStrict bool
)

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().StringVarP(&configOutput, "output", "o", "", "Output configuration file (default: .jopilink.yml in the project)")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")

	configValidateCmd.Flags().StringVarP(&configFile, "file", "f", "", "Configuration file to validate (default: .jopilink.yml)")
	configValidateCmd.Flags().BoolVar(&configStrict, "strict", false, "Treat warnings as errors")

	configShowCmd.Flags().StringVar(&configFormat, "format", "yaml", "Output format (yaml, json)")
}

func projectFile(name string) string {
	if projectDir == "" {
		return name
	}
	return filepath.Join(projectDir, name)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	target := configOutput
	if target == "" {
		target = projectFile(DefaultConfigFile)
	}

	if _, err := os.Stat(target); err == nil && !configForce {
		return fmt.Errorf("configuration file %s already exists, use --force to overwrite it", target)
	}

	cfg := config.Default()
	cfg.Project.Root = ""

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	successColor.Fprintf(cmd.OutOrStdout(), "✓ Configuration saved to %s\n", target)

	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	targetFile := configFile
	if targetFile == "" {
		targetFile = projectFile(DefaultConfigFile)
	}

	if _, err := os.Stat(targetFile); os.IsNotExist(err) {
		if configFile == "" {
			return errors.New("no configuration file found. Use --file to specify a config file " +
				"or run 'jopilink config init' to create one")
		}
		return fmt.Errorf("configuration file %s does not exist", targetFile)
	}

	out := cmd.OutOrStdout()
	headerColor.Fprintf(out, "Validating configuration file: %s\n", targetFile)

	v := viper.New()
	v.SetConfigFile(targetFile)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read configuration file: %w", err)
	}

	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}
	config.ApplyDefaults(&cfg)

	validation := config.ValidateConfigWithDetails(&cfg)

	if validation.Valid && !validation.HasWarnings() {
		successColor.Fprintln(out, "✓ Configuration is valid")
		return nil
	}

	fmt.Fprint(out, validation.String())

	if validation.HasErrors() {
		return fmt.Errorf("configuration validation failed with %s", plural(len(validation.Errors), "error"))
	}

	if configStrict {
		return fmt.Errorf("configuration validation failed in strict mode with %s",
			plural(len(validation.Warnings), "warning"))
	}

	warningColor.Fprintf(out, "Configuration is valid with %s. Use --strict to treat warnings as errors.\n",
		plural(len(validation.Warnings), "warning"))

	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	out := cmd.OutOrStdout()

	switch configFormat {
	case "yaml", "yml":
		fmt.Fprintln(out, "# Resolved from all sources (file, env vars, defaults)")
		_, err = out.Write(data)
		return err
	case "json":
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
		_, err = fmt.Fprintln(out, oj.JSON(doc, &ojg.Options{Indent: 2, Sort: true}))
		return err
	default:
		return fmt.Errorf("unsupported format: %s (supported: yaml, json)", configFormat)
	}
}
