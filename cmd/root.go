// Package cmd provides the command-line interface for jopilink with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --log-level, --project) - highest priority
//	2. JOPILINK_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (JOPILINK_OUTPUT_SRC_DIR, etc.)
//	4. Configuration file (.jopilink.yml in the project root) - lowest priority
//
// Environment Variables:
//
//	JOPILINK_CONFIG_FILE: Path to custom configuration file
//	JOPILINK_PROJECT_MODULES_DIR: Override the modules directory
//	JOPILINK_LINKER_CONCURRENCY: Number of modules scanned at once
//	And more following the JOPILINK_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/jopilink/internal/config"
	"github.com/conneroisu/jopilink/internal/logging"
)

var (
	cfgFile    string
	projectDir string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jopilink",
	Short: "Link the @alias declarations of a modular JavaScript project",
	Long: `jopilink scans the modules of a project (src/mod_*), reads the declarations
found under each module's @alias directory, resolves overrides and merges across
modules, and generates the TypeScript and JavaScript glue code importing them.

Quick Start:
  jopilink generate               Regenerate the linked code
  jopilink check                  Fail when the generated code is out of date
  jopilink list                   List every declared item

Command Aliases (for faster typing):
  generate (g), list (l)`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .jopilink.yml in the project, can also use JOPILINK_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "C", "", "project root (default is the current directory)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
}

// initConfig initializes the configuration system.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. JOPILINK_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .jopilink.yml in the project root
func initConfig() {
	config.SetDefaults()

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("project.root", rootCmd.PersistentFlags().Lookup("project"))

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("JOPILINK_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		root := projectDir
		if root == "" {
			root = "."
		}
		viper.AddConfigPath(root)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".jopilink")
	}

	config.BindEnv()

	// A missing file is fine, defaults and environment still apply.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig loads the configuration and builds the logger writing to the
// command's error stream.
func loadConfig(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Log.Format,
		Output:    cmd.ErrOrStderr(),
		Component: "jopilink",
	})

	return cfg, logger, nil
}
