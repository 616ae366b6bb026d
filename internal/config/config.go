// Package config provides configuration management for jopilink using Viper
// for flexible configuration loading from files, environment variables, and
// command-line flags.
//
// The configuration system supports a .jopilink.yml file in the project root,
// environment variable overrides with the JOPILINK_ prefix, defaults and
// validation. It locates the module tree and the output trees, selects the
// declaration types and their handlers, and configures data source schema
// introspection, translations and logging.
package config

import (
	"fmt"
	"path"
	"strings"

	"github.com/spf13/viper"

	"github.com/conneroisu/jopilink/internal/arobase"
	"github.com/conneroisu/jopilink/internal/logging"
	"github.com/conneroisu/jopilink/internal/translation"
)

// Default values.
const (
	DefaultModulesDir     = "src"
	DefaultModulePrefix   = "mod_"
	DefaultAliasDir       = "@alias"
	DefaultSrcDir         = "src/_jopiLinkerGen"
	DefaultDistDir        = "dist/_jopiLinkerGen"
	DefaultSchemaManifest = "schema.json"
	DefaultConcurrency    = 1
)

type Config struct {
	Project      ProjectConfig      `mapstructure:"project" yaml:"project"`
	Output       OutputConfig       `mapstructure:"output" yaml:"output"`
	Linker       LinkerConfig       `mapstructure:"linker" yaml:"linker"`
	DataSources  DataSourcesConfig  `mapstructure:"datasources" yaml:"datasources"`
	Translations TranslationsConfig `mapstructure:"translations" yaml:"translations"`
	Log          LogConfig          `mapstructure:"log" yaml:"log"`
}

type ProjectConfig struct {
	// Root is the project directory on disk; every other path is relative to it.
	Root         string `mapstructure:"root" yaml:"root"`
	ModulesDir   string `mapstructure:"modules_dir" yaml:"modules_dir"`
	ModulePrefix string `mapstructure:"module_prefix" yaml:"module_prefix"`
}

type OutputConfig struct {
	SrcDir         string `mapstructure:"src_dir" yaml:"src_dir"`
	DistDir        string `mapstructure:"dist_dir" yaml:"dist_dir"`
	TypeScriptOnly bool   `mapstructure:"typescript_only" yaml:"typescript_only"`
}

type LinkerConfig struct {
	AliasDir    string             `mapstructure:"alias_dir" yaml:"alias_dir"`
	Concurrency int                `mapstructure:"concurrency" yaml:"concurrency"`
	Exclude     []string           `mapstructure:"exclude" yaml:"exclude"`
	Types       []arobase.TypeSpec `mapstructure:"types" yaml:"types"`
}

type DataSourcesConfig struct {
	// SchemaManifest is read from each data source directory.
	SchemaManifest string `mapstructure:"schema_manifest" yaml:"schema_manifest"`
	// SchemaCommand, when set, is run with the compiled module path appended.
	SchemaCommand string `mapstructure:"schema_command" yaml:"schema_command"`
}

type TranslationsConfig struct {
	DefaultLang string `mapstructure:"default_lang" yaml:"default_lang"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// EnvPrefix prefixes environment overrides, e.g. JOPILINK_OUTPUT_SRC_DIR.
const EnvPrefix = "JOPILINK"

// BindEnv enables JOPILINK_<SECTION>_<OPTION> environment overrides.
func BindEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

// SetDefaults registers every key with viper so that environment overrides
// are seen by Unmarshal.
func SetDefaults() {
	viper.SetDefault("project.root", ".")
	viper.SetDefault("project.modules_dir", DefaultModulesDir)
	viper.SetDefault("project.module_prefix", DefaultModulePrefix)
	viper.SetDefault("output.src_dir", DefaultSrcDir)
	viper.SetDefault("output.dist_dir", DefaultDistDir)
	viper.SetDefault("output.typescript_only", false)
	viper.SetDefault("linker.alias_dir", DefaultAliasDir)
	viper.SetDefault("linker.concurrency", DefaultConcurrency)
	viper.SetDefault("linker.exclude", []string{})
	viper.SetDefault("datasources.schema_manifest", DefaultSchemaManifest)
	viper.SetDefault("datasources.schema_command", "")
	viper.SetDefault("translations.default_lang", translation.DefaultLanguage)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Handle exclude set via environment (workaround for viper slice handling)
	if viper.IsSet("linker.exclude") && len(config.Linker.Exclude) == 0 {
		config.Linker.Exclude = viper.GetStringSlice("linker.exclude")
	}

	// Handle typescript_only set via environment (workaround for viper bool handling)
	if viper.IsSet("output.typescript_only") {
		config.Output.TypeScriptOnly = viper.GetBool("output.typescript_only")
	}

	ApplyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when no file or override exists.
func Default() *Config {
	config := &Config{}
	ApplyDefaults(config)
	return config
}

// ApplyDefaults fills every unset option with its default.
func ApplyDefaults(config *Config) {
	if config.Project.Root == "" {
		config.Project.Root = "."
	}
	if config.Project.ModulesDir == "" {
		config.Project.ModulesDir = DefaultModulesDir
	}
	if config.Project.ModulePrefix == "" {
		config.Project.ModulePrefix = DefaultModulePrefix
	}

	if config.Output.SrcDir == "" {
		config.Output.SrcDir = DefaultSrcDir
	}
	if config.Output.DistDir == "" {
		config.Output.DistDir = DefaultDistDir
	}

	if config.Linker.AliasDir == "" {
		config.Linker.AliasDir = DefaultAliasDir
	}
	if config.Linker.Concurrency == 0 {
		config.Linker.Concurrency = DefaultConcurrency
	}
	if len(config.Linker.Types) == 0 {
		config.Linker.Types = arobase.DefaultTypes()
	}

	if config.DataSources.SchemaManifest == "" {
		config.DataSources.SchemaManifest = DefaultSchemaManifest
	}

	if config.Translations.DefaultLang == "" {
		config.Translations.DefaultLang = translation.DefaultLanguage
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateProjectConfig(&config.Project); err != nil {
		return fmt.Errorf("project config: %w", err)
	}

	if err := validateOutputConfig(&config.Output); err != nil {
		return fmt.Errorf("output config: %w", err)
	}

	if err := validateLinkerConfig(&config.Linker); err != nil {
		return fmt.Errorf("linker config: %w", err)
	}

	if _, err := translation.NormalizeLang(config.Translations.DefaultLang); err != nil {
		return fmt.Errorf("translations config: %w", err)
	}

	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("log config: unknown format %q", config.Log.Format)
	}

	return nil
}

func validateProjectConfig(config *ProjectConfig) error {
	if err := validatePath(config.ModulesDir); err != nil {
		return fmt.Errorf("invalid modules_dir '%s': %w", config.ModulesDir, err)
	}

	if strings.ContainsAny(config.ModulePrefix, "/\\") {
		return fmt.Errorf("module_prefix must not contain a path separator: %s", config.ModulePrefix)
	}

	return nil
}

func validateOutputConfig(config *OutputConfig) error {
	if err := validatePath(config.SrcDir); err != nil {
		return fmt.Errorf("invalid src_dir '%s': %w", config.SrcDir, err)
	}

	if err := validatePath(config.DistDir); err != nil {
		return fmt.Errorf("invalid dist_dir '%s': %w", config.DistDir, err)
	}

	if path.Clean(config.SrcDir) == path.Clean(config.DistDir) {
		return fmt.Errorf("src_dir and dist_dir must differ")
	}

	return nil
}

func validateLinkerConfig(config *LinkerConfig) error {
	if config.AliasDir == "" || strings.ContainsAny(config.AliasDir, "/\\") {
		return fmt.Errorf("alias_dir must be a single directory name: %q", config.AliasDir)
	}

	if config.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", config.Concurrency)
	}

	seen := make(map[string]bool, len(config.Types))
	for _, spec := range config.Types {
		if spec.Name == "" || strings.ContainsAny(spec.Name, "./\\") {
			return fmt.Errorf("invalid type name %q", spec.Name)
		}
		if seen[spec.Name] {
			return fmt.Errorf("type %s declared twice", spec.Name)
		}
		seen[spec.Name] = true

		if !isKnownKind(spec.Kind) {
			return fmt.Errorf("type %s has unknown kind %q", spec.Name, spec.Kind)
		}
	}

	return nil
}

func isKnownKind(kind string) bool {
	for _, known := range arobase.Kinds {
		if strings.EqualFold(kind, known) {
			return true
		}
	}
	return false
}

// validatePath validates a project relative path for security
func validatePath(p string) error {
	if p == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := path.Clean(strings.ReplaceAll(p, "\\", "/"))

	// Reject path traversal attempts
	if cleanPath == ".." || strings.HasPrefix(cleanPath, "../") || strings.Contains(cleanPath, "/../") {
		return fmt.Errorf("path contains traversal: %s", p)
	}

	if path.IsAbs(cleanPath) || (len(cleanPath) > 1 && cleanPath[1] == ':') {
		return fmt.Errorf("path must be relative to the project: %s", p)
	}

	// Reject dangerous characters
	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}
