package config

import (
	"fmt"
	"strings"

	"github.com/conneroisu/jopilink/internal/arobase"
	"github.com/conneroisu/jopilink/internal/logging"
	"github.com/conneroisu/jopilink/internal/registry"
	"github.com/conneroisu/jopilink/internal/translation"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("Validation Errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("    → %s\n", suggestion))
			}
		}
		builder.WriteString("\n")
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("Validation Warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("    → %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

// ValidateConfigWithDetails performs comprehensive validation with detailed feedback
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validatePathsDetails(config, result)
	validateLinkerConfigDetails(&config.Linker, result)
	validateDataSourcesDetails(config, result)

	if _, err := translation.NormalizeLang(config.Translations.DefaultLang); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "translations.default_lang",
			Value:   config.Translations.DefaultLang,
			Message: err.Error(),
			Suggestions: []string{
				"Use a BCP 47 language tag such as 'en-us' or 'fr'",
			},
		})
	}

	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "log.level",
			Value:       config.Log.Level,
			Message:     err.Error(),
			Suggestions: []string{"Available levels: debug, info, warn, error"},
		})
	}

	result.Valid = !result.HasErrors()

	return result
}

func validatePathsDetails(config *Config, result *ValidationResult) {
	paths := []struct {
		field string
		value string
	}{
		{"project.modules_dir", config.Project.ModulesDir},
		{"output.src_dir", config.Output.SrcDir},
		{"output.dist_dir", config.Output.DistDir},
	}

	for _, p := range paths {
		if err := validatePath(p.value); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   p.field,
				Value:   p.value,
				Message: err.Error(),
				Suggestions: []string{
					"Use a path relative to the project root",
					"Avoid '..' and shell metacharacters",
				},
			})
		}
	}

	if config.Output.SrcDir != "" && !strings.HasPrefix(config.Output.SrcDir+"/", config.Project.ModulesDir+"/") {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "output.src_dir",
			Value:   config.Output.SrcDir,
			Message: "generated TypeScript tree is outside the modules directory",
			Suggestions: []string{
				fmt.Sprintf("Keep it under %s so the compiler sees it, e.g. %s", config.Project.ModulesDir, DefaultSrcDir),
			},
		})
	}
}

func validateLinkerConfigDetails(config *LinkerConfig, result *ValidationResult) {
	if config.Concurrency < 1 {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "linker.concurrency",
			Value:       config.Concurrency,
			Message:     "concurrency must be at least 1",
			Suggestions: []string{"Use 1 for fully deterministic generation"},
		})
	} else if config.Concurrency > 1 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "linker.concurrency",
			Value:   config.Concurrency,
			Message: "equal priority ties may resolve differently between runs",
			Suggestions: []string{
				"Give conflicting declarations distinct priorities",
				"Use 1 when generated output is committed",
			},
		})
	}

	seen := make(map[string]bool)
	for _, spec := range config.Types {
		if seen[spec.Name] {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "linker.types",
				Value:   spec.Name,
				Message: fmt.Sprintf("type %s declared twice", spec.Name),
			})
		}
		seen[spec.Name] = true

		if !isKnownKind(spec.Kind) {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "linker.types",
				Value:   spec.Kind,
				Message: fmt.Sprintf("type %s has unknown kind '%s'", spec.Name, spec.Kind),
				Suggestions: []string{
					"Available kinds: " + strings.Join(arobase.Kinds, ", "),
				},
			})
		}
	}

	for _, entry := range config.Exclude {
		typeName, _, isKey := registry.SplitKey(entry)
		if isKey && !seen[typeName] {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   "linker.exclude",
				Value:   entry,
				Message: fmt.Sprintf("type %s is not declared, the entry never matches", typeName),
			})
		}
	}
}

func validateDataSourcesDetails(config *Config, result *ValidationResult) {
	if config.DataSources.SchemaCommand != "" && config.Output.TypeScriptOnly {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "datasources.schema_command",
			Value:   config.DataSources.SchemaCommand,
			Message: "the command receives TypeScript sources in a TypeScript-only project",
			Suggestions: []string{
				"Make sure the command can load .ts files",
			},
		})
	}

	if strings.ContainsAny(config.DataSources.SchemaManifest, "/\\") {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "datasources.schema_manifest",
			Value:   config.DataSources.SchemaManifest,
			Message: "the manifest is a file name inside each data source directory",
		})
	}
}
