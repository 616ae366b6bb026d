// Package scanner turns declaration directories into validated items.
//
// A scan root holds one child directory per declared item. Each child is
// checked against a set of Rules: name constraint, sentinel files (priority,
// ref, condition, feature) and role files resolved from ordered candidate
// lists. Rule violations become declaration errors added to the run's
// collector; the offending item is dropped and the scan moves on.
package scanner

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/conneroisu/jopilink/internal/errors"
	"github.com/conneroisu/jopilink/internal/fsys"
	"github.com/conneroisu/jopilink/internal/logging"
	"github.com/conneroisu/jopilink/internal/types"
)

// Sentinel file suffixes.
const (
	SuffixPriority  = ".priority"
	SuffixRef       = ".ref"
	SuffixCondition = ".condition"
	SuffixFeature   = ".feature"
)

// PlaceholderName is renamed to a fresh UUID before the directory is processed.
const PlaceholderName = "_"

// NameConstraint restricts the accepted item directory names.
type NameConstraint int

const (
	// NameAny accepts any name.
	NameAny NameConstraint = iota
	// NameIdentifier requires an identifier-like name.
	NameIdentifier
	// NameIdentifierOrUID also accepts a UUID, the result of a placeholder rename.
	NameIdentifierOrUID
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$-]*$`)

// FileRole maps a logical role to the file names accepted for it, in order.
type FileRole struct {
	Role       string
	Candidates []string
}

// Rules configures how a directory is processed.
type Rules struct {
	NameConstraint  NameConstraint
	RequirePriority bool
	RequireRefFile  bool
	AllowConditions bool
	AllowFeatures   bool
	FilesToResolve  []FileRole
	// RootDirName is the type used for refs written as "<name>.ref".
	RootDirName string
	// Transform receives every accepted item.
	Transform func(ctx context.Context, item *Item) error
	// NormalizeCondition returns the canonical condition name and may record
	// it into the conditions context. An error rejects the condition.
	NormalizeCondition func(name, filePath string, conditionsContext map[string][]string) (string, error)
	// NormalizeFeature returns the canonical feature name, or false when the
	// feature is not supported.
	NormalizeFeature func(name string) (string, bool)
}

// Infos is what the sentinel files of a directory declare.
type Infos struct {
	Priority    types.PriorityLevel
	HasPriority bool
	// RefTarget is a registry key, empty when the directory has no ref file.
	RefTarget  string
	Conditions []string
	// ConditionsContext holds what the condition normalizer recorded.
	ConditionsContext map[string][]string
	Features          map[string]bool
}

// Item is one accepted declaration directory.
type Item struct {
	Infos
	Name          string
	Path          string
	ParentDirName string
	// Resolved maps roles to the matching file path.
	Resolved map[string]string
}

// Scanner processes declaration directories.
type Scanner struct {
	fs        *fsys.FS
	collector *errors.Collector
	logger    logging.Logger
	newID     func() string
}

// New creates a scanner reporting problems into collector.
func New(fs *fsys.FS, collector *errors.Collector, logger logging.Logger) *Scanner {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	return &Scanner{
		fs:        fs,
		collector: collector,
		logger:    logger.WithComponent("scanner"),
		newID:     func() string { return uuid.New().String() },
	}
}

// FS returns the filesystem the scanner works on.
func (s *Scanner) FS() *fsys.FS {
	return s.fs
}

// Collector returns the run's error collector.
func (s *Scanner) Collector() *errors.Collector {
	return s.collector
}

// Report adds err to the collector and logs it.
func (s *Scanner) Report(ctx context.Context, err error) {
	if err == nil {
		return
	}

	if errors.IsContentWarning(err) {
		s.logger.Warn(ctx, err, "Content skipped")
	} else {
		s.logger.Debug(ctx, "Declaration rejected", "error", err.Error())
	}

	s.collector.Add(err)
}

// RecurseOnDir processes every child directory of dirToScan. Item failures
// are reported and do not stop the scan; only listing failures and context
// cancellation are returned.
func (s *Scanner) RecurseOnDir(ctx context.Context, dirToScan string, rules Rules) error {
	items, err := s.fs.ListDir(dirToScan)
	if err != nil {
		return errors.NewIOError("cannot list declaration directory", dirToScan, err)
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !item.IsDir {
			continue
		}

		s.Report(ctx, s.ProcessItem(ctx, item, rules))
	}

	return nil
}

// ProcessItem validates one declaration directory and hands it to the rules'
// Transform. Placeholders are renamed first; other names starting with '.' or
// '_' are skipped.
func (s *Scanner) ProcessItem(ctx context.Context, dirItem types.DirItem, rules Rules) error {
	if dirItem.Name == PlaceholderName {
		renamed, err := s.RenamePlaceholder(ctx, dirItem)
		if err != nil {
			return err
		}
		dirItem = renamed
	}

	if IsHidden(dirItem.Name) {
		return nil
	}

	if err := CheckName(dirItem.Name, rules.NameConstraint); err != nil {
		return errors.NewDeclarationError(errors.ErrCodeInvalidName, err.Error(), dirItem.FullPath)
	}

	infos, err := s.ExtractInfos(ctx, dirItem.FullPath, rules)
	if err != nil {
		return err
	}

	if rules.RequirePriority {
		if err := s.EnsurePriority(dirItem.FullPath, infos); err != nil {
			return err
		}
	}

	if rules.RequireRefFile && infos.RefTarget == "" {
		return errors.NewDeclarationError(errors.ErrCodeMissingFile, "a .ref file is required", dirItem.FullPath)
	}

	item := &Item{
		Infos:         *infos,
		Name:          dirItem.Name,
		Path:          dirItem.FullPath,
		ParentDirName: path.Base(path.Dir(dirItem.FullPath)),
		Resolved:      make(map[string]string),
	}

	for _, role := range rules.FilesToResolve {
		if resolved, ok := s.ResolveFile(dirItem.FullPath, role.Candidates...); ok {
			item.Resolved[role.Role] = resolved
		}
	}

	if rules.Transform == nil {
		return nil
	}

	return rules.Transform(ctx, item)
}

// RenamePlaceholder renames a "_" directory to a fresh UUID in place.
func (s *Scanner) RenamePlaceholder(ctx context.Context, dirItem types.DirItem) (types.DirItem, error) {
	id := s.newID()
	newPath := path.Join(path.Dir(dirItem.FullPath), id)

	if err := s.fs.Rename(dirItem.FullPath, newPath); err != nil {
		return dirItem, errors.NewIOError("cannot rename placeholder directory", dirItem.FullPath, err)
	}

	s.logger.Info(ctx, "Renamed placeholder directory", "from", dirItem.FullPath, "to", newPath)

	dirItem.Name = id
	dirItem.FullPath = newPath

	return dirItem, nil
}

// ExtractInfos reads only the sentinel files of dir.
func (s *Scanner) ExtractInfos(_ context.Context, dir string, rules Rules) (*Infos, error) {
	entries, err := s.fs.ListDir(dir)
	if err != nil {
		return nil, errors.NewIOError("cannot list directory", dir, err)
	}

	infos := &Infos{Priority: types.PriorityDefault}

	for _, entry := range entries {
		if !entry.IsFile {
			continue
		}

		switch {
		case strings.HasSuffix(entry.Name, SuffixPriority):
			level, ok := types.ParsePriority(strings.TrimSuffix(entry.Name, SuffixPriority))
			if !ok {
				return nil, errors.NewDeclarationError(errors.ErrCodeInvalidPriority,
					"invalid priority level", entry.FullPath)
			}
			if infos.HasPriority && infos.Priority != level {
				return nil, errors.NewDeclarationError(errors.ErrCodeInvalidPriority,
					fmt.Sprintf("conflicting priorities %s and %s", infos.Priority, level), entry.FullPath)
			}
			infos.Priority = level
			infos.HasPriority = true

		case strings.HasSuffix(entry.Name, SuffixRef):
			target, err := refTarget(strings.TrimSuffix(entry.Name, SuffixRef), rules.RootDirName)
			if err != nil {
				return nil, errors.NewDeclarationError(errors.ErrCodeInvalidName, err.Error(), entry.FullPath)
			}
			if infos.RefTarget != "" {
				return nil, errors.NewDeclarationError(errors.ErrCodeDuplicate,
					"more than one .ref file", entry.FullPath)
			}
			infos.RefTarget = target

		case strings.HasSuffix(entry.Name, SuffixCondition):
			if !rules.AllowConditions {
				return nil, errors.NewDeclarationError(errors.ErrCodeInvalidCondition,
					"conditions are not allowed here", entry.FullPath)
			}
			name := strings.TrimSuffix(entry.Name, SuffixCondition)
			if infos.ConditionsContext == nil {
				infos.ConditionsContext = make(map[string][]string)
			}
			if rules.NormalizeCondition != nil {
				name, err = rules.NormalizeCondition(name, entry.FullPath, infos.ConditionsContext)
				if err != nil {
					return nil, errors.NewDeclarationError(errors.ErrCodeInvalidCondition,
						err.Error(), entry.FullPath)
				}
			}
			infos.Conditions = append(infos.Conditions, name)

		case strings.HasSuffix(entry.Name, SuffixFeature):
			if !rules.AllowFeatures {
				return nil, errors.NewDeclarationError(errors.ErrCodeInvalidFeature,
					"features are not allowed here", entry.FullPath)
			}
			name := strings.TrimSuffix(entry.Name, SuffixFeature)
			if rules.NormalizeFeature != nil {
				normalized, ok := rules.NormalizeFeature(name)
				if !ok {
					return nil, errors.NewDeclarationError(errors.ErrCodeInvalidFeature,
						fmt.Sprintf("unknown feature %q", name), entry.FullPath)
				}
				name = normalized
			}
			if infos.Features == nil {
				infos.Features = make(map[string]bool)
			}
			infos.Features[name] = true
		}
	}

	sort.Strings(infos.Conditions)
	for role, names := range infos.ConditionsContext {
		sort.Strings(names)
		infos.ConditionsContext[role] = names
	}

	return infos, nil
}

// EnsurePriority writes an empty "default.priority" sentinel into dir when
// infos declares no priority, so the implicit level becomes visible.
func (s *Scanner) EnsurePriority(dir string, infos *Infos) error {
	if infos.HasPriority {
		return nil
	}

	sentinel := path.Join(dir, types.PriorityDefault.String()+SuffixPriority)
	if err := s.fs.WriteText(sentinel, ""); err != nil {
		return errors.NewIOError("cannot write default priority", sentinel, err)
	}

	infos.HasPriority = true
	infos.Priority = types.PriorityDefault

	return nil
}

// ResolveFile returns the first candidate existing as a file in dir.
func (s *Scanner) ResolveFile(dir string, candidates ...string) (string, bool) {
	for _, candidate := range candidates {
		p := path.Join(dir, candidate)
		if s.fs.IsFile(p) {
			return p, true
		}
	}

	return "", false
}

// IsHidden reports names reserved for drafts and private content.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// IsIdentifier reports whether name is a valid declaration identifier.
func IsIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// IsUID reports whether name is a canonical UUID.
func IsUID(name string) bool {
	if len(name) != 36 {
		return false
	}
	_, err := uuid.Parse(name)
	return err == nil
}

// CheckName validates name against constraint.
func CheckName(name string, constraint NameConstraint) error {
	switch constraint {
	case NameIdentifier:
		if !IsIdentifier(name) {
			return fmt.Errorf("%q is not a valid identifier", name)
		}
	case NameIdentifierOrUID:
		if !IsIdentifier(name) && !IsUID(name) {
			return fmt.Errorf("%q is neither a valid identifier nor a UUID", name)
		}
	}

	return nil
}

// refTarget turns the stem of a .ref file into a registry key.
func refTarget(stem, rootDirName string) (string, error) {
	typeName, name, qualified := strings.Cut(stem, ".")
	if !qualified {
		typeName, name = rootDirName, stem
	}

	if typeName == "" || name == "" {
		return "", fmt.Errorf("invalid reference %q", stem)
	}

	return typeName + "!" + name, nil
}
