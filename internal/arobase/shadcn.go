package arobase

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/conneroisu/jopilink/internal/codegen"
	"github.com/conneroisu/jopilink/internal/errors"
	"github.com/conneroisu/jopilink/internal/registry"
	"github.com/conneroisu/jopilink/internal/scanner"
	"github.com/conneroisu/jopilink/internal/types"
)

// ShadCN categories.
const (
	GroupShadUI       = "shadUI"
	GroupShadHooks    = "shadHooks"
	GroupShadLib      = "shadLib"
	GroupShadVariants = "shadVariants"
)

var (
	tsxOnly  = []string{".tsx"}
	tsAndTsx = []string{".ts", ".tsx"}
)

// ShadCNLink is a component file re-exported as-is.
type ShadCNLink struct {
	handler  registry.Handler
	FilePath string
	Name     string
	Group    string
	Level    types.PriorityLevel
}

// Handler implements registry.Item.
func (l *ShadCNLink) Handler() registry.Handler { return l.handler }

// ItemPath implements registry.Item.
func (l *ShadCNLink) ItemPath() string { return l.FilePath }

// Priority implements registry.Item.
func (l *ShadCNLink) Priority() types.PriorityLevel { return l.Level }

// Describe implements Describer.
func (l *ShadCNLink) Describe() string {
	return l.Group + "/" + l.Name
}

// ShadCNHandler links shadcn/ui style component files, letting a module
// override a component by declaring it with a higher priority.
type ShadCNHandler struct {
	typeName string
}

// NewShadCNHandler creates a ShadCN handler.
func NewShadCNHandler(typeName string) *ShadCNHandler {
	return &ShadCNHandler{typeName: typeName}
}

// TypeName implements registry.Handler.
func (h *ShadCNHandler) TypeName() string { return h.typeName }

// ProcessDir implements Handler.
func (h *ShadCNHandler) ProcessDir(ctx context.Context, env *Env, sc ScanContext) error {
	groups := []struct {
		name       string
		extensions []string
	}{
		{GroupShadUI, tsxOnly},
		{GroupShadHooks, tsAndTsx},
		{GroupShadLib, tsAndTsx},
	}

	for _, g := range groups {
		if err := h.processGroup(ctx, env, path.Join(sc.TypeDir, g.name), g.name, g.extensions); err != nil {
			return err
		}
	}

	variantsDir := path.Join(sc.TypeDir, GroupShadVariants)
	if !env.FS().IsDir(variantsDir) {
		return nil
	}

	variants, err := env.FS().ListDir(variantsDir)
	if err != nil {
		return errors.NewIOError("cannot list variants", variantsDir, err)
	}

	for _, variant := range variants {
		if !variant.IsDir || scanner.IsHidden(variant.Name) {
			continue
		}

		group := path.Join(GroupShadVariants, variant.Name)
		if err := h.processGroup(ctx, env, variant.FullPath, group, tsxOnly); err != nil {
			return err
		}
	}

	return nil
}

func (h *ShadCNHandler) processGroup(ctx context.Context, env *Env, dir, group string, extensions []string) error {
	if !env.FS().IsDir(dir) {
		return nil
	}

	entries, err := env.FS().ListDir(dir)
	if err != nil {
		return errors.NewIOError("cannot list component directory", dir, err)
	}

	priorities, invalid := priorityMap(entries)
	for _, err := range invalid {
		env.Report(ctx, err)
	}

	for _, entry := range entries {
		if !entry.IsFile || scanner.IsHidden(entry.Name) {
			continue
		}

		name, ok := trimExtension(entry.Name, extensions)
		if !ok {
			continue
		}

		level, declared := priorities[name]
		if !declared && hasPrioritySentinel(entries, name) {
			// The sentinel was invalid and has been reported.
			continue
		}

		link := &ShadCNLink{handler: h, FilePath: entry.FullPath, Name: name, Group: group, Level: level}
		env.Report(ctx, env.Registry.AddItem(registry.Key(h.typeName, group+"/"+name), link))
	}

	return nil
}

// priorityMap reads the "<component>.<priority>.priority" sentinels of a
// category directory.
func priorityMap(entries []types.DirItem) (map[string]types.PriorityLevel, []error) {
	levels := make(map[string]types.PriorityLevel)
	var invalid []error

	for _, entry := range entries {
		if !entry.IsFile || !strings.HasSuffix(entry.Name, scanner.SuffixPriority) {
			continue
		}

		component, levelName, ok := strings.Cut(strings.TrimSuffix(entry.Name, scanner.SuffixPriority), ".")
		level, valid := types.ParsePriority(levelName)
		if !ok || !valid {
			invalid = append(invalid, errors.NewDeclarationError(errors.ErrCodeInvalidPriority,
				fmt.Sprintf("invalid priority level %q", levelName), entry.FullPath))
			continue
		}

		levels[component] = level
	}

	return levels, invalid
}

func hasPrioritySentinel(entries []types.DirItem, component string) bool {
	prefix := component + "."
	for _, entry := range entries {
		if entry.IsFile && strings.HasPrefix(entry.Name, prefix) && strings.HasSuffix(entry.Name, scanner.SuffixPriority) {
			return true
		}
	}
	return false
}

func trimExtension(name string, extensions []string) (string, bool) {
	ext := path.Ext(name)
	for _, accepted := range extensions {
		if ext == accepted {
			return strings.TrimSuffix(name, ext), true
		}
	}
	return "", false
}

// MergeItem implements registry.Merger. The strictly higher priority wins, the
// first declaration is kept on ties.
func (h *ShadCNHandler) MergeItem(key string, existing, incoming registry.Item) (registry.Item, error) {
	if incoming.Priority() > existing.Priority() {
		return incoming, nil
	}
	return existing, nil
}

// GenerateItem implements ItemGenerator.
func (h *ShadCNHandler) GenerateItem(_ context.Context, _ *Env, w *codegen.Writer, key string, item registry.Item) error {
	link, ok := item.(*ShadCNLink)
	if !ok {
		return errors.NewInternalError("unexpected item for "+key, nil)
	}

	render := func(forDist bool) string {
		return "export * from " + codegen.StringLiteral(w.RelativeImport(link.Group, link.FilePath, forDist)) + ";\n"
	}

	return w.WriteCodeFile(codegen.CodeFile{
		InnerPath:   path.Join(link.Group, link.Name),
		SrcContent:  render(false),
		DistContent: render(true),
	})
}
