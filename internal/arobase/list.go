package arobase

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/conneroisu/jopilink/internal/codegen"
	"github.com/conneroisu/jopilink/internal/errors"
	"github.com/conneroisu/jopilink/internal/events"
	"github.com/conneroisu/jopilink/internal/registry"
	"github.com/conneroisu/jopilink/internal/scanner"
	"github.com/conneroisu/jopilink/internal/types"
)

const listDeclaration = "declare const list: any[];\nexport default list;\n"

// ListItem is one entry of a list, either a ref to a chunk or a local entry
// point.
type ListItem struct {
	// Ref is the registry key of the referenced chunk.
	Ref string
	// EntryPoint is set when the item has its own index file.
	EntryPoint string
	Level      types.PriorityLevel
	// SortKey orders items inside a priority bucket.
	SortKey string
	Path    string
}

// List is an ordered set of modules contributed by any number of modules.
type List struct {
	handler registry.Handler
	Name    string
	// ItemsType is the type every referenced chunk must have.
	ItemsType  string
	Items      []*ListItem
	AllDirPath []string
	Conditions []string
}

// Handler implements registry.Item.
func (l *List) Handler() registry.Handler { return l.handler }

// ItemPath implements registry.Item.
func (l *List) ItemPath() string { return l.AllDirPath[0] }

// Priority implements registry.Item.
func (l *List) Priority() types.PriorityLevel { return types.PriorityDefault }

// Describe implements Describer.
func (l *List) Describe() string {
	return fmt.Sprintf("%d items of %s", len(l.Items), l.ItemsType)
}

// ListHandler declares lists whose items are merged across modules and
// emitted in priority order.
type ListHandler struct {
	typeName string
}

// NewListHandler creates a list handler.
func NewListHandler(typeName string) *ListHandler {
	return &ListHandler{typeName: typeName}
}

// TypeName implements registry.Handler.
func (h *ListHandler) TypeName() string { return h.typeName }

// ProcessDir implements Handler.
func (h *ListHandler) ProcessDir(ctx context.Context, env *Env, sc ScanContext) error {
	return env.Scanner.RecurseOnDir(ctx, sc.TypeDir, scanner.Rules{
		NameConstraint:  scanner.NameIdentifierOrUID,
		AllowConditions: true,
		RootDirName:     sc.ItemKind,
		Transform: func(ctx context.Context, item *scanner.Item) error {
			return h.processList(ctx, env, sc, item)
		},
	})
}

func (h *ListHandler) processList(ctx context.Context, env *Env, sc ScanContext, listDir *scanner.Item) error {
	entries, err := env.FS().ListDir(listDir.Path)
	if err != nil {
		return errors.NewIOError("cannot list list directory", listDir.Path, err)
	}

	var items []*ListItem
	topic := events.ListItemTopic(h.typeName)

	for _, entry := range entries {
		if !entry.IsDir {
			continue
		}

		err := env.Scanner.ProcessItem(ctx, entry, scanner.Rules{
			NameConstraint: scanner.NameIdentifierOrUID,
			RootDirName:    sc.ItemKind,
			FilesToResolve: []scanner.FileRole{
				{Role: RoleEntryPoint, Candidates: entryPointCandidates},
			},
			Transform: func(ctx context.Context, item *scanner.Item) error {
				listItem := &ListItem{
					Ref:        item.RefTarget,
					EntryPoint: item.Resolved[RoleEntryPoint],
					Level:      item.Priority,
					SortKey:    item.Name,
					Path:       item.Path,
				}

				if listItem.Ref == "" && listItem.EntryPoint == "" {
					return errors.NewDeclarationError(errors.ErrCodeMissingFile,
						"a list item needs a .ref file or an index.tsx/index.ts file", item.Path)
				}

				event := &events.ListItemEvent{ItemPath: item.Path, Item: listItem, List: &items}
				if err := env.Bus.Publish(ctx, topic, event); err != nil {
					return errors.NewInternalError("list item admission hook failed", err).WithPath(item.Path)
				}
				if event.MustSkip {
					env.Logger.Debug(ctx, "List item skipped by listener", "path", item.Path)
					return nil
				}

				items = append(items, listItem)
				return nil
			},
		})
		env.Report(ctx, err)
	}

	list := &List{
		handler:    h,
		Name:       listDir.Name,
		ItemsType:  sc.ItemKind,
		Items:      items,
		AllDirPath: []string{listDir.Path},
		Conditions: listDir.Conditions,
	}

	return env.Registry.AddItem(registry.Key(h.typeName, listDir.Name), list)
}

// MergeItem implements registry.Merger. Both declarations must hold the same
// item type; items are concatenated and sorted by sort key.
func (h *ListHandler) MergeItem(key string, existing, incoming registry.Item) (registry.Item, error) {
	current, ok1 := existing.(*List)
	next, ok2 := incoming.(*List)
	if !ok1 || !ok2 {
		return nil, errors.ErrTypeMismatch(key+" is not a list", incoming.ItemPath(), existing.ItemPath())
	}

	if current.ItemsType != next.ItemsType {
		return nil, errors.ErrTypeMismatch(
			fmt.Sprintf("list %s holds %s, cannot add items of type %s", key, current.ItemsType, next.ItemsType),
			next.ItemPath(), current.AllDirPath...)
	}

	merged := &List{
		handler:    current.handler,
		Name:       current.Name,
		ItemsType:  current.ItemsType,
		Items:      append(append([]*ListItem{}, current.Items...), next.Items...),
		AllDirPath: append(append([]string{}, current.AllDirPath...), next.AllDirPath...),
		Conditions: mergeConditions(current.Conditions, next.Conditions),
	}
	sort.SliceStable(merged.Items, func(i, j int) bool {
		return merged.Items[i].SortKey < merged.Items[j].SortKey
	})

	return merged, nil
}

func mergeConditions(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, c := range append(append([]string{}, a...), b...) {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)

	return out
}

// OrderedItems returns the items from the highest priority bucket down,
// keeping sort-key order inside each bucket.
func (l *List) OrderedItems() []*ListItem {
	buckets := make(map[types.PriorityLevel][]*ListItem)
	for _, item := range l.Items {
		buckets[item.Level] = append(buckets[item.Level], item)
	}

	ordered := make([]*ListItem, 0, len(l.Items))
	for _, level := range types.PriorityBuckets {
		items := buckets[level]
		sort.SliceStable(items, func(i, j int) bool { return items[i].SortKey < items[j].SortKey })
		ordered = append(ordered, items...)
	}

	return ordered
}

// resolveEntryPoint returns the file a list item imports, following refs
// through the registry.
func (l *List) resolveEntryPoint(reg *registry.Registry, item *ListItem) (string, error) {
	if item.EntryPoint != "" {
		return item.EntryPoint, nil
	}

	target, err := reg.RequireItem(item.Ref, item.Path)
	if err != nil {
		return "", err
	}

	chunk, ok := target.(*Chunk)
	if !ok {
		return "", errors.ErrTypeMismatch(
			fmt.Sprintf("%s does not reference a chunk", item.Ref), item.Path, target.ItemPath())
	}

	if chunk.ItemType != l.ItemsType {
		return "", errors.ErrTypeMismatch(
			fmt.Sprintf("%s has type %s, list %s expects %s", item.Ref, chunk.ItemType, l.Name, l.ItemsType),
			chunk.Path, item.Path)
	}

	if chunk.EntryPoint == "" {
		return "", errors.NewDeclarationError(errors.ErrCodeMissingFile,
			"referenced chunk has no entry point", chunk.Path)
	}

	return chunk.EntryPoint, nil
}

// GenerateItem implements ItemGenerator.
func (h *ListHandler) GenerateItem(_ context.Context, env *Env, w *codegen.Writer, key string, item registry.Item) error {
	list, ok := item.(*List)
	if !ok {
		return errors.NewInternalError("unexpected item for "+key, nil)
	}

	collector := errors.NewCollector()
	var entryPoints []string

	for _, listItem := range list.OrderedItems() {
		entryPoint, err := list.resolveEntryPoint(env.Registry, listItem)
		if err != nil {
			collector.Add(err)
			continue
		}
		entryPoints = append(entryPoints, entryPoint)
	}

	if err := collector.Err(); err != nil {
		return err
	}

	render := func(forDist bool) string {
		var sb strings.Builder
		names := make([]string, len(entryPoints))

		for i, entryPoint := range entryPoints {
			names[i] = fmt.Sprintf("I%d", i+1)
			rel := w.RelativeImport(h.typeName, entryPoint, forDist)
			fmt.Fprintf(&sb, "import %s from %s;\n", names[i], codegen.StringLiteral(rel))
		}

		if len(entryPoints) > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("export default [" + strings.Join(names, ", ") + "];\n")

		return sb.String()
	}

	return w.WriteCodeFile(codegen.CodeFile{
		InnerPath:   path.Join(h.typeName, registry.ItemName(key)),
		SrcContent:  render(false),
		DistContent: render(true),
		Declaration: listDeclaration,
	})
}
