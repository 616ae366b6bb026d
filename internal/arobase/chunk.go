package arobase

import (
	"context"
	"fmt"
	"path"

	"github.com/conneroisu/jopilink/internal/codegen"
	"github.com/conneroisu/jopilink/internal/errors"
	"github.com/conneroisu/jopilink/internal/events"
	"github.com/conneroisu/jopilink/internal/registry"
	"github.com/conneroisu/jopilink/internal/scanner"
	"github.com/conneroisu/jopilink/internal/types"
)

// File roles resolved inside chunk directories.
const (
	RoleEntryPoint = "entryPoint"
	RoleInfo       = "info"
)

var entryPointCandidates = []string{"index.tsx", "index.ts"}

// Chunk is a single entry point declaration.
type Chunk struct {
	handler registry.Handler
	Name    string
	Path    string
	// EntryPoint is the resolved index file.
	EntryPoint string
	// Info is the optional info.json file.
	Info string
	// ItemType is the logical category of the chunk, checked by list refs.
	ItemType          string
	Level             types.PriorityLevel
	Conditions        []string
	ConditionsContext map[string][]string
	Features          map[string]bool
}

// Handler implements registry.Item.
func (c *Chunk) Handler() registry.Handler { return c.handler }

// ItemPath implements registry.Item.
func (c *Chunk) ItemPath() string { return c.Path }

// Priority implements registry.Item.
func (c *Chunk) Priority() types.PriorityLevel { return c.Level }

// Describe implements Describer.
func (c *Chunk) Describe() string {
	return fmt.Sprintf("%s -> %s", c.ItemType, c.EntryPoint)
}

// chunkOptions tunes the shared chunk scan.
type chunkOptions struct {
	allowConditions    bool
	allowFeatures      bool
	normalizeCondition func(name, filePath string, conditionsContext map[string][]string) (string, error)
	normalizeFeature   func(name string) (string, bool)
}

// processChunks scans one directory per chunk and registers the chunks that no
// listener vetoed.
func processChunks(ctx context.Context, env *Env, sc ScanContext, owner registry.Handler, opts chunkOptions) error {
	typeName := owner.TypeName()

	return env.Scanner.RecurseOnDir(ctx, sc.TypeDir, scanner.Rules{
		NameConstraint:     scanner.NameIdentifierOrUID,
		RequirePriority:    true,
		AllowConditions:    opts.allowConditions,
		AllowFeatures:      opts.allowFeatures,
		NormalizeCondition: opts.normalizeCondition,
		NormalizeFeature:   opts.normalizeFeature,
		RootDirName:        sc.ItemKind,
		FilesToResolve: []scanner.FileRole{
			{Role: RoleInfo, Candidates: []string{"info.json"}},
			{Role: RoleEntryPoint, Candidates: entryPointCandidates},
		},
		Transform: func(ctx context.Context, item *scanner.Item) error {
			entryPoint, ok := item.Resolved[RoleEntryPoint]
			if !ok {
				return errors.NewDeclarationError(errors.ErrCodeMissingFile,
					"no index.tsx or index.ts file found", item.Path)
			}

			chunk := &Chunk{
				handler:           owner,
				Name:              item.Name,
				Path:              item.Path,
				EntryPoint:        entryPoint,
				Info:              item.Resolved[RoleInfo],
				ItemType:          sc.ItemKind,
				Level:             item.Priority,
				Conditions:        item.Conditions,
				ConditionsContext: item.ConditionsContext,
				Features:          item.Features,
			}

			key := registry.Key(typeName, item.Name)
			event := &events.ChunkEvent{Key: key, ItemPath: item.Path, Chunk: chunk}
			if err := env.Bus.Publish(ctx, events.ChunkTopic(typeName), event); err != nil {
				return errors.NewInternalError("chunk admission hook failed", err).WithPath(item.Path)
			}

			if event.MustSkip {
				env.Logger.Debug(ctx, "Chunk skipped by listener", "key", key, "path", item.Path)
				return nil
			}

			return env.Registry.AddItem(key, chunk)
		},
	})
}

// mergeChunks resolves a chunk declared twice: the strictly higher priority
// declaration replaces the other, equal priorities are a duplicate.
func mergeChunks(key string, existing, incoming registry.Item) (registry.Item, error) {
	current, ok1 := existing.(*Chunk)
	next, ok2 := incoming.(*Chunk)
	if !ok1 || !ok2 {
		return nil, errors.ErrTypeMismatch(key+" is not a chunk", incoming.ItemPath(), existing.ItemPath())
	}

	if current.ItemType != next.ItemType {
		return nil, errors.ErrTypeMismatch(
			fmt.Sprintf("%s is already declared with type %s, not %s", key, current.ItemType, next.ItemType),
			next.Path, current.Path)
	}

	switch {
	case next.Level > current.Level:
		return next, nil
	case next.Level < current.Level:
		return current, nil
	default:
		return nil, errors.ErrDuplicate(key, next.Path, current.Path)
	}
}

// ChunkHandler declares one module per directory and re-exports its default
// export from "<typeName>/<name>".
type ChunkHandler struct {
	typeName string
}

// NewChunkHandler creates a chunk handler.
func NewChunkHandler(typeName string) *ChunkHandler {
	return &ChunkHandler{typeName: typeName}
}

// TypeName implements registry.Handler.
func (h *ChunkHandler) TypeName() string { return h.typeName }

// ProcessDir implements Handler.
func (h *ChunkHandler) ProcessDir(ctx context.Context, env *Env, sc ScanContext) error {
	return processChunks(ctx, env, sc, h, chunkOptions{})
}

// MergeItem implements registry.Merger.
func (h *ChunkHandler) MergeItem(key string, existing, incoming registry.Item) (registry.Item, error) {
	return mergeChunks(key, existing, incoming)
}

// GenerateItem implements ItemGenerator.
func (h *ChunkHandler) GenerateItem(_ context.Context, _ *Env, w *codegen.Writer, key string, item registry.Item) error {
	chunk, ok := item.(*Chunk)
	if !ok {
		return errors.NewInternalError("unexpected item for "+key, nil)
	}

	render := func(forDist bool) string {
		rel := w.RelativeImport(h.typeName, chunk.EntryPoint, forDist)
		return "import C from " + codegen.StringLiteral(rel) + ";\nexport default C;\n"
	}

	return w.WriteCodeFile(codegen.CodeFile{
		InnerPath:   path.Join(h.typeName, registry.ItemName(key)),
		SrcContent:  render(false),
		DistContent: render(true),
	})
}

// TypeScriptTypeHandler declares type-only modules, re-exported with
// `export type *`.
type TypeScriptTypeHandler struct {
	typeName string
}

// NewTypeScriptTypeHandler creates a type-only chunk handler.
func NewTypeScriptTypeHandler(typeName string) *TypeScriptTypeHandler {
	return &TypeScriptTypeHandler{typeName: typeName}
}

// TypeName implements registry.Handler.
func (h *TypeScriptTypeHandler) TypeName() string { return h.typeName }

// ProcessDir implements Handler.
func (h *TypeScriptTypeHandler) ProcessDir(ctx context.Context, env *Env, sc ScanContext) error {
	return processChunks(ctx, env, sc, h, chunkOptions{})
}

// MergeItem implements registry.Merger.
func (h *TypeScriptTypeHandler) MergeItem(key string, existing, incoming registry.Item) (registry.Item, error) {
	return mergeChunks(key, existing, incoming)
}

// GenerateItem implements ItemGenerator.
func (h *TypeScriptTypeHandler) GenerateItem(_ context.Context, _ *Env, w *codegen.Writer, key string, item registry.Item) error {
	chunk, ok := item.(*Chunk)
	if !ok {
		return errors.NewInternalError("unexpected item for "+key, nil)
	}

	render := func(forDist bool) string {
		rel := w.RelativeImport(h.typeName, chunk.EntryPoint, forDist)
		return "export type * from " + codegen.StringLiteral(rel) + ";\n"
	}

	return w.WriteCodeFile(codegen.CodeFile{
		InnerPath:   path.Join(h.typeName, registry.ItemName(key)),
		SrcContent:  render(false),
		DistContent: render(true),
	})
}
