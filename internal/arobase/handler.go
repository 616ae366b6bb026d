// Package arobase implements the declaration types found under a module's
// "@alias" directory.
//
// Each type is a handler selected by configuration. A handler scans its type
// directory, turns what it finds into registry items, and later emits the
// generated modules for the items it owns. Optional capabilities (BeginGenerate,
// GenerateItem, registry.Merger) are discovered through interfaces.
package arobase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/conneroisu/jopilink/internal/codegen"
	"github.com/conneroisu/jopilink/internal/events"
	"github.com/conneroisu/jopilink/internal/fsys"
	"github.com/conneroisu/jopilink/internal/logging"
	"github.com/conneroisu/jopilink/internal/registry"
	"github.com/conneroisu/jopilink/internal/scanner"
	"github.com/conneroisu/jopilink/internal/schema"
)

// Handler kinds, as written in configuration.
const (
	KindChunk       = "chunk"
	KindList        = "list"
	KindDataSource  = "datasource"
	KindShadCN      = "shadcn"
	KindTranslation = "translation"
	KindTypes       = "types"
)

// Kinds lists every supported handler kind.
var Kinds = []string{KindChunk, KindList, KindDataSource, KindShadCN, KindTranslation, KindTypes}

// Env carries the collaborators of one generation run.
type Env struct {
	Registry *registry.Registry
	Bus      *events.Bus
	Scanner  *scanner.Scanner
	Schema   schema.Loader
	Logger   logging.Logger
	// DefaultLang is the fallback language of translation groups.
	DefaultLang string
}

// FS returns the project filesystem.
func (e *Env) FS() *fsys.FS {
	return e.Scanner.FS()
}

// Report records a problem found while scanning or generating.
func (e *Env) Report(ctx context.Context, err error) {
	e.Scanner.Report(ctx, err)
}

// ScanContext locates one type directory of one module.
type ScanContext struct {
	// ModuleDir is the module root, e.g. "src/mod_shop".
	ModuleDir string
	// TypeDir is the declaration directory, e.g. "src/mod_shop/@alias/uiComposites.uiComponents".
	TypeDir string
	// ItemKind is the part of the directory name after the type name, or the
	// type name itself.
	ItemKind string
}

// Handler is the capability every declaration type provides.
type Handler interface {
	registry.Handler
	ProcessDir(ctx context.Context, env *Env, sc ScanContext) error
}

// Beginner is implemented by handlers emitting code once per run.
type Beginner interface {
	BeginGenerate(ctx context.Context, env *Env, w *codegen.Writer) error
}

// ItemGenerator is implemented by handlers emitting code per registered item.
type ItemGenerator interface {
	GenerateItem(ctx context.Context, env *Env, w *codegen.Writer, key string, item registry.Item) error
}

// ModuleProcessor sees every module once, before its declarations are scanned.
type ModuleProcessor interface {
	BeginModule(ctx context.Context, env *Env, moduleDir string) error
	Generate(ctx context.Context, env *Env, w *codegen.Writer) error
}

// TypeSpec names a handler and its kind.
type TypeSpec struct {
	Name string `mapstructure:"name" json:"name" yaml:"name"`
	Kind string `mapstructure:"kind" json:"kind" yaml:"kind"`
}

// DefaultTypes is the type set used when configuration declares none.
func DefaultTypes() []TypeSpec {
	return []TypeSpec{
		{Name: "uiComponents", Kind: KindChunk},
		{Name: "schemes", Kind: KindChunk},
		{Name: "uiComposites", Kind: KindList},
		{Name: "events", Kind: KindList},
		{Name: "dataSources", Kind: KindDataSource},
		{Name: "shadCN", Kind: KindShadCN},
		{Name: "translations", Kind: KindTranslation},
		{Name: "types", Kind: KindTypes},
	}
}

// NewHandler builds the handler of a type.
func NewHandler(spec TypeSpec) (Handler, error) {
	switch strings.ToLower(spec.Kind) {
	case KindChunk:
		return NewChunkHandler(spec.Name), nil
	case KindList:
		return NewListHandler(spec.Name), nil
	case KindDataSource:
		return NewDataSourceHandler(spec.Name), nil
	case KindShadCN:
		return NewShadCNHandler(spec.Name), nil
	case KindTranslation:
		return NewTranslationHandler(spec.Name), nil
	case KindTypes:
		return NewTypeScriptTypeHandler(spec.Name), nil
	default:
		return nil, fmt.Errorf("unknown handler kind %q for type %s", spec.Kind, spec.Name)
	}
}

// NewHandlers builds one handler per type spec, keyed by type name.
func NewHandlers(specs []TypeSpec) (map[string]Handler, error) {
	handlers := make(map[string]Handler, len(specs))

	for _, spec := range specs {
		if _, exists := handlers[spec.Name]; exists {
			return nil, fmt.Errorf("type %s declared twice", spec.Name)
		}

		h, err := NewHandler(spec)
		if err != nil {
			return nil, err
		}
		handlers[spec.Name] = h
	}

	return handlers, nil
}

// SplitTypeDir splits "<typeName>.<itemKind>" into its parts. The kind
// defaults to the type name.
func SplitTypeDir(name string) (typeName, itemKind string) {
	typeName, itemKind, ok := strings.Cut(name, ".")
	if !ok || itemKind == "" {
		return typeName, typeName
	}
	return typeName, itemKind
}

// Describer is implemented by items able to summarize themselves for
// `jopilink list`.
type Describer interface {
	Describe() string
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
