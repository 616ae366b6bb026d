// Package linker runs a whole generation: it discovers the modules of a
// project, lets every declaration type scan its directories into one shared
// registry, and, when no declaration error was found, regenerates the output
// trees and the install files.
package linker

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/jopilink/internal/arobase"
	"github.com/conneroisu/jopilink/internal/codegen"
	"github.com/conneroisu/jopilink/internal/config"
	"github.com/conneroisu/jopilink/internal/errors"
	"github.com/conneroisu/jopilink/internal/events"
	"github.com/conneroisu/jopilink/internal/fsys"
	"github.com/conneroisu/jopilink/internal/logging"
	"github.com/conneroisu/jopilink/internal/registry"
	"github.com/conneroisu/jopilink/internal/scanner"
	"github.com/conneroisu/jopilink/internal/schema"
)

// Options overrides the collaborators derived from configuration.
type Options struct {
	// FS is the project filesystem. Defaults to the OS filesystem rooted at
	// project.root.
	FS *fsys.FS
	// Logger defaults to a no-op logger.
	Logger logging.Logger
	// Schema defaults to the manifest loader, chained with the schema command
	// when one is configured.
	Schema schema.Loader
	// Subscribe registers extra admission listeners before the scan starts.
	Subscribe func(bus *events.Bus)
}

// Entry describes one registered item.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Type        string `json:"type" yaml:"type"`
	Name        string `json:"name" yaml:"name"`
	Path        string `json:"path" yaml:"path"`
	Priority    string `json:"priority" yaml:"priority"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Result contains the result of a scan or a generation.
type Result struct {
	Duration time.Duration
	Modules  []string
	Entries  []Entry
	// Written lists the generated files, empty for a scan.
	Written  []string
	Errors   []error
	Warnings []error
	Success  bool
}

// Err returns the declaration errors as a single error, or nil.
func (r *Result) Err() error {
	switch len(r.Errors) {
	case 0:
		return nil
	case 1:
		return r.Errors[0]
	default:
		return &errors.Collection{Errors: r.Errors}
	}
}

// Linker links the modules of one project.
type Linker struct {
	config *config.Config
	fs     *fsys.FS
	logger logging.Logger
	schema schema.Loader
	extra  func(bus *events.Bus)

	customSchema bool
}

// New creates a linker for cfg.
func New(cfg *config.Config, opts Options) *Linker {
	l := &Linker{
		config: cfg,
		fs:     opts.FS,
		logger: opts.Logger,
		schema: opts.Schema,
		extra:  opts.Subscribe,

		customSchema: opts.Schema != nil,
	}

	if l.fs == nil {
		l.fs = fsys.NewOS(cfg.Project.Root)
	}
	if l.logger == nil {
		l.logger = logging.NopLogger{}
	}
	l.logger = l.logger.WithComponent("linker")

	if l.schema == nil {
		l.schema = newSchemaLoader(cfg, l.fs)
	}

	return l
}

func newSchemaLoader(cfg *config.Config, fs *fsys.FS) schema.Loader {
	manifest := &schema.ManifestLoader{FS: fs, Name: cfg.DataSources.SchemaManifest}
	if cfg.DataSources.SchemaCommand == "" {
		return manifest
	}

	root, err := filepath.Abs(cfg.Project.Root)
	if err != nil {
		root = cfg.Project.Root
	}

	return schema.ChainLoader{
		manifest,
		&schema.CommandLoader{
			Command: cfg.DataSources.SchemaCommand,
			Dir:     root,
			Resolve: func(p string) string {
				return filepath.Join(root, filepath.FromSlash(p))
			},
		},
	}
}

// session holds the state of one run.
type session struct {
	env       *arobase.Env
	collector *errors.Collector
	handlers  map[string]arobase.Handler
	installer *arobase.ModInstaller
}

func (l *Linker) newSession() (*session, error) {
	handlers, err := arobase.NewHandlers(l.config.Linker.Types)
	if err != nil {
		return nil, errors.NewConfigError(err.Error())
	}

	collector := errors.NewCollector()
	bus := events.NewBus()

	typeNames := make([]string, 0, len(handlers))
	for name := range handlers {
		typeNames = append(typeNames, name)
	}
	sort.Strings(typeNames)

	arobase.NewExclusions(l.config.Linker.Exclude).Subscribe(bus, typeNames)
	if l.extra != nil {
		l.extra(bus)
	}

	return &session{
		env: &arobase.Env{
			Registry:    registry.New(),
			Bus:         bus,
			Scanner:     scanner.New(l.fs, collector, l.logger.WithComponent("scanner")),
			Schema:      l.schema,
			Logger:      l.logger,
			DefaultLang: l.config.Translations.DefaultLang,
		},
		collector: collector,
		handlers:  handlers,
		installer: arobase.NewModInstaller(),
	}, nil
}

// Scan fills the registry without generating anything.
func (l *Linker) Scan(ctx context.Context) (*Result, error) {
	start := time.Now()
	perf := logging.StartOperation(l.logger, "scan")

	s, err := l.newSession()
	if err != nil {
		return nil, err
	}

	modules, err := l.scanModules(ctx, s)
	if err != nil {
		perf.EndWithError(ctx, err)
		return nil, err
	}

	perf.End(ctx)

	return l.result(s, modules, nil, start), nil
}

// Generate scans the project then regenerates the output trees. Nothing is
// written when a declaration error was found.
func (l *Linker) Generate(ctx context.Context) (*Result, error) {
	start := time.Now()
	perf := logging.StartOperation(l.logger, "generate")

	s, err := l.newSession()
	if err != nil {
		return nil, err
	}

	modules, err := l.scanModules(ctx, s)
	if err != nil {
		perf.EndWithError(ctx, err)
		return nil, err
	}

	if s.collector.HasErrors() {
		l.logger.Info(ctx, "Declaration errors found, output left untouched",
			"errors", len(s.collector.Errors()))
		return l.result(s, modules, nil, start), nil
	}

	// Staged in memory so errors raised while generating keep the previous
	// output in place.
	w := codegen.NewWriter(fsys.NewMemory(), codegen.Options{
		SrcDir:         l.config.Output.SrcDir,
		DistDir:        l.config.Output.DistDir,
		TypeScriptOnly: l.config.Output.TypeScriptOnly,
	})

	if err := l.generate(ctx, s, w); err != nil {
		perf.EndWithError(ctx, err)
		return nil, err
	}

	if s.collector.HasErrors() {
		l.logger.Info(ctx, "Declaration errors found while generating, output left untouched",
			"errors", len(s.collector.Errors()))
		perf.End(ctx)
		return l.result(s, modules, nil, start), nil
	}

	if err := w.Commit(l.fs); err != nil {
		perf.EndWithError(ctx, err)
		return nil, err
	}

	perf.End(ctx)

	return l.result(s, modules, w.Written(), start), nil
}

// discoverModules returns the module directories, sorted.
func (l *Linker) discoverModules() ([]string, error) {
	modulesDir := l.config.Project.ModulesDir
	if !l.fs.IsDir(modulesDir) {
		return nil, errors.NewIOError("modules directory not found", modulesDir, nil)
	}

	entries, err := l.fs.ListDir(modulesDir)
	if err != nil {
		return nil, errors.NewIOError("cannot list modules", modulesDir, err)
	}

	var modules []string
	for _, entry := range entries {
		if !entry.IsDir || scanner.IsHidden(entry.Name) {
			continue
		}
		if strings.HasPrefix(entry.Name, l.config.Project.ModulePrefix) {
			modules = append(modules, entry.FullPath)
		}
	}

	return modules, nil
}

func (l *Linker) scanModules(ctx context.Context, s *session) ([]string, error) {
	modules, err := l.discoverModules()
	if err != nil {
		return nil, err
	}

	l.logger.Debug(ctx, "Modules discovered", "count", len(modules))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.config.Linker.Concurrency)

	for _, moduleDir := range modules {
		moduleDir := moduleDir
		g.Go(func() error {
			return l.scanModule(gctx, s, moduleDir)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return modules, nil
}

func (l *Linker) scanModule(ctx context.Context, s *session, moduleDir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.installer.BeginModule(ctx, s.env, moduleDir); err != nil {
		s.env.Report(ctx, err)
	}

	aliasDir := path.Join(moduleDir, l.config.Linker.AliasDir)
	if !l.fs.IsDir(aliasDir) {
		return nil
	}

	entries, err := l.fs.ListDir(aliasDir)
	if err != nil {
		s.env.Report(ctx, errors.NewIOError("cannot list declarations", aliasDir, err))
		return nil
	}

	for _, entry := range entries {
		if !entry.IsDir || scanner.IsHidden(entry.Name) {
			continue
		}

		typeName, itemKind := arobase.SplitTypeDir(entry.Name)
		h, ok := s.handlers[typeName]
		if !ok {
			s.env.Report(ctx, errors.NewDeclarationError(errors.ErrCodeUnknownType,
				fmt.Sprintf("unknown declaration type %s", typeName), entry.FullPath))
			continue
		}

		err := h.ProcessDir(ctx, s.env, arobase.ScanContext{
			ModuleDir: moduleDir,
			TypeDir:   entry.FullPath,
			ItemKind:  itemKind,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			s.env.Report(ctx, err)
		}
	}

	return nil
}

// generate emits every handler's output in type name order, then the module
// installer and the install files.
func (l *Linker) generate(ctx context.Context, s *session, w *codegen.Writer) error {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		h := s.handlers[name]

		if b, ok := h.(arobase.Beginner); ok {
			if err := b.BeginGenerate(ctx, s.env, w); err != nil {
				s.env.Report(ctx, err)
			}
		}

		g, ok := h.(arobase.ItemGenerator)
		if !ok {
			continue
		}

		for _, entry := range s.env.Registry.ItemsOf(h) {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := g.GenerateItem(ctx, s.env, w, entry.Key, entry.Item); err != nil {
				s.env.Report(ctx, err)
			}
		}
	}

	if err := s.installer.Generate(ctx, s.env, w); err != nil {
		s.env.Report(ctx, err)
	}

	return w.FinalizeInstallFiles()
}

func (l *Linker) result(s *session, modules, written []string, start time.Time) *Result {
	keys := s.env.Registry.Keys()
	entries := make([]Entry, 0, len(keys))

	for _, key := range keys {
		item, ok := s.env.Registry.GetItem(key)
		if !ok {
			continue
		}

		typeName, name, _ := registry.SplitKey(key)
		entry := Entry{
			Key:      key,
			Type:     typeName,
			Name:     name,
			Path:     item.ItemPath(),
			Priority: item.Priority().String(),
		}
		if d, ok := item.(arobase.Describer); ok {
			entry.Description = d.Describe()
		}
		entries = append(entries, entry)
	}

	result := &Result{
		Duration: time.Since(start),
		Modules:  modules,
		Entries:  entries,
		Written:  written,
		Errors:   s.collector.Errors(),
		Warnings: s.collector.Warnings(),
	}
	result.Success = len(result.Errors) == 0

	return result
}
