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
	"github.com/conneroisu/jopilink/internal/translation"
	"github.com/conneroisu/jopilink/internal/types"
)

const (
	langFileSuffix    = ".json"
	defaultLangSuffix = ".default"
)

// TranslationGroup is a translation bundle declared by one or more modules.
type TranslationGroup struct {
	handler registry.Handler
	Bundle  *translation.Bundle
	Path    string
}

// Handler implements registry.Item.
func (g *TranslationGroup) Handler() registry.Handler { return g.handler }

// ItemPath implements registry.Item.
func (g *TranslationGroup) ItemPath() string { return g.Path }

// Priority implements registry.Item.
func (g *TranslationGroup) Priority() types.PriorityLevel { return g.Bundle.Priority }

// Describe implements Describer.
func (g *TranslationGroup) Describe() string {
	return strings.Join(g.Bundle.LangCodes(), ", ")
}

// TranslationHandler compiles translation groups into typed accessor modules.
type TranslationHandler struct {
	typeName string
}

// NewTranslationHandler creates a translation handler.
func NewTranslationHandler(typeName string) *TranslationHandler {
	return &TranslationHandler{typeName: typeName}
}

// TypeName implements registry.Handler.
func (h *TranslationHandler) TypeName() string { return h.typeName }

// ProcessDir implements Handler.
func (h *TranslationHandler) ProcessDir(ctx context.Context, env *Env, sc ScanContext) error {
	groups, err := env.FS().ListDir(sc.TypeDir)
	if err != nil {
		return errors.NewIOError("cannot list translations", sc.TypeDir, err)
	}

	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !group.IsDir || scanner.IsHidden(group.Name) {
			continue
		}

		env.Report(ctx, h.processGroup(ctx, env, group))
	}

	return nil
}

func (h *TranslationHandler) processGroup(ctx context.Context, env *Env, group types.DirItem) error {
	infos, err := env.Scanner.ExtractInfos(ctx, group.FullPath, scanner.Rules{})
	if err != nil {
		return err
	}

	if err := env.Scanner.EnsurePriority(group.FullPath, infos); err != nil {
		return err
	}

	entries, err := env.FS().ListDir(group.FullPath)
	if err != nil {
		return errors.NewIOError("cannot list translation group", group.FullPath, err)
	}

	bundle := &translation.Bundle{
		Group:    group.Name,
		Langs:    make(map[string]map[string]string),
		Priority: infos.Priority,
	}

	for _, entry := range entries {
		if !entry.IsFile {
			continue
		}

		switch {
		case strings.HasSuffix(entry.Name, defaultLangSuffix):
			lang, err := translation.NormalizeLang(strings.TrimSuffix(entry.Name, defaultLangSuffix))
			if err != nil {
				env.Report(ctx, errors.NewContentWarning(err.Error(), entry.FullPath))
				continue
			}
			bundle.DefaultLang = lang

		case strings.HasSuffix(entry.Name, langFileSuffix):
			lang, err := translation.NormalizeLang(strings.TrimSuffix(entry.Name, langFileSuffix))
			if err != nil {
				env.Report(ctx, errors.NewContentWarning(err.Error(), entry.FullPath))
				continue
			}

			messages, ok := h.readLangFile(ctx, env, entry.FullPath)
			if !ok {
				continue
			}

			// Two files may differ only by case; both feed the same language.
			if existing, found := bundle.Langs[lang]; found {
				for k, v := range messages {
					existing[k] = v
				}
				continue
			}
			bundle.Langs[lang] = messages
		}
	}

	item := &TranslationGroup{handler: h, Bundle: bundle, Path: group.FullPath}

	return env.Registry.AddItem(registry.Key(h.typeName, group.Name), item)
}

func (h *TranslationHandler) readLangFile(ctx context.Context, env *Env, file string) (map[string]string, bool) {
	content, err := env.FS().ReadText(file)
	if err != nil {
		env.Report(ctx, errors.NewContentWarning("cannot read translation file", file).WithCause(err))
		return nil, false
	}

	messages, warnings, err := translation.ParseLangFile([]byte(content))
	if err != nil {
		env.Report(ctx, errors.NewContentWarning(err.Error(), file))
		return nil, false
	}

	for _, warning := range warnings {
		env.Report(ctx, errors.NewContentWarning(warning, file))
	}

	return messages, true
}

// MergeItem implements registry.Merger.
func (h *TranslationHandler) MergeItem(key string, existing, incoming registry.Item) (registry.Item, error) {
	current, ok1 := existing.(*TranslationGroup)
	next, ok2 := incoming.(*TranslationGroup)
	if !ok1 || !ok2 {
		return nil, errors.ErrTypeMismatch(key+" is not a translation group", incoming.ItemPath(), existing.ItemPath())
	}

	merged := translation.Merge(current.Bundle, next.Bundle)

	itemPath := current.Path
	if next.Bundle.Priority > current.Bundle.Priority {
		itemPath = next.Path
	}

	return &TranslationGroup{handler: h, Bundle: merged, Path: itemPath}, nil
}

// GenerateItem implements ItemGenerator.
func (h *TranslationHandler) GenerateItem(ctx context.Context, env *Env, w *codegen.Writer, key string, item registry.Item) error {
	group, ok := item.(*TranslationGroup)
	if !ok {
		return errors.NewInternalError("unexpected item for "+key, nil)
	}

	bundle := group.Bundle
	innerDir := path.Join(h.typeName, bundle.Group)
	langs := bundle.LangCodes()

	for _, lang := range langs {
		messages := bundle.Langs[lang]
		if err := w.WriteCodeFile(codegen.CodeFile{
			InnerPath:   path.Join(innerDir, lang),
			SrcContent:  translation.Compile(lang, messages, true),
			DistContent: translation.Compile(lang, messages, false),
		}); err != nil {
			return err
		}
	}

	if len(langs) == 0 {
		return nil
	}

	defaultLang := bundle.EffectiveDefaultLang(env.DefaultLang)
	if _, ok := bundle.Langs[defaultLang]; !ok {
		env.Report(ctx, errors.NewContentWarning(
			fmt.Sprintf("default language %s has no translation file, using %s", defaultLang, langs[0]),
			group.Path))
		defaultLang = langs[0]
	}

	return w.WriteCodeFile(codegen.CodeFile{
		InnerPath:   path.Join(innerDir, "default"),
		SrcContent:  translation.DefaultModule(defaultLang, false),
		DistContent: translation.DefaultModule(defaultLang, true),
	})
}
