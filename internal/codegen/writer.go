// Package codegen emits the generated TypeScript and JavaScript trees.
//
// Every generated module exists twice: "<src_dir>/<inner>.ts", importable as
// TypeScript source, and "<dist_dir>/<inner>.js", importable from the compiled
// output. Both share the same logical exports; only their import specifiers
// differ, and ToPathForImport is the single place where they are rewritten.
package codegen

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/conneroisu/jopilink/internal/errors"
	"github.com/conneroisu/jopilink/internal/fsys"
)

// Banner starts every generated file.
const Banner = "// Generated by jopilink. DO NOT EDIT.\n// Changes are lost on the next generation, edit the declaration directories instead.\n\n"

// Options configures the output trees.
type Options struct {
	// SrcDir receives the TypeScript tree, e.g. "src/_jopiLinkerGen".
	SrcDir string
	// DistDir receives the JavaScript tree, e.g. "dist/_jopiLinkerGen".
	DistDir string
	// TypeScriptOnly skips the JavaScript tree.
	TypeScriptOnly bool
}

// CodeFile is one generated module.
type CodeFile struct {
	// InnerPath is the path inside the output trees, without extension.
	InnerPath string
	// SrcContent is written to the TypeScript tree.
	SrcContent string
	// DistContent is written to the JavaScript tree. Empty means SrcContent.
	DistContent string
	// Declaration, when set, is written as a .d.ts next to the JavaScript file.
	Declaration string
}

// Writer writes generated files and accumulates the install files.
type Writer struct {
	fs      *fsys.FS
	opts    Options
	install map[Target]*installFile
	written []string
	mutex   sync.Mutex
}

// NewWriter creates a writer over fs.
func NewWriter(fs *fsys.FS, opts Options) *Writer {
	return &Writer{
		fs:   fs,
		opts: opts,
		install: map[Target]*installFile{
			TargetServer:  newInstallFile(TargetServer),
			TargetBrowser: newInstallFile(TargetBrowser),
		},
	}
}

// SrcDir returns the TypeScript output root.
func (w *Writer) SrcDir() string {
	return w.opts.SrcDir
}

// DistDir returns the JavaScript output root.
func (w *Writer) DistDir() string {
	return w.opts.DistDir
}

// IsTypeScriptOnly reports whether the JavaScript tree is skipped.
func (w *Writer) IsTypeScriptOnly() bool {
	return w.opts.TypeScriptOnly
}

// Clean removes both output trees.
func (w *Writer) Clean() error {
	for _, dir := range []string{w.opts.SrcDir, w.opts.DistDir} {
		if err := w.fs.RemoveAll(dir); err != nil {
			return errors.NewIOError("cannot clean output directory", dir, err)
		}
	}

	return nil
}

// WriteCodeFile writes f to both trees.
func (w *Writer) WriteCodeFile(f CodeFile) error {
	if f.InnerPath == "" {
		return errors.NewInternalError("generated file without path", nil)
	}

	distContent := f.DistContent
	if distContent == "" {
		distContent = f.SrcContent
	}

	if err := w.write(path.Join(w.opts.SrcDir, f.InnerPath+".ts"), f.SrcContent); err != nil {
		return err
	}

	if w.opts.TypeScriptOnly {
		return nil
	}

	if err := w.write(path.Join(w.opts.DistDir, f.InnerPath+".js"), distContent); err != nil {
		return err
	}

	if f.Declaration != "" {
		return w.write(path.Join(w.opts.DistDir, f.InnerPath+".d.ts"), f.Declaration)
	}

	return nil
}

func (w *Writer) write(p, content string) error {
	if err := w.fs.WriteText(p, Banner+content); err != nil {
		return errors.NewIOError("cannot write generated file", p, err)
	}

	w.mutex.Lock()
	w.written = append(w.written, p)
	w.mutex.Unlock()

	return nil
}

// Commit replaces the output trees of dst with the files written so far.
// Writers staging into memory call it once the run is known to be good.
func (w *Writer) Commit(dst *fsys.FS) error {
	if err := NewWriter(dst, w.opts).Clean(); err != nil {
		return err
	}

	for _, p := range w.Written() {
		content, err := w.fs.ReadText(p)
		if err != nil {
			return errors.NewIOError("cannot read staged file", p, err)
		}
		if err := dst.WriteText(p, content); err != nil {
			return errors.NewIOError("cannot write generated file", p, err)
		}
	}

	return nil
}

// Written returns every file written so far, sorted.
func (w *Writer) Written() []string {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	files := make([]string, len(w.written))
	copy(files, w.written)
	sort.Strings(files)

	return files
}

// ToPathForImport turns a relative filesystem path into an import specifier.
// Separators become '/', a "./" prefix is forced, and for the JavaScript tree
// ".ts", ".tsx" or a missing extension become ".js".
func ToPathForImport(p string, forDist bool) string {
	p = strings.ReplaceAll(p, "\\", "/")

	if !strings.HasPrefix(p, "./") && !strings.HasPrefix(p, "../") && !strings.HasPrefix(p, "/") {
		p = "./" + p
	}

	if !forDist {
		return p
	}

	switch ext := path.Ext(p); ext {
	case ".ts", ".tsx":
		return strings.TrimSuffix(p, ext) + ".js"
	case "":
		return p + ".js"
	default:
		return p
	}
}

// ToPathForImport applies the package level rewrite.
func (w *Writer) ToPathForImport(p string, forDist bool) string {
	return ToPathForImport(p, forDist)
}

// RelativeImport returns the specifier importing file from a generated module
// living in innerDir.
func (w *Writer) RelativeImport(innerDir, file string, forDist bool) string {
	return ToPathForImport(fsys.Rel(path.Join(w.opts.SrcDir, innerDir), file), forDist)
}

// MakePathRelativeToOutput returns file relative to the output root, where the
// install files live.
func (w *Writer) MakePathRelativeToOutput(file string) string {
	return fsys.Rel(w.opts.SrcDir, file)
}

// InstallImport returns the specifier used by the install files to import
// file. Both install variants share it: the JavaScript form unless the
// project is TypeScript only.
func (w *Writer) InstallImport(file string) string {
	return ToPathForImport(w.MakePathRelativeToOutput(file), !w.opts.TypeScriptOnly)
}

// CompiledPathFor maps a source file to its compiled counterpart, assuming the
// distribution tree mirrors the source tree the way the output roots do.
func (w *Writer) CompiledPathFor(file string) string {
	srcRoot := path.Dir(w.opts.SrcDir)
	distRoot := path.Dir(w.opts.DistDir)

	rel := fsys.Rel(srcRoot, file)
	compiled := path.Join(distRoot, rel)

	if ext := path.Ext(compiled); ext == ".ts" || ext == ".tsx" {
		compiled = strings.TrimSuffix(compiled, ext) + ".js"
	}

	return compiled
}

// String returns a short description used in logs.
func (w *Writer) String() string {
	return fmt.Sprintf("codegen(src=%s, dist=%s, tsOnly=%t)", w.opts.SrcDir, w.opts.DistDir, w.opts.TypeScriptOnly)
}
