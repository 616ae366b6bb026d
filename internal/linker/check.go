package linker

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/conneroisu/jopilink/internal/errors"
	"github.com/conneroisu/jopilink/internal/fsys"
)

// FileDiff is a generated file whose content on disk is out of date.
type FileDiff struct {
	Path string `json:"path" yaml:"path"`
	// Diff is a line diff from the disk content to the expected content.
	Diff string `json:"diff" yaml:"diff"`
}

// CheckResult compares what a generation would write with the disk.
type CheckResult struct {
	Generation *Result
	// Changed files exist on disk with another content.
	Changed []FileDiff
	// Missing files would be generated but do not exist on disk.
	Missing []string
	// Stale files exist in the output trees but would not be generated.
	Stale []string
	// Pending lists source files a generation would create or rename, such
	// as placeholder directories and synthesized priority sentinels.
	Pending []string
}

// UpToDate reports whether a generation would change nothing.
func (c *CheckResult) UpToDate() bool {
	return c.Generation.Success &&
		len(c.Changed) == 0 && len(c.Missing) == 0 &&
		len(c.Stale) == 0 && len(c.Pending) == 0
}

// Check runs a generation against an in-memory copy of the project and
// compares the result with the project filesystem, which is never modified.
func (l *Linker) Check(ctx context.Context) (*CheckResult, error) {
	disk := l.fs

	sources, err := l.sourceFiles(disk)
	if err != nil {
		return nil, err
	}

	mem := fsys.NewMemory()
	for _, file := range sources {
		content, err := disk.ReadText(file)
		if err != nil {
			return nil, errors.NewIOError("cannot read source file", file, err)
		}
		if err := mem.WriteText(file, content); err != nil {
			return nil, errors.NewIOError("cannot copy source file", file, err)
		}
	}

	dry := &Linker{
		config: l.config,
		fs:     mem,
		logger: l.logger,
		schema: l.schema,
		extra:  l.extra,
	}
	if !l.customSchema {
		dry.schema = newSchemaLoader(l.config, mem)
	}

	generation, err := dry.Generate(ctx)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{Generation: generation}
	if !generation.Success {
		return result, nil
	}

	after, err := dry.sourceFiles(mem)
	if err != nil {
		return nil, err
	}
	result.Pending = symmetricDifference(sources, after)

	expected := make(map[string]bool, len(generation.Written))
	for _, file := range generation.Written {
		expected[file] = true

		if !disk.IsFile(file) {
			result.Missing = append(result.Missing, file)
			continue
		}

		want, err := mem.ReadText(file)
		if err != nil {
			return nil, errors.NewIOError("cannot read generated file", file, err)
		}
		got, err := disk.ReadText(file)
		if err != nil {
			return nil, errors.NewIOError("cannot read output file", file, err)
		}

		if got != want {
			result.Changed = append(result.Changed, FileDiff{Path: file, Diff: lineDiff(got, want)})
		}
	}

	for _, dir := range l.outputDirs() {
		files, err := disk.Files(dir)
		if err != nil {
			return nil, errors.NewIOError("cannot list output directory", dir, err)
		}
		for _, file := range files {
			if !expected[file] {
				result.Stale = append(result.Stale, file)
			}
		}
	}

	sort.Strings(result.Stale)

	return result, nil
}

func (l *Linker) outputDirs() []string {
	dirs := []string{l.config.Output.SrcDir}
	if !l.config.Output.TypeScriptOnly {
		dirs = append(dirs, l.config.Output.DistDir)
	}
	return dirs
}

// sourceFiles lists the files of the modules directory outside of the output
// trees.
func (l *Linker) sourceFiles(fs *fsys.FS) ([]string, error) {
	files, err := fs.Files(l.config.Project.ModulesDir)
	if err != nil {
		return nil, errors.NewIOError("cannot list modules", l.config.Project.ModulesDir, err)
	}

	outputs := []string{l.config.Output.SrcDir, l.config.Output.DistDir}

	kept := files[:0]
	for _, file := range files {
		if !isUnder(file, outputs) {
			kept = append(kept, file)
		}
	}

	return kept, nil
}

func isUnder(file string, dirs []string) bool {
	for _, dir := range dirs {
		dir = path.Clean(dir)
		if file == dir || strings.HasPrefix(file, dir+"/") {
			return true
		}
	}
	return false
}

// symmetricDifference returns the sorted entries present in only one of a
// and b.
func symmetricDifference(a, b []string) []string {
	seen := make(map[string]int, len(a)+len(b))
	for _, s := range a {
		seen[s] |= 1
	}
	for _, s := range b {
		seen[s] |= 2
	}

	var diff []string
	for s, mask := range seen {
		if mask != 3 {
			diff = append(diff, s)
		}
	}
	sort.Strings(diff)

	return diff
}

// lineDiff renders a line based diff, prefixing removed lines with "-" and
// added ones with "+".
func lineDiff(from, to string) string {
	dmp := diffmatchpatch.New()

	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		default:
			continue
		}

		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteString("\n")
			}
		}
	}

	return sb.String()
}
