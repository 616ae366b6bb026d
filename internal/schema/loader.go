// Package schema extracts the schema of a data source implementation.
//
// The browser stub generated for a data source embeds the schema of the real
// implementation. Reading it is isolated behind Loader so the linker never
// depends on a particular way of loading JavaScript: a companion manifest, an
// external command, or both chained.
package schema

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path"

	"github.com/kballard/go-shellquote"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/conneroisu/jopilink/internal/fsys"
)

// ErrNoSchema is returned by a loader that has nothing to say about a data
// source, letting a ChainLoader try the next one.
var ErrNoSchema = errors.New("no schema available")

// DefaultManifestName is the companion manifest read by ManifestLoader.
const DefaultManifestName = "schema.json"

var (
	descPath = jp.C("desc")
	metaPath = jp.C("schemaMeta")
)

// Request identifies the data source to introspect.
type Request struct {
	Name string
	// EntryPoint is the project relative source file.
	EntryPoint string
	// CompiledPath is the module to load: the compiled file, or the source
	// file for TypeScript-only projects.
	CompiledPath string
	// ItemPath is the declaration directory.
	ItemPath string
}

// Schema is the result of schema.toJson().
type Schema struct {
	Desc any
	Meta any
}

// Loader obtains the schema of a data source.
type Loader interface {
	Load(ctx context.Context, req Request) (*Schema, error)
}

// Parse decodes a {"desc": ..., "schemaMeta": ...} document.
func Parse(data []byte) (*Schema, error) {
	doc, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}

	if _, ok := doc.(map[string]any); !ok {
		return nil, fmt.Errorf("schema must be a JSON object")
	}

	desc := descPath.First(doc)
	if desc == nil {
		return nil, fmt.Errorf("schema has no desc")
	}

	return &Schema{Desc: desc, Meta: metaPath.First(doc)}, nil
}

// ManifestLoader reads a JSON manifest stored next to the data source.
type ManifestLoader struct {
	FS   *fsys.FS
	Name string
}

// Load implements Loader.
func (l *ManifestLoader) Load(_ context.Context, req Request) (*Schema, error) {
	name := l.Name
	if name == "" {
		name = DefaultManifestName
	}

	manifest := path.Join(req.ItemPath, name)
	if !l.FS.IsFile(manifest) {
		return nil, ErrNoSchema
	}

	content, err := l.FS.ReadText(manifest)
	if err != nil {
		return nil, err
	}

	s, err := Parse([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", manifest, err)
	}

	return s, nil
}

// CommandLoader runs an external command with the module path appended and
// parses its standard output.
type CommandLoader struct {
	// Command is split like a shell would, e.g. `bun run scripts/dump-schema.ts`.
	Command string
	// Dir is the working directory, the project root.
	Dir string
	// Resolve turns a project relative path into the path given to the command.
	Resolve func(p string) string
}

// Load implements Loader.
func (l *CommandLoader) Load(ctx context.Context, req Request) (*Schema, error) {
	if l.Command == "" {
		return nil, ErrNoSchema
	}

	args, err := shellquote.Split(l.Command)
	if err != nil {
		return nil, fmt.Errorf("invalid schema command: %w", err)
	}
	if len(args) == 0 {
		return nil, ErrNoSchema
	}

	target := req.CompiledPath
	if l.Resolve != nil {
		target = l.Resolve(target)
	}
	args = append(args, target)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = l.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("schema command failed: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}

	return Parse(stdout.Bytes())
}

// ChainLoader asks each loader in turn; the first answer other than
// ErrNoSchema wins.
type ChainLoader []Loader

// Load implements Loader.
func (c ChainLoader) Load(ctx context.Context, req Request) (*Schema, error) {
	for _, loader := range c {
		s, err := loader.Load(ctx, req)
		if errors.Is(err, ErrNoSchema) {
			continue
		}
		return s, err
	}

	return nil, ErrNoSchema
}

// StaticLoader serves schemas keyed by data source name.
type StaticLoader map[string]*Schema

// Load implements Loader.
func (s StaticLoader) Load(_ context.Context, req Request) (*Schema, error) {
	if schema, ok := s[req.Name]; ok {
		return schema, nil
	}
	return nil, ErrNoSchema
}
