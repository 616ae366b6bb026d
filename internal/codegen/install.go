package codegen

import (
	"fmt"
	"path"
	"strings"
)

// Target selects an install file.
type Target int

const (
	TargetServer Target = iota
	TargetBrowser
)

// String returns the name used in configuration and logs.
func (t Target) String() string {
	switch t {
	case TargetServer:
		return "server"
	case TargetBrowser:
		return "browser"
	default:
		return "unknown"
	}
}

// Part selects a section of an install file.
type Part int

const (
	PartImports Part = iota
	PartHeader
	PartBody
	PartFooter
)

// String returns the part name.
func (p Part) String() string {
	switch p {
	case PartImports:
		return "imports"
	case PartHeader:
		return "header"
	case PartBody:
		return "body"
	case PartFooter:
		return "footer"
	default:
		return "unknown"
	}
}

// Install file names, without extension.
const (
	InstallServerName  = "installServer"
	InstallBrowserName = "installBrowser"
)

const (
	serverSignature  = "export default async function(registry, onWebSiteCreated) {"
	browserSignature = "export default function(registry) {"
	indent           = "    "
)

// browserClosing always ends the browser install function.
var browserClosing = []string{
	"registry.finalize();",
	`registry.events.sendEvent("app.init.ui", {myModule: registry});`,
}

type installFile struct {
	target Target
	parts  map[Part][]string
}

func newInstallFile(target Target) *installFile {
	return &installFile{
		target: target,
		parts:  make(map[Part][]string),
	}
}

func (f *installFile) name() string {
	if f.target == TargetServer {
		return InstallServerName
	}
	return InstallBrowserName
}

// render concatenates imports, header, signature, body, footer and closing.
func (f *installFile) render() string {
	var b strings.Builder

	for _, line := range f.parts[PartImports] {
		b.WriteString(line)
		b.WriteString("\n")
	}

	for _, line := range f.parts[PartHeader] {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if f.target == TargetServer {
		b.WriteString(serverSignature)
	} else {
		b.WriteString(browserSignature)
	}
	b.WriteString("\n")

	body := append([]string{}, f.parts[PartBody]...)
	body = append(body, f.parts[PartFooter]...)
	if f.target == TargetBrowser {
		body = append(body, browserClosing...)
	}

	for _, line := range body {
		b.WriteString(indent)
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("}\n")

	return b.String()
}

// AddToInstallFile appends one fragment to a part of an install file. Body
// and footer fragments are statements of the install function and get
// indented when rendered.
func (w *Writer) AddToInstallFile(target Target, part Part, text string) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	f, ok := w.install[target]
	if !ok {
		return
	}

	f.parts[part] = append(f.parts[part], text)
}

// InstallContent renders an install file without banner.
func (w *Writer) InstallContent(target Target) string {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	f, ok := w.install[target]
	if !ok {
		return ""
	}

	return f.render()
}

// FinalizeInstallFiles writes both install files to both trees.
func (w *Writer) FinalizeInstallFiles() error {
	for _, target := range []Target{TargetServer, TargetBrowser} {
		f := w.install[target]
		content := w.InstallContent(target)

		if err := w.write(path.Join(w.opts.SrcDir, f.name()+".ts"), content); err != nil {
			return fmt.Errorf("%s install file: %w", target, err)
		}

		if w.opts.TypeScriptOnly {
			continue
		}

		if err := w.write(path.Join(w.opts.DistDir, f.name()+".js"), content); err != nil {
			return fmt.Errorf("%s install file: %w", target, err)
		}
	}

	return nil
}
