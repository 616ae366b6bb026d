package arobase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/conneroisu/jopilink/internal/codegen"
)

// ModInstaller collects the init files of every module and calls them from
// the install files.
type ModInstaller struct {
	uiInits     []string
	serverInits []string
	mutex       sync.Mutex
}

// NewModInstaller creates an empty installer.
func NewModInstaller() *ModInstaller {
	return &ModInstaller{}
}

// BeginModule implements ModuleProcessor.
func (m *ModInstaller) BeginModule(_ context.Context, env *Env, moduleDir string) error {
	uiInit, hasUI := env.Scanner.ResolveFile(moduleDir, "uiInit.tsx", "uiInit.ts")
	serverInit, hasServer := env.Scanner.ResolveFile(moduleDir, "serverInit.tsx", "serverInit.ts")

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if hasUI {
		m.uiInits = append(m.uiInits, uiInit)
	}
	if hasServer {
		m.serverInits = append(m.serverInits, serverInit)
	}

	return nil
}

// Generate implements ModuleProcessor.
func (m *ModInstaller) Generate(_ context.Context, _ *Env, w *codegen.Writer) error {
	m.mutex.Lock()
	uiInits := append([]string(nil), m.uiInits...)
	serverInits := append([]string(nil), m.serverInits...)
	m.mutex.Unlock()

	sort.Strings(uiInits)
	sort.Strings(serverInits)

	for i, file := range uiInits {
		w.AddToInstallFile(codegen.TargetBrowser, codegen.PartImports,
			fmt.Sprintf("import modUiInit%d from %s;", i, codegen.StringLiteral(w.InstallImport(file))))
		w.AddToInstallFile(codegen.TargetBrowser, codegen.PartFooter,
			fmt.Sprintf("modUiInit%d(registry);", i))
	}

	for i, file := range serverInits {
		w.AddToInstallFile(codegen.TargetServer, codegen.PartImports,
			fmt.Sprintf("import modServerInit%d from %s;", i, codegen.StringLiteral(w.InstallImport(file))))
		w.AddToInstallFile(codegen.TargetServer, codegen.PartBody,
			fmt.Sprintf("await modServerInit%d(registry);", i))
	}

	return nil
}
