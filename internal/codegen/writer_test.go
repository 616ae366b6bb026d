package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/jopilink/internal/fsys"
)

func newTestWriter(tsOnly bool) (*Writer, *fsys.FS) {
	fs := fsys.NewMemory()
	return NewWriter(fs, Options{
		SrcDir:         "src/_jopiLinkerGen",
		DistDir:        "dist/_jopiLinkerGen",
		TypeScriptOnly: tsOnly,
	}), fs
}

func TestToPathForImport(t *testing.T) {
	tests := []struct {
		input   string
		forDist bool
		want    string
	}{
		{"../../mod_a/button/index.tsx", false, "../../mod_a/button/index.tsx"},
		{"../../mod_a/button/index.tsx", true, "../../mod_a/button/index.js"},
		{"mod_a/serverInit.ts", true, "./mod_a/serverInit.js"},
		{"mod_a\\serverInit.ts", false, "./mod_a/serverInit.ts"},
		{"./jBundler_ifServer", true, "./jBundler_ifServer.js"},
		{"./fr-fr.ts", true, "./fr-fr.js"},
		{"../styles/theme.css", true, "../styles/theme.css"},
		{"./lib.js", true, "./lib.js"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ToPathForImport(tt.input, tt.forDist))
		})
	}
}

func TestWriteCodeFile(t *testing.T) {
	w, fs := newTestWriter(false)

	require.NoError(t, w.WriteCodeFile(CodeFile{
		InnerPath:   "uiComposites/menu",
		SrcContent:  `import I1 from "../../mod_a/x/index.tsx";`,
		DistContent: `import I1 from "../../mod_a/x/index.js";`,
		Declaration: "declare const list: any[]; export default list;",
	}))

	src, err := fs.ReadText("src/_jopiLinkerGen/uiComposites/menu.ts")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(src, Banner))
	assert.Contains(t, src, "index.tsx")

	dist, err := fs.ReadText("dist/_jopiLinkerGen/uiComposites/menu.js")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dist, Banner))
	assert.Contains(t, dist, "index.js")

	decl, err := fs.ReadText("dist/_jopiLinkerGen/uiComposites/menu.d.ts")
	require.NoError(t, err)
	assert.Contains(t, decl, "declare const list")

	assert.Equal(t, []string{
		"dist/_jopiLinkerGen/uiComposites/menu.d.ts",
		"dist/_jopiLinkerGen/uiComposites/menu.js",
		"src/_jopiLinkerGen/uiComposites/menu.ts",
	}, w.Written())
}

func TestWriteCodeFile_DistDefaultsToSrc(t *testing.T) {
	w, fs := newTestWriter(false)

	require.NoError(t, w.WriteCodeFile(CodeFile{InnerPath: "a", SrcContent: "export const x = 1;"}))

	dist, err := fs.ReadText("dist/_jopiLinkerGen/a.js")
	require.NoError(t, err)
	assert.Equal(t, Banner+"export const x = 1;", dist)
}

func TestWriteCodeFile_TypeScriptOnly(t *testing.T) {
	w, fs := newTestWriter(true)

	require.NoError(t, w.WriteCodeFile(CodeFile{InnerPath: "a", SrcContent: "x", Declaration: "y"}))

	assert.True(t, fs.IsFile("src/_jopiLinkerGen/a.ts"))
	assert.False(t, fs.Exists("dist/_jopiLinkerGen"))
	assert.True(t, w.IsTypeScriptOnly())
}

func TestPathHelpers(t *testing.T) {
	w, _ := newTestWriter(false)

	assert.Equal(t, "../../mod_a/@alias/uiComponents/button/index.tsx",
		w.RelativeImport("uiComponents", "src/mod_a/@alias/uiComponents/button/index.tsx", false))
	assert.Equal(t, "../mod_a/serverInit.ts", w.MakePathRelativeToOutput("src/mod_a/serverInit.ts"))
	assert.Equal(t, "../mod_a/serverInit.js", w.InstallImport("src/mod_a/serverInit.ts"))
	assert.Equal(t, "dist/mod_a/@alias/dataSources/users/index.js",
		w.CompiledPathFor("src/mod_a/@alias/dataSources/users/index.ts"))
}

func TestInstallFiles(t *testing.T) {
	w, fs := newTestWriter(false)

	w.AddToInstallFile(TargetServer, PartImports, `import {exposeRowDataSource} from "jopijs";`)
	w.AddToInstallFile(TargetServer, PartBody, `exposeRowDataSource("users", DS_1, {});`)
	w.AddToInstallFile(TargetServer, PartFooter, `onWebSiteCreated((webSite) => installDataSourcesServer(webSite));`)
	w.AddToInstallFile(TargetBrowser, PartImports, `import modUiInit1 from "../mod_a/uiInit.js";`)
	w.AddToInstallFile(TargetBrowser, PartFooter, `modUiInit1(registry);`)

	server := w.InstallContent(TargetServer)
	assert.Equal(t, `import {exposeRowDataSource} from "jopijs";

export default async function(registry, onWebSiteCreated) {
    exposeRowDataSource("users", DS_1, {});
    onWebSiteCreated((webSite) => installDataSourcesServer(webSite));
}
`, server)

	browser := w.InstallContent(TargetBrowser)
	assert.Equal(t, `import modUiInit1 from "../mod_a/uiInit.js";

export default function(registry) {
    modUiInit1(registry);
    registry.finalize();
    registry.events.sendEvent("app.init.ui", {myModule: registry});
}
`, browser)

	require.NoError(t, w.FinalizeInstallFiles())

	for _, p := range []string{
		"src/_jopiLinkerGen/installServer.ts",
		"dist/_jopiLinkerGen/installServer.js",
		"src/_jopiLinkerGen/installBrowser.ts",
		"dist/_jopiLinkerGen/installBrowser.js",
	} {
		content, err := fs.ReadText(p)
		require.NoError(t, err, p)
		assert.True(t, strings.HasPrefix(content, Banner), p)
	}
}

func TestEmptyBrowserInstallStillFinalizes(t *testing.T) {
	w, _ := newTestWriter(false)

	browser := w.InstallContent(TargetBrowser)
	assert.True(t, strings.HasSuffix(browser,
		"    registry.finalize();\n    registry.events.sendEvent(\"app.init.ui\", {myModule: registry});\n}\n"))
}

func TestClean(t *testing.T) {
	w, fs := newTestWriter(false)
	require.NoError(t, fs.WriteText("src/_jopiLinkerGen/stale.ts", ""))
	require.NoError(t, fs.WriteText("dist/_jopiLinkerGen/stale.js", ""))
	require.NoError(t, fs.WriteText("src/mod_a/keep.ts", ""))

	require.NoError(t, w.Clean())

	assert.False(t, fs.Exists("src/_jopiLinkerGen"))
	assert.False(t, fs.Exists("dist/_jopiLinkerGen"))
	assert.True(t, fs.IsFile("src/mod_a/keep.ts"))
}

func TestCommit(t *testing.T) {
	w, _ := newTestWriter(false)
	require.NoError(t, w.WriteCodeFile(CodeFile{InnerPath: "events/onLogin", SrcContent: "export default [];\n"}))

	disk := fsys.NewMemory()
	require.NoError(t, disk.WriteText("src/_jopiLinkerGen/stale.ts", ""))
	require.NoError(t, disk.WriteText("src/mod_a/keep.ts", "keep"))

	require.NoError(t, w.Commit(disk))

	assert.False(t, disk.Exists("src/_jopiLinkerGen/stale.ts"))
	assert.True(t, disk.IsFile("src/mod_a/keep.ts"))

	content, err := disk.ReadText("dist/_jopiLinkerGen/events/onLogin.js")
	require.NoError(t, err)
	assert.Equal(t, Banner+"export default [];\n", content)
}

func TestLiterals(t *testing.T) {
	assert.Equal(t, `"Hello \"you\""`, StringLiteral(`Hello "you"`))
	assert.Equal(t, `{"READ":["admin"],"WRITE":["editor"]}`, Literal(map[string]any{
		"WRITE": []any{"editor"},
		"READ":  []any{"admin"},
	}))
}
