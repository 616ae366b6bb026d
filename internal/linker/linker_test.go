package linker

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/jopilink/internal/codegen"
	"github.com/conneroisu/jopilink/internal/config"
	"github.com/conneroisu/jopilink/internal/errors"
	"github.com/conneroisu/jopilink/internal/events"
	"github.com/conneroisu/jopilink/internal/fsys"
	"github.com/conneroisu/jopilink/internal/schema"
)

var shopProject = map[string]string{
	"src/mod_a/uiInit.tsx":                                               "export default function() {}",
	"src/mod_a/@alias/uiComponents/a/index.tsx":                          "",
	"src/mod_a/@alias/uiComponents/b/index.tsx":                          "",
	"src/mod_a/@alias/uiComposites.uiComponents/toolbar/b/b.ref":         "",
	"src/mod_b/serverInit.ts":                                            "export default async function() {}",
	"src/mod_b/@alias/uiComposites.uiComponents/toolbar/a/a.ref":         "",
	"src/mod_b/@alias/uiComposites.uiComponents/toolbar/a/high.priority": "",
	"src/mod_b/@alias/translations/common/en-us.json":                    `{"hello": "Hello"}`,
	"src/shared/@alias/uiComponents/ignored/index.tsx":                   "",
	"src/.mod_hidden/@alias/uiComponents/ignored/index.tsx":              "",
}

func newProject(t *testing.T, files map[string]string) (*fsys.FS, *config.Config) {
	t.Helper()

	fs := fsys.NewMemory()
	for p, content := range files {
		require.NoError(t, fs.WriteText(p, content))
	}

	return fs, config.Default()
}

func newLinker(fs *fsys.FS, cfg *config.Config) *Linker {
	return New(cfg, Options{FS: fs, Schema: schema.StaticLoader{}})
}

func readGenerated(t *testing.T, fs *fsys.FS, p string) string {
	t.Helper()

	content, err := fs.ReadText(p)
	require.NoError(t, err, p)

	return strings.TrimPrefix(content, codegen.Banner)
}

func TestGenerate(t *testing.T) {
	fs, cfg := newProject(t, shopProject)

	result, err := newLinker(fs, cfg).Generate(context.Background())
	require.NoError(t, err)
	require.True(t, result.Success, result.Errors)

	assert.Equal(t, []string{"src/mod_a", "src/mod_b"}, result.Modules)
	assert.Contains(t, result.Written, "src/_jopiLinkerGen/uiComponents/a.ts")
	assert.Contains(t, result.Written, "dist/_jopiLinkerGen/uiComposites/toolbar.d.ts")
	assert.Contains(t, result.Written, "src/_jopiLinkerGen/translations/common/en-us.ts")
	assert.Contains(t, result.Written, "dist/_jopiLinkerGen/installServer.js")
	assert.NotContains(t, strings.Join(result.Written, "\n"), "ignored")

	assert.Equal(t,
		"import I1 from \"../../mod_a/@alias/uiComponents/a/index.tsx\";\n"+
			"import I2 from \"../../mod_a/@alias/uiComponents/b/index.tsx\";\n\n"+
			"export default [I1, I2];\n",
		readGenerated(t, fs, "src/_jopiLinkerGen/uiComposites/toolbar.ts"))

	browser := readGenerated(t, fs, "src/_jopiLinkerGen/installBrowser.ts")
	assert.Contains(t, browser, "import modUiInit0 from \"../mod_a/uiInit.js\";")
	assert.Contains(t, browser, "modUiInit0(registry);")

	server := readGenerated(t, fs, "src/_jopiLinkerGen/installServer.ts")
	assert.Contains(t, server, "await modServerInit0(registry);")
}

func TestGenerateListPriorityAcrossModules(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		first string
	}{
		{
			name: "later module high",
			files: map[string]string{
				"src/mod_a/@alias/uiComposites.uiComponents/toolbar/b/b.ref":         "",
				"src/mod_b/@alias/uiComposites.uiComponents/toolbar/a/a.ref":         "",
				"src/mod_b/@alias/uiComposites.uiComponents/toolbar/a/high.priority": "",
			},
			first: "uiComponents/a/index.tsx",
		},
		{
			name: "earlier module default",
			files: map[string]string{
				"src/mod_a/@alias/uiComposites.uiComponents/toolbar/a/a.ref":         "",
				"src/mod_b/@alias/uiComposites.uiComponents/toolbar/b/b.ref":         "",
				"src/mod_b/@alias/uiComposites.uiComponents/toolbar/b/high.priority": "",
			},
			first: "uiComponents/b/index.tsx",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := map[string]string{
				"src/mod_c/@alias/uiComponents/a/index.tsx": "",
				"src/mod_c/@alias/uiComponents/b/index.tsx": "",
			}
			for k, v := range tt.files {
				files[k] = v
			}

			for _, concurrency := range []int{1, 4} {
				fs, cfg := newProject(t, files)
				cfg.Linker.Concurrency = concurrency

				result, err := newLinker(fs, cfg).Generate(context.Background())
				require.NoError(t, err)
				require.True(t, result.Success, result.Errors)

				content := readGenerated(t, fs, "src/_jopiLinkerGen/uiComposites/toolbar.ts")
				assert.Contains(t, strings.Split(content, "\n")[0], tt.first)
				assert.True(t, strings.HasSuffix(content, "export default [I1, I2];\n"))
			}
		})
	}
}

func TestGenerateLeavesOutputOnDeclarationErrors(t *testing.T) {
	fs, cfg := newProject(t, map[string]string{
		"src/mod_a/@alias/widgets/w/index.tsx":        "",
		"src/mod_a/@alias/uiComponents/x/index.tsx":   "",
		"src/_jopiLinkerGen/uiComponents/previous.ts": "// kept",
	})

	result, err := newLinker(fs, cfg).Generate(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.True(t, errors.HasCode(result.Errors[0], errors.ErrCodeUnknownType))
	assert.Error(t, result.Err())
	assert.Empty(t, result.Written)

	content, err := fs.ReadText("src/_jopiLinkerGen/uiComponents/previous.ts")
	require.NoError(t, err)
	assert.Equal(t, "// kept", content)
}

func TestGenerateKeepsOutputOnGenerationErrors(t *testing.T) {
	fs, cfg := newProject(t, map[string]string{
		"src/mod_a/@alias/schemes/s/index.ts":                            "",
		"src/mod_a/@alias/uiComposites.uiComponents/bar/i/schemes.s.ref": "",
		"src/_jopiLinkerGen/uiComponents/previous.ts":                    "// kept",
		"dist/_jopiLinkerGen/installServer.js":                           "// kept",
	})

	result, err := newLinker(fs, cfg).Generate(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.True(t, errors.HasCode(result.Errors[0], errors.ErrCodeTypeMismatch))
	assert.Empty(t, result.Written)

	content, err := fs.ReadText("src/_jopiLinkerGen/uiComponents/previous.ts")
	require.NoError(t, err)
	assert.Equal(t, "// kept", content)

	content, err = fs.ReadText("dist/_jopiLinkerGen/installServer.js")
	require.NoError(t, err)
	assert.Equal(t, "// kept", content)

	assert.False(t, fs.Exists("src/_jopiLinkerGen/schemes/s.ts"))
	assert.False(t, fs.Exists("src/_jopiLinkerGen/uiComposites/bar.ts"))
}

func TestGenerateCleansPreviousOutput(t *testing.T) {
	fs, cfg := newProject(t, map[string]string{
		"src/mod_a/@alias/uiComponents/x/index.tsx":   "",
		"src/_jopiLinkerGen/uiComponents/removed.ts":  "",
		"dist/_jopiLinkerGen/uiComponents/removed.js": "",
	})

	result, err := newLinker(fs, cfg).Generate(context.Background())
	require.NoError(t, err)
	require.True(t, result.Success)

	assert.False(t, fs.Exists("src/_jopiLinkerGen/uiComponents/removed.ts"))
	assert.False(t, fs.Exists("dist/_jopiLinkerGen/uiComponents/removed.js"))
	assert.True(t, fs.IsFile("src/_jopiLinkerGen/uiComponents/x.ts"))
}

func TestGenerateExcludedFromConfiguration(t *testing.T) {
	fs, cfg := newProject(t, map[string]string{
		"src/mod_a/@alias/uiComponents/x/index.tsx": "",
		"src/mod_a/@alias/uiComponents/y/index.tsx": "",
	})
	cfg.Linker.Exclude = []string{"uiComponents!y"}

	result, err := newLinker(fs, cfg).Generate(context.Background())
	require.NoError(t, err)
	require.True(t, result.Success)

	assert.Len(t, result.Entries, 1)
	assert.False(t, fs.Exists("src/_jopiLinkerGen/uiComponents/y.ts"))
}

func TestGenerateExtraListener(t *testing.T) {
	fs, cfg := newProject(t, map[string]string{
		"src/mod_a/@alias/uiComponents/x/index.tsx": "",
	})

	var seen []string
	l := New(cfg, Options{
		FS: fs,
		Subscribe: func(bus *events.Bus) {
			bus.Subscribe(events.ChunkTopic("uiComponents"), func(_ context.Context, payload any) error {
				seen = append(seen, payload.(*events.ChunkEvent).Key)
				return nil
			})
		},
	})

	_, err := l.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"uiComponents!x"}, seen)
}

func TestGenerateMissingModulesDir(t *testing.T) {
	fs, cfg := newProject(t, map[string]string{"README.md": ""})

	_, err := newLinker(fs, cfg).Generate(context.Background())
	require.Error(t, err)
}

func TestGenerateInvalidTypes(t *testing.T) {
	fs, cfg := newProject(t, shopProject)
	cfg.Linker.Types = append(cfg.Linker.Types, cfg.Linker.Types[0])

	_, err := newLinker(fs, cfg).Generate(context.Background())
	require.Error(t, err)
}

func TestScan(t *testing.T) {
	fs, cfg := newProject(t, shopProject)

	result, err := newLinker(fs, cfg).Scan(context.Background())
	require.NoError(t, err)
	require.True(t, result.Success, result.Errors)

	assert.Empty(t, result.Written)
	assert.False(t, fs.Exists("src/_jopiLinkerGen"))

	byKey := make(map[string]Entry)
	for _, entry := range result.Entries {
		byKey[entry.Key] = entry
	}

	require.Contains(t, byKey, "uiComposites!toolbar")
	toolbar := byKey["uiComposites!toolbar"]
	assert.Equal(t, "uiComposites", toolbar.Type)
	assert.Equal(t, "toolbar", toolbar.Name)
	assert.Equal(t, "2 items of uiComponents", toolbar.Description)

	require.Contains(t, byKey, "uiComponents!a")
	assert.Equal(t, "src/mod_a/@alias/uiComponents/a", byKey["uiComponents!a"].Path)
	assert.Equal(t, "default", byKey["uiComponents!a"].Priority)
}

func TestGenerateCancelled(t *testing.T) {
	fs, cfg := newProject(t, shopProject)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newLinker(fs, cfg).Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
