package arobase

import (
	"context"
	stderrors "errors"
	"fmt"
	"path"
	"strings"

	"github.com/conneroisu/jopilink/internal/codegen"
	"github.com/conneroisu/jopilink/internal/errors"
	"github.com/conneroisu/jopilink/internal/registry"
	"github.com/conneroisu/jopilink/internal/schema"
)

// FeaturePublic exposes a data source over HTTP.
const FeaturePublic = "public"

// Permissions recorded by role conditions.
const (
	PermissionRead  = "READ"
	PermissionWrite = "WRITE"
)

const needRolePrefix = "needrole_"

// NeedRoleConditions returns a condition normalizer accepting
// "needRole_<role>", granting role every permission, and
// "<permission>NeedRole_<role>", granting only that permission. Roles are
// recorded lowercase into the conditions context, keyed by permission.
func NeedRoleConditions(permissions ...string) func(name, filePath string, conditionsContext map[string][]string) (string, error) {
	return func(name, _ string, conditionsContext map[string][]string) (string, error) {
		lower := strings.ToLower(name)

		granted := permissions
		prefix := ""

		if strings.HasPrefix(lower, needRolePrefix) {
			prefix = "needRole_"
		} else {
			granted = nil
			for _, permission := range permissions {
				p := strings.ToLower(permission) + needRolePrefix
				if strings.HasPrefix(lower, p) {
					granted = []string{permission}
					prefix = strings.ToLower(permission) + "NeedRole_"
					break
				}
			}
		}

		if granted == nil {
			return "", fmt.Errorf("unknown condition %q", name)
		}

		role := lower[len(prefix):]
		if role == "" {
			return "", fmt.Errorf("condition %q names no role", name)
		}

		for _, permission := range granted {
			conditionsContext[permission] = appendUnique(conditionsContext[permission], role)
		}

		return prefix + role, nil
	}
}

func appendUnique(values []string, v string) []string {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}

// normalizeDataSourceFeature maps "public" and its "expose" alias to FeaturePublic.
func normalizeDataSourceFeature(name string) (string, bool) {
	if strings.EqualFold(name, FeaturePublic) || strings.EqualFold(name, "expose") {
		return FeaturePublic, true
	}
	return "", false
}

// DataSourceHandler declares row data sources. Each one gets a server module
// re-exporting the implementation and a browser module proxying it over HTTP.
type DataSourceHandler struct {
	typeName string
}

// NewDataSourceHandler creates a data source handler.
func NewDataSourceHandler(typeName string) *DataSourceHandler {
	return &DataSourceHandler{typeName: typeName}
}

// TypeName implements registry.Handler.
func (h *DataSourceHandler) TypeName() string { return h.typeName }

// ProcessDir implements Handler.
func (h *DataSourceHandler) ProcessDir(ctx context.Context, env *Env, sc ScanContext) error {
	return processChunks(ctx, env, sc, h, chunkOptions{
		allowConditions:    true,
		allowFeatures:      true,
		normalizeCondition: NeedRoleConditions(PermissionRead, PermissionWrite),
		normalizeFeature:   normalizeDataSourceFeature,
	})
}

// MergeItem implements registry.Merger.
func (h *DataSourceHandler) MergeItem(key string, existing, incoming registry.Item) (registry.Item, error) {
	return mergeChunks(key, existing, incoming)
}

// BeginGenerate registers the HTTP exposure of every public data source in
// the server install file.
func (h *DataSourceHandler) BeginGenerate(_ context.Context, env *Env, w *codegen.Writer) error {
	var exposed []registry.Entry
	for _, entry := range env.Registry.ItemsOf(h) {
		if chunk, ok := entry.Item.(*Chunk); ok && chunk.Features[FeaturePublic] {
			exposed = append(exposed, entry)
		}
	}

	if len(exposed) == 0 {
		return nil
	}

	w.AddToInstallFile(codegen.TargetServer, codegen.PartImports,
		`import {exposeRowDataSource, installDataSourcesServer} from "jopijs";`)

	for i, entry := range exposed {
		chunk := entry.Item.(*Chunk)
		name := registry.ItemName(entry.Key)
		alias := fmt.Sprintf("DS_%d", i+1)

		w.AddToInstallFile(codegen.TargetServer, codegen.PartImports,
			fmt.Sprintf("import %s from %s;", alias, codegen.StringLiteral(w.InstallImport(chunk.EntryPoint))))
		w.AddToInstallFile(codegen.TargetServer, codegen.PartBody,
			fmt.Sprintf("exposeRowDataSource(%s, %s, %s);",
				codegen.StringLiteral(name), alias, codegen.Literal(conditionsLiteral(chunk.ConditionsContext))))
	}

	w.AddToInstallFile(codegen.TargetServer, codegen.PartFooter,
		"onWebSiteCreated((webSite) => installDataSourcesServer(webSite));")

	return nil
}

func conditionsLiteral(conditionsContext map[string][]string) map[string]any {
	out := make(map[string]any, len(conditionsContext))
	for _, permission := range sortedKeys(conditionsContext) {
		roles := make([]any, len(conditionsContext[permission]))
		for i, role := range conditionsContext[permission] {
			roles[i] = role
		}
		out[permission] = roles
	}
	return out
}

// EndpointFor returns the HTTP route a browser stub calls.
func EndpointFor(name string) string {
	return "/_jopi/ds/" + name
}

// GenerateItem implements ItemGenerator.
func (h *DataSourceHandler) GenerateItem(ctx context.Context, env *Env, w *codegen.Writer, key string, item registry.Item) error {
	chunk, ok := item.(*Chunk)
	if !ok {
		return errors.NewInternalError("unexpected item for "+key, nil)
	}

	name := registry.ItemName(key)
	innerDir := path.Join(h.typeName, name)

	req := schema.Request{
		Name:         name,
		EntryPoint:   chunk.EntryPoint,
		CompiledPath: chunk.EntryPoint,
		ItemPath:     chunk.Path,
	}
	if !w.IsTypeScriptOnly() {
		req.CompiledPath = w.CompiledPathFor(chunk.EntryPoint)
	}

	if env.Schema == nil {
		return errors.NewDeclarationError(errors.ErrCodeInvalidDataSource,
			"no schema loader configured", chunk.EntryPoint)
	}

	s, err := env.Schema.Load(ctx, req)
	if err != nil {
		message := "not a valid data source"
		if stderrors.Is(err, schema.ErrNoSchema) {
			message = "no schema found for data source " + name
		}
		return errors.NewDeclarationError(errors.ErrCodeInvalidDataSource, message, chunk.EntryPoint).
			WithCause(err)
	}

	if err := w.WriteCodeFile(codegen.CodeFile{
		InnerPath:   path.Join(innerDir, "index"),
		SrcContent:  "import " + codegen.StringLiteral("./jBundler_ifServer.ts") + ";\n",
		DistContent: "import " + codegen.StringLiteral(codegen.ToPathForImport("./jBundler_ifServer.ts", true)) + ";\n",
	}); err != nil {
		return err
	}

	server := func(forDist bool) string {
		rel := codegen.StringLiteral(w.RelativeImport(innerDir, chunk.EntryPoint, forDist))
		return "import C from " + rel + ";\nexport * from " + rel + ";\nexport default C;\n"
	}

	if err := w.WriteCodeFile(codegen.CodeFile{
		InnerPath:   path.Join(innerDir, "jBundler_ifServer"),
		SrcContent:  server(false),
		DistContent: server(true),
	}); err != nil {
		return err
	}

	meta := "undefined"
	if s.Meta != nil {
		meta = codegen.IndentedLiteral(s.Meta)
	}

	var browser strings.Builder
	browser.WriteString("import {JDataRowSource_HttpProxy} from \"jopi-toolkit/jk_data\";\n")
	browser.WriteString("import {schema as newSchema} from \"jopi-toolkit/jk_schemas\";\n\n")
	fmt.Fprintf(&browser, "export const dataSourceName = %s;\n", codegen.StringLiteral(name))
	fmt.Fprintf(&browser, "export const schema = newSchema(%s, %s);\n", codegen.IndentedLiteral(s.Desc), meta)
	fmt.Fprintf(&browser, "export default new JDataRowSource_HttpProxy(dataSourceName, %s, schema);\n",
		codegen.StringLiteral(EndpointFor(name)))

	return w.WriteCodeFile(codegen.CodeFile{
		InnerPath:  path.Join(innerDir, "jBundler_ifBrowser"),
		SrcContent: browser.String(),
	})
}
