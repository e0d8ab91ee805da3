// tinfoil/cmd/tinfoilgen/main.go
package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"go/format"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const defaultDIImport = "github.com/sghaida/tinfoil/di"

const (
	kindParameter = "parameter"
	kindDefault   = "default"
	kindComputed  = "computed"

	modeDerive      = "derive"
	modeDeclare     = "declare"
	modeConstructor = "constructor"
)

type Imports struct {
	DI    string     `yaml:"di" json:"di"`
	Extra []GoImport `yaml:"extra" json:"extra"`
}

type FieldSpec struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
	Kind string `yaml:"kind" json:"kind"` // "parameter" | "default" | "computed"

	// Optional: accessor method name (default: exported Name)
	Accessor string `yaml:"accessor" json:"accessor"`

	// default only: func() T symbol; zero value when empty
	DefaultFunc string `yaml:"defaultFunc" json:"defaultFunc"`

	// computed only
	Mode        string   `yaml:"mode" json:"mode"` // "derive" | "declare" | "constructor"
	Constructor string   `yaml:"constructor" json:"constructor"`
	DependsOn   []string `yaml:"dependsOn" json:"dependsOn"`
}

type ContextSpec struct {
	Package string      `yaml:"package" json:"package"`
	Context string      `yaml:"context" json:"context"`
	Imports Imports     `yaml:"imports" json:"imports"`
	Fields  []FieldSpec `yaml:"fields" json:"fields"`
}

// Parameters returns the parameter fields in declaration order.
func (s ContextSpec) Parameters() []FieldSpec {
	var out []FieldSpec
	for _, f := range s.Fields {
		if f.Kind == kindParameter {
			out = append(out, f)
		}
	}
	return out
}

type GoImport struct {
	Name string `yaml:"name" json:"name"` // optional alias
	Path string `yaml:"path" json:"path"`
}

func run(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("tinfoilgen", flag.ContinueOnError)
	fs.SetOutput(stderr)

	specPath := fs.String("spec", "", "path to the context description (.yaml or .json)")
	outPath := fs.String("out", "", "output .gen.go file path")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*specPath) == "" {
		return errors.New("missing -spec")
	}
	if strings.TrimSpace(*outPath) == "" {
		return errors.New("missing -out")
	}
	return generate(*specPath, *outPath)
}

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "tinfoilgen:", err)
		os.Exit(1)
	}
}

func generate(specPath, outPath string) error {
	raw, err := os.ReadFile(specPath)
	if err != nil {
		return errors.Wrap(err, "read spec")
	}

	spec, err := decodeSpec(raw)
	if err != nil {
		return errors.Wrapf(err, "decode %s", filepath.ToSlash(specPath))
	}

	applyDefaults(&spec)
	if err := validateSpec(&spec); err != nil {
		return errors.Wrapf(err, "invalid spec %s", filepath.ToSlash(specPath))
	}

	inferDIImport(&spec, outPath)

	required := []GoImport{
		{Path: "fmt"},
		{Path: "sync"},
		{Name: "di", Path: spec.Imports.DI},
	}

	data := map[string]any{
		"Spec":     spec,
		"SpecPath": filepath.ToSlash(specPath),
		"SpecHash": sha256Hex(raw),
		"Imports":  mergeImports(required, spec.Imports.Extra),
		"Schema":   lowerFirst(spec.Context) + "Schema",
	}

	src, err := execTemplate(contextTpl, data)
	if err != nil {
		return errors.Wrap(err, "render")
	}
	return writeFormatted(outPath, src)
}

// decodeSpec accepts YAML or JSON (JSON documents are valid YAML).
func decodeSpec(raw []byte) (ContextSpec, error) {
	var spec ContextSpec
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		if err == io.EOF {
			return spec, errors.New("empty spec")
		}
		return spec, err
	}
	return spec, nil
}

func applyDefaults(s *ContextSpec) {
	if s == nil {
		return
	}
	if s.Context == "" {
		s.Context = "InjectionContext"
	}
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Accessor == "" {
			f.Accessor = exportName(f.Name)
		}
		if f.Kind == kindComputed && f.Mode == "" {
			f.Mode = modeDerive
		}
	}
}

func validateSpec(s *ContextSpec) error {
	if !isIdent(s.Package) {
		return errors.Errorf("package must be a Go identifier, got %q", s.Package)
	}
	if !isIdent(s.Context) {
		return errors.Errorf("context must be a Go identifier, got %q", s.Context)
	}
	if len(s.Fields) == 0 {
		return errors.New("fields must be non-empty")
	}

	reserved := reservedNames(s)
	names := map[string]bool{}
	accessors := map[string]bool{"Context": true, "Provide": true}
	types := map[string]string{}

	for _, f := range s.Fields {
		if !isIdent(f.Name) {
			return errors.Errorf("field name must be a Go identifier, got %q", f.Name)
		}
		if reserved[f.Name] {
			return errors.Errorf("field %s: name is reserved in generated code", f.Name)
		}
		if names[f.Name] {
			return errors.Errorf("duplicate field %q", f.Name)
		}
		names[f.Name] = true

		if !isIdent(f.Accessor) || accessors[f.Accessor] {
			return errors.Errorf("field %s: invalid or duplicate accessor %q", f.Name, f.Accessor)
		}
		accessors[f.Accessor] = true

		if strings.TrimSpace(f.Type) == "" {
			return errors.Errorf("field %s: type is required", f.Name)
		}
		if prev, ok := types[f.Type]; ok {
			return errors.Errorf("field %s: type %s already used by field %s (one slot per type)", f.Name, f.Type, prev)
		}
		types[f.Type] = f.Name

		switch f.Kind {
		case kindParameter:
		case kindDefault:
			if f.DefaultFunc != "" && !isIdent(f.DefaultFunc) {
				return errors.Errorf("field %s: defaultFunc must be a symbol name", f.Name)
			}
		case kindComputed:
			switch f.Mode {
			case modeDerive, modeDeclare:
				if f.Constructor != "" || len(f.DependsOn) > 0 {
					return errors.Errorf("field %s: constructor/dependsOn only apply to mode %q", f.Name, modeConstructor)
				}
			case modeConstructor:
				if !isIdent(f.Constructor) {
					return errors.Errorf("field %s: mode constructor requires a constructor symbol", f.Name)
				}
			default:
				return errors.Errorf("field %s: mode must be one of: derive|declare|constructor", f.Name)
			}
		default:
			return errors.Errorf("field %s: kind must be one of: parameter|default|computed", f.Name)
		}

		if f.Kind != kindComputed && (f.Mode != "" || f.Constructor != "" || len(f.DependsOn) > 0) {
			return errors.Errorf("field %s: mode/constructor/dependsOn only apply to computed fields", f.Name)
		}
		if f.Kind != kindDefault && f.DefaultFunc != "" {
			return errors.Errorf("field %s: defaultFunc only applies to default fields", f.Name)
		}
	}

	for _, f := range s.Fields {
		for _, dep := range f.DependsOn {
			if _, ok := types[dep]; !ok {
				return errors.Errorf("field %s: dependsOn %s is not a field type", f.Name, dep)
			}
		}
	}
	return nil
}

// reservedNames are identifiers the bodies of New<Context> and MustNew<Context>
// refer to. Field names become parameters of those functions, so a field with
// one of these names would shadow it.
func reservedNames(s *ContextSpec) map[string]bool {
	return map[string]bool{
		"ctx": true, "err": true, "c": true,
		"fmt": true, "di": true, "sync": true,
		"nil": true, "panic": true,
		s.Context:                        true,
		"New" + s.Context:                true,
		lowerFirst(s.Context) + "Schema": true,
	}
}

func isIdent(s string) bool {
	return token.IsIdentifier(s) && !token.IsKeyword(s)
}

// -------------------------
// Import inference
// -------------------------
//
// imports.di wins when set. Otherwise the non-generated sources of the output
// package are scanned for an import aliased "di" or ending in "/di", and the
// library path is the final fallback.

func inferDIImport(s *ContextSpec, outPath string) {
	if strings.TrimSpace(s.Imports.DI) != "" {
		s.Imports.DI = strings.TrimSpace(s.Imports.DI)
		return
	}
	scanned := scanPackageImports(filepath.Dir(outPath))
	if gi, ok := findImportByAliasOrSuffix(scanned, "di", "/di"); ok {
		s.Imports.DI = gi.Path
		return
	}
	s.Imports.DI = defaultDIImport
}

// scanPackageImports reads imports from all non-generated .go files in pkgDir
// (excluding *_test.go and *.gen.go) and returns them as GoImport entries.
func scanPackageImports(pkgDir string) []GoImport {
	entries, err := os.ReadDir(pkgDir)
	if err != nil {
		return nil
	}

	var out []GoImport
	fset := token.NewFileSet()

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		// avoid feeding generated outputs back into inference
		if strings.HasSuffix(name, ".gen.go") || strings.HasSuffix(name, "_gen.go") {
			continue
		}

		full := filepath.Join(pkgDir, name)
		f, perr := parser.ParseFile(fset, full, nil, parser.ImportsOnly)
		if perr != nil {
			continue
		}
		for _, imp := range f.Imports {
			gi := GoImport{Path: strings.Trim(imp.Path.Value, `"`)}
			if imp.Name != nil {
				gi.Name = imp.Name.Name
			}
			out = append(out, gi)
		}
	}

	return dedupeAndSortImports(out)
}

// findImportByAliasOrSuffix prefers an alias match, then a suffix match.
func findImportByAliasOrSuffix(imports []GoImport, preferAlias, preferSuffix string) (GoImport, bool) {
	if preferAlias != "" {
		for _, gi := range imports {
			if gi.Name == preferAlias {
				return gi, true
			}
		}
	}
	if preferSuffix != "" {
		for _, gi := range imports {
			if strings.HasSuffix(gi.Path, preferSuffix) {
				return gi, true
			}
		}
	}
	return GoImport{}, false
}

func dedupeAndSortImports(imps []GoImport) []GoImport {
	seen := map[GoImport]bool{}
	out := make([]GoImport, 0, len(imps))
	for _, gi := range imps {
		if seen[gi] {
			continue
		}
		seen[gi] = true
		out = append(out, gi)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path == out[j].Path {
			return out[i].Name < out[j].Name
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// mergeImports combines required and spec-provided imports. A spec import with
// the same path as a required one replaces nothing; required entries win.
func mergeImports(required, extra []GoImport) []GoImport {
	byPath := map[string]bool{}
	out := make([]GoImport, 0, len(required)+len(extra))
	for _, gi := range required {
		byPath[gi.Path] = true
		out = append(out, gi)
	}
	for _, gi := range extra {
		if strings.TrimSpace(gi.Path) == "" || byPath[gi.Path] {
			continue
		}
		byPath[gi.Path] = true
		out = append(out, gi)
	}
	return dedupeAndSortImports(out)
}

// -------------------------
// Misc helpers
// -------------------------

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func execTemplate(tpl *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeFormatted gofmts src and writes it. On format failure the raw source is
// written anyway so the broken output can be inspected.
func writeFormatted(out string, src []byte) error {
	fmtSrc, err := format.Source(src)
	if err != nil {
		_ = os.WriteFile(out, src, 0o644)
		return errors.Wrap(err, "gofmt generated source")
	}
	return errors.Wrap(os.WriteFile(out, fmtSrc, 0o644), "write output")
}

// exportName upper-cases the first letter (coolValue -> CoolValue).
func exportName(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// lowerFirst lower-cases the first letter (InjectionContext -> injectionContext).
func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// -------------------------
// Templates
// -------------------------

var contextTpl = template.Must(
	template.New("context").
		Funcs(template.FuncMap{"join": strings.Join}).
		Parse(`// Code generated by tinfoilgen; DO NOT EDIT.
// Spec: {{.SpecPath}}
// Spec-SHA256: {{.SpecHash}}

package {{.Spec.Package}}

import (
{{- range .Imports }}
	{{- if .Name }}
	{{ .Name }} "{{ .Path }}"
	{{- else }}
	"{{ .Path }}"
	{{- end }}
{{- end }}
)

// {{.Spec.Context}} is a typed view over a sealed di.Context.
// It is safe for concurrent use.
type {{.Spec.Context}} struct {
	ctx *di.Context
}

var {{.Schema}} = sync.OnceValue(func() *di.Schema {
	s := di.NewSchema()
{{- range .Spec.Fields }}
{{- if eq .Kind "parameter" }}
	di.Parameter[{{ .Type }}](s)
{{- else if eq .Kind "default" }}
	di.Default[{{ .Type }}](s, {{ if .DefaultFunc }}{{ .DefaultFunc }}{{ else }}nil{{ end }})
{{- else if eq .Mode "derive" }}
	di.Derive[{{ .Type }}](s)
{{- else if eq .Mode "declare" }}
	di.Declare[{{ .Type }}](s)
{{- else }}
	di.Computed[{{ .Type }}](s, di.TypeIDs({{ range $i, $d := .DependsOn }}{{ if $i }}, {{ end }}di.TypeOf[{{ $d }}](){{ end }}), {{ .Constructor }})
{{- end }}
{{- end }}
	return s
})

// {{.Spec.Context}}Schema returns the schema backing {{.Spec.Context}}.
func {{.Spec.Context}}Schema() *di.Schema { return {{.Schema}}() }

// New{{.Spec.Context}} builds a fully initialized {{.Spec.Context}}.
func New{{.Spec.Context}}({{ range $i, $p := .Spec.Parameters }}{{ if $i }}, {{ end }}{{ $p.Name }} {{ $p.Type }}{{ end }}) (*{{.Spec.Context}}, error) {
	ctx, err := {{.Schema}}().New({{ range $i, $p := .Spec.Parameters }}{{ if $i }}, {{ end }}{{ $p.Name }}{{ end }})
	if err != nil {
		return nil, fmt.Errorf("{{.Spec.Context}}: %w", err)
	}
	return &{{.Spec.Context}}{ctx: ctx}, nil
}

// MustNew{{.Spec.Context}} is like New{{.Spec.Context}} but panics on error.
func MustNew{{.Spec.Context}}({{ range $i, $p := .Spec.Parameters }}{{ if $i }}, {{ end }}{{ $p.Name }} {{ $p.Type }}{{ end }}) *{{.Spec.Context}} {
	c, err := New{{.Spec.Context}}({{ range $i, $p := .Spec.Parameters }}{{ if $i }}, {{ end }}{{ $p.Name }}{{ end }})
	if err != nil {
		panic(err)
	}
	return c
}

// Context returns the underlying di.Context.
func (c *{{.Spec.Context}}) Context() *di.Context { return c.ctx }

// Provide implements di.Provider.
func (c *{{.Spec.Context}}) Provide(id di.TypeID) (any, error) { return c.ctx.Provide(id) }
{{ range .Spec.Fields }}
// {{ .Accessor }} returns the {{ .Kind }} {{ .Type }}.
func (c *{{ $.Spec.Context }}) {{ .Accessor }}() *{{ .Type }} { return di.MustGet[{{ .Type }}](c.ctx) }
{{ end }}`),
)
