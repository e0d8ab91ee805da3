package main

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

type pkgHarness struct {
	t   *testing.T
	dir string
}

func newPkg(t *testing.T) *pkgHarness {
	t.Helper()
	return &pkgHarness{t: t, dir: t.TempDir()}
}

func (p *pkgHarness) write(rel, content string) string {
	p.t.Helper()
	path := filepath.Join(p.dir, rel)
	mustWriteFile(p.t, path, content)
	return path
}

func (p *pkgHarness) out(rel string) string {
	return filepath.Join(p.dir, rel)
}

func (p *pkgHarness) read(rel string) string {
	p.t.Helper()
	return mustReadString(p.t, filepath.Join(p.dir, rel))
}

// generate writes spec into the harness, runs the command and returns the output.
func (p *pkgHarness) generate(specName, spec string) string {
	p.t.Helper()
	specPath := p.write(specName, spec)
	if err := run([]string{"-spec", specPath, "-out", p.out("context.gen.go")}, os.Stderr); err != nil {
		p.t.Fatalf("run: %v", err)
	}
	return p.read("context.gen.go")
}

func mustWriteFile(t TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func mustReadString(t TB, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func assertHasImport(t TB, out, imp string) {
	t.Helper()
	// Handles both stdlib and aliased imports.
	if !strings.Contains(out, `"`+imp+`"`) {
		t.Fatalf("expected import %q", imp)
	}
}

func assertContainsInOrder(t TB, s string, parts ...string) {
	t.Helper()
	pos := 0
	for _, p := range parts {
		i := strings.Index(s[pos:], p)
		if i < 0 {
			t.Fatalf("expected to find %q after pos=%d", p, pos)
		}
		pos += i + len(p)
	}
}

func assertErrContains(t TB, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", want)
	}
	if !strings.Contains(err.Error(), want) {
		t.Fatalf("err=%q want contains %q", err.Error(), want)
	}
}

func assertParses(t TB, src string) {
	t.Helper()
	if _, err := parser.ParseFile(token.NewFileSet(), "gen.go", src, parser.AllErrors); err != nil {
		t.Fatalf("generated source does not parse: %v\n%s", err, src)
	}
}
