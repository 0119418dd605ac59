package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/symgraph/internal/store"
)

func parseWith(t *testing.T, language string, src string) *ParseResult {
	t.Helper()
	r := NewRegistry()
	p, ok := r.Get(language)
	require.True(t, ok, "language %s not registered", language)
	res, err := p.Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	require.NotNil(t, res.Root)
	return res
}

// collectNodes gathers every node in the tree matching the predicate.
func collectNodes(n *Node, keep func(*Node) bool) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	if keep(n) {
		out = append(out, n)
	}
	for _, child := range n.Children {
		out = append(out, collectNodes(child, keep)...)
	}
	return out
}

func references(res *ParseResult) []*Node {
	return collectNodes(res.Root, func(n *Node) bool { return n.IsReference && n.Name != "" })
}

// --- detection ---

func TestDetect(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	cases := map[string]string{
		"main.go":      "go",
		"lib.rs":       "rust",
		"app.py":       "python",
		"index.js":     "javascript",
		"index.ts":     "typescript",
		"view.tsx":     "tsx",
		"Main.java":    "java",
		"util.c":       "c",
		"util.h":       "c",
		"engine.cpp":   "cpp",
		"deep/path.go": "go",
	}
	for path, want := range cases {
		lang, ok := r.Detect(path)
		require.True(t, ok, path)
		assert.Equal(t, want, lang, path)
	}

	_, ok := r.Detect("README.md")
	assert.False(t, ok)
	_, ok = r.Detect("Makefile")
	assert.False(t, ok)
}

func TestRegistry_GetSharesParserInstances(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	p1, ok := r.Get("go")
	require.True(t, ok)
	p2, ok := r.Get("go")
	require.True(t, ok)
	assert.Same(t, p1, p2)

	_, ok = r.Get("cobol")
	assert.False(t, ok)
}

func TestRegistry_Languages(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	assert.Contains(t, r.Languages(), "go")
	assert.Contains(t, r.Languages(), "rust")
	assert.Len(t, r.Languages(), 9)
}

// --- Go ---

func TestParse_GoFunctionWithDocs(t *testing.T) {
	t.Parallel()
	res := parseWith(t, "go", `package main

// Greet says hello.
func Greet(name string) string {
	return name
}
`)
	require.Len(t, res.Symbols, 1)
	sym := res.Symbols[0]
	assert.Equal(t, "Greet", sym.Name)
	assert.Equal(t, store.KindFunction, sym.Kind)
	assert.Equal(t, 3, sym.Location.Line)
	assert.Equal(t, 0, sym.Location.Column)
	assert.Equal(t, "func Greet(name string) string", sym.Signature)
	assert.Equal(t, "Greet says hello.", sym.Docs)
	assert.Empty(t, sym.Parent)
}

func TestParse_GoTypeSpecRefinement(t *testing.T) {
	t.Parallel()
	res := parseWith(t, "go", `package main

type Point struct {
	X int
}

type Reader interface {
	Read()
}

type Celsius float64
`)
	require.Len(t, res.Symbols, 3)
	kinds := map[string]store.SymbolKind{}
	for _, sym := range res.Symbols {
		kinds[sym.Name] = sym.Kind
	}
	assert.Equal(t, store.KindStruct, kinds["Point"])
	assert.Equal(t, store.KindInterface, kinds["Reader"])
	assert.Equal(t, store.KindTypeAlias, kinds["Celsius"])
}

func TestParse_GoCallReference(t *testing.T) {
	t.Parallel()
	res := parseWith(t, "go", `package main

func main() {
	helper()
}

func helper() {}
`)
	refs := references(res)
	require.NotEmpty(t, refs)
	assert.Equal(t, "helper", refs[0].Name)
	assert.Equal(t, "call_expression", refs[0].Type)
	assert.Equal(t, 3, refs[0].StartPos.Line)
}

func TestParse_GoImportReference(t *testing.T) {
	t.Parallel()
	res := parseWith(t, "go", `package main

import "net/http"
`)
	refs := references(res)
	require.Len(t, refs, 1)
	// Import sources reduce to their last path segment.
	assert.Equal(t, "http", refs[0].Name)
}

func TestParse_OperatorTokensVisible(t *testing.T) {
	t.Parallel()
	res := parseWith(t, "go", `package main

func check(a, b bool) bool {
	return a && b
}
`)
	ops := collectNodes(res.Root, func(n *Node) bool { return n.Type == "&&" })
	assert.NotEmpty(t, ops)
}

// --- Rust ---

func TestParse_RustFunctions(t *testing.T) {
	t.Parallel()
	res := parseWith(t, "rust", `fn main() {
    helper();
}

fn helper() {}
`)
	require.Len(t, res.Symbols, 2)
	assert.Equal(t, "main", res.Symbols[0].Name)
	assert.Equal(t, "helper", res.Symbols[1].Name)
	assert.Equal(t, store.KindFunction, res.Symbols[0].Kind)
	assert.Equal(t, 0, res.Symbols[0].Location.Line)
	assert.Equal(t, 4, res.Symbols[1].Location.Line)

	refs := references(res)
	require.NotEmpty(t, refs)
	assert.Equal(t, "helper", refs[0].Name)
	assert.Equal(t, "call_expression", refs[0].Type)
}

func TestParse_RustItemKinds(t *testing.T) {
	t.Parallel()
	res := parseWith(t, "rust", `struct Token {
    text: String,
}

enum Mode {
    Fast,
    Slow,
}

trait Render {
    fn render(&self);
}

const LIMIT: usize = 8;
`)
	kinds := map[string]store.SymbolKind{}
	for _, sym := range res.Symbols {
		kinds[sym.Name] = sym.Kind
	}
	assert.Equal(t, store.KindStruct, kinds["Token"])
	assert.Equal(t, store.KindEnum, kinds["Mode"])
	assert.Equal(t, store.KindTrait, kinds["Render"])
	assert.Equal(t, store.KindConstant, kinds["LIMIT"])
}

func TestParse_RustDocComment(t *testing.T) {
	t.Parallel()
	res := parseWith(t, "rust", `/// Tokenizes the input.
fn tokenize() {}
`)
	require.NotEmpty(t, res.Symbols)
	assert.Equal(t, "Tokenizes the input.", res.Symbols[0].Docs)
}

// --- Python ---

func TestParse_PythonClassMethodParent(t *testing.T) {
	t.Parallel()
	res := parseWith(t, "python", `class Widget:
    def render(self):
        pass
`)
	require.Len(t, res.Symbols, 2)
	assert.Equal(t, "Widget", res.Symbols[0].Name)
	assert.Equal(t, store.KindClass, res.Symbols[0].Kind)
	assert.Empty(t, res.Symbols[0].Parent)

	assert.Equal(t, "render", res.Symbols[1].Name)
	assert.Equal(t, store.KindFunction, res.Symbols[1].Kind)
	assert.Equal(t, "Widget", res.Symbols[1].Parent)
}

func TestParse_PythonCallReference(t *testing.T) {
	t.Parallel()
	res := parseWith(t, "python", `def main():
    helper()
`)
	refs := references(res)
	require.NotEmpty(t, refs)
	assert.Equal(t, "helper", refs[0].Name)
}

// --- TypeScript ---

func TestParse_TypeScriptDeclarations(t *testing.T) {
	t.Parallel()
	res := parseWith(t, "typescript", `interface Shape {
  area(): number;
}

class Circle {
  area(): number {
    return 0;
  }
}

function describe(s: Shape): string {
  return "";
}
`)
	kinds := map[string]store.SymbolKind{}
	parents := map[string]string{}
	for _, sym := range res.Symbols {
		kinds[sym.Name] = sym.Kind
		parents[sym.Name] = sym.Parent
	}
	assert.Equal(t, store.KindInterface, kinds["Shape"])
	assert.Equal(t, store.KindClass, kinds["Circle"])
	assert.Equal(t, store.KindFunction, kinds["describe"])
	assert.Equal(t, "Circle", parents["area"])
}

// --- malformed input ---

func TestParse_MalformedSourceStillYieldsTree(t *testing.T) {
	t.Parallel()
	// Tree-sitter recovers from syntax errors; parsing must not fail.
	res := parseWith(t, "go", "package main\n\nfunc broken( {\n")
	assert.NotNil(t, res.Root)
}
