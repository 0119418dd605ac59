// Package parser turns source text into the parse result the indexing
// engine consumes: a flat list of declared symbols and a syntax tree
// whose nodes carry a type label, an optional name, and a reference flag.
// It is backed by tree-sitter with one grammar per supported language.
package parser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/symgraph/internal/store"
)

// Symbol is one declaration reported by the parser.
type Symbol struct {
	Name      string
	Kind      store.SymbolKind
	Location  store.Position
	End       store.Position
	Parent    string // name of the enclosing declaration, "" at top level
	Signature string
	Docs      string
}

// Node is one syntax-tree node. Anonymous tokens are included so that
// operator labels ("&&", "||", "?") are visible to consumers.
type Node struct {
	Type        string
	Name        string
	StartPos    store.Position
	EndPos      store.Position
	IsReference bool
	Children    []*Node
}

// ParseResult is the collaborator contract: declared symbols plus the
// root of the syntax tree.
type ParseResult struct {
	Language string
	Symbols  []Symbol
	Root     *Node
}

// Parser parses source content for a single language.
type Parser interface {
	Parse(ctx context.Context, content []byte) (*ParseResult, error)
}

// TreeSitterParser wraps one non-reentrant tree-sitter parser instance.
// All access serializes on the internal mutex; distinct languages get
// distinct instances and parse concurrently.
type TreeSitterParser struct {
	mu     sync.Mutex
	parser *sitter.Parser
	spec   *LanguageSpec
}

func newTreeSitterParser(spec *LanguageSpec) *TreeSitterParser {
	p := sitter.NewParser()
	p.SetLanguage(spec.Language)
	return &TreeSitterParser{parser: p, spec: spec}
}

// Parse parses content and converts the tree-sitter tree into the
// engine-facing ParseResult.
func (p *TreeSitterParser) Parse(ctx context.Context, content []byte) (*ParseResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tree, err := p.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", p.spec.Name, err)
	}
	defer tree.Close()

	res := &ParseResult{Language: p.spec.Name}
	res.Root = p.convert(tree.RootNode(), content, "", res)
	return res, nil
}

// convert builds the Node tree depth-first and collects declared symbols
// along the way. parent is the name of the nearest enclosing declaration.
func (p *TreeSitterParser) convert(n *sitter.Node, src []byte, parent string, res *ParseResult) *Node {
	node := &Node{
		Type:     n.Type(),
		StartPos: position(n.StartPoint(), n.StartByte()),
		EndPos:   position(n.EndPoint(), n.EndByte()),
	}

	enclosing := parent
	if kind, ok := p.spec.Declarations[n.Type()]; ok {
		if name := declarationName(n, src); name != "" {
			kind = refineKind(n, kind)
			node.Name = name
			res.Symbols = append(res.Symbols, Symbol{
				Name:      name,
				Kind:      kind,
				Location:  node.StartPos,
				End:       node.EndPos,
				Parent:    parent,
				Signature: firstLine(n, src),
				Docs:      precedingDocs(n, src),
			})
			enclosing = name
		}
	}

	if field, ok := p.spec.References[n.Type()]; ok {
		if name := referenceName(n, field, src); name != "" {
			node.Name = name
			node.IsReference = true
		}
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		node.Children = append(node.Children, p.convert(n.Child(i), src, enclosing, res))
	}
	return node
}

func position(pt sitter.Point, offset uint32) store.Position {
	return store.Position{Line: int(pt.Row), Column: int(pt.Column), Offset: int(offset)}
}

// refineKind resolves the kind of type declarations that look identical
// at the node-type level (Go type specs, C/C++ typedefs of structs).
func refineKind(n *sitter.Node, kind store.SymbolKind) store.SymbolKind {
	if kind != store.KindTypeAlias {
		return kind
	}
	body := n.ChildByFieldName("type")
	if body == nil {
		return kind
	}
	switch body.Type() {
	case "struct_type", "struct_specifier":
		return store.KindStruct
	case "interface_type":
		return store.KindInterface
	case "enum_specifier":
		return store.KindEnum
	}
	return kind
}

// identifierTypes are node types whose text is a usable bare name.
var identifierTypes = map[string]bool{
	"identifier":                    true,
	"field_identifier":              true,
	"property_identifier":           true,
	"type_identifier":               true,
	"package_identifier":            true,
	"shorthand_property_identifier": true,
	"dotted_name":                   true,
	"attribute":                     true,
	"scoped_identifier":             true,
}

// declarationName finds the declared name: the "name" field when present,
// else the first identifier reachable through declarator chains.
func declarationName(n *sitter.Node, src []byte) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return lastSegment(name.Content(src))
	}
	// C-style declarations bury the identifier under declarator fields.
	for decl := n.ChildByFieldName("declarator"); decl != nil; decl = decl.ChildByFieldName("declarator") {
		if decl.Type() == "identifier" || decl.Type() == "field_identifier" {
			return decl.Content(src)
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if identifierTypes[child.Type()] {
			return lastSegment(child.Content(src))
		}
	}
	return ""
}

// referenceName extracts the referenced name from the node's designated
// field, reduced to a bare name: the rightmost identifier of a selector
// chain, or the last path segment of a quoted import source.
func referenceName(n *sitter.Node, field string, src []byte) string {
	target := n
	if field != "" {
		if fn := n.ChildByFieldName(field); fn != nil {
			target = fn
		}
	}
	return bareName(target, src)
}

func bareName(n *sitter.Node, src []byte) string {
	if identifierTypes[n.Type()] {
		return lastSegment(n.Content(src))
	}
	if strings.Contains(n.Type(), "string") || n.Type() == "interpreted_string_literal" {
		return lastSegment(strings.Trim(n.Content(src), "\"'`"))
	}
	for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
		if name := bareName(n.NamedChild(i), src); name != "" {
			return name
		}
	}
	return ""
}

// lastSegment strips module qualifiers from a name: "a::b::c" -> "c",
// "pkg/sub" -> "sub", "a.b.c" -> "c".
func lastSegment(s string) string {
	s = strings.TrimSpace(s)
	for _, sep := range []string{"::", "/", "."} {
		if i := strings.LastIndex(s, sep); i >= 0 {
			s = s[i+len(sep):]
		}
	}
	return s
}

// firstLine returns the declaration's opening line, trimmed, as a cheap
// signature.
func firstLine(n *sitter.Node, src []byte) string {
	text := n.Content(src)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "{"))
}

// precedingDocs returns the comment immediately above the declaration,
// with comment markers stripped. Empty when no adjacent comment exists.
func precedingDocs(n *sitter.Node, src []byte) string {
	prev := n.PrevNamedSibling()
	if prev == nil || !strings.Contains(prev.Type(), "comment") {
		return ""
	}
	if int(prev.EndPoint().Row) != int(n.StartPoint().Row)-1 {
		return ""
	}
	var lines []string
	for _, line := range strings.Split(prev.Content(src), "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "///")
		line = strings.TrimPrefix(line, "//")
		line = strings.TrimPrefix(line, "/*")
		line = strings.TrimSuffix(line, "*/")
		line = strings.TrimPrefix(strings.TrimSpace(line), "*")
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
