package parser

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/jward/symgraph/internal/store"
)

// LanguageSpec binds a tree-sitter grammar to the node-type tables the
// converter needs: which node types declare symbols (and as what kind),
// and which node types are reference sites (and which field names the
// referenced thing).
type LanguageSpec struct {
	Name         string
	Language     *sitter.Language
	Extensions   []string
	Declarations map[string]store.SymbolKind
	References   map[string]string
}

var specs = []*LanguageSpec{
	{
		Name:       "go",
		Language:   golang.GetLanguage(),
		Extensions: []string{"go"},
		Declarations: map[string]store.SymbolKind{
			"function_declaration": store.KindFunction,
			"method_declaration":   store.KindMethod,
			"type_spec":            store.KindTypeAlias, // refined to struct/interface
			"const_spec":           store.KindConstant,
			"var_spec":             store.KindVariable,
		},
		References: map[string]string{
			"call_expression": "function",
			"import_spec":     "path",
		},
	},
	{
		Name:       "javascript",
		Language:   javascript.GetLanguage(),
		Extensions: []string{"js", "jsx"},
		Declarations: map[string]store.SymbolKind{
			"function_declaration": store.KindFunction,
			"method_definition":    store.KindMethod,
			"class_declaration":    store.KindClass,
			"variable_declarator":  store.KindVariable,
		},
		References: map[string]string{
			"call_expression":  "function",
			"new_expression":   "constructor",
			"import_statement": "source",
			"extends_clause":   "",
		},
	},
	{
		Name:       "typescript",
		Language:   typescript.GetLanguage(),
		Extensions: []string{"ts"},
		Declarations: map[string]store.SymbolKind{
			"function_declaration":   store.KindFunction,
			"method_definition":      store.KindMethod,
			"class_declaration":      store.KindClass,
			"interface_declaration":  store.KindInterface,
			"enum_declaration":       store.KindEnum,
			"type_alias_declaration": store.KindTypeAlias,
			"variable_declarator":    store.KindVariable,
		},
		References: map[string]string{
			"call_expression":   "function",
			"new_expression":    "constructor",
			"import_statement":  "source",
			"extends_clause":    "",
			"implements_clause": "",
			"type_annotation":   "",
		},
	},
	{
		Name:       "tsx",
		Language:   tsx.GetLanguage(),
		Extensions: []string{"tsx"},
		Declarations: map[string]store.SymbolKind{
			"function_declaration":   store.KindFunction,
			"method_definition":      store.KindMethod,
			"class_declaration":      store.KindClass,
			"interface_declaration":  store.KindInterface,
			"enum_declaration":       store.KindEnum,
			"type_alias_declaration": store.KindTypeAlias,
			"variable_declarator":    store.KindVariable,
		},
		References: map[string]string{
			"call_expression":  "function",
			"new_expression":   "constructor",
			"import_statement": "source",
		},
	},
	{
		Name:       "python",
		Language:   python.GetLanguage(),
		Extensions: []string{"py"},
		Declarations: map[string]store.SymbolKind{
			"function_definition": store.KindFunction,
			"class_definition":    store.KindClass,
		},
		References: map[string]string{
			"call":                  "function",
			"import_statement":      "name",
			"import_from_statement": "module_name",
		},
	},
	{
		Name:       "rust",
		Language:   rust.GetLanguage(),
		Extensions: []string{"rs"},
		Declarations: map[string]store.SymbolKind{
			"function_item": store.KindFunction,
			"struct_item":   store.KindStruct,
			"enum_item":     store.KindEnum,
			"trait_item":    store.KindTrait,
			"mod_item":      store.KindModule,
			"const_item":    store.KindConstant,
			"static_item":   store.KindVariable,
			"type_item":     store.KindTypeAlias,
			"union_item":    store.KindStruct,
		},
		References: map[string]string{
			"call_expression":  "function",
			"use_declaration":  "argument",
			"macro_invocation": "macro",
		},
	},
	{
		Name:       "java",
		Language:   java.GetLanguage(),
		Extensions: []string{"java"},
		Declarations: map[string]store.SymbolKind{
			"class_declaration":       store.KindClass,
			"interface_declaration":   store.KindInterface,
			"enum_declaration":        store.KindEnum,
			"method_declaration":      store.KindMethod,
			"constructor_declaration": store.KindMethod,
		},
		References: map[string]string{
			"method_invocation":          "name",
			"import_declaration":         "",
			"object_creation_expression": "type",
			"extends_interfaces":         "",
		},
	},
	{
		Name:       "c",
		Language:   c.GetLanguage(),
		Extensions: []string{"c", "h"},
		Declarations: map[string]store.SymbolKind{
			"function_definition": store.KindFunction,
			"struct_specifier":    store.KindStruct,
			"enum_specifier":      store.KindEnum,
			"type_definition":     store.KindTypeAlias,
		},
		References: map[string]string{
			"call_expression": "function",
		},
	},
	{
		Name:       "cpp",
		Language:   cpp.GetLanguage(),
		Extensions: []string{"cpp", "cc", "cxx", "hpp"},
		Declarations: map[string]store.SymbolKind{
			"function_definition":  store.KindFunction,
			"struct_specifier":     store.KindStruct,
			"class_specifier":      store.KindClass,
			"enum_specifier":       store.KindEnum,
			"type_definition":      store.KindTypeAlias,
			"namespace_definition": store.KindNamespace,
		},
		References: map[string]string{
			"call_expression": "function",
			"new_expression":  "type",
		},
	},
}

// Registry owns the parser pool: language detection by file extension and
// one lazily-created TreeSitterParser per language. Parser instances are
// non-reentrant; the registry hands out shared instances that serialize
// internally, so files of the same language queue on that language's
// parser while other languages proceed.
type Registry struct {
	mu      sync.Mutex
	byExt   map[string]*LanguageSpec
	parsers map[string]*TreeSitterParser
}

// NewRegistry builds a registry over all built-in language specs.
func NewRegistry() *Registry {
	r := &Registry{
		byExt:   make(map[string]*LanguageSpec),
		parsers: make(map[string]*TreeSitterParser),
	}
	for _, spec := range specs {
		for _, ext := range spec.Extensions {
			r.byExt[ext] = spec
		}
	}
	return r
}

// Detect returns the language name for a file path, or false when the
// extension is not recognized.
func (r *Registry) Detect(path string) (string, bool) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	spec, ok := r.byExt[ext]
	if !ok {
		return "", false
	}
	return spec.Name, true
}

// Get returns the shared parser for a language, creating it on first use.
func (r *Registry) Get(language string) (*TreeSitterParser, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.parsers[language]; ok {
		return p, true
	}
	for _, spec := range specs {
		if spec.Name == language {
			p := newTreeSitterParser(spec)
			r.parsers[language] = p
			return p, true
		}
	}
	return nil, false
}

// Languages lists the names of all registered languages.
func (r *Registry) Languages() []string {
	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		names = append(names, spec.Name)
	}
	return names
}
