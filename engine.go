package symgraph

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jward/symgraph/internal/extract"
	"github.com/jward/symgraph/internal/graph"
	"github.com/jward/symgraph/internal/parser"
	"github.com/jward/symgraph/internal/stats"
	"github.com/jward/symgraph/internal/store"
)

// Engine orchestrates the indexing pipeline: language detection, parsing,
// symbol/reference extraction, the transactional store write, the call
// graph update, and statistics. The engine owns its collaborators
// explicitly; there are no package-level singletons.
type Engine struct {
	store     *store.Store
	parsers   *parser.Registry
	extractor *extract.Extractor
	graph     *graph.CallGraph
	stats     *stats.Aggregator

	languages map[string]bool // nil means all languages

	// useParallel enables the worker-pool pipeline in IndexFiles.
	useParallel bool

	// evictStale drops a file's previous-generation call-graph edges
	// after each successful re-index. Off by default: historically the
	// graph only accumulates.
	evictStale bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLanguages restricts which languages the Engine will index.
func WithLanguages(languages ...string) Option {
	return func(e *Engine) {
		e.languages = make(map[string]bool, len(languages))
		for _, lang := range languages {
			e.languages[lang] = true
		}
	}
}

// WithParallel controls the parallel extraction pipeline used by
// IndexFiles. Defaults to true.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithStaleEdgeEviction removes a file's stale call-graph edges after
// each successful re-index, trading the historical accumulate-only
// behavior for an accurate graph in long-lived processes.
func WithStaleEdgeEviction(evict bool) Option {
	return func(e *Engine) {
		e.evictStale = evict
	}
}

// New creates an Engine backed by a SQLite database at dbPath. The
// schema is created idempotently; a schema failure wraps ErrSchema and
// is fatal.
func New(dbPath string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchema, err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: %w", ErrSchema, err)
	}

	e := &Engine{
		store:       s,
		parsers:     parser.NewRegistry(),
		graph:       graph.New(),
		stats:       stats.New(),
		useParallel: true,
	}
	// References resolve their enclosing scope against the spans of the
	// symbols extracted from the same file.
	e.extractor = extract.New(extract.WithResolverFactory(extract.SpanResolver))

	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *store.Store {
	return e.store
}

// IndexFile parses and indexes one file. The store write is a single
// transaction (readers see the old state or the new state, never a mix);
// the call graph and statistics update strictly after the commit, so a
// failed file never perturbs them.
func (e *Engine) IndexFile(ctx context.Context, path string, content []byte) error {
	start := time.Now()

	lang, ok := e.parsers.Detect(path)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedLanguage, filepath.Ext(path))
	}
	if e.languages != nil && !e.languages[lang] {
		return fmt.Errorf("%w: %s filtered out", ErrUnsupportedLanguage, lang)
	}

	symbols, references, err := e.parseAndExtract(ctx, lang, path, content)
	if err != nil {
		return err
	}

	if err := e.store.ReplaceFile(path, symbols, references); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}

	// Persistence is committed; only now touch shared in-memory state.
	e.updateGraph(path, symbols, references)
	e.recordStats(symbols, references, time.Since(start))
	return nil
}

// parseAndExtract runs the parser (exclusively per language) and the
// extractor for one file. No shared engine state is touched.
func (e *Engine) parseAndExtract(ctx context.Context, lang, path string, content []byte) ([]SymbolEntry, []SymbolReference, error) {
	p, ok := e.parsers.Get(lang)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}
	res, err := p.Parse(ctx, content)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}
	symbols, references := e.extractor.Extract(res, path, content)
	return symbols, references, nil
}

// updateGraph folds one committed batch into the call graph. Every
// symbol id becomes a node; references with a resolved source become
// kind-labeled edges (unresolved targets become bare-name nodes).
func (e *Engine) updateGraph(path string, symbols []SymbolEntry, references []SymbolReference) {
	e.graph.BeginFile(path)
	for i := range symbols {
		e.graph.AddSymbol(symbols[i].ID)
		e.graph.RegisterName(symbols[i].Name, symbols[i].ID)
	}
	for i := range references {
		ref := &references[i]
		if ref.FromSymbolID == "" {
			continue
		}
		e.graph.AddReference(ref.FromSymbolID, ref.ToSymbolID, ref.ReferenceKind, path)
	}
	if e.evictStale {
		e.graph.EvictStale(path)
	}
}

func (e *Engine) recordStats(symbols []SymbolEntry, references []SymbolReference, elapsed time.Duration) {
	kinds := make([]SymbolKind, len(symbols))
	for i := range symbols {
		kinds[i] = symbols[i].Kind
	}
	e.stats.Record(len(symbols), len(references), float64(elapsed.Microseconds())/1000.0, kinds)
}

// IndexFiles indexes the given paths, reading each from disk. Unsupported
// and language-filtered files are skipped, not reported as errors; both
// pipelines share that behavior. Uses the parallel pipeline unless
// WithParallel(false) was set. Errors on individual files are collected;
// the remaining files still index.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) error {
	if e.useParallel {
		return e.indexFilesParallel(ctx, paths)
	}
	return e.indexFilesSerial(ctx, paths)
}

func (e *Engine) indexFilesSerial(ctx context.Context, paths []string) error {
	var errs []error
	for _, path := range paths {
		lang, ok := e.parsers.Detect(path)
		if !ok {
			continue
		}
		if e.languages != nil && !e.languages[lang] {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", path, err))
			continue
		}
		if err := e.IndexFile(ctx, path, content); err != nil {
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

// skipDirs are directories excluded from discovery.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
}

// IndexDirectory walks root and indexes all files with supported
// extensions. If root is inside a git repository, uses git ls-files to
// respect .gitignore; falls back to a filesystem walk otherwise.
func (e *Engine) IndexDirectory(ctx context.Context, root string) error {
	paths, err := e.gitListFiles(root)
	if err != nil {
		paths, err = e.walkListFiles(root)
		if err != nil {
			return err
		}
	}
	return e.IndexFiles(ctx, paths)
}

// gitListFiles discovers tracked and untracked (but not ignored) files
// under root, filtered to supported languages.
func (e *Engine) gitListFiles(root string) ([]string, error) {
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		absPath := filepath.Join(root, line)
		if _, ok := e.parsers.Detect(absPath); ok {
			paths = append(paths, absPath)
		}
	}
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem, skipping
// hidden directories and the usual dependency caches.
func (e *Engine) walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := e.parsers.Detect(path); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}
