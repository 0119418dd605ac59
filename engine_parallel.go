package symgraph

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"
)

// workItem carries one file through the parallel pipeline.
type workItem struct {
	path       string
	lang       string
	symbols    []SymbolEntry
	references []SymbolReference
	elapsed    time.Duration
}

// indexFilesParallel indexes files in two phases:
//
//	Phase A (parallel): parse and extract via a worker pool. Files of the
//	same language serialize on that language's parser; other languages
//	proceed concurrently.
//	Phase B (serial): commit each batch to SQLite, then fold it into the
//	call graph and statistics.
//
// The graph lock is only ever taken in Phase B, after the write has
// committed, so it never spans I/O.
func (e *Engine) indexFilesParallel(ctx context.Context, paths []string) error {
	var work []workItem
	var errs []error
	for _, path := range paths {
		lang, ok := e.parsers.Detect(path)
		if !ok {
			continue
		}
		if e.languages != nil && !e.languages[lang] {
			continue
		}
		work = append(work, workItem{path: path, lang: lang})
	}
	if len(work) == 0 {
		return nil
	}

	numWorkers := min(runtime.NumCPU(), len(work))

	workCh := make(chan workItem, len(work))
	for _, item := range work {
		workCh <- item
	}
	close(workCh)

	type result struct {
		item workItem
		err  error
	}
	resultCh := make(chan result, len(work))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workCh {
				start := time.Now()
				content, err := os.ReadFile(item.path)
				if err != nil {
					resultCh <- result{item: item, err: fmt.Errorf("read file: %w", err)}
					continue
				}
				item.symbols, item.references, err = e.parseAndExtract(ctx, item.lang, item.path, content)
				item.elapsed = time.Since(start)
				resultCh <- result{item: item, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	for res := range resultCh {
		if res.err != nil {
			errs = append(errs, fmt.Errorf("extract %s: %w", res.item.path, res.err))
			continue
		}
		if err := e.store.ReplaceFile(res.item.path, res.item.symbols, res.item.references); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrWrite, res.item.path, err))
			continue
		}
		e.updateGraph(res.item.path, res.item.symbols, res.item.references)
		e.recordStats(res.item.symbols, res.item.references, res.item.elapsed)
	}

	if len(errs) > 0 {
		return fmt.Errorf("parallel indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}
