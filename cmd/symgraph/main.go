package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/symgraph"
)

var (
	flagDB     string
	flagFormat string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "symgraph",
	Short:         "Symbol indexing and call-graph analysis",
	Long:          "Symgraph indexes source code with tree-sitter into a SQLite database with full-text search, and answers find-references, call-graph, and circular-dependency queries.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagFormat != "json" && flagFormat != "text" {
			return fmt.Errorf("invalid format %q (want json or text)", flagFormat)
		}
		return nil
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: .symgraph/index.db relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: json|text")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(refsCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(cyclesCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(statsCmd)
}

var (
	flagForce     bool
	flagLanguages string
	flagSerial    bool
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a directory tree",
	Long:  "Parses source files with tree-sitter, extracts symbols and references, and writes them to the SQLite index.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "delete the database and reindex from scratch")
	indexCmd.Flags().StringVar(&flagLanguages, "languages", "", "comma-separated language filter (e.g. go,rust)")
	indexCmd.Flags().BoolVar(&flagSerial, "serial", false, "disable the parallel indexing pipeline")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	repoRoot := findRepoRoot(targetDir)
	dbPath := resolveDBPath(repoRoot)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}
	if flagForce {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing database for --force: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Cleared database: %s\n", dbPath)
	}

	var opts []symgraph.Option
	if flagLanguages != "" {
		langs := strings.Split(flagLanguages, ",")
		for i := range langs {
			langs[i] = strings.TrimSpace(langs[i])
		}
		opts = append(opts, symgraph.WithLanguages(langs...))
	}
	if flagSerial {
		opts = append(opts, symgraph.WithParallel(false))
	}

	engine, err := symgraph.New(dbPath, opts...)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer engine.Close()

	if err := engine.IndexDirectory(context.Background(), targetDir); err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	st := engine.Stats()
	fmt.Fprintf(os.Stderr, "Indexed %d file(s), %d symbol(s), %d reference(s) in %s\n",
		st.FilesIndexed, st.TotalSymbols, st.TotalReferences,
		time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	return nil
}

// openEngine opens the engine against the resolved database path for the
// read-only query commands.
func openEngine() (*symgraph.Engine, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	dbPath := resolveDBPath(findRepoRoot(cwd))
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("no index at %s (run 'symgraph index' first)", dbPath)
	}
	return symgraph.New(dbPath)
}

// resolveTargetDir returns the absolute path of the directory to index.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag or the default.
func resolveDBPath(repoRoot string) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(repoRoot, flagDB)
	}
	return filepath.Join(repoRoot, ".symgraph", "index.db")
}
