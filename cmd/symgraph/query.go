package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var flagLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over indexed symbols",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		symbols, err := engine.Search(args[0], flagLimit)
		if err != nil {
			return err
		}
		return emit(symbols, func() {
			for _, sym := range symbols {
				fmt.Printf("%-10s %-30s %s:%d  (q=%.1f)\n",
					sym.Kind, sym.Name, sym.FilePath, sym.StartPos.Line+1, sym.QualityScore)
			}
		})
	},
}

var refsCmd = &cobra.Command{
	Use:   "refs <symbol-id>",
	Short: "List references targeting a symbol id or bare name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		refs, err := engine.FindReferences(args[0])
		if err != nil {
			return err
		}
		return emit(refs, func() {
			for _, ref := range refs {
				from := ref.FromSymbolID
				if from == "" {
					from = "<unresolved>"
				}
				fmt.Printf("%-12s %s:%d  %s <- %s\n",
					ref.ReferenceKind, ref.FilePath, ref.Position.Line+1, ref.ToSymbolID, from)
			}
		})
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph <symbol-id>",
	Short: "Show a symbol's direct calls and callers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		info, err := engine.GetCallGraph(args[0])
		if err != nil {
			return err
		}
		return emit(info, func() {
			fmt.Printf("%s\n  calls:     %s\n  called by: %s\n",
				info.SymbolID, joinOrDash(info.Calls), joinOrDash(info.CalledBy))
		})
	},
}

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "Detect circular dependencies in the call graph",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		cycles, err := engine.FindCircularDependencies()
		if err != nil {
			return err
		}
		return emit(cycles, func() {
			if len(cycles) == 0 {
				fmt.Println("No circular dependencies.")
				return
			}
			for i, cycle := range cycles {
				fmt.Printf("%d. %s\n", i+1, strings.Join(cycle, " -> "))
			}
		})
	},
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "Dump all indexed symbols ordered by name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		symbols, err := engine.AllSymbols()
		if err != nil {
			return err
		}
		return emit(symbols, func() {
			for _, sym := range symbols {
				fmt.Printf("%-10s %-30s %s:%d\n",
					sym.Kind, sym.Name, sym.FilePath, sym.StartPos.Line+1)
			}
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		st := engine.Stats()
		return emit(st, func() {
			fmt.Printf("files indexed:    %d\n", st.FilesIndexed)
			fmt.Printf("symbols:          %d\n", st.TotalSymbols)
			fmt.Printf("references:       %d\n", st.TotalReferences)
			fmt.Printf("index time:       %.1fms\n", st.IndexTimeMs)
			fmt.Printf("cycles:           %d\n", len(st.CyclicDependencies))
			for kind, count := range st.SymbolsByKind {
				fmt.Printf("  %-14s %s\n", kind+":", strconv.Itoa(count))
			}
		})
	},
}

func init() {
	searchCmd.Flags().IntVar(&flagLimit, "limit", 20, "maximum number of results")
}

// emit writes v as JSON when --format=json, else runs the text printer.
func emit(v any, text func()) error {
	if flagFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text()
	return nil
}

func joinOrDash(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ", ")
}
