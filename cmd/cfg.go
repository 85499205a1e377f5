package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"sealscan/internal/dominance"
	"sealscan/internal/program"
	"sealscan/internal/scanner"
)

var cfgCommand = &cobra.Command{
	Use:   "cfg",
	Short: "print the blocks, successors and dominators of each function",
	Long:  ``,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printCFG(cmd.OutOrStdout(), append(append([]string(nil), CFGFiles...), args...), CFGFunc)
	},
}

var (
	CFGFiles []string
	CFGFunc  string
)

func init() {
	cfgCommand.Flags().StringArrayVar(&CFGFiles, "file", nil, "model file or directory")
	cfgCommand.Flags().StringVar(&CFGFunc, "func", "", "only print this function")
}

func printCFG(w io.Writer, files []string, only string) error {
	if len(files) == 0 {
		return errors.New("no model given, use --file")
	}
	loader := scanner.NewLoader()
	if err := loader.LoadFromModels(files); err != nil {
		return errors.Wrap(err, "LoadFromModels")
	}
	found := false
	for _, prog := range loader.GetPrograms() {
		for i := range prog.Functions {
			fn := &prog.Functions[i]
			if only != "" && fn.Name != only {
				continue
			}
			found = true
			writeFunctionCFG(w, prog, fn)
		}
	}
	if only != "" && !found {
		return errors.Errorf("function %s not found", only)
	}
	return nil
}

func writeFunctionCFG(w io.Writer, prog *program.Program, fn *program.Function) {
	fmt.Fprintf(w, "fn %s (%s)\n", fn.Name, fn.Pos)
	if err := prog.Validate(fn); err != nil {
		fmt.Fprintf(w, "  invalid: %v\n\n", err)
		return
	}
	tree := dominance.Compute(fn)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Block", "Succs", "Idom", "Stmts", "Loop"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	for b := range fn.Blocks {
		id := program.BlockID(b)
		succs := make([]string, 0, len(fn.Blocks[b].Succs))
		for _, s := range fn.Blocks[b].Succs {
			succs = append(succs, blockName(s))
		}
		idom := blockName(tree.Idom(id))
		switch {
		case !tree.Reachable(id):
			idom = "unreachable"
		case id == tree.Entry():
			idom = "entry"
		}
		table.Append([]string{
			blockName(id),
			strings.Join(succs, " "),
			idom,
			strconv.Itoa(len(fn.Blocks[b].Stmts)),
			strconv.FormatBool(tree.InLoop(id)),
		})
	}
	table.Render()
	fmt.Fprintln(w)
}

func blockName(b program.BlockID) string {
	if b == program.NoBlock {
		return "-"
	}
	return "bb" + strconv.Itoa(int(b))
}
