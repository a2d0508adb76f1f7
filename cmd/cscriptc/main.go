package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/compiscript/ccc/pkg/driver"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// Debug flags for dumping intermediate representations, one per pipeline
// stage.
var (
	dParse bool
	dSema  bool
	dTAC   bool
	dOpt   bool
	dQuads bool
	dAsm   bool
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cscriptc [file]",
		Short:         "cscriptc compiles a Compiscript source file to MIPS assembly",
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				fmt.Fprintf(errOut, "cscriptc: error reading %s: %v\n", args[0], err)
				return err
			}

			r := driver.Compile(string(content))
			printTimings(out, r)

			switch {
			case dParse:
				fmt.Fprint(out, r.ASTText)
			case dSema:
				dumpSymbolTree(out, r)
			case dTAC:
				fmt.Fprint(out, r.RawTACText)
			case dOpt:
				fmt.Fprint(out, r.TACText)
			case dQuads:
				fmt.Fprint(out, r.QuadsText)
			case dAsm:
				fmt.Fprint(out, r.ASMText)
			default:
				fmt.Fprintln(out, "cscriptc: compiled "+args[0])
			}

			for _, d := range r.Diagnostics {
				fmt.Fprintln(errOut, d.String())
			}
			if len(r.Diagnostics) > 0 {
				return fmt.Errorf("compilation reported %d diagnostic(s)", len(r.Diagnostics))
			}
			return nil
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().BoolVar(&dParse, "dparse", false, "Dump the parsed AST")
	rootCmd.Flags().BoolVar(&dSema, "dsema", false, "Dump the annotated symbol tree as JSON")
	rootCmd.Flags().BoolVar(&dTAC, "dtac", false, "Dump pre-peephole TAC text")
	rootCmd.Flags().BoolVar(&dOpt, "dopt", false, "Dump post-peephole TAC text")
	rootCmd.Flags().BoolVar(&dQuads, "dquads", false, "Dump the re-parsed quadruples")
	rootCmd.Flags().BoolVar(&dAsm, "dasm", false, "Dump the final MIPS assembly")

	return rootCmd
}

func dumpSymbolTree(out io.Writer, r *driver.Result) {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.Encode(r.SymbolTree)
}

// printTimings writes the "timing summary precedes diagnostics" line that
// spec.md's error handling design calls for, one stage per line.
func printTimings(out io.Writer, r *driver.Result) {
	for _, t := range r.Timings {
		fmt.Fprintf(out, "# %-10s %s\n", t.Stage, t.Duration)
	}
}
