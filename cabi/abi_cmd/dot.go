package abi_cmd

import (
	"os"

	"github.com/lunfardo314/cellabi/cabi/glb"
	"github.com/lunfardo314/cellabi/cell"
	"github.com/spf13/cobra"
)

func initDotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dot <BOC> [<output file>]",
		Args:  cobra.RangeArgs(1, 2),
		Short: "writes cell tree of the BOC in Graphviz DOT format",
		Run:   runDotCmd,
	}
}

func runDotCmd(_ *cobra.Command, args []string) {
	root := glb.MustReadBOC(args[0])
	if len(args) == 1 {
		glb.AssertNoError(cell.WriteDOT(os.Stdout, root))
		return
	}
	f, err := os.Create(args[1])
	glb.AssertNoError(err)
	defer f.Close()
	glb.AssertNoError(cell.WriteDOT(f, root))
	glb.Infof("DOT written to '%s'", args[1])
}
