package abi_cmd

import (
	"github.com/lunfardo314/cellabi/cabi/glb"
	"github.com/spf13/cobra"
)

func initSelectorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "selector <function name or signature>",
		Args:  cobra.ExactArgs(1),
		Short: "displays canonical signature and selector of the function",
		Run:   runSelectorCmd,
	}
}

func runSelectorCmd(_ *cobra.Command, args []string) {
	f, _ := glb.MustGetFunction(args[0])
	glb.Infof("signature: %s", f.Signature())
	glb.Infof("selector:  0x%08x", f.Selector())
}
