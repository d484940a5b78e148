package abi_cmd

import (
	"github.com/lunfardo314/cellabi/abi"
	"github.com/lunfardo314/cellabi/cabi/glb"
	"github.com/spf13/cobra"
)

var headerOutputFlag bool

func initHeaderCmd() *cobra.Command {
	headerCmd := &cobra.Command{
		Use:   "header <BOC>",
		Args:  cobra.ExactArgs(1),
		Short: "displays version and selector of the body without decoding parameters",
		Run:   runHeaderCmd,
	}
	headerCmd.Flags().BoolVar(&headerOutputFlag, "output", false, "the body is a response")
	return headerCmd
}

func runHeaderCmd(_ *cobra.Command, args []string) {
	root := glb.MustReadBOC(args[0])
	h, err := abi.ReadHeader(root, !headerOutputFlag)
	glb.AssertNoError(err)
	glb.Infof("version:  %d", h.Version)
	glb.Infof("selector: 0x%08x", h.Selector)
	glb.Infof("hash:     %s", root.Hash().String())
	glb.Infof("depth:    %d", root.Depth())
}
