package abi_cmd

import (
	"github.com/spf13/cobra"
)

func Init() *cobra.Command {
	abiCmd := &cobra.Command{
		Use:   "abi",
		Args:  cobra.NoArgs,
		Short: "encoding and decoding of function calls and responses",
		Run: func(cmd *cobra.Command, args []string) {
		},
	}
	abiCmd.AddCommand(
		initSelectorCmd(),
		initEncodeCmd(),
		initDecodeCmd(),
		initDotCmd(),
		initHeaderCmd(),
	)
	abiCmd.InitDefaultHelpCmd()
	return abiCmd
}
