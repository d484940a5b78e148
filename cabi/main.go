package main

import (
	"os"

	"github.com/lunfardo314/cellabi/cabi/abi_cmd"
	"github.com/lunfardo314/cellabi/cabi/glb"
	"github.com/lunfardo314/cellabi/cabi/init_cmd"
	"github.com/lunfardo314/cellabi/cabi/keys_cmd"
	"github.com/lunfardo314/cellabi/cabi/pending_cmd"
	"github.com/lunfardo314/cellabi/cabi/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cabi",
		Short: "a simple CLI for encoding, decoding and signing of cell ABI bodies",
		Long: `cabi is a CLI tool for the cell ABI codec.
It encodes function calls and responses into cell trees, decodes them back, signs calls
and keeps calls waiting for external signatures`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			glb.ReadInConfig()
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "profile name")
	err := viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	glb.AssertNoError(err)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose")
	err = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	glb.AssertNoError(err)

	rootCmd.PersistentFlags().Bool("v2", false, "verbose 2")
	err = viper.BindPFlag("v2", rootCmd.PersistentFlags().Lookup("v2"))
	glb.AssertNoError(err)

	rootCmd.AddCommand(
		abi_cmd.Init(),
		keys_cmd.Init(),
		pending_cmd.Init(),
		init_cmd.Init(),
		version.CmdVersion(),
	)
	rootCmd.InitDefaultHelpCmd()
	if err = rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
