package abi_cmd

import (
	"github.com/lunfardo314/cellabi/cabi/glb"
	"github.com/spf13/cobra"
)

var (
	signFlag   bool
	outputFlag bool
	outFile    string
)

func initEncodeCmd() *cobra.Command {
	encodeCmd := &cobra.Command{
		Use:   "encode <function> <values>",
		Args:  cobra.ExactArgs(2),
		Short: "encodes call (or response with --output) and displays hex encoded BOC",
		Long: `encodes call or response.
<function> is a name from the definitions file or a signature like 'transfer(bits256,uint128)()'.
<values> is a YAML list or map of values, a file with it or '-' for stdin`,
		Run: runEncodeCmd,
	}
	encodeCmd.Flags().BoolVarP(&signFlag, "sign", "s", false, "sign the call with the wallet key")
	encodeCmd.Flags().BoolVar(&outputFlag, "output", false, "encode response instead of call")
	encodeCmd.Flags().StringVarP(&outFile, "file", "f", "", "write binary BOC to the file")
	return encodeCmd
}

func runEncodeCmd(_ *cobra.Command, args []string) {
	f, version := glb.MustGetFunction(args[0])
	codec := glb.CodecFor(version)

	if outputFlag {
		glb.Assertf(!signFlag, "response can't be signed")
		root, err := codec.EncodeOutput(f, glb.MustParseValues(f.Outputs, args[1]))
		glb.AssertNoError(err)
		glb.Verbosef("response of %s:\n%s", f.Signature(), root.String())
		glb.OutputBOC(root, outFile)
		return
	}

	values := glb.MustParseValues(f.Inputs, args[1])
	if !signFlag {
		root, err := codec.EncodeCall(f, values)
		glb.AssertNoError(err)
		glb.Verbosef("unsigned call of %s:\n%s", f.Signature(), root.String())
		glb.OutputBOC(root, outFile)
		return
	}
	ctx, cancel := glb.SigningContext()
	defer cancel()
	root, err := codec.EncodeSignedCall(ctx, f, values, glb.MustGetSigner())
	glb.AssertNoError(err)
	glb.Verbosef("signed call of %s:\n%s", f.Signature(), root.String())
	glb.OutputBOC(root, outFile)
}
