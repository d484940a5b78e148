package abi_cmd

import (
	"encoding/hex"

	"github.com/lunfardo314/cellabi/abi"
	"github.com/lunfardo314/cellabi/cabi/glb"
	"github.com/spf13/cobra"
)

var decodeOutputFlag bool

func initDecodeCmd() *cobra.Command {
	decodeCmd := &cobra.Command{
		Use:   "decode <function> <BOC>",
		Args:  cobra.ExactArgs(2),
		Short: "decodes call (or response with --output) and displays values in YAML",
		Run:   runDecodeCmd,
	}
	decodeCmd.Flags().BoolVar(&decodeOutputFlag, "output", false, "decode response instead of call")
	return decodeCmd
}

func runDecodeCmd(_ *cobra.Command, args []string) {
	f, version := glb.MustGetFunction(args[0])
	codec := glb.CodecFor(version)
	root := glb.MustReadBOC(args[1])

	if decodeOutputFlag {
		values, selector, err := codec.DecodeOutput(f, root)
		glb.AssertNoError(err)
		glb.Verbosef("selector: 0x%08x", selector)
		glb.Infof("%s", glb.ValuesYAML(f.Outputs, values))
		return
	}
	decoded, err := codec.DecodeCall(f, root)
	glb.AssertNoError(err)
	glb.Infof("# %s, version %d, %s", f.Signature(), decoded.Header.Version, decoded.Slot.Kind.String())
	if decoded.Slot.Kind == abi.SlotSigned {
		glb.Infof("# public key: %s", hex.EncodeToString(decoded.Slot.PublicKey))
		if err = abi.VerifySignature(root); err != nil {
			glb.Infof("# signature is INVALID: %v", err)
		} else {
			glb.Infof("# signature is valid")
		}
	}
	glb.Verbosef("# unsigned body hash: %s", decoded.Slot.Hash.String())
	glb.Infof("%s", glb.ValuesYAML(f.Inputs, decoded.Values))
}
