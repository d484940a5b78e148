package pending_cmd

import (
	"encoding/hex"
	"time"

	"github.com/lunfardo314/cellabi/cabi/glb"
	"github.com/lunfardo314/cellabi/cell"
	"github.com/lunfardo314/cellabi/pending"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func Init() *cobra.Command {
	pendingCmd := &cobra.Command{
		Use:   "pending",
		Args:  cobra.NoArgs,
		Short: "calls waiting for external signature",
		Run: func(cmd *cobra.Command, args []string) {
		},
	}
	pendingCmd.PersistentFlags().String("pending.db", "", "pending calls database")
	err := viper.BindPFlag("pending.db", pendingCmd.PersistentFlags().Lookup("pending.db"))
	glb.AssertNoError(err)

	pendingCmd.AddCommand(
		initPutCmd(),
		initListCmd(),
		initSignCmd(),
		initAttachCmd(),
		initPurgeCmd(),
	)
	pendingCmd.InitDefaultHelpCmd()
	return pendingCmd
}

var ttl time.Duration

func initPutCmd() *cobra.Command {
	putCmd := &cobra.Command{
		Use:   "put <function> <values>",
		Args:  cobra.ExactArgs(2),
		Short: "prepares call for signing, stores it and displays the hash to be signed",
		Run: func(_ *cobra.Command, args []string) {
			f, version := glb.MustGetFunction(args[0])
			p, err := glb.CodecFor(version).PrepareForSigning(f, glb.MustParseValues(f.Inputs, args[1]))
			glb.AssertNoError(err)

			store := glb.OpenPendingStore()
			defer glb.CloseDatabases()
			h, err := store.Put(p, ttl)
			glb.AssertNoError(err)
			glb.Infof("hash to sign: %s", hex.EncodeToString(h[:]))
		},
	}
	putCmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "time to wait for signature")
	return putCmd
}

func initListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Args:  cobra.NoArgs,
		Short: "lists stored calls",
		Run: func(_ *cobra.Command, _ []string) {
			store := glb.OpenPendingStore()
			defer glb.CloseDatabases()
			now := time.Now()
			n := 0
			err := store.Iterate(func(e *pending.Entry) bool {
				status := "pending"
				if !now.Before(e.Deadline) {
					status = "EXPIRED"
				}
				glb.Infof("%s  %-20s  %s  deadline: %s", hex.EncodeToString(e.Hash[:]), e.FunctionName, status, e.Deadline.Format(time.RFC3339))
				n++
				return true
			})
			glb.AssertNoError(err)
			glb.Infof("total %d calls", n)
		},
	}
}

func mustParseHash(s string) cell.Hash {
	data, err := hex.DecodeString(s)
	glb.AssertNoError(err)
	var ret cell.Hash
	glb.Assertf(len(data) == len(ret), "%d bytes hash expected", len(ret))
	copy(ret[:], data)
	return ret
}

var outFile string

func initSignCmd() *cobra.Command {
	signCmd := &cobra.Command{
		Use:   "sign <function> <hash>",
		Args:  cobra.ExactArgs(2),
		Short: "signs stored call with the wallet key and displays the signed BOC",
		Run: func(_ *cobra.Command, args []string) {
			f, version := glb.MustGetFunction(args[0])
			h := mustParseHash(args[1])

			ctx, cancel := glb.SigningContext()
			defer cancel()
			sig, pub, err := glb.MustGetSigner().SignHash(ctx, h[:])
			glb.AssertNoError(err)

			store := glb.OpenPendingStore()
			defer glb.CloseDatabases()
			root, err := store.Attach(glb.CodecFor(version), f, h, sig, pub)
			glb.AssertNoError(err)
			glb.OutputBOC(root, outFile)
		},
	}
	signCmd.Flags().StringVarP(&outFile, "file", "f", "", "write binary BOC to the file")
	return signCmd
}

func initAttachCmd() *cobra.Command {
	attachCmd := &cobra.Command{
		Use:   "attach <function> <hash> <signature> <public key>",
		Args:  cobra.ExactArgs(4),
		Short: "completes stored call with externally produced signature",
		Run: func(_ *cobra.Command, args []string) {
			f, version := glb.MustGetFunction(args[0])
			h := mustParseHash(args[1])
			sig, err := hex.DecodeString(args[2])
			glb.AssertNoError(err)
			pub, err := hex.DecodeString(args[3])
			glb.AssertNoError(err)

			store := glb.OpenPendingStore()
			defer glb.CloseDatabases()
			root, err := store.Attach(glb.CodecFor(version), f, h, sig, pub)
			glb.AssertNoError(err)
			glb.OutputBOC(root, outFile)
		},
	}
	attachCmd.Flags().StringVarP(&outFile, "file", "f", "", "write binary BOC to the file")
	return attachCmd
}

func initPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Args:  cobra.NoArgs,
		Short: "removes expired calls",
		Run: func(_ *cobra.Command, _ []string) {
			store := glb.OpenPendingStore()
			defer glb.CloseDatabases()
			removed, remaining, err := store.Purge()
			glb.AssertNoError(err)
			glb.Infof("removed %d expired calls, %d remaining", removed, remaining)
		},
	}
}
