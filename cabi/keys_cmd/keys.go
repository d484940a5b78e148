package keys_cmd

import (
	"encoding/hex"

	"github.com/lunfardo314/cellabi/cabi/glb"
	"github.com/lunfardo314/cellabi/signing"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func Init() *cobra.Command {
	keysCmd := &cobra.Command{
		Use:   "keys",
		Args:  cobra.NoArgs,
		Short: "key generation and sealing",
		Run: func(cmd *cobra.Command, args []string) {
		},
	}
	keysCmd.AddCommand(
		initGenCmd(),
		initShowCmd(),
		initSealCmd(),
	)
	keysCmd.InitDefaultHelpCmd()
	return keysCmd
}

func initGenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gen",
		Args:  cobra.NoArgs,
		Short: "generates new BIP39 mnemonic and displays the ed25519 key derived from it",
		Run: func(_ *cobra.Command, _ []string) {
			mnemonic, err := signing.NewMnemonic()
			glb.AssertNoError(err)
			kp, err := signing.KeyPairFromMnemonic(mnemonic, "")
			glb.AssertNoError(err)
			glb.Infof("mnemonic:    %s", mnemonic)
			glb.Infof("private key: %s", hex.EncodeToString(kp.PrivateKey()))
			glb.Infof("public key:  %s", kp.PublicKeyHex())
		},
	}
}

func initShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Args:  cobra.NoArgs,
		Short: "displays public key of the wallet",
		Run: func(_ *cobra.Command, _ []string) {
			glb.Infof("public key: %s", glb.MustGetKeyPair().PublicKeyHex())
		},
	}
}

func initSealCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seal",
		Args:  cobra.NoArgs,
		Short: "seals wallet key with the password (CABI_WALLET_PASSWORD) for 'wallet.keystore'",
		Run: func(_ *cobra.Command, _ []string) {
			password := viper.GetString("wallet.password")
			glb.Assertf(password != "", "password not specified")
			kp := glb.MustGetKeyPair()
			ks := glb.MustKeystore()
			sealed, err := ks.EncryptKey([]byte(password), kp.PrivateKey())
			glb.AssertNoError(err)
			_, err = ks.DecryptKey([]byte(password), sealed)
			glb.AssertNoError(err)
			glb.Infof("keystore: %s", hex.EncodeToString(sealed))
		},
	}
}
