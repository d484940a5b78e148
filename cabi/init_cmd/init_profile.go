package init_cmd

import (
	"bytes"
	"os"
	"text/template"

	"github.com/lunfardo314/cellabi/cabi/glb"
	"github.com/lunfardo314/cellabi/signing"
	"github.com/spf13/cobra"
)

func Init() *cobra.Command {
	return &cobra.Command{
		Use:   "init [<profile name. Default: 'cabi'>]",
		Args:  cobra.MaximumNArgs(1),
		Short: "initializes new cabi profile with generated mnemonic",
		Run:   runInitProfileCommand,
	}
}

func runInitProfileCommand(_ *cobra.Command, args []string) {
	templ := template.New("profile")
	_, err := templ.Parse(profileTemplate)
	glb.AssertNoError(err)

	profileName := glb.DefaultProfileName
	if len(args) > 0 {
		profileName = args[0]
	}
	profileFname := profileName + ".yaml"
	glb.Assertf(!glb.FileExists(profileFname), "file %s already exists", profileFname)

	mnemonic, err := signing.NewMnemonic()
	glb.AssertNoError(err)
	kp, err := signing.KeyPairFromMnemonic(mnemonic, "")
	glb.AssertNoError(err)

	data := struct {
		Mnemonic  string
		PublicKey string
		PendingDB string
	}{
		Mnemonic:  mnemonic,
		PublicKey: kp.PublicKeyHex(),
		PendingDB: glb.DefaultPendingDBName,
	}
	var buf bytes.Buffer
	err = templ.Execute(&buf, data)
	glb.AssertNoError(err)

	err = os.WriteFile(profileFname, buf.Bytes(), 0600)
	glb.AssertNoError(err)
	glb.Infof("cabi profile '%s' has been created successfully.\nPublic key: %s", profileFname, data.PublicKey)
}

const profileTemplate = `# cabi profile

abi:
    # ABI version written into headers and expected when decoding.
    # The 'version' field of the definitions file takes precedence
    version: 0
    # YAML file with function definitions. Functions can also be given by signature
#    definitions: functions.yaml

wallet:
    mnemonic: {{.Mnemonic}}
    # optional BIP39 passphrase
    passphrase: ""
    # BIP32 derivation path of the signing key
#    hd_path: "m/44'/396'/0'/0/0"
    # public key: {{.PublicKey}}
    # alternatively, hex encoded ed25519 private key or a sealed key from 'cabi keys seal'.
    # Password of the sealed key is taken from CABI_WALLET_PASSWORD
#    private_key: <hex>
#    keystore: <hex>
    sign_timeout: 1m

keystore:
    # how long the derived key is kept. Default is twice the derivation time
#    cache_ttl: 5m
    scrypt_log_n: 14

pending:
    db: {{.PendingDB}}

boc:
    no_crc: false
`
