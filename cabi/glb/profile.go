package glb

import (
	"context"
	"strings"
	"time"

	"github.com/lunfardo314/cellabi/abi"
	"github.com/lunfardo314/cellabi/signing"
	"github.com/lunfardo314/cellabi/util"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const DefaultProfileName = "cabi"

func ReadInConfig() {
	configName := viper.GetString("config")
	if configName == "" {
		configName = DefaultProfileName
	}
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	viper.SetConfigName(configName)
	viper.SetConfigFile("./" + configName + ".yaml")

	viper.SetEnvPrefix("CABI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read-in environment variables that match

	_ = viper.ReadInConfig()
	Verbosef("using profile: %s", viper.ConfigFileUsed())
}

func Logger() *zap.SugaredLogger {
	switch VerbosityLevel() {
	case 0:
		return zap.NewNop().Sugar()
	case 1:
		return util.NewLogger("info", "cabi")
	}
	return util.NewLogger("debug", "cabi")
}

// Codec uses 'abi.version' from the profile, unless the definitions file says otherwise
func Codec(version ...byte) *abi.Codec {
	v := byte(viper.GetUint("abi.version"))
	if len(version) > 0 {
		v = version[0]
	}
	return abi.NewCodec(abi.WithVersion(v), abi.WithLogger(Logger()))
}

// MustGetSigner takes the key from 'wallet.private_key', 'wallet.mnemonic' or the sealed 'wallet.keystore'
func MustGetSigner() abi.Signer {
	if kp, ok := getKeyPair(); ok {
		Verbosef("signing with public key %s", kp.PublicKeyHex())
		return kp
	}
	sealedStr := viper.GetString("wallet.keystore")
	Assertf(sealedStr != "", "private key not specified")
	sealed, err := signing.SealedFromHex(sealedStr)
	AssertNoError(err)
	password := viper.GetString("wallet.password")
	Assertf(password != "", "password for the keystore not specified. Use CABI_WALLET_PASSWORD")
	return MustKeystore().Signer([]byte(password), sealed)
}

func MustGetKeyPair() *signing.KeyPair {
	ret, ok := getKeyPair()
	Assertf(ok, "private key or mnemonic not specified")
	return ret
}

func getKeyPair() (*signing.KeyPair, bool) {
	if privateKeyStr := viper.GetString("wallet.private_key"); privateKeyStr != "" {
		ret, err := signing.KeyPairFromHex(privateKeyStr)
		AssertNoError(err)
		return ret, true
	}
	if mnemonic := viper.GetString("wallet.mnemonic"); mnemonic != "" {
		path := viper.GetString("wallet.hd_path")
		if path == "" {
			path = signing.DefaultHDPath
		}
		ret, err := signing.KeyPairFromMnemonicPath(mnemonic, viper.GetString("wallet.passphrase"), path)
		AssertNoError(err)
		return ret, true
	}
	return nil, false
}

func MustKeystore() *signing.Keystore {
	opts := []signing.CacheOption{signing.WithCacheLogger(Logger())}
	if ttl := viper.GetDuration("keystore.cache_ttl"); ttl > 0 {
		opts = append(opts, signing.WithTTL(ttl))
	}
	if logN := viper.GetInt("keystore.scrypt_log_n"); logN > 0 {
		opts = append(opts, signing.WithScryptParams(logN, 8, 1))
	}
	cache, err := signing.NewDerivedKeyCache(opts...)
	AssertNoError(err)
	return signing.NewKeystore(cache)
}

func SigningContext() (context.Context, context.CancelFunc) {
	timeout := viper.GetDuration("wallet.sign_timeout")
	if timeout <= 0 {
		timeout = time.Minute
	}
	return context.WithTimeout(context.Background(), timeout)
}
