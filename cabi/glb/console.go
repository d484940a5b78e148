package glb

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

func Infof(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}

func IsVerbose() bool {
	return viper.GetBool("verbose") || viper.GetBool("v2")
}

func VerbosityLevel() int {
	if !IsVerbose() {
		return 0
	}
	if viper.GetBool("v2") {
		return 2
	}
	return 1
}

func Verbosef(format string, args ...any) {
	if IsVerbose() {
		fmt.Printf(format+"\n", args...)
	}
}

func Fatalf(format string, args ...any) {
	fmt.Printf("Error: "+format+"\n", args...)
	os.Exit(1)
}

func AssertNoError(err error) {
	if err != nil {
		Fatalf("error: %v", err)
	}
}

func Assertf(cond bool, format string, args ...any) {
	if !cond {
		Fatalf(format, args...)
	}
}
