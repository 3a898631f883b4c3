package main

import (
	"fmt"
	"os"

	"github.com/DangerousVegetable/passtool/cmd/internal"
	"github.com/DangerousVegetable/passtool/internal/config"
	"github.com/DangerousVegetable/passtool/internal/logger"
)

var version = "dev"

func usage() {
	fmt.Printf(`
passtool keeps passwords in a single local file. Each password is encrypted with its own passphrase, while names, descriptions and affiliated apps stay readable without one.

USAGE:  passtool [FLAGS] COMMAND [ARGS]

COMMANDS:
%s
FLAGS:
%s
ENVIRONMENT:
    %s overrides the default store location (passwords.pt next to the executable).
    %s selects the key derivation for new passwords.
    %s names a JSON config file with the keys "file", "kdf" and "verbose".
    %s supplies the passphrase instead of prompting. Only use this for scripting.

VERSION: %s
`, commandUsages(), config.FlagUsages(), config.EnvFile, config.EnvKDF, config.EnvConfig, EnvPassphrase, version)
}

func main() {
	opts, args, err := config.Parse(os.Args[1:])
	if err != nil {
		usage()
		internal.Fatal("%v", err)
	}
	if opts.Help || len(args) == 0 {
		usage()
		return
	}
	log, err := logger.New(opts.Verbose)
	if err != nil {
		internal.Fatal("Failed to initialize logging: %v", err)
	}
	defer func() {
		_ = log.Sync()
	}()

	a := newApp(opts, log)
	if err := a.run(args); err != nil {
		_ = log.Sync()
		internal.Fatal("%s", userMessage(err))
	}
}
