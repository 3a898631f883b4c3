// Package config resolves the global passtool options.
//
// Values are layered in this order, with later layers taking precedence:
//   - built-in defaults
//   - a JSON config file, given with --config or PASSTOOL_CONFIG
//   - environment variables PASSTOOL_FILE and PASSTOOL_KDF
//   - explicitly set command line flags
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DangerousVegetable/passtool/pkg/passcrypt"
	flag "github.com/spf13/pflag"
)

const (
	EnvFile   = "PASSTOOL_FILE"
	EnvKDF    = "PASSTOOL_KDF"
	EnvConfig = "PASSTOOL_CONFIG"

	DefaultFileName = "passwords.pt"
)

// Options holds the global configuration for a passtool invocation.
type Options struct {
	// File is the path of the password store.
	File string `json:"file"`

	// KDF names the key derivation used for new entries: hash, scrypt, or argon2id.
	KDF string `json:"kdf"`

	// Verbose enables debug logging.
	Verbose bool `json:"verbose"`

	// Config is the path to the JSON config file, if any.
	Config string `json:"-"`

	// Help is set when usage information was requested.
	Help bool `json:"-"`
}

// Defaults returns the options used when nothing else is configured.
// The store lives next to the executable.
func Defaults() *Options {
	file := DefaultFileName
	if exe, err := os.Executable(); err == nil {
		file = filepath.Join(filepath.Dir(exe), DefaultFileName)
	}
	return &Options{
		File: file,
		KDF:  passcrypt.SchemeHash.String(),
	}
}

func newFlagSet(o *Options) *flag.FlagSet {
	flags := flag.NewFlagSet("passtool", flag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.Usage = func() {}
	flags.StringVarP(&o.File, "file", "f", o.File, "Path to the password store file.")
	flags.StringVar(&o.KDF, "kdf", o.KDF, "Key derivation for new passwords: hash, scrypt, or argon2id.")
	flags.BoolVarP(&o.Verbose, "verbose", "v", o.Verbose, "Enables debug logging to stderr.")
	flags.StringVar(&o.Config, "config", o.Config, "Path to a JSON config file.")
	flags.BoolVarP(&o.Help, "help", "h", false, "Prints this usage information.")
	return flags
}

// FlagUsages returns the formatted global flags, for use in help text.
func FlagUsages() string {
	return newFlagSet(Defaults()).FlagUsages()
}

// Parse resolves Options from args, which must not include the program name.
// Parsing stops at the first non-flag argument, and the remaining arguments are returned.
func Parse(args []string) (*Options, []string, error) {
	var fromFlags Options
	flags := newFlagSet(&fromFlags)
	if err := flags.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	opts := Defaults()
	opts.Config = os.Getenv(EnvConfig)
	if flags.Changed("config") {
		opts.Config = fromFlags.Config
	}
	if opts.Config != "" {
		if err := opts.loadFile(opts.Config); err != nil {
			return nil, nil, err
		}
	}

	if file := os.Getenv(EnvFile); file != "" {
		opts.File = file
	}
	if kdf := os.Getenv(EnvKDF); kdf != "" {
		opts.KDF = kdf
	}

	if flags.Changed("file") {
		opts.File = fromFlags.File
	}
	if flags.Changed("kdf") {
		opts.KDF = fromFlags.KDF
	}
	if flags.Changed("verbose") {
		opts.Verbose = fromFlags.Verbose
	}
	opts.Help = fromFlags.Help

	if _, err := opts.Scheme(); err != nil {
		return nil, nil, err
	}
	return opts, flags.Args(), nil
}

func (o *Options) loadFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // The config location is chosen by the user.
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := json.Unmarshal(data, o); err != nil {
		return fmt.Errorf("error while parsing config file '%s': %w", path, err)
	}
	return nil
}

// Scheme returns the derivation scheme named by KDF.
func (o *Options) Scheme() (passcrypt.Scheme, error) {
	return passcrypt.ParseScheme(o.KDF)
}

// Deriver returns the passcrypt.Deriver for KDF, with default tuning.
func (o *Options) Deriver() (passcrypt.Deriver, error) {
	scheme, err := o.Scheme()
	if err != nil {
		return nil, err
	}
	return passcrypt.DeriverFor(scheme)
}
