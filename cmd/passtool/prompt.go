package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/term"
)

// EnvPassphrase supplies the passphrase without prompting.
const EnvPassphrase = "PASSTOOL_PASSPHRASE"

var (
	errEmptyInput = errors.New("input must not be empty")
	errMismatch   = errors.New("passphrases do not match")
)

type prompter interface {
	// Passphrase asks for an entry's passphrase, twice if confirm is set.
	Passphrase(label string, confirm bool) (string, error)
	// Secret asks for the password to store.
	Secret(label string) (string, error)
}

type terminalPrompt struct {
	out io.Writer
}

func (p terminalPrompt) Passphrase(label string, confirm bool) (string, error) {
	if env := os.Getenv(EnvPassphrase); env != "" {
		return env, nil
	}
	pass, err := p.read(label)
	if err != nil {
		return "", err
	}
	if !confirm {
		return pass, nil
	}
	again, err := p.read("Confirm passphrase: ")
	if err != nil {
		return "", err
	}
	if pass != again {
		return "", errMismatch
	}
	return pass, nil
}

func (p terminalPrompt) Secret(label string) (string, error) {
	return p.read(label)
}

// read reads a line without echo, from stdin when it's a terminal, or from /dev/tty when stdin is piped.
func (p terminalPrompt) read(label string) (string, error) {
	_, _ = fmt.Fprint(p.out, label)
	defer func() {
		_, _ = fmt.Fprintln(p.out)
	}()

	fd := int(os.Stdin.Fd()) //nolint:gosec // File descriptors fit in an int.
	if !term.IsTerminal(fd) {
		tty, err := os.Open("/dev/tty")
		if err != nil {
			if runtime.GOOS == "windows" {
				return "", fmt.Errorf("passphrase must be set via %s when stdin is piped", EnvPassphrase)
			}
			return "", fmt.Errorf("cannot prompt: stdin is piped and /dev/tty is not available, set %s", EnvPassphrase)
		}
		defer func() {
			_ = tty.Close()
		}()
		fd = int(tty.Fd()) //nolint:gosec // File descriptors fit in an int.
	}
	input, err := term.ReadPassword(fd)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	if len(input) == 0 {
		return "", errEmptyInput
	}
	return string(input), nil
}
