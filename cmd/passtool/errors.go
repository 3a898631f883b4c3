package main

import (
	"errors"
	"fmt"

	"github.com/DangerousVegetable/passtool/pkg/passtable"
)

var errUsage = errors.New("invalid usage")

// failure attaches the entry name or store path an error is about.
type failure struct {
	subject string
	err     error
}

func failed(subject string, err error) error {
	if err == nil {
		return nil
	}
	return &failure{subject: subject, err: err}
}

func (f *failure) Error() string {
	return f.err.Error()
}

func (f *failure) Unwrap() error {
	return f.err
}

var userMessages = []struct {
	kind   error
	format string
}{
	{passtable.ErrAlreadyExists, "'%s' already exists"},
	{passtable.ErrNotFound, "no such entry '%s'"},
	{passtable.ErrIncorrectPassphrase, "incorrect passphrase for '%s'"},
	{passtable.ErrDecode, "'%s' does not hold valid text"},
	{passtable.ErrUnsupportedVersion, "store file '%s' was written by a newer version of passtool"},
	{passtable.ErrFormat, "store file '%s' is corrupt"},
	{passtable.ErrStaleStore, "store '%s' changed on disk, reload and retry"},
}

// userMessage describes err for the command line, without exposing wrapping details for known failure kinds.
func userMessage(err error) string {
	var f *failure
	if errors.As(err, &f) {
		for _, m := range userMessages {
			if errors.Is(err, m.kind) {
				return fmt.Sprintf(m.format, f.subject)
			}
		}
	}
	return err.Error()
}
