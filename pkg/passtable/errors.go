package passtable

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyExists       = errors.New("password already exists")
	ErrNotFound            = errors.New("password not found")
	ErrIncorrectPassphrase = errors.New("incorrect passphrase")
	// ErrDecode is returned when a decrypted password isn't valid UTF-8 text.
	ErrDecode = errors.New("password is not valid text")
	// ErrFormat is returned by Load when the input isn't a valid encoded Table.
	ErrFormat = errors.New("invalid password table format")
	// ErrUnsupportedVersion is returned, along with ErrFormat, for a table written in a format version this package can't read.
	ErrUnsupportedVersion = errors.New("unsupported password table version")
	// ErrStaleStore is returned by SaveFile when the file has been saved since this Table was loaded.
	ErrStaleStore = errors.New("password table file has changed since it was loaded")
)

// errNotTable marks input that doesn't start with the table magic at all.
var errNotTable = fmt.Errorf("%w: not a password table", ErrFormat)
