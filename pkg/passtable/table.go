package passtable

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
	"unicode/utf8"

	"github.com/DangerousVegetable/passtool/pkg/passcrypt"
	"go.uber.org/zap"
)

// Table maps unique names to encrypted passwords.
type Table struct {
	entries  map[string]*Entry
	revision uint64
	deriver  passcrypt.Deriver
	log      *zap.Logger
}

type Option = func(*Table)

// WithDeriver sets how new entries derive their key. Existing entries keep the scheme they were added with.
func WithDeriver(d passcrypt.Deriver) Option {
	return func(t *Table) {
		if d != nil {
			t.deriver = d
		}
	}
}

// WithLogger sets the logger used for debug events. Passwords and passphrases are never logged.
func WithLogger(log *zap.Logger) Option {
	return func(t *Table) {
		if log != nil {
			t.log = log
		}
	}
}

// New creates an empty Table. By default, entries use passcrypt.HashDeriver.
func New(opts ...Option) *Table {
	t := &Table{
		entries: map[string]*Entry{},
		deriver: passcrypt.HashDeriver{},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Add encrypts the password with the passphrase and stores it under name.
func (t *Table) Add(name, password string, meta Metadata, passphrase string) error {
	if _, ok := t.entries[name]; ok {
		return fmt.Errorf("%w: '%s'", ErrAlreadyExists, name)
	}
	ciphertext, salt, err := passcrypt.EncryptWith(t.deriver, passcrypt.Plaintext(password), passcrypt.Passphrase(passphrase))
	if err != nil {
		return fmt.Errorf("failed to encrypt password '%s': %w", name, err)
	}
	t.entries[name] = &Entry{
		name:       name,
		scheme:     t.deriver.Scheme(),
		salt:       salt,
		ciphertext: ciphertext,
		meta:       meta.clone(),
	}
	t.log.Debug("Added password", zap.String("name", name), zap.Stringer("scheme", t.deriver.Scheme()))
	return nil
}

// Password decrypts the password stored under name.
func (t *Table) Password(name, passphrase string) (string, error) {
	e, err := t.get(name)
	if err != nil {
		return "", err
	}
	d, err := t.deriverFor(e.scheme)
	if err != nil {
		return "", fmt.Errorf("password '%s': %w", name, err)
	}
	plain, err := passcrypt.DecryptWith(d, e.ciphertext, e.salt, passcrypt.Passphrase(passphrase))
	if err != nil {
		if errors.Is(err, passcrypt.ErrAuthentication) {
			return "", fmt.Errorf("%w for '%s'", ErrIncorrectPassphrase, name)
		}
		return "", fmt.Errorf("failed to decrypt password '%s': %w", name, err)
	}
	if !utf8.Valid(plain) {
		return "", fmt.Errorf("%w: '%s'", ErrDecode, name)
	}
	return string(plain), nil
}

// Metadata returns a copy of the metadata stored under name.
// Use UpdateMetadata to change it.
func (t *Table) Metadata(name string) (Metadata, error) {
	e, err := t.get(name)
	if err != nil {
		return Metadata{}, err
	}
	return e.meta.clone(), nil
}

// UpdateMetadata replaces the metadata stored under name. The encrypted password is untouched.
func (t *Table) UpdateMetadata(name string, meta Metadata) error {
	e, err := t.get(name)
	if err != nil {
		return err
	}
	e.meta = meta.clone()
	t.log.Debug("Updated metadata", zap.String("name", name))
	return nil
}

func (t *Table) Remove(name string) error {
	if _, err := t.get(name); err != nil {
		return err
	}
	delete(t.entries, name)
	t.log.Debug("Removed password", zap.String("name", name))
	return nil
}

// Rename moves the entry under oldName to newName.
// Keys aren't derived from the name, so the password stays readable with the same passphrase.
func (t *Table) Rename(oldName, newName string) error {
	e, err := t.get(oldName)
	if err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}
	if _, ok := t.entries[newName]; ok {
		return fmt.Errorf("%w: '%s'", ErrAlreadyExists, newName)
	}
	delete(t.entries, oldName)
	e.name = newName
	t.entries[newName] = e
	t.log.Debug("Renamed password", zap.String("from", oldName), zap.String("to", newName))
	return nil
}

// Names yields every name in the Table in no particular order.
// The sequence may be ranged over more than once, but the Table must not change while it's in use.
func (t *Table) Names() iter.Seq[string] {
	return func(yield func(string) bool) {
		for name := range t.entries {
			if !yield(name) {
				return
			}
		}
	}
}

// SortedNames returns every name in the Table in lexical order.
func (t *Table) SortedNames() []string {
	return slices.Sorted(maps.Keys(t.entries))
}

func (t *Table) Contains(name string) bool {
	_, ok := t.entries[name]
	return ok
}

func (t *Table) Len() int {
	return len(t.entries)
}

// Revision is the number of times the Table's file has been saved.
func (t *Table) Revision() uint64 {
	return t.revision
}

// Equal compares entries field by field. Apps are compared as sets, and the revision is ignored.
func (t *Table) Equal(other *Table) bool {
	if len(t.entries) != len(other.entries) {
		return false
	}
	for name, e := range t.entries {
		o, ok := other.entries[name]
		if !ok || !e.equal(o) {
			return false
		}
	}
	return true
}

func (t *Table) get(name string) (*Entry, error) {
	e, ok := t.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrNotFound, name)
	}
	return e, nil
}

func (t *Table) deriverFor(scheme passcrypt.Scheme) (passcrypt.Deriver, error) {
	if scheme == t.deriver.Scheme() {
		return t.deriver, nil
	}
	return passcrypt.DeriverFor(scheme)
}
