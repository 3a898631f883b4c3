package passtable

import (
	"bytes"
	"slices"

	"github.com/DangerousVegetable/passtool/pkg/passcrypt"
)

// Metadata describes an entry. It's stored unencrypted.
type Metadata struct {
	Description string
	// Apps lists the applications the password is used with. Order is not significant.
	Apps []string
}

// HasApp reports whether app is one of the affiliated apps.
func (m Metadata) HasApp(app string) bool {
	return slices.Contains(m.Apps, app)
}

// Equal compares descriptions, and compares apps as a set.
func (m Metadata) Equal(other Metadata) bool {
	if m.Description != other.Description {
		return false
	}
	a, b := m.appSet(), other.appSet()
	return slices.Equal(a, b)
}

func (m Metadata) appSet() []string {
	apps := slices.Clone(m.Apps)
	slices.Sort(apps)
	return slices.Compact(apps)
}

func (m Metadata) clone() Metadata {
	out := Metadata{Description: m.Description}
	if len(m.Apps) > 0 {
		out.Apps = slices.Clone(m.Apps)
	}
	return out
}

// Entry is a single encrypted password in a Table.
type Entry struct {
	name       string
	scheme     passcrypt.Scheme
	salt       passcrypt.Salt
	ciphertext passcrypt.Encrypted
	meta       Metadata
}

func (e *Entry) equal(other *Entry) bool {
	return e.name == other.name &&
		e.scheme == other.scheme &&
		bytes.Equal(e.salt, other.salt) &&
		bytes.Equal(e.ciphertext, other.ciphertext) &&
		e.meta.Equal(other.meta)
}
