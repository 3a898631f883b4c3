package passtable

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"slices"
	"testing"

	"github.com/DangerousVegetable/passtool/pkg/passcrypt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	message  = "super secret message"
	password = "super secret password"
)

func randomString(t *testing.T, n int) string {
	buf := make([]byte, n)
	_, err := rand.Read(buf)
	require.NoError(t, err)
	return hex.EncodeToString(buf)
}

func TestTable_AddPassword(t *testing.T) {
	pt := New()
	require.NoError(t, pt.Add("test", message, Metadata{}, password))
	pass, err := pt.Password("test", password)
	require.NoError(t, err)
	assert.Equal(t, message, pass)
}

func TestTable_ManyPasswords(t *testing.T) {
	type row struct{ name, message, passphrase string }
	var data []row
	for i := 0; i < 10; i++ {
		data = append(data, row{name: fmt.Sprint(i), message: randomString(t, 50), passphrase: randomString(t, 25)})
	}

	pt := New()
	for _, r := range data {
		require.NoError(t, pt.Add(r.name, r.message, Metadata{}, r.passphrase))
	}
	for _, r := range data {
		pass, err := pt.Password(r.name, r.passphrase)
		require.NoError(t, err)
		assert.Equal(t, r.message, pass)
	}
	assert.Equal(t, 10, pt.Len())
}

func TestTable_IncorrectPassphrase(t *testing.T) {
	pt := New()
	require.NoError(t, pt.Add("pass1", "test1", Metadata{}, "password1"))
	require.NoError(t, pt.Add("pass2", "test2", Metadata{}, "password2"))

	pass, err := pt.Password("pass2", "password2")
	require.NoError(t, err)
	assert.Equal(t, "test2", pass)

	pass, err = pt.Password("pass1", "password2")
	assert.ErrorIs(t, err, ErrIncorrectPassphrase)
	assert.Empty(t, pass)
}

func TestTable_AlreadyExists(t *testing.T) {
	pt := New()
	require.NoError(t, pt.Add("test", message, Metadata{}, password))
	err := pt.Add("test", "another message", Metadata{Description: "other"}, "another password")
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Contains(t, err.Error(), "'test'")

	pass, err := pt.Password("test", password)
	require.NoError(t, err)
	assert.Equal(t, message, pass, "the original entry should be untouched")
}

func TestTable_NotFound(t *testing.T) {
	pt := New()
	require.NoError(t, pt.Add("test", message, Metadata{}, password))

	_, err := pt.Password("test2", "bebra")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = pt.Metadata("test2")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, pt.UpdateMetadata("test2", Metadata{}), ErrNotFound)
	assert.ErrorIs(t, pt.Remove("test2"), ErrNotFound)
	assert.ErrorIs(t, pt.Rename("test2", "test3"), ErrNotFound)
}

func TestTable_Remove(t *testing.T) {
	pt := New()
	require.NoError(t, pt.Add("a", "secret", Metadata{}, "k"))
	assert.True(t, pt.Contains("a"))
	require.NoError(t, pt.Remove("a"))
	assert.False(t, pt.Contains("a"))

	_, err := pt.Password("a", "k")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, pt.Remove("a"), ErrNotFound)

	require.NoError(t, pt.Add("a", "new secret", Metadata{}, "k2"), "a removed name should be usable again")
	pass, err := pt.Password("a", "k2")
	require.NoError(t, err)
	assert.Equal(t, "new secret", pass)
}

func TestTable_Metadata(t *testing.T) {
	pt := New()
	meta := Metadata{Description: "mail", Apps: []string{"thunderbird", "firefox"}}
	require.NoError(t, pt.Add("mail", message, meta, password))

	got, err := pt.Metadata("mail")
	require.NoError(t, err)
	assert.Equal(t, meta, got)

	got.Apps[0] = "changed"
	meta.Apps[1] = "changed too"
	stored, err := pt.Metadata("mail")
	require.NoError(t, err)
	assert.Equal(t, []string{"thunderbird", "firefox"}, stored.Apps, "metadata should not alias caller slices")

	updated := Metadata{Description: "work mail", Apps: []string{"outlook"}}
	require.NoError(t, pt.UpdateMetadata("mail", updated))
	got, err = pt.Metadata("mail")
	require.NoError(t, err)
	assert.Equal(t, updated, got)
	assert.True(t, got.HasApp("outlook"))
	assert.False(t, got.HasApp("firefox"))

	pass, err := pt.Password("mail", password)
	require.NoError(t, err)
	assert.Equal(t, message, pass, "updating metadata should not touch the password")
}

func TestTable_Rename(t *testing.T) {
	pt := New()
	require.NoError(t, pt.Add("old", message, Metadata{Description: "d"}, password))
	require.NoError(t, pt.Add("taken", message, Metadata{}, password))

	assert.ErrorIs(t, pt.Rename("old", "taken"), ErrAlreadyExists)
	assert.NoError(t, pt.Rename("old", "old"))
	require.NoError(t, pt.Rename("old", "new"))
	assert.False(t, pt.Contains("old"))

	pass, err := pt.Password("new", password)
	require.NoError(t, err)
	assert.Equal(t, message, pass)
	meta, err := pt.Metadata("new")
	require.NoError(t, err)
	assert.Equal(t, "d", meta.Description)
}

func TestTable_Names(t *testing.T) {
	pt := New()
	assert.Empty(t, slices.Collect(pt.Names()))
	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, pt.Add(name, message, Metadata{}, password))
	}

	names := pt.Names()
	first := slices.Sorted(names)
	second := slices.Sorted(names)
	assert.Equal(t, []string{"a", "b", "c"}, first)
	assert.Equal(t, first, second, "the sequence should be restartable")
	assert.Equal(t, []string{"a", "b", "c"}, pt.SortedNames())

	count := 0
	for range pt.Names() {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestTable_Decode(t *testing.T) {
	pt := New()
	ciphertext, err := passcrypt.Encrypt([]byte{0xff, 0xfe, 0xfd}, passcrypt.Passphrase(password))
	require.NoError(t, err)
	pt.entries["binary"] = &Entry{name: "binary", ciphertext: ciphertext}

	_, err = pt.Password("binary", password)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestTable_SaltedDerivers(t *testing.T) {
	scryptDeriver, err := passcrypt.NewScryptDeriver(passcrypt.SetIterations(1 << 10))
	require.NoError(t, err)
	argonDeriver, err := passcrypt.NewArgon2Deriver(passcrypt.SetArgon2Memory(1024), passcrypt.SetArgon2Threads(1))
	require.NoError(t, err)

	tests := map[string]passcrypt.Deriver{
		"Scrypt":   scryptDeriver,
		"Argon2id": argonDeriver,
	}
	for name, d := range tests {
		t.Run(name, func(t *testing.T) {
			pt := New(WithDeriver(d))
			require.NoError(t, pt.Add("one", "test1", Metadata{}, "same passphrase"))
			require.NoError(t, pt.Add("two", "test1", Metadata{}, "same passphrase"))
			assert.NotEqual(t, pt.entries["one"].salt, pt.entries["two"].salt)
			assert.NotEqual(t, pt.entries["one"].ciphertext, pt.entries["two"].ciphertext)
			assert.Equal(t, d.Scheme(), pt.entries["one"].scheme)

			pass, err := pt.Password("two", "same passphrase")
			require.NoError(t, err)
			assert.Equal(t, "test1", pass)
			_, err = pt.Password("two", "other passphrase")
			assert.ErrorIs(t, err, ErrIncorrectPassphrase)

			// A table with the default deriver can still read salted entries.
			reader := New()
			reader.entries = pt.entries
			pass, err = reader.Password("one", "same passphrase")
			require.NoError(t, err)
			assert.Equal(t, "test1", pass)
		})
	}
}

func TestMetadata_Equal(t *testing.T) {
	tests := map[string]struct {
		a, b     Metadata
		expected bool
	}{
		"Empty":           {expected: true},
		"Nil vs empty":    {a: Metadata{Apps: nil}, b: Metadata{Apps: []string{}}, expected: true},
		"Order":           {a: Metadata{Apps: []string{"x", "y"}}, b: Metadata{Apps: []string{"y", "x"}}, expected: true},
		"Description":     {a: Metadata{Description: "a"}, b: Metadata{Description: "b"}},
		"Different apps":  {a: Metadata{Apps: []string{"x"}}, b: Metadata{Apps: []string{"y"}}},
		"Missing app":     {a: Metadata{Apps: []string{"x", "y"}}, b: Metadata{Apps: []string{"x"}}},
		"Duplicated apps": {a: Metadata{Apps: []string{"x", "x"}}, b: Metadata{Apps: []string{"x"}}, expected: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.a.Equal(tc.b))
			assert.Equal(t, tc.expected, tc.b.Equal(tc.a))
		})
	}
}
