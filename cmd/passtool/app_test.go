package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DangerousVegetable/passtool/internal/config"
	"github.com/DangerousVegetable/passtool/pkg/passcrypt"
	"github.com/DangerousVegetable/passtool/pkg/passtable"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakePrompt struct {
	secret     string
	passphrase string
	calls      int
}

func (p *fakePrompt) Passphrase(string, bool) (string, error) {
	p.calls++
	return p.passphrase, nil
}

func (p *fakePrompt) Secret(string) (string, error) {
	p.calls++
	return p.secret, nil
}

type testApp struct {
	*app
	out    *bytes.Buffer
	prompt *fakePrompt
	copied []string
}

func newTestApp(t *testing.T) *testApp {
	orig := color.NoColor
	color.NoColor = true
	t.Cleanup(func() {
		color.NoColor = orig
	})

	ta := &testApp{
		out:    new(bytes.Buffer),
		prompt: &fakePrompt{secret: "secret", passphrase: "k"},
	}
	ta.app = &app{
		opts:   &config.Options{File: filepath.Join(t.TempDir(), config.DefaultFileName), KDF: "hash"},
		log:    zaptest.NewLogger(t),
		out:    ta.out,
		prompt: ta.prompt,
		copy: func(s string) error {
			ta.copied = append(ta.copied, s)
			return nil
		},
	}
	return ta
}

// exec runs the command line and returns its output.
func (ta *testApp) exec(t *testing.T, line ...string) string {
	ta.out.Reset()
	require.NoError(t, ta.run(line), "command: %v", line)
	return ta.out.String()
}

func (ta *testApp) fail(t *testing.T, line ...string) string {
	ta.out.Reset()
	err := ta.run(line)
	require.Error(t, err, "command: %v", line)
	return userMessage(err)
}

func TestApp_Lifecycle(t *testing.T) {
	ta := newTestApp(t)
	assert.Contains(t, ta.exec(t, "list"), "No passwords stored")

	assert.Equal(t, "Added 'mail'\n", ta.exec(t, "add", "mail", "-d", "Personal mail", "-a", "thunderbird", "--app", "firefox"))
	ta.prompt.secret = "hunter2"
	ta.prompt.passphrase = "other"
	ta.exec(t, "add", "bank")

	assert.Equal(t, " - bank\n - mail  Personal mail  [thunderbird, firefox]\n", ta.exec(t, "list"))
	assert.Equal(t, " - mail  Personal mail  [thunderbird, firefox]\n", ta.exec(t, "list", "--app", "firefox"))
	assert.Contains(t, ta.exec(t, "list", "--app", "chrome"), "No passwords stored")

	ta.prompt.passphrase = "k"
	assert.Equal(t, "secret\n", ta.exec(t, "get", "mail"))
	assert.Equal(t, "Copied 'mail' to the clipboard\n", ta.exec(t, "get", "mail", "-c"))
	assert.Equal(t, []string{"secret"}, ta.copied)
	assert.Equal(t, "incorrect passphrase for 'bank'", ta.fail(t, "get", "bank"))

	meta := ta.exec(t, "meta", "mail")
	assert.Contains(t, meta, "description: Personal mail")
	assert.Contains(t, meta, "apps: thunderbird, firefox")

	ta.exec(t, "update", "mail", "-d", "Work mail")
	meta = ta.exec(t, "meta", "mail")
	assert.Contains(t, meta, "description: Work mail")
	assert.Contains(t, meta, "apps: thunderbird, firefox", "apps are kept unless given")
	ta.exec(t, "update", "mail", "-a", "outlook")
	assert.Contains(t, ta.exec(t, "meta", "mail"), "apps: outlook\n")

	assert.Equal(t, "Renamed 'mail' to 'email'\n", ta.exec(t, "rename", "mail", "email"))
	assert.Equal(t, "secret\n", ta.exec(t, "get", "email"))
	assert.Equal(t, "'bank' already exists", ta.fail(t, "rename", "email", "bank"))

	assert.Equal(t, "Removed 'email'\n", ta.exec(t, "rm", "email"))
	assert.Equal(t, "no such entry 'email'", ta.fail(t, "rm", "email"))
	assert.Equal(t, " - bank\n", ta.exec(t, "list"))

	loaded, err := passtable.LoadFile(ta.opts.File)
	require.NoError(t, err)
	assert.Equal(t, []string{"bank"}, loaded.SortedNames())
}

func TestApp_NoPromptOnKnownFailure(t *testing.T) {
	ta := newTestApp(t)
	ta.exec(t, "add", "mail")
	calls := ta.prompt.calls

	assert.Equal(t, "'mail' already exists", ta.fail(t, "add", "mail"))
	assert.Equal(t, "no such entry 'bank'", ta.fail(t, "get", "bank"))
	assert.Equal(t, "no such entry 'bank'", ta.fail(t, "meta", "bank"))
	assert.Equal(t, "no such entry 'bank'", ta.fail(t, "update", "bank", "-d", "x"))
	assert.Equal(t, "no such entry 'bank'", ta.fail(t, "rename", "bank", "b"))
	assert.Equal(t, calls, ta.prompt.calls)
}

func TestApp_Generate(t *testing.T) {
	ta := newTestApp(t)
	pass := strings.TrimSuffix(ta.exec(t, "gen", "-n", "12", "--no-special", "--no-letters"), "\n")
	assert.Len(t, pass, 12)
	assert.Equal(t, strings.Trim(pass, "0123456789"), "")

	assert.Len(t, strings.TrimSuffix(ta.exec(t, "gen"), "\n"), 20)
	ta.fail(t, "gen", "--no-special", "--no-letters", "--no-digits")

	ta.exec(t, "add", "generated", "-g", "32")
	assert.Equal(t, 1, ta.prompt.calls, "only the passphrase should be prompted")
	assert.Len(t, strings.TrimSuffix(ta.exec(t, "get", "generated"), "\n"), 32)
}

func TestApp_SaltedKDF(t *testing.T) {
	ta := newTestApp(t)
	ta.opts.KDF = "scrypt"
	ta.exec(t, "add", "salted")

	ta.opts.KDF = "hash"
	assert.Equal(t, "secret\n", ta.exec(t, "get", "salted"), "entries remember their derivation")

	loaded, err := passtable.LoadFile(ta.opts.File, passtable.WithDeriver(passcrypt.HashDeriver{}))
	require.NoError(t, err)
	pass, err := loaded.Password("salted", "k")
	require.NoError(t, err)
	assert.Equal(t, "secret", pass)
}

func TestApp_Browse(t *testing.T) {
	ta := newTestApp(t)
	ta.exec(t, "add", "mail")
	ta.exec(t, "add", "bank")

	var names []string
	ta.browse = func(store *passtable.Shared, copyFn func(string) error) error {
		names = store.SortedNames()
		return copyFn("from browser")
	}
	ta.exec(t, "browse")
	assert.Equal(t, []string{"bank", "mail"}, names)
	assert.Equal(t, []string{"from browser"}, ta.copied)
}

func TestApp_CorruptStore(t *testing.T) {
	ta := newTestApp(t)
	require.NoError(t, os.WriteFile(ta.opts.File, []byte("garbage"), 0600))
	assert.Equal(t, fmt.Sprintf("store file '%s' is corrupt", ta.opts.File), ta.fail(t, "list"))
}

func TestApp_NewerStore(t *testing.T) {
	ta := newTestApp(t)
	ta.exec(t, "add", "mail")
	data, err := os.ReadFile(ta.opts.File)
	require.NoError(t, err)
	data[3]++ // format version
	require.NoError(t, os.WriteFile(ta.opts.File, data, 0600))

	expected := fmt.Sprintf("store file '%s' was written by a newer version of passtool", ta.opts.File)
	assert.Equal(t, expected, ta.fail(t, "list"))
	assert.Equal(t, expected, ta.fail(t, "add", "bank"))

	onDisk, err := os.ReadFile(ta.opts.File)
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)
}

func TestApp_Usage(t *testing.T) {
	ta := newTestApp(t)
	tests := map[string][]string{
		"No command":      nil,
		"Unknown command": {"frobnicate"},
		"Unknown flag":    {"list", "--nope"},
		"Missing name":    {"get"},
		"Extra args":      {"rm", "a", "b"},
		"Rename one name": {"rename", "a"},
		"Empty update":    {"update", "a"},
	}
	for name, line := range tests {
		t.Run(name, func(t *testing.T) {
			err := ta.run(line)
			assert.ErrorIs(t, err, errUsage)
		})
	}
}

func TestUserMessage(t *testing.T) {
	stale := failed("passwords.pt", fmt.Errorf("save: %w", passtable.ErrStaleStore))
	assert.Equal(t, "store 'passwords.pt' changed on disk, reload and retry", userMessage(stale))
	assert.Equal(t, "'x' does not hold valid text", userMessage(failed("x", passtable.ErrDecode)))
	assert.Equal(t, "plain failure", userMessage(fmt.Errorf("plain failure")))
	assert.NoError(t, failed("x", nil))
}

func TestCommandUsages(t *testing.T) {
	usages := commandUsages()
	for _, c := range commands {
		assert.Contains(t, usages, c.name+" "+c.args)
	}
}
