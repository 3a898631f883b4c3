package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/DangerousVegetable/passtool/cmd/passtool/internal/browse"
	"github.com/DangerousVegetable/passtool/internal/config"
	"github.com/DangerousVegetable/passtool/pkg/passgen"
	"github.com/DangerousVegetable/passtool/pkg/passtable"
	"github.com/atotto/clipboard"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

type app struct {
	opts   *config.Options
	log    *zap.Logger
	out    io.Writer
	prompt prompter
	copy   func(string) error
	browse func(store *passtable.Shared, copyFn func(string) error) error
}

func newApp(opts *config.Options, log *zap.Logger) *app {
	return &app{
		opts:   opts,
		log:    log,
		out:    os.Stdout,
		prompt: terminalPrompt{out: os.Stderr},
		copy:   clipboard.WriteAll,
		browse: func(store *passtable.Shared, copyFn func(string) error) error {
			return browse.New(store, copyFn).Run()
		},
	}
}

type command struct {
	args    string
	summary string
	// flags registers command flags on the set, and returns the function running the command.
	flags func(a *app, flags *flag.FlagSet) func(args []string) error
}

var commands = []struct {
	name string
	command
}{
	{"list", command{"[--app APP]", "Lists stored passwords with their metadata.", (*app).list}},
	{"add", command{"NAME [-d DESC] [-a APP]... [-g LEN]", "Stores a new password, prompting for it unless -g is given.", (*app).add}},
	{"get", command{"NAME [-c]", "Decrypts a password and prints it, or copies it to the clipboard.", (*app).get}},
	{"meta", command{"NAME", "Shows the metadata of a password.", (*app).meta}},
	{"update", command{"NAME [-d DESC] [-a APP]...", "Replaces the description and/or the apps of a password.", (*app).update}},
	{"rm", command{"NAME", "Removes a password.", (*app).remove}},
	{"rename", command{"OLD NEW", "Renames a password. Its passphrase stays the same.", (*app).rename}},
	{"gen", command{"[-n LEN] [--no-letters] [--no-digits] [--no-special]", "Prints a random password.", (*app).gen}},
	{"browse", command{"", "Opens an interactive browser to copy passwords.", (*app).browseCmd}},
}

func commandUsages() string {
	var sb strings.Builder
	for _, c := range commands {
		_, _ = fmt.Fprintf(&sb, "    %s %s\n        %s\n", c.name, c.args, c.summary)
	}
	return sb.String()
}

// run dispatches to the command named by args[0].
func (a *app) run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}
	for _, c := range commands {
		if c.name != args[0] {
			continue
		}
		flags := flag.NewFlagSet(c.name, flag.ContinueOnError)
		flags.SetOutput(io.Discard)
		runFn := c.flags(a, flags)
		if err := flags.Parse(args[1:]); err != nil {
			return fmt.Errorf("%w: %s %s: %v", errUsage, c.name, c.args, err)
		}
		a.log.Debug("Running command", zap.String("command", c.name), zap.String("store", a.opts.File))
		return runFn(flags.Args())
	}
	return fmt.Errorf("%w: unknown command '%s'", errUsage, args[0])
}

func requireArgs(args []string, n int, usage string) error {
	if len(args) != n {
		return fmt.Errorf("%w: expected %s", errUsage, usage)
	}
	return nil
}

// load reads the store, or starts an empty one if the file doesn't exist yet.
func (a *app) load() (*passtable.Table, error) {
	d, err := a.opts.Deriver()
	if err != nil {
		return nil, err
	}
	opts := []passtable.Option{passtable.WithDeriver(d), passtable.WithLogger(a.log)}
	t, err := passtable.LoadFile(a.opts.File, opts...)
	if errors.Is(err, fs.ErrNotExist) {
		a.log.Debug("Starting a new store", zap.String("path", a.opts.File))
		return passtable.New(opts...), nil
	}
	return t, failed(a.opts.File, err)
}

func (a *app) save(t *passtable.Table) error {
	return failed(a.opts.File, t.SaveFile(a.opts.File))
}

func (a *app) list(flags *flag.FlagSet) func([]string) error {
	appFilter := flags.String("app", "", "Only list passwords affiliated with this app.")
	return func(args []string) error {
		if err := requireArgs(args, 0, "no arguments"); err != nil {
			return err
		}
		t, err := a.load()
		if err != nil {
			return err
		}
		var rows []listRow
		for _, name := range t.SortedNames() {
			meta, err := t.Metadata(name)
			if err != nil {
				return failed(name, err)
			}
			if *appFilter != "" && !meta.HasApp(*appFilter) {
				continue
			}
			rows = append(rows, listRow{name: name, meta: meta})
		}
		renderList(a.out, rows)
		return nil
	}
}

func (a *app) add(flags *flag.FlagSet) func([]string) error {
	desc := flags.StringP("description", "d", "", "Description of the password.")
	apps := flags.StringArrayP("app", "a", nil, "An app the password is used for. May be repeated.")
	genLen := flags.IntP("generate", "g", 0, "Generate a random password of this length instead of prompting.")
	return func(args []string) error {
		if err := requireArgs(args, 1, "NAME"); err != nil {
			return err
		}
		name := args[0]
		t, err := a.load()
		if err != nil {
			return err
		}
		if t.Contains(name) {
			return failed(name, fmt.Errorf("%w: '%s'", passtable.ErrAlreadyExists, name))
		}

		var secret string
		if *genLen > 0 {
			secret, err = passgen.Generate(*genLen)
		} else {
			secret, err = a.prompt.Secret(fmt.Sprintf("Password to store as '%s': ", name))
		}
		if err != nil {
			return err
		}
		pass, err := a.prompt.Passphrase(fmt.Sprintf("Passphrase for '%s': ", name), true)
		if err != nil {
			return err
		}
		meta := passtable.Metadata{Description: *desc, Apps: *apps}
		if err := t.Add(name, secret, meta, pass); err != nil {
			return failed(name, err)
		}
		if err := a.save(t); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.out, "Added '%s'\n", name)
		return nil
	}
}

func (a *app) get(flags *flag.FlagSet) func([]string) error {
	clip := flags.BoolP("clip", "c", false, "Copy the password to the clipboard instead of printing it.")
	return func(args []string) error {
		if err := requireArgs(args, 1, "NAME"); err != nil {
			return err
		}
		name := args[0]
		t, err := a.load()
		if err != nil {
			return err
		}
		if !t.Contains(name) {
			return failed(name, fmt.Errorf("%w: '%s'", passtable.ErrNotFound, name))
		}
		pass, err := a.prompt.Passphrase(fmt.Sprintf("Passphrase for '%s': ", name), false)
		if err != nil {
			return err
		}
		secret, err := t.Password(name, pass)
		if err != nil {
			return failed(name, err)
		}
		if *clip {
			if err := a.copy(secret); err != nil {
				return fmt.Errorf("failed to copy to the clipboard: %w", err)
			}
			_, _ = fmt.Fprintf(a.out, "Copied '%s' to the clipboard\n", name)
			return nil
		}
		_, _ = fmt.Fprintln(a.out, secret)
		return nil
	}
}

func (a *app) meta(_ *flag.FlagSet) func([]string) error {
	return func(args []string) error {
		if err := requireArgs(args, 1, "NAME"); err != nil {
			return err
		}
		t, err := a.load()
		if err != nil {
			return err
		}
		meta, err := t.Metadata(args[0])
		if err != nil {
			return failed(args[0], err)
		}
		renderMeta(a.out, args[0], meta)
		return nil
	}
}

func (a *app) update(flags *flag.FlagSet) func([]string) error {
	desc := flags.StringP("description", "d", "", "New description.")
	apps := flags.StringArrayP("app", "a", nil, "An app the password is used for. May be repeated, and replaces all apps.")
	return func(args []string) error {
		if err := requireArgs(args, 1, "NAME"); err != nil {
			return err
		}
		if !flags.Changed("description") && !flags.Changed("app") {
			return fmt.Errorf("%w: nothing to update, use -d and/or -a", errUsage)
		}
		name := args[0]
		t, err := a.load()
		if err != nil {
			return err
		}
		meta, err := t.Metadata(name)
		if err != nil {
			return failed(name, err)
		}
		if flags.Changed("description") {
			meta.Description = *desc
		}
		if flags.Changed("app") {
			meta.Apps = *apps
		}
		if err := t.UpdateMetadata(name, meta); err != nil {
			return failed(name, err)
		}
		if err := a.save(t); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.out, "Updated '%s'\n", name)
		return nil
	}
}

func (a *app) remove(_ *flag.FlagSet) func([]string) error {
	return func(args []string) error {
		if err := requireArgs(args, 1, "NAME"); err != nil {
			return err
		}
		t, err := a.load()
		if err != nil {
			return err
		}
		if err := t.Remove(args[0]); err != nil {
			return failed(args[0], err)
		}
		if err := a.save(t); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.out, "Removed '%s'\n", args[0])
		return nil
	}
}

func (a *app) rename(_ *flag.FlagSet) func([]string) error {
	return func(args []string) error {
		if err := requireArgs(args, 2, "OLD NEW"); err != nil {
			return err
		}
		oldName, newName := args[0], args[1]
		t, err := a.load()
		if err != nil {
			return err
		}
		if err := t.Rename(oldName, newName); err != nil {
			if errors.Is(err, passtable.ErrAlreadyExists) {
				return failed(newName, err)
			}
			return failed(oldName, err)
		}
		if err := a.save(t); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.out, "Renamed '%s' to '%s'\n", oldName, newName)
		return nil
	}
}

func (a *app) gen(flags *flag.FlagSet) func([]string) error {
	length := flags.IntP("length", "n", passgen.DefaultLength, "Length of the password.")
	noLetters := flags.Bool("no-letters", false, "Leave out letters.")
	noDigits := flags.Bool("no-digits", false, "Leave out digits.")
	noSpecial := flags.Bool("no-special", false, "Leave out special characters.")
	return func(args []string) error {
		if err := requireArgs(args, 0, "no arguments"); err != nil {
			return err
		}
		pass, err := passgen.Generate(*length,
			passgen.Letters(!*noLetters),
			passgen.Digits(!*noDigits),
			passgen.Special(!*noSpecial),
		)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(a.out, pass)
		return nil
	}
}

func (a *app) browseCmd(_ *flag.FlagSet) func([]string) error {
	return func(args []string) error {
		if err := requireArgs(args, 0, "no arguments"); err != nil {
			return err
		}
		t, err := a.load()
		if err != nil {
			return err
		}
		return a.browse(passtable.NewShared(t), a.copy)
	}
}
