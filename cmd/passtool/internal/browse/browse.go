// Package browse is an interactive terminal view of a password table.
// Passwords are decrypted on demand and copied to the clipboard, never displayed.
package browse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/DangerousVegetable/passtool/pkg/passtable"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

var headers = []string{"Name", "Description", "Affiliated apps"}

// Rows returns a row per entry, sorted by name, with the columns matching the table headers.
func Rows(store *passtable.Shared) [][]string {
	var rows [][]string
	_ = store.Do(func(t *passtable.Table) error {
		for _, name := range t.SortedNames() {
			meta, err := t.Metadata(name)
			if err != nil {
				continue
			}
			rows = append(rows, []string{name, meta.Description, strings.Join(meta.Apps, ", ")})
		}
		return nil
	})
	return rows
}

type Browser struct {
	app    *tview.Application
	table  *tview.Table
	input  *tview.InputField
	status *tview.TextView

	store    *passtable.Shared
	copy     func(string) error
	rows     [][]string
	selected string
}

func New(store *passtable.Shared, copyFn func(string) error) *Browser {
	b := &Browser{
		app:    tview.NewApplication(),
		table:  tview.NewTable(),
		input:  tview.NewInputField(),
		status: tview.NewTextView(),
		store:  store,
		copy:   copyFn,
	}

	b.table.
		SetFixed(1, 0).
		SetSelectable(true, false).
		SetSelectedFunc(func(row, _ int) {
			b.choose(row)
		}).
		SetDoneFunc(func(key tcell.Key) {
			if key == tcell.KeyEscape {
				b.app.Stop()
			}
		}).
		SetBorder(true).
		SetTitle(" passtool ")

	b.input.
		SetMaskCharacter('*').
		SetFieldWidth(0).
		SetDoneFunc(func(key tcell.Key) {
			switch key {
			case tcell.KeyEnter:
				b.submit()
			case tcell.KeyEscape:
				b.back()
			}
		})

	b.status.SetDynamicColors(false)
	b.refresh()
	b.back()

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(b.table, 0, 1, true).
		AddItem(b.input, 1, 0, false).
		AddItem(b.status, 1, 0, false)
	b.app.SetRoot(layout, true).SetFocus(b.table)
	return b
}

// Run blocks until the user quits.
func (b *Browser) Run() error {
	return b.app.Run()
}

func (b *Browser) refresh() {
	b.rows = Rows(b.store)
	b.table.Clear()
	for col, h := range headers {
		b.table.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false))
	}
	for i, row := range b.rows {
		for col, text := range row {
			b.table.SetCell(i+1, col, tview.NewTableCell(text).SetExpansion(1))
		}
	}
	if len(b.rows) == 0 {
		b.setStatus("No passwords stored, press Esc to quit")
	}
}

// choose prepares the passphrase input for the entry at the table row.
func (b *Browser) choose(row int) {
	if row < 1 || row > len(b.rows) {
		return
	}
	b.selected = b.rows[row-1][0]
	b.input.SetText("")
	b.input.SetLabel(fmt.Sprintf("Passphrase for '%s': ", b.selected))
	b.setStatus("Enter to copy, Esc to go back")
	b.app.SetFocus(b.input)
}

// submit decrypts the chosen entry with the typed passphrase and copies it.
func (b *Browser) submit() {
	if b.selected == "" {
		return
	}
	pass := b.input.GetText()
	b.input.SetText("")
	var secret string
	err := b.store.Do(func(t *passtable.Table) (err error) {
		secret, err = t.Password(b.selected, pass)
		return err
	})
	switch {
	case errors.Is(err, passtable.ErrIncorrectPassphrase):
		b.setStatus(fmt.Sprintf("Incorrect passphrase for '%s'", b.selected))
		return
	case err != nil:
		b.setStatus(err.Error())
		return
	}
	if err := b.copy(secret); err != nil {
		b.setStatus(fmt.Sprintf("Failed to copy to the clipboard: %v", err))
		return
	}
	b.setStatus(fmt.Sprintf("Copied '%s' to the clipboard", b.selected))
	b.back()
}

// back returns focus to the table, keeping the status line.
func (b *Browser) back() {
	b.selected = ""
	b.input.SetText("")
	b.input.SetLabel("Select a password with Enter ")
	b.app.SetFocus(b.table)
}

func (b *Browser) setStatus(msg string) {
	b.status.SetText(msg)
}
