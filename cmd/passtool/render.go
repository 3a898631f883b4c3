package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/DangerousVegetable/passtool/pkg/passtable"
	"github.com/fatih/color"
)

var (
	magenta = color.New(color.FgMagenta).SprintfFunc()
	blue    = color.New(color.FgBlue, color.Bold).SprintfFunc()
	faint   = color.New(color.Faint).SprintfFunc()
)

type listRow struct {
	name string
	meta passtable.Metadata
}

func renderList(w io.Writer, rows []listRow) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, faint("No passwords stored"))
		return
	}
	width := 0
	for _, row := range rows {
		width = max(width, len(row.name))
	}
	for _, row := range rows {
		line := fmt.Sprintf(" - %s%s", blue("%s", row.name), strings.Repeat(" ", width-len(row.name)))
		if row.meta.Description != "" {
			line += "  " + row.meta.Description
		}
		if len(row.meta.Apps) > 0 {
			line += "  " + magenta("[%s]", strings.Join(row.meta.Apps, ", "))
		}
		_, _ = fmt.Fprintln(w, line)
	}
}

func renderMeta(w io.Writer, name string, meta passtable.Metadata) {
	_, _ = fmt.Fprintf(w, "Store » %s\n", blue("%s", name))
	_, _ = fmt.Fprintf(w, "  %s %s\n", magenta("description:"), meta.Description)
	_, _ = fmt.Fprintf(w, "  %s %s\n", magenta("apps:"), strings.Join(meta.Apps, ", "))
}
