package main

import (
	. "github.com/saylorsolutions/modmake"
)

const (
	passtoolVersion = "0.2.0"
	passtoolMain    = "cmd/passtool"
)

// Clipboard access shells out to pbcopy, xclip or the Windows API, so every platform builds without cgo.
var platforms = []struct {
	os, arch string
}{
	{"linux", "amd64"},
	{"linux", "arm64"},
	{"darwin", "amd64"},
	{"darwin", "arm64"},
	{"windows", "amd64"},
}

func releaseFlags(gb *GoBuild) {
	gb.
		StripDebugSymbols().
		SetVariable("main", "version", passtoolVersion).
		CgoEnabled(false)
}

func main() {
	b := NewBuild()
	b.Generate().DependsOnRunner("tidy", "Tidies go.mod before anything is generated.", Go().ModTidy())
	b.Test().
		DependsOnRunner("vet", "Vets all packages.", Exec("go", "vet", "./...")).
		Does(Go().TestAll())

	passtool := NewAppBuild("passtool", passtoolMain, passtoolVersion)
	passtool.Build(releaseFlags)
	for _, p := range platforms {
		passtool.Variant(p.os, p.arch)
	}
	b.ImportApp(passtool)

	b.Execute()
}
