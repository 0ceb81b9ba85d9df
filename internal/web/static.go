package web

import (
	"embed"
	"io/fs"
)

// staticFiles holds the console page, its stylesheet and script.
//
//go:embed static/*
var staticFiles embed.FS

// consoleFS returns the embedded console rooted at static/.
func consoleFS() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		// static/ is embedded at build time; Sub only fails on a bad path.
		panic(err)
	}
	return sub
}
