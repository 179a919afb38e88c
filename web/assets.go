// Package web provides the built-in thqm styles, embedded at build time.
//
// Each style lives in styles/<name>/ and consists of an index.html template
// and any static files the template references.
package web

import (
	"embed"
	"io/fs"
)

//go:embed styles
var assets embed.FS

// Styles returns a filesystem whose top-level directories are the built-in
// styles.
func Styles() fs.FS {
	subFS, err := fs.Sub(assets, "styles")
	if err != nil {
		// This should never happen with properly embedded assets
		panic("failed to access embedded styles: " + err.Error())
	}
	return subFS
}
