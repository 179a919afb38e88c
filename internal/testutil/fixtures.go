package testutil

import (
	"testing/fstest"
)

// SampleInput is stdin content for SampleEntries.
const SampleInput = "firefox\nterminal\nsuspend now\n\nlock\n"

// SamplePage is a stand-in for a rendered style.
const SamplePage = `<!DOCTYPE html><html><head><title>thqm</title></head><body><a href="/?select=firefox">firefox</a></body></html>`

// SampleEntries returns the entries parsed from SampleInput.
// Returns a new slice each time to prevent test interference.
func SampleEntries() []string {
	return []string{"firefox", "terminal", "suspend now", "lock"}
}

// SampleAssets returns a small static asset tree.
func SampleAssets() fstest.MapFS {
	return fstest.MapFS{
		"index.html":      {Data: []byte("{{ .Title }}")},
		"style.css":       {Data: []byte("body { color: red; }")},
		"js/app.js":       {Data: []byte("console.log('thqm');")},
		"img/icon.svg":    {Data: []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)},
		"fonts/README":    {Data: []byte("plain text")},
		"empty/.keep":     {Data: nil},
		"nested/dir/a.js": {Data: []byte("1")},
	}
}
