// Package style loads and renders thqm page styles.
//
// A style is a directory holding an index.html template and the static
// files it references. Built-in styles are embedded in the binary; styles
// installed under <data dir>/styles take precedence over them.
package style

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/thqm-go/thqm/internal/logging"
	"github.com/thqm-go/thqm/web"
)

// TemplateName is the template file every style must provide.
const TemplateName = "index.html"

// SourceBuiltin is the Source of styles loaded from the binary.
const SourceBuiltin = "builtin"

// ErrStyleNotFound is returned when no style with the requested name exists.
var ErrStyleNotFound = errors.New("style not found")

// PageData is passed to the style template.
type PageData struct {
	Title      string
	Entries    []string
	QRCodeSVG  template.HTML
	URL        string
	NoShutdown bool
	NoQRCode   bool
}

// Style is a loaded page style.
type Style struct {
	Name string
	// Source is the directory the style was loaded from, or SourceBuiltin.
	Source string

	fsys fs.FS
}

// StylesDir returns the directory installed styles live in.
func StylesDir(dataDir string) string {
	return filepath.Join(dataDir, "styles")
}

// Load returns the named style, preferring an installed copy in dataDir.
func Load(name, dataDir string) (*Style, error) {
	if !validName(name) {
		return nil, fmt.Errorf("invalid style name %q", name)
	}

	if dataDir != "" {
		dir := filepath.Join(StylesDir(dataDir), name)
		if stat, err := os.Stat(dir); err == nil && stat.IsDir() {
			logging.Debug("using installed style", "style", name, "dir", dir)
			return &Style{Name: name, Source: dir, fsys: os.DirFS(dir)}, nil
		}
	}

	sub, err := fs.Sub(web.Styles(), name)
	if err != nil {
		return nil, fmt.Errorf("failed to open style %q: %w", name, err)
	}
	if _, err := fs.Stat(sub, "."); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStyleNotFound, name)
	}
	return &Style{Name: name, Source: SourceBuiltin, fsys: sub}, nil
}

// Render executes the style template with data.
func (s *Style) Render(data PageData) ([]byte, error) {
	tmpl, err := template.ParseFS(s.fsys, TemplateName)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template of style %q: %w", s.Name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render style %q: %w", s.Name, err)
	}
	return buf.Bytes(), nil
}

// Assets returns the filesystem static files are served from.
func (s *Style) Assets() fs.FS {
	return s.fsys
}

// List returns the names of all available styles, built-in and installed,
// sorted and without duplicates.
func List(dataDir string) ([]string, error) {
	seen := make(map[string]bool)

	builtin, err := fs.ReadDir(web.Styles(), ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list built-in styles: %w", err)
	}
	for _, e := range builtin {
		if e.IsDir() {
			seen[e.Name()] = true
		}
	}

	if dataDir != "" {
		installed, err := os.ReadDir(StylesDir(dataDir))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to list installed styles: %w", err)
		}
		for _, e := range installed {
			if e.IsDir() {
				seen[e.Name()] = true
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`)
}
