package style

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/thqm-go/thqm/internal/logging"
	"github.com/thqm-go/thqm/web"
)

// Install copies the built-in styles into dataDir so they can be edited.
// Styles that are already installed are skipped unless overwrite is set.
// It returns the names of the styles written.
func Install(dataDir string, overwrite bool) ([]string, error) {
	root := StylesDir(dataDir)
	styles := web.Styles()

	entries, err := fs.ReadDir(styles, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list built-in styles: %w", err)
	}

	var installed []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		dest := filepath.Join(root, name)

		if _, err := os.Stat(dest); err == nil && !overwrite {
			logging.Info("style already installed, skipping", "style", name, "dir", dest)
			continue
		}

		if err := copyTree(styles, name, dest); err != nil {
			return installed, fmt.Errorf("failed to install style %q: %w", name, err)
		}
		installed = append(installed, name)
	}
	return installed, nil
}

// copyTree copies the directory src of fsys to the local directory dest.
func copyTree(fsys fs.FS, src, dest string) error {
	return fs.WalkDir(fsys, src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(filepath.FromSlash(src), filepath.FromSlash(p))
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		data, err := fs.ReadFile(fsys, path.Clean(p))
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}
