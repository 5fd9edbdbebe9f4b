package snippet

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Source supplies snippet definitions to the expansion engine.
type Source interface {
	// Load returns all discovered snippets. Individual unreadable or
	// malformed files are skipped, not fatal.
	Load() ([]Snippet, error)
}

// DirSource loads snippets from markdown bundles under one or more
// directories.
type DirSource struct {
	Dirs []string
}

// NewDirSource creates a DirSource over the given directories.
func NewDirSource(dirs ...string) *DirSource {
	return &DirSource{Dirs: dirs}
}

// Load walks every configured directory and parses all markdown
// bundles. A missing directory or unreadable file is logged and
// skipped so one bad source never aborts the load.
func (d *DirSource) Load() ([]Snippet, error) {
	var all []Snippet
	for _, dir := range d.Dirs {
		if _, err := os.Stat(dir); err != nil {
			slog.Warn("snippet directory unavailable, skipping", "dir", dir, "error", err)
			continue
		}

		err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				slog.Warn("skipping unreadable path", "path", path, "error", err)
				return nil
			}
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
				return nil
			}

			result, err := ParseFile(path)
			if err != nil {
				slog.Warn("skipping unreadable snippet bundle", "path", path, "error", err)
				return nil
			}
			for _, perr := range result.Errors {
				slog.Warn("invalid snippet skipped", "error", perr)
			}
			all = append(all, result.Snippets...)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return all, nil
}
