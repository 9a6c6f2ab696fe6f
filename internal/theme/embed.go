package theme

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

//go:embed themes/*.css
var bundled embed.FS

// DefaultThemeName is the name of the built-in theme.
const DefaultThemeName = "default"

// defaultCSS returns the bundled stylesheet with its imports unresolved.
func defaultCSS() string {
	data, err := bundled.ReadFile("themes/" + DefaultThemeName + ".css")
	if err != nil {
		return ""
	}
	return string(data)
}

// embeddedPartial looks up a bundled partial (files starting with _).
// "palette", "_palette" and "_palette.css" name the same file.
func embeddedPartial(name string) (string, bool) {
	if !strings.HasPrefix(name, "_") {
		name = "_" + name
	}
	if !strings.HasSuffix(name, ".css") {
		name += ".css"
	}
	data, err := bundled.ReadFile("themes/" + name)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// ExportDefault writes the bundled stylesheet into dir as styleName, with its
// partials beside it so the @import lines keep working. Nothing is written
// if a target exists and force is false. It returns the paths written.
func ExportDefault(dir, styleName string, force bool) ([]string, error) {
	entries, err := fs.ReadDir(bundled, "themes")
	if err != nil {
		return nil, err
	}

	files := make(map[string]string, len(entries))
	for _, e := range entries {
		target := e.Name()
		if target == DefaultThemeName+".css" {
			target = styleName
		}
		files[filepath.Join(dir, target)] = path.Join("themes", e.Name())
	}

	if !force {
		for target := range files {
			if _, err := os.Stat(target); err == nil {
				return nil, fmt.Errorf("%s already exists (use --force to overwrite)", target)
			}
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	written := make([]string, 0, len(files))
	for target, src := range files {
		data, err := bundled.ReadFile(src)
		if err != nil {
			return written, err
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", target, err)
		}
		written = append(written, target)
	}
	return written, nil
}
