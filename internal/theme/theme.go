package theme

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// importRegex matches @import "file.css"; or @import 'file.css'; or @import url("file.css");
var importRegex = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

// Theme is a stylesheet with its source.
type Theme struct {
	Name      string    // "default" or the override file name
	Path      string    // Full path to the CSS file (empty for default)
	CSS       string    // The CSS content with imports inlined
	ModTime   time.Time // Last modification time
	IsDefault bool      // True if this is the embedded theme
}

// NewTheme loads a CSS file. @import statements are resolved and inlined.
func NewTheme(path string) (*Theme, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	css, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return &Theme{
		Name:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Path:    path,
		CSS:     ProcessImports(string(css), filepath.Dir(path), nil),
		ModTime: info.ModTime(),
	}, nil
}

// NewDefaultTheme creates the embedded theme.
func NewDefaultTheme() *Theme {
	css := defaultCSS()
	return &Theme{
		Name:      DefaultThemeName,
		CSS:       ProcessImports(css, "", nil),
		IsDefault: true,
	}
}

// Resolve returns the override theme at path when it exists and is readable,
// and the embedded theme otherwise.
func Resolve(path string, logger *slog.Logger) *Theme {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return NewDefaultTheme()
	}
	t, err := NewTheme(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to load style override, using default", "path", path, "error", err)
		}
		return NewDefaultTheme()
	}
	return t
}

// ProcessImports resolves and inlines @import statements in CSS.
// Imports are resolved relative to baseDir; bundled partials are used as a
// fallback. The seen map prevents circular imports.
func ProcessImports(css string, baseDir string, seen map[string]bool) string {
	if seen == nil {
		seen = make(map[string]bool)
	}

	return importRegex.ReplaceAllStringFunc(css, func(match string) string {
		submatch := importRegex.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}
		importPath := submatch[1]

		fullPath := importPath
		if !filepath.IsAbs(importPath) {
			fullPath = filepath.Join(baseDir, importPath)
		}

		if seen[fullPath] {
			return "/* circular import prevented: " + importPath + " */"
		}
		seen[fullPath] = true

		var (
			imported []byte
			err      = os.ErrNotExist
		)
		if baseDir != "" || filepath.IsAbs(importPath) {
			imported, err = os.ReadFile(fullPath)
		}
		if err != nil {
			if embedded, found := embeddedPartial(filepath.Base(importPath)); found {
				return "/* imported (embedded): " + importPath + " */\n" + ProcessImports(embedded, "", seen)
			}
			return "/* import failed: " + importPath + " - " + err.Error() + " */"
		}

		return "/* imported: " + importPath + " */\n" + ProcessImports(string(imported), filepath.Dir(fullPath), seen)
	})
}

// Reload re-reads the theme from disk.
// Returns true if the content changed.
func (t *Theme) Reload() (bool, error) {
	if t.IsDefault {
		return false, nil
	}

	info, err := os.Stat(t.Path)
	if err != nil {
		return false, err
	}
	if !info.ModTime().After(t.ModTime) {
		return false, nil
	}

	css, err := os.ReadFile(t.Path)
	if err != nil {
		return false, err
	}

	processed := ProcessImports(string(css), filepath.Dir(t.Path), nil)
	old := t.CSS
	t.CSS = processed
	t.ModTime = info.ModTime()

	return old != t.CSS, nil
}
