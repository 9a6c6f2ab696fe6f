// Package theme loads the popover stylesheet. The bundled theme is embedded;
// ~/.config/tokentray/style.css replaces it when present and is hot reloaded.
package theme
