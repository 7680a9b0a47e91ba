// Package applescript provides string escaping for values interpolated into
// AppleScript source. Backslashes are escaped before double quotes — the
// reverse order would double-escape the quote sequences.
package applescript

import "strings"

// Escape makes s safe to embed inside a double-quoted AppleScript string
// literal, preventing script injection through message text or contact
// identifiers.
func Escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// Quote returns s escaped and wrapped in double quotes, ready to splice into
// a script.
func Quote(s string) string {
	return `"` + Escape(s) + `"`
}
