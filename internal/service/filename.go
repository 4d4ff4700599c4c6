package service

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// secureFilename reduces a client supplied name to a flat ASCII file name.
// Separators become underscores and anything outside [A-Za-z0-9_.-] is dropped.
func secureFilename(name string) string {
	decomposed := norm.NFKD.String(name)

	var b strings.Builder
	for _, r := range decomposed {
		if r < 0x80 {
			b.WriteRune(r)
		}
	}

	flat := strings.NewReplacer("/", " ", "\\", " ").Replace(b.String())
	flat = strings.Join(strings.Fields(flat), "_")
	flat = unsafeFilenameChars.ReplaceAllString(flat, "")
	return strings.Trim(flat, "._")
}

// allowedFile reports whether name carries a .pdf extension, in any case
func allowedFile(name string) bool {
	ext := filepath.Ext(name)
	return len(ext) > 1 && strings.EqualFold(ext, ".pdf")
}
