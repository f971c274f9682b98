package document

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sirosfoundation/go-nfe/pkg/contingency"
)

var (
	utf8BOM        = []byte{0xEF, 0xBB, 0xBF}
	interTagSpaces = regexp.MustCompile(`>\s+<`)
)

// invalidXMLChar matches characters outside the XML 1.0 Char production
func invalidXMLChar(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return false
	case r < 0x20:
		return true
	case r >= 0xFFFE && r <= 0xFFFF:
		return true
	case r == utf8.RuneError:
		return true
	}
	return false
}

// Sanitize prepares raw content for parsing: it drops a byte order mark,
// characters XML 1.0 does not allow, and whitespace between tags.
func Sanitize(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	clean, _, err := transform.Bytes(runes.Remove(runes.Predicate(invalidXMLChar)), data)
	if err != nil {
		clean = data
	}
	clean = interTagSpaces.ReplaceAll(clean, []byte("><"))
	return bytes.TrimSpace(clean)
}

// SanitizeText normalizes free text for a layout field: NFC form, control
// characters turned into spaces, runs of spaces collapsed, at most limit characters.
func SanitizeText(s string, limit int) string {
	t := transform.Chain(norm.NFC, runes.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.Join(strings.Fields(out), " ")
	if limit > 0 && utf8.RuneCountInString(out) > limit {
		out = strings.TrimSpace(string([]rune(out)[:limit]))
	}
	return out
}

// Justification returns the xJust value for a contingency motive
func Justification(motive string) string {
	return SanitizeText(motive, contingency.MaxMotiveLength)
}
