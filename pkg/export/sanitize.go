package export

import (
	"regexp"
	"strings"
	"unicode"
)

// Untitled names documents whose owner is unknown.
const Untitled = "Untitled"

var illegalNameChars = regexp.MustCompile(`[\\/*?:"<>|\x00-\x1f\x7f]`)

// SanitizeName makes name safe for use inside a file name. Illegal
// characters are dropped and whitespace runs become single underscores.
// SanitizeName(SanitizeName(x)) == SanitizeName(x).
func SanitizeName(name string) string {
	clean := illegalNameChars.ReplaceAllString(name, "")
	clean = strings.Join(strings.Fields(clean), "_")
	if clean == "" {
		return Untitled
	}
	return clean
}

// StripMarkup turns chat-formatted text into plain text: emphasis markers,
// backticks and emoji are removed and box-drawing connectors become '-'.
func StripMarkup(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = stripLine(line)
	}
	return strings.Join(lines, "\n")
}

func stripLine(line string) string {
	var b strings.Builder
	dropSpace := false
	for _, r := range line {
		switch {
		case r == '*' || r == '_' || r == '`':
			continue
		case isEmoji(r):
			dropSpace = true
			continue
		case isBoxDrawing(r):
			r = '-'
		}
		if dropSpace && unicode.IsSpace(r) {
			continue
		}
		dropSpace = false
		b.WriteRune(r)
	}
	return strings.TrimRightFunc(b.String(), unicode.IsSpace)
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF:
	case r >= 0x2600 && r <= 0x27BF:
	case r >= 0x2300 && r <= 0x23FF:
	case r >= 0x2B00 && r <= 0x2BFF:
	case r >= 0xFE00 && r <= 0xFE0F:
	case r == 0x200D, r == 0x20E3, r == 0x2139, r == 0x24C2:
	default:
		return false
	}
	return true
}

func isBoxDrawing(r rune) bool {
	return r >= 0x2500 && r <= 0x257F
}
