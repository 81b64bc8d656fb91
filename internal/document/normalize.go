package document

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Accent folding: decompose, strip combining marks, recompose. "mètres"
// becomes "metres", which is what every pattern in the library expects.
var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var (
	decimalCommaRe = regexp.MustCompile(`(\d),(\d)`)
	spaceRunRe     = regexp.MustCompile(`[ \t]+`)
	blankLinesRe   = regexp.MustCompile(`\n{3,}`)
	spacedNLRe     = regexp.MustCompile(`[ \t]*\n[ \t]*`)
)

var quoteReplacer = strings.NewReplacer(
	"’", "'", "‘", "'",
	"“", `"`, "”", `"`,
	"«", `"`, "»", `"`,
	"–", "-", "—", "-",
	" ", " ",
)

// Normalize prepares raw document text for pattern matching: accents and
// typographic quotes folded to ASCII, decimal commas converted to dots,
// horizontal whitespace collapsed. Line breaks survive (the zone locator
// relies on them for heading detection), but runs of blank lines shrink.
func Normalize(text string) string {
	if folded, _, err := transform.String(accentStripper, text); err == nil {
		text = folded
	}
	text = quoteReplacer.Replace(text)
	text = decimalCommaRe.ReplaceAllString(text, "$1.$2")
	text = spaceRunRe.ReplaceAllString(text, " ")
	text = spacedNLRe.ReplaceAllString(text, "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
