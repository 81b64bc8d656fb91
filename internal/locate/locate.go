// Package locate isolates, inside the full text of a règlement, the
// section that describes one zone's rules. PLU documents are not uniform:
// some use "ZONE UB" chapter headings, others only repeat "Article UB 10"
// style clause headings, so several strategies are tried in order.
package locate

import (
	"regexp"
	"strings"
)

// MinSectionChars is the default length a located span must exceed to be
// trusted. Anything shorter is almost certainly a bare heading, a table of
// contents line, with no actual rules behind it.
const MinSectionChars = 200

// zoneCodeRe matches a plausible zone code token: 1-4 alphanumerics with
// at least one letter ("UB", "N", "1AU", "A").
var zoneCodeRe = regexp.MustCompile(`^[0-9]{0,3}[A-Za-z][A-Za-z0-9]{0,3}$`)

// ValidCode reports whether s is a plausible zone code
func ValidCode(s string) bool {
	return len(s) >= 1 && len(s) <= 4 && zoneCodeRe.MatchString(s)
}

// ZoneSection returns the substring of fullText most likely to carry the
// rules of the given zone, or "" when no strategy finds a span longer than
// minChars. Callers must treat "" as extraction failure, not as a zone
// with zero rules.
func ZoneSection(fullText, code string, minChars int) string {
	if fullText == "" || !ValidCode(code) {
		return ""
	}
	if minChars <= 0 {
		minChars = MinSectionChars
	}
	q := regexp.QuoteMeta(strings.ToUpper(code))

	for _, strat := range []func(string, string) string{
		zoneHeadingSpan,
		articleBlockSpan,
		inlineHeadingSpan,
	} {
		if s := strat(fullText, q); len(s) >= minChars {
			return s
		}
	}

	// Last resort: zone sections are not contiguous in every document;
	// stitch together whatever article blocks mention the code.
	if s := scatteredArticles(fullText, q); len(s) >= minChars {
		return s
	}
	return ""
}

// zoneHeadingSpan captures "ZONE <code> - <title> ... " up to the next
// ZONE heading or the end of the document. The terminator is deliberately
// case-sensitive: règlement prose mentions zones in lowercase ("la zone du
// boulevard") and must not end the span; only an upper-case heading does.
func zoneHeadingSpan(text, q string) string {
	re := regexp.MustCompile(`(?s)(?i:\bZONE\s+` + q + `\b)[\s:–-]*(.*?)(?:\bZONE\s+[0-9]{0,3}[A-Z][A-Z0-9]{0,3}\b|$)`)
	if m := re.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// articleBlockSpan concatenates the "Article <code><digits>" blocks of a
// zone whose rules are written as a run of numbered articles.
func articleBlockSpan(text, q string) string {
	re := regexp.MustCompile(`(?is)\bARTICLE\s+` + q + `\s*\.?\s*\d{1,2}\b(.*?)(?:\bARTICLE\s+[0-9]{0,3}[A-Z][A-Z0-9]{0,3}\s*\.?\s*\d{1,2}\b|$)`)
	var parts []string
	rest := text
	for {
		loc := re.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}
		head := strings.TrimSpace(rest[loc[0]:loc[2]])
		body := strings.TrimSpace(rest[loc[2]:loc[3]])
		parts = append(parts, head+" "+body)
		if loc[3] >= len(rest) {
			break
		}
		// Resume at the end of the body: the terminator may be the next
		// article heading of the same zone and must be matched again.
		rest = rest[loc[3]:]
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n")
}

// inlineHeadingSpan captures "<code> - <title> ..." up to the next short
// all-caps heading-like token sequence.
func inlineHeadingSpan(text, q string) string {
	re := regexp.MustCompile(`(?s)\b` + q + `\s*[–-]\s*(.*?)(?:\n[A-Z0-9]{1,4}\s*[–-]|\b[0-9]{0,3}[A-Z][A-Z0-9]{0,3}\s*[–-]\s*[A-Z]|$)`)
	if m := re.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// scatteredArticles collects every paragraph that opens with an article
// heading for the zone, wherever it sits in the document.
func scatteredArticles(text, q string) string {
	re := regexp.MustCompile(`(?i)\bARTICLE\s+` + q + `\s*\.?\s*\d{1,2}\b[^\n]*(?:\n(?:[^\n]+))*`)
	matches := re.FindAllString(text, -1)
	if len(matches) == 0 {
		return ""
	}
	return strings.Join(matches, "\n")
}

// Heading patterns used for multi-zone detection
var detectRes = []*regexp.Regexp{
	regexp.MustCompile(`\bZONE\s+([0-9]{0,3}[A-Z][A-Z0-9]{0,3})\b`),
	regexp.MustCompile(`\bSECTEUR\s+([0-9]{0,3}[A-Z][A-Z0-9]{0,3})\b`),
	regexp.MustCompile(`\bARTICLE\s+([0-9]{0,3}[A-Z][A-Z0-9]{0,2})\s*\.?\s*\d{1,2}\b`),
}

// Reserved words that the heading patterns can pick up by accident
var notZones = map[string]bool{
	"DU": true, "DE": true, "DES": true, "LA": true, "LE": true, "LES": true,
	"ET": true, "EST": true, "PLU": true, "TITRE": true,
}

// DetectZones scans the document for every distinct zone-like code, in
// order of first appearance. Tokens longer than four characters or without
// a letter are spurious matches and are dropped.
func DetectZones(fullText string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, re := range detectRes {
		for _, m := range re.FindAllStringSubmatch(fullText, -1) {
			code := strings.ToUpper(m[1])
			if seen[code] || notZones[code] || !ValidCode(code) {
				continue
			}
			seen[code] = true
			out = append(out, code)
		}
	}
	return out
}
