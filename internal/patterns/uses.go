package patterns

import "regexp"

// UseIntent classifies the regulatory stance toward a land use
type UseIntent int

const (
	IntentAutorise UseIntent = iota
	IntentInterdit
	IntentConditionne
)

// intentMarker pairs an intent with the phrases announcing it in PLU prose
type intentMarker struct {
	intent UseIntent
	re     *regexp.Regexp
}

// Markers in priority order. "soumises a conditions" must be checked before
// the bare "autorisees" marker: the conditional phrasing usually embeds it.
var intentMarkers = []intentMarker{
	{IntentConditionne, regexp.MustCompile(`(?i)(?:soumis(?:e)?s?\s+a\s+(?:des\s+)?conditions|autoris(?:e)?e?s?\s+sous\s+conditions?)`)},
	{IntentInterdit, regexp.MustCompile(`(?i)(?:sont\s+interdit(?:e)?s?|est\s+interdit(?:e)?|interdictions?\s*:)`)},
	{IntentAutorise, regexp.MustCompile(`(?i)(?:sont\s+autoris(?:e)?e?s?|est\s+autoris(?:e)?e?|occupations?\s+et\s+utilisations?\s+du\s+sol\s+admises)`)},
}

// useLabel is one entry of the fixed use-type vocabulary. Aliases cover the
// spelling variants found in règlements (normalized text, so no accents).
type useLabel struct {
	label   string
	aliases []*regexp.Regexp
}

var useVocabulary = []useLabel{
	{"habitation", []*regexp.Regexp{regexp.MustCompile(`(?i)\bhabitations?\b|\blogements?\b|\bhabitat\b`)}},
	{"bureau", []*regexp.Regexp{regexp.MustCompile(`(?i)\bbureaux?\b`)}},
	{"commerce", []*regexp.Regexp{regexp.MustCompile(`(?i)\bcommerces?\b|\bactivites?\s+commerciales?\b`)}},
	{"artisanat", []*regexp.Regexp{regexp.MustCompile(`(?i)\bartisanat\b|\bartisanales?\b`)}},
	{"industrie", []*regexp.Regexp{regexp.MustCompile(`(?i)\bindustries?\b|\bindustrielles?\b`)}},
	{"entrepot", []*regexp.Regexp{regexp.MustCompile(`(?i)\bentrepots?\b`)}},
	{"equipement public", []*regexp.Regexp{regexp.MustCompile(`(?i)\bequipements?\s+(?:publics?|d'?interet\s+collectif)\b|\bservices?\s+publics?\b`)}},
	{"hebergement hotelier", []*regexp.Regexp{regexp.MustCompile(`(?i)\bhebergements?\s+hoteliers?\b|\bhotels?\b`)}},
	{"exploitation agricole", []*regexp.Regexp{regexp.MustCompile(`(?i)\bexploitations?\s+agricoles?\b|\bagricoles?\b`)}},
	{"exploitation forestiere", []*regexp.Regexp{regexp.MustCompile(`(?i)\bexploitations?\s+forestieres?\b|\bforestieres?\b`)}},
}

// useSpanChars bounds how far past an intent marker a use label may appear
// and still be attributed to it. Roughly one enumeration paragraph.
const useSpanChars = 600

// UseLists holds the three ordered use lists for a zone
type UseLists struct {
	Autorises    []string
	Interdits    []string
	Conditionnes []string
}

// Empty reports whether no use was recognized at all
func (u UseLists) Empty() bool {
	return len(u.Autorises) == 0 && len(u.Interdits) == 0 && len(u.Conditionnes) == 0
}

// ExtractUses scans the zone text for intent markers and attributes
// vocabulary labels that co-occur within the marker's span. A label lands
// in a list only when both the marker and the label appear in the same
// span. No cross-list exclusivity is enforced: a règlement can genuinely
// put the same use under several intents in different sentences.
func ExtractUses(text string) UseLists {
	var lists UseLists
	for _, marker := range intentMarkers {
		seen := make(map[string]bool)
		for _, loc := range marker.re.FindAllStringIndex(text, -1) {
			span := spanAfter(text, loc[1])
			for _, entry := range useVocabulary {
				if seen[entry.label] {
					continue
				}
				for _, alias := range entry.aliases {
					if alias.MatchString(span) {
						seen[entry.label] = true
						switch marker.intent {
						case IntentAutorise:
							lists.Autorises = append(lists.Autorises, entry.label)
						case IntentInterdit:
							lists.Interdits = append(lists.Interdits, entry.label)
						case IntentConditionne:
							lists.Conditionnes = append(lists.Conditionnes, entry.label)
						}
						break
					}
				}
			}
		}
	}
	return lists
}

// spanAfter returns the enumeration span following a marker: up to
// useSpanChars characters, cut at the next intent marker if one starts
// earlier.
func spanAfter(text string, from int) string {
	end := from + useSpanChars
	if end > len(text) {
		end = len(text)
	}
	span := text[from:end]
	// Do not bleed into the next marker's enumeration
	cut := len(span)
	for _, marker := range intentMarkers {
		if loc := marker.re.FindStringIndex(span); loc != nil && loc[0] < cut {
			cut = loc[0]
		}
	}
	return span[:cut]
}
