package locate

import (
	"reflect"
	"strings"
	"testing"
)

const twoZoneDoc = `REGLEMENT DU PLAN LOCAL D'URBANISME

ZONE UB - DISPOSITIONS APPLICABLES AU SECTEUR URBAIN
Article UB 1 - Occupations du sol interdites
Sont interdites : les industries et les entrepots nouveaux.
Article UB 10 - Hauteur maximale des constructions
La hauteur des constructions ne peut exceder 12 metres. Les constructions
nouvelles respecteront un gabarit R+2 sur l'ensemble du secteur, mesure a
partir du terrain naturel avant travaux.

ZONE N - DISPOSITIONS APPLICABLES AU SECTEUR NATUREL
Article N 1 - Occupations du sol interdites
Toute construction nouvelle est interdite a l'exception des exploitations
forestieres et des abris necessaires a l'entretien des milieux. Les
extensions mesurees des constructions existantes restent admises sous
reserve d'une bonne insertion paysagere.
`

func TestZoneSectionHeading(t *testing.T) {
	got := ZoneSection(twoZoneDoc, "UB", 200)
	if got == "" {
		t.Fatal("ZoneSection returned empty for a present zone")
	}
	if !strings.Contains(got, "12 metres") {
		t.Errorf("UB section misses its own rules: %q", got)
	}
	if strings.Contains(got, "forestieres") {
		t.Errorf("UB section bleeds into zone N: %q", got)
	}
}

func TestZoneSectionSecondZone(t *testing.T) {
	got := ZoneSection(twoZoneDoc, "N", 200)
	if !strings.Contains(got, "forestieres") {
		t.Errorf("N section misses its own rules: %q", got)
	}
	if strings.Contains(got, "12 metres") {
		t.Errorf("N section bleeds into zone UB: %q", got)
	}
}

// Règlement prose routinely mentions zones in lowercase ("la zone du
// boulevard"); only an upper-case heading may end the span.
func TestZoneSectionSurvivesProseZoneMention(t *testing.T) {
	doc := `ZONE UB - DISPOSITIONS APPLICABLES AU SECTEUR URBAIN
Le secteur s'etend sur les quartiers anciens accessibles depuis la zone du
boulevard peripherique et la zone de rencontre amenagee au centre ancien.
La hauteur des constructions ne peut exceder 12 metres au faitage. Les
toitures nouvelles respecteront les pentes traditionnelles du bourg.

ZONE N - DISPOSITIONS APPLICABLES AU SECTEUR NATUREL
Toute construction nouvelle y est interdite sauf exception agricole.
`
	got := ZoneSection(doc, "UB", 200)
	if !strings.Contains(got, "12 metres") {
		t.Errorf("height rule lost after a prose zone mention: %q", got)
	}
	if strings.Contains(got, "agricole") {
		t.Errorf("UB section bleeds into zone N: %q", got)
	}
}

func TestZoneSectionMissingZone(t *testing.T) {
	if got := ZoneSection(twoZoneDoc, "UZ", 200); got != "" {
		t.Errorf("got %q for an absent zone, want empty", got)
	}
}

func TestZoneSectionTooShort(t *testing.T) {
	doc := "ZONE UC - SECTEUR PAVILLONNAIRE\nquelques mots seulement"
	if got := ZoneSection(doc, "UC", 200); got != "" {
		t.Errorf("got %q for an under-length section, want empty", got)
	}
}

func TestZoneSectionInvalidInput(t *testing.T) {
	if got := ZoneSection("", "UB", 200); got != "" {
		t.Errorf("empty document produced %q", got)
	}
	if got := ZoneSection(twoZoneDoc, "U B", 200); got != "" {
		t.Errorf("invalid code produced %q", got)
	}
}

// Documents without chapter headings fall back to concatenating the
// article blocks of the requested zone.
func TestZoneSectionArticleBlocks(t *testing.T) {
	doc := `ARTICLE UA 1 - Occupations interdites
Les industries et les entrepots sont interdits sur l'ensemble du secteur.
ARTICLE UA 10 - Hauteur des constructions
La hauteur ne peut exceder 9 metres a l'egout du toit.
ARTICLE UC 1 - Occupations interdites
Les commerces de plus de 300 m2 sont interdits.
`
	got := ZoneSection(doc, "UA", 50)
	if !strings.Contains(got, "9 metres") || !strings.Contains(got, "entrepots") {
		t.Errorf("UA blocks incomplete: %q", got)
	}
	if strings.Contains(got, "300 m2") {
		t.Errorf("UA blocks bleed into UC: %q", got)
	}
}

func TestValidCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"UB", true},
		{"N", true},
		{"1AU", true},
		{"1AUa", true},
		{"A", true},
		{"", false},
		{"12", false},    // no letter
		{"ABCDE", false}, // too long
		{"U B", false},
		{"UB-1", false},
	}
	for _, tt := range tests {
		if got := ValidCode(tt.code); got != tt.want {
			t.Errorf("ValidCode(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestDetectZones(t *testing.T) {
	doc := `TITRE II - DISPOSITIONS APPLICABLES AUX DIFFERENTS SECTEURS
ZONE UB - SECTEUR URBAIN
texte de la premiere partie
ZONE DU PORT
ZONE N - SECTEUR NATUREL
ARTICLE UA 1 - regles diverses
SECTEUR AH - hameaux isoles
`
	got := DetectZones(doc)
	want := []string{"UB", "N", "AH", "UA"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DetectZones() = %v, want %v", got, want)
	}
}

func TestDetectZonesNothing(t *testing.T) {
	if got := DetectZones("un texte sans aucun intitule reconnaissable"); len(got) != 0 {
		t.Errorf("DetectZones() = %v, want empty", got)
	}
}
