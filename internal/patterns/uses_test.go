package patterns

import (
	"reflect"
	"testing"
)

func TestExtractUsesThreeIntents(t *testing.T) {
	text := "Sont autorisees : les habitations, les bureaux et les commerces. " +
		"Sont interdits : les entrepots et les industries. " +
		"Sont soumis a conditions : les hotels et l'artisanat."

	lists := ExtractUses(text)

	if want := []string{"habitation", "bureau", "commerce"}; !reflect.DeepEqual(lists.Autorises, want) {
		t.Errorf("Autorises = %v, want %v", lists.Autorises, want)
	}
	if want := []string{"industrie", "entrepot"}; !reflect.DeepEqual(lists.Interdits, want) {
		t.Errorf("Interdits = %v, want %v", lists.Interdits, want)
	}
	if want := []string{"artisanat", "hebergement hotelier"}; !reflect.DeepEqual(lists.Conditionnes, want) {
		t.Errorf("Conditionnes = %v, want %v", lists.Conditionnes, want)
	}
}

// A label enumerated after one marker must not bleed into the span of the
// previous marker.
func TestExtractUsesNoBleed(t *testing.T) {
	text := "Sont autorisees : les habitations. Sont interdites : les industries."

	lists := ExtractUses(text)

	for _, label := range lists.Autorises {
		if label == "industrie" {
			t.Error("industrie attributed to Autorises, belongs to Interdits")
		}
	}
	for _, label := range lists.Interdits {
		if label == "habitation" {
			t.Error("habitation attributed to Interdits, belongs to Autorises")
		}
	}
}

// The same use may legitimately appear under several intents: règlements
// allow a use in general and condition a sub-case of it.
func TestExtractUsesCrossListDuplication(t *testing.T) {
	text := "Sont autorisees : les habitations nouvelles. " +
		"Sont soumises a des conditions : les habitations anciennes rehabilitees."

	lists := ExtractUses(text)

	if want := []string{"habitation"}; !reflect.DeepEqual(lists.Autorises, want) {
		t.Errorf("Autorises = %v, want %v", lists.Autorises, want)
	}
	if want := []string{"habitation"}; !reflect.DeepEqual(lists.Conditionnes, want) {
		t.Errorf("Conditionnes = %v, want %v", lists.Conditionnes, want)
	}
}

func TestExtractUsesMarkerWithoutVocabulary(t *testing.T) {
	// Marker present but nothing from the vocabulary in its span
	lists := ExtractUses("Sont interdites : les occupations incompatibles avec le caractere du secteur.")
	if !lists.Empty() {
		t.Errorf("got %+v, want empty lists", lists)
	}
}

func TestExtractUsesNoMarker(t *testing.T) {
	// Vocabulary words without any intent marker must not be classified
	lists := ExtractUses("le secteur accueille des habitations et des commerces de proximite")
	if !lists.Empty() {
		t.Errorf("got %+v, want empty lists", lists)
	}
}
