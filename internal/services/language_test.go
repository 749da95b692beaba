package services

import "testing"

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected Language
	}{
		{"spanish sentence", "el perro corre en la casa", Spanish},
		{"english sentence", "the dog runs in the house", English},
		{"empty text", "", Spanish},
		{"no function words", "photosynthesis chlorophyll", Spanish},
		{"tie resolves to spanish", "x de x of x", Spanish},
		{"case insensitive", "THE DOG RUNS IN THE HOUSE", English},
		{"edge words are not counted", "the", Spanish},
		{"longer english", "We think that the cell is the basic unit of life and it can grow", English},
		{"repeated list words count once", "casa la perro the gato and fin", English},
		{"longer spanish", "La célula es la unidad básica de la vida y puede crecer con el tiempo", Spanish},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := DetectLanguage(tc.text)
			if got != tc.expected {
				t.Errorf("DetectLanguage(%q) = %s, expected %s", tc.text, got, tc.expected)
			}
		})
	}
}

func TestDetectLanguage_Deterministic(t *testing.T) {
	text := "the quick brown fox and el zorro de la casa"
	first := DetectLanguage(text)
	for i := 0; i < 50; i++ {
		if got := DetectLanguage(text); got != first {
			t.Fatalf("Run %d returned %s, first run returned %s", i, got, first)
		}
	}
}

func TestWordListsHaveNoDuplicates(t *testing.T) {
	for name, list := range map[string][]string{"spanish": spanishWords, "english": englishWords} {
		seen := map[string]bool{}
		for _, w := range list {
			if seen[w] {
				t.Errorf("%s list repeats %q", name, w)
			}
			seen[w] = true
		}
	}
}
