package services

import "strings"

type Language string

const (
	Spanish Language = "Spanish"
	English Language = "English"
)

// LanguageDetector picks the language a generator answers in.
type LanguageDetector func(text string) Language

var spanishWords = dedupe([]string{
	"el", "la", "de", "que", "y", "en", "un", "ser", "se", "no", "haber", "por", "con", "su", "para",
	"como", "estar", "tener", "le", "lo", "todo", "pero", "más", "hacer", "o", "poder", "decir",
	"este", "ir", "otro", "ese", "si", "me", "ya", "ver", "porque", "dar", "cuando", "él", "muy",
	"sin", "vez", "mucho", "saber", "qué", "sobre", "mi", "alguno", "mismo", "yo", "también", "hasta",
	"año", "dos", "querer", "entre", "así", "primero", "desde", "grande", "eso", "ni", "nos", "llegar",
	"pasar", "tiempo", "ella", "sí", "día", "uno", "bien", "poco", "deber", "entonces", "poner", "cosa",
	"tanto", "hombre", "parecer", "nuestro", "tan", "donde", "ahora", "parte", "después", "vida",
	"quedar", "siempre", "creer", "hablar", "llevar", "dejar", "nada", "cada", "seguir", "menos",
	"nuevo", "encontrar", "algo", "solo", "salir", "volver", "tomar", "conocer", "vivir", "sentir",
	"tratar", "mirar", "contar", "empezar", "esperar", "buscar", "existir", "entrar", "trabajar",
	"escribir", "perder", "producir", "ocurrir", "entender", "pedir", "recibir", "recordar", "terminar",
	"permitir", "aparecer", "conseguir", "comenzar", "servir", "sacar", "necesitar", "mantener",
	"resultar", "leer", "caer", "cambiar", "presentar", "crear", "abrir", "considerar", "oír", "acabar",
	"mil", "contra", "cual",
})

var englishWords = dedupe([]string{
	"the", "be", "to", "of", "and", "a", "in", "that", "have", "i", "it", "for", "not", "on", "with",
	"he", "as", "you", "do", "at", "this", "but", "his", "by", "from", "they", "we", "say", "her",
	"she", "or", "an", "will", "my", "one", "all", "would", "there", "their", "what", "so", "up",
	"out", "if", "about", "who", "get", "which", "go", "me", "when", "make", "can", "like", "time",
	"no", "just", "him", "know", "take", "people", "into", "year", "your", "good", "some", "could",
	"them", "see", "other", "than", "then", "now", "look", "only", "come", "its", "over", "think",
	"also", "back", "after", "use", "two", "how", "our", "work", "first", "well", "way", "even",
	"new", "want", "because", "any", "these", "give", "day", "most", "us",
})

// DetectLanguage counts function words surrounded by single spaces. The text
// is not padded, so a word at the very start or end never counts. Ties,
// including empty text, resolve to Spanish.
func DetectLanguage(text string) Language {
	if text == "" {
		return Spanish
	}
	lower := strings.ToLower(text)
	es := countHits(lower, spanishWords)
	en := countHits(lower, englishWords)
	if en > es {
		return English
	}
	return Spanish
}

func countHits(lower string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(lower, " "+w+" ") {
			n++
		}
	}
	return n
}

// dedupe drops repeated list entries so each word counts at most once. The
// web client's Spanish list repeated "la" and "decir" and counted them twice;
// hit counts here differ from it for texts containing those words.
func dedupe(words []string) []string {
	seen := make(map[string]bool, len(words))
	out := words[:0]
	for _, w := range words {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}
