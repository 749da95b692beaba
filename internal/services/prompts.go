package services

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"prisma-backend/internal/models"
)

const (
	maxChatContextRunes = 15000

	DefaultEssayType    = "argumentative"
	DefaultWordCount    = 500
	DefaultNumQuestions = 10
	MaxNumQuestions     = 50
)

// Prompt is a system instruction plus the user turn sent to the model.
type Prompt struct {
	System string
	User   string
}

// PromptParams carries whatever a template needs. Fields that do not apply to
// the kind being built are ignored.
type PromptParams struct {
	Context        string
	NumQuestions   int
	Topic          string
	EssayType      string
	WordCount      int
	Text           string
	TargetLanguage string
	SourceLanguage string
	Message        string
}

var essayTypes = map[string]string{
	"argumentative": "an argumentative essay with a clear thesis, supporting arguments and counterarguments",
	"expository":    "an expository essay that explains the topic clearly and objectively",
	"narrative":     "a narrative essay that tells a story related to the topic",
	"descriptive":   "a descriptive essay that portrays the topic precisely",
}

// EssayTypeDescription returns the template wording for an essay type,
// falling back to argumentative for unknown types.
func EssayTypeDescription(essayType string) string {
	if d, ok := essayTypes[essayType]; ok {
		return d
	}
	return essayTypes[DefaultEssayType]
}

// LanguageName turns an ISO code such as "fr" into its English display name.
// Codes that cannot be parsed are returned as given.
func LanguageName(code string) string {
	code = strings.TrimSpace(code)
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.Tags(language.English).Name(tag); name != "" {
		return name
	}
	return code
}

func directive(lang string) string {
	return fmt.Sprintf("CRITICAL: You MUST respond in %s.", lang)
}

// BuildPrompt fills the template for kind. The language directive always
// opens the system prompt; for translations it names the target language.
func BuildPrompt(kind models.ArtifactKind, p PromptParams, lang Language) (Prompt, error) {
	switch kind {
	case models.KindSummary:
		return summaryPrompt(p, lang), nil
	case models.KindStudyAids:
		return studyAidsPrompt(p, lang), nil
	case models.KindExam:
		return examPrompt(p, lang), nil
	case models.KindPodcast:
		return podcastPrompt(p, lang), nil
	case models.KindEssay:
		return essayPrompt(p, lang), nil
	case models.KindTranslation:
		return translationPrompt(p), nil
	case models.KindChat:
		return chatPrompt(p, lang), nil
	}
	return Prompt{}, fmt.Errorf("no prompt template for artifact kind %q", kind)
}

func summaryPrompt(p PromptParams, lang Language) Prompt {
	var b strings.Builder
	b.WriteString(directive(string(lang)) + "\n\n")
	b.WriteString("You are Prisma, an educational assistant creating document summaries.\n")
	b.WriteString("Based on the provided text, return a JSON object with exactly these fields:\n")
	b.WriteString("- briefSummary: a brief summary of 2-3 sentences capturing the main idea\n")
	b.WriteString("- keyTakeaways: an array of 3-5 strings, each an important point to remember\n")
	b.WriteString("- detailedSummary: a longer summary of 100-150 words covering the main concepts\n\n")
	b.WriteString(fmt.Sprintf("Write every field in %s.", lang))
	return Prompt{System: b.String(), User: p.Context}
}

func studyAidsPrompt(p PromptParams, lang Language) Prompt {
	var b strings.Builder
	b.WriteString(directive(string(lang)) + "\n\n")
	b.WriteString("You are PRISMA AI. Based on the provided study material, generate a set of study aids as a JSON object with exactly these fields:\n\n")
	b.WriteString("1. mindMap: a Mermaid.js flowchart definition representing the key hierarchy of concepts.\n")
	b.WriteString("   - Start with \"graph TD\"\n")
	b.WriteString("   - Node identifiers must be alphanumeric only, with labels in brackets: A[Concept Label]\n")
	b.WriteString("   - Connect nodes with arrows: A --> B\n")
	b.WriteString("   - Avoid special characters inside labels; when a label needs quotes, parentheses, brackets or commas, wrap it in double quotes: A[\"Label with, comma\"]\n")
	b.WriteString("   - Keep the hierarchy simple: 15-20 nodes maximum\n")
	b.WriteString("   - Return the definition only, without code fences\n\n")
	b.WriteString("2. flashcards: an array of 5-10 objects with string fields front and back, focusing on key facts and definitions.\n\n")
	b.WriteString(fmt.Sprintf("Extract ALL information in %s.", lang))
	return Prompt{System: b.String(), User: p.Context}
}

func examPrompt(p PromptParams, lang Language) Prompt {
	n := p.NumQuestions
	if n <= 0 {
		n = DefaultNumQuestions
	}
	var b strings.Builder
	b.WriteString(directive(string(lang)) + "\n\n")
	b.WriteString("You are Prisma, an educational assistant that writes exam questions.\n")
	b.WriteString(fmt.Sprintf("Based on the provided text, generate exactly %d multiple-choice questions that assess understanding of the key concepts.\n", n))
	b.WriteString("Return a JSON object with a single field questions: an array in which every element has\n")
	b.WriteString("- question: the question text\n")
	b.WriteString("- options: an object with exactly the keys A, B, C and D, each a non-empty answer option\n")
	b.WriteString("- correctAnswer: the letter of the single correct option, one of A, B, C, D\n")
	b.WriteString("- explanation: a clear explanation of why the correct answer is right\n\n")
	b.WriteString(fmt.Sprintf("The questions array must contain exactly %d elements.", n))
	return Prompt{System: b.String(), User: p.Context}
}

func podcastPrompt(p PromptParams, lang Language) Prompt {
	var b strings.Builder
	b.WriteString(directive(string(lang)) + "\n\n")
	b.WriteString("You are Prisma, an educational assistant that turns study material into audio study guides.\n")
	b.WriteString("Transform the content into a natural, conversational script designed to be listened to.\n\n")
	b.WriteString("CRITICAL RULES:\n")
	b.WriteString("1. Do NOT include any technical annotations such as \"(Intro Music)\", \"(Host:)\" or \"(Pause)\".\n")
	b.WriteString("2. Do NOT use speaker labels or a script layout.\n")
	b.WriteString("3. Write ONLY the text to be read aloud.\n")
	b.WriteString("4. Keep a friendly tone, as if explaining to a friend.\n\n")
	b.WriteString("STRUCTURE (5-10 minutes of audio): a short greeting and introduction, the main concepts with clear examples, key points to remember, a brief conclusion.")
	user := "Create an audio study guide from this content. Remember: only text to be read aloud, no technical annotations:\n\n" + p.Context
	return Prompt{System: b.String(), User: user}
}

func essayPrompt(p PromptParams, lang Language) Prompt {
	words := p.WordCount
	if words <= 0 {
		words = DefaultWordCount
	}
	var b strings.Builder
	b.WriteString(directive(string(lang)) + "\n\n")
	b.WriteString("You are Prisma, an educational assistant specialised in academic writing.\n\n")
	b.WriteString("Essay structure:\n")
	b.WriteString("1. **Introduction**: present the topic and the main thesis\n")
	b.WriteString("2. **Body**: 3-4 paragraphs with well-founded arguments\n")
	b.WriteString("3. **Conclusion**: close the essay by reinforcing the thesis\n\n")
	b.WriteString("Use academic but accessible language with smooth transitions between paragraphs and examples where relevant.\n")
	b.WriteString(fmt.Sprintf("Aim for approximately %d words.", words))

	var u strings.Builder
	u.WriteString("Topic: " + p.Topic + "\n\n")
	u.WriteString("Essay type: " + EssayTypeDescription(p.EssayType) + "\n\n")
	if !isBlank(p.Context) {
		u.WriteString("Additional context:\n" + p.Context + "\n\n")
	}
	u.WriteString("Write a complete, well-structured essay.")
	return Prompt{System: b.String(), User: u.String()}
}

func translationPrompt(p PromptParams) Prompt {
	target := LanguageName(p.TargetLanguage)
	source := "the automatically detected language"
	if p.SourceLanguage != "" && p.SourceLanguage != "auto" {
		source = LanguageName(p.SourceLanguage)
	}

	var b strings.Builder
	b.WriteString(directive(target) + "\n\n")
	b.WriteString("You are an expert professional translator.\n")
	b.WriteString("Translate accurately and naturally, preserving the original meaning, tone and style, appropriate technical terms, and structure where possible.\n")
	b.WriteString("Provide ONLY the translation, without additional explanations.")
	user := fmt.Sprintf("Translate the following text from %s to %s:\n\n%s", source, target, p.Text)
	return Prompt{System: b.String(), User: user}
}

func chatPrompt(p PromptParams, lang Language) Prompt {
	var b strings.Builder
	b.WriteString(directive(string(lang)) + " This is the language of the student's document.\n\n")
	b.WriteString("You are an intelligent study assistant named PRISMA AI.\n")
	b.WriteString("Your goal is to help students understand their study material better using the Socratic method.\n\n")
	if isBlank(p.Context) {
		b.WriteString("No document has been provided yet.\n\n")
	} else {
		b.WriteString("Context from the student's document:\n" + truncateRunes(p.Context, maxChatContextRunes) + "\n\n")
	}
	b.WriteString("Guidelines:\n")
	b.WriteString(fmt.Sprintf("1. ALWAYS respond in %s.\n", lang))
	b.WriteString("2. If the student sends an image, analyse it carefully to help with questions, diagrams or handwritten notes.\n")
	b.WriteString("3. Guide students to discover answers through thoughtful questions.\n")
	b.WriteString("4. When context is provided, prioritise answering from it.\n")
	b.WriteString("5. Use markdown for formatting.\n")
	b.WriteString("6. Keep responses educational and encouraging.")
	return Prompt{System: b.String(), User: p.Message}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
