package models

type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// StudyAidsRequest asks for a mind map and a flashcard deck in one call.
type StudyAidsRequest struct {
	Context string `json:"context"`
}

type StudyAidsResult struct {
	MindMap    string      `json:"mindMap"`
	Flashcards []Flashcard `json:"flashcards"`
}
