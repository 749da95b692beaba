package models

// DocumentVersion is the schema version written with every document record.
const DocumentVersion = 1

// Document is a study document owned by the local store. Timestamps are Unix
// milliseconds.
type Document struct {
	Version         int                `json:"version"`
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	SubjectID       string             `json:"subjectId"`
	UploadedAt      int64              `json:"uploadedAt"`
	LastAccessed    int64              `json:"lastAccessed"`
	Text            string             `json:"text"`
	Summary         *SummaryResult     `json:"summary,omitempty"`
	Artifacts       *StudyAidsResult   `json:"artifacts,omitempty"`
	ExamQuestions   []ExamQuestion     `json:"examQuestions,omitempty"`
	PodcastScript   string             `json:"podcastScript,omitempty"`
	LastEssay       string             `json:"lastEssay,omitempty"`
	LastTranslation *TranslationResult `json:"lastTranslation,omitempty"`
	ChatHistory     []ChatMessage      `json:"chatHistory,omitempty"`
}

type Subject struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Icon      string `json:"icon"`
	CreatedAt int64  `json:"createdAt"`
}

type Note struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	Timestamp  int64  `json:"timestamp"`
	PageNumber *int   `json:"pageNumber,omitempty"`
}

type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Annotation struct {
	ID           string `json:"id"`
	PageNumber   int    `json:"pageNumber"`
	Rect         Rect   `json:"rect"`
	Color        string `json:"color"` // "yellow" | "green" | "blue" | "pink"
	SelectedText string `json:"selectedText"`
	Note         string `json:"note,omitempty"`
	CreatedAt    string `json:"createdAt"` // RFC 3339
}

type UsageStats struct {
	DocumentsUploaded   int `json:"documentsUploaded"`
	ChatMessages        int `json:"chatMessages"`
	SummariesGenerated  int `json:"summariesGenerated"`
	PodcastsCreated     int `json:"podcastsCreated"`
	FlashcardsCreated   int `json:"flashcardsCreated"`
	ExamsCompleted      int `json:"examsCompleted"`
	EssaysGenerated     int `json:"essaysGenerated"`
	TranslationsCreated int `json:"translationsCreated"`
	StudyTime           int `json:"studyTime"`
	Streak              int `json:"streak"`
}

type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
	Unlocked    bool   `json:"unlocked"`
	UnlockedAt  int64  `json:"unlockedAt,omitempty"`
}

type Gamification struct {
	Points       int           `json:"points"`
	Level        int           `json:"level"`
	Streak       int           `json:"streak"`
	Achievements []Achievement `json:"achievements"`
}

// ExportBundle is the structured export of one document's study material.
type ExportBundle struct {
	DocumentName  string         `json:"documentName"`
	ExportedAt    string         `json:"exportedAt"`
	Summary       *SummaryResult `json:"summary,omitempty"`
	MindMap       string         `json:"mindMap,omitempty"`
	Flashcards    []Flashcard    `json:"flashcards,omitempty"`
	ExamQuestions []ExamQuestion `json:"examQuestions,omitempty"`
	PodcastScript string         `json:"podcastScript,omitempty"`
	Notes         []Note         `json:"notes,omitempty"`
}
