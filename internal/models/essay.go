package models

type EssayRequest struct {
	Topic     string `json:"topic"`
	Context   string `json:"context"`
	EssayType string `json:"essayType"` // "argumentative" | "expository" | "narrative" | "descriptive"
	WordCount int    `json:"wordCount"`
}
