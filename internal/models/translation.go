package models

type TranslateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
	SourceLanguage string `json:"sourceLanguage"` // ISO code or "auto"
}

type TranslationResult struct {
	Translation      string `json:"translation"`
	DetectedLanguage string `json:"detectedLanguage"`
}
