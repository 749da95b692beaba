package models

type PodcastRequest struct {
	Context string `json:"context"`
}

type PodcastResult struct {
	Script            string `json:"script"`
	EstimatedDuration int    `json:"estimatedDuration"` // minutes
}
