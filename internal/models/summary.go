package models

type SummaryRequest struct {
	Context string `json:"context"`
}

type SummaryResult struct {
	BriefSummary    string   `json:"briefSummary"`
	KeyTakeaways    []string `json:"keyTakeaways"`
	DetailedSummary string   `json:"detailedSummary"`
}
