package models

type ArtifactKind string

const (
	KindChat        ArtifactKind = "chat"
	KindSummary     ArtifactKind = "summary"
	KindStudyAids   ArtifactKind = "studyaids"
	KindExam        ArtifactKind = "exam"
	KindPodcast     ArtifactKind = "podcast"
	KindEssay       ArtifactKind = "essay"
	KindTranslation ArtifactKind = "translation"
)

func (k ArtifactKind) Valid() bool {
	switch k {
	case KindChat, KindSummary, KindStudyAids, KindExam, KindPodcast, KindEssay, KindTranslation:
		return true
	}
	return false
}

// Structured reports whether the kind is generated against an output schema.
func (k ArtifactKind) Structured() bool {
	return k == KindSummary || k == KindStudyAids || k == KindExam
}

// Streamed reports whether the kind is delivered as incremental text.
func (k ArtifactKind) Streamed() bool {
	return k == KindChat || k == KindEssay
}

// Artifact is a generated result tagged by kind. Exactly one payload field
// matching Kind is set.
type Artifact struct {
	Kind        ArtifactKind
	Summary     *SummaryResult
	StudyAids   *StudyAidsResult
	Exam        *ExamResult
	Podcast     *PodcastResult
	Translation *TranslationResult
	Essay       string
}
