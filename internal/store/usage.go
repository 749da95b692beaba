package store

import (
	"context"
	"sync"
	"time"

	"prisma-backend/internal/logger"
	"prisma-backend/internal/models"
)

// Action is something the student did that the usage counters track.
type Action string

const (
	ActionUpload      Action = "document-uploaded"
	ActionChatMessage Action = "chat-message"
	ActionSummary     Action = "summary-generated"
	ActionPodcast     Action = "podcast-created"
	ActionFlashcards  Action = "flashcard-created"
	ActionExam        Action = "exam-completed"
	ActionEssay       Action = "essay-generated"
	ActionTranslation Action = "translation-created"
)

const (
	pointsPerLevel   = 100
	chatRewardEvery  = 10
	chatRewardPoints = 5
	dayLayout        = "2006-01-02"
)

var actionPoints = map[Action]int{
	ActionUpload:     20,
	ActionSummary:    15,
	ActionPodcast:    25,
	ActionFlashcards: 10,
	ActionExam:       30,
}

// ActionForKind maps a generated artifact onto the counter it bumps.
func ActionForKind(kind models.ArtifactKind) (Action, bool) {
	switch kind {
	case models.KindSummary:
		return ActionSummary, true
	case models.KindStudyAids:
		return ActionFlashcards, true
	case models.KindExam:
		return ActionExam, true
	case models.KindPodcast:
		return ActionPodcast, true
	case models.KindEssay:
		return ActionEssay, true
	case models.KindTranslation:
		return ActionTranslation, true
	case models.KindChat:
		return ActionChatMessage, true
	}
	return "", false
}

type achievementRule struct {
	achievement models.Achievement
	reached     func(models.UsageStats) bool
}

var achievementRules = []achievementRule{
	{models.Achievement{ID: "first-document", Title: "First Step", Description: "Upload your first document", Icon: "📚"},
		func(s models.UsageStats) bool { return s.DocumentsUploaded >= 1 }},
	{models.Achievement{ID: "chat-master", Title: "Conversationalist", Description: "Send 50 chat messages", Icon: "💬"},
		func(s models.UsageStats) bool { return s.ChatMessages >= 50 }},
	{models.Achievement{ID: "exam-ace", Title: "Exam Master", Description: "Complete 10 exams", Icon: "🎓"},
		func(s models.UsageStats) bool { return s.ExamsCompleted >= 10 }},
	{models.Achievement{ID: "week-streak", Title: "Consistent", Description: "Keep a 7 day streak", Icon: "🔥"},
		func(s models.UsageStats) bool { return s.Streak >= 7 }},
	{models.Achievement{ID: "podcast-listener", Title: "Dedicated Listener", Description: "Create 5 podcasts", Icon: "🎧"},
		func(s models.UsageStats) bool { return s.PodcastsCreated >= 5 }},
}

// Usage maintains the advisory counters and gamification state. The counters
// and the points are separate keys and are not updated atomically.
type Usage struct {
	mu  sync.Mutex
	kv  KV
	now func() time.Time
	log *logger.Logger
}

type UsageOption func(*Usage)

// WithClock injects the time source used for streaks and unlock dates.
func WithClock(now func() time.Time) UsageOption {
	return func(u *Usage) { u.now = now }
}

func NewUsage(kv KV, log *logger.Logger, opts ...UsageOption) *Usage {
	if log == nil {
		log = logger.Nop()
	}
	u := &Usage{kv: kv, now: time.Now, log: log}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *Usage) Stats(ctx context.Context) (models.UsageStats, error) {
	var stats models.UsageStats
	_, err := getJSON(ctx, u.kv, KeyStats, &stats)
	return stats, err
}

func (u *Usage) Gamification(ctx context.Context) (models.Gamification, error) {
	g := models.Gamification{Level: 1}
	if _, err := getJSON(ctx, u.kv, KeyGamification, &g); err != nil {
		return g, err
	}
	g.Achievements = mergeAchievements(g.Achievements)
	return g, nil
}

// Record bumps the counter for action, awards points and updates the streak.
func (u *Usage) Record(ctx context.Context, action Action) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	stats, err := u.Stats(ctx)
	if err != nil {
		return err
	}

	points := actionPoints[action]
	switch action {
	case ActionUpload:
		stats.DocumentsUploaded++
	case ActionChatMessage:
		stats.ChatMessages++
		if stats.ChatMessages%chatRewardEvery == 0 {
			points = chatRewardPoints
		}
	case ActionSummary:
		stats.SummariesGenerated++
	case ActionPodcast:
		stats.PodcastsCreated++
	case ActionFlashcards:
		stats.FlashcardsCreated++
	case ActionExam:
		stats.ExamsCompleted++
	case ActionEssay:
		stats.EssaysGenerated++
	case ActionTranslation:
		stats.TranslationsCreated++
	default:
		u.log.Warn("unknown usage action", "action", string(action))
		return nil
	}

	if err := u.touchStreak(ctx, &stats); err != nil {
		return err
	}
	if err := setJSON(ctx, u.kv, KeyStats, stats); err != nil {
		return err
	}
	return u.award(ctx, points, stats)
}

// AddStudyTime adds focused study minutes.
func (u *Usage) AddStudyTime(ctx context.Context, minutes int) error {
	if minutes <= 0 {
		return nil
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	stats, err := u.Stats(ctx)
	if err != nil {
		return err
	}
	stats.StudyTime += minutes
	if err := u.touchStreak(ctx, &stats); err != nil {
		return err
	}
	return setJSON(ctx, u.kv, KeyStats, stats)
}

// touchStreak extends the streak on the first activity of a day that follows
// an active day, and resets it after a gap.
func (u *Usage) touchStreak(ctx context.Context, stats *models.UsageStats) error {
	now := u.now()
	today := now.Format(dayLayout)

	var last string
	if _, err := getJSON(ctx, u.kv, KeyLastActive, &last); err != nil {
		return err
	}
	if last == today {
		return nil
	}

	if last == now.AddDate(0, 0, -1).Format(dayLayout) {
		stats.Streak++
	} else {
		stats.Streak = 1
	}
	return setJSON(ctx, u.kv, KeyLastActive, today)
}

func (u *Usage) award(ctx context.Context, points int, stats models.UsageStats) error {
	g, err := u.Gamification(ctx)
	if err != nil {
		return err
	}

	g.Points += points
	level := g.Points/pointsPerLevel + 1
	if level > g.Level {
		u.log.Info("level up", "level", level)
	}
	g.Level = level
	g.Streak = stats.Streak

	for i, rule := range achievementRules {
		a := &g.Achievements[i]
		if !a.Unlocked && rule.reached(stats) {
			a.Unlocked = true
			a.UnlockedAt = u.now().UnixMilli()
			u.log.Info("achievement unlocked", "achievement", a.ID)
		}
	}
	return setJSON(ctx, u.kv, KeyGamification, g)
}

// mergeAchievements returns the full catalogue in order, keeping unlock state
// from stored entries.
func mergeAchievements(stored []models.Achievement) []models.Achievement {
	byID := make(map[string]models.Achievement, len(stored))
	for _, a := range stored {
		byID[a.ID] = a
	}
	out := make([]models.Achievement, len(achievementRules))
	for i, rule := range achievementRules {
		a := rule.achievement
		if s, ok := byID[a.ID]; ok {
			a.Unlocked = s.Unlocked
			a.UnlockedAt = s.UnlockedAt
		}
		out[i] = a
	}
	return out
}
