package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsage_EmptyState(t *testing.T) {
	u := NewUsage(NewMemoryKV(), nil)

	g, err := u.Gamification(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, g.Level)
	assert.Zero(t, g.Points)
	require.Len(t, g.Achievements, len(achievementRules))
	for _, a := range g.Achievements {
		assert.False(t, a.Unlocked, a.ID)
	}
}

func TestUsage_Streak(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	u := NewUsage(NewMemoryKV(), nil, WithClock(clock.Now))

	streak := func() int {
		t.Helper()
		s, err := u.Stats(ctx)
		require.NoError(t, err)
		return s.Streak
	}

	require.NoError(t, u.Record(ctx, ActionSummary))
	assert.Equal(t, 1, streak())

	clock.Advance(2 * time.Hour)
	require.NoError(t, u.Record(ctx, ActionSummary))
	assert.Equal(t, 1, streak(), "same day does not extend the streak")

	clock.Advance(24 * time.Hour)
	require.NoError(t, u.AddStudyTime(ctx, 25))
	assert.Equal(t, 2, streak())

	clock.Advance(72 * time.Hour)
	require.NoError(t, u.Record(ctx, ActionSummary))
	assert.Equal(t, 1, streak(), "a gap resets the streak")

	s, err := u.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, s.StudyTime)
}

func TestUsage_WeekStreakAchievement(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	u := NewUsage(NewMemoryKV(), nil, WithClock(clock.Now))

	for day := 0; day < 7; day++ {
		require.NoError(t, u.Record(ctx, ActionTranslation))
		clock.Advance(24 * time.Hour)
	}

	g, err := u.Gamification(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, g.Streak)
	for _, a := range g.Achievements {
		if a.ID == "week-streak" {
			assert.True(t, a.Unlocked)
		}
	}
}

func TestUsage_ChatRewardEveryTenthMessage(t *testing.T) {
	ctx := context.Background()
	u := NewUsage(NewMemoryKV(), nil, WithClock(newTestClock().Now))

	for i := 0; i < 9; i++ {
		require.NoError(t, u.Record(ctx, ActionChatMessage))
	}
	g, err := u.Gamification(ctx)
	require.NoError(t, err)
	assert.Zero(t, g.Points)

	require.NoError(t, u.Record(ctx, ActionChatMessage))
	g, err = u.Gamification(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, g.Points)
}

func TestUsage_LevelAndAchievements(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	u := NewUsage(NewMemoryKV(), nil, WithClock(clock.Now))

	require.NoError(t, u.Record(ctx, ActionUpload))
	for i := 0; i < 5; i++ {
		require.NoError(t, u.Record(ctx, ActionPodcast))
	}

	g, err := u.Gamification(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20+5*25, g.Points)
	assert.Equal(t, 2, g.Level)

	unlocked := map[string]int64{}
	for _, a := range g.Achievements {
		if a.Unlocked {
			unlocked[a.ID] = a.UnlockedAt
		}
	}
	assert.Equal(t, map[string]int64{
		"first-document":   clock.Now().UnixMilli(),
		"podcast-listener": clock.Now().UnixMilli(),
	}, unlocked)
}

func TestUsage_UnknownActionIsIgnored(t *testing.T) {
	ctx := context.Background()
	u := NewUsage(NewMemoryKV(), nil)
	require.NoError(t, u.Record(ctx, Action("mystery")))

	s, err := u.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, s)
}
