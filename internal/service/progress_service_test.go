package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressSummary(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "rosa", "rosa@example.com")

	alpha, alphaCards := env.createDeck(t, user.ID, "Alpha", 2)
	zulu, _ := env.createDeck(t, user.ID, "Zulu", 3)
	env.createDeck(t, user.ID, "Mike", 4)

	env.takeQuiz(t, user.ID, zulu.ID, 3, 3)
	env.takeQuiz(t, user.ID, alpha.ID, 1, 2)
	flipSession(t, env, user.ID, alpha.ID, alphaCards, 3*time.Minute)

	report, err := env.progress.GetSummary(env.ctx, user.ID)
	require.NoError(t, err)

	s := report.Summary
	assert.Equal(t, 3, s.TotalDecks)
	assert.Equal(t, int64(9), s.TotalCards)
	assert.Equal(t, int64(4), s.MasteredCards)
	assert.Equal(t, 1, s.CompletedDecks)
	assert.Equal(t, 1, s.Streak)
	assert.Equal(t, 120+120+180, s.TotalStudyTime)
	assert.Equal(t, 75.0, s.AverageAccuracy)

	require.Len(t, report.Decks, 3)
	assert.Equal(t, "Zulu", report.Decks[0].Name, "completed decks come first")
	assert.Equal(t, DeckStatusCompleted, report.Decks[0].Status)
	assert.Equal(t, 100, report.Decks[0].ProgressPercentage)

	assert.Equal(t, "Alpha", report.Decks[1].Name)
	assert.Equal(t, DeckStatusInProgress, report.Decks[1].Status)
	assert.Equal(t, 50, report.Decks[1].ProgressPercentage)

	assert.Equal(t, "Mike", report.Decks[2].Name)
	assert.Equal(t, DeckStatusNotStarted, report.Decks[2].Status)
	assert.Equal(t, 0, report.Decks[2].ProgressPercentage)
}

func TestProgressWeeklyWindow(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "sam", "sam@example.com")
	deck, cards := env.createDeck(t, user.ID, "Week", 1)

	// 八天前的会话不在窗口内
	flipSession(t, env, user.ID, deck.ID, cards, 10*time.Minute)
	env.time.Advance(6 * 24 * time.Hour)
	flipSession(t, env, user.ID, deck.ID, cards, 90*time.Second)
	env.time.Advance(2 * 24 * time.Hour)
	flipSession(t, env, user.ID, deck.ID, cards, 4*time.Minute)

	report, err := env.progress.GetSummary(env.ctx, user.ID)
	require.NoError(t, err)

	weekly := report.Weekly
	require.Len(t, weekly, 7)
	assert.Equal(t, env.clock.DaysAgo(6), weekly[0].Date)
	assert.Equal(t, env.clock.Today(), weekly[6].Date)

	var total int64
	for _, day := range weekly {
		total += day.Minutes
	}
	assert.Equal(t, int64(2+4), total)
	assert.Equal(t, int64(4), weekly[6].Minutes)
	assert.Equal(t, int64(2), weekly[4].Minutes, "90 seconds rounds to 2 minutes")

	day, err := time.Parse("2006-01-02", weekly[6].Date)
	require.NoError(t, err)
	assert.Equal(t, day.Weekday().String()[:3], weekly[6].DayName)
}

func TestProgressForNewUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "tina", "tina@example.com")

	report, err := env.progress.GetSummary(env.ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, report.Summary.TotalDecks)
	assert.Empty(t, report.Decks)
	assert.Len(t, report.Weekly, 7)
}
