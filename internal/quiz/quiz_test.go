package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memodeck_backend/internal/model"
)

func strPtr(s string) *string { return &s }

func TestGrade(t *testing.T) {
	cases := []struct {
		user, correct string
		want          bool
	}{
		{" paris ", "Paris", true},
		{"PARIS", "paris", true},
		{"Paris", "  Paris\n", true},
		{"Pariss", "Paris", false},
		{"", "Paris", false},
		{"new york", "New  York", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Grade(c.user, c.correct), "Grade(%q, %q)", c.user, c.correct)
	}
}

func TestRunStreaks(t *testing.T) {
	run := NewRun()

	assert.True(t, run.Answer(1, "a", "A", nil))
	assert.True(t, run.Answer(2, "b", "B", nil))
	assert.Equal(t, 2, run.Streak())
	assert.False(t, run.Answer(3, "x", "C", nil))
	assert.Equal(t, 0, run.Streak())
	assert.True(t, run.Answer(4, "d", "D", nil))
	run.Skip(5, "E", nil)

	assert.Equal(t, 3, run.Score())
	assert.Equal(t, 5, run.Total())
	assert.Equal(t, 0, run.Streak())
	assert.Equal(t, 2, run.BestStreak())
	assert.Equal(t, 60.0, run.Accuracy())

	responses := run.Responses()
	require.Len(t, responses, 5)
	assert.True(t, responses[4].Skipped)
	assert.False(t, responses[4].IsCorrect)
	assert.Nil(t, responses[4].UserAnswer)
	assert.Equal(t, "x", *responses[2].UserAnswer)
}

func TestResponsesIsCopy(t *testing.T) {
	run := NewRun()
	run.Answer(1, "a", "a", nil)

	responses := run.Responses()
	responses[0].IsCorrect = false

	assert.True(t, run.Responses()[0].IsCorrect)
}

func TestReplayMatchesLiveRun(t *testing.T) {
	live := NewRun()
	live.Answer(1, "Paris", "paris", nil)
	live.Skip(2, "Berlin", nil)
	live.Answer(3, "rome", "Rome", nil)
	live.Answer(4, "Oslo", "Madrid", nil)

	replayed := Replay(live.Responses())
	assert.Equal(t, live.Score(), replayed.Score())
	assert.Equal(t, live.Total(), replayed.Total())
	assert.Equal(t, live.BestStreak(), replayed.BestStreak())
}

func TestReplayRegradesSubmittedFlags(t *testing.T) {
	// 客户端标记为正确但答案不匹配时以 Grade 为准
	run := Replay([]Response{
		{CardID: 1, UserAnswer: strPtr("wrong"), CorrectAnswer: "right", IsCorrect: true},
		{CardID: 2, UserAnswer: nil, CorrectAnswer: "x"},
	})
	assert.Equal(t, 0, run.Score())
	assert.Equal(t, 2, run.Total())
}

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 66.67, Accuracy(2, 3))
	assert.Equal(t, 33.33, Accuracy(1, 3))
	assert.Equal(t, 100.0, Accuracy(3, 3))
	assert.Equal(t, 0.0, Accuracy(0, 0))
	assert.Equal(t, 0.0, Accuracy(0, 5))
	// 恰好半个百分之一时进位
	assert.Equal(t, 0.01, Accuracy(1, 20000))
	assert.Equal(t, 12.5, Accuracy(1, 8))
}

func TestPerformanceLevel(t *testing.T) {
	assert.Equal(t, model.PerformanceExcellent, PerformanceLevel(90))
	assert.Equal(t, model.PerformanceGood, PerformanceLevel(89.99))
	assert.Equal(t, model.PerformanceGood, PerformanceLevel(75))
	assert.Equal(t, model.PerformanceAverage, PerformanceLevel(66.67))
	assert.Equal(t, model.PerformanceNeedsImprovement, PerformanceLevel(59.99))
	assert.Equal(t, model.PerformanceNeedsImprovement, PerformanceLevel(0))
}
