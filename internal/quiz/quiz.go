// Package quiz 测验过程状态：得分、连击与逐题作答记录。
//
// 前端与服务端共用同一套规则，服务端用 Replay 复核提交的作答记录。
package quiz

import (
	"strings"

	"memodeck_backend/internal/model"
)

// Response 单题作答记录，跳过时 UserAnswer 为 nil
type Response struct {
	CardID              uint    `json:"card_id"`
	UserAnswer          *string `json:"user_answer"`
	CorrectAnswer       string  `json:"correct_answer"`
	IsCorrect           bool    `json:"is_correct"`
	Skipped             bool    `json:"skipped"`
	ResponseTimeSeconds *int    `json:"response_time_seconds"`
}

type Run struct {
	score      int
	total      int
	streak     int
	bestStreak int
	responses  []Response
}

func NewRun() *Run {
	return &Run{}
}

// Grade 忽略大小写与首尾空白的精确匹配
func Grade(userAnswer, correctAnswer string) bool {
	return strings.ToLower(strings.TrimSpace(userAnswer)) == strings.ToLower(strings.TrimSpace(correctAnswer))
}

// Answer 记录一次作答并返回是否正确
func (r *Run) Answer(cardID uint, userAnswer, correctAnswer string, responseTime *int) bool {
	correct := Grade(userAnswer, correctAnswer)
	r.total++
	if correct {
		r.score++
		r.streak++
		if r.streak > r.bestStreak {
			r.bestStreak = r.streak
		}
	} else {
		r.streak = 0
	}

	answer := userAnswer
	r.responses = append(r.responses, Response{
		CardID:              cardID,
		UserAnswer:          &answer,
		CorrectAnswer:       correctAnswer,
		IsCorrect:           correct,
		ResponseTimeSeconds: responseTime,
	})
	return correct
}

// Skip 跳过计入总题数，连击清零
func (r *Run) Skip(cardID uint, correctAnswer string, responseTime *int) {
	r.total++
	r.streak = 0
	r.responses = append(r.responses, Response{
		CardID:              cardID,
		CorrectAnswer:       correctAnswer,
		Skipped:             true,
		ResponseTimeSeconds: responseTime,
	})
}

func (r *Run) Score() int      { return r.score }
func (r *Run) Total() int      { return r.total }
func (r *Run) Streak() int     { return r.streak }
func (r *Run) BestStreak() int { return r.bestStreak }

func (r *Run) Responses() []Response {
	out := make([]Response, len(r.responses))
	copy(out, r.responses)
	return out
}

func (r *Run) Accuracy() float64 {
	return Accuracy(r.score, r.total)
}

// Replay 按提交顺序重算作答记录，判定以 Grade 为准
func Replay(responses []Response) *Run {
	run := NewRun()
	for _, resp := range responses {
		if resp.Skipped || resp.UserAnswer == nil {
			run.Skip(resp.CardID, resp.CorrectAnswer, resp.ResponseTimeSeconds)
			continue
		}
		run.Answer(resp.CardID, *resp.UserAnswer, resp.CorrectAnswer, resp.ResponseTimeSeconds)
	}
	return run
}

// Accuracy 百分比保留两位小数，总数为 0 时为 0
func Accuracy(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	if score < 0 {
		score = 0
	}
	return float64((int64(score)*20000+int64(total))/(2*int64(total))) / 100
}

func PerformanceLevel(accuracy float64) string {
	switch {
	case accuracy >= 90:
		return model.PerformanceExcellent
	case accuracy >= 75:
		return model.PerformanceGood
	case accuracy >= 60:
		return model.PerformanceAverage
	default:
		return model.PerformanceNeedsImprovement
	}
}
