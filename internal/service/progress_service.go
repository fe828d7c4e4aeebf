package service

import (
	"context"
	"math"
	"memodeck_backend/internal/repository"
	"memodeck_backend/internal/util"
	"sort"
	"time"
)

const (
	DeckStatusCompleted  = "Completed"
	DeckStatusInProgress = "In Progress"
	DeckStatusNotStarted = "Not Started"

	weeklyWindowDays = 7
)

type ProgressService struct {
	ProgressRepo *repository.ProgressRepository
	SessionRepo  *repository.StudySessionRepository
	StatsRepo    *repository.StatisticsRepository
	Clock        *Clock
}

func NewProgressService(
	progressRepo *repository.ProgressRepository,
	sessionRepo *repository.StudySessionRepository,
	statsRepo *repository.StatisticsRepository,
	clock *Clock,
) *ProgressService {
	return &ProgressService{
		ProgressRepo: progressRepo,
		SessionRepo:  sessionRepo,
		StatsRepo:    statsRepo,
		Clock:        clock,
	}
}

type ProgressSummary struct {
	TotalDecks      int     `json:"totalDecks"`
	TotalCards      int64   `json:"totalCards"`
	MasteredCards   int64   `json:"masteredCards"`
	CompletedDecks  int     `json:"completedDecks"`
	Streak          int     `json:"streak"`
	TotalStudyTime  int     `json:"totalStudyTime"`
	AverageAccuracy float64 `json:"averageAccuracy"`
}

type DeckProgress struct {
	ID                 uint   `json:"id"`
	Name               string `json:"name"`
	Color              string `json:"color"`
	TotalCards         int64  `json:"totalCards"`
	BestScore          int    `json:"bestScore"`
	ProgressPercentage int    `json:"progressPercentage"`
	Status             string `json:"status"`
}

type DayActivity struct {
	Date    string `json:"date"`
	DayName string `json:"dayName"`
	Minutes int64  `json:"minutes"`
}

type ProgressReport struct {
	Summary ProgressSummary `json:"summary"`
	Decks   []DeckProgress  `json:"decks"`
	Weekly  []DayActivity   `json:"weekly"`
}

// GetSummary masteredCards 为各牌组 best_score 之和
func (s *ProgressService) GetSummary(ctx context.Context, userID uint) (*ProgressReport, error) {
	rows, err := s.ProgressRepo.DeckRows(ctx, userID)
	if err != nil {
		return nil, dbError(err, nil)
	}
	stats, err := s.StatsRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, dbError(err, nil)
	}

	report := &ProgressReport{
		Summary: ProgressSummary{
			TotalDecks:      len(rows),
			Streak:          stats.StudyStreak,
			TotalStudyTime:  stats.TotalStudyTime,
			AverageAccuracy: util.Round2(stats.AverageAccuracy),
		},
		Decks: make([]DeckProgress, 0, len(rows)),
	}

	for _, row := range rows {
		dp := deckProgressOf(row)
		if dp.Status == DeckStatusCompleted {
			report.Summary.CompletedDecks++
		}
		report.Summary.TotalCards += row.TotalCards
		report.Summary.MasteredCards += int64(row.BestScore)
		report.Decks = append(report.Decks, dp)
	}
	// 已完成的牌组在前，其余按名称
	sort.SliceStable(report.Decks, func(i, j int) bool {
		ci := report.Decks[i].Status == DeckStatusCompleted
		cj := report.Decks[j].Status == DeckStatusCompleted
		return ci && !cj
	})

	report.Weekly, err = s.weekly(ctx, userID)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func deckProgressOf(row repository.DeckProgressRow) DeckProgress {
	dp := DeckProgress{
		ID:         row.ID,
		Name:       row.Name,
		Color:      row.Color,
		TotalCards: row.TotalCards,
		BestScore:  row.BestScore,
		Status:     DeckStatusNotStarted,
	}
	if row.TotalCards > 0 {
		dp.ProgressPercentage = int(math.Round(float64(row.BestScore) / float64(row.TotalCards) * 100))
	}
	switch {
	case row.TotalCards > 0 && int64(row.BestScore) == row.TotalCards:
		dp.Status = DeckStatusCompleted
	case row.TimesStudied > 0:
		dp.Status = DeckStatusInProgress
	}
	return dp
}

// weekly 最近 7 天（含今天），旧的在前
func (s *ProgressService) weekly(ctx context.Context, userID uint) ([]DayActivity, error) {
	from := s.Clock.DaysAgo(weeklyWindowDays - 1)
	to := s.Clock.Today()
	seconds, err := s.SessionRepo.DailySeconds(ctx, userID, from, to)
	if err != nil {
		return nil, dbError(err, nil)
	}

	days := make([]DayActivity, 0, weeklyWindowDays)
	for i := weeklyWindowDays - 1; i >= 0; i-- {
		date := s.Clock.DaysAgo(i)
		day, _ := time.Parse(util.DateFormat, date)
		minutes := int64(math.Round(float64(seconds[date]) / 60))
		if minutes < 0 {
			minutes = 0
		}
		days = append(days, DayActivity{
			Date:    date,
			DayName: day.Weekday().String()[:3],
			Minutes: minutes,
		})
	}
	return days, nil
}
