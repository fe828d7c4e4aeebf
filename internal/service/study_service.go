package service

import (
	"context"
	"memodeck_backend/internal/model"
	"memodeck_backend/internal/quiz"
	"memodeck_backend/internal/repository"
	"memodeck_backend/internal/util"
	"memodeck_backend/pkg/logger"
	"memodeck_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const recentSessionLimit = 10

type StudyService struct {
	DB          *gorm.DB
	DeckRepo    *repository.DeckRepository
	CardRepo    *repository.CardRepository
	SessionRepo *repository.StudySessionRepository
	AttemptRepo *repository.QuizAttemptRepository
	StatsRepo   *repository.StatisticsRepository
	Clock       *Clock
}

func NewStudyService(
	db *gorm.DB,
	deckRepo *repository.DeckRepository,
	cardRepo *repository.CardRepository,
	sessionRepo *repository.StudySessionRepository,
	attemptRepo *repository.QuizAttemptRepository,
	statsRepo *repository.StatisticsRepository,
	clock *Clock,
) *StudyService {
	return &StudyService{
		DB:          db,
		DeckRepo:    deckRepo,
		CardRepo:    cardRepo,
		SessionRepo: sessionRepo,
		AttemptRepo: attemptRepo,
		StatsRepo:   statsRepo,
		Clock:       clock,
	}
}

func (s *StudyService) StartSession(ctx context.Context, userID, deckID uint, sessionType string) (*model.StudySession, error) {
	if deckID == 0 || sessionType == "" {
		return nil, util.NewValidationError("Deck ID and session type are required")
	}
	st := model.SessionType(sessionType)
	if !st.Valid() {
		return nil, util.NewValidationError("Invalid session type")
	}

	if _, err := s.DeckRepo.FindForUser(ctx, deckID, userID); err != nil {
		return nil, dbError(err, util.ErrDeckNotFound)
	}

	now := s.Clock.Now()
	session := &model.StudySession{
		UserID:      userID,
		DeckID:      deckID,
		SessionType: st,
		SessionDate: s.Clock.DateOf(now),
		StartedAt:   now,
	}
	if err := s.SessionRepo.Create(ctx, session); err != nil {
		return nil, dbError(err, nil)
	}
	return session, nil
}

type FlipInput struct {
	SessionID        uint
	CardID           uint
	Flipped          *bool
	TimeSpentSeconds int
}

// RecordFlip 记录一次翻卡，重复翻同一张卡累加耗时
func (s *StudyService) RecordFlip(ctx context.Context, userID uint, in FlipInput) error {
	if in.SessionID == 0 || in.CardID == 0 {
		return util.NewValidationError("Session ID and card ID are required")
	}
	if in.TimeSpentSeconds < 0 {
		return util.NewValidationError("Time spent cannot be negative")
	}
	flipped := true
	if in.Flipped != nil {
		flipped = *in.Flipped
	}

	session, err := s.SessionRepo.FindForUser(ctx, in.SessionID, userID)
	if err != nil {
		return dbError(err, util.ErrSessionNotFound)
	}
	if session.Completed {
		return util.ErrSessionCompleted
	}
	cards, err := s.CardRepo.FindInDeck(ctx, session.DeckID, []uint{in.CardID})
	if err != nil {
		return dbError(err, nil)
	}
	if len(cards) == 0 {
		return util.ErrCardNotFound
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sessions := s.SessionRepo.WithTx(tx)
		now := s.Clock.Now()

		if err := sessions.UpsertProgress(ctx, session.ID, in.CardID, flipped, in.TimeSpentSeconds, now); err != nil {
			return err
		}
		studied, _, err := sessions.ProgressTotals(ctx, session.ID)
		if err != nil {
			return err
		}
		return sessions.UpdateFields(ctx, session.ID, map[string]interface{}{
			"cards_studied":    studied,
			"duration_seconds": elapsedSeconds(session.StartedAt, now),
		})
	})
	return dbError(err, nil)
}

// CompleteFlipSession 结束翻卡会话并更新连续学习天数与统计
func (s *StudyService) CompleteFlipSession(ctx context.Context, userID, sessionID uint) (*model.StudySession, error) {
	if sessionID == 0 {
		return nil, util.NewValidationError("Session ID is required")
	}

	var completed *model.StudySession
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sessions := s.SessionRepo.WithTx(tx)

		session, err := sessions.FindForUpdate(ctx, sessionID, userID)
		if err != nil {
			return dbError(err, util.ErrSessionNotFound)
		}
		if session.SessionType != model.SessionFlip {
			return util.NewValidationError("Quiz sessions are completed by saving the quiz attempt")
		}
		if session.Completed {
			return util.ErrSessionCompleted
		}

		now := s.Clock.Now()
		duration := elapsedSeconds(session.StartedAt, now)
		studied, _, err := sessions.ProgressTotals(ctx, session.ID)
		if err != nil {
			return err
		}

		err = sessions.UpdateFields(ctx, session.ID, map[string]interface{}{
			"completed":        true,
			"completed_at":     now,
			"duration_seconds": duration,
			"cards_studied":    studied,
		})
		if err != nil {
			return err
		}

		stats, err := s.StatsRepo.WithTx(tx).LockForUser(ctx, userID)
		if err != nil {
			return err
		}
		ApplyStreak(stats, s.Clock.Today(), s.Clock.DaysAgo(1))
		stats.TotalStudyTime += duration
		stats.TotalCardsStudied += int(studied)
		stats.TotalFlipSessions++
		if err := s.StatsRepo.WithTx(tx).Save(ctx, stats); err != nil {
			return err
		}

		if err := s.DeckRepo.WithTx(tx).IncrementTimesStudied(ctx, session.DeckID); err != nil {
			return err
		}

		session.Completed = true
		session.CompletedAt = &now
		session.DurationSeconds = duration
		session.CardsStudied = int(studied)
		completed = session
		return nil
	})
	if err != nil {
		return nil, dbError(err, nil)
	}
	monitoring.SessionsCompleted.WithLabelValues(string(model.SessionFlip)).Inc()
	return completed, nil
}

type QuizAttemptInput struct {
	SessionID      uint
	DeckID         uint
	Score          int
	TotalQuestions int
	BestStreak     int
	Completed      *bool
	Responses      []quiz.Response
}

type QuizAttemptResult struct {
	AttemptID        uint    `json:"attempt_id"`
	Score            int     `json:"score"`
	TotalQuestions   int     `json:"total_questions"`
	Accuracy         float64 `json:"accuracy"`
	PerformanceLevel string  `json:"performance_level"`
}

func (in QuizAttemptInput) validate() error {
	if in.SessionID == 0 {
		return util.NewValidationError("Session ID is required")
	}
	if in.TotalQuestions < 0 || in.Score < 0 || in.Score > in.TotalQuestions {
		return util.NewValidationError("Score must be between 0 and total questions")
	}
	if in.BestStreak < 0 || in.BestStreak > in.TotalQuestions {
		return util.NewValidationError("Best streak must be between 0 and total questions")
	}
	if len(in.Responses) > in.TotalQuestions {
		return util.NewValidationError("More responses than questions")
	}
	return nil
}

// SaveQuizAttempt 一次事务内完成测验记录、会话收尾、统计与牌组掌握度更新
func (s *StudyService) SaveQuizAttempt(ctx context.Context, userID uint, in QuizAttemptInput) (*QuizAttemptResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	session, err := s.SessionRepo.FindForUser(ctx, in.SessionID, userID)
	if err != nil {
		return nil, dbError(err, util.ErrSessionNotFound)
	}
	if session.SessionType != model.SessionQuiz {
		return nil, util.NewValidationError("Session is not a quiz session")
	}
	if session.Completed {
		return nil, util.ErrSessionCompleted
	}
	if in.DeckID == 0 {
		in.DeckID = session.DeckID
	}
	if in.DeckID != session.DeckID {
		return nil, util.NewValidationError("Deck does not match session")
	}

	responses, err := s.resolveResponses(ctx, session.DeckID, in.Responses)
	if err != nil {
		return nil, err
	}
	if len(responses) > 0 {
		replayed := quiz.Replay(responses)
		if replayed.Score() != in.Score {
			logger.Log.Warn("Submitted quiz score differs from replayed responses",
				zap.Uint("session_id", session.ID),
				zap.Int("submitted", in.Score),
				zap.Int("replayed", replayed.Score()),
			)
		}
	}

	accuracy := quiz.Accuracy(in.Score, in.TotalQuestions)
	level := quiz.PerformanceLevel(accuracy)
	completed := true
	if in.Completed != nil {
		completed = *in.Completed
	}
	studied := len(responses)
	if studied == 0 {
		studied = in.TotalQuestions
	}

	attempt := &model.QuizAttempt{
		SessionID:        session.ID,
		DeckID:           session.DeckID,
		UserID:           userID,
		Score:            in.Score,
		TotalQuestions:   in.TotalQuestions,
		Accuracy:         accuracy,
		BestStreak:       in.BestStreak,
		PerformanceLevel: level,
		Completed:        completed,
	}
	for _, r := range responses {
		attempt.Responses = append(attempt.Responses, model.QuizResponse{
			CardID:              r.CardID,
			UserAnswer:          r.UserAnswer,
			CorrectAnswer:       r.CorrectAnswer,
			IsCorrect:           r.IsCorrect && !r.Skipped,
			Skipped:             r.Skipped,
			ResponseTimeSeconds: r.ResponseTimeSeconds,
		})
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sessions := s.SessionRepo.WithTx(tx)

		// 加锁后再次确认，防止并发重复提交
		locked, err := sessions.FindForUpdate(ctx, session.ID, userID)
		if err != nil {
			return err
		}
		if locked.Completed {
			return util.ErrSessionCompleted
		}

		now := s.Clock.Now()
		duration := elapsedSeconds(locked.StartedAt, now)

		if err := s.AttemptRepo.WithTx(tx).Create(ctx, attempt); err != nil {
			return err
		}

		err = sessions.UpdateFields(ctx, session.ID, map[string]interface{}{
			"correct_answers":  in.Score,
			"total_answers":    in.TotalQuestions,
			"accuracy":         accuracy,
			"best_streak":      in.BestStreak,
			"cards_studied":    studied,
			"completed":        true,
			"completed_at":     now,
			"duration_seconds": duration,
		})
		if err != nil {
			return err
		}

		cards := s.CardRepo.WithTx(tx)
		for _, r := range attempt.Responses {
			if err := cards.RecordQuizOutcome(ctx, r.CardID, r.IsCorrect); err != nil {
				return err
			}
		}

		statsRepo := s.StatsRepo.WithTx(tx)
		stats, err := statsRepo.LockForUser(ctx, userID)
		if err != nil {
			return err
		}
		sum, attempts, err := s.AttemptRepo.WithTx(tx).AccuracyTotals(ctx, userID)
		if err != nil {
			return err
		}
		stats.TotalQuizzesTaken++
		stats.AverageAccuracy = util.MeanHundredths(sum, attempts)
		if accuracy > stats.BestQuizAccuracy {
			stats.BestQuizAccuracy = accuracy
		}
		stats.TotalStudyTime += duration
		stats.TotalCardsStudied += studied
		ApplyStreak(stats, s.Clock.Today(), s.Clock.DaysAgo(1))
		if err := statsRepo.Save(ctx, stats); err != nil {
			return err
		}

		decks := s.DeckRepo.WithTx(tx)
		if err := decks.ApplyQuizResult(ctx, session.DeckID, in.Score, accuracy); err != nil {
			return err
		}
		_, err = decks.RecomputeMastery(ctx, session.DeckID, now)
		return err
	})
	if err != nil {
		return nil, dbError(err, nil)
	}
	monitoring.SessionsCompleted.WithLabelValues(string(model.SessionQuiz)).Inc()
	monitoring.QuizAccuracy.Observe(attempt.Accuracy)

	return &QuizAttemptResult{
		AttemptID:        attempt.ID,
		Score:            attempt.Score,
		TotalQuestions:   attempt.TotalQuestions,
		Accuracy:         attempt.Accuracy,
		PerformanceLevel: attempt.PerformanceLevel,
	}, nil
}

// resolveResponses 校验卡片归属，正确答案以库中卡片为准
func (s *StudyService) resolveResponses(ctx context.Context, deckID uint, in []quiz.Response) ([]quiz.Response, error) {
	if len(in) == 0 {
		return nil, nil
	}
	ids := make([]uint, 0, len(in))
	for _, r := range in {
		if r.CardID == 0 {
			return nil, util.NewValidationError("Card ID is required for every response")
		}
		ids = append(ids, r.CardID)
	}

	cards, err := s.CardRepo.FindInDeck(ctx, deckID, ids)
	if err != nil {
		return nil, dbError(err, nil)
	}
	answers := make(map[uint]string, len(cards))
	for _, c := range cards {
		answers[c.ID] = c.Answer
	}

	out := make([]quiz.Response, 0, len(in))
	for _, r := range in {
		answer, ok := answers[r.CardID]
		if !ok {
			return nil, util.NewValidationError("Response card does not belong to this deck")
		}
		r.CorrectAnswer = answer
		if r.Skipped {
			r.UserAnswer = nil
			r.IsCorrect = false
		}
		out = append(out, r)
	}
	return out, nil
}

// CheckAnswer 单题判定，答案比较规则与测验一致
func (s *StudyService) CheckAnswer(ctx context.Context, userID, cardID uint, answer string) (bool, string, error) {
	if cardID == 0 {
		return false, "", util.NewValidationError("Card ID is required")
	}
	card, err := s.CardRepo.FindForUser(ctx, cardID, userID)
	if err != nil {
		return false, "", dbError(err, util.ErrCardNotFound)
	}
	return quiz.Grade(answer, card.Answer), card.Answer, nil
}

type DeckSessionStats struct {
	TotalSessions     int64   `json:"total_sessions"`
	CompletedSessions int64   `json:"completed_sessions"`
	AvgAccuracy       float64 `json:"avg_accuracy"`
	BestAccuracy      float64 `json:"best_accuracy"`
	TotalTimeMinutes  float64 `json:"total_time_minutes"`
	TotalCardsStudied int64   `json:"total_cards_studied"`
}

func (s *StudyService) GetDeckSessionStats(ctx context.Context, userID, deckID uint) (*DeckSessionStats, []model.StudySession, error) {
	if _, err := s.DeckRepo.FindForUser(ctx, deckID, userID); err != nil {
		return nil, nil, dbError(err, util.ErrDeckNotFound)
	}

	agg, err := s.SessionRepo.AggregateByDeck(ctx, userID, deckID)
	if err != nil {
		return nil, nil, dbError(err, nil)
	}
	recent, err := s.SessionRepo.ListRecentByDeck(ctx, userID, deckID, recentSessionLimit)
	if err != nil {
		return nil, nil, dbError(err, nil)
	}

	return &DeckSessionStats{
		TotalSessions:     agg.TotalSessions,
		CompletedSessions: agg.CompletedSessions,
		AvgAccuracy:       util.Round2(agg.AvgAccuracy),
		BestAccuracy:      util.Round2(agg.BestAccuracy),
		TotalTimeMinutes:  util.Round2(float64(agg.TotalSeconds) / 60),
		TotalCardsStudied: agg.TotalCardsStudied,
	}, recent, nil
}

type SessionProgress struct {
	CardsStudied       int64   `json:"cards_studied"`
	TotalCards         int64   `json:"total_cards"`
	ProgressPercentage float64 `json:"progress_percentage"`
	TotalTimeSeconds   int64   `json:"total_time_seconds"`
}

func (s *StudyService) GetSessionProgress(ctx context.Context, userID, sessionID uint) (*model.StudySession, *SessionProgress, error) {
	session, total, err := s.SessionRepo.FindWithDeckName(ctx, sessionID, userID)
	if err != nil {
		return nil, nil, dbError(err, util.ErrSessionNotFound)
	}
	studied, seconds, err := s.SessionRepo.ProgressTotals(ctx, session.ID)
	if err != nil {
		return nil, nil, dbError(err, nil)
	}

	progress := &SessionProgress{
		CardsStudied:     studied,
		TotalCards:       total,
		TotalTimeSeconds: seconds,
	}
	if total > 0 {
		progress.ProgressPercentage = util.Round2(float64(studied) / float64(total) * 100)
	}
	return session, progress, nil
}
