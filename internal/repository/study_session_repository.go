package repository

import (
	"context"
	"memodeck_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StudySessionRepository struct {
	DB *gorm.DB
}

func NewStudySessionRepository(db *gorm.DB) *StudySessionRepository {
	return &StudySessionRepository{DB: db}
}

func (r *StudySessionRepository) WithTx(tx *gorm.DB) *StudySessionRepository {
	return &StudySessionRepository{DB: tx}
}

func (r *StudySessionRepository) Create(ctx context.Context, session *model.StudySession) error {
	return r.DB.WithContext(ctx).Create(session).Error
}

func (r *StudySessionRepository) FindForUser(ctx context.Context, id, userID uint) (*model.StudySession, error) {
	var session model.StudySession
	err := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&session).Error
	return &session, err
}

// FindForUpdate 事务内加行锁读取，sqlite 忽略锁子句
func (r *StudySessionRepository) FindForUpdate(ctx context.Context, id, userID uint) (*model.StudySession, error) {
	var session model.StudySession
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&session).Error
	return &session, err
}

// FindWithDeckName 附带牌组名称与卡片总数的查询
func (r *StudySessionRepository) FindWithDeckName(ctx context.Context, id, userID uint) (*model.StudySession, int64, error) {
	var session model.StudySession
	err := r.DB.WithContext(ctx).
		Select("study_sessions.*, decks.name AS deck_name").
		Joins("JOIN decks ON decks.id = study_sessions.deck_id").
		Where("study_sessions.id = ? AND study_sessions.user_id = ?", id, userID).
		First(&session).Error
	if err != nil {
		return nil, 0, err
	}

	var total int64
	err = r.DB.WithContext(ctx).Model(&model.Card{}).Where("deck_id = ?", session.DeckID).Count(&total).Error
	return &session, total, err
}

func (r *StudySessionRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.DB.WithContext(ctx).Model(&model.StudySession{}).Where("id = ?", id).Updates(fields).Error
}

// UpsertProgress 同一会话同一卡片重复提交时累加耗时，flipped 取最新值
func (r *StudySessionRepository) UpsertProgress(ctx context.Context, sessionID, cardID uint, flipped bool, timeSpent int, now time.Time) error {
	progress := model.StudyProgress{
		SessionID:        sessionID,
		CardID:           cardID,
		Flipped:          flipped,
		TimeSpentSeconds: timeSpent,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}, {Name: "card_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"flipped":            flipped,
			"time_spent_seconds": gorm.Expr("study_progress.time_spent_seconds + ?", timeSpent),
			"updated_at":         now,
		}),
	}).Create(&progress).Error
}

func (r *StudySessionRepository) ListProgress(ctx context.Context, sessionID uint) ([]model.StudyProgress, error) {
	var rows []model.StudyProgress
	err := r.DB.WithContext(ctx).Where("session_id = ?", sessionID).Order("card_id").Find(&rows).Error
	return rows, err
}

// ProgressTotals 不同卡片数与累计耗时
func (r *StudySessionRepository) ProgressTotals(ctx context.Context, sessionID uint) (cards int64, seconds int64, err error) {
	var row struct {
		Cards   int64
		Seconds int64
	}
	err = r.DB.WithContext(ctx).Model(&model.StudyProgress{}).
		Select("COUNT(DISTINCT card_id) AS cards, COALESCE(SUM(time_spent_seconds), 0) AS seconds").
		Where("session_id = ?", sessionID).
		Scan(&row).Error
	return row.Cards, row.Seconds, err
}

func (r *StudySessionRepository) ListRecentByDeck(ctx context.Context, userID, deckID uint, limit int) ([]model.StudySession, error) {
	var sessions []model.StudySession
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND deck_id = ?", userID, deckID).
		Order("started_at DESC, id DESC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

type DeckSessionAggregate struct {
	TotalSessions     int64
	CompletedSessions int64
	AvgAccuracy       float64
	BestAccuracy      float64
	TotalSeconds      int64
	TotalCardsStudied int64
}

// AggregateByDeck 正确率只统计已完成的测验会话
func (r *StudySessionRepository) AggregateByDeck(ctx context.Context, userID, deckID uint) (*DeckSessionAggregate, error) {
	var agg DeckSessionAggregate
	err := r.DB.WithContext(ctx).Model(&model.StudySession{}).
		Select(`COUNT(*) AS total_sessions,
			COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0) AS completed_sessions,
			COALESCE(SUM(duration_seconds), 0) AS total_seconds,
			COALESCE(SUM(cards_studied), 0) AS total_cards_studied`).
		Where("user_id = ? AND deck_id = ?", userID, deckID).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}

	var acc struct {
		AvgAccuracy  float64
		BestAccuracy float64
	}
	err = r.DB.WithContext(ctx).Model(&model.StudySession{}).
		Select("COALESCE(AVG(accuracy), 0) AS avg_accuracy, COALESCE(MAX(accuracy), 0) AS best_accuracy").
		Where("user_id = ? AND deck_id = ? AND session_type = ? AND completed = ?", userID, deckID, model.SessionQuiz, true).
		Scan(&acc).Error
	if err != nil {
		return nil, err
	}
	agg.AvgAccuracy = acc.AvgAccuracy
	agg.BestAccuracy = acc.BestAccuracy
	return &agg, nil
}

// DailySeconds 已完成会话按日期汇总时长，日期闭区间
func (r *StudySessionRepository) DailySeconds(ctx context.Context, userID uint, from, to string) (map[string]int64, error) {
	var rows []struct {
		SessionDate string
		Seconds     int64
	}
	err := r.DB.WithContext(ctx).Model(&model.StudySession{}).
		Select("session_date, COALESCE(SUM(duration_seconds), 0) AS seconds").
		Where("user_id = ? AND completed = ? AND session_date >= ? AND session_date <= ?", userID, true, from, to).
		Group("session_date").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.SessionDate] = row.Seconds
	}
	return result, nil
}
