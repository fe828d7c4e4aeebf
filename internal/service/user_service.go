package service

import (
	"context"
	"memodeck_backend/internal/model"
	"memodeck_backend/internal/repository"
	"memodeck_backend/internal/util"
	"regexp"
	"strings"
	"time"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// UserService 个人资料与账号管理
type UserService struct {
	UserRepo  *repository.UserRepository
	DeckRepo  *repository.DeckRepository
	CardRepo  *repository.CardRepository
	StatsRepo *repository.StatisticsRepository
	Sessions  SessionStore
	Clock     *Clock
}

func NewUserService(
	userRepo *repository.UserRepository,
	deckRepo *repository.DeckRepository,
	cardRepo *repository.CardRepository,
	statsRepo *repository.StatisticsRepository,
	sessions SessionStore,
	clock *Clock,
) *UserService {
	return &UserService{
		UserRepo:  userRepo,
		DeckRepo:  deckRepo,
		CardRepo:  cardRepo,
		StatsRepo: statsRepo,
		Sessions:  sessions,
		Clock:     clock,
	}
}

type Profile struct {
	ID         uint       `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	JoinedDate time.Time  `json:"joined_date"`
	LastLogin  *time.Time `json:"last_login"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (*Profile, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, dbError(err, util.ErrUserNotFound)
	}
	return &Profile{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Name:       user.Name,
		JoinedDate: user.JoinedDate,
		LastLogin:  user.LastLogin,
		CreatedAt:  user.CreatedAt,
	}, nil
}

type ProfileStats struct {
	TotalDecks        int64   `json:"total_decks"`
	CompletedDecks    int64   `json:"completed_decks"`
	ActiveDecks       int64   `json:"active_decks"`
	TotalCards        int64   `json:"total_cards"`
	MasteredCards     int64   `json:"mastered_cards"`
	StudyStreak       int     `json:"study_streak"`
	LongestStreak     int     `json:"longest_streak"`
	TotalStudyTime    int     `json:"total_study_time"`
	TotalCardsStudied int     `json:"total_cards_studied"`
	TotalQuizzesTaken int     `json:"total_quizzes_taken"`
	AverageAccuracy   float64 `json:"average_accuracy"`
	BestQuizAccuracy  float64 `json:"best_quiz_accuracy"`
	LastStudyDate     *string `json:"last_study_date"`
}

// GetStats mastered_cards 按牌组累加 best_score，不随卡片数重复计算
func (s *UserService) GetStats(ctx context.Context, userID uint) (*ProfileStats, error) {
	total, completed, err := s.DeckRepo.CountStats(ctx, userID)
	if err != nil {
		return nil, dbError(err, nil)
	}
	cards, err := s.CardRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, dbError(err, nil)
	}
	mastered, err := s.DeckRepo.SumBestScore(ctx, userID)
	if err != nil {
		return nil, dbError(err, nil)
	}
	stats, err := s.StatsRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, dbError(err, nil)
	}

	result := &ProfileStats{
		TotalDecks:        total,
		CompletedDecks:    completed,
		ActiveDecks:       total - completed,
		TotalCards:        cards,
		MasteredCards:     mastered,
		StudyStreak:       stats.StudyStreak,
		LongestStreak:     stats.LongestStreak,
		TotalStudyTime:    stats.TotalStudyTime,
		TotalCardsStudied: stats.TotalCardsStudied,
		TotalQuizzesTaken: stats.TotalQuizzesTaken,
		AverageAccuracy:   util.Round2(stats.AverageAccuracy),
		BestQuizAccuracy:  util.Round2(stats.BestQuizAccuracy),
	}
	if stats.LastStudyDate != "" {
		d := stats.LastStudyDate
		result.LastStudyDate = &d
	}
	return result, nil
}

// verifyPassword 修改资料前校验当前密码
func (s *UserService) verifyPassword(ctx context.Context, userID uint, password string, wrong *util.AppError) (*model.User, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, dbError(err, util.ErrUserNotFound)
	}
	if !checkPassword(user.Password, password) {
		return nil, wrong
	}
	return user, nil
}

func (s *UserService) UpdateUsername(ctx context.Context, userID uint, newUsername, password string) (string, error) {
	username := strings.TrimSpace(newUsername)
	if username == "" {
		return "", util.NewValidationError("Username cannot be empty")
	}
	if len(username) < 3 || len(username) > 50 {
		return "", util.NewValidationError("Username must be between 3 and 50 characters")
	}
	if !usernamePattern.MatchString(username) {
		return "", util.NewValidationError("Username can only contain letters, numbers, and underscores")
	}
	if _, err := s.verifyPassword(ctx, userID, password, util.ErrIncorrectPassword); err != nil {
		return "", err
	}

	taken, err := s.UserRepo.UsernameTaken(ctx, username, userID)
	if err != nil {
		return "", dbError(err, nil)
	}
	if taken {
		return "", util.ErrUsernameTaken
	}
	if err := s.UserRepo.UpdateFields(ctx, userID, map[string]interface{}{"username": username}); err != nil {
		return "", dbError(err, nil)
	}
	return username, nil
}

func (s *UserService) UpdateEmail(ctx context.Context, userID uint, newEmail, password string) (string, error) {
	email := strings.TrimSpace(newEmail)
	if email == "" {
		return "", util.NewValidationError("Email cannot be empty")
	}
	if !validEmail(email) {
		return "", util.NewValidationError("Invalid email format")
	}
	if _, err := s.verifyPassword(ctx, userID, password, util.ErrIncorrectPassword); err != nil {
		return "", err
	}

	taken, err := s.UserRepo.EmailTaken(ctx, email, userID)
	if err != nil {
		return "", dbError(err, nil)
	}
	if taken {
		return "", util.ErrEmailTaken
	}
	if err := s.UserRepo.UpdateFields(ctx, userID, map[string]interface{}{"email": email}); err != nil {
		return "", dbError(err, nil)
	}
	return email, nil
}

type PasswordChange struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

func (s *UserService) UpdatePassword(ctx context.Context, userID uint, in PasswordChange) error {
	if in.CurrentPassword == "" || in.NewPassword == "" {
		return util.NewValidationError("Current and new passwords are required")
	}
	if len(in.NewPassword) < minPasswordLength {
		return util.NewValidationError("New password must be at least 6 characters")
	}
	if in.NewPassword != in.ConfirmPassword {
		return util.NewValidationError("New passwords do not match")
	}
	wrong := util.NewValidationError("Current password is incorrect")
	if _, err := s.verifyPassword(ctx, userID, in.CurrentPassword, wrong); err != nil {
		return err
	}

	hashed, err := hashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	return dbError(s.UserRepo.UpdateFields(ctx, userID, map[string]interface{}{"password": hashed}), nil)
}

// DeleteAccount 删除全部数据并注销当前令牌
func (s *UserService) DeleteAccount(ctx context.Context, claims *util.Claims) error {
	if _, err := s.UserRepo.FindByID(ctx, claims.UserID); err != nil {
		return dbError(err, util.ErrUserNotFound)
	}
	if err := s.UserRepo.DeleteWithData(ctx, claims.UserID); err != nil {
		return dbError(err, nil)
	}
	return s.Sessions.Revoke(ctx, claims.ID, claims.TTL(s.Clock.Now()))
}
