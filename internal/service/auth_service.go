package service

import (
	"context"
	"errors"
	"memodeck_backend/internal/config"
	"memodeck_backend/internal/model"
	"memodeck_backend/internal/repository"
	"memodeck_backend/internal/util"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 6

type AuthService struct {
	UserRepo *repository.UserRepository
	Sessions SessionStore
	Cfg      *config.Config
	Clock    *Clock
}

func NewAuthService(userRepo *repository.UserRepository, sessions SessionStore, cfg *config.Config, clock *Clock) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Sessions: sessions,
		Cfg:      cfg,
		Clock:    clock,
	}
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" || email == "" || in.Password == "" {
		return nil, util.NewValidationError("Username, email and password are required")
	}
	if !validEmail(email) {
		return nil, util.NewValidationError("Invalid email format")
	}
	if in.Password != in.ConfirmPassword {
		return nil, util.NewValidationError("Passwords do not match!")
	}
	if len(in.Password) < minPasswordLength {
		return nil, util.NewValidationError("Password must be at least 6 characters")
	}

	exists, err := s.UserRepo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, dbError(err, nil)
	}
	if exists {
		return nil, util.ErrAccountExists
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	now := s.Clock.Now()
	user := &model.User{
		Username:   username,
		Email:      email,
		Password:   hashed,
		IsActive:   true,
		JoinedDate: now,
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, dbError(err, nil)
	}
	return user, nil
}

type LoginResult struct {
	Token  string
	Claims *util.Claims
	User   *model.User
}

// Login 邮箱不存在与密码错误返回相同信息
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, util.NewValidationError("Email and password are required")
	}

	user, err := s.UserRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInvalidCredential
		}
		return nil, dbError(err, nil)
	}
	if !user.IsActive || !checkPassword(user.Password, password) {
		return nil, util.ErrInvalidCredential
	}

	token, claims, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	if err := s.UserRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, dbError(err, nil)
	}
	user.LastLogin = &now
	return &LoginResult{Token: token, Claims: claims, User: user}, nil
}

// Logout 令牌 ID 加入注销列表直到过期
func (s *AuthService) Logout(ctx context.Context, claims *util.Claims) error {
	if claims == nil {
		return nil
	}
	return s.Sessions.Revoke(ctx, claims.ID, claims.TTL(s.Clock.Now()))
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func checkPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
