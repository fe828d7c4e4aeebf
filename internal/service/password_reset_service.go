package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"memodeck_backend/internal/config"
	"memodeck_backend/internal/model"
	"memodeck_backend/internal/repository"
	"memodeck_backend/internal/util"
	"memodeck_backend/pkg/logger"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	otpDigits   = 6
	otpValidFor = 10 * time.Minute

	MsgOTPSent       = "If your email is registered, an OTP has been sent."
	MsgPasswordReset = "Password updated"
)

type PasswordResetService struct {
	UserRepo *repository.UserRepository
	OTPRepo  *repository.OTPRepository
	Mailer   Mailer
	Cfg      *config.Config
	Clock    *Clock
}

func NewPasswordResetService(
	userRepo *repository.UserRepository,
	otpRepo *repository.OTPRepository,
	mailer Mailer,
	cfg *config.Config,
	clock *Clock,
) *PasswordResetService {
	return &PasswordResetService{
		UserRepo: userRepo,
		OTPRepo:  otpRepo,
		Mailer:   mailer,
		Cfg:      cfg,
		Clock:    clock,
	}
}

// findActiveUser 未注册或已停用返回 nil，不报错
func (s *PasswordResetService) findActiveUser(ctx context.Context, email string) (*model.User, error) {
	user, err := s.UserRepo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(err, nil)
	}
	if !user.IsActive {
		return nil, nil
	}
	return user, nil
}

// SendOTP 邮箱不存在时同样返回成功，防止账号枚举
func (s *PasswordResetService) SendOTP(ctx context.Context, email string, resend bool) error {
	email = strings.TrimSpace(email)
	if email == "" || !validEmail(email) {
		return util.NewValidationError("Valid email is required")
	}

	user, err := s.findActiveUser(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		logger.Log.Info("OTP requested for unknown or inactive email")
		return nil
	}

	now := s.Clock.Now()
	existing, err := s.OTPRepo.FindActive(ctx, user.ID, now)
	switch {
	case err == nil && !resend:
		minutes := int(math.Ceil(existing.ExpiresAt.Sub(now).Minutes()))
		return util.NewTooManyRequestsError(
			fmt.Sprintf("An OTP was already sent. Please check your email or wait %d minutes.", minutes),
			map[string]interface{}{"can_resend": true, "expires_in": minutes},
		)
	case err == nil && resend:
		if err := s.OTPRepo.InvalidateAll(ctx, user.ID); err != nil {
			return dbError(err, nil)
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return dbError(err, nil)
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}
	otp := &model.PasswordResetOTP{
		UserID:    user.ID,
		OTP:       code,
		ExpiresAt: now.Add(otpValidFor),
	}
	if err := s.OTPRepo.Create(ctx, otp); err != nil {
		return dbError(err, nil)
	}

	// 邮件发送失败只记录，不影响返回结果
	if err := s.Mailer.SendOTP(ctx, user.Email, code, int(otpValidFor/time.Minute)); err != nil {
		logger.Log.Error("Failed to send OTP email", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	return nil
}

// VerifyOTP 校验成功后返回短期重置令牌
func (s *PasswordResetService) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if email == "" || len(code) != otpDigits {
		return "", util.NewValidationError("Invalid input")
	}

	user, err := s.findActiveUser(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", util.NewValidationError("Invalid email or account not active")
	}

	otp, err := s.OTPRepo.FindUnused(ctx, user.ID, code)
	if err != nil {
		return "", dbError(err, util.ErrInvalidOTP)
	}
	if err := s.OTPRepo.MarkUsed(ctx, otp.ID); err != nil {
		return "", dbError(err, nil)
	}
	if !otp.ExpiresAt.After(s.Clock.Now()) {
		return "", util.ErrOTPExpired
	}

	return util.GenerateResetToken(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ResetExpire)
}

// ResetPassword 令牌必须由 VerifyOTP 为同一邮箱签发
func (s *PasswordResetService) ResetPassword(ctx context.Context, resetToken, email, newPassword string) error {
	email = strings.TrimSpace(email)
	if email == "" || !validEmail(email) {
		return util.NewValidationError("Valid email required")
	}
	if len(newPassword) < minPasswordLength {
		return util.NewValidationError("Password must be at least 6 characters")
	}

	claims, err := util.ParseJWT(resetToken, s.Cfg.JWT.Secret, util.TokenPurposeReset)
	if err != nil || !strings.EqualFold(claims.Email, email) {
		return util.ErrInvalidResetToken
	}

	user, err := s.findActiveUser(ctx, email)
	if err != nil {
		return err
	}
	if user == nil || user.ID != claims.UserID {
		return nil
	}

	hashed, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.UserRepo.UpdateFields(ctx, user.ID, map[string]interface{}{"password": hashed}); err != nil {
		return dbError(err, nil)
	}
	return dbError(s.OTPRepo.InvalidateAll(ctx, user.ID), nil)
}

// PurgeStale 定时任务调用
func (s *PasswordResetService) PurgeStale(ctx context.Context) (int64, error) {
	return s.OTPRepo.PurgeStale(ctx, s.Clock.Now())
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(math.Pow10(otpDigits))))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
