package service

import (
	"context"
	"fmt"
	"memodeck_backend/internal/config"
	"memodeck_backend/pkg/logger"

	"go.uber.org/zap"
	gomail "gopkg.in/mail.v2"
)

// Mailer 发送密码重置验证码
type Mailer interface {
	SendOTP(ctx context.Context, to, otp string, validMinutes int) error
}

type SMTPMailer struct {
	Cfg *config.SMTPConfig
}

func NewSMTPMailer(cfg *config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{Cfg: cfg}
}

func (m *SMTPMailer) SendOTP(ctx context.Context, to, otp string, validMinutes int) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.Cfg.From, m.Cfg.FromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your MemoDeck password reset code")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Your password reset code is %s.\nIt expires in %d minutes. If you did not request a reset, ignore this email.",
		otp, validMinutes))
	msg.AddAlternative("text/html", fmt.Sprintf(
		"<p>Your password reset code is:</p><h2 style=\"letter-spacing:4px\">%s</h2><p>It expires in %d minutes.</p>",
		otp, validMinutes))

	dialer := gomail.NewDialer(m.Cfg.Host, m.Cfg.Port, m.Cfg.Username, m.Cfg.Password)
	dialer.StartTLSPolicy = gomail.MandatoryStartTLS

	done := make(chan error, 1)
	go func() { done <- dialer.DialAndSend(msg) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogMailer 未配置 SMTP 时只记录日志
type LogMailer struct{}

func (LogMailer) SendOTP(_ context.Context, to, _ string, validMinutes int) error {
	logger.Log.Info("SMTP disabled, OTP email not sent",
		zap.String("to", to),
		zap.Int("valid_minutes", validMinutes))
	return nil
}

func NewMailer(cfg *config.SMTPConfig) Mailer {
	if cfg == nil || !cfg.Enabled {
		return LogMailer{}
	}
	return NewSMTPMailer(cfg)
}
