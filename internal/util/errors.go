package util

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindUnauthorized
	KindNotFound
	KindConflict
	KindTooManyRequests
	KindPersistence
)

// AppError 业务错误，Kind 决定 HTTP 状态码
type AppError struct {
	Kind    ErrorKind
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

func NewTooManyRequestsError(message string, details map[string]interface{}) *AppError {
	return &AppError{Kind: KindTooManyRequests, Message: message, Details: details}
}

// NewPersistenceError 包装数据库错误，对外只暴露通用信息
func NewPersistenceError(err error) *AppError {
	return &AppError{Kind: KindPersistence, Message: "Database error", Err: err}
}

// KindOf 未识别的错误按持久化错误处理
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindPersistence
}

var (
	ErrDeckNotFound      = NewNotFoundError("Deck not found or unauthorized")
	ErrCardNotFound      = NewNotFoundError("Card not found or unauthorized")
	ErrSessionNotFound   = NewNotFoundError("Session not found or unauthorized")
	ErrUserNotFound      = NewNotFoundError("User not found")
	ErrSessionCompleted  = NewValidationError("Session already completed")
	ErrInvalidCredential = NewUnauthorizedError("Invalid credentials")
	ErrIncorrectPassword = NewValidationError("Incorrect password")
	ErrUsernameTaken     = NewConflictError("Username already taken")
	ErrEmailTaken        = NewConflictError("Email already in use")
	ErrAccountExists     = NewConflictError("Username or Email already exists!")
	ErrNoFieldsToUpdate  = NewValidationError("No fields to update")
	ErrInvalidOTP        = NewValidationError("Invalid or expired OTP")
	ErrOTPExpired        = NewValidationError("OTP has expired")
	ErrInvalidResetToken = NewUnauthorizedError("Invalid or expired reset token")
)
