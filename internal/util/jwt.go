package util

import (
	"errors"
	"memodeck_backend/internal/model"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenPurposeSession = "session"
	TokenPurposeReset   = "reset"
)

type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Purpose  string `json:"purpose"`
	jwt.RegisteredClaims
}

// TTL 距离过期的剩余时间
func (c *Claims) TTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Time.Sub(now)
}

func GenerateJWT(user *model.User, secret string, expiration time.Duration) (string, *Claims, error) {
	return sign(&Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Purpose:  TokenPurposeSession,
	}, secret, expiration)
}

// GenerateResetToken 验证码校验通过后签发的短期重置令牌
func GenerateResetToken(user *model.User, secret string, expiration time.Duration) (string, error) {
	token, _, err := sign(&Claims{
		UserID:  user.ID,
		Email:   user.Email,
		Purpose: TokenPurposeReset,
	}, secret, expiration)
	return token, err
}

func sign(claims *Claims, secret string, expiration time.Duration) (string, *Claims, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

func ParseJWT(tokenString, secret, purpose string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Purpose != purpose {
		return nil, errors.New("unexpected token purpose")
	}
	return claims, nil
}

func GetUserFromContext(c *gin.Context) *Claims {
	user, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := user.(*Claims)
	if !ok {
		return nil
	}
	return claims
}
