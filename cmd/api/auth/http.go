package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"edu-gen/cmd/internal/logger"
)

var (
	ErrMissingHeader = errors.New("missing_authorization_header")
	ErrInvalidFormat = errors.New("invalid_authorization_header")
	ErrEmptyToken    = errors.New("empty_token")
	ErrInvalidToken  = errors.New("invalid_token")
)

const (
	ctxKeyUserID = "user_id"
	ctxKeyRole   = "role"
)

// ExtractBearerToken extracts the Bearer token from the Authorization header.
func ExtractBearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", ErrMissingHeader
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrInvalidFormat
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// AbortWithUnauthorized aborts the request with 401 status and error JSON.
func AbortWithUnauthorized(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
}

// RequireUser 는 유효한 Bearer 토큰이 없으면 401 로 요청을 끝낸다.
func RequireUser(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := ExtractBearerToken(c)
		if err != nil {
			AbortWithUnauthorized(c, err)
			return
		}
		if !setUser(c, parser, token) {
			return
		}
		c.Next()
	}
}

// OptionalUser 는 헤더가 없으면 익명으로 통과시키고, 있는데 잘못됐으면 401 을 낸다.
func OptionalUser(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		token, err := ExtractBearerToken(c)
		if err != nil {
			AbortWithUnauthorized(c, err)
			return
		}
		if !setUser(c, parser, token) {
			return
		}
		c.Next()
	}
}

func setUser(c *gin.Context, parser TokenParser, token string) bool {
	userID, role, err := parser.Parse(token)
	if err != nil {
		logger.Log.Debugf("token parse error: %v", err)
		AbortWithUnauthorized(c, ErrInvalidToken)
		return false
	}
	c.Set(ctxKeyUserID, userID)
	c.Set(ctxKeyRole, role)
	return true
}

// UserID 는 RequireUser/OptionalUser 가 저장한 사용자 ID 를 반환한다. 익명이면 "".
func UserID(c *gin.Context) string {
	return c.GetString(ctxKeyUserID)
}

// Role 은 토큰의 role 클레임이다. 익명이면 "".
func Role(c *gin.Context) string {
	return c.GetString(ctxKeyRole)
}
