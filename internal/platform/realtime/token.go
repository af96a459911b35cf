package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/worktrack/internal/platform/logger"
)

// Token verification errors
var (
	ErrMissingToken = errors.New("authentication token is missing")
	ErrInvalidToken = errors.New("invalid authentication token")
	ErrExpiredToken = errors.New("authentication token has expired")
)

// minSecretLength matches the configuration validation for auth.jwt_secret.
const minSecretLength = 32

// TokenVerifier validates the HS256 tokens issued by the main API and
// extracts the user they were issued to.
type TokenVerifier struct {
	signingKey []byte
	clockSkew  time.Duration
	timeFunc   func() time.Time
}

// NewTokenVerifier creates a verifier for tokens signed with secret.
func NewTokenVerifier(secret string) (*TokenVerifier, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", minSecretLength)
	}
	return &TokenVerifier{
		signingKey: []byte(secret),
		clockSkew:  2 * time.Minute,
		timeFunc:   time.Now,
	}, nil
}

// Verify returns the user ID carried in the token's subject.
func (v *TokenVerifier) Verify(ctx context.Context, tokenString string) (uuid.UUID, error) {
	if tokenString == "" {
		return uuid.Nil, ErrMissingToken
	}
	log := logger.FromContext(ctx)

	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return v.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(v.clockSkew),
		jwt.WithTimeFunc(v.timeFunc),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			log.Debug("websocket token expired")
			return uuid.Nil, ErrExpiredToken
		}
		log.Debug("websocket token rejected", slog.String("error", err.Error()))
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		log.Debug("websocket token has no usable subject")
		return uuid.Nil, ErrInvalidToken
	}
	return userID, nil
}
