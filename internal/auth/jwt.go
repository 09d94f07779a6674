// Package auth выпускает и проверяет JWT сессий.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	jwt "github.com/golang-jwt/jwt/v5"
)

const issuer = "appointment_bot"

type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// JWT подписывает токены HS256 общим секретом
type JWT struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWT(secret string, ttl time.Duration) (*JWT, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("jwt ttl must be positive, got %s", ttl)
	}
	return &JWT{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue выпускает токен для пользователя
func (j *JWT) Issue(principal *model.Principal) (string, time.Time, error) {
	now := j.now()
	expiresAt := now.Add(j.ttl)

	claims := Claims{
		Name:  principal.Name,
		Email: principal.Email,
		Role:  string(principal.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UserID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Parse проверяет подпись и срок действия; любая ошибка -> model.ErrUnauthenticated
func (j *JWT) Parse(token string) (*model.Principal, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUnauthenticated, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid token", model.ErrUnauthenticated)
	}

	role, err := model.ParseRole(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUnauthenticated, err)
	}

	return &model.Principal{
		UserID: claims.Subject,
		Name:   claims.Name,
		Email:  claims.Email,
		Role:   role,
	}, nil
}
