package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gogs85/real-time-trading-dashboard/pkg/models"
)

var (
	ErrMissingCredentials = errors.New("username and password required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingToken       = errors.New("missing token")
	ErrInvalidToken       = errors.New("invalid token")
)

// Claims are carried inside a signed token.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type account struct {
	user     models.User
	password string
}

// Service issues and verifies HS256 tokens against an in-memory user
// table. There is no persistence; the demo account is recreated with a
// fresh ID on every start.
type Service struct {
	secret   []byte
	tokenTTL time.Duration
	users    map[string]account
}

func NewService(secret string, tokenTTL time.Duration) *Service {
	users := map[string]account{
		"demo": {
			user: models.User{
				ID:       uuid.NewString(),
				Username: "demo",
				Email:    "demo@example.com",
			},
			password: "demo123",
		},
	}

	return &Service{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		users:    users,
	}
}

// Login checks credentials and returns a signed token plus the public
// user record.
func (s *Service) Login(username, password string) (string, models.User, error) {
	if username == "" || password == "" {
		return "", models.User{}, ErrMissingCredentials
	}

	acct, ok := s.users[username]
	if !ok || acct.password != password {
		return "", models.User{}, ErrInvalidCredentials
	}

	now := time.Now()
	claims := Claims{
		UserID:   acct.user.ID,
		Username: acct.user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", models.User{}, fmt.Errorf("sign token: %w", err)
	}
	return token, acct.user, nil
}

// Verify validates a token and returns its claims. An empty token fails
// with ErrMissingToken before any parsing; everything else that does not
// verify (bad signature, malformed, expired) fails with ErrInvalidToken.
func (s *Service) Verify(token string) (Claims, error) {
	if token == "" {
		return Claims{}, ErrMissingToken
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header, or ""
// if the header is absent or not a bearer scheme.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// TokenFromRequest extracts a token from either the Authorization header
// or the token query parameter, for websocket handshakes.
func TokenFromRequest(r *http.Request) string {
	if token := BearerToken(r); token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}
