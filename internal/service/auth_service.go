package service

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/Gagankhurana-12/Yatri-Kavach/internal/config"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/crypto"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenTTL    = 12 * time.Hour
	tokenIssuer = "sos-broadcast"
	guestName   = "anonymous"
)

var (
	errBadCredentials = errors.New("invalid username or password")
	errInvalidToken   = errors.New("invalid token")
)

// AuthService issues and checks the HS256 tokens that guard /admin.
type AuthService struct {
	enabled       bool
	username      string
	checkPassword func(string) bool
	secret        []byte
	now           func() time.Time
}

// Claims identifies the admin through the standard subject claim.
type Claims struct {
	jwt.RegisteredClaims
}

// NewAuthService builds AuthService from config. Without a configured secret
// a random one is generated, so tokens do not survive restarts.
func NewAuthService(cfg *config.Config, logger zerolog.Logger) (*AuthService, error) {
	a := &AuthService{
		enabled:       cfg.Auth.Enabled,
		username:      orDefault(cfg.Auth.Username, "admin"),
		checkPassword: passwordChecker(orDefault(cfg.Auth.Password, "admin123")),
		secret:        []byte(strings.TrimSpace(cfg.Auth.JWTSecret)),
		now:           time.Now,
	}
	if a.enabled && len(a.secret) == 0 {
		generated, err := crypto.GenerateSecret(32)
		if err != nil {
			return nil, err
		}
		a.secret = []byte(generated)
		logger.Warn().Msg("auth.jwt_secret not set, using a random per-process secret")
	}
	return a, nil
}

// Enabled reports whether authentication is enforced.
func (a *AuthService) Enabled() bool {
	return a != nil && a.enabled
}

// Username returns the configured admin name.
func (a *AuthService) Username() string {
	if a == nil {
		return ""
	}
	return a.username
}

// Authenticate checks the credentials and signs a token for the admin.
func (a *AuthService) Authenticate(username, password string) (string, error) {
	if !a.Enabled() {
		return "", nil
	}
	nameOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(a.username)) == 1
	// both checks always run
	passOK := a.checkPassword(password)
	if !nameOK || !passOK {
		return "", errBadCredentials
	}
	issued := a.now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   a.username,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(issued.Add(tokenTTL)),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Validate verifies signature, issuer and expiry. With auth disabled every
// caller is accepted as anonymous.
func (a *AuthService) Validate(token string) (*Claims, error) {
	if !a.Enabled() {
		return &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: guestName}}, nil
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}

// passwordChecker accepts either a bcrypt hash or a plain secret.
func passwordChecker(stored string) func(string) bool {
	if _, err := bcrypt.Cost([]byte(stored)); err == nil {
		hash := []byte(stored)
		return func(input string) bool {
			return bcrypt.CompareHashAndPassword(hash, []byte(input)) == nil
		}
	}
	return func(input string) bool {
		return subtle.ConstantTimeCompare([]byte(input), []byte(stored)) == 1
	}
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
