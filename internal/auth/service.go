// Package auth implements signup, login and stateless token verification.
// Passwords are stored as bcrypt hashes; tokens are HS256 JWTs.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/paper-trader/internal/cache"
	"github.com/example/paper-trader/internal/models"
	"github.com/example/paper-trader/internal/store"
)

var (
	ErrMissingFields      = errors.New("missing fields")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

type Store interface {
	Read(name string, out any) error
	Write(name string, v any) error
}

// PortfolioCreator provisions the empty portfolio that every new user gets.
type PortfolioCreator interface {
	CreatePortfolio(userID string, startingCash decimal.Decimal) error
}

type Service struct {
	store        Store
	portfolios   PortfolioCreator
	logger       *zap.Logger
	claims       *cache.ClaimsCache
	secret       []byte
	tokenTTL     time.Duration
	startingCash decimal.Decimal

	mu  sync.Mutex
	now func() time.Time
}

func New(store Store, portfolios PortfolioCreator, claims *cache.ClaimsCache, logger *zap.Logger, secret string, tokenTTL time.Duration, startingCash decimal.Decimal) *Service {
	return &Service{
		store:        store,
		portfolios:   portfolios,
		logger:       logger,
		claims:       claims,
		secret:       []byte(secret),
		tokenTTL:     tokenTTL,
		startingCash: startingCash,
		now:          time.Now,
	}
}

// Signup registers a user, provisions their portfolio, and returns a signed
// token plus the public user record.
//
// The user and portfolio writes are two separate whole-collection persists
// with no atomicity across them: a crash or write failure in between leaves
// a registered user without a portfolio, and their portfolio reads 404 until
// the record is repaired. Accepted demo-grade limitation, same as the order
// engine's portfolio/transaction split.
func (s *Service) Signup(name, email, password string) (string, models.PublicUser, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return "", models.PublicUser{}, ErrMissingFields
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var users []models.User
	if err := s.store.Read(store.Users, &users); err != nil {
		return "", models.PublicUser{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return "", models.PublicUser{}, ErrEmailTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", models.PublicUser{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	users = append(users, user)
	if err := s.store.Write(store.Users, users); err != nil {
		return "", models.PublicUser{}, err
	}

	if err := s.portfolios.CreatePortfolio(user.ID, s.startingCash); err != nil {
		return "", models.PublicUser{}, fmt.Errorf("create portfolio: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", models.PublicUser{}, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return token, user.Public(), nil
}

// Login checks credentials and returns a fresh token.
func (s *Service) Login(email, password string) (string, models.PublicUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var users []models.User
	if err := s.store.Read(store.Users, &users); err != nil {
		return "", models.PublicUser{}, err
	}
	for _, u := range users {
		if !strings.EqualFold(u.Email, email) {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
			return "", models.PublicUser{}, ErrInvalidCredentials
		}
		token, err := s.issueToken(u)
		if err != nil {
			return "", models.PublicUser{}, err
		}
		return token, u.Public(), nil
	}
	return "", models.PublicUser{}, ErrInvalidCredentials
}

// VerifyToken returns the user ID carried by a valid token. Verified tokens
// are cached until they expire.
func (s *Service) VerifyToken(token string) (string, error) {
	if s.claims != nil {
		if userID, ok := s.claims.Get(token); ok {
			return userID, nil
		}
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	userID, _ := claims["userId"].(string)
	if userID == "" {
		return "", ErrInvalidToken
	}

	if s.claims != nil {
		s.claims.Set(token, userID)
	}
	return userID, nil
}

func (s *Service) issueToken(u models.User) (string, error) {
	now := s.now().UTC()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": u.ID,
		"email":  u.Email,
		"iat":    now.Unix(),
		"exp":    now.Add(s.tokenTTL).Unix(),
	})
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
