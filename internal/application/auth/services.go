// Package auth implements account signup, login and profile lookup.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bryanwahyu/seoscan/internal/application"
	"github.com/bryanwahyu/seoscan/internal/domain/users"
	"github.com/bryanwahyu/seoscan/internal/logger"
)

var (
	// ErrInvalidCredentials is returned for an unknown email and a wrong
	// password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when signing up with a registered email.
	ErrEmailTaken = errors.New("email already registered")
)

// TokenIssuer mints a session token for a user.
type TokenIssuer interface {
	Issue(userID, email string) (token string, expiresAt time.Time, err error)
}

// Session is what a successful signup or login hands back to the caller.
type Session struct {
	User      *users.User
	Token     string
	ExpiresAt time.Time
}

type Service struct {
	Users  users.Repository
	Tokens TokenIssuer
	Clock  application.Clock
	Logger logger.Logger
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int

	dummyOnce sync.Once
	dummyHash []byte
}

// Signup registers email with password and opens a session. Inputs are
// expected to be validated already; email is normalised again here.
func (s *Service) Signup(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost())
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &users.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log().Info("user signed up", logger.String("user_id", u.ID))
	return s.open(u)
}

// Login checks the password and opens a session. Unknown emails still pay
// for one bcrypt comparison so response timing does not reveal them.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.open(u)
}

// Profile returns the user behind a session.
func (s *Service) Profile(ctx context.Context, userID string) (*users.User, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if errors.Is(err, users.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	return u, err
}

func (s *Service) open(u *users.User) (*Session, error) {
	token, exp, err := s.Tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{User: u, Token: token, ExpiresAt: exp}, nil
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost())
	})
	return s.dummyHash
}

func (s *Service) cost() int {
	if s.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return s.Cost
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now()
}

func (s *Service) log() logger.Logger {
	if s.Logger == nil {
		return logger.NewNop()
	}
	return s.Logger
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
