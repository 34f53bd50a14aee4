package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"note-vault/internal/config"
	"note-vault/internal/store"
	"note-vault/internal/utils/crypto"

	"github.com/golang-jwt/jwt/v5"
)

const claimUserID = "user_id"

// Service handles sign-up, sign-in and access token checks. Users are kept
// as documents in the users collection of the shared store.
type Service struct {
	store      store.Store
	collection string
	config     config.Config
	log        *slog.Logger
	now        func() time.Time
}

// NewService creates a new auth service
func NewService(st store.Store, collection string, cfg config.Config, log *slog.Logger) *Service {
	return &Service{
		store:      st,
		collection: collection,
		config:     cfg,
		log:        log,
		now:        time.Now,
	}
}

// SignUp registers a new user and signs them in.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)

	existing, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.log.Info("sign-up for existing email", "email", email)
		return nil, ErrRegistrationFailed
	}

	hash, err := crypto.HashPassword(req.Password, s.config.BcryptCost)
	if err != nil {
		s.log.Error("failed to hash password", "error", err)
		return nil, ErrRegistrationFailed
	}

	now := store.FormatTime(s.now())
	doc, err := s.store.Create(ctx, s.collection, "", store.Fields{
		fieldEmail:        email,
		fieldPasswordHash: hash,
		fieldCreatedAt:    now,
		fieldUpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateID) {
			return nil, ErrRegistrationFailed
		}
		s.log.Error("failed to create user", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUsersStore, err)
	}

	return s.respond(userFromDocument(doc))
}

// SignIn authenticates a user by email and password.
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := crypto.CheckPassword(req.Password, user.PasswordHash); err != nil {
		s.log.Info("password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	return s.respond(user)
}

// GetUser loads a user by id.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	doc, err := s.store.Get(ctx, s.collection, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrUsersStore, err)
	}
	return userFromDocument(doc), nil
}

// ParseToken validates an access token and returns the user id it carries.
func (s *Service) ParseToken(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	userID, ok := claims[claimUserID].(string)
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (*User, error) {
	docs, err := s.store.List(ctx, s.collection, store.Equal(fieldEmail, email))
	if err != nil {
		s.log.Error("failed to look up user", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUsersStore, err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return userFromDocument(docs[0]), nil
}

func (s *Service) respond(user *User) (*AuthResponse, error) {
	token, exp, err := s.generateJWT(user)
	if err != nil {
		s.log.Error(ErrGenAccessToken.Error(), "error", err, "user_id", user.ID)
		return nil, ErrGenAccessToken
	}
	return &AuthResponse{User: user, Token: token, ExpiresAt: exp}, nil
}

func (s *Service) generateJWT(user *User) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(time.Duration(s.config.AccessTokenMinutes) * time.Minute)
	claims := jwt.MapClaims{
		claimUserID: user.ID,
		"email":     user.Email,
		"exp":       exp.Unix(),
		"iat":       now.Unix(),
	}

	if strings.ToUpper(s.config.JWTAlgorithm) != "HS256" {
		return "", time.Time{}, errors.New("unsupported JWT algorithm")
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
