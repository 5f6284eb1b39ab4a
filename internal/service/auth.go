package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/templui/dashh/internal/model"
	"github.com/templui/dashh/internal/repository"
	"github.com/templui/dashh/internal/validation"
)

// Authenticator is the email/password boundary of the hosted backend.
type Authenticator interface {
	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) (*model.Session, error)
	Verify(session *model.Session) error
	Logout(ctx context.Context, session *model.Session) error
}

type AuthService struct {
	credentialRepository repository.CredentialRepository
	jwtSecret            string
	jwtExpiry            time.Duration
	now                  func() time.Time
}

func NewAuthService(credentialRepository repository.CredentialRepository, jwtSecret string, jwtExpiry time.Duration) *AuthService {
	return &AuthService{
		credentialRepository: credentialRepository,
		jwtSecret:            jwtSecret,
		jwtExpiry:            jwtExpiry,
		now:                  time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password string) error {
	email = validation.NormalizeEmail(email)

	err := validation.ValidateEmail(email)
	if err != nil {
		return invalid(err)
	}

	err = validation.ValidatePassword(password)
	if err != nil {
		return invalid(err)
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	credential := &model.Credential{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}

	err = s.credentialRepository.Create(ctx, credential)
	if err != nil {
		return fmt.Errorf("failed to create credential: %w", err)
	}

	return nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*model.Session, error) {
	email = validation.NormalizeEmail(email)

	credential, err := s.credentialRepository.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	err = s.ComparePassword(password, credential.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", ErrInvalidCredentials)
	}

	expiresAt := s.now().Add(s.jwtExpiry)
	token, err := s.GenerateJWT(credential, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	return &model.Session{
		ID:        credential.ID,
		Email:     credential.Email,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks that the session token is valid, unexpired and issued for
// the session's identity. It does not contact the backend.
func (s *AuthService) Verify(session *model.Session) error {
	if session == nil || session.Token == "" {
		return ErrNotAuthenticated
	}

	claims, err := s.VerifyJWT(session.Token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID != session.ID {
		return ErrNotAuthenticated
	}

	return nil
}

// Logout is local: session tokens are stateless.
func (s *AuthService) Logout(ctx context.Context, session *model.Session) error {
	if session == nil {
		return ErrNotAuthenticated
	}
	session.Token = ""
	return nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) GenerateJWT(credential *model.Credential, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"user_id": credential.ID,
		"email":   credential.Email,
		"exp":     expiresAt.Unix(),
		"iat":     s.now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (s *AuthService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
