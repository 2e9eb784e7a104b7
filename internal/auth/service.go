package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"easybus/internal/shared/apperrors"
	"easybus/internal/shared/config"
	"easybus/internal/users"
	"easybus/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var validate = validator.New()

const (
	minPasswordLength = 8
	tokenTypeAccess   = "access"
)

type Service interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Me(ctx context.Context, userID uuid.UUID) (*UserResponse, error)
	ValidateToken(tokenString string) (*JWTClaims, error)

	// EnsureAdmin creates the admin account or resets its password
	EnsureAdmin(ctx context.Context, email, password string) (*UserResponse, error)
}

// JWTClaims are the claims of an access token
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

type service struct {
	repo       Repository
	config     *config.Config
	bcryptCost int
	log        *logger.Logger
	now        func() time.Time
}

func NewService(repo Repository, cfg *config.Config) Service {
	return &service{
		repo:       repo,
		config:     cfg,
		bcryptCost: bcrypt.DefaultCost,
		log:        logger.GetDefault().WithComponent("auth"),
		now:        time.Now,
	}
}

func (s *service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperrors.Validation("Password must be at least 8 characters")
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, apperrors.Internal("Failed to register user", err)
	}
	if exists {
		return nil, apperrors.Conflict("User with this email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to register user", err)
	}

	user := &users.User{
		Email:    email,
		Password: string(hashedPassword),
		Role:     users.RoleUser,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("User with this email already exists")
		}
		return nil, apperrors.Internal("Failed to register user", err)
	}

	return s.authResponse(user)
}

func (s *service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperrors.Unauthorized("Invalid email or password")
		}
		return nil, apperrors.Internal("Failed to login", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		s.log.WithUserID(user.ID.String()).WarnContext(ctx, "login rejected: password mismatch")
		return nil, apperrors.Unauthorized("Invalid email or password")
	}

	return s.authResponse(user)
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperrors.NotFound("User")
		}
		return nil, apperrors.Internal("Failed to fetch user", err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *service) EnsureAdmin(ctx context.Context, email, password string) (*UserResponse, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.Validation("Password must be at least 8 characters")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	admin := &users.User{Email: email, Password: string(hashedPassword)}
	if err := s.repo.UpsertAdmin(ctx, admin); err != nil {
		return nil, apperrors.Internal("Failed to save admin", err)
	}
	s.log.InfoContext(ctx, "admin account ready", "user_id", admin.ID.String())

	resp := toUserResponse(admin)
	return &resp, nil
}

func (s *service) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.config.JWT.Secret), nil
	})
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.Type != tokenTypeAccess {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}
	return claims, nil
}

func (s *service) authResponse(user *users.User) (*AuthResponse, error) {
	token, err := s.generateAccessToken(user)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue token", err)
	}
	return &AuthResponse{
		User:        toUserResponse(user),
		AccessToken: token,
		ExpiresIn:   int64(s.config.JWT.JWTExpiresIn.Seconds()),
	}, nil
}

func (s *service) generateAccessToken(user *users.User) (string, error) {
	now := s.now()
	claims := JWTClaims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   string(user.Role),
		Type:   tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.JWT.JWTExpiresIn)),
			Issuer:    s.config.JWT.Issuer,
			Subject:   user.ID.String(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWT.Secret))
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", apperrors.Validation("Email is required")
	}
	if err := validate.Var(email, "email"); err != nil {
		return "", apperrors.Validation("Invalid email address")
	}
	return email, nil
}
