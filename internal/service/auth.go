package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/pribylovaa/sabha/internal/models"
	"github.com/pribylovaa/sabha/internal/pkg/log"
	"github.com/pribylovaa/sabha/internal/pkg/redact"
	"github.com/pribylovaa/sabha/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// RegisterUser регистрирует нового пользователя и сразу выдаёт пару токенов.
func (s *Service) RegisterUser(ctx context.Context, name, email, password string) (*models.TokenPair, uuid.UUID, error) {
	const op = "service/auth/RegisterUser"

	lg := log.From(ctx).With("op", op)

	name = strings.TrimSpace(name)
	if name == "" {
		lg.Warn("invalid argument: empty name")
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	normEmail, err := validateEmail(email)
	if err != nil {
		lg.Warn("invalid argument: bad email", "email", redact.Email(email))
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if err := validatePassword(password); err != nil {
		lg.Warn("invalid argument: weak password")
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.storage.UserByEmail(ctx, normEmail)
	if err == nil {
		lg.Warn("email taken", "email", redact.Email(normEmail))
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		lg.Error("storage error on UserByEmail", "err", err)
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		lg.Error("hash password failed", "err", err)
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        normEmail,
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			lg.Warn("email taken", "email", redact.Email(normEmail))
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		lg.Error("storage error on SaveUser", "err", err)
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return s.issueTokenPair(ctx, user, "")
}

// LoginUser выполняет вход по email+пароль.
func (s *Service) LoginUser(ctx context.Context, email, password string) (*models.TokenPair, uuid.UUID, error) {
	const op = "service/auth/LoginUser"

	lg := log.From(ctx).With("op", op)

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if len(password) == 0 {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("login for unknown email", "email", redact.Email(normEmail))
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		lg.Error("storage error on UserByEmail", "err", err)
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if !checkPassword(user.PasswordHash, password) {
		lg.Warn("password mismatch", "user_id", user.ID.String())
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	return s.issueTokenPair(ctx, user, "")
}

// RefreshToken обновляет пару токенов; старый refresh-токен отзывается (ротация).
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenPair, uuid.UUID, error) {
	const op = "service/auth/RefreshToken"

	token, err := s.validateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.From(ctx).Warn("refresh for deleted user", "op", op, "token", redact.Token(refreshToken))
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		log.From(ctx).Error("storage error on UserByID", "op", op, "err", err)
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return s.issueTokenPair(ctx, user, hashRefresh(refreshToken))
}

// RevokeToken отзывает refresh-токен.
func (s *Service) RevokeToken(ctx context.Context, refreshToken string) error {
	const op = "service/auth/RevokeToken"

	if strings.TrimSpace(refreshToken) == "" {
		return fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if err := s.revokeRefresh(ctx, hashRefresh(refreshToken)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ValidateToken проверяет access-токен и возвращает данные пользователя.
func (s *Service) ValidateToken(ctx context.Context, accessToken string) (uuid.UUID, string, error) {
	const op = "service/auth/ValidateToken"

	uid, email, err := s.validateAccessToken(accessToken)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("%s: %w", op, err)
	}

	return uid, email, nil
}

// Me возвращает профиль текущего пользователя.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	const op = "service/auth/Me"

	lg := log.From(ctx).With("op", op, "user_id", userID.String())

	if userID == uuid.Nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("user not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on UserByID", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return user, nil
}

// hashPassword хэширует пароль с помощью bcrypt.
func hashPassword(password string) (string, error) {
	const op = "service/auth/hashPassword"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// hashRefresh: sha256(plain) в base64url; в БД и кэше хранится только хэш.
func hashRefresh(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// validateEmail проверяет базовый формат email, обрезает пробелы и приводит к нижнему регистру.
func validateEmail(raw string) (string, error) {
	const op = "service/auth/validateEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	return strings.ToLower(email), nil
}

// validatePassword проверяет минимальные требования к паролю.
// Политика: длина >= 8, хотя бы одна строчная, заглавная, цифра и спецсимвол.
func validatePassword(pw string) error {
	const op = "service/auth/validatePassword"

	if len(pw) == 0 {
		return fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	if len([]rune(pw)) < 8 {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if !(hasLower && hasUpper && hasDigit && hasSpecial) {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	return nil
}

// issueTokenPair выпускает новую пару access+refresh токенов.
// Если oldRefreshHash != "", старый refresh-токен сначала отзывается.
func (s *Service) issueTokenPair(ctx context.Context, user *models.User, oldRefreshHash string) (*models.TokenPair, uuid.UUID, error) {
	const op = "service/auth/issueTokenPair"

	now := time.Now().UTC()

	accessToken, err := s.generateAccessToken(ctx, user.ID, user.Email, now)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if oldRefreshHash != "" {
		if err := s.revokeRefresh(ctx, oldRefreshHash); err != nil {
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	plain, err := s.generateRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    plain,
		AccessExpiresAt: now.Add(s.cfg.Auth.AccessTokenTTL),
	}, user.ID, nil
}
