// service содержит бизнес-логику sabha: аутентификацию, обращения (посты),
// комментарии с модерацией, реакции, официальных лиц, теги, справочники,
// аватары и AI-подсказки.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; экземпляр безопасен для конкурентного
//     использования, если переданные хранилище и классификатор потокобезопасны.
//   - Ошибки стораджа транслируются в сервисные; транспорт маппит их на HTTP-коды
//     (см. internal/errors).
//   - Отказы классификатора не являются ошибками сервиса: их поглощает internal/insights.
package service

import (
	"errors"
	"fmt"

	"github.com/pribylovaa/sabha/internal/cache"
	"github.com/pribylovaa/sabha/internal/config"
	"github.com/pribylovaa/sabha/internal/insights"
	"github.com/pribylovaa/sabha/internal/storage"
)

var (
	// ErrInvalidArgument: неверные входные параметры (HTTP 400).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnauthenticated: запрос без валидной идентичности (HTTP 401).
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden: действие доступно только владельцу (HTTP 403).
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound: сущность отсутствует (HTTP 404).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists: конфликт уникальности (HTTP 409).
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidCursor: битый page_token (HTTP 400).
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrParentNotFound: родительский комментарий не найден в этом посте (HTTP 404).
	ErrParentNotFound = errors.New("parent comment not found")
	// ErrNotEnoughComments: для анализа обсуждения нужно минимум два комментария (HTTP 412).
	ErrNotEnoughComments = errors.New("not enough comments to analyze")
	// ErrContentRejected: комментарий отклонён модерацией (HTTP 400, с reason/suggestion).
	ErrContentRejected = errors.New("content rejected by moderation")
	// ErrUnavailable: функциональность отключена конфигурацией (HTTP 503).
	ErrUnavailable = errors.New("unavailable")
	// ErrInternal: ошибка стораджа/БД (HTTP 500).
	ErrInternal = errors.New("internal")

	// ErrInvalidCredentials: пара логин/пароль неверна или пользователь не найден (HTTP 401).
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken: токен некорректен по формату/подписи или отсутствует (HTTP 401).
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired: срок действия токена истёк (HTTP 401).
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked: токен отозван (HTTP 401).
	ErrTokenRevoked = errors.New("token revoked")
	// ErrEmailTaken: e-mail уже занят (HTTP 409).
	ErrEmailTaken = errors.New("email already taken")
	// ErrRefreshTokenCollision: исчерпаны попытки сгенерировать уникальный refresh-токен (HTTP 500).
	ErrRefreshTokenCollision = errors.New("refresh token collision")
	// ErrInvalidEmail: e-mail некорректен (HTTP 400).
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrWeakPassword: пароль не удовлетворяет политике сложности (HTTP 400).
	ErrWeakPassword = errors.New("password is too weak")
	// ErrEmptyPassword: пароль пустой (HTTP 400).
	ErrEmptyPassword = errors.New("password is empty")
)

// RejectedError: отказ модерации. Несёт объяснение для пользователя
// и оборачивает ErrContentRejected.
type RejectedError struct {
	Reason     string
	Suggestion string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrContentRejected, e.Reason)
}

func (e *RejectedError) Unwrap() error { return ErrContentRejected }

// Service описывает бизнес-логику sabha.
type Service struct {
	storage  storage.Storage
	insights *insights.Engine
	cfg      config.Config
	avatars  storage.Avatars    // nil, если S3 не сконфигурирован
	rcache   cache.RefreshCache // nil, если Redis не сконфигурирован
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, engine *insights.Engine, cfg config.Config) *Service {
	return &Service{
		storage:  storage,
		insights: engine,
		cfg:      cfg,
	}
}

// SetRefreshCache устанавливает кэш refresh-токенов (опционально).
func (s *Service) SetRefreshCache(c cache.RefreshCache) {
	s.rcache = c
}

// SetAvatars подключает объектное хранилище аватаров (опционально).
func (s *Service) SetAvatars(a storage.Avatars) {
	s.avatars = a
}
