package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pribylovaa/sabha/internal/models"
	"github.com/pribylovaa/sabha/internal/pkg/log"
	"github.com/pribylovaa/sabha/internal/storage"
)

// AvatarUploadURLInput: запрос presigned PUT для аватара.
type AvatarUploadURLInput struct {
	UserID        uuid.UUID
	ContentType   string
	ContentLength int64
}

// ConfirmAvatarUploadInput: подтверждение загрузки по ключу объекта.
type ConfirmAvatarUploadInput struct {
	UserID    uuid.UUID
	AvatarKey string
}

// AvatarUploadURL генерирует presigned PUT URL для загрузки аватара в S3/MinIO.
//
// Валидация:
//   - userID обязателен; contentType не пустой; contentLength > 0;
//   - ограничения типа/размера проверяет слой storage.Avatars.
//
// Ошибки: ErrUnavailable (S3 не сконфигурирован), ErrInvalidArgument, ErrInternal.
func (s *Service) AvatarUploadURL(ctx context.Context, input AvatarUploadURLInput) (*storage.UploadInfo, error) {
	const op = "service/avatars/AvatarUploadURL"

	lg := log.From(ctx).With("op", op, "user_id", input.UserID.String())

	if s.avatars == nil {
		lg.Warn("avatars disabled")
		return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
	}

	if input.UserID == uuid.Nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	if strings.TrimSpace(input.ContentType) == "" || input.ContentLength <= 0 {
		lg.Warn("invalid argument for presign", "content_type", input.ContentType, "content_length", input.ContentLength)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	result, err := s.avatars.AvatarUploadURL(ctx, input.UserID, input.ContentType, input.ContentLength)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidArgument) {
			lg.Warn("validation failed in storage", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}

		lg.Error("storage error on AvatarUploadURL", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return result, nil
}

// ConfirmAvatarUpload проверяет загруженный объект и сохраняет ссылку на него в профиле.
//
// Процесс:
//  1. storage.Avatars проверяет ключ (принадлежность userID, наличие, тип, размер);
//  2. в users.image пишется публичный URL, а если он не сконфигурирован: ключ объекта.
//
// Ошибки: ErrUnavailable, ErrInvalidArgument, ErrNotFound, ErrInternal.
func (s *Service) ConfirmAvatarUpload(ctx context.Context, input ConfirmAvatarUploadInput) (*models.User, error) {
	const op = "service/avatars/ConfirmAvatarUpload"

	lg := log.From(ctx).With("op", op, "user_id", input.UserID.String(), "avatar_key", input.AvatarKey)

	if s.avatars == nil {
		lg.Warn("avatars disabled")
		return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
	}

	if input.UserID == uuid.Nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	input.AvatarKey = strings.TrimSpace(input.AvatarKey)
	if input.AvatarKey == "" {
		lg.Warn("invalid argument: empty avatar_key")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	publicURL, err := s.avatars.CheckAvatarUpload(ctx, input.UserID, input.AvatarKey)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidArgument):
			lg.Warn("avatar check failed", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		case errors.Is(err, storage.ErrNotFoundAvatar):
			lg.Warn("avatar object not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		default:
			lg.Error("storage error on CheckAvatarUpload", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	image := publicURL
	if image == "" {
		image = input.AvatarKey
	}

	if err := s.storage.SetUserImage(ctx, input.UserID, image); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("user not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on SetUserImage", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return s.Me(ctx, input.UserID)
}
