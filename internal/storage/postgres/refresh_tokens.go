package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pribylovaa/sabha/internal/models"
	"github.com/pribylovaa/sabha/internal/storage"
)

const refreshColumns = `token_hash, user_id, created_at, expires_at, revoked`

// SaveRefreshToken сохраняет хэш нового refresh-токена.
// Повтор хэша: ErrAlreadyExists; пользователь уже удалён: ErrNotFound.
func (s *Storage) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	const op = "storage.postgres.SaveRefreshToken"

	_, err := s.db.Exec(ctx,
		`INSERT INTO refresh_tokens(`+refreshColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		token.RefreshTokenHash, token.UserID, token.CreatedAt, token.ExpiresAt, token.Revoked,
	)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// RefreshTokenByHash находит refresh-токен по хэшу.
func (s *Storage) RefreshTokenByHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	const op = "storage.postgres.RefreshTokenByHash"

	var token models.RefreshToken
	err := s.db.QueryRow(ctx,
		`SELECT `+refreshColumns+` FROM refresh_tokens WHERE token_hash = $1`, hash,
	).Scan(&token.RefreshTokenHash, &token.UserID, &token.CreatedAt, &token.ExpiresAt, &token.Revoked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &token, nil
}

// RevokeRefreshToken отзывает токен одной командой.
// Внешний SELECT видит снимок до UPDATE, поэтому exists верен и для только что отозванного токена.
//
//	(true, nil) : токен был активен и отозван сейчас;
//	(false, nil): токен уже был отозван (повторный logout или гонка двух refresh);
//	(false, ErrNotFound): токена нет.
func (s *Storage) RevokeRefreshToken(ctx context.Context, hash string) (bool, error) {
	const op = "storage.postgres.RevokeRefreshToken"

	const query = `
		WITH upd AS (
			UPDATE refresh_tokens
			SET revoked = TRUE
			WHERE token_hash = $1 AND revoked = FALSE
			RETURNING token_hash
		)
		SELECT
			EXISTS (SELECT 1 FROM upd),
			EXISTS (SELECT 1 FROM refresh_tokens WHERE token_hash = $1)
	`

	var revokedNow, exists bool
	if err := s.db.QueryRow(ctx, query, hash).Scan(&revokedNow, &exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if !exists {
		return false, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return revokedNow, nil
}

// DeleteExpiredTokens удаляет токены с истёкшим сроком (отозванные тоже)
// и возвращает число удалённых строк.
func (s *Storage) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.postgres.DeleteExpiredTokens"

	tag, err := s.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected(), nil
}
