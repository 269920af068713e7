package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pribylovaa/sabha/internal/models"
	"github.com/pribylovaa/sabha/internal/storage"
)

// ListTags возвращает теги поста в порядке добавления.
// Для тегов-ссылок на официальных лиц заполняется краткая карточка Official.
func (s *Storage) ListTags(ctx context.Context, postID uuid.UUID) ([]models.Tag, error) {
	const op = "storage.postgres.ListTags"

	rows, err := s.db.Query(ctx, `
		SELECT t.id, t.post_id, t.official_id, COALESCE(t.custom_tag, ''), t.created_at,
			o.name, o.title, o.organization, o.governance_level::text, o.is_verified
		FROM post_tags t
		LEFT JOIN officials o ON o.id = t.official_id
		WHERE t.post_id = $1
		ORDER BY t.created_at, t.id
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := make([]models.Tag, 0)
	for rows.Next() {
		var (
			t                       models.Tag
			name, title, org, level *string
			verified                *bool
		)
		if scanErr := rows.Scan(
			&t.ID, &t.PostID, &t.OfficialID, &t.CustomTag, &t.CreatedAt,
			&name, &title, &org, &level, &verified,
		); scanErr != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, scanErr)
		}

		if t.OfficialID != nil && name != nil {
			t.Official = &models.Official{
				ID:           *t.OfficialID,
				Name:         *name,
				Title:        deref(title),
				Organization: deref(org),
				Governance:   models.Governance(deref(level)),
				IsVerified:   verified != nil && *verified,
			}
		}

		items = append(items, t)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, rows.Err())
	}

	return items, nil
}

// AddTag сохраняет тег. Повтор того же официального лица или того же
// произвольного тега (без учёта регистра) в посте: storage.ErrAlreadyExists.
func (s *Storage) AddTag(ctx context.Context, tag *models.Tag) error {
	const op = "storage.postgres.AddTag"

	_, err := s.db.Exec(ctx, `
		INSERT INTO post_tags(id, post_id, official_id, custom_tag, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
	`, tag.ID, tag.PostID, tag.OfficialID, tag.CustomTag, tag.CreatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		case isForeignKeyViolation(err):
			return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// TagByID возвращает тег без данных официального лица.
func (s *Storage) TagByID(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	const op = "storage.postgres.TagByID"

	var t models.Tag
	err := s.db.QueryRow(ctx, `
		SELECT id, post_id, official_id, COALESCE(custom_tag, ''), created_at
		FROM post_tags
		WHERE id = $1
	`, id).Scan(&t.ID, &t.PostID, &t.OfficialID, &t.CustomTag, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &t, nil
}

// DeleteTag удаляет тег.
func (s *Storage) DeleteTag(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.DeleteTag"

	tag, err := s.db.Exec(ctx, `DELETE FROM post_tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
