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

const commentColumns = `
	c.id, c.post_id, c.author_id, u.name, COALESCE(u.image, ''), c.parent_id,
	c.content, c.upvotes, c.downvotes, c.created_at, c.updated_at`

func scanComment(row pgx.Row) (models.Comment, error) {
	var c models.Comment
	err := row.Scan(
		&c.ID,
		&c.PostID,
		&c.AuthorID,
		&c.AuthorName,
		&c.AuthorImage,
		&c.ParentID,
		&c.Content,
		&c.Upvotes,
		&c.Downvotes,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return models.Comment{}, err
	}

	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()

	return c, nil
}

// CreateComment вставляет комментарий одной командой.
// Проверка родителя выполняется в том же INSERT ... SELECT: если parent_id задан,
// но такого комментария в этом посте нет, ни одна строка не вставляется.
func (s *Storage) CreateComment(ctx context.Context, comment *models.Comment) error {
	const op = "storage.postgres.CreateComment"

	query := `
		INSERT INTO comments(id, post_id, author_id, parent_id, content, upvotes, downvotes, created_at, updated_at)
		SELECT $1::uuid, $2::uuid, $3::uuid, $4::uuid, $5::text, $6::int, $7::int, $8::timestamptz, $9::timestamptz
		WHERE $4::uuid IS NULL
			OR EXISTS (SELECT 1 FROM comments WHERE id = $4::uuid AND post_id = $2)
	`

	tag, err := s.db.Exec(ctx, query,
		comment.ID,
		comment.PostID,
		comment.AuthorID,
		comment.ParentID,
		comment.Content,
		comment.Upvotes,
		comment.Downvotes,
		comment.CreatedAt,
		comment.UpdatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		case isForeignKeyViolation(err):
			return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrParentNotFound)
	}

	return nil
}

// CommentByID возвращает комментарий с данными автора.
func (s *Storage) CommentByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	const op = "storage.postgres.CommentByID"

	c, err := scanComment(s.db.QueryRow(ctx, `
		SELECT `+commentColumns+`
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &c, nil
}

// ListComments возвращает все комментарии поста, новые первыми.
func (s *Storage) ListComments(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	const op = "storage.postgres.ListComments"

	items, err := s.queryComments(ctx, `
		SELECT `+commentColumns+`
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at DESC, c.id DESC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

// RecentComments возвращает не более limit последних комментариев поста.
func (s *Storage) RecentComments(ctx context.Context, postID uuid.UUID, limit int) ([]models.Comment, error) {
	const op = "storage.postgres.RecentComments"

	if limit <= 0 {
		return []models.Comment{}, nil
	}

	items, err := s.queryComments(ctx, `
		SELECT `+commentColumns+`
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $2
	`, postID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

func (s *Storage) queryComments(ctx context.Context, query string, args ...any) ([]models.Comment, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.Comment, 0)
	for rows.Next() {
		c, scanErr := scanComment(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan row: %w", scanErr)
		}

		items = append(items, c)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("rows: %w", rows.Err())
	}

	return items, nil
}

// CountComments считает комментарии поста.
func (s *Storage) CountComments(ctx context.Context, postID uuid.UUID) (int, error) {
	const op = "storage.postgres.CountComments"

	var n int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE post_id = $1`, postID).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

// SetCommentCount записывает значение денормализованного счётчика.
func (s *Storage) SetCommentCount(ctx context.Context, postID uuid.UUID, n int) error {
	const op = "storage.postgres.SetCommentCount"

	tag, err := s.db.Exec(ctx, `UPDATE posts SET comment_count = $2 WHERE id = $1`, postID, n)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// DeleteComment удаляет комментарий; ответы на него удаляются каскадом.
func (s *Storage) DeleteComment(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.DeleteComment"

	tag, err := s.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
