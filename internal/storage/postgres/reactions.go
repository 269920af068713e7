package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pribylovaa/sabha/internal/models"
	"github.com/pribylovaa/sabha/internal/storage"
)

// ReactionByUser возвращает реакцию пользователя на пост.
func (s *Storage) ReactionByUser(ctx context.Context, postID, userID uuid.UUID) (*models.Reaction, error) {
	const op = "storage.postgres.ReactionByUser"

	var r models.Reaction
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, post_id, type, created_at, updated_at
		FROM reactions
		WHERE post_id = $1 AND user_id = $2
	`, postID, userID).Scan(&r.ID, &r.UserID, &r.PostID, &r.Type, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &r, nil
}

// AddReaction сохраняет новую реакцию.
func (s *Storage) AddReaction(ctx context.Context, reaction *models.Reaction) error {
	const op = "storage.postgres.AddReaction"

	_, err := s.db.Exec(ctx, `
		INSERT INTO reactions(id, user_id, post_id, type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, reaction.ID, reaction.UserID, reaction.PostID, string(reaction.Type), reaction.CreatedAt, reaction.UpdatedAt)
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

// UpdateReaction меняет тип реакции.
func (s *Storage) UpdateReaction(ctx context.Context, id uuid.UUID, typ models.ReactionType, now time.Time) error {
	const op = "storage.postgres.UpdateReaction"

	tag, err := s.db.Exec(ctx, `UPDATE reactions SET type = $2, updated_at = $3 WHERE id = $1`, id, string(typ), now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// DeleteReaction удаляет реакцию.
func (s *Storage) DeleteReaction(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.DeleteReaction"

	tag, err := s.db.Exec(ctx, `DELETE FROM reactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// ReactionSummary возвращает количество реакций каждого типа на пост.
// Типы без реакций в карту не попадают.
func (s *Storage) ReactionSummary(ctx context.Context, postID uuid.UUID) (map[models.ReactionType]int, error) {
	const op = "storage.postgres.ReactionSummary"

	rows, err := s.db.Query(ctx, `
		SELECT type, COUNT(*)
		FROM reactions
		WHERE post_id = $1
		GROUP BY type
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	summary := make(map[models.ReactionType]int)
	for rows.Next() {
		var (
			typ models.ReactionType
			n   int
		)
		if scanErr := rows.Scan(&typ, &n); scanErr != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, scanErr)
		}

		summary[typ] = n
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, rows.Err())
	}

	return summary, nil
}

// RecountVotes пересчитывает upvotes/downvotes поста по реакциям upvote/downvote.
// Значения всегда берутся из COUNT, а не инкрементируются.
func (s *Storage) RecountVotes(ctx context.Context, postID uuid.UUID) (int, int, error) {
	const op = "storage.postgres.RecountVotes"

	var up, down int
	err := s.db.QueryRow(ctx, `
		UPDATE posts
		SET upvotes = (SELECT COUNT(*) FROM reactions WHERE post_id = $1 AND type = 'upvote'),
			downvotes = (SELECT COUNT(*) FROM reactions WHERE post_id = $1 AND type = 'downvote')
		WHERE id = $1
		RETURNING upvotes, downvotes
	`, postID).Scan(&up, &down)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	return up, down, nil
}
