package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/sabha/internal/models"
	"github.com/pribylovaa/sabha/internal/pkg/log"
	"github.com/pribylovaa/sabha/internal/pkg/redact"
	"github.com/pribylovaa/sabha/internal/storage"
)

// CreateCommentInput: создание комментария или ответа.
// Правила:
//   - обязательны PostID, AuthorID и непустой (после TrimSpace) Content;
//   - ParentID опционален; если задан, родитель должен принадлежать тому же посту.
type CreateCommentInput struct {
	PostID   uuid.UUID
	AuthorID uuid.UUID
	ParentID *uuid.UUID
	Content  string
}

// CreateComment: модерируемое создание комментария.
//
// Порядок строго последовательный:
//  1. валидация входа (до любых внешних вызовов);
//  2. пост должен существовать;
//  3. модерация; отказ -> *RejectedError, ничего не пишется;
//  4. вставка комментария (upvotes=downvotes=0);
//  5. пересчёт posts.comment_count через COUNT;
//  6. чтение сохранённого комментария с данными автора.
//
// Ошибки:
//   - ErrInvalidArgument / ErrUnauthenticated: вход;
//   - ErrNotFound: пост не найден; ErrParentNotFound: родитель не из этого поста;
//   - *RejectedError (errors.Is(err, ErrContentRejected)): отказ модерации;
//   - ErrInternal: ошибки стораджа.
func (s *Service) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	const op = "service/comments/CreateComment"

	lg := log.From(ctx).With(
		"op", op,
		"post_id", in.PostID.String(),
		"author_id", in.AuthorID.String(),
	)

	if in.AuthorID == uuid.Nil {
		lg.Warn("invalid argument: empty author_id")
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	if in.PostID == uuid.Nil {
		lg.Warn("invalid argument: empty post_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" {
		lg.Warn("invalid argument: empty content")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if in.ParentID != nil && *in.ParentID == uuid.Nil {
		in.ParentID = nil
	}

	if _, err := s.postByID(ctx, op, in.PostID); err != nil {
		return nil, err
	}

	verdict := s.insights.Moderate(ctx, in.Content)
	if !verdict.IsAppropriate {
		lg.Info("comment rejected by moderation", "reason", verdict.Reason, "excerpt", redact.Excerpt(in.Content, 80))
		return nil, fmt.Errorf("%s: %w", op, &RejectedError{
			Reason:     verdict.Reason,
			Suggestion: verdict.Suggestion,
		})
	}

	now := time.Now().UTC()
	comment := &models.Comment{
		ID:        uuid.New(),
		PostID:    in.PostID,
		AuthorID:  in.AuthorID,
		ParentID:  in.ParentID,
		Content:   in.Content,
		Upvotes:   0,
		Downvotes: 0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.storage.CreateComment(ctx, comment); err != nil {
		switch {
		case errors.Is(err, storage.ErrParentNotFound):
			lg.Warn("parent not found")
			return nil, fmt.Errorf("%s: %w", op, ErrParentNotFound)
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("post or author not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		default:
			lg.Error("storage error on CreateComment", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	if err := s.recountComments(ctx, in.PostID); err != nil {
		lg.Error("storage error on comment recount", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	created, err := s.storage.CommentByID(ctx, comment.ID)
	if err != nil {
		lg.Error("storage error on CommentByID", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return created, nil
}

// ListComments возвращает все комментарии поста (новые первыми).
func (s *Service) ListComments(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	const op = "service/comments/ListComments"

	lg := log.From(ctx).With("op", op, "post_id", postID.String())

	if postID == uuid.Nil {
		lg.Warn("invalid argument: empty post_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if _, err := s.postByID(ctx, op, postID); err != nil {
		return nil, err
	}

	items, err := s.storage.ListComments(ctx, postID)
	if err != nil {
		lg.Error("storage error on ListComments", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return items, nil
}

// DeleteComment удаляет комментарий (доступно только автору) и пересчитывает счётчик поста.
func (s *Service) DeleteComment(ctx context.Context, id, actorID uuid.UUID) error {
	const op = "service/comments/DeleteComment"

	lg := log.From(ctx).With("op", op, "comment_id", id.String(), "actor_id", actorID.String())

	if actorID == uuid.Nil {
		return fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	if id == uuid.Nil {
		lg.Warn("invalid argument: empty id")
		return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	comment, err := s.storage.CommentByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("comment not found")
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on CommentByID", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if comment.AuthorID != actorID {
		lg.Warn("forbidden: not the author")
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	if err := s.storage.DeleteComment(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("comment not found")
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on DeleteComment", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if err := s.recountComments(ctx, comment.PostID); err != nil {
		lg.Error("storage error on comment recount", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return nil
}

// recountComments записывает в пост фактическое число комментариев (COUNT, не инкремент).
func (s *Service) recountComments(ctx context.Context, postID uuid.UUID) error {
	n, err := s.storage.CountComments(ctx, postID)
	if err != nil {
		return err
	}

	return s.storage.SetCommentCount(ctx, postID, n)
}
