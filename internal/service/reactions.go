package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/sabha/internal/models"
	"github.com/pribylovaa/sabha/internal/pkg/log"
	"github.com/pribylovaa/sabha/internal/storage"
)

// ReactionResult: итог нажатия на реакцию и пересчитанные голоса поста.
type ReactionResult struct {
	Action    models.ReactionChange `json:"action"`
	Type      models.ReactionType   `json:"type"`
	Upvotes   int                   `json:"upvotes"`
	Downvotes int                   `json:"downvotes"`
}

// React переключает реакцию пользователя на пост:
//   - реакции нет -> added;
//   - та же реакция -> removed;
//   - другая реакция -> updated.
//
// После любого изменения upvotes/downvotes поста пересчитываются через COUNT.
func (s *Service) React(ctx context.Context, postID, userID uuid.UUID, typ models.ReactionType) (*ReactionResult, error) {
	const op = "service/reactions/React"

	lg := log.From(ctx).With("op", op, "post_id", postID.String(), "user_id", userID.String(), "type", string(typ))

	if userID == uuid.Nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	if postID == uuid.Nil || !typ.Valid() {
		lg.Warn("invalid argument: empty post_id or bad reaction type")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if _, err := s.postByID(ctx, op, postID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var action models.ReactionChange

	existing, err := s.storage.ReactionByUser(ctx, postID, userID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		action = models.ReactionAdded
		err = s.storage.AddReaction(ctx, &models.Reaction{
			ID:        uuid.New(),
			UserID:    userID,
			PostID:    postID,
			Type:      typ,
			CreatedAt: now,
			UpdatedAt: now,
		})
	case err != nil:
		lg.Error("storage error on ReactionByUser", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	case existing.Type == typ:
		action = models.ReactionRemoved
		err = s.storage.DeleteReaction(ctx, existing.ID)
	default:
		action = models.ReactionUpdated
		err = s.storage.UpdateReaction(ctx, existing.ID, typ, now)
	}

	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			lg.Warn("concurrent reaction for the same user")
			return nil, fmt.Errorf("%s: %w", op, ErrAlreadyExists)
		}

		lg.Error("storage error on reaction change", "action", string(action), "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	up, down, err := s.storage.RecountVotes(ctx, postID)
	if err != nil {
		lg.Error("storage error on RecountVotes", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return &ReactionResult{Action: action, Type: typ, Upvotes: up, Downvotes: down}, nil
}

// RemoveReaction снимает реакцию пользователя с поста.
func (s *Service) RemoveReaction(ctx context.Context, postID, userID uuid.UUID) error {
	const op = "service/reactions/RemoveReaction"

	lg := log.From(ctx).With("op", op, "post_id", postID.String(), "user_id", userID.String())

	if userID == uuid.Nil {
		return fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	if postID == uuid.Nil {
		lg.Warn("invalid argument: empty post_id")
		return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	existing, err := s.storage.ReactionByUser(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("reaction not found")
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on ReactionByUser", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if err := s.storage.DeleteReaction(ctx, existing.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		lg.Error("storage error on DeleteReaction", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if _, _, err := s.storage.RecountVotes(ctx, postID); err != nil {
		lg.Error("storage error on RecountVotes", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return nil
}

// ReactionSummary возвращает количество реакций каждого типа на пост.
func (s *Service) ReactionSummary(ctx context.Context, postID uuid.UUID) (map[models.ReactionType]int, error) {
	const op = "service/reactions/ReactionSummary"

	lg := log.From(ctx).With("op", op, "post_id", postID.String())

	if postID == uuid.Nil {
		lg.Warn("invalid argument: empty post_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if _, err := s.postByID(ctx, op, postID); err != nil {
		return nil, err
	}

	summary, err := s.storage.ReactionSummary(ctx, postID)
	if err != nil {
		lg.Error("storage error on ReactionSummary", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return summary, nil
}
