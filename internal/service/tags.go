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
	"github.com/pribylovaa/sabha/internal/storage"
)

// AddTagInput: отметка поста: ровно одно из OfficialID/CustomTag.
type AddTagInput struct {
	PostID     uuid.UUID
	ActorID    uuid.UUID
	OfficialID *uuid.UUID
	CustomTag  string
}

// ListTags возвращает теги поста с данными отмеченных официальных лиц.
func (s *Service) ListTags(ctx context.Context, postID uuid.UUID) ([]models.Tag, error) {
	const op = "service/tags/ListTags"

	lg := log.From(ctx).With("op", op, "post_id", postID.String())

	if postID == uuid.Nil {
		lg.Warn("invalid argument: empty post_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	items, err := s.storage.ListTags(ctx, postID)
	if err != nil {
		lg.Error("storage error on ListTags", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return items, nil
}

// AddTag отмечает пост официальным лицом или произвольным тегом.
func (s *Service) AddTag(ctx context.Context, in AddTagInput) (*models.Tag, error) {
	const op = "service/tags/AddTag"

	lg := log.From(ctx).With("op", op, "post_id", in.PostID.String(), "actor_id", in.ActorID.String())

	if in.ActorID == uuid.Nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	in.CustomTag = strings.TrimSpace(in.CustomTag)
	if in.OfficialID != nil && *in.OfficialID == uuid.Nil {
		in.OfficialID = nil
	}

	if in.PostID == uuid.Nil || (in.OfficialID == nil) == (in.CustomTag == "") {
		lg.Warn("invalid argument: need post_id and exactly one of official/custom tag")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if _, err := s.postByID(ctx, op, in.PostID); err != nil {
		return nil, err
	}

	var official *models.Official
	if in.OfficialID != nil {
		o, err := s.storage.OfficialByID(ctx, *in.OfficialID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				lg.Warn("official not found")
				return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
			}

			lg.Error("storage error on OfficialByID", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
		official = o
	}

	tag := &models.Tag{
		ID:         uuid.New(),
		PostID:     in.PostID,
		OfficialID: in.OfficialID,
		CustomTag:  in.CustomTag,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.storage.AddTag(ctx, tag); err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			lg.Warn("tag already exists")
			return nil, fmt.Errorf("%s: %w", op, ErrAlreadyExists)
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("post or official not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		default:
			lg.Error("storage error on AddTag", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	tag.Official = official

	return tag, nil
}

// RemoveTag удаляет тег. Доступно только автору поста.
func (s *Service) RemoveTag(ctx context.Context, id, actorID uuid.UUID) error {
	const op = "service/tags/RemoveTag"

	lg := log.From(ctx).With("op", op, "tag_id", id.String(), "actor_id", actorID.String())

	if actorID == uuid.Nil {
		return fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	if id == uuid.Nil {
		lg.Warn("invalid argument: empty id")
		return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	tag, err := s.storage.TagByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("tag not found")
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on TagByID", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if _, err := s.ownedPost(ctx, op, tag.PostID, actorID); err != nil {
		return err
	}

	if err := s.storage.DeleteTag(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("tag not found")
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on DeleteTag", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return nil
}
