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

// CreatePostInput: создание обращения.
// Правила:
//   - обязательны AuthorID, Title, Content, PostType, Governance;
//   - Priority по умолчанию medium;
//   - для Governance=local обязателен Location.
type CreatePostInput struct {
	AuthorID   uuid.UUID
	Title      string
	Content    string
	PostType   models.PostType
	Priority   models.Priority
	Governance models.Governance
	Location   string
	Deadline   *time.Time
	CategoryID *uuid.UUID
}

// UpdatePostInput: частичное обновление; nil-поля не трогаются.
type UpdatePostInput struct {
	ID               uuid.UUID
	ActorID          uuid.UUID
	Title            *string
	Content          *string
	Priority         *models.Priority
	Status           *models.PostStatus
	Location         *string
	Deadline         *time.Time
	ClearDeadline    bool
	OfficialResponse *string
}

// CreatePost создаёт обращение со статусом open и нулевыми счётчиками.
func (s *Service) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	const op = "service/posts/CreatePost"

	lg := log.From(ctx).With("op", op, "author_id", in.AuthorID.String())

	if in.AuthorID == uuid.Nil {
		lg.Warn("invalid argument: empty author_id")
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Location = strings.TrimSpace(in.Location)

	if in.Title == "" || in.Content == "" {
		lg.Warn("invalid argument: empty title or content")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}

	if !in.PostType.Valid() || !in.Priority.Valid() || !in.Governance.Valid() {
		lg.Warn("invalid argument: bad enum",
			"post_type", in.PostType, "priority", in.Priority, "governance", in.Governance)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if in.Governance == models.GovernanceLocal && in.Location == "" {
		lg.Warn("invalid argument: local post without location")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	now := time.Now().UTC()
	post := &models.Post{
		ID:         uuid.New(),
		Title:      in.Title,
		Content:    in.Content,
		AuthorID:   in.AuthorID,
		CategoryID: in.CategoryID,
		PostType:   in.PostType,
		Priority:   in.Priority,
		Governance: in.Governance,
		Status:     models.StatusOpen,
		Location:   in.Location,
		Deadline:   in.Deadline,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.storage.CreatePost(ctx, post); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("author or category not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on CreatePost", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	created, err := s.storage.PostByID(ctx, post.ID)
	if err != nil {
		lg.Error("storage error on PostByID", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return created, nil
}

// ListPosts возвращает страницу обращений.
// PageSize: 0 -> limits.page_default; больше limits.page_max -> page_max.
func (s *Service) ListPosts(ctx context.Context, filter models.PostFilter) (*models.PostPage, error) {
	const op = "service/posts/ListPosts"

	lg := log.From(ctx).With("op", op)

	if filter.PageSize < 0 {
		lg.Warn("invalid argument: negative page_size")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if filter.PageSize == 0 {
		filter.PageSize = s.cfg.Limits.PageDefault
	}
	if pageMax := s.cfg.Limits.PageMax; pageMax > 0 && filter.PageSize > pageMax {
		filter.PageSize = pageMax
	}

	if (filter.Type != "" && !filter.Type.Valid()) ||
		(filter.Priority != "" && !filter.Priority.Valid()) ||
		(filter.Governance != "" && !filter.Governance.Valid()) ||
		(filter.Status != "" && !filter.Status.Valid()) {
		lg.Warn("invalid argument: bad filter enum")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	filter.Location = strings.TrimSpace(filter.Location)

	page, err := s.storage.ListPosts(ctx, filter)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidCursor) {
			lg.Warn("invalid cursor")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCursor)
		}

		lg.Error("storage error on ListPosts", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return page, nil
}

// GetPost увеличивает счётчик просмотров и возвращает обращение.
func (s *Service) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	const op = "service/posts/GetPost"

	lg := log.From(ctx).With("op", op, "post_id", id.String())

	if id == uuid.Nil {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if err := s.storage.IncrementViewCount(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("post not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on IncrementViewCount", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return s.postByID(ctx, op, id)
}

// UpdatePost применяет частичное обновление. Доступно только автору.
func (s *Service) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	const op = "service/posts/UpdatePost"

	lg := log.From(ctx).With("op", op, "post_id", in.ID.String(), "actor_id", in.ActorID.String())

	if in.ID == uuid.Nil {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	update := models.PostUpdate{
		Priority:         in.Priority,
		Status:           in.Status,
		Location:         trimPtr(in.Location),
		Deadline:         in.Deadline,
		ClearDeadline:    in.ClearDeadline,
		OfficialResponse: trimPtr(in.OfficialResponse),
		Title:            trimPtr(in.Title),
		Content:          trimPtr(in.Content),
	}

	if (update.Title != nil && *update.Title == "") || (update.Content != nil && *update.Content == "") {
		lg.Warn("invalid argument: empty title or content")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if (update.Priority != nil && !update.Priority.Valid()) || (update.Status != nil && !update.Status.Valid()) {
		lg.Warn("invalid argument: bad enum")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	post, err := s.ownedPost(ctx, op, in.ID, in.ActorID)
	if err != nil {
		return nil, err
	}

	if update.Location != nil && *update.Location == "" && post.Governance == models.GovernanceLocal {
		lg.Warn("invalid argument: clearing location of local post")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if err := s.storage.UpdatePost(ctx, in.ID, update, time.Now().UTC()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("post not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on UpdatePost", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return s.postByID(ctx, op, in.ID)
}

// DeletePost удаляет обращение вместе с комментариями, реакциями и тегами. Доступно только автору.
func (s *Service) DeletePost(ctx context.Context, id, actorID uuid.UUID) error {
	const op = "service/posts/DeletePost"

	lg := log.From(ctx).With("op", op, "post_id", id.String(), "actor_id", actorID.String())

	if _, err := s.ownedPost(ctx, op, id, actorID); err != nil {
		return err
	}

	if err := s.storage.DeletePost(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("post not found")
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on DeletePost", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return nil
}

// postByID читает пост и транслирует ошибки стораджа.
func (s *Service) postByID(ctx context.Context, op string, id uuid.UUID) (*models.Post, error) {
	lg := log.From(ctx).With("op", op, "post_id", id.String())

	post, err := s.storage.PostByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("post not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on PostByID", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return post, nil
}

// ownedPost читает пост и проверяет, что actorID: его автор.
func (s *Service) ownedPost(ctx context.Context, op string, id, actorID uuid.UUID) (*models.Post, error) {
	if actorID == uuid.Nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	post, err := s.postByID(ctx, op, id)
	if err != nil {
		return nil, err
	}

	if post.AuthorID != actorID {
		log.From(ctx).Warn("forbidden: not the author", "op", op, "post_id", id.String(), "actor_id", actorID.String())
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	return post, nil
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}

	v := strings.TrimSpace(*p)
	return &v
}
