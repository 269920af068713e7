package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pribylovaa/sabha/internal/models"
	"github.com/pribylovaa/sabha/internal/storage"
)

// postColumns: колонки поста с join'ом автора (алиасы p и u).
const postColumns = `
	p.id, p.title, p.content, p.author_id, u.name, COALESCE(u.image, ''),
	p.category_id, p.post_type, p.priority_level, p.governance_level, p.status,
	COALESCE(p.location, ''), p.deadline, COALESCE(p.official_response, ''),
	p.upvotes, p.downvotes, p.comment_count, p.view_count, p.created_at, p.updated_at`

func scanPost(row pgx.Row) (models.Post, error) {
	var p models.Post
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Content,
		&p.AuthorID,
		&p.AuthorName,
		&p.AuthorImage,
		&p.CategoryID,
		&p.PostType,
		&p.Priority,
		&p.Governance,
		&p.Status,
		&p.Location,
		&p.Deadline,
		&p.OfficialResponse,
		&p.Upvotes,
		&p.Downvotes,
		&p.CommentCount,
		&p.ViewCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return models.Post{}, err
	}

	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()

	return p, nil
}

// CreatePost сохраняет новый пост.
// Несуществующие автор или категория: storage.ErrNotFound.
func (s *Storage) CreatePost(ctx context.Context, post *models.Post) error {
	const op = "storage.postgres.CreatePost"

	query := `
		INSERT INTO posts(id, title, content, author_id, category_id, post_type, priority_level,
			governance_level, status, location, deadline, official_response,
			upvotes, downvotes, comment_count, view_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, NULLIF($12, ''),
			$13, $14, $15, $16, $17, $18)
	`

	_, err := s.db.Exec(ctx, query,
		post.ID,
		post.Title,
		post.Content,
		post.AuthorID,
		post.CategoryID,
		string(post.PostType),
		string(post.Priority),
		string(post.Governance),
		string(post.Status),
		post.Location,
		post.Deadline,
		post.OfficialResponse,
		post.Upvotes,
		post.Downvotes,
		post.CommentCount,
		post.ViewCount,
		post.CreatedAt,
		post.UpdatedAt,
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

	return nil
}

// PostByID возвращает пост вместе с именем и аватаром автора.
func (s *Storage) PostByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	const op = "storage.postgres.PostByID"

	post, err := scanPost(s.db.QueryRow(ctx, `
		SELECT `+postColumns+`
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &post, nil
}

// ListPosts возвращает страницу постов с курсорной пагинацией.
// Сортировка фиксирована: created_at DESC, id DESC.
// Выбирается на одну запись больше лимита: если она есть, выставляется NextPageToken.
func (s *Storage) ListPosts(ctx context.Context, filter models.PostFilter) (*models.PostPage, error) {
	const op = "storage.postgres.ListPosts"

	limit := filter.PageSize
	if limit <= 0 {
		limit = 1
	}

	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Type != "" {
		add("p.post_type = $%d", string(filter.Type))
	}
	if filter.Priority != "" {
		add("p.priority_level = $%d", string(filter.Priority))
	}
	if filter.Governance != "" {
		add("p.governance_level = $%d", string(filter.Governance))
	}
	if filter.Status != "" {
		add("p.status = $%d", string(filter.Status))
	}
	if filter.Location != "" {
		add("p.location ILIKE '%%' || $%d || '%%'", filter.Location)
	}
	if filter.CategoryID != nil {
		add("p.category_id = $%d", *filter.CategoryID)
	}

	fp := filterPrint(filter)
	if filter.PageToken != "" {
		key, decErr := decodePageToken(filter.PageToken, fp)
		if decErr != nil {
			return nil, fmt.Errorf("%s: %w: %v", op, storage.ErrInvalidCursor, decErr)
		}

		args = append(args, key.CreatedAt, key.ID)
		conds = append(conds, fmt.Sprintf("(p.created_at, p.id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	var where string
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	args = append(args, limit+1)
	query := fmt.Sprintf(`
		SELECT %s
		FROM posts p
		JOIN users u ON u.id = p.author_id
		%s
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $%d
	`, postColumns, where, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	page := models.PostPage{Items: make([]models.Post, 0, limit)}
	for rows.Next() {
		post, scanErr := scanPost(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, scanErr)
		}

		page.Items = append(page.Items, post)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, rows.Err())
	}

	if len(page.Items) > int(limit) {
		page.Items = page.Items[:limit]
		last := page.Items[len(page.Items)-1]
		page.NextPageToken = encodePageToken(pageKey{CreatedAt: last.CreatedAt, ID: last.ID, Filter: fp})
	}

	return &page, nil
}

// UpdatePost применяет частичное обновление: nil-поля не трогаются.
// Пустые строки у location/official_response сохраняются как NULL.
func (s *Storage) UpdatePost(ctx context.Context, id uuid.UUID, update models.PostUpdate, now time.Time) error {
	const op = "storage.postgres.UpdatePost"

	args := []any{id}
	sets := []string{}
	set := func(expr string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}

	if update.Title != nil {
		set("title = $%d", *update.Title)
	}
	if update.Content != nil {
		set("content = $%d", *update.Content)
	}
	if update.Priority != nil {
		set("priority_level = $%d", string(*update.Priority))
	}
	if update.Status != nil {
		set("status = $%d", string(*update.Status))
	}
	if update.Location != nil {
		set("location = NULLIF($%d, '')", *update.Location)
	}
	switch {
	case update.ClearDeadline:
		sets = append(sets, "deadline = NULL")
	case update.Deadline != nil:
		set("deadline = $%d", *update.Deadline)
	}
	if update.OfficialResponse != nil {
		set("official_response = NULLIF($%d, '')", *update.OfficialResponse)
	}
	set("updated_at = $%d", now)

	query := fmt.Sprintf(`UPDATE posts SET %s WHERE id = $1`, strings.Join(sets, ", "))

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// DeletePost удаляет пост; комментарии, реакции и теги удаляются каскадом.
func (s *Storage) DeletePost(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.DeletePost"

	tag, err := s.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// IncrementViewCount атомарно увеличивает счётчик просмотров.
func (s *Storage) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.IncrementViewCount"

	tag, err := s.db.Exec(ctx, `UPDATE posts SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
