// storage содержит контракты слоя хранилищ sabha.
//
// Реализации:
//   - postgres: пользователи, refresh-токены, посты, комментарии, реакции,
//     официальные лица, теги, справочники категорий и локаций;
//   - minio: presigned-загрузка аватаров в S3/MinIO.
package storage

//go:generate mockgen -destination=../../mocks/storage.go -package=mocks github.com/pribylovaa/sabha/internal/storage Avatars,Storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/sabha/internal/models"
)

var (
	// ErrNotFound: запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists: нарушение уникальности (email/refresh-token/тег поста).
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidCursor: некорректный page_token.
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrParentNotFound: родительский комментарий не найден в этом посте.
	ErrParentNotFound = errors.New("parent comment not found")
	// ErrNotFoundAvatar: объект (ключ) отсутствует в бакете.
	ErrNotFoundAvatar = errors.New("avatar not found")
	// ErrInvalidArgument: нарушены ограничения запроса (тип/размер аватара).
	ErrInvalidArgument = errors.New("invalid argument")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создает нового пользователя в БД.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит пользователя по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// SetUserImage сохраняет URL (или ключ) аватара пользователя.
	SetUserImage(ctx context.Context, id uuid.UUID, image string) error
}

// RefreshTokenStorage выполняет операции над refresh-токенами.
type RefreshTokenStorage interface {
	// SaveRefreshToken сохраняет новый refresh-token в БД.
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error
	// RefreshTokenByHash находит refresh-токен по его хэшу.
	RefreshTokenByHash(ctx context.Context, hash string) (*models.RefreshToken, error)
	// RevokeRefreshToken отзывает токен, если он ещё активен.
	// (true, nil): отозван сейчас; (false, nil): уже был отозван.
	RevokeRefreshToken(ctx context.Context, hash string) (bool, error)
	// DeleteExpiredTokens удаляет просроченные токены и возвращает их число.
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// PostStorage: обращения (темы обсуждения).
type PostStorage interface {
	// CreatePost сохраняет новый пост. Счётчики берутся из модели.
	CreatePost(ctx context.Context, post *models.Post) error
	// PostByID возвращает пост вместе с именем и аватаром автора.
	PostByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	// ListPosts возвращает страницу постов (created_at DESC, id DESC).
	// Некорректный page_token: ErrInvalidCursor.
	ListPosts(ctx context.Context, filter models.PostFilter) (*models.PostPage, error)
	// UpdatePost применяет частичное обновление и выставляет updated_at.
	UpdatePost(ctx context.Context, id uuid.UUID, update models.PostUpdate, now time.Time) error
	// DeletePost удаляет пост каскадно с комментариями, реакциями и тегами.
	DeletePost(ctx context.Context, id uuid.UUID) error
	// IncrementViewCount увеличивает счётчик просмотров на единицу.
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
}

// CommentStorage: комментарии и денормализованный счётчик комментариев поста.
type CommentStorage interface {
	// CreateComment вставляет комментарий. Если ParentID задан, родитель
	// обязан принадлежать тому же посту, иначе ErrParentNotFound.
	// Несуществующий пост: ErrNotFound.
	CreateComment(ctx context.Context, comment *models.Comment) error
	// CommentByID возвращает комментарий вместе с именем и аватаром автора.
	CommentByID(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	// ListComments возвращает все комментарии поста, новые первыми.
	ListComments(ctx context.Context, postID uuid.UUID) ([]models.Comment, error)
	// RecentComments возвращает не более limit последних комментариев поста.
	RecentComments(ctx context.Context, postID uuid.UUID, limit int) ([]models.Comment, error)
	// CountComments считает комментарии поста через COUNT.
	CountComments(ctx context.Context, postID uuid.UUID) (int, error)
	// SetCommentCount записывает посчитанное значение в posts.comment_count.
	SetCommentCount(ctx context.Context, postID uuid.UUID, n int) error
	// DeleteComment удаляет комментарий (и ответы на него).
	DeleteComment(ctx context.Context, id uuid.UUID) error
}

// ReactionStorage: реакции пользователей на посты.
type ReactionStorage interface {
	// ReactionByUser возвращает реакцию пользователя на пост или ErrNotFound.
	ReactionByUser(ctx context.Context, postID, userID uuid.UUID) (*models.Reaction, error)
	// AddReaction сохраняет новую реакцию; повтор по (post, user): ErrAlreadyExists.
	AddReaction(ctx context.Context, reaction *models.Reaction) error
	// UpdateReaction меняет тип существующей реакции.
	UpdateReaction(ctx context.Context, id uuid.UUID, typ models.ReactionType, now time.Time) error
	// DeleteReaction удаляет реакцию по ID.
	DeleteReaction(ctx context.Context, id uuid.UUID) error
	// ReactionSummary возвращает количество реакций каждого типа.
	ReactionSummary(ctx context.Context, postID uuid.UUID) (map[models.ReactionType]int, error)
	// RecountVotes пересчитывает posts.upvotes/downvotes через COUNT и возвращает новые значения.
	RecountVotes(ctx context.Context, postID uuid.UUID) (up, down int, err error)
}

// OfficialStorage: справочник официальных лиц.
type OfficialStorage interface {
	// ListOfficials ищет официальных лиц (верифицированные первыми).
	ListOfficials(ctx context.Context, filter models.OfficialFilter) ([]models.Official, error)
	// CreateOfficial сохраняет новое официальное лицо.
	CreateOfficial(ctx context.Context, official *models.Official) error
	// OfficialByID возвращает официальное лицо по ID.
	OfficialByID(ctx context.Context, id uuid.UUID) (*models.Official, error)
}

// TagStorage: отметки постов.
type TagStorage interface {
	// ListTags возвращает теги поста с данными официальных лиц.
	ListTags(ctx context.Context, postID uuid.UUID) ([]models.Tag, error)
	// AddTag сохраняет тег; дубликат в рамках поста: ErrAlreadyExists.
	AddTag(ctx context.Context, tag *models.Tag) error
	// TagByID возвращает тег по ID.
	TagByID(ctx context.Context, id uuid.UUID) (*models.Tag, error)
	// DeleteTag удаляет тег по ID.
	DeleteTag(ctx context.Context, id uuid.UUID) error
}

// CatalogStorage: справочники категорий и локаций (только чтение).
type CatalogStorage interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListStates(ctx context.Context) ([]models.State, error)
	ListCities(ctx context.Context, stateID uuid.UUID) ([]models.City, error)
}

// Storage задает контракт работы с БД.
type Storage interface {
	UserStorage
	RefreshTokenStorage
	PostStorage
	CommentStorage
	ReactionStorage
	OfficialStorage
	TagStorage
	CatalogStorage
	Close()
}

// UploadInfo: информация для клиента о presigned PUT загрузке.
//   - UploadURL: конечная URL для PUT-запроса.
//   - AvatarKey: ключ (путь) будущего объекта в бакете.
//   - Expires: время жизни подписи.
//   - RequiredHeader: заголовки, которые клиент ОБЯЗАН передать при PUT.
type UploadInfo struct {
	UploadURL      string            `json:"uploadUrl"`
	AvatarKey      string            `json:"avatarKey"`
	Expires        time.Duration     `json:"-"`
	RequiredHeader map[string]string `json:"requiredHeaders"`
}

// Avatars: контракт генерации presigned URL и подтверждения факта загрузки.
type Avatars interface {
	// AvatarUploadURL генерирует presigned PUT. Внутри: валидация contentType и contentLength.
	AvatarUploadURL(ctx context.Context, userID uuid.UUID, contentType string, contentLength int64) (*UploadInfo, error)
	// CheckAvatarUpload проверяет факт загрузки по key (наличие, тип, размер).
	// Возвращает публичный URL, если сконфигурирован PublicBaseURL.
	CheckAvatarUpload(ctx context.Context, userID uuid.UUID, key string) (publicURL string, err error)
}
