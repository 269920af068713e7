package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pribylovaa/sabha/internal/models"
	"github.com/pribylovaa/sabha/internal/storage"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Интеграционные тесты для пакета postgres:
//: поднимают реальный PostgreSQL через testcontainers-go (образ postgres:16-alpine);
//: применяют миграцию ./migrations/1_init.up.sql;
//: проверяют:
//    users/refresh_tokens: уникальность email (CITEXT), отзыв токена (true/false/ErrNotFound);
//    posts: создание, join автора, фильтры и keyset-пагинация, частичное обновление, просмотры;
//    comments: проверка родителя, COUNT-пересчёт после конкурентных вставок;
//    reactions: уникальность (post, user), пересчёт upvotes/downvotes, сводка;
//    tags: дубликаты (официальное лицо и произвольный тег без учёта регистра);
//    справочники категорий и локаций.
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/postgres -v -race -count=1

// repoRootFromThisFile: определяет корень репозитория относительно текущего файла тестов.
func repoRootFromThisFile() string {
	// internal/storage/postgres/... -> подняться на 3 уровня до корня.
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", "..", ".."))
}

// readMigration: читает содержимое SQL-миграции из подкаталога ./migrations.
func readMigration(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(repoRootFromThisFile(), "migrations", name)
	b, err := os.ReadFile(path)
	require.NoError(t, err, "read migration %s", path)
	return string(b)
}

// startPostgres: поднимает PostgreSQL, применяет миграции и возвращает хранилище,
// «сырой» пул для подготовки данных и функцию очистки.
// Если переменная окружения GO_TEST_INTEGRATION не установлена: тест пропускается.
func startPostgres(t *testing.T) (*Storage, *pgxpool.Pool, func()) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "user", "POSTGRES_PASSWORD": "pass", "POSTGRES_DB": "db"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "5432/tcp")
	dsn := fmt.Sprintf("postgres://user:pass@%s:%s/db?sslmode=disable", host, port.Port())

	// порт слушается раньше, чем БД готова принимать запросы.
	var pool *pgxpool.Pool
	require.Eventually(t, func() bool {
		p, perr := pgxpool.New(ctx, dsn)
		if perr != nil {
			return false
		}
		if perr = p.Ping(ctx); perr != nil {
			p.Close()
			return false
		}
		pool = p
		return true
	}, 30*time.Second, 500*time.Millisecond)

	_, err = pool.Exec(ctx, readMigration(t, "1_init.up.sql"))
	require.NoError(t, err)

	st, err := New(ctx, dsn)
	require.NoError(t, err)

	cleanup := func() {
		st.Close()
		pool.Close()
		_ = c.Terminate(context.Background())
	}
	return st, pool, cleanup
}

func newUser(t *testing.T, st *Storage, name string) *models.User {
	t.Helper()
	now := time.Now().UTC()
	u := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.SaveUser(context.Background(), u))
	return u
}

func newPost(t *testing.T, st *Storage, author uuid.UUID, createdAt time.Time, mut ...func(*models.Post)) *models.Post {
	t.Helper()
	p := &models.Post{
		ID:         uuid.New(),
		Title:      "Potholes on MG Road",
		Content:    "The road has been broken for months.",
		AuthorID:   author,
		PostType:   models.PostTypeIssue,
		Priority:   models.PriorityMedium,
		Governance: models.GovernanceLocal,
		Status:     models.StatusOpen,
		Location:   "Bengaluru",
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	for _, m := range mut {
		m(p)
	}
	require.NoError(t, st.CreatePost(context.Background(), p))
	return p
}

func newComment(postID, authorID uuid.UUID, parent *uuid.UUID, text string) *models.Comment {
	now := time.Now().UTC()
	return &models.Comment{
		ID:        uuid.New(),
		PostID:    postID,
		AuthorID:  authorID,
		ParentID:  parent,
		Content:   text,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestIntegration_Users_UniqueEmail_CaseInsensitive(t *testing.T) {
	st, _, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := newUser(t, st, "asha")

	got, err := st.UserByEmail(ctx, "ASHA@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Empty(t, got.Image)

	dup := *u
	dup.ID = uuid.New()
	err = st.SaveUser(ctx, &dup)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	require.NoError(t, st.SetUserImage(ctx, u.ID, "http://cdn.local/a.png"))
	got, err = st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "http://cdn.local/a.png", got.Image)

	_, err = st.UserByID(ctx, uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_RefreshTokens_Revoke(t *testing.T) {
	st, _, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := newUser(t, st, "ravi")
	now := time.Now().UTC()

	tok := &models.RefreshToken{
		RefreshTokenHash: "h1",
		UserID:           u.ID,
		CreatedAt:        now,
		ExpiresAt:        now.Add(time.Hour),
	}
	require.NoError(t, st.SaveRefreshToken(ctx, tok))
	require.ErrorIs(t, st.SaveRefreshToken(ctx, tok), storage.ErrAlreadyExists)

	ok, err := st.RevokeRefreshToken(ctx, "h1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = st.RevokeRefreshToken(ctx, "h1")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = st.RevokeRefreshToken(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)

	// токен удалённого пользователя не сохраняется.
	orphan := &models.RefreshToken{RefreshTokenHash: "h-orphan", UserID: uuid.New(), CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.ErrorIs(t, st.SaveRefreshToken(ctx, orphan), storage.ErrNotFound)

	expired := &models.RefreshToken{RefreshTokenHash: "h2", UserID: u.ID, CreatedAt: now, ExpiresAt: now.Add(-time.Minute)}
	require.NoError(t, st.SaveRefreshToken(ctx, expired))
	deleted, err := st.DeleteExpiredTokens(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	_, err = st.RefreshTokenByHash(ctx, "h2")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_Posts_CRUD_And_Pagination(t *testing.T) {
	st, _, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := newUser(t, st, "meera")
	base := time.Now().UTC().Truncate(time.Millisecond)

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		p := newPost(t, st, u.ID, base.Add(time.Duration(i)*time.Second))
		ids = append(ids, p.ID)
	}
	newPost(t, st, u.ID, base.Add(10*time.Second), func(p *models.Post) {
		p.PostType = models.PostTypeSuggestion
		p.Governance = models.GovernanceNational
		p.Location = ""
	})

	// фильтр по типу.
	page, err := st.ListPosts(ctx, models.PostFilter{Type: models.PostTypeSuggestion, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Empty(t, page.NextPageToken)
	require.Empty(t, page.Items[0].Location)
	require.Equal(t, "meera", page.Items[0].AuthorName)

	// keyset-пагинация по issue: 5 штук страницами по 2.
	var seen []uuid.UUID
	token, firstToken := "", ""
	for {
		page, err = st.ListPosts(ctx, models.PostFilter{Type: models.PostTypeIssue, PageSize: 2, PageToken: token})
		require.NoError(t, err)
		for _, p := range page.Items {
			seen = append(seen, p.ID)
		}
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
		if firstToken == "" {
			firstToken = token
		}
	}
	require.Len(t, seen, 5)
	for i := range seen {
		require.Equal(t, ids[len(ids)-1-i], seen[i], "newest first")
	}

	_, err = st.ListPosts(ctx, models.PostFilter{PageSize: 2, PageToken: "%%%"})
	require.ErrorIs(t, err, storage.ErrInvalidCursor)

	// токен от выдачи issue не подходит к другому фильтру, но размер страницы менять можно.
	require.NotEmpty(t, firstToken)
	_, err = st.ListPosts(ctx, models.PostFilter{Type: models.PostTypeSuggestion, PageSize: 2, PageToken: firstToken})
	require.ErrorIs(t, err, storage.ErrInvalidCursor)
	page, err = st.ListPosts(ctx, models.PostFilter{Type: models.PostTypeIssue, PageSize: 10, PageToken: firstToken})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)

	// частичное обновление.
	status := models.StatusResolved
	resp := "Repairs scheduled"
	require.NoError(t, st.UpdatePost(ctx, ids[0], models.PostUpdate{Status: &status, OfficialResponse: &resp}, time.Now().UTC()))
	got, err := st.PostByID(ctx, ids[0])
	require.NoError(t, err)
	require.Equal(t, models.StatusResolved, got.Status)
	require.Equal(t, "Repairs scheduled", got.OfficialResponse)
	require.Equal(t, "Potholes on MG Road", got.Title)

	require.NoError(t, st.IncrementViewCount(ctx, ids[0]))
	require.NoError(t, st.IncrementViewCount(ctx, ids[0]))
	got, err = st.PostByID(ctx, ids[0])
	require.NoError(t, err)
	require.Equal(t, 2, got.ViewCount)

	require.NoError(t, st.DeletePost(ctx, ids[0]))
	_, err = st.PostByID(ctx, ids[0])
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.ErrorIs(t, st.DeletePost(ctx, ids[0]), storage.ErrNotFound)
}

func TestIntegration_Comments_ParentCheck(t *testing.T) {
	st, _, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := newUser(t, st, "kiran")
	p1 := newPost(t, st, u.ID, time.Now().UTC())
	p2 := newPost(t, st, u.ID, time.Now().UTC())

	root := newComment(p1.ID, u.ID, nil, "root")
	require.NoError(t, st.CreateComment(ctx, root))

	reply := newComment(p1.ID, u.ID, &root.ID, "reply")
	require.NoError(t, st.CreateComment(ctx, reply))

	// родитель из другого поста.
	foreign := newComment(p2.ID, u.ID, &root.ID, "foreign")
	require.ErrorIs(t, st.CreateComment(ctx, foreign), storage.ErrParentNotFound)

	// несуществующий пост.
	orphan := newComment(uuid.New(), u.ID, nil, "orphan")
	require.ErrorIs(t, st.CreateComment(ctx, orphan), storage.ErrNotFound)

	got, err := st.CommentByID(ctx, reply.ID)
	require.NoError(t, err)
	require.Equal(t, "kiran", got.AuthorName)
	require.NotNil(t, got.ParentID)
	require.Equal(t, root.ID, *got.ParentID)
	require.Zero(t, got.Upvotes)
	require.Zero(t, got.Downvotes)

	list, err := st.ListComments(ctx, p1.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	recent, err := st.RecentComments(ctx, p1.ID, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)

	// удаление корня каскадно удаляет ответ.
	require.NoError(t, st.DeleteComment(ctx, root.ID))
	n, err := st.CountComments(ctx, p1.ID)
	require.NoError(t, err)
	require.Zero(t, n)
}

// Конкурентные вставки с пересчётом через COUNT после каждой.
// COUNT и SET выполняются без блокировки, поэтому запись последнего
// завершившегося писателя может оказаться устаревшей: счётчик не выходит за
// [1, n], а точное значение восстанавливается следующим пересчётом.
// Писатель, чья вставка закоммичена последней, видит все n строк.
func TestIntegration_Comments_ConcurrentInsert_CountMatches(t *testing.T) {
	st, _, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := newUser(t, st, "dev")
	p := newPost(t, st, u.ID, time.Now().UTC())

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	seen := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := st.CreateComment(ctx, newComment(p.ID, u.ID, nil, fmt.Sprintf("c%d", i))); err != nil {
				errs <- err
				return
			}
			cnt, err := st.CountComments(ctx, p.ID)
			if err != nil {
				errs <- err
				return
			}
			seen <- cnt
			if err := st.SetCommentCount(ctx, p.ID, cnt); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	close(seen)
	for err := range errs {
		require.NoError(t, err)
	}

	maxSeen := 0
	for cnt := range seen {
		require.GreaterOrEqual(t, cnt, 1)
		require.LessOrEqual(t, cnt, n)
		if cnt > maxSeen {
			maxSeen = cnt
		}
	}
	require.Equal(t, n, maxSeen)

	// Значение после гонки: последняя запись, возможно устаревшая.
	got, err := st.PostByID(ctx, p.ID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, got.CommentCount, 1)
	require.LessOrEqual(t, got.CommentCount, n)

	// Следующий пересчёт сводит счётчик к реальному числу строк.
	cnt, err := st.CountComments(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, st.SetCommentCount(ctx, p.ID, cnt))

	got, err = st.PostByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, n, got.CommentCount)
}

func TestIntegration_Reactions_RecountAndSummary(t *testing.T) {
	st, _, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	a := newUser(t, st, "anil")
	b := newUser(t, st, "bina")
	p := newPost(t, st, a.ID, time.Now().UTC())
	now := time.Now().UTC()

	ra := &models.Reaction{ID: uuid.New(), UserID: a.ID, PostID: p.ID, Type: models.ReactionUpvote, CreatedAt: now, UpdatedAt: now}
	rb := &models.Reaction{ID: uuid.New(), UserID: b.ID, PostID: p.ID, Type: models.ReactionLove, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, st.AddReaction(ctx, ra))
	require.NoError(t, st.AddReaction(ctx, rb))

	dup := *ra
	dup.ID = uuid.New()
	require.ErrorIs(t, st.AddReaction(ctx, &dup), storage.ErrAlreadyExists)

	up, down, err := st.RecountVotes(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 1, up)
	require.Equal(t, 0, down)

	require.NoError(t, st.UpdateReaction(ctx, rb.ID, models.ReactionDownvote, time.Now().UTC()))
	up, down, err = st.RecountVotes(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 1, up)
	require.Equal(t, 1, down)

	sum, err := st.ReactionSummary(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, map[models.ReactionType]int{models.ReactionUpvote: 1, models.ReactionDownvote: 1}, sum)

	got, err := st.ReactionByUser(ctx, p.ID, b.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReactionDownvote, got.Type)

	require.NoError(t, st.DeleteReaction(ctx, got.ID))
	_, err = st.ReactionByUser(ctx, p.ID, b.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_OfficialsAndTags(t *testing.T) {
	st, _, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := newUser(t, st, "tara")
	p := newPost(t, st, u.ID, time.Now().UTC())
	now := time.Now().UTC()

	o := &models.Official{
		ID:           uuid.New(),
		Name:         "R. Sharma",
		Title:        "Commissioner",
		Organization: "BBMP",
		Governance:   models.GovernanceLocal,
		Location:     "Bengaluru",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.CreateOfficial(ctx, o))

	found, err := st.ListOfficials(ctx, models.OfficialFilter{Name: "sharma"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.False(t, found[0].IsVerified)

	verified := true
	found, err = st.ListOfficials(ctx, models.OfficialFilter{Verified: &verified})
	require.NoError(t, err)
	require.Empty(t, found)

	t1 := &models.Tag{ID: uuid.New(), PostID: p.ID, OfficialID: &o.ID, CreatedAt: now}
	require.NoError(t, st.AddTag(ctx, t1))
	t1dup := &models.Tag{ID: uuid.New(), PostID: p.ID, OfficialID: &o.ID, CreatedAt: now}
	require.ErrorIs(t, st.AddTag(ctx, t1dup), storage.ErrAlreadyExists)

	t2 := &models.Tag{ID: uuid.New(), PostID: p.ID, CustomTag: "Roads", CreatedAt: now.Add(time.Second)}
	require.NoError(t, st.AddTag(ctx, t2))
	t2dup := &models.Tag{ID: uuid.New(), PostID: p.ID, CustomTag: "roads", CreatedAt: now}
	require.ErrorIs(t, st.AddTag(ctx, t2dup), storage.ErrAlreadyExists)

	tags, err := st.ListTags(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	require.NotNil(t, tags[0].Official)
	require.Equal(t, "R. Sharma", tags[0].Official.Name)
	require.Nil(t, tags[1].Official)
	require.Equal(t, "Roads", tags[1].CustomTag)

	got, err := st.TagByID(ctx, t2.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.PostID)

	require.NoError(t, st.DeleteTag(ctx, t2.ID))
	require.ErrorIs(t, st.DeleteTag(ctx, t2.ID), storage.ErrNotFound)
}

func TestIntegration_Catalog(t *testing.T) {
	st, pool, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	_, err := pool.Exec(ctx, `
		INSERT INTO categories(name, description) VALUES ('Roads', 'Infrastructure'), ('Health', NULL);
		INSERT INTO categories(name, is_active) VALUES ('Archived', FALSE);
		INSERT INTO states(name, code, type) VALUES ('Karnataka', 'KA', 'state'), ('Delhi', 'DL', 'union_territory');
	`)
	require.NoError(t, err)

	cats, err := st.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	require.Equal(t, "Health", cats[0].Name)

	states, err := st.ListStates(ctx)
	require.NoError(t, err)
	require.Len(t, states, 2)
	require.Equal(t, "Delhi", states[0].Name)

	var ka uuid.UUID
	require.NoError(t, pool.QueryRow(ctx, `SELECT id FROM states WHERE code = 'KA'`).Scan(&ka))
	_, err = pool.Exec(ctx, `
		INSERT INTO cities(name, state_id, is_capital) VALUES ('Mysuru', $1, FALSE), ('Bengaluru', $1, TRUE)
	`, ka)
	require.NoError(t, err)

	cities, err := st.ListCities(ctx, ka)
	require.NoError(t, err)
	require.Len(t, cities, 2)
	require.Equal(t, "Bengaluru", cities[0].Name)
	require.True(t, cities[0].IsCapital)
	require.Equal(t, "Karnataka", cities[0].StateName)
}
