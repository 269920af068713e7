package service

// Тесты аутентификации (auth.go, token.go).
//
// Проверяем:
//  - регистрацию: нормализацию email, политику пароля, занятый email;
//  - вход: неверный пароль/неизвестный email -> ErrInvalidCredentials;
//  - ротацию refresh-токена и отзыв;
//  - валидацию access-токена (подпись, срок, issuer/audience);
//  - read-through кэш refresh-токенов.

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/pribylovaa/sabha/internal/cache"
	"github.com/pribylovaa/sabha/internal/models"
	"github.com/pribylovaa/sabha/internal/storage"
	"github.com/stretchr/testify/require"
)

func mustHashPW(t *testing.T, pw string) string {
	t.Helper()
	h, err := hashPassword(pw)
	require.NoError(t, err)
	return h
}

// memCache: RefreshCache в памяти.
type memCache struct {
	m map[string]cache.RefreshEntry
}

func newMemCache() *memCache { return &memCache{m: map[string]cache.RefreshEntry{}} }

func (c *memCache) Get(_ context.Context, hash string) (*cache.RefreshEntry, bool, error) {
	e, ok := c.m[hash]
	if !ok {
		return nil, false, nil
	}
	return &e, true, nil
}

func (c *memCache) Set(_ context.Context, hash string, e *cache.RefreshEntry, _ time.Duration) error {
	c.m[hash] = *e
	return nil
}

func (c *memCache) MarkRevoked(_ context.Context, hash string) error {
	if e, ok := c.m[hash]; ok {
		e.Revoked = true
		c.m[hash] = e
	}
	return nil
}

func (c *memCache) Close() error { return nil }

func TestRegisterUser_OK(t *testing.T) {
	env := newEnv(t)

	env.st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").Return(nil, storage.ErrNotFound)
	env.st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *models.User) error {
			require.Equal(t, "Asha", u.Name)
			require.Equal(t, "user@example.com", u.Email)
			require.True(t, checkPassword(u.PasswordHash, "Abcdef1!"))
			return nil
		})
	env.st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

	tp, uid, err := env.svc.RegisterUser(context.Background(), "  Asha ", "User@Example.com", "Abcdef1!")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, uid)
	require.NotEmpty(t, tp.AccessToken)
	require.NotEmpty(t, tp.RefreshToken)
	require.WithinDuration(t, time.Now().Add(30*time.Second), tp.AccessExpiresAt, 2*time.Second)

	gotID, email, err := env.svc.ValidateToken(context.Background(), tp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, uid, gotID)
	require.Equal(t, "user@example.com", email)
}

func TestRegisterUser_Validation(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	_, _, err := env.svc.RegisterUser(ctx, " ", "a@b.co", "Abcdef1!")
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, _, err = env.svc.RegisterUser(ctx, "A", "not-an-email", "Abcdef1!")
	require.ErrorIs(t, err, ErrInvalidEmail)

	_, _, err = env.svc.RegisterUser(ctx, "A", "a@b.co", "")
	require.ErrorIs(t, err, ErrEmptyPassword)

	for _, pw := range []string{"Ab1!", "abcdefg1!", "ABCDEFG1!", "Abcdefgh!", "Abcdefg12"} {
		_, _, err = env.svc.RegisterUser(ctx, "A", "a@b.co", pw)
		require.ErrorIs(t, err, ErrWeakPassword, pw)
	}
}

func TestRegisterUser_EmailTaken(t *testing.T) {
	env := newEnv(t)
	env.st.EXPECT().UserByEmail(gomock.Any(), "a@b.co").Return(&models.User{ID: uuid.New()}, nil)

	_, _, err := env.svc.RegisterUser(context.Background(), "A", "a@b.co", "Abcdef1!")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginUser(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "a@b.co", PasswordHash: mustHashPW(t, "Abcdef1!")}

	t.Run("ok", func(t *testing.T) {
		env := newEnv(t)
		env.st.EXPECT().UserByEmail(gomock.Any(), "a@b.co").Return(user, nil)
		env.st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

		_, uid, err := env.svc.LoginUser(context.Background(), "A@B.co", "Abcdef1!")
		require.NoError(t, err)
		require.Equal(t, user.ID, uid)
	})

	t.Run("wrong password", func(t *testing.T) {
		env := newEnv(t)
		env.st.EXPECT().UserByEmail(gomock.Any(), "a@b.co").Return(user, nil)

		_, _, err := env.svc.LoginUser(context.Background(), "a@b.co", "Wrong1!x")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		env := newEnv(t)
		env.st.EXPECT().UserByEmail(gomock.Any(), "x@b.co").Return(nil, storage.ErrNotFound)

		_, _, err := env.svc.LoginUser(context.Background(), "x@b.co", "Abcdef1!")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestRefreshToken_RotatesAndRevokesOld(t *testing.T) {
	env := newEnv(t)
	user := &models.User{ID: uuid.New(), Email: "a@b.co"}
	plain := "old-refresh"
	hash := hashRefresh(plain)

	gomock.InOrder(
		env.st.EXPECT().RefreshTokenByHash(gomock.Any(), hash).Return(&models.RefreshToken{
			RefreshTokenHash: hash, UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour),
		}, nil),
		env.st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil),
		env.st.EXPECT().RevokeRefreshToken(gomock.Any(), hash).Return(true, nil),
		env.st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil),
	)

	tp, uid, err := env.svc.RefreshToken(context.Background(), plain)
	require.NoError(t, err)
	require.Equal(t, user.ID, uid)
	require.NotEqual(t, plain, tp.RefreshToken)
}

func TestRefreshToken_Errors(t *testing.T) {
	hash := hashRefresh("p")
	cases := []struct {
		name  string
		token *models.RefreshToken
		err   error
		want  error
	}{
		{"not found", nil, storage.ErrNotFound, ErrInvalidToken},
		{"revoked", &models.RefreshToken{Revoked: true, ExpiresAt: time.Now().Add(time.Hour)}, nil, ErrTokenRevoked},
		{"expired", &models.RefreshToken{ExpiresAt: time.Now().Add(-time.Minute)}, nil, ErrTokenExpired},
		{"db", nil, errors.New("boom"), ErrInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newEnv(t)
			env.st.EXPECT().RefreshTokenByHash(gomock.Any(), hash).Return(tc.token, tc.err)

			_, _, err := env.svc.RefreshToken(context.Background(), "p")
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRevokeToken(t *testing.T) {
	env := newEnv(t)
	hash := hashRefresh("p")

	env.st.EXPECT().RevokeRefreshToken(gomock.Any(), hash).Return(true, nil)
	require.NoError(t, env.svc.RevokeToken(context.Background(), "p"))

	env.st.EXPECT().RevokeRefreshToken(gomock.Any(), hash).Return(false, nil)
	require.ErrorIs(t, env.svc.RevokeToken(context.Background(), "p"), ErrTokenRevoked)

	env.st.EXPECT().RevokeRefreshToken(gomock.Any(), hash).Return(false, storage.ErrNotFound)
	require.ErrorIs(t, env.svc.RevokeToken(context.Background(), "p"), ErrInvalidToken)

	require.ErrorIs(t, env.svc.RevokeToken(context.Background(), " "), ErrInvalidToken)
}

func TestRefreshCache_ReadThroughAndRevoke(t *testing.T) {
	env := newEnv(t)
	mc := newMemCache()
	env.svc.SetRefreshCache(mc)

	user := &models.User{ID: uuid.New(), Email: "a@b.co", PasswordHash: mustHashPW(t, "Abcdef1!")}

	env.st.EXPECT().UserByEmail(gomock.Any(), "a@b.co").Return(user, nil)
	env.st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

	tp, _, err := env.svc.LoginUser(context.Background(), "a@b.co", "Abcdef1!")
	require.NoError(t, err)

	hash := hashRefresh(tp.RefreshToken)
	require.Contains(t, mc.m, hash)

	// Валидация идёт из кэша: RefreshTokenByHash не ожидается.
	tok, err := env.svc.validateRefreshToken(context.Background(), tp.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, tok.UserID)

	env.st.EXPECT().RevokeRefreshToken(gomock.Any(), hash).Return(true, nil)
	require.NoError(t, env.svc.RevokeToken(context.Background(), tp.RefreshToken))
	require.True(t, mc.m[hash].Revoked)

	_, err = env.svc.validateRefreshToken(context.Background(), tp.RefreshToken)
	require.ErrorIs(t, err, ErrTokenRevoked)
}

func TestValidateToken_Errors(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	uid := uuid.New()

	_, _, err := env.svc.ValidateToken(ctx, "garbage")
	require.ErrorIs(t, err, ErrInvalidToken)

	expired, err := env.svc.generateAccessToken(ctx, uid, "a@b.co", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, _, err = env.svc.ValidateToken(ctx, expired)
	require.ErrorIs(t, err, ErrTokenExpired)

	other := newEnv(t)
	other.svc.cfg.Auth.JWTSecret = "another-secret"
	foreign, err := other.svc.generateAccessToken(ctx, uid, "a@b.co", time.Now())
	require.NoError(t, err)
	_, _, err = env.svc.ValidateToken(ctx, foreign)
	require.ErrorIs(t, err, ErrInvalidToken)

	other.svc.cfg.Auth.JWTSecret = env.svc.cfg.Auth.JWTSecret
	other.svc.cfg.Auth.Audience = []string{"someone-else"}
	wrongAud, err := other.svc.generateAccessToken(ctx, uid, "a@b.co", time.Now())
	require.NoError(t, err)
	_, _, err = env.svc.ValidateToken(ctx, wrongAud)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestMe(t *testing.T) {
	env := newEnv(t)
	u := &models.User{ID: uuid.New(), Name: "Asha"}

	env.st.EXPECT().UserByID(gomock.Any(), u.ID).Return(u, nil)
	got, err := env.svc.Me(context.Background(), u.ID)
	require.NoError(t, err)
	require.Equal(t, u, got)

	_, err = env.svc.Me(context.Background(), uuid.Nil)
	require.ErrorIs(t, err, ErrUnauthenticated)
}
