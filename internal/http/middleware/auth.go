package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	apierrors "github.com/pribylovaa/sabha/internal/errors"
	logctx "github.com/pribylovaa/sabha/internal/pkg/log"
	"github.com/pribylovaa/sabha/internal/service"
)

// TokenValidator проверяет access-токен и возвращает идентичность пользователя.
// Реализуется *service.Service.
type TokenValidator interface {
	ValidateToken(ctx context.Context, accessToken string) (uuid.UUID, string, error)
}

type userIDKey struct{}

// Authenticate извлекает Bearer-токен из Authorization и валидирует его.
//   - заголовка нет: запрос идёт дальше анонимно;
//   - токен есть, но невалиден: 401 сразу;
//   - токен валиден: uuid пользователя кладётся в контекст (см. UserID),
//     а в логгер запроса добавляется user_id.
func Authenticate(v TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				next.ServeHTTP(w, r)
				return
			}

			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) {
				apierrors.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			token := strings.TrimSpace(auth[len(prefix):])
			if token == "" {
				apierrors.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			uid, _, err := v.ValidateToken(r.Context(), token)
			if err != nil {
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey{}, uid)
			ctx = logctx.With(ctx, "user_id", uid.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser отвечает 401, если Authenticate не положил пользователя в контекст.
func RequireUser() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserID(r.Context()); !ok {
				apierrors.WriteError(w, r, service.ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserID возвращает идентификатор аутентифицированного пользователя.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	uid, ok := ctx.Value(userIDKey{}).(uuid.UUID)
	if !ok || uid == uuid.Nil {
		return uuid.Nil, false
	}
	return uid, true
}

// WithUserID кладёт идентичность в контекст (для тестов и внутренних вызовов).
func WithUserID(ctx context.Context, uid uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey{}, uid)
}
