package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	apierrors "github.com/pribylovaa/sabha/internal/errors"
)

// Timeout ограничивает обработку запроса сроком d (вызовы классификатора
// и БД получают этот дедлайн через контекст). Уже выставленный дедлайн
// сохраняется, d<=0 отключает мидлвар.
//
// Если срок истёк, а хендлер так ничего и не записал, клиент получает
// 504 deadline_exceeded в общем JSON-конверте вместо пустого 200.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Context().Deadline(); ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r.WithContext(ctx))

			if sw.status == 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				apierrors.WriteError(sw, r, context.DeadlineExceeded)
			}
		})
	}
}
