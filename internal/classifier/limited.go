package classifier

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limited ограничивает частоту обращений к провайдеру.
// Ожидание слота учитывает ctx: истёкший дедлайн: обычный отказ зависимости.
type Limited struct {
	next    Classifier
	limiter *rate.Limiter
}

// NewLimited: rpm: запросов в минуту, burst: допустимый всплеск.
func NewLimited(next Classifier, rpm, burst int) *Limited {
	if burst <= 0 {
		burst = 1
	}

	return &Limited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst),
	}
}

func (l *Limited) Classify(ctx context.Context, kind Kind, payload string) (string, error) {
	const op = "classifier/Limited"

	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%s: %s: %w", op, kind, err)
	}

	return l.next.Classify(ctx, kind, payload)
}
