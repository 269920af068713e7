// insights: модерация комментариев, анализ обсуждений и подсказки.
//
// Каждый вызов проходит одну и ту же цепочку:
//
//	запрос к классификатору (с таймаутом) -> строгий разбор (parsed | repaired | fallback)
//	-> подстановка значений по умолчанию.
//
// Отказ классификатора никогда не превращается в ошибку для вызывающего:
// он логируется, учитывается в метриках и заменяется детерминированным значением.
package insights

import (
	"context"
	"time"

	"github.com/pribylovaa/sabha/internal/classifier"
	"github.com/pribylovaa/sabha/internal/pkg/log"
)

const defaultTimeout = 10 * time.Second

// Engine: фасад над классификатором.
type Engine struct {
	clf     classifier.Classifier
	timeout time.Duration
}

// New создаёт Engine. timeout<=0 заменяется значением по умолчанию (10s).
func New(clf classifier.Classifier, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Engine{clf: clf, timeout: timeout}
}

// call выполняет один запрос к классификатору под собственным таймаутом.
func (e *Engine) call(ctx context.Context, kind classifier.Kind, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	raw, err := e.clf.Classify(ctx, kind, prompt)
	classifierDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())

	return raw, err
}

// observe фиксирует исход вызова в метриках и логе.
func observe(ctx context.Context, kind classifier.Kind, state State, err error) {
	classifierCalls.WithLabelValues(string(kind), state.String()).Inc()

	lg := log.From(ctx).With("op", "insights/"+string(kind), "outcome", state.String())
	switch state {
	case StateFallback:
		lg.Warn("classifier fallback", "err", err)
	case StateRepaired:
		lg.Debug("classifier output repaired")
	}
}
