// handlers реализует REST-эндпойнты sabha поверх internal/service.
// Тела запросов декодируются строго (неизвестные поля запрещены)
// и валидируются validator/v10; ошибки пишутся через internal/errors.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	apierrors "github.com/pribylovaa/sabha/internal/errors"
	"github.com/pribylovaa/sabha/internal/http/middleware"
	"github.com/pribylovaa/sabha/internal/service"
)

// Handlers агрегирует зависимости хендлеров.
type Handlers struct {
	svc *service.Service
}

func New(svc *service.Service) *Handlers {
	return &Handlers{svc: svc}
}

// writeJSON: единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// pathID разбирает uuid из параметра маршрута.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apierrors.InvalidArgument(name + " must be a valid uuid")
	}
	return id, nil
}

// queryID разбирает необязательный uuid из query; пустое значение: nil.
func queryID(r *http.Request, name string) (*uuid.UUID, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}

	id, err := uuid.Parse(v)
	if err != nil {
		return nil, apierrors.InvalidArgument(name + " must be a valid uuid")
	}
	return &id, nil
}

// queryInt32 разбирает неотрицательное число из query; пустое значение: 0.
func queryInt32(r *http.Request, name string) (int32, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}

	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil || n < 0 {
		return 0, apierrors.InvalidArgument(name + " must be a non-negative integer")
	}
	return int32(n), nil
}

// currentUser возвращает пользователя, положенного middleware.Authenticate.
// На защищённых маршрутах RequireUser уже гарантирует его наличие.
func currentUser(r *http.Request) uuid.UUID {
	uid, _ := middleware.UserID(r.Context())
	return uid
}
