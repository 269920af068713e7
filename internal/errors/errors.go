// errors стандартизирует ответы об ошибках HTTP-слоя sabha.
// На вход он принимает ошибку сервисного слоя (sentinel из internal/service),
// а на выход даёт:
//   - корректный HTTP-статус;
//   - краткий стабильный code и безопасное message без утечки деталей;
//   - reason/suggestion, если комментарий отклонён модерацией.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/sabha/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// APIError: единый формат для фронта.
// Code: короткий стабильный код для машиночитаемой обработки на FE.
// Message: безопасное человекочитаемое описание.
// RequestID: прокидывается из X-Request-Id, если есть (для трассировки).
// Reason/Suggestion заполняются только для content_rejected.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ErrorResponse: корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// badRequest: ошибка разбора/валидации тела запроса с понятным сообщением.
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string { return e.msg }

func (e *badRequest) Unwrap() error { return service.ErrInvalidArgument }

// InvalidArgument возвращает ошибку 400 с конкретным сообщением для клиента
// (например, переведённым сообщением валидатора).
func InvalidArgument(msg string) error {
	if msg == "" {
		msg = "invalid argument"
	}

	return &badRequest{msg: msg}
}

// ToHTTP конвертирует ошибку сервисного слоя в HTTP-статус и ответ для фронта.
//
// Поведение:
//   - err == nil: программная ошибка вызова: 500/internal;
//   - *service.RejectedError: 400/content_rejected с reason и suggestion;
//   - известные sentinel'ы маппятся через baseFromService;
//   - всё прочее: 500/internal без утечки деталей.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return http.StatusInternalServerError, ErrorResponse{
			Error: APIError{
				Code:    "internal",
				Message: "internal error",
			},
		}
	}

	var rejected *service.RejectedError
	if errors.As(err, &rejected) {
		return http.StatusBadRequest, ErrorResponse{
			Error: APIError{
				Code:       "content_rejected",
				Message:    "content rejected by moderation",
				Reason:     rejected.Reason,
				Suggestion: rejected.Suggestion,
			},
		}
	}

	httpStatus, code, msg := baseFromService(err)

	var br *badRequest
	if errors.As(err, &br) {
		msg = br.msg
	}

	return httpStatus, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError: хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// baseFromService: базовый маппинг ошибок сервиса -> HTTP/FE-код/сообщение:
//   - InvalidArgument/InvalidCursor и ошибки формата auth -> 400;
//   - Unauthenticated и ошибки токенов/учётных данных -> 401;
//   - Forbidden -> 403;
//   - NotFound/ParentNotFound -> 404;
//   - AlreadyExists/EmailTaken -> 409;
//   - NotEnoughComments -> 412;
//   - Unavailable -> 503;
//   - context.Canceled -> 499, context.DeadlineExceeded -> 504;
//   - прочее -> 500/internal.
func baseFromService(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrInvalidCursor):
		return http.StatusBadRequest, "invalid_argument", "invalid page token"
	case errors.Is(err, service.ErrInvalidEmail):
		return http.StatusBadRequest, "invalid_argument", "invalid email"
	case errors.Is(err, service.ErrWeakPassword):
		return http.StatusBadRequest, "invalid_argument", "password is too weak"
	case errors.Is(err, service.ErrEmptyPassword):
		return http.StatusBadRequest, "invalid_argument", "password is required"
	case errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case errors.Is(err, service.ErrContentRejected):
		return http.StatusBadRequest, "content_rejected", "content rejected by moderation"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "unauthenticated", "invalid credentials"
	case errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, "unauthenticated", "token expired"
	case errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenRevoked),
		errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated", "unauthenticated"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden", "forbidden"
	case errors.Is(err, service.ErrParentNotFound):
		return http.StatusNotFound, "not_found", "parent comment not found"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found", "not found"
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "already_exists", "email already taken"
	case errors.Is(err, service.ErrAlreadyExists):
		return http.StatusConflict, "already_exists", "already exists"
	case errors.Is(err, service.ErrNotEnoughComments):
		return http.StatusPreconditionFailed, "not_enough_comments", "at least 2 comments are needed for a discussion analysis"
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable", "service unavailable"
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
