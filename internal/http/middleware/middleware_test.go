package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	logctx "github.com/pribylovaa/sabha/internal/pkg/log"
	"github.com/pribylovaa/sabha/internal/service"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// Тесты мидлваров REST-слоя.
//
// Покрытие:
//  - порядок Chain;
//  - RequestID: генерация и проброс существующего id;
//  - Authenticate/RequireUser: аноним, валидный и невалидный токен, плохой заголовок;
//  - Timeout: выставляет deadline и не перетирает существующий;
//    истёкший срок без записанного ответа -> 504 deadline_exceeded, записанный ответ не трогается;
//  - Recover: panic -> 500/internal в JSON-конверте;
//  - Logging: атрибуты записи и request_id;
//  - Metrics: счётчик по шаблону маршрута chi;
//  - CORS: preflight для разрешённого источника.
//
// Запуск:
//   go test ./internal/http/middleware -v -count=1

// capHandler: тестовый slog.Handler, который:
//   - аккумулирует базовые attrs, приходящие через Logger.With(...);
//   - собирает attrs из каждой записи в map[string]any.
type capHandler struct {
	base    []slog.Attr
	lastMsg string
	lastLvl slog.Level
	attrs   map[string]any
	count   int
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	out := make(map[string]any, len(h.base)+8)

	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}

	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})

	h.count++
	h.lastMsg = r.Message
	h.lastLvl = r.Level
	h.attrs = out

	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) > 0 {
		h.base = append(h.base, attrs...)
	}

	return h
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

func makeReq(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = (&net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 12345}).String()
	return req
}

type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type errEnvelope struct {
	Error apiError `json:"error"`
}

// fakeValidator: TokenValidator, принимающий ровно один токен.
type fakeValidator struct {
	token string
	uid   uuid.UUID
	calls int
}

func (f *fakeValidator) ValidateToken(_ context.Context, token string) (uuid.UUID, string, error) {
	f.calls++
	if token != f.token {
		return uuid.Nil, "", fmt.Errorf("service/auth/ValidateToken: %w", service.ErrInvalidToken)
	}
	return f.uid, "a@b.c", nil
}

func TestChain_Order(t *testing.T) {
	order := []string{}

	m1 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "m1-begin")
			next.ServeHTTP(w, r)
			order = append(order, "m1-end")
		})
	}

	m2 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "m2-begin")
			next.ServeHTTP(w, r)
			order = append(order, "m2-end")
		})
	}

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusTeapot)
	})

	chain := Chain(final, m1, m2)
	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, makeReq("/chain"))

	require.Equal(t, []string{"m1-begin", "m2-begin", "handler", "m2-end", "m1-end"}, order)
	require.Equal(t, http.StatusTeapot, rr.Code)
}

func TestRequestID_GenerateAndPropagate(t *testing.T) {
	var seenID, seenCtxID string

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = r.Header.Get("X-Request-Id")
		seenCtxID = RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	Chain(h, RequestID()).ServeHTTP(rr, makeReq("/rid"))

	respID := rr.Header().Get("X-Request-Id")
	require.Len(t, respID, 32)
	require.Equal(t, respID, seenID)
	require.Equal(t, respID, seenCtxID)
}

func TestRequestID_UseExisting(t *testing.T) {
	const given = "abc123-existing-id"
	var seenCtxID string

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenCtxID = RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	req := makeReq("/rid2")
	req.Header.Set("X-Request-Id", given)
	Chain(h, RequestID()).ServeHTTP(rr, req)

	require.Equal(t, given, rr.Header().Get("X-Request-Id"))
	require.Equal(t, given, seenCtxID)
}

func TestAuthenticate(t *testing.T) {
	v := &fakeValidator{token: "good", uid: uuid.New()}

	var (
		gotUID uuid.UUID
		gotOK  bool
	)
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUID, gotOK = UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	chain := Chain(h, Authenticate(v))

	t.Run("anonymous passes through", func(t *testing.T) {
		rr := httptest.NewRecorder()
		chain.ServeHTTP(rr, makeReq("/a"))
		require.Equal(t, http.StatusNoContent, rr.Code)
		require.False(t, gotOK)
	})

	t.Run("valid bearer", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := makeReq("/a")
		req.Header.Set("Authorization", "Bearer good")
		chain.ServeHTTP(rr, req)
		require.Equal(t, http.StatusNoContent, rr.Code)
		require.True(t, gotOK)
		require.Equal(t, v.uid, gotUID)
	})

	t.Run("not bearer", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := makeReq("/a")
		req.Header.Set("Authorization", "Basic aaa")
		chain.ServeHTTP(rr, req)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("rejected token", func(t *testing.T) {
		calls := v.calls
		rr := httptest.NewRecorder()
		req := makeReq("/a")
		req.Header.Set("Authorization", "Bearer forged")
		chain.ServeHTTP(rr, req)
		require.Equal(t, calls+1, v.calls)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRequireUser(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	chain := Chain(h, RequireUser())

	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, makeReq("/me"))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	var env errEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.Equal(t, "unauthenticated", env.Error.Code)

	rr = httptest.NewRecorder()
	req := makeReq("/me")
	req = req.WithContext(WithUserID(req.Context(), uuid.New()))
	chain.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestTimeout_SetsDeadline_WhenAbsent(t *testing.T) {
	var hasDeadline bool
	var left time.Duration

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dl, ok := r.Context().Deadline()
		hasDeadline = ok
		if ok {
			left = time.Until(dl)
		}
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	Chain(h, Timeout(50*time.Millisecond)).ServeHTTP(rr, makeReq("/timeout"))

	require.True(t, hasDeadline)
	require.Greater(t, left, time.Duration(0))
}

func TestTimeout_DoesNotOverrideExistingDeadline(t *testing.T) {
	var childDL time.Time

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dl, _ := r.Context().Deadline()
		childDL = dl
		w.WriteHeader(http.StatusOK)
	})

	parent, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req := makeReq("/timeout2").WithContext(parent)

	rr := httptest.NewRecorder()
	Chain(h, Timeout(time.Second)).ServeHTTP(rr, req)

	parentDL, _ := parent.Deadline()
	require.WithinDuration(t, parentDL, childDL, time.Millisecond)
}

func TestTimeout_ExpiredWithoutResponse_Writes504(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	req := makeReq("/slow")
	req.Header.Set("X-Request-Id", "rid-slow")

	rr := httptest.NewRecorder()
	Chain(h, Timeout(10*time.Millisecond)).ServeHTTP(rr, req)

	require.Equal(t, http.StatusGatewayTimeout, rr.Code)

	var env errEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.Equal(t, "deadline_exceeded", env.Error.Code)
	require.Equal(t, "rid-slow", env.Error.RequestID)
}

func TestTimeout_ExpiredAfterResponse_KeepsResponse(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		<-r.Context().Done()
	})

	rr := httptest.NewRecorder()
	Chain(h, Timeout(10*time.Millisecond)).ServeHTTP(rr, makeReq("/slow-but-answered"))

	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Empty(t, rr.Body.String())
}

func TestRecover_ConvertsPanicTo500(t *testing.T) {
	panicHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	Chain(panicHandler, Recover()).ServeHTTP(rr, makeReq("/panic"))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var env errEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.Equal(t, "internal", env.Error.Code)
	require.NotContains(t, env.Error.Message, "boom")
}

func TestLogging_WritesRecord_WithStatusDurBytesAndRequestID(t *testing.T) {
	h := &capHandler{}
	logger := slog.New(h)

	const rid = "rid-456"
	var ctxLogger *slog.Logger
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxLogger = logctx.From(r.Context())
		_, _ = w.Write([]byte("0123456789"))
	})

	handler := Chain(final, RequestID(), Logging(logger))

	rr := httptest.NewRecorder()
	req := makeReq("/log")
	req.Header.Set("X-Request-Id", rid)
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, ctxLogger)
	require.Equal(t, 1, h.count)
	require.Equal(t, "http", h.lastMsg)
	require.Equal(t, slog.LevelInfo, h.lastLvl)

	method, _ := h.attrs["method"].(string)
	path, _ := h.attrs["path"].(string)
	status, _ := h.attrs["status"].(int64)
	bytes, _ := h.attrs["bytes"].(int64)
	ridAttr, _ := h.attrs["request_id"].(string)

	require.Equal(t, http.MethodGet, method)
	require.Equal(t, "/log", path)
	require.EqualValues(t, http.StatusOK, status)
	require.EqualValues(t, 10, bytes)
	require.Equal(t, rid, ridAttr)

	_, hasDur := h.attrs["dur"]
	require.True(t, hasDur)
}

func TestLogging_ServerErrorLoggedAtError(t *testing.T) {
	h := &capHandler{}
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	rr := httptest.NewRecorder()
	Chain(final, Logging(slog.New(h))).ServeHTTP(rr, makeReq("/x"))

	require.Equal(t, slog.LevelError, h.lastLvl)
}

func TestMetrics_CountsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics())
	r.Get("/metrics-test/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	counter := httpRequests.WithLabelValues(http.MethodGet, "/metrics-test/{id}", "202")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"a", "b"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, makeReq("/metrics-test/"+id))
		require.Equal(t, http.StatusAccepted, rr.Code)
	}

	require.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestCORS_Preflight(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	chain := Chain(h, CORS([]string{"http://localhost:3000"}))

	req := httptest.NewRequest(http.MethodOptions, "/posts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, req)

	require.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/posts", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr = httptest.NewRecorder()
	chain.ServeHTTP(rr, req)

	require.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusWriter_CountsBytes_AndDefaultStatus200(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := newStatusWriter(rr)
	require.Equal(t, http.StatusOK, sw.code())

	_, _ = sw.Write([]byte("abcd"))

	require.Equal(t, http.StatusOK, sw.status)
	require.Equal(t, 4, sw.count)
}
