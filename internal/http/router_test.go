package http

// Тесты REST-слоя через настоящий роутер.
//
// Стек в тестах: chi-роутер + middleware + handlers + настоящий service.Service
// поверх gomock-моков стораджа и классификатора. Access-токен подписывается
// тем же секретом, что в конфиге сервиса.
//
// Покрытие:
//  - /livez, /healthz (готов / БД недоступна), /metrics;
//  - защищённые маршруты без токена -> 401;
//  - создание комментария через /topics (синоним /posts): одобрено -> 201,
//    отклонено -> 400 content_rejected с reason/suggestion и без записи;
//  - строгий JSON и validator: неизвестное поле, недопустимый enum;
//  - AI: неизвестное action -> 400, дайджест по одному комментарию -> 412;
//  - битый uuid в пути, обязательный stateId.
//
// Запуск:
//   go test ./internal/http/... -v -count=1

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/pribylovaa/sabha/internal/classifier"
	"github.com/pribylovaa/sabha/internal/config"
	apierrors "github.com/pribylovaa/sabha/internal/errors"
	"github.com/pribylovaa/sabha/internal/insights"
	"github.com/pribylovaa/sabha/internal/models"
	"github.com/pribylovaa/sabha/internal/service"
	"github.com/pribylovaa/sabha/mocks"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-secret"

type routerEnv struct {
	h   http.Handler
	st  *mocks.MockStorage
	clf *mocks.MockClassifier
}

func newRouterEnv(t *testing.T, ready func(context.Context) error) routerEnv {
	t.Helper()

	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)
	clf := mocks.NewMockClassifier(ctrl)

	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       testSecret,
			AccessTokenTTL:  time.Minute,
			RefreshTokenTTL: time.Hour,
			Issuer:          "sabha",
			Audience:        []string{"sabha-web"},
		},
		Limits: config.LimitsConfig{PageDefault: 20, PageMax: 100, DigestComments: 20, SuggestionComments: 5},
	}

	svc := service.New(st, insights.New(clf, time.Second), cfg)
	h := NewRouter(svc, Options{
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Timeout:        5 * time.Second,
		AllowedOrigins: []string{"http://localhost:3000"},
		Ready:          ready,
	})

	return routerEnv{h: h, st: st, clf: clf}
}

func bearer(t *testing.T, uid uuid.UUID) string {
	t.Helper()

	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":   uid.String(),
		"email": "user@example.com",
		"iss":   "sabha",
		"aud":   []string{"sabha-web"},
		"sub":   uid.String(),
		"iat":   now.Unix(),
		"exp":   now.Add(time.Minute).Unix(),
	})
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)

	return "Bearer " + signed
}

func (e routerEnv) do(t *testing.T, method, target, auth, body string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	rr := httptest.NewRecorder()
	e.h.ServeHTTP(rr, req)
	return rr
}

func decodeErr(t *testing.T, rr *httptest.ResponseRecorder) apierrors.APIError {
	t.Helper()

	var env apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.NotEmpty(t, env.Error.RequestID)
	return env.Error
}

func routerPost(author uuid.UUID) *models.Post {
	now := time.Now().UTC()
	return &models.Post{
		ID:         uuid.New(),
		Title:      "Potholes on MG Road",
		Content:    "Three deep potholes near the metro exit.",
		AuthorID:   author,
		AuthorName: "Asha",
		PostType:   models.PostTypeIssue,
		Priority:   models.PriorityHigh,
		Governance: models.GovernanceLocal,
		Status:     models.StatusOpen,
		Location:   "Bengaluru",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestProbes(t *testing.T) {
	env := newRouterEnv(t, nil)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/livez", "", "").Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", "", "").Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/metrics", "", "").Code)

	down := newRouterEnv(t, func(context.Context) error { return errors.New("db down") })
	rr := down.do(t, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Equal(t, "unavailable", decodeErr(t, rr).Code)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	env := newRouterEnv(t, nil)

	for _, tc := range []struct{ method, target string }{
		{http.MethodPost, "/posts"},
		{http.MethodPost, "/topics/" + uuid.NewString() + "/comments"},
		{http.MethodPost, "/ai/comments"},
		{http.MethodGet, "/auth/me"},
		{http.MethodDelete, "/tags/" + uuid.NewString()},
	} {
		rr := env.do(t, tc.method, tc.target, "", `{}`)
		require.Equal(t, http.StatusUnauthorized, rr.Code, tc.target)
		require.Equal(t, "unauthenticated", decodeErr(t, rr).Code)
	}

	rr := env.do(t, http.MethodGet, "/auth/me", "Bearer garbage", "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateComment_ViaTopicsAlias(t *testing.T) {
	user := uuid.New()
	post := routerPost(uuid.New())

	t.Run("approved", func(t *testing.T) {
		env := newRouterEnv(t, nil)

		var saved *models.Comment
		env.st.EXPECT().PostByID(gomock.Any(), post.ID).Return(post, nil)
		env.clf.EXPECT().Classify(gomock.Any(), classifier.KindCommentModerate, gomock.Any()).
			Return("```json\n{\"isAppropriate\": true}\n```", nil)
		env.st.EXPECT().CreateComment(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, c *models.Comment) error {
				saved = c
				return nil
			})
		env.st.EXPECT().CountComments(gomock.Any(), post.ID).Return(1, nil)
		env.st.EXPECT().SetCommentCount(gomock.Any(), post.ID, 1).Return(nil)
		env.st.EXPECT().CommentByID(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, id uuid.UUID) (*models.Comment, error) {
				cp := *saved
				cp.AuthorName = "Ravi"
				return &cp, nil
			})

		rr := env.do(t, http.MethodPost, "/topics/"+post.ID.String()+"/comments", bearer(t, user),
			`{"content":"Reported this to the ward office too."}`)
		require.Equal(t, http.StatusCreated, rr.Code)

		var got models.Comment
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		require.Equal(t, user, got.AuthorID)
		require.Equal(t, "Ravi", got.AuthorName)
		require.Zero(t, got.Upvotes)
	})

	t.Run("rejected", func(t *testing.T) {
		env := newRouterEnv(t, nil)

		env.st.EXPECT().PostByID(gomock.Any(), post.ID).Return(post, nil)
		env.clf.EXPECT().Classify(gomock.Any(), classifier.KindCommentModerate, gomock.Any()).
			Return(`{"isAppropriate": false, "reason": "Personal attack", "suggestion": "Address the issue"}`, nil)

		rr := env.do(t, http.MethodPost, "/posts/"+post.ID.String()+"/comments", bearer(t, user),
			`{"content":"you are an idiot"}`)
		require.Equal(t, http.StatusBadRequest, rr.Code)

		apiErr := decodeErr(t, rr)
		require.Equal(t, "content_rejected", apiErr.Code)
		require.Equal(t, "Personal attack", apiErr.Reason)
		require.Equal(t, "Address the issue", apiErr.Suggestion)
	})
}

func TestStrictDecodeAndValidation(t *testing.T) {
	env := newRouterEnv(t, nil)
	auth := bearer(t, uuid.New())

	rr := env.do(t, http.MethodPost, "/posts", auth,
		`{"title":"t","content":"c","postType":"issue","governanceLevel":"national","extra":1}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "invalid_argument", decodeErr(t, rr).Code)

	rr = env.do(t, http.MethodPost, "/posts", auth,
		`{"title":"t","content":"c","postType":"rant","governanceLevel":"national"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, decodeErr(t, rr).Message, "postType")

	rr = env.do(t, http.MethodPost, "/posts", auth, ``)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodGet, "/posts/not-a-uuid", "", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodGet, "/locations/cities", "", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAIComments(t *testing.T) {
	auth := bearer(t, uuid.New())
	post := routerPost(uuid.New())

	t.Run("unknown action", func(t *testing.T) {
		env := newRouterEnv(t, nil)
		rr := env.do(t, http.MethodPost, "/ai/comments", auth, `{"action":"summarize","topicId":"`+post.ID.String()+`"}`)
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("topic required", func(t *testing.T) {
		env := newRouterEnv(t, nil)
		rr := env.do(t, http.MethodPost, "/ai/comments", auth, `{"action":"suggestions"}`)
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("digest needs two comments", func(t *testing.T) {
		env := newRouterEnv(t, nil)
		env.st.EXPECT().PostByID(gomock.Any(), post.ID).Return(post, nil)
		env.st.EXPECT().RecentComments(gomock.Any(), post.ID, 20).
			Return([]models.Comment{{ID: uuid.New(), PostID: post.ID, Content: "only one"}}, nil)

		rr := env.do(t, http.MethodPost, "/ai/comments", auth, `{"action":"analyze-discussion","topicId":"`+post.ID.String()+`"}`)
		require.Equal(t, http.StatusPreconditionFailed, rr.Code)
		require.Equal(t, "not_enough_comments", decodeErr(t, rr).Code)
	})

	t.Run("moderate preview fails open", func(t *testing.T) {
		env := newRouterEnv(t, nil)
		env.clf.EXPECT().Classify(gomock.Any(), classifier.KindCommentModerate, gomock.Any()).
			Return("", classifier.ErrDisabled)

		rr := env.do(t, http.MethodPost, "/ai/comments", auth, `{"action":"moderate","comment":"hello"}`)
		require.Equal(t, http.StatusOK, rr.Code)

		var v models.ModerationVerdict
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
		require.True(t, v.IsAppropriate)
	})

	t.Run("suggestions", func(t *testing.T) {
		env := newRouterEnv(t, nil)
		env.st.EXPECT().PostByID(gomock.Any(), post.ID).Return(post, nil)
		env.st.EXPECT().RecentComments(gomock.Any(), post.ID, 5).Return(nil, nil)
		env.clf.EXPECT().Classify(gomock.Any(), classifier.KindCommentSuggestions, gomock.Any()).
			Return(`["Has anyone filed an RTI?"]`, nil)

		rr := env.do(t, http.MethodPost, "/ai/comments", auth, `{"action":"suggestions","topicId":"`+post.ID.String()+`"}`)
		require.Equal(t, http.StatusOK, rr.Code)
		require.JSONEq(t, `{"suggestions":["Has anyone filed an RTI?"]}`, rr.Body.String())
	})
}

func TestAIEnhance(t *testing.T) {
	auth := bearer(t, uuid.New())

	env := newRouterEnv(t, nil)
	rr := env.do(t, http.MethodPost, "/ai/enhance", auth, `{"action":"suggestions","title":"Water supply"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	env.clf.EXPECT().Classify(gomock.Any(), classifier.KindTopicEnhance, gomock.Any()).
		Return("Water supply has been irregular for two weeks.", nil)
	rr = env.do(t, http.MethodPost, "/ai/enhance", auth, `{"action":"enhance","title":"Water supply"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"enhancedContent":"Water supply has been irregular for two weeks."}`, rr.Body.String())
}
