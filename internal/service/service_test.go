package service

// Общие хелперы тестов сервисного слоя.
//
// Подготовка окружения:
//   # 1) Сгенерировать моки:
//   go generate ./internal/storage ./internal/classifier
//
//   # 2) Запустить тесты:
//   go test ./internal/service -v -race -count=1
//
// Сервис собирается с моком стораджа и настоящим insights.Engine поверх мока
// классификатора: так тесты проверяют полную цепочку гейт -> запись -> пересчёт.

import (
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/pribylovaa/sabha/internal/config"
	"github.com/pribylovaa/sabha/internal/insights"
	"github.com/pribylovaa/sabha/internal/models"
	"github.com/pribylovaa/sabha/mocks"
)

func testCfg() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "unit-secret",
			AccessTokenTTL:  30 * time.Second,
			RefreshTokenTTL: 24 * time.Hour,
			Issuer:          "sabha",
			Audience:        []string{"sabha-web"},
		},
		Limits: config.LimitsConfig{
			PageDefault:        20,
			PageMax:            100,
			DigestComments:     20,
			SuggestionComments: 5,
		},
	}
}

type testEnv struct {
	svc *Service
	st  *mocks.MockStorage
	clf *mocks.MockClassifier
}

func newEnv(t *testing.T) testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)
	clf := mocks.NewMockClassifier(ctrl)
	svc := New(st, insights.New(clf, time.Second), testCfg())
	return testEnv{svc: svc, st: st, clf: clf}
}

func testPost(authorID uuid.UUID) *models.Post {
	now := time.Now().UTC()
	return &models.Post{
		ID:         uuid.New(),
		Title:      "Streetlights out on 5th Cross",
		Content:    "Half the lights have been dark for a month.",
		AuthorID:   authorID,
		AuthorName: "Asha",
		PostType:   models.PostTypeIssue,
		Priority:   models.PriorityMedium,
		Governance: models.GovernanceLocal,
		Status:     models.StatusOpen,
		Location:   "Bengaluru",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
