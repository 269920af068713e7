package postgres

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/sabha/internal/models"
	"github.com/stretchr/testify/require"
)

// Юнит-тесты page_token (без БД).
//
// Покрытие:
//   - round-trip позиции и отпечатка фильтра;
//   - отпечаток не зависит от размера страницы и самого токена, регистра location;
//   - токен, выданный под другой фильтр, отклоняется;
//   - мусорные токены и чужой формат.
//
// Запуск:
//   go test ./internal/storage/postgres -run PageToken -v -count=1

func TestPageToken_RoundTrip(t *testing.T) {
	t.Parallel()

	fp := filterPrint(models.PostFilter{Type: models.PostTypeIssue})
	key := pageKey{
		CreatedAt: time.Date(2025, 3, 1, 12, 30, 0, 123456000, time.UTC),
		ID:        uuid.New(),
		Filter:    fp,
	}

	got, err := decodePageToken(encodePageToken(key), fp)
	require.NoError(t, err)
	require.True(t, key.CreatedAt.Equal(got.CreatedAt))
	require.Equal(t, key.ID, got.ID)
	require.Equal(t, fp, got.Filter)
}

func TestPageToken_FilterPrint(t *testing.T) {
	t.Parallel()

	cat := uuid.New()
	base := models.PostFilter{Type: models.PostTypeIssue, Location: "Pune", CategoryID: &cat}

	same := base
	same.PageSize = 50
	same.PageToken = "anything"
	same.Location = "  pune "
	require.Equal(t, filterPrint(base), filterPrint(same))

	other := base
	other.Status = models.StatusResolved
	require.NotEqual(t, filterPrint(base), filterPrint(other))

	noCat := base
	noCat.CategoryID = nil
	require.NotEqual(t, filterPrint(base), filterPrint(noCat))
}

func TestPageToken_ForeignFilter(t *testing.T) {
	t.Parallel()

	issues := filterPrint(models.PostFilter{Type: models.PostTypeIssue})
	ideas := filterPrint(models.PostFilter{Type: models.PostTypeSuggestion})

	token := encodePageToken(pageKey{CreatedAt: time.Now(), ID: uuid.New(), Filter: issues})

	_, err := decodePageToken(token, ideas)
	require.ErrorIs(t, err, errForeignPageToken)
}

func TestPageToken_Invalid(t *testing.T) {
	t.Parallel()

	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }
	id := uuid.NewString()

	cases := map[string]string{
		"not base64":     "%%%",
		"old format":     enc("12345|" + id),
		"wrong version":  enc("p0.12345." + id + ".0"),
		"bad time":       enc("p1.abc." + id + ".0"),
		"bad uuid":       enc("p1.12345.not-a-uuid.0"),
		"bad print":      enc("p1.12345." + id + ".zz"),
		"too many parts": enc("p1.12345." + id + ".0.0"),
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decodePageToken(token, 0)
			require.Error(t, err)
		})
	}
}
