package postgres

import (
	"encoding/base64"
	"errors"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/sabha/internal/models"
)

// pageKeyVersion: префикс формата токена; смена формата делает старые токены недействительными.
const pageKeyVersion = "p1"

var errForeignPageToken = errors.New("page token issued for another filter")

// pageKey: позиция в выдаче (created_at DESC, id DESC) и отпечаток фильтра,
// под который она выдана.
type pageKey struct {
	CreatedAt time.Time
	ID        uuid.UUID
	Filter    uint32
}

// filterPrint: отпечаток условий выборки без размера страницы и самого токена.
// Размер страницы между запросами менять можно, фильтры нельзя.
func filterPrint(f models.PostFilter) uint32 {
	category := ""
	if f.CategoryID != nil {
		category = f.CategoryID.String()
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.Join([]string{
		string(f.Type),
		string(f.Priority),
		string(f.Governance),
		string(f.Status),
		strings.ToLower(strings.TrimSpace(f.Location)),
		category,
	}, "\x1f")))

	return h.Sum32()
}

// encodePageToken: p1.<unix nanos>.<id>.<отпечаток>, закодированное base64url.
func encodePageToken(k pageKey) string {
	raw := strings.Join([]string{
		pageKeyVersion,
		strconv.FormatInt(k.CreatedAt.UTC().UnixNano(), 10),
		k.ID.String(),
		strconv.FormatUint(uint64(k.Filter), 16),
	}, ".")

	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// decodePageToken разбирает токен и сверяет его с текущим фильтром.
func decodePageToken(token string, filter uint32) (pageKey, error) {
	res, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return pageKey{}, err
	}

	parts := strings.Split(string(res), ".")
	if len(parts) != 4 || parts[0] != pageKeyVersion {
		return pageKey{}, errors.New("unknown page token format")
	}

	nanos, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return pageKey{}, err
	}

	id, err := uuid.Parse(parts[2])
	if err != nil {
		return pageKey{}, err
	}

	fp, err := strconv.ParseUint(parts[3], 16, 32)
	if err != nil {
		return pageKey{}, err
	}
	if uint32(fp) != filter {
		return pageKey{}, errForeignPageToken
	}

	return pageKey{CreatedAt: time.Unix(0, nanos).UTC(), ID: id, Filter: filter}, nil
}
