// minio предоставляет реализацию storage.Avatars на базе MinIO/S3.
//
// minio.go: конструктор клиента: нормализует endpoint, настраивает Secure/creds
// и проверяет наличие целевого бакета.
// avatars.go: presigned PUT для загрузки и подтверждение факта загрузки.
package minio

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pribylovaa/sabha/internal/config"
	"github.com/pribylovaa/sabha/internal/storage"
)

// AvatarsStorage: адаптер MinIO для операций с аватарами пользователей.
type AvatarsStorage struct {
	s3     config.S3Config
	avatar config.AvatarConfig
	client *mclient.Client
}

// New создает и инициализирует клиент MinIO.
// Схема endpoint'а (http/https) определяет Secure; без схемы: по префиксу.
// Отсутствующий бакет: ошибка старта.
func New(ctx context.Context, s3 config.S3Config, avatar config.AvatarConfig) (*AvatarsStorage, error) {
	const op = "storage/minio/New"

	endpoint := s3.Endpoint
	secure := strings.HasPrefix(endpoint, "https://")
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" && u.Host != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(s3.RootUser, s3.RootPassword, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, s3.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !exists {
		return nil, fmt.Errorf("%s: bucket %q does not exist", op, s3.Bucket)
	}

	return &AvatarsStorage{s3: s3, avatar: avatar, client: client}, nil
}

// Проверка выполнения контракта верхнего уровня.
var _ storage.Avatars = (*AvatarsStorage)(nil)
