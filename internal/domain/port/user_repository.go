package port

import (
	"context"

	"zonewatch/internal/domain/entity"
)

// UserRepository хранилище диалогов бота: состояние и зоны пользователя
type UserRepository interface {
	// Get возвращает пользователя по ID, создаёт нового если не найден
	Get(ctx context.Context, userID, chatID int64) (*entity.User, error)

	// Save сохраняет пользователя целиком
	Save(ctx context.Context, user *entity.User) error

	// UpdateZones заменяет зоны пользователя
	UpdateZones(ctx context.Context, userID int64, zones []entity.Zone) error
}
