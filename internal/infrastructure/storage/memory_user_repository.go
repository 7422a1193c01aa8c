package storage

import (
	"context"
	"sync"

	"zonewatch/internal/domain/entity"
	"zonewatch/internal/domain/port"
)

// MemoryUserRepository in-memory хранилище диалогов бота
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[int64]*entity.User
}

// NewMemoryUserRepository создаёт новое in-memory хранилище
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]*entity.User),
	}
}

// Get возвращает копию пользователя по ID, создаёт нового если не найден.
// Изменения видны другим только после Save.
func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[userID]
	if !exists {
		user = entity.NewUser(userID, chatID)
		r.users[userID] = user
	}
	return cloneUser(user), nil
}

// Save сохраняет пользователя
func (r *MemoryUserRepository) Save(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	r.users[user.ID] = cloneUser(user)
	r.mu.Unlock()

	return nil
}

func cloneUser(u *entity.User) *entity.User {
	c := *u
	c.SetZones(u.Zones)
	return &c
}

// UpdateZones заменяет зоны пользователя, если он уже известен
func (r *MemoryUserRepository) UpdateZones(ctx context.Context, userID int64, zones []entity.Zone) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, exists := r.users[userID]; exists {
		user.SetZones(zones)
	}

	return nil
}

// Проверка реализации интерфейса
var _ port.UserRepository = (*MemoryUserRepository)(nil)
