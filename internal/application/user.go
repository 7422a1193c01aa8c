package app

import (
	"context"
	"encoding/json"
	"fmt"

	"zonewatch/internal/domain/entity"
	"zonewatch/internal/domain/port"
)

type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.SetState(state)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) BeginZones(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingZones)
}

func (s *UserService) BeginScan(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingVideo)
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

// AcceptZones разбирает JSON со списком зон, проверяет и сохраняет их.
// После этого бот ждёт видео.
func (s *UserService) AcceptZones(ctx context.Context, userID, chatID int64, raw string) (*entity.User, error) {
	var zones []entity.Zone
	if err := json.Unmarshal([]byte(raw), &zones); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrMalformedZone, err)
	}
	if err := entity.ValidateZones(zones); err != nil {
		return nil, err
	}

	if _, err := s.repo.Get(ctx, userID, chatID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateZones(ctx, userID, zones); err != nil {
		return nil, err
	}
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingVideo)
}

// ClearZones возвращает пользователя к анализу всего кадра
func (s *UserService) ClearZones(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	if _, err := s.repo.Get(ctx, userID, chatID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateZones(ctx, userID, nil); err != nil {
		return nil, err
	}
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingVideo)
}
