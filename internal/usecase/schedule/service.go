package schedule

import (
	"context"
	"fmt"
	"math"
	"time"

	"fb-newsbot/internal/domain"
)

// ToUTC переводит локальное время "HH:mm" в UTC по смещению в часах.
// Смещение может быть дробным (например 5.75 — 5 часов 45 минут) и
// лежит в диапазоне [-24, 24]; результат заворачивается через полночь.
// Некорректная строка времени возвращается как есть.
func ToUTC(local string, offsetHours float64) string {
	t, err := time.Parse("15:04", local)
	if err != nil {
		return local
	}
	offsetMinutes := int(math.Round(offsetHours * 60))
	total := t.Hour()*60 + t.Minute() - offsetMinutes
	total %= 24 * 60
	if total < 0 {
		total += 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Service отвечает за подписку пользователя на утреннюю рассылку.
type Service struct {
	users    domain.UserRepo
	profiles domain.ProfileAPI
}

// NewService создаёт сервис.
func NewService(users domain.UserRepo, profiles domain.ProfileAPI) *Service {
	return &Service{users: users, profiles: profiles}
}

// Subscribe сохраняет выбранный час доставки: берёт текущее смещение из
// профиля, строит локальное и UTC время и персистит все три поля разом.
// Отсутствующее смещение трактуется как UTC.
func (s *Service) Subscribe(ctx context.Context, id string, hour int) (local string, utc string, err error) {
	profile, err := s.profiles.GetProfile(ctx, id)
	if err != nil {
		return "", "", fmt.Errorf("профиль пользователя: %w", err)
	}
	var offset float64
	if profile.Timezone != nil {
		offset = *profile.Timezone
	}
	local = fmt.Sprintf("%02d:00", hour)
	utc = ToUTC(local, offset)
	if err := s.users.SetNotificationTime(ctx, id, offset, local, utc); err != nil {
		return "", "", fmt.Errorf("сохранение времени рассылки: %w", err)
	}
	return local, utc, nil
}

// Unsubscribe сбрасывает оба поля времени в маркер "не подписан".
func (s *Service) Unsubscribe(ctx context.Context, id string) error {
	if err := s.users.Unsubscribe(ctx, id); err != nil {
		return fmt.Errorf("отписка: %w", err)
	}
	return nil
}

// ChangeFront обновляет издание пользователя.
func (s *Service) ChangeFront(ctx context.Context, id, front string) error {
	if err := s.users.SetFront(ctx, id, front); err != nil {
		return fmt.Errorf("смена издания: %w", err)
	}
	return nil
}
