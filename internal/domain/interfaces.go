package domain

import (
	"context"
	"time"
)

// UserRepo управляет пользователями.
type UserRepo interface {
	Get(ctx context.Context, id string) (User, bool, error)
	Add(ctx context.Context, user User) error
	SetNotificationTime(ctx context.Context, id string, offset float64, local, utc string) error
	SetFront(ctx context.Context, id, front string) error
	Unsubscribe(ctx context.Context, id string) error
	ListByUTCTime(ctx context.Context, hhmm string) ([]User, error)
}

// ProfileAPI возвращает профиль пользователя с платформы.
type ProfileAPI interface {
	GetProfile(ctx context.Context, id string) (Profile, error)
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}

// NotifyQueue — очередь задач на доставку рассылки.
type NotifyQueue interface {
	Enqueue(ctx context.Context, job NotifyJob) error
	Pop(ctx context.Context) (NotifyJob, error)
}
