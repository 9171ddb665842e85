package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fb-newsbot/internal/domain"
	"fb-newsbot/internal/infra/metrics"
)

// Postgres реализует domain.UserRepo на основе pgxpool.
//
// Ожидаемая схема:
//
//	CREATE TABLE users (
//	    id                    text PRIMARY KEY,
//	    front                 text NOT NULL DEFAULT 'international',
//	    notification_time     text NOT NULL DEFAULT '-',
//	    notification_time_utc text NOT NULL DEFAULT '-',
//	    offset_hours          double precision NOT NULL DEFAULT 0,
//	    created_at            timestamptz NOT NULL DEFAULT now(),
//	    updated_at            timestamptz NOT NULL DEFAULT now()
//	);
//	CREATE INDEX users_notification_time_utc_idx ON users (notification_time_utc);
type Postgres struct {
	pool *pgxpool.Pool
}

var _ domain.UserRepo = (*Postgres)(nil)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// Get возвращает пользователя; второй результат — найден ли он.
func (p *Postgres) Get(ctx context.Context, id string) (domain.User, bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var user domain.User
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, front, notification_time, notification_time_utc, offset_hours
FROM users WHERE id = $1
`, id).Scan(&user.ID, &user.Front, &user.NotificationTime, &user.NotificationTimeUTC, &user.OffsetHours)
	metrics.ObserveNetworkRequest("postgres", "users_get", "users", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, err
	}
	return user, true, nil
}

// Add создаёт запись пользователя. Повторная вставка того же id не ошибка:
// события start могут приходить дублями.
func (p *Postgres) Add(ctx context.Context, user domain.User) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO users (id, front, notification_time, notification_time_utc, offset_hours)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO NOTHING
`, user.ID, user.Front, user.NotificationTime, user.NotificationTimeUTC, user.OffsetHours)
	metrics.ObserveNetworkRequest("postgres", "users_insert", "users", start, err)
	return err
}

// SetNotificationTime сохраняет смещение и оба поля времени одной командой.
func (p *Postgres) SetNotificationTime(ctx context.Context, id string, offset float64, local, utc string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE users
SET offset_hours = $2, notification_time = $3, notification_time_utc = $4, updated_at = now()
WHERE id = $1
`, id, offset, local, utc)
	metrics.ObserveNetworkRequest("postgres", "users_set_notification_time", "users", start, err)
	return err
}

// SetFront обновляет издание пользователя.
func (p *Postgres) SetFront(ctx context.Context, id, front string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE users SET front = $2, updated_at = now() WHERE id = $1
`, id, front)
	metrics.ObserveNetworkRequest("postgres", "users_set_front", "users", start, err)
	return err
}

// Unsubscribe сбрасывает оба поля времени в маркер.
func (p *Postgres) Unsubscribe(ctx context.Context, id string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE users
SET notification_time = $2, notification_time_utc = $2, updated_at = now()
WHERE id = $1
`, id, domain.NotSubscribed)
	metrics.ObserveNetworkRequest("postgres", "users_unsubscribe", "users", start, err)
	return err
}

// ListByUTCTime возвращает всех пользователей с данным UTC-временем рассылки.
// Запрос идёт по индексу users_notification_time_utc_idx.
func (p *Postgres) ListByUTCTime(ctx context.Context, hhmm string) ([]domain.User, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, front, notification_time, notification_time_utc, offset_hours
FROM users WHERE notification_time_utc = $1
`, hhmm)
	metrics.ObserveNetworkRequest("postgres", "users_list_by_utc", "users", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Front, &user.NotificationTime, &user.NotificationTimeUTC, &user.OffsetHours); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
