package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fb-newsbot/internal/domain"
	"fb-newsbot/internal/infra/metrics"
	"fb-newsbot/internal/usecase/schedule"
	"fb-newsbot/internal/usecase/topics"
)

// ContentWarmer прогревает кэш контента перед массовой рассылкой.
type ContentWarmer interface {
	WarmFront(ctx context.Context, front string) error
}

// Service раз в четверть часа (минимальный шаг между часовыми поясами)
// выбирает пользователей с notification_time_utc, равным текущему тику,
// и ставит каждому задачу на доставку утренней рассылки. Попутно сверяет
// сохранённое смещение с актуальным и чинит UTC-время при переезде.
type Service struct {
	users    domain.UserRepo
	profiles domain.ProfileAPI
	warmer   ContentWarmer
	queue    domain.NotifyQueue
	log      zerolog.Logger
	now      func() time.Time
}

// NewService создаёт планировщик.
func NewService(users domain.UserRepo, profiles domain.ProfileAPI, warmer ContentWarmer, queue domain.NotifyQueue, log zerolog.Logger) *Service {
	return &Service{users: users, profiles: profiles, warmer: warmer, queue: queue, log: log, now: time.Now}
}

// Run крутит вечный цикл по границам четверти часа (минуты 0/15/30/45).
func (s *Service) Run(ctx context.Context) error {
	for {
		next := nextQuarterHour(s.now())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(next)):
		}
		if err := s.Tick(ctx, next); err != nil {
			s.log.Error().Err(err).Msg("scheduler: тик завершился с ошибкой")
		}
	}
}

// Tick обрабатывает один тик. Повторный запуск с той же минутой безопасен:
// выборка и отправка просто повторятся, дедупликации между тиками нет.
func (s *Service) Tick(ctx context.Context, now time.Time) error {
	hhmm := now.UTC().Format("15:04")
	s.log.Info().Str("time", hhmm).Msg("scheduler: ищем пользователей")

	users, err := s.users.ListByUTCTime(ctx, hhmm)
	if err != nil {
		return fmt.Errorf("выборка пользователей: %w", err)
	}
	metrics.NotifyMatchedUsers.Set(float64(len(users)))
	s.log.Info().Int("count", len(users)).Msg("scheduler: пользователи найдены")
	if len(users) == 0 {
		return nil
	}

	// Прогреваем кэш по всем изданиям до обработки пользователей,
	// иначе первая волна уйдёт дублями в контентный API.
	for _, front := range topics.Fronts {
		if err := s.warmer.WarmFront(ctx, front); err != nil {
			s.log.Warn().Err(err).Str("front", front).Msg("scheduler: прогрев не удался")
		}
	}

	for _, user := range users {
		s.notifyUser(ctx, user)
	}
	return nil
}

func (s *Service) notifyUser(ctx context.Context, user domain.User) {
	profile, err := s.profiles.GetProfile(ctx, user.ID)
	if err != nil {
		s.log.Error().Err(err).Str("user", user.ID).Msg("scheduler: профиль недоступен, пропускаем")
		return
	}
	if profile.Timezone == nil {
		// Платформа иногда не отдаёт смещение — лучше отправить, чем молча пропустить.
		s.log.Warn().Str("user", user.ID).Msg("scheduler: в профиле нет смещения, отправляем как есть")
		s.enqueue(ctx, user, domain.NotifyCauseSchedule)
		return
	}

	latest := *profile.Timezone
	if latest == user.OffsetHours {
		s.enqueue(ctx, user, domain.NotifyCauseSchedule)
		return
	}

	// Часовой пояс сменился с прошлого запуска.
	if latest < user.OffsetHours {
		// По новому поясу локальное время рассылки уже прошло — шлём сейчас.
		s.enqueue(ctx, user, domain.NotifyCauseDriftRepair)
	}
	utc := schedule.ToUTC(user.NotificationTime, latest)
	if err := s.users.SetNotificationTime(ctx, user.ID, latest, user.NotificationTime, utc); err != nil {
		s.log.Error().Err(err).Str("user", user.ID).Msg("scheduler: не удалось починить время рассылки")
		return
	}
	metrics.NotifyDriftRepairs.Inc()
	s.log.Info().Str("user", user.ID).Float64("offset", latest).Str("utc", utc).Msg("scheduler: время рассылки исправлено")
}

func (s *Service) enqueue(ctx context.Context, user domain.User, cause string) {
	job := domain.NotifyJob{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Front:       user.Front,
		RequestedAt: s.now().UTC(),
		Cause:       cause,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.log.Error().Err(err).Str("user", user.ID).Msg("scheduler: не удалось поставить задачу рассылки")
		return
	}
	metrics.NotifyJobsTotal.WithLabelValues(cause).Inc()
}

func nextQuarterHour(now time.Time) time.Time {
	now = now.UTC().Truncate(time.Minute)
	step := 15 - now.Minute()%15
	return now.Add(time.Duration(step) * time.Minute)
}
