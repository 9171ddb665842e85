package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"fb-newsbot/internal/adapters/bot"
	"fb-newsbot/internal/adapters/capi"
	"fb-newsbot/internal/adapters/facebook"
	"fb-newsbot/internal/adapters/repo"
	"fb-newsbot/internal/domain"
	"fb-newsbot/internal/infra/cache"
	"fb-newsbot/internal/infra/config"
	"fb-newsbot/internal/infra/db"
	"fb-newsbot/internal/infra/log"
	"fb-newsbot/internal/infra/metrics"
	"fb-newsbot/internal/infra/queue"
	"fb-newsbot/internal/usecase/intent"
	"fb-newsbot/internal/usecase/schedule"
	"fb-newsbot/internal/usecase/topics"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)
	metrics.MustRegister(prometheus.DefaultRegisterer)

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("notifier: нет подключения к БД")
	}
	defer pool.Close()

	var contentCache domain.Cache = cache.NewMemory()
	if cfg.RedisAddr != "" {
		contentCache = cache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	var jobs domain.NotifyQueue
	if cfg.Rabbit.ManagementURL != "" {
		jobs, err = queue.NewRabbitNotifyQueue(cfg.Rabbit.URL, cfg.Rabbit.ManagementURL, cfg.Queues.Notify)
		if err != nil {
			logger.Fatal().Err(err).Msg("notifier: не удалось подключиться к RabbitMQ")
		}
	} else {
		jobs = queue.NewRedisNotifyQueue(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), cfg.Queues.Notify)
	}

	catalog := topics.MustLoad()
	users := repo.NewPostgres(pool)
	fb := facebook.NewClient(cfg.Facebook.BaseURL, cfg.Facebook.AccessToken, cfg.Facebook.SendRPS, logger)
	defer fb.Close()
	content := capi.NewClient(
		cfg.Capi.BaseURL, cfg.Capi.APIKey, cfg.Capi.DefaultImageURL,
		catalog, contentCache, time.Duration(cfg.Capi.CacheTTLSeconds)*time.Second, logger,
	)
	scheduleService := schedule.NewService(users, fb)
	handler := bot.NewHandler(fb, content, users, fb, scheduleService, intent.NewResolver(catalog), catalog, bot.NewMessages(time.Now().UnixNano()), logger)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
		<-stop
		logger.Info().Msg("notifier: остановка")
		cancel()
	}()

	metrics.StartServer(ctx, logger, ":9092")

	for {
		job, err := jobs.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			logger.Error().Err(err).Msg("notifier: не удалось получить задачу")
			time.Sleep(time.Second)
			continue
		}
		user, found, err := users.Get(ctx, job.UserID)
		if err != nil {
			logger.Error().Err(err).Str("user", job.UserID).Msg("notifier: не удалось получить пользователя")
			continue
		}
		if !found || !user.Subscribed() {
			// Пользователь отписался после постановки задачи.
			continue
		}
		if err := handler.MorningBriefing(ctx, user); err != nil {
			logger.Error().Err(err).Str("user", job.UserID).Str("job", job.ID).Msg("notifier: не удалось доставить рассылку")
			continue
		}
		logger.Info().Str("user", job.UserID).Str("cause", job.Cause).Msg("notifier: рассылка доставлена")
	}
}
