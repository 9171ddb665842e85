package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

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
	"fb-newsbot/internal/usecase/notify"
	"fb-newsbot/internal/usecase/topics"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)
	metrics.MustRegister(prometheus.DefaultRegisterer)

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: нет подключения к БД")
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
			logger.Fatal().Err(err).Msg("scheduler: не удалось подключиться к RabbitMQ")
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

	service := notify.NewService(users, fb, content, jobs, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
		<-stop
		logger.Info().Msg("scheduler: остановка")
		cancel()
	}()

	metrics.StartServer(ctx, logger, ":9091")

	if err := service.Run(ctx); err != nil && err != context.Canceled {
		logger.Fatal().Err(err).Msg("scheduler: цикл завершился с ошибкой")
	}
}

var _ notify.ContentWarmer = (*capi.Client)(nil)
