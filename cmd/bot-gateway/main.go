package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
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
	infrahttp "fb-newsbot/internal/infra/http"
	"fb-newsbot/internal/infra/log"
	"fb-newsbot/internal/infra/metrics"
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
		logger.Fatal().Err(err).Msg("не удалось подключиться к БД")
	}
	defer pool.Close()

	var contentCache domain.Cache = cache.NewMemory()
	if cfg.RedisAddr != "" {
		contentCache = cache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
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

	srv := infrahttp.NewServer(logger)
	srv.Router.Get("/webhook", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("hub.verify_token") != cfg.Facebook.VerifyToken {
			http.Error(w, "bad verify token", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, r.URL.Query().Get("hub.challenge"))
	})
	srv.Router.Post("/webhook", func(w http.ResponseWriter, r *http.Request) {
		var req bot.WebhookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		handler.HandleWebhook(r.Context(), req)
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := srv.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP сервер остановлен")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	logger.Info().Msg("остановка бот-гейтвея")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

var _ domain.UserRepo = (*repo.Postgres)(nil)
var _ domain.ProfileAPI = (*facebook.Client)(nil)
var _ bot.Sender = (*facebook.Client)(nil)
var _ bot.ContentClient = (*capi.Client)(nil)
