package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	WebhookEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Входящие события вебхука по имени события",
	}, []string{"event"})

	SendErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "messenger_send_errors_total",
		Help: "Ошибки отправки сообщений в Messenger",
	})

	NotifyMatchedUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "notify_matched_users",
		Help: "Число пользователей, совпавших с текущим тиком рассылки",
	})

	NotifyDriftRepairs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notify_drift_repairs_total",
		Help: "Число исправлений UTC-времени после смены часового пояса",
	})

	NotifyJobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_jobs_total",
		Help: "Задачи рассылки по причинам",
	}, []string{"cause"})

	CacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "content_cache_requests_total",
		Help: "Обращения к кэшу контентного API",
	}, []string{"result"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		WebhookEventsTotal,
		SendErrors,
		NotifyMatchedUsers,
		NotifyDriftRepairs,
		NotifyJobsTotal,
		CacheHits,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}
