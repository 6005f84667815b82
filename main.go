package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"rental-calendar/internal/audit"
	"rental-calendar/internal/auth"
	calendarapp "rental-calendar/internal/calendar/application"
	"rental-calendar/internal/calendar/infrastructure/kv"
	"rental-calendar/internal/calendar/infrastructure/remote"
	calendarhttp "rental-calendar/internal/calendar/interfaces/http"
	"rental-calendar/internal/config"
	"rental-calendar/internal/notify"
	"rental-calendar/internal/observability/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	backend, err := kv.Open(ctx, cfg.Cache, logger)
	if err != nil {
		logger.Fatalf("cache backend error: %v", err)
	}
	defer backend.Close()

	metrics.Init(backend.DB, backend.Table, logger)

	cache, err := calendarapp.NewStationCache(backend.Store, logger)
	if err != nil {
		logger.Fatalf("station cache error: %v", err)
	}
	remoteClient, err := remote.NewClient(cfg.Remote.BaseURL, remote.WithTimeout(cfg.Remote.Timeout))
	if err != nil {
		logger.Fatalf("remote client error: %v", err)
	}

	broker := calendarhttp.NewSSEBroker()
	notifiers := []calendarapp.Notifier{broker, notify.NewLogNotifier(logger)}
	if cfg.Notify.WebhookURL != "" {
		webhook, err := notify.NewWebhookNotifier(cfg.Notify.WebhookURL, logger)
		if err != nil {
			logger.Fatalf("webhook notifier error: %v", err)
		}
		notifiers = append(notifiers, webhook)
	}

	store, err := calendarapp.NewStore(cache, remoteClient, notify.NewMultiNotifier(notifiers...), calendarapp.SystemClock{}, logger)
	if err != nil {
		logger.Fatalf("calendar store error: %v", err)
	}
	if err := store.LoadStations(ctx); err != nil {
		logger.Printf("initial station load failed: %v", err)
	}

	auditLogger, err := buildAuditLogger(ctx, cfg, backend.DB, logger)
	if err != nil {
		logger.Fatalf("audit error: %v", err)
	}
	calendarHandler, err := calendarhttp.NewHandler(store, remoteClient, auditLogger, logger)
	if err != nil {
		logger.Fatalf("calendar handler error: %v", err)
	}

	mux := http.NewServeMux()
	calendarHandler.Register(mux)
	mux.Handle("/api/v1/calendar/stream", calendarhttp.NewStreamHandler(broker))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var handler http.Handler = mux
	if cfg.Auth.Enabled {
		policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
		handler = auth.NewMiddleware([]byte(cfg.Auth.JWTSecret), policy).Wrap(mux)
	}

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(handler, logger)}
	logger.Printf("http listening on %s (cache=%s)", cfg.HTTPAddr, cfg.Cache.Driver)
	logger.Fatal(server.ListenAndServe())
}

func buildAuditLogger(ctx context.Context, cfg config.Config, db *sql.DB, logger *log.Logger) (audit.Logger, error) {
	if !cfg.Audit.Enabled {
		return nil, nil
	}
	if db == nil {
		return audit.NewLogLogger(logger), nil
	}
	repo := audit.NewRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

// ---- HTTP ----

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Flush keeps the SSE stream working behind the access log.
func (w *statusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
