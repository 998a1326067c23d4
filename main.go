package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	alarmapp "renewable-monitor/internal/alarms/application"
	"renewable-monitor/internal/alarms/notify"
	"renewable-monitor/internal/analytics/domain/temporal"
	"renewable-monitor/internal/config"
	"renewable-monitor/internal/console"
	"renewable-monitor/internal/observability/metrics"
	"renewable-monitor/internal/provider"
	readings "renewable-monitor/internal/readings/domain"
	"renewable-monitor/internal/readings/infrastructure/flatfile"
	"renewable-monitor/internal/readings/infrastructure/postgres"
	sessionapp "renewable-monitor/internal/session/application"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Init(nil)
	if cfg.Metrics.Addr != "" {
		server := startMetricsServer(cfg.Metrics.Addr, logger)
		defer shutdown(server, logger)
	}

	files, err := flatfile.NewStore(cfg.Data.File)
	if err != nil {
		logger.Fatalf("data store error: %v", err)
	}
	calendar, err := temporal.NewCalendar(cfg.Calendar.Location)
	if err != nil {
		logger.Fatalf("calendar error: %v", err)
	}

	opts := []sessionapp.ServiceOption{
		sessionapp.WithLogger(logger),
		sessionapp.WithCalendar(calendar),
		sessionapp.WithDetector(alarmapp.NewDetector(cfg.Alerts.LowFraction)),
	}

	if cfg.Provider.BaseURL != "" {
		client, err := provider.NewClient(provider.Config{
			BaseURL:       cfg.Provider.BaseURL,
			APIKey:        cfg.Provider.APIKey,
			SigningSecret: cfg.Provider.SigningSecret,
			Issuer:        cfg.Provider.Issuer,
			Timeout:       cfg.Provider.Timeout,
			Retries:       cfg.Provider.Retries,
			Backoff:       cfg.Provider.Backoff,
			PageSize:      cfg.Provider.PageSize,
			MaxPages:      cfg.Provider.MaxPages,
		}, cfg.Thresholds)
		if err != nil {
			logger.Fatalf("provider error: %v", err)
		}
		opts = append(opts, sessionapp.WithFetcher(client))
	} else {
		logger.Printf("provider: base url not set, fetch disabled")
	}

	if cfg.Database.DSN != "" {
		db, err := sql.Open("pgx", cfg.Database.DSN)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		repo := postgres.NewSnapshotRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.Fatalf("db schema error: %v", err)
		}
		opts = append(opts, sessionapp.WithSnapshots(repo))
	}

	notifier, closeNotifier, err := buildNotifier(cfg, logger)
	if err != nil {
		logger.Fatalf("notifier error: %v", err)
	}
	defer closeNotifier()
	opts = append(opts, sessionapp.WithNotifier(notifier))

	svc, err := sessionapp.NewService(files, cfg.Storage.Model, opts...)
	if err != nil {
		logger.Fatalf("session error: %v", err)
	}

	state := readings.NewAppState(cfg.Storage.InitialLevel)
	if loaded, err := svc.Load(state, ""); err == nil {
		state = loaded
	} else if !errors.Is(err, flatfile.ErrFile) {
		logger.Printf("load error: %v", err)
	}

	if err := console.New(svc, state, os.Stdin, os.Stdout).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("console error: %v", err)
	}
}

func buildNotifier(cfg config.Config, logger *log.Logger) (notify.Notifier, func(), error) {
	tpl, err := notify.NewTemplate(cfg.Alerts.Template)
	if err != nil {
		return nil, nil, err
	}
	dispatcherOpts := []notify.Option{notify.WithDedupeWindow(cfg.Alerts.DedupeWindow)}

	logged, err := notify.NewDispatcher(notify.NewLogChannel(logger), tpl, dispatcherOpts...)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Alerts.MQTT.Broker == "" {
		return logged, func() {}, nil
	}

	client, err := notify.ConnectMQTT(notify.MQTTConfig{
		Broker:      cfg.Alerts.MQTT.Broker,
		ClientID:    cfg.Alerts.MQTT.ClientID,
		Username:    cfg.Alerts.MQTT.Username,
		Password:    cfg.Alerts.MQTT.Password,
		TopicPrefix: cfg.Alerts.MQTT.TopicPrefix,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	channel, err := notify.NewMQTTChannel(client, cfg.Alerts.MQTT.TopicPrefix)
	if err != nil {
		return nil, nil, err
	}
	published, err := notify.NewDispatcher(channel, tpl, dispatcherOpts...)
	if err != nil {
		return nil, nil, err
	}
	return notify.NewMultiNotifier(logged, published), func() { client.Disconnect(250) }, nil
}

func startMetricsServer(addr string, logger *log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Printf("metrics listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("metrics server error: %v", err)
		}
	}()
	return server
}

func shutdown(server *http.Server, logger *log.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Printf("metrics shutdown error: %v", err)
	}
}
