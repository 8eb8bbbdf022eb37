// Package app assembles the client core: config, logging, metrics, the token
// store, the API client, the session manager and the resource services.
package app

import (
	"context"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/jwalitptl/healthhub-client/config"
	"github.com/jwalitptl/healthhub-client/internal/apiclient"
	"github.com/jwalitptl/healthhub-client/internal/service/analytics"
	"github.com/jwalitptl/healthhub-client/internal/service/auth"
	"github.com/jwalitptl/healthhub-client/internal/service/family"
	"github.com/jwalitptl/healthhub-client/internal/service/medicine"
	"github.com/jwalitptl/healthhub-client/internal/service/record"
	"github.com/jwalitptl/healthhub-client/internal/service/scan"
	"github.com/jwalitptl/healthhub-client/internal/session"
	"github.com/jwalitptl/healthhub-client/internal/tokenstore"
	"github.com/jwalitptl/healthhub-client/pkg/logger"
	"github.com/jwalitptl/healthhub-client/pkg/messaging"
	redisbroker "github.com/jwalitptl/healthhub-client/pkg/messaging/redis"
	"github.com/jwalitptl/healthhub-client/pkg/metrics"
)

// connectTimeout bounds backend setup that happens while providers run.
const connectTimeout = 10 * time.Second

var Module = fx.Options(
	fx.Provide(
		NewLogger,
		NewRegistry,
		NewMetrics,
		NewTokenStore,
		NewAPIClient,
		NewAuthService,
		NewSessionManager,
		NewBroker,
		NewMedicineService,
		NewFamilyService,
		NewRecordService,
		NewAnalyticsService,
		NewScanImporter,
	),
	fx.Invoke(ConnectSession, PublishSessionEvents),
)

// Client is everything a presentation layer needs.
type Client struct {
	fx.In

	Config    *config.Config
	Logger    *logger.Logger
	Session   *session.Manager
	Medicines *medicine.Service
	Family    *family.Service
	Records   *record.Service
	Analytics *analytics.Service
	Importer  *scan.Importer
	Broker    messaging.Broker `optional:"true"`
}

// New builds the application for cfg. Extra options are appended, e.g.
// Populate or fx.Replace in tests.
func New(cfg *config.Config, opts ...fx.Option) *fx.App {
	base := []fx.Option{
		fx.Supply(cfg),
		Module,
		fx.WithLogger(NewFxLogger),
	}
	return fx.New(append(base, opts...)...)
}

// Populate copies the assembled Client into dst once the graph is built.
func Populate(dst *Client) fx.Option {
	return fx.Invoke(func(c Client) { *dst = c })
}

func NewLogger(cfg *config.Config) *logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stderr,
		JSON:       cfg.Log.Format == "json",
	})
}

func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func NewMetrics(cfg *config.Config, reg *prometheus.Registry) *metrics.Metrics {
	return metrics.NewMetrics(cfg.Metrics.Namespace, reg)
}

func NewTokenStore(lc fx.Lifecycle, cfg *config.Config, log *logger.Logger, m *metrics.Metrics) (tokenstore.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	store, err := tokenstore.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	store = tokenstore.Instrument(store, m, cfg.Session.Backend)

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			if c, ok := store.(tokenstore.Closer); ok {
				return c.Close()
			}
			return nil
		},
	})
	return store, nil
}

func NewAPIClient(cfg *config.Config, log *logger.Logger, m *metrics.Metrics) (*apiclient.Client, error) {
	opts := []apiclient.Option{
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithUserAgent(cfg.API.UserAgent),
		apiclient.WithLogger(log),
		apiclient.WithMetrics(m),
	}
	if cfg.RateLimit.Enabled {
		opts = append(opts, apiclient.WithRateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	}
	return apiclient.New(cfg.API.BaseURL, opts...)
}

func NewAuthService(client *apiclient.Client) *auth.Service {
	return auth.NewService(client)
}

// NewSessionManager loads persisted credentials when the app starts.
// A store that cannot be read leaves the session signed out.
func NewSessionManager(lc fx.Lifecycle, store tokenstore.Store, authSvc *auth.Service, log *logger.Logger, m *metrics.Metrics) *session.Manager {
	mgr := session.NewManager(store, authSvc, session.WithLogger(log), session.WithMetrics(m))
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := mgr.Bootstrap(ctx); err != nil {
				log.Warn("starting signed out", "error", err.Error())
			}
			return nil
		},
	})
	return mgr
}

// ConnectSession makes the client send the session's token and expire the
// session when the backend rejects it.
func ConnectSession(client *apiclient.Client, mgr *session.Manager) {
	client.SetTokenSource(mgr)
	client.OnUnauthorized(func(ctx context.Context, token string) {
		mgr.Expire(ctx, token)
	})
}

// NewBroker connects to redis pub/sub when session.channel is set, and
// returns nil otherwise.
func NewBroker(lc fx.Lifecycle, cfg *config.Config, log *logger.Logger) (messaging.Broker, error) {
	if cfg.Session.Channel == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	broker, err := redisbroker.NewRedisBroker(ctx, redisbroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return broker.Close()
		},
	})
	return broker, nil
}

func PublishSessionEvents(cfg *config.Config, mgr *session.Manager, broker messaging.Broker, log *logger.Logger) {
	if broker == nil {
		return
	}
	mgr.Subscribe(session.PublishTo(broker, cfg.Session.Channel, log))
}

func closeOnStop(lc fx.Lifecycle, fn func()) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			fn()
			return nil
		},
	})
}

func NewMedicineService(lc fx.Lifecycle, client *apiclient.Client, log *logger.Logger, m *metrics.Metrics) *medicine.Service {
	svc := medicine.NewService(client, log, m)
	closeOnStop(lc, svc.Close)
	return svc
}

func NewFamilyService(lc fx.Lifecycle, client *apiclient.Client, log *logger.Logger, m *metrics.Metrics) *family.Service {
	svc := family.NewService(client, log, m)
	closeOnStop(lc, svc.Close)
	return svc
}

func NewRecordService(lc fx.Lifecycle, client *apiclient.Client, log *logger.Logger, m *metrics.Metrics) *record.Service {
	svc := record.NewService(client, log, m)
	closeOnStop(lc, svc.Close)
	return svc
}

func NewAnalyticsService(lc fx.Lifecycle, client *apiclient.Client, log *logger.Logger) *analytics.Service {
	svc := analytics.NewService(client, log)
	closeOnStop(lc, svc.Close)
	return svc
}

func NewScanImporter(medicines *medicine.Service, log *logger.Logger) *scan.Importer {
	return scan.NewImporter(medicines, scan.WithLogger(log))
}
