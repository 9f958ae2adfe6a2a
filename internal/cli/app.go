package cli

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"cvetl/internal/config"
	"cvetl/internal/dbclient"
	"cvetl/internal/metrics"
	"cvetl/internal/service"
	"cvetl/internal/storage"
)

// App owns everything a command needs for one process lifetime.
type App struct {
	cfg     *config.Config
	log     *logrus.Logger
	sink    dbclient.Sink
	runLogs storage.RunLogStore
	metrics *metrics.Metrics
	etl     *service.ETLService
}

// Startup loads configuration and opens the target and log databases.
// A log database that cannot be opened disables run logging only.
func (a *App) Startup(ctx context.Context, opts *rootOptions) error {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return err
	}
	if opts.since != "" {
		cfg.Since = opts.since
	}
	if opts.logLevel != "" {
		cfg.LogLevel = strings.ToLower(opts.logLevel)
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	a.cfg = cfg

	a.log, err = newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	a.sink, err = dbclient.NewSink(cfg.DB.Connection(), a.log)
	if err != nil {
		return errors.Wrap(err, "open target database")
	}

	if cfg.RunLogEnabled {
		a.runLogs, err = storage.Open(ctx, cfg.LogConnection(), a.log)
		if err != nil {
			a.log.WithError(err).Warn("run log database unavailable, runs will not be logged")
			a.runLogs = nil
		}
	}

	a.metrics = metrics.New(prometheus.NewRegistry())
	emitter := service.MultiEmitter{service.MetricsEmitter{Metrics: a.metrics}}
	a.etl = service.NewETLService(cfg, a.sink, a.runLogs, emitter, a.log)
	return nil
}

// PushMetrics sends run metrics when a Pushgateway is configured.
func (a *App) PushMetrics(ctx context.Context) {
	if a.cfg == nil || a.cfg.MetricsPushgateway == "" {
		return
	}
	if err := a.metrics.Push(ctx, a.cfg.MetricsPushgateway, a.cfg.MetricsJob); err != nil {
		a.log.WithError(err).Warn("metrics push failed")
	}
}

// Shutdown waits for running pipelines and closes every connection.
func (a *App) Shutdown(ctx context.Context) {
	if a.etl != nil {
		a.etl.WaitRunning(ctx)
	}
	if a.runLogs != nil {
		a.runLogs.Close()
	}
	if a.sink != nil {
		a.sink.Close()
	}
}

func newLogger(level, format string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(lvl)
	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log, nil
}
