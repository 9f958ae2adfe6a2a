package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"cvetl/internal/config"
	"cvetl/internal/etl"
	"cvetl/internal/etl/sources"
	"cvetl/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// ETL Service: runs the extraction pipelines
// ─────────────────────────────────────────────────────────────

// ErrAlreadyRunning is returned when a pipeline is started twice.
var ErrAlreadyRunning = errors.New("pipeline already running")

// FetcherFactory builds the page source for one pipeline.
type FetcherFactory func(pipeline string, ep config.Endpoint) (etl.Fetcher, error)

// ETLService wires configuration, the API client, the target sink and
// the run log together for each pipeline run.
type ETLService struct {
	cfg         *config.Config
	sink        etl.Upserter
	runLogs     storage.RunLogStore // nil disables run logging
	emitter     EventEmitter
	log         logrus.FieldLogger
	newFetcher  FetcherFactory
	runningJobs pipelineLocks
}

// NewETLService creates an ETLService ready for use. runLogs and
// emitter may be nil.
func NewETLService(
	cfg *config.Config,
	sink etl.Upserter,
	runLogs storage.RunLogStore,
	emitter EventEmitter,
	log logrus.FieldLogger,
) *ETLService {
	if emitter == nil {
		emitter = MultiEmitter(nil)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &ETLService{
		cfg:     cfg,
		sink:    sink,
		runLogs: runLogs,
		emitter: emitter,
		log:     log,
	}
	s.newFetcher = s.clientFor
	return s
}

// WithFetcherFactory replaces how page sources are built.
func (s *ETLService) WithFetcherFactory(f FetcherFactory) *ETLService {
	s.newFetcher = f
	return s
}

func (s *ETLService) clientFor(pipeline string, ep config.Endpoint) (etl.Fetcher, error) {
	return sources.NewClient(sources.Options{
		URL:          ep.URL,
		Method:       ep.Method,
		Email:        s.cfg.Email,
		Token:        s.cfg.Token,
		PageSize:     s.cfg.PageSize,
		Timeout:      ep.Timeout,
		Retries:      s.cfg.Retries,
		Backoff:      s.cfg.Backoff,
		SinceParam:   s.cfg.SinceParam,
		ProxyEnabled: s.cfg.Proxy.Enabled,
		ProxyHTTP:    s.cfg.Proxy.HTTP,
		ProxyHTTPS:   s.cfg.Proxy.HTTPS,
	}, s.log.WithField("pipeline", pipeline))
}

// ── Run ────────────────────────────────────────────────────

// RunJob executes one pipeline synchronously. An aborted run returns
// its result together with an error wrapping etl.ErrAborted.
func (s *ETLService) RunJob(ctx context.Context, pipeline string) (*etl.SyncResult, error) {
	if !s.runningJobs.TryLock(pipeline) {
		return nil, errors.Wrap(ErrAlreadyRunning, pipeline)
	}
	defer s.runningJobs.Unlock(pipeline)

	entity, err := etl.NewEntity(pipeline)
	if err != nil {
		return nil, err
	}
	for _, c := range entity.Children {
		entity.EnableChild(c.Table.Name, s.cfg.ChildEnabled(c.Table.Name))
	}

	ep, ok := s.cfg.Endpoints[pipeline]
	if !ok {
		return nil, errors.Errorf("no endpoint configured for %q", pipeline)
	}
	source, err := s.newFetcher(pipeline, ep)
	if err != nil {
		return nil, errors.Wrapf(err, "build client for %s", pipeline)
	}

	s.emitter.Emit(ctx, EventRunStarted, pipeline)

	engine := &etl.Engine{Source: source, Dest: s.sink, Log: s.log}
	result, runErr := engine.RunSync(ctx, entity, s.cfg.Since)

	s.saveRunLog(result)
	s.emitter.Emit(ctx, EventRunCompleted, result)

	return result, runErr
}

// saveRunLog never fails the run; the log database is best effort.
func (s *ETLService) saveRunLog(result *etl.SyncResult) {
	if s.runLogs == nil || result == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.runLogs.CreateRunLog(ctx, result.RunLog()); err != nil {
		s.log.WithError(err).WithField("pipeline", result.Entity).Warn("could not write run log")
	}
}

// RunAll runs the pipelines concurrently, each one sequential inside.
// Their tables are disjoint, so they never write the same rows. Every
// pipeline runs to its own end; the first error is returned.
func (s *ETLService) RunAll(ctx context.Context, pipelines []string) ([]*etl.SyncResult, error) {
	results := make([]*etl.SyncResult, len(pipelines))
	var g errgroup.Group
	for i, name := range pipelines {
		g.Go(func() error {
			r, err := s.RunJob(ctx, name)
			results[i] = r
			return err
		})
	}
	return results, g.Wait()
}

// ListPipelines returns the registered pipelines.
func (s *ETLService) ListPipelines() []etl.EntitySpec {
	return etl.ListEntities()
}

// ListRunLogs returns the newest run logs, optionally for one pipeline.
func (s *ETLService) ListRunLogs(ctx context.Context, pipeline string, limit int) ([]etl.SyncRunLog, error) {
	if s.runLogs == nil {
		return nil, errors.New("run log is disabled")
	}
	return s.runLogs.ListRunLogs(ctx, pipeline, limit)
}

// WaitRunning blocks until all running pipelines finish or ctx is done.
// Used for graceful shutdown.
func (s *ETLService) WaitRunning(ctx context.Context) {
	s.runningJobs.WaitAll(ctx)
}
