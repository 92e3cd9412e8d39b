package primaryserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/jacokyle01/chesseval/engine"
	"github.com/jacokyle01/chesseval/models"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultQueueSize = 100
	DefaultResultTTL = time.Hour
	DefaultLeaseWait = 5 * time.Second
	DefaultLeaseTTL  = 10 * time.Minute
	DefaultMaxLeases = 3
)

// Analyzer runs a single analysis. *engine.Analyzer satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, req engine.Request) (engine.Snapshot, error)
}

// Config controls queue capacity, result retention and job limits.
type Config struct {
	QueueSize int
	ResultTTL time.Duration
	// LeaseWait is how long GET /job waits for work before answering 204.
	LeaseWait time.Duration
	// LeaseTTL is how long a worker may hold a job before it is handed out
	// again. It should exceed the engine's hard timeout.
	LeaseTTL time.Duration
	// MaxLeases is how often a job is handed out before it fails.
	MaxLeases int
	Limits    models.Limits
}

func (c Config) withDefaults() Config {
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.ResultTTL <= 0 {
		c.ResultTTL = DefaultResultTTL
	}
	if c.LeaseWait <= 0 {
		c.LeaseWait = DefaultLeaseWait
	}
	if c.LeaseTTL <= 0 {
		c.LeaseTTL = DefaultLeaseTTL
	}
	if c.MaxLeases <= 0 {
		c.MaxLeases = DefaultMaxLeases
	}
	return c
}

type storedResult struct {
	result  models.Result
	batchID string
	fen     string
	stored  time.Time
}

// lease tracks a job handed to a worker.
type lease struct {
	deadline time.Time
	count    int
}

type storedBatch struct {
	batch   *models.Batch
	updated time.Time
}

// Server manages the job queue and distributes work
type Server struct {
	cfg      Config
	analyzer Analyzer

	// urgent carries jobs with a positive priority, jobs everything else.
	urgent chan models.Job
	jobs   chan models.Job

	mu      sync.RWMutex
	queued  int
	jobMap  map[string]models.Job
	leases  map[string]lease
	results map[string]storedResult
	batches map[string]storedBatch

	now func() time.Time
}

// NewServer creates a new analysis server. analyzer serves POST /eval and
// may be nil, in which case that route answers 503.
func NewServer(cfg Config, analyzer Analyzer) *Server {
	cfg = cfg.withDefaults()

	return &Server{
		cfg:      cfg,
		analyzer: analyzer,
		urgent:   make(chan models.Job, cfg.QueueSize),
		jobs:     make(chan models.Job, cfg.QueueSize),
		jobMap:   make(map[string]models.Job),
		leases:   make(map[string]lease),
		results:  make(map[string]storedResult),
		batches:  make(map[string]storedBatch),
		now:      time.Now,
	}
}

// Handler routes the HTTP API.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/job", s.handleGetJob).Methods(http.MethodGet)
	r.HandleFunc("/result", s.handleSubmitResult).Methods(http.MethodPost)
	r.HandleFunc("/analyze", s.handleAnalyze).Methods(http.MethodPost)
	r.HandleFunc("/get_result", s.handleGetResult).Methods(http.MethodGet)
	r.HandleFunc("/queue", s.handleViewQueue).Methods(http.MethodGet)
	r.HandleFunc("/requestForAnalysis", s.requestForAnalysis).Methods(http.MethodPost)
	r.HandleFunc("/batch/{id}", s.handleGetBatch).Methods(http.MethodGet)
	r.HandleFunc("/eval", s.handleEval).Methods(http.MethodPost)
	r.HandleFunc("/healthz", handleHealthz).Methods(http.MethodGet)

	return r
}

// Serve runs the HTTP server on addr until ctx is cancelled, then shuts it
// down gracefully. Expired results are swept while it runs.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	go s.RunSweeper(ctx)

	errs := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("Starting server")
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info("Stopping server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
