// Package worker leases analysis jobs from the server, runs each one in a
// fresh engine session and posts the result back.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/jacokyle01/chesseval/engine"
	"github.com/jacokyle01/chesseval/models"
	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

const (
	DefaultSlots           = 1
	DefaultPollInterval    = time.Second
	DefaultRetryInterval   = 500 * time.Millisecond
	DefaultRetryMaxElapsed = time.Minute
	submitTimeout          = 30 * time.Second
)

// Analyzer runs a single analysis. *engine.Analyzer satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, req engine.Request) (engine.Snapshot, error)
}

// Config controls how a worker talks to the server.
type Config struct {
	ServerURL string
	// Name is reported with every result. Defaults to the host name plus a
	// random suffix.
	Name string
	// Slots is the number of jobs analyzed at once, each with its own
	// engine process.
	Slots int
	// PollInterval is the pause after the server had no work.
	PollInterval time.Duration
	// RetryInterval is the first delay between failed requests.
	RetryInterval time.Duration
	// RetryMaxElapsed bounds how long a single lease is retried.
	RetryMaxElapsed time.Duration
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "worker"
		}
		c.Name = fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
	}
	if c.Slots <= 0 {
		c.Slots = DefaultSlots
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = DefaultRetryInterval
	}
	if c.RetryMaxElapsed <= 0 {
		c.RetryMaxElapsed = DefaultRetryMaxElapsed
	}
	return c
}

// Client represents a worker client
type Client struct {
	cfg       Config
	analyzer  Analyzer
	http      *http.Client
	submitter *retryablehttp.Client
	log       *log.Entry
}

// NewClient creates a new worker client
func NewClient(cfg Config, analyzer Analyzer) *Client {
	cfg = cfg.withDefaults()
	entry := log.WithFields(log.Fields{
		"worker": cfg.Name,
		"server": cfg.ServerURL,
	})

	submitter := retryablehttp.NewClient()
	submitter.RetryWaitMin = cfg.RetryInterval
	submitter.RetryWaitMax = 10 * cfg.RetryInterval
	submitter.RetryMax = 5
	submitter.Logger = leveledLogger{entry}

	return &Client{
		cfg:       cfg,
		analyzer:  analyzer,
		http:      &http.Client{Timeout: time.Minute},
		submitter: submitter,
		log:       entry,
	}
}

// Name is the name the worker reports results under.
func (c *Client) Name() string {
	return c.cfg.Name
}

// WorkLoop runs the configured number of job loops until ctx is done.
func (c *Client) WorkLoop(ctx context.Context) {
	c.log.WithField("slots", c.cfg.Slots).Info("Starting worker")

	p := pool.New().WithMaxGoroutines(c.cfg.Slots)
	for slot := range c.cfg.Slots {
		p.Go(func() {
			c.loop(ctx, slot)
		})
	}
	p.Wait()

	c.log.Info("Worker stopped")
}

func (c *Client) loop(ctx context.Context, slot int) {
	entry := c.log.WithField("slot", slot)

	for ctx.Err() == nil {
		job, ok, err := c.lease(ctx)
		switch {
		case ctx.Err() != nil:
			return
		case err != nil:
			entry.WithError(err).Error("Could not lease a job")
			sleep(ctx, c.cfg.PollInterval)
			continue
		case !ok:
			entry.Debug("No jobs available, waiting")
			sleep(ctx, c.cfg.PollInterval)
			continue
		}

		result := c.processJob(ctx, job)

		// a job that was started is reported even while shutting down
		submitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), submitTimeout)
		err = c.submit(submitCtx, result)
		cancel()
		if err != nil {
			entry.WithError(err).WithField("job", job.ID).Error("Could not submit result")
		}
	}
}

// lease asks the server for the next job. Transport errors and server
// errors are retried with exponential backoff.
func (c *Client) lease(ctx context.Context) (models.Job, bool, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryInterval
	b.MaxInterval = 30 * c.cfg.RetryInterval

	job, err := backoff.Retry(ctx, func() (*models.Job, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.ServerURL+"/job", nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNoContent:
			return nil, nil
		case resp.StatusCode >= http.StatusInternalServerError:
			return nil, fmt.Errorf("server returned %s", resp.Status)
		case resp.StatusCode != http.StatusOK:
			return nil, backoff.Permanent(fmt.Errorf("server returned %s", resp.Status))
		}

		var job models.Job
		if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("decoding job: %w", err))
		}
		return &job, nil
	},
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(c.cfg.RetryMaxElapsed),
		backoff.WithNotify(func(err error, d time.Duration) {
			c.log.WithError(err).WithField("retry_in", d).Warn("Lease failed, retrying")
		}),
	)
	if err != nil {
		return models.Job{}, false, err
	}
	if job == nil {
		return models.Job{}, false, nil
	}
	return *job, true, nil
}

// processJob analyzes one job. Failures are reported in the result rather
// than returned.
func (c *Client) processJob(ctx context.Context, job models.Job) models.Result {
	entry := c.log.WithFields(log.Fields{
		"job":    job.ID,
		"fen":    job.FEN,
		"budget": job.Budget().String(),
	})
	entry.Info("Processing job")

	snap, err := c.analyzer.Analyze(ctx, job.Request())

	result := models.NewResult(job.ID, snap)
	result.Worker = c.cfg.Name
	if err != nil {
		entry.WithError(err).Warn("Error analyzing position")
		result.Error = err.Error()
	}

	return result
}

func (c *Client) submit(ctx context.Context, result models.Result) error {
	body, err := json.Marshal(result)
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ServerURL+"/result", body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.submitter.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
