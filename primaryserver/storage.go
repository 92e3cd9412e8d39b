package primaryserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jacokyle01/chesseval/models"
	log "github.com/sirupsen/logrus"
)

// ErrUnknownJob is returned for results of jobs the server never handed out.
var ErrUnknownJob = errors.New("unknown job")

// SubmitResult stores a completed analysis result. Submitting the same
// result again replaces the stored one.
func (s *Server) SubmitResult(result models.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobMap[result.JobID]
	if !ok {
		prev, done := s.results[result.JobID]
		if !done {
			return fmt.Errorf("%w: %s", ErrUnknownJob, result.JobID)
		}
		job = models.Job{ID: result.JobID, BatchID: prev.batchID, FEN: prev.fen}
	}

	s.store(result, job, s.now())

	log.WithFields(log.Fields{
		"job":       result.JobID,
		"best_move": result.BestMove,
		"eval":      result.Eval,
		"partial":   result.Partial,
		"error":     result.Error,
	}).Info("Received result")

	return nil
}

// store records result as the outcome of job and updates its batch. The
// caller holds mu.
func (s *Server) store(result models.Result, job models.Job, now time.Time) {
	delete(s.jobMap, job.ID)
	delete(s.leases, job.ID)

	s.results[job.ID] = storedResult{result: result, batchID: job.BatchID, fen: job.FEN, stored: now}

	if sb, ok := s.batches[job.BatchID]; ok && sb.batch.Record(result) {
		sb.updated = now
		s.batches[job.BatchID] = sb

		log.WithFields(log.Fields{
			"batch":     job.BatchID,
			"completed": sb.batch.Completed,
			"total":     sb.batch.Total,
		}).Info("Batch progress")
	}
}

// GetResult retrieves a result by job ID
func (s *Server) GetResult(jobID string) (models.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sr, exists := s.results[jobID]
	return sr.result, exists
}

// positionOf returns the position a stored result was computed for.
func (s *Server) positionOf(jobID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.results[jobID].fen
}

// GetBatch returns a copy of the batch with the given ID.
func (s *Server) GetBatch(id string) (models.Batch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sb, ok := s.batches[id]
	if !ok {
		return models.Batch{}, false
	}

	b := *sb.batch
	b.JobIDs = append([]string(nil), sb.batch.JobIDs...)
	b.Results = make(map[string]models.Result, len(sb.batch.Results))
	for k, v := range sb.batch.Results {
		b.Results[k] = v
	}
	return b, true
}

func (s *Server) addBatch(b *models.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[b.ID] = storedBatch{batch: b, updated: s.now()}
}

// Sweep reclaims jobs whose lease expired and drops results and finished
// batches older than the result TTL. It returns how many entries it
// touched.
func (s *Server) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := s.reclaim(now)
	cutoff := now.Add(-s.cfg.ResultTTL)

	for id, sr := range s.results {
		if sr.stored.Before(cutoff) {
			delete(s.results, id)
			removed++
		}
	}
	for id, sb := range s.batches {
		if sb.batch.Done() && sb.updated.Before(cutoff) {
			delete(s.batches, id)
			removed++
		}
	}

	return removed
}

// RunSweeper calls Sweep periodically until ctx is done.
func (s *Server) RunSweeper(ctx context.Context) {
	interval := max(min(s.cfg.ResultTTL, s.cfg.LeaseTTL)/2, time.Second)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.WithField("removed", n).Debug("Swept expired results")
			}
		}
	}
}
