package primaryserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jacokyle01/chesseval/models"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrQueueFull is returned when the queue has no room for a job.
	ErrQueueFull = errors.New("job queue full")
	// ErrDuplicateJob is returned when a job ID is already pending.
	ErrDuplicateJob = errors.New("job already queued")
)

// AddJob adds a new analysis job to the queue
func (s *Server) AddJob(job models.Job) error {
	return s.AddJobs([]models.Job{job})
}

// AddJobs queues all of jobs or none of them.
func (s *Server) AddJobs(jobs []models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queued+len(jobs) > s.cfg.QueueSize {
		log.WithFields(log.Fields{
			"queued": s.queued,
			"jobs":   len(jobs),
		}).Warn("Job queue full, rejecting jobs")
		return fmt.Errorf("%w: %d queued, %d more requested", ErrQueueFull, s.queued, len(jobs))
	}
	for _, job := range jobs {
		if _, ok := s.jobMap[job.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateJob, job.ID)
		}
	}

	for _, job := range jobs {
		s.jobMap[job.ID] = job
		s.enqueue(job)

		log.WithFields(log.Fields{
			"job":      job.ID,
			"batch":    job.BatchID,
			"priority": job.Priority,
		}).Debug("Added job to queue")
	}

	return nil
}

// enqueue hands job to the channel for its priority. The caller holds mu
// and has checked there is room: queued never exceeds the capacity of
// either channel, so the send does not block.
func (s *Server) enqueue(job models.Job) {
	s.queued++
	if job.Priority > 0 {
		s.urgent <- job
	} else {
		s.jobs <- job
	}
}

// GetJob returns the next job for a worker, waiting up to the configured
// lease wait. Urgent jobs are handed out first.
func (s *Server) GetJob(ctx context.Context) (models.Job, bool) {
	timer := time.NewTimer(s.cfg.LeaseWait)
	defer timer.Stop()

	for {
		var job models.Job

		select {
		case job = <-s.urgent:
		default:
			select {
			case job = <-s.urgent:
			case job = <-s.jobs:
			case <-timer.C:
				return models.Job{}, false
			case <-ctx.Done():
				return models.Job{}, false
			}
		}

		if s.lease(job) {
			return job, true
		}
	}
}

// lease records that job was handed out. Jobs that finished while they
// waited in the queue again are dropped.
func (s *Server) lease(job models.Job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queued--
	if _, ok := s.jobMap[job.ID]; !ok {
		return false
	}

	l := s.leases[job.ID]
	l.count++
	l.deadline = s.now().Add(s.cfg.LeaseTTL)
	s.leases[job.ID] = l

	log.WithFields(log.Fields{
		"job":   job.ID,
		"lease": l.count,
	}).Debug("Leased job")
	return true
}

// reclaim hands out again, or fails, jobs whose lease ran out. The caller
// holds mu.
func (s *Server) reclaim(now time.Time) int {
	reclaimed := 0

	for id, l := range s.leases {
		if l.deadline.IsZero() || now.Before(l.deadline) {
			continue
		}
		job := s.jobMap[id]
		reclaimed++

		if l.count < s.cfg.MaxLeases && s.queued < s.cfg.QueueSize {
			l.deadline = time.Time{}
			s.leases[id] = l
			s.enqueue(job)

			log.WithFields(log.Fields{
				"job":   id,
				"lease": l.count,
			}).Warn("Lease expired, queueing job again")
			continue
		}

		log.WithFields(log.Fields{
			"job":   id,
			"lease": l.count,
		}).Warn("Lease expired, giving up on job")

		s.store(models.Result{
			JobID: id,
			Error: fmt.Sprintf("lease expired after %d attempts", l.count),
		}, job, now)
	}

	return reclaimed
}

// Queued returns the number of jobs waiting to be leased.
func (s *Server) Queued() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queued
}
