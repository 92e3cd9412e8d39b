package primaryserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jacokyle01/chesseval/engine"
	"github.com/jacokyle01/chesseval/models"
	"github.com/jacokyle01/chesseval/report"
	"github.com/notnil/chess"
	log "github.com/sirupsen/logrus"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Could not write response")
	}
}

// queueError maps errors from the queue to a status code.
func queueError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrQueueFull):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, ErrDuplicateJob):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HTTP handlers
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.GetJob(r.Context())
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleSubmitResult(w http.ResponseWriter, r *http.Request) {
	var result models.Result
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := s.SubmitResult(result); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var job models.Job
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.BatchID = ""
	job.Ply = 0
	job.Normalize()

	if err := job.Validate(s.cfg.Limits); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.AddJob(job); err != nil {
		queueError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"job_id": job.ID})
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("job_id")
	if jobID == "" {
		http.Error(w, "Missing job_id parameter", http.StatusBadRequest)
		return
	}

	result, exists := s.GetResult(jobID)
	if !exists {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if r.URL.Query().Get("report") != "true" {
		writeJSON(w, http.StatusOK, result)
		return
	}

	rep, err := report.Build(s.positionOf(jobID), result.Snapshot())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, evalResponse{Result: result, Report: rep, Error: result.Error})
}

func (s *Server) handleViewQueue(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	pendingJobs := make([]models.Job, 0, len(s.jobMap))
	for _, job := range s.jobMap {
		pendingJobs = append(pendingJobs, job)
	}
	queued, leased := s.queued, 0
	for _, l := range s.leases {
		if !l.deadline.IsZero() {
			leased++
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(pendingJobs, func(a, b models.Job) int {
		if c := strings.Compare(a.BatchID, b.BatchID); c != 0 {
			return c
		}
		if a.Ply != b.Ply {
			return a.Ply - b.Ply
		}
		return strings.Compare(a.ID, b.ID)
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"queue_length": queued,
		"pending":      len(pendingJobs),
		"leased":       leased,
		"pending_jobs": pendingJobs,
	})
}

// requestForAnalysis turns a game in PGN into one job per position, from the
// starting position to the final one, grouped in a batch.
func (s *Server) requestForAnalysis(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pgn      string `json:"pgn"` // e.g. "1. e4 e5 2. Nf3 Nc6 *"
		Depth    int    `json:"depth,omitempty"`
		TimeMS   int    `json:"time_ms,omitempty"`
		Priority int    `json:"priority"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Pgn) == "" {
		http.Error(w, "invalid PGN: empty", http.StatusBadRequest)
		return
	}

	game := chess.NewGame()
	if err := game.UnmarshalText([]byte(req.Pgn)); err != nil {
		http.Error(w, "invalid PGN: "+err.Error(), http.StatusBadRequest)
		return
	}

	batchID := uuid.NewString()
	positions := game.Positions()
	jobs := make([]models.Job, 0, len(positions))
	jobIDs := make([]string, 0, len(positions))

	for ply, pos := range positions {
		job := models.Job{
			ID:       uuid.NewString(),
			BatchID:  batchID,
			Ply:      ply,
			FEN:      pos.String(),
			Depth:    req.Depth,
			TimeMS:   req.TimeMS,
			Priority: req.Priority,
		}
		job.Normalize()

		if err := job.Validate(s.cfg.Limits); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		jobs = append(jobs, job)
		jobIDs = append(jobIDs, job.ID)
	}

	// the batch exists before its first job can be leased
	s.addBatch(models.NewBatch(batchID, jobIDs))
	if err := s.AddJobs(jobs); err != nil {
		s.mu.Lock()
		delete(s.batches, batchID)
		s.mu.Unlock()

		queueError(w, err)
		return
	}

	log.WithFields(log.Fields{
		"batch": batchID,
		"jobs":  len(jobs),
	}).Info("Queued game for analysis")

	writeJSON(w, http.StatusOK, map[string]any{
		"batch_id": batchID,
		"job_ids":  jobIDs,
	})
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	batch, ok := s.GetBatch(mux.Vars(r)["id"])
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, batch)
}

type evalResponse struct {
	Result models.Result `json:"result"`
	Report report.Report `json:"report"`
	Error  string        `json:"error,omitempty"`
}

// handleEval analyzes a position synchronously with the local engine.
func (s *Server) handleEval(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		http.Error(w, "no local engine configured", http.StatusServiceUnavailable)
		return
	}

	var job models.Job
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	job.Normalize()
	if err := job.Validate(s.cfg.Limits); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap, err := s.analyzer.Analyze(r.Context(), job.Request())
	if errors.Is(err, engine.ErrInvalidRequest) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rep, repErr := report.Build(job.FEN, snap)
	if repErr != nil {
		http.Error(w, repErr.Error(), http.StatusBadRequest)
		return
	}

	resp := evalResponse{
		Result: models.NewResult(job.ID, snap),
		Report: rep,
	}
	status := http.StatusOK
	if err != nil {
		log.WithError(err).WithField("fen", job.FEN).Warn("Evaluation failed")
		resp.Error = err.Error()
		status = http.StatusBadGateway
	}

	writeJSON(w, status, resp)
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}
