package models

// Batch groups the jobs created from one game, in move order.
type Batch struct {
	ID        string            `json:"id"`
	JobIDs    []string          `json:"job_ids"`
	Results   map[string]Result `json:"results"`
	Completed int               `json:"completed"`
	Total     int               `json:"total"`
}

// NewBatch returns an empty batch for jobIDs.
func NewBatch(id string, jobIDs []string) *Batch {
	return &Batch{
		ID:      id,
		JobIDs:  jobIDs,
		Results: make(map[string]Result, len(jobIDs)),
		Total:   len(jobIDs),
	}
}

// Contains reports whether jobID belongs to the batch.
func (b *Batch) Contains(jobID string) bool {
	for _, id := range b.JobIDs {
		if id == jobID {
			return true
		}
	}
	return false
}

// Record stores result if its job belongs to the batch. A job that reports
// twice is only counted once.
func (b *Batch) Record(result Result) bool {
	if !b.Contains(result.JobID) {
		return false
	}
	if _, seen := b.Results[result.JobID]; !seen {
		b.Completed++
	}
	b.Results[result.JobID] = result
	return true
}

// Done reports whether every job in the batch has a result.
func (b *Batch) Done() bool {
	return b.Completed == b.Total
}
