package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PendingJob is one in-flight transcription of one clip.
type PendingJob struct {
	ID        string    `json:"id"`
	SpeakerID string    `json:"speaker_id"`
	ClipPath  string    `json:"clip_path"`
	StartedAt time.Time `json:"started_at"`

	done chan struct{}
}

// Done is closed after the job settled and left the pending set.
func (j *PendingJob) Done() <-chan struct{} {
	return j.done
}

// PendingSet tracks the jobs of one session. Only the dispatcher adds and
// removes jobs; everyone else reads snapshots.
type PendingSet struct {
	mu   sync.Mutex
	jobs map[string]*PendingJob
}

// NewPendingSet creates an empty set.
func NewPendingSet() *PendingSet {
	return &PendingSet{jobs: make(map[string]*PendingJob)}
}

func (s *PendingSet) add(speakerID, clipPath string) *PendingJob {
	j := &PendingJob{
		ID:        uuid.NewString(),
		SpeakerID: speakerID,
		ClipPath:  clipPath,
		StartedAt: time.Now(),
		done:      make(chan struct{}),
	}
	s.mu.Lock()
	s.jobs[j.ID] = j
	s.mu.Unlock()
	return j
}

func (s *PendingSet) remove(j *PendingJob) {
	s.mu.Lock()
	delete(s.jobs, j.ID)
	s.mu.Unlock()
}

// Snapshot returns the current jobs, oldest first.
func (s *PendingSet) Snapshot() []*PendingJob {
	s.mu.Lock()
	out := make([]*PendingJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, k int) bool { return out[i].StartedAt.Before(out[k].StartedAt) })
	return out
}

// Len returns the number of jobs in flight.
func (s *PendingSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Drain waits until the set is empty. Jobs added while waiting are waited
// for as well.
func (s *PendingSet) Drain() {
	for {
		jobs := s.Snapshot()
		if len(jobs) == 0 {
			return
		}
		for _, j := range jobs {
			<-j.Done()
		}
	}
}
