package session

import (
	"time"

	"github.com/kbukum/minutes/capture"
	"github.com/kbukum/minutes/publish"
)

// Session is one recording of one voice session.
type Session struct {
	ID           string    `json:"id"`
	RoutingToken string    `json:"routing_token"`
	StartedAt    time.Time `json:"started_at"`
	// Active is cleared when Stop begins draining.
	Active bool `json:"active"`
}

func (s Session) info() publish.SessionInfo {
	return publish.SessionInfo{ID: s.ID, RoutingToken: s.RoutingToken, StartedAt: s.StartedAt}
}

// Status is a point-in-time view of the current session.
type Status struct {
	Session        Session        `json:"session"`
	Elapsed        time.Duration  `json:"-"`
	ElapsedMinutes int            `json:"elapsed_minutes"`
	ElapsedSeconds int            `json:"elapsed_seconds"`
	Captures       []capture.Info `json:"captures"`
	ActiveCaptures int            `json:"active_captures"`
	PendingJobs    int            `json:"pending_jobs"`
	// SourceEnded reports that the voice source hung up before Stop.
	SourceEnded bool `json:"source_ended"`
}

func newStatus(s Session, now time.Time, captures []capture.Info, pending int) Status {
	elapsed := now.Sub(s.StartedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	return Status{
		Session:        s,
		Elapsed:        elapsed,
		ElapsedMinutes: int(elapsed / time.Minute),
		ElapsedSeconds: int((elapsed % time.Minute) / time.Second),
		Captures:       captures,
		ActiveCaptures: len(captures),
		PendingJobs:    pending,
	}
}
