package component

import "context"

// Component is a piece of infrastructure the Registry starts and stops:
// the redis client, the event writer, the archive store, the control API
// and the recording session.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	// Stop releases everything Start acquired, within ctx.
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// severity orders statuses; unknown values count as unhealthy.
func (s HealthStatus) severity() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	}
	return 2
}

// Health is one component's answer to a probe.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Describable components get a line in the startup summary. An empty
// Description.Name falls back to Name().
type Describable interface {
	Describe() Description
}

type Description struct {
	Name    string
	Type    string // "redis", "kafka", "session", ...
	Details string // free text such as "localhost:6379 db=0"
	Port    int
}

// RouteProvider components have their routes listed in the summary too.
type RouteProvider interface {
	Routes() []Route
}

type Route struct {
	Method, Path, Handler string
}
