package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kbukum/minutes/component"
)

// Summary prints the startup banner: infrastructure described by the
// components, the HTTP routes and a live health check.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	out             io.Writer
}

// NewSummary creates a summary that writes to out, or stdout when out is nil.
func NewSummary(serviceName, version string, out io.Writer) *Summary {
	if out == nil {
		out = os.Stdout
	}
	return &Summary{serviceName: serviceName, version: version, out: out}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// Display prints the summary for the components in registry.
func (s *Summary) Display(ctx context.Context, registry *component.Registry) {
	fmt.Fprintf(s.out, "\n🚀 %s v%s started in %.2fs\n\n", s.serviceName, s.version, s.startupDuration.Seconds())

	var (
		infra  []component.Description
		routes []component.Route
	)
	for _, c := range registry.All() {
		if d, ok := c.(component.Describable); ok {
			desc := d.Describe()
			if desc.Name == "" {
				desc.Name = c.Name()
			}
			infra = append(infra, desc)
		}
		if rp, ok := c.(component.RouteProvider); ok {
			routes = append(routes, rp.Routes()...)
		}
	}

	if len(infra) == 0 {
		fmt.Fprintf(s.out, "📊 Infrastructure\n   └── No components registered\n")
	} else {
		fmt.Fprintf(s.out, "📊 Infrastructure\n")
		for i, d := range infra {
			details := d.Details
			if d.Port > 0 {
				details = fmt.Sprintf("%s (:%d)", details, d.Port)
			}
			fmt.Fprintf(s.out, "   %s %s [%s]: %s\n", treePrefix(i, len(infra)), d.Name, d.Type, details)
		}
	}

	if len(routes) > 0 {
		fmt.Fprintf(s.out, "\n🌐 Routes (%d)\n", len(routes))
		for i, r := range routes {
			fmt.Fprintf(s.out, "   %s %-7s %s → %s\n", treePrefix(i, len(routes)), r.Method, r.Path, r.Handler)
		}
	}

	health := registry.HealthAll(ctx)
	if len(health) > 0 {
		fmt.Fprintf(s.out, "\n🏥 Health Check\n")
		for i, h := range health {
			msg := ""
			if h.Message != "" {
				msg = " (" + h.Message + ")"
			}
			fmt.Fprintf(s.out, "   %s %s %s: %s%s\n", treePrefix(i, len(health)), healthStatusIcon(h.Status), h.Name, strings.ToLower(string(h.Status)), msg)
		}
	}
	fmt.Fprintln(s.out)
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
