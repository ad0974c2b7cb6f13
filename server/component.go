package server

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/minutes/component"
)

const componentName = "http-server"

var (
	_ component.Component     = (*Component)(nil)
	_ component.Describable   = (*Component)(nil)
	_ component.RouteProvider = (*Component)(nil)
)

// Component runs a Server under the bootstrap lifecycle.
type Component struct {
	server *Server
}

func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

func (c *Component) Name() string                   { return componentName }
func (c *Component) Start(ctx context.Context) error { return c.server.Start(ctx) }
func (c *Component) Stop(ctx context.Context) error  { return c.server.Stop(ctx) }

// Health is healthy once the listener is bound.
func (c *Component) Health(context.Context) component.Health {
	if !c.server.listening() {
		return component.Health{Name: componentName, Status: component.StatusUnhealthy, Message: "not listening"}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy, Message: c.server.Addr()}
}

func (c *Component) Describe() component.Description {
	cfg := c.server.config
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: fmt.Sprintf("%s:%d h2c", cfg.Host, cfg.Port),
		Port:    cfg.Port,
	}
}

// housekeeping routes are listed after the control API.
var housekeeping = []string{"/health", "/version"}

var methodRank = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

func rank(method string) int {
	if i := slices.Index(methodRank, method); i >= 0 {
		return i
	}
	return len(methodRank)
}

// Routes lists the control API by path and method, housekeeping last.
func (c *Component) Routes() []component.Route {
	info := c.server.engine.Routes()
	slices.SortFunc(info, func(a, b gin.RouteInfo) int {
		aSys, bSys := slices.Contains(housekeeping, a.Path), slices.Contains(housekeeping, b.Path)
		if aSys != bSys {
			if aSys {
				return 1
			}
			return -1
		}
		return cmp.Or(cmp.Compare(a.Path, b.Path), cmp.Compare(rank(a.Method), rank(b.Method)))
	})

	routes := make([]component.Route, len(info))
	for i, r := range info {
		handler := handlerName(r.Handler)
		if slices.Contains(housekeeping, r.Path) {
			handler += " ⚙️"
		}
		routes[i] = component.Route{Method: r.Method, Path: r.Path, Handler: handler}
	}
	return routes
}

// handlerName shortens the function name gin reports:
// "github.com/kbukum/minutes/server.(*SessionHandler).Start-fm" becomes
// "SessionHandler.Start" and a closure such as "endpoint.Health.func1"
// becomes "health".
func handlerName(full string) string {
	name := strings.TrimSuffix(full, "-fm")
	name = name[strings.LastIndex(name, "/")+1:]
	name = strings.NewReplacer("(*", "", ")", "").Replace(name)

	parts := strings.Split(name, ".")
	if strings.HasPrefix(parts[len(parts)-1], "func") {
		for _, p := range slices.Backward(parts) {
			if !strings.HasPrefix(p, "func") {
				return strings.ToLower(p)
			}
		}
	}
	if len(parts) > 1 && strings.ToLower(parts[0]) == parts[0] {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}
