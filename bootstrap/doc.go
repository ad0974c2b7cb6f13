// Package bootstrap runs a minutes binary: it applies config defaults,
// validates, initializes logging, starts registered components in order,
// runs configure callbacks, prints a startup summary, then blocks until
// SIGINT/SIGTERM and stops everything in reverse.
//
//	app, err := bootstrap.NewApp(cfg)
//	app.RegisterComponent(redisComponent)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*Config]) error {
//	    return wireSession(ctx, a)
//	})
//	return app.Run(ctx)
package bootstrap
