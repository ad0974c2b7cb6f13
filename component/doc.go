// Package component defines the lifecycle contract for the long-lived parts
// of minutes: the redis client, the kafka producer, the object store, the
// HTTP server and the session controller.
//
// A Registry starts components in registration order, stops them in
// reverse order and aggregates their health for the /health endpoint.
// Components may also implement Describable for the startup summary and
// RouteProvider to list their HTTP routes.
package component
