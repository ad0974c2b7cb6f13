// Package server is the minutes control API: a gin engine served over
// HTTP/1.1 and h2c.
//
// Routes:
//
//	POST   /api/v1/sessions          start recording {"routing_token": "..."}
//	GET    /api/v1/sessions/current  elapsed time, active captures, pending jobs
//	DELETE /api/v1/sessions/current  stop and wait for the drain
//	GET    /health                   component health
//	GET    /version                  build information
//
// Errors are *errors.AppError values rendered with their HTTP status, so a
// second start answers 409 and an unreachable voice gateway answers 503.
package server
