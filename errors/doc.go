// Package errors provides the structured error type used across minutes.
// Errors carry a machine-readable code, an HTTP status for the control API
// and a retryable flag consulted by the resilience layer.
package errors
