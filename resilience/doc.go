// Package resilience provides the fault-tolerance primitives used around
// external calls: transcription backends, the speaker directory and the
// transcript publishers.
//
//   - Retry: retries failed calls with exponential backoff and jitter
//   - CircuitBreaker: fails fast after repeated failures
//   - Bulkhead: caps concurrent calls into one backend
//
// Config structs carry mapstructure tags so policies can be set from YAML:
//
//	transcription:
//	  resilience:
//	    retry:
//	      max_attempts: 3
//	      initial_backoff: 500ms
//	    bulkhead:
//	      max_concurrent: 4
//	      max_wait: -1s
package resilience
