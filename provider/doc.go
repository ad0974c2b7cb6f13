// Package provider is the swappable-backend layer under transcription,
// summary, archive upload and publishing.
//
// Backends are either a RequestResponse[I, O] (speech-to-text, chat
// completion) or a Sink[I] (webhook post, event produce). A Registry maps
// names to factories and holds the built backends; First walks a priority
// list and returns the first one that is available.
//
// Wrapping composes outside-in:
//
//	p := provider.Observe[In, Out]("transcription", log, metrics)(
//	    provider.WithResilience(raw, cfg.Resilience))
//
// WithResilience and WithSinkResilience run a call through a bulkhead, a
// circuit breaker and a retry loop, each optional.
package provider
