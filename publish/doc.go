// Package publish delivers transcript entries to their destinations.
//
// A Fanout holds every configured Publisher behind its resilience policies
// and is the single publisher the session dispatcher talks to:
//
//	fan := publish.NewFanout(log, metrics)
//	fan.Add(notes, provider.ResilienceConfig{})
//	fan.Add(chat, provider.ResilienceConfig{CircuitBreaker: &cb, Retry: &retry})
//	_ = fan.Send(ctx, entry)
//
// Publishers that also implement Observer receive session start and
// completion. NotesPage writes the minutes page, ChatEcho mirrors entries to
// a chat webhook and EventPublisher streams them to Kafka.
package publish
