// Package redis wraps go-redis with lifecycle and health support.
//
// Redis backs the speaker label cache: a Cache keeps one JSON document per
// speaker ID so the directory is not asked again for every utterance.
//
//	names := redis.NewCache[speaker.CacheEntry](client, "minutes:speaker", time.Hour)
//	entry, ok, err := names.Get(ctx, "42")
package redis
