// Package transcription turns recorded clips into text.
//
// Backends implement Provider and are cached in a provider.Registry under
// their name. Service walks them in priority order and never returns an
// error: a failed or empty transcription yields "".
//
// # Backends
//
//   - transcription/openai: OpenAI-compatible /audio/transcriptions endpoint
//   - transcription/whisper: faster-whisper HTTP sidecar
//
// # Usage
//
//	reg := transcription.NewRegistry()
//	reg.Set(openai.ProviderName, transcription.Wrap(openai.NewProvider(cfg), res, log, metrics))
//	svc := transcription.NewService(reg, transcription.Config{Priority: []string{"openai"}}, log)
//	text := svc.Transcribe(ctx, "/recordings/voice_....mp3")
package transcription
