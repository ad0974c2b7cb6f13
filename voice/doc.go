// Package voice defines the live audio source a recording session attaches to.
//
// A Source yields a Connection per session. The Connection reports which
// participants start speaking and hands out one Stream per utterance; each
// Stream ends (io.EOF) once the speaker has been silent for the configured
// duration or the connection closes.
//
// Implementations:
//   - bridge: WebSocket client for a voice gateway sidecar
//   - voicetest: in-memory source for tests
package voice
