// Package audio converts speaker media payloads into the signed 16-bit
// little-endian PCM stream the transcoder consumes.
package audio
