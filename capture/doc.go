// Package capture records one clip per utterance for every active speaker.
//
// A Manager listens for speaking signals on a voice.Connection and runs one
// Pipeline per speaker. Each capture moves through
//
//	idle -> capturing -> finalizing -> closed
//
// The pipeline decodes the speaker's stream to s16le PCM and pipes it into a
// Transcoder process (ffmpeg by default). When the process exits the capture
// is closed, removed from the active set and handed to OnClosed.
package capture
