package capture

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kbukum/minutes/audio"
	"github.com/kbukum/minutes/process"
)

// Transcoder turns raw PCM written to a process stdin into a clip file.
type Transcoder interface {
	Start(ctx context.Context, out string, pcm audio.Format) (Encoding, error)
}

// Encoding is one running transcoder process. *process.Handle implements it.
type Encoding interface {
	Stdin() io.WriteCloser
	Wait() (*process.Result, error)
	Terminate()
}

var _ Encoding = (*process.Handle)(nil)

// ArgsFunc builds transcoder arguments for an output path and PCM layout.
type ArgsFunc func(out string, pcm audio.Format) []string

// CommandTranscoder runs an external binary per clip.
type CommandTranscoder struct {
	Binary      string
	Args        ArgsFunc
	GracePeriod time.Duration
}

var _ Transcoder = (*CommandTranscoder)(nil)

// NewFFmpeg returns a transcoder that encodes MP3 with libmp3lame.
func NewFFmpeg(cfg TranscoderConfig) *CommandTranscoder {
	cfg.ApplyDefaults()
	return &CommandTranscoder{
		Binary:      cfg.Binary,
		Args:        FFmpegArgs(cfg.Quality),
		GracePeriod: cfg.GracePeriod,
	}
}

// FFmpegArgs reads s16le PCM from stdin and writes a VBR MP3 at the given
// libmp3lame quality (0 best, 9 smallest).
func FFmpegArgs(quality int) ArgsFunc {
	return func(out string, pcm audio.Format) []string {
		return []string{
			"-y",
			"-loglevel", "error",
			"-f", "s16le",
			"-ar", strconv.Itoa(pcm.SampleRate),
			"-ac", strconv.Itoa(pcm.Channels),
			"-i", "pipe:0",
			"-acodec", "libmp3lame",
			"-q:a", strconv.Itoa(quality),
			out,
		}
	}
}

// Start spawns the binary with stdin left open for the caller.
func (t *CommandTranscoder) Start(ctx context.Context, out string, pcm audio.Format) (Encoding, error) {
	var args []string
	if t.Args != nil {
		args = t.Args(out, pcm)
	}
	h, err := process.Start(ctx, process.Command{
		Binary:      t.Binary,
		Args:        args,
		GracePeriod: t.GracePeriod,
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Check runs "<binary> -version" to confirm the transcoder is installed.
func (t *CommandTranscoder) Check(ctx context.Context) error {
	res, err := process.Run(ctx, process.Command{Binary: t.Binary, Args: []string{"-version"}})
	if err != nil {
		return fmt.Errorf("transcoder %s unavailable: %w", t.Binary, err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("transcoder %s -version exited %d", t.Binary, res.ExitCode)
	}
	return nil
}
