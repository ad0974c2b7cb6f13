package capture

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/kbukum/minutes/audio"
	apperrors "github.com/kbukum/minutes/errors"
	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/observability"
	"github.com/kbukum/minutes/voice"
)

// Pipeline stages recorded on failures.
const (
	StageSubscribe = "subscribe"
	StageDecode    = "decode"
	StageSpawn     = "spawn"
	StageWrite     = "write"
	StageRead      = "read"
	StageEncode    = "encode"
)

const (
	copyBufferSize = 32 * 1024
	stderrTail     = 2048
)

// Outcome describes how a capture's pipeline ended.
type Outcome struct {
	SpeakerID string
	ClipPath  string
	// ExitCode is the transcoder exit code, -1 if it was killed or never ran.
	ExitCode int
	// Forced is set when the capture was finalized by FinalizeAll.
	Forced bool
	// PCMBytes counts decoded bytes written to the transcoder.
	PCMBytes int64
	// ClipBytes is the size of the clip after exit, 0 when missing.
	ClipBytes int64
	Duration  time.Duration
	// Stderr is the tail of the encoder output.
	Stderr    string
	Errs      []error
}

// Err joins the stage errors recorded on the outcome.
func (o Outcome) Err() error {
	return errors.Join(o.Errs...)
}

// Pipeline moves one speaker's audio from the voice connection into a
// transcoder process. Every stage failure is logged and recorded on the
// Outcome; Run itself never fails.
type Pipeline struct {
	conn       voice.Connection
	transcoder Transcoder
	silence    time.Duration
	log        *logger.Logger
	metrics    *observability.Metrics
}

// Run records one utterance for c and blocks until the transcoder exited.
func (p *Pipeline) Run(ctx context.Context, c *Capture) Outcome {
	start := time.Now()
	out := Outcome{SpeakerID: c.SpeakerID, ClipPath: c.ClipPath, ExitCode: -1}
	log := p.log.WithFields(logger.Fields(logger.FieldSpeakerID, c.SpeakerID, logger.FieldClip, c.ClipPath))
	fail := func(stage string, err error) {
		appErr := apperrors.PipelineFailure(stage, err)
		out.Errs = append(out.Errs, appErr)
		p.metrics.PipelineError(ctx, stage)
		log.Warn("pipeline stage failed", logger.Fields(logger.FieldStage, stage, logger.FieldError, err.Error()))
	}
	defer func() {
		out.Forced = c.Forced()
		out.Duration = time.Since(start)
	}()

	stream, err := p.conn.Subscribe(c.SpeakerID, voice.SubscribeOptions{Silence: p.silence})
	if err != nil {
		fail(StageSubscribe, err)
		return out
	}
	c.attachStream(stream)
	defer stream.Close()

	src := p.conn.Format().WithDefaults()
	dec, err := audio.NewDecoder(src.Codec)
	if err != nil {
		fail(StageDecode, err)
		return out
	}
	pcm := audio.Format{Codec: audio.CodecPCM16, SampleRate: src.SampleRate, Channels: src.Channels}

	enc, err := p.transcoder.Start(ctx, c.ClipPath, pcm)
	if err != nil {
		fail(StageSpawn, err)
		return out
	}
	c.attachEncoding(enc)

	stdin := enc.Stdin()
	buf := make([]byte, copyBufferSize)
	var decoded []byte
	writable := true
	for {
		n, rerr := stream.Read(buf)
		if n > 0 && writable {
			decoded, err = dec.Decode(decoded[:0], buf[:n])
			if err != nil {
				fail(StageDecode, err)
			}
			if len(decoded) > 0 {
				if _, werr := stdin.Write(decoded); werr != nil {
					if !c.Forced() {
						fail(StageWrite, werr)
					}
					writable = false
					_ = stream.Close()
				} else {
					out.PCMBytes += int64(len(decoded))
				}
			}
		}
		if rerr != nil {
			if !errors.Is(rerr, io.EOF) {
				fail(StageRead, rerr)
			}
			break
		}
	}
	if err := dec.Flush(); err != nil {
		fail(StageDecode, err)
	}

	if from, ok := c.transition(StateFinalizing); ok {
		log.Debug("end of utterance", logger.Fields(logger.FieldState, from.String(), "pcm_bytes", out.PCMBytes))
	}

	if err := stdin.Close(); err != nil && !c.Forced() {
		fail(StageWrite, err)
	}

	res, werr := enc.Wait()
	if res != nil {
		out.ExitCode = res.ExitCode
		out.Stderr = res.StderrTail(stderrTail)
	}
	if werr != nil && !c.Forced() {
		fail(StageEncode, werr)
	}

	info, statErr := os.Stat(c.ClipPath)
	if statErr == nil {
		out.ClipBytes = info.Size()
	}
	if out.ExitCode != 0 && statErr != nil {
		log.Error("transcoder produced no clip", logger.Fields(
			logger.FieldExitCode, out.ExitCode,
			"stderr", out.Stderr,
		))
	}
	return out
}
