package session

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/observability"
	"github.com/kbukum/minutes/publish"
	"github.com/kbukum/minutes/speaker"
	"github.com/kbukum/minutes/transcription"
)

// Job outcomes recorded on minutes.transcriptions.
const (
	OutcomePublished     = "published"
	OutcomeEmpty         = "empty"
	OutcomePublishFailed = "publish_failed"
)

// Skip reasons recorded on minutes.clips.skipped.
const (
	SkipMissing = "missing"
	SkipEmpty   = "empty"
)

// Dispatcher turns closed clips into published transcript entries. Every
// clip it is handed is deleted exactly once.
type Dispatcher struct {
	session     Session
	pending     *PendingSet
	transcriber transcription.Transcriber
	resolver    speaker.Resolver
	publisher   publish.Publisher
	log         *logger.Logger
	metrics     *observability.Metrics
	now         func() time.Time
}

// NewDispatcher creates a dispatcher for one session.
func NewDispatcher(s Session, pending *PendingSet, t transcription.Transcriber, r speaker.Resolver, p publish.Publisher,
	log *logger.Logger, metrics *observability.Metrics,
) *Dispatcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &Dispatcher{
		session:     s,
		pending:     pending,
		transcriber: t,
		resolver:    r,
		publisher:   p,
		log:         log.WithComponent("dispatch"),
		metrics:     metrics,
		now:         time.Now,
	}
}

// Dispatch hands a closed clip to transcription. Missing and empty clips are
// deleted right away and nil is returned; otherwise the job is registered in
// the pending set before Dispatch returns.
func (d *Dispatcher) Dispatch(ctx context.Context, clipPath, speakerID string) *PendingJob {
	log := d.log.WithContext(ctx).WithFields(logger.Fields(
		logger.FieldSpeakerID, speakerID,
		logger.FieldClip, clipPath,
	))

	info, err := os.Stat(clipPath)
	switch {
	case err != nil:
		d.skip(ctx, log, clipPath, SkipMissing)
		return nil
	case info.Size() == 0:
		d.skip(ctx, log, clipPath, SkipEmpty)
		return nil
	}

	job := d.pending.add(speakerID, clipPath)
	d.metrics.JobStarted(ctx)
	log.Debug("transcription dispatched", logger.Fields(logger.FieldJobID, job.ID, "clip_bytes", info.Size()))

	go d.run(ctx, job, info.Size(), log.WithFields(logger.Fields(logger.FieldJobID, job.ID)))
	return job
}

func (d *Dispatcher) skip(ctx context.Context, log *logger.Logger, clipPath, reason string) {
	removeClip(log, clipPath)
	d.metrics.ClipSkipped(ctx, reason)
	log.Info("clip skipped", logger.Fields("reason", reason))
}

func (d *Dispatcher) run(ctx context.Context, job *PendingJob, size int64, log *logger.Logger) {
	outcome := OutcomeEmpty
	defer func() {
		removeClip(log, job.ClipPath)
		d.pending.remove(job)
		d.metrics.JobSettled(ctx, outcome, time.Since(job.StartedAt))
		close(job.done)
	}()

	ctx, span := observability.StartSpan(ctx, observability.SpanDispatch)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrSessionID, d.session.ID)
	observability.SetSpanAttribute(ctx, observability.AttrSpeakerID, job.SpeakerID)
	observability.SetSpanAttribute(ctx, observability.AttrClipBytes, size)

	text := ""
	if d.transcriber != nil {
		text = d.transcriber.Transcribe(ctx, job.ClipPath)
	}
	if text == "" {
		log.Debug("no transcription result")
		return
	}

	entry := publish.Entry{
		SessionID:    d.session.ID,
		RoutingToken: d.session.RoutingToken,
		SpeakerID:    job.SpeakerID,
		Label:        speaker.Resolve(ctx, d.resolver, job.SpeakerID),
		Text:         text,
		Timestamp:    d.now(),
	}
	if d.publisher == nil {
		outcome = OutcomePublished
		return
	}
	if err := d.publisher.Send(ctx, entry); err != nil {
		outcome = OutcomePublishFailed
		observability.SetSpanError(ctx, err)
		log.Warn("publish failed", logger.Fields(logger.FieldError, err.Error()))
		return
	}
	outcome = OutcomePublished
	log.Info("entry published", logger.Fields("label", entry.Label, "chars", len([]rune(text))))
}

func removeClip(log *logger.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("clip not deleted", logger.ErrorFields("remove", err))
	}
}
