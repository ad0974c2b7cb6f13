package transcription

import (
	"context"
	"slices"

	apperrors "github.com/kbukum/minutes/errors"
	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/observability"
	"github.com/kbukum/minutes/provider"
)

// Config selects and orders the transcription backends.
type Config struct {
	// Priority lists backend names, first preferred. Later backends are
	// tried when an earlier one fails or is unavailable.
	Priority []string `yaml:"priority" mapstructure:"priority"`
	// Language is sent with every request.
	Language string `yaml:"language" mapstructure:"language"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if len(c.Priority) == 0 {
		c.Priority = []string{"openai"}
	}
	if c.Language == "" {
		c.Language = "ja"
	}
}

// Service is the Transcriber used by dispatch. It walks the configured
// backends in priority order and absorbs every failure into "".
type Service struct {
	registry *provider.Registry[Provider]
	priority []string
	language string
	log      *logger.Logger
}

var _ Transcriber = (*Service)(nil)

// NewService creates a service over the backends cached in registry.
func NewService(registry *provider.Registry[Provider], cfg Config, log *logger.Logger) *Service {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		registry: registry,
		priority: slices.Clone(cfg.Priority),
		language: cfg.Language,
		log:      log.WithComponent("transcription"),
	}
}

// Transcribe implements Transcriber.
func (s *Service) Transcribe(ctx context.Context, clipPath string) string {
	ctx, span := observability.StartSpan(ctx, observability.SpanTranscribe)
	defer span.End()

	log := s.log.WithContext(ctx).WithFields(logger.Fields(logger.FieldClip, clipPath))
	req := Request{AudioPath: clipPath, Language: s.language}

	remaining := s.priority
	for len(remaining) > 0 {
		p, err := s.registry.First(ctx, remaining)
		if err != nil {
			log.Warn("no transcription backend available", logger.ErrorFields("select", err))
			return ""
		}
		name := p.Name()

		resp, err := p.Execute(ctx, req)
		if err == nil {
			text := resp.Transcript()
			observability.SetSpanAttribute(ctx, observability.AttrTextLength, len(text))
			log.Info("transcribed", logger.Fields(logger.FieldProvider, name, "chars", len([]rune(text))))
			return text
		}

		appErr := apperrors.TranscriptionFailure(name, err)
		observability.SetSpanError(ctx, appErr)
		log.Warn("transcription failed", logger.Fields(
			logger.FieldProvider, name,
			logger.FieldError, appErr.Error(),
		))

		idx := slices.Index(remaining, name)
		if idx < 0 {
			return ""
		}
		remaining = remaining[idx+1:]
	}
	return ""
}

// Available reports whether at least one configured backend is usable.
func (s *Service) Available(ctx context.Context) bool {
	_, err := s.registry.First(ctx, s.priority)
	return err == nil
}

// Wrap applies the standard middleware stack to a backend before it is
// cached in the registry.
func Wrap(p Provider, res provider.ResilienceConfig, log *logger.Logger, metrics *observability.Metrics) Provider {
	if log == nil {
		log = logger.NewNop()
	}
	observe := provider.Observe[Request, *Response]("transcription", log.WithComponent("transcription"), metrics)
	return observe(provider.WithResilience(p, res))
}
