package main

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/minutes/bootstrap"
	"github.com/kbukum/minutes/kafka"
	"github.com/kbukum/minutes/kafka/producer"
	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/observability"
	"github.com/kbukum/minutes/provider"
	"github.com/kbukum/minutes/publish"
	"github.com/kbukum/minutes/redis"
	"github.com/kbukum/minutes/resilience"
	"github.com/kbukum/minutes/server"
	"github.com/kbukum/minutes/session"
	"github.com/kbukum/minutes/speaker"
	"github.com/kbukum/minutes/storage"
	"github.com/kbukum/minutes/summary"
	"github.com/kbukum/minutes/transcription"
	"github.com/kbukum/minutes/transcription/openai"
	"github.com/kbukum/minutes/transcription/whisper"
	"github.com/kbukum/minutes/voice/bridge"
)

// shutdownSlack is the part of the graceful timeout left to the components
// stopped after the session drain.
const shutdownSlack = 15 * time.Second

// infra holds the components the session wiring reads from once started.
type infra struct {
	redis   *redis.Component
	storage *storage.Component
	events  producer.Publisher
}

// newApp builds the application: infrastructure components are registered
// up front, the session and control API once they are running.
func newApp(cfg *Config, opts ...bootstrap.Option) (*bootstrap.App[*Config], error) {
	opts = append([]bootstrap.Option{bootstrap.WithGracefulTimeout(cfg.drainBudget())}, opts...)
	app, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}

	deps, err := registerInfra(app)
	if err != nil {
		return nil, err
	}
	app.OnConfigure(func(ctx context.Context, app *bootstrap.App[*Config]) error {
		return wireSession(ctx, app, deps)
	})
	return app, nil
}

// drainBudget is the graceful timeout: the session drain plus the rest.
func (c *Config) drainBudget() time.Duration {
	d := c.DrainTimeout
	if d == 0 {
		d = 3 * time.Minute
	}
	return d + shutdownSlack
}

func registerInfra(app *bootstrap.App[*Config]) (*infra, error) {
	cfg := app.Cfg
	deps := &infra{}

	if err := app.RegisterComponent(observability.NewComponent(cfg.Observability, app.Name, app.Version)); err != nil {
		return nil, err
	}

	if cfg.Redis.Enabled {
		deps.redis = redis.NewComponent(cfg.Redis, app.Logger)
		if err := app.RegisterComponent(deps.redis); err != nil {
			return nil, err
		}
	}

	if cfg.Kafka.Enabled {
		p, err := producer.NewLazyProducer(cfg.Kafka, app.Logger)
		if err != nil {
			return nil, err
		}
		kc := kafka.NewComponent(cfg.Kafka, app.Logger)
		kc.SetProducer(p)
		if err := app.RegisterComponent(kc); err != nil {
			return nil, err
		}
		deps.events = producer.NewPublisher(p, app.Logger)
	}

	deps.storage = storage.NewComponent(cfg.Storage, app.Logger)
	if err := app.RegisterComponent(deps.storage); err != nil {
		return nil, err
	}
	return deps, nil
}

// wireSession runs after the infrastructure started: it builds the
// recording pipeline and the control API on top of it.
func wireSession(_ context.Context, app *bootstrap.App[*Config], deps *infra) error {
	cfg := app.Cfg
	log := app.Logger

	metrics, err := observability.NewMetrics(observability.Meter(serviceName))
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	transcriber, err := newTranscriber(cfg, log, metrics)
	if err != nil {
		return err
	}

	var rc *redis.Client
	if deps.redis != nil {
		rc = deps.redis.Client()
	}
	resolver := speaker.New(cfg.Speaker, rc, log)

	fanout, err := newPublisher(cfg, deps, log, metrics)
	if err != nil {
		return err
	}

	ctrl := session.NewController(session.Options{
		Source:      bridge.New(cfg.Bridge, log),
		Capture:     cfg.Capture,
		Transcriber: transcriber,
		Resolver:    resolver,
		Publisher:   fanout,
		Observer:    fanout,
		Logger:      log,
		Metrics:     metrics,
	})
	sc := session.NewComponent(ctrl)
	if err := app.RegisterComponent(sc); err != nil {
		return err
	}
	app.Components.SetStopTimeout(sc.Name(), cfg.DrainTimeout)

	srv := server.New(cfg.Server, log)
	srv.ApplyDefaults(app.Name, app.Components.HealthAll)
	server.NewSessionHandler(ctrl, log).Register(srv.GinEngine())
	app.OnReady(func(context.Context) error {
		log.Info("waiting for a session start", logger.Fields("control_api", srv.Addr()))
		return nil
	})
	return app.RegisterComponent(server.NewComponent(srv))
}

// newTranscriber builds every backend named in the priority list through the
// registry factories and wraps each with the standard middleware.
func newTranscriber(cfg *Config, log *logger.Logger, metrics *observability.Metrics) (*transcription.Service, error) {
	reg := transcription.NewRegistry()
	reg.RegisterFactory(openai.ProviderName, openai.Factory())
	reg.RegisterFactory(whisper.ProviderName, whisper.Factory())

	for _, name := range cfg.Transcription.Priority {
		p, err := reg.Create(name, cfg.Transcription.Backend(name))
		if err != nil {
			return nil, fmt.Errorf("transcription backend %s: %w", name, err)
		}
		reg.Set(name, transcription.Wrap(p, cfg.Transcription.Resilience, log, metrics))
	}
	return transcription.NewService(reg, cfg.Transcription.Service(), log), nil
}

// newPublisher assembles the fanout: the notes page first, then the chat
// echo and the event stream when configured.
func newPublisher(cfg *Config, deps *infra, log *logger.Logger, metrics *observability.Metrics) (*publish.Fanout, error) {
	fanout := publish.NewFanout(log, metrics)

	pageURL := func(publish.SessionInfo) string { return "" }
	if !cfg.Notes.Disabled {
		var opts []publish.NotesOption
		if s := deps.storage.Storage(); s != nil {
			opts = append(opts, publish.WithUploader(newUploader(s, log, metrics)))
		}
		if cfg.Summary.Enabled {
			opts = append(opts, publish.WithSummarizer(summary.New(cfg.Summary, log, metrics)))
		}
		notes, err := publish.NewNotesPage(cfg.Notes, log, opts...)
		if err != nil {
			return nil, fmt.Errorf("notes: %w", err)
		}
		fanout.Add(notes, provider.ResilienceConfig{})
		pageURL = notes.PageURL
	}

	if cfg.Chat.WebhookURL != "" {
		fanout.Add(publish.NewChatEcho(cfg.Chat, pageURL), cfg.Publish.Resilience)
	}
	if deps.events != nil {
		fanout.Add(publish.NewEventPublisher(deps.events, cfg.Kafka.Topic, serviceName), cfg.Publish.Resilience)
	}

	log.Info("publishers configured", logger.Fields("count", fanout.Len()))
	return fanout, nil
}

// newUploader puts the archive behind a breaker and a short retry.
func newUploader(s storage.Storage, log *logger.Logger, metrics *observability.Metrics) publish.Uploader {
	cb := resilience.DefaultCircuitBreakerConfig("notes-archive")
	retry := resilience.DefaultRetryConfig()
	up := provider.WithResilience[storage.UploadRequest, string](
		storage.NewUploadProvider("notes-archive", s),
		provider.ResilienceConfig{CircuitBreaker: &cb, Retry: &retry},
	)
	return provider.Observe[storage.UploadRequest, string]("storage", log.WithComponent("storage"), metrics)(up)
}
