package producer

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/minutes/kafka"
	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/provider"
	"github.com/kbukum/minutes/resilience"
)

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("kafka producer closed")

// messageWriter is what the producer needs from *kafkago.Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Stats() kafkago.WriterStats
	Close() error
}

// Producer sends records through a kafka-go Writer built from kafka.Config.
// Transient broker errors are retried here; the writer itself tries once.
type Producer struct {
	cfg   kafka.Config
	log   *logger.Logger
	retry resilience.RetryConfig

	mu     sync.Mutex
	writer messageWriter
	closed bool
}

var _ provider.Sink[kafka.Message] = (*Producer)(nil)

// NewProducer builds the writer right away.
func NewProducer(cfg kafka.Config, log *logger.Logger) (*Producer, error) {
	p, err := NewLazyProducer(cfg, log)
	if err != nil {
		return nil, err
	}
	if _, err := p.ready(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewLazyProducer defers building the writer to the first write, so the
// service starts while the brokers are still unreachable.
func NewLazyProducer(cfg kafka.Config, log *logger.Logger) (*Producer, error) {
	cfg.ApplyDefaults()
	if !cfg.Enabled {
		return nil, errors.New("kafka is disabled")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kafka producer config: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}
	p := &Producer{cfg: cfg, log: log.WithComponent("kafka.producer")}
	p.retry = resilience.RetryConfig{
		MaxAttempts:    cfg.Retries,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		BackoffFactor:  2,
		RetryIf: func(err error) bool {
			return resilience.DefaultRetryIf(err) && !kafka.IsNonRetryableError(err)
		},
		OnRetry: func(attempt int, err error, wait time.Duration) {
			p.log.Warn("kafka write failed, retrying", logger.MergeWithError(
				logger.Fields("attempt", attempt, "backoff", wait.String()), err))
		},
	}
	return p, nil
}

// ready returns the writer, building it on first use.
func (p *Producer) ready() (messageWriter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	if p.writer != nil {
		return p.writer, nil
	}

	transport, err := kafka.CreateTransport(&p.cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer transport: %w", err)
	}
	p.writer = &kafkago.Writer{
		Addr:         kafkago.TCP(p.cfg.Brokers...),
		Transport:    transport,
		Balancer:     &kafkago.Hash{},
		BatchSize:    p.cfg.BatchSize,
		BatchTimeout: p.cfg.BatchTimeout,
		RequiredAcks: kafkago.RequiredAcks(p.cfg.RequiredAcks),
		Compression:  kafka.ResolveCompression(p.cfg.Compression),
		WriteTimeout: p.cfg.WriteTimeout,
		MaxAttempts:  1,
		ErrorLogger: kafkago.LoggerFunc(func(msg string, args ...any) {
			p.log.Error("kafka writer: " + fmt.Sprintf(msg, args...))
		}),
	}
	p.log.Info("kafka writer ready", logger.Fields(
		"brokers", p.cfg.Brokers,
		"compression", p.cfg.Compression,
	))
	return p.writer, nil
}

// WriteMessages sends msgs. A failure comes back as an AppError tagged with
// the topic of the first message.
func (p *Producer) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	w, err := p.ready()
	if err != nil {
		return err
	}
	err = resilience.RetryFunc(ctx, p.retry, func() error {
		return w.WriteMessages(ctx, msgs...)
	})
	if err == nil {
		return nil
	}
	topic := p.cfg.Topic
	if len(msgs) > 0 {
		topic = cmp.Or(msgs[0].Topic, topic)
	}
	return kafka.FromKafka(err, topic)
}

// Name is the configured client ID.
func (p *Producer) Name() string { return p.cfg.ClientID }

// IsAvailable is true until Close.
func (p *Producer) IsAvailable(context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed
}

// Send writes one message.
func (p *Producer) Send(ctx context.Context, msg kafka.Message) error {
	return p.WriteMessages(ctx, msg.ToKafkaMessage())
}

// Stats is zero until the writer exists.
func (p *Producer) Stats() kafkago.WriterStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writer == nil {
		return kafkago.WriterStats{}
	}
	return p.writer.Stats()
}

func (p *Producer) Metrics() kafka.WriterMetrics {
	return kafka.CollectWriterMetrics(p.Stats())
}

// Close flushes pending batches. Later calls do nothing.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
