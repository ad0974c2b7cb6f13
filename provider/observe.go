package provider

import (
	"context"
	"time"

	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/observability"
)

// Observe wraps each call in a "<component>.<provider>" span, a log line
// and the provider call metrics. Nil log or metrics are allowed.
func Observe[I, O any](component string, log *logger.Logger, metrics *observability.Metrics) Middleware[I, O] {
	if log == nil {
		log = logger.NewNop()
	}
	return func(p RequestResponse[I, O]) RequestResponse[I, O] {
		return &observed[I, O]{RequestResponse: p, component: component, log: log, metrics: metrics}
	}
}

type observed[I, O any] struct {
	RequestResponse[I, O]
	component string
	log       *logger.Logger
	metrics   *observability.Metrics
}

func (o *observed[I, O]) Execute(ctx context.Context, input I) (O, error) {
	name := o.RequestResponse.Name()
	ctx, span := observability.StartSpan(ctx, o.component+"."+name)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrServiceName, o.component)
	observability.SetSpanAttribute(ctx, observability.AttrOperationName, name)

	start := time.Now()
	out, err := o.RequestResponse.Execute(ctx, input)
	elapsed := time.Since(start)

	log := o.log.WithContext(ctx)
	fields := logger.Fields(logger.FieldProvider, name, logger.FieldDuration, elapsed.Milliseconds())
	status := "ok"
	if err != nil {
		status = "error"
		observability.SetSpanError(ctx, err)
		log.Error("provider call failed", logger.MergeWithError(fields, err))
	} else {
		log.Debug("provider call ok", fields)
	}
	o.metrics.RecordProviderCall(ctx, name, status, elapsed)
	return out, err
}
