package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability/logctx"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/pkg/fault"
)

const spanPrefix = "UC."

// Report lets a successful use case override its status and add log fields.
type Report struct {
	Status string
	Fields []observability.Field
}

// Instrument wraps use cases with a span, RED metrics and a single
// use_case_done log line.
type Instrument struct {
	tel observability.Observability
	log observability.Logger

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func NewInstrument(tel observability.Observability, service string) *Instrument {
	if tel == nil {
		tel = observability.Nop()
	}
	m := tel.Metrics()
	return &Instrument{
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", service)),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
	}
}

func (in *Instrument) Telemetry() observability.Observability { return in.tel }

func (in *Instrument) Run(
	ctx context.Context,
	useCase, spanName string,
	fn func(ctx context.Context, span trace.Span) (Report, error),
	attrs ...attribute.KeyValue,
) (err error) {
	logger := logctx.FromOr(ctx, in.log).With(observability.F("use_case", useCase))

	ctx, span := in.tel.Tracer().Start(ctx, spanPrefix+spanName,
		append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)...,
	)
	start := time.Now()
	var rep Report

	defer func() {
		lat := time.Since(start).Seconds()
		outcome, statusText := "success", fault.CodeOf(err)
		if err != nil {
			outcome = "error"
		} else if rep.Status != "" {
			statusText = rep.Status
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		in.reqCounter.Add(1,
			observability.L("use_case", useCase),
			observability.L("outcome", outcome),
		)
		in.durHistogram.Observe(lat,
			observability.L("use_case", useCase),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		fields = append(fields, rep.Fields...)
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
			if k := fault.KindOf(err); k != fault.KindUnknown {
				fields = append(fields, observability.F("error_kind", k.String()))
			}
		}
		logger.Info("use_case_done", fields...)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	rep, err = fn(ctx, span)
	return err
}
