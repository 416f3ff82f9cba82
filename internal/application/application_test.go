package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	infraobs "github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/pkg/fault"
)

type outcomes map[string]int

func (o outcomes) Add(_ float64, labels ...observability.Label) {
	for _, l := range labels {
		if l.Key == "outcome" {
			o[l.Value]++
		}
	}
}

func newInstrument(t *testing.T) (*Instrument, *observer.ObservedLogs, outcomes) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	counter := outcomes{}
	tel := infraobs.New(nil, zaplogger.Wrap(zap.New(core)),
		map[observability.MetricKey]observability.Counter{observability.MUsecaseRequests: counter}, nil)
	return NewInstrument(tel, "test-service"), logs, counter
}

func TestRunLogsOnce(t *testing.T) {
	in, logs, counter := newInstrument(t)
	ctx := context.Background()

	err := in.Run(ctx, "demo.ok", "Demo", func(context.Context, trace.Span) (Report, error) {
		return Report{Status: "PARTIAL", Fields: []observability.Field{observability.F("extra", 1)}}, nil
	})
	require.NoError(t, err)

	conflict := fault.New(fault.KindConflict, "Busy", "busy")
	err = in.Run(ctx, "demo.fail", "Demo", func(context.Context, trace.Span) (Report, error) {
		return Report{}, conflict
	})
	require.ErrorIs(t, err, conflict)

	entries := logs.FilterMessage("use_case_done").All()
	require.Len(t, entries, 2)

	ok := entries[0].ContextMap()
	require.Equal(t, "demo.ok", ok["use_case"])
	require.Equal(t, "test-service", ok["service"])
	require.Equal(t, "PARTIAL", ok["status"])
	require.EqualValues(t, 1, ok["extra"])

	failed := entries[1].ContextMap()
	require.Equal(t, "error", failed["outcome"])
	require.Equal(t, "Busy", failed["status"])
	require.Equal(t, "conflict", failed["error_kind"])

	require.Equal(t, outcomes{"success": 1, "error": 1}, counter)
}

func TestRunSkipsBodyOnCanceledContext(t *testing.T) {
	in, logs, _ := newInstrument(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := in.Run(ctx, "demo.canceled", "Demo", func(context.Context, trace.Span) (Report, error) {
		called = true
		return Report{}, nil
	})
	require.True(t, errors.Is(err, context.Canceled))
	require.False(t, called)
	require.Equal(t, "Internal", logs.All()[0].ContextMap()["status"])
}
