// Package marketplace runs the marketplace use cases: accounts, inventory,
// listings, the order lifecycle and reputation.
//
// Every use case holds the service lock for its whole read-validate-write
// cycle, stages its writes in a Store batch and commits once, so a failed
// call leaves no trace. Domain events are published after the commit.
package marketplace

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/application"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/market"
	domoutbox "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
)

const (
	serviceName     = "marketplace-service"
	publishPeer     = "outbox"
	publishTimeout  = 300 * time.Millisecond
	statusPublishKO = "EVENT_PUBLISH_FAILED"
)

type Service struct {
	mu        sync.Mutex
	store     market.Store
	publisher domoutbox.Publisher
	uc        *application.Instrument

	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

// NewService wires the store, an optional event publisher and telemetry.
func NewService(store market.Store, publisher domoutbox.Publisher, tel observability.Observability) *Service {
	uc := application.NewInstrument(tel, serviceName)
	m := uc.Telemetry().Metrics()
	return &Service{
		store:        store,
		publisher:    publisher,
		uc:           uc,
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
}

// call is the body of a use case. It runs under the service lock and returns
// the events to publish once it has committed.
type call func(ctx context.Context, span trace.Span) ([]domoutbox.Event, error)

func (s *Service) execute(ctx context.Context, useCase, spanName string, fn call, attrs ...attribute.KeyValue) error {
	return s.uc.Run(ctx, useCase, spanName, func(ctx context.Context, span trace.Span) (application.Report, error) {
		s.mu.Lock()
		events, err := fn(ctx, span)
		s.mu.Unlock()
		if err != nil {
			return application.Report{}, err
		}
		if perr := s.publish(ctx, events); perr != nil {
			return application.Report{
				Status: statusPublishKO,
				Fields: []observability.Field{observability.F("event_publish_error", perr.Error())},
			}, nil
		}
		return application.Report{}, nil
	}, attrs...)
}

// publish delivers events best-effort; the state is already committed.
func (s *Service) publish(ctx context.Context, events []domoutbox.Event) error {
	if s.publisher == nil {
		return nil
	}
	var firstErr error
	for _, e := range events {
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		pubStart := time.Now()
		pubOutcome := "success"

		err := s.publisher.Publish(pubCtx, e)
		if err != nil {
			pubOutcome = "error"
		} else if pubCtx.Err() != nil {
			pubOutcome = "canceled"
			err = pubCtx.Err()
		}
		cancel()

		s.extCounter.Add(1,
			observability.L("peer", publishPeer),
			observability.L("endpoint", e.EventName()),
			observability.L("outcome", pubOutcome),
		)
		s.extHistogram.Observe(time.Since(pubStart).Seconds(),
			observability.L("peer", publishPeer),
			observability.L("endpoint", e.EventName()),
		)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// commit writes every staged entity in one batch.
func (s *Service) commit(ctx context.Context, stage func(b market.Batch)) error {
	b, err := s.store.Begin(ctx)
	if err != nil {
		return wrapStoreError(err)
	}
	stage(b)
	if err := b.Commit(ctx); err != nil {
		return wrapStoreError(err)
	}
	return nil
}

func (s *Service) user(ctx context.Context, id market.AccountID) (*market.User, error) {
	u, err := s.store.User(ctx, id)
	if err != nil {
		return nil, wrapStoreError(err)
	}
	return u, nil
}

func (s *Service) next(ctx context.Context) (market.Sequences, error) {
	seq, err := s.store.Next(ctx)
	if err != nil {
		return market.Sequences{}, wrapStoreError(err)
	}
	return seq, nil
}
