package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/matiasleandrokruk/toolhost/internal/domain/tool"
	"github.com/matiasleandrokruk/toolhost/internal/infra/eventbus"
)

// TopicToolInvoked carries an InvocationRecord for every finished dispatch.
const TopicToolInvoked = "tool.invoked"

type callerKey struct{}

// Caller identifies who invoked a tool and over which transport.
type Caller struct {
	ID        string
	Transport Transport
}

// WithCaller attaches the caller to ctx so the dispatch observer can record it.
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the caller stored by WithCaller.
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

// Publisher is a dispatcher observer that publishes each invocation on the bus.
type Publisher struct {
	bus eventbus.EventBus
}

func NewPublisher(bus eventbus.EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) ObserveInvocation(ctx context.Context, inv tool.Invocation) {
	caller, _ := CallerFrom(ctx)
	rec := &InvocationRecord{
		Tool:       inv.Tool,
		Caller:     caller.ID,
		Transport:  caller.Transport,
		Outcome:    OutcomeSuccess,
		ErrorKind:  string(inv.ErrorKind),
		DurationMs: inv.Duration.Milliseconds(),
		CreatedAt:  inv.StartedAt,
	}
	if inv.Outcome == tool.OutcomeError {
		rec.Outcome = OutcomeError
	}
	p.bus.Publish(TopicToolInvoked, rec)
}

type recordWriter interface {
	Record(ctx context.Context, rec *InvocationRecord) error
}

// Recorder persists records published on TopicToolInvoked. It subscribes on
// construction so nothing published afterwards is missed.
type Recorder struct {
	store  recordWriter
	sub    *eventbus.Subscription
	logger *slog.Logger
}

func NewRecorder(store recordWriter, bus eventbus.EventBus, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:  store,
		sub:    bus.Subscribe(TopicToolInvoked),
		logger: logger,
	}
}

// Run persists records until ctx is done, then writes whatever is still
// buffered and returns.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.sub.Close()
			drainCtx := context.WithoutCancel(ctx)
			for evt := range r.sub.C {
				r.persist(drainCtx, evt)
			}
			return
		case evt := <-r.sub.C:
			r.persist(ctx, evt)
		}
	}
}

func (r *Recorder) persist(ctx context.Context, evt eventbus.Event) {
	rec, ok := evt.Payload.(*InvocationRecord)
	if !ok {
		r.logger.Warn("unexpected payload on invocation topic", "type", fmt.Sprintf("%T", evt.Payload))
		return
	}
	if err := r.store.Record(ctx, rec); err != nil {
		r.logger.Error("failed to record invocation", "tool", rec.Tool, "error", err)
	}
}
