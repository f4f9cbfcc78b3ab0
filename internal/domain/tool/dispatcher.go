package tool

import (
	"context"
	"fmt"
	"time"
)

// Outcome of a single dispatch.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// Invocation describes a finished dispatch for observers.
type Invocation struct {
	Tool      string
	Outcome   Outcome
	ErrorKind Kind
	Duration  time.Duration
	StartedAt time.Time
}

// Observer is notified after every dispatch. It must not block.
type Observer interface {
	ObserveInvocation(ctx context.Context, inv Invocation)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, inv Invocation)

func (f ObserverFunc) ObserveInvocation(ctx context.Context, inv Invocation) { f(ctx, inv) }

type DispatcherOption func(*Dispatcher)

// WithObserver attaches an observer to the dispatcher.
func WithObserver(o Observer) DispatcherOption {
	return func(d *Dispatcher) { d.observer = o }
}

// WithClock overrides the time source used for durations.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

// Dispatcher validates invocation requests against the registry, runs the
// implementation and checks its output. It holds no per-call state.
type Dispatcher struct {
	registry *ToolRegistry
	observer Observer
	now      func() time.Time
}

func NewDispatcher(registry *ToolRegistry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{registry: registry, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the registry the dispatcher routes to.
func (d *Dispatcher) Registry() *ToolRegistry { return d.registry }

// Dispatch runs one request through lookup, the permission check, validation,
// invocation and the return-shape check. Every failure is reported inside the
// result.
func (d *Dispatcher) Dispatch(ctx context.Context, req InvocationRequest) InvocationResult {
	start := d.now()
	payload, err := d.dispatch(ctx, req)

	var result InvocationResult
	if err != nil {
		result = Failure(req.Tool, err)
	} else {
		result = Success(req.Tool, payload)
	}

	if d.observer != nil {
		inv := Invocation{
			Tool:      req.Tool,
			Outcome:   OutcomeSuccess,
			Duration:  d.now().Sub(start),
			StartedAt: start,
		}
		if err != nil {
			inv.Outcome = OutcomeError
			inv.ErrorKind = result.Error.Kind
		}
		d.observer.ObserveInvocation(ctx, inv)
	}
	return result
}

func (d *Dispatcher) dispatch(ctx context.Context, req InvocationRequest) (map[string]any, error) {
	entry, err := d.registry.Lookup(req.Tool)
	if err != nil {
		return nil, err
	}

	if granted, ok := GrantedPermissions(ctx); ok {
		if err := CheckPermissions(entry.Descriptor, granted); err != nil {
			return nil, err
		}
	}

	args, err := validateArguments(entry.Descriptor, req.Arguments)
	if err != nil {
		return nil, err
	}

	out, err := invoke(ctx, entry.Implementation, args)
	if err != nil {
		return nil, implementationError(entry.Descriptor.Name, err)
	}

	return checkReturnShape(entry.Descriptor, out)
}

func invoke(ctx context.Context, impl Implementation, args Arguments) (out map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return impl.Invoke(ctx, args)
}
