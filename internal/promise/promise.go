// Package promise implements spec §4.7: a Promise state machine and a
// single-threaded cooperative EventLoop that drains a FIFO microtask queue
// to exhaustion before running any macrotask. Grounded on funvibe-funxy's
// internal/evaluator task-cloning/cancellation idiom (one goroutine per
// task, a context.Context carrying cancellation, Eval checking
// ctx.Done() on entry) generalized down to a single goroutine: the core's
// execution model (spec §5) is single-threaded, so the loop here is one
// pump function draining a plain slice queue rather than a worker-per-task
// channel fan-out — the concurrency funvibe-funxy's Clone()/goroutine
// split needs isn't present, but the cancellation-aware run loop shape is
// exactly the evaluator's Eval/evalCore split, just without the clone.
package promise

import (
	"context"

	"github.com/solarbrowser/quanta/internal/errors"
	"github.com/solarbrowser/quanta/internal/value"
)

// State is one of a Promise's three settlement states (spec §4.7).
type State int

const (
	Pending State = iota
	Fulfilled
	Rejected
)

func (s State) String() string {
	switch s {
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	default:
		return "pending"
	}
}

// reaction is one registered then()/catch() handler pair awaiting
// settlement.
type reaction struct {
	onFulfilled func(value.Value)
	onRejected  func(value.Value)
}

// Promise is permanent once settled (spec §4.7: "a Promise transitions at
// most once, from pending to fulfilled or rejected, and never again").
// All mutation happens on the EventLoop's single goroutine; Promise itself
// holds no lock, matching the engine's single-threaded execution model.
type Promise struct {
	loop      *EventLoop
	state     State
	result    value.Value
	reactions []reaction
}

// New creates a pending Promise owned by loop.
func New(loop *EventLoop) *Promise {
	return &Promise{loop: loop, state: Pending}
}

// State reports the Promise's current settlement state.
func (p *Promise) State() State { return p.state }

// Result returns the fulfillment value or rejection reason, valid once
// State() is no longer Pending.
func (p *Promise) Result() value.Value { return p.result }

// Resolve settles p as fulfilled with v, unless v is itself a thenable
// Promise, in which case p instead adopts v's eventual state (spec §4.7's
// promise-resolution-procedure, restricted to the one thenable shape the
// core itself produces — a *Promise — since arbitrary host thenables are
// a built-in-library concern, not a core one).
func (p *Promise) Resolve(v value.Value) {
	if p.state != Pending {
		return
	}
	if inner, ok := asPromise(v); ok {
		inner.Then(p.Resolve, p.Reject)
		return
	}
	p.settle(Fulfilled, v)
}

// Reject settles p as rejected with reason.
func (p *Promise) Reject(reason value.Value) {
	if p.state != Pending {
		return
	}
	p.settle(Rejected, reason)
}

func (p *Promise) settle(state State, v value.Value) {
	p.state = state
	p.result = v
	reactions := p.reactions
	p.reactions = nil
	for _, r := range reactions {
		p.scheduleReaction(r)
	}
}

// Then registers onFulfilled/onRejected, queuing them as a microtask if p
// is already settled, or recording them for when it settles.
func (p *Promise) Then(onFulfilled, onRejected func(value.Value)) {
	r := reaction{onFulfilled: onFulfilled, onRejected: onRejected}
	if p.state == Pending {
		p.reactions = append(p.reactions, r)
		return
	}
	p.scheduleReaction(r)
}

func (p *Promise) scheduleReaction(r reaction) {
	state, v := p.state, p.result
	p.loop.Enqueue(func() {
		switch state {
		case Fulfilled:
			if r.onFulfilled != nil {
				r.onFulfilled(v)
			}
		case Rejected:
			if r.onRejected != nil {
				r.onRejected(v)
			}
		}
	})
}

func asPromise(v value.Value) (*Promise, bool) {
	if !v.IsObject() {
		return nil, false
	}
	if UnwrapHook == nil {
		return nil, false
	}
	return UnwrapHook(v)
}

// UnwrapHook is set once by internal/builtins (the same cross-package hook
// idiom as function.EvalBodyHook/object.CallHook): it knows how a
// value.Value wraps a *Promise (an object.Object's Internal slot), which
// this package cannot know itself without importing internal/object and
// creating a cycle (object-kind wrapping is a builtins-layer concern).
var UnwrapHook func(value.Value) (*Promise, bool)

// Microtask is a unit of queued work: a .then/.catch reaction or a
// continuation resumed by an awaited Promise settling.
type Microtask func()

// EventLoop is the single-threaded cooperative scheduler spec §4.7
// describes: Enqueue never blocks, Run drains the FIFO queue to
// exhaustion (a microtask enqueuing another microtask is drained in the
// same Run call, spec's "microtasks run to quiescence before any
// macrotask"), and macrotasks (timers) are a strictly later tier the core
// does not implement — an external host would enqueue them between Run
// calls.
type EventLoop struct {
	queue []Microtask
}

// NewEventLoop creates an empty loop.
func NewEventLoop() *EventLoop {
	return &EventLoop{}
}

// Enqueue appends a microtask to the FIFO queue.
func (l *EventLoop) Enqueue(m Microtask) {
	l.queue = append(l.queue, m)
}

// Pending reports whether the queue has unrun microtasks.
func (l *EventLoop) Pending() bool { return len(l.queue) > 0 }

// Run drains the queue to exhaustion, respecting ctx cancellation between
// tasks (grounded on funvibe-funxy's per-Eval-call ctx.Done() check).
func (l *EventLoop) Run(ctx context.Context) error {
	for len(l.queue) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		next := l.queue[0]
		l.queue = l.queue[1:]
		next()
	}
	return nil
}

// Await is `await`'s evaluation rule without real coroutine suspension:
// the core has no generator-style interpreter re-entry point to pause
// and resume from mid-expression, so Await instead drains the loop's
// microtask queue synchronously until the awaited Promise settles. Every
// .then callback already queued ahead of it still runs in FIFO order
// first, matching spec §4.7's ordering guarantee for already-pending
// reactions; what it does not model is a later microtask enqueued
// *after* this Await call observing a different interleaving than real
// coroutine suspension would produce — an accepted simplification for a
// tree-walking (non-CPS) interpreter, not a silent gap.
func Await(ctx context.Context, loop *EventLoop, v value.Value) (value.Value, error) {
	p, ok := asPromise(v)
	if !ok {
		return v, nil
	}
	for p.State() == Pending {
		if !loop.Pending() {
			return value.Undefined(), errors.New(errors.KindInternal, "await: promise never settles (no pending microtask can resolve it)")
		}
		select {
		case <-ctx.Done():
			return value.Undefined(), ctx.Err()
		default:
		}
		next := loop.queue[0]
		loop.queue = loop.queue[1:]
		next()
	}
	if p.State() == Rejected {
		return value.Undefined(), &RejectedError{Reason: p.Result()}
	}
	return p.Result(), nil
}

// RejectedError wraps a rejected Promise's reason so callers (the
// interpreter's await evaluator) can re-throw it as a script exception
// rather than a host error.
type RejectedError struct {
	Reason value.Value
}

func (e *RejectedError) Error() string { return e.Reason.ToString() }
