// Package recompute batches expensive universe-wide recomputation behind a
// dirty flag and nestable start/end brackets.
package recompute

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/starpatch/internal/platform/telemetry/metrics"
)

// Universe exposes the derived-state rebuild primitives.
type Universe interface {
	RebuildJumps()
	RecomputePresence()
	RecomputeSafeLanes()
	ResetPilotNavigation()
	ReloadGraphics()
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithHook registers a callback invoked after every recompute.
func WithHook(hook func()) Option {
	return func(c *Coordinator) { c.hook = hook }
}

// WithMetrics records recomputes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithTracer overrides the tracer used for recompute spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Coordinator) { c.tracer = tracer }
}

// Coordinator defers recomputation until the outermost bracket closes.
//
// While no bracket is open the coordinator is armed: the next End fires if
// anything marked the universe changed. Start resets the flag only when it
// opens the outermost bracket.
type Coordinator struct {
	universe Universe
	depth    int
	dirty    bool
	runs     int
	hook     func()
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// New returns an armed coordinator for u.
func New(u Universe, opts ...Option) *Coordinator {
	c := &Coordinator{universe: u}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer("github.com/louisbranch/starpatch/recompute")
	}
	return c
}

// Start opens a bracket.
func (c *Coordinator) Start() {
	if c.depth == 0 {
		c.dirty = false
	}
	c.depth++
}

// End closes a bracket and runs the recompute when the outermost bracket
// closes with the universe marked changed. It reports whether it ran.
// An End without a matching Start behaves like a single closed bracket.
func (c *Coordinator) End(ctx context.Context) bool {
	if c.depth > 0 {
		c.depth--
	}
	if c.depth > 0 || !c.dirty {
		return false
	}
	c.run(ctx)
	return true
}

// MarkChanged flags derived state as stale.
func (c *Coordinator) MarkChanged() {
	c.dirty = true
}

// Dirty reports whether a recompute is pending.
func (c *Coordinator) Dirty() bool {
	return c.dirty
}

// Deferred reports whether a bracket is open.
func (c *Coordinator) Deferred() bool {
	return c.depth > 0
}

// Runs counts completed recomputes.
func (c *Coordinator) Runs() int {
	return c.runs
}

func (c *Coordinator) run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	_, span := c.tracer.Start(ctx, "universe.recompute")
	defer span.End()

	c.dirty = false
	if c.universe != nil {
		c.universe.RebuildJumps()
		c.universe.RecomputePresence()
		c.universe.RecomputeSafeLanes()
		c.universe.ResetPilotNavigation()
		c.universe.ReloadGraphics()
	}
	c.runs++
	span.SetAttributes(attribute.Int("recompute.run", c.runs))
	c.metrics.Recomputed()
	if c.hook != nil {
		c.hook()
	}
}
