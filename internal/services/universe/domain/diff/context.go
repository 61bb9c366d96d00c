package diff

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/starpatch/internal/platform/errors"
	"github.com/louisbranch/starpatch/internal/platform/telemetry/metrics"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/hunk"
)

var (
	// ErrCatalogRequired indicates a missing diff catalog.
	ErrCatalogRequired = errors.New("diff: catalog is required")
	// ErrPatcherRequired indicates a missing hunk patcher.
	ErrPatcherRequired = errors.New("diff: patcher is required")
	// ErrBracketRequired indicates a missing recompute bracket.
	ErrBracketRequired = errors.New("diff: recompute bracket is required")
)

// Patcher applies and reverts single hunks.
type Patcher interface {
	Apply(*hunk.Hunk) error
	Revert(*hunk.Hunk) error
}

// Bracket defers universe recomputation across a batch of operations.
type Bracket interface {
	Start()
	End(ctx context.Context) bool
}

// Updater maps a saved diff name the catalog no longer knows to its current
// name. ok is false when the name has no replacement.
type Updater interface {
	Update(ctx context.Context, name string) (replacement string, ok bool, err error)
}

// UpdaterFunc adapts a function to Updater.
type UpdaterFunc func(ctx context.Context, name string) (string, bool, error)

// Update calls f.
func (f UpdaterFunc) Update(ctx context.Context, name string) (string, bool, error) {
	return f(ctx, name)
}

// Namer returns display names for hunk types in failure reports.
type Namer interface {
	HunkName(t hunk.Type) string
}

type defaultNamer struct{}

func (defaultNamer) HunkName(t hunk.Type) string { return hunk.Name(t) }

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the warning logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Context) { c.logger = logger }
}

// WithUpdater sets the fallback used by Load for unknown names.
func WithUpdater(u Updater) Option {
	return func(c *Context) { c.updater = u }
}

// WithTracer overrides the tracer used for operation spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Context) { c.tracer = tracer }
}

// WithMetrics records hunk outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Context) { c.metrics = m }
}

// WithNamer sets the display names used in failure reports.
func WithNamer(n Namer) Option {
	return func(c *Context) { c.namer = n }
}

// Context owns the diff stack of one world session.
type Context struct {
	catalog *Catalog
	patcher Patcher
	bracket Bracket
	stack   []*Instance

	logger  *log.Logger
	updater Updater
	tracer  trace.Tracer
	metrics *metrics.Metrics
	namer   Namer
}

// NewContext returns a context with an empty stack.
func NewContext(catalog *Catalog, patcher Patcher, bracket Bracket, opts ...Option) (*Context, error) {
	if catalog == nil {
		return nil, ErrCatalogRequired
	}
	if patcher == nil {
		return nil, ErrPatcherRequired
	}
	if bracket == nil {
		return nil, ErrBracketRequired
	}
	c := &Context{catalog: catalog, patcher: patcher, bracket: bracket}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer("github.com/louisbranch/starpatch/diff")
	}
	if c.namer == nil {
		c.namer = defaultNamer{}
	}
	return c, nil
}

// Catalog returns the catalog diffs are looked up in.
func (c *Context) Catalog() *Catalog {
	return c.catalog
}

// Result summarizes one Apply call.
type Result struct {
	Name string
	// AlreadyApplied is set when the call was a no-op.
	AlreadyApplied bool
	Applied        int
	Failed         []Failure
}

// Apply applies the named diff and pushes it on the stack. Applying a diff
// that is already applied does nothing. Hunk failures are reported and kept
// on the instance but do not fail the call.
func (c *Context) Apply(ctx context.Context, name string) (Result, error) {
	ctx, span := c.tracer.Start(ctx, "unidiff.apply", trace.WithAttributes(attribute.String("diff.name", name)))
	defer span.End()

	if c.IsApplied(name) {
		span.SetAttributes(attribute.Bool("diff.already_applied", true))
		return Result{Name: name, AlreadyApplied: true}, nil
	}
	def, err := c.catalog.Definition(name)
	if err != nil {
		c.logger.Printf("unidiff '%s': %v", name, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "definition unavailable")
		return Result{Name: name}, err
	}

	c.bracket.Start()
	defer c.bracket.End(ctx)

	inst := &Instance{def: def}
	for _, h := range def.hunks {
		h = h.Clone()
		if err := c.patcher.Apply(&h); err != nil {
			inst.failed = append(inst.failed, Failure{Hunk: h, Err: err})
			c.metrics.HunkFailed(string(apperrors.CodeOf(err)))
			continue
		}
		inst.applied = append(inst.applied, h)
		c.metrics.HunkApplied(h.Target.Kind.String())
	}
	if len(inst.failed) > 0 {
		c.reportFailures(inst)
	}
	c.stack = append(c.stack, inst)
	c.metrics.SetActiveDiffs(len(c.stack))

	span.SetAttributes(
		attribute.Int("diff.hunks_applied", len(inst.applied)),
		attribute.Int("diff.hunks_failed", len(inst.failed)),
	)
	return Result{Name: name, Applied: len(inst.applied), Failed: inst.Failed()}, nil
}

// Remove reverts the named diff's applied hunks in reverse order and drops
// it from the stack. Revert failures are logged and skipped.
func (c *Context) Remove(ctx context.Context, name string) error {
	ctx, span := c.tracer.Start(ctx, "unidiff.remove", trace.WithAttributes(attribute.String("diff.name", name)))
	defer span.End()

	i := c.index(name)
	if i < 0 {
		err := apperrors.WithMetadata(apperrors.CodeDiffNotApplied, "diff not applied", map[string]string{"diff": name})
		c.logger.Printf("unidiff '%s': %v", name, err)
		span.SetStatus(codes.Error, "diff not applied")
		return err
	}

	c.bracket.Start()
	defer c.bracket.End(ctx)

	c.revert(c.stack[i])
	c.stack = slices.Delete(c.stack, i, i+1)
	c.metrics.SetActiveDiffs(len(c.stack))
	return nil
}

// Clear removes every applied diff, most recently applied first.
func (c *Context) Clear(ctx context.Context) {
	ctx, span := c.tracer.Start(ctx, "unidiff.clear", trace.WithAttributes(attribute.Int("diff.count", len(c.stack))))
	defer span.End()

	c.bracket.Start()
	defer c.bracket.End(ctx)

	for i := len(c.stack) - 1; i >= 0; i-- {
		c.revert(c.stack[i])
	}
	c.stack = nil
	c.metrics.SetActiveDiffs(0)
}

// IsApplied reports whether the named diff is on the stack.
func (c *Context) IsApplied(name string) bool {
	return c.index(name) >= 0
}

// Instance returns the live instance of the named diff.
func (c *Context) Instance(name string) (*Instance, bool) {
	i := c.index(name)
	if i < 0 {
		return nil, false
	}
	return c.stack[i], true
}

// Applied returns the names of applied diffs in stack order. This is the
// persisted form of the stack.
func (c *Context) Applied() []string {
	out := make([]string, 0, len(c.stack))
	for _, inst := range c.stack {
		out = append(out, inst.Name())
	}
	return out
}

// Load replaces the stack with the named diffs, applied in order inside a
// single recompute bracket. Names the catalog does not know are passed to the
// updater; names that still cannot be resolved are reported and skipped.
func (c *Context) Load(ctx context.Context, names []string) error {
	ctx, span := c.tracer.Start(ctx, "unidiff.load", trace.WithAttributes(attribute.Int("diff.count", len(names))))
	defer span.End()

	c.bracket.Start()
	defer c.bracket.End(ctx)

	c.Clear(ctx)
	var errs []error
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			c.logger.Printf("unidiff load: empty diff name in save")
			continue
		}
		resolved, err := c.resolve(ctx, name)
		if err != nil {
			c.logger.Printf("unidiff '%s': %v", name, err)
			errs = append(errs, err)
			continue
		}
		if resolved == "" {
			c.logger.Printf("unidiff '%s': dropped by save updater", name)
			continue
		}
		if _, err := c.Apply(ctx, resolved); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Start opens a recompute bracket around several operations.
func (c *Context) Start() {
	c.bracket.Start()
}

// End closes a bracket opened with Start.
func (c *Context) End(ctx context.Context) bool {
	return c.bracket.End(ctx)
}

func (c *Context) resolve(ctx context.Context, name string) (string, error) {
	if c.catalog.Has(name) || c.updater == nil {
		return name, nil
	}
	replacement, ok, err := c.updater.Update(ctx, name)
	if err != nil {
		return "", fmt.Errorf("update saved name: %w", err)
	}
	if !ok {
		return name, nil
	}
	if replacement != "" {
		c.logger.Printf("unidiff '%s': renamed to '%s' by save updater", name, replacement)
	}
	return replacement, nil
}

func (c *Context) index(name string) int {
	return slices.IndexFunc(c.stack, func(inst *Instance) bool { return inst.Name() == name })
}

func (c *Context) revert(inst *Instance) {
	for i := len(inst.applied) - 1; i >= 0; i-- {
		h := &inst.applied[i]
		if err := c.patcher.Revert(h); err != nil {
			c.logger.Printf("unidiff '%s': failed to revert %s: %v", inst.Name(), h, err)
			c.metrics.RevertFailed()
			continue
		}
		c.metrics.HunkReverted()
	}
}

func (c *Context) reportFailures(inst *Instance) {
	noun := "hunks"
	if len(inst.failed) == 1 {
		noun = "hunk"
	}
	c.logger.Printf("unidiff '%s' failed to apply %d %s", inst.Name(), len(inst.failed), noun)
	for _, f := range inst.failed {
		c.logger.Printf("   %s", c.describe(f.Hunk))
	}
}

// describe renders one failure report line.
func (c *Context) describe(h hunk.Hunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", h.Target.Name, c.namer.HunkName(h.Type))
	if text := hunk.PayloadText(h.Payload); text != "" {
		fmt.Fprintf(&b, ": '%s'", text)
	}
	if label, ok := h.Label(); ok {
		fmt.Fprintf(&b, " (%s %s)", hunk.LabelAttribute, label)
	}
	return b.String()
}
