// Package app assembles the universe engine: the world, the recompute
// coordinator, the patch dispatcher, the diff catalog and stack, and save
// persistence.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/louisbranch/starpatch/internal/platform/i18n/catalog"
	"github.com/louisbranch/starpatch/internal/platform/telemetry/metrics"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/diff"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/hunk"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/patch"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/recompute"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/world"
	"github.com/louisbranch/starpatch/internal/services/universe/scripting"
	"github.com/louisbranch/starpatch/internal/services/universe/storage"
	savesqlite "github.com/louisbranch/starpatch/internal/services/universe/storage/sqlite"
	"github.com/louisbranch/starpatch/internal/services/universe/unidiffxml"
)

// RuntimeConfig controls where the runtime loads its data from.
type RuntimeConfig struct {
	DataDir      string
	UniversePath string
	DBPath       string
	Save         string
	UpdaterPath  string
	Locale       string
}

const (
	defaultDataDir      = "data/unidiff"
	defaultUniversePath = "data/universe.yaml"
	defaultDBPath       = "data/starpatch.db"
	defaultSave         = "default"
)

func (c RuntimeConfig) normalized() RuntimeConfig {
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = defaultDataDir
	}
	if strings.TrimSpace(c.UniversePath) == "" {
		c.UniversePath = defaultUniversePath
	}
	if strings.TrimSpace(c.DBPath) == "" {
		c.DBPath = defaultDBPath
	}
	c.Save = strings.TrimSpace(c.Save)
	if c.Save == "" {
		c.Save = defaultSave
	}
	if strings.TrimSpace(c.Locale) == "" {
		c.Locale = catalog.BaseLocale
	}
	return c
}

// Option configures a Runtime.
type Option func(*options)

type options struct {
	logger   *log.Logger
	store    storage.SaveStore
	diffFS   fs.FS
	registry prometheus.Registerer
}

// WithLogger sets the logger for engine warnings.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithStore replaces the SQLite save store.
func WithStore(store storage.SaveStore) Option {
	return func(o *options) { o.store = store }
}

// WithDiffFS reads diff documents from fsys instead of the data directory.
func WithDiffFS(fsys fs.FS) Option {
	return func(o *options) { o.diffFS = fsys }
}

// WithRegistry registers engine metrics with reg.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(o *options) { o.registry = reg }
}

// Runtime is a loaded universe with its diff stack and save slot.
type Runtime struct {
	Config      RuntimeConfig
	World       *world.World
	Coordinator *recompute.Coordinator
	Dispatcher  *patch.Dispatcher
	Diffs       *diff.Context
	Bundle      *catalog.Bundle
	Metrics     *metrics.Metrics
	Logger      *log.Logger

	store storage.SaveStore
	close func() error
}

// New loads the universe seed, indexes the diff catalog and opens the save
// store. The stack starts empty; call Restore to load the save slot.
func New(ctx context.Context, cfg RuntimeConfig, opts ...Option) (*Runtime, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg = cfg.normalized()
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}

	bundle, err := catalog.LoadEmbedded()
	if err != nil {
		return nil, fmt.Errorf("load message catalogs: %w", err)
	}
	if !bundle.HasLocale(cfg.Locale) {
		o.logger.Printf("locale %s has no catalog, using %s", cfg.Locale, catalog.BaseLocale)
	}

	m, err := metrics.New(o.registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	w, err := world.LoadFile(cfg.UniversePath)
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}
	coordinator := recompute.New(w, recompute.WithMetrics(m))
	dispatcher, err := patch.New(w, coordinator)
	if err != nil {
		return nil, fmt.Errorf("build dispatcher: %w", err)
	}

	diffFS := o.diffFS
	if diffFS == nil {
		diffFS = os.DirFS(cfg.DataDir)
	}
	cat := diff.NewCatalog()
	if _, err := unidiffxml.LoadCatalog(diffFS, ".", cat, o.logger); err != nil {
		return nil, fmt.Errorf("index diffs in %s: %w", cfg.DataDir, err)
	}

	diffOpts := []diff.Option{
		diff.WithLogger(o.logger),
		diff.WithMetrics(m),
		diff.WithNamer(hunkNamer{bundle: bundle, locale: cfg.Locale}),
	}
	if strings.TrimSpace(cfg.UpdaterPath) != "" {
		updater, err := scripting.LoadUpdater(cfg.UpdaterPath)
		if err != nil {
			return nil, fmt.Errorf("load save updater: %w", err)
		}
		diffOpts = append(diffOpts, diff.WithUpdater(updater))
	}
	diffs, err := diff.NewContext(cat, dispatcher, coordinator, diffOpts...)
	if err != nil {
		return nil, fmt.Errorf("build diff context: %w", err)
	}

	rt := &Runtime{
		Config:      cfg,
		World:       w,
		Coordinator: coordinator,
		Dispatcher:  dispatcher,
		Diffs:       diffs,
		Bundle:      bundle,
		Metrics:     m,
		Logger:      o.logger,
		store:       o.store,
		close:       func() error { return nil },
	}
	if rt.store == nil {
		store, err := openStore(ctx, cfg.DBPath)
		if err != nil {
			return nil, err
		}
		rt.store = store
		rt.close = store.Close
	}
	return rt, nil
}

func openStore(ctx context.Context, path string) (*savesqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create save storage dir: %w", err)
		}
	}
	store, err := savesqlite.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open save sqlite store: %w", err)
	}
	return store, nil
}

// Restore re-applies the diffs recorded in the save slot. A slot that was
// never written leaves the stack empty.
func (r *Runtime) Restore(ctx context.Context) error {
	record, err := r.store.LoadSave(ctx, r.Config.Save)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load save %s: %w", r.Config.Save, err)
	}
	return r.Diffs.Load(ctx, record.Diffs)
}

// Persist writes the applied stack to the save slot.
func (r *Runtime) Persist(ctx context.Context) error {
	if err := r.store.SaveApplied(ctx, r.Config.Save, r.Diffs.Applied()); err != nil {
		return fmt.Errorf("persist save %s: %w", r.Config.Save, err)
	}
	return nil
}

// Saves lists every persisted slot.
func (r *Runtime) Saves(ctx context.Context) ([]storage.SaveRecord, error) {
	return r.store.ListSaves(ctx)
}

// Text formats a CLI message in the runtime locale.
func (r *Runtime) Text(key, fallback string, args ...any) string {
	return r.Bundle.Sprintf(r.Config.Locale, key, fallback, args...)
}

// Close releases the save store.
func (r *Runtime) Close() error {
	if r == nil || r.close == nil {
		return nil
	}
	return r.close()
}

// hunkNamer translates hunk display names for failure reports.
type hunkNamer struct {
	bundle *catalog.Bundle
	locale string
}

func (n hunkNamer) HunkName(t hunk.Type) string {
	return n.bundle.Text(n.locale, "hunk."+t.Key(), hunk.Name(t))
}
