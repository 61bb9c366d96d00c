// Package starpatch parses starpatch command flags and runs one subcommand
// against a loaded universe and save slot.
package starpatch

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	entrypoint "github.com/louisbranch/starpatch/internal/platform/cmd"
	apperrors "github.com/louisbranch/starpatch/internal/platform/errors"
	"github.com/louisbranch/starpatch/internal/services/universe/app"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/diff"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/editor"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/hunk"
	"github.com/louisbranch/starpatch/internal/services/universe/scripting"
	"github.com/louisbranch/starpatch/internal/services/universe/unidiffxml"
)

// Config holds starpatch command configuration.
type Config struct {
	DataDir      string `env:"STARPATCH_DATA_DIR" envDefault:"data/unidiff"`
	UniversePath string `env:"STARPATCH_UNIVERSE_PATH" envDefault:"data/universe.yaml"`
	DBPath       string `env:"STARPATCH_DB_PATH" envDefault:"data/starpatch.db"`
	Save         string `env:"STARPATCH_SAVE" envDefault:"default"`
	UpdaterPath  string `env:"STARPATCH_UPDATER_PATH"`
	Locale       string `env:"STARPATCH_LOCALE" envDefault:"en-US"`
	Metrics      bool   `env:"STARPATCH_METRICS"`

	// Command is the subcommand; Args are its operands.
	Command string
	Args    []string
}

// ErrUsage indicates a missing or malformed subcommand.
var ErrUsage = errors.New("usage: starpatch [flags] list|check|status|apply NAME...|remove NAME...|script FILE|export NAME|compose NAME DIFF...")

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory of unidiff documents")
	fs.StringVar(&cfg.UniversePath, "universe", cfg.UniversePath, "Universe seed YAML path")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The save SQLite database path")
	fs.StringVar(&cfg.Save, "save", cfg.Save, "Save slot name")
	fs.StringVar(&cfg.UpdaterPath, "updater", cfg.UpdaterPath, "Lua save updater script")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Locale for reports")
	fs.BoolVar(&cfg.Metrics, "metrics", cfg.Metrics, "Print engine metrics after the command")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	rest := fs.Args()
	if len(rest) > 0 {
		cfg.Command = rest[0]
		cfg.Args = rest[1:]
	}
	return cfg, nil
}

// Run executes cfg.Command with tracing configured.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceStarpatch, func(ctx context.Context) error {
		return Execute(ctx, cfg, os.Stdout, log.Default())
	})
}

type command struct {
	minArgs int
	mutates bool
	run     func(ctx context.Context, rt *app.Runtime, args []string, out io.Writer) error
}

var commands = map[string]command{
	"list":    {run: list},
	"check":   {run: check},
	"status":  {run: status},
	"apply":   {minArgs: 1, mutates: true, run: apply},
	"remove":  {minArgs: 1, mutates: true, run: remove},
	"script":  {minArgs: 1, mutates: true, run: script},
	"export":  {minArgs: 1, run: export},
	"compose": {minArgs: 2, run: compose},
}

// Execute loads the save slot, runs the subcommand, and persists the slot
// when the subcommand changes the stack.
func Execute(ctx context.Context, cfg Config, out io.Writer, logger *log.Logger) error {
	cmd, ok := commands[cfg.Command]
	if !ok || len(cfg.Args) < cmd.minArgs {
		return ErrUsage
	}

	registry := prometheus.NewRegistry()
	rt, err := app.New(ctx, app.RuntimeConfig{
		DataDir:      cfg.DataDir,
		UniversePath: cfg.UniversePath,
		DBPath:       cfg.DBPath,
		Save:         cfg.Save,
		UpdaterPath:  cfg.UpdaterPath,
		Locale:       cfg.Locale,
	}, app.WithLogger(logger), app.WithRegistry(registry))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			logger.Printf("close save store: %v", closeErr)
		}
	}()

	if err := rt.Restore(ctx); err != nil {
		// A partially restored stack is still usable.
		logger.Printf("restore save %s: %v", rt.Config.Save, err)
	}
	runErr := cmd.run(ctx, rt, cfg.Args, out)
	if cmd.mutates {
		if err := rt.Persist(ctx); err != nil {
			return errors.Join(runErr, err)
		}
	}
	if cfg.Metrics {
		if err := writeMetrics(out, registry); err != nil {
			return errors.Join(runErr, err)
		}
	}
	return runErr
}

func list(_ context.Context, rt *app.Runtime, _ []string, out io.Writer) error {
	cat := rt.Diffs.Catalog()
	fmt.Fprintln(out, rt.Text("cli.list.header", "%d diff(s) available", cat.Len()))
	for _, name := range cat.Names() {
		marker := " "
		if rt.Diffs.IsApplied(name) {
			marker = "*"
		}
		source, _ := cat.Source(name)
		fmt.Fprintf(out, "%s %-24s %s\n", marker, name, source)
	}
	return nil
}

func check(_ context.Context, rt *app.Runtime, _ []string, out io.Writer) error {
	if err := hunk.Validate(); err != nil {
		return fmt.Errorf("hunk registry: %w", err)
	}
	cat := rt.Diffs.Catalog()
	failed := 0
	for _, name := range cat.Names() {
		def, err := cat.Definition(name)
		if err != nil {
			failed++
			fmt.Fprintf(out, "  %s: %v\n", name, err)
			continue
		}
		fmt.Fprintf(out, "  %s: %d hunk(s)\n", name, def.Len())
	}
	if failed > 0 {
		fmt.Fprintln(out, rt.Text("cli.check.failed", "%d diff(s) failed to parse", failed))
		return apperrors.New(apperrors.CodeParseInvalid, fmt.Sprintf("%d diff(s) failed to parse", failed))
	}
	fmt.Fprintln(out, rt.Text("cli.check.ok", "All %d diff(s) parsed cleanly", cat.Len()))
	return nil
}

func status(_ context.Context, rt *app.Runtime, _ []string, out io.Writer) error {
	applied := rt.Diffs.Applied()
	fmt.Fprintln(out, rt.Text("cli.status.header", "Save %s: %d applied diff(s)", rt.Config.Save, len(applied)))
	if len(applied) == 0 {
		fmt.Fprintln(out, rt.Text("cli.status.none", "No diffs applied."))
		return nil
	}
	for i, name := range applied {
		line := fmt.Sprintf("%3d. %s", i+1, name)
		if inst, ok := rt.Diffs.Instance(name); ok && len(inst.Failed()) > 0 {
			line += fmt.Sprintf(" (%d failed)", len(inst.Failed()))
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func apply(ctx context.Context, rt *app.Runtime, names []string, out io.Writer) error {
	rt.Diffs.Start()
	defer rt.Diffs.End(ctx)

	var errs []error
	for _, name := range names {
		result, err := rt.Diffs.Apply(ctx, name)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("apply %s: %w", name, err))
		case result.AlreadyApplied:
			fmt.Fprintln(out, rt.Text("cli.apply.already", "%s is already applied", name))
		case len(result.Failed) > 0:
			fmt.Fprintln(out, rt.Text("cli.apply.partial", "Applied %s with %d failed hunk(s)", name, len(result.Failed)))
		default:
			fmt.Fprintln(out, rt.Text("cli.apply.done", "Applied %s", name))
		}
	}
	return errors.Join(errs...)
}

func remove(ctx context.Context, rt *app.Runtime, names []string, out io.Writer) error {
	rt.Diffs.Start()
	defer rt.Diffs.End(ctx)

	var errs []error
	for _, name := range names {
		if err := rt.Diffs.Remove(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", name, err))
			continue
		}
		fmt.Fprintln(out, rt.Text("cli.remove.done", "Removed %s", name))
	}
	return errors.Join(errs...)
}

func script(ctx context.Context, rt *app.Runtime, args []string, _ io.Writer) error {
	rt.Diffs.Start()
	defer rt.Diffs.End(ctx)
	return scripting.RunFile(ctx, rt.Diffs, args[0])
}

func export(_ context.Context, rt *app.Runtime, args []string, out io.Writer) error {
	def, err := rt.Diffs.Catalog().Definition(args[0])
	if err != nil {
		return err
	}
	return unidiffxml.Write(out, def)
}

// compose merges the hunks of several diffs into one document named
// args[0]. Later hunks replace earlier ones that write the same field. The
// world is restored before returning.
func compose(ctx context.Context, rt *app.Runtime, args []string, out io.Writer) error {
	session, err := editor.NewSession(rt.Dispatcher, rt.Coordinator, rt.Logger)
	if err != nil {
		return err
	}
	defer session.Discard(ctx)

	var errs []error
	for _, name := range args[1:] {
		def, err := rt.Diffs.Catalog().Definition(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, h := range def.Hunks() {
			if err := session.Admit(ctx, h); err != nil {
				rt.Logger.Printf("compose %s: skipping %s on %s: %v", name, h.Type, h.Target, err)
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	return unidiffxml.Write(out, session.Export(strings.TrimSpace(args[0])))
}

func writeMetrics(out io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(out, family); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

var _ scripting.Diffs = (*diff.Context)(nil)
