package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/roach88/transpiler/internal/engine"
	"github.com/roach88/transpiler/internal/langs"
	"github.com/roach88/transpiler/internal/langs/annotate"
	"github.com/roach88/transpiler/internal/store"
	"github.com/roach88/transpiler/internal/trace"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Lang           string
	Data           string
	Annotate       []string
	AnnotateFormat string
	Database       string
	Output         string
	Metrics        bool
	MaxDispatches  int

	// IDGenerator overrides the run ID source (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator trace.IDGenerator
}

// RenderResult is the JSON payload of a successful render.
type RenderResult struct {
	Lang   string `json:"lang"`
	Output string `json:"output"`
	Events int    `json:"events"`

	Warnings []string `json:"warnings,omitempty"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <ast-file>",
		Short: "Render an AST file",
		Long: `Render an AST file through a built-in language.

The tree is read as JSON, YAML or CUE depending on the file extension.
--data seeds the context data with a JSON value. --annotate wraps the
named node types in an override that renders through the base table and
tags the result (see --annotate-format).

With --db, the run and its dispatch trace are stored in SQLite and can be
inspected with "transpile trace".

Exit codes:
  0 - Rendered
  1 - The traversal failed (unknown node type, handler error)
  2 - Command error (missing file, unknown language, bad --data)

Examples:
  transpile render tree.json --lang arith
  transpile render query.cue --lang sqlgen --data '{"bound": {"min": 3}}'
  transpile render tree.json --lang arith --annotate EXPRESSION
  transpile render tree.json --lang arith --max-dispatches 1000
  transpile render tree.json --lang arith --db ./runs.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Lang, "lang", "l", "", "language to render with (required)")
	_ = cmd.MarkFlagRequired("lang")
	cmd.Flags().StringVar(&opts.Data, "data", "", "root context data as JSON")
	cmd.Flags().StringSliceVar(&opts.Annotate, "annotate", nil, "node types to annotate (repeatable)")
	cmd.Flags().StringVar(&opts.AnnotateFormat, "annotate-format", annotate.DefaultFormat, "annotation template with {type} and {out}")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write output to file instead of stdout")
	cmd.Flags().IntVar(&opts.MaxDispatches, "max-dispatches", 0, "abort after this many handler calls (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print dispatch metrics to stderr in Prometheus text format")

	return cmd
}

func runRender(ctx context.Context, opts *RenderOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	lang, err := langs.Lookup(opts.Lang)
	if err != nil {
		_ = formatter.Error(ErrCodeUnknownLang, err.Error(), langs.Names())
		return WrapExitError(ExitCommandError, "unknown language", err)
	}

	tree, err := LoadTree(path)
	if err != nil {
		_ = formatter.Error(loadErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load tree", err)
	}
	data, err := ParseData(opts.Data)
	if err != nil {
		_ = formatter.Error(loadErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid context data", err)
	}

	if opts.MaxDispatches < 0 {
		err := fmt.Errorf("--max-dispatches must not be negative, got %d", opts.MaxDispatches)
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid flag", err)
	}

	reg := prometheus.NewRegistry()
	metrics, err := trace.NewMetrics(reg)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to register metrics", err)
	}
	recorder := trace.NewRecorder(nil)
	eng := engine.New(lang.Spec,
		engine.WithLogger(logger),
		engine.WithObserver(engine.Observers(recorder, metrics)),
		engine.WithMaxDispatches(opts.MaxDispatches),
	)

	var overrides engine.Options
	if len(opts.Annotate) > 0 {
		for _, name := range opts.Annotate {
			if !eng.HasHandler(name) {
				err := fmt.Errorf("--annotate %s: language %s has no handler for it", name, lang.Name)
				_ = formatter.Error(ErrCodeBadAnnotate, err.Error(), lang.NodeNames())
				return WrapExitError(ExitCommandError, "invalid --annotate", err)
			}
		}
		overrides = annotate.Wrap(opts.AnnotateFormat, opts.Annotate...)
	}

	warnings := lintTree(lang, tree, logger)

	formatter.VerboseLog("rendering %s with %s", path, lang.Name)
	output, renderErr := lang.Render(eng, tree, data, overrides)
	metrics.ObserveRun(lang.Name, renderErr)
	formatter.VerboseLog("dispatch order: %s", strings.Join(recorder.Names(), " "))

	var runID string
	if opts.Database != "" {
		runID, err = recordRun(ctx, opts, lang.Name, tree, data, output, renderErr, recorder.Events())
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		formatter.RunID = runID
		logger.Info("run recorded", "run_id", runID, "db", opts.Database, "events", recorder.Len())
	}

	if opts.Metrics {
		if err := writeMetrics(cmd.ErrOrStderr(), reg); err != nil {
			return WrapExitError(ExitFailure, "failed to write metrics", err)
		}
	}

	if renderErr != nil {
		code := string(engine.CodeOf(renderErr))
		if code == "" {
			code = store.ErrCodeHandler
		}
		details := map[string]any{"events": recorder.Len()}
		if engine.IsDispatchLimit(renderErr) {
			details["max_dispatches"] = opts.MaxDispatches
		}
		_ = formatter.Error(code, renderErr.Error(), details)
		return WrapExitError(ExitFailure, "render failed", renderErr)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(output+"\n"), 0644); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		formatter.VerboseLog("wrote %s", opts.Output)
	}

	if opts.Format == "json" {
		return formatter.Success(RenderResult{
			Lang:   lang.Name,
			Output: output,
			Events: recorder.Len(),

			Warnings: warnings,
		})
	}
	if opts.Output == "" {
		return formatter.Success(output)
	}
	return nil
}

// recordRun stores the run and its trace and returns the run ID.
func recordRun(ctx context.Context, opts *RenderOptions, lang string, tree any, data engine.Data, output string, renderErr error, events []trace.Event) (string, error) {
	st, err := store.Open(opts.Database)
	if err != nil {
		return "", err
	}
	defer st.Close()

	ids := opts.IDGenerator
	if ids == nil {
		ids = trace.UUIDv7Generator{}
	}
	run, err := store.NewRun(ids.Generate(), lang, tree, data)
	if err != nil {
		return "", err
	}
	run.SetResult(output, renderErr)
	if err := st.RecordRun(ctx, run, events); err != nil {
		return "", err
	}
	return run.ID, nil
}

// lintTree logs the language's portability warnings for tree. A tree the
// linter cannot walk is left for the render to report.
func lintTree(lang langs.Language, tree any, logger *slog.Logger) []string {
	if lang.Lint == nil {
		return nil
	}
	warnings, err := lang.Lint(tree)
	if err != nil {
		logger.Debug("lint skipped", "lang", lang.Name, "error", err)
		return nil
	}
	for _, w := range warnings {
		logger.Warn("lint", "lang", lang.Name, "warning", w)
	}
	return warnings
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
