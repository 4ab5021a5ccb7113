package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/transpiler/internal/store"
	"github.com/roach88/transpiler/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Node     string // optional filter on node type
	Tree     string // optional filter on input tree hash (listing only)
}

// RunSummary is one line of the run listing.
type RunSummary struct {
	ID         string `json:"id"`
	Lang       string `json:"lang"`
	TreeHash   string `json:"tree_hash"`
	ErrorCode  string `json:"error_code,omitempty"`
	EventCount int    `json:"event_count"`
}

// TraceResult is the detail view of a single run.
type TraceResult struct {
	Run      RunSummary    `json:"run"`
	Output   string        `json:"output"`
	Error    string        `json:"error,omitempty"`
	Timeline []trace.Event `json:"timeline"`
	Stats    TraceStats    `json:"stats"`
}

// TraceStats summarizes a run's dispatches.
type TraceStats struct {
	TotalEvents int `json:"total_events"`
	Overrides   int `json:"overrides"`
	BaseOnly    int `json:"base_only"`
	MaxDepth    int `json:"max_depth"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded runs",
		Long: `Inspect runs recorded with "transpile render --db".

Without --run, lists every run in the database, or with --tree only the
runs whose input tree has that hash. With --run, prints the run's
dispatch timeline in traversal order, indented by depth.

Examples:
  transpile trace --db ./runs.db
  transpile trace --db ./runs.db --run 0191f5c2-...
  transpile trace --db ./runs.db --run 0191f5c2-... --node EXPRESSION
  transpile trace --db ./runs.db --tree 3f0c9a...
  transpile trace --db ./runs.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to show")
	cmd.Flags().StringVar(&opts.Node, "node", "", "only show dispatches of this node type")
	cmd.Flags().StringVar(&opts.Tree, "tree", "", "only list runs of the tree with this hash")
	cmd.MarkFlagsMutuallyExclusive("run", "tree")

	return cmd
}

func runTrace(ctx context.Context, opts *TraceOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID == "" {
		var runs []store.Run
		if opts.Tree != "" {
			runs, err = st.RunsForTree(ctx, opts.Tree)
		} else {
			runs, err = st.ListRuns(ctx)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		summaries := make([]RunSummary, len(runs))
		for i, r := range runs {
			summaries[i] = summarize(r)
		}
		if opts.Format == "json" {
			return formatter.Success(summaries)
		}
		return outputRunList(cmd.OutOrStdout(), summaries)
	}

	run, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("no run with ID %s", opts.RunID), nil)
		return WrapExitError(ExitCommandError, "run not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	events, err := st.ReadEvents(ctx, run.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	result := TraceResult{
		Run:      summarize(run),
		Output:   run.Output,
		Error:    run.ErrorMessage,
		Timeline: filterEvents(events, opts.Node),
		Stats:    computeStats(events),
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
}

func summarize(r store.Run) RunSummary {
	return RunSummary{
		ID:         r.ID,
		Lang:       r.Lang,
		TreeHash:   r.TreeHash,
		ErrorCode:  r.ErrorCode,
		EventCount: r.EventCount,
	}
}

// filterEvents keeps the events of one node type. An empty filter keeps
// everything.
func filterEvents(events []trace.Event, node string) []trace.Event {
	if node == "" {
		return events
	}
	out := []trace.Event{}
	for _, e := range events {
		if e.Name == node {
			out = append(out, e)
		}
	}
	return out
}

func computeStats(events []trace.Event) TraceStats {
	stats := TraceStats{TotalEvents: len(events)}
	for _, e := range events {
		if e.Layer == "override" {
			stats.Overrides++
		}
		if e.BaseOnly {
			stats.BaseOnly++
		}
		stats.MaxDepth = max(stats.MaxDepth, e.Depth)
	}
	return stats
}

func outputRunList(w io.Writer, runs []RunSummary) error {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %-8s %-6s %3d events  %s\n",
			r.ID, r.Lang, runStatus(r.ErrorCode), r.EventCount, truncateID(r.TreeHash))
	}
	return nil
}

func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	fmt.Fprintf(w, "Run: %s (%s)\n", result.Run.ID, result.Run.Lang)
	fmt.Fprintf(w, "Status: %s\n", runStatus(result.Run.ErrorCode))
	if verbose {
		fmt.Fprintf(w, "Tree: %s\n", result.Run.TreeHash)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, e := range result.Timeline {
		fmt.Fprintf(w, "  [%d] %s%s", e.Seq, strings.Repeat("  ", e.Depth), e.Name)
		if e.Layer == "override" {
			fmt.Fprint(w, " (override)")
		}
		if e.BaseOnly {
			fmt.Fprint(w, " (base-only)")
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	if result.Error != "" {
		fmt.Fprintln(w, "=== Error ===")
		fmt.Fprintf(w, "  [%s] %s\n", result.Run.ErrorCode, result.Error)
	} else {
		fmt.Fprintln(w, "=== Output ===")
		fmt.Fprintln(w, result.Output)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Overrides:    %d\n", result.Stats.Overrides)
	fmt.Fprintf(w, "  Base-only:    %d\n", result.Stats.BaseOnly)
	fmt.Fprintf(w, "  Max Depth:    %d\n", result.Stats.MaxDepth)
	return nil
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}

func runStatus(errorCode string) string {
	if errorCode == "" {
		return "ok"
	}
	return errorCode
}
