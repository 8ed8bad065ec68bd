package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-extract/internal/adapters/driven/sink"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driving"
)

var (
	syncLimit  int
	syncOutput string
)

var syncCmd = &cobra.Command{
	Use:   "sync <source-type>",
	Short: "Run one extraction pass",
	Long: `Runs one pass over the source and reports how many entities it
produced. With --output, entities are written as newline-delimited JSON
and file content is streamed to count its bytes. Use "-" for stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().IntVarP(&syncLimit, "limit", "n", 0, "stop after this many entities")
	syncCmd.Flags().StringVarP(&syncOutput, "output", "o", "", "write entities as NDJSON to this file")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	svc, err := requireDiagnostics()
	if err != nil {
		return err
	}
	if syncLimit < 0 {
		return errors.New("--limit must not be negative")
	}
	sourceType := args[0]

	out, err := openSink(cmd, syncOutput)
	if err != nil {
		return err
	}

	// Progress goes to stderr when records go to stdout.
	status := cmd.OutOrStdout()
	if syncOutput == "-" {
		status = cmd.ErrOrStderr()
	}
	st := newStyles(status)

	fmt.Fprintf(status, "%s %s\n", st.Title.Render("Syncing"), sourceType)
	report, runErr := svc.RunSync(cmd.Context(), sourceType, driving.SyncOptions{
		Limit: syncLimit,
		Sink:  out,
	})
	closeErr := out.Close()

	printReport(status, st, report)
	if ndjson, ok := out.(*sink.NDJSON); ok {
		stats := ndjson.Stats()
		fmt.Fprintf(status, "  %s %d\n", st.Key.Render("bytes:"), stats.Bytes)
	}

	if runErr != nil {
		fmt.Fprintf(status, "%s %v\n", st.Error.Render("✗"), runErr)
		return fmt.Errorf("sync %s failed: %w", sourceType, runErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close output: %w", closeErr)
	}
	return nil
}

func openSink(cmd *cobra.Command, output string) (driven.EntitySink, error) {
	switch output {
	case "":
		return sink.NewDiscard(), nil
	case "-":
		return sink.NewNDJSON(nopCloser{cmd.OutOrStdout()}), nil
	default:
		f, err := os.Create(output)
		if err != nil {
			return nil, fmt.Errorf("create output: %w", err)
		}
		return sink.NewNDJSON(f), nil
	}
}

func printReport(w io.Writer, st *styles, report *driving.SyncReport) {
	if report == nil {
		return
	}
	mark := st.Success.Render("✓")
	if report.Limited {
		mark = st.Warning.Render("…")
	}
	fmt.Fprintf(w, "%s run %s\n", mark, st.Muted.Render(report.RunID))
	fmt.Fprintf(w, "  %s %d\n", st.Key.Render("entities:"), report.Entities)
	fmt.Fprintf(w, "  %s %d\n", st.Key.Render("files:"), report.Files)
	fmt.Fprintf(w, "  %s %s\n", st.Key.Render("duration:"), report.Duration().Round(time.Millisecond))
	if report.Limited {
		fmt.Fprintf(w, "  %s\n", st.Muted.Render("stopped at --limit"))
	}
}

// nopCloser keeps Close from closing stdout.
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
