package commands

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sweeper/internal/core"
)

func (a *app) previewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Show the original and cleaned data without writing anything",
		Long: `Show the first rows of the original and cleaned data, what the
cleaning removed, and the file that clean would write.

Examples:
  sweeper preview data.csv
  sweeper preview data.xlsx --rows 20 --to json`,
		Args: cobra.ExactArgs(1),
		RunE: a.runPreview,
	}

	flags := cmd.Flags()
	flags.IntP("rows", "n", 0, "rows to show (default 5)")
	flags.String("to", "", "output format (default: same as input)")

	return cmd
}

func (a *app) runPreview(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	res, err := a.sweep(ctx, cmd, args[0])
	if err != nil {
		return err
	}

	rows, err := strconv.Atoi(a.setting(cmd, "rows", "preview_rows"))
	if err != nil || rows < 0 {
		return fmt.Errorf("invalid rows %q", a.setting(cmd, "rows", "preview_rows"))
	}

	original, cleaned := res.Preview(rows)
	w := cmd.OutOrStdout()

	writePreview(w, "Original data", original)
	fmt.Fprintln(w)
	writePreview(w, "Cleaned data", cleaned)
	fmt.Fprintln(w)

	r := res.Report
	fmt.Fprintf(w, "Removed: %d duplicate, %d incomplete; %d cells sanitized\n",
		r.DuplicatesRemoved, r.IncompleteRemoved, r.CellsSanitized)
	fmt.Fprintf(w, "Output:  %s (%s, %s)\n", res.Output.FileName, res.Target, humanize.Bytes(uint64(len(res.Output.Data))))
	return nil
}

// writePreview prints p as an aligned table under a title line.
func writePreview(w io.Writer, title string, p core.Preview) {
	noun := "rows"
	if p.TotalRows == 1 {
		noun = "row"
	}
	fmt.Fprintf(w, "%s (%d %s", title, p.TotalRows, noun)
	if len(p.Rows) < p.TotalRows {
		fmt.Fprintf(w, ", showing %d", len(p.Rows))
	}
	fmt.Fprintln(w, ")")

	if len(p.Columns) == 0 {
		fmt.Fprintln(w, "  (no columns)")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  "+strings.Join(p.Columns, "\t"))
	for _, row := range p.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "null"
				continue
			}
			cells[i] = fmt.Sprint(v)
		}
		fmt.Fprintln(tw, "  "+strings.Join(cells, "\t"))
	}
	_ = tw.Flush()
}
