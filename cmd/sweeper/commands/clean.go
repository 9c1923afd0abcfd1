package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sweeper/internal/core"
)

func (a *app) cleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean <file>",
		Short: "Clean a file and write cleaned_data.<ext>",
		Long: `Clean a file and write the result.

The input format comes from the file suffix. The output keeps the input
format unless --to names another one.

Examples:
  sweeper clean data.csv
  sweeper clean data.csv --to xlsx --dir out/
  sweeper clean data.json -o - | jq .`,
		Args: cobra.ExactArgs(1),
		RunE: a.runClean,
	}

	flags := cmd.Flags()
	flags.String("to", "", "output format (default: same as input)")
	flags.StringP("dir", "d", "", "directory for cleaned_data.<ext> (default: current directory)")
	flags.StringP("output", "o", "", "exact output path, or - for stdout")
	cmd.MarkFlagsMutuallyExclusive("dir", "output")

	return cmd
}

func (a *app) runClean(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	res, err := a.sweep(ctx, cmd, args[0])
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("output")
	if out == "-" {
		if _, err := cmd.OutOrStdout().Write(res.Output.Data); err != nil {
			return fmt.Errorf("write stdout: %w", err)
		}
	} else {
		if out == "" {
			out = filepath.Join(a.setting(cmd, "dir", "dir"), res.Output.FileName)
		}
		if err := os.WriteFile(out, res.Output.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
	}

	if !a.v.GetBool("quiet") {
		r := res.Report
		fmt.Fprintf(cmd.ErrOrStderr(), "%s -> %s: %d rows in, %d out (%d duplicates, %d incomplete removed; %d cells sanitized)\n",
			res.FileName, out, r.RowsIn, r.RowsOut, r.DuplicatesRemoved, r.IncompleteRemoved, r.CellsSanitized)
	}
	return nil
}

// sweep reads path and runs it through the service.
func (a *app) sweep(ctx context.Context, cmd *cobra.Command, path string) (*core.Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	limit, err := a.maxFileSize()
	if err != nil {
		return nil, err
	}
	if size := uint64(info.Size()); limit > 0 && size > limit {
		return nil, fmt.Errorf("file too large: %s is %s, limit %s", path, humanize.Bytes(size), humanize.Bytes(limit))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return a.service.Sweep(ctx, core.Request{
		FileName: filepath.Base(path),
		Data:     data,
		Target:   core.Format(a.setting(cmd, "to", "to")),
	})
}
