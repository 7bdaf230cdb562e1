package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/collabevents/internal/batch"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	As     int64
	DryRun bool
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <batch-file>",
		Short: "Create every event of a YAML, JSON or CUE batch file",
		Long: `Create every event of a batch file for the acting user.

The batch is all-or-nothing: if any entry is invalid or overlaps another
event (including an earlier entry of the same batch), nothing is created
and the failing entry's index is reported.

Example:
  collabevents import --as 1 ./week.yaml
  collabevents import --as 1 --dry-run ./week.cue`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	addActingAsFlag(cmd, &opts.As)
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "parse the file without creating events")

	return cmd
}

func runImport(opts *ImportOptions, path string, cmd *cobra.Command) error {
	p, err := actingAs(opts.As)
	if err != nil {
		return err
	}

	out := newFormatter(opts.RootOptions, cmd)
	fields, err := batch.LoadFile(path)
	if err != nil {
		_ = out.Error("validation", err.Error(), nil)
		exitErr := WrapExitError(ExitCommandError, "failed to load batch", err)
		exitErr.reported = true
		return exitErr
	}
	out.VerboseLog("loaded %d events from %s", len(fields), path)

	if opts.DryRun {
		return out.Success(fields, func(w io.Writer) {
			fmt.Fprintf(w, "%d events parsed; nothing created (dry run).\n", len(fields))
		})
	}

	a, err := openApp(opts.RootOptions, cmd, nil)
	if err != nil {
		return err
	}
	defer a.close()

	events, err := a.engine.CreateEvents(cmd.Context(), p, fields)
	if err != nil {
		return a.out.Fail("import events", err)
	}
	return a.out.Success(events, func(w io.Writer) {
		fmt.Fprintf(w, "Imported %d events.\n", len(events))
		writeEventTable(w, events)
	})
}

