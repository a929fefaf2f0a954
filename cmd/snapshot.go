package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/marathon-cli/internal/model"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect the event snapshot",
}

// -- snapshot list --

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every stored event",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("snapshot"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		events, err := st.All(ctx)
		if err != nil {
			return eris.Wrap(err, "snapshot list")
		}
		if len(events) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "Snapshot is empty.")
			return nil
		}
		formatSnapshotList(cmd.OutOrStdout(), events)
		return nil
	},
}

// -- snapshot show --

var snapshotShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Show one stored event by its date_name key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("snapshot"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ev, ok, err := st.Get(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "snapshot show")
		}
		if !ok {
			return eris.Errorf("snapshot show: no event with key %q", args[0])
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(ev)
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)
	rootCmd.AddCommand(snapshotCmd)
}

// formatSnapshotList writes a tabular list of events to out.
func formatSnapshotList(out io.Writer, events []model.Event) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KEY\tLOCATION\tVALIDATION\tCONFIDENCE\tSTATUS")
	for _, ev := range events {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			ev.Key(),
			dash(ev.Location),
			dash(string(ev.Validation.Source)),
			dash(string(ev.Validation.Confidence)),
			dash(ev.RegistrationStatus),
		)
	}
	_ = w.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
