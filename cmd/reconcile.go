package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/marathon-cli/internal/model"
	"github.com/sells-group/marathon-cli/internal/reconcile"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Cross-validate two scraped feeds offline",
	Long:  "Reads primary and secondary listings from JSON files, reconciles them and prints the events with a validation summary.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("reconcile"); err != nil {
			return err
		}
		primaryPath, _ := cmd.Flags().GetString("primary")
		secondaryPath, _ := cmd.Flags().GetString("secondary")
		format, _ := cmd.Flags().GetString("format")

		threshold := cfg.Sync.Threshold
		if cmd.Flags().Changed("threshold") {
			threshold, _ = cmd.Flags().GetFloat64("threshold")
		}

		return runReconcile(cmd.OutOrStdout(), primaryPath, secondaryPath, threshold, format)
	},
}

func init() {
	reconcileCmd.Flags().String("primary", "", "JSON file of primary (roadrun) listings")
	reconcileCmd.Flags().String("secondary", "", "JSON file of secondary (runninglife) listings")
	reconcileCmd.Flags().Float64("threshold", reconcile.DefaultThreshold, "minimum match score")
	reconcileCmd.Flags().String("format", "json", "output format (json, yaml)")
	_ = reconcileCmd.MarkFlagRequired("primary")
	rootCmd.AddCommand(reconcileCmd)
}

// reconcileOutput is what the reconcile command prints.
type reconcileOutput struct {
	Summary reconcile.Summary `json:"summary"`
	Events  []model.Event     `json:"events"`
}

func runReconcile(out io.Writer, primaryPath, secondaryPath string, threshold float64, format string) error {
	primary, err := readRawEvents(primaryPath)
	if err != nil {
		return err
	}
	var secondary []model.RawEvent
	if secondaryPath != "" {
		if secondary, err = readRawEvents(secondaryPath); err != nil {
			return err
		}
	}

	events := reconcile.New(threshold).Reconcile(primary, secondary)
	result := reconcileOutput{Summary: reconcile.Summarize(events), Events: events}

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		return writeYAML(out, result)
	default:
		return eris.Errorf("unsupported format: %s", format)
	}
}

// writeYAML routes v through its JSON form so events keep their JSON
// field names.
func writeYAML(out io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "encode output")
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return eris.Wrap(err, "decode output")
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return eris.Wrap(err, "encode yaml")
	}
	return enc.Close()
}

func readRawEvents(path string) ([]model.RawEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	var events []model.RawEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, eris.Wrapf(err, "decode %s", path)
	}
	return events, nil
}
