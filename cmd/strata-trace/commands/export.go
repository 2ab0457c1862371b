package commands

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/strata-xr/strata-go/pkg/tracelog"
)

// RunExport converts a trace file into jsonl or csv, to output or
// stdout when output is empty.
func RunExport(path, format, output string) error {
	r, err := tracelog.NewReader(path)
	if err != nil {
		return fmt.Errorf("open trace: %w", err)
	}
	defer r.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("open output: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(r, w)
	case "csv":
		return exportCSV(r, w)
	}
	return fmt.Errorf("unknown format %q (supported: jsonl, csv)", format)
}

func exportJSONL(r *tracelog.Reader, w io.Writer) error {
	enc := json.NewEncoder(w)
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read trace: %w", err)
		}
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
	}
}

// eventRow flattens an event's payload into a type tag and a short
// human detail column.
func eventRow(ev tracelog.Event) (string, string) {
	switch {
	case ev.StateChange != nil:
		return "state", ev.StateChange.NewState
	case ev.Frame != nil:
		return "frame", fmt.Sprintf("%s %d", ev.Frame.Phase.String(), ev.Frame.FrameID)
	case ev.Input != nil:
		return "input", ev.Input.Action
	case ev.Binding != nil:
		return "binding", ev.Binding.Profile
	case ev.Error != nil:
		return "error", ev.Error.Message
	}
	return "unknown", ""
}

func exportCSV(r *tracelog.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"timestamp", "run_id", "layer", "category", "session", "type", "detail"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read trace: %w", err)
		}
		kind, detail := eventRow(ev)
		row := []string{
			ev.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			ev.RunID,
			ev.Layer.String(),
			ev.Category.String(),
			ev.SessionName,
			kind,
			detail,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
}
