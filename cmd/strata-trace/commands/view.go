// Package commands implements the strata-trace CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/strata-xr/strata-go/pkg/tracelog"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Layer       *tracelog.Layer
	Category    *tracelog.Category
	SessionName string
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event tracelog.Event) {
	// Header line: timestamp [session] LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	scope := event.SessionName
	if scope == "" {
		scope = "instance"
	}

	var typeLabel string
	switch {
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Frame != nil:
		typeLabel = event.Frame.Phase.String()
	case event.Input != nil:
		typeLabel = "Input"
	case event.Binding != nil:
		typeLabel = "Binding"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [%s] %-9s %s\n", ts, scope, event.Layer.String(), typeLabel)

	switch {
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.Input != nil:
		formatInputDetails(w, event.Input)
	case event.Binding != nil:
		formatBindingDetails(w, event.Binding)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// formatStateChangeDetails writes state change details.
func formatStateChangeDetails(w io.Writer, sc *tracelog.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

// formatFrameDetails writes frame loop details.
func formatFrameDetails(w io.Writer, frame *tracelog.FrameEvent) {
	fmt.Fprintf(w, "  FrameID: %d\n", frame.FrameID)
	if frame.DisplayTime != 0 {
		fmt.Fprintf(w, "  DisplayTime: %dns\n", frame.DisplayTime)
	}
	if frame.LayerCount != nil {
		fmt.Fprintf(w, "  Layers: %d\n", *frame.LayerCount)
	}
}

// formatInputDetails writes action edge details.
func formatInputDetails(w io.Writer, in *tracelog.InputEvent) {
	fmt.Fprintf(w, "  Action: %s\n", in.Action)
	if in.SubactionPath != "" {
		fmt.Fprintf(w, "  Subaction: %s\n", in.SubactionPath)
	}
	fmt.Fprintf(w, "  Active: %v\n", in.Active)
	if len(in.Value) > 0 {
		parts := make([]string, len(in.Value))
		for i, v := range in.Value {
			parts[i] = fmt.Sprintf("%g", v)
		}
		fmt.Fprintf(w, "  Value: [%s]\n", strings.Join(parts, ", "))
	}
}

// formatBindingDetails writes binding and profile details.
func formatBindingDetails(w io.Writer, b *tracelog.BindingEvent) {
	fmt.Fprintf(w, "  Profile: %s\n", b.Profile)
	if b.BindingCount > 0 {
		fmt.Fprintf(w, "  Bindings: %d\n", b.BindingCount)
	}
	if b.Attached {
		fmt.Fprintln(w, "  Attached: true")
	}
}

// formatErrorDetails writes error details.
func formatErrorDetails(w io.Writer, err *tracelog.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer.String())
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Code != nil {
		fmt.Fprintf(w, "  Code: %d\n", *err.Code)
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// ParseLayerFlag parses a layer string from command-line flag (case-insensitive).
func ParseLayerFlag(s string) (tracelog.Layer, error) {
	return parseLayer(s)
}

// parseLayer parses a layer string (case-insensitive).
func parseLayer(s string) (tracelog.Layer, error) {
	switch strings.ToLower(s) {
	case "lifecycle":
		return tracelog.LayerLifecycle, nil
	case "frame":
		return tracelog.LayerFrame, nil
	case "input":
		return tracelog.LayerInput, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be lifecycle, frame, or input)", s)
	}
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (tracelog.Category, error) {
	return parseCategory(s)
}

// parseCategory parses a category string (case-insensitive).
func parseCategory(s string) (tracelog.Category, error) {
	switch strings.ToLower(s) {
	case "state":
		return tracelog.CategoryState, nil
	case "frame":
		return tracelog.CategoryFrame, nil
	case "input":
		return tracelog.CategoryInput, nil
	case "binding":
		return tracelog.CategoryBinding, nil
	case "error":
		return tracelog.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be state, frame, input, binding, or error)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := tracelog.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		if filter.Layer != nil && event.Layer != *filter.Layer {
			continue
		}
		if filter.Category != nil && event.Category != *filter.Category {
			continue
		}
		if filter.SessionName != "" && event.SessionName != filter.SessionName {
			continue
		}

		formatEvent(output, event)
	}

	return nil
}
