package tracelog

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger.
// Useful for development when you want to see runtime events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("run_id", event.RunID),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	if event.SessionName != "" {
		attrs = append(attrs, slog.String("session", event.SessionName))
	}

	// Add type-specific attributes
	switch {
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Frame != nil:
		attrs = append(attrs,
			slog.String("phase", event.Frame.Phase.String()),
			slog.Int64("frame_id", event.Frame.FrameID),
		)
		if event.Frame.DisplayTime != 0 {
			attrs = append(attrs, slog.Int64("display_time", event.Frame.DisplayTime))
		}
		if event.Frame.LayerCount != nil {
			attrs = append(attrs, slog.Int("layers", *event.Frame.LayerCount))
		}
	case event.Input != nil:
		attrs = append(attrs,
			slog.String("action", event.Input.Action),
			slog.Bool("active", event.Input.Active),
		)
		if event.Input.SubactionPath != "" {
			attrs = append(attrs, slog.String("subaction", event.Input.SubactionPath))
		}
	case event.Binding != nil:
		attrs = append(attrs,
			slog.String("profile", event.Binding.Profile),
			slog.Int("bindings", event.Binding.BindingCount),
			slog.Bool("attached", event.Binding.Attached),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *event.Error.Code))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "trace", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
