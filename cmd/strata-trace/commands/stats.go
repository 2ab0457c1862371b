package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/strata-xr/strata-go/pkg/tracelog"
)

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalEvents      int
	EventsByLayer    map[tracelog.Layer]int
	EventsByCategory map[tracelog.Category]int
	Sessions         map[string]*SessionStats
	Frames           FrameStats
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for a single session.
type SessionStats struct {
	FirstSeen  time.Time
	LastSeen   time.Time
	Events     int
	LastState  string
	InputEdges int
}

// FrameStats aggregates the frame loop phases.
type FrameStats struct {
	Waited    int
	Begun     int
	Submitted int
	Discarded int
}

// RunStats analyzes the trace file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := tracelog.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:    make(map[tracelog.Layer]int),
		EventsByCategory: make(map[tracelog.Category]int),
		Sessions:         make(map[string]*SessionStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByLayer[event.Layer]++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		if event.SessionName != "" {
			sess, ok := stats.Sessions[event.SessionName]
			if !ok {
				sess = &SessionStats{
					FirstSeen: event.Timestamp,
					LastSeen:  event.Timestamp,
				}
				stats.Sessions[event.SessionName] = sess
			}
			sess.Events++
			if event.Timestamp.After(sess.LastSeen) {
				sess.LastSeen = event.Timestamp
			}
			if event.StateChange != nil {
				sess.LastState = event.StateChange.NewState
			}
			if event.Input != nil {
				sess.InputEdges++
			}
		}

		if event.Frame != nil {
			switch event.Frame.Phase {
			case tracelog.FramePhaseWait:
				stats.Frames.Waited++
			case tracelog.FramePhaseBegin:
				stats.Frames.Begun++
			case tracelog.FramePhaseEnd:
				stats.Frames.Submitted++
			case tracelog.FramePhaseDiscard:
				stats.Frames.Discarded++
			}
		}

		if event.Error != nil {
			stats.Errors++
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Strata Runtime Trace Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []tracelog.Layer{tracelog.LayerLifecycle, tracelog.LayerFrame, tracelog.LayerInput} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []tracelog.Category{tracelog.CategoryState, tracelog.CategoryFrame, tracelog.CategoryInput, tracelog.CategoryBinding, tracelog.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	f := stats.Frames
	if f.Waited+f.Begun+f.Submitted+f.Discarded > 0 {
		fmt.Fprintln(w, "Frame Loop:")
		fmt.Fprintf(w, "  Waited:      %d\n", f.Waited)
		fmt.Fprintf(w, "  Begun:       %d\n", f.Begun)
		fmt.Fprintf(w, "  Submitted:   %d\n", f.Submitted)
		fmt.Fprintf(w, "  Discarded:   %d\n", f.Discarded)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Sessions: %d\n", len(stats.Sessions))
	if len(stats.Sessions) > 0 {
		type sessInfo struct {
			name  string
			stats *SessionStats
		}
		sessions := make([]sessInfo, 0, len(stats.Sessions))
		for name, ss := range stats.Sessions {
			sessions = append(sessions, sessInfo{name, ss})
		}
		sort.Slice(sessions, func(i, j int) bool {
			return sessions[i].stats.FirstSeen.Before(sessions[j].stats.FirstSeen)
		})

		fmt.Fprintln(w, "")
		for _, s := range sessions {
			duration := s.stats.LastSeen.Sub(s.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", s.name, s.stats.Events, duration)
			if s.stats.LastState != "" {
				fmt.Fprintf(w, "           Last state: %s\n", s.stats.LastState)
			}
			if s.stats.InputEdges > 0 {
				fmt.Fprintf(w, "           Input edges: %d\n", s.stats.InputEdges)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
