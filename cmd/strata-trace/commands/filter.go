package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/strata-xr/strata-go/pkg/tracelog"
)

// FilterOptions carries the flag values of the filter command.
type FilterOptions struct {
	Output    string
	RunID     string
	Session   string
	TimeStart string
	TimeEnd   string
	Layer     string
	Category  string
}

func (o FilterOptions) build() (tracelog.Filter, error) {
	f := tracelog.Filter{RunID: o.RunID, SessionName: o.Session}
	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return f, fmt.Errorf("parse -time-start: %w", err)
		}
		f.TimeStart = &t
	}
	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return f, fmt.Errorf("parse -time-end: %w", err)
		}
		f.TimeEnd = &t
	}
	if o.Layer != "" {
		l, err := parseLayer(o.Layer)
		if err != nil {
			return f, err
		}
		f.Layer = &l
	}
	if o.Category != "" {
		c, err := parseCategory(o.Category)
		if err != nil {
			return f, err
		}
		f.Category = &c
	}
	return f, nil
}

// RunFilter copies the matching subset of a trace file into a new one.
func RunFilter(path string, opts FilterOptions) error {
	filter, err := opts.build()
	if err != nil {
		return err
	}

	in, err := tracelog.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("open trace: %w", err)
	}
	defer in.Close()

	out, err := tracelog.NewFileLogger(opts.Output)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer out.Close()

	var count int
	for {
		ev, err := in.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read trace: %w", err)
		}
		out.Log(ev)
		count++
	}

	fmt.Printf("Filtered %d events to %s\n", count, opts.Output)
	return nil
}
