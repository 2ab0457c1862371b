package tracelog

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter selects events while reading a trace file. Zero-valued fields
// match everything, Layer and Category are pointers so the zero enum
// values stay selectable.
type Filter struct {
	RunID       string
	Layer       *Layer
	Category    *Category
	SessionName string
	TimeStart   *time.Time
	TimeEnd     *time.Time
}

func (f *Filter) matches(ev Event) bool {
	switch {
	case f.RunID != "" && ev.RunID != f.RunID:
		return false
	case f.Layer != nil && ev.Layer != *f.Layer:
		return false
	case f.Category != nil && ev.Category != *f.Category:
		return false
	case f.SessionName != "" && ev.SessionName != f.SessionName:
		return false
	case f.TimeStart != nil && ev.Timestamp.Before(*f.TimeStart):
		return false
	case f.TimeEnd != nil && !ev.Timestamp.Before(*f.TimeEnd):
		return false
	}
	return true
}

// Reader streams events out of a trace file one at a time, so large
// traces never need to fit in memory.
type Reader struct {
	f      *os.File
	dec    *cbor.Decoder
	filter Filter
}

// NewReader opens path and yields every event in it.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens path and yields only events matching filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{f: f, dec: NewDecoder(f), filter: filter}, nil
}

// Next returns the next matching event, or io.EOF once the file is
// exhausted.
func (r *Reader) Next() (Event, error) {
	for {
		var ev Event
		if err := r.dec.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, err
		}
		if r.filter.matches(ev) {
			return ev, nil
		}
	}
}

func (r *Reader) Close() error {
	return r.f.Close()
}
