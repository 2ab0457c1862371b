package tracelog

import (
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger appends CBOR-encoded events to a trace file. It is safe
// for concurrent use; a closed logger silently drops further events so
// shutdown ordering between sessions and the trace sink stays loose.
type FileLogger struct {
	mu   sync.Mutex
	f    *os.File
	enc  *cbor.Encoder
	done bool
}

// NewFileLogger opens path for appending, creating it with mode 0644
// when absent. Re-running against the same path extends the trace.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &FileLogger{f: f, enc: NewEncoder(f)}, nil
}

func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return
	}
	// A write failure must not surface into the frame loop.
	_ = l.enc.Encode(event)
}

// Close flushes and closes the file. Further Close calls return nil.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return nil
	}
	l.done = true
	return l.f.Close()
}

var _ Logger = (*FileLogger)(nil)
