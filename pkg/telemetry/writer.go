package telemetry

import (
	"fmt"
	"io"
	"time"

	"github.com/itohio/spotweld/pkg/welder"
)

var _ welder.Sink = (*Writer)(nil)

// DefaultInterval is how often an unchanged snapshot is repeated.
const DefaultInterval = time.Second

// Writer is a welder.Sink that writes a line whenever the snapshot changes
// and at least every interval otherwise.
type Writer struct {
	w        io.Writer
	interval time.Duration

	buf    []byte
	last   welder.Snapshot
	lastAt time.Duration
	sent   bool
}

// NewWriter creates a telemetry writer.
func NewWriter(w io.Writer, interval time.Duration) *Writer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Writer{
		w:        w,
		interval: interval,
		buf:      make([]byte, 0, 64),
	}
}

func (t *Writer) Present(s welder.Snapshot) error {
	if t.sent && s.Equal(t.last) && s.Uptime-t.lastAt < t.interval {
		return nil
	}
	t.buf = AppendLine(t.buf[:0], s)
	t.last = s
	t.lastAt = s.Uptime
	t.sent = true
	if _, err := t.w.Write(t.buf); err != nil {
		return fmt.Errorf("telemetry: write: %w", err)
	}
	return nil
}
