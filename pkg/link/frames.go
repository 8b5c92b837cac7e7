package link

import (
	"bufio"
	"io"
	"log"
	"strings"
	"time"

	"github.com/itohio/spotweld/pkg/telemetry"
)

// DefaultBufferSize is the default size for the frames channel buffer.
const DefaultBufferSize = 100

// scanFrames parses telemetry lines from r until it fails or reaches EOF and
// then closes frames. Lines that are not telemetry are logged.
func scanFrames(r io.Reader, frames chan<- telemetry.Frame) error {
	defer close(frames)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		snap, err := telemetry.ParseLine(line)
		if err != nil {
			log.Printf("Device: %s", line)
			continue
		}

		// Send frame to channel (non-blocking)
		select {
		case frames <- telemetry.Frame{Time: time.Now(), Snapshot: snap}:
		default:
			log.Printf("Frames channel full, dropping frame")
		}
	}
	return scanner.Err()
}
