package history

import "github.com/itohio/spotweld/pkg/telemetry"

// Downsample decimates frames to about maxPoints for display.
// It reuses dst when it has enough capacity. Frames where the mode changes
// are kept on top of the evenly spaced ones so short welds stay visible.
func Downsample(dst []telemetry.Frame, frames []telemetry.Frame, maxPoints int) []telemetry.Frame {
	if len(frames) <= maxPoints {
		if cap(dst) >= len(frames) {
			dst = dst[:len(frames)]
			copy(dst, frames)
			return dst
		}
		result := make([]telemetry.Frame, len(frames))
		copy(result, frames)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]telemetry.Frame, 0, maxPoints)
	}

	step := float64(len(frames)) / float64(maxPoints)
	next := 0
	for i, f := range frames {
		if i == int(float64(next)*step) {
			dst = append(dst, f)
			next++
			continue
		}
		if f.Mode != frames[i-1].Mode {
			dst = append(dst, f)
		}
	}
	return dst
}
