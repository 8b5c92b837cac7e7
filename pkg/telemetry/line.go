// Package telemetry encodes welder snapshots as text lines for the serial
// console and decodes them on the host.
//
// Line format:
//
//	uptime_ms,mode,cursor,blink,pulse0,delay,pulse1,edit,temp0,temp1,faults,armed,welds
//	12345,B,P0,0,150,80,100,0,25,24,00,0,3
package telemetry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/itohio/spotweld/pkg/menu"
	"github.com/itohio/spotweld/pkg/welder"
)

// Fields is the number of comma separated values in a line.
const Fields = 13

// ErrMalformed is returned for lines that are not telemetry.
var ErrMalformed = errors.New("telemetry: malformed line")

// Frame is a snapshot received by the host.
type Frame struct {
	Time time.Time // host receive time
	welder.Snapshot
}

// AppendLine appends the line for s, including the newline, to buf.
func AppendLine(buf []byte, s welder.Snapshot) []byte {
	buf = strconv.AppendInt(buf, s.Uptime.Milliseconds(), 10)
	buf = append(buf, ',', s.Mode.Code(), ',')
	buf = append(buf, s.Cursor.Code()...)
	buf = append(buf, ',', flag(s.Blink), ',')
	buf = strconv.AppendUint(buf, uint64(s.Parameters.Pulse0), 10)
	buf = append(buf, ',')
	buf = strconv.AppendUint(buf, uint64(s.Parameters.Delay), 10)
	buf = append(buf, ',')
	buf = strconv.AppendUint(buf, uint64(s.Parameters.Pulse1), 10)
	buf = append(buf, ',')
	buf = strconv.AppendUint(buf, uint64(s.EditValue), 10)
	for _, c := range s.Celsius {
		buf = append(buf, ',')
		buf = strconv.AppendInt(buf, int64(c), 10)
	}
	buf = append(buf, ',')
	for _, f := range s.Fault {
		buf = append(buf, flag(f))
	}
	buf = append(buf, ',', flag(s.Armed), ',')
	buf = strconv.AppendUint(buf, uint64(s.Welds), 10)
	return append(buf, '\n')
}

func flag(b bool) byte {
	if b {
		return '1'
	}
	return '0'
}

// ParseLine parses one line without its newline.
func ParseLine(line string) (welder.Snapshot, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != Fields {
		return welder.Snapshot{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformed, Fields, len(parts))
	}

	var s welder.Snapshot
	uptime, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || uptime < 0 {
		return s, fmt.Errorf("%w: uptime %q", ErrMalformed, parts[0])
	}
	s.Uptime = time.Duration(uptime) * time.Millisecond

	var ok bool
	if len(parts[1]) != 1 {
		return s, fmt.Errorf("%w: mode %q", ErrMalformed, parts[1])
	}
	if s.Mode, ok = welder.ParseMode(parts[1][0]); !ok {
		return s, fmt.Errorf("%w: mode %q", ErrMalformed, parts[1])
	}
	if s.Cursor, ok = menu.ParsePosition(parts[2]); !ok {
		return s, fmt.Errorf("%w: cursor %q", ErrMalformed, parts[2])
	}
	if s.Blink, err = parseFlag(parts[3]); err != nil {
		return s, err
	}

	ms := make([]uint16, 4)
	for i := range ms {
		v, err := strconv.ParseUint(parts[4+i], 10, 16)
		if err != nil {
			return s, fmt.Errorf("%w: field %d: %v", ErrMalformed, 4+i, err)
		}
		ms[i] = uint16(v)
	}
	s.Parameters = menu.Parameters{Pulse0: ms[0], Delay: ms[1], Pulse1: ms[2]}
	s.EditValue = ms[3]

	for i := range s.Celsius {
		v, err := strconv.ParseInt(parts[8+i], 10, 16)
		if err != nil {
			return s, fmt.Errorf("%w: temperature %d: %v", ErrMalformed, i, err)
		}
		s.Celsius[i] = int16(v)
	}

	faults := parts[10]
	if len(faults) != len(s.Fault) {
		return s, fmt.Errorf("%w: faults %q", ErrMalformed, faults)
	}
	for i := range s.Fault {
		if s.Fault[i], err = parseFlag(faults[i : i+1]); err != nil {
			return s, err
		}
	}

	if s.Armed, err = parseFlag(parts[11]); err != nil {
		return s, err
	}
	welds, err := strconv.ParseUint(parts[12], 10, 32)
	if err != nil {
		return s, fmt.Errorf("%w: welds: %v", ErrMalformed, err)
	}
	s.Welds = uint32(welds)

	return s, nil
}

func parseFlag(s string) (bool, error) {
	switch s {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, fmt.Errorf("%w: flag %q", ErrMalformed, s)
}
