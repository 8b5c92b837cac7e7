package encoder

// Levels are the A and B pin levels.
type Levels struct {
	A, B bool
}

var (
	clockwise        = [4]Levels{{true, false}, {false, false}, {false, true}, {true, true}}
	counterClockwise = [4]Levels{{false, true}, {false, false}, {true, false}, {true, true}}
)

// Sequence returns the pin patterns of steps detents, starting and ending at
// rest. Negative steps rotate counter-clockwise. It is used to drive a
// Decoder without a physical encoder.
func Sequence(steps int) []Levels {
	cycle := clockwise
	if steps < 0 {
		cycle = counterClockwise
		steps = -steps
	}
	res := make([]Levels, 0, steps*len(cycle))
	for i := 0; i < steps; i++ {
		res = append(res, cycle[:]...)
	}
	return res
}
