package menu

import "time"

// Mode is the state of the menu.
type Mode uint8

const (
	Browsing Mode = iota
	Editing
)

func (m Mode) String() string {
	if m == Editing {
		return "Editing"
	}
	return "Browsing"
}

// Session is an open edit of one parameter.
type Session struct {
	Target Position
	Value  uint16
}

// Config configures a Machine.
type Config struct {
	Defaults Parameters
	Max      uint16        // upper bound of every parameter
	Blink    time.Duration // cursor blink half period
}

// DefaultConfig returns the default menu configuration.
func DefaultConfig() Config {
	return Config{
		Defaults: DefaultParameters(),
		Max:      500,
		Blink:    100 * time.Millisecond,
	}
}

// Input is what the main loop collected since the previous step.
type Input struct {
	Now     time.Duration
	Pressed bool // a debounced button press was taken
	Delta   int  // encoder steps drained
}

// Machine is the menu state machine. It is driven by the main loop only and
// is not safe for concurrent use.
//
// The machine is Browsing when session is nil and Editing otherwise.
type Machine struct {
	cfg    Config
	params Parameters
	cursor Position

	session *Session

	blink   bool
	blinkAt time.Duration
}

// New creates a machine browsing at Pulse0 with the configured defaults.
func New(cfg Config) *Machine {
	if cfg.Max == 0 {
		cfg.Max = DefaultConfig().Max
	}
	if cfg.Blink <= 0 {
		cfg.Blink = DefaultConfig().Blink
	}
	return &Machine{
		cfg:    cfg,
		params: clampParameters(cfg.Defaults, cfg.Max),
		cursor: Pulse0,
	}
}

// Step advances the machine by one main loop iteration.
func (m *Machine) Step(in Input) {
	if m.session == nil {
		m.browse(in)
	} else {
		m.edit(in)
	}
}

func (m *Machine) browse(in Input) {
	if in.Pressed {
		// motion accumulated together with the press is dropped
		v, _ := m.params.Get(m.cursor)
		m.session = &Session{Target: m.cursor, Value: v}
		m.blink = false
		m.blinkAt = in.Now
		return
	}

	if in.Delta != 0 {
		m.cursor = m.cursor.Move(in.Delta)
		m.blink = false
		m.blinkAt = in.Now
		return
	}

	if in.Now-m.blinkAt >= m.cfg.Blink {
		m.blink = !m.blink
		m.blinkAt = in.Now
	}
}

func (m *Machine) edit(in Input) {
	s := m.session
	if s.Target == Start {
		m.session = nil
		return
	}

	v := int(s.Value) + in.Delta
	switch {
	case v < 0:
		v = 0
	case v > int(m.cfg.Max):
		v = int(m.cfg.Max)
	}
	s.Value = uint16(v)

	if in.Pressed {
		m.params = m.params.With(s.Target, s.Value)
		m.session = nil
		m.blinkAt = in.Now
	}
}

// Mode returns Browsing or Editing.
func (m *Machine) Mode() Mode {
	if m.session != nil {
		return Editing
	}
	return Browsing
}

// Armed reports whether the menu permits a weld: browsing with the cursor
// on Start. The thermal interlock is applied by the caller.
func (m *Machine) Armed() bool {
	return m.session == nil && m.cursor == Start
}

func (m *Machine) Cursor() Position { return m.cursor }

// Blink reports the hidden phase of the cursor blink. It is always false
// while editing.
func (m *Machine) Blink() bool { return m.session == nil && m.blink }

// Parameters returns the committed parameters.
func (m *Machine) Parameters() Parameters { return m.params }

// Session returns the open edit session, if any.
func (m *Machine) Session() (Session, bool) {
	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

func clampParameters(w Parameters, limit uint16) Parameters {
	for p := Pulse0; p < Start; p++ {
		if v, _ := w.Get(p); v > limit {
			w = w.With(p, limit)
		}
	}
	return w
}
