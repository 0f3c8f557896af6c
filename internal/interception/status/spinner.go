// Package status draws the waiting indicator and keeps it from
// interleaving with log output.
package status

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Frames is the braille animation cycle.
var Frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// DefaultInterval is the minimum time between two frames.
const DefaultInterval = 100 * time.Millisecond

// Spinner is a single-line progress indicator redrawn on Tick.
// The zero value is not usable; use NewSpinner or Disabled.
type Spinner struct {
	mu         sync.Mutex
	out        io.Writer
	message    string
	interval   time.Duration
	now        func() time.Time
	enabled    bool
	running    bool
	quiet      int
	idx        int
	lastUpdate time.Time
}

// NewSpinner returns a spinner writing to out.
func NewSpinner(out io.Writer, message string) *Spinner {
	if message == "" {
		message = "Waiting"
	}
	return &Spinner{
		out:      out,
		message:  message,
		interval: DefaultInterval,
		now:      time.Now,
		enabled:  true,
	}
}

// ForTerminal returns a spinner on f, disabled unless f is a terminal.
func ForTerminal(f *os.File, message string) *Spinner {
	s := NewSpinner(f, message)
	s.enabled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	return s
}

// Disabled returns a spinner that never draws.
func Disabled() *Spinner {
	s := NewSpinner(io.Discard, "")
	s.enabled = false
	return s
}

// Start draws the first frame. Starting a running spinner is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.lastUpdate = s.now()
	s.draw()
}

// Tick advances the animation when the frame interval has elapsed.
func (s *Spinner) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.quiet > 0 {
		return
	}
	now := s.now()
	if now.Sub(s.lastUpdate) < s.interval {
		return
	}
	s.idx = (s.idx + 1) % len(Frames)
	s.lastUpdate = now
	s.draw()
}

// Stop clears the line. Stopping a stopped spinner is a no-op.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	if s.quiet == 0 {
		s.clear()
	}
}

// Running reports whether the spinner is started.
func (s *Spinner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Quiet runs fn with the indicator erased and redraws it afterwards,
// including when fn panics. Calls may nest.
func (s *Spinner) Quiet(fn func()) {
	s.beginQuiet()
	defer s.endQuiet()
	fn()
}

func (s *Spinner) beginQuiet() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.quiet++
	if s.quiet == 1 && s.running {
		s.clear()
	}
}

func (s *Spinner) endQuiet() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.quiet--
	if s.quiet == 0 && s.running {
		s.draw()
	}
}

func (s *Spinner) draw() {
	if !s.enabled {
		return
	}
	_, _ = io.WriteString(s.out, "\r"+Frames[s.idx]+" "+s.message)
}

func (s *Spinner) clear() {
	if !s.enabled {
		return
	}
	_, _ = io.WriteString(s.out, "\r"+strings.Repeat(" ", len(s.message)+2)+"\r")
}
