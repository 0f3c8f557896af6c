package status

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestSpinner(buf *bytes.Buffer) (*Spinner, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	s := NewSpinner(buf, "Testing")
	s.now = clock.now
	return s, clock
}

func TestSpinner_Start(t *testing.T) {
	var buf bytes.Buffer
	s, _ := newTestSpinner(&buf)

	s.Start()
	if !s.Running() {
		t.Fatal("expected running after Start")
	}
	if got := buf.String(); got != "\r⠋ Testing" {
		t.Errorf("unexpected first frame %q", got)
	}

	buf.Reset()
	s.Start()
	if buf.Len() != 0 {
		t.Errorf("second Start should not draw, got %q", buf.String())
	}
}

func TestSpinner_Tick(t *testing.T) {
	var buf bytes.Buffer
	s, clock := newTestSpinner(&buf)

	s.Tick()
	if buf.Len() != 0 {
		t.Error("Tick before Start should not draw")
	}

	s.Start()
	buf.Reset()

	clock.t = clock.t.Add(50 * time.Millisecond)
	s.Tick()
	if buf.Len() != 0 {
		t.Error("Tick inside the frame interval should not draw")
	}

	clock.t = clock.t.Add(100 * time.Millisecond)
	s.Tick()
	if got := buf.String(); got != "\r⠙ Testing" {
		t.Errorf("expected second frame, got %q", got)
	}

	buf.Reset()
	clock.t = clock.t.Add(110 * time.Millisecond)
	s.Tick()
	if got := buf.String(); got != "\r⠹ Testing" {
		t.Errorf("expected third frame, got %q", got)
	}
}

func TestSpinner_Stop(t *testing.T) {
	var buf bytes.Buffer
	s, _ := newTestSpinner(&buf)

	s.Stop()
	if buf.Len() != 0 {
		t.Error("Stop on a stopped spinner should not write")
	}

	s.Start()
	buf.Reset()
	s.Stop()
	if s.Running() {
		t.Error("expected stopped")
	}
	want := "\r" + strings.Repeat(" ", len("Testing")+2) + "\r"
	if got := buf.String(); got != want {
		t.Errorf("expected line clear %q, got %q", want, got)
	}
}

func TestSpinner_QuietRestoresOnPanic(t *testing.T) {
	var buf bytes.Buffer
	s, _ := newTestSpinner(&buf)
	s.Start()
	buf.Reset()

	func() {
		defer func() { _ = recover() }()
		s.Quiet(func() { panic("boom") })
	}()

	wipe := "\r" + strings.Repeat(" ", len("Testing")+2) + "\r"
	if got := buf.String(); got != wipe+"\r⠋ Testing" {
		t.Errorf("expected clear then redraw, got %q", got)
	}

	// Quiet depth must unwind with the panic.
	if s.quiet != 0 {
		t.Errorf("quiet depth leaked: %d", s.quiet)
	}
}

func TestSpinner_NestedQuiet(t *testing.T) {
	var buf bytes.Buffer
	s, clock := newTestSpinner(&buf)
	s.Start()
	buf.Reset()

	s.Quiet(func() {
		s.Quiet(func() {
			clock.t = clock.t.Add(time.Second)
			s.Tick()
		})
	})

	wipe := "\r" + strings.Repeat(" ", len("Testing")+2) + "\r"
	if got := buf.String(); got != wipe+"\r⠋ Testing" {
		t.Errorf("nested quiet should clear and redraw once, got %q", got)
	}
}

func TestSpinner_Disabled(t *testing.T) {
	s := Disabled()
	s.Start()
	ran := false
	s.Quiet(func() { ran = true })
	s.Tick()
	s.Stop()
	if !ran {
		t.Error("Quiet must still run fn when disabled")
	}
}

func TestHandler_SuspendsSpinnerAroundRecords(t *testing.T) {
	var out bytes.Buffer
	s, _ := newTestSpinner(&out)
	s.Start()
	out.Reset()

	logger := slog.New(NewHandler(slog.NewTextHandler(&out, nil), s)).With("component", "test")
	logger.Info("device detected")

	got := out.String()
	wipe := "\r" + strings.Repeat(" ", len("Testing")+2) + "\r"
	if !strings.HasPrefix(got, wipe) {
		t.Errorf("log line should follow a line clear, got %q", got)
	}
	if !strings.Contains(got, "device detected") || !strings.Contains(got, "component=test") {
		t.Errorf("record not written through, got %q", got)
	}
	if !strings.HasSuffix(got, "\r⠋ Testing") {
		t.Errorf("spinner should be redrawn after the record, got %q", got)
	}
}
