package vm

import "testing"

func TestNewDefaultsFlushOptionOn(t *testing.T) {
	t.Parallel()

	m := New(nil)

	if !m.Options.Flush {
		t.Errorf("expected Options.Flush to default true")
	}
}

func TestResetDoesNotTouchOptions(t *testing.T) {
	t.Parallel()

	m := New(nil)
	m.Options.Trace = true

	m.Reset()

	if !m.Options.Trace {
		t.Errorf("Reset should not clear options")
	}
}
