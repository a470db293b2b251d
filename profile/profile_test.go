package profile

import (
	"slices"
	"testing"
)

func TestNew(t *testing.T) {
	p := New(WithMode("cpu"), WithPath("/tmp/prof"), WithQuiet(true))

	want := Profiler{Mode: "cpu", Path: "/tmp/prof", Quiet: true}
	if p != want {
		t.Errorf("expected %+v, got %+v", want, p)
	}
}

func TestStartWithoutMode(t *testing.T) {
	ctrl := New(WithPath(t.TempDir())).Start()

	if _, ok := ctrl.(ignore); !ok {
		t.Errorf("expected a no-op profiler, got %T", ctrl)
	}

	ctrl.Stop()
}

func TestStartUnknownMode(t *testing.T) {
	ctrl := New(WithMode("nope"), WithPath(t.TempDir())).Start()

	if _, ok := ctrl.(ignore); !ok {
		t.Errorf("expected a no-op profiler, got %T", ctrl)
	}

	ctrl.Stop()
}

func TestModesSorted(t *testing.T) {
	if m := Modes(); !slices.IsSorted(m) {
		t.Errorf("expected sorted modes, got %v", m)
	}
}
