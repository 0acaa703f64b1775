package redis

import (
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	got := Key("abc123", "/cars/porsche-911")
	want := "pageview:abc123:/cars/porsche-911"
	if got != want {
		t.Fatalf("Key() = %q, want %q", got, want)
	}
}

func TestNewDedupChecker_DefaultWindow(t *testing.T) {
	d := NewDedupChecker(nil, 0)
	if d.window != DefaultDedupWindow {
		t.Fatalf("expected default window %v, got %v", DefaultDedupWindow, d.window)
	}
	d = NewDedupChecker(nil, time.Minute)
	if d.window != time.Minute {
		t.Fatalf("expected custom window, got %v", d.window)
	}
}
