package web

import (
	"testing"
	"time"
)

func TestRateLimiter_Window(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := rl.allow("10.0.0.1"); !ok {
			t.Fatalf("request %d denied, want allowed", i+1)
		}
	}

	now = now.Add(20 * time.Second)
	ok, reset := rl.allow("10.0.0.1")
	if ok {
		t.Fatal("third request allowed, want denied")
	}
	if reset != 40*time.Second {
		t.Errorf("reset = %v, want %v", reset, 40*time.Second)
	}
	if ok, _ := rl.allow("10.0.0.2"); !ok {
		t.Error("other client denied, want allowed")
	}

	now = now.Add(40 * time.Second)
	if ok, _ := rl.allow("10.0.0.1"); !ok {
		t.Error("request after window denied, want allowed")
	}
}

func TestClientKey(t *testing.T) {
	tests := map[string]string{
		"192.0.2.1:5000":   "192.0.2.1",
		"[2001:db8::1]:80": "2001:db8::1",
		"203.0.113.9":      "203.0.113.9",
	}
	for in, want := range tests {
		if got := clientKey(in); got != want {
			t.Errorf("clientKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	rl.Stop()
	rl.Stop()
}
