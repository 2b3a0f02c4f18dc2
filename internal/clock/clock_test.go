package clock

import (
	"testing"
	"time"
)

func TestFakeClockAdvanceFiresTicker(t *testing.T) {
	start := time.Date(2024, 6, 17, 8, 0, 0, 0, time.UTC)
	fc := NewFake(start)

	ticker := fc.NewTicker(time.Second)
	defer ticker.Stop()

	fc.Advance(500 * time.Millisecond)
	select {
	case <-ticker.C():
		t.Fatal("ticker fired before its interval elapsed")
	default:
	}

	fc.Advance(3 * time.Second)
	select {
	case got := <-ticker.C():
		if want := start.Add(3500 * time.Millisecond); !got.Equal(want) {
			t.Errorf("tick time = %v, want %v", got, want)
		}
	default:
		t.Fatal("expected a tick after advancing past the interval")
	}

	// Missed ticks are dropped, not queued.
	select {
	case <-ticker.C():
		t.Fatal("expected a single buffered tick")
	default:
	}
}

func TestFakeClockStoppedTickerIsRemoved(t *testing.T) {
	fc := NewFake(time.Unix(0, 0))

	ticker := fc.NewTicker(time.Second)
	if fc.Tickers() != 1 {
		t.Fatalf("Tickers() = %d, want 1", fc.Tickers())
	}

	ticker.Stop()
	ticker.Stop()
	if fc.Tickers() != 0 {
		t.Fatalf("Tickers() = %d, want 0 after Stop", fc.Tickers())
	}

	fc.Advance(5 * time.Second)
	select {
	case <-ticker.C():
		t.Fatal("stopped ticker must not fire")
	default:
	}
}

func TestFakeClockSet(t *testing.T) {
	fc := NewFake(time.Unix(0, 0))
	target := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fc.Set(target)
	if !fc.Now().Equal(target) {
		t.Errorf("Now() = %v, want %v", fc.Now(), target)
	}
}
