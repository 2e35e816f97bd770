package timeutil

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRealClock(t *testing.T) {
	var c Clock = RealClock{}
	start := c.Now()
	if c.Since(start) < 0 {
		t.Error("Since should not be negative")
	}

	tk := c.NewTicker(time.Millisecond)
	defer tk.Stop()
	select {
	case <-tk.C():
	case <-time.After(time.Second):
		t.Fatal("real ticker never fired")
	}
	tk.Reset(2 * time.Millisecond)
}

func TestMockClockNowAndSince(t *testing.T) {
	c := NewMockClock(epoch)
	if !c.Now().Equal(epoch) {
		t.Errorf("Now() = %v, want %v", c.Now(), epoch)
	}
	c.Advance(90 * time.Second)
	if got := c.Since(epoch); got != 90*time.Second {
		t.Errorf("Since() = %v", got)
	}
	later := epoch.Add(time.Hour)
	c.Set(later)
	if !c.Now().Equal(later) {
		t.Errorf("Set did not move the clock")
	}
}

func TestMockTickerFiresOnAdvance(t *testing.T) {
	c := NewMockClock(epoch)
	tk := c.NewTicker(16 * time.Millisecond)
	if !c.WaitForTicker(time.Second) {
		t.Fatal("WaitForTicker did not see the new ticker")
	}

	c.Advance(10 * time.Millisecond)
	select {
	case <-tk.C():
		t.Fatal("ticker fired early")
	default:
	}

	c.Advance(6 * time.Millisecond)
	select {
	case got := <-tk.C():
		if want := epoch.Add(16 * time.Millisecond); !got.Equal(want) {
			t.Errorf("tick time = %v, want %v", got, want)
		}
	default:
		t.Fatal("ticker did not fire when due")
	}

	// Two periods without reading coalesce into one pending tick.
	c.Advance(16 * time.Millisecond)
	c.Advance(16 * time.Millisecond)
	<-tk.C()
	select {
	case <-tk.C():
		t.Fatal("expected a single pending tick")
	default:
	}
}

func TestMockTickerStopAndReset(t *testing.T) {
	c := NewMockClock(epoch)
	tk := c.NewTicker(10 * time.Millisecond)
	tk.Stop()
	c.Advance(time.Second)
	select {
	case <-tk.C():
		t.Fatal("stopped ticker fired")
	default:
	}

	tk.Reset(5 * time.Millisecond)
	c.Advance(5 * time.Millisecond)
	select {
	case <-tk.C():
	default:
		t.Fatal("reset ticker did not fire")
	}

	mt := tk.(*MockTicker)
	mt.Trigger(epoch)
	if got := <-tk.C(); !got.Equal(epoch) {
		t.Errorf("Trigger delivered %v", got)
	}
}

func TestWaitForTickerTimeout(t *testing.T) {
	c := NewMockClock(epoch)
	if c.WaitForTicker(time.Millisecond) {
		t.Error("WaitForTicker reported a ticker that was never created")
	}
}
