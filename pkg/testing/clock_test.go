package testing

import (
	"testing"
	"time"
)

func TestFakeClock_Advance(t *testing.T) {
	clk := NewFakeClock()
	start := clk.Now()

	clk.Advance(100 * time.Millisecond)
	elapsed := clk.Now().Sub(start)

	if elapsed != 100*time.Millisecond {
		t.Errorf("expected 100ms elapsed, got %v", elapsed)
	}
}

func TestFakeClock_Set(t *testing.T) {
	clk := NewFakeClock()
	target := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	clk.Set(target)
	if !clk.Now().Equal(target) {
		t.Errorf("expected %v, got %v", target, clk.Now())
	}
}

func TestViewTester_Clock(t *testing.T) {
	tester := NewViewTesterWithT(t)
	clk := tester.Clock()

	if clk == nil {
		t.Fatal("expected non-nil clock")
	}

	start := clk.Now()
	clk.Advance(500 * time.Millisecond)
	if clk.Now().Sub(start) != 500*time.Millisecond {
		t.Error("clock advancement not reflected")
	}
}
