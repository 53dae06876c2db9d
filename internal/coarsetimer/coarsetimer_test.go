package coarsetimer

import "testing"

func TestHasElapsed(t *testing.T) {
	var tm Timer
	start := tm.Now()
	for i := 0; i < 5; i++ {
		tm.Tick()
	}
	if tm.HasElapsed(start, 6) {
		t.Fatal("should not have elapsed yet")
	}
	tm.Tick()
	if !tm.HasElapsed(start, 6) {
		t.Fatal("should have elapsed")
	}
}

func TestHasElapsedWraparound(t *testing.T) {
	var tm Timer
	tm.ticks.Store(^uint32(0) - 2) // about to wrap
	start := tm.Now()
	for i := 0; i < 5; i++ {
		tm.Tick()
	}
	if !tm.HasElapsed(start, 4) {
		t.Fatal("wraparound should still report elapsed via unsigned subtraction")
	}
}
