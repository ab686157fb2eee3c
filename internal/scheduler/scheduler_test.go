package scheduler

import "testing"

func TestOrderingByTargetThenFIFO(t *testing.T) {
	s := New()
	var fired []int64

	s.Schedule(10, func(now int64, reason Reason, arg int64) { fired = append(fired, arg) }, 0, 1)
	s.Schedule(10, func(now int64, reason Reason, arg int64) { fired = append(fired, arg) }, 0, 2)
	s.Schedule(5, func(now int64, reason Reason, arg int64) { fired = append(fired, arg) }, 0, 3)

	s.RunUntil(100)

	want := []int64{3, 1, 2}
	if len(fired) != len(want) {
		t.Fatalf("fired = %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("fired = %v, want %v", fired, want)
		}
	}
}

func TestImmediateDispatch(t *testing.T) {
	s := New()
	called := false
	s.Schedule(0, func(now int64, reason Reason, arg int64) { called = true }, 0, 0)
	if !called {
		t.Fatal("zero-delay schedule should fire immediately")
	}
	if s.Pending() != 0 {
		t.Fatalf("Pending() = %d, want 0", s.Pending())
	}
}

func TestEpochCancellation(t *testing.T) {
	s := New()
	fired := false
	s.ScheduleGuarded(1, 10, func(now int64, reason Reason, arg int64) { fired = true }, 0, 0)
	s.CancelPending(1)
	s.RunUntil(100)
	if fired {
		t.Fatal("cancelled event should not fire")
	}
}

func TestClockRatioConversion(t *testing.T) {
	s := New()
	s.SetClockRatio(1, 1, 3) // component runs at 1/3 the reference rate
	if got := s.ToComponentTicks(1, 30); got != 10 {
		t.Fatalf("ToComponentTicks = %d, want 10", got)
	}
	if got := s.ToRefCycles(1, 10); got != 30 {
		t.Fatalf("ToRefCycles = %d, want 30", got)
	}
}

func TestRescaleReferenceClockPreservesOrder(t *testing.T) {
	s := New()
	var fired []int64
	s.Schedule(10, func(now int64, reason Reason, arg int64) { fired = append(fired, arg) }, 0, 1)
	s.Schedule(20, func(now int64, reason Reason, arg int64) { fired = append(fired, arg) }, 0, 2)

	s.RescaleReferenceClock(2, 1) // double the rate: distances halve

	s.RunUntil(5)
	if len(fired) != 1 || fired[0] != 1 {
		t.Fatalf("after rescale, fired = %v, want [1] at cycle 5 (was target 10, now 5)", fired)
	}
	s.RunUntil(100)
	if len(fired) != 2 || fired[1] != 2 {
		t.Fatalf("fired = %v, want [1 2]", fired)
	}
}
