// Package scheduler implements the core's single-threaded cooperative
// event queue: a monotone 64-bit cycle counter at a reference rate,
// per-component clock ratios, and a min-heap of events ordered by
// (target cycle, insertion order) so ties break FIFO.
package scheduler

import "container/heap"

// Reason identifies why an event fired, interpreted by the caller.
type Reason int

// Handler is invoked when an event's target cycle is reached. now is the
// scheduler's cycle counter at the moment of firing (== the event's
// target cycle, since the scheduler never fires early).
type Handler func(now int64, reason Reason, arg int64)

// ComponentID names a registered clock-ratio target, used only for
// Advance/Rescale bookkeeping; the scheduler does not otherwise care who
// an event belongs to.
type ComponentID int

// clockRatio expresses a component's rate as refCyclesPerTick *
// tick/refCycle, stored as a rational num/den against the reference
// clock (master SH-2) to avoid float drift across billions of ticks.
type clockRatio struct {
	num, den int64
}

type event struct {
	target  int64
	seq     uint64
	epoch   uint64
	handler Handler
	reason  Reason
	arg     int64
	cancel  *uint64 // points at epoch counter at enqueue time; nil if not epoch-guarded
}

type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].target != h[j].target {
		return h[i].target < h[j].target
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)        { *h = append(*h, x.(*event)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Scheduler owns the reference cycle counter and the event heap. It is
// not safe for concurrent use: the emulator thread alone owns it, and a
// collaborator on another thread must marshal requests into an inbox
// drained between RunFrame calls.
type Scheduler struct {
	now     int64
	nextSeq uint64
	heap    eventHeap

	ratios map[ComponentID]clockRatio
	epochs map[ComponentID]*uint64
}

// New returns a Scheduler with its reference counter at zero.
func New() *Scheduler {
	return &Scheduler{
		ratios: make(map[ComponentID]clockRatio),
		epochs: make(map[ComponentID]*uint64),
	}
}

// Now returns the current reference-clock cycle count.
func (s *Scheduler) Now() int64 { return s.now }

// SetClockRatio registers or updates a component's rate relative to the
// reference clock, expressed as component-ticks-per-refClockCycles. For
// example the SCSP at 22.5792 MHz against a 28.6364 MHz master SH-2 is
// roughly num=45,den=57 after rational approximation by the caller.
func (s *Scheduler) SetClockRatio(id ComponentID, num, den int64) {
	if den == 0 {
		den = 1
	}
	old, had := s.ratios[id]
	s.ratios[id] = clockRatio{num: num, den: den}
	if !had {
		e := uint64(0)
		s.epochs[id] = &e
		return
	}
	s.rescale(id, old, s.ratios[id])
}

// ToComponentTicks converts a span of reference cycles into ticks of the
// named component using its registered ratio.
func (s *Scheduler) ToComponentTicks(id ComponentID, refCycles int64) int64 {
	r, ok := s.ratios[id]
	if !ok {
		return refCycles
	}
	return refCycles * r.num / r.den
}

// ToRefCycles is the inverse of ToComponentTicks.
func (s *Scheduler) ToRefCycles(id ComponentID, ticks int64) int64 {
	r, ok := s.ratios[id]
	if !ok {
		return ticks
	}
	return ticks * r.den / r.num
}

// Schedule enqueues an event to fire reason/arg at now+refCyclesFromNow.
// A refCyclesFromNow of 0 or less fires immediately (before Schedule
// returns) rather than being enqueued.
func (s *Scheduler) Schedule(refCyclesFromNow int64, handler Handler, reason Reason, arg int64) {
	if refCyclesFromNow <= 0 {
		handler(s.now, reason, arg)
		return
	}
	ev := &event{
		target:  s.now + refCyclesFromNow,
		seq:     s.nextSeq,
		handler: handler,
		reason:  reason,
		arg:     arg,
	}
	s.nextSeq++
	heap.Push(&s.heap, ev)
}

// ScheduleFor targets a specific component's own clock: ticksFromNow is ticks of
// that component's clock from now, translated through its ratio.
func (s *Scheduler) ScheduleFor(id ComponentID, ticksFromNow int64, handler Handler, reason Reason, arg int64) {
	s.Schedule(s.ToRefCycles(id, ticksFromNow), handler, reason, arg)
}

// epochFor lazily registers a component with a 1:1 ratio the first time
// it is epoch-guarded without an explicit SetClockRatio call.
func (s *Scheduler) epochFor(id ComponentID) *uint64 {
	e, ok := s.epochs[id]
	if !ok {
		v := uint64(0)
		e = &v
		s.epochs[id] = e
		if _, ok := s.ratios[id]; !ok {
			s.ratios[id] = clockRatio{num: 1, den: 1}
		}
	}
	return e
}

// ScheduleGuarded is like Schedule but the event silently no-ops if
// CancelPending(id) bumps the component's epoch before it fires — a
// cheap alternative to removing the event from the heap directly.
func (s *Scheduler) ScheduleGuarded(id ComponentID, refCyclesFromNow int64, handler Handler, reason Reason, arg int64) {
	epoch := s.epochFor(id)
	guardedEpoch := *epoch
	wrapped := func(now int64, reason Reason, arg int64) {
		if *epoch != guardedEpoch {
			return
		}
		handler(now, reason, arg)
	}
	s.Schedule(refCyclesFromNow, wrapped, reason, arg)
}

// CancelPending bumps a component's epoch, implicitly cancelling every
// outstanding ScheduleGuarded event registered under the old epoch.
func (s *Scheduler) CancelPending(id ComponentID) {
	*s.epochFor(id)++
}

// rescale re-targets every outstanding event by scaling the remaining
// distance from now by the ratio of old/new rates: on a clock-ratio
// change, every outstanding event is rescheduled by scaling its target
// time relative to now.
//
// This scales the whole heap uniformly rather than per-component,
// because the reference clock itself (the master SH-2) is what changes
// on an SMPC clock-change request; every event, regardless of which
// component it targets, is expressed in reference cycles.
func (s *Scheduler) rescale(_ ComponentID, oldRatio, newRatio clockRatio) {
	if oldRatio.num == 0 || newRatio.num == 0 {
		return
	}
	for _, ev := range s.heap {
		remaining := ev.target - s.now
		scaled := remaining * newRatio.den * oldRatio.num / (oldRatio.den * newRatio.num)
		ev.target = s.now + scaled
	}
	heap.Init(&s.heap)
}

// RescaleReferenceClock scales every outstanding event's remaining
// distance by den/num (num/den is the new rate over the old), for a
// clock-change request that changes the
// master SH-2's own rate (e.g. on a video-mode change).
func (s *Scheduler) RescaleReferenceClock(num, den int64) {
	if num == 0 {
		return
	}
	for _, ev := range s.heap {
		remaining := ev.target - s.now
		ev.target = s.now + remaining*den/num
	}
	heap.Init(&s.heap)
}

// Pending reports how many events are queued.
func (s *Scheduler) Pending() int { return len(s.heap) }

// RunUntil drains events in target-cycle order until the heap is empty
// or the next event's target exceeds limit, advancing s.Now() as it
// goes. Returns the final cycle count reached.
func (s *Scheduler) RunUntil(limit int64) int64 {
	for len(s.heap) > 0 && s.heap[0].target <= limit {
		ev := heap.Pop(&s.heap).(*event)
		s.now = ev.target
		ev.handler(ev.target, ev.reason, ev.arg)
	}
	if limit > s.now {
		s.now = limit
	}
	return s.now
}

// AdvanceTo runs events up to and including target cycle target,
// guaranteeing that a write from one processor to a register owned by
// another component is applied only after that component's own event
// stream has caught up to the writer's current cycle.
func (s *Scheduler) AdvanceTo(target int64) {
	s.RunUntil(target)
}
