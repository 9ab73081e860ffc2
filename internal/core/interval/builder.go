package interval

import (
	"time"

	"github.com/cfnplot/cfnplot/internal/core/event"
)

// Outcome classifies how an attempt ended.
type Outcome int

const (
	// OutcomeUnresolved marks an attempt whose terminal event never arrived
	// in the observed batch. It renders as an open bar, never dropped.
	OutcomeUnresolved Outcome = iota
	OutcomeSucceeded
	OutcomeFailed
	OutcomeSkipped
	OutcomeRolledBack
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRolledBack:
		return "rolled-back"
	default:
		return "unresolved"
	}
}

// Interval is one timed attempt of a resource's lifecycle transition.
// End is nil while the attempt is open; End >= Start whenever it is known.
type Interval struct {
	Key          event.ResourceKey
	Start        time.Time
	End          *time.Time
	Outcome      Outcome
	Attempt      int
	Reason       string
	ResourceType string
	PhysicalID   string
}

// Duration returns the attempt's elapsed time, or false while it is open.
func (iv Interval) Duration() (time.Duration, bool) {
	if iv.End == nil {
		return 0, false
	}
	return iv.End.Sub(iv.Start), true
}

// Open reports whether the attempt is still unresolved.
func (iv Interval) Open() bool {
	return iv.End == nil
}

// Per-attempt machine state. Kept as an explicit tag rather than flags; the
// repeated-Started and never-closed cases are easy to get wrong otherwise.
type machineState int

const (
	stateIdle machineState = iota
	stateOpen
)

// Build folds normalized events into attempt intervals per resource.
// Events must already be in (resource key, timestamp) order, as produced by
// event.Normalize. The machine per resource:
//
//   - Started while idle opens a new attempt.
//   - Started while open begins a new attempt; the previous one stays open
//     (unresolved) since its own terminal event never arrived.
//   - A terminal event while open closes the attempt at that instant.
//   - A terminal event while idle is a zero-duration attempt, modeling a
//     resource already settled when polling began.
//   - End-of-input while open leaves End nil. It is never synthesized to
//     "now"; that would misstate elapsed time on re-render.
//
// Unknown-phase events never open or close an attempt.
func Build(events []event.NormalizedEvent) map[event.ResourceKey][]Interval {
	out := make(map[event.ResourceKey][]Interval)

	var (
		cur   event.ResourceKey
		have  bool
		batch []event.NormalizedEvent
	)
	flush := func() {
		if len(batch) > 0 {
			out[cur] = buildResource(cur, batch)
			batch = batch[:0]
		}
	}
	for _, ev := range events {
		if !have || ev.Key != cur {
			flush()
			cur = ev.Key
			have = true
		}
		batch = append(batch, ev)
	}
	flush()

	return out
}

func buildResource(key event.ResourceKey, events []event.NormalizedEvent) []Interval {
	var (
		intervals    []Interval
		state        = stateIdle
		open         Interval
		resourceType string
		physicalID   string
	)

	for _, ev := range events {
		if ev.ResourceType != "" {
			resourceType = ev.ResourceType
		}
		if ev.PhysicalID != "" {
			physicalID = ev.PhysicalID
		}

		switch {
		case ev.Phase == event.PhaseStarted:
			if state == stateOpen {
				intervals = append(intervals, open)
			}
			open = Interval{
				Key:     key,
				Start:   ev.Timestamp,
				Outcome: OutcomeUnresolved,
				Attempt: len(intervals),
				Reason:  ev.Reason,
			}
			state = stateOpen

		case ev.Phase.Terminal():
			end := ev.Timestamp
			if state == stateOpen {
				open.End = &end
				open.Outcome = outcomeFor(ev.Phase)
				if ev.Reason != "" {
					open.Reason = ev.Reason
				}
				intervals = append(intervals, open)
				state = stateIdle
			} else {
				// Already settled when polling began: zero-duration attempt.
				intervals = append(intervals, Interval{
					Key:     key,
					Start:   ev.Timestamp,
					End:     &end,
					Outcome: outcomeFor(ev.Phase),
					Attempt: len(intervals),
					Reason:  ev.Reason,
				})
			}

		default:
			// Unknown tokens carry no lifecycle meaning; keep the latest
			// reason text if the attempt has none yet.
			if state == stateOpen && open.Reason == "" && ev.Reason != "" {
				open.Reason = ev.Reason
			}
		}
	}
	if state == stateOpen {
		intervals = append(intervals, open)
	}

	// Identity fields often arrive only on later events; backfill so the
	// nested-stack link works regardless of which event carried them.
	for i := range intervals {
		if intervals[i].ResourceType == "" {
			intervals[i].ResourceType = resourceType
		}
		if intervals[i].PhysicalID == "" {
			intervals[i].PhysicalID = physicalID
		}
	}

	return intervals
}

func outcomeFor(p event.Phase) Outcome {
	switch p {
	case event.PhaseSucceeded:
		return OutcomeSucceeded
	case event.PhaseFailed:
		return OutcomeFailed
	case event.PhaseSkipped:
		return OutcomeSkipped
	case event.PhaseRolledBack:
		return OutcomeRolledBack
	default:
		return OutcomeUnresolved
	}
}
