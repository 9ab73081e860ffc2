package event

import (
	"sort"
)

// Normalize validates and canonicalizes a batch of raw events. Events are
// stable-sorted by (resource key, timestamp) ascending; records with identical
// timestamps keep their input order, since some providers report simultaneous
// state transitions with the same instant. The sort makes timestamps
// monotonically non-decreasing per resource, so running Normalize on its own
// output is a fixed point.
//
// A record missing a logical resource id, a timestamp, or a status token
// fails the whole batch with MalformedEventError. Unrecognized status tokens
// are not errors; they classify as PhaseUnknown.
func Normalize(raw []RawEvent) ([]NormalizedEvent, error) {
	out := make([]NormalizedEvent, 0, len(raw))
	for i, r := range raw {
		if r.LogicalID == "" {
			return nil, &MalformedEventError{Index: i, Field: "logical resource id"}
		}
		if r.Timestamp.IsZero() {
			return nil, &MalformedEventError{Index: i, Field: "timestamp"}
		}
		if r.Status == "" {
			return nil, &MalformedEventError{Index: i, Field: "status"}
		}
		out = append(out, NormalizedEvent{
			RawEvent: r,
			Key:      ResourceKey{StackID: r.StackID, LogicalID: r.LogicalID},
			Phase:    ClassifyStatus(r.Status),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return out[i].Key.Less(out[j].Key)
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	return out, nil
}
