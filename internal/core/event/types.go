package event

import (
	"fmt"
	"strings"
	"time"
)

// NestedStackResourceType identifies a stack resource that is itself a stack.
const NestedStackResourceType = "AWS::CloudFormation::Stack"

// RawEvent is one resource status-change record as reported by the provider,
// either straight from the API or read back from a JSONL dump.
type RawEvent struct {
	StackID      string    `json:"stackId"`
	StackName    string    `json:"stackName,omitempty"`
	LogicalID    string    `json:"logicalResourceId"`
	PhysicalID   string    `json:"physicalResourceId,omitempty"`
	ResourceType string    `json:"resourceType,omitempty"`
	Status       string    `json:"resourceStatus"`
	Reason       string    `json:"resourceStatusReason,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// ResourceKey identifies a resource inside one stack. The same logical id can
// recur across nested stacks, so the stack id is part of the identity.
type ResourceKey struct {
	StackID   string
	LogicalID string
}

func (k ResourceKey) String() string {
	return k.StackID + "/" + k.LogicalID
}

// Less orders keys lexicographically by (stack id, logical id).
func (k ResourceKey) Less(other ResourceKey) bool {
	if k.StackID != other.StackID {
		return k.StackID < other.StackID
	}
	return k.LogicalID < other.LogicalID
}

// Phase is the canonical lifecycle meaning of a provider status token.
type Phase int

const (
	PhaseUnknown Phase = iota
	PhaseStarted
	PhaseSucceeded
	PhaseFailed
	PhaseSkipped
	PhaseRolledBack
)

func (p Phase) String() string {
	switch p {
	case PhaseStarted:
		return "started"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	case PhaseSkipped:
		return "skipped"
	case PhaseRolledBack:
		return "rolled-back"
	default:
		return "unknown"
	}
}

// Terminal reports whether the phase closes an in-flight attempt.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseSucceeded, PhaseFailed, PhaseSkipped, PhaseRolledBack:
		return true
	}
	return false
}

// ClassifyStatus maps a provider status token to its Phase. The suffix decides
// the lifecycle position: any *_IN_PROGRESS token opens an attempt, including
// rollback progress tokens, since a rollback is an attempt like any other. A
// terminal token mentioning ROLLBACK closes as PhaseRolledBack. Unrecognized
// tokens map to PhaseUnknown rather than failing, so new provider status
// strings degrade gracefully instead of breaking the chart.
func ClassifyStatus(token string) Phase {
	switch {
	case token == "":
		return PhaseUnknown
	case strings.HasSuffix(token, "_IN_PROGRESS"):
		return PhaseStarted
	case strings.HasSuffix(token, "_COMPLETE") && strings.Contains(token, "ROLLBACK"):
		return PhaseRolledBack
	case strings.HasSuffix(token, "_COMPLETE"):
		return PhaseSucceeded
	case strings.HasSuffix(token, "_FAILED") && strings.Contains(token, "ROLLBACK"):
		return PhaseRolledBack
	case strings.HasSuffix(token, "_FAILED"):
		return PhaseFailed
	case strings.HasSuffix(token, "_SKIPPED"):
		return PhaseSkipped
	default:
		return PhaseUnknown
	}
}

// NormalizedEvent is a RawEvent with its identity and phase resolved, ordered
// by (resource key, timestamp) with timestamps non-decreasing per resource.
type NormalizedEvent struct {
	RawEvent
	Key   ResourceKey
	Phase Phase
}

// MalformedEventError reports a raw record that cannot be normalized. The
// whole batch is invalid when this occurs; dropping the record silently could
// misrepresent deployment duration.
type MalformedEventError struct {
	Index int
	Field string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed event at index %d: missing %s", e.Index, e.Field)
}
