package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawAt(stackID, logicalID, status string, sec int) RawEvent {
	return RawEvent{
		StackID:   stackID,
		LogicalID: logicalID,
		Status:    status,
		Timestamp: time.Date(2024, 3, 1, 12, 0, sec, 0, time.UTC),
	}
}

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		token string
		phase Phase
	}{
		{"CREATE_IN_PROGRESS", PhaseStarted},
		{"UPDATE_IN_PROGRESS", PhaseStarted},
		{"UPDATE_ROLLBACK_IN_PROGRESS", PhaseStarted},
		{"ROLLBACK_IN_PROGRESS", PhaseStarted},
		{"CREATE_COMPLETE", PhaseSucceeded},
		{"DELETE_COMPLETE", PhaseSucceeded},
		{"ROLLBACK_COMPLETE", PhaseRolledBack},
		{"UPDATE_ROLLBACK_COMPLETE", PhaseRolledBack},
		{"CREATE_FAILED", PhaseFailed},
		{"ROLLBACK_FAILED", PhaseRolledBack},
		{"DELETE_SKIPPED", PhaseSkipped},
		{"IMPORT_SOMETHING_NEW", PhaseUnknown},
		{"REVIEW_IN_PROGRESS", PhaseStarted},
	}
	for _, c := range cases {
		assert.Equal(t, c.phase, ClassifyStatus(c.token), "token %s", c.token)
	}
}

func TestNormalizeSortsByResourceThenTime(t *testing.T) {
	raw := []RawEvent{
		rawAt("s1", "B", "CREATE_IN_PROGRESS", 5),
		rawAt("s1", "A", "CREATE_COMPLETE", 10),
		rawAt("s1", "A", "CREATE_IN_PROGRESS", 0),
		rawAt("s1", "B", "CREATE_FAILED", 8),
	}

	normalized, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, normalized, 4)

	assert.Equal(t, "A", normalized[0].LogicalID)
	assert.Equal(t, PhaseStarted, normalized[0].Phase)
	assert.Equal(t, "A", normalized[1].LogicalID)
	assert.Equal(t, "B", normalized[2].LogicalID)
	assert.Equal(t, "B", normalized[3].LogicalID)

	for i := 1; i < len(normalized); i++ {
		if normalized[i].Key == normalized[i-1].Key {
			assert.False(t, normalized[i].Timestamp.Before(normalized[i-1].Timestamp))
		}
	}
}

func TestNormalizeStableOnEqualTimestamps(t *testing.T) {
	first := rawAt("s1", "A", "CREATE_IN_PROGRESS", 3)
	second := rawAt("s1", "A", "CREATE_COMPLETE", 3)

	normalized, err := Normalize([]RawEvent{first, second})
	require.NoError(t, err)
	require.Len(t, normalized, 2)
	assert.Equal(t, "CREATE_IN_PROGRESS", normalized[0].Status)
	assert.Equal(t, "CREATE_COMPLETE", normalized[1].Status)
}

func TestNormalizeIdempotent(t *testing.T) {
	raw := []RawEvent{
		rawAt("s2", "Q", "UPDATE_IN_PROGRESS", 1),
		rawAt("s1", "Z", "CREATE_COMPLETE", 4),
		rawAt("s1", "Z", "CREATE_IN_PROGRESS", 2),
	}
	once, err := Normalize(raw)
	require.NoError(t, err)

	again := make([]RawEvent, len(once))
	for i, ev := range once {
		again[i] = ev.RawEvent
	}
	twice, err := Normalize(again)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestNormalizeDisambiguatesAcrossStacks(t *testing.T) {
	normalized, err := Normalize([]RawEvent{
		rawAt("parent", "Worker", "CREATE_IN_PROGRESS", 0),
		rawAt("child", "Worker", "CREATE_IN_PROGRESS", 1),
	})
	require.NoError(t, err)
	assert.NotEqual(t, normalized[0].Key, normalized[1].Key)
}

func TestNormalizeMalformed(t *testing.T) {
	cases := []struct {
		name  string
		raw   RawEvent
		field string
	}{
		{"missing id", RawEvent{StackID: "s1", Status: "CREATE_COMPLETE", Timestamp: time.Now()}, "logical resource id"},
		{"missing timestamp", RawEvent{StackID: "s1", LogicalID: "A", Status: "CREATE_COMPLETE"}, "timestamp"},
		{"missing status", RawEvent{StackID: "s1", LogicalID: "A", Timestamp: time.Now()}, "status"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Normalize([]RawEvent{rawAt("s1", "OK", "CREATE_COMPLETE", 0), c.raw})
			require.Error(t, err)
			var malformed *MalformedEventError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, 1, malformed.Index)
			assert.Equal(t, c.field, malformed.Field)
		})
	}
}

func TestNormalizeUnknownTokenIsNotAnError(t *testing.T) {
	normalized, err := Normalize([]RawEvent{rawAt("s1", "A", "SOMETHING_ODD", 0)})
	require.NoError(t, err)
	require.Len(t, normalized, 1)
	assert.Equal(t, PhaseUnknown, normalized[0].Phase)
}

func TestNormalizeEmptyInput(t *testing.T) {
	normalized, err := Normalize(nil)
	require.NoError(t, err)
	assert.Empty(t, normalized)
}
