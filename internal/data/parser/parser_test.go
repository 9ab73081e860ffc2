package parser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfnplot/cfnplot/internal/core/event"
)

func TestReadWriteRoundTrip(t *testing.T) {
	events := []event.RawEvent{
		{
			StackID:   "arn:aws:cloudformation:us-east-2:123:stack/demo/abc",
			StackName: "demo",
			LogicalID: "Queue",
			Status:    "CREATE_IN_PROGRESS",
			Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			StackID:   "arn:aws:cloudformation:us-east-2:123:stack/demo/abc",
			StackName: "demo",
			LogicalID: "Queue",
			Status:    "CREATE_COMPLETE",
			Reason:    "Resource creation Initiated",
			Timestamp: time.Date(2024, 3, 1, 12, 0, 42, 0, time.UTC),
		},
	}

	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, WriteFile(path, events))

	got, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, events[0].LogicalID, got[0].LogicalID)
	assert.Equal(t, events[1].Reason, got[1].Reason)
	assert.True(t, events[1].Timestamp.Equal(got[1].Timestamp))
}

func TestReadSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	content := `{"stackId":"s1","logicalResourceId":"A","resourceStatus":"CREATE_COMPLETE","timestamp":"2024-03-01T12:00:00Z"}

{"stackId":"s1","logicalResourceId":"B","resourceStatus":"CREATE_COMPLETE","timestamp":"2024-03-01T12:00:05Z"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestReadMalformedLineFailsBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	content := `{"stackId":"s1","logicalResourceId":"A","resourceStatus":"CREATE_COMPLETE","timestamp":"2024-03-01T12:00:00Z"}
not json at all
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := ReadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ":2")
}

func TestReadMissingFile(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.jsonl"))
	assert.Error(t, err)
}
